package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"

	"estate-scraper/utils"
)

// ErrUnsupportedCurrency is reported when a conversion names a currency the
// rate table does not know.
var ErrUnsupportedCurrency = errors.New("unsupported currency")

// Converter converts monetary amounts between currency codes.
type Converter interface {
	Convert(amount float64, base, to string) float64
}

// RateFetcher retrieves the exchange rates of one base currency.
type RateFetcher interface {
	FetchRates(ctx context.Context, base string) (map[string]float64, error)
}

// RateTable holds exchange rates per base currency. It is loaded once at
// startup and never refreshed.
type RateTable struct {
	rates  map[string]map[string]float64
	logger *utils.Logger
}

// NewRateTable wraps already known rates, keyed by base then target code.
func NewRateTable(rates map[string]map[string]float64, logger *utils.Logger) *RateTable {
	return &RateTable{rates: rates, logger: logger}
}

// LoadRateTable fetches the rates of every base, one request per base.
func LoadRateTable(ctx context.Context, fetcher RateFetcher, bases []string, retry *utils.RetryConfig, logger *utils.Logger) (*RateTable, error) {
	rates := make(map[string]map[string]float64, len(bases))

	for _, base := range bases {
		base = strings.ToUpper(strings.TrimSpace(base))

		var table map[string]float64
		err := retry.Do(ctx, "fetch-rates-"+base, func(ctx context.Context) error {
			var err error
			table, err = fetcher.FetchRates(ctx, base)
			return err
		})
		if err != nil {
			return nil, fmt.Errorf("currency: load %s rates: %w", base, err)
		}

		rates[base] = table
		logger.Info("[currency] Loaded %d %s rates", len(table), base)
	}

	return NewRateTable(rates, logger), nil
}

// Convert converts amount from base to to. A missing code on either side
// yields 0 without complaint; an unknown code is logged and yields 0.
func (t *RateTable) Convert(amount float64, base, to string) float64 {
	if base == "" || to == "" {
		return 0
	}

	rate, err := t.Rate(base, to)
	if err != nil {
		if t.logger != nil {
			t.logger.Error("[currency] Unable to convert %s to %s: %v", base, to, err)
		}
		return 0
	}
	return amount * rate
}

// Rate returns how many units of to one unit of base buys.
func (t *RateTable) Rate(base, to string) (float64, error) {
	table, ok := t.rates[base]
	if !ok {
		return 0, fmt.Errorf("%w: base %q", ErrUnsupportedCurrency, base)
	}
	rate, ok := table[to]
	if !ok {
		return 0, fmt.Errorf("%w: target %q", ErrUnsupportedCurrency, to)
	}
	return rate, nil
}

// ratesResponse is the part of the exchange-rate API payload we use.
type ratesResponse struct {
	Result string             `json:"result"`
	Base   string             `json:"base_code"`
	Rates  map[string]float64 `json:"rates"`
}

// CollyRateFetcher reads rates from an open.er-api.com compatible endpoint:
// GET {baseURL}{BASE}.
type CollyRateFetcher struct {
	baseURL   string
	collector *colly.Collector
}

// NewCollyRateFetcher creates a fetcher for the given endpoint prefix.
func NewCollyRateFetcher(baseURL string, timeout time.Duration) *CollyRateFetcher {
	c := colly.NewCollector(
		colly.AllowURLRevisit(),
		colly.UserAgent("estate-scraper/1.0"),
	)
	c.SetRequestTimeout(timeout)

	return &CollyRateFetcher{baseURL: baseURL, collector: c}
}

// FetchRates performs one GET request for base.
func (f *CollyRateFetcher) FetchRates(ctx context.Context, base string) (map[string]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	collector := f.collector.Clone()
	var payload ratesResponse
	var responseErr error

	collector.OnResponse(func(r *colly.Response) {
		if err := json.Unmarshal(r.Body, &payload); err != nil {
			responseErr = fmt.Errorf("currency: decode %s rates: %w", base, err)
		}
	})

	collector.OnError(func(r *colly.Response, err error) {
		responseErr = fmt.Errorf("currency: request %s failed with status %d: %w", r.Request.URL, r.StatusCode, err)
	})

	url := f.baseURL + base
	if err := collector.Visit(url); err != nil && responseErr == nil {
		responseErr = fmt.Errorf("currency: visit %s: %w", url, err)
	}
	collector.Wait()

	if responseErr != nil {
		return nil, responseErr
	}
	if len(payload.Rates) == 0 {
		return nil, fmt.Errorf("currency: %s response carried no rates (result %q)", base, payload.Result)
	}
	return payload.Rates, nil
}
