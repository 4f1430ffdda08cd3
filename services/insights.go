package services

import (
	"fmt"
	"sort"
	"strings"

	"estate-scraper/models"
	"estate-scraper/utils"
)

type InsightService struct {
	logger *utils.Logger
}

func NewInsightService(logger *utils.Logger) *InsightService {
	return &InsightService{logger: logger}
}

// Generate summarises one run's listings. Rents and purchase prices are
// never mixed: price statistics are computed per deal type.
func (s *InsightService) Generate(listings []*models.Listing) *models.InsightReport {
	report := &models.InsightReport{
		BySource:   make(map[string]int),
		ByCategory: make(map[models.Category]int),
		Prices:     make(map[models.DealType]*models.PriceStats),
	}

	if len(listings) == 0 {
		return report
	}

	report.TotalListings = len(listings)

	byDeal := make(map[models.DealType][]*models.Listing)
	for _, l := range listings {
		report.BySource[l.Source]++
		if cat, ok := categoryOf(l); ok {
			report.ByCategory[cat]++
		}
		if l.Location.X != "" && l.Location.Y != "" {
			report.WithCoordinates++
		}
		byDeal[l.RentOrSale] = append(byDeal[l.RentOrSale], l)
	}

	for deal, group := range byDeal {
		stats := priceStats(group)
		if stats.PricedListings == 0 && stats.AveragePricePerSqm == 0 {
			continue
		}
		report.Prices[deal] = stats
		report.PricedListings += stats.PricedListings
	}

	return report
}

// priceStats computes the statistics of listings sharing one deal type.
func priceStats(listings []*models.Listing) *models.PriceStats {
	stats := &models.PriceStats{}

	var total, perSqmTotal float64
	var perSqmCount int

	for _, l := range listings {
		if l.PricePerMeter != nil && *l.PricePerMeter > 0 {
			perSqmTotal += *l.PricePerMeter
			perSqmCount++
		}
		// Price stats (only listings with a positive price)
		if l.Price == nil || *l.Price <= 0 {
			continue
		}
		price := *l.Price
		if stats.PricedListings == 0 || price < stats.MinPrice {
			stats.MinPrice = price
		}
		if stats.PricedListings == 0 || price > stats.MaxPrice {
			stats.MaxPrice = price
			stats.MostExpensive = l
		}
		total += price
		stats.PricedListings++
	}

	if stats.PricedListings > 0 {
		stats.AveragePrice = round2(total / float64(stats.PricedListings))
		stats.MinPrice = round2(stats.MinPrice)
		stats.MaxPrice = round2(stats.MaxPrice)
	}
	if perSqmCount > 0 {
		stats.AveragePricePerSqm = round2(perSqmTotal / float64(perSqmCount))
	}
	return stats
}

func (s *InsightService) Print(r *models.InsightReport) {
	sep := strings.Repeat("═", 54)
	thin := strings.Repeat("─", 54)

	fmt.Printf("\n\033[1;35m%s\033[0m\n", sep)
	fmt.Printf("\033[1;35m  📊 HOUSING SCRAPE INSIGHTS\033[0m\n")
	fmt.Printf("\033[1;35m%s\033[0m\n\n", sep)

	// Overview
	fmt.Printf("\033[1;33m  Overview\033[0m\n")
	fmt.Printf("  %s\n", thin)
	fmt.Printf("  Listings collected     : \033[1m%d\033[0m\n", r.TotalListings)
	fmt.Printf("  With map coordinates   : \033[1m%d\033[0m\n", r.WithCoordinates)
	fmt.Printf("  With a price           : \033[1m%d\033[0m\n", r.PricedListings)
	fmt.Println()

	// Price Stats
	for _, deal := range models.DealTypes {
		fmt.Printf("\033[1;33m  Price Statistics, %s (USD)\033[0m\n", deal)
		fmt.Printf("  %s\n", thin)
		stats := r.Prices[deal]
		if stats == nil {
			fmt.Printf("  No price data available\n")
			fmt.Println()
			continue
		}
		if stats.PricedListings > 0 {
			fmt.Printf("  Average price : \033[1;32m%.2f\033[0m\n", stats.AveragePrice)
			fmt.Printf("  Minimum price : \033[1;32m%.2f\033[0m\n", stats.MinPrice)
			fmt.Printf("  Maximum price : \033[1;32m%.2f\033[0m\n", stats.MaxPrice)
		}
		if stats.AveragePricePerSqm > 0 {
			fmt.Printf("  Average per m²: \033[1;32m%.2f\033[0m\n", stats.AveragePricePerSqm)
		}
		if top := stats.MostExpensive; top != nil {
			fmt.Printf("  Most expensive: %s\n", truncate(top.Link, 50))
			if top.Address != nil {
				fmt.Printf("  Address       : %s\n", truncate(*top.Address, 40))
			}
		}
		fmt.Println()
	}

	// By category
	fmt.Printf("\033[1;33m  Listings by Category\033[0m\n")
	fmt.Printf("  %s\n", thin)
	if len(r.ByCategory) == 0 {
		fmt.Printf("  No listings\n")
	} else {
		for _, cat := range models.Categories {
			if n := r.ByCategory[cat]; n > 0 {
				fmt.Printf("  %-30s %d\n", cat.Title(), n)
			}
		}
	}
	fmt.Println()

	// By source
	fmt.Printf("\033[1;33m  Listings by Source\033[0m\n")
	fmt.Printf("  %s\n", thin)
	if len(r.BySource) == 0 {
		fmt.Printf("  No listings\n")
	} else {
		type sourceCount struct {
			source string
			count  int
		}
		var sources []sourceCount
		for src, cnt := range r.BySource {
			sources = append(sources, sourceCount{src, cnt})
		}
		sort.Slice(sources, func(i, j int) bool {
			if sources[i].count != sources[j].count {
				return sources[i].count > sources[j].count
			}
			return sources[i].source < sources[j].source
		})
		for _, sc := range sources {
			bar := strings.Repeat("█", min(sc.count, 40))
			fmt.Printf("  %-30s %s (%d)\n", truncate(sc.source, 28), bar, sc.count)
		}
	}

	fmt.Printf("\n\033[1;35m%s\033[0m\n\n", sep)
}

func categoryOf(l *models.Listing) (models.Category, bool) {
	for _, cat := range models.Categories {
		if cat.PropertyType() == l.Type && cat.DealType() == l.RentOrSale {
			return cat, true
		}
	}
	return 0, false
}

func round2(f float64) float64 {
	return float64(int(f*100+0.5)) / 100
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
