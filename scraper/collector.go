package scraper

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"estate-scraper/models"
	"estate-scraper/utils"
)

// Adapter is the site-specific half of collection: where the galleries are,
// how to find listing links on them and how to read one listing page.
type Adapter interface {
	Name() string
	BaseURL() string
	Endpoints() map[models.Category]string
	PageOptions(page int) string
	// GalleryReady returns the element that signals a rendered gallery, or
	// nil when the URL check is enough.
	GalleryReady() *Selector
	ListingHrefs(doc *goquery.Document) []string
	WaitMapReady(ctx context.Context, b Browser) error
	ExtractListing(markup, url string, cat models.Category) (*models.Listing, error)
}

// ValidateEndpoints checks that the adapter maps every category.
func ValidateEndpoints(a Adapter) error {
	endpoints := a.Endpoints()
	for _, cat := range models.Categories {
		if strings.TrimSpace(endpoints[cat]) == "" {
			return fmt.Errorf("scraper: %s: no endpoint for %s", a.Name(), cat)
		}
	}
	return nil
}

// Stage is the collector's position in the collection of one category.
type Stage int

const (
	StagePaginating Stage = iota
	StageLinkDiscovery
	StageVisiting
	StageMapReadyWait
	StageExtracting
)

func (s Stage) String() string {
	switch s {
	case StagePaginating:
		return "paginating"
	case StageLinkDiscovery:
		return "link discovery"
	case StageVisiting:
		return "visiting"
	case StageMapReadyWait:
		return "map ready wait"
	case StageExtracting:
		return "extracting"
	}
	return "unknown"
}

// CollectorOptions bound a collection run. Zero means unbounded.
type CollectorOptions struct {
	Limit    int
	MaxPages int
}

// Collector drives one adapter through the galleries and listing pages of a
// site. It is sequential and owns the browser while running.
type Collector struct {
	adapter   Adapter
	browser   Browser
	processed *utils.LinkSet
	base      *url.URL
	opts      CollectorOptions
	logger    *utils.Logger
	stage     Stage
}

// NewCollector validates the adapter and returns a collector that skips the
// links already in processed and adds every link it discovers to it.
func NewCollector(adapter Adapter, browser Browser, processed *utils.LinkSet, opts CollectorOptions, logger *utils.Logger) (*Collector, error) {
	if err := ValidateEndpoints(adapter); err != nil {
		return nil, err
	}
	base, err := url.Parse(adapter.BaseURL())
	if err != nil {
		return nil, fmt.Errorf("scraper: %s: parse base url: %w", adapter.Name(), err)
	}
	if processed == nil {
		processed = utils.NewLinkSet()
	}
	return &Collector{
		adapter:   adapter,
		browser:   browser,
		processed: processed,
		base:      base,
		opts:      opts,
		logger:    logger,
	}, nil
}

// Stage returns the stage the collector is in or last reached.
func (c *Collector) Stage() Stage { return c.stage }

func (c *Collector) enter(s Stage) {
	c.stage = s
	c.logger.Debug("[%s] stage: %s", c.adapter.Name(), s)
}

// GalleryURL builds the address of one gallery page of a category.
func (c *Collector) GalleryURL(cat models.Category, page int) string {
	return c.adapter.BaseURL() + c.adapter.Endpoints()[cat] + c.adapter.PageOptions(page)
}

// GetAllListings pages through a category's gallery and returns the new
// listing URLs in discovery order, at most Limit of them. A gallery page
// that fails to load ends pagination.
func (c *Collector) GetAllListings(ctx context.Context, cat models.Category) ([]string, error) {
	name := c.adapter.Name()
	c.logger.Info("[%s] Getting links for %s...", name, cat.Title())

	var endpoints []string
	pages := 0

	for page := 0; c.opts.MaxPages <= 0 || page < c.opts.MaxPages; page++ {
		c.enter(StagePaginating)
		galleryURL := c.GalleryURL(cat, page)

		markup, err := c.openGallery(ctx, galleryURL)
		if err != nil {
			if Recoverable(err) {
				c.logger.Debug("[%s] Gallery page %d unavailable, stopping: %v", name, page, err)
				break
			}
			return endpoints, err
		}
		pages++

		c.enter(StageLinkDiscovery)
		remaining := 0
		if c.opts.Limit > 0 {
			remaining = c.opts.Limit - len(endpoints)
		}
		links, candidates, err := c.discover(markup, remaining)
		if err != nil {
			return endpoints, err
		}
		endpoints = append(endpoints, links...)

		if c.opts.Limit > 0 && len(endpoints) >= c.opts.Limit {
			break
		}
		if candidates == 0 {
			break
		}
	}

	c.logger.Info("[%s] Got %d listings from %d pages", name, len(endpoints), pages)
	return endpoints, nil
}

func (c *Collector) openGallery(ctx context.Context, galleryURL string) (string, error) {
	if err := c.browser.Navigate(ctx, galleryURL); err != nil {
		return "", err
	}
	if err := c.browser.WaitUntil(ctx, URLIs(galleryURL)); err != nil {
		return "", err
	}
	if ready := c.adapter.GalleryReady(); ready != nil {
		if err := c.browser.WaitUntil(ctx, Clickable(*ready)); err != nil {
			return "", err
		}
	}
	return c.browser.Source(ctx)
}

// FindListingLinks returns the listing URLs of a gallery page that are not
// processed yet, in document order, capped at limit (0 = no cap). Returned
// links are added to the processed set.
func (c *Collector) FindListingLinks(markup string, limit int) ([]string, error) {
	links, _, err := c.discover(markup, limit)
	return links, err
}

func (c *Collector) discover(markup string, limit int) (links []string, candidates int, err error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, 0, fmt.Errorf("scraper: %s: parse gallery: %w", c.adapter.Name(), err)
	}

	hrefs := c.adapter.ListingHrefs(doc)
	for _, href := range hrefs {
		if limit > 0 && len(links) >= limit {
			break
		}
		link := c.resolve(href)
		if link == "" || !c.processed.Add(link) {
			continue
		}
		links = append(links, link)
	}
	return links, len(hrefs), nil
}

func (c *Collector) resolve(href string) string {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil || (ref.Path == "" && ref.Host == "") {
		return ""
	}
	return c.base.ResolveReference(ref).String()
}

// CollectCategory visits every new listing of a category and extracts it.
// A listing that fails to load or parse is skipped; any other failure ends
// the category and is returned with the records gathered so far.
func (c *Collector) CollectCategory(ctx context.Context, cat models.Category) ([]*models.Listing, error) {
	name := c.adapter.Name()
	propertyType, deal := cat.PropertyType(), cat.DealType()

	endpoints, err := c.GetAllListings(ctx, cat)
	if err != nil {
		return nil, err
	}

	listings := make([]*models.Listing, 0, len(endpoints))
	for i, link := range endpoints {
		if err := ctx.Err(); err != nil {
			return listings, err
		}
		c.logger.Info("[%s] %s (%d/%d) %s", name, cat.Title(), i+1, len(endpoints), link)

		listing, err := c.collectListing(ctx, link, cat)
		if err != nil {
			if Recoverable(err) || errors.Is(err, errExtraction) {
				c.logger.Warn("[%s] Skipping %s: %v", name, link, err)
				continue
			}
			return listings, err
		}

		listing.Type = propertyType
		listing.RentOrSale = deal
		listings = append(listings, listing)
	}
	return listings, nil
}

var errExtraction = errors.New("listing could not be parsed")

func (c *Collector) collectListing(ctx context.Context, link string, cat models.Category) (*models.Listing, error) {
	c.enter(StageVisiting)
	if err := c.browser.Navigate(ctx, link); err != nil {
		return nil, err
	}
	if err := c.browser.WaitUntil(ctx, URLIs(link)); err != nil {
		return nil, err
	}

	c.enter(StageMapReadyWait)
	if err := c.adapter.WaitMapReady(ctx, c.browser); err != nil {
		return nil, err
	}

	markup, err := c.browser.Source(ctx)
	if err != nil {
		return nil, err
	}

	c.enter(StageExtracting)
	listing, err := c.adapter.ExtractListing(markup, link, cat)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errExtraction, err)
	}
	return listing, nil
}

// CollectAll collects the four categories in order. A fatal error stops the
// run; the records gathered until then are returned with it.
func (c *Collector) CollectAll(ctx context.Context) ([]*models.Listing, error) {
	name := c.adapter.Name()
	var all []*models.Listing

	for _, cat := range models.Categories {
		listings, err := c.CollectCategory(ctx, cat)
		all = append(all, listings...)
		if err != nil {
			return all, fmt.Errorf("scraper: %s: collect %s: %w", name, cat, err)
		}
		c.logger.Info("[%s] Collected %d %s", name, len(listings), cat)
	}
	return all, nil
}
