// Package estateam reads rental and sale listings from estate.am.
package estateam

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"estate-scraper/models"
	"estate-scraper/scraper"
	"estate-scraper/services"
	"estate-scraper/utils"
)

const (
	Name    = "estateam"
	BaseURL = "https://www.estate.am/en/"

	firstListingXPath = `//*[@id="listing"]/div[2]/div[1]`
	mapLinkSelector   = ".ymaps-2-1-79-copyright__link"
)

var endpoints = map[models.Category]string{
	models.ApartmentsRental: "apartments-rentals-s556",
	models.HouseRental:      "houses-and-villas-rentals-s649",
	models.ApartmentsSale:   "apartments-for-sale-s259",
	models.HouseSale:        "houses-and-villas-for-sale-s122",
}

// Adapter implements scraper.Adapter for estate.am.
type Adapter struct {
	conv   services.Converter
	logger *utils.Logger
	now    func() time.Time
}

func New(conv services.Converter, logger *utils.Logger) *Adapter {
	return &Adapter{conv: conv, logger: logger, now: time.Now}
}

func (a *Adapter) Name() string    { return Name }
func (a *Adapter) BaseURL() string { return BaseURL }

func (a *Adapter) Endpoints() map[models.Category]string { return endpoints }

func (a *Adapter) PageOptions(page int) string {
	return fmt.Sprintf("?page=%d&view=gallery", page)
}

func (a *Adapter) GalleryReady() *scraper.Selector {
	sel := scraper.XPath(firstListingXPath)
	return &sel
}

func (a *Adapter) ListingHrefs(doc *goquery.Document) []string {
	var hrefs []string
	doc.Find(`a.img[target="_blank"][href]`).Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		hrefs = append(hrefs, href)
	})
	return hrefs
}

func (a *Adapter) WaitMapReady(ctx context.Context, b scraper.Browser) error {
	return b.WaitUntil(ctx, scraper.Clickable(scraper.CSS(mapLinkSelector)))
}

func (a *Adapter) ExtractListing(markup, url string, cat models.Category) (*models.Listing, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("estateam: parse %s: %w", url, err)
	}

	coords := scraper.CoverageScriptCoordinates(doc)
	if coords.Status == scraper.CoordsStructureViolation {
		a.logger.Warn("[%s] No map resource on %s, page layout changed?", Name, url)
	}

	l := &models.Listing{
		ID:           scraper.TrailingID(url),
		Link:         url,
		Source:       BaseURL,
		Address:      scraper.Text(doc.Find("strong.addr")),
		Date:         a.now(),
		Location:     coords.Location(),
		SquareMeters: firstNumber(doc.Find("span.ruler")),
		Rooms:        firstNumber(doc.Find("span.rooms")),
		Bathroom:     firstNumber(activeItem(doc, "bathrooms")),
		Renovation:   renovation(doc),
		Furniture:    furniture(doc),
	}

	if floors := doc.Find("span.floor"); floors.Length() > 0 {
		l.Floor, l.BuildingFloor = scraper.ParseFloorPair(floors.First().Text())
	}

	amount, currency := price(doc, cat.DealType())
	l.Price = scraper.NormalisePrice(a.conv, amount, currency)
	l.PricePerMeter = scraper.PricePerMeter(l.Price, l.SquareMeters)

	return l, nil
}

// price picks the price block labelled for the deal. Listings offered both
// for rent and for sale carry one block each.
func price(doc *goquery.Document, deal models.DealType) (*float64, string) {
	label := "Sale"
	if deal == models.Rent {
		label = "Rent"
	}

	var amount *float64
	var currency string
	doc.Find("div.price-w").EachWithBreak(func(_ int, block *goquery.Selection) bool {
		span := block.Find("span").First()
		if span.Length() == 0 || !strings.Contains(span.Text(), label) {
			return true
		}
		text := block.Text()
		amount = utils.ParseNumber(utils.JoinNumbers(text))
		currency = scraper.DetectCurrency(text)
		return false
	})
	return amount, currency
}

func firstNumber(s *goquery.Selection) *float64 {
	if s.Length() == 0 {
		return nil
	}
	return utils.FirstNumber(s.First().Text())
}

// activeItem returns the first highlighted feature whose text contains
// marker.
func activeItem(doc *goquery.Document, marker string) *goquery.Selection {
	return doc.Find("li.active").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return strings.Contains(s.Text(), marker)
	}).First()
}

func renovation(doc *goquery.Document) *string {
	item := activeItem(doc, "Repairment:")
	if item.Length() == 0 {
		return nil
	}
	_, value, found := strings.Cut(item.Text(), ": ")
	if !found {
		return nil
	}
	return utils.TextPtr(value)
}

// furniture is read from the description, the first paragraph with text.
func furniture(doc *goquery.Document) *bool {
	var description string
	doc.Find("p").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		description = strings.TrimSpace(s.Text())
		return description == ""
	})
	if description == "" {
		return nil
	}

	lower := strings.ToLower(description)
	furnished := strings.Contains(lower, "furnished") || strings.Contains(lower, "furniture")
	return &furnished
}
