// Package realestateam reads rental and sale listings from real-estate.am.
//
// The listing pages carry no stable class names for their numeric
// attributes. Each one is found through the SVG icon drawn next to it: the
// value is the paragraph under the icon's grandparent.
package realestateam

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
	Name    = "realestateam"
	BaseURL = "https://www.real-estate.am/en/"

	firstListingXPath = `//*[@id="__next"]/div[1]/div[1]/div[2]/div/div[3]/div[1]/div/div[1]/a/div/div[2]`
	mapAgreementXPath = `//*[@id="property-details-container"]/div/div[2]/div[2]/div/div/div[1]/ymaps/ymaps/ymaps/ymaps[3]/ymaps[2]/ymaps/ymaps[2]/ymaps/ymaps[1]/ymaps/ymaps[2]/a`
	mapAgreementAlt   = `//*[@id="property-details-container"]/div/div[2]/div/div/div/div[1]/ymaps/ymaps/ymaps/ymaps[3]/ymaps[2]/ymaps/ymaps[2]/ymaps/ymaps[1]/ymaps/ymaps[2]/a`

	addressSelector       = "div.PropertyTitleAndaddress_address_info__Ee_vF"
	priceSelector         = "div.Propertyprice_container__6_MBs.PropertyDetails_price__mJO7i"
	pricePerMeterSelector = "div.PropertyDetails_price_detailed_info___mHSJ"
	amenitySelector       = "div.PropertyDetails_utility__8RVQg"

	// Prices are requested in dollars through the gallery page options.
	defaultCurrency = "USD"
)

// Icon clip paths.
const (
	areaIcon       = "url(#clip0_1653_45530)"
	bathroomsIcon  = "url(#clip0_1653_45537)"
	roomsIcon      = "url(#clip0_1653_45506)"
	renovationIcon = "url(#clip0_195_10157)"
)

// Icon outlines, for icons without a clip path.
const (
	floorsPath = "M14.238 3.45752H11.4978C11.0768 3.45752 10.7356 3.79846 10.7356 4.21961V6.19791H8.7573C8.33615 6.19791 7.99496 6.53873 7.99496 6.95991V8.93834H6.01665C5.59551 8.93834 5.25445 9.27965 5.25445 9.70036V11.7741H3.18119C2.97888 11.7741 2.78502 11.8543 2.64215 11.997C2.49915 12.1399 2.41895 12.3346 2.41895 12.5361L2.41919 14.1306C2.41919 14.5521 2.7605 14.893 3.1814 14.893H14.238C14.6591 14.893 15.0001 14.5521 15.0001 14.1306V4.21957C15.0002 3.79846 14.6591 3.45752 14.238 3.45752Z"
	heightPath = "M3.83334 3.8249H5.325C5.7 3.8249 5.88334 3.3749 5.61667 3.11657L3.29167 0.799902C3.125 0.641569 2.86667 0.641569 2.7 0.799902L0.383336 3.11657C0.116669 3.3749 0.300003 3.8249 0.675003 3.8249H2.16667V12.1749H0.675003C0.300003 12.1749 0.116669 12.6249 0.383336 12.8832L2.70834 15.1999C2.875 15.3582 3.13334 15.3582 3.3 15.1999L5.625 12.8832C5.89167 12.6249 5.7 12.1749 5.33334 12.1749H3.83334V3.8249Z"
)

var endpoints = map[models.Category]string{
	models.ApartmentsRental: "rent/yerevan-apartment/?propertyActionType=RENT&propertyTypes=APARTMENT",
	models.HouseRental:      "rent/yerevan-house/?propertyActionType=RENT&propertyTypes=HOUSE",
	models.ApartmentsSale:   "sale/yerevan-apartment/?propertyActionType=SALE&propertyTypes=APARTMENT",
	models.HouseSale:        "sale/yerevan-house/?propertyActionType=SALE&propertyTypes=HOUSE",
}

// Adapter implements scraper.Adapter for real-estate.am.
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
	return fmt.Sprintf("&page=%d&size=300&currency=USD", page)
}

func (a *Adapter) GalleryReady() *scraper.Selector {
	sel := scraper.XPath(firstListingXPath)
	return &sel
}

// ListingHrefs keeps the English detail links of sale and rental listings.
func (a *Adapter) ListingHrefs(doc *goquery.Document) []string {
	var hrefs []string
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		if !strings.Contains(href, "/en/") {
			return
		}
		if !strings.Contains(href, "/buy") && !strings.Contains(href, "/for-rent") {
			return
		}
		hrefs = append(hrefs, href)
	})
	return hrefs
}

// WaitMapReady waits for the map's user agreement link, which sits at one of
// two positions in the page layout.
func (a *Adapter) WaitMapReady(ctx context.Context, b scraper.Browser) error {
	err := b.WaitUntil(ctx, scraper.Clickable(scraper.XPath(mapAgreementXPath)))
	if err == nil || !scraper.Recoverable(err) {
		return err
	}
	return b.WaitUntil(ctx, scraper.Clickable(scraper.XPath(mapAgreementAlt)))
}

func (a *Adapter) ExtractListing(markup, url string, cat models.Category) (*models.Listing, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("realestateam: parse %s: %w", url, err)
	}

	coords := scraper.CoverageScriptCoordinates(doc)
	if coords.Status == scraper.CoordsStructureViolation {
		a.logger.Warn("[%s] No map resource on %s, page layout changed?", Name, url)
	}

	l := &models.Listing{
		ID:           scraper.TrailingID(url),
		Link:         url,
		Source:       BaseURL,
		Address:      scraper.Text(doc.Find(addressSelector).Find("p")),
		Date:         a.now(),
		Location:     coords.Location(),
		SquareMeters: iconNumber(clipIcon(doc, areaIcon)),
		Bathroom:     iconNumber(clipIcon(doc, bathroomsIcon)),
		Rooms:        iconNumber(clipIcon(doc, roomsIcon)),
		Height:       iconNumber(pathIcon(doc, heightPath)),
		Renovation:   scraper.Text(iconValue(clipIcon(doc, renovationIcon))),
		Furniture:    furniture(doc),
	}

	if floors := iconValue(pathIcon(doc, floorsPath)); floors.Length() > 0 {
		l.Floor, l.BuildingFloor = scraper.ParseFloorPair(floors.Text())
	}

	priceBlock := doc.Find(priceSelector).First()
	if priceBlock.Length() > 0 {
		text := priceBlock.Text()
		currency := scraper.DetectCurrency(text)
		if currency == "" {
			currency = defaultCurrency
		}
		l.Price = scraper.NormalisePrice(a.conv, utils.ParseNumber(utils.JoinNumbers(text)), currency)
	}

	l.PricePerMeter = utils.ParseNumber(utils.JoinNumbers(doc.Find(pricePerMeterSelector).First().Text()))
	if l.PricePerMeter == nil || *l.PricePerMeter == 0 {
		l.PricePerMeter = scraper.PricePerMeter(l.Price, l.SquareMeters)
	}

	return l, nil
}

func clipIcon(doc *goquery.Document, clipPath string) *goquery.Selection {
	return doc.Find("g[clip-path]").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return s.AttrOr("clip-path", "") == clipPath
	}).First()
}

func pathIcon(doc *goquery.Document, d string) *goquery.Selection {
	return doc.Find("path[d]").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return s.AttrOr("d", "") == d
	}).First()
}

// iconValue returns the paragraph holding the value an icon labels.
func iconValue(icon *goquery.Selection) *goquery.Selection {
	return icon.Parent().Parent().Find("p").First()
}

func iconNumber(icon *goquery.Selection) *float64 {
	value := iconValue(icon)
	if value.Length() == 0 {
		return nil
	}
	return utils.FirstNumber(value.Text())
}

// furniture is true when an amenity mentions furniture. Pages listing no
// amenities at all leave it absent.
func furniture(doc *goquery.Document) *bool {
	amenities := doc.Find(amenitySelector)
	if amenities.Length() == 0 {
		return nil
	}
	furnished := false
	amenities.EachWithBreak(func(_ int, s *goquery.Selection) bool {
		furnished = strings.Contains(strings.ToLower(s.Text()), "furniture")
		return !furnished
	})
	return &furnished
}
