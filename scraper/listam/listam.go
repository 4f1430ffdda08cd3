// Package listam reads rental and sale listings from list.am.
package listam

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"estate-scraper/models"
	"estate-scraper/scraper"
	"estate-scraper/services"
	"estate-scraper/utils"
)

const (
	Name    = "listam"
	BaseURL = "https://www.list.am/en/"

	mapLinkXPath = `//*[@id="abar"]/div[1]/a`
	mapLogoXPath = `//*[@id="map"]/ymaps/ymaps/ymaps/ymaps[3]/ymaps/ymaps/ymaps[2]/ymaps/ymaps[2]/a`

	mapLogoSelector = "a.ymaps-2-1-79-copyright__logo.ymaps-2-1-79-copyright__logo_lang_en"
)

var endpoints = map[models.Category]string{
	models.ApartmentsRental: "category/56",
	models.HouseRental:      "category/63",
	models.ApartmentsSale:   "category/60",
	models.HouseSale:        "category/62",
}

// Adapter implements scraper.Adapter for list.am.
type Adapter struct {
	conv   services.Converter
	logger *utils.Logger
	now    func() time.Time
}

// New creates a list.am adapter converting prices with conv.
func New(conv services.Converter, logger *utils.Logger) *Adapter {
	return &Adapter{conv: conv, logger: logger, now: time.Now}
}

func (a *Adapter) Name() string    { return Name }
func (a *Adapter) BaseURL() string { return BaseURL }

func (a *Adapter) Endpoints() map[models.Category]string { return endpoints }

func (a *Adapter) PageOptions(page int) string { return fmt.Sprintf("/%d?gl=1", page) }

// GalleryReady is nil: list.am renders its gallery server side.
func (a *Adapter) GalleryReady() *scraper.Selector { return nil }

func (a *Adapter) ListingHrefs(doc *goquery.Document) []string {
	var hrefs []string
	doc.Find("div.gl a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		hrefs = append(hrefs, href)
	})
	return hrefs
}

// WaitMapReady opens the map tab and waits for the Yandex widget to draw its
// logo. Hovering the logo makes the widget fill in the logo link, which
// carries the coordinates.
func (a *Adapter) WaitMapReady(ctx context.Context, b scraper.Browser) error {
	mapLink := scraper.XPath(mapLinkXPath)
	logo := scraper.XPath(mapLogoXPath)

	if err := b.WaitUntil(ctx, scraper.Clickable(mapLink)); err != nil {
		return err
	}
	if err := b.Click(ctx, mapLink); err != nil {
		return err
	}
	if err := b.WaitUntil(ctx, scraper.Clickable(logo)); err != nil {
		return err
	}
	return b.Hover(ctx, logo)
}

func (a *Adapter) ExtractListing(markup, url string, cat models.Category) (*models.Listing, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("listam: parse %s: %w", url, err)
	}

	l := &models.Listing{
		ID:       listingID(url),
		Link:     url,
		Source:   BaseURL,
		Address:  scraper.Text(doc.Find(`a[href="#"][onclick]`)),
		Date:     a.now(),
		Location: coordinates(doc).Location(),
	}
	applyAttributes(l, attributes(doc))

	price := parsePrice(doc.Find("span.price.x").AttrOr("content", ""))
	currency := strings.TrimSpace(doc.Find(`meta[itemprop="priceCurrency"]`).AttrOr("content", ""))
	l.Price = scraper.NormalisePrice(a.conv, price, currency)
	l.PricePerMeter = scraper.PricePerMeter(l.Price, l.SquareMeters)

	return l, nil
}

// listingID is the first number of the listing URL (".../item/20154337").
func listingID(url string) string {
	n, ok := utils.ExtractFirstNumber(url)
	if !ok {
		return ""
	}
	return strconv.FormatFloat(n, 'f', -1, 64)
}

// coordinates reads the pair from the Yandex logo link. Listings without a
// map are common, so a missing link is soft.
func coordinates(doc *goquery.Document) scraper.Coordinates {
	href, ok := doc.Find(mapLogoSelector).First().Attr("href")
	if !ok {
		return scraper.Coordinates{Status: scraper.CoordsMissing}
	}
	return scraper.CoordinatesFromURL(href)
}

func parsePrice(content string) *float64 {
	content = strings.TrimSpace(content)
	if p := utils.ParseNumber(content); p != nil {
		return p
	}
	return utils.ParseNumber(utils.JoinNumbers(content))
}

// attributes collects the label/value pairs of the listing's attribute
// blocks, keyed by lower-cased label.
func attributes(doc *goquery.Document) map[string]string {
	attrs := make(map[string]string)
	doc.Find("div.attr.g div.c").Each(func(_ int, s *goquery.Selection) {
		title := s.Find("div.t")
		info := s.Find("div.i")
		if title.Length() == 0 || info.Length() == 0 {
			return
		}
		label := strings.ToLower(utils.NormaliseText(title.First().Text()))
		attrs[label] = utils.NormaliseText(info.First().Text())
	})
	return attrs
}

func applyAttributes(l *models.Listing, attrs map[string]string) {
	if v, ok := attrs["floors in the building"]; ok {
		l.BuildingFloor = utils.FirstNumber(v)
	}
	if v, ok := attrs["floor"]; ok {
		l.Floor = utils.FirstNumber(v)
	}
	if v, ok := attrs["furniture"]; ok {
		furnished := !strings.Contains(v, "Not")
		l.Furniture = &furnished
	}
	if v, ok := attrs["ceiling height"]; ok {
		l.Height = utils.FirstNumber(v)
	}
	if v, ok := attrs["renovation"]; ok {
		l.Renovation = utils.TextPtr(v)
	}
	if v, ok := attrs["number of rooms"]; ok {
		l.Rooms = utils.FirstNumber(v)
	}
	if v, ok := attrs["number of bathrooms"]; ok {
		l.Bathroom = utils.FirstNumber(v)
	}
	if v, ok := attrs["house area"]; ok {
		l.SquareMeters = utils.ParseNumber(utils.JoinNumbers(v))
	} else if v, ok := attrs["floor area"]; ok {
		l.SquareMeters = utils.ParseNumber(utils.JoinNumbers(v))
	}
}
