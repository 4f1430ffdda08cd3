package scraper

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"estate-scraper/models"
	"estate-scraper/services"
	"estate-scraper/utils"
)

// TargetCurrency is the currency every stored price is expressed in.
const TargetCurrency = "USD"

// yandexCoverage prefixes the map-initialisation script of sites embedding a
// Yandex map.
const yandexCoverage = "https://api-maps.yandex.ru/services/coverage/v2/"

// CoordsStatus tells how a coordinate lookup ended.
type CoordsStatus int

const (
	// CoordsFound means a longitude/latitude pair was read.
	CoordsFound CoordsStatus = iota
	// CoordsMissing means the page carried no usable pair. Not an error.
	CoordsMissing
	// CoordsStructureViolation means the map resource the page must carry is
	// gone, so the site layout no longer matches the adapter.
	CoordsStructureViolation
)

func (s CoordsStatus) String() string {
	switch s {
	case CoordsFound:
		return "found"
	case CoordsMissing:
		return "missing"
	case CoordsStructureViolation:
		return "structure violation"
	}
	return "unknown"
}

// Coordinates is the outcome of a coordinate lookup.
type Coordinates struct {
	X, Y   string
	Status CoordsStatus
}

// Location converts the lookup into a record location. Anything but a found
// pair yields empty coordinates.
func (c Coordinates) Location() models.Location {
	if c.Status != CoordsFound {
		return models.NewLocation("", "")
	}
	return models.NewLocation(c.X, c.Y)
}

// CoordinatesFromURL reads the map pair of a map resource URL.
func CoordinatesFromURL(rawURL string) Coordinates {
	x, y, ok := MapCoordinates(rawURL)
	if !ok {
		return Coordinates{Status: CoordsMissing}
	}
	return Coordinates{X: x, Y: y, Status: CoordsFound}
}

// CoverageScriptCoordinates reads the pair from the Yandex coverage script.
// A page without that script violates the expected structure.
func CoverageScriptCoordinates(doc *goquery.Document) Coordinates {
	var src string
	doc.Find(`script[charset="utf-8"][src]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		v, _ := s.Attr("src")
		if strings.Contains(v, yandexCoverage) {
			src = v
			return false
		}
		return true
	})
	if src == "" {
		return Coordinates{Status: CoordsStructureViolation}
	}
	return CoordinatesFromURL(src)
}

// MapCoordinates extracts the "longitude,latitude" pair carried by the ll
// query parameter of a map URL. Pages sometimes escape the separator twice,
// leaving the key as "amp;ll", so both keys are checked.
func MapCoordinates(rawURL string) (x, y string, ok bool) {
	params := parseQuery(rawURL)

	ll, found := params["ll"]
	if !found {
		ll, found = params["amp;ll"]
	}
	if !found {
		return "", "", false
	}

	lon, lat, found := strings.Cut(ll, ",")
	lon, lat = strings.TrimSpace(lon), strings.TrimSpace(lat)
	if !found || lon == "" || lat == "" {
		return "", "", false
	}
	return lon, lat, true
}

// parseQuery splits a query string on "&" only. url.ParseQuery drops keys
// containing ";", which is exactly the escaped form we must read.
func parseQuery(rawURL string) map[string]string {
	_, query, found := strings.Cut(rawURL, "?")
	if !found {
		return nil
	}
	query, _, _ = strings.Cut(query, "#")

	params := make(map[string]string)
	for _, pair := range strings.Split(query, "&") {
		if pair == "" {
			continue
		}
		key, value, _ := strings.Cut(pair, "=")
		if k, err := url.QueryUnescape(key); err == nil {
			key = k
		}
		if v, err := url.QueryUnescape(value); err == nil {
			value = v
		}
		if _, dup := params[key]; !dup {
			params[key] = value
		}
	}
	return params
}

// ParseFloorPair reads a "current/total" floor indicator. Without a slash the
// listing is a standalone house: floor is absent and the single number is the
// building's floor count.
func ParseFloorPair(text string) (floor, building *float64) {
	before, after, found := strings.Cut(text, "/")
	if !found {
		return nil, utils.FirstNumber(text)
	}
	return utils.FirstNumber(before), utils.FirstNumber(after)
}

// NormalisePrice converts a published price into the target currency. An
// absent or zero price, or one that cannot be converted, is absent.
func NormalisePrice(conv services.Converter, amount *float64, currency string) *float64 {
	if amount == nil || *amount == 0 {
		return nil
	}
	converted := conv.Convert(*amount, currency, TargetCurrency)
	if converted == 0 {
		return nil
	}
	return &converted
}

// PricePerMeter divides price by area when both are present and non-zero.
func PricePerMeter(price, area *float64) *float64 {
	if price == nil || area == nil || *price == 0 || *area == 0 {
		return nil
	}
	v := *price / *area
	return &v
}

// DetectCurrency recognises the dram and dollar markers of a price text.
func DetectCurrency(text string) string {
	switch {
	case strings.Contains(text, "֏"), strings.Contains(text, "AMD"):
		return "AMD"
	case strings.Contains(text, "$"), strings.Contains(text, "USD"):
		return "USD"
	}
	return ""
}

// TrailingID returns the run of digits ending the URL path, ignoring a
// trailing slash.
func TrailingID(rawURL string) string {
	path := rawURL
	if u, err := url.Parse(rawURL); err == nil && u.Path != "" {
		path = u.Path
	}
	path = strings.TrimRight(path, "/")

	end := len(path)
	start := end
	for start > 0 && path[start-1] >= '0' && path[start-1] <= '9' {
		start--
	}
	return path[start:end]
}

// Text returns the trimmed text of the first matched element, or nil when
// nothing matched.
func Text(s *goquery.Selection) *string {
	if s.Length() == 0 {
		return nil
	}
	return utils.TextPtr(utils.NormaliseText(s.First().Text()))
}
