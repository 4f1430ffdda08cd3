package models

import (
	"encoding/json"
	"strconv"
	"time"
)

// DateLayout is the format of the collection timestamp in the dataset.
const DateLayout = "2006-01-02 15:04:05"

// WKID is the spatial reference of every stored coordinate pair (WGS 84).
const WKID = 4326

// PropertyType is the kind of dwelling a listing offers.
type PropertyType string

const (
	Apartment PropertyType = "apartment"
	House     PropertyType = "house"
)

// DealType tells whether a listing is offered for rent or for sale.
type DealType string

const (
	Rent DealType = "rent"
	Sale DealType = "sale"
)

// DealTypes lists the deal types in report order.
var DealTypes = []DealType{Sale, Rent}

// Columns is the unified field set, in dataset header order.
var Columns = []string{
	"id",
	"price",
	"rooms",
	"square_meters",
	"address",
	"date",
	"source",
	"furniture",
	"renovation",
	"price_per_meter",
	"floor",
	"building_floors",
	"height",
	"bathroom",
	"rent_or_sale",
	"links",
	"location",
	"type",
}

// SpatialReference identifies the coordinate system of a Location.
type SpatialReference struct {
	WKID       int `json:"wkid"`
	LatestWKID int `json:"latestWkid"`
}

// Location is a map point as published by the site. X is the longitude and Y
// the latitude, kept in their original textual form. Both are empty when the
// listing page carried no coordinates.
type Location struct {
	X                string           `json:"x"`
	Y                string           `json:"y"`
	SpatialReference SpatialReference `json:"spatialReference"`
}

// NewLocation returns a WGS 84 location.
func NewLocation(x, y string) Location {
	return Location{
		X:                x,
		Y:                y,
		SpatialReference: SpatialReference{WKID: WKID, LatestWKID: WKID},
	}
}

// Listing is one normalized property record. Optional attributes are nil when
// the listing page did not publish them.
type Listing struct {
	ID            string
	Link          string
	Source        string
	Address       *string
	Date          time.Time
	Location      Location
	SquareMeters  *float64
	BuildingFloor *float64
	Floor         *float64
	Furniture     *bool
	Height        *float64
	Renovation    *string
	Rooms         *float64
	Bathroom      *float64
	Price         *float64
	PricePerMeter *float64
	Type          PropertyType
	RentOrSale    DealType
}

// Fields returns the record as a JSON-compatible map holding exactly the
// unified field set.
func (l *Listing) Fields() map[string]any {
	return map[string]any{
		"id":              l.ID,
		"links":           l.Link,
		"source":          l.Source,
		"address":         stringOrNil(l.Address),
		"date":            l.Date.Format(DateLayout),
		"location":        l.Location,
		"square_meters":   floatOrNil(l.SquareMeters),
		"building_floors": floatOrNil(l.BuildingFloor),
		"floor":           floatOrNil(l.Floor),
		"furniture":       boolOrNil(l.Furniture),
		"height":          floatOrNil(l.Height),
		"renovation":      stringOrNil(l.Renovation),
		"rooms":           floatOrNil(l.Rooms),
		"bathroom":        floatOrNil(l.Bathroom),
		"price":           floatOrNil(l.Price),
		"price_per_meter": floatOrNil(l.PricePerMeter),
		"type":            string(l.Type),
		"rent_or_sale":    string(l.RentOrSale),
	}
}

// Cells renders the record as dataset cells keyed by column name. Absent
// values become empty cells.
func (l *Listing) Cells() map[string]string {
	location, _ := json.Marshal(l.Location)

	return map[string]string{
		"id":              l.ID,
		"links":           l.Link,
		"source":          l.Source,
		"address":         formatString(l.Address),
		"date":            l.Date.Format(DateLayout),
		"location":        string(location),
		"square_meters":   formatFloat(l.SquareMeters),
		"building_floors": formatFloat(l.BuildingFloor),
		"floor":           formatFloat(l.Floor),
		"furniture":       formatBool(l.Furniture),
		"height":          formatFloat(l.Height),
		"renovation":      formatString(l.Renovation),
		"rooms":           formatFloat(l.Rooms),
		"bathroom":        formatFloat(l.Bathroom),
		"price":           formatFloat(l.Price),
		"price_per_meter": formatFloat(l.PricePerMeter),
		"type":            string(l.Type),
		"rent_or_sale":    string(l.RentOrSale),
	}
}

func floatOrNil(f *float64) any {
	if f == nil {
		return nil
	}
	return *f
}

func stringOrNil(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func boolOrNil(b *bool) any {
	if b == nil {
		return nil
	}
	return *b
}

func formatFloat(f *float64) string {
	if f == nil {
		return ""
	}
	return strconv.FormatFloat(*f, 'f', -1, 64)
}

func formatString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func formatBool(b *bool) string {
	if b == nil {
		return ""
	}
	return strconv.FormatBool(*b)
}

// PriceStats summarises the prices of one deal type.
type PriceStats struct {
	PricedListings     int
	AveragePrice       float64
	MinPrice           float64
	MaxPrice           float64
	AveragePricePerSqm float64
	MostExpensive      *Listing
}

// InsightReport holds the summary computed over one run's listings. Rent and
// sale prices are kept apart in Prices.
type InsightReport struct {
	TotalListings   int
	BySource        map[string]int
	ByCategory      map[Category]int
	PricedListings  int
	Prices          map[DealType]*PriceStats
	WithCoordinates int
}
