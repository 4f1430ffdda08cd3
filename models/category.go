package models

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Category is one of the four listing galleries every site exposes.
type Category int

const (
	ApartmentsRental Category = iota
	HouseRental
	ApartmentsSale
	HouseSale
)

// Categories lists every category in collection order.
var Categories = []Category{HouseSale, HouseRental, ApartmentsRental, ApartmentsSale}

// PropertyType resolves the dwelling kind the category's records carry.
func (c Category) PropertyType() PropertyType {
	if c == ApartmentsRental || c == ApartmentsSale {
		return Apartment
	}
	return House
}

// DealType resolves whether the category's records are rentals or sales.
func (c Category) DealType() DealType {
	if c == ApartmentsRental || c == HouseRental {
		return Rent
	}
	return Sale
}

func (c Category) String() string {
	switch c {
	case ApartmentsRental:
		return "apartments for rent"
	case HouseRental:
		return "houses for rent"
	case ApartmentsSale:
		return "apartments for sale"
	case HouseSale:
		return "houses for sale"
	}
	return "unknown category"
}

// Title is the human-readable heading used in progress output.
func (c Category) Title() string {
	return cases.Title(language.English).String(c.String())
}
