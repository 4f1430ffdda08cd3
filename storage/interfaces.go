package storage

import "estate-scraper/models"

// ListingWriter is the interface any listing mirror must satisfy.
type ListingWriter interface {
	Write(listings []*models.Listing) error
	Close() error
}

// LinkSource supplies links collected in earlier runs.
type LinkSource interface {
	FetchLinks() ([]string, error)
}
