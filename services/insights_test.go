package services

import (
	"testing"

	"estate-scraper/models"
)

func insightListings() []*models.Listing {
	return []*models.Listing{
		{Link: "https://www.list.am/en/item/1", Source: "https://www.list.am/en/", Price: ptr(200.0), PricePerMeter: ptr(2.0),
			Location: models.NewLocation("44.5", "40.1"), Type: models.Apartment, RentOrSale: models.Rent},
		{Link: "https://www.list.am/en/item/2", Source: "https://www.list.am/en/", Price: ptr(50.0),
			Location: models.NewLocation("", ""), Type: models.Apartment, RentOrSale: models.Rent},
		{Link: "https://www.estate.am/en/a-3", Source: "https://www.estate.am/en/", Price: ptr(120.0), PricePerMeter: ptr(4.0),
			Location: models.NewLocation("44.6", "40.2"), Type: models.House, RentOrSale: models.Sale},
		{Link: "https://www.estate.am/en/a-4", Source: "https://www.estate.am/en/", Price: ptr(300.0),
			Type: models.House, RentOrSale: models.Sale},
		{Link: "https://www.real-estate.am/en/a-5", Source: "https://www.real-estate.am/en/",
			Type: models.Apartment, RentOrSale: models.Sale},
	}
}

func TestInsightCounts(t *testing.T) {
	svc := NewInsightService(newTestLogger())
	r := svc.Generate(insightListings())
	if r.TotalListings != 5 {
		t.Errorf("TotalListings: got %d, want 5", r.TotalListings)
	}
	if r.PricedListings != 4 {
		t.Errorf("PricedListings: got %d, want 4", r.PricedListings)
	}
	if r.WithCoordinates != 2 {
		t.Errorf("WithCoordinates: got %d, want 2", r.WithCoordinates)
	}
}

func TestInsightPricesSplitByDealType(t *testing.T) {
	svc := NewInsightService(newTestLogger())
	r := svc.Generate(insightListings())

	tests := []struct {
		deal                  models.DealType
		count                 int
		avg, min, max, perSqm float64
		mostExpensive         string
	}{
		{models.Rent, 2, 125, 50, 200, 2, "https://www.list.am/en/item/1"},
		{models.Sale, 2, 210, 120, 300, 4, "https://www.estate.am/en/a-4"},
	}
	for _, tt := range tests {
		stats := r.Prices[tt.deal]
		if stats == nil {
			t.Errorf("Prices[%s] = nil; want stats", tt.deal)
			continue
		}
		if stats.PricedListings != tt.count {
			t.Errorf("Prices[%s].PricedListings = %d; want %d", tt.deal, stats.PricedListings, tt.count)
		}
		if stats.AveragePrice != tt.avg || stats.MinPrice != tt.min || stats.MaxPrice != tt.max {
			t.Errorf("Prices[%s] avg/min/max = %.2f/%.2f/%.2f; want %.2f/%.2f/%.2f",
				tt.deal, stats.AveragePrice, stats.MinPrice, stats.MaxPrice, tt.avg, tt.min, tt.max)
		}
		if stats.AveragePricePerSqm != tt.perSqm {
			t.Errorf("Prices[%s].AveragePricePerSqm = %.2f; want %.2f", tt.deal, stats.AveragePricePerSqm, tt.perSqm)
		}
		if stats.MostExpensive == nil || stats.MostExpensive.Link != tt.mostExpensive {
			t.Errorf("Prices[%s].MostExpensive = %v; want %q", tt.deal, stats.MostExpensive, tt.mostExpensive)
		}
	}
}

func TestInsightRentsDoNotSkewSales(t *testing.T) {
	svc := NewInsightService(newTestLogger())
	r := svc.Generate([]*models.Listing{
		{Link: "https://www.list.am/en/item/1", Price: ptr(500.0), Type: models.Apartment, RentOrSale: models.Rent},
		{Link: "https://www.estate.am/en/a-2", Price: ptr(150000.0), Type: models.Apartment, RentOrSale: models.Sale},
	})

	if got := r.Prices[models.Sale].MinPrice; got != 150000 {
		t.Errorf("sale MinPrice: got %.2f, want 150000", got)
	}
	if got := r.Prices[models.Rent].MaxPrice; got != 500 {
		t.Errorf("rent MaxPrice: got %.2f, want 500", got)
	}
}

func TestInsightGrouping(t *testing.T) {
	svc := NewInsightService(newTestLogger())
	r := svc.Generate(insightListings())

	if got := r.BySource["https://www.list.am/en/"]; got != 2 {
		t.Errorf("list.am count: got %d, want 2", got)
	}
	if got := r.ByCategory[models.ApartmentsRental]; got != 2 {
		t.Errorf("apartments for rent: got %d, want 2", got)
	}
	if got := r.ByCategory[models.HouseSale]; got != 2 {
		t.Errorf("houses for sale: got %d, want 2", got)
	}
	if got := r.ByCategory[models.ApartmentsSale]; got != 1 {
		t.Errorf("apartments for sale: got %d, want 1", got)
	}
}

func TestInsightEmptyInput(t *testing.T) {
	svc := NewInsightService(newTestLogger())
	r := svc.Generate(nil)
	if r.TotalListings != 0 {
		t.Errorf("expected 0 total listings for empty input")
	}
	if len(r.Prices) != 0 {
		t.Errorf("expected no price statistics for empty input, got %v", r.Prices)
	}
}
