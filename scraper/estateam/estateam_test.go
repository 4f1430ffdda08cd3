package estateam

import (
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"

	"estate-scraper/models"
	"estate-scraper/scraper"
	"estate-scraper/utils"
)

type fixedRates map[string]float64

func (r fixedRates) Convert(amount float64, base, to string) float64 {
	if base == "" || to == "" {
		return 0
	}
	return amount * r[base]
}

const listingPage = `<html><head>
<script charset="utf-8" src="https://api-maps.yandex.ru/services/coverage/v2/?callback=cb&amp;l=map&amp;ll=44.503000,40.189000"></script>
</head><body>
<p>   </p>
<p>Bright fully furnished apartment near the Cascade.</p>
<strong class="addr">Yerevan, Kentron, Abovyan St</strong>
<div class="price-w"><span>Rent</span> 400,000 ֏ / month</div>
<div class="price-w"><span>Sale</span> $ 185,000</div>
<span class="ruler">92 sq.m.</span>
<span class="floor">5/14</span>
<span class="rooms">3 rooms</span>
<ul>
  <li class="active">2 bathrooms</li>
  <li class="active">Repairment: Designer renovation</li>
  <li>Repairment: ignored, not active</li>
</ul>
</body></html>`

func newTestAdapter() *Adapter {
	a := New(fixedRates{"AMD": 0.0025, "USD": 1}, utils.NewLogger())
	a.now = func() time.Time { return time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC) }
	return a
}

func TestExtractListingSale(t *testing.T) {
	url := "https://www.estate.am/en/apartment-for-sale-in-kentron-228866"
	l, err := newTestAdapter().ExtractListing(listingPage, url, models.ApartmentsSale)
	if err != nil {
		t.Fatalf("ExtractListing: %v", err)
	}

	if l.ID != "228866" {
		t.Errorf("ID = %q; want 228866", l.ID)
	}
	if l.Price == nil || *l.Price != 185000 {
		t.Errorf("Price = %v; want 185000 USD", l.Price)
	}
	if l.SquareMeters == nil || *l.SquareMeters != 92 {
		t.Errorf("SquareMeters = %v; want 92", l.SquareMeters)
	}
	if l.PricePerMeter == nil || *l.PricePerMeter != 185000.0/92.0 {
		t.Errorf("PricePerMeter = %v", l.PricePerMeter)
	}
	if l.Floor == nil || *l.Floor != 5 || l.BuildingFloor == nil || *l.BuildingFloor != 14 {
		t.Errorf("Floor/BuildingFloor = %v/%v; want 5/14", l.Floor, l.BuildingFloor)
	}
	if l.Rooms == nil || *l.Rooms != 3 {
		t.Errorf("Rooms = %v; want 3", l.Rooms)
	}
	if l.Bathroom == nil || *l.Bathroom != 2 {
		t.Errorf("Bathroom = %v; want 2", l.Bathroom)
	}
	if l.Renovation == nil || *l.Renovation != "Designer renovation" {
		t.Errorf("Renovation = %v", l.Renovation)
	}
	if l.Furniture == nil || !*l.Furniture {
		t.Errorf("Furniture = %v; want true", l.Furniture)
	}
	if l.Height != nil {
		t.Errorf("Height = %v; estate.am never publishes it", *l.Height)
	}
	if l.Address == nil || *l.Address != "Yerevan, Kentron, Abovyan St" {
		t.Errorf("Address = %v", l.Address)
	}
	if l.Location.X != "44.503000" || l.Location.Y != "40.189000" {
		t.Errorf("Location = %+v", l.Location)
	}
}

func TestExtractListingRentPicksRentBlock(t *testing.T) {
	l, err := newTestAdapter().ExtractListing(listingPage, "https://www.estate.am/en/x-228866", models.ApartmentsRental)
	if err != nil {
		t.Fatalf("ExtractListing: %v", err)
	}
	if l.Price == nil || *l.Price != 1000 {
		t.Errorf("Price = %v; want 1000 (400,000 AMD)", l.Price)
	}
}

func TestExtractListingHouseWithoutMap(t *testing.T) {
	page := `<html><body>
<p>Stone house with garden.</p>
<span class="floor">2</span>
<div class="price-w"><span>Sale</span> contract price</div>
</body></html>`

	l, err := newTestAdapter().ExtractListing(page, "https://www.estate.am/en/house-100200", models.HouseSale)
	if err != nil {
		t.Fatalf("ExtractListing: %v", err)
	}
	if l.Floor != nil {
		t.Errorf("Floor = %v; want absent for a house", *l.Floor)
	}
	if l.BuildingFloor == nil || *l.BuildingFloor != 2 {
		t.Errorf("BuildingFloor = %v; want 2", l.BuildingFloor)
	}
	if l.Price != nil || l.PricePerMeter != nil {
		t.Errorf("Price/PricePerMeter = %v/%v; want absent", l.Price, l.PricePerMeter)
	}
	if l.Furniture == nil || *l.Furniture {
		t.Errorf("Furniture = %v; want false", l.Furniture)
	}
	if l.Location.X != "" || l.Location.Y != "" {
		t.Errorf("Location = %+v; want empty after a structure violation", l.Location)
	}
}

func TestListingHrefs(t *testing.T) {
	markup := `<html><body><div id="listing"><div></div><div>
<a class="img" target="_blank" href="https://www.estate.am/en/a-1">1</a>
<a class="img" href="https://www.estate.am/en/a-2">same tab</a>
<a class="img" target="_blank" href="https://www.estate.am/en/a-3">3</a>
</div></div></body></html>`
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		t.Fatal(err)
	}
	got := newTestAdapter().ListingHrefs(doc)
	want := []string{"https://www.estate.am/en/a-1", "https://www.estate.am/en/a-3"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("ListingHrefs = %v; want %v", got, want)
	}
}

func TestGalleryURL(t *testing.T) {
	a := newTestAdapter()
	if err := scraper.ValidateEndpoints(a); err != nil {
		t.Fatal(err)
	}
	got := a.BaseURL() + a.Endpoints()[models.HouseRental] + a.PageOptions(0)
	if got != "https://www.estate.am/en/houses-and-villas-rentals-s649?page=0&view=gallery" {
		t.Errorf("gallery url = %s", got)
	}
	if ready := a.GalleryReady(); ready == nil || !ready.XPath {
		t.Errorf("GalleryReady = %v; want an XPath selector", ready)
	}
}
