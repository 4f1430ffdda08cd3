package realestateam

import (
	"context"
	"errors"
	"fmt"
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

func clipItem(clip, value string) string {
	return fmt.Sprintf(`<div class="item"><svg><g clip-path="%s"><path d="M0 0"></path></g></svg><p>%s</p></div>`, clip, value)
}

func pathItem(d, value string) string {
	return fmt.Sprintf(`<div class="item"><svg><path d="%s"></path></svg><p>%s</p></div>`, d, value)
}

func listingPage(pricePerMeter string) string {
	return `<html><head>
<script charset="utf-8" src="https://api-maps.yandex.ru/services/coverage/v2/?ll=44.490100,40.201500&amp;lang=en_US"></script>
</head><body>
<div class="PropertyTitleAndaddress_address_info__Ee_vF"><svg></svg><p>Arabkir, Komitas Ave 12</p></div>
<div class="Propertyprice_container__6_MBs PropertyDetails_price__mJO7i"><span>$</span> 150,000</div>
<div class="PropertyDetails_price_detailed_info___mHSJ">` + pricePerMeter + `</div>
<div class="details">` +
		clipItem(areaIcon, "75 m²") +
		clipItem(bathroomsIcon, "1") +
		clipItem(roomsIcon, "3 rooms") +
		clipItem(renovationIcon, "Capital renovation") +
		pathItem(floorsPath, "4/10") +
		pathItem(heightPath, "3 m") + `
</div>
<div class="PropertyDetails_utility__8RVQg">Air conditioner</div>
<div class="PropertyDetails_utility__8RVQg">Furniture</div>
</body></html>`
}

func newTestAdapter() *Adapter {
	a := New(fixedRates{"AMD": 0.0025, "USD": 1}, utils.NewLogger())
	a.now = func() time.Time { return time.Date(2024, 5, 2, 9, 15, 0, 0, time.UTC) }
	return a
}

func TestExtractListing(t *testing.T) {
	url := "https://www.real-estate.am/en/buy/apartment-345678/"
	l, err := newTestAdapter().ExtractListing(listingPage("2,100 $/m²"), url, models.ApartmentsSale)
	if err != nil {
		t.Fatalf("ExtractListing: %v", err)
	}

	if l.ID != "345678" {
		t.Errorf("ID = %q; want 345678", l.ID)
	}
	if l.Address == nil || *l.Address != "Arabkir, Komitas Ave 12" {
		t.Errorf("Address = %v", l.Address)
	}

	checks := []struct {
		name string
		got  *float64
		want float64
	}{
		{"price", l.Price, 150000},
		{"price_per_meter", l.PricePerMeter, 2100},
		{"square_meters", l.SquareMeters, 75},
		{"bathroom", l.Bathroom, 1},
		{"rooms", l.Rooms, 3},
		{"floor", l.Floor, 4},
		{"building_floors", l.BuildingFloor, 10},
		{"height", l.Height, 3},
	}
	for _, c := range checks {
		if c.got == nil || *c.got != c.want {
			t.Errorf("%s = %v; want %v", c.name, c.got, c.want)
		}
	}
	if l.Renovation == nil || *l.Renovation != "Capital renovation" {
		t.Errorf("Renovation = %v", l.Renovation)
	}
	if l.Furniture == nil || !*l.Furniture {
		t.Errorf("Furniture = %v; want true", l.Furniture)
	}
	if l.Location.X != "44.490100" || l.Location.Y != "40.201500" {
		t.Errorf("Location = %+v", l.Location)
	}
}

func TestExtractListingComputesMissingPricePerMeter(t *testing.T) {
	for _, ppm := range []string{"", "0 $/m²"} {
		l, err := newTestAdapter().ExtractListing(listingPage(ppm), "https://www.real-estate.am/en/buy/a-111111/", models.ApartmentsSale)
		if err != nil {
			t.Fatalf("ExtractListing: %v", err)
		}
		if l.PricePerMeter == nil || *l.PricePerMeter != 2000 {
			t.Errorf("site price per meter %q: PricePerMeter = %v; want computed 2000", ppm, l.PricePerMeter)
		}
	}
}

func TestExtractListingBarePage(t *testing.T) {
	l, err := newTestAdapter().ExtractListing("<html><body></body></html>", "https://www.real-estate.am/en/for-rent/house-222222/", models.HouseRental)
	if err != nil {
		t.Fatalf("ExtractListing: %v", err)
	}
	if l.Price != nil || l.PricePerMeter != nil || l.SquareMeters != nil || l.Floor != nil || l.Furniture != nil {
		t.Errorf("absent slots should be nil: %+v", l)
	}
	if l.Location.X != "" {
		t.Errorf("Location = %+v; want empty", l.Location)
	}
}

func TestListingHrefs(t *testing.T) {
	markup := `<html><body>
<a href="/en/buy/apartment-1/">sale</a>
<a href="/en/for-rent/house-2/">rent</a>
<a href="/en/about/">about</a>
<a href="/hy/buy/apartment-3/">armenian</a>
</body></html>`
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		t.Fatal(err)
	}
	got := newTestAdapter().ListingHrefs(doc)
	want := []string{"/en/buy/apartment-1/", "/en/for-rent/house-2/"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("ListingHrefs = %v; want %v", got, want)
	}
}

// mapBrowser times out on every selector except ready.
type mapBrowser struct {
	ready  string
	fatal  error
	waited []string
}

func (b *mapBrowser) Navigate(ctx context.Context, url string) error { return nil }
func (b *mapBrowser) WaitUntil(ctx context.Context, c scraper.Condition) error {
	sel, _ := c.Selector()
	b.waited = append(b.waited, sel.Query)
	if b.fatal != nil {
		return b.fatal
	}
	if sel.Query == b.ready {
		return nil
	}
	return fmt.Errorf("fake: %w", scraper.ErrTimeout)
}
func (b *mapBrowser) Click(ctx context.Context, s scraper.Selector) error { return nil }
func (b *mapBrowser) Hover(ctx context.Context, s scraper.Selector) error { return nil }
func (b *mapBrowser) Source(ctx context.Context) (string, error)          { return "", nil }

func TestWaitMapReadyFallsBackToAlternateLayout(t *testing.T) {
	a := newTestAdapter()

	b := &mapBrowser{ready: mapAgreementAlt}
	if err := a.WaitMapReady(context.Background(), b); err != nil {
		t.Fatalf("WaitMapReady: %v", err)
	}
	if len(b.waited) != 2 {
		t.Errorf("waited %d times; want 2", len(b.waited))
	}

	b = &mapBrowser{}
	if err := a.WaitMapReady(context.Background(), b); !errors.Is(err, scraper.ErrTimeout) {
		t.Errorf("WaitMapReady = %v; want ErrTimeout when neither layout shows", err)
	}

	crash := errors.New("tab crashed")
	b = &mapBrowser{fatal: crash}
	if err := a.WaitMapReady(context.Background(), b); !errors.Is(err, crash) {
		t.Errorf("WaitMapReady = %v; want the fatal error", err)
	}
	if len(b.waited) != 1 {
		t.Errorf("fatal error should not try the alternate layout")
	}
}
