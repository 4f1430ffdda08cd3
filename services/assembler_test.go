package services

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"estate-scraper/models"
	"estate-scraper/utils"
)

func newTestLogger() *utils.Logger { return utils.NewLogger() }

func ptr[T any](v T) *T { return &v }

func sampleListing(link string) *models.Listing {
	return &models.Listing{
		ID:         "123456",
		Link:       link,
		Source:     "https://www.estate.am/en/",
		Address:    ptr("Yerevan, Kentron"),
		Date:       time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
		Location:   models.NewLocation("44.51", "40.18"),
		Floor:      ptr(3.0),
		Price:      ptr(120000.0),
		Furniture:  ptr(true),
		Type:       models.Apartment,
		RentOrSale: models.Sale,
	}
}

func newTestAssembler(t *testing.T) *Assembler {
	t.Helper()
	a, err := NewAssembler(newTestLogger())
	if err != nil {
		t.Fatalf("NewAssembler: %v", err)
	}
	return a
}

func TestValidateFieldsAcceptsListing(t *testing.T) {
	a := newTestAssembler(t)

	if err := a.ValidateFields(sampleListing("https://www.estate.am/en/x-123456").Fields()); err != nil {
		t.Errorf("ValidateFields: unexpected error %v", err)
	}
}

func TestValidateFieldsRejectsMissingKey(t *testing.T) {
	a := newTestAssembler(t)
	fields := sampleListing("https://www.estate.am/en/x-123456").Fields()
	delete(fields, "height")

	err := a.ValidateFields(fields)
	if !errors.Is(err, ErrSchemaMismatch) {
		t.Errorf("ValidateFields without height: got %v, want ErrSchemaMismatch", err)
	}
}

func TestValidateFieldsRejectsExtraKey(t *testing.T) {
	a := newTestAssembler(t)
	fields := sampleListing("https://www.estate.am/en/x-123456").Fields()
	fields["SHAPE"] = map[string]any{}

	if err := a.ValidateFields(fields); !errors.Is(err, ErrSchemaMismatch) {
		t.Errorf("ValidateFields with extra key: got %v, want ErrSchemaMismatch", err)
	}
}

func TestValidateFieldsRejectsBadEnum(t *testing.T) {
	a := newTestAssembler(t)
	fields := sampleListing("https://www.estate.am/en/x-123456").Fields()
	fields["type"] = "appartments"

	if err := a.ValidateFields(fields); !errors.Is(err, ErrSchemaMismatch) {
		t.Errorf("ValidateFields with bad type: got %v, want ErrSchemaMismatch", err)
	}
}

func TestAssembleBuildsUnifiedTable(t *testing.T) {
	a := newTestAssembler(t)
	listings := []*models.Listing{
		sampleListing("https://www.estate.am/en/a-111111"),
		sampleListing("https://www.estate.am/en/b-222222"),
	}

	table, err := a.Assemble(listings)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}

	if table.Len() != 2 {
		t.Errorf("Len: got %d, want 2", table.Len())
	}
	if !reflect.DeepEqual(table.Header(), models.Columns) {
		t.Errorf("Header: got %v, want %v", table.Header(), models.Columns)
	}
	wantLinks := []string{"https://www.estate.am/en/a-111111", "https://www.estate.am/en/b-222222"}
	if got := table.Column("links"); !reflect.DeepEqual(got, wantLinks) {
		t.Errorf("links column: got %v, want %v", got, wantLinks)
	}
	if got := table.Column("height"); got[0] != "" {
		t.Errorf("absent height rendered as %q; want empty", got[0])
	}
}

func TestAssembleAbortsOnInvalidRecord(t *testing.T) {
	a := newTestAssembler(t)
	bad := sampleListing("")

	_, err := a.Assemble([]*models.Listing{sampleListing("https://www.estate.am/en/a-1"), bad})
	if !errors.Is(err, ErrSchemaMismatch) {
		t.Errorf("Assemble: got %v, want ErrSchemaMismatch", err)
	}
}
