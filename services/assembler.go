package services

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"estate-scraper/models"
	"estate-scraper/utils"
)

//go:embed schema/listing.json
var listingSchema string

// ErrSchemaMismatch means a record does not expose exactly the unified field
// set. It is a programming error in an adapter, never a runtime condition.
var ErrSchemaMismatch = errors.New("record does not match the unified schema")

// Assembler validates collected listings and turns them into a dataset table.
type Assembler struct {
	schema *jsonschema.Schema
	logger *utils.Logger
}

// NewAssembler compiles the embedded listing schema.
func NewAssembler(logger *utils.Logger) (*Assembler, error) {
	schema, err := jsonschema.CompileString("listing.json", listingSchema)
	if err != nil {
		return nil, fmt.Errorf("assembler: compile listing schema: %w", err)
	}
	return &Assembler{schema: schema, logger: logger}, nil
}

// ValidateFields checks one record's fields against the unified schema.
func (a *Assembler) ValidateFields(fields map[string]any) error {
	body, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("%w: encode record: %v", ErrSchemaMismatch, err)
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return fmt.Errorf("%w: decode record: %v", ErrSchemaMismatch, err)
	}

	if err := a.schema.Validate(v); err != nil {
		missing, extra := keyDiff(fields)
		return fmt.Errorf("%w: missing %v, unexpected %v: %v", ErrSchemaMismatch, missing, extra, err)
	}
	return nil
}

// Assemble validates every listing and transposes them into a table with the
// unified columns. The first invalid record aborts assembly.
func (a *Assembler) Assemble(listings []*models.Listing) (*models.Table, error) {
	table := models.NewListingTable()

	for i, l := range listings {
		if err := a.ValidateFields(l.Fields()); err != nil {
			return nil, fmt.Errorf("assembler: record %d (%s): %w", i, l.Link, err)
		}
		table.AppendRow(l.Cells())
	}

	a.logger.Debug("[assembler] Assembled %d rows", table.Len())
	return table, nil
}

func keyDiff(fields map[string]any) (missing, extra []string) {
	want := make(map[string]struct{}, len(models.Columns))
	for _, name := range models.Columns {
		want[name] = struct{}{}
		if _, ok := fields[name]; !ok {
			missing = append(missing, name)
		}
	}
	for name := range fields {
		if _, ok := want[name]; !ok {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)
	return missing, extra
}
