package core

import (
	"fmt"
	"slices"
	"strings"
)

// Field names a semantic column of a feed row.
type Field string

const (
	FieldProvince     Field = "province"
	FieldMunicipality Field = "municipality"
	FieldLocality     Field = "locality"
	FieldPostalCode   Field = "postal_code"
	FieldAddress      Field = "address"
	FieldMargin       Field = "margin"
	FieldLongitude    Field = "longitude"
	FieldLatitude     Field = "latitude"
	FieldCompany      Field = "company"
)

// requiredFields must be mapped by every layout. Margin is optional.
var requiredFields = []Field{
	FieldProvince,
	FieldMunicipality,
	FieldLocality,
	FieldPostalCode,
	FieldAddress,
	FieldLongitude,
	FieldLatitude,
	FieldCompany,
}

// PriceColumn maps a fuel type to the column holding its price.
type PriceColumn struct {
	FuelType string
	Column   int
}

// FeedDefinition describes one feed format: where its fields live and how
// many lines follow the header before data starts.
type FeedDefinition struct {
	Key       string      // Unique identifier: "land"
	Label     string      // Display name
	Kind      StationKind // Tag stored on every station of this feed
	Order     int         // Load order within a run
	SkipLines int         // Lines between the header and the first data row
	Columns   map[Field]int
	Prices    []PriceColumn
}

// Column returns the offset of f and whether the layout maps it.
func (d FeedDefinition) Column(f Field) (int, bool) {
	idx, ok := d.Columns[f]
	return idx, ok
}

// Width returns the minimum number of fields a data row must have.
func (d FeedDefinition) Width() int {
	width := 0
	for _, idx := range d.Columns {
		width = max(width, idx+1)
	}
	for _, p := range d.Prices {
		width = max(width, p.Column+1)
	}
	return width
}

// Validate checks the definition is usable. All problems are reported at once.
func (d FeedDefinition) Validate() error {
	var errs []string

	if d.Key == "" {
		errs = append(errs, "key is required")
	}
	if !d.Kind.Valid() {
		errs = append(errs, fmt.Sprintf("kind %q must be %s or %s", d.Kind, KindLand, KindMaritime))
	}
	if d.SkipLines < 0 {
		errs = append(errs, "skip_lines must be non-negative")
	}

	for _, f := range requiredFields {
		if _, ok := d.Columns[f]; !ok {
			errs = append(errs, fmt.Sprintf("column %q is required", f))
		}
	}
	for f, idx := range d.Columns {
		if !slices.Contains(requiredFields, f) && f != FieldMargin {
			errs = append(errs, fmt.Sprintf("column %q is not a known field", f))
		}
		if idx < 0 {
			errs = append(errs, fmt.Sprintf("column %q has negative offset %d", f, idx))
		}
	}

	if len(d.Prices) == 0 {
		errs = append(errs, "at least one price column is required")
	}
	for _, p := range d.Prices {
		if !slices.Contains(FuelTypes, p.FuelType) {
			errs = append(errs, fmt.Sprintf("price fuel type %q is not a known fuel type", p.FuelType))
		}
		if p.Column < 0 {
			errs = append(errs, fmt.Sprintf("price %q has negative offset %d", p.FuelType, p.Column))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w %q:\n  - %s", ErrInvalidLayout, d.Key, strings.Join(errs, "\n  - "))
	}
	return nil
}
