package core

// validation.go decides whether a data row is admissible.
//
// A row is admissible when:
//  1. It has enough fields for the layout
//  2. Latitude and longitude parse to finite numbers
//  3. Every non-blank price parses to a finite number
//
// Everything else is optional. A blank price only suppresses the observation
// for that fuel type; it never rejects the row.

import (
	"fmt"
	"math"
	"strings"
)

// PriceField is a non-blank raw price found in a row.
type PriceField struct {
	FuelType string
	Raw      string
}

// ParsedRow is an admissible row with its fields extracted by name.
type ParsedRow struct {
	Line         int
	Province     string
	Municipality string
	Locality     string
	PostalCode   string
	Address      string
	Margin       *string
	Latitude     float64
	Longitude    float64
	Company      string
	Prices       []PriceField
}

// RowValidator extracts and validates rows for one feed definition.
type RowValidator struct {
	def   FeedDefinition
	width int
}

// NewRowValidator creates a validator for the given feed definition.
func NewRowValidator(def FeedDefinition) *RowValidator {
	return &RowValidator{
		def:   def,
		width: def.Width(),
	}
}

// Validate checks a split row. Rejected rows return a *RowError.
func (v *RowValidator) Validate(line int, fields []string) (ParsedRow, error) {
	if len(fields) < v.width {
		return ParsedRow{}, &RowError{
			Line:    line,
			Address: v.cell(fields, FieldAddress),
			Reason:  fmt.Sprintf("row has %d columns, expected at least %d", len(fields), v.width),
			Err:     ErrShortRow,
		}
	}

	address := v.cell(fields, FieldAddress)

	lat, latOK := ParseLocaleDecimal(v.cell(fields, FieldLatitude))
	lon, lonOK := ParseLocaleDecimal(v.cell(fields, FieldLongitude))
	if !latOK || !lonOK || !isFinite(lat) || !isFinite(lon) {
		return ParsedRow{}, &RowError{
			Line:    line,
			Address: address,
			Reason: fmt.Sprintf("invalid coordinates lat=%q lon=%q",
				v.cell(fields, FieldLatitude), v.cell(fields, FieldLongitude)),
			Err: ErrInvalidCoordinates,
		}
	}

	row := ParsedRow{
		Line:         line,
		Province:     v.cell(fields, FieldProvince),
		Municipality: v.cell(fields, FieldMunicipality),
		Locality:     v.cell(fields, FieldLocality),
		PostalCode:   v.cell(fields, FieldPostalCode),
		Address:      address,
		Latitude:     lat,
		Longitude:    lon,
		Company:      strings.TrimSpace(v.cell(fields, FieldCompany)),
	}

	if _, ok := v.def.Column(FieldMargin); ok {
		row.Margin = OptionalText(v.cell(fields, FieldMargin))
	}

	for _, p := range v.def.Prices {
		raw := fields[p.Column]
		if strings.TrimSpace(raw) == "" {
			continue
		}
		if price, ok := ParseLocaleDecimal(raw); !ok || !isFinite(price) {
			return ParsedRow{}, &RowError{
				Line:    line,
				Address: address,
				Reason:  fmt.Sprintf("invalid price %q for %s", raw, p.FuelType),
				Err:     ErrInvalidPrice,
			}
		}
		row.Prices = append(row.Prices, PriceField{FuelType: p.FuelType, Raw: raw})
	}

	return row, nil
}

// cell returns the raw value of f, or "" if unmapped or out of range.
func (v *RowValidator) cell(fields []string, f Field) string {
	idx, ok := v.def.Column(f)
	if !ok || idx >= len(fields) {
		return ""
	}
	return fields[idx]
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
