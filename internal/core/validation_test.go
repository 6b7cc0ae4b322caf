package core

import (
	"errors"
	"strings"
	"testing"
)

func TestRowValidator_Admissible(t *testing.T) {
	v := NewRowValidator(landDef())

	row, err := v.Validate(5, landFields("-3,703889", "40,416775", "1,529", "1,489", " Repsol "))
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	if row.Line != 5 {
		t.Errorf("Line = %d, want 5", row.Line)
	}
	if row.Latitude != 40.416775 || row.Longitude != -3.703889 {
		t.Errorf("coordinates = (%v, %v), want (40.416775, -3.703889)", row.Latitude, row.Longitude)
	}
	if row.Company != "Repsol" {
		t.Errorf("Company = %q, want %q", row.Company, "Repsol")
	}
	if row.Address != "CALLE MAYOR, 1" {
		t.Errorf("Address = %q", row.Address)
	}
	if row.Margin == nil || *row.Margin != "D" {
		t.Errorf("Margin = %v, want D", row.Margin)
	}
	want := []PriceField{
		{FuelType: FuelGasolina95E5, Raw: "1,529"},
		{FuelType: FuelGasoleoA, Raw: "1,489"},
	}
	if len(row.Prices) != len(want) {
		t.Fatalf("Prices = %v, want %v", row.Prices, want)
	}
	for i := range want {
		if row.Prices[i] != want[i] {
			t.Errorf("Prices[%d] = %v, want %v", i, row.Prices[i], want[i])
		}
	}
}

func TestRowValidator_BlankPriceSuppressesOnlyThatFuel(t *testing.T) {
	v := NewRowValidator(landDef())

	row, err := v.Validate(5, landFields("-3,7", "40,4", "1,529", "  ", "Repsol"))
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if len(row.Prices) != 1 || row.Prices[0].FuelType != FuelGasolina95E5 {
		t.Errorf("Prices = %v, want only %s", row.Prices, FuelGasolina95E5)
	}

	row, err = v.Validate(6, landFields("-3,7", "40,4", "", "", "Repsol"))
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if len(row.Prices) != 0 {
		t.Errorf("Prices = %v, want none", row.Prices)
	}
}

func TestRowValidator_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		fields  []string
		wantErr error
	}{
		{"missing latitude", landFields("-3,7", "", "1,5", "1,4", "Repsol"), ErrInvalidCoordinates},
		{"blank longitude", landFields("  ", "40,4", "1,5", "1,4", "Repsol"), ErrInvalidCoordinates},
		{"unparsable latitude", landFields("-3,7", "norte", "1,5", "1,4", "Repsol"), ErrInvalidCoordinates},
		{"NaN latitude", landFields("-3,7", "NaN", "1,5", "1,4", "Repsol"), ErrInvalidCoordinates},
		{"infinite longitude", landFields("Inf", "40,4", "1,5", "1,4", "Repsol"), ErrInvalidCoordinates},
		{"unparsable price", landFields("-3,7", "40,4", "n/d", "1,4", "Repsol"), ErrInvalidPrice},
		{"infinite price", landFields("-3,7", "40,4", "Infinity", "1,4", "Repsol"), ErrInvalidPrice},
		{"NaN price", landFields("-3,7", "40,4", "1,5", "NaN", "Repsol"), ErrInvalidPrice},
		{"short row", landFields("-3,7", "40,4", "1,5", "1,4", "Repsol")[:20], ErrShortRow},
	}

	v := NewRowValidator(landDef())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.Validate(9, tt.fields)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Validate() error = %v, want %v", err, tt.wantErr)
			}

			var re *RowError
			if !errors.As(err, &re) {
				t.Fatalf("Validate() error %T is not a *RowError", err)
			}
			if re.Line != 9 {
				t.Errorf("RowError.Line = %d, want 9", re.Line)
			}
			if re.Address != "CALLE MAYOR, 1" {
				t.Errorf("RowError.Address = %q, want the row address", re.Address)
			}
			if !IsRowError(err) {
				t.Error("IsRowError() = false, want true")
			}
		})
	}
}

func TestRowValidator_ShortRowReason(t *testing.T) {
	v := NewRowValidator(landDef())

	_, err := v.Validate(3, strings.Split("A;B;C", ";"))
	if err == nil || !strings.Contains(err.Error(), "row has 3 columns, expected at least 36") {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestRowValidator_MaritimeHasNoMargin(t *testing.T) {
	f := make([]string, 23)
	f[0], f[1], f[3], f[4], f[5] = "BALEARS (ILLES)", "Palma", "PALMA", "07001", "MUELLE VIEJO"
	f[6], f[7], f[8], f[10], f[22] = "2,6502", "39,5696", "1,899", "1,799", "Marina Palma"
	f[2] = "ignored"

	row, err := NewRowValidator(maritimeDef()).Validate(4, f)
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if row.Margin != nil {
		t.Errorf("Margin = %q, want nil", *row.Margin)
	}
	if row.Locality != "PALMA" || row.Address != "MUELLE VIEJO" {
		t.Errorf("Locality/Address = %q/%q", row.Locality, row.Address)
	}
	if len(row.Prices) != 2 {
		t.Errorf("Prices = %v, want 2", row.Prices)
	}
}
