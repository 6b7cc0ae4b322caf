package core

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"
)

func TestWriter_Station(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	w := NewWriter(store, NewResolver(store))

	margin := "I"
	id, err := w.Station(ctx, 4, KindLand, ParsedRow{
		Line: 5, Province: "MADRID", Address: "CALLE MAYOR, 1",
		Margin: &margin, Latitude: 40.4, Longitude: -3.7,
	})
	if err != nil {
		t.Fatalf("Station() error = %v", err)
	}
	if id != 1 || len(store.stations) != 1 {
		t.Fatalf("Station() id = %d, stations = %d", id, len(store.stations))
	}

	got := store.stations[0]
	if got.CompanyID != 4 || got.Kind != KindLand || got.Address != "CALLE MAYOR, 1" || *got.Margin != "I" {
		t.Errorf("stored station = %+v", got)
	}
	if got.Schedule != nil {
		t.Errorf("Schedule = %q, want nil", *got.Schedule)
	}
}

func TestWriter_StationRejectsNonFiniteCoordinates(t *testing.T) {
	store := newFakeStore()
	w := NewWriter(store, NewResolver(store))

	_, err := w.Station(context.Background(), 1, KindLand, ParsedRow{Latitude: math.NaN(), Longitude: 1})
	if !errors.Is(err, ErrInvalidCoordinates) {
		t.Fatalf("Station() error = %v, want ErrInvalidCoordinates", err)
	}
	if len(store.stations) != 0 {
		t.Errorf("station persisted despite invalid coordinates")
	}
}

func TestWriter_Price(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	r := NewResolver(store)
	if err := r.SeedFuelTypes(ctx, FuelTypes); err != nil {
		t.Fatalf("SeedFuelTypes() error = %v", err)
	}
	w := NewWriter(store, r)
	ts := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

	if err := w.Price(ctx, 1, FuelGasoleoA, "1,489", ts); err != nil {
		t.Fatalf("Price() error = %v", err)
	}

	if len(store.prices) != 1 {
		t.Fatalf("prices = %d, want 1", len(store.prices))
	}
	p := store.prices[0]
	if p.StationID != 1 || p.FuelTypeID != store.fuelTypes[FuelGasoleoA] || p.Price != 1.489 || !p.Timestamp.Equal(ts) {
		t.Errorf("stored price = %+v", p)
	}
}

func TestWriter_PriceErrors(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	r := NewResolver(store)
	if err := r.SeedFuelTypes(ctx, FuelTypes); err != nil {
		t.Fatalf("SeedFuelTypes() error = %v", err)
	}
	w := NewWriter(store, r)

	if err := w.Price(ctx, 1, FuelGasoleoA, "  ", time.Now()); !errors.Is(err, ErrMissingPrice) {
		t.Errorf("Price(blank) error = %v, want ErrMissingPrice", err)
	}
	if err := w.Price(ctx, 1, "Hidrógeno", "1,0", time.Now()); !errors.Is(err, ErrUnknownFuelType) {
		t.Errorf("Price(unknown fuel) error = %v, want ErrUnknownFuelType", err)
	}
	if len(store.prices) != 0 {
		t.Errorf("prices = %d, want 0", len(store.prices))
	}
}
