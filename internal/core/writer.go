package core

import (
	"context"
	"fmt"
	"time"
)

// Writer inserts stations and price observations.
type Writer struct {
	store    Store
	resolver *Resolver
}

// NewWriter creates a writer that resolves fuel types through resolver.
func NewWriter(store Store, resolver *Resolver) *Writer {
	return &Writer{store: store, resolver: resolver}
}

// Station inserts a new station for an admissible row and returns its id.
// Coordinates are checked again here so no caller can persist a station
// without finite coordinates.
func (w *Writer) Station(ctx context.Context, companyID int64, kind StationKind, row ParsedRow) (int64, error) {
	if !isFinite(row.Latitude) || !isFinite(row.Longitude) {
		return 0, fmt.Errorf("%w: lat=%v lon=%v", ErrInvalidCoordinates, row.Latitude, row.Longitude)
	}

	id, err := w.store.InsertStation(ctx, Station{
		CompanyID:    companyID,
		Kind:         kind,
		Province:     row.Province,
		Municipality: row.Municipality,
		Locality:     row.Locality,
		PostalCode:   row.PostalCode,
		Address:      row.Address,
		Margin:       row.Margin,
		Latitude:     row.Latitude,
		Longitude:    row.Longitude,
	})
	if err != nil {
		return 0, fmt.Errorf("insert station at line %d: %w", row.Line, err)
	}
	return id, nil
}

// Price appends one observation. Callers must skip blank prices; a raw value
// that does not parse returns ErrMissingPrice.
func (w *Writer) Price(ctx context.Context, stationID int64, fuelType, priceRaw string, ts time.Time) error {
	fuelTypeID, err := w.resolver.FuelType(ctx, fuelType)
	if err != nil {
		return err
	}

	price, ok := ParseLocaleDecimal(priceRaw)
	if !ok {
		return fmt.Errorf("%w: %q for %q", ErrMissingPrice, priceRaw, fuelType)
	}

	if err := w.store.InsertPrice(ctx, PriceObservation{
		StationID:  stationID,
		FuelTypeID: fuelTypeID,
		Timestamp:  ts,
		Price:      price,
	}); err != nil {
		return fmt.Errorf("insert price %q for station %d: %w", fuelType, stationID, err)
	}
	return nil
}
