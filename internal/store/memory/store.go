// Package memory provides an in-process store for dry runs and tests.
//
// It enforces the same uniqueness and reference rules as the SQL schema but
// deliberately has no single-statement upsert, so company resolution goes
// through the insert-then-lookup path.
package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/JonMunkholm/estaciones/internal/core"
)

// Store implements core.Store.
type Store struct {
	mu sync.Mutex

	fuelTypes []core.FuelType
	companies []core.Company
	stations  []core.Station
	prices    []core.PriceObservation
}

var _ core.Store = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{}
}

func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.fuelTypes = nil
	s.companies = nil
	s.stations = nil
	s.prices = nil
	return nil
}

func (s *Store) InsertFuelType(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.fuelTypeID(name); ok {
		return nil
	}
	s.fuelTypes = append(s.fuelTypes, core.FuelType{ID: int64(len(s.fuelTypes) + 1), Name: name})
	return nil
}

func (s *Store) FuelTypeID(ctx context.Context, name string) (int64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.fuelTypeID(name)
	return id, ok, nil
}

func (s *Store) InsertCompany(ctx context.Context, name string) (int64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.companyID(name); ok {
		return 0, false, nil
	}
	id := int64(len(s.companies) + 1)
	s.companies = append(s.companies, core.Company{ID: id, Name: name})
	return id, true, nil
}

func (s *Store) CompanyID(ctx context.Context, name string) (int64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.companyID(name)
	return id, ok, nil
}

func (s *Store) InsertStation(ctx context.Context, st core.Station) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if st.CompanyID < 1 || st.CompanyID > int64(len(s.companies)) {
		return 0, fmt.Errorf("insert station: violates foreign key constraint: company %d", st.CompanyID)
	}

	st.ID = int64(len(s.stations) + 1)
	s.stations = append(s.stations, st)
	return st.ID, nil
}

func (s *Store) InsertPrice(ctx context.Context, p core.PriceObservation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.StationID < 1 || p.StationID > int64(len(s.stations)) {
		return fmt.Errorf("insert price: violates foreign key constraint: station %d", p.StationID)
	}
	if p.FuelTypeID < 1 || p.FuelTypeID > int64(len(s.fuelTypes)) {
		return fmt.Errorf("insert price: violates foreign key constraint: fuel type %d", p.FuelTypeID)
	}

	s.prices = append(s.prices, p)
	return nil
}

func (s *Store) Count(ctx context.Context, t core.Table) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch t {
	case core.TableCompany:
		return int64(len(s.companies)), nil
	case core.TableStation:
		return int64(len(s.stations)), nil
	case core.TableFuelType:
		return int64(len(s.fuelTypes)), nil
	case core.TablePrice:
		return int64(len(s.prices)), nil
	default:
		return 0, fmt.Errorf("count: unknown table %d", int(t))
	}
}

// Companies returns a copy of the stored companies in insertion order.
func (s *Store) Companies() []core.Company {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.companies)
}

// Stations returns a copy of the stored stations in insertion order.
func (s *Store) Stations() []core.Station {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.stations)
}

// Prices returns a copy of the stored price observations in insertion order.
func (s *Store) Prices() []core.PriceObservation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.prices)
}

// FuelTypes returns a copy of the stored fuel types in insertion order.
func (s *Store) FuelTypes() []core.FuelType {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.fuelTypes)
}

func (s *Store) fuelTypeID(name string) (int64, bool) {
	for _, ft := range s.fuelTypes {
		if ft.Name == name {
			return ft.ID, true
		}
	}
	return 0, false
}

func (s *Store) companyID(name string) (int64, bool) {
	for _, c := range s.companies {
		if c.Name == name {
			return c.ID, true
		}
	}
	return 0, false
}
