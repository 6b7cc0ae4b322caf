package core

import (
	"context"
	"fmt"
	"strings"
)

// landDef mirrors the land feed layout.
func landDef() FeedDefinition {
	return FeedDefinition{
		Key:       "land",
		Label:     "Terrestrial stations",
		Kind:      KindLand,
		Order:     1,
		SkipLines: 3,
		Columns: map[Field]int{
			FieldProvince:     0,
			FieldMunicipality: 1,
			FieldLocality:     2,
			FieldPostalCode:   3,
			FieldAddress:      4,
			FieldMargin:       5,
			FieldLongitude:    6,
			FieldLatitude:     7,
			FieldCompany:      35,
		},
		Prices: []PriceColumn{
			{FuelType: FuelGasolina95E5, Column: 9},
			{FuelType: FuelGasoleoA, Column: 14},
		},
	}
}

// maritimeDef mirrors the maritime feed layout.
func maritimeDef() FeedDefinition {
	return FeedDefinition{
		Key:       "maritime",
		Label:     "Maritime stations",
		Kind:      KindMaritime,
		Order:     2,
		SkipLines: 3,
		Columns: map[Field]int{
			FieldProvince:     0,
			FieldMunicipality: 1,
			FieldLocality:     3,
			FieldPostalCode:   4,
			FieldAddress:      5,
			FieldLongitude:    6,
			FieldLatitude:     7,
			FieldCompany:      22,
		},
		Prices: []PriceColumn{
			{FuelType: FuelGasolina95E5, Column: 8},
			{FuelType: FuelGasoleoA, Column: 10},
		},
	}
}

// landFields builds a land row with the given values at their offsets.
func landFields(lon, lat, p95, diesel, company string) []string {
	f := make([]string, 36)
	f[0], f[1], f[2], f[3], f[4], f[5] = "MADRID", "Madrid", "MADRID", "28001", "CALLE MAYOR, 1", "D"
	f[6], f[7] = lon, lat
	f[9], f[14] = p95, diesel
	f[35] = company
	return f
}

func landLine(lon, lat, p95, diesel, company string) string {
	return strings.Join(landFields(lon, lat, p95, diesel, company), ";")
}

// fakeStore is a minimal Store for unit tests inside the package.
type fakeStore struct {
	fuelTypes map[string]int64
	companies map[string]int64
	stations  []Station
	prices    []PriceObservation

	insertCompanyCalls int
	companyIDCalls     int

	// hideCompanies makes CompanyID miss, simulating a concurrent delete.
	hideCompanies bool
	failWith      error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		fuelTypes: map[string]int64{},
		companies: map[string]int64{},
	}
}

func (f *fakeStore) Reset(context.Context) error {
	if f.failWith != nil {
		return f.failWith
	}
	*f = *newFakeStore()
	return nil
}

func (f *fakeStore) InsertFuelType(_ context.Context, name string) error {
	if f.failWith != nil {
		return f.failWith
	}
	if _, ok := f.fuelTypes[name]; !ok {
		f.fuelTypes[name] = int64(len(f.fuelTypes) + 1)
	}
	return nil
}

func (f *fakeStore) FuelTypeID(_ context.Context, name string) (int64, bool, error) {
	id, ok := f.fuelTypes[name]
	return id, ok, f.failWith
}

func (f *fakeStore) InsertCompany(_ context.Context, name string) (int64, bool, error) {
	f.insertCompanyCalls++
	if f.failWith != nil {
		return 0, false, f.failWith
	}
	if _, ok := f.companies[name]; ok {
		return 0, false, nil
	}
	id := int64(len(f.companies) + 1)
	f.companies[name] = id
	return id, true, nil
}

func (f *fakeStore) CompanyID(_ context.Context, name string) (int64, bool, error) {
	f.companyIDCalls++
	if f.hideCompanies {
		return 0, false, nil
	}
	id, ok := f.companies[name]
	return id, ok, f.failWith
}

func (f *fakeStore) InsertStation(_ context.Context, s Station) (int64, error) {
	if f.failWith != nil {
		return 0, f.failWith
	}
	s.ID = int64(len(f.stations) + 1)
	f.stations = append(f.stations, s)
	return s.ID, nil
}

func (f *fakeStore) InsertPrice(_ context.Context, p PriceObservation) error {
	if f.failWith != nil {
		return f.failWith
	}
	f.prices = append(f.prices, p)
	return nil
}

func (f *fakeStore) Count(_ context.Context, t Table) (int64, error) {
	switch t {
	case TableCompany:
		return int64(len(f.companies)), nil
	case TableStation:
		return int64(len(f.stations)), nil
	case TableFuelType:
		return int64(len(f.fuelTypes)), nil
	case TablePrice:
		return int64(len(f.prices)), nil
	}
	return 0, fmt.Errorf("unknown table %d", t)
}

// upsertStore adds a single-statement upsert to fakeStore.
type upsertStore struct {
	*fakeStore
	upserts  int
	returnID int64 // forced id when non-zero
}

func (u *upsertStore) UpsertCompany(_ context.Context, name string) (int64, error) {
	u.upserts++
	if u.returnID != 0 {
		return u.returnID, nil
	}
	if id, ok := u.companies[name]; ok {
		return id, nil
	}
	id := int64(len(u.companies) + 1)
	u.companies[name] = id
	return id, nil
}
