package core

import (
	"context"
	"fmt"
)

// Resolver maps reference entity names to stable ids for one run.
//
// Companies are resolved with a single upsert when the store implements
// CompanyUpserter. Otherwise it falls back to insert-if-absent followed by a
// lookup; another writer could delete the row between those two statements,
// which surfaces as ErrResolverInvariant. Runs are single-threaded, so that
// window is never hit by this process itself.
type Resolver struct {
	store Store

	companies map[string]int64
	fuelTypes map[string]int64
}

// NewResolver creates a resolver bound to store. Caches start empty.
func NewResolver(store Store) *Resolver {
	return &Resolver{
		store:     store,
		companies: make(map[string]int64),
		fuelTypes: make(map[string]int64),
	}
}

// SeedFuelTypes inserts every name that is not yet present, in order.
func (r *Resolver) SeedFuelTypes(ctx context.Context, names []string) error {
	for _, name := range names {
		if err := r.store.InsertFuelType(ctx, name); err != nil {
			return fmt.Errorf("seed fuel type %q: %w", name, err)
		}
	}
	return nil
}

// Company returns the id for name, creating the company on first use.
func (r *Resolver) Company(ctx context.Context, name string) (int64, error) {
	if id, ok := r.companies[name]; ok {
		return id, nil
	}

	id, err := r.resolveCompany(ctx, name)
	if err != nil {
		return 0, err
	}

	r.companies[name] = id
	return id, nil
}

func (r *Resolver) resolveCompany(ctx context.Context, name string) (int64, error) {
	if up, ok := r.store.(CompanyUpserter); ok {
		id, err := up.UpsertCompany(ctx, name)
		if err != nil {
			return 0, fmt.Errorf("upsert company %q: %w", name, err)
		}
		if id <= 0 {
			return 0, fmt.Errorf("%w: upsert of company %q returned no id", ErrResolverInvariant, name)
		}
		return id, nil
	}

	id, inserted, err := r.store.InsertCompany(ctx, name)
	if err != nil {
		return 0, fmt.Errorf("insert company %q: %w", name, err)
	}
	if inserted {
		return id, nil
	}

	id, found, err := r.store.CompanyID(ctx, name)
	if err != nil {
		return 0, fmt.Errorf("lookup company %q: %w", name, err)
	}
	if !found {
		return 0, fmt.Errorf("%w: company %q neither inserted nor found", ErrResolverInvariant, name)
	}
	return id, nil
}

// FuelType returns the id of a seeded fuel type.
func (r *Resolver) FuelType(ctx context.Context, name string) (int64, error) {
	if id, ok := r.fuelTypes[name]; ok {
		return id, nil
	}

	id, found, err := r.store.FuelTypeID(ctx, name)
	if err != nil {
		return 0, fmt.Errorf("lookup fuel type %q: %w", name, err)
	}
	if !found {
		return 0, fmt.Errorf("%w: %q", ErrUnknownFuelType, name)
	}

	r.fuelTypes[name] = id
	return id, nil
}
