// Package core provides the ingestion logic for the fuel station price feeds.
//
// The package holds all domain logic independent of the database driver and
// the command line. Storage is reached through the [Store] interface, so the
// same code runs against Postgres, SQLite, or the in-memory store used in
// tests.
//
// # Architecture
//
// The package is organized around several key concepts:
//
//   - Feed Definitions: Registered via the registry, each feed layout maps
//     column indices to station fields and fuel prices.
//   - Resolver: Maps company and fuel type names to identifiers, memoising
//     every result for the duration of a run.
//   - Writer: Persists stations and price observations.
//   - Loader: Streams one feed file, validating and writing row by row.
//   - Service: The entry point for a complete run (reset, seed, load, report).
//
// # Feed Registry
//
// Feeds are registered at init time using [Register]. Each [FeedDefinition]
// contains everything needed to read one export:
//
//	core.Register(FeedDefinition{
//	    Key:       "land",
//	    Label:     "Terrestrial stations",
//	    Kind:      KindLand,
//	    Order:     1,
//	    SkipLines: 3,
//	    Columns:   map[Field]int{FieldProvince: 0, ...},
//	    Prices:    []PriceColumn{{FuelType: FuelGasolina95E5, Column: 9}},
//	})
//
// # Run Flow
//
//  1. All tables are truncated and identities restarted
//  2. The two fuel types are seeded
//  3. Feeds are loaded in registry order; each header carries the timestamp
//     shared by every price observation in that feed
//  4. Row counts are reported before and after
//
// Row-level problems (short rows, bad coordinates, non-numeric prices) skip
// the row. Feed-level problems (missing file, bad header timestamp) and
// storage errors abort the run.
//
// # Error Handling
//
// Errors are mapped to operator-facing messages using [MapError]. Each
// category has a code:
//
//   - FEED001-FEED003: Feed errors (header, missing file, layout)
//   - ROW001-ROW003: Row errors (coordinates, short row, price)
//   - REF001-REF003: Reference errors (resolver invariant, fuel type)
//   - DB003-DB006: Database errors (constraints, connections)
package core
