package core

import (
	"context"
	"time"
)

// Fuel type names recognised in this run. They are seeded before any feed
// is loaded and looked up by name afterwards.
const (
	FuelGasolina95E5 = "Gasolina 95 E5"
	FuelGasoleoA     = "Gasóleo A"
)

// FuelTypes is the fixed vocabulary seeded at the start of every run, in order.
var FuelTypes = []string{FuelGasolina95E5, FuelGasoleoA}

// StationKind tags a station with the feed it came from.
// The values are the tags persisted in estacion_servicio.tipo_estacion.
type StationKind string

const (
	KindLand     StationKind = "TERRESTRE"
	KindMaritime StationKind = "MARITIMA"
)

// Valid reports whether k is one of the known station kinds.
func (k StationKind) Valid() bool {
	return k == KindLand || k == KindMaritime
}

// FuelType is a reference entity keyed by name.
type FuelType struct {
	ID   int64
	Name string
}

// Company is a reference entity keyed by its trimmed name.
type Company struct {
	ID   int64
	Name string
}

// Station is one admissible feed row. Stations are never deduplicated.
type Station struct {
	ID           int64
	CompanyID    int64
	Kind         StationKind
	Province     string
	Municipality string
	Locality     string
	PostalCode   string
	Address      string
	Margin       *string // land stations only
	Latitude     float64
	Longitude    float64
	Schedule     *string // not populated by the feeds
}

// PriceObservation is an append-only price fact.
type PriceObservation struct {
	StationID  int64
	FuelTypeID int64
	Timestamp  time.Time
	Price      float64
}

// Table enumerates the tables the run reports on. The set is closed:
// stores map each value to a fixed query and never build SQL from input.
type Table int

const (
	TableCompany Table = iota
	TableStation
	TableFuelType
	TablePrice
)

// Tables lists every reportable table in report order.
var Tables = []Table{TableCompany, TableStation, TableFuelType, TablePrice}

// String returns the physical table name.
func (t Table) String() string {
	switch t {
	case TableCompany:
		return "empresa"
	case TableStation:
		return "estacion_servicio"
	case TableFuelType:
		return "tipo_carburante"
	case TablePrice:
		return "precio_carburante"
	default:
		return "unknown"
	}
}

// TableCounts holds a row count per table.
type TableCounts map[Table]int64

// Store is the storage capability the core depends on. One Store is bound
// to a single connection for the duration of a run; every statement commits
// on its own.
type Store interface {
	// Reset truncates all four tables and restarts their identity counters.
	Reset(ctx context.Context) error

	// InsertFuelType inserts name if absent. Existing names are left untouched.
	InsertFuelType(ctx context.Context, name string) error

	// FuelTypeID looks a fuel type up by name.
	FuelTypeID(ctx context.Context, name string) (id int64, found bool, err error)

	// InsertCompany inserts name if absent. inserted is false when the name
	// already existed, in which case id is zero.
	InsertCompany(ctx context.Context, name string) (id int64, inserted bool, err error)

	// CompanyID looks a company up by name.
	CompanyID(ctx context.Context, name string) (id int64, found bool, err error)

	// InsertStation inserts a station row and returns its generated id.
	InsertStation(ctx context.Context, s Station) (int64, error)

	// InsertPrice appends a price observation.
	InsertPrice(ctx context.Context, p PriceObservation) error

	// Count returns the number of rows in t.
	Count(ctx context.Context, t Table) (int64, error)
}

// CompanyUpserter is implemented by stores that can insert-or-return a
// company id in a single atomic statement.
type CompanyUpserter interface {
	UpsertCompany(ctx context.Context, name string) (int64, error)
}

// Rejection records a data row that did not pass the validation gate.
type Rejection struct {
	Line    int
	Address string
	Reason  string
}

// FeedResult summarises one feed load.
type FeedResult struct {
	Feed       string
	Kind       StationKind
	Timestamp  time.Time
	Rows       int // non-blank data rows read
	Admissible int
	Rejected   int
	Blank      int
	Stations   int
	Prices     int
	BytesRead  int64
	Duration   time.Duration
	Rejections []Rejection
}

// RunReport is the result of one full run.
type RunReport struct {
	RunID    string
	Before   TableCounts
	After    TableCounts
	Feeds    []FeedResult
	Duration time.Duration
}
