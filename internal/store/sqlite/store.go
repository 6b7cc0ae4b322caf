// Package sqlite implements the ingestion store on SQLite through
// database/sql and the pure-Go modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/JonMunkholm/estaciones/internal/core"
)

//go:embed schema.sql
var schemaSQL string

// TimestampLayout is how price timestamps are stored in the fecha column.
const TimestampLayout = "2006-01-02 15:04:05"

// resetStatements run in order: facts first, then the tables they reference.
// Clearing sqlite_sequence restarts the AUTOINCREMENT counters.
var resetStatements = []string{
	`DELETE FROM precio_carburante`,
	`DELETE FROM estacion_servicio`,
	`DELETE FROM empresa`,
	`DELETE FROM tipo_carburante`,
	`DELETE FROM sqlite_sequence WHERE name IN ('estacion_servicio', 'empresa', 'tipo_carburante')`,
}

const (
	insertFuelType = `INSERT INTO tipo_carburante (nombre) VALUES (?) ON CONFLICT (nombre) DO NOTHING`
	fuelTypeByName = `SELECT id_tipo_carburante FROM tipo_carburante WHERE nombre = ?`

	insertCompany = `INSERT INTO empresa (nombre) VALUES (?) ON CONFLICT (nombre) DO NOTHING RETURNING id_empresa`
	upsertCompany = `INSERT INTO empresa (nombre) VALUES (?)
ON CONFLICT (nombre) DO UPDATE SET nombre = excluded.nombre
RETURNING id_empresa`
	companyByName = `SELECT id_empresa FROM empresa WHERE nombre = ?`

	insertStation = `INSERT INTO estacion_servicio (
    id_empresa, tipo_estacion, provincia, municipio, localidad,
    codigo_postal, direccion, margen, latitud, longitud, horario
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	insertPrice = `INSERT INTO precio_carburante (id_estacion, id_tipo_carburante, fecha, precio)
VALUES (?, ?, ?, ?)`
)

var countQueries = map[core.Table]string{
	core.TableCompany:  `SELECT COUNT(*) FROM empresa`,
	core.TableStation:  `SELECT COUNT(*) FROM estacion_servicio`,
	core.TableFuelType: `SELECT COUNT(*) FROM tipo_carburante`,
	core.TablePrice:    `SELECT COUNT(*) FROM precio_carburante`,
}

// Store implements core.Store and core.CompanyUpserter.
type Store struct{ db *sql.DB }

var (
	_ core.Store           = (*Store)(nil)
	_ core.CompanyUpserter = (*Store)(nil)
)

// New wraps an open database. The caller owns db.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// DSN adds the connection pragmas to path. The driver applies them to every
// connection it opens, so a replaced connection keeps foreign keys enforced.
func DSN(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_pragma=foreign_keys(1)"
}

// Open opens (or creates) the database at path with a single connection,
// enables foreign keys and creates the schema.
func Open(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", DSN(path))
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	if err := New(db).EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// EnsureSchema creates the four tables if they do not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("bootstrap schema: %w", err)
	}
	return nil
}

func (s *Store) Reset(ctx context.Context) error {
	for _, stmt := range resetStatements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("Reset: %w", err)
		}
	}
	return nil
}

func (s *Store) InsertFuelType(ctx context.Context, name string) error {
	if _, err := s.db.ExecContext(ctx, insertFuelType, name); err != nil {
		return fmt.Errorf("InsertFuelType: ExecContext: %w", err)
	}
	return nil
}

func (s *Store) FuelTypeID(ctx context.Context, name string) (int64, bool, error) {
	return s.lookupID(ctx, fuelTypeByName, name)
}

func (s *Store) InsertCompany(ctx context.Context, name string) (int64, bool, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, insertCompany, name).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("InsertCompany: QueryRowContext: %w", err)
	}
	return id, true, nil
}

func (s *Store) CompanyID(ctx context.Context, name string) (int64, bool, error) {
	return s.lookupID(ctx, companyByName, name)
}

func (s *Store) UpsertCompany(ctx context.Context, name string) (int64, error) {
	var id int64
	if err := s.db.QueryRowContext(ctx, upsertCompany, name).Scan(&id); err != nil {
		return 0, fmt.Errorf("UpsertCompany: QueryRowContext: %w", err)
	}
	return id, nil
}

func (s *Store) InsertStation(ctx context.Context, st core.Station) (int64, error) {
	res, err := s.db.ExecContext(ctx, insertStation,
		st.CompanyID,
		string(st.Kind),
		nullString(core.OptionalText(st.Province)),
		nullString(core.OptionalText(st.Municipality)),
		nullString(core.OptionalText(st.Locality)),
		nullString(core.OptionalText(st.PostalCode)),
		nullString(core.OptionalText(st.Address)),
		nullString(st.Margin),
		st.Latitude,
		st.Longitude,
		nullString(st.Schedule),
	)
	if err != nil {
		return 0, fmt.Errorf("InsertStation: ExecContext: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("InsertStation: LastInsertId: %w", err)
	}
	return id, nil
}

func (s *Store) InsertPrice(ctx context.Context, p core.PriceObservation) error {
	_, err := s.db.ExecContext(ctx, insertPrice,
		p.StationID,
		p.FuelTypeID,
		p.Timestamp.UTC().Format(TimestampLayout),
		p.Price,
	)
	if err != nil {
		return fmt.Errorf("InsertPrice: ExecContext: %w", err)
	}
	return nil
}

func (s *Store) Count(ctx context.Context, t core.Table) (int64, error) {
	query, ok := countQueries[t]
	if !ok {
		return 0, fmt.Errorf("Count: unknown table %d", int(t))
	}

	var n int64
	if err := s.db.QueryRowContext(ctx, query).Scan(&n); err != nil {
		return 0, fmt.Errorf("Count %s: %w", t, err)
	}
	return n, nil
}

func (s *Store) lookupID(ctx context.Context, query, name string) (int64, bool, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, query, name).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("lookup %q: %w", name, err)
	}
	return id, true, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
