// Package postgres implements the ingestion store on PostgreSQL with pgx.
//
// A Store wraps a single DBTX for the whole run. The caller acquires one
// connection from the pool and releases it when the run ends; every
// statement autocommits.
package postgres

import (
	"context"
	_ "embed"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/estaciones/internal/core"
)

//go:embed schema.sql
var schemaSQL string

// DBTX is the interface for database operations.
// Satisfied by *pgxpool.Pool, *pgxpool.Conn and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

const (
	resetTables = `TRUNCATE TABLE precio_carburante, estacion_servicio, empresa, tipo_carburante RESTART IDENTITY CASCADE`

	insertFuelType = `INSERT INTO tipo_carburante (nombre) VALUES ($1) ON CONFLICT (nombre) DO NOTHING`
	fuelTypeByName = `SELECT id_tipo_carburante FROM tipo_carburante WHERE nombre = $1`

	insertCompany = `INSERT INTO empresa (nombre) VALUES ($1) ON CONFLICT (nombre) DO NOTHING RETURNING id_empresa`
	upsertCompany = `INSERT INTO empresa (nombre) VALUES ($1)
ON CONFLICT (nombre) DO UPDATE SET nombre = EXCLUDED.nombre
RETURNING id_empresa`
	companyByName = `SELECT id_empresa FROM empresa WHERE nombre = $1`

	insertStation = `INSERT INTO estacion_servicio (
    id_empresa, tipo_estacion, provincia, municipio, localidad,
    codigo_postal, direccion, margen, latitud, longitud, horario
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
RETURNING id_estacion`

	insertPrice = `INSERT INTO precio_carburante (id_estacion, id_tipo_carburante, fecha, precio)
VALUES ($1, $2, $3, $4)`
)

// countQueries maps every reportable table to a constant query.
var countQueries = map[core.Table]string{
	core.TableCompany:  `SELECT COUNT(*) FROM empresa`,
	core.TableStation:  `SELECT COUNT(*) FROM estacion_servicio`,
	core.TableFuelType: `SELECT COUNT(*) FROM tipo_carburante`,
	core.TablePrice:    `SELECT COUNT(*) FROM precio_carburante`,
}

// Store implements core.Store and core.CompanyUpserter.
type Store struct {
	db DBTX
}

var (
	_ core.Store           = (*Store)(nil)
	_ core.CompanyUpserter = (*Store)(nil)
)

// New creates a store bound to db.
func New(db DBTX) *Store {
	return &Store{db: db}
}

// Acquirer binds each run to one pooled connection, released when the run
// ends.
func Acquirer(pool *pgxpool.Pool) core.AcquireFunc {
	return func(ctx context.Context) (core.Store, func(), error) {
		conn, err := pool.Acquire(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("acquire connection: %w", err)
		}
		return New(conn), conn.Release, nil
	}
}

// EnsureSchema creates the four tables if they do not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("bootstrap schema: %w", err)
	}
	return nil
}

func (s *Store) Reset(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, resetTables); err != nil {
		return fmt.Errorf("truncate tables: %w", err)
	}
	return nil
}

func (s *Store) InsertFuelType(ctx context.Context, name string) error {
	if _, err := s.db.Exec(ctx, insertFuelType, name); err != nil {
		return fmt.Errorf("insert fuel type: %w", err)
	}
	return nil
}

func (s *Store) FuelTypeID(ctx context.Context, name string) (int64, bool, error) {
	return s.lookupID(ctx, fuelTypeByName, name)
}

// InsertCompany inserts name unless it exists. The RETURNING clause yields
// no row on conflict, which is reported as inserted=false.
func (s *Store) InsertCompany(ctx context.Context, name string) (int64, bool, error) {
	var id int64
	err := s.db.QueryRow(ctx, insertCompany, name).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("insert company: %w", err)
	}
	return id, true, nil
}

func (s *Store) CompanyID(ctx context.Context, name string) (int64, bool, error) {
	return s.lookupID(ctx, companyByName, name)
}

// UpsertCompany returns the id of name, inserting it first if needed.
// The no-op update makes RETURNING yield the existing row on conflict.
func (s *Store) UpsertCompany(ctx context.Context, name string) (int64, error) {
	var id int64
	if err := s.db.QueryRow(ctx, upsertCompany, name).Scan(&id); err != nil {
		return 0, fmt.Errorf("upsert company: %w", err)
	}
	return id, nil
}

func (s *Store) InsertStation(ctx context.Context, st core.Station) (int64, error) {
	var id int64
	err := s.db.QueryRow(ctx, insertStation,
		st.CompanyID,
		string(st.Kind),
		toPgText(st.Province),
		toPgText(st.Municipality),
		toPgText(st.Locality),
		toPgText(st.PostalCode),
		toPgText(st.Address),
		optionalPgText(st.Margin),
		st.Latitude,
		st.Longitude,
		optionalPgText(st.Schedule),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert station: %w", err)
	}
	return id, nil
}

func (s *Store) InsertPrice(ctx context.Context, p core.PriceObservation) error {
	_, err := s.db.Exec(ctx, insertPrice,
		p.StationID,
		p.FuelTypeID,
		pgtype.Timestamp{Time: p.Timestamp, Valid: true},
		p.Price,
	)
	if err != nil {
		return fmt.Errorf("insert price: %w", err)
	}
	return nil
}

func (s *Store) Count(ctx context.Context, t core.Table) (int64, error) {
	query, ok := countQueries[t]
	if !ok {
		return 0, fmt.Errorf("count: unknown table %d", int(t))
	}

	var n int64
	if err := s.db.QueryRow(ctx, query).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", t, err)
	}
	return n, nil
}

func (s *Store) lookupID(ctx context.Context, query, name string) (int64, bool, error) {
	var id int64
	err := s.db.QueryRow(ctx, query, name).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("lookup %q: %w", name, err)
	}
	return id, true, nil
}

// toPgText converts a string to pgtype.Text.
// Returns invalid if the string is empty or only whitespace.
func toPgText(s string) pgtype.Text {
	return optionalPgText(core.OptionalText(s))
}

func optionalPgText(s *string) pgtype.Text {
	if s == nil {
		return pgtype.Text{Valid: false}
	}
	return pgtype.Text{String: *s, Valid: true}
}
