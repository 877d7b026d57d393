// Package postgres connects to a PostgreSQL database, for factories persisting into it.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"go.opentelemetry.io/otel/trace"
)

type ctxKey string

// CtxTX contains a database transaction, only if set via WithTX.
// Persisters use it instead of the connection pool, so tests can roll back all stored entities.
const CtxTX ctxKey = "factory.tx"

var (
	ErrConnectionFailed = errors.New("connection failed")
	ErrMigrationFailed  = errors.New("migration failed")
)

// WithTX returns a copy of ctx carrying tx.
func WithTX(ctx context.Context, tx pgx.Tx) context.Context {
	return context.WithValue(ctx, CtxTX, tx)
}

// Config holds the database to connect to and the schema the stored entities need.
type Config struct {
	// Migrations, if set, has to contain a folder `migrations` with the files for golang-migrate.
	Migrations fs.FS
	User       string
	Password   string
	Database   string
	Host       string
	Port       int
	// MaxConns defaults to 10.
	MaxConns int
}

// DSN is the connection string of the database, without any pool settings.
func (c Config) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s/%s?sslmode=disable",
		c.User, c.Password, net.JoinHostPort(c.Host, strconv.Itoa(c.Port)), c.Database)
}

func (c Config) poolDSN() string {
	if c.MaxConns == 0 { // prevent error: pool_max_conns too small
		c.MaxConns = 10
	}

	return fmt.Sprintf("%s&pool_max_conns=%d", c.DSN(), c.MaxConns)
}

// Connect connects to a PostgreSQL database.
// If conf has Migrations, they are applied, so the schema is on the latest version before any entity is stored.
// Every query opens a span of tracerProvider, see QueryTracer.
func Connect(ctx context.Context, conf Config, tracerProvider trace.TracerProvider) (*Handler, error) {
	config, err := pgxpool.ParseConfig(conf.poolDSN())
	if err != nil {
		return nil, fmt.Errorf("%w: could not parse config: %v", ErrConnectionFailed, err) //nolint:errorlint // prevent err in api
	}

	config.ConnConfig.RuntimeParams = map[string]string{
		"application_name": "factory",
	}
	config.ConnConfig.Tracer = NewQueryTracer(tracerProvider)

	dbpool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("%w: could not connect: %v", ErrConnectionFailed, err) //nolint:errorlint // prevent err in api
	}

	if err = dbpool.Ping(ctx); err != nil {
		dbpool.Close()

		return nil, fmt.Errorf("%w: could not ping db: %v", ErrConnectionFailed, err) //nolint:errorlint // prevent err in api
	}

	handler := &Handler{
		PGx:    dbpool,
		DB:     sql.OpenDB(stdlib.GetConnector(*config.ConnConfig)), // migrations & fixtures work on database/sql
		Config: conf,
	}

	if conf.Migrations == nil {
		return handler, nil
	}

	if err = migrateUp(handler.DB, conf.Database, conf.Migrations); err != nil {
		_ = handler.Shutdown(ctx)

		return nil, err
	}

	return handler, nil
}

func migrateUp(db *sql.DB, dbName string, migrationsFS fs.FS) error {
	fsDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("%w: could not read migration files: %v", ErrMigrationFailed, err) //nolint:errorlint // prevent err in api
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{}) //nolint:exhaustruct // use default config
	if err != nil {
		return fmt.Errorf("%w: could not get database driver: %v", ErrMigrationFailed, err) //nolint:errorlint // prevent err in api
	}

	m, err := migrate.NewWithInstance("iofs", fsDriver, dbName, driver)
	if err != nil {
		return fmt.Errorf("%w: could not create migration: %v", ErrMigrationFailed, err) //nolint:errorlint // prevent err in api
	}

	if err = m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("%w: could not migrate up: %v", ErrMigrationFailed, err) //nolint:errorlint // prevent err in api
	}

	return nil
}

// Handler holds the connections to the database of a Config.
type Handler struct {
	PGx    *pgxpool.Pool
	DB     *sql.DB
	Config Config
}

// Shutdown waits for and closes all connections to PostgreSQL.
func (h Handler) Shutdown(_ context.Context) error {
	h.PGx.Close()

	if err := h.DB.Close(); err != nil {
		return fmt.Errorf("could not close db: %w", err)
	}

	return nil
}
