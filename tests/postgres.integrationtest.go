//go:build integration

package tests

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"math/rand/v2"
	"os"
	"strconv"
	"sync"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/khaiql/dbcleaner"
	"github.com/khaiql/dbcleaner/engine"
	"github.com/ory/dockertest/v3"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/go-arrower/factory/fixtures"
	"github.com/go-arrower/factory/postgres"
)

//nolint:gochecknoglobals // the variables are used on purpose for a singleton pattern.
var (
	muPostgres       = &sync.Mutex{}
	sharedPostgres   *PostgresDocker
	defaultPGRunOpts = dockertest.RunOptions{ //nolint:exhaustruct // only set required configuration
		Repository: "postgres",
		Tag:        "16",
		Env: []string{
			"POSTGRES_USER=factory",
			"POSTGRES_PASSWORD=secret",
			"POSTGRES_DB=factory_test",
			"listen_addresses = '*'",
		},
		Cmd: []string{"-c", "max_connections=1000"},
	}
)

const (
	commonFixture = "testdata/fixtures/_common.yaml"
	migrationsDir = "testdata"
)

// PostgresOpt allows to initialise a custom postgres connection.
type PostgresOpt func(c *postgres.Config)

// WithMigrations migrates every database with the folder `migrations` in fsys.
// Without it, the folder testdata/migrations of the calling test's package is used, if it exists.
func WithMigrations(fsys fs.FS) PostgresOpt {
	return func(c *postgres.Config) {
		c.Migrations = fsys
	}
}

// PostgresDocker is a PostgreSQL server running in docker, to create test databases in.
type PostgresDocker struct {
	pg            *postgres.Handler
	cleanupDocker func() error
}

// SharedPostgresDocker returns a fully connected PostgresDocker.
// Subsequent calls return the same instance to prevent multiple docker containers to spin up,
// if you have a lot of integration tests running in parallel.
// In case of an issue, it panics.
func SharedPostgresDocker(opts ...PostgresOpt) *PostgresDocker {
	muPostgres.Lock()
	defer muPostgres.Unlock()

	if sharedPostgres != nil {
		return sharedPostgres
	}

	runOpts := defaultPGRunOpts
	runOpts.Name = fmt.Sprintf("factory-testing-postgres-%d", rand.IntN(1000)) //nolint:gosec,mnd // prevent collisions only

	sharedPostgres = startPostgres(&runOpts, opts...)

	return sharedPostgres
}

// NewPostgresDocker starts a new PostgreSQL container. Consider using SharedPostgresDocker.
// If called in a CI environment, the pipeline needs access to a docker socket.
// In case of an issue, it panics.
func NewPostgresDocker(opts ...PostgresOpt) *PostgresDocker {
	runOpts := defaultPGRunOpts

	return startPostgres(&runOpts, opts...)
}

func startPostgres(runOpts *dockertest.RunOptions, opts ...PostgresOpt) *PostgresDocker {
	var pgHandler *postgres.Handler

	retryFunc := func(resource *dockertest.Resource) func() error {
		port, _ := strconv.Atoi(resource.GetPort("5432/tcp"))

		conf := postgres.Config{ //nolint:exhaustruct // migrations are optional
			User:     "factory",
			Password: "secret",
			Database: "factory_test",
			Host:     "localhost",
			Port:     port,
			MaxConns: 10, //nolint:mnd
		}

		for _, opt := range opts {
			opt(&conf)
		}

		return func() error {
			handler, err := postgres.Connect(context.Background(), conf, noop.NewTracerProvider())
			if err != nil {
				return err //nolint:wrapcheck // retried by docker
			}

			pgHandler = handler

			return nil
		}
	}

	cleanup, err := StartDockerContainer(runOpts, retryFunc)
	if err != nil {
		panic(err)
	}

	return &PostgresDocker{
		pg:            pgHandler,
		cleanupDocker: cleanup,
	}
}

// NewTestDatabase creates a new database, connects to it, and applies all migrations.
// Afterwards, it loads all fixture files.
// If there is a file named `testdata/fixtures/_common.yaml`, it's always loaded first.
// Use it in integration tests to get an isolated database for each test, so they can run in parallel.
// In case of an issue, it panics.
func (pd *PostgresDocker) NewTestDatabase(files ...string) *postgres.Handler {
	name := randomDatabaseName()

	_, err := pd.pg.PGx.Exec(context.Background(), fmt.Sprintf("CREATE DATABASE %s;", name))
	if err != nil {
		panic(err)
	}

	conf := pd.pg.Config
	conf.Database = name

	if _, err = os.Stat(migrationsDir + "/migrations"); conf.Migrations == nil && err == nil {
		conf.Migrations = os.DirFS(migrationsDir)
	}

	handler, err := postgres.Connect(context.Background(), conf, noop.NewTracerProvider())
	if err != nil {
		panic(err)
	}

	if err := fixtures.Load(handler.DB, withCommonFixture(files)...); err != nil {
		panic(err)
	}

	return handler
}

// PrepareDatabase prepares the existing database for testing:
// - All tables are truncated
// - All fixture files are loaded
// - If there is a file named `testdata/fixtures/_common.yaml`, it's always loaded first.
func (pd *PostgresDocker) PrepareDatabase(files ...string) {
	pd.Truncate()

	if err := fixtures.Load(pd.pg.DB, withCommonFixture(files)...); err != nil {
		panic(err)
	}
}

// Truncate removes all rows of all tables, except the migration history.
func (pd *PostgresDocker) Truncate() {
	cleaner := dbcleaner.New()
	cleaner.SetEngine(engine.NewPostgresEngine(pd.pg.Config.DSN()))

	defer func() { _ = cleaner.Close() }()

	var tables []string

	_ = pgxscan.Select(context.Background(), pd.pg.PGx, &tables,
		`SELECT table_schema || '.' || table_name
				FROM information_schema.tables
				WHERE table_schema NOT IN ('pg_catalog', 'information_schema')
				  AND table_type = 'BASE TABLE'
				  AND table_name <> 'schema_migrations'`,
	)

	cleaner.Clean(tables...)
}

// Cleanup does shutdown the database connection, stops, and removes the docker container.
// It cannot be deferred in TestMain, if it exists with os.Exit(code), as that does not execute the defer stack.
// In case of an issue, it panics.
func (pd *PostgresDocker) Cleanup() {
	if err := pd.pg.Shutdown(context.Background()); err != nil {
		panic(err)
	}

	if err := pd.cleanupDocker(); err != nil {
		panic(err)
	}
}

// PGx returns the pgx connection if you need to access the database directly.
func (pd *PostgresDocker) PGx() *pgxpool.Pool {
	return pd.pg.PGx
}

// Handler returns the connection to the default database of the container.
func (pd *PostgresDocker) Handler() *postgres.Handler {
	return pd.pg
}

func withCommonFixture(files []string) []string {
	if _, err := os.Stat(commonFixture); errors.Is(err, nil) {
		return append([]string{commonFixture}, files...)
	}

	return files
}

func randomDatabaseName() string {
	letters := []rune("abcdefghijklmnopqrstuvwxyz")

	const n = 16
	b := make([]rune, n)

	for i := range b {
		b[i] = letters[rand.IntN(len(letters))] //nolint:gosec // used for name, not security
	}

	return string(b) + "_test"
}
