//go:build integration

package postgres_test

import (
	"context"
	"errors"
	"os"
	"strconv"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ory/dockertest/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/go-arrower/factory/postgres"
	"github.com/go-arrower/factory/tests"
)

var runOptions = &dockertest.RunOptions{ //nolint:exhaustruct // only set required configuration
	Repository: "postgres",
	Tag:        "16",
	Env: []string{
		"POSTGRES_PASSWORD=secret",
		"POSTGRES_USER=factory",
		"POSTGRES_DB=dbname_test",
		"listen_addresses = '*'",
	},
}

func config(port int) postgres.Config {
	return postgres.Config{
		Host:     "localhost",
		Port:     port,
		User:     "factory",
		Password: "secret",
		Database: "dbname_test",
	}
}

func TestConnect(t *testing.T) {
	t.Parallel()

	t.Run("ensure db connected", func(t *testing.T) {
		t.Parallel()

		var pgHandler *postgres.Handler
		cleanup, err := tests.StartDockerContainer(runOptions, func(resource *dockertest.Resource) func() error {
			port, _ := strconv.Atoi(resource.GetPort("5432/tcp"))

			return func() error {
				handler, err := postgres.Connect(context.Background(), config(port), noop.NewTracerProvider())
				if err != nil {
					return err //nolint:wrapcheck
				}

				pgHandler = handler

				return nil
			}
		})
		require.NoError(t, err)

		err = pgHandler.PGx.Ping(context.Background())
		assert.NoError(t, err)
		assert.NotEmpty(t, pgHandler.DB)

		_ = cleanup()
	})

	t.Run("ensure db connection closed", func(t *testing.T) {
		t.Parallel()

		var pgHandler *postgres.Handler
		cleanup, err := tests.StartDockerContainer(runOptions, func(resource *dockertest.Resource) func() error {
			port, _ := strconv.Atoi(resource.GetPort("5432/tcp"))

			return func() error {
				handler, err := postgres.Connect(context.Background(), config(port), noop.NewTracerProvider())
				if err != nil {
					return err //nolint:wrapcheck
				}

				pgHandler = handler

				return nil
			}
		})
		require.NoError(t, err)

		err = pgHandler.Shutdown(context.Background())
		assert.NoError(t, err)

		err = pgHandler.PGx.Ping(context.Background())
		assert.Error(t, err)

		_ = cleanup()
	})
}

func TestConnect_migrations(t *testing.T) {
	t.Parallel()

	t.Run("ensure db migration run", func(t *testing.T) {
		t.Parallel()

		var pgHandler *postgres.Handler
		cleanup, err := tests.StartDockerContainer(runOptions, func(resource *dockertest.Resource) func() error {
			port, _ := strconv.Atoi(resource.GetPort("5432/tcp"))
			conf := config(port)
			conf.Migrations = os.DirFS("testdata")

			return func() error {
				handler, err := postgres.Connect(context.Background(), conf, noop.NewTracerProvider())
				if err != nil {
					return err //nolint:wrapcheck
				}

				pgHandler = handler

				return nil
			}
		})
		require.NoError(t, err)

		ensureTableExists(t, pgHandler.PGx, "schema_migrations")
		ensureTableExists(t, pgHandler.PGx, "users")

		// schema is up to date => migrating again does not fail
		_, err = postgres.Connect(context.Background(), pgHandler.Config, noop.NewTracerProvider())
		assert.NoError(t, err)

		_ = cleanup()
	})

	t.Run("invalid migrations", func(t *testing.T) {
		t.Parallel()

		cleanup, err := tests.StartDockerContainer(runOptions, func(resource *dockertest.Resource) func() error {
			port, _ := strconv.Atoi(resource.GetPort("5432/tcp"))
			conf := config(port)
			conf.Migrations = os.DirFS("not-existing")

			return func() error {
				_, err := postgres.Connect(context.Background(), conf, noop.NewTracerProvider())
				if err != nil && !errors.Is(err, postgres.ErrMigrationFailed) {
					return err //nolint:wrapcheck
				}

				assert.ErrorIs(t, err, postgres.ErrMigrationFailed)

				return nil
			}
		})
		require.NoError(t, err)

		_ = cleanup()
	})
}

func TestConnect_tracing(t *testing.T) {
	t.Parallel()

	recorder := tracetest.NewSpanRecorder()

	var pgHandler *postgres.Handler
	cleanup, err := tests.StartDockerContainer(runOptions, func(resource *dockertest.Resource) func() error {
		port, _ := strconv.Atoi(resource.GetPort("5432/tcp"))
		conf := config(port)
		conf.Migrations = os.DirFS("testdata")

		return func() error {
			handler, err := postgres.Connect(context.Background(), conf,
				sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder)))
			if err != nil {
				return err //nolint:wrapcheck
			}

			pgHandler = handler

			return nil
		}
	})
	require.NoError(t, err)

	_, err = pgHandler.PGx.Exec(context.Background(), `INSERT INTO users (id, name) VALUES ($1, $2)`, 1, "Gopher")
	require.NoError(t, err)

	names := []string{}
	for _, span := range recorder.Ended() {
		names = append(names, span.Name())
	}

	assert.Contains(t, names, "INSERT users")

	_ = cleanup()
}

func ensureTableExists(t *testing.T, pgx *pgxpool.Pool, table string) {
	t.Helper()

	row := pgx.QueryRow(
		context.Background(),
		`SELECT EXISTS (
				SELECT FROM information_schema.tables
					WHERE  table_schema = 'public'
					AND    table_name   = $1
			);`, table)

	var exists bool

	err := row.Scan(&exists)
	assert.NoError(t, err)
	assert.True(t, exists, table)
}
