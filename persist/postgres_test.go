//go:build integration

package persist_test

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-arrower/factory"
	"github.com/go-arrower/factory/persist"
	"github.com/go-arrower/factory/postgres"
	"github.com/go-arrower/factory/tests"
)

var pg *tests.PostgresDocker

func TestMain(m *testing.M) {
	pg = tests.SharedPostgresDocker()

	code := m.Run()

	pg.Cleanup()
	os.Exit(code)
}

type account struct {
	Number   int    `db:"account_id"`
	Owner    string
	Internal string `db:"-"`
}

func TestNewPostgres(t *testing.T) {
	t.Parallel()

	repo := persist.NewPostgres[*user](nil)
	assert.Equal(t, "users", repo.Table)
	assert.Equal(t, []string{"id", "name", "email"}, repo.Columns)

	repo2 := persist.NewPostgres[account](nil, persist.WithTable("accounts"))
	assert.Equal(t, "accounts", repo2.Table)
	assert.Equal(t, []string{"account_id", "owner"}, repo2.Columns)
}

func TestPostgres_Persist(t *testing.T) {
	t.Parallel()

	t.Run("store entities of a factory", func(t *testing.T) {
		t.Parallel()

		handler := pg.NewTestDatabase()
		repo := persist.NewPostgres[*user](handler.PGx)

		f := factory.New[*user](factory.DefaultsFunc(userDefaults), factory.WithPersister[*user](repo))

		_, err := f.Times(5).Store(ctx)
		require.NoError(t, err)

		c, err := repo.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 5, c)

		all, err := repo.All(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 5)
		assert.NotEmpty(t, all[0].Email)
	})

	t.Run("tagged columns", func(t *testing.T) {
		t.Parallel()

		handler := pg.NewTestDatabase()
		repo := persist.NewPostgres[account](handler.PGx, persist.WithTable("accounts"))

		number := 0
		f := factory.New[account](factory.DefaultsFunc(func(fake *factory.Generator) factory.Attributes {
			number++

			return factory.Attributes{"Number": number, "Owner": fake.Name(), "Internal": "not stored"}
		}), factory.WithPersister[account](repo))

		_, err := f.Times(2).Store(ctx)
		require.NoError(t, err)

		all, err := repo.All(ctx)
		require.NoError(t, err)
		require.Len(t, all, 2)
		assert.Equal(t, 1, all[0].Number)
		assert.NotEmpty(t, all[0].Owner)
		assert.Empty(t, all[0].Internal)
	})

	t.Run("exists already", func(t *testing.T) {
		t.Parallel()

		handler := pg.NewTestDatabase()
		repo := persist.NewPostgres[user](handler.PGx)

		err := repo.Persist(ctx, user{ID: "1"})
		require.NoError(t, err)

		err = repo.Persist(ctx, user{ID: "1"})
		assert.ErrorIs(t, err, persist.ErrAlreadyExists)
	})

	t.Run("rollback transaction", func(t *testing.T) {
		t.Parallel()

		handler := pg.NewTestDatabase()
		repo := persist.NewPostgres[*user](handler.PGx)

		tx, err := handler.PGx.Begin(ctx)
		require.NoError(t, err)

		txCtx := postgres.WithTX(ctx, tx)

		_, err = factory.New[*user](factory.DefaultsFunc(userDefaults), factory.WithPersister[*user](repo)).
			Times(3).Store(txCtx)
		require.NoError(t, err)

		c, _ := repo.Count(txCtx)
		assert.Equal(t, 3, c)

		require.NoError(t, tx.Rollback(ctx))

		c, _ = repo.Count(ctx)
		assert.Equal(t, 0, c)
	})
}
