package persist

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/go-arrower/factory"
	"github.com/go-arrower/factory/postgres"
)

var ErrInvalidQuery = errors.New("invalid query")

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar) //nolint:gochecknoglobals // squirrel recommends this

// NewPostgres returns a Persister inserting entities of type E into a table.
//
// The columns are the exported fields of E, named by their `db` tag or the snake_case of the field name.
// A field tagged `db:"-"` is skipped. The table is set via WithTable,
// otherwise it is the snake_case plural of the type name, e.g. users for User.
func NewPostgres[E any](pgx *pgxpool.Pool, opts ...Option) *Postgres[E] {
	conf := config{ //nolint:exhaustruct // other configs not supported by postgres
		table: "",
	}

	for _, opt := range opts {
		opt(&conf)
	}

	typ := structType[E]()

	if conf.table == "" {
		conf.table = factory.SnakeCase(typ.Name()) + "s"
	}

	columns, fields := columnNames(typ)

	return &Postgres[E]{
		PGx:     pgx,
		Table:   conf.table,
		Columns: columns,
		fields:  fields,
	}
}

// Postgres persists entities a factory stores into PostgreSQL.
type Postgres[E any] struct {
	PGx *pgxpool.Pool

	Table   string
	Columns []string

	// fields are the indexes of the struct fields, in the same order as Columns.
	fields [][]int
}

type dbInterface interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// TxOrConn returns the transaction in ctx, or the connection pool, if there is none.
func (repo *Postgres[E]) TxOrConn(ctx context.Context) dbInterface { //nolint:ireturn // tx or pool
	if tx, ok := ctx.Value(postgres.CtxTX).(pgx.Tx); ok {
		return tx
	}

	return repo.PGx
}

// Persist inserts entity, it implements factory.Persister.
func (repo *Postgres[E]) Persist(ctx context.Context, entity E) error {
	val := reflect.Indirect(reflect.ValueOf(entity))
	if !val.IsValid() {
		return fmt.Errorf("%w: entity is nil", ErrSaveFailed)
	}

	values := make([]any, len(repo.fields))
	for i, index := range repo.fields {
		values[i] = val.FieldByIndex(index).Interface()
	}

	sql, args, err := psql.Insert(repo.Table).Columns(repo.Columns...).Values(values...).ToSql()
	if err != nil {
		return fmt.Errorf("%w: could not build query: %v", ErrInvalidQuery, err) //nolint:errorlint // prevent err in api
	}

	_, err = repo.TxOrConn(ctx).Exec(ctx, sql, args...)
	if err != nil && strings.Contains(err.Error(), "SQLSTATE 23505") {
		return fmt.Errorf("%w: %v", ErrAlreadyExists, err) //nolint:errorlint // prevent err in api
	}

	if err != nil {
		return fmt.Errorf("%w: could not insert entity: %v", ErrSaveFailed, err) //nolint:errorlint // prevent err in api
	}

	return nil
}

// All returns all entities of the table.
func (repo *Postgres[E]) All(ctx context.Context) ([]E, error) {
	sql, args, err := psql.Select(repo.Columns...).From(repo.Table).ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: could not build query: %v", ErrInvalidQuery, err) //nolint:errorlint // prevent err in api
	}

	entities := []E{}

	err = pgxscan.Select(ctx, repo.TxOrConn(ctx), &entities, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: could not scan entities: %v", ErrInvalidQuery, err) //nolint:errorlint // prevent err in api
	}

	return entities, nil
}

func (repo *Postgres[E]) Count(ctx context.Context) (int, error) {
	sql, args, err := psql.Select("COUNT(*)").From(repo.Table).ToSql()
	if err != nil {
		return 0, fmt.Errorf("%w: could not build query: %v", ErrInvalidQuery, err) //nolint:errorlint // prevent err in api
	}

	var count int

	err = pgxscan.Get(ctx, repo.TxOrConn(ctx), &count, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("%w: could not count entities: %v", ErrInvalidQuery, err) //nolint:errorlint // prevent err in api
	}

	return count, nil
}

func structType[E any]() reflect.Type {
	typ := reflect.TypeFor[E]()
	for typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
	}

	return typ
}

func columnNames(typ reflect.Type) ([]string, [][]int) {
	columns := []string{}
	fields := [][]int{}

	if typ.Kind() != reflect.Struct {
		return columns, fields
	}

	for _, f := range reflect.VisibleFields(typ) {
		if !f.IsExported() || f.Anonymous {
			continue
		}

		name := f.Tag.Get("db")
		if name == "-" {
			continue
		}

		if name == "" {
			name = factory.SnakeCase(f.Name)
		}

		columns = append(columns, name)
		fields = append(fields, f.Index)
	}

	return columns, fields
}
