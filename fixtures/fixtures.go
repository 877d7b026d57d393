// Package fixtures writes the attributes of factories as go-testfixtures files and loads them into a database.
//
// Use it to generate realistic fixture files once, and check them in with the integration tests:
//
//	res, _ := userFactory.Times(10).Attributes()
//	_ = fixtures.WriteFile("testdata/fixtures/users.yaml", "users", fixtures.Rows(res))
package fixtures

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/go-testfixtures/testfixtures/v3"
	"gopkg.in/yaml.v3"

	"github.com/go-arrower/factory"
)

var (
	ErrWriteFailed = errors.New("could not write fixtures")
	ErrLoadFailed  = errors.New("could not load fixtures")
)

// Rows returns all attributes of res, with keys converted to snake_case column names.
func Rows(res factory.Result[factory.Attributes]) []factory.Attributes {
	rows := make([]factory.Attributes, 0, res.Len())

	for _, attrs := range res.Collection().All() {
		row := make(factory.Attributes, len(attrs))
		for key, val := range attrs {
			row[factory.SnakeCase(key)] = val
		}

		rows = append(rows, row)
	}

	return rows
}

// Write writes rows as fixtures of table to w.
// The format is the one of testfixtures.FilesMultiTables, the keys of each row are sorted.
func Write(w io.Writer, table string, rows []factory.Attributes) error {
	if table == "" {
		return fmt.Errorf("%w: table is empty", ErrWriteFailed)
	}

	records := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		records = append(records, row)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2) //nolint:mnd // common indentation of fixture files

	if err := enc.Encode(map[string][]map[string]any{table: records}); err != nil {
		return fmt.Errorf("%w: %v", ErrWriteFailed, err) //nolint:errorlint // prevent err in api
	}

	if err := enc.Close(); err != nil {
		return fmt.Errorf("%w: %v", ErrWriteFailed, err) //nolint:errorlint // prevent err in api
	}

	return nil
}

// WriteFile is like Write, but creates the file at path, including all missing directories.
func WriteFile(path string, table string, rows []factory.Attributes) error {
	if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
		return fmt.Errorf("%w: %v", ErrWriteFailed, err) //nolint:errorlint // prevent err in api
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrWriteFailed, err) //nolint:errorlint // prevent err in api
	}
	defer file.Close()

	return Write(file, table, rows)
}

// Load loads all fixture files into the postgres database db.
// The name of the database has to contain "test", to prevent loading fixtures into production by accident.
func Load(db *sql.DB, files ...string) error {
	if len(files) == 0 {
		return nil
	}

	loader, err := testfixtures.New(
		testfixtures.Database(db),
		testfixtures.Dialect("postgres"),
		testfixtures.FilesMultiTables(files...),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrLoadFailed, err) //nolint:errorlint // prevent err in api
	}

	if err := loader.Load(); err != nil {
		return fmt.Errorf("%w: %v", ErrLoadFailed, err) //nolint:errorlint // prevent err in api
	}

	return nil
}
