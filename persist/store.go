package persist

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
)

var (
	ErrStore = errors.New("could not store data")
	ErrLoad  = errors.New("could not load data")
)

// Store is an interface to access the data of a persister as a whole,
// so it can be kept in memory.
type Store interface {
	Store(fileName string, data any) error
	Load(fileName string, data any) error
}

var _ Store = (*noopStore)(nil)

type noopStore struct{}

func (n noopStore) Store(_ string, _ any) error {
	return nil
}

func (n noopStore) Load(_ string, _ any) error {
	return nil
}

var _ Store = (*JSONStore)(nil)

// JSONStore persists the data as a human-readable JSON file on disc.
// It is not schema aware and uses the standard go marshalling.
// CAUTION: This is only intended for local development and demos of generated data.
type JSONStore struct {
	dir string

	mu sync.Mutex
}

// NewJSONStore returns a JSONStore writing into the directory path.
// The directory is created if it does not exist.
func NewJSONStore(path string) (*JSONStore, error) {
	if err := os.MkdirAll(path, os.ModePerm); err != nil {
		return nil, fmt.Errorf("%w: could not create path: %s: %v", ErrStore, path, err) //nolint:errorlint // prevent err in api
	}

	return &JSONStore{dir: path, mu: sync.Mutex{}}, nil
}

func (s *JSONStore) Store(fileName string, data any) error {
	if data == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := json.MarshalIndent(data, "", "\t")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStore, err) //nolint:errorlint // prevent err in api
	}

	file, err := os.Create(filepath.Join(s.dir, fileName))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStore, err) //nolint:errorlint // prevent err in api
	}
	defer file.Close()

	if _, err = io.Copy(file, bytes.NewReader(b)); err != nil {
		return fmt.Errorf("%w: %v", ErrStore, err) //nolint:errorlint // prevent err in api
	}

	return nil
}

func (s *JSONStore) Load(fileName string, data any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(filepath.Join(s.dir, fileName))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrLoad, err)
	}
	defer f.Close()

	if err = json.NewDecoder(f).Decode(data); err != nil {
		return fmt.Errorf("%w: %v", ErrLoad, err) //nolint:errorlint // prevent err in api
	}

	return nil
}
