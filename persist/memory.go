package persist

import (
	"context"
	"errors"
	"fmt"
	"os"
	"reflect"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrSaveFailed    = errors.New("save failed")
	ErrAlreadyExists = errors.New("exists already")
)

// id is the primary key of a persisted entity.
type id interface {
	~string |
		~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64
}

// NewMemory returns an in memory Persister for the entity E.
// It is expected that E has a field called `ID`, that is used as the primary key and can
// be overwritten by WithIDField. E can be a struct or a pointer to a struct.
//
// If a Store is given, all existing entities are loaded from it.
func NewMemory[E any, ID id](opts ...Option) (*Memory[E, ID], error) {
	repo := &Memory[E, ID]{
		mu:     sync.Mutex{},
		data:   map[ID]E{},
		order:  []ID{},
		lastID: 0,
		config: config{
			idFieldName: "ID",
			store:       noopStore{},
			filename:    defaultFileName[E](),
			table:       "",
		},
	}

	for _, opt := range opts {
		opt(&repo.config)
	}

	entities := []E{}

	err := repo.store.Load(repo.filename, &entities)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("could not load entities from store: %w", err)
	}

	for _, e := range entities {
		id, err := repo.getID(e)
		if err != nil {
			return nil, fmt.Errorf("could not load entities from store: %w", err)
		}

		repo.put(id, e)
	}

	return repo, nil
}

// Memory keeps the entities a factory stores, in the order they are persisted.
// Use it in unit tests, to assert on what got stored.
type Memory[E any, ID id] struct {
	mu    sync.Mutex
	data  map[ID]E
	order []ID

	// lastID is the highest integer ID seen, used by NextID.
	lastID int64

	config
}

func defaultFileName[E any]() string {
	typ := reflect.TypeFor[E]()
	for typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
	}

	return strings.ToLower(typ.Name()) + ".json"
}

func (repo *Memory[E, ID]) getID(entity E) (ID, error) { //nolint:ireturn // valid use of generics
	val := reflect.Indirect(reflect.ValueOf(entity))
	if !val.IsValid() || val.Kind() != reflect.Struct {
		return *new(ID), fmt.Errorf("%w: entity has to be a struct, got: %T", ErrSaveFailed, entity)
	}

	idField := val.FieldByName(repo.idFieldName)
	if !idField.IsValid() {
		return *new(ID), fmt.Errorf("%w: entity does not have the field with name: %s", ErrSaveFailed, repo.idFieldName)
	}

	var id ID

	target := reflect.ValueOf(&id).Elem()

	switch {
	case idField.Kind() == reflect.String && target.Kind() == reflect.String:
		target.SetString(idField.String())
	case idField.CanInt() && target.CanInt():
		target.SetInt(idField.Int())
	case idField.CanUint() && target.CanUint():
		target.SetUint(idField.Uint())
	default:
		return *new(ID), fmt.Errorf("%w: field %s of type %s does not match the ID type %T",
			ErrSaveFailed, repo.idFieldName, idField.Type(), id)
	}

	if id == *new(ID) {
		return *new(ID), fmt.Errorf("%w: missing ID", ErrSaveFailed)
	}

	return id, nil
}

// put adds or replaces entity. Callers hold the lock.
func (repo *Memory[E, ID]) put(id ID, entity E) {
	if _, exists := repo.data[id]; !exists {
		repo.order = append(repo.order, id)
	}

	repo.data[id] = entity

	val := reflect.ValueOf(id)
	if val.CanInt() && val.Int() > repo.lastID {
		repo.lastID = val.Int()
	}

	if val.CanUint() && int64(val.Uint()) > repo.lastID { //nolint:gosec // ids are far below the overflow
		repo.lastID = int64(val.Uint()) //nolint:gosec // ids are far below the overflow
	}
}

func (repo *Memory[E, ID]) remove(id ID) {
	delete(repo.data, id)
	repo.order = slices.DeleteFunc(repo.order, func(i ID) bool { return i == id })
}

// NextID returns a new ID. For a string ID it is a random UUID,
// for an integer ID it is one higher than any ID seen before.
func (repo *Memory[E, ID]) NextID(_ context.Context) (ID, error) { //nolint:ireturn // valid use of generics
	var id ID

	target := reflect.ValueOf(&id).Elem()

	switch {
	case target.Kind() == reflect.String:
		target.SetString(uuid.New().String())
	case target.CanInt():
		repo.mu.Lock()
		defer repo.mu.Unlock()

		repo.lastID++
		target.SetInt(repo.lastID)
	case target.CanUint():
		repo.mu.Lock()
		defer repo.mu.Unlock()

		repo.lastID++
		target.SetUint(uint64(repo.lastID)) //nolint:gosec // lastID is never negative
	}

	return id, nil
}

// Persist adds a new entity, it implements factory.Persister.
// It fails if the entity has no ID or an entity with the same ID exists already.
func (repo *Memory[E, ID]) Persist(_ context.Context, entity E) error {
	id, err := repo.getID(entity)
	if err != nil {
		return err
	}

	repo.mu.Lock()
	defer repo.mu.Unlock()

	if _, found := repo.data[id]; found {
		return fmt.Errorf("%w: %v", ErrAlreadyExists, id)
	}

	repo.put(id, entity)

	if err := repo.write(); err != nil {
		repo.remove(id)

		return err
	}

	return nil
}

// Save adds or replaces the entity.
func (repo *Memory[E, ID]) Save(_ context.Context, entity E) error {
	id, err := repo.getID(entity)
	if err != nil {
		return err
	}

	repo.mu.Lock()
	defer repo.mu.Unlock()

	old, existed := repo.data[id]
	repo.put(id, entity)

	if err := repo.write(); err != nil {
		if existed {
			repo.data[id] = old
		} else {
			repo.remove(id)
		}

		return err
	}

	return nil
}

func (repo *Memory[E, ID]) FindByID(_ context.Context, id ID) (E, error) { //nolint:ireturn // valid use of generics
	repo.mu.Lock()
	defer repo.mu.Unlock()

	entity, found := repo.data[id]
	if !found {
		return *new(E), fmt.Errorf("%w: %v", ErrNotFound, id)
	}

	return entity, nil
}

// All returns all entities in the order they were persisted.
func (repo *Memory[E, ID]) All(_ context.Context) ([]E, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	return repo.all(), nil
}

func (repo *Memory[E, ID]) all() []E {
	entities := make([]E, 0, len(repo.order))
	for _, id := range repo.order {
		entities = append(entities, repo.data[id])
	}

	return entities
}

func (repo *Memory[E, ID]) Count(_ context.Context) (int, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	return len(repo.data), nil
}

// Clear removes all entities.
func (repo *Memory[E, ID]) Clear(_ context.Context) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	repo.data = map[ID]E{}
	repo.order = []ID{}

	return repo.write()
}

func (repo *Memory[E, ID]) write() error {
	if err := repo.store.Store(repo.filename, repo.all()); err != nil {
		return fmt.Errorf("%w: %w", ErrSaveFailed, err)
	}

	return nil
}
