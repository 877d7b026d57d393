package factory_test

import (
	"context"
	"errors"
	"sync"

	"github.com/go-arrower/factory"
)

var (
	ctx = context.Background()

	errPersistFailed = errors.New("persist failed")
)

type (
	user struct {
		ID        int
		Name      string
		Email     string
		Label     string
		CreatedBy string `factory:"author"`
		role      string
	}

	// userFactory is a concrete factory, the way users of the package define their own.
	userFactory struct {
		*factory.Factory[*user]

		fillable []string
		saved    []*user
		mu       sync.Mutex
	}
)

func newUserFactory(opts ...factory.Option) *userFactory {
	f := &userFactory{fillable: []string{"*"}}
	f.Factory = factory.New[*user](f, opts...)

	return f
}

func (f *userFactory) Defaults(fake *factory.Generator) factory.Attributes {
	return factory.Attributes{
		"ID":    fake.Number(1, 1_000_000),
		"Name":  fake.Name(),
		"Email": fake.Email(),
	}
}

func (f *userFactory) Fillable() []string {
	return f.fillable
}

func (f *userFactory) Admin() *userFactory {
	f.MustAddRecipe(factory.Attributes{"role": "admin"})

	return f
}

func (f *userFactory) Persist(_ context.Context, u *user) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.saved = append(f.saved, u)

	return nil
}

// item has no factory of its own, it is built from a factory.DefaultsFunc.
type item struct {
	ID    int
	Label string
}

// guarded sets its fields via the FieldSetter capability instead of reflection.
type guarded struct {
	name  string
	calls []string
}

func (g *guarded) SetFactoryField(key string, value any) error {
	g.calls = append(g.calls, key)

	if key != "name" {
		return factory.ErrUnknownField
	}

	g.name, _ = value.(string)

	return nil
}

// userCollection is a custom collection, as a Collector would return it.
type userCollection struct {
	factory.Slice[*user]
}
