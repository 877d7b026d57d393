package persist_test

import (
	"context"
	"errors"

	"github.com/go-arrower/factory"
)

var (
	ctx = context.Background()

	errStoreFailed = errors.New("store failed")
)

type (
	userID string

	user struct {
		ID    userID
		Name  string
		Email string
	}

	item struct {
		Number int
		Label  string
	}
)

func userDefaults(fake *factory.Generator) factory.Attributes {
	return factory.Attributes{
		"ID":    userID(fake.UUID()),
		"Name":  fake.Name(),
		"Email": fake.Email(),
	}
}

// failingStore fails on every call.
type failingStore struct{}

func (failingStore) Store(_ string, _ any) error { return errStoreFailed }
func (failingStore) Load(_ string, _ any) error  { return errStoreFailed }

// storeFailsOnWrite loads nothing, but fails on every write.
type storeFailsOnWrite struct{}

func (storeFailsOnWrite) Store(_ string, _ any) error { return errStoreFailed }
func (storeFailsOnWrite) Load(_ string, _ any) error  { return nil }
