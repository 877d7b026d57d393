package factory_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-arrower/factory"
)

func TestSequence(t *testing.T) {
	t.Parallel()

	t.Run("counts across builds", func(t *testing.T) {
		t.Parallel()

		f := newUserFactory().With(factory.Sequence("Email", "user-%d@example.com"))

		res, err := f.Times(3).Make()
		require.NoError(t, err)

		emails := []string{}
		for _, u := range res.Collection().All() {
			emails = append(emails, u.Email)
		}

		assert.Equal(t, []string{"user-1@example.com", "user-2@example.com", "user-3@example.com"}, emails)

		res, err = f.Times(1).Make()
		require.NoError(t, err)
		assert.Equal(t, "user-4@example.com", res.One().Email)
	})

	t.Run("without verb", func(t *testing.T) {
		t.Parallel()

		res, err := newUserFactory().With(factory.Sequence("Name", "user-")).Make()
		require.NoError(t, err)

		assert.Equal(t, "user-1", res.One().Name)
	})
}

func TestUUID(t *testing.T) {
	t.Parallel()

	res, err := newUserFactory().With(factory.UUID("Label")).Times(2).Make()
	require.NoError(t, err)

	first, second := res.Collection().At(0).Label, res.Collection().At(1).Label

	assert.NoError(t, uuid.Validate(first))
	assert.NotEqual(t, first, second)
}

func TestULID(t *testing.T) {
	t.Parallel()

	res, err := newUserFactory().With(factory.ULID("Label")).Make()
	require.NoError(t, err)

	_, err = ulid.Parse(res.One().Label)
	assert.NoError(t, err)
}

func TestFake(t *testing.T) {
	t.Parallel()

	res, err := newUserFactory().With(factory.Fake("Label", "{firstname}-{lastname}")).Make()
	require.NoError(t, err)

	assert.Contains(t, res.One().Label, "-")
	assert.NotContains(t, res.One().Label, "{")
}
