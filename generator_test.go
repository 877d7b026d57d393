package factory_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-arrower/factory"
)

func TestNewGenerator(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		locale   string
		expected string
		err      error
	}{
		"default":       {"", "en-US", nil},
		"posix":         {"en_US", "en-US", nil},
		"bcp 47":        {"de-DE", "de-DE", nil},
		"language only": {"fr", "fr", nil},
		"invalid":       {"not a locale", "", factory.ErrInvalidLocale},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			fake, err := factory.NewGenerator(tt.locale, 0)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.expected, fake.Locale().String())
			assert.NotEmpty(t, fake.Name())
		})
	}
}

func TestNewGenerator_seed(t *testing.T) {
	t.Parallel()

	first, err := factory.NewGenerator("", 7)
	require.NoError(t, err)

	second, err := factory.NewGenerator("", 7)
	require.NoError(t, err)

	assert.Equal(t, first.Email(), second.Email())
	assert.Equal(t, first.Number(0, 1000), second.Number(0, 1000))
}
