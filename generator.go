package factory

import (
	"fmt"
	"strings"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/text/language"
)

// DefaultLocale is used by every Factory, if not set otherwise via WithLocale.
const DefaultLocale = "en_US"

// Generator produces fake data for recipes.
// It exposes all methods of gofakeit.Faker and the locale it was configured with.
//
// gofakeit has no locale aware data sets, the locale is passed through,
// so rules can adjust values themselves, e.g. for formatting.
type Generator struct {
	*gofakeit.Faker

	locale language.Tag
}

// NewGenerator returns a Generator for the given locale.
// The locale can be given in BCP 47 format "en-US" or in POSIX format "en_US".
// A seed of 0 seeds the generator randomly.
func NewGenerator(locale string, seed int64) (*Generator, error) {
	tag, err := parseLocale(locale)
	if err != nil {
		return nil, err
	}

	return &Generator{
		Faker:  gofakeit.New(seed),
		locale: tag,
	}, nil
}

// Locale returns the locale of the generator.
func (g *Generator) Locale() language.Tag {
	return g.locale
}

func parseLocale(locale string) (language.Tag, error) {
	if strings.TrimSpace(locale) == "" {
		locale = DefaultLocale
	}

	tag, err := language.Parse(strings.ReplaceAll(locale, "_", "-"))
	if err != nil {
		return language.Und, fmt.Errorf("%w: %s: %v", ErrInvalidLocale, locale, err) //nolint:errorlint // prevent err in api
	}

	return tag, nil
}
