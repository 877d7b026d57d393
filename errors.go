package factory

import "errors"

var (
	// ErrOutOfRange is returned if the multiplicity of a factory is not a positive number.
	ErrOutOfRange = errors.New("out of range")

	// ErrInvalidRecipe is returned if a Recipe is created from something
	// that is neither a static attribute mapping nor a Rule.
	ErrInvalidRecipe = errors.New("invalid recipe")

	// ErrInvalidAttribute is returned if a resolved attribute is not fillable.
	ErrInvalidAttribute = errors.New("invalid attribute")

	// ErrLogic signals a misconfigured factory, e.g. calling Store without a way to persist.
	ErrLogic = errors.New("logic error")

	// ErrUnknownField is returned if an attribute has no matching field on the entity.
	ErrUnknownField = errors.New("unknown field")

	// ErrFieldType is returned if an attribute value cannot be assigned to the entity's field.
	ErrFieldType = errors.New("field type mismatch")

	// ErrInvalidLocale is returned if a locale is neither in BCP 47 nor in POSIX format.
	ErrInvalidLocale = errors.New("invalid locale")

	// ErrInvalidName is returned if a Blueprint is registered under an empty name.
	ErrInvalidName = errors.New("invalid factory name")

	// ErrAlreadyDefined is returned if a name is registered twice.
	ErrAlreadyDefined = errors.New("factory already defined")

	// ErrNotDefined is returned if no Blueprint is registered under a name.
	ErrNotDefined = errors.New("factory not defined")

	// ErrBuildType is returned if the Build func of a Blueprint returns a value not of the factory's type.
	ErrBuildType = errors.New("builder returned wrong type")
)
