package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"reflect"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"

	"github.com/go-arrower/factory"
	"github.com/go-arrower/factory/alog"
	"github.com/go-arrower/factory/definition"
)

var errConfigLoadFailed = errors.New("loading configuration failed")

// Config is the configuration of the cli. It is intended to be mapped by viper.
type Config struct {
	Definitions []string `mapstructure:"definitions" validate:"required,min=1,dive,required"`
	Locale      string   `mapstructure:"locale"      validate:"required"`
	Seed        int64    `mapstructure:"seed"`
	Times       int      `mapstructure:"times"       validate:"min=1"`
	LogLevel    LogLevel `mapstructure:"log_level"`
}

type LogLevel string

const (
	LogOff   LogLevel = "off"
	LogInfo  LogLevel = "info"
	LogDebug LogLevel = "debug"
)

// LogLevels is the list of all supported log levels.
func LogLevels() []LogLevel {
	return []LogLevel{LogOff, LogInfo, LogDebug}
}

// DefaultViper returns a new viper instance with all default values of Config set.
// Each value can be overwritten by the config file factory.yaml
// or an environment variable with the prefix FACTORY_, e.g. FACTORY_LOG_LEVEL=debug.
func DefaultViper() *viper.Viper {
	vip := viper.New()

	vip.SetDefault("definitions", []string{"factories.yaml"})
	vip.SetDefault("locale", factory.DefaultLocale)
	vip.SetDefault("seed", 0)
	vip.SetDefault("times", 1)
	vip.SetDefault("log_level", string(LogOff))

	vip.SetConfigName("factory")
	vip.SetConfigType("yaml")
	vip.AddConfigPath(".")

	vip.SetEnvPrefix("FACTORY")
	vip.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	vip.AutomaticEnv()

	return vip
}

// LoadConfig reads the config file, if one exists, and returns the validated Config.
func LoadConfig(vip *viper.Viper) (Config, error) {
	if err := vip.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("%w: %v", errConfigLoadFailed, err) //nolint:errorlint // prevent err in api
		}
	}

	var conf Config

	err := vip.Unmarshal(&conf, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToSliceHookFunc(","),
		allowedLogLevelHookFunc(),
	)))
	if err != nil {
		return Config{}, fmt.Errorf("%w: could not decode configuration into struct: %v", errConfigLoadFailed, err) //nolint:errorlint,lll // prevent err in api
	}

	if err := validator.New().Struct(conf); err != nil {
		return Config{}, fmt.Errorf("%w: %v", errConfigLoadFailed, err) //nolint:errorlint // prevent err in api
	}

	return conf, nil
}

// Registry loads all definition files into a new Registry.
func (c Config) Registry() (*factory.Registry, error) {
	reg := factory.NewRegistry()

	for _, path := range c.Definitions {
		defs, err := definition.LoadFile(path)
		if err != nil {
			return nil, fmt.Errorf("could not load %s: %w", path, err)
		}

		if err := defs.Register(reg); err != nil {
			return nil, err //nolint:wrapcheck // already wrapped by definition
		}
	}

	return reg, nil
}

// Logger returns the logger for the configured level, writing text to w.
func (c Config) Logger(w io.Writer) *slog.Logger {
	switch c.LogLevel {
	case LogInfo:
		return alog.New(
			alog.WithLevel(alog.LevelInfo),
			alog.WithHandler(slog.NewTextHandler(w, &slog.HandlerOptions{Level: alog.LevelDebug, ReplaceAttr: alog.NameLogLevels})),
		)
	case LogDebug:
		return alog.New(
			alog.WithLevel(alog.LevelDebug),
			alog.WithHandler(slog.NewTextHandler(w, &slog.HandlerOptions{Level: alog.LevelDebug, ReplaceAttr: alog.NameLogLevels})),
		)
	case LogOff:
	}

	return alog.NewNoop()
}

func allowedLogLevelHookFunc() mapstructure.DecodeHookFuncType {
	return func(_ reflect.Type, t reflect.Type, data any) (any, error) {
		if t != reflect.TypeOf(LogLevel("")) {
			return data, nil
		}

		str, ok := data.(string)
		if !ok {
			return data, nil
		}

		levels := LogLevels()
		if slices.Contains(levels, LogLevel(strings.ToLower(str))) {
			return strings.ToLower(str), nil
		}

		l := make([]string, 0, len(levels))
		for _, level := range levels {
			l = append(l, string(level))
		}

		return data, fmt.Errorf("value is not allowed, use one of: %s", strings.Join(l, ", ")) //nolint:err113 // accept dynamic error
	}
}
