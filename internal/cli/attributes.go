package cli

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/go-arrower/factory"
	"github.com/go-arrower/factory/alog"
)

func newAttributesCmd(vip *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "attributes <name>",
		Short: "Print the attributes of a factory as JSON",
		Long: `Print the attributes of the factory <name> as JSON.
With a multiplicity other than one, a list of attributes is printed.`,
		Example:               "  factory attributes user --times 3 --seed 42",
		Args:                  cobra.ExactArgs(1),
		DisableFlagsInUseLine: true,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			return bindFlags(vip, cmd, map[string]string{"times": "times", "seed": "seed", "locale": "locale"})
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true // arguments are valid, errors from here on are no usage errors

			res, err := buildAttributes(cmd, vip, args[0])
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")

			var v any = res.One()
			if res.IsCollection() {
				v = res.Collection()
			}

			if err := enc.Encode(v); err != nil {
				return fmt.Errorf("could not encode attributes: %w", err)
			}

			return nil
		},
	}

	addBuildFlags(cmd)
	cmd.Flags().String("locale", "", "locale of the fake data, e.g. de_DE")

	return cmd
}

func addBuildFlags(cmd *cobra.Command) {
	cmd.Flags().IntP("times", "n", 1, "number of attributes to build")
	cmd.Flags().Int64("seed", 0, "seed of the fake data, 0 is random")
}

// buildAttributes builds the attributes of the factory name, as configured.
func buildAttributes(cmd *cobra.Command, vip *viper.Viper, name string) (factory.Result[factory.Attributes], error) {
	conf, err := LoadConfig(vip)
	if err != nil {
		return factory.Result[factory.Attributes]{}, err
	}

	reg, err := conf.Registry()
	if err != nil {
		return factory.Result[factory.Attributes]{}, err
	}

	logger := conf.Logger(cmd.ErrOrStderr()).With(slog.String("factory", name))
	logger.LogAttrs(cmd.Context(), alog.LevelInfo, "loaded definitions",
		slog.Any("files", conf.Definitions),
		slog.Any("factories", reg.Names()),
	)

	bp, err := reg.Lookup(name)
	if err != nil {
		return factory.Result[factory.Attributes]{}, err //nolint:wrapcheck // error is already descriptive
	}

	f := factory.NewAttributesFactory(bp,
		factory.WithLocale(conf.Locale),
		factory.WithSeed(conf.Seed),
		factory.WithLogger(logger),
	)

	if err := f.SetTimes(conf.Times); err != nil {
		return factory.Result[factory.Attributes]{}, err //nolint:wrapcheck // error is already descriptive
	}

	return f.Attributes() //nolint:wrapcheck // error is already descriptive
}
