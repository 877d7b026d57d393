// Package cli implements the factory command line tool.
// It builds attributes and fixture files from the factories of YAML definition files.
package cli

import (
	"log"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newRootCmd(vip *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "factory",
		Short: "Factory builds test data from your factory definitions.",
		Long: `Factory loads declarative factory definitions from YAML files,
and prints their attributes as JSON or as go-testfixtures files.

Configure it via flags, a factory.yaml file in the working directory,
or environment variables prefixed with FACTORY_.`,
		Args:                  cobra.NoArgs,
		DisableFlagsInUseLine: true,
		Run: func(cmd *cobra.Command, _ []string) {
			_ = cmd.Help()
		},
	}

	cmd.PersistentFlags().String("config", "", "config file (default is ./factory.yaml)")
	cmd.PersistentFlags().StringSliceP("definitions", "d", nil, "definition files to load")
	cmd.PersistentFlags().String("log-level", "", "log the factory steps: off, info, or debug")

	_ = vip.BindPFlag("definitions", cmd.PersistentFlags().Lookup("definitions"))
	_ = vip.BindPFlag("log_level", cmd.PersistentFlags().Lookup("log-level"))

	cmd.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		if file, _ := cmd.Flags().GetString("config"); file != "" {
			vip.SetConfigFile(file)
		}

		return nil
	}

	return cmd
}

// NewFactoryCLI initialises the complete factory cli with its commands and returns the root command.
// If vip is nil, DefaultViper is used.
func NewFactoryCLI(vip *viper.Viper) *cobra.Command {
	if vip == nil {
		vip = DefaultViper()
	}

	rootCmd := newRootCmd(vip)
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newListCmd(vip))
	rootCmd.AddCommand(newAttributesCmd(vip))
	rootCmd.AddCommand(newFixtureCmd(vip))

	return rootCmd
}

// Execute runs the factory cli.
func Execute() {
	if err := NewFactoryCLI(nil).Execute(); err != nil {
		log.Println(err)
		os.Exit(1)
	}
}

// bindFlags binds the flags of a single command to vip.
// It is called on execution, so commands sharing a key do not overwrite each other's binding.
func bindFlags(vip *viper.Viper, cmd *cobra.Command, keys map[string]string) error {
	for flag, key := range keys {
		if err := vip.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
			return err //nolint:wrapcheck // flag names are static
		}
	}

	return nil
}
