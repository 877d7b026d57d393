package cli

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/go-arrower/factory"
	"github.com/go-arrower/factory/fixtures"
)

func newFixtureCmd(vip *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fixture <name>",
		Short: "Print the attributes of a factory as a fixture file",
		Long: `Print the attributes of the factory <name> as a go-testfixtures file.
The keys become snake_case columns of the table, which defaults to the plural of <name>.`,
		Example:               "  factory fixture user --table users --times 10 > testdata/fixtures/users.yaml",
		Args:                  cobra.ExactArgs(1),
		DisableFlagsInUseLine: true,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			return bindFlags(vip, cmd, map[string]string{"times": "times", "seed": "seed"})
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true // arguments are valid, errors from here on are no usage errors

			res, err := buildAttributes(cmd, vip, args[0])
			if err != nil {
				return err
			}

			table, _ := cmd.Flags().GetString("table")
			if table == "" {
				table = factory.SnakeCase(args[0]) + "s"
			}

			return fixtures.Write(cmd.OutOrStdout(), table, fixtures.Rows(res)) //nolint:wrapcheck // error is already descriptive
		},
	}

	addBuildFlags(cmd)
	cmd.Flags().StringP("table", "t", "", "name of the table")

	return cmd
}
