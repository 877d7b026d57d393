package cli

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newListCmd(vip *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:                   "list",
		Short:                 "List all defined factories",
		Args:                  cobra.NoArgs,
		DisableFlagsInUseLine: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true // arguments are valid, errors from here on are no usage errors

			conf, err := LoadConfig(vip)
			if err != nil {
				return err
			}

			reg, err := conf.Registry()
			if err != nil {
				return err
			}

			name := color.New(color.FgBlue, color.Bold).FprintFunc()
			faint := color.New(color.Faint).FprintfFunc()
			w := cmd.OutOrStdout()

			for _, n := range reg.Names() {
				name(w, n)

				bp, _ := reg.Lookup(n)
				if len(bp.Fillable) > 0 {
					faint(w, "  fillable: %s", strings.Join(bp.Fillable, ", "))
				}

				fmt.Fprintln(w)
			}

			return nil
		},
	}
}
