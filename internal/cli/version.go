package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ramonehamilton/booster-companion/internal/version"
)

func (a *app) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(a.out, "booster-companion %s\n", version.String())
			return nil
		},
	}
}
