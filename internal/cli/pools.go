package cli

import (
	"github.com/spf13/cobra"
)

var poolsCmd = &cobra.Command{
	Use:   "pools",
	Short: "Fetch and print the current top stablecoin pools",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().Pools(cmd.Context())
	},
}
