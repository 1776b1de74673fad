package cli

import (
	"github.com/spf13/cobra"
)

var gasCmd = &cobra.Command{
	Use:   "gas",
	Short: "Fetch and print current gas prices per chain",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().Gas(cmd.Context())
	},
}
