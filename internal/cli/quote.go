package cli

import (
	"github.com/spf13/cobra"

	"yieldwatch/internal/app"
)

var (
	quoteFromChain string
	quoteToChain   string
	quoteToken     string
	quoteAmount    string
)

var quoteCmd = &cobra.Command{
	Use:   "quote",
	Short: "Compare bridge quotes across providers",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().Quote(cmd.Context(), app.QuoteOptions{
			FromChain: quoteFromChain,
			ToChain:   quoteToChain,
			Token:     quoteToken,
			Amount:    quoteAmount,
		})
	},
}

func init() {
	quoteCmd.Flags().StringVar(&quoteFromChain, "from", "ethereum", "Source chain")
	quoteCmd.Flags().StringVar(&quoteToChain, "to", "arbitrum", "Destination chain")
	quoteCmd.Flags().StringVar(&quoteToken, "token", "USDC", "Token symbol (USDC or USDT)")
	quoteCmd.Flags().StringVar(&quoteAmount, "amount", "1000", "Amount to bridge in token units")
}
