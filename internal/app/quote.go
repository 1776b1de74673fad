package app

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"

	"yieldwatch/internal/bridge"
)

// Quote requests quotes from all bridge providers and prints them
// ranked by output amount.
func (a *App) Quote(ctx context.Context, opts QuoteOptions) error {
	amount, err := decimal.NewFromString(opts.Amount)
	if err != nil {
		return fmt.Errorf("invalid amount %q: %w", opts.Amount, err)
	}

	req := bridge.Request{
		FromChain: opts.FromChain,
		ToChain:   opts.ToChain,
		Token:     opts.Token,
		Amount:    amount,
		Slippage:  a.Config.Bridge.Slippage,
	}

	quotes := a.newAggregator().FetchQuotes(ctx, req)
	if len(quotes) == 0 {
		fmt.Fprintln(os.Stdout, "no routes available")
		return nil
	}

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Provider\tBridge\tYou Receive\tFee\tGas\tTime\tLink")

	for _, q := range quotes {
		fmt.Fprintf(
			writer,
			"%s\t%s\t%s %s\t%s\t$%s\t%s\t%s\n",
			q.Provider,
			q.BridgeName,
			q.AmountOut.StringFixed(2),
			opts.Token,
			q.Fee.StringFixed(2),
			q.GasUSD.StringFixed(2),
			q.Duration.Truncate(time.Second).String(),
			q.Link,
		)
	}
	writer.Flush()

	if best, ok := bridge.Best(quotes); ok {
		fmt.Fprintf(os.Stdout, "\nbest output: %s via %s\n", best.Provider, best.BridgeName)
	}
	return nil
}
