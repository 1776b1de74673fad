package app

import (
	"context"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"
	"time"
)

// Gas fetches current gas prices across all tracked chains and prints
// the report.
func (a *App) Gas(ctx context.Context) error {
	report := a.newGasService().Current(ctx)

	names := make([]string, 0, len(report.Chains))
	for name := range report.Chains {
		names = append(names, name)
	}
	sort.Strings(names)

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Chain\tGwei\tSwap Cost\tStatus")

	for _, name := range names {
		chain := report.Chains[name]
		gwei := "-"
		if chain.Gwei != nil {
			gwei = chain.Gwei.StringFixed(3)
		}
		fmt.Fprintf(writer, "%s\t%s\t%s\t%s\n", name, gwei, chain.USDPerSwap, chain.Status)
	}
	writer.Flush()

	fmt.Fprintf(os.Stdout, "\nas of %s\n", report.Timestamp.UTC().Format(time.RFC3339))
	return nil
}
