package app

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"yieldwatch/internal/pools"
)

// Pools fetches the current pool universe once and prints the ranked
// snapshot.
func (a *App) Pools(ctx context.Context) error {
	pipeline := a.newPipeline()

	snapshot, err := pipeline.Refresh(ctx)
	if err != nil {
		return err
	}
	if len(snapshot.Pools) == 0 {
		fmt.Fprintln(os.Stdout, "no pools matched the filter")
		return nil
	}

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "#\tProtocol\tChain\tSymbol\tAPY\tTVL\tLink")

	for i, pool := range snapshot.Pools {
		fmt.Fprintf(
			writer,
			"%d\t%s\t%s %s\t%s\t%s\t%s\t%s\n",
			i+1,
			pools.DisplayName(pool.Pool),
			pool.ChainIcon,
			pool.Chain,
			pool.Symbol,
			pools.FormatAPY(pool.APY),
			pools.FormatTVL(pool.TVLUsd),
			pool.ProtocolURL,
		)
	}
	writer.Flush()

	fmt.Fprintf(os.Stdout, "\nfetched at %s", snapshot.FetchedAt.UTC().Format(time.RFC3339))
	if snapshot.Stale {
		fmt.Fprint(os.Stdout, " (stale)")
	}
	fmt.Fprintln(os.Stdout)
	return nil
}
