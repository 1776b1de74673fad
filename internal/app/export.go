package app

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	chart "github.com/wcharczuk/go-chart/v2"

	"yieldwatch/internal/pools"
)

// Export fetches the current pool snapshot and renders it as CSV
// and/or a PNG bar chart.
func (a *App) Export(ctx context.Context, opts ExportOptions) error {
	if opts.CSVPath == "" && opts.PNGPath == "" {
		return errors.New("at least one of --csv or --png must be provided")
	}

	snapshot, err := a.newPipeline().Refresh(ctx)
	if err != nil {
		return err
	}
	if len(snapshot.Pools) == 0 {
		a.Logger.Info().Msg("no pools matched the filter; nothing to export")
		return nil
	}

	a.Logger.Info().Int("pools", len(snapshot.Pools)).Msg("exporting pool snapshot")

	if opts.CSVPath != "" {
		if err := writePoolsCSV(opts.CSVPath, snapshot); err != nil {
			return err
		}
	}

	if opts.PNGPath != "" {
		if err := writePoolsPNG(opts.PNGPath, snapshot.Pools); err != nil {
			return err
		}
	}

	return nil
}

func writePoolsCSV(path string, snapshot pools.Snapshot) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{"rank", "pool_id", "protocol", "chain", "symbol", "apy", "tvl_usd", "protocol_url", "fetched_at"}
	if err := writer.Write(header); err != nil {
		return err
	}

	fetchedAt := snapshot.FetchedAt.UTC().Format("2006-01-02T15:04:05Z07:00")
	for i, pool := range snapshot.Pools {
		record := []string{
			fmt.Sprintf("%d", i+1),
			pool.ID,
			pools.DisplayName(pool.Pool),
			pool.Chain,
			pool.Symbol,
			fmt.Sprintf("%.4f", pool.APY),
			fmt.Sprintf("%.0f", pool.TVLUsd),
			pool.ProtocolURL,
			fetchedAt,
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	return writer.Error()
}

func writePoolsPNG(path string, ranked []pools.EnrichedPool) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	bars := make([]chart.Value, 0, len(ranked))
	for _, pool := range ranked {
		bars = append(bars, chart.Value{
			Value: pool.APY,
			Label: pools.DisplayName(pool.Pool),
		})
	}

	graph := chart.BarChart{
		Title:    "Top stablecoin yields (APY %)",
		Width:    1280,
		Height:   720,
		BarWidth: 30,
		XAxis: chart.Style{
			TextRotationDegrees: 45,
		},
		YAxis: chart.YAxis{
			ValueFormatter: func(v interface{}) string {
				return chart.FloatValueFormatterWithFormat(v, "%.1f%%")
			},
		},
		Bars: bars,
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return graph.Render(chart.PNG, file)
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
