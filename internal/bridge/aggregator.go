package bridge

import (
	"context"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Aggregator fans one transfer request out to every configured provider
// and ranks the surviving quotes.
type Aggregator struct {
	providers []Provider
	timeout   time.Duration
	logger    zerolog.Logger
}

// NewAggregator constructs an aggregator over the given providers.
func NewAggregator(providers []Provider, timeout time.Duration, logger zerolog.Logger) *Aggregator {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Aggregator{
		providers: providers,
		timeout:   timeout,
		logger:    logger.With().Str("component", "quote_aggregator").Logger(),
	}
}

// FetchQuotes queries all providers concurrently and returns the
// surviving quotes sorted by output amount descending. A provider
// failure, timeout, or rejected quote never fails the aggregation; all
// providers failing yields an empty list, which is the valid "no route
// found" outcome rather than an error.
func (a *Aggregator) FetchQuotes(ctx context.Context, req Request) []Quote {
	results := make([]*Quote, len(a.providers))

	g, gctx := errgroup.WithContext(ctx)
	for i, p := range a.providers {
		g.Go(func() error {
			pctx, cancel := context.WithTimeout(gctx, a.timeout)
			defer cancel()

			quote, err := p.Quote(pctx, req)
			if err != nil {
				a.logger.Warn().Err(err).Str("provider", p.Name()).Msg("provider quote discarded")
				return nil
			}
			results[i] = &quote
			return nil
		})
	}
	_ = g.Wait()

	quotes := make([]Quote, 0, len(results))
	for _, q := range results {
		if q != nil {
			quotes = append(quotes, *q)
		}
	}

	sort.SliceStable(quotes, func(i, j int) bool {
		return quotes[i].AmountOut.GreaterThan(quotes[j].AmountOut)
	})

	a.logger.Info().
		Int("providers", len(a.providers)).
		Int("quotes", len(quotes)).
		Str("from", req.FromChain).
		Str("to", req.ToChain).
		Msg("quote aggregation complete")
	return quotes
}

// Best returns the highest-output quote, or false when no route was
// found. Quotes from FetchQuotes are already ranked.
func Best(quotes []Quote) (Quote, bool) {
	if len(quotes) == 0 {
		return Quote{}, false
	}
	return quotes[0], true
}

// Fastest returns the quote with the shortest estimated duration.
func Fastest(quotes []Quote) (Quote, bool) {
	if len(quotes) == 0 {
		return Quote{}, false
	}
	best := quotes[0]
	for _, q := range quotes[1:] {
		if q.Duration < best.Duration {
			best = q
		}
	}
	return best, true
}

// Cheapest returns the quote with the lowest implied fee.
func Cheapest(quotes []Quote) (Quote, bool) {
	if len(quotes) == 0 {
		return Quote{}, false
	}
	best := quotes[0]
	for _, q := range quotes[1:] {
		if q.Fee.LessThan(best.Fee) {
			best = q
		}
	}
	return best, true
}
