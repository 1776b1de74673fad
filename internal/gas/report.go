package gas

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"yieldwatch/internal/cache"
)

// ChainGas is the report entry for one chain.
type ChainGas struct {
	Gwei       *decimal.Decimal `json:"gwei,omitempty"`
	USDPerSwap string           `json:"usdPerSwap"`
	Status     Status           `json:"status"`
}

// Report is a timestamped gas snapshot across all chains.
type Report struct {
	Timestamp time.Time           `json:"timestamp"`
	Chains    map[string]ChainGas `json:"chains"`
}

// ServiceOptions tune the gas report service.
type ServiceOptions struct {
	LiveChains  []ChainSpec
	FixedChains []FixedChain
	CacheTTL    time.Duration
	RPCTimeout  time.Duration
}

// Service assembles gas reports and caches the latest one.
type Service struct {
	opts    ServiceOptions
	fetcher *Fetcher
	report  *cache.Cache[Report]
	logger  zerolog.Logger
}

// NewService constructs the gas report service with default chain specs
// unless overridden.
func NewService(opts ServiceOptions, logger zerolog.Logger) *Service {
	if opts.LiveChains == nil {
		opts.LiveChains = []ChainSpec{EthereumSpec(), BSCSpec()}
	}
	if opts.FixedChains == nil {
		opts.FixedChains = FixedChains()
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 5 * time.Minute
	}
	logger = logger.With().Str("component", "gas_service").Logger()

	return &Service{
		opts:    opts,
		fetcher: NewFetcher(opts.RPCTimeout, logger),
		report:  cache.New[Report](opts.CacheTTL),
		logger:  logger,
	}
}

// Refresh fetches all live chains concurrently and assembles a full
// report. Fallback constants mean this never fails; it only degrades.
func (s *Service) Refresh(ctx context.Context) Report {
	type liveResult struct {
		spec ChainSpec
		gwei decimal.Decimal
	}
	results := make([]liveResult, len(s.opts.LiveChains))

	g, gctx := errgroup.WithContext(ctx)
	for i, spec := range s.opts.LiveChains {
		g.Go(func() error {
			results[i] = liveResult{spec: spec, gwei: s.fetcher.FetchGasPrice(gctx, spec)}
			return nil
		})
	}
	_ = g.Wait()

	chains := make(map[string]ChainGas, len(results)+len(s.opts.FixedChains))
	for _, res := range results {
		gwei := res.gwei
		chains[res.spec.Name] = ChainGas{
			Gwei:       &gwei,
			USDPerSwap: SwapCostUSD(gwei, res.spec.TokenPriceUSD).StringFixed(2),
			Status:     Classify(gwei, res.spec),
		}
	}
	for _, fixed := range s.opts.FixedChains {
		chains[fixed.Name] = ChainGas{USDPerSwap: fixed.USDPerSwap, Status: StatusLow}
	}

	report := Report{Timestamp: time.Now().UTC(), Chains: chains}
	s.report.Set(report)

	s.logger.Info().Int("chains", len(chains)).Msg("gas report refreshed")
	return report
}

// Current returns the cached report, refreshing when missing or
// expired.
func (s *Service) Current(ctx context.Context) Report {
	if report, fresh, err := s.report.Get(); err == nil && fresh {
		return report
	}
	return s.Refresh(ctx)
}
