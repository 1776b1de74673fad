package pools

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"yieldwatch/internal/cache"
)

// PoolFetcher retrieves the full upstream pool universe.
type PoolFetcher interface {
	FetchPools(ctx context.Context) ([]Pool, error)
}

// Snapshot is the cached, presentation-ready pool list.
type Snapshot struct {
	Pools     []EnrichedPool `json:"pools"`
	FetchedAt time.Time      `json:"fetchedAt"`
	Stale     bool           `json:"stale"`
}

// CacheInfo describes the state of the snapshot cache.
type CacheInfo struct {
	Populated   bool       `json:"populated"`
	LastUpdated *time.Time `json:"lastUpdated,omitempty"`
	NextUpdate  *time.Time `json:"nextUpdate,omitempty"`
	Age         string     `json:"age,omitempty"`
}

// PipelineOptions tune the aggregation pipeline.
type PipelineOptions struct {
	CacheTTL time.Duration
	LinkTTL  time.Duration
}

// Pipeline fetches, filters, enriches, and caches the pool universe.
// Stateless between refreshes apart from the caches it owns.
type Pipeline struct {
	fetcher  PoolFetcher
	resolver *LinkResolver
	snapshot *cache.Cache[Snapshot]
	logger   zerolog.Logger
}

// NewPipeline constructs the pipeline and its caches.
func NewPipeline(fetcher PoolFetcher, lookup ProtocolLookup, opts PipelineOptions, logger zerolog.Logger) *Pipeline {
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = time.Hour
	}
	logger = logger.With().Str("component", "pool_pipeline").Logger()

	return &Pipeline{
		fetcher:  fetcher,
		resolver: NewLinkResolver(lookup, opts.LinkTTL, logger),
		snapshot: cache.New[Snapshot](opts.CacheTTL),
		logger:   logger,
	}
}

// Refresh returns the current snapshot, hitting the upstream feed only
// when the cache is missing or expired. A failed fetch degrades to the
// last snapshot marked stale; with nothing cached the error propagates.
func (p *Pipeline) Refresh(ctx context.Context) (Snapshot, error) {
	if snap, fresh, err := p.snapshot.Get(); err == nil && fresh {
		p.logger.Debug().Int("pools", len(snap.Pools)).Msg("serving cached pools")
		return snap, nil
	}

	raw, err := p.fetcher.FetchPools(ctx)
	if err != nil {
		snap, stale, cacheErr := p.snapshot.GetOrStale()
		if errors.Is(cacheErr, cache.ErrNotPopulated) {
			return Snapshot{}, fmt.Errorf("refresh pools: %w", err)
		}
		p.logger.Warn().Err(err).Msg("pool fetch failed; serving stale snapshot")
		snap.Stale = stale
		return snap, nil
	}

	filtered := Filter(raw)
	enriched := make([]EnrichedPool, 0, len(filtered))
	for _, pool := range filtered {
		enriched = append(enriched, EnrichedPool{
			Pool:        pool,
			ChainIcon:   ChainIcon(pool.Chain),
			APYColor:    APYColor(pool.APY),
			ProtocolURL: p.resolver.Resolve(ctx, pool),
		})
	}

	snap := Snapshot{Pools: enriched, FetchedAt: time.Now().UTC()}
	p.snapshot.Set(snap)

	p.logger.Info().Int("universe", len(raw)).Int("kept", len(enriched)).Msg("pool snapshot refreshed")
	return snap, nil
}

// Current returns the last snapshot without triggering a fetch.
func (p *Pipeline) Current() (Snapshot, error) {
	snap, fresh, err := p.snapshot.Get()
	if err != nil {
		return Snapshot{}, err
	}
	snap.Stale = !fresh
	return snap, nil
}

// Info reports cache freshness for the presentation layer.
func (p *Pipeline) Info() CacheInfo {
	written, ok := p.snapshot.WrittenAt()
	if !ok {
		return CacheInfo{}
	}
	next := written.Add(p.snapshot.TTL())
	age := time.Since(written).Truncate(time.Minute)
	return CacheInfo{
		Populated:   true,
		LastUpdated: &written,
		NextUpdate:  &next,
		Age:         age.String(),
	}
}
