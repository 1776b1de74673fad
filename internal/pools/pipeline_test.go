package pools

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type fakeFetcher struct {
	pools []Pool
	err   error
	calls int
}

func (f *fakeFetcher) FetchPools(ctx context.Context) ([]Pool, error) {
	f.calls++
	return f.pools, f.err
}

func newTestPipeline(fetcher *fakeFetcher) *Pipeline {
	return NewPipeline(fetcher, &stubLookup{}, PipelineOptions{CacheTTL: time.Hour}, zerolog.Nop())
}

func TestRefreshFiltersAndEnriches(t *testing.T) {
	fetcher := &fakeFetcher{pools: []Pool{
		stablePool("a", 12, 50_000_000),
		stablePool("b", 3, 20_000_000),
		{ID: "junk", Chain: "Ethereum", Project: "aave", APY: 8, TVLUsd: 50_000_000, Stablecoin: false},
	}}

	snap, err := newTestPipeline(fetcher).Refresh(context.Background())
	if err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	if len(snap.Pools) != 2 {
		t.Fatalf("expected 2 pools, got %d", len(snap.Pools))
	}

	top := snap.Pools[0]
	if top.ID != "a" {
		t.Fatalf("expected highest APY first, got %q", top.ID)
	}
	if top.ChainIcon != "Ξ" || top.APYColor != "#22c55e" {
		t.Fatalf("enrichment missing: %+v", top)
	}
	if top.ProtocolURL != "https://app.aave.com" {
		t.Fatalf("protocol link not resolved: %q", top.ProtocolURL)
	}
	if snap.Stale {
		t.Fatal("fresh snapshot must not be marked stale")
	}
}

func TestRefreshServesFreshCacheWithoutFetch(t *testing.T) {
	fetcher := &fakeFetcher{pools: []Pool{stablePool("a", 12, 50_000_000)}}
	p := newTestPipeline(fetcher)

	if _, err := p.Refresh(context.Background()); err != nil {
		t.Fatalf("first refresh failed: %v", err)
	}
	if _, err := p.Refresh(context.Background()); err != nil {
		t.Fatalf("second refresh failed: %v", err)
	}
	if fetcher.calls != 1 {
		t.Fatalf("fresh cache should not re-fetch, upstream called %d times", fetcher.calls)
	}
}

func TestRefreshServesStaleOnFetchError(t *testing.T) {
	fetcher := &fakeFetcher{pools: []Pool{stablePool("a", 12, 50_000_000)}}
	p := NewPipeline(fetcher, &stubLookup{}, PipelineOptions{CacheTTL: 10 * time.Millisecond}, zerolog.Nop())

	if _, err := p.Refresh(context.Background()); err != nil {
		t.Fatalf("first refresh failed: %v", err)
	}

	// Let the cache expire, then break the upstream.
	time.Sleep(20 * time.Millisecond)
	fetcher.err = errors.New("upstream down")

	snap, err := p.Refresh(context.Background())
	if err != nil {
		t.Fatalf("stale-on-error path should not fail: %v", err)
	}
	if !snap.Stale {
		t.Fatal("degraded snapshot must be marked stale")
	}
	if len(snap.Pools) != 1 || snap.Pools[0].ID != "a" {
		t.Fatalf("stale snapshot should carry the old pools: %+v", snap.Pools)
	}
}

func TestRefreshPropagatesErrorWhenNothingCached(t *testing.T) {
	fetcher := &fakeFetcher{err: errors.New("upstream down")}
	if _, err := newTestPipeline(fetcher).Refresh(context.Background()); err == nil {
		t.Fatal("first fetch failure with an empty cache must propagate")
	}
}

func TestInfoBeforeAndAfterPopulation(t *testing.T) {
	fetcher := &fakeFetcher{pools: []Pool{stablePool("a", 12, 50_000_000)}}
	p := newTestPipeline(fetcher)

	if info := p.Info(); info.Populated {
		t.Fatal("empty cache should report unpopulated")
	}

	if _, err := p.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh failed: %v", err)
	}

	info := p.Info()
	if !info.Populated || info.LastUpdated == nil || info.NextUpdate == nil {
		t.Fatalf("populated cache info incomplete: %+v", info)
	}
	if !info.NextUpdate.Equal(info.LastUpdated.Add(time.Hour)) {
		t.Fatal("next update should be lastUpdated + ttl")
	}
}
