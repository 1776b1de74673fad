package bridge

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type stubProvider struct {
	name  string
	quote Quote
	err   error
	delay time.Duration
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) Quote(ctx context.Context, req Request) (Quote, error) {
	if s.delay > 0 {
		select {
		case <-ctx.Done():
			return Quote{}, ctx.Err()
		case <-time.After(s.delay):
		}
	}
	if s.err != nil {
		return Quote{}, s.err
	}
	return s.quote, nil
}

func usdc(amount string) decimal.Decimal {
	d, _ := decimal.NewFromString(amount)
	return d
}

func testRequest() Request {
	return Request{FromChain: "ethereum", ToChain: "arbitrum", Token: "USDC", Amount: usdc("1000"), Slippage: 0.03}
}

func newTestAggregator(providers ...Provider) *Aggregator {
	return NewAggregator(providers, time.Second, zerolog.Nop())
}

func TestFetchQuotesSurvivesProviderFailure(t *testing.T) {
	failing := &stubProvider{name: "A", err: errors.New("boom")}
	working := &stubProvider{name: "B", quote: Quote{Provider: "B", AmountOut: usdc("998.50")}}

	quotes := newTestAggregator(failing, working).FetchQuotes(context.Background(), testRequest())
	if len(quotes) != 1 {
		t.Fatalf("expected exactly the surviving quote, got %d", len(quotes))
	}
	if quotes[0].Provider != "B" {
		t.Fatalf("unexpected provider %q", quotes[0].Provider)
	}
}

func TestFetchQuotesAllProvidersFailed(t *testing.T) {
	a := &stubProvider{name: "A", err: errors.New("boom")}
	b := &stubProvider{name: "B", err: errors.New("bust")}

	quotes := newTestAggregator(a, b).FetchQuotes(context.Background(), testRequest())
	if quotes == nil {
		t.Fatal("no-route outcome must be an empty list, not nil")
	}
	if len(quotes) != 0 {
		t.Fatalf("expected empty result, got %d quotes", len(quotes))
	}
}

func TestFetchQuotesRanksByOutputDescending(t *testing.T) {
	a := &stubProvider{name: "A", quote: Quote{Provider: "A", AmountOut: usdc("995")}}
	b := &stubProvider{name: "B", quote: Quote{Provider: "B", AmountOut: usdc("998")}}
	c := &stubProvider{name: "C", quote: Quote{Provider: "C", AmountOut: usdc("990")}}

	quotes := newTestAggregator(a, b, c).FetchQuotes(context.Background(), testRequest())
	if len(quotes) != 3 {
		t.Fatalf("expected 3 quotes, got %d", len(quotes))
	}
	for i, want := range []string{"B", "A", "C"} {
		if quotes[i].Provider != want {
			t.Fatalf("rank %d: expected %s, got %s", i, want, quotes[i].Provider)
		}
	}
}

func TestFetchQuotesTimeoutIsolatesSlowProvider(t *testing.T) {
	slow := &stubProvider{name: "slow", delay: 5 * time.Second, quote: Quote{Provider: "slow"}}
	fast := &stubProvider{name: "fast", quote: Quote{Provider: "fast", AmountOut: usdc("997")}}

	agg := NewAggregator([]Provider{slow, fast}, 50*time.Millisecond, zerolog.Nop())
	quotes := agg.FetchQuotes(context.Background(), testRequest())
	if len(quotes) != 1 || quotes[0].Provider != "fast" {
		t.Fatalf("slow provider should time out without blocking the rest: %+v", quotes)
	}
}

func TestSelectors(t *testing.T) {
	quotes := []Quote{
		{Provider: "A", AmountOut: usdc("998"), Fee: usdc("2"), Duration: 10 * time.Minute},
		{Provider: "B", AmountOut: usdc("995"), Fee: usdc("5"), Duration: 1 * time.Minute},
		{Provider: "C", AmountOut: usdc("990"), Fee: usdc("1"), Duration: 4 * time.Minute},
	}

	if best, ok := Best(quotes); !ok || best.Provider != "A" {
		t.Fatalf("Best = %+v", best)
	}
	if fastest, ok := Fastest(quotes); !ok || fastest.Provider != "B" {
		t.Fatalf("Fastest = %+v", fastest)
	}
	if cheapest, ok := Cheapest(quotes); !ok || cheapest.Provider != "C" {
		t.Fatalf("Cheapest = %+v", cheapest)
	}

	if _, ok := Best(nil); ok {
		t.Fatal("selectors over an empty list must report not-found")
	}
}

func TestResolveRejectsUnsupportedRoutes(t *testing.T) {
	cases := []Request{
		{FromChain: "nearchain", ToChain: "arbitrum", Token: "USDC", Amount: usdc("10")},
		{FromChain: "ethereum", ToChain: "madeup", Token: "USDC", Amount: usdc("10")},
		{FromChain: "ethereum", ToChain: "arbitrum", Token: "DOGE", Amount: usdc("10")},
		{FromChain: "ethereum", ToChain: "arbitrum", Token: "USDC", Amount: decimal.Zero},
	}
	for i, req := range cases {
		if _, err := req.resolve(); err == nil {
			t.Fatalf("case %d should fail to resolve", i)
		}
	}
}

func TestResolveAtomicAmount(t *testing.T) {
	rt, err := testRequest().resolve()
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if rt.AmountAtoms != "1000000000" {
		t.Fatalf("1000 USDC should scale to 1000000000 atoms, got %s", rt.AmountAtoms)
	}
	if rt.FromChainID != 1 || rt.ToChainID != 42161 {
		t.Fatalf("unexpected chain ids: %+v", rt)
	}
}

func TestNormalizeOutputSanityBound(t *testing.T) {
	input := usdc("1000")

	// 2,000,000 output for a 1,000 input is a decimal error.
	if _, err := normalizeOutput("2000000000000", input); err == nil {
		t.Fatal("implausible output must be rejected")
	}

	out, err := normalizeOutput("998500000", input)
	if err != nil {
		t.Fatalf("plausible output rejected: %v", err)
	}
	if !out.Equal(usdc("998.5")) {
		t.Fatalf("unexpected normalized output %s", out)
	}
}

func TestImpliedFeeFloorsAtZero(t *testing.T) {
	if fee := impliedFee(usdc("1000"), usdc("1002")); !fee.IsZero() {
		t.Fatalf("negative fee should floor at zero, got %s", fee)
	}
	if fee := impliedFee(usdc("1000"), usdc("997.25")); !fee.Equal(usdc("2.75")) {
		t.Fatalf("unexpected fee %s", fee)
	}
}
