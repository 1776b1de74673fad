package gas

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// gasPriceServer speaks just enough JSON-RPC to answer eth_gasPrice.
func gasPriceServer(t *testing.T, hexWei string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID     json.RawMessage `json:"id"`
			Method string          `json:"method"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode rpc request: %v", err)
		}
		if req.Method != "eth_gasPrice" {
			t.Fatalf("unexpected method %q", req.Method)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result":  hexWei,
		})
	}))
}

func failingServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
}

func testSpec(endpoints ...string) ChainSpec {
	spec := EthereumSpec()
	spec.Endpoints = endpoints
	return spec
}

func newTestFetcher() *Fetcher {
	return NewFetcher(time.Second, zerolog.Nop())
}

func TestFallbackChainFirstValidWins(t *testing.T) {
	bad1 := failingServer(t)
	defer bad1.Close()
	bad2 := failingServer(t)
	defer bad2.Close()
	// 12.5 gwei = 12,500,000,000 wei.
	good := gasPriceServer(t, "0x2e90edd00")
	defer good.Close()

	gwei := newTestFetcher().FetchGasPrice(context.Background(), testSpec(bad1.URL, bad2.URL, good.URL))
	if !gwei.Equal(decimal.NewFromFloat(12.5)) {
		t.Fatalf("expected 12.5 gwei, got %s", gwei)
	}
}

func TestFallbackChainSkipsRemainingAfterSuccess(t *testing.T) {
	good := gasPriceServer(t, "0x2e90edd00")
	defer good.Close()

	calls := 0
	next := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer next.Close()

	newTestFetcher().FetchGasPrice(context.Background(), testSpec(good.URL, next.URL))
	if calls != 0 {
		t.Fatalf("later endpoints must be skipped after a valid answer, got %d calls", calls)
	}
}

func TestFallbackConstantsWhenAllEndpointsFail(t *testing.T) {
	bad := failingServer(t)
	defer bad.Close()

	eth := EthereumSpec()
	eth.Endpoints = []string{bad.URL}
	if gwei := newTestFetcher().FetchGasPrice(context.Background(), eth); !gwei.Equal(decimal.NewFromInt(18)) {
		t.Fatalf("ethereum fallback should be 18 gwei, got %s", gwei)
	}

	bsc := BSCSpec()
	bsc.Endpoints = []string{bad.URL}
	if gwei := newTestFetcher().FetchGasPrice(context.Background(), bsc); !gwei.Equal(decimal.NewFromInt(3)) {
		t.Fatalf("bsc fallback should be 3 gwei, got %s", gwei)
	}
}

func TestImplausibleValuesRejected(t *testing.T) {
	zero := gasPriceServer(t, "0x0")
	defer zero.Close()
	// 20,000 gwei = 2e13 wei, above the plausibility bound.
	huge := gasPriceServer(t, "0x12309ce54000")
	defer huge.Close()

	gwei := newTestFetcher().FetchGasPrice(context.Background(), testSpec(zero.URL, huge.URL))
	if !gwei.Equal(decimal.NewFromInt(18)) {
		t.Fatalf("implausible answers should fall through to the fallback, got %s", gwei)
	}
}

func TestSwapCostUSD(t *testing.T) {
	// 20 gwei * 150k gas = 0.003 ETH; at $3500 that is $10.50.
	cost := SwapCostUSD(decimal.NewFromInt(20), decimal.NewFromInt(3500))
	if !cost.Equal(decimal.NewFromFloat(10.5)) {
		t.Fatalf("expected $10.50, got %s", cost)
	}
}

func TestClassifyTiers(t *testing.T) {
	eth := EthereumSpec()
	cases := []struct {
		gwei float64
		want Status
	}{
		{12, StatusLow},
		{20, StatusMedium},
		{49.9, StatusMedium},
		{50, StatusHigh},
	}
	for _, tc := range cases {
		if got := Classify(decimal.NewFromFloat(tc.gwei), eth); got != tc.want {
			t.Fatalf("Classify(%v) = %s, want %s", tc.gwei, got, tc.want)
		}
	}

	bsc := BSCSpec()
	if Classify(decimal.NewFromInt(4), bsc) != StatusLow || Classify(decimal.NewFromInt(7), bsc) != StatusMedium || Classify(decimal.NewFromInt(11), bsc) != StatusHigh {
		t.Fatal("bsc tier thresholds are 5 and 10 gwei")
	}
}

func TestRefreshAssemblesFullReport(t *testing.T) {
	good := gasPriceServer(t, "0x2e90edd00")
	defer good.Close()

	eth := EthereumSpec()
	eth.Endpoints = []string{good.URL}
	bsc := BSCSpec()
	bsc.Endpoints = []string{good.URL}

	svc := NewService(ServiceOptions{
		LiveChains: []ChainSpec{eth, bsc},
		RPCTimeout: time.Second,
	}, zerolog.Nop())

	report := svc.Refresh(context.Background())
	if len(report.Chains) != 7 {
		t.Fatalf("expected 7 chains, got %d", len(report.Chains))
	}

	ethGas := report.Chains["ethereum"]
	if ethGas.Gwei == nil || !ethGas.Gwei.Equal(decimal.NewFromFloat(12.5)) {
		t.Fatalf("unexpected ethereum entry: %+v", ethGas)
	}
	if ethGas.Status != StatusLow {
		t.Fatalf("12.5 gwei on ethereum should classify low, got %s", ethGas.Status)
	}
	// 12.5 gwei * 150k gas * $3500 = $6.56.
	if ethGas.USDPerSwap != "6.56" {
		t.Fatalf("unexpected usd per swap %q", ethGas.USDPerSwap)
	}

	arb := report.Chains["arbitrum"]
	if arb.Gwei != nil || arb.USDPerSwap != "0.10" || arb.Status != StatusLow {
		t.Fatalf("fixed chain entry wrong: %+v", arb)
	}
}

func TestCurrentServesCachedReport(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		var req struct {
			ID json.RawMessage `json:"id"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		_ = json.NewEncoder(w).Encode(map[string]any{"jsonrpc": "2.0", "id": req.ID, "result": "0x2e90edd00"})
	}))
	defer srv.Close()

	eth := EthereumSpec()
	eth.Endpoints = []string{srv.URL}

	svc := NewService(ServiceOptions{
		LiveChains: []ChainSpec{eth},
		CacheTTL:   time.Hour,
		RPCTimeout: time.Second,
	}, zerolog.Nop())

	svc.Current(context.Background())
	svc.Current(context.Background())
	if calls != 1 {
		t.Fatalf("fresh report should be served from cache, upstream called %d times", calls)
	}
}
