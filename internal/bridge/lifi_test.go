package bridge

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

func newTestLiFi(baseURL string) *LiFi {
	return NewLiFi(LiFiOptions{BaseURL: baseURL, Timeout: time.Second}, zerolog.Nop())
}

func TestLiFiQuoteSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("fromChain") != "1" || q.Get("toChain") != "42161" {
			t.Fatalf("unexpected chain params: %v", q)
		}
		if q.Get("fromAmount") != "1000000000" {
			t.Fatalf("unexpected amount %q", q.Get("fromAmount"))
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"estimate": map[string]any{
				"toAmount":          "998500000",
				"executionDuration": 300,
				"gasCosts":          []map[string]any{{"amountUSD": "1.23"}},
			},
			"toolDetails": map[string]any{"name": "Stargate"},
		})
	}))
	defer srv.Close()

	quote, err := newTestLiFi(srv.URL).Quote(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("quote failed: %v", err)
	}
	if !quote.AmountOut.Equal(usdc("998.5")) {
		t.Fatalf("unexpected output %s", quote.AmountOut)
	}
	if !quote.Fee.Equal(usdc("1.5")) {
		t.Fatalf("unexpected fee %s", quote.Fee)
	}
	if quote.BridgeName != "Stargate" {
		t.Fatalf("bridge name should come from toolDetails, got %q", quote.BridgeName)
	}
	if quote.Duration != 5*time.Minute {
		t.Fatalf("unexpected duration %s", quote.Duration)
	}
	if !quote.GasUSD.Equal(decimal.NewFromFloat(1.23)) {
		t.Fatalf("unexpected gas cost %s", quote.GasUSD)
	}
}

func TestLiFiQuoteRejectsImplausibleOutput(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"estimate": map[string]any{"toAmount": "2000000000000"},
		})
	}))
	defer srv.Close()

	if _, err := newTestLiFi(srv.URL).Quote(context.Background(), testRequest()); err == nil {
		t.Fatal("output 2,000,000 for input 1,000 must be discarded")
	}
}

func TestLiFiQuoteDefaults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"estimate": map[string]any{"toAmount": "998500000"},
		})
	}))
	defer srv.Close()

	quote, err := newTestLiFi(srv.URL).Quote(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("quote failed: %v", err)
	}
	if quote.Duration != 2*time.Minute {
		t.Fatalf("missing duration should default to 120s, got %s", quote.Duration)
	}
	if !quote.GasUSD.Equal(defaultGasUSD) {
		t.Fatalf("missing gas cost should default, got %s", quote.GasUSD)
	}
	if quote.BridgeName != "LI.FI" {
		t.Fatalf("missing tool name should fall back to provider, got %q", quote.BridgeName)
	}
}

func TestLiFiQuoteHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	if _, err := newTestLiFi(srv.URL).Quote(context.Background(), testRequest()); err == nil {
		t.Fatal("HTTP 400 must fail the provider")
	}
}

func TestSocketQuoteSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("API-KEY") != "test-key" {
			t.Fatalf("missing API key header")
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"result": map[string]any{
				"routes": []map[string]any{{
					"toAmount":          "997000000",
					"usedBridgeNames":   []string{"hop"},
					"totalGasFeesInUsd": 2.5,
					"serviceTime":       60,
				}},
			},
		})
	}))
	defer srv.Close()

	s := NewSocket(SocketOptions{BaseURL: srv.URL, APIKey: "test-key", Timeout: time.Second}, zerolog.Nop())
	quote, err := s.Quote(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("quote failed: %v", err)
	}
	if !quote.AmountOut.Equal(usdc("997")) || quote.BridgeName != "hop" {
		t.Fatalf("unexpected quote %+v", quote)
	}
	if quote.Duration != time.Minute {
		t.Fatalf("unexpected duration %s", quote.Duration)
	}
}

func TestSocketQuoteNoRoutes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"result": map[string]any{"routes": []any{}}})
	}))
	defer srv.Close()

	s := NewSocket(SocketOptions{BaseURL: srv.URL, Timeout: time.Second}, zerolog.Nop())
	if _, err := s.Quote(context.Background(), testRequest()); err == nil {
		t.Fatal("empty route list must fail the provider")
	}
}
