package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const (
	lifiQuotePath       = "/v1/quote"
	lifiLink            = "https://jumper.exchange"
	defaultDurationSecs = 120
)

var defaultGasUSD = decimal.NewFromFloat(0.50)

// LiFiOptions parameterise the LI.FI provider.
type LiFiOptions struct {
	BaseURL     string
	FromAddress string
	Timeout     time.Duration
}

// LiFi fetches quotes from the LI.FI aggregator API.
type LiFi struct {
	opts    LiFiOptions
	client  *http.Client
	baseURL string
	logger  zerolog.Logger
}

// NewLiFi constructs a LI.FI provider.
func NewLiFi(opts LiFiOptions, logger zerolog.Logger) *LiFi {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://li.quest"
	}
	if opts.FromAddress == "" {
		opts.FromAddress = "0x0000000000000000000000000000000000000000"
	}

	return &LiFi{
		opts:    opts,
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
		logger:  logger.With().Str("component", "lifi_provider").Logger(),
	}
}

// Name identifies the provider in aggregated results.
func (l *LiFi) Name() string { return "LI.FI" }

type lifiResponse struct {
	Estimate struct {
		ToAmount          string  `json:"toAmount"`
		ExecutionDuration float64 `json:"executionDuration"`
		GasCosts          []struct {
			AmountUSD string `json:"amountUSD"`
		} `json:"gasCosts"`
	} `json:"estimate"`
	ToolDetails struct {
		Name string `json:"name"`
	} `json:"toolDetails"`
}

// Quote fetches and normalizes one LI.FI quote.
func (l *LiFi) Quote(ctx context.Context, req Request) (Quote, error) {
	rt, err := req.resolve()
	if err != nil {
		return Quote{}, err
	}

	params := url.Values{}
	params.Set("fromChain", strconv.FormatInt(rt.FromChainID, 10))
	params.Set("toChain", strconv.FormatInt(rt.ToChainID, 10))
	params.Set("fromToken", rt.FromToken)
	params.Set("toToken", rt.ToToken)
	params.Set("fromAmount", rt.AmountAtoms)
	params.Set("fromAddress", l.opts.FromAddress)
	if req.Slippage > 0 {
		params.Set("slippage", strconv.FormatFloat(req.Slippage, 'f', -1, 64))
	}

	endpoint := l.baseURL + lifiQuotePath + "?" + params.Encode()
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Quote{}, err
	}
	httpReq.Header.Set("Accept", "application/json")

	resp, err := l.client.Do(httpReq)
	if err != nil {
		return Quote{}, err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return Quote{}, err
	}
	if resp.StatusCode != http.StatusOK {
		return Quote{}, fmt.Errorf("lifi api error (%d): %s", resp.StatusCode, strings.TrimSpace(string(payload)))
	}

	var body lifiResponse
	if err := json.Unmarshal(payload, &body); err != nil {
		return Quote{}, fmt.Errorf("decode lifi response: %w", err)
	}
	if body.Estimate.ToAmount == "" {
		return Quote{}, fmt.Errorf("lifi response missing estimate")
	}

	out, err := normalizeOutput(body.Estimate.ToAmount, req.Amount)
	if err != nil {
		return Quote{}, err
	}

	gasUSD := defaultGasUSD
	if len(body.Estimate.GasCosts) > 0 {
		if parsed, perr := decimal.NewFromString(body.Estimate.GasCosts[0].AmountUSD); perr == nil {
			gasUSD = parsed.Round(2)
		}
	}

	durationSecs := body.Estimate.ExecutionDuration
	if durationSecs <= 0 {
		durationSecs = defaultDurationSecs
	}

	bridgeName := body.ToolDetails.Name
	if bridgeName == "" {
		bridgeName = l.Name()
	}

	return Quote{
		Provider:   l.Name(),
		BridgeName: bridgeName,
		AmountOut:  out,
		Fee:        impliedFee(req.Amount, out),
		GasUSD:     gasUSD,
		Duration:   time.Duration(durationSecs) * time.Second,
		Link:       lifiLink,
	}, nil
}

var _ Provider = (*LiFi)(nil)
