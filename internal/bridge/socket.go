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
	socketQuotePath = "/v2/quote"
	socketLink      = "https://bungee.exchange"
)

// SocketOptions parameterise the Socket provider.
type SocketOptions struct {
	BaseURL     string
	APIKey      string
	FromAddress string
	Timeout     time.Duration
}

// Socket fetches quotes from the Socket aggregator API.
type Socket struct {
	opts    SocketOptions
	client  *http.Client
	baseURL string
	logger  zerolog.Logger
}

// NewSocket constructs a Socket provider.
func NewSocket(opts SocketOptions, logger zerolog.Logger) *Socket {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.socket.tech"
	}
	if opts.FromAddress == "" {
		opts.FromAddress = "0x0000000000000000000000000000000000000000"
	}

	return &Socket{
		opts:    opts,
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
		logger:  logger.With().Str("component", "socket_provider").Logger(),
	}
}

// Name identifies the provider in aggregated results.
func (s *Socket) Name() string { return "Socket" }

type socketResponse struct {
	Result struct {
		Routes []struct {
			ToAmount          string   `json:"toAmount"`
			UsedBridgeNames   []string `json:"usedBridgeNames"`
			TotalGasFeesInUsd float64  `json:"totalGasFeesInUsd"`
			ServiceTime       float64  `json:"serviceTime"`
		} `json:"routes"`
	} `json:"result"`
}

// Quote fetches and normalizes the best Socket route.
func (s *Socket) Quote(ctx context.Context, req Request) (Quote, error) {
	rt, err := req.resolve()
	if err != nil {
		return Quote{}, err
	}

	params := url.Values{}
	params.Set("fromChainId", strconv.FormatInt(rt.FromChainID, 10))
	params.Set("toChainId", strconv.FormatInt(rt.ToChainID, 10))
	params.Set("fromTokenAddress", rt.FromToken)
	params.Set("toTokenAddress", rt.ToToken)
	params.Set("fromAmount", rt.AmountAtoms)
	params.Set("userAddress", s.opts.FromAddress)
	params.Set("singleTxOnly", "true")
	params.Set("sort", "output")

	endpoint := s.baseURL + socketQuotePath + "?" + params.Encode()
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Quote{}, err
	}
	httpReq.Header.Set("Accept", "application/json")
	if s.opts.APIKey != "" {
		httpReq.Header.Set("API-KEY", s.opts.APIKey)
	}

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return Quote{}, err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return Quote{}, err
	}
	if resp.StatusCode != http.StatusOK {
		return Quote{}, fmt.Errorf("socket api error (%d): %s", resp.StatusCode, strings.TrimSpace(string(payload)))
	}

	var body socketResponse
	if err := json.Unmarshal(payload, &body); err != nil {
		return Quote{}, fmt.Errorf("decode socket response: %w", err)
	}
	if len(body.Result.Routes) == 0 {
		return Quote{}, fmt.Errorf("socket returned no routes")
	}

	best := body.Result.Routes[0]
	out, err := normalizeOutput(best.ToAmount, req.Amount)
	if err != nil {
		return Quote{}, err
	}

	gasUSD := defaultGasUSD
	if best.TotalGasFeesInUsd > 0 {
		gasUSD = decimal.NewFromFloat(best.TotalGasFeesInUsd).Round(2)
	}

	durationSecs := best.ServiceTime
	if durationSecs <= 0 {
		durationSecs = defaultDurationSecs
	}

	bridgeName := s.Name()
	if len(best.UsedBridgeNames) > 0 && best.UsedBridgeNames[0] != "" {
		bridgeName = best.UsedBridgeNames[0]
	}

	return Quote{
		Provider:   s.Name(),
		BridgeName: bridgeName,
		AmountOut:  out,
		Fee:        impliedFee(req.Amount, out),
		GasUSD:     gasUSD,
		Duration:   time.Duration(durationSecs) * time.Second,
		Link:       socketLink,
	}, nil
}

var _ Provider = (*Socket)(nil)
