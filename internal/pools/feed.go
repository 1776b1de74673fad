package pools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"resty.dev/v3"
)

// FeedOptions parameterise the upstream feed client.
type FeedOptions struct {
	PoolsURL    string
	ProtocolURL string
	Timeout     time.Duration
	UserAgent   string
}

// Feed reads the pool universe and protocol metadata from the upstream
// HTTP API.
type Feed struct {
	opts   FeedOptions
	client *resty.Client
	logger zerolog.Logger
}

// NewFeed constructs a feed client.
func NewFeed(opts FeedOptions, logger zerolog.Logger) *Feed {
	if opts.PoolsURL == "" {
		opts.PoolsURL = "https://yields.llama.fi/pools"
	}
	if opts.ProtocolURL == "" {
		opts.ProtocolURL = "https://api.llama.fi/protocol"
	}
	logger = logger.With().Str("component", "pool_feed").Logger()

	return &Feed{
		opts:   opts,
		client: newHTTPClient(opts.Timeout, opts.UserAgent, logger),
		logger: logger,
	}
}

// FetchPools retrieves the full pool universe. The feed wraps the list
// in a "data" envelope, but a bare array is accepted too.
func (f *Feed) FetchPools(ctx context.Context) ([]Pool, error) {
	resp, err := f.client.R().SetContext(ctx).Get(f.opts.PoolsURL)
	if err != nil {
		return nil, fmt.Errorf("fetch pools: %w", err)
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("pool feed returned status %d", resp.StatusCode())
	}

	body := resp.Bytes()

	var envelope struct {
		Data []Pool `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Data != nil {
		return envelope.Data, nil
	}

	var bare []Pool
	if err := json.Unmarshal(body, &bare); err != nil {
		return nil, fmt.Errorf("decode pool feed: %w", err)
	}
	return bare, nil
}

// FetchProtocolURL looks up the external site for a protocol. Any
// failure or missing URL yields the deterministic fallback link.
func (f *Feed) FetchProtocolURL(ctx context.Context, project string) string {
	fallback := FallbackProtocolURL(project)

	var result struct {
		URL string `json:"url"`
	}
	resp, err := f.client.R().
		SetContext(ctx).
		SetResult(&result).
		Get(f.opts.ProtocolURL + "/" + project)
	if err != nil {
		f.logger.Warn().Err(err).Str("project", project).Msg("protocol lookup failed")
		return fallback
	}
	if !resp.IsSuccess() {
		f.logger.Warn().Int("status", resp.StatusCode()).Str("project", project).Msg("protocol lookup rejected")
		return fallback
	}
	if strings.TrimSpace(result.URL) == "" {
		return fallback
	}
	return result.URL
}

// FallbackProtocolURL is the deterministic link used when no metadata
// is available for a protocol.
func FallbackProtocolURL(project string) string {
	return "https://defillama.com/protocol/" + project
}

var (
	_ PoolFetcher    = (*Feed)(nil)
	_ ProtocolLookup = (*Feed)(nil)
)
