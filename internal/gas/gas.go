// Package gas reports per-chain gas pricing with fallback RPC chains
// and documented floor values.
package gas

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// swapGasUnits is the fixed gas estimate for a typical swap.
const swapGasUnits = 150_000

// maxPlausibleGwei bounds accepted RPC answers; anything at or above
// this is treated as a malformed response.
var maxPlausibleGwei = decimal.NewFromInt(10_000)

// Status is the three-tier cost classification.
type Status string

const (
	StatusLow    Status = "low"
	StatusMedium Status = "medium"
	StatusHigh   Status = "high"
)

// ChainSpec describes one chain with a live-fetchable gas price.
type ChainSpec struct {
	Name string
	// Endpoints are tried in order; the first plausible answer wins.
	Endpoints []string
	// FallbackGwei is served when every endpoint fails. Documented
	// floors: 18 gwei for ethereum, 3 gwei for bsc.
	FallbackGwei decimal.Decimal
	// TokenPriceUSD is the static native-token price used for the USD
	// estimate.
	TokenPriceUSD decimal.Decimal
	// LowBelow and MediumBelow are the tier thresholds in gwei.
	LowBelow    decimal.Decimal
	MediumBelow decimal.Decimal
}

// FixedChain is a chain priced with a constant USD-per-swap figure
// instead of a live gas price.
type FixedChain struct {
	Name       string
	USDPerSwap string
}

// EthereumSpec is the default mainnet configuration.
func EthereumSpec() ChainSpec {
	return ChainSpec{
		Name: "ethereum",
		Endpoints: []string{
			"https://eth.llamarpc.com",
			"https://rpc.ankr.com/eth",
			"https://ethereum.publicnode.com",
		},
		FallbackGwei:  decimal.NewFromInt(18),
		TokenPriceUSD: decimal.NewFromInt(3500),
		LowBelow:      decimal.NewFromInt(20),
		MediumBelow:   decimal.NewFromInt(50),
	}
}

// BSCSpec is the default BNB Smart Chain configuration.
func BSCSpec() ChainSpec {
	return ChainSpec{
		Name: "bsc",
		Endpoints: []string{
			"https://bsc-dataseed.binance.org",
			"https://bsc.rpc.blxrbdn.com",
			"https://rpc.ankr.com/bsc",
		},
		FallbackGwei:  decimal.NewFromInt(3),
		TokenPriceUSD: decimal.NewFromInt(600),
		LowBelow:      decimal.NewFromInt(5),
		MediumBelow:   decimal.NewFromInt(10),
	}
}

// FixedChains lists the chains priced by constant per-swap costs.
func FixedChains() []FixedChain {
	return []FixedChain{
		{Name: "arbitrum", USDPerSwap: "0.10"},
		{Name: "base", USDPerSwap: "0.05"},
		{Name: "optimism", USDPerSwap: "0.08"},
		{Name: "polygon", USDPerSwap: "0.02"},
		{Name: "solana", USDPerSwap: "0.001"},
	}
}

// Fetcher retrieves a gas price through an ordered endpoint chain.
type Fetcher struct {
	timeout time.Duration
	logger  zerolog.Logger
}

// NewFetcher constructs a fetcher with a per-endpoint timeout.
func NewFetcher(timeout time.Duration, logger zerolog.Logger) *Fetcher {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Fetcher{
		timeout: timeout,
		logger:  logger.With().Str("component", "gas_fetcher").Logger(),
	}
}

// FetchGasPrice returns the first plausible gas price from the spec's
// endpoint chain, in gwei rounded to three decimals. Exhausting every
// endpoint returns the spec's fallback constant; this path never fails.
func (f *Fetcher) FetchGasPrice(ctx context.Context, spec ChainSpec) decimal.Decimal {
	for _, endpoint := range spec.Endpoints {
		gwei, err := f.fetchOne(ctx, endpoint)
		if err != nil {
			f.logger.Warn().Err(err).Str("chain", spec.Name).Str("endpoint", endpoint).Msg("gas price endpoint failed")
			continue
		}
		if !gwei.IsPositive() || gwei.GreaterThanOrEqual(maxPlausibleGwei) {
			f.logger.Warn().Str("chain", spec.Name).Str("endpoint", endpoint).Str("gwei", gwei.String()).Msg("implausible gas price discarded")
			continue
		}
		f.logger.Debug().Str("chain", spec.Name).Str("endpoint", endpoint).Str("gwei", gwei.String()).Msg("gas price fetched")
		return gwei.Round(3)
	}

	f.logger.Warn().Str("chain", spec.Name).Str("fallback_gwei", spec.FallbackGwei.String()).Msg("all gas endpoints failed; using fallback")
	return spec.FallbackGwei
}

func (f *Fetcher) fetchOne(ctx context.Context, endpoint string) (decimal.Decimal, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	client, err := rpc.DialContext(ctx, endpoint)
	if err != nil {
		return decimal.Decimal{}, err
	}
	defer client.Close()

	var priceWei hexutil.Big
	if err := client.CallContext(ctx, &priceWei, "eth_gasPrice"); err != nil {
		return decimal.Decimal{}, err
	}

	return decimal.NewFromBigInt(priceWei.ToInt(), -9), nil
}

// SwapCostUSD computes the USD cost of one swap at the given gas price.
func SwapCostUSD(gwei decimal.Decimal, tokenPriceUSD decimal.Decimal) decimal.Decimal {
	nativeCost := gwei.Mul(decimal.NewFromInt(swapGasUnits)).Shift(-9)
	return nativeCost.Mul(tokenPriceUSD).Round(2)
}

// Classify buckets a gas price into the chain's three-tier status.
func Classify(gwei decimal.Decimal, spec ChainSpec) Status {
	switch {
	case gwei.LessThan(spec.LowBelow):
		return StatusLow
	case gwei.LessThan(spec.MediumBelow):
		return StatusMedium
	default:
		return StatusHigh
	}
}
