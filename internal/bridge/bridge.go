// Package bridge aggregates cross-chain transfer quotes from multiple
// providers into a single ranked list.
package bridge

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Chain IDs for every supported transfer chain.
var chainIDs = map[string]int64{
	"ethereum": 1,
	"arbitrum": 42161,
	"base":     8453,
	"optimism": 10,
	"polygon":  137,
	"bsc":      56,
}

// Token contract addresses per chain. Both supported tokens use six
// decimals on every chain listed here.
var tokenAddresses = map[string]map[int64]string{
	"USDC": {
		1:     "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48",
		42161: "0xaf88d065e77c8cC2239327C5EDb3A432268e5831",
		8453:  "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913",
		10:    "0x0b2C639c533813f4Aa9D7837CAf62653d097Ff85",
		137:   "0x3c499c542cEF5E3811e1192ce70d8cC03d5c3359",
		56:    "0x8AC76a51cc950d9822D68b83fE1Ad97B32Cd580d",
	},
	"USDT": {
		1:     "0xdAC17F958D2ee523a2206206994597C13D831ec7",
		42161: "0xFd086bC7CD5C481DCC9C85ebE478A1C0b69FCbb9",
		8453:  "0xfde4C96c8593536E31F229EA8f37b2ADa2699bb2",
		10:    "0x94b008aA00579c1307B0EF2c499aD98a8ce58e58",
		137:   "0xc2132D05D31c914a87C6611C10748AEb04B58e8F",
		56:    "0x55d398326f99059fF775485246999027B3197955",
	},
}

// tokenDecimals is the atomic-unit scale shared by the supported
// stablecoins.
var tokenScale = decimal.New(1, 6)

// sanityMultiplier bounds plausible output: anything above 1000x the
// input is treated as a unit/decimal error and discarded.
var sanityMultiplier = decimal.NewFromInt(1000)

// Request describes one transfer to quote.
type Request struct {
	FromChain string
	ToChain   string
	Token     string
	Amount    decimal.Decimal
	Slippage  float64
}

// route is a Request resolved to chain IDs and token addresses.
type route struct {
	FromChainID int64
	ToChainID   int64
	FromToken   string
	ToToken     string
	AmountAtoms string
}

// resolve validates the request against the supported chain and token
// tables.
func (r Request) resolve() (route, error) {
	fromID, ok := chainIDs[strings.ToLower(r.FromChain)]
	if !ok {
		return route{}, fmt.Errorf("unsupported source chain %q", r.FromChain)
	}
	toID, ok := chainIDs[strings.ToLower(r.ToChain)]
	if !ok {
		return route{}, fmt.Errorf("unsupported destination chain %q", r.ToChain)
	}
	addrs, ok := tokenAddresses[strings.ToUpper(r.Token)]
	if !ok {
		return route{}, fmt.Errorf("unsupported token %q", r.Token)
	}
	fromToken, ok := addrs[fromID]
	if !ok {
		return route{}, fmt.Errorf("token %q not deployed on %q", r.Token, r.FromChain)
	}
	toToken, ok := addrs[toID]
	if !ok {
		return route{}, fmt.Errorf("token %q not deployed on %q", r.Token, r.ToChain)
	}
	if !r.Amount.IsPositive() {
		return route{}, fmt.Errorf("amount must be positive")
	}

	return route{
		FromChainID: fromID,
		ToChainID:   toID,
		FromToken:   fromToken,
		ToToken:     toToken,
		AmountAtoms: r.Amount.Mul(tokenScale).Round(0).StringFixed(0),
	}, nil
}

// Quote is the canonical normalized result of one provider response.
// Provider-specific shapes never escape their adapter.
type Quote struct {
	Provider   string          `json:"provider"`
	BridgeName string          `json:"bridgeName"`
	AmountOut  decimal.Decimal `json:"amountOut"`
	Fee        decimal.Decimal `json:"fee"`
	GasUSD     decimal.Decimal `json:"gasUsd"`
	Duration   time.Duration   `json:"duration"`
	Link       string          `json:"link"`
}

// Provider is one quote source. Quote returns the normalized result or
// an error; errors are isolated per provider by the aggregator.
type Provider interface {
	Name() string
	Quote(ctx context.Context, req Request) (Quote, error)
}

// normalizeOutput converts a raw atomic-unit amount into human units
// and applies the plausibility bound against the input amount.
func normalizeOutput(rawAtoms string, input decimal.Decimal) (decimal.Decimal, error) {
	atoms, err := decimal.NewFromString(rawAtoms)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("parse output amount %q: %w", rawAtoms, err)
	}
	out := atoms.Div(tokenScale)
	if out.GreaterThan(input.Mul(sanityMultiplier)) {
		return decimal.Decimal{}, fmt.Errorf("output %s exceeds %sx input %s; discarding as a decimal error",
			out.String(), sanityMultiplier.String(), input.String())
	}
	return out, nil
}

// impliedFee is input minus output, floored at zero.
func impliedFee(input, output decimal.Decimal) decimal.Decimal {
	fee := input.Sub(output)
	if fee.IsNegative() {
		return decimal.Zero
	}
	return fee
}
