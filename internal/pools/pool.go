// Package pools aggregates the upstream yield-pool universe into a
// filtered, enriched, cached snapshot.
package pools

import (
	"fmt"
	"sort"
	"strings"
)

// Pool is one yield opportunity as reported by the upstream feed.
// Never mutated after fetch.
type Pool struct {
	ID         string   `json:"pool"`
	Chain      string   `json:"chain"`
	Project    string   `json:"project"`
	Symbol     string   `json:"symbol"`
	TVLUsd     float64  `json:"tvlUsd"`
	APY        float64  `json:"apy"`
	APYBase    *float64 `json:"apyBase,omitempty"`
	APYReward  *float64 `json:"apyReward,omitempty"`
	Stablecoin bool     `json:"stablecoin"`
}

// EnrichedPool adds display attributes and the resolved protocol link.
// Everything except ProtocolURL is a pure function of the Pool.
type EnrichedPool struct {
	Pool
	ChainIcon   string `json:"chainIcon"`
	APYColor    string `json:"apyColor"`
	ProtocolURL string `json:"protocolUrl"`
}

const (
	minTVLUsd = 10_000_000
	minAPY    = 1
	maxAPY    = 50
	topN      = 25
)

// Filter applies the inclusion predicate, ranks by APY descending, and
// truncates to the top 25. The sort is stable so identical inputs always
// produce identical output order.
func Filter(all []Pool) []Pool {
	kept := make([]Pool, 0, topN)
	for _, p := range all {
		if !p.Stablecoin {
			continue
		}
		if p.TVLUsd < minTVLUsd {
			continue
		}
		if p.APY <= minAPY || p.APY >= maxAPY {
			continue
		}
		if strings.Contains(p.ID, "outdated") {
			continue
		}
		if strings.Contains(p.Project, "test") {
			continue
		}
		kept = append(kept, p)
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].APY > kept[j].APY
	})

	if len(kept) > topN {
		kept = kept[:topN]
	}
	return kept
}

var chainIcons = map[string]string{
	"ethereum":  "Ξ",
	"arbitrum":  "🔷",
	"base":      "🔵",
	"bsc":       "💛",
	"solana":    "⚡",
	"polygon":   "🟣",
	"optimism":  "🔴",
	"avalanche": "🔺",
}

// ChainIcon maps a chain name to its display glyph.
func ChainIcon(chain string) string {
	if icon, ok := chainIcons[strings.ToLower(chain)]; ok {
		return icon
	}
	return "⛓️"
}

// APYColor buckets a yield percentage into a display color.
func APYColor(apy float64) string {
	switch {
	case apy > 10:
		return "#22c55e"
	case apy > 5:
		return "#eab308"
	default:
		return "#9ca3af"
	}
}

// DisplayName turns a feed project slug into a readable protocol name.
func DisplayName(p Pool) string {
	project := p.Project
	if project == "" {
		return "Protocol"
	}
	words := strings.Split(project, "-")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// FormatTVL renders a USD amount in compact $B/$M/$K form.
func FormatTVL(tvl float64) string {
	switch {
	case tvl >= 1_000_000_000:
		return fmt.Sprintf("$%.2fB", tvl/1_000_000_000)
	case tvl >= 1_000_000:
		return fmt.Sprintf("$%.0fM", tvl/1_000_000)
	default:
		return fmt.Sprintf("$%.0fK", tvl/1_000)
	}
}

// FormatAPY renders a yield percentage with two decimals.
func FormatAPY(apy float64) string {
	return fmt.Sprintf("%.2f%%", apy)
}
