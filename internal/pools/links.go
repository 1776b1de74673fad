package pools

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"yieldwatch/internal/cache"
)

// protocolURLs maps well-known protocol slugs straight to their app.
// Checked before any network lookup.
var protocolURLs = map[string]string{
	"aave":            "https://app.aave.com",
	"aave-v2":         "https://app.aave.com",
	"aave-v3":         "https://app.aave.com",
	"compound":        "https://app.compound.finance",
	"compound-v3":     "https://app.compound.finance",
	"morpho":          "https://app.morpho.org",
	"morpho-blue":     "https://app.morpho.org",
	"spark":           "https://app.spark.fi",
	"maker":           "https://app.sky.money",
	"sky":             "https://app.sky.money",
	"sky-lending":     "https://app.sky.money",
	"ethena":          "https://app.ethena.fi",
	"ethena-usde":     "https://app.ethena.fi",
	"maple":           "https://app.maple.finance",
	"frax":            "https://app.frax.finance",
	"frax-lend":       "https://app.frax.finance",
	"ondo":            "https://ondo.finance",
	"ondo-finance":    "https://ondo.finance",
	"mountain":        "https://mountainprotocol.com",
	"curve":           "https://curve.fi",
	"curve-dex":       "https://curve.fi",
	"convex":          "https://www.convexfinance.com",
	"convex-finance":  "https://www.convexfinance.com",
	"uniswap":         "https://app.uniswap.org",
	"uniswap-v3":      "https://app.uniswap.org",
	"pancakeswap":     "https://pancakeswap.finance",
	"sushiswap":       "https://www.sushi.com",
	"balancer":        "https://app.balancer.fi",
	"velodrome":       "https://velodrome.finance",
	"aerodrome":       "https://aerodrome.finance",
	"yearn":           "https://yearn.fi",
	"yearn-finance":   "https://yearn.fi",
	"beefy":           "https://app.beefy.com",
	"harvest":         "https://app.harvest.finance",
	"sommelier":       "https://app.sommelier.finance",
	"venus":           "https://app.venus.io",
	"alpaca":          "https://app.alpacafinance.org",
	"radiant":         "https://app.radiant.capital",
	"radiant-v2":      "https://app.radiant.capital",
	"gmx":             "https://app.gmx.io",
	"pendle":          "https://app.pendle.finance",
	"camelot":         "https://app.camelot.exchange",
	"jones":           "https://app.jonesdao.io",
	"moonwell":        "https://moonwell.fi",
	"seamless":        "https://app.seamlessprotocol.com",
	"extra":           "https://app.extrafi.io",
	"exactly":         "https://app.exact.ly",
	"sonne":           "https://sonne.finance",
	"benqi":           "https://app.benqi.fi",
	"trader-joe":      "https://traderjoexyz.com",
	"kamino":          "https://app.kamino.finance",
	"marginfi":        "https://app.marginfi.com",
	"drift":           "https://app.drift.trade",
	"solend":          "https://solend.fi",
	"meteora":         "https://app.meteora.ag",
	"raydium":         "https://raydium.io",
	"orca":            "https://www.orca.so",
	"jito":            "https://www.jito.network",
	"hyperion":        "https://app.hyperion.xyz",
	"liquidswap":      "https://liquidswap.com",
	"thala":           "https://app.thala.fi",
	"aptin":           "https://aptin.io",
	"quickswap":       "https://quickswap.exchange",
	"strata":          "https://strataprotocol.com",
	"strata-finance":  "https://strataprotocol.com",
	"fluid":           "https://fluid.instadapp.io",
	"instadapp":       "https://instadapp.io",
	"gearbox":         "https://app.gearbox.fi",
	"euler":           "https://app.euler.finance",
	"notional":        "https://notional.finance",
	"clearpool":       "https://clearpool.finance",
	"goldfinch":       "https://app.goldfinch.finance",
	"centrifuge":      "https://app.centrifuge.io",
	"truefi":          "https://app.truefi.io",
	"hyperliquid":     "https://app.hyperliquid.xyz",
	"justlend":        "https://justlend.org",
	"resolv":          "https://app.resolv.xyz",
	"level":           "https://app.level.finance",
	"ringfi":          "https://ring.fi",
}

// StaticProtocolURL resolves a protocol link from the static table:
// exact slug first, then substring match in either direction. Empty
// result means the caller should fall through to the lookup endpoint.
func StaticProtocolURL(project string) string {
	slug := strings.ToLower(project)
	if slug == "" {
		return ""
	}
	if url, ok := protocolURLs[slug]; ok {
		return url
	}
	for key, url := range protocolURLs {
		if strings.Contains(slug, key) || strings.Contains(key, slug) {
			return url
		}
	}
	return ""
}

// PoolDetailURL is the last-resort link for a pool with no resolvable
// protocol.
func PoolDetailURL(poolID string) string {
	return "https://defillama.com/yields/pool/" + poolID
}

// ProtocolLookup fetches an external site URL by protocol name.
type ProtocolLookup interface {
	FetchProtocolURL(ctx context.Context, project string) string
}

// LinkResolver resolves protocol links, consulting the static table,
// then its own per-protocol cache, then the lookup endpoint.
type LinkResolver struct {
	lookup ProtocolLookup
	cache  *cache.KeyedCache[string]
	logger zerolog.Logger
}

// NewLinkResolver constructs a resolver owning a fresh link cache.
func NewLinkResolver(lookup ProtocolLookup, ttl time.Duration, logger zerolog.Logger) *LinkResolver {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &LinkResolver{
		lookup: lookup,
		cache:  cache.NewKeyed[string](ttl),
		logger: logger.With().Str("component", "link_resolver").Logger(),
	}
}

// Resolve returns the external link for a pool's protocol.
func (r *LinkResolver) Resolve(ctx context.Context, p Pool) string {
	if p.Project == "" {
		return PoolDetailURL(p.ID)
	}

	if url := StaticProtocolURL(p.Project); url != "" {
		return url
	}

	if url, ok := r.cache.Get(p.Project); ok {
		return url
	}

	if r.lookup == nil {
		return FallbackProtocolURL(p.Project)
	}

	url := r.lookup.FetchProtocolURL(ctx, p.Project)
	r.cache.Set(p.Project, url)
	return url
}
