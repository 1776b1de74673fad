package alerting

import (
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"yieldwatch/internal/pools"
)

// Matcher evaluates rules against each new pool snapshot. It owns the
// dedupe state; run it once per snapshot, not on a timer.
type Matcher struct {
	deduper *Deduper
	logger  zerolog.Logger
}

// NewMatcher constructs a matcher with the given cool-down window.
func NewMatcher(cooldown time.Duration, logger zerolog.Logger) *Matcher {
	return &Matcher{
		deduper: NewDeduper(cooldown),
		logger:  logger.With().Str("component", "alert_matcher").Logger(),
	}
}

// Evaluate returns the notifications that newly fire for this snapshot:
// active rules only, filters applied, thresholds crossed, and the
// (rule, pool) pair outside its cool-down window.
func (m *Matcher) Evaluate(snapshot []pools.EnrichedPool, rules []Rule) []Notification {
	now := time.Now().UTC()
	var fired []Notification

	for _, rule := range rules {
		if !rule.Active {
			continue
		}
		for _, pool := range snapshot {
			if !rule.Matches(pool) || !rule.Triggered(pool) {
				continue
			}
			if !m.deduper.TryAcquire(rule.ID, pool.ID) {
				m.logger.Debug().Str("rule", rule.ID).Str("pool", pool.ID).Msg("notification suppressed by cooldown")
				continue
			}

			fired = append(fired, Notification{
				ID:        uuid.NewString(),
				RuleID:    rule.ID,
				PoolID:    pool.ID,
				Project:   pools.DisplayName(pool.Pool),
				Symbol:    pool.Symbol,
				Chain:     pool.Chain,
				APY:       pool.APY,
				TargetAPY: rule.TargetAPY,
				Condition: rule.Condition,
				FiredAt:   now,
			})
		}
	}

	if len(fired) > 0 {
		m.logger.Info().Int("fired", len(fired)).Int("rules", len(rules)).Msg("alert evaluation complete")
	}
	return fired
}
