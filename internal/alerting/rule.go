// Package alerting evaluates user threshold rules against pool
// snapshots and dispatches deduplicated notifications.
package alerting

import (
	"strings"
	"time"

	"yieldwatch/internal/pools"
)

// Condition is the trigger direction of a rule.
type Condition string

const (
	ConditionAbove Condition = "above"
	ConditionBelow Condition = "below"
)

// Rule is one user-defined APY threshold. Rules live in the external
// store and are read-only here.
type Rule struct {
	ID        string
	Protocol  string // optional; case-insensitive substring match
	Chain     string // optional; exact match
	Condition Condition
	TargetAPY float64
	Active    bool
	CreatedAt time.Time
}

// Matches reports whether the rule's filters select the pool. An absent
// filter matches anything.
func (r Rule) Matches(p pools.EnrichedPool) bool {
	if r.Protocol != "" && !strings.Contains(strings.ToLower(p.Project), strings.ToLower(r.Protocol)) {
		return false
	}
	if r.Chain != "" && r.Chain != p.Chain {
		return false
	}
	return true
}

// Triggered reports whether the pool's yield crosses the rule's
// threshold in the rule's direction.
func (r Rule) Triggered(p pools.EnrichedPool) bool {
	if r.Condition == ConditionBelow {
		return p.APY < r.TargetAPY
	}
	return p.APY > r.TargetAPY
}

// Notification is one fired alert, ready for the sink and the
// presentation layer.
type Notification struct {
	ID        string    `json:"id"`
	RuleID    string    `json:"ruleId"`
	PoolID    string    `json:"poolId"`
	Project   string    `json:"project"`
	Symbol    string    `json:"symbol"`
	Chain     string    `json:"chain"`
	APY       float64   `json:"apy"`
	TargetAPY float64   `json:"targetApy"`
	Condition Condition `json:"condition"`
	FiredAt   time.Time `json:"firedAt"`
}
