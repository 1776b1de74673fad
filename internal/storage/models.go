package storage

import (
	"time"

	"yieldwatch/internal/alerting"
)

// AlertEvent is an audit row for one delivered notification. Auditing
// is best-effort; delivery does not depend on it.
type AlertEvent struct {
	ID        int64
	RuleID    string
	PoolID    string
	Project   string
	Chain     string
	APY       float64
	TargetAPY float64
	Condition string
	FiredAt   time.Time
	CreatedAt time.Time
}

// NewAlertEvent maps a fired notification to its audit row.
func NewAlertEvent(note alerting.Notification) AlertEvent {
	return AlertEvent{
		RuleID:    note.RuleID,
		PoolID:    note.PoolID,
		Project:   note.Project,
		Chain:     note.Chain,
		APY:       note.APY,
		TargetAPY: note.TargetAPY,
		Condition: string(note.Condition),
		FiredAt:   note.FiredAt,
	}
}
