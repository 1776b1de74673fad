package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"yieldwatch/internal/alerting"
)

// ErrNotConfigured indicates the storage pool was not initialised.
var ErrNotConfigured = errors.New("storage: pool not configured")

const (
	listRulesSQL = `SELECT
        id,
        COALESCE(protocol, ''),
        COALESCE(chain, ''),
        condition,
        target_apy,
        active,
        created_at
    FROM alert_rules
    ORDER BY created_at;`

	insertAlertEventSQL = `INSERT INTO alert_events (
        rule_id,
        pool_id,
        project,
        chain,
        apy,
        target_apy,
        condition,
        fired_at
    ) VALUES (
        $1,$2,$3,$4,$5,$6,$7,$8
    )
    RETURNING id, created_at;`

	deleteAlertEventsBeforeSQL = `DELETE FROM alert_events WHERE created_at < $1;`
)

// RuleStore reads the externally managed alert rules. The rules are
// owned by the user-facing layer; this side never writes them.
type RuleStore interface {
	ListRules(ctx context.Context) ([]alerting.Rule, error)
}

// AlertEventStore appends delivered-notification audit rows.
type AlertEventStore interface {
	InsertAlertEvent(ctx context.Context, event AlertEvent) (AlertEvent, error)
}

// Store aggregates access to alert rules and the alert audit log.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore wires a pgx pool into a Store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Close releases the underlying pool resources.
func (s *Store) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

func (s *Store) getPool() (*pgxpool.Pool, error) {
	if s == nil || s.pool == nil {
		return nil, ErrNotConfigured
	}
	return s.pool, nil
}

// ListRules reads the flat rule list.
func (s *Store) ListRules(ctx context.Context) ([]alerting.Rule, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listRulesSQL)
	if queryErr != nil {
		return nil, fmt.Errorf("list alert rules: %w", queryErr)
	}
	defer rows.Close()

	rules := make([]alerting.Rule, 0)
	for rows.Next() {
		var rule alerting.Rule
		var condition string
		if scanErr := rows.Scan(
			&rule.ID,
			&rule.Protocol,
			&rule.Chain,
			&condition,
			&rule.TargetAPY,
			&rule.Active,
			&rule.CreatedAt,
		); scanErr != nil {
			return nil, fmt.Errorf("scan alert rule: %w", scanErr)
		}
		rule.Condition = alerting.Condition(condition)
		rules = append(rules, rule)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("iterate alert rules: %w", rowsErr)
	}
	return rules, nil
}

// InsertAlertEvent appends one audit row for a delivered notification.
func (s *Store) InsertAlertEvent(ctx context.Context, event AlertEvent) (AlertEvent, error) {
	pool, err := s.getPool()
	if err != nil {
		return AlertEvent{}, err
	}

	row := pool.QueryRow(ctx, insertAlertEventSQL,
		event.RuleID,
		event.PoolID,
		event.Project,
		event.Chain,
		event.APY,
		event.TargetAPY,
		event.Condition,
		event.FiredAt,
	)
	if scanErr := row.Scan(&event.ID, &event.CreatedAt); scanErr != nil {
		return AlertEvent{}, fmt.Errorf("insert alert event: %w", scanErr)
	}
	return event, nil
}

// DeleteAlertEventsBefore prunes old audit rows.
func (s *Store) DeleteAlertEventsBefore(ctx context.Context, olderThan time.Time) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}
	if _, execErr := pool.Exec(ctx, deleteAlertEventsBeforeSQL, olderThan); execErr != nil {
		return fmt.Errorf("delete alert events: %w", execErr)
	}
	return nil
}

var (
	_ RuleStore       = (*Store)(nil)
	_ AlertEventStore = (*Store)(nil)
)
