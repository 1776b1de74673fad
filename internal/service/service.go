// Package service orchestrates the refresh loops: pool aggregation,
// alert evaluation, and gas reporting.
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"yieldwatch/internal/alerting"
	"yieldwatch/internal/gas"
	"yieldwatch/internal/pools"
	"yieldwatch/internal/scheduler"
	"yieldwatch/internal/storage"
)

// Service drives the periodic refreshes and exposes the latest
// snapshots to the presentation layer.
type Service struct {
	pipeline *pools.Pipeline
	gas      *gas.Service
	matcher  *alerting.Matcher
	rules    storage.RuleStore
	audit    storage.AlertEventStore
	notifier alerting.Notifier
	logger   zerolog.Logger

	poolSched *scheduler.Scheduler
	gasSched  *scheduler.Scheduler
	alertsOn  bool

	mu        sync.RWMutex
	lastFired []alerting.Notification
}

// Options collect the service dependencies. Rules, audit, and notifier
// are optional; a missing rule store just means no alerts fire.
type Options struct {
	Pipeline  *pools.Pipeline
	Gas       *gas.Service
	Matcher   *alerting.Matcher
	Rules     storage.RuleStore
	Audit     storage.AlertEventStore
	Notifier  alerting.Notifier
	PoolSched *scheduler.Scheduler
	GasSched  *scheduler.Scheduler
	AlertsOn  bool
}

// New constructs the service.
func New(opts Options, logger zerolog.Logger) *Service {
	return &Service{
		pipeline:  opts.Pipeline,
		gas:       opts.Gas,
		matcher:   opts.Matcher,
		rules:     opts.Rules,
		audit:     opts.Audit,
		notifier:  opts.Notifier,
		poolSched: opts.PoolSched,
		gasSched:  opts.GasSched,
		alertsOn:  opts.AlertsOn,
		logger:    logger.With().Str("component", "service").Logger(),
	}
}

// Run blocks, driving both refresh loops until ctx is cancelled.
func (s *Service) Run(ctx context.Context) error {
	if s.poolSched == nil || s.gasSched == nil {
		return fmt.Errorf("schedulers not configured")
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.poolSched.Run(gctx, s.RefreshPools) })
	g.Go(func() error { return s.gasSched.Run(gctx, s.RefreshGas) })
	return g.Wait()
}

// RefreshPools executes one pool refresh and evaluates alerts against
// the resulting snapshot. Alert evaluation runs per snapshot, not on
// its own timer.
func (s *Service) RefreshPools(ctx context.Context, tick time.Time) error {
	snapshot, err := s.pipeline.Refresh(ctx)
	if err != nil {
		return fmt.Errorf("refresh pools: %w", err)
	}
	if snapshot.Stale {
		s.logger.Warn().Time("tick", tick).Msg("serving stale pool snapshot; skipping alert evaluation")
		return nil
	}

	if !s.alertsOn || s.matcher == nil {
		return nil
	}

	rules := s.loadRules(ctx)
	if len(rules) == 0 {
		return nil
	}

	fired := s.matcher.Evaluate(snapshot.Pools, rules)
	if len(fired) == 0 {
		return nil
	}

	for _, note := range fired {
		if s.audit != nil {
			if _, err := s.audit.InsertAlertEvent(ctx, storage.NewAlertEvent(note)); err != nil {
				s.logger.Error().Err(err).Str("rule", note.RuleID).Msg("failed to persist alert event")
			}
		}
		if s.notifier != nil {
			if err := s.notifier.Notify(ctx, note); err != nil {
				s.logger.Error().Err(err).Str("rule", note.RuleID).Str("pool", note.PoolID).Msg("failed to dispatch notification")
			}
		} else {
			s.logger.Info().Str("rule", note.RuleID).Str("pool", note.PoolID).Float64("apy", note.APY).Msg("alert fired (no notifier configured)")
		}
	}

	s.mu.Lock()
	s.lastFired = fired
	s.mu.Unlock()
	return nil
}

// RefreshGas executes one gas report refresh. Gas fetching degrades to
// fallback constants internally, so this never fails.
func (s *Service) RefreshGas(ctx context.Context, tick time.Time) error {
	s.gas.Refresh(ctx)
	return nil
}

func (s *Service) loadRules(ctx context.Context) []alerting.Rule {
	if s.rules == nil {
		return nil
	}
	rules, err := s.rules.ListRules(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to load alert rules")
		return nil
	}
	return rules
}

// PoolsSnapshot returns the current pool snapshot without refreshing.
func (s *Service) PoolsSnapshot() (pools.Snapshot, error) {
	return s.pipeline.Current()
}

// GasReport returns the current gas report, refreshing if expired.
func (s *Service) GasReport(ctx context.Context) gas.Report {
	return s.gas.Current(ctx)
}

// LastNotifications returns the notifications fired by the most recent
// snapshot evaluation.
func (s *Service) LastNotifications() []alerting.Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]alerting.Notification, len(s.lastFired))
	copy(out, s.lastFired)
	return out
}
