// Package scheduler turns recurrence rules into visit rows and keeps them
// consistent as rules change.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"fieldservice-backend/config"
	"fieldservice-backend/internal/model"
	"fieldservice-backend/internal/schedule"
	"fieldservice-backend/internal/store"
)

// Service orchestrates visit generation and reconciliation against the
// persistence store. Every operation runs synchronously within the calling
// request; reconciliation sequences execute inside one store transaction.
type Service struct {
	cfg   *config.SchedulingConfig
	store store.Store
	now   func() time.Time
}

// NewService creates a scheduler service.
func NewService(cfg *config.SchedulingConfig, s store.Store) *Service {
	return &Service{cfg: cfg, store: s, now: time.Now}
}

// WithClock replaces the service clock. Tests use it to pin "today".
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) today() time.Time {
	return schedule.DateOnly(s.now())
}

func (s *Service) horizonEnd(from time.Time) time.Time {
	return from.AddDate(0, 0, s.cfg.HorizonDays)
}

// cutoff returns the reconciliation boundary: the later of tomorrow and the
// caller-supplied date. A visit already in progress today is never removed.
func (s *Service) cutoff(requested *time.Time) time.Time {
	tomorrow := s.today().AddDate(0, 0, 1)
	if requested != nil && schedule.DateOnly(*requested).After(tomorrow) {
		return schedule.DateOnly(*requested)
	}
	return tomorrow
}

// buildVisits materializes visit rows for the given occurrence dates.
func buildVisits(rule *model.RecurrenceRule, dates []time.Time) []model.Visit {
	visits := make([]model.Visit, 0, len(dates))
	for _, date := range dates {
		visits = append(visits, model.Visit{
			CustomerID:     rule.CustomerID,
			ScheduleRuleID: &rule.ID,
			Date:           date,
			Status:         model.VisitScheduled,
			Billable:       true,
			WindowStart:    rule.WindowStart,
			WindowEnd:      rule.WindowEnd,
		})
	}
	return visits
}

// CreateRule validates and stores a new rule, corrects its start date onto a
// selected weekday, and materializes its visits up to the horizon. It
// returns the number of visits created.
func (s *Service) CreateRule(ctx context.Context, rule *model.RecurrenceRule) (int64, error) {
	if err := schedule.ValidateRule(rule); err != nil {
		return 0, err
	}
	schedule.NormalizeRule(rule)

	if err := s.store.CreateRule(ctx, rule); err != nil {
		return 0, fmt.Errorf("failed to create rule: %w", err)
	}
	if rule.Paused {
		return 0, nil
	}

	dates := schedule.Expand(*rule, rule.DTStart, s.horizonEnd(s.today()))
	created, err := s.store.InsertVisits(ctx, buildVisits(rule, dates))
	if err != nil {
		return 0, err
	}
	log.Printf("Rule %d created: %d visits materialized through %s",
		rule.ID, created, s.horizonEnd(s.today()).Format(schedule.DateLayout))
	return created, nil
}

// GenerateVisits re-expands an existing rule up to horizonEnd. Generation is
// idempotent: occurrences that already exist are left untouched. A zero
// horizonEnd uses the configured horizon.
func (s *Service) GenerateVisits(ctx context.Context, ruleID int64, horizonEnd time.Time) (int64, error) {
	rule, err := s.store.GetRule(ctx, ruleID)
	if err != nil {
		return 0, err
	}
	if rule.Paused {
		return 0, nil
	}
	if horizonEnd.IsZero() {
		horizonEnd = s.horizonEnd(s.today())
	}

	dates := schedule.Expand(rule, rule.DTStart, horizonEnd)
	return s.store.InsertVisits(ctx, buildVisits(&rule, dates))
}

// ReconcileResult reports what a rule-change reconciliation did.
type ReconcileResult struct {
	Removed int64 `json:"removed"`
	Created int64 `json:"created"`
}

// RuleChanged applies an edited rule and reconciles its future visits:
// still-scheduled visits on or after the cutoff are removed and the set is
// regenerated from the updated rule, in one transaction. Completed,
// in-progress and skipped visits are preserved unconditionally.
func (s *Service) RuleChanged(ctx context.Context, rule *model.RecurrenceRule, requestedCutoff *time.Time) (ReconcileResult, error) {
	if err := schedule.ValidateRule(rule); err != nil {
		return ReconcileResult{}, err
	}
	schedule.NormalizeRule(rule)

	if err := s.store.UpdateRule(ctx, rule); err != nil {
		return ReconcileResult{}, fmt.Errorf("failed to update rule %d: %w", rule.ID, err)
	}

	cutoff := s.cutoff(requestedCutoff)
	var regenerated []model.Visit
	if !rule.Paused {
		dates := schedule.Expand(*rule, cutoff, s.horizonEnd(s.today()))
		regenerated = buildVisits(rule, dates)
	}

	removed, created, err := s.store.ReconcileRule(ctx, rule.ID, cutoff, regenerated)
	if err != nil {
		return ReconcileResult{}, err
	}
	log.Printf("Rule %d reconciled: %d future visits removed, %d regenerated", rule.ID, removed, created)
	return ReconcileResult{Removed: removed, Created: created}, nil
}

// RuleDeleted removes the rule and its future still-scheduled visits. There
// is no regeneration step.
func (s *Service) RuleDeleted(ctx context.Context, ruleID int64, requestedCutoff *time.Time) (int64, error) {
	removed, err := s.store.DeleteRuleAndFutureVisits(ctx, ruleID, s.cutoff(requestedCutoff))
	if err != nil {
		return 0, err
	}
	log.Printf("Rule %d deleted: %d future visits removed", ruleID, removed)
	return removed, nil
}

// SetPaused pauses or resumes a rule. Pausing clears future scheduled visits
// without regenerating; resuming regenerates from the cutoff forward.
func (s *Service) SetPaused(ctx context.Context, ruleID int64, paused bool) (ReconcileResult, error) {
	rule, err := s.store.GetRule(ctx, ruleID)
	if err != nil {
		return ReconcileResult{}, err
	}
	rule.Paused = paused
	return s.RuleChanged(ctx, &rule, nil)
}

// NextVisit answers "when is this customer next visited?" across all of the
// customer's active rules, without materializing visits. The boolean is
// false when no rule has a future occurrence.
func (s *Service) NextVisit(ctx context.Context, customerID int64) (schedule.NextVisit, bool, error) {
	rules, err := s.store.ListActiveRules(ctx, customerID)
	if err != nil {
		return schedule.NextVisit{}, false, fmt.Errorf("failed to list rules for customer %d: %w", customerID, err)
	}
	next, ok := schedule.NextForCustomer(rules, s.today())
	return next, ok, nil
}
