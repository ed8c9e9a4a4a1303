package store

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"fieldservice-backend/internal/bestfit"
	"fieldservice-backend/internal/geo"
	"fieldservice-backend/internal/model"
	"fieldservice-backend/internal/schedule"
)

// VisitFilter narrows ListVisits queries. Nil fields are ignored.
type VisitFilter struct {
	CustomerID *int64
	RuleID     *int64
	Status     model.VisitStatus
	From       *time.Time
	To         *time.Time
}

// Store defines the interface for all database operations the scheduling
// core composes into transactional sequences.
type Store interface {
	DB() *gorm.DB

	CreateRule(ctx context.Context, rule *model.RecurrenceRule) error
	GetRule(ctx context.Context, id int64) (model.RecurrenceRule, error)
	UpdateRule(ctx context.Context, rule *model.RecurrenceRule) error
	ListActiveRules(ctx context.Context, customerID int64) ([]model.RecurrenceRule, error)

	GetVisit(ctx context.Context, id int64) (model.Visit, error)
	ListVisits(ctx context.Context, filter VisitFilter) ([]model.Visit, error)
	SaveVisit(ctx context.Context, v *model.Visit) error

	// InsertVisits creates the given visits, silently skipping any that
	// collide with an existing (customer_id, schedule_rule_id, date)
	// occurrence. It returns the number actually created.
	InsertVisits(ctx context.Context, visits []model.Visit) (int64, error)

	// ReconcileRule removes the rule's still-scheduled visits dated on or
	// after cutoff and inserts the regenerated set, all inside a single
	// transaction. Visits in any other status are never touched.
	ReconcileRule(ctx context.Context, ruleID int64, cutoff time.Time, regenerated []model.Visit) (removed, created int64, err error)

	// DeleteRuleAndFutureVisits removes the rule itself together with its
	// future still-scheduled visits, in one transaction.
	DeleteRuleAndFutureVisits(ctx context.Context, ruleID int64, cutoff time.Time) (removed int64, err error)

	// ListStops returns the (coordinate, weekday) snapshot of every active,
	// non-paused rule whose customer has a geocoded address.
	ListStops(ctx context.Context) ([]bestfit.Stop, error)
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) DB() *gorm.DB {
	return s.db
}

func (s *gormStore) CreateRule(ctx context.Context, rule *model.RecurrenceRule) error {
	return s.db.WithContext(ctx).Create(rule).Error
}

func (s *gormStore) GetRule(ctx context.Context, id int64) (model.RecurrenceRule, error) {
	var rule model.RecurrenceRule
	err := s.db.WithContext(ctx).First(&rule, id).Error
	if err == gorm.ErrRecordNotFound {
		return rule, fmt.Errorf("%w: id %d", schedule.ErrRuleNotFound, id)
	}
	return rule, err
}

func (s *gormStore) UpdateRule(ctx context.Context, rule *model.RecurrenceRule) error {
	return s.db.WithContext(ctx).Save(rule).Error
}

// ListActiveRules returns non-paused rules, for one customer when
// customerID > 0 or for everyone otherwise.
func (s *gormStore) ListActiveRules(ctx context.Context, customerID int64) ([]model.RecurrenceRule, error) {
	q := s.db.WithContext(ctx).Where("paused = ?", false)
	if customerID > 0 {
		q = q.Where("customer_id = ?", customerID)
	}
	var rules []model.RecurrenceRule
	if err := q.Find(&rules).Error; err != nil {
		return nil, err
	}
	return rules, nil
}

func (s *gormStore) GetVisit(ctx context.Context, id int64) (model.Visit, error) {
	var v model.Visit
	err := s.db.WithContext(ctx).First(&v, id).Error
	return v, err
}

func (s *gormStore) ListVisits(ctx context.Context, filter VisitFilter) ([]model.Visit, error) {
	q := s.db.WithContext(ctx).Model(&model.Visit{})
	if filter.CustomerID != nil {
		q = q.Where("customer_id = ?", *filter.CustomerID)
	}
	if filter.RuleID != nil {
		q = q.Where("schedule_rule_id = ?", *filter.RuleID)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.From != nil {
		q = q.Where("date >= ?", *filter.From)
	}
	if filter.To != nil {
		q = q.Where("date <= ?", *filter.To)
	}
	var visits []model.Visit
	if err := q.Order("date ASC").Find(&visits).Error; err != nil {
		return nil, err
	}
	return visits, nil
}

func (s *gormStore) SaveVisit(ctx context.Context, v *model.Visit) error {
	return s.db.WithContext(ctx).Save(v).Error
}

// occurrenceKey is the conflict target that makes generation idempotent.
var occurrenceKey = clause.OnConflict{
	Columns: []clause.Column{
		{Name: "customer_id"},
		{Name: "schedule_rule_id"},
		{Name: "date"},
	},
	DoNothing: true,
}

func (s *gormStore) InsertVisits(ctx context.Context, visits []model.Visit) (int64, error) {
	if len(visits) == 0 {
		return 0, nil
	}
	res := s.db.WithContext(ctx).Clauses(occurrenceKey).Create(&visits)
	if res.Error != nil {
		return 0, fmt.Errorf("failed to insert visits: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func (s *gormStore) ReconcileRule(ctx context.Context, ruleID int64, cutoff time.Time, regenerated []model.Visit) (removed, created int64, err error) {
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var txErr error
		removed, txErr = deleteFutureScheduled(tx, ruleID, cutoff)
		if txErr != nil {
			return txErr
		}

		if len(regenerated) > 0 {
			res := tx.Clauses(occurrenceKey).Create(&regenerated)
			if res.Error != nil {
				return fmt.Errorf("failed to regenerate visits for rule %d: %w", ruleID, res.Error)
			}
			created = res.RowsAffected
		}

		return verifyNoDuplicates(tx, ruleID)
	})
	if err != nil {
		return 0, 0, err
	}
	return removed, created, nil
}

func (s *gormStore) DeleteRuleAndFutureVisits(ctx context.Context, ruleID int64, cutoff time.Time) (removed int64, err error) {
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var txErr error
		removed, txErr = deleteFutureScheduled(tx, ruleID, cutoff)
		if txErr != nil {
			return txErr
		}
		res := tx.Delete(&model.RecurrenceRule{}, ruleID)
		if res.Error != nil {
			return fmt.Errorf("failed to delete rule %d: %w", ruleID, res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: id %d", schedule.ErrRuleNotFound, ruleID)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}

// deleteFutureScheduled removes only still-scheduled visits on or after
// cutoff. Completed, in-progress and skipped visits are billing and audit
// records and are preserved unconditionally.
func deleteFutureScheduled(tx *gorm.DB, ruleID int64, cutoff time.Time) (int64, error) {
	res := tx.Where("schedule_rule_id = ? AND status = ? AND date >= ?",
		ruleID, model.VisitScheduled, cutoff).Delete(&model.Visit{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to delete future scheduled visits for rule %d: %w", ruleID, res.Error)
	}
	return res.RowsAffected, nil
}

// verifyNoDuplicates guards the one-visit-per-occurrence invariant after a
// reconciliation writes. The unique index should make a violation
// impossible; if one is found anyway the transaction is rolled back and the
// failure surfaces loudly.
func verifyNoDuplicates(tx *gorm.DB, ruleID int64) error {
	type dupRow struct {
		Date time.Time
		N    int64
	}
	var dups []dupRow
	err := tx.Model(&model.Visit{}).
		Select("date, COUNT(*) as n").
		Where("schedule_rule_id = ?", ruleID).
		Group("customer_id, schedule_rule_id, date").
		Having("COUNT(*) > 1").
		Scan(&dups).Error
	if err != nil {
		return fmt.Errorf("failed to verify visit uniqueness for rule %d: %w", ruleID, err)
	}
	if len(dups) > 0 {
		return fmt.Errorf("%w: rule %d has %d duplicated occurrence dates, first %s",
			schedule.ErrInconsistent, ruleID, len(dups), dups[0].Date.Format(schedule.DateLayout))
	}
	return nil
}

func (s *gormStore) ListStops(ctx context.Context) ([]bestfit.Stop, error) {
	var rules []model.RecurrenceRule
	err := s.db.WithContext(ctx).
		Preload("Customer").
		Where("paused = ?", false).
		Find(&rules).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load active rules: %w", err)
	}

	var stops []bestfit.Stop
	for _, rule := range rules {
		if !rule.Customer.HasCoordinate() {
			continue
		}
		coord := geo.Coordinate{Lat: *rule.Customer.Latitude, Lon: *rule.Customer.Longitude}
		for _, day := range rule.ByDay.Sorted() {
			stops = append(stops, bestfit.Stop{Weekday: day, Coordinate: coord})
		}
	}
	return stops, nil
}
