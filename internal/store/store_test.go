package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"fieldservice-backend/internal/model"
	"fieldservice-backend/internal/schedule"
)

// newTestDB opens a throwaway SQLite database with the full schema applied.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(&model.Customer{}, &model.RecurrenceRule{}, &model.Visit{}, &model.PushSubscription{})
	require.NoError(t, err)
	return db
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func seedRule(t *testing.T, db *gorm.DB) *model.RecurrenceRule {
	t.Helper()
	customer := model.Customer{Name: "Smith", Address: "12 Oak Lane"}
	require.NoError(t, db.Create(&customer).Error)

	rule := model.RecurrenceRule{
		CustomerID:  customer.ID,
		Frequency:   model.FrequencyWeekly,
		ByDay:       model.WeekdaySet{1},
		DTStart:     date(2026, time.January, 5),
		WindowStart: "08:00",
		WindowEnd:   "12:00",
		Timezone:    "UTC",
	}
	require.NoError(t, db.Create(&rule).Error)
	return &rule
}

func visitOn(rule *model.RecurrenceRule, day time.Time, status model.VisitStatus) model.Visit {
	return model.Visit{
		CustomerID:     rule.CustomerID,
		ScheduleRuleID: &rule.ID,
		Date:           day,
		Status:         status,
		Billable:       true,
		WindowStart:    rule.WindowStart,
		WindowEnd:      rule.WindowEnd,
	}
}

func TestInsertVisitsIdempotent(t *testing.T) {
	db := newTestDB(t)
	s := NewGormStore(db)
	ctx := context.Background()
	rule := seedRule(t, db)

	batch := []model.Visit{
		visitOn(rule, date(2026, time.January, 5), model.VisitScheduled),
		visitOn(rule, date(2026, time.January, 12), model.VisitScheduled),
		visitOn(rule, date(2026, time.January, 19), model.VisitScheduled),
	}

	created, err := s.InsertVisits(ctx, batch)
	require.NoError(t, err)
	assert.Equal(t, int64(3), created)

	// Re-inserting the same occurrences must not duplicate anything.
	again := []model.Visit{
		visitOn(rule, date(2026, time.January, 5), model.VisitScheduled),
		visitOn(rule, date(2026, time.January, 12), model.VisitScheduled),
		visitOn(rule, date(2026, time.January, 19), model.VisitScheduled),
	}
	created, err = s.InsertVisits(ctx, again)
	require.NoError(t, err)
	assert.Equal(t, int64(0), created)

	var count int64
	db.Model(&model.Visit{}).Count(&count)
	assert.Equal(t, int64(3), count)
}

func TestReconcileRulePreservesHistory(t *testing.T) {
	db := newTestDB(t)
	s := NewGormStore(db)
	ctx := context.Background()
	rule := seedRule(t, db)

	completed := visitOn(rule, date(2026, time.January, 5), model.VisitCompleted)
	inProgress := visitOn(rule, date(2026, time.January, 12), model.VisitInProgress)
	future1 := visitOn(rule, date(2026, time.January, 19), model.VisitScheduled)
	future2 := visitOn(rule, date(2026, time.January, 26), model.VisitScheduled)
	for _, v := range []*model.Visit{&completed, &inProgress, &future1, &future2} {
		require.NoError(t, db.Create(v).Error)
	}

	// Reconcile as of Jan 12: the two future scheduled visits go, the
	// completed and in-progress ones stay, and Tuesdays come back instead.
	regenerated := []model.Visit{
		visitOn(rule, date(2026, time.January, 13), model.VisitScheduled),
		visitOn(rule, date(2026, time.January, 20), model.VisitScheduled),
	}
	removed, created, err := s.ReconcileRule(ctx, rule.ID, date(2026, time.January, 13), regenerated)
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)
	assert.Equal(t, int64(2), created)

	var remaining []model.Visit
	require.NoError(t, db.Order("date ASC").Find(&remaining).Error)
	require.Len(t, remaining, 4)
	assert.Equal(t, model.VisitCompleted, remaining[0].Status)
	assert.Equal(t, model.VisitInProgress, remaining[1].Status)
	assert.Equal(t, date(2026, time.January, 13), remaining[2].Date)
	assert.Equal(t, date(2026, time.January, 20), remaining[3].Date)
}

func TestReconcileRuleEmptyRegeneration(t *testing.T) {
	db := newTestDB(t)
	s := NewGormStore(db)
	ctx := context.Background()
	rule := seedRule(t, db)

	future := visitOn(rule, date(2026, time.January, 19), model.VisitScheduled)
	require.NoError(t, db.Create(&future).Error)

	// Pausing reconciles with nothing to regenerate.
	removed, created, err := s.ReconcileRule(ctx, rule.ID, date(2026, time.January, 6), nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)
	assert.Equal(t, int64(0), created)

	var count int64
	db.Model(&model.Visit{}).Count(&count)
	assert.Equal(t, int64(0), count)
}

func TestDeleteRuleAndFutureVisits(t *testing.T) {
	db := newTestDB(t)
	s := NewGormStore(db)
	ctx := context.Background()
	rule := seedRule(t, db)

	completed := visitOn(rule, date(2026, time.January, 5), model.VisitCompleted)
	future := visitOn(rule, date(2026, time.January, 19), model.VisitScheduled)
	require.NoError(t, db.Create(&completed).Error)
	require.NoError(t, db.Create(&future).Error)

	removed, err := s.DeleteRuleAndFutureVisits(ctx, rule.ID, date(2026, time.January, 6))
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	var ruleCount int64
	db.Model(&model.RecurrenceRule{}).Count(&ruleCount)
	assert.Equal(t, int64(0), ruleCount)

	// The completed visit is an audit record and survives rule deletion.
	var remaining []model.Visit
	require.NoError(t, db.Find(&remaining).Error)
	require.Len(t, remaining, 1)
	assert.Equal(t, model.VisitCompleted, remaining[0].Status)
}

func TestDeleteRuleNotFound(t *testing.T) {
	db := newTestDB(t)
	s := NewGormStore(db)

	_, err := s.DeleteRuleAndFutureVisits(context.Background(), 9999, date(2026, time.January, 6))
	assert.ErrorIs(t, err, schedule.ErrRuleNotFound)
}

func TestListStops(t *testing.T) {
	db := newTestDB(t)
	s := NewGormStore(db)
	ctx := context.Background()

	lat, lon := 40.0, -75.0
	located := model.Customer{Name: "Located", Address: "1 Main St", Latitude: &lat, Longitude: &lon}
	unlocated := model.Customer{Name: "Unlocated", Address: "2 Main St"}
	require.NoError(t, db.Create(&located).Error)
	require.NoError(t, db.Create(&unlocated).Error)

	rules := []model.RecurrenceRule{
		{CustomerID: located.ID, Frequency: model.FrequencyWeekly, ByDay: model.WeekdaySet{1, 4},
			DTStart: date(2026, time.January, 5), WindowStart: "08:00", WindowEnd: "12:00", Timezone: "UTC"},
		{CustomerID: located.ID, Frequency: model.FrequencyWeekly, ByDay: model.WeekdaySet{2},
			DTStart: date(2026, time.January, 6), WindowStart: "08:00", WindowEnd: "12:00", Timezone: "UTC", Paused: true},
		{CustomerID: unlocated.ID, Frequency: model.FrequencyWeekly, ByDay: model.WeekdaySet{3},
			DTStart: date(2026, time.January, 7), WindowStart: "08:00", WindowEnd: "12:00", Timezone: "UTC"},
	}
	for i := range rules {
		require.NoError(t, db.Create(&rules[i]).Error)
	}

	stops, err := s.ListStops(ctx)
	require.NoError(t, err)

	// Only the located customer's non-paused rule contributes, one stop per
	// selected weekday.
	require.Len(t, stops, 2)
	assert.Equal(t, 1, stops[0].Weekday)
	assert.Equal(t, 4, stops[1].Weekday)
	assert.Equal(t, 40.0, stops[0].Coordinate.Lat)
}
