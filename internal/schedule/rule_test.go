package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"fieldservice-backend/internal/model"
)

func validRule() model.RecurrenceRule {
	return model.RecurrenceRule{
		CustomerID:  1,
		Frequency:   model.FrequencyWeekly,
		ByDay:       model.WeekdaySet{1, 4},
		DTStart:     date(2026, time.January, 5),
		WindowStart: "08:00",
		WindowEnd:   "12:00",
		Timezone:    "America/New_York",
	}
}

func TestValidateRule(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(*model.RecurrenceRule)
		valid  bool
	}{
		{"valid rule", func(r *model.RecurrenceRule) {}, true},
		{"empty byDay is allowed", func(r *model.RecurrenceRule) { r.ByDay = nil }, true},
		{"empty timezone is allowed", func(r *model.RecurrenceRule) { r.Timezone = "" }, true},
		{"unknown frequency", func(r *model.RecurrenceRule) { r.Frequency = "monthly" }, false},
		{"weekday above range", func(r *model.RecurrenceRule) { r.ByDay = model.WeekdaySet{7} }, false},
		{"weekday below range", func(r *model.RecurrenceRule) { r.ByDay = model.WeekdaySet{-1} }, false},
		{"too many weekdays", func(r *model.RecurrenceRule) { r.ByDay = model.WeekdaySet{0, 1, 2, 3, 4, 5} }, false},
		{"missing dtStart", func(r *model.RecurrenceRule) { r.DTStart = time.Time{} }, false},
		{"malformed windowStart", func(r *model.RecurrenceRule) { r.WindowStart = "8am" }, false},
		{"malformed windowEnd", func(r *model.RecurrenceRule) { r.WindowEnd = "noon" }, false},
		{"window start at end", func(r *model.RecurrenceRule) { r.WindowStart = "12:00" }, false},
		{"window start after end", func(r *model.RecurrenceRule) { r.WindowStart = "14:00" }, false},
		{"bad timezone", func(r *model.RecurrenceRule) { r.Timezone = "Mars/Olympus" }, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rule := validRule()
			tc.mutate(&rule)
			err := ValidateRule(&rule)
			if tc.valid {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidRule)
			}
		})
	}
}

func TestNormalizeRule(t *testing.T) {
	t.Run("sorts and dedupes byDay", func(t *testing.T) {
		rule := validRule()
		rule.ByDay = model.WeekdaySet{4, 1, 4}
		NormalizeRule(&rule)
		assert.Equal(t, model.WeekdaySet{1, 4}, rule.ByDay)
	})

	t.Run("dtStart already on a selected weekday is untouched", func(t *testing.T) {
		rule := validRule() // Monday start, Monday selected
		NormalizeRule(&rule)
		assert.Equal(t, date(2026, time.January, 5), rule.DTStart)
	})

	t.Run("dtStart advances to the nearest selected weekday", func(t *testing.T) {
		rule := validRule()
		rule.ByDay = model.WeekdaySet{1}
		rule.DTStart = date(2026, time.January, 7) // Wednesday
		NormalizeRule(&rule)
		assert.Equal(t, date(2026, time.January, 12), rule.DTStart)
	})

	t.Run("one-off rules keep their literal start date", func(t *testing.T) {
		rule := validRule()
		rule.Frequency = model.FrequencyOneTime
		rule.DTStart = date(2026, time.January, 7)
		NormalizeRule(&rule)
		assert.Equal(t, date(2026, time.January, 7), rule.DTStart)
	})
}
