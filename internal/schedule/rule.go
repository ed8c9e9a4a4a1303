package schedule

import (
	"fmt"
	"time"

	"fieldservice-backend/internal/model"
)

const timeOfDayLayout = "15:04"

// ValidateRule checks a recurrence rule for structural problems. It returns
// an error wrapping ErrInvalidRule describing the first failure found.
func ValidateRule(rule *model.RecurrenceRule) error {
	switch rule.Frequency {
	case model.FrequencyWeekly, model.FrequencyBiweekly, model.FrequencyOneTime, model.FrequencyNewStart:
	default:
		return fmt.Errorf("%w: unknown frequency %q", ErrInvalidRule, rule.Frequency)
	}

	if rule.DTStart.IsZero() {
		return fmt.Errorf("%w: dtStart is required", ErrInvalidRule)
	}

	for _, d := range rule.ByDay {
		if d < 0 || d > 6 {
			return fmt.Errorf("%w: byDay element %d out of range 0-6", ErrInvalidRule, d)
		}
	}
	if rule.Frequency.Recurring() && len(rule.ByDay.Sorted()) > 5 {
		return fmt.Errorf("%w: byDay has %d members, at most 5 allowed", ErrInvalidRule, len(rule.ByDay.Sorted()))
	}

	start, err := time.Parse(timeOfDayLayout, rule.WindowStart)
	if err != nil {
		return fmt.Errorf("%w: windowStart %q is not HH:MM", ErrInvalidRule, rule.WindowStart)
	}
	end, err := time.Parse(timeOfDayLayout, rule.WindowEnd)
	if err != nil {
		return fmt.Errorf("%w: windowEnd %q is not HH:MM", ErrInvalidRule, rule.WindowEnd)
	}
	if !start.Before(end) {
		return fmt.Errorf("%w: windowStart %q must precede windowEnd %q", ErrInvalidRule, rule.WindowStart, rule.WindowEnd)
	}

	if rule.Timezone != "" {
		if _, err := time.LoadLocation(rule.Timezone); err != nil {
			return fmt.Errorf("%w: unknown timezone %q", ErrInvalidRule, rule.Timezone)
		}
	}

	return nil
}

// NormalizeRule prepares a validated rule for storage: byDay is sorted and
// de-duplicated, dtStart is truncated to a calendar date and, for recurring
// rules with selected weekdays, advanced forward to the nearest weekday that
// is a byDay member.
func NormalizeRule(rule *model.RecurrenceRule) {
	rule.ByDay = rule.ByDay.Sorted()
	rule.DTStart = DateOnly(rule.DTStart)

	if !rule.Frequency.Recurring() || len(rule.ByDay) == 0 {
		return
	}
	if rule.ByDay.Contains(int(rule.DTStart.Weekday())) {
		return
	}

	// Advance to the nearest selected weekday on or after dtStart.
	nearest := time.Time{}
	for _, d := range rule.ByDay {
		candidate := nextOnOrAfter(rule.DTStart, d)
		if nearest.IsZero() || candidate.Before(nearest) {
			nearest = candidate
		}
	}
	rule.DTStart = nearest
}
