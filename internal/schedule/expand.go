package schedule

import (
	"sort"
	"time"

	"fieldservice-backend/internal/model"
)

// anchor is one independently-anchored occurrence sequence. A multi-day rule
// yields one anchor per selected weekday, each starting at the first date on
// or after dtStart that falls on that weekday. Modelling the sequences as a
// fixed set derived once from the rule avoids drift when weekdays are added
// to or removed from a live rule.
type anchor struct {
	weekday    int
	start      time.Time // UTC midnight
	periodDays int       // 0 for one-off frequencies
}

// ruleAnchors derives the occurrence sequences for a rule.
func ruleAnchors(rule model.RecurrenceRule) []anchor {
	start := DateOnly(rule.DTStart)

	if !rule.Frequency.Recurring() {
		// One-time and new-start visits occur exactly once, on dtStart.
		return []anchor{{weekday: int(start.Weekday()), start: start}}
	}

	days := rule.ByDay.Sorted()
	out := make([]anchor, 0, len(days))
	for _, d := range days {
		out = append(out, anchor{
			weekday:    d,
			start:      nextOnOrAfter(start, d),
			periodDays: rule.Frequency.PeriodDays(),
		})
	}
	return out
}

// firstOnOrAfter returns the earliest occurrence of the sequence that is on
// or after from, or the zero time if the sequence cannot reach it.
func (a anchor) firstOnOrAfter(from time.Time) time.Time {
	if !a.start.Before(from) {
		return a.start
	}
	if a.periodDays == 0 {
		return time.Time{} // one-off already in the past
	}
	gap := daysBetween(a.start, from)
	steps := gap / a.periodDays
	if gap%a.periodDays != 0 {
		steps++
	}
	return a.start.AddDate(0, 0, steps*a.periodDays)
}

// Expand materializes the occurrence dates of a rule within [from, horizon],
// both inclusive, sorted ascending. A rule with no selected weekdays expands
// to nothing; a horizon before dtStart is a no-op. Expansion is pure; making
// repeated generation idempotent is the store's upsert concern.
func Expand(rule model.RecurrenceRule, from, horizon time.Time) []time.Time {
	from = DateOnly(from)
	horizon = DateOnly(horizon)
	if horizon.Before(from) {
		return nil
	}

	var dates []time.Time
	for _, a := range ruleAnchors(rule) {
		cur := a.firstOnOrAfter(from)
		if cur.IsZero() {
			continue
		}
		for !cur.After(horizon) {
			dates = append(dates, cur)
			if a.periodDays == 0 {
				break
			}
			cur = cur.AddDate(0, 0, a.periodDays)
		}
	}

	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates
}
