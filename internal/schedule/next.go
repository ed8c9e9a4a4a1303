package schedule

import (
	"time"

	"fieldservice-backend/internal/model"
)

// NextOccurrence derives the rule's next occurrence on or after today without
// materializing the full visit set. It walks each weekday's own anchored
// sequence, so the answer always agrees with what Expand would produce for
// the same rule. The second return is false when the rule is paused or has no
// occurrence left (a one-off already in the past, or no selected weekdays).
func NextOccurrence(rule model.RecurrenceRule, today time.Time) (time.Time, bool) {
	if rule.Paused {
		return time.Time{}, false
	}
	today = DateOnly(today)

	best := time.Time{}
	for _, a := range ruleAnchors(rule) {
		candidate := a.firstOnOrAfter(today)
		if candidate.IsZero() {
			continue
		}
		if best.IsZero() || candidate.Before(best) {
			best = candidate
		}
	}
	return best, !best.IsZero()
}

// NextVisit is the answer to "when is this customer next visited?".
type NextVisit struct {
	RuleID      int64     `json:"ruleId"`
	Date        time.Time `json:"-"`
	DateString  string    `json:"date"`
	WindowStart string    `json:"windowStart"`
	WindowEnd   string    `json:"windowEnd"`
}

// NextForCustomer reports the minimum next occurrence across a customer's
// active rules, tie-broken by windowStart ascending. Paused rules are
// skipped. The second return is false when no rule has a future occurrence.
func NextForCustomer(rules []model.RecurrenceRule, today time.Time) (NextVisit, bool) {
	var best NextVisit
	found := false
	for _, rule := range rules {
		date, ok := NextOccurrence(rule, today)
		if !ok {
			continue
		}
		better := !found ||
			date.Before(best.Date) ||
			(date.Equal(best.Date) && rule.WindowStart < best.WindowStart)
		if better {
			best = NextVisit{
				RuleID:      rule.ID,
				Date:        date,
				DateString:  date.Format(DateLayout),
				WindowStart: rule.WindowStart,
				WindowEnd:   rule.WindowEnd,
			}
			found = true
		}
	}
	return best, found
}
