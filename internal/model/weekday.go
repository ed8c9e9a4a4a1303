package model

import (
	"database/sql/driver"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// WeekdaySet is an ordered set of weekdays (0=Sunday..6=Saturday) persisted
// as a comma-joined string so it stays portable between Postgres and SQLite.
type WeekdaySet []int

// Value implements driver.Valuer.
func (w WeekdaySet) Value() (driver.Value, error) {
	if len(w) == 0 {
		return "", nil
	}
	parts := make([]string, len(w))
	for i, d := range w {
		parts[i] = strconv.Itoa(d)
	}
	return strings.Join(parts, ","), nil
}

// Scan implements sql.Scanner.
func (w *WeekdaySet) Scan(src any) error {
	var s string
	switch v := src.(type) {
	case nil:
		*w = nil
		return nil
	case string:
		s = v
	case []byte:
		s = string(v)
	default:
		return fmt.Errorf("weekday set: cannot scan %T", src)
	}
	if s == "" {
		*w = nil
		return nil
	}
	parts := strings.Split(s, ",")
	days := make(WeekdaySet, 0, len(parts))
	for _, p := range parts {
		d, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return fmt.Errorf("weekday set: bad element %q: %w", p, err)
		}
		days = append(days, d)
	}
	*w = days
	return nil
}

// Contains reports whether day is a member of the set.
func (w WeekdaySet) Contains(day int) bool {
	for _, d := range w {
		if d == day {
			return true
		}
	}
	return false
}

// Sorted returns a copy of the set in ascending weekday order with
// duplicates removed.
func (w WeekdaySet) Sorted() WeekdaySet {
	out := make(WeekdaySet, 0, len(w))
	seen := make(map[int]struct{}, len(w))
	for _, d := range w {
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		out = append(out, d)
	}
	sort.Ints(out)
	return out
}
