package model

import "time"

// Frequency enumerates the supported recurrence cadences.
type Frequency string

const (
	FrequencyWeekly   Frequency = "weekly"
	FrequencyBiweekly Frequency = "biweekly"
	// One-off cadences: a single visit billed by duration, not expanded
	// by the recurrence engine beyond its start date.
	FrequencyOneTime  Frequency = "one_time"
	FrequencyNewStart Frequency = "new_start"
)

// Recurring reports whether the frequency repeats on a weekly period.
func (f Frequency) Recurring() bool {
	return f == FrequencyWeekly || f == FrequencyBiweekly
}

// PeriodDays returns the step between occurrences of the same weekday,
// or 0 for non-recurring frequencies.
func (f Frequency) PeriodDays() int {
	switch f {
	case FrequencyWeekly:
		return 7
	case FrequencyBiweekly:
		return 14
	default:
		return 0
	}
}

// RecurrenceRule is the durable description of a customer's visit cadence.
type RecurrenceRule struct {
	ID         int64      `gorm:"primaryKey"`
	CustomerID int64      `gorm:"index;not null"`
	Frequency  Frequency  `gorm:"size:16;not null"`
	ByDay      WeekdaySet `gorm:"size:32"`
	// DTStart is a calendar date stored at UTC midnight. Its weekday is
	// corrected to the nearest ByDay member when the rule is created.
	DTStart     time.Time `gorm:"not null"`
	WindowStart string    `gorm:"size:8;not null"` // "08:00", local time of day
	WindowEnd   string    `gorm:"size:8;not null"`
	Timezone    string    `gorm:"size:64;not null"`
	Paused      bool      `gorm:"not null;default:false"`
	Notes       string    `gorm:"size:1024"`
	Addons      string    `gorm:"size:1024"`
	CreatedAt   time.Time `gorm:"not null"`
	UpdatedAt   time.Time `gorm:"not null"`

	// Associations
	Customer Customer `gorm:"constraint:OnDelete:CASCADE"`
}
