package schedule

import "errors"

var (
	// ErrInvalidRule indicates a malformed recurrence rule. Validation
	// failures wrap this sentinel with a description of the bad field.
	ErrInvalidRule = errors.New("schedule: invalid rule")

	// ErrRuleNotFound indicates an operation referenced a rule id that
	// does not exist.
	ErrRuleNotFound = errors.New("schedule: rule not found")

	// ErrInconsistent indicates reconciliation found a partial write, e.g.
	// duplicate visits for one rule and date. It means the transactional
	// boundary was breached and must never be swallowed.
	ErrInconsistent = errors.New("schedule: visit set inconsistent after reconciliation")
)
