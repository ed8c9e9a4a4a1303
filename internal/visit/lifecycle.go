// Package visit implements the status state machine for a single visit.
package visit

import (
	"errors"
	"fmt"
	"time"

	"fieldservice-backend/internal/model"
)

// ErrInvalidTransition indicates a disallowed status change. The visit is
// left unchanged when it is returned.
var ErrInvalidTransition = errors.New("visit: invalid status transition")

// SkipInfo carries the audit metadata recorded when a visit is skipped.
type SkipInfo struct {
	By     string
	Reason string
	Notes  string
}

// Start moves a scheduled visit into in_progress.
func Start(v *model.Visit) error {
	if err := check(v.Status, model.VisitScheduled); err != nil {
		return err
	}
	v.Status = model.VisitInProgress
	return nil
}

// Complete moves an in-progress visit to completed and stamps the completion
// time. Completed is terminal.
func Complete(v *model.Visit, now time.Time) error {
	if err := check(v.Status, model.VisitInProgress); err != nil {
		return err
	}
	v.Status = model.VisitCompleted
	v.CompletedAt = &now
	return nil
}

// Skip marks a scheduled visit as skipped and records the skip metadata.
// Billable is deliberately left untouched: a skipped visit may still be
// billed (gate locked, pet not present).
func Skip(v *model.Visit, now time.Time, info SkipInfo) error {
	if err := check(v.Status, model.VisitScheduled); err != nil {
		return err
	}
	v.Status = model.VisitSkipped
	v.SkippedAt = &now
	v.SkippedBy = info.By
	v.SkipReason = info.Reason
	v.SkipNotes = info.Notes
	return nil
}

// Unskip restores a skipped visit to scheduled, clearing all skip metadata.
func Unskip(v *model.Visit) error {
	if err := check(v.Status, model.VisitSkipped); err != nil {
		return err
	}
	v.Status = model.VisitScheduled
	v.SkippedAt = nil
	v.SkippedBy = ""
	v.SkipReason = ""
	v.SkipNotes = ""
	return nil
}

func check(got, want model.VisitStatus) error {
	if got != want {
		return fmt.Errorf("%w: visit is %s, expected %s", ErrInvalidTransition, got, want)
	}
	return nil
}
