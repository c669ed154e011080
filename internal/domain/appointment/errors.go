package appointment

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when an appointment does not exist.
var ErrNotFound = errors.New("appointment: not found")

// InvalidTransitionError reports a status change the state machine forbids.
type InvalidTransitionError struct {
	From Status
	To   Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid appointment transition: %s -> %s", e.From, e.To)
}

// CutoffWindowError reports a cancel or reschedule attempted inside the
// cutoff window. HoursRemaining may be negative for past appointments.
type CutoffWindowError struct {
	HoursRemaining float64
}

func (e *CutoffWindowError) Error() string {
	if e.HoursRemaining < 0 {
		return "appointment is in the past"
	}
	return fmt.Sprintf("appointment is %.1f hours away, inside the change cutoff window", e.HoursRemaining)
}
