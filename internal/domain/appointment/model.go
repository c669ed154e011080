package appointment

import (
	"time"

	"github.com/google/uuid"
)

// Status is an appointment's lifecycle state.
type Status string

const (
	StatusPending     Status = "pending"
	StatusConfirmed   Status = "confirmed"
	StatusRescheduled Status = "rescheduled"
	StatusCompleted   Status = "completed"
	StatusCancelled   Status = "cancelled"
	StatusNoShow      Status = "no_show"
)

// transitions is the appointment state machine. A reschedule re-enters the
// pipeline and must be confirmed again; completed, cancelled, and no_show are
// terminal.
var transitions = map[Status][]Status{
	StatusPending:     {StatusConfirmed, StatusCancelled, StatusRescheduled},
	StatusConfirmed:   {StatusCompleted, StatusCancelled, StatusRescheduled, StatusNoShow},
	StatusRescheduled: {StatusConfirmed, StatusCancelled},
	StatusCompleted:   {},
	StatusCancelled:   {},
	StatusNoShow:      {},
}

// Valid reports whether s names a known status.
func (s Status) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// Terminal reports whether no further transition leaves s.
func (s Status) Terminal() bool {
	next, ok := transitions[s]
	return ok && len(next) == 0
}

// CanTransitionTo reports whether the state machine allows s -> next.
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Appointment maps to the appointment table.
type Appointment struct {
	ID             uuid.UUID `db:"id" json:"id"`
	PatientID      uuid.UUID `db:"patient_id" json:"patient_id"`
	ProfessionalID uuid.UUID `db:"professional_id" json:"professional_id"`
	FacilityID     uuid.UUID `db:"facility_id" json:"facility_id"`
	ScheduledAt    time.Time `db:"scheduled_at" json:"scheduled_at"`
	Status         Status    `db:"status" json:"status"`
	Reason         *string   `db:"reason" json:"reason,omitempty"`
	Notes          *string   `db:"notes" json:"notes,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// Action is something a patient or staff member may do with an appointment
// right now.
type Action string

const (
	ActionConfirm         Action = "confirm"
	ActionCancel          Action = "cancel"
	ActionReschedule      Action = "reschedule"
	ActionComplete        Action = "complete"
	ActionMarkNoShow      Action = "mark_no_show"
	ActionContactFacility Action = "contact_facility"
)

// AllowedActions computes the action set for the appointment at the given
// time. Cancel and reschedule additionally require the scheduled time to be at
// least cutoff away; exactly cutoff still qualifies. contact_facility is
// always available as the fallback.
func (a *Appointment) AllowedActions(now time.Time, cutoff time.Duration) []Action {
	actions := []Action{}
	outsideCutoff := !a.ScheduledAt.Before(now.Add(cutoff))

	if a.Status.CanTransitionTo(StatusConfirmed) {
		actions = append(actions, ActionConfirm)
	}
	if a.Status.CanTransitionTo(StatusCancelled) && outsideCutoff {
		actions = append(actions, ActionCancel)
	}
	if a.Status.CanTransitionTo(StatusRescheduled) && outsideCutoff {
		actions = append(actions, ActionReschedule)
	}
	if a.Status.CanTransitionTo(StatusCompleted) {
		actions = append(actions, ActionComplete)
	}
	if a.Status.CanTransitionTo(StatusNoShow) {
		actions = append(actions, ActionMarkNoShow)
	}
	actions = append(actions, ActionContactFacility)
	return actions
}
