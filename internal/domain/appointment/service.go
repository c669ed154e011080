package appointment

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Service struct {
	appointments Repository
	cutoff       time.Duration
	now          func() time.Time
}

// NewService builds the appointment service. cutoff is the minimum lead time
// for patient-initiated cancels and reschedules.
func NewService(appointments Repository, cutoff time.Duration) *Service {
	return &Service{
		appointments: appointments,
		cutoff:       cutoff,
		now:          time.Now,
	}
}

// SetClock overrides the time source. Tests use this to pin the cutoff
// boundary.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

func (s *Service) Create(ctx context.Context, a *Appointment) error {
	if a.PatientID == uuid.Nil {
		return fmt.Errorf("patient_id is required")
	}
	if a.ProfessionalID == uuid.Nil {
		return fmt.Errorf("professional_id is required")
	}
	if a.FacilityID == uuid.Nil {
		return fmt.Errorf("facility_id is required")
	}
	if a.ScheduledAt.IsZero() || a.ScheduledAt.Before(s.now()) {
		return fmt.Errorf("scheduled_at must be in the future")
	}
	if a.Status == "" {
		a.Status = StatusPending
	}
	if !a.Status.Valid() {
		return fmt.Errorf("invalid status: %s", a.Status)
	}
	return s.appointments.Create(ctx, a)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.appointments.GetByID(ctx, id)
}

func (s *Service) Search(ctx context.Context, params map[string]string, limit, offset int) ([]*Appointment, int, error) {
	if v, ok := params["status"]; ok && !Status(v).Valid() {
		return nil, 0, fmt.Errorf("invalid status: %s", v)
	}
	return s.appointments.Search(ctx, params, limit, offset)
}

// AllowedActions returns the action set for the appointment at the current
// time.
func (s *Service) AllowedActions(ctx context.Context, id uuid.UUID) ([]Action, error) {
	a, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return a.AllowedActions(s.now(), s.cutoff), nil
}

// guardChange enforces both the transition table and the cutoff window for
// patient-initiated changes.
func (s *Service) guardChange(a *Appointment, to Status) error {
	if !a.Status.CanTransitionTo(to) {
		return &InvalidTransitionError{From: a.Status, To: to}
	}
	remaining := a.ScheduledAt.Sub(s.now())
	if remaining < s.cutoff {
		return &CutoffWindowError{HoursRemaining: remaining.Hours()}
	}
	return nil
}

// Cancel cancels the appointment, honoring the cutoff window.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	a, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.guardChange(a, StatusCancelled); err != nil {
		return nil, err
	}
	a.Status = StatusCancelled
	if err := s.appointments.Update(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// Reschedule moves the appointment to newTime, honoring the cutoff window on
// the current slot. The new slot must itself be outside the cutoff so the
// patient cannot sidestep the window by rescheduling into it.
func (s *Service) Reschedule(ctx context.Context, id uuid.UUID, newTime time.Time) (*Appointment, error) {
	a, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.guardChange(a, StatusRescheduled); err != nil {
		return nil, err
	}
	if newTime.Before(s.now().Add(s.cutoff)) {
		return nil, fmt.Errorf("new time must be at least %s away", s.cutoff)
	}
	a.ScheduledAt = newTime
	a.Status = StatusRescheduled
	if err := s.appointments.Update(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// transition applies a staff-side status change with no cutoff involved.
func (s *Service) transition(ctx context.Context, id uuid.UUID, to Status) (*Appointment, error) {
	a, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !a.Status.CanTransitionTo(to) {
		return nil, &InvalidTransitionError{From: a.Status, To: to}
	}
	a.Status = to
	if err := s.appointments.Update(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Service) Confirm(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.transition(ctx, id, StatusConfirmed)
}

func (s *Service) Complete(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.transition(ctx, id, StatusCompleted)
}

func (s *Service) MarkNoShow(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.transition(ctx, id, StatusNoShow)
}

// Cutoff exposes the configured change window.
func (s *Service) Cutoff() time.Duration {
	return s.cutoff
}
