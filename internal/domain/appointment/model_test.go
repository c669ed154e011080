package appointment

import (
	"testing"
	"time"
)

func TestStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from Status
		to   Status
		want bool
	}{
		{StatusPending, StatusConfirmed, true},
		{StatusPending, StatusCancelled, true},
		{StatusPending, StatusRescheduled, true},
		{StatusPending, StatusCompleted, false},
		{StatusPending, StatusNoShow, false},
		{StatusConfirmed, StatusCompleted, true},
		{StatusConfirmed, StatusCancelled, true},
		{StatusConfirmed, StatusRescheduled, true},
		{StatusConfirmed, StatusNoShow, true},
		{StatusRescheduled, StatusConfirmed, true},
		{StatusRescheduled, StatusCancelled, true},
		{StatusRescheduled, StatusCompleted, false},
		{StatusCompleted, StatusCancelled, false},
		{StatusCancelled, StatusPending, false},
		{StatusNoShow, StatusConfirmed, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"_to_"+string(tt.to), func(t *testing.T) {
			if got := tt.from.CanTransitionTo(tt.to); got != tt.want {
				t.Errorf("%s -> %s = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestStatus_Terminal(t *testing.T) {
	for _, s := range []Status{StatusCompleted, StatusCancelled, StatusNoShow} {
		if !s.Terminal() {
			t.Errorf("%s should be terminal", s)
		}
	}
	for _, s := range []Status{StatusPending, StatusConfirmed, StatusRescheduled} {
		if s.Terminal() {
			t.Errorf("%s should not be terminal", s)
		}
	}
}

func hasAction(actions []Action, want Action) bool {
	for _, a := range actions {
		if a == want {
			return true
		}
	}
	return false
}

func TestAllowedActions_OutsideCutoff(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	a := &Appointment{Status: StatusPending, ScheduledAt: now.Add(48 * time.Hour)}

	actions := a.AllowedActions(now, 24*time.Hour)
	for _, want := range []Action{ActionConfirm, ActionCancel, ActionReschedule, ActionContactFacility} {
		if !hasAction(actions, want) {
			t.Errorf("missing action %q in %v", want, actions)
		}
	}
	if hasAction(actions, ActionComplete) || hasAction(actions, ActionMarkNoShow) {
		t.Errorf("pending appointment should not allow complete or no-show: %v", actions)
	}
}

func TestAllowedActions_CutoffBoundary(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	cutoff := 24 * time.Hour

	// exactly 24h out: still allowed
	exact := &Appointment{Status: StatusConfirmed, ScheduledAt: now.Add(24 * time.Hour)}
	actions := exact.AllowedActions(now, cutoff)
	if !hasAction(actions, ActionCancel) || !hasAction(actions, ActionReschedule) {
		t.Errorf("exactly at cutoff should allow cancel and reschedule: %v", actions)
	}

	// one minute inside: blocked
	inside := &Appointment{Status: StatusConfirmed, ScheduledAt: now.Add(24*time.Hour - time.Minute)}
	actions = inside.AllowedActions(now, cutoff)
	if hasAction(actions, ActionCancel) || hasAction(actions, ActionReschedule) {
		t.Errorf("inside cutoff should block cancel and reschedule: %v", actions)
	}
	if !hasAction(actions, ActionContactFacility) {
		t.Error("contact_facility should always be present")
	}
}

func TestAllowedActions_PastAppointment(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	past := &Appointment{Status: StatusConfirmed, ScheduledAt: now.Add(-time.Hour)}

	actions := past.AllowedActions(now, 24*time.Hour)
	if hasAction(actions, ActionCancel) || hasAction(actions, ActionReschedule) {
		t.Errorf("past appointment should block cancel and reschedule: %v", actions)
	}
	if !hasAction(actions, ActionMarkNoShow) {
		t.Errorf("past confirmed appointment should allow no-show: %v", actions)
	}
}

func TestAllowedActions_Terminal(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	done := &Appointment{Status: StatusCompleted, ScheduledAt: now.Add(48 * time.Hour)}

	actions := done.AllowedActions(now, 24*time.Hour)
	if len(actions) != 1 || actions[0] != ActionContactFacility {
		t.Errorf("terminal appointment should only allow contact_facility, got %v", actions)
	}
}
