package tracking

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/pharmanet/pharmanet/internal/domain/order"
)

type Service struct {
	entries Repository
}

func NewService(entries Repository) *Service {
	return &Service{entries: entries}
}

// AppendEntry records a tracking event. The status must be a known order
// status; consistency with the previous entry is the orchestrator's job, since
// it holds the order row lock.
func (s *Service) AppendEntry(ctx context.Context, e *Entry) error {
	if e.OrderID == uuid.Nil {
		return fmt.Errorf("order_id is required")
	}
	if !order.Status(e.Status).Valid() {
		return fmt.Errorf("invalid status: %s", e.Status)
	}
	return s.entries.Append(ctx, e)
}

// GetTimeline returns all entries for an order, oldest first.
func (s *Service) GetTimeline(ctx context.Context, orderID uuid.UUID) ([]*Entry, error) {
	return s.entries.ListByOrder(ctx, orderID)
}

// GetCurrentStatus returns the latest entry for an order.
func (s *Service) GetCurrentStatus(ctx context.Context, orderID uuid.UUID) (*Entry, error) {
	return s.entries.Latest(ctx, orderID)
}

// CheckConsistency verifies that the timeline's statuses follow the order
// state machine. A healthy ledger always passes; a failure indicates writes
// that bypassed the orchestrator.
func (s *Service) CheckConsistency(ctx context.Context, orderID uuid.UUID) error {
	timeline, err := s.entries.ListByOrder(ctx, orderID)
	if err != nil {
		return err
	}
	for i := 1; i < len(timeline); i++ {
		prev := order.Status(timeline[i-1].Status)
		next := order.Status(timeline[i].Status)
		if !prev.CanTransitionTo(next) {
			return fmt.Errorf("inconsistent timeline for order %s: %s -> %s at entry %d",
				orderID, prev, next, i)
		}
	}
	return nil
}
