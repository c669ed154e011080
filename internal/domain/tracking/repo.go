package tracking

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrNotFound is returned when an order has no tracking entries.
var ErrNotFound = errors.New("tracking: no entries for order")

// Repository deliberately offers no update or delete: the timeline only grows.
type Repository interface {
	Append(ctx context.Context, e *Entry) error
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]*Entry, error)
	Latest(ctx context.Context, orderID uuid.UUID) (*Entry, error)
}
