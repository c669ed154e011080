package order

import (
	"context"

	"github.com/google/uuid"
)

type OrderRepository interface {
	// Create inserts the order and its items in one statement batch.
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*Order, error)
	GetByNumber(ctx context.Context, number string) (*Order, error)
	// GetForUpdate locks the order row for the duration of the enclosing
	// transaction (SELECT ... FOR UPDATE).
	GetForUpdate(ctx context.Context, id uuid.UUID) (*Order, error)
	// UpdateStatus persists a status change together with the stock_committed
	// flag so commit-exactly-once survives crashes between steps.
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status, stockCommitted bool) error
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Order, int, error)
	Search(ctx context.Context, params map[string]string, limit, offset int) ([]*Order, int, error)
}
