package inventory

import (
	"context"

	"github.com/google/uuid"
)

type StockRepository interface {
	Create(ctx context.Context, e *StockEntry) error
	GetByID(ctx context.Context, id uuid.UUID) (*StockEntry, error)
	GetEntry(ctx context.Context, facilityID, medicineID uuid.UUID) (*StockEntry, error)
	Update(ctx context.Context, e *StockEntry) error
	ListByFacility(ctx context.Context, facilityID uuid.UUID, limit, offset int) ([]*StockEntry, int, error)
	// Adjust applies delta atomically. The update only matches when the
	// resulting quantity stays non-negative; ok=false means the delta could
	// not be applied (the entry exists but quantity is too low).
	Adjust(ctx context.Context, facilityID, medicineID uuid.UUID, delta int) (entry *StockEntry, ok bool, err error)
	RecordMovement(ctx context.Context, mv *StockMovement) error
	ListMovements(ctx context.Context, facilityID, medicineID uuid.UUID, limit, offset int) ([]*StockMovement, int, error)
}
