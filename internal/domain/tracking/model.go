package tracking

import (
	"time"

	"github.com/google/uuid"
)

// Entry maps to the tracking_entry table. The table is append-only: entries
// are never updated or deleted, so the timeline is a faithful history of the
// order's progress.
type Entry struct {
	ID          uuid.UUID `db:"id" json:"id"`
	OrderID     uuid.UUID `db:"order_id" json:"order_id"`
	Status      string    `db:"status" json:"status"`
	Description *string   `db:"description" json:"description,omitempty"`
	Location    *string   `db:"location" json:"location,omitempty"`
	ActorID     *string   `db:"actor_id" json:"actor_id,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}
