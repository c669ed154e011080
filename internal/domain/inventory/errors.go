package inventory

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrNotFound is returned when no stock entry exists for the requested
// facility/medicine pair.
var ErrNotFound = errors.New("inventory: stock entry not found")

// Shortfall describes one medicine whose available quantity could not cover
// the requested amount.
type Shortfall struct {
	MedicineID uuid.UUID `json:"medicine_id"`
	Requested  int       `json:"requested"`
	Available  int       `json:"available"`
}

// InsufficientStockError reports every shortfall found while committing a
// demand set, not just the first one.
type InsufficientStockError struct {
	Shortfalls []Shortfall
}

func (e *InsufficientStockError) Error() string {
	if len(e.Shortfalls) == 1 {
		s := e.Shortfalls[0]
		return fmt.Sprintf("insufficient stock for medicine %s: requested %d, available %d",
			s.MedicineID, s.Requested, s.Available)
	}
	return fmt.Sprintf("insufficient stock for %d medicines", len(e.Shortfalls))
}
