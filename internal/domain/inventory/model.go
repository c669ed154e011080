package inventory

import (
	"time"

	"github.com/google/uuid"
)

// StockStatus is the derived availability classification of a stock entry.
type StockStatus string

const (
	StatusInStock    StockStatus = "in_stock"
	StatusLowStock   StockStatus = "low_stock"
	StatusOutOfStock StockStatus = "out_of_stock"
)

// StockEntry maps to the stock_entry table. One row per (facility, medicine)
// pair; quantity never goes below zero (enforced by a CHECK constraint and the
// conditional update in the repository).
type StockEntry struct {
	ID            uuid.UUID  `db:"id" json:"id"`
	FacilityID    uuid.UUID  `db:"facility_id" json:"facility_id"`
	MedicineID    uuid.UUID  `db:"medicine_id" json:"medicine_id"`
	Quantity      int        `db:"quantity" json:"quantity"`
	UnitPrice     float64    `db:"unit_price" json:"unit_price"`
	DiscountPrice *float64   `db:"discount_price" json:"discount_price,omitempty"`
	ExpiryDate    *time.Time `db:"expiry_date" json:"expiry_date,omitempty"`
	BatchNumber   *string    `db:"batch_number" json:"batch_number,omitempty"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updated_at"`
}

// Status classifies the entry against the low-stock threshold. Quantity zero is
// always out_of_stock regardless of threshold.
func (e *StockEntry) Status(threshold int) StockStatus {
	switch {
	case e.Quantity == 0:
		return StatusOutOfStock
	case e.Quantity <= threshold:
		return StatusLowStock
	default:
		return StatusInStock
	}
}

// EffectivePrice is the price a line item is charged at: the discount price
// when present, the unit price otherwise.
func (e *StockEntry) EffectivePrice() float64 {
	if e.DiscountPrice != nil && *e.DiscountPrice > 0 && *e.DiscountPrice < e.UnitPrice {
		return *e.DiscountPrice
	}
	return e.UnitPrice
}

// StockLevel is a StockEntry with its derived status, as returned by the
// read endpoints.
type StockLevel struct {
	StockEntry
	Status StockStatus `json:"status"`
}

// Movement reasons recorded in the stock_movement audit trail.
const (
	ReasonInitialStock = "initial_stock"
	ReasonAdjustment   = "adjustment"
	ReasonOrderCommit  = "order_commit"
	ReasonOrderRelease = "order_release"
)

// StockMovement maps to the stock_movement table. Every quantity change writes
// one row; ResultingQuantity is the quantity after the change applied.
type StockMovement struct {
	ID                uuid.UUID  `db:"id" json:"id"`
	FacilityID        uuid.UUID  `db:"facility_id" json:"facility_id"`
	MedicineID        uuid.UUID  `db:"medicine_id" json:"medicine_id"`
	Delta             int        `db:"delta" json:"delta"`
	Reason            string     `db:"reason" json:"reason"`
	ResultingQuantity int        `db:"resulting_quantity" json:"resulting_quantity"`
	OrderID           *uuid.UUID `db:"order_id" json:"order_id,omitempty"`
	ActorID           *string    `db:"actor_id" json:"actor_id,omitempty"`
	CreatedAt         time.Time  `db:"created_at" json:"created_at"`
}

// Demand is one line of stock required from a facility, used when committing
// an order.
type Demand struct {
	MedicineID uuid.UUID
	Quantity   int
}
