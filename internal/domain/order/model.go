package order

import (
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Status is an order's position in the fulfillment pipeline.
type Status string

const (
	StatusPending        Status = "pending"
	StatusConfirmed      Status = "confirmed"
	StatusPreparing      Status = "preparing"
	StatusOutForDelivery Status = "out_for_delivery"
	StatusDelivered      Status = "delivered"
	StatusCancelled      Status = "cancelled"
)

// transitions is the full state machine. Cancellation is only reachable before
// preparation starts; delivered and cancelled are terminal.
var transitions = map[Status][]Status{
	StatusPending:        {StatusConfirmed, StatusCancelled},
	StatusConfirmed:      {StatusPreparing, StatusCancelled},
	StatusPreparing:      {StatusOutForDelivery},
	StatusOutForDelivery: {StatusDelivered},
	StatusDelivered:      {},
	StatusCancelled:      {},
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

// Valid payment methods accepted at placement.
var ValidPaymentMethods = map[string]bool{
	"cash": true, "card": true, "mobile_wallet": true, "insurance": true,
}

// Order maps to the orders table.
type Order struct {
	ID              uuid.UUID    `db:"id" json:"id"`
	OrderNumber     string       `db:"order_number" json:"order_number"`
	FacilityID      uuid.UUID    `db:"facility_id" json:"facility_id"`
	PatientID       uuid.UUID    `db:"patient_id" json:"patient_id"`
	Status          Status       `db:"status" json:"status"`
	Subtotal        float64      `db:"subtotal" json:"subtotal"`
	Tax             float64      `db:"tax" json:"tax"`
	DeliveryFee     float64      `db:"delivery_fee" json:"delivery_fee"`
	Discount        float64      `db:"discount" json:"discount"`
	Total           float64      `db:"total" json:"total"`
	PaymentMethod   string       `db:"payment_method" json:"payment_method"`
	DeliveryAddress *string      `db:"delivery_address" json:"delivery_address,omitempty"`
	DeliveryCity    *string      `db:"delivery_city" json:"delivery_city,omitempty"`
	ContactPhone    *string      `db:"contact_phone" json:"contact_phone,omitempty"`
	Notes           *string      `db:"notes" json:"notes,omitempty"`
	StockCommitted  bool         `db:"stock_committed" json:"stock_committed"`
	Items           []*OrderItem `db:"-" json:"items,omitempty"`
	CreatedAt       time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time    `db:"updated_at" json:"updated_at"`
}

// OrderItem maps to the order_item table.
type OrderItem struct {
	ID         uuid.UUID `db:"id" json:"id"`
	OrderID    uuid.UUID `db:"order_id" json:"order_id"`
	MedicineID uuid.UUID `db:"medicine_id" json:"medicine_id"`
	Quantity   int       `db:"quantity" json:"quantity"`
	UnitPrice  float64   `db:"unit_price" json:"unit_price"`
	LineTotal  float64   `db:"line_total" json:"line_total"`
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// ComputeTotals recalculates line totals, subtotal, and total from the items
// and the order's tax, delivery fee, and discount. Totals always satisfy
// total = subtotal + tax + delivery_fee - discount.
func (o *Order) ComputeTotals() {
	subtotal := 0.0
	for _, item := range o.Items {
		item.LineTotal = round2(float64(item.Quantity) * item.UnitPrice)
		subtotal += item.LineTotal
	}
	o.Subtotal = round2(subtotal)
	o.Total = round2(o.Subtotal + o.Tax + o.DeliveryFee - o.Discount)
}

// NewOrderNumber generates a short human-readable order reference.
func NewOrderNumber() string {
	return "ORD-" + strings.ToUpper(uuid.New().String()[:8])
}
