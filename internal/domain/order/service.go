package order

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// Service covers the read side of orders plus cart validation. Mutations run
// through the fulfillment orchestrator, which owns the transaction.
type Service struct {
	orders OrderRepository
}

func NewService(orders OrderRepository) *Service {
	return &Service{orders: orders}
}

// ValidateNew checks an order before placement. Totals are not checked here;
// the orchestrator recomputes them from stock prices.
func (s *Service) ValidateNew(o *Order) error {
	if o.FacilityID == uuid.Nil {
		return fmt.Errorf("facility_id is required")
	}
	if o.PatientID == uuid.Nil {
		return fmt.Errorf("patient_id is required")
	}
	if len(o.Items) == 0 {
		return fmt.Errorf("order must contain at least one item")
	}
	seen := make(map[uuid.UUID]bool, len(o.Items))
	for _, item := range o.Items {
		if item.MedicineID == uuid.Nil {
			return fmt.Errorf("item medicine_id is required")
		}
		if item.Quantity <= 0 {
			return fmt.Errorf("item quantity must be positive")
		}
		if seen[item.MedicineID] {
			return fmt.Errorf("duplicate item for medicine %s", item.MedicineID)
		}
		seen[item.MedicineID] = true
	}
	if o.PaymentMethod == "" {
		o.PaymentMethod = "cash"
	}
	if !ValidPaymentMethods[o.PaymentMethod] {
		return fmt.Errorf("invalid payment method: %s", o.PaymentMethod)
	}
	return nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Order, error) {
	return s.orders.GetByID(ctx, id)
}

func (s *Service) GetByNumber(ctx context.Context, number string) (*Order, error) {
	return s.orders.GetByNumber(ctx, number)
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Order, int, error) {
	return s.orders.ListByPatient(ctx, patientID, limit, offset)
}

func (s *Service) Search(ctx context.Context, params map[string]string, limit, offset int) ([]*Order, int, error) {
	if v, ok := params["status"]; ok && !Status(v).Valid() {
		return nil, 0, fmt.Errorf("invalid status: %s", v)
	}
	return s.orders.Search(ctx, params, limit, offset)
}
