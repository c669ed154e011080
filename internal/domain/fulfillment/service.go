// Package fulfillment orchestrates the multi-entity operations: placing and
// advancing orders, mutating stock, and patient-initiated appointment changes.
// Each operation runs inside a single transaction; notifications go out only
// after commit.
package fulfillment

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/pharmanet/pharmanet/internal/domain/appointment"
	"github.com/pharmanet/pharmanet/internal/domain/inventory"
	"github.com/pharmanet/pharmanet/internal/domain/order"
	"github.com/pharmanet/pharmanet/internal/domain/tracking"
	"github.com/pharmanet/pharmanet/internal/platform/notification"
)

// TxRunner runs fn inside a database transaction. Production wiring adapts
// db.WithTx; tests substitute a pass-through.
type TxRunner func(ctx context.Context, fn func(ctx context.Context) error) error

// Notifier is the fire-and-forget notification surface the orchestrator needs.
// *notification.Dispatcher satisfies it.
type Notifier interface {
	Dispatch(templateID string, data map[string]string, recipient string)
}

// Pricing carries the order-level charges applied at placement.
type Pricing struct {
	TaxRate     float64
	DeliveryFee float64
}

type Service struct {
	runTx        TxRunner
	orders       order.OrderRepository
	orderSvc     *order.Service
	stock        *inventory.Service
	timeline     *tracking.Service
	appointments *appointment.Service
	notifier     Notifier
	pricing      Pricing
	logger       zerolog.Logger
}

func NewService(
	runTx TxRunner,
	orders order.OrderRepository,
	orderSvc *order.Service,
	stock *inventory.Service,
	timeline *tracking.Service,
	appointments *appointment.Service,
	notifier Notifier,
	pricing Pricing,
	logger zerolog.Logger,
) *Service {
	return &Service{
		runTx:        runTx,
		orders:       orders,
		orderSvc:     orderSvc,
		stock:        stock,
		timeline:     timeline,
		appointments: appointments,
		notifier:     notifier,
		pricing:      pricing,
		logger:       logger,
	}
}

// PlaceOrder validates the cart, prices every line from the facility's stock
// entries, and persists the order as pending with its first tracking entry.
// Stock quantities are not touched until confirmation.
func (s *Service) PlaceOrder(ctx context.Context, o *order.Order) error {
	if err := s.orderSvc.ValidateNew(o); err != nil {
		return err
	}

	err := s.runTx(ctx, func(ctx context.Context) error {
		discount := 0.0
		for _, item := range o.Items {
			level, err := s.stock.GetLevel(ctx, o.FacilityID, item.MedicineID)
			if err != nil {
				return fmt.Errorf("medicine %s not stocked at facility: %w", item.MedicineID, err)
			}
			item.UnitPrice = level.UnitPrice
			discount += (level.UnitPrice - level.EffectivePrice()) * float64(item.Quantity)
		}
		// savings accumulate per line, so round once to keep the total exact
		o.Discount = math.Round(discount*100) / 100
		o.Status = order.StatusPending
		o.StockCommitted = false

		// tax applies to the subtotal, so compute totals twice
		o.Tax = 0
		o.DeliveryFee = s.pricing.DeliveryFee
		o.ComputeTotals()
		o.Tax = math.Round(o.Subtotal*s.pricing.TaxRate*100) / 100
		o.ComputeTotals()

		if err := s.orders.Create(ctx, o); err != nil {
			return err
		}
		desc := "order placed"
		return s.timeline.AppendEntry(ctx, &tracking.Entry{
			OrderID:     o.ID,
			Status:      string(order.StatusPending),
			Description: &desc,
		})
	})
	if err != nil {
		return err
	}

	s.notifier.Dispatch(notification.TemplateOrderPlaced, map[string]string{
		"order_number": o.OrderNumber,
		"total":        fmt.Sprintf("%.2f", o.Total),
	}, o.PatientID.String())
	return nil
}

// AdvanceOrder moves an order to the next status under the row lock. Stock is
// committed exactly once, at the transition into confirmed; cancelling a
// confirmed order releases what was committed.
func (s *Service) AdvanceOrder(ctx context.Context, orderID uuid.UUID, next order.Status, actorID *string, note *string) (*order.Order, error) {
	if !next.Valid() {
		return nil, fmt.Errorf("invalid status: %s", next)
	}

	var o *order.Order
	var lowLevels []*inventory.StockLevel

	err := s.runTx(ctx, func(ctx context.Context) error {
		var err error
		o, err = s.orders.GetForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if !o.Status.CanTransitionTo(next) {
			return &order.InvalidTransitionError{From: o.Status, To: next}
		}

		committed := o.StockCommitted
		switch {
		case next == order.StatusConfirmed && !committed:
			levels, err := s.stock.CommitStock(ctx, o.FacilityID, o.ID, demands(o))
			if err != nil {
				return err
			}
			committed = true
			for _, level := range levels {
				if level.Status != inventory.StatusInStock {
					lowLevels = append(lowLevels, level)
				}
			}
		case next == order.StatusCancelled && committed:
			if err := s.stock.ReleaseStock(ctx, o.FacilityID, o.ID, demands(o)); err != nil {
				return err
			}
			committed = false
		}

		if err := s.orders.UpdateStatus(ctx, o.ID, next, committed); err != nil {
			return err
		}
		o.Status = next
		o.StockCommitted = committed

		return s.timeline.AppendEntry(ctx, &tracking.Entry{
			OrderID:     o.ID,
			Status:      string(next),
			Description: note,
			ActorID:     actorID,
		})
	})
	if err != nil {
		return nil, err
	}

	template := notification.TemplateOrderStatusChanged
	if next == order.StatusCancelled {
		template = notification.TemplateOrderCancelled
	}
	s.notifier.Dispatch(template, map[string]string{
		"order_number": o.OrderNumber,
		"status":       string(next),
	}, o.PatientID.String())

	for _, level := range lowLevels {
		s.notifier.Dispatch(notification.TemplateLowStockAlert, map[string]string{
			"medicine": level.MedicineID.String(),
			"facility": level.FacilityID.String(),
			"quantity": strconv.Itoa(level.Quantity),
		}, "inventory-alerts")
	}
	return o, nil
}

func demands(o *order.Order) []inventory.Demand {
	out := make([]inventory.Demand, 0, len(o.Items))
	for _, item := range o.Items {
		out = append(out, inventory.Demand{MedicineID: item.MedicineID, Quantity: item.Quantity})
	}
	return out
}

// AddStock registers a stock entry through a transaction so the entry and its
// initial movement land together.
func (s *Service) AddStock(ctx context.Context, e *inventory.StockEntry, actorID *string) (*inventory.StockLevel, error) {
	var level *inventory.StockLevel
	err := s.runTx(ctx, func(ctx context.Context) error {
		var err error
		level, err = s.stock.AddStock(ctx, e, actorID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return level, nil
}

// AdjustStock applies a manual delta and raises a low-stock alert when the
// result crosses the threshold.
func (s *Service) AdjustStock(ctx context.Context, facilityID, medicineID uuid.UUID, delta int, reason string, actorID *string) (*inventory.StockLevel, error) {
	var level *inventory.StockLevel
	err := s.runTx(ctx, func(ctx context.Context) error {
		var err error
		level, err = s.stock.AdjustStock(ctx, facilityID, medicineID, delta, reason, actorID)
		return err
	})
	if err != nil {
		return nil, err
	}

	if level.Status != inventory.StatusInStock {
		s.notifier.Dispatch(notification.TemplateLowStockAlert, map[string]string{
			"medicine": medicineID.String(),
			"facility": facilityID.String(),
			"quantity": strconv.Itoa(level.Quantity),
		}, "inventory-alerts")
	}
	return level, nil
}

// CancelAppointment applies the cutoff guard and notifies the patient.
func (s *Service) CancelAppointment(ctx context.Context, id uuid.UUID) (*appointment.Appointment, error) {
	a, err := s.appointments.Cancel(ctx, id)
	if err != nil {
		return nil, err
	}
	s.notifier.Dispatch(notification.TemplateAppointmentCancelled, map[string]string{
		"facility": a.FacilityID.String(),
		"date":     a.ScheduledAt.Format("2006-01-02"),
		"time":     a.ScheduledAt.Format("15:04"),
	}, a.PatientID.String())
	return a, nil
}

// RescheduleAppointment applies the cutoff guard on both the old and new slot
// and notifies the patient.
func (s *Service) RescheduleAppointment(ctx context.Context, id uuid.UUID, newTime time.Time) (*appointment.Appointment, error) {
	old, err := s.appointments.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	oldTime := old.ScheduledAt

	a, err := s.appointments.Reschedule(ctx, id, newTime)
	if err != nil {
		return nil, err
	}
	s.notifier.Dispatch(notification.TemplateAppointmentRescheduled, map[string]string{
		"facility": a.FacilityID.String(),
		"old_date": oldTime.Format("2006-01-02"),
		"new_date": a.ScheduledAt.Format("2006-01-02"),
		"new_time": a.ScheduledAt.Format("15:04"),
	}, a.PatientID.String())
	return a, nil
}
