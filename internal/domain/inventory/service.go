package inventory

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

type Service struct {
	stock     StockRepository
	threshold int
}

// NewService builds the inventory service. threshold is the low-stock
// boundary: quantities in (0, threshold] classify as low_stock.
func NewService(stock StockRepository, threshold int) *Service {
	return &Service{stock: stock, threshold: threshold}
}

func (s *Service) level(e *StockEntry) *StockLevel {
	return &StockLevel{StockEntry: *e, Status: e.Status(s.threshold)}
}

// AddStock registers a medicine in a facility's inventory and writes the
// initial movement row.
func (s *Service) AddStock(ctx context.Context, e *StockEntry, actorID *string) (*StockLevel, error) {
	if e.FacilityID == uuid.Nil {
		return nil, fmt.Errorf("facility_id is required")
	}
	if e.MedicineID == uuid.Nil {
		return nil, fmt.Errorf("medicine_id is required")
	}
	if e.Quantity < 0 {
		return nil, fmt.Errorf("quantity must not be negative")
	}
	if e.UnitPrice <= 0 {
		return nil, fmt.Errorf("unit_price must be positive")
	}
	if e.DiscountPrice != nil && *e.DiscountPrice > e.UnitPrice {
		return nil, fmt.Errorf("discount_price must not exceed unit_price")
	}
	if err := s.stock.Create(ctx, e); err != nil {
		return nil, err
	}
	mv := &StockMovement{
		FacilityID:        e.FacilityID,
		MedicineID:        e.MedicineID,
		Delta:             e.Quantity,
		Reason:            ReasonInitialStock,
		ResultingQuantity: e.Quantity,
		ActorID:           actorID,
	}
	if err := s.stock.RecordMovement(ctx, mv); err != nil {
		return nil, err
	}
	return s.level(e), nil
}

// AdjustStock applies a manual correction (restock, damage, expiry write-off).
// The caller's reason is recorded on the movement row; an empty reason falls
// back to the generic adjustment class. A delta that would take the quantity
// negative is rejected with InsufficientStockError.
func (s *Service) AdjustStock(ctx context.Context, facilityID, medicineID uuid.UUID, delta int, reason string, actorID *string) (*StockLevel, error) {
	if delta == 0 {
		return nil, fmt.Errorf("delta must not be zero")
	}
	if reason == "" {
		reason = ReasonAdjustment
	}
	e, ok, err := s.stock.Adjust(ctx, facilityID, medicineID, delta)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &InsufficientStockError{Shortfalls: []Shortfall{{
			MedicineID: medicineID,
			Requested:  -delta,
			Available:  e.Quantity,
		}}}
	}
	mv := &StockMovement{
		FacilityID:        facilityID,
		MedicineID:        medicineID,
		Delta:             delta,
		Reason:            reason,
		ResultingQuantity: e.Quantity,
		ActorID:           actorID,
	}
	if err := s.stock.RecordMovement(ctx, mv); err != nil {
		return nil, err
	}
	return s.level(e), nil
}

// CommitStock decrements every demand line or none. It must run inside a
// transaction: partial decrements are undone by the caller's rollback when a
// shortfall is reported. All shortfalls are collected so the caller sees the
// full picture, not just the first failing line.
func (s *Service) CommitStock(ctx context.Context, facilityID, orderID uuid.UUID, demands []Demand) ([]*StockLevel, error) {
	var shortfalls []Shortfall
	var levels []*StockLevel
	for _, d := range demands {
		e, ok, err := s.stock.Adjust(ctx, facilityID, d.MedicineID, -d.Quantity)
		if err != nil {
			return nil, err
		}
		if !ok {
			shortfalls = append(shortfalls, Shortfall{
				MedicineID: d.MedicineID,
				Requested:  d.Quantity,
				Available:  e.Quantity,
			})
			continue
		}
		mv := &StockMovement{
			FacilityID:        facilityID,
			MedicineID:        d.MedicineID,
			Delta:             -d.Quantity,
			Reason:            ReasonOrderCommit,
			ResultingQuantity: e.Quantity,
			OrderID:           &orderID,
		}
		if err := s.stock.RecordMovement(ctx, mv); err != nil {
			return nil, err
		}
		levels = append(levels, s.level(e))
	}
	if len(shortfalls) > 0 {
		return nil, &InsufficientStockError{Shortfalls: shortfalls}
	}
	return levels, nil
}

// ReleaseStock returns previously committed quantities to inventory, used when
// a confirmed order is cancelled.
func (s *Service) ReleaseStock(ctx context.Context, facilityID, orderID uuid.UUID, demands []Demand) error {
	for _, d := range demands {
		e, ok, err := s.stock.Adjust(ctx, facilityID, d.MedicineID, d.Quantity)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("release stock for medicine %s: unexpected guard failure", d.MedicineID)
		}
		mv := &StockMovement{
			FacilityID:        facilityID,
			MedicineID:        d.MedicineID,
			Delta:             d.Quantity,
			Reason:            ReasonOrderRelease,
			ResultingQuantity: e.Quantity,
			OrderID:           &orderID,
		}
		if err := s.stock.RecordMovement(ctx, mv); err != nil {
			return err
		}
	}
	return nil
}

// GetLevel returns the stock entry with its derived classification.
func (s *Service) GetLevel(ctx context.Context, facilityID, medicineID uuid.UUID) (*StockLevel, error) {
	e, err := s.stock.GetEntry(ctx, facilityID, medicineID)
	if err != nil {
		return nil, err
	}
	return s.level(e), nil
}

// ListLevels returns a facility's inventory with derived classifications.
func (s *Service) ListLevels(ctx context.Context, facilityID uuid.UUID, limit, offset int) ([]*StockLevel, int, error) {
	entries, total, err := s.stock.ListByFacility(ctx, facilityID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	levels := make([]*StockLevel, 0, len(entries))
	for _, e := range entries {
		levels = append(levels, s.level(e))
	}
	return levels, total, nil
}

// ListMovements returns the audit trail for one facility/medicine pair.
func (s *Service) ListMovements(ctx context.Context, facilityID, medicineID uuid.UUID, limit, offset int) ([]*StockMovement, int, error) {
	return s.stock.ListMovements(ctx, facilityID, medicineID, limit, offset)
}

// UpdatePricing changes an entry's prices and batch details without touching
// quantity.
func (s *Service) UpdatePricing(ctx context.Context, e *StockEntry) error {
	if e.UnitPrice <= 0 {
		return fmt.Errorf("unit_price must be positive")
	}
	if e.DiscountPrice != nil && *e.DiscountPrice > e.UnitPrice {
		return fmt.Errorf("discount_price must not exceed unit_price")
	}
	return s.stock.Update(ctx, e)
}

// Threshold exposes the configured low-stock boundary.
func (s *Service) Threshold() int {
	return s.threshold
}
