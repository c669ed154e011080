package inventory

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pharmanet/pharmanet/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type stockRepoPG struct{ pool *pgxpool.Pool }

func NewStockRepoPG(pool *pgxpool.Pool) StockRepository {
	return &stockRepoPG{pool: pool}
}

func (r *stockRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const stockCols = `id, facility_id, medicine_id, quantity, unit_price, discount_price,
	expiry_date, batch_number, created_at, updated_at`

func scanEntry(row pgx.Row) (*StockEntry, error) {
	var e StockEntry
	err := row.Scan(&e.ID, &e.FacilityID, &e.MedicineID, &e.Quantity, &e.UnitPrice,
		&e.DiscountPrice, &e.ExpiryDate, &e.BatchNumber, &e.CreatedAt, &e.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return &e, err
}

func (r *stockRepoPG) Create(ctx context.Context, e *StockEntry) error {
	e.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO stock_entry (id, facility_id, medicine_id, quantity, unit_price,
			discount_price, expiry_date, batch_number)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		e.ID, e.FacilityID, e.MedicineID, e.Quantity, e.UnitPrice,
		e.DiscountPrice, e.ExpiryDate, e.BatchNumber)
	return err
}

func (r *stockRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*StockEntry, error) {
	return scanEntry(r.conn(ctx).QueryRow(ctx, `SELECT `+stockCols+` FROM stock_entry WHERE id = $1`, id))
}

func (r *stockRepoPG) GetEntry(ctx context.Context, facilityID, medicineID uuid.UUID) (*StockEntry, error) {
	return scanEntry(r.conn(ctx).QueryRow(ctx,
		`SELECT `+stockCols+` FROM stock_entry WHERE facility_id = $1 AND medicine_id = $2`,
		facilityID, medicineID))
}

func (r *stockRepoPG) Update(ctx context.Context, e *StockEntry) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE stock_entry SET unit_price=$2, discount_price=$3, expiry_date=$4,
			batch_number=$5, updated_at=NOW()
		WHERE id = $1`,
		e.ID, e.UnitPrice, e.DiscountPrice, e.ExpiryDate, e.BatchNumber)
	return err
}

func (r *stockRepoPG) ListByFacility(ctx context.Context, facilityID uuid.UUID, limit, offset int) ([]*StockEntry, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM stock_entry WHERE facility_id = $1`, facilityID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+stockCols+` FROM stock_entry WHERE facility_id = $1 ORDER BY medicine_id LIMIT $2 OFFSET $3`,
		facilityID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*StockEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, e)
	}
	return items, total, rows.Err()
}

// Adjust relies on a single conditional UPDATE: the row lock serializes
// concurrent callers, and the quantity guard makes over-decrement impossible
// without read-modify-write races.
func (r *stockRepoPG) Adjust(ctx context.Context, facilityID, medicineID uuid.UUID, delta int) (*StockEntry, bool, error) {
	row := r.conn(ctx).QueryRow(ctx, `
		UPDATE stock_entry
		SET quantity = quantity + $3, updated_at = NOW()
		WHERE facility_id = $1 AND medicine_id = $2 AND quantity + $3 >= 0
		RETURNING `+stockCols,
		facilityID, medicineID, delta)

	e, err := scanEntry(row)
	if err == nil {
		return e, true, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, false, err
	}

	// No row matched: either the entry does not exist or the guard failed.
	current, gerr := r.GetEntry(ctx, facilityID, medicineID)
	if gerr != nil {
		return nil, false, gerr
	}
	return current, false, nil
}

func (r *stockRepoPG) RecordMovement(ctx context.Context, mv *StockMovement) error {
	mv.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO stock_movement (id, facility_id, medicine_id, delta, reason,
			resulting_quantity, order_id, actor_id)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		mv.ID, mv.FacilityID, mv.MedicineID, mv.Delta, mv.Reason,
		mv.ResultingQuantity, mv.OrderID, mv.ActorID)
	return err
}

func (r *stockRepoPG) ListMovements(ctx context.Context, facilityID, medicineID uuid.UUID, limit, offset int) ([]*StockMovement, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM stock_movement WHERE facility_id = $1 AND medicine_id = $2`,
		facilityID, medicineID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, facility_id, medicine_id, delta, reason, resulting_quantity,
			order_id, actor_id, created_at
		FROM stock_movement
		WHERE facility_id = $1 AND medicine_id = $2
		ORDER BY created_at DESC LIMIT $3 OFFSET $4`,
		facilityID, medicineID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*StockMovement
	for rows.Next() {
		var mv StockMovement
		if err := rows.Scan(&mv.ID, &mv.FacilityID, &mv.MedicineID, &mv.Delta, &mv.Reason,
			&mv.ResultingQuantity, &mv.OrderID, &mv.ActorID, &mv.CreatedAt); err != nil {
			return nil, 0, err
		}
		items = append(items, &mv)
	}
	return items, total, rows.Err()
}
