package order

import (
	"context"
	"errors"
	"fmt"
	"strings"

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

type orderRepoPG struct{ pool *pgxpool.Pool }

func NewOrderRepoPG(pool *pgxpool.Pool) OrderRepository {
	return &orderRepoPG{pool: pool}
}

func (r *orderRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const orderCols = `id, order_number, facility_id, patient_id, status, subtotal, tax,
	delivery_fee, discount, total, payment_method, delivery_address, delivery_city,
	contact_phone, notes, stock_committed, created_at, updated_at`

func scanOrder(row pgx.Row) (*Order, error) {
	var o Order
	err := row.Scan(&o.ID, &o.OrderNumber, &o.FacilityID, &o.PatientID, &o.Status,
		&o.Subtotal, &o.Tax, &o.DeliveryFee, &o.Discount, &o.Total, &o.PaymentMethod,
		&o.DeliveryAddress, &o.DeliveryCity, &o.ContactPhone, &o.Notes,
		&o.StockCommitted, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return &o, err
}

func (r *orderRepoPG) Create(ctx context.Context, o *Order) error {
	o.ID = uuid.New()
	if o.OrderNumber == "" {
		o.OrderNumber = NewOrderNumber()
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO orders (id, order_number, facility_id, patient_id, status, subtotal,
			tax, delivery_fee, discount, total, payment_method, delivery_address,
			delivery_city, contact_phone, notes, stock_committed)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)`,
		o.ID, o.OrderNumber, o.FacilityID, o.PatientID, o.Status, o.Subtotal,
		o.Tax, o.DeliveryFee, o.Discount, o.Total, o.PaymentMethod, o.DeliveryAddress,
		o.DeliveryCity, o.ContactPhone, o.Notes, o.StockCommitted)
	if err != nil {
		return err
	}
	for _, item := range o.Items {
		item.ID = uuid.New()
		item.OrderID = o.ID
		_, err := r.conn(ctx).Exec(ctx, `
			INSERT INTO order_item (id, order_id, medicine_id, quantity, unit_price, line_total)
			VALUES ($1,$2,$3,$4,$5,$6)`,
			item.ID, item.OrderID, item.MedicineID, item.Quantity, item.UnitPrice, item.LineTotal)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *orderRepoPG) loadItems(ctx context.Context, o *Order) error {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, order_id, medicine_id, quantity, unit_price, line_total
		FROM order_item WHERE order_id = $1 ORDER BY id`, o.ID)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var item OrderItem
		if err := rows.Scan(&item.ID, &item.OrderID, &item.MedicineID,
			&item.Quantity, &item.UnitPrice, &item.LineTotal); err != nil {
			return err
		}
		o.Items = append(o.Items, &item)
	}
	return rows.Err()
}

func (r *orderRepoPG) getBy(ctx context.Context, clause string, arg interface{}) (*Order, error) {
	o, err := scanOrder(r.conn(ctx).QueryRow(ctx,
		`SELECT `+orderCols+` FROM orders WHERE `+clause, arg))
	if err != nil {
		return nil, err
	}
	if err := r.loadItems(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

func (r *orderRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Order, error) {
	return r.getBy(ctx, `id = $1`, id)
}

func (r *orderRepoPG) GetByNumber(ctx context.Context, number string) (*Order, error) {
	return r.getBy(ctx, `order_number = $1`, number)
}

func (r *orderRepoPG) GetForUpdate(ctx context.Context, id uuid.UUID) (*Order, error) {
	return r.getBy(ctx, `id = $1 FOR UPDATE`, id)
}

func (r *orderRepoPG) UpdateStatus(ctx context.Context, id uuid.UUID, status Status, stockCommitted bool) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE orders SET status = $2, stock_committed = $3, updated_at = NOW()
		WHERE id = $1`, id, status, stockCommitted)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *orderRepoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Order, int, error) {
	return r.Search(ctx, map[string]string{"patient_id": patientID.String()}, limit, offset)
}

func (r *orderRepoPG) Search(ctx context.Context, params map[string]string, limit, offset int) ([]*Order, int, error) {
	where := []string{"1=1"}
	args := []interface{}{}
	if v, ok := params["patient_id"]; ok {
		args = append(args, v)
		where = append(where, fmt.Sprintf("patient_id = $%d", len(args)))
	}
	if v, ok := params["facility_id"]; ok {
		args = append(args, v)
		where = append(where, fmt.Sprintf("facility_id = $%d", len(args)))
	}
	if v, ok := params["status"]; ok {
		args = append(args, v)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM orders WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, limit, offset)
	rows, err := r.conn(ctx).Query(ctx, fmt.Sprintf(
		`SELECT %s FROM orders WHERE %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		orderCols, cond, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, o)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	for _, o := range items {
		if err := r.loadItems(ctx, o); err != nil {
			return nil, 0, err
		}
	}
	return items, total, nil
}
