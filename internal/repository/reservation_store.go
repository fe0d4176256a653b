package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/example/checkout-stock-reservation/internal/model"
	"github.com/example/checkout-stock-reservation/internal/reservation"
)

// dbtx is the subset of *sql.DB and *sql.Tx the store issues
// queries through.  Holding it as a field lets the same methods run
// directly on the pool or inside the stock-lock transaction.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// ReservationStore persists stock reservations on MySQL.  It
// implements reservation.Store; WithStockLock serializes writers on
// a stock via SELECT ... FOR UPDATE on the stock row.
type ReservationStore struct {
	db *sql.DB
	q  dbtx
}

// NewReservationStore returns a ReservationStore bound to the given
// database.
func NewReservationStore(db *sql.DB) *ReservationStore {
	return &ReservationStore{db: db, q: db}
}

// StockByID loads one stock row.  Returns
// reservation.ErrStockNotFound for an unknown id.
func (s *ReservationStore) StockByID(ctx context.Context, stockID uint64) (*model.Stock, error) {
	const q = `SELECT id, warehouse_id, variant_id, quantity, updated_at FROM stocks WHERE id = ?`
	var st model.Stock
	err := s.q.QueryRowContext(ctx, q, stockID).Scan(&st.ID, &st.WarehouseID, &st.VariantID, &st.Quantity, &st.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, reservation.ErrStockNotFound
	}
	if err != nil {
		return nil, err
	}
	return &st, nil
}

// CheckoutIDForLine resolves the checkout owning a line.  Returns
// reservation.ErrLineNotFound for an unknown id.
func (s *ReservationStore) CheckoutIDForLine(ctx context.Context, lineID uint64) (uint64, error) {
	var checkoutID uint64
	err := s.q.QueryRowContext(ctx, `SELECT checkout_id FROM checkout_lines WHERE id = ?`, lineID).Scan(&checkoutID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, reservation.ErrLineNotFound
	}
	if err != nil {
		return 0, err
	}
	return checkoutID, nil
}

// ActiveReservations returns the holds on a stock with
// reserved_until strictly after asOf.  When excludeCheckoutID is
// non-zero, holds whose line belongs to that checkout are skipped,
// so a checkout is never counted against itself.
func (s *ReservationStore) ActiveReservations(ctx context.Context, stockID uint64, asOf time.Time, excludeCheckoutID uint64) ([]model.Reservation, error) {
	query := `SELECT r.id, r.checkout_line_id, r.stock_id, r.quantity_reserved, r.reserved_until, r.created_at
              FROM stock_reservations r
              JOIN checkout_lines cl ON cl.id = r.checkout_line_id
              WHERE r.stock_id = ? AND r.reserved_until > ?`
	args := []any{stockID, asOf.UTC()}
	if excludeCheckoutID != 0 {
		query += ` AND cl.checkout_id <> ?`
		args = append(args, excludeCheckoutID)
	}
	query += ` ORDER BY r.id`
	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Reservation
	for rows.Next() {
		var r model.Reservation
		if err := rows.Scan(&r.ID, &r.CheckoutLineID, &r.StockID, &r.QuantityReserved, &r.ReservedUntil, &r.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// InsertReservation persists a hold and fills in its generated ID.
func (s *ReservationStore) InsertReservation(ctx context.Context, r *model.Reservation) error {
	const q = `INSERT INTO stock_reservations (checkout_line_id, stock_id, quantity_reserved, reserved_until, created_at)
               VALUES (?, ?, ?, ?, ?)`
	result, err := s.q.ExecContext(ctx, q, r.CheckoutLineID, r.StockID, r.QuantityReserved, r.ReservedUntil.UTC(), r.CreatedAt.UTC())
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	r.ID = uint64(id)
	return nil
}

// DeleteReservationsByLine removes every hold of the line and
// reports the number of rows deleted.  Zero rows is not an error.
func (s *ReservationStore) DeleteReservationsByLine(ctx context.Context, lineID uint64) (int64, error) {
	result, err := s.q.ExecContext(ctx, `DELETE FROM stock_reservations WHERE checkout_line_id = ?`, lineID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// DeleteExpiredReservations removes holds whose reserved_until is
// at or before asOf and reports the number of rows deleted.
func (s *ReservationStore) DeleteExpiredReservations(ctx context.Context, asOf time.Time) (int64, error) {
	result, err := s.q.ExecContext(ctx, `DELETE FROM stock_reservations WHERE reserved_until <= ?`, asOf.UTC())
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// WithStockLock opens a transaction, takes an exclusive row lock on
// the stock with SELECT ... FOR UPDATE and runs fn with a store
// bound to that transaction.  The transaction commits when fn
// returns nil and rolls back otherwise, so the availability
// re-check and the insert inside fn are serializable against
// concurrent reservations on the same stock.  Lock hold time is
// bounded to the single fn call.
func (s *ReservationStore) WithStockLock(ctx context.Context, stockID uint64, fn func(ctx context.Context, tx reservation.Store) error) error {
	if _, nested := s.q.(*sql.Tx); nested {
		return errors.New("reservation store: stock lock is not reentrant")
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	var id uint64
	err = tx.QueryRowContext(ctx, `SELECT id FROM stocks WHERE id = ? FOR UPDATE`, stockID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return reservation.ErrStockNotFound
	}
	if err != nil {
		return err
	}
	locked := &ReservationStore{db: s.db, q: tx}
	if err := fn(ctx, locked); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}
