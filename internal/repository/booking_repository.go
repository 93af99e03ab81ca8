package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bookease/bookease/internal/model"
	"github.com/bookease/bookease/internal/utils"
)

// BookingRepo provides CRUD operations for bookings and the order
// read model built on top of them.  Bookings are written exclusively
// inside the checkout transaction; the read side joins each booking
// to its payment row (if any) by booking id.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo returns a new BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

// DB exposes the underlying handle so handlers can open transactions
// spanning multiple repositories.
func (r *BookingRepo) DB() *sql.DB { return r.db }

// CreateTx inserts a booking within the scope of an existing
// transaction.  The caller supplies the UUID id and must commit or
// roll back the transaction.
func (r *BookingRepo) CreateTx(ctx context.Context, tx *sql.Tx, b *model.Booking) error {
	var provider interface{}
	if b.ProviderID != nil {
		provider = *b.ProviderID
	}
	const q = `INSERT INTO bookings (id, user_id, provider_id, service_type, scheduled_at, duration_minutes, status, total_amount)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := tx.ExecContext(ctx, q, b.ID, b.UserID, provider, b.ServiceType,
		b.ScheduledAt.UTC(), b.DurationMinutes, b.Status, b.TotalAmount)
	return err
}

// OrderDetail is the customer-facing view of a booking joined with its
// payment.  It is derived at read time and never persisted: the order
// number comes from the booking id and creation year, the platform fee
// is the commission stored on the payment at checkout, and the total
// is subtotal + fee.  Monetary fields are fixed 2-decimal strings.
type OrderDetail struct {
	OrderNumber     string  `json:"order_number"`
	BookingID       string  `json:"booking_id"`
	ServiceType     string  `json:"service_type"`
	ProviderID      *uint64 `json:"provider_id,omitempty"`
	ScheduledAt     string  `json:"scheduled_at"`
	DurationMinutes uint32  `json:"duration_minutes"`
	Status          string  `json:"status"`
	Subtotal        string  `json:"subtotal"`
	PlatformFee     string  `json:"platform_fee"`
	TotalAmount     string  `json:"total_amount"`
	PaymentMethod   *string `json:"payment_method,omitempty"`
	PaymentStatus   *string `json:"payment_status,omitempty"`
	TransactionID   *string `json:"transaction_id,omitempty"`
	CreatedAt       string  `json:"created_at"`
}

const orderQuery = `SELECT b.id, b.provider_id, b.service_type, b.scheduled_at, b.duration_minutes,
                           b.status, b.total_amount, b.created_at,
                           p.platform_commission, p.method, p.status, p.transaction_id
                    FROM bookings b
                    LEFT JOIN payments p ON p.booking_id = b.id`

// scanOrder builds one OrderDetail from a joined row.  A booking
// written before the payment (which the checkout transaction makes
// impossible, but old data may predate it) gets a zero fee.
func scanOrder(scan func(dest ...interface{}) error) (*OrderDetail, error) {
	var (
		det         OrderDetail
		provider    sql.NullInt64
		scheduledAt time.Time
		createdAt   time.Time
		subtotal    decimal.Decimal
		commission  decimal.NullDecimal
		method      sql.NullString
		payStatus   sql.NullString
		txnID       sql.NullString
	)
	if err := scan(&det.BookingID, &provider, &det.ServiceType, &scheduledAt, &det.DurationMinutes,
		&det.Status, &subtotal, &createdAt,
		&commission, &method, &payStatus, &txnID); err != nil {
		return nil, err
	}
	if provider.Valid {
		pid := uint64(provider.Int64)
		det.ProviderID = &pid
	}
	fee := decimal.Zero
	if commission.Valid {
		fee = commission.Decimal
	}
	det.OrderNumber = utils.OrderNumber(det.BookingID, createdAt)
	det.ScheduledAt = scheduledAt.UTC().Format(time.RFC3339)
	det.CreatedAt = createdAt.UTC().Format(time.RFC3339)
	det.Subtotal = subtotal.StringFixed(2)
	det.PlatformFee = fee.StringFixed(2)
	det.TotalAmount = subtotal.Add(fee).StringFixed(2)
	if method.Valid {
		m := method.String
		det.PaymentMethod = &m
	}
	if payStatus.Valid {
		s := payStatus.String
		det.PaymentStatus = &s
	}
	if txnID.Valid {
		tid := txnID.String
		det.TransactionID = &tid
	}
	return &det, nil
}

// ListOrdersByUser returns all of the user's orders, newest first.
func (r *BookingRepo) ListOrdersByUser(ctx context.Context, userID uint64) ([]OrderDetail, error) {
	const q = orderQuery + ` WHERE b.user_id = ? ORDER BY b.created_at DESC, b.id DESC`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	orders := make([]OrderDetail, 0)
	for rows.Next() {
		det, err := scanOrder(rows.Scan)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *det)
	}
	return orders, rows.Err()
}

// GetOrderByIDForUser returns a single order restricted to the
// requesting user.  Ownership is enforced in the query itself, so a
// booking owned by someone else is indistinguishable from a missing
// one: both yield sql.ErrNoRows.
func (r *BookingRepo) GetOrderByIDForUser(ctx context.Context, bookingID string, userID uint64) (*OrderDetail, error) {
	const q = orderQuery + ` WHERE b.id = ? AND b.user_id = ?`
	return scanOrder(r.db.QueryRowContext(ctx, q, bookingID, userID).Scan)
}

// GetCancelInfoForUserTx loads the fields cancellation needs, FOR
// UPDATE.  It returns sql.ErrNoRows when the booking does not exist
// and ErrForbidden when it belongs to a different user.
func (r *BookingRepo) GetCancelInfoForUserTx(ctx context.Context, tx *sql.Tx, bookingID string, userID uint64) (scheduledAt time.Time, status string, err error) {
	const q = `SELECT user_id, scheduled_at, status FROM bookings WHERE id = ? FOR UPDATE`
	var owner uint64
	if err = tx.QueryRowContext(ctx, q, bookingID).Scan(&owner, &scheduledAt, &status); err != nil {
		return time.Time{}, "", err
	}
	if owner != userID {
		return time.Time{}, "", ErrForbidden
	}
	return scheduledAt, status, nil
}

// CancelTx marks a booking CANCELLED within the transaction.
func (r *BookingRepo) CancelTx(ctx context.Context, tx *sql.Tx, bookingID string) error {
	const q = `UPDATE bookings SET status = ?, updated_at = ? WHERE id = ?`
	_, err := tx.ExecContext(ctx, q, model.BookingStatusCancelled, time.Now().UTC(), bookingID)
	return err
}
