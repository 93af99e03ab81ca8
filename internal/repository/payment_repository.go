package repository

import (
	"context"
	"database/sql"

	"github.com/bookease/bookease/internal/model"
)

// PaymentRepo persists payment rows.  Payments are only ever written
// inside the checkout transaction, one per booking, so the repository
// exposes a Tx-scoped create and a plain read.
type PaymentRepo struct {
	db *sql.DB
}

// NewPaymentRepo returns a new PaymentRepo bound to the given database.
func NewPaymentRepo(db *sql.DB) *PaymentRepo { return &PaymentRepo{db: db} }

// CreateTx inserts a payment within the scope of an existing
// transaction.  The caller supplies the UUID id and transaction id.
func (r *PaymentRepo) CreateTx(ctx context.Context, tx *sql.Tx, p *model.Payment) error {
	const q = `INSERT INTO payments (id, booking_id, amount, platform_commission, provider_payout, method, status, transaction_id)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := tx.ExecContext(ctx, q, p.ID, p.BookingID, p.Amount, p.PlatformCommission,
		p.ProviderPayout, p.Method, p.Status, p.TransactionID)
	return err
}

// GetByBookingID returns the payment settling a booking, or
// sql.ErrNoRows when none exists.
func (r *PaymentRepo) GetByBookingID(ctx context.Context, bookingID string) (*model.Payment, error) {
	const q = `SELECT id, booking_id, amount, platform_commission, provider_payout, method, status, transaction_id, created_at
	           FROM payments WHERE booking_id = ? LIMIT 1`
	var p model.Payment
	err := r.db.QueryRowContext(ctx, q, bookingID).Scan(&p.ID, &p.BookingID, &p.Amount,
		&p.PlatformCommission, &p.ProviderPayout, &p.Method, &p.Status, &p.TransactionID, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
