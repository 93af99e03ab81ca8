package repository

import (
	"context"
	"database/sql"
	"encoding/json"
)

// CheckoutRepo is the idempotency ledger for checkout.  Each row maps
// (user, Idempotency-Key) to the serialized confirmation response the
// first successful checkout produced.  The row is written inside the
// checkout transaction, so a key either exists with its full response
// or not at all; a retried request replays the stored response
// instead of booking again.
type CheckoutRepo struct {
	db *sql.DB
}

// NewCheckoutRepo returns a new CheckoutRepo bound to the given database.
func NewCheckoutRepo(db *sql.DB) *CheckoutRepo { return &CheckoutRepo{db: db} }

// FindByKey returns the stored response for the user's idempotency
// key, or sql.ErrNoRows when the key has not been used.
func (r *CheckoutRepo) FindByKey(ctx context.Context, userID uint64, key string) (json.RawMessage, error) {
	const q = `SELECT response FROM checkout_requests WHERE user_id = ? AND idempotency_key = ? LIMIT 1`
	var raw []byte
	if err := r.db.QueryRowContext(ctx, q, userID, key).Scan(&raw); err != nil {
		return nil, err
	}
	return json.RawMessage(raw), nil
}

// InsertTx records the key and its response within the checkout
// transaction.  The UNIQUE(user_id, idempotency_key) constraint makes
// two concurrent checkouts with the same key serialize: the loser's
// insert fails and its whole transaction rolls back.
func (r *CheckoutRepo) InsertTx(ctx context.Context, tx *sql.Tx, userID uint64, key, cartID string, response json.RawMessage) error {
	const q = `INSERT INTO checkout_requests (user_id, idempotency_key, cart_id, response) VALUES (?, ?, ?, ?)`
	_, err := tx.ExecContext(ctx, q, userID, key, cartID, []byte(response))
	return err
}
