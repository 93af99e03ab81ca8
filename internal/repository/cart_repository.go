package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/bookease/bookease/internal/model"
)

// CartRepo provides CRUD operations for carts and their line items.
// A cart is owned either by a user or by an anonymous session token;
// ownership resolution and merging is decided in the handler layer,
// the repository only offers the individual lookups.  All timestamp
// fields are stored in UTC.  Mutations bump the cart's version column
// so concurrent writers can be detected with a compare-and-swap.
type CartRepo struct {
	db *sql.DB
}

// NewCartRepo returns a new CartRepo bound to the given database.
func NewCartRepo(db *sql.DB) *CartRepo { return &CartRepo{db: db} }

// DB exposes the underlying handle so handlers can open transactions
// spanning multiple repositories.
func (r *CartRepo) DB() *sql.DB { return r.db }

const cartColumns = `id, user_id, session_token, status, version, created_at, updated_at`

func scanCart(row *sql.Row) (*model.Cart, error) {
	var (
		cart    model.Cart
		userID  sql.NullInt64
		session sql.NullString
	)
	err := row.Scan(&cart.ID, &userID, &session, &cart.Status, &cart.Version, &cart.CreatedAt, &cart.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if userID.Valid {
		uid := uint64(userID.Int64)
		cart.UserID = &uid
	}
	if session.Valid {
		s := session.String
		cart.SessionToken = &s
	}
	return &cart, nil
}

// GetActiveByUser returns the user's active cart, or sql.ErrNoRows.
func (r *CartRepo) GetActiveByUser(ctx context.Context, userID uint64) (*model.Cart, error) {
	const q = `SELECT ` + cartColumns + ` FROM carts WHERE user_id = ? AND status = 'active' LIMIT 1`
	return scanCart(r.db.QueryRowContext(ctx, q, userID))
}

// GetActiveBySession returns the session's active cart, or sql.ErrNoRows.
func (r *CartRepo) GetActiveBySession(ctx context.Context, token string) (*model.Cart, error) {
	const q = `SELECT ` + cartColumns + ` FROM carts WHERE session_token = ? AND status = 'active' LIMIT 1`
	return scanCart(r.db.QueryRowContext(ctx, q, token))
}

// CreateForUser inserts a fresh active cart owned by the user.
func (r *CartRepo) CreateForUser(ctx context.Context, userID uint64) (*model.Cart, error) {
	id := uuid.NewString()
	const q = `INSERT INTO carts (id, user_id, status) VALUES (?, ?, 'active')`
	if _, err := r.db.ExecContext(ctx, q, id, userID); err != nil {
		return nil, err
	}
	const sel = `SELECT ` + cartColumns + ` FROM carts WHERE id = ?`
	return scanCart(r.db.QueryRowContext(ctx, sel, id))
}

// CreateForSession inserts a fresh active cart owned by an anonymous
// session token.
func (r *CartRepo) CreateForSession(ctx context.Context, token string) (*model.Cart, error) {
	id := uuid.NewString()
	const q = `INSERT INTO carts (id, session_token, status) VALUES (?, ?, 'active')`
	if _, err := r.db.ExecContext(ctx, q, id, token); err != nil {
		return nil, err
	}
	const sel = `SELECT ` + cartColumns + ` FROM carts WHERE id = ?`
	return scanCart(r.db.QueryRowContext(ctx, sel, id))
}

const cartItemColumns = `id, cart_id, service_type, provider_id, scheduled_at, duration_minutes, subtotal, comments, created_at`

func scanCartItems(rows *sql.Rows) ([]model.CartItem, error) {
	items := make([]model.CartItem, 0)
	for rows.Next() {
		var (
			it       model.CartItem
			provider sql.NullInt64
		)
		if err := rows.Scan(&it.ID, &it.CartID, &it.ServiceType, &provider, &it.ScheduledAt,
			&it.DurationMinutes, &it.Subtotal, &it.Comments, &it.CreatedAt); err != nil {
			return nil, err
		}
		if provider.Valid {
			pid := uint64(provider.Int64)
			it.ProviderID = &pid
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// ListItems returns all line items of a cart in insertion order.
func (r *CartRepo) ListItems(ctx context.Context, cartID string) ([]model.CartItem, error) {
	const q = `SELECT ` + cartItemColumns + ` FROM cart_items WHERE cart_id = ? ORDER BY created_at, id`
	rows, err := r.db.QueryContext(ctx, q, cartID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanCartItems(rows)
}

// ListItemsTx is ListItems within an existing transaction.  Checkout
// uses it after locking the cart row so the item set cannot change
// underneath the booking creation.
func (r *CartRepo) ListItemsTx(ctx context.Context, tx *sql.Tx, cartID string) ([]model.CartItem, error) {
	const q = `SELECT ` + cartItemColumns + ` FROM cart_items WHERE cart_id = ? ORDER BY created_at, id`
	rows, err := tx.QueryContext(ctx, q, cartID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanCartItems(rows)
}

// AddItem inserts a line item and bumps the cart version.  The item's
// ID is generated here and populated on the passed record.
func (r *CartRepo) AddItem(ctx context.Context, item *model.CartItem) error {
	item.ID = uuid.NewString()
	var provider interface{}
	if item.ProviderID != nil {
		provider = *item.ProviderID
	}
	const q = `INSERT INTO cart_items (id, cart_id, service_type, provider_id, scheduled_at, duration_minutes, subtotal, comments)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	if _, err := r.db.ExecContext(ctx, q, item.ID, item.CartID, item.ServiceType, provider,
		item.ScheduledAt.UTC(), item.DurationMinutes, item.Subtotal, item.Comments); err != nil {
		return err
	}
	return r.touch(ctx, item.CartID)
}

// DeleteItem removes a single item from the cart.  It reports whether
// a row was actually deleted so handlers can 404 on unknown ids.
func (r *CartRepo) DeleteItem(ctx context.Context, cartID, itemID string) (bool, error) {
	const q = `DELETE FROM cart_items WHERE id = ? AND cart_id = ?`
	res, err := r.db.ExecContext(ctx, q, itemID, cartID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n > 0 {
		if err := r.touch(ctx, cartID); err != nil {
			return true, err
		}
	}
	return n > 0, nil
}

// ClearItems deletes every item of the cart.  Clearing an already
// empty cart is a no-op and succeeds.
func (r *CartRepo) ClearItems(ctx context.Context, cartID string) error {
	const q = `DELETE FROM cart_items WHERE cart_id = ?`
	if _, err := r.db.ExecContext(ctx, q, cartID); err != nil {
		return err
	}
	return r.touch(ctx, cartID)
}

// ClearItemsTx is ClearItems within an existing transaction, used by
// checkout after the bookings have been written.
func (r *CartRepo) ClearItemsTx(ctx context.Context, tx *sql.Tx, cartID string) error {
	const q = `DELETE FROM cart_items WHERE cart_id = ?`
	_, err := tx.ExecContext(ctx, q, cartID)
	return err
}

// touch bumps the version and updated_at of a cart after an item
// mutation outside a checkout transaction.
func (r *CartRepo) touch(ctx context.Context, cartID string) error {
	const q = `UPDATE carts SET version = version + 1, updated_at = ? WHERE id = ?`
	_, err := r.db.ExecContext(ctx, q, time.Now().UTC(), cartID)
	return err
}

// LockActiveByUserTx loads the user's active cart FOR UPDATE, making
// the holding transaction the single writer for that cart.  Returns
// sql.ErrNoRows when the user has no active cart.
func (r *CartRepo) LockActiveByUserTx(ctx context.Context, tx *sql.Tx, userID uint64) (*model.Cart, error) {
	const q = `SELECT ` + cartColumns + ` FROM carts WHERE user_id = ? AND status = 'active' LIMIT 1 FOR UPDATE`
	return scanCart(tx.QueryRowContext(ctx, q, userID))
}

// MarkCheckedOutTx flips the cart to checked_out with a compare-and-
// swap on the version read earlier in the same transaction.  It
// returns ErrConflict when another writer got there first.
func (r *CartRepo) MarkCheckedOutTx(ctx context.Context, tx *sql.Tx, cartID string, version uint32) error {
	const q = `UPDATE carts SET status = 'checked_out', version = version + 1, updated_at = ?
	           WHERE id = ? AND status = 'active' AND version = ?`
	res, err := tx.ExecContext(ctx, q, time.Now().UTC(), cartID, version)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrConflict
	}
	return nil
}

// MergeSessionIntoUser re-parents the items of a session cart onto the
// user's cart and marks the session cart merged.  Runs in its own
// transaction; called from the cart handler when an authenticated
// request also carries a session cookie with a live cart.
func (r *CartRepo) MergeSessionIntoUser(ctx context.Context, sessionCartID, userCartID string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if _, err := tx.ExecContext(ctx,
		`UPDATE cart_items SET cart_id = ? WHERE cart_id = ?`, userCartID, sessionCartID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE carts SET status = 'merged', version = version + 1, updated_at = ? WHERE id = ? AND status = 'active'`,
		time.Now().UTC(), sessionCartID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE carts SET version = version + 1, updated_at = ? WHERE id = ?`,
		time.Now().UTC(), userCartID); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}
