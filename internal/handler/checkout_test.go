package handler

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/bookease/bookease/internal/repository"
)

func newCheckoutHandler(t *testing.T) (*CheckoutHandler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	h := NewCheckoutHandler(
		repository.NewCartRepo(db),
		repository.NewBookingRepo(db),
		repository.NewPaymentRepo(db),
		repository.NewCheckoutRepo(db),
	)
	return h, mock
}

func checkoutRequest(idempotencyKey string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/cart/checkout", strings.NewReader(`{"payment_method":"card"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if idempotencyKey != "" {
		req.Header.Set(IdempotencyHeader, idempotencyKey)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("user_id", uint64(7))
	return c, rec
}

func activeCartRows() *sqlmock.Rows {
	now := time.Now().UTC()
	return sqlmock.NewRows([]string{"id", "user_id", "session_token", "status", "version", "created_at", "updated_at"}).
		AddRow("cart-1", 7, nil, "active", 3, now, now)
}

func cartItemColumnsRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "cart_id", "service_type", "provider_id", "scheduled_at",
		"duration_minutes", "subtotal", "comments", "created_at"})
}

func TestCheckout_CreatesBookingAndPaymentPerItem(t *testing.T) {
	h, mock := newCheckoutHandler(t)
	sched := time.Now().UTC().Add(48 * time.Hour)
	items := cartItemColumnsRows().
		AddRow("item-1", "cart-1", "cleaning", nil, sched, 120, "200.00", "", time.Now().UTC()).
		AddRow("item-2", "cart-1", "plumbing", 5, sched, 60, "80.00", "leaky tap", time.Now().UTC())

	mock.ExpectQuery("SELECT response FROM checkout_requests").WillReturnError(sql.ErrNoRows)
	mock.ExpectBegin()
	mock.ExpectQuery("FROM carts WHERE user_id .+ FOR UPDATE").WillReturnRows(activeCartRows())
	mock.ExpectQuery("FROM cart_items WHERE cart_id").WillReturnRows(items)
	mock.ExpectExec("INSERT INTO bookings").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO payments").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO bookings").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO payments").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO checkout_requests").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("UPDATE carts SET status = 'checked_out'").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM cart_items").WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	c, rec := checkoutRequest("key-1")
	require.NoError(t, h.Checkout(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		CartID        string `json:"cart_id"`
		Confirmations []struct {
			BookingID   string `json:"booking_id"`
			PaymentID   string `json:"payment_id"`
			ServiceType string `json:"service_type"`
			Subtotal    string `json:"subtotal"`
			PlatformFee string `json:"platform_fee"`
			Total       string `json:"total"`
		} `json:"confirmations"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "cart-1", resp.CartID)
	require.Len(t, resp.Confirmations, 2)
	require.Equal(t, "cleaning", resp.Confirmations[0].ServiceType)
	require.Equal(t, "200.00", resp.Confirmations[0].Subtotal)
	require.Equal(t, "30.00", resp.Confirmations[0].PlatformFee)
	require.Equal(t, "230.00", resp.Confirmations[0].Total)
	require.Equal(t, "80.00", resp.Confirmations[1].Subtotal)
	require.Equal(t, "12.00", resp.Confirmations[1].PlatformFee)
	require.Equal(t, "92.00", resp.Confirmations[1].Total)
	require.NotEmpty(t, resp.Confirmations[0].BookingID)
	require.NotEqual(t, resp.Confirmations[0].BookingID, resp.Confirmations[1].BookingID)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckout_RollsBackWhenPaymentInsertFails(t *testing.T) {
	h, mock := newCheckoutHandler(t)
	sched := time.Now().UTC().Add(24 * time.Hour)
	items := cartItemColumnsRows().
		AddRow("item-1", "cart-1", "cleaning", nil, sched, 120, "200.00", "", time.Now().UTC())

	mock.ExpectBegin()
	mock.ExpectQuery("FROM carts WHERE user_id .+ FOR UPDATE").WillReturnRows(activeCartRows())
	mock.ExpectQuery("FROM cart_items WHERE cart_id").WillReturnRows(items)
	mock.ExpectExec("INSERT INTO bookings").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO payments").WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	c, rec := checkoutRequest("")
	require.NoError(t, h.Checkout(c))
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "checkout failed", resp["error"])

	// the booking insert was not committed: the transaction rolled
	// back as a unit
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckout_ReplaysStoredResponseForRepeatedKey(t *testing.T) {
	h, mock := newCheckoutHandler(t)
	stored := `{"cart_id":"cart-1","confirmations":[{"booking_id":"b-1","payment_id":"p-1","service_type":"cleaning","subtotal":"200.00","platform_fee":"30.00","total":"230.00"}]}`

	mock.ExpectQuery("SELECT response FROM checkout_requests").
		WillReturnRows(sqlmock.NewRows([]string{"response"}).AddRow([]byte(stored)))

	c, rec := checkoutRequest("key-1")
	require.NoError(t, h.Checkout(c))
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, stored, rec.Body.String())

	// no transaction was opened and nothing was written
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckout_EmptyCartRejectedWithoutWrites(t *testing.T) {
	h, mock := newCheckoutHandler(t)

	mock.ExpectBegin()
	mock.ExpectQuery("FROM carts WHERE user_id .+ FOR UPDATE").WillReturnRows(activeCartRows())
	mock.ExpectQuery("FROM cart_items WHERE cart_id").WillReturnRows(cartItemColumnsRows())
	mock.ExpectRollback()

	c, rec := checkoutRequest("")
	require.NoError(t, h.Checkout(c))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "cart is empty", resp["error"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckout_NoActiveCartRejected(t *testing.T) {
	h, mock := newCheckoutHandler(t)

	mock.ExpectBegin()
	mock.ExpectQuery("FROM carts WHERE user_id .+ FOR UPDATE").WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	c, rec := checkoutRequest("")
	require.NoError(t, h.Checkout(c))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckout_ConcurrentVersionBumpConflicts(t *testing.T) {
	h, mock := newCheckoutHandler(t)
	sched := time.Now().UTC().Add(24 * time.Hour)
	items := cartItemColumnsRows().
		AddRow("item-1", "cart-1", "cleaning", nil, sched, 120, "200.00", "", time.Now().UTC())

	mock.ExpectBegin()
	mock.ExpectQuery("FROM carts WHERE user_id .+ FOR UPDATE").WillReturnRows(activeCartRows())
	mock.ExpectQuery("FROM cart_items WHERE cart_id").WillReturnRows(items)
	mock.ExpectExec("INSERT INTO bookings").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO payments").WillReturnResult(sqlmock.NewResult(0, 1))
	// version changed between read and write: zero rows match the CAS
	mock.ExpectExec("UPDATE carts SET status = 'checked_out'").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	c, rec := checkoutRequest("")
	require.NoError(t, h.Checkout(c))
	require.Equal(t, http.StatusConflict, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "cart was modified concurrently", resp["error"])
	require.NoError(t, mock.ExpectationsWereMet())
}
