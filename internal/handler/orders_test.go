package handler

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/bookease/bookease/internal/repository"
)

func newOrderHandler(t *testing.T) (*OrderHandler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewOrderHandler(repository.NewBookingRepo(db)), mock
}

func orderRequest(method, target string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("user_id", uint64(7))
	return c, rec
}

func orderJoinedColumns() []string {
	return []string{"id", "provider_id", "service_type", "scheduled_at", "duration_minutes",
		"status", "total_amount", "created_at", "platform_commission", "method", "p_status", "transaction_id"}
}

func TestGetOrder_ForeignOrMissingIs404(t *testing.T) {
	h, mock := newOrderHandler(t)

	// ownership lives in the WHERE clause, so a foreign booking and a
	// missing one are the same empty result
	mock.ExpectQuery("FROM bookings b").WillReturnError(sql.ErrNoRows)

	c, rec := orderRequest(http.MethodGet, "/api/orders/b-1")
	c.SetParamNames("id")
	c.SetParamValues("b-1")
	require.NoError(t, h.GetOrder(c))
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetOrder_ReturnsStoredCommission(t *testing.T) {
	h, mock := newOrderHandler(t)
	created := time.Date(2026, 5, 2, 10, 0, 0, 0, time.UTC)
	sched := created.Add(72 * time.Hour)
	rows := sqlmock.NewRows(orderJoinedColumns()).
		AddRow("a1b2c3d4e5f6", nil, "cleaning", sched, 120, "CONFIRMED", "200.00", created,
			"30.00", "card", "COMPLETED", "txn-1")
	mock.ExpectQuery("FROM bookings b").WillReturnRows(rows)

	c, rec := orderRequest(http.MethodGet, "/api/orders/a1b2c3d4e5f6")
	c.SetParamNames("id")
	c.SetParamValues("a1b2c3d4e5f6")
	require.NoError(t, h.GetOrder(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Item struct {
			OrderNumber string `json:"order_number"`
			Subtotal    string `json:"subtotal"`
			PlatformFee string `json:"platform_fee"`
			TotalAmount string `json:"total_amount"`
		} `json:"item"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	// the fee is the stored payment commission, not a re-derivation
	require.Equal(t, "200.00", resp.Item.Subtotal)
	require.Equal(t, "30.00", resp.Item.PlatformFee)
	require.Equal(t, "230.00", resp.Item.TotalAmount)
	require.Equal(t, "BE-2026-D4E5F6", resp.Item.OrderNumber)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListAndGetAgreeOnFees(t *testing.T) {
	h, mock := newOrderHandler(t)
	created := time.Date(2026, 5, 2, 10, 0, 0, 0, time.UTC)
	sched := created.Add(72 * time.Hour)
	row := func() *sqlmock.Rows {
		return sqlmock.NewRows(orderJoinedColumns()).
			AddRow("b-1", nil, "plumbing", sched, 60, "CONFIRMED", "80.00", created,
				"12.00", "card", "COMPLETED", "txn-2")
	}

	mock.ExpectQuery("FROM bookings b").WillReturnRows(row())
	listCtx, listRec := orderRequest(http.MethodGet, "/api/orders")
	require.NoError(t, h.ListOrders(listCtx))
	require.Equal(t, http.StatusOK, listRec.Code)

	mock.ExpectQuery("FROM bookings b").WillReturnRows(row())
	getCtx, getRec := orderRequest(http.MethodGet, "/api/orders/b-1")
	getCtx.SetParamNames("id")
	getCtx.SetParamValues("b-1")
	require.NoError(t, h.GetOrder(getCtx))
	require.Equal(t, http.StatusOK, getRec.Code)

	var list struct {
		Items []json.RawMessage `json:"items"`
	}
	require.NoError(t, json.Unmarshal(listRec.Body.Bytes(), &list))
	require.Len(t, list.Items, 1)

	var get struct {
		Item json.RawMessage `json:"item"`
	}
	require.NoError(t, json.Unmarshal(getRec.Body.Bytes(), &get))

	// the same booking renders identically on both read paths
	require.JSONEq(t, string(list.Items[0]), string(get.Item))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelOrder_ForeignOwnerForbidden(t *testing.T) {
	h, mock := newOrderHandler(t)
	sched := time.Now().UTC().Add(24 * time.Hour)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT user_id, scheduled_at, status FROM bookings").
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "scheduled_at", "status"}).
			AddRow(99, sched, "CONFIRMED"))
	mock.ExpectRollback()

	c, rec := orderRequest(http.MethodDelete, "/api/orders/b-1")
	c.SetParamNames("id")
	c.SetParamValues("b-1")
	require.NoError(t, h.CancelOrder(c))
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelOrder_PastAppointmentConflicts(t *testing.T) {
	h, mock := newOrderHandler(t)
	past := time.Now().UTC().Add(-time.Hour)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT user_id, scheduled_at, status FROM bookings").
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "scheduled_at", "status"}).
			AddRow(7, past, "CONFIRMED"))
	mock.ExpectRollback()

	c, rec := orderRequest(http.MethodDelete, "/api/orders/b-1")
	c.SetParamNames("id")
	c.SetParamValues("b-1")
	require.NoError(t, h.CancelOrder(c))
	require.Equal(t, http.StatusConflict, rec.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}
