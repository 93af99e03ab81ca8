package handler

import (
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/bookease/bookease/internal/model"
	"github.com/bookease/bookease/internal/repository"
)

// OrderHandler serves the customer-facing order read model and
// cancellation.  Orders are derived at read time from bookings joined
// with payments; nothing here writes a derived row back.  All methods
// require an authenticated caller.  There is no anonymous order
// lookup, so an order id alone is never enough to read it.
type OrderHandler struct {
	Bookings *repository.BookingRepo
}

// NewOrderHandler constructs an OrderHandler.  The repository must be non-nil.
func NewOrderHandler(bookings *repository.BookingRepo) *OrderHandler {
	if bookings == nil {
		panic("nil repository passed to NewOrderHandler")
	}
	return &OrderHandler{Bookings: bookings}
}

// ListOrders handles GET /api/orders.  It returns all of the caller's
// orders, newest first.  When no orders exist, it returns an empty
// array.
func (h *OrderHandler) ListOrders(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	orders, err := h.Bookings.ListOrdersByUser(c.Request().Context(), userID)
	if err != nil {
		c.Logger().Errorf("orders: list failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load orders"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": orders})
}

// GetOrder handles GET /api/orders/:id.  Ownership is enforced in the
// query, so a booking owned by a different user responds 404 exactly
// like a missing one.
func (h *OrderHandler) GetOrder(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	orderID := c.Param("id")
	if orderID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "order id is required"})
	}
	det, err := h.Bookings.GetOrderByIDForUser(c.Request().Context(), orderID, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "order not found"})
		}
		c.Logger().Errorf("orders: fetch failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch order"})
	}
	return c.JSON(http.StatusOK, echo.Map{"item": det})
}

// CancelOrder handles DELETE /api/orders/:id.  A booking can be
// cancelled by its owner while the appointment is still in the
// future.  Returns 204 on success, 404 when missing, 403 for foreign
// bookings and 409 once the scheduled time has passed or the booking
// is already cancelled.
func (h *OrderHandler) CancelOrder(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	orderID := c.Param("id")
	if orderID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "order id is required"})
	}
	ctx := c.Request().Context()
	tx, err := h.Bookings.DB().BeginTx(ctx, nil)
	if err != nil {
		c.Logger().Errorf("orders: begin tx failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to cancel order"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	scheduledAt, status, err := h.Bookings.GetCancelInfoForUserTx(ctx, tx, orderID, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "order not found"})
		}
		if errors.Is(err, repository.ErrForbidden) {
			return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
		}
		c.Logger().Errorf("orders: load cancel info failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to cancel order"})
	}
	if status == model.BookingStatusCancelled {
		return c.JSON(http.StatusConflict, echo.Map{"error": "order already cancelled"})
	}
	if !scheduledAt.After(time.Now().UTC()) {
		return c.JSON(http.StatusConflict, echo.Map{"error": "appointment already started"})
	}
	if err := h.Bookings.CancelTx(ctx, tx, orderID); err != nil {
		c.Logger().Errorf("orders: cancel failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to cancel order"})
	}
	if err := tx.Commit(); err != nil {
		c.Logger().Errorf("orders: commit failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to cancel order"})
	}
	committed = true
	return c.NoContent(http.StatusNoContent)
}
