package handler // handler defines http handlers

import (
	"errors"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

// getUserID extracts the user_id from echo.Context and converts it to
// uint64.  The JWT middleware stores whatever numeric type the claims
// decoded to, so every plausible representation is accepted.
func getUserID(c echo.Context) (uint64, error) {
	v := c.Get("user_id")
	switch t := v.(type) {
	case uint64:
		return t, nil
	case int:
		return uint64(t), nil
	case int64:
		return uint64(t), nil
	case float64:
		return uint64(t), nil
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, errors.New("invalid user_id in context")
}

// parseMoney parses a non-negative decimal-as-string amount such as
// "200.00".  The SPA sends money as strings to avoid float drift.
func parseMoney(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, err
	}
	if d.IsNegative() {
		return decimal.Decimal{}, errors.New("amount must not be negative")
	}
	return d, nil
}
