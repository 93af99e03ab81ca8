package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
)

func ctxWithUserID(v any) echo.Context {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	c := e.NewContext(req, httptest.NewRecorder())
	if v != nil {
		c.Set("user_id", v)
	}
	return c
}

func TestGetUserID_AcceptsNumericRepresentations(t *testing.T) {
	for _, v := range []any{uint64(42), int(42), int64(42), float64(42), "42"} {
		got, err := getUserID(ctxWithUserID(v))
		require.NoError(t, err)
		require.Equal(t, uint64(42), got)
	}
}

func TestGetUserID_MissingOrGarbage(t *testing.T) {
	_, err := getUserID(ctxWithUserID(nil))
	require.Error(t, err)

	_, err = getUserID(ctxWithUserID("not-a-number"))
	require.Error(t, err)
}

func TestParseMoney(t *testing.T) {
	d, err := parseMoney("200.00")
	require.NoError(t, err)
	require.Equal(t, "200.00", d.StringFixed(2))

	_, err = parseMoney("-1.00")
	require.Error(t, err)

	_, err = parseMoney("12.3.4")
	require.Error(t, err)
}
