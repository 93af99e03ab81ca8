package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestOrderNumber(t *testing.T) {
	created := time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)
	got := OrderNumber("0c9f3b2e-7d41-4c8a-9e55-1f2a3b4c5d6e", created)
	require.Equal(t, "BE-2025-4C5D6E", got)
}

func TestOrderNumber_SameInputsSameOutput(t *testing.T) {
	created := time.Date(2024, 12, 31, 23, 59, 59, 0, time.UTC)
	a := OrderNumber("abc123", created)
	b := OrderNumber("abc123", created)
	require.Equal(t, a, b)
	require.Equal(t, "BE-2024-ABC123", a)
}

func TestOrderNumber_ShortID(t *testing.T) {
	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	require.Equal(t, "BE-2026-X1", OrderNumber("x1", created))
}

func TestOrderNumber_YearFromUTC(t *testing.T) {
	// 2025-01-01 00:30 +01:00 is still 2024 in UTC
	loc := time.FixedZone("CET", 3600)
	created := time.Date(2025, 1, 1, 0, 30, 0, 0, loc)
	require.Equal(t, "BE-2024-FFFFFF", OrderNumber("ffffff", created))
}
