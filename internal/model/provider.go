package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Provider is a service professional listed in the public catalog.  A
// provider account is backed by a user with the PROVIDER role.
type Provider struct {
	ID          uint64          // providers.id
	UserID      uint64          // providers.user_id
	Name        string          // providers.name
	ServiceType string          // providers.service_type
	HourlyRate  decimal.Decimal // providers.hourly_rate
	Active      bool            // providers.active
	CreatedAt   time.Time       // providers.created_at
	UpdatedAt   time.Time       // providers.updated_at
}
