package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/bookease/bookease/internal/model"
)

// ProviderRepo persists the provider catalog customers browse before
// filling a cart.
type ProviderRepo struct {
	db *sql.DB
}

// NewProviderRepo returns a new ProviderRepo bound to the given database.
func NewProviderRepo(db *sql.DB) *ProviderRepo { return &ProviderRepo{db: db} }

var ErrProviderExists = errors.New("provider profile already exists")

const providerColumns = `id, user_id, name, service_type, hourly_rate, active, created_at, updated_at`

func scanProvider(scan func(dest ...interface{}) error) (*model.Provider, error) {
	var p model.Provider
	if err := scan(&p.ID, &p.UserID, &p.Name, &p.ServiceType, &p.HourlyRate,
		&p.Active, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

// Create inserts a provider profile for a user and returns its id.
// One profile per user; a duplicate insert maps to ErrProviderExists.
func (r *ProviderRepo) Create(ctx context.Context, userID uint64, name, serviceType string, hourlyRate decimal.Decimal) (uint64, error) {
	const q = `INSERT INTO providers (user_id, name, service_type, hourly_rate, active) VALUES (?, ?, ?, ?, 1)`
	res, err := r.db.ExecContext(ctx, q, userID, name, serviceType, hourlyRate)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return 0, ErrProviderExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByID returns one provider, or sql.ErrNoRows.
func (r *ProviderRepo) GetByID(ctx context.Context, id uint64) (*model.Provider, error) {
	const q = `SELECT ` + providerColumns + ` FROM providers WHERE id = ? LIMIT 1`
	return scanProvider(r.db.QueryRowContext(ctx, q, id).Scan)
}

// ListActive returns active providers, optionally filtered by service
// type, ordered by hourly rate ascending.
func (r *ProviderRepo) ListActive(ctx context.Context, serviceType string) ([]model.Provider, error) {
	q := `SELECT ` + providerColumns + ` FROM providers WHERE active = 1`
	args := []interface{}{}
	if serviceType != "" {
		q += ` AND service_type = ?`
		args = append(args, serviceType)
	}
	q += ` ORDER BY hourly_rate, id`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	providers := make([]model.Provider, 0)
	for rows.Next() {
		p, err := scanProvider(rows.Scan)
		if err != nil {
			return nil, err
		}
		providers = append(providers, *p)
	}
	return providers, rows.Err()
}

// ServiceSummary is one entry of the public service catalog: a
// service category with how many active providers offer it and the
// cheapest hourly rate among them.
type ServiceSummary struct {
	ServiceType   string `json:"service_type"`
	ProviderCount uint32 `json:"provider_count"`
	MinHourlyRate string `json:"min_hourly_rate"`
}

// ListServices aggregates active providers into the service catalog.
func (r *ProviderRepo) ListServices(ctx context.Context) ([]ServiceSummary, error) {
	const q = `SELECT service_type, COUNT(*), MIN(hourly_rate)
	           FROM providers WHERE active = 1
	           GROUP BY service_type ORDER BY service_type`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	services := make([]ServiceSummary, 0)
	for rows.Next() {
		var (
			s    ServiceSummary
			rate decimal.Decimal
		)
		if err := rows.Scan(&s.ServiceType, &s.ProviderCount, &rate); err != nil {
			return nil, err
		}
		s.MinHourlyRate = rate.StringFixed(2)
		services = append(services, s)
	}
	return services, rows.Err()
}
