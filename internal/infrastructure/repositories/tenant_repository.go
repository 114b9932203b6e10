package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"github.com/workshopops/accesscontrol/internal/core/domain/tenant"
	"github.com/workshopops/accesscontrol/internal/core/ports"
	"github.com/workshopops/accesscontrol/internal/infrastructure/db"
)

// TenantRepository stores workshops
type TenantRepository struct {
	ext    sqlx.ExtContext
	logger *logrus.Logger
}

// NewTenantRepository creates a new tenant repository
func NewTenantRepository(database *db.Database, logger *logrus.Logger) ports.TenantRepository {
	return &TenantRepository{ext: database.DB, logger: logger}
}

const tenantColumns = `id, name, slug, status, created_at, updated_at`

// Create creates a new tenant
func (r *TenantRepository) Create(ctx context.Context, t *tenant.Tenant) error {
	query := `
		INSERT INTO workshops (id, name, slug, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.ext.ExecContext(ctx, query, t.ID, t.Name, t.Slug, t.Status, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		if r.logger != nil {
			r.logger.WithFields(logrus.Fields{"tenant_id": t.ID, "slug": t.Slug}).WithError(err).Error("db: failed to create workshop")
		}
		return fmt.Errorf("failed to create tenant: %w", err)
	}
	return nil
}

// GetByID retrieves a tenant by ID
func (r *TenantRepository) GetByID(ctx context.Context, id uuid.UUID) (*tenant.Tenant, error) {
	return r.getOne(ctx, `SELECT `+tenantColumns+` FROM workshops WHERE id = $1`, id)
}

// GetBySlug retrieves a tenant by slug
func (r *TenantRepository) GetBySlug(ctx context.Context, slug string) (*tenant.Tenant, error) {
	return r.getOne(ctx, `SELECT `+tenantColumns+` FROM workshops WHERE slug = $1`, slug)
}

func (r *TenantRepository) getOne(ctx context.Context, query string, arg any) (*tenant.Tenant, error) {
	var t tenant.Tenant
	if err := sqlx.GetContext(ctx, r.ext, &t, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("tenant %v: %w", arg, ports.ErrNotFound)
		}
		if r.logger != nil {
			r.logger.WithFields(logrus.Fields{"key": arg}).WithError(err).Error("db: failed to get workshop")
		}
		return nil, fmt.Errorf("failed to get tenant: %w", err)
	}
	return &t, nil
}

// List retrieves a page of tenants ordered by creation time
func (r *TenantRepository) List(ctx context.Context, limit, offset int) ([]*tenant.Tenant, error) {
	query := `SELECT ` + tenantColumns + ` FROM workshops ORDER BY created_at DESC LIMIT $1 OFFSET $2`
	var out []*tenant.Tenant
	if err := sqlx.SelectContext(ctx, r.ext, &out, query, limit, offset); err != nil {
		if r.logger != nil {
			r.logger.WithError(err).Error("db: failed to list workshops")
		}
		return nil, fmt.Errorf("failed to list tenants: %w", err)
	}
	return out, nil
}

// Count returns the total number of tenants
func (r *TenantRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := sqlx.GetContext(ctx, r.ext, &count, `SELECT COUNT(*) FROM workshops`); err != nil {
		return 0, fmt.Errorf("failed to count tenants: %w", err)
	}
	return count, nil
}
