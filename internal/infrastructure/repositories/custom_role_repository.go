package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"github.com/workshopops/accesscontrol/internal/core/domain/profile"
	"github.com/workshopops/accesscontrol/internal/core/ports"
	"github.com/workshopops/accesscontrol/internal/infrastructure/db"
)

// CustomRoleRepository stores custom roles
type CustomRoleRepository struct {
	ext    sqlx.ExtContext
	logger *logrus.Logger
}

// NewCustomRoleRepository creates a new custom role repository
func NewCustomRoleRepository(database *db.Database, logger *logrus.Logger) ports.CustomRoleRepository {
	return &CustomRoleRepository{ext: database.DB, logger: logger}
}

const customRoleColumns = `id, workshop_id, name, system_roles, created_at`

type customRoleRow struct {
	ID          uuid.UUID      `db:"id"`
	WorkshopID  uuid.NullUUID  `db:"workshop_id"`
	Name        string         `db:"name"`
	SystemRoles pq.StringArray `db:"system_roles"`
	CreatedAt   time.Time      `db:"created_at"`
}

func (row *customRoleRow) toDomain() *profile.CustomRole {
	r := &profile.CustomRole{
		ID:          row.ID,
		Name:        row.Name,
		SystemRoles: toPermissions(row.SystemRoles),
		CreatedAt:   row.CreatedAt,
	}
	if row.WorkshopID.Valid {
		ws := row.WorkshopID.UUID
		r.WorkshopID = &ws
	}
	return r
}

func (r *CustomRoleRepository) Create(ctx context.Context, role *profile.CustomRole) error {
	query := `INSERT INTO custom_roles (` + customRoleColumns + `) VALUES ($1, $2, $3, $4, $5)`
	_, err := r.ext.ExecContext(ctx, query,
		role.ID, role.WorkshopID, role.Name, pq.Array(permissionStrings(role.SystemRoles)), role.CreatedAt)
	if err != nil {
		if r.logger != nil {
			r.logger.WithFields(logrus.Fields{"custom_role_id": role.ID}).WithError(err).Error("db: failed to create custom role")
		}
		return fmt.Errorf("failed to create custom role: %w", err)
	}
	return nil
}

// GetByIDs returns the roles that exist among ids.
func (r *CustomRoleRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*profile.CustomRole, error) {
	if len(ids) == 0 {
		return []*profile.CustomRole{}, nil
	}
	query := `SELECT ` + customRoleColumns + ` FROM custom_roles WHERE id = ANY($1::uuid[]) ORDER BY name ASC`
	return r.selectRoles(ctx, query, pq.Array(uuidStrings(ids)))
}

// List returns global roles plus those of workshopID, or every role when it is nil.
func (r *CustomRoleRepository) List(ctx context.Context, workshopID *uuid.UUID) ([]*profile.CustomRole, error) {
	query := `SELECT ` + customRoleColumns + ` FROM custom_roles`
	var args []any
	if workshopID != nil {
		query += ` WHERE workshop_id = $1 OR workshop_id IS NULL`
		args = append(args, *workshopID)
	}
	query += ` ORDER BY name ASC`
	return r.selectRoles(ctx, query, args...)
}

func (r *CustomRoleRepository) selectRoles(ctx context.Context, query string, args ...any) ([]*profile.CustomRole, error) {
	var rows []customRoleRow
	if err := sqlx.SelectContext(ctx, r.ext, &rows, query, args...); err != nil {
		if r.logger != nil {
			r.logger.WithError(err).Error("db: failed to select custom roles")
		}
		return nil, fmt.Errorf("failed to select custom roles: %w", err)
	}
	out := make([]*profile.CustomRole, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toDomain())
	}
	return out, nil
}
