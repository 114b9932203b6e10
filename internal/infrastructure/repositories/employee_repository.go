package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"github.com/workshopops/accesscontrol/internal/core/domain/employee"
	"github.com/workshopops/accesscontrol/internal/core/ports"
	"github.com/workshopops/accesscontrol/internal/infrastructure/db"
)

// EmployeeRepository stores workshop employees
type EmployeeRepository struct {
	ext    sqlx.ExtContext
	logger *logrus.Logger
}

// NewEmployeeRepository creates a new employee repository
func NewEmployeeRepository(database *db.Database, logger *logrus.Logger) ports.EmployeeRepository {
	return &EmployeeRepository{ext: database.DB, logger: logger}
}

const employeeColumns = `id, workshop_id, user_id, profile_id, name, email, job_role, is_internal, tipo_vinculo, user_status, created_at, updated_at`

func (r *EmployeeRepository) Create(ctx context.Context, e *employee.Employee) error {
	query := `
		INSERT INTO employees (` + employeeColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := r.ext.ExecContext(ctx, query,
		e.ID, e.WorkshopID, e.UserID, e.ProfileID, e.Name, e.Email, e.JobRole,
		e.IsInternal, e.TipoVinculo, e.Status, e.CreatedAt, e.UpdatedAt)
	if err != nil {
		if r.logger != nil {
			r.logger.WithFields(logrus.Fields{"employee_id": e.ID, "workshop_id": e.WorkshopID}).WithError(err).Error("db: failed to create employee")
		}
		return fmt.Errorf("failed to create employee: %w", err)
	}
	return nil
}

func (r *EmployeeRepository) GetByID(ctx context.Context, id uuid.UUID) (*employee.Employee, error) {
	return r.getOne(ctx, `SELECT `+employeeColumns+` FROM employees WHERE id = $1`, id)
}

// GetByUserID returns the employee linked to the identity.
func (r *EmployeeRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*employee.Employee, error) {
	return r.getOne(ctx, `SELECT `+employeeColumns+` FROM employees WHERE user_id = $1 ORDER BY created_at DESC LIMIT 1`, userID)
}

func (r *EmployeeRepository) getOne(ctx context.Context, query string, id uuid.UUID) (*employee.Employee, error) {
	var e employee.Employee
	if err := sqlx.GetContext(ctx, r.ext, &e, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("employee for %s: %w", id, ports.ErrNotFound)
		}
		if r.logger != nil {
			r.logger.WithFields(logrus.Fields{"id": id}).WithError(err).Error("db: failed to get employee")
		}
		return nil, fmt.Errorf("failed to get employee: %w", err)
	}
	return &e, nil
}

// ListByStatus lists a workshop's employees in status, oldest first.
func (r *EmployeeRepository) ListByStatus(ctx context.Context, workshopID uuid.UUID, status employee.Status) ([]*employee.Employee, error) {
	query := `SELECT ` + employeeColumns + ` FROM employees
		WHERE workshop_id = $1 AND user_status = ANY($2)
		ORDER BY created_at ASC, id ASC`
	var out []*employee.Employee
	if err := sqlx.SelectContext(ctx, r.ext, &out, query, workshopID, pq.Array(storedStatuses(status))); err != nil {
		if r.logger != nil {
			r.logger.WithFields(logrus.Fields{"workshop_id": workshopID, "status": status}).WithError(err).Error("db: failed to list employees")
		}
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}
	return out, nil
}

// TransitionStatus is a conditional update: it matches only while the stored status is
// still from, so a concurrent transition makes it affect zero rows.
func (r *EmployeeRepository) TransitionStatus(ctx context.Context, id uuid.UUID, from, to employee.Status, change ports.StatusChange) error {
	query := `
		UPDATE employees
		SET user_status = $1,
			user_id = COALESCE($2::uuid, user_id),
			profile_id = COALESCE($3::uuid, profile_id),
			updated_at = NOW()
		WHERE id = $4 AND user_status = ANY($5)`

	res, err := r.ext.ExecContext(ctx, query, to, change.UserID, change.ProfileID, id, pq.Array(storedStatuses(from)))
	if err != nil {
		if r.logger != nil {
			r.logger.WithFields(logrus.Fields{"employee_id": id, "from": from, "to": to}).WithError(err).Error("db: failed to transition employee")
		}
		return fmt.Errorf("failed to transition employee: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("employee %s no longer %s: %w", id, from, ports.ErrStaleState)
	}
	if r.logger != nil {
		r.logger.WithFields(logrus.Fields{"employee_id": id, "from": from, "to": to}).Debug("db: employee transitioned")
	}
	return nil
}

// storedStatuses includes the legacy spelling still present in older rows.
func storedStatuses(s employee.Status) []string {
	if s == employee.StatusApproved {
		return []string{string(employee.StatusApproved), "active"}
	}
	return []string{string(s)}
}
