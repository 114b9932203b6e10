package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"github.com/workshopops/accesscontrol/internal/core/domain/adminsession"
	"github.com/workshopops/accesscontrol/internal/core/ports"
	"github.com/workshopops/accesscontrol/internal/infrastructure/db"
)

// AdminSessionRepository stores administrative sessions. Rows are never updated.
type AdminSessionRepository struct {
	ext    sqlx.ExtContext
	logger *logrus.Logger
}

func NewAdminSessionRepository(database *db.Database, logger *logrus.Logger) ports.AdminSessionRepository {
	return &AdminSessionRepository{ext: database.DB, logger: logger}
}

const adminSessionColumns = `id, operator_id, operator_email, tenant_id, reason, duration_minutes, started_at, expires_at`

func (r *AdminSessionRepository) Create(ctx context.Context, s *adminsession.Session) error {
	query := `INSERT INTO admin_sessions (` + adminSessionColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.ext.ExecContext(ctx, query,
		s.ID, s.OperatorID, s.OperatorEmail, s.TenantID, s.Reason, s.DurationMinutes, s.StartedAt, s.ExpiresAt)
	if err != nil {
		if r.logger != nil {
			r.logger.WithFields(logrus.Fields{"session_id": s.ID, "operator_id": s.OperatorID}).WithError(err).Error("db: failed to create admin session")
		}
		return fmt.Errorf("failed to create admin session: %w", err)
	}
	return nil
}

func (r *AdminSessionRepository) GetByID(ctx context.Context, id uuid.UUID) (*adminsession.Session, error) {
	var s adminsession.Session
	query := `SELECT ` + adminSessionColumns + ` FROM admin_sessions WHERE id = $1`
	if err := sqlx.GetContext(ctx, r.ext, &s, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("admin session %s: %w", id, ports.ErrNotFound)
		}
		if r.logger != nil {
			r.logger.WithFields(logrus.Fields{"session_id": id}).WithError(err).Error("db: failed to get admin session")
		}
		return nil, fmt.Errorf("failed to get admin session: %w", err)
	}
	return &s, nil
}

func (r *AdminSessionRepository) List(ctx context.Context, operatorID *uuid.UUID) ([]*adminsession.Session, error) {
	query := `SELECT ` + adminSessionColumns + ` FROM admin_sessions`
	var args []any
	if operatorID != nil {
		query += ` WHERE operator_id = $1`
		args = append(args, *operatorID)
	}
	query += ` ORDER BY started_at DESC`

	var out []*adminsession.Session
	if err := sqlx.SelectContext(ctx, r.ext, &out, query, args...); err != nil {
		if r.logger != nil {
			r.logger.WithError(err).Error("db: failed to list admin sessions")
		}
		return nil, fmt.Errorf("failed to list admin sessions: %w", err)
	}
	return out, nil
}
