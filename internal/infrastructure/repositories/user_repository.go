package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"github.com/workshopops/accesscontrol/internal/core/domain/user"
	"github.com/workshopops/accesscontrol/internal/core/ports"
	"github.com/workshopops/accesscontrol/internal/infrastructure/db"
)

// UserRepository implements the user repository interface
type UserRepository struct {
	ext    sqlx.ExtContext
	logger *logrus.Logger
}

// NewUserRepository creates a new user repository
func NewUserRepository(database *db.Database, logger *logrus.Logger) ports.UserRepository {
	return &UserRepository{ext: database.DB, logger: logger}
}

// Create creates a new user
func (r *UserRepository) Create(ctx context.Context, u *user.User) error {
	query := `
		INSERT INTO users (id, email, role, is_internal, platform_role, profile_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.ext.ExecContext(ctx, query,
		u.ID, u.Email, u.Role, u.IsInternal, platformRoleValue(u.PlatformRole), u.ProfileID, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		if r.logger != nil {
			r.logger.WithFields(logrus.Fields{"user_id": u.ID}).WithError(err).Error("db: failed to create user")
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	if r.logger != nil {
		r.logger.WithFields(logrus.Fields{"user_id": u.ID}).Info("db: user created")
	}
	return nil
}

func platformRoleValue(r *user.PlatformRole) any {
	if r == nil {
		return nil
	}
	return string(*r)
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	var u user.User
	query := `
		SELECT id, email, role, is_internal, platform_role, profile_id, created_at, updated_at
		FROM users
		WHERE id = $1`

	if err := sqlx.GetContext(ctx, r.ext, &u, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			if r.logger != nil {
				r.logger.WithFields(logrus.Fields{"user_id": id}).Debug("db: user not found by ID")
			}
			return nil, fmt.Errorf("user %s: %w", id, ports.ErrNotFound)
		}
		if r.logger != nil {
			r.logger.WithFields(logrus.Fields{"user_id": id}).WithError(err).Error("db: failed to get user by ID")
		}
		return nil, fmt.Errorf("failed to get user by ID: %w", err)
	}
	return &u, nil
}

// SetProfile points the identity at a profile, or clears it when profileID is nil.
func (r *UserRepository) SetProfile(ctx context.Context, id uuid.UUID, profileID *uuid.UUID) error {
	query := `UPDATE users SET profile_id = $1, updated_at = NOW() WHERE id = $2`
	res, err := r.ext.ExecContext(ctx, query, profileID, id)
	if err != nil {
		if r.logger != nil {
			r.logger.WithFields(logrus.Fields{"user_id": id}).WithError(err).Error("db: failed to set user profile")
		}
		return fmt.Errorf("failed to set user profile: %w", err)
	}
	return requireRow(res, fmt.Sprintf("user %s", id))
}

// requireRow maps a zero-row write onto ErrNotFound.
func requireRow(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", what, ports.ErrNotFound)
	}
	return nil
}
