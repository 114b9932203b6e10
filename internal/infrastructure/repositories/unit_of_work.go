package repositories

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/workshopops/accesscontrol/internal/core/ports"
	"github.com/workshopops/accesscontrol/internal/infrastructure/db"
)

// SQLUnitOfWork runs compound writes in one database transaction.
type SQLUnitOfWork struct {
	db     *db.Database
	logger *logrus.Logger
}

func NewSQLUnitOfWork(database *db.Database, logger *logrus.Logger) ports.UnitOfWork {
	return &SQLUnitOfWork{db: database, logger: logger}
}

// Do commits when fn returns nil and rolls back otherwise, including on panic.
func (u *SQLUnitOfWork) Do(ctx context.Context, fn func(ctx context.Context, repos ports.TxRepositories) error) error {
	tx, err := u.db.DB.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	repos := ports.TxRepositories{
		Users:         &UserRepository{ext: tx, logger: u.logger},
		Employees:     &EmployeeRepository{ext: tx, logger: u.logger},
		Profiles:      &ProfileRepository{ext: tx, logger: u.logger},
		CustomRoles:   &CustomRoleRepository{ext: tx, logger: u.logger},
		AdminSessions: &AdminSessionRepository{ext: tx, logger: u.logger},
		Audit:         &auditRepository{ext: tx, logger: u.logger},
	}
	if err := fn(ctx, repos); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && u.logger != nil {
			u.logger.WithError(rbErr).Error("db: failed to roll back transaction")
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		if u.logger != nil {
			u.logger.WithError(err).Error("db: failed to commit transaction")
		}
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
