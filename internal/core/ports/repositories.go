package ports

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/workshopops/accesscontrol/internal/core/domain/adminsession"
	"github.com/workshopops/accesscontrol/internal/core/domain/audit"
	"github.com/workshopops/accesscontrol/internal/core/domain/employee"
	"github.com/workshopops/accesscontrol/internal/core/domain/profile"
	"github.com/workshopops/accesscontrol/internal/core/domain/tenant"
	"github.com/workshopops/accesscontrol/internal/core/domain/user"
)

// Repositories return ErrNotFound (wrapped) for missing records and ErrStaleState when a
// conditional update matched nothing.

// UserRepository stores identities.
type UserRepository interface {
	Create(ctx context.Context, u *user.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*user.User, error)
	SetProfile(ctx context.Context, id uuid.UUID, profileID *uuid.UUID) error
}

// StatusChange carries the link fields written together with a status transition.
// Nil fields are left untouched.
type StatusChange struct {
	UserID    *uuid.UUID
	ProfileID *uuid.UUID
}

// EmployeeRepository stores workshop employees.
type EmployeeRepository interface {
	Create(ctx context.Context, e *employee.Employee) error
	GetByID(ctx context.Context, id uuid.UUID) (*employee.Employee, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) (*employee.Employee, error)
	ListByStatus(ctx context.Context, workshopID uuid.UUID, status employee.Status) ([]*employee.Employee, error)
	// TransitionStatus moves the employee from -> to only if its stored status is still from.
	TransitionStatus(ctx context.Context, id uuid.UUID, from, to employee.Status, change StatusChange) error
}

// ProfileRepository stores profiles.
type ProfileRepository interface {
	Create(ctx context.Context, p *profile.Profile) error
	GetByID(ctx context.Context, id uuid.UUID) (*profile.Profile, error)
	List(ctx context.Context, workshopID *uuid.UUID) ([]*profile.Profile, error)
	Update(ctx context.Context, p *profile.Profile) error
}

// CustomRoleRepository stores custom roles.
type CustomRoleRepository interface {
	Create(ctx context.Context, r *profile.CustomRole) error
	// GetByIDs returns the roles that exist; missing ids are skipped.
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*profile.CustomRole, error)
	List(ctx context.Context, workshopID *uuid.UUID) ([]*profile.CustomRole, error)
}

// TenantRepository stores workshops.
type TenantRepository interface {
	Create(ctx context.Context, t *tenant.Tenant) error
	GetByID(ctx context.Context, id uuid.UUID) (*tenant.Tenant, error)
	GetBySlug(ctx context.Context, slug string) (*tenant.Tenant, error)
	List(ctx context.Context, limit, offset int) ([]*tenant.Tenant, error)
	Count(ctx context.Context) (int, error)
}

// AdminSessionRepository stores administrative sessions. Sessions are insert-only.
type AdminSessionRepository interface {
	Create(ctx context.Context, s *adminsession.Session) error
	GetByID(ctx context.Context, id uuid.UUID) (*adminsession.Session, error)
	// List returns sessions newest first, all operators when operatorID is nil.
	List(ctx context.Context, operatorID *uuid.UUID) ([]*adminsession.Session, error)
}

// AuditRepository is the append-only event store. There is no update or delete.
type AuditRepository interface {
	Append(ctx context.Context, e *audit.Event) error
	List(ctx context.Context, filter *audit.Filter) ([]*audit.Event, error)
	Count(ctx context.Context, filter *audit.Filter) (int, error)
	// LatestTimestamp returns the newest stored timestamp for actorID, zero when none.
	LatestTimestamp(ctx context.Context, actorID uuid.UUID) (time.Time, error)
}

// TokenRevocationRepository remembers tokens revoked by logout until they expire.
type TokenRevocationRepository interface {
	Revoke(ctx context.Context, tokenHash string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, tokenHash string) (bool, error)
}

// TxRepositories are repositories bound to one unit of work.
type TxRepositories struct {
	Users         UserRepository
	Employees     EmployeeRepository
	Profiles      ProfileRepository
	CustomRoles   CustomRoleRepository
	AdminSessions AdminSessionRepository
	Audit         AuditRepository
}

// UnitOfWork runs fn atomically: every write made through repos commits together or not at all.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(ctx context.Context, repos TxRepositories) error) error
}
