package ports

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/workshopops/accesscontrol/internal/core/domain/access"
	"github.com/workshopops/accesscontrol/internal/core/domain/adminsession"
	"github.com/workshopops/accesscontrol/internal/core/domain/employee"
	"github.com/workshopops/accesscontrol/internal/core/domain/jobrole"
	"github.com/workshopops/accesscontrol/internal/core/domain/permission"
	"github.com/workshopops/accesscontrol/internal/core/domain/profile"
	"github.com/workshopops/accesscontrol/internal/core/domain/tenant"
	"github.com/workshopops/accesscontrol/internal/core/domain/user"
)

// UserService manages identities.
type UserService interface {
	GetUser(ctx context.Context, id uuid.UUID) (*user.User, error)
	// EnsureUser returns the identity for id, creating a member identity on first authentication.
	EnsureUser(ctx context.Context, id uuid.UUID, email string) (*user.User, error)
}

// GapEntry counts hits on a page missing from the page permission map.
type GapEntry struct {
	Page     permission.PageID `json:"page"`
	Hits     int64             `json:"hits"`
	LastSeen time.Time         `json:"last_seen"`
}

// ResolutionService is the read-only decision API. It reads current state on every call.
type ResolutionService interface {
	ResolvePermissionSet(ctx context.Context, identity *user.User) (*access.PermissionSet, error)
	CanAccess(ctx context.Context, identity *user.User, page permission.PageID) (bool, error)
	CheckPage(ctx context.Context, identity *user.User, page permission.PageID) (access.Decision, error)
	// DecidePage evaluates page against a set the caller already resolved.
	DecidePage(ps *access.PermissionSet, page permission.PageID) access.Decision
	Diagnose(ctx context.Context, identity *user.User, page permission.PageID) (*access.Report, error)
	// CheckCoverage returns one configuration-gap error per routed page absent from the map.
	CheckCoverage(pages []permission.PageID) []error
	Gaps() []GapEntry
}

// InviteRequest creates an employee record when an invitation is accepted.
type InviteRequest struct {
	WorkshopID  uuid.UUID `json:"workshop_id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	JobRole     string    `json:"job_role"`
	IsInternal  bool      `json:"is_internal"`
	TipoVinculo string    `json:"tipo_vinculo"`
}

// OnboardingService drives the employee approval state machine. Every transition writes
// exactly one audit event in the same unit of work.
type OnboardingService interface {
	Invite(ctx context.Context, req *InviteRequest) (*employee.Employee, error)
	GetEmployee(ctx context.Context, id uuid.UUID) (*employee.Employee, error)
	Register(ctx context.Context, employeeID, userID uuid.UUID) (*employee.Employee, error)
	Approve(ctx context.Context, employeeID, profileID uuid.UUID) (*employee.Employee, error)
	Reject(ctx context.Context, employeeID uuid.UUID, reason string) (*employee.Employee, error)
	Block(ctx context.Context, employeeID uuid.UUID, reason string) (*employee.Employee, error)
	Deactivate(ctx context.Context, employeeID uuid.UUID) (*employee.Employee, error)
	Reactivate(ctx context.Context, employeeID uuid.UUID) (*employee.Employee, error)
	ListPending(ctx context.Context, workshopID uuid.UUID) ([]*employee.Employee, error)
}

// UpdatePermissionsRequest replaces the permission content of a profile.
type UpdatePermissionsRequest struct {
	Roles         []permission.Permission             `json:"roles"`
	CustomRoleIDs []uuid.UUID                         `json:"custom_role_ids"`
	ModuleAccess  permission.ModuleAccess             `json:"module_permissions"`
	SidebarAccess map[string]permission.SidebarAccess `json:"sidebar_permissions"`
}

// ProfileService manages profiles and custom roles.
type ProfileService interface {
	CreateProfile(ctx context.Context, p *profile.Profile) (*profile.Profile, error)
	CreateFromJobRole(ctx context.Context, jobRole, name string, workshopID *uuid.UUID) (*profile.Profile, error)
	GetProfile(ctx context.Context, id uuid.UUID) (*profile.Profile, error)
	ListProfiles(ctx context.Context, workshopID *uuid.UUID) ([]*profile.Profile, error)
	UpdatePermissions(ctx context.Context, id uuid.UUID, req *UpdatePermissionsRequest) (*profile.Profile, error)
	CreateCustomRole(ctx context.Context, r *profile.CustomRole) (*profile.CustomRole, error)
	ListCustomRoles(ctx context.Context, workshopID *uuid.UUID) ([]*profile.CustomRole, error)
	JobRoleDefaults(jobRole string) jobrole.Bundle
}

// AdminSessionService manages operator elevation into a workshop.
type AdminSessionService interface {
	StartSession(ctx context.Context, operatorID, tenantID uuid.UUID, reason string, durationMinutes int) (*adminsession.Session, error)
	GetSession(ctx context.Context, id uuid.UUID) (*adminsession.View, error)
	ListSessions(ctx context.Context, operatorID *uuid.UUID, activeOnly bool) ([]adminsession.View, error)
	IsSessionActive(s *adminsession.Session) bool
	// Attribute re-reads the session and returns a context attributing writes to it.
	Attribute(ctx context.Context, sessionID, operatorID uuid.UUID) (context.Context, *adminsession.Session, error)
	AllowedDurations() []int
}

// TenantService reads and creates workshops.
type TenantService interface {
	CreateTenant(ctx context.Context, name, slug string) (*tenant.Tenant, error)
	GetTenant(ctx context.Context, id uuid.UUID) (*tenant.Tenant, error)
	ListTenants(ctx context.Context, limit, offset int) ([]*tenant.Tenant, int, error)
}
