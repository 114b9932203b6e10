// Package mocks holds lightweight func-field mocks of the service and repository ports.
// A nil func falls back to a harmless default.
package mocks

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/workshopops/accesscontrol/internal/core/domain/access"
	"github.com/workshopops/accesscontrol/internal/core/domain/adminsession"
	"github.com/workshopops/accesscontrol/internal/core/domain/audit"
	"github.com/workshopops/accesscontrol/internal/core/domain/auth"
	"github.com/workshopops/accesscontrol/internal/core/domain/employee"
	"github.com/workshopops/accesscontrol/internal/core/domain/jobrole"
	"github.com/workshopops/accesscontrol/internal/core/domain/permission"
	"github.com/workshopops/accesscontrol/internal/core/domain/profile"
	"github.com/workshopops/accesscontrol/internal/core/domain/tenant"
	"github.com/workshopops/accesscontrol/internal/core/domain/user"
	"github.com/workshopops/accesscontrol/internal/core/ports"
)

// AuthServiceMock mocks ports.AuthService
type AuthServiceMock struct {
	VerifyTokenFn func(ctx context.Context, token string) (*auth.Claims, error)
	RevokeFn      func(ctx context.Context, token string, claims *auth.Claims) error
	TokenHashFn   func(token string) string
}

func (m *AuthServiceMock) VerifyToken(ctx context.Context, token string) (*auth.Claims, error) {
	if m.VerifyTokenFn != nil {
		return m.VerifyTokenFn(ctx, token)
	}
	return nil, fmt.Errorf("invalid token")
}
func (m *AuthServiceMock) Revoke(ctx context.Context, token string, claims *auth.Claims) error {
	if m.RevokeFn != nil {
		return m.RevokeFn(ctx, token, claims)
	}
	return nil
}
func (m *AuthServiceMock) TokenHash(token string) string {
	if m.TokenHashFn != nil {
		return m.TokenHashFn(token)
	}
	return "hash-" + token
}

// UserServiceMock mocks ports.UserService
type UserServiceMock struct {
	GetUserFn    func(ctx context.Context, id uuid.UUID) (*user.User, error)
	EnsureUserFn func(ctx context.Context, id uuid.UUID, email string) (*user.User, error)
}

func (m *UserServiceMock) GetUser(ctx context.Context, id uuid.UUID) (*user.User, error) {
	if m.GetUserFn != nil {
		return m.GetUserFn(ctx, id)
	}
	return nil, ports.NewNotFoundError("user %s not found", id)
}
func (m *UserServiceMock) EnsureUser(ctx context.Context, id uuid.UUID, email string) (*user.User, error) {
	if m.EnsureUserFn != nil {
		return m.EnsureUserFn(ctx, id, email)
	}
	return &user.User{ID: id, Email: email, Role: user.RoleMember}, nil
}

// ResolutionServiceMock mocks ports.ResolutionService
type ResolutionServiceMock struct {
	ResolvePermissionSetFn func(ctx context.Context, identity *user.User) (*access.PermissionSet, error)
	CanAccessFn            func(ctx context.Context, identity *user.User, page permission.PageID) (bool, error)
	CheckPageFn            func(ctx context.Context, identity *user.User, page permission.PageID) (access.Decision, error)
	DecidePageFn           func(ps *access.PermissionSet, page permission.PageID) access.Decision
	DiagnoseFn             func(ctx context.Context, identity *user.User, page permission.PageID) (*access.Report, error)
	CheckCoverageFn        func(pages []permission.PageID) []error
	GapsFn                 func() []ports.GapEntry
}

func (m *ResolutionServiceMock) ResolvePermissionSet(ctx context.Context, identity *user.User) (*access.PermissionSet, error) {
	if m.ResolvePermissionSetFn != nil {
		return m.ResolvePermissionSetFn(ctx, identity)
	}
	return access.Resolve(access.Inputs{User: identity}), nil
}
func (m *ResolutionServiceMock) CanAccess(ctx context.Context, identity *user.User, page permission.PageID) (bool, error) {
	if m.CanAccessFn != nil {
		return m.CanAccessFn(ctx, identity, page)
	}
	return false, nil
}
func (m *ResolutionServiceMock) CheckPage(ctx context.Context, identity *user.User, page permission.PageID) (access.Decision, error) {
	if m.CheckPageFn != nil {
		return m.CheckPageFn(ctx, identity, page)
	}
	return access.Decision{Page: page}, nil
}
func (m *ResolutionServiceMock) DecidePage(ps *access.PermissionSet, page permission.PageID) access.Decision {
	if m.DecidePageFn != nil {
		return m.DecidePageFn(ps, page)
	}
	return access.CanAccessPage(permission.DefaultPageMap(), ps, page)
}
func (m *ResolutionServiceMock) Diagnose(ctx context.Context, identity *user.User, page permission.PageID) (*access.Report, error) {
	if m.DiagnoseFn != nil {
		return m.DiagnoseFn(ctx, identity, page)
	}
	return &access.Report{}, nil
}
func (m *ResolutionServiceMock) CheckCoverage(pages []permission.PageID) []error {
	if m.CheckCoverageFn != nil {
		return m.CheckCoverageFn(pages)
	}
	return nil
}
func (m *ResolutionServiceMock) Gaps() []ports.GapEntry {
	if m.GapsFn != nil {
		return m.GapsFn()
	}
	return []ports.GapEntry{}
}

// AdminSessionServiceMock mocks ports.AdminSessionService
type AdminSessionServiceMock struct {
	StartSessionFn     func(ctx context.Context, operatorID, tenantID uuid.UUID, reason string, durationMinutes int) (*adminsession.Session, error)
	GetSessionFn       func(ctx context.Context, id uuid.UUID) (*adminsession.View, error)
	ListSessionsFn     func(ctx context.Context, operatorID *uuid.UUID, activeOnly bool) ([]adminsession.View, error)
	IsSessionActiveFn  func(s *adminsession.Session) bool
	AttributeFn        func(ctx context.Context, sessionID, operatorID uuid.UUID) (context.Context, *adminsession.Session, error)
	AllowedDurationsFn func() []int
}

func (m *AdminSessionServiceMock) StartSession(ctx context.Context, operatorID, tenantID uuid.UUID, reason string, durationMinutes int) (*adminsession.Session, error) {
	if m.StartSessionFn != nil {
		return m.StartSessionFn(ctx, operatorID, tenantID, reason, durationMinutes)
	}
	return nil, fmt.Errorf("not implemented")
}
func (m *AdminSessionServiceMock) GetSession(ctx context.Context, id uuid.UUID) (*adminsession.View, error) {
	if m.GetSessionFn != nil {
		return m.GetSessionFn(ctx, id)
	}
	return nil, ports.NewNotFoundError("admin session %s not found", id)
}
func (m *AdminSessionServiceMock) ListSessions(ctx context.Context, operatorID *uuid.UUID, activeOnly bool) ([]adminsession.View, error) {
	if m.ListSessionsFn != nil {
		return m.ListSessionsFn(ctx, operatorID, activeOnly)
	}
	return []adminsession.View{}, nil
}
func (m *AdminSessionServiceMock) IsSessionActive(s *adminsession.Session) bool {
	if m.IsSessionActiveFn != nil {
		return m.IsSessionActiveFn(s)
	}
	return s != nil && s.IsActive(time.Now())
}
func (m *AdminSessionServiceMock) Attribute(ctx context.Context, sessionID, operatorID uuid.UUID) (context.Context, *adminsession.Session, error) {
	if m.AttributeFn != nil {
		return m.AttributeFn(ctx, sessionID, operatorID)
	}
	return ctx, nil, ports.NewNotFoundError("admin session %s not found", sessionID)
}
func (m *AdminSessionServiceMock) AllowedDurations() []int {
	if m.AllowedDurationsFn != nil {
		return m.AllowedDurationsFn()
	}
	return adminsession.DefaultAllowedDurations
}

// AuditServiceMock mocks ports.AuditService
type AuditServiceMock struct {
	RecordFn     func(ctx context.Context, req *ports.RecordRequest) (*audit.Event, error)
	AppendWithFn func(ctx context.Context, repo ports.AuditRepository, e *audit.Event) error
	QueryFn      func(ctx context.Context, filter *audit.Filter) ([]*audit.Event, int, error)
	ExportFn     func(ctx context.Context, filter *audit.Filter) ([]byte, error)
}

func (m *AuditServiceMock) Record(ctx context.Context, req *ports.RecordRequest) (*audit.Event, error) {
	if m.RecordFn != nil {
		return m.RecordFn(ctx, req)
	}
	return &audit.Event{Action: req.Action, EntityType: req.EntityType, EntityID: req.EntityID}, nil
}
func (m *AuditServiceMock) AppendWith(ctx context.Context, repo ports.AuditRepository, e *audit.Event) error {
	if m.AppendWithFn != nil {
		return m.AppendWithFn(ctx, repo, e)
	}
	return repo.Append(ctx, e)
}
func (m *AuditServiceMock) Query(ctx context.Context, filter *audit.Filter) ([]*audit.Event, int, error) {
	if m.QueryFn != nil {
		return m.QueryFn(ctx, filter)
	}
	return []*audit.Event{}, 0, nil
}
func (m *AuditServiceMock) Export(ctx context.Context, filter *audit.Filter) ([]byte, error) {
	if m.ExportFn != nil {
		return m.ExportFn(ctx, filter)
	}
	return []byte{}, nil
}

// RateLimiterServiceMock mocks ports.RateLimiterService
type RateLimiterServiceMock struct {
	AllowFn func(ctx context.Context, principalID uuid.UUID, route string) (bool, int, int, time.Time, error)
}

func (m *RateLimiterServiceMock) Allow(ctx context.Context, principalID uuid.UUID, route string) (bool, int, int, time.Time, error) {
	if m.AllowFn != nil {
		return m.AllowFn(ctx, principalID, route)
	}
	return true, 100, 100, time.Now().Add(time.Minute), nil
}

// OnboardingServiceMock mocks ports.OnboardingService
type OnboardingServiceMock struct {
	InviteFn      func(ctx context.Context, req *ports.InviteRequest) (*employee.Employee, error)
	GetEmployeeFn func(ctx context.Context, id uuid.UUID) (*employee.Employee, error)
	RegisterFn    func(ctx context.Context, employeeID, userID uuid.UUID) (*employee.Employee, error)
	ApproveFn     func(ctx context.Context, employeeID, profileID uuid.UUID) (*employee.Employee, error)
	RejectFn      func(ctx context.Context, employeeID uuid.UUID, reason string) (*employee.Employee, error)
	BlockFn       func(ctx context.Context, employeeID uuid.UUID, reason string) (*employee.Employee, error)
	DeactivateFn  func(ctx context.Context, employeeID uuid.UUID) (*employee.Employee, error)
	ReactivateFn  func(ctx context.Context, employeeID uuid.UUID) (*employee.Employee, error)
	ListPendingFn func(ctx context.Context, workshopID uuid.UUID) ([]*employee.Employee, error)
}

func withStatus(id uuid.UUID, st employee.Status) *employee.Employee {
	return &employee.Employee{ID: id, Status: st}
}

func (m *OnboardingServiceMock) Invite(ctx context.Context, req *ports.InviteRequest) (*employee.Employee, error) {
	if m.InviteFn != nil {
		return m.InviteFn(ctx, req)
	}
	return &employee.Employee{ID: uuid.New(), WorkshopID: req.WorkshopID, Name: req.Name, Email: req.Email, Status: employee.StatusInvited}, nil
}
func (m *OnboardingServiceMock) GetEmployee(ctx context.Context, id uuid.UUID) (*employee.Employee, error) {
	if m.GetEmployeeFn != nil {
		return m.GetEmployeeFn(ctx, id)
	}
	return nil, ports.NewNotFoundError("employee %s not found", id)
}
func (m *OnboardingServiceMock) Register(ctx context.Context, employeeID, userID uuid.UUID) (*employee.Employee, error) {
	if m.RegisterFn != nil {
		return m.RegisterFn(ctx, employeeID, userID)
	}
	e := withStatus(employeeID, employee.StatusPending)
	e.UserID = &userID
	return e, nil
}
func (m *OnboardingServiceMock) Approve(ctx context.Context, employeeID, profileID uuid.UUID) (*employee.Employee, error) {
	if m.ApproveFn != nil {
		return m.ApproveFn(ctx, employeeID, profileID)
	}
	e := withStatus(employeeID, employee.StatusApproved)
	e.ProfileID = &profileID
	return e, nil
}
func (m *OnboardingServiceMock) Reject(ctx context.Context, employeeID uuid.UUID, reason string) (*employee.Employee, error) {
	if m.RejectFn != nil {
		return m.RejectFn(ctx, employeeID, reason)
	}
	return withStatus(employeeID, employee.StatusRejected), nil
}
func (m *OnboardingServiceMock) Block(ctx context.Context, employeeID uuid.UUID, reason string) (*employee.Employee, error) {
	if m.BlockFn != nil {
		return m.BlockFn(ctx, employeeID, reason)
	}
	return withStatus(employeeID, employee.StatusBlocked), nil
}
func (m *OnboardingServiceMock) Deactivate(ctx context.Context, employeeID uuid.UUID) (*employee.Employee, error) {
	if m.DeactivateFn != nil {
		return m.DeactivateFn(ctx, employeeID)
	}
	return withStatus(employeeID, employee.StatusInactive), nil
}
func (m *OnboardingServiceMock) Reactivate(ctx context.Context, employeeID uuid.UUID) (*employee.Employee, error) {
	if m.ReactivateFn != nil {
		return m.ReactivateFn(ctx, employeeID)
	}
	return withStatus(employeeID, employee.StatusApproved), nil
}
func (m *OnboardingServiceMock) ListPending(ctx context.Context, workshopID uuid.UUID) ([]*employee.Employee, error) {
	if m.ListPendingFn != nil {
		return m.ListPendingFn(ctx, workshopID)
	}
	return []*employee.Employee{}, nil
}

// ProfileServiceMock mocks ports.ProfileService
type ProfileServiceMock struct {
	CreateProfileFn     func(ctx context.Context, p *profile.Profile) (*profile.Profile, error)
	CreateFromJobRoleFn func(ctx context.Context, jobRole, name string, workshopID *uuid.UUID) (*profile.Profile, error)
	GetProfileFn        func(ctx context.Context, id uuid.UUID) (*profile.Profile, error)
	ListProfilesFn      func(ctx context.Context, workshopID *uuid.UUID) ([]*profile.Profile, error)
	UpdatePermissionsFn func(ctx context.Context, id uuid.UUID, req *ports.UpdatePermissionsRequest) (*profile.Profile, error)
	CreateCustomRoleFn  func(ctx context.Context, r *profile.CustomRole) (*profile.CustomRole, error)
	ListCustomRolesFn   func(ctx context.Context, workshopID *uuid.UUID) ([]*profile.CustomRole, error)
}

func (m *ProfileServiceMock) CreateProfile(ctx context.Context, p *profile.Profile) (*profile.Profile, error) {
	if m.CreateProfileFn != nil {
		return m.CreateProfileFn(ctx, p)
	}
	p.ID = uuid.New()
	return p, nil
}
func (m *ProfileServiceMock) CreateFromJobRole(ctx context.Context, jobRole, name string, workshopID *uuid.UUID) (*profile.Profile, error) {
	if m.CreateFromJobRoleFn != nil {
		return m.CreateFromJobRoleFn(ctx, jobRole, name, workshopID)
	}
	p := profile.FromTemplate(name, jobrole.LookupDefaults(jobRole))
	p.ID, p.WorkshopID = uuid.New(), workshopID
	return p, nil
}
func (m *ProfileServiceMock) GetProfile(ctx context.Context, id uuid.UUID) (*profile.Profile, error) {
	if m.GetProfileFn != nil {
		return m.GetProfileFn(ctx, id)
	}
	return nil, ports.NewNotFoundError("profile %s not found", id)
}
func (m *ProfileServiceMock) ListProfiles(ctx context.Context, workshopID *uuid.UUID) ([]*profile.Profile, error) {
	if m.ListProfilesFn != nil {
		return m.ListProfilesFn(ctx, workshopID)
	}
	return []*profile.Profile{}, nil
}
func (m *ProfileServiceMock) UpdatePermissions(ctx context.Context, id uuid.UUID, req *ports.UpdatePermissionsRequest) (*profile.Profile, error) {
	if m.UpdatePermissionsFn != nil {
		return m.UpdatePermissionsFn(ctx, id, req)
	}
	return &profile.Profile{ID: id, Roles: req.Roles, CustomRoleIDs: req.CustomRoleIDs, ModuleAccess: req.ModuleAccess}, nil
}
func (m *ProfileServiceMock) CreateCustomRole(ctx context.Context, r *profile.CustomRole) (*profile.CustomRole, error) {
	if m.CreateCustomRoleFn != nil {
		return m.CreateCustomRoleFn(ctx, r)
	}
	r.ID = uuid.New()
	return r, nil
}
func (m *ProfileServiceMock) ListCustomRoles(ctx context.Context, workshopID *uuid.UUID) ([]*profile.CustomRole, error) {
	if m.ListCustomRolesFn != nil {
		return m.ListCustomRolesFn(ctx, workshopID)
	}
	return []*profile.CustomRole{}, nil
}
func (m *ProfileServiceMock) JobRoleDefaults(jobRole string) jobrole.Bundle {
	return jobrole.LookupDefaults(jobRole)
}

// TenantServiceMock mocks ports.TenantService
type TenantServiceMock struct {
	CreateTenantFn func(ctx context.Context, name, slug string) (*tenant.Tenant, error)
	GetTenantFn    func(ctx context.Context, id uuid.UUID) (*tenant.Tenant, error)
	ListTenantsFn  func(ctx context.Context, limit, offset int) ([]*tenant.Tenant, int, error)
}

func (m *TenantServiceMock) CreateTenant(ctx context.Context, name, slug string) (*tenant.Tenant, error) {
	if m.CreateTenantFn != nil {
		return m.CreateTenantFn(ctx, name, slug)
	}
	return &tenant.Tenant{ID: uuid.New(), Name: name, Slug: slug, Status: tenant.TenantStatusActive}, nil
}
func (m *TenantServiceMock) GetTenant(ctx context.Context, id uuid.UUID) (*tenant.Tenant, error) {
	if m.GetTenantFn != nil {
		return m.GetTenantFn(ctx, id)
	}
	return nil, ports.NewNotFoundError("workshop %s not found", id)
}
func (m *TenantServiceMock) ListTenants(ctx context.Context, limit, offset int) ([]*tenant.Tenant, int, error) {
	if m.ListTenantsFn != nil {
		return m.ListTenantsFn(ctx, limit, offset)
	}
	return []*tenant.Tenant{}, 0, nil
}
