package memory

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/workshopops/accesscontrol/internal/core/domain/adminsession"
	"github.com/workshopops/accesscontrol/internal/core/domain/audit"
	"github.com/workshopops/accesscontrol/internal/core/domain/employee"
	"github.com/workshopops/accesscontrol/internal/core/domain/profile"
	"github.com/workshopops/accesscontrol/internal/core/domain/tenant"
	"github.com/workshopops/accesscontrol/internal/core/domain/user"
	"github.com/workshopops/accesscontrol/internal/core/ports"
)

var errDuplicate = errors.New("duplicate key")

type userRepo struct{ a access }

func (r *userRepo) Create(_ context.Context, u *user.User) error {
	if err := r.a.failure(OpUserCreate); err != nil {
		return err
	}
	return r.a.write(func(st *state) error {
		if _, ok := st.users[u.ID]; ok {
			return fmt.Errorf("user %s: %w", u.ID, errDuplicate)
		}
		st.users[u.ID] = copyUser(u)
		return nil
	})
}

func (r *userRepo) GetByID(_ context.Context, id uuid.UUID) (*user.User, error) {
	var out *user.User
	err := r.a.read(func(st *state) error {
		u, ok := st.users[id]
		if !ok {
			return fmt.Errorf("user %s: %w", id, ports.ErrNotFound)
		}
		out = copyUser(u)
		return nil
	})
	return out, err
}

func (r *userRepo) SetProfile(_ context.Context, id uuid.UUID, profileID *uuid.UUID) error {
	if err := r.a.failure(OpUserSetProfile); err != nil {
		return err
	}
	return r.a.write(func(st *state) error {
		u, ok := st.users[id]
		if !ok {
			return fmt.Errorf("user %s: %w", id, ports.ErrNotFound)
		}
		next := copyUser(u)
		next.ProfileID = copyID(profileID)
		next.UpdatedAt = time.Now().UTC()
		st.users[id] = next
		return nil
	})
}

type employeeRepo struct{ a access }

func (r *employeeRepo) Create(_ context.Context, e *employee.Employee) error {
	return r.a.write(func(st *state) error {
		if _, ok := st.employees[e.ID]; ok {
			return fmt.Errorf("employee %s: %w", e.ID, errDuplicate)
		}
		st.employees[e.ID] = copyEmployee(e)
		return nil
	})
}

func (r *employeeRepo) GetByID(_ context.Context, id uuid.UUID) (*employee.Employee, error) {
	var out *employee.Employee
	err := r.a.read(func(st *state) error {
		e, ok := st.employees[id]
		if !ok {
			return fmt.Errorf("employee %s: %w", id, ports.ErrNotFound)
		}
		out = copyEmployee(e)
		return nil
	})
	return out, err
}

func (r *employeeRepo) GetByUserID(_ context.Context, userID uuid.UUID) (*employee.Employee, error) {
	var out *employee.Employee
	err := r.a.read(func(st *state) error {
		for _, e := range st.employees {
			if e.UserID == nil || *e.UserID != userID {
				continue
			}
			if out == nil || e.CreatedAt.After(out.CreatedAt) {
				out = e
			}
		}
		if out == nil {
			return fmt.Errorf("employee for %s: %w", userID, ports.ErrNotFound)
		}
		out = copyEmployee(out)
		return nil
	})
	return out, err
}

func (r *employeeRepo) ListByStatus(_ context.Context, workshopID uuid.UUID, status employee.Status) ([]*employee.Employee, error) {
	out := []*employee.Employee{}
	err := r.a.read(func(st *state) error {
		for _, e := range st.employees {
			if e.WorkshopID == workshopID && e.Status == status {
				out = append(out, copyEmployee(e))
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, err
}

func (r *employeeRepo) TransitionStatus(_ context.Context, id uuid.UUID, from, to employee.Status, change ports.StatusChange) error {
	if err := r.a.failure(OpEmployeeTransition); err != nil {
		return err
	}
	return r.a.write(func(st *state) error {
		e, ok := st.employees[id]
		if !ok || e.Status != from {
			return fmt.Errorf("employee %s no longer %s: %w", id, from, ports.ErrStaleState)
		}
		if change.UserID != nil {
			for _, other := range st.employees {
				if other.ID != id && other.UserID != nil && *other.UserID == *change.UserID {
					return fmt.Errorf("employee user %s: %w", *change.UserID, errDuplicate)
				}
			}
		}
		next := copyEmployee(e)
		next.Status = to
		if change.UserID != nil {
			next.UserID = copyID(change.UserID)
		}
		if change.ProfileID != nil {
			next.ProfileID = copyID(change.ProfileID)
		}
		next.UpdatedAt = time.Now().UTC()
		st.employees[id] = next
		return nil
	})
}

type profileRepo struct{ a access }

func (r *profileRepo) Create(_ context.Context, p *profile.Profile) error {
	if err := r.a.failure(OpProfileCreate); err != nil {
		return err
	}
	return r.a.write(func(st *state) error {
		if _, ok := st.profiles[p.ID]; ok {
			return fmt.Errorf("profile %s: %w", p.ID, errDuplicate)
		}
		st.profiles[p.ID] = copyProfile(p)
		return nil
	})
}

func (r *profileRepo) GetByID(_ context.Context, id uuid.UUID) (*profile.Profile, error) {
	var out *profile.Profile
	err := r.a.read(func(st *state) error {
		p, ok := st.profiles[id]
		if !ok {
			return fmt.Errorf("profile %s: %w", id, ports.ErrNotFound)
		}
		out = copyProfile(p)
		return nil
	})
	return out, err
}

func (r *profileRepo) List(_ context.Context, workshopID *uuid.UUID) ([]*profile.Profile, error) {
	out := []*profile.Profile{}
	err := r.a.read(func(st *state) error {
		for _, p := range st.profiles {
			if visibleTo(p.WorkshopID, workshopID) {
				out = append(out, copyProfile(p))
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, err
}

func (r *profileRepo) Update(_ context.Context, p *profile.Profile) error {
	if err := r.a.failure(OpProfileUpdate); err != nil {
		return err
	}
	return r.a.write(func(st *state) error {
		if _, ok := st.profiles[p.ID]; !ok {
			return fmt.Errorf("profile %s: %w", p.ID, ports.ErrNotFound)
		}
		st.profiles[p.ID] = copyProfile(p)
		return nil
	})
}

type customRoleRepo struct{ a access }

func (r *customRoleRepo) Create(_ context.Context, cr *profile.CustomRole) error {
	if err := r.a.failure(OpCustomRoleCreate); err != nil {
		return err
	}
	return r.a.write(func(st *state) error {
		if _, ok := st.customRoles[cr.ID]; ok {
			return fmt.Errorf("custom role %s: %w", cr.ID, errDuplicate)
		}
		st.customRoles[cr.ID] = copyCustomRole(cr)
		return nil
	})
}

func (r *customRoleRepo) GetByIDs(_ context.Context, ids []uuid.UUID) ([]*profile.CustomRole, error) {
	out := []*profile.CustomRole{}
	err := r.a.read(func(st *state) error {
		for _, id := range ids {
			if cr, ok := st.customRoles[id]; ok {
				out = append(out, copyCustomRole(cr))
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, err
}

func (r *customRoleRepo) List(_ context.Context, workshopID *uuid.UUID) ([]*profile.CustomRole, error) {
	out := []*profile.CustomRole{}
	err := r.a.read(func(st *state) error {
		for _, cr := range st.customRoles {
			if visibleTo(cr.WorkshopID, workshopID) {
				out = append(out, copyCustomRole(cr))
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, err
}

// visibleTo mirrors the SQL filter: global records are visible to every workshop.
func visibleTo(owner, workshopID *uuid.UUID) bool {
	return workshopID == nil || owner == nil || *owner == *workshopID
}

type tenantRepo struct{ a access }

func (r *tenantRepo) Create(_ context.Context, t *tenant.Tenant) error {
	return r.a.write(func(st *state) error {
		for _, existing := range st.tenants {
			if existing.ID == t.ID || existing.Slug == t.Slug {
				return fmt.Errorf("workshop %s: %w", t.Slug, errDuplicate)
			}
		}
		cp := *t
		st.tenants[t.ID] = &cp
		return nil
	})
}

func (r *tenantRepo) GetByID(_ context.Context, id uuid.UUID) (*tenant.Tenant, error) {
	return r.find(func(t *tenant.Tenant) bool { return t.ID == id }, id.String())
}

func (r *tenantRepo) GetBySlug(_ context.Context, slug string) (*tenant.Tenant, error) {
	return r.find(func(t *tenant.Tenant) bool { return t.Slug == slug }, slug)
}

func (r *tenantRepo) find(match func(*tenant.Tenant) bool, key string) (*tenant.Tenant, error) {
	var out *tenant.Tenant
	err := r.a.read(func(st *state) error {
		for _, t := range st.tenants {
			if match(t) {
				cp := *t
				out = &cp
				return nil
			}
		}
		return fmt.Errorf("workshop %s: %w", key, ports.ErrNotFound)
	})
	return out, err
}

func (r *tenantRepo) List(_ context.Context, limit, offset int) ([]*tenant.Tenant, error) {
	all := []*tenant.Tenant{}
	err := r.a.read(func(st *state) error {
		for _, t := range st.tenants {
			cp := *t
			all = append(all, &cp)
		}
		return nil
	})
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	if offset >= len(all) {
		return []*tenant.Tenant{}, err
	}
	end := len(all)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return all[offset:end], err
}

func (r *tenantRepo) Count(_ context.Context) (int, error) {
	var n int
	err := r.a.read(func(st *state) error {
		n = len(st.tenants)
		return nil
	})
	return n, err
}

type sessionRepo struct{ a access }

func (r *sessionRepo) Create(_ context.Context, s *adminsession.Session) error {
	if err := r.a.failure(OpSessionCreate); err != nil {
		return err
	}
	return r.a.write(func(st *state) error {
		if _, ok := st.sessions[s.ID]; ok {
			return fmt.Errorf("admin session %s: %w", s.ID, errDuplicate)
		}
		cp := *s
		st.sessions[s.ID] = &cp
		return nil
	})
}

func (r *sessionRepo) GetByID(_ context.Context, id uuid.UUID) (*adminsession.Session, error) {
	var out *adminsession.Session
	err := r.a.read(func(st *state) error {
		s, ok := st.sessions[id]
		if !ok {
			return fmt.Errorf("admin session %s: %w", id, ports.ErrNotFound)
		}
		cp := *s
		out = &cp
		return nil
	})
	return out, err
}

func (r *sessionRepo) List(_ context.Context, operatorID *uuid.UUID) ([]*adminsession.Session, error) {
	out := []*adminsession.Session{}
	err := r.a.read(func(st *state) error {
		for _, s := range st.sessions {
			if operatorID == nil || s.OperatorID == *operatorID {
				cp := *s
				out = append(out, &cp)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	return out, err
}

type auditRepo struct{ a access }

func (r *auditRepo) Append(_ context.Context, e *audit.Event) error {
	if err := r.a.failure(OpAuditAppend); err != nil {
		return err
	}
	return r.a.write(func(st *state) error {
		st.events = append(st.events, copyEvent(e))
		return nil
	})
}

func (r *auditRepo) List(_ context.Context, filter *audit.Filter) ([]*audit.Event, error) {
	matched := r.matching(filter)
	audit.SortNewestFirst(matched)
	limit, offset := 0, 0
	if filter != nil {
		limit, offset = filter.Limit, filter.Offset
	}
	return audit.Page(matched, limit, offset), nil
}

func (r *auditRepo) Count(_ context.Context, filter *audit.Filter) (int, error) {
	return len(r.matching(filter)), nil
}

func (r *auditRepo) LatestTimestamp(_ context.Context, actorID uuid.UUID) (time.Time, error) {
	var latest time.Time
	err := r.a.read(func(st *state) error {
		for _, e := range st.events {
			if e.ActorID != nil && *e.ActorID == actorID && e.Timestamp.After(latest) {
				latest = e.Timestamp
			}
		}
		return nil
	})
	return latest, err
}

func (r *auditRepo) matching(filter *audit.Filter) []*audit.Event {
	out := []*audit.Event{}
	_ = r.a.read(func(st *state) error {
		for _, e := range st.events {
			if filter.Matches(e) {
				out = append(out, copyEvent(e))
			}
		}
		return nil
	})
	return out
}

func copyID(id *uuid.UUID) *uuid.UUID {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}

func copyUser(u *user.User) *user.User {
	cp := *u
	cp.ProfileID = copyID(u.ProfileID)
	if u.PlatformRole != nil {
		r := *u.PlatformRole
		cp.PlatformRole = &r
	}
	return &cp
}

func copyEmployee(e *employee.Employee) *employee.Employee {
	cp := *e
	cp.UserID = copyID(e.UserID)
	cp.ProfileID = copyID(e.ProfileID)
	return &cp
}

func copyProfile(p *profile.Profile) *profile.Profile {
	cp := *p
	cp.WorkshopID = copyID(p.WorkshopID)
	cp.Roles = slices.Clone(p.Roles)
	cp.CustomRoleIDs = slices.Clone(p.CustomRoleIDs)
	cp.ModuleAccess = maps.Clone(p.ModuleAccess)
	cp.SidebarAccess = maps.Clone(p.SidebarAccess)
	return &cp
}

func copyCustomRole(r *profile.CustomRole) *profile.CustomRole {
	cp := *r
	cp.WorkshopID = copyID(r.WorkshopID)
	cp.SystemRoles = slices.Clone(r.SystemRoles)
	return &cp
}

func copyEvent(e *audit.Event) *audit.Event {
	cp := *e
	cp.ActorID = copyID(e.ActorID)
	cp.TenantID = copyID(e.TenantID)
	cp.OnBehalfOfTenant = copyID(e.OnBehalfOfTenant)
	cp.AdminSessionID = copyID(e.AdminSessionID)
	cp.Details = maps.Clone(e.Details)
	return &cp
}
