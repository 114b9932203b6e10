package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/workshopops/accesscontrol/internal/core/domain/audit"
	"github.com/workshopops/accesscontrol/internal/core/domain/jobrole"
	"github.com/workshopops/accesscontrol/internal/core/domain/permission"
	"github.com/workshopops/accesscontrol/internal/core/domain/profile"
	"github.com/workshopops/accesscontrol/internal/core/ports"
)

// ProfileService manages profiles and custom roles. Profiles are shared by reference, so
// every write is visible to the next resolution of each identity that points at it.
type ProfileService struct {
	uow         ports.UnitOfWork
	profiles    ports.ProfileRepository
	customRoles ports.CustomRoleRepository
	audit       ports.AuditService
	now         func() time.Time
	logger      *logrus.Logger
}

func NewProfileService(uow ports.UnitOfWork, profiles ports.ProfileRepository, customRoles ports.CustomRoleRepository, auditSvc ports.AuditService, logger *logrus.Logger) ports.ProfileService {
	return &ProfileService{
		uow:         uow,
		profiles:    profiles,
		customRoles: customRoles,
		audit:       auditSvc,
		now:         time.Now,
		logger:      logger,
	}
}

func (s *ProfileService) CreateProfile(ctx context.Context, p *profile.Profile) (*profile.Profile, error) {
	return s.create(ctx, p, nil)
}

func (s *ProfileService) create(ctx context.Context, p *profile.Profile, details map[string]any) (*profile.Profile, error) {
	if p == nil {
		return nil, ports.NewValidationError("profile is required")
	}
	p.Name = strings.TrimSpace(p.Name)
	if p.Type == "" {
		p.Type = profile.TypeExternal
	}
	if p.ModuleAccess == nil {
		p.ModuleAccess = permission.ModuleAccess{}
	}
	if err := p.Validate(); err != nil {
		return nil, ports.NewValidationError("%s", err.Error())
	}
	if err := authorizeOwnerWrite(ctx, p.WorkshopID); err != nil {
		return nil, err
	}
	now := s.now().UTC()
	p.ID = uuid.New()
	p.CreatedAt, p.UpdatedAt = now, now

	err := s.uow.Do(ctx, func(ctx context.Context, repos ports.TxRepositories) error {
		roles, err := requireCustomRoles(ctx, repos.CustomRoles, p.CustomRoleIDs, p.WorkshopID)
		if err != nil {
			return err
		}
		if tenantCaller(ctx) {
			if err := tenantGrantable(p.Type, profile.Effective(p, roles)); err != nil {
				return err
			}
		}
		if err := repos.Profiles.Create(ctx, p); err != nil {
			return fmt.Errorf("failed to create profile: %w", err)
		}
		ev := &audit.Event{
			Action:     audit.ActionProfileCreated,
			EntityType: audit.EntityProfile,
			EntityID:   p.ID.String(),
			TenantID:   p.WorkshopID,
			Details:    map[string]any{"name": p.Name, "type": string(p.Type), "roles": len(p.Roles)},
		}
		for k, v := range details {
			ev.Details[k] = v
		}
		return s.audit.AppendWith(ctx, repos.Audit, ev)
	})
	if err != nil {
		return nil, err
	}
	if s.logger != nil {
		s.logger.WithFields(logrus.Fields{"profile_id": p.ID, "name": p.Name}).Info("profile created")
	}
	return p, nil
}

// CreateFromJobRole seeds a profile from the registry defaults of jobRole. Unknown job
// roles seed from the catch-all bundle.
func (s *ProfileService) CreateFromJobRole(ctx context.Context, jobRole, name string, workshopID *uuid.UUID) (*profile.Profile, error) {
	b := jobrole.LookupDefaults(jobRole)
	if strings.TrimSpace(name) == "" {
		name = string(b.JobRole)
	}
	p := profile.FromTemplate(name, b)
	p.WorkshopID = workshopID
	return s.create(ctx, p, map[string]any{"job_role": string(b.JobRole), "tier": string(b.Tier)})
}

func (s *ProfileService) GetProfile(ctx context.Context, id uuid.UUID) (*profile.Profile, error) {
	p, err := s.profiles.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return nil, ports.NewNotFoundError("profile %s not found", id)
		}
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	if p.WorkshopID != nil {
		if err := authorizeRead(ctx, *p.WorkshopID); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// ListProfiles lists the profiles usable in workshopID, global ones included. Workshop
// callers only ever see their own workshop.
func (s *ProfileService) ListProfiles(ctx context.Context, workshopID *uuid.UUID) ([]*profile.Profile, error) {
	workshopID, err := listScope(ctx, workshopID)
	if err != nil {
		return nil, err
	}
	list, err := s.profiles.List(ctx, workshopID)
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	return list, nil
}

// UpdatePermissions replaces the permission content of a profile and records the change.
func (s *ProfileService) UpdatePermissions(ctx context.Context, id uuid.UUID, req *ports.UpdatePermissionsRequest) (*profile.Profile, error) {
	if req == nil {
		return nil, ports.NewValidationError("permissions are required")
	}
	var out *profile.Profile
	err := s.uow.Do(ctx, func(ctx context.Context, repos ports.TxRepositories) error {
		p, err := repos.Profiles.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, ports.ErrNotFound) {
				return ports.NewNotFoundError("profile %s not found", id)
			}
			return fmt.Errorf("failed to load profile: %w", err)
		}
		if err := authorizeOwnerWrite(ctx, p.WorkshopID); err != nil {
			return err
		}
		before := permission.NewSet(p.Roles...)

		p.Roles = req.Roles
		p.CustomRoleIDs = req.CustomRoleIDs
		p.ModuleAccess = req.ModuleAccess
		if p.ModuleAccess == nil {
			p.ModuleAccess = permission.ModuleAccess{}
		}
		p.SidebarAccess = req.SidebarAccess
		if err := p.Validate(); err != nil {
			return ports.NewValidationError("%s", err.Error())
		}
		roles, err := requireCustomRoles(ctx, repos.CustomRoles, p.CustomRoleIDs, p.WorkshopID)
		if err != nil {
			return err
		}
		if tenantCaller(ctx) {
			if err := tenantGrantable(p.Type, profile.Effective(p, roles)); err != nil {
				return err
			}
		}
		p.UpdatedAt = s.now().UTC()
		if err := repos.Profiles.Update(ctx, p); err != nil {
			if errors.Is(err, ports.ErrNotFound) {
				return ports.NewNotFoundError("profile %s not found", id)
			}
			return fmt.Errorf("failed to update profile: %w", err)
		}

		added, removed := diffRoles(before, permission.NewSet(p.Roles...))
		ev := &audit.Event{
			Action:     audit.ActionPermissionChanged,
			EntityType: audit.EntityProfile,
			EntityID:   p.ID.String(),
			TenantID:   p.WorkshopID,
			Details: map[string]any{
				"added":           added,
				"removed":         removed,
				"custom_role_ids": len(p.CustomRoleIDs),
			},
		}
		if err := s.audit.AppendWith(ctx, repos.Audit, ev); err != nil {
			return err
		}
		out = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	if s.logger != nil {
		s.logger.WithFields(logrus.Fields{"profile_id": id, "roles": len(out.Roles)}).Info("profile permissions updated")
	}
	return out, nil
}

func diffRoles(before, after permission.Set) (added, removed []string) {
	added, removed = []string{}, []string{}
	for _, p := range after.Sorted() {
		if !before.Has(p) {
			added = append(added, string(p))
		}
	}
	for _, p := range before.Sorted() {
		if !after.Has(p) {
			removed = append(removed, string(p))
		}
	}
	return added, removed
}

// requireCustomRoles loads every referenced role. Each must exist and be global or
// owned by the same workshop as the referencing profile.
func requireCustomRoles(ctx context.Context, repo ports.CustomRoleRepository, ids []uuid.UUID, owner *uuid.UUID) ([]*profile.CustomRole, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	found, err := repo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load custom roles: %w", err)
	}
	have := make(map[uuid.UUID]bool, len(found))
	for _, r := range found {
		if r.WorkshopID != nil && (owner == nil || *r.WorkshopID != *owner) {
			return nil, ports.NewValidationError("custom role %s belongs to another workshop", r.ID)
		}
		have[r.ID] = true
	}
	for _, id := range ids {
		if !have[id] {
			return nil, ports.NewValidationError("unknown custom role %s", id)
		}
	}
	return found, nil
}

// authorizeOwnerWrite checks a write to a record owned by workshopID, or a global one when nil.
func authorizeOwnerWrite(ctx context.Context, workshopID *uuid.UUID) error {
	if workshopID == nil {
		return authorizeGlobalWrite(ctx)
	}
	return authorizeWrite(ctx, *workshopID)
}

func (s *ProfileService) CreateCustomRole(ctx context.Context, r *profile.CustomRole) (*profile.CustomRole, error) {
	if r == nil {
		return nil, ports.NewValidationError("custom role is required")
	}
	r.Name = strings.TrimSpace(r.Name)
	if err := r.Validate(); err != nil {
		return nil, ports.NewValidationError("%s", err.Error())
	}
	if err := authorizeOwnerWrite(ctx, r.WorkshopID); err != nil {
		return nil, err
	}
	if tenantCaller(ctx) {
		if err := tenantGrantable(profile.TypeExternal, permission.NewSet(r.SystemRoles...)); err != nil {
			return nil, err
		}
	}
	r.ID = uuid.New()
	r.CreatedAt = s.now().UTC()

	err := s.uow.Do(ctx, func(ctx context.Context, repos ports.TxRepositories) error {
		if err := repos.CustomRoles.Create(ctx, r); err != nil {
			return fmt.Errorf("failed to create custom role: %w", err)
		}
		return s.audit.AppendWith(ctx, repos.Audit, &audit.Event{
			Action:     audit.ActionCustomRoleCreated,
			EntityType: audit.EntityCustomRole,
			EntityID:   r.ID.String(),
			TenantID:   r.WorkshopID,
			Details:    map[string]any{"name": r.Name, "system_roles": len(r.SystemRoles)},
		})
	})
	if err != nil {
		return nil, err
	}
	if s.logger != nil {
		s.logger.WithFields(logrus.Fields{"custom_role_id": r.ID, "name": r.Name}).Info("custom role created")
	}
	return r, nil
}

func (s *ProfileService) ListCustomRoles(ctx context.Context, workshopID *uuid.UUID) ([]*profile.CustomRole, error) {
	workshopID, err := listScope(ctx, workshopID)
	if err != nil {
		return nil, err
	}
	list, err := s.customRoles.List(ctx, workshopID)
	if err != nil {
		return nil, fmt.Errorf("failed to list custom roles: %w", err)
	}
	return list, nil
}

func (s *ProfileService) JobRoleDefaults(jobRole string) jobrole.Bundle {
	return jobrole.LookupDefaults(jobRole)
}
