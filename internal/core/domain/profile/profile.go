package profile

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/workshopops/accesscontrol/internal/core/domain/jobrole"
	"github.com/workshopops/accesscontrol/internal/core/domain/permission"
)

// Type distinguishes platform-side profiles from tenant profiles.
type Type string

const (
	TypeInternal Type = "internal"
	TypeExternal Type = "external"
)

func (t Type) IsValid() bool {
	return t == TypeInternal || t == TypeExternal
}

// Profile is a named permission bundle shared by reference across identities.
type Profile struct {
	ID            uuid.UUID                           `json:"id"`
	WorkshopID    *uuid.UUID                          `json:"workshop_id,omitempty"`
	Name          string                              `json:"name"`
	Type          Type                                `json:"type"`
	Roles         []permission.Permission             `json:"roles"`
	CustomRoleIDs []uuid.UUID                         `json:"custom_role_ids"`
	ModuleAccess  permission.ModuleAccess             `json:"module_permissions"`
	SidebarAccess map[string]permission.SidebarAccess `json:"sidebar_permissions,omitempty"`
	CreatedAt     time.Time                           `json:"created_at"`
	UpdatedAt     time.Time                           `json:"updated_at"`
}

// CustomRole is an operator-defined named set of system permissions.
type CustomRole struct {
	ID          uuid.UUID               `json:"id"`
	WorkshopID  *uuid.UUID              `json:"workshop_id,omitempty"`
	Name        string                  `json:"name"`
	SystemRoles []permission.Permission `json:"system_roles"`
	CreatedAt   time.Time               `json:"created_at"`
}

// Validate checks the closed enumerations a profile is built from.
func (p *Profile) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("profile name is required")
	}
	if !p.Type.IsValid() {
		return fmt.Errorf("unknown profile type %q", p.Type)
	}
	if err := permission.ValidatePermissions(p.Roles); err != nil {
		return err
	}
	return p.ModuleAccess.Validate()
}

// Validate checks the role name and permission identifiers.
func (r *CustomRole) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("custom role name is required")
	}
	return permission.ValidatePermissions(r.SystemRoles)
}

// References reports whether the profile points at the custom role id.
func (p *Profile) References(id uuid.UUID) bool {
	return slices.Contains(p.CustomRoleIDs, id)
}

// Effective unions the profile's own roles with the system roles of every referenced
// custom role in roles. Roles not referenced by p are ignored.
func Effective(p *Profile, roles []*CustomRole) permission.Set {
	set := permission.NewSet(p.Roles...)
	for _, r := range roles {
		if r == nil || !p.References(r.ID) {
			continue
		}
		set.Add(r.SystemRoles...)
	}
	return set
}

// FromTemplate builds an unsaved profile from a job-role bundle.
func FromTemplate(name string, b jobrole.Bundle) *Profile {
	p := &Profile{
		Name:          name,
		Type:          TypeExternal,
		ModuleAccess:  permission.ModuleAccess{},
		SidebarAccess: map[string]permission.SidebarAccess{},
	}
	for _, m := range permission.Modules() {
		caps := b.Module(m)
		for _, c := range caps.Granted() {
			p.Roles = append(p.Roles, permission.For(m, c))
		}
		switch {
		case caps.View && caps.Edit:
			p.ModuleAccess[m] = permission.TierTotal
		case caps.View:
			p.ModuleAccess[m] = permission.TierView
		default:
			p.ModuleAccess[m] = permission.TierBlocked
		}
		if caps.View {
			p.SidebarAccess[string(m)] = permission.SidebarAccess{View: caps.View, Edit: caps.Edit, Delete: caps.Delete}
		}
	}
	return p
}

// DecodeModuleAccess strictly parses a stored module-permission document.
func DecodeModuleAccess(b []byte) (permission.ModuleAccess, error) {
	ma := permission.ModuleAccess{}
	if len(b) == 0 {
		return ma, nil
	}
	if err := json.Unmarshal(b, &ma); err != nil {
		return nil, fmt.Errorf("invalid module permissions: %w", err)
	}
	if err := ma.Validate(); err != nil {
		return nil, fmt.Errorf("invalid module permissions: %w", err)
	}
	return ma, nil
}

// DecodeSidebarAccess parses a stored sidebar-permission document.
func DecodeSidebarAccess(b []byte) (map[string]permission.SidebarAccess, error) {
	out := map[string]permission.SidebarAccess{}
	if len(b) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("invalid sidebar permissions: %w", err)
	}
	return out, nil
}
