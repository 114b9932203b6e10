// Package access holds the pure permission resolution rules. Nothing in here performs I/O;
// callers load current records and pass them in for every decision.
package access

import (
	"maps"

	"github.com/google/uuid"

	"github.com/workshopops/accesscontrol/internal/core/domain/employee"
	"github.com/workshopops/accesscontrol/internal/core/domain/permission"
	"github.com/workshopops/accesscontrol/internal/core/domain/profile"
	"github.com/workshopops/accesscontrol/internal/core/domain/user"
)

// Provisioning explains where a principal stands in the onboarding model.
type Provisioning string

const (
	ProvisioningAdmin          Provisioning = "admin"
	ProvisioningReady          Provisioning = "ready"
	ProvisioningNoProfile      Provisioning = "no_profile"
	ProvisioningNotProvisioned Provisioning = "not_provisioned"
	ProvisioningPending        Provisioning = "pending"
	ProvisioningRejected       Provisioning = "rejected"
	ProvisioningBlocked        Provisioning = "blocked"
	ProvisioningInactive       Provisioning = "inactive"
)

// Inputs are the records a resolution reads. Employee is the record linked to User by
// user_id, nil when none. Profile is the record ProfileRef pointed at, nil when missing.
type Inputs struct {
	User        *user.User
	Employee    *employee.Employee
	Profile     *profile.Profile
	CustomRoles []*profile.CustomRole
}

// PermissionSet is the resolved view of what a principal may do.
type PermissionSet struct {
	UserID        uuid.UUID                           `json:"user_id"`
	Permissions   []permission.Permission             `json:"permissions"`
	IsAdmin       bool                                `json:"is_admin"`
	IsInternal    bool                                `json:"is_internal"`
	IsOperator    bool                                `json:"is_operator"`
	WorkshopID    *uuid.UUID                          `json:"workshop_id,omitempty"`
	ProfileName   string                              `json:"profile_name,omitempty"`
	ModuleAccess  permission.ModuleAccess             `json:"module_access"`
	SidebarAccess map[string]permission.SidebarAccess `json:"sidebar_access"`
	Provisioning  Provisioning                        `json:"provisioning"`

	set permission.Set
}

// Has reports whether p is in the resolved set.
func (ps *PermissionSet) Has(p permission.Permission) bool {
	if ps == nil {
		return false
	}
	if ps.IsAdmin {
		return true
	}
	return ps.set.Has(p)
}

// HasAny reports whether any of perms is in the resolved set.
func (ps *PermissionSet) HasAny(perms ...permission.Permission) bool {
	for _, p := range perms {
		if ps.Has(p) {
			return true
		}
	}
	return false
}

// IsInternal ORs the three independent internal signals.
func IsInternal(u *user.User, e *employee.Employee) bool {
	if u != nil && u.IsInternal {
		return true
	}
	if e != nil && (e.IsInternal || e.InternalByVinculo()) {
		return true
	}
	return false
}

// ProfileRef picks the profile to load: the identity's own reference first, then the employee's.
func ProfileRef(u *user.User, e *employee.Employee) *uuid.UUID {
	if u != nil && u.ProfileID != nil {
		return u.ProfileID
	}
	if e != nil && e.ProfileID != nil {
		return e.ProfileID
	}
	return nil
}

// NeedsProfile reports whether resolution would consult a profile at all. Admins and
// employees that are not approved resolve without one.
func NeedsProfile(u *user.User, e *employee.Employee) bool {
	if u == nil || u.IsAdmin() {
		return false
	}
	if e != nil && e.Status != employee.StatusApproved {
		return false
	}
	return ProfileRef(u, e) != nil
}

// Resolve computes the permission set for in.User from current records.
func Resolve(in Inputs) *PermissionSet {
	ps := &PermissionSet{
		Permissions:   []permission.Permission{},
		ModuleAccess:  permission.ModuleAccess{},
		SidebarAccess: map[string]permission.SidebarAccess{},
		set:           permission.Set{},
	}
	if in.User == nil {
		ps.Provisioning = ProvisioningNotProvisioned
		return ps
	}
	ps.UserID = in.User.ID
	ps.IsInternal = IsInternal(in.User, in.Employee)
	ps.IsOperator = in.User.IsOperator()
	if in.Employee != nil {
		id := in.Employee.WorkshopID
		ps.WorkshopID = &id
	}

	if in.User.IsAdmin() {
		all := permission.GetAllPermissions()
		ps.IsAdmin = true
		ps.Provisioning = ProvisioningAdmin
		ps.Permissions = all
		ps.set = permission.NewSet(all...)
		for _, m := range permission.Modules() {
			ps.ModuleAccess[m] = permission.TierTotal
		}
		if in.Profile != nil {
			ps.ProfileName = in.Profile.Name
		}
		return ps
	}

	if in.Employee != nil && in.Employee.Status != employee.StatusApproved {
		ps.Provisioning = provisioningFor(in.Employee.Status)
		return ps
	}

	if in.Profile == nil {
		if in.Employee == nil && ProfileRef(in.User, nil) == nil {
			ps.Provisioning = ProvisioningNotProvisioned
		} else {
			ps.Provisioning = ProvisioningNoProfile
		}
		return ps
	}

	ps.Provisioning = ProvisioningReady
	ps.ProfileName = in.Profile.Name
	ps.set = profile.Effective(in.Profile, in.CustomRoles)
	ps.Permissions = ps.set.Sorted()
	if in.Profile.ModuleAccess != nil {
		ps.ModuleAccess = maps.Clone(in.Profile.ModuleAccess)
	}
	if in.Profile.SidebarAccess != nil {
		ps.SidebarAccess = maps.Clone(in.Profile.SidebarAccess)
	}
	return ps
}

func provisioningFor(s employee.Status) Provisioning {
	switch s {
	case employee.StatusPending:
		return ProvisioningPending
	case employee.StatusRejected:
		return ProvisioningRejected
	case employee.StatusBlocked:
		return ProvisioningBlocked
	case employee.StatusInactive:
		return ProvisioningInactive
	default:
		return ProvisioningNotProvisioned
	}
}
