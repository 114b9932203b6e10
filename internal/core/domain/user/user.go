package user

import (
	"time"

	"github.com/google/uuid"
)

// User is an authenticated principal. Records are never physically deleted.
type User struct {
	ID           uuid.UUID     `json:"id" db:"id"`
	Email        string        `json:"email" db:"email"`
	Role         UserRole      `json:"role" db:"role"`
	IsInternal   bool          `json:"is_internal" db:"is_internal"`
	PlatformRole *PlatformRole `json:"platform_role,omitempty" db:"platform_role"`
	ProfileID    *uuid.UUID    `json:"profile_id,omitempty" db:"profile_id"`
	CreatedAt    time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at" db:"updated_at"`
}

type UserRole string

const (
	RoleAdmin  UserRole = "admin"
	RoleMember UserRole = "member"
)

func (r UserRole) String() string {
	return string(r)
}

func (r UserRole) IsValid() bool {
	switch r {
	case RoleAdmin, RoleMember:
		return true
	default:
		return false
	}
}

// PlatformRole marks platform-side staff allowed to open administrative sessions.
type PlatformRole string

const (
	PlatformOperator   PlatformRole = "operator"
	PlatformSuperAdmin PlatformRole = "super_admin"
)

func (r PlatformRole) IsValid() bool {
	switch r {
	case PlatformOperator, PlatformSuperAdmin:
		return true
	default:
		return false
	}
}

// IsAdmin reports whether the coarse system role grants everything.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// IsOperator reports whether the user holds a valid platform role.
func (u *User) IsOperator() bool {
	return u.PlatformRole != nil && u.PlatformRole.IsValid()
}
