package employee

import (
	"database/sql/driver"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Employee is a workshop-scoped person record linked to at most one identity.
type Employee struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	WorkshopID  uuid.UUID  `json:"workshop_id" db:"workshop_id"`
	UserID      *uuid.UUID `json:"user_id,omitempty" db:"user_id"`
	ProfileID   *uuid.UUID `json:"profile_id,omitempty" db:"profile_id"`
	Name        string     `json:"name" db:"name"`
	Email       string     `json:"email" db:"email"`
	JobRole     string     `json:"job_role" db:"job_role"`
	IsInternal  bool       `json:"is_internal" db:"is_internal"`
	TipoVinculo string     `json:"tipo_vinculo" db:"tipo_vinculo"`
	Status      Status     `json:"user_status" db:"user_status"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}

// VinculoInterno is the employment-link value that marks platform-side staff.
const VinculoInterno = "interno"

// Status is the onboarding lifecycle state of an employee.
type Status string

const (
	StatusInvited  Status = "invited"
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
	StatusBlocked  Status = "blocked"
	StatusInactive Status = "inactive"
)

// legacyActive is accepted on read as a synonym for approved.
const legacyActive = "active"

// ParseStatus maps a stored value onto the closed status set.
func ParseStatus(s string) (Status, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	if v == legacyActive {
		return StatusApproved, nil
	}
	st := Status(v)
	if !st.IsValid() {
		return "", fmt.Errorf("unknown employee status %q", s)
	}
	return st, nil
}

func (s Status) IsValid() bool {
	switch s {
	case StatusInvited, StatusPending, StatusApproved, StatusRejected, StatusBlocked, StatusInactive:
		return true
	default:
		return false
	}
}

// ValidTransitions returns the statuses reachable from s.
func (s Status) ValidTransitions() []Status {
	switch s {
	case StatusInvited:
		return []Status{StatusPending, StatusBlocked}
	case StatusPending:
		return []Status{StatusApproved, StatusRejected, StatusBlocked}
	case StatusApproved:
		return []Status{StatusBlocked, StatusInactive}
	case StatusRejected:
		return []Status{StatusBlocked}
	case StatusBlocked:
		return []Status{StatusApproved}
	case StatusInactive:
		return []Status{StatusApproved, StatusBlocked}
	default:
		return []Status{}
	}
}

// IsValidTransition checks if moving from s to next is allowed.
func (s Status) IsValidTransition(next Status) bool {
	return slices.Contains(s.ValidTransitions(), next)
}

// Scan implements sql.Scanner with legacy value mapping.
func (s *Status) Scan(src any) error {
	var raw string
	switch v := src.(type) {
	case string:
		raw = v
	case []byte:
		raw = string(v)
	case nil:
		return fmt.Errorf("employee status is null")
	default:
		return fmt.Errorf("unsupported employee status type %T", src)
	}
	st, err := ParseStatus(raw)
	if err != nil {
		return err
	}
	*s = st
	return nil
}

// Value implements driver.Valuer.
func (s Status) Value() (driver.Value, error) {
	return string(s), nil
}

// IsLinked reports whether the employee has completed its identity link.
func (e *Employee) IsLinked() bool {
	return e.UserID != nil
}

// CanTransitionTo checks the status rule for e.
func (e *Employee) CanTransitionTo(next Status) bool {
	return e.Status.IsValidTransition(next)
}

// InternalByVinculo reports whether the employment link marks the person as internal.
func (e *Employee) InternalByVinculo() bool {
	return strings.EqualFold(strings.TrimSpace(e.TipoVinculo), VinculoInterno)
}
