package access

import (
	"context"

	"github.com/google/uuid"
)

// Scope bounds the workshops a request may read or write.
//
// Operator-side callers (platform role or internal) may read every workshop but
// write into one only through an admin session for it. Admins without a platform
// role are unrestricted. Everyone else is confined to the workshop of their
// linked employee record, and to nothing when there is none.
type Scope struct {
	UserID       uuid.UUID
	WorkshopID   *uuid.UUID
	Platform     bool
	Unrestricted bool
}

// ScopeOf derives the scope of a resolved set.
func ScopeOf(ps *PermissionSet) Scope {
	if ps == nil {
		return Scope{}
	}
	s := Scope{UserID: ps.UserID, WorkshopID: ps.WorkshopID}
	switch {
	case ps.IsOperator || ps.IsInternal:
		s.Platform = true
	case ps.IsAdmin:
		s.Unrestricted = true
	}
	return s
}

// Tenant reports whether the caller is confined to a single workshop.
func (s Scope) Tenant() bool {
	return !s.Platform && !s.Unrestricted
}

// CanRead reports whether records of workshopID are visible to the caller.
func (s Scope) CanRead(workshopID uuid.UUID) bool {
	if !s.Tenant() {
		return true
	}
	return s.WorkshopID != nil && *s.WorkshopID == workshopID
}

type scopeKey struct{}

// WithScope returns a child context carrying s.
func WithScope(ctx context.Context, s Scope) context.Context {
	return context.WithValue(ctx, scopeKey{}, s)
}

// ScopeFromContext returns the scope set by WithScope. Calls without one are
// in-process and not bounded.
func ScopeFromContext(ctx context.Context) (Scope, bool) {
	s, ok := ctx.Value(scopeKey{}).(Scope)
	return s, ok
}
