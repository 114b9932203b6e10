package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/workshopops/accesscontrol/internal/core/domain/access"
	"github.com/workshopops/accesscontrol/internal/core/domain/audit"
	"github.com/workshopops/accesscontrol/internal/core/domain/permission"
	"github.com/workshopops/accesscontrol/internal/core/domain/profile"
	"github.com/workshopops/accesscontrol/internal/core/ports"
)

// authorizeRead fails when the caller's scope cannot see workshopID. A context
// without a scope is an in-process call and is not bounded.
func authorizeRead(ctx context.Context, workshopID uuid.UUID) error {
	sc, ok := access.ScopeFromContext(ctx)
	if !ok || sc.CanRead(workshopID) {
		return nil
	}
	return ports.NewForbiddenError("workshop %s is outside the caller's scope", workshopID)
}

// authorizeWrite fails unless the caller may change records of workshopID.
// Operator-side callers need an active admin session for that workshop.
func authorizeWrite(ctx context.Context, workshopID uuid.UUID) error {
	sc, ok := access.ScopeFromContext(ctx)
	if !ok || sc.Unrestricted {
		return nil
	}
	if sc.Platform {
		attr, ok := audit.AttributionFromContext(ctx)
		if !ok {
			return ports.NewForbiddenError("an active admin session for workshop %s is required", workshopID)
		}
		if attr.TenantID != workshopID {
			return ports.NewForbiddenError("admin session %s is scoped to workshop %s, not %s", attr.SessionID, attr.TenantID, workshopID)
		}
		return nil
	}
	return authorizeRead(ctx, workshopID)
}

// authorizeGlobalWrite guards records that belong to no workshop.
func authorizeGlobalWrite(ctx context.Context) error {
	if tenantCaller(ctx) {
		return ports.NewForbiddenError("workshop callers cannot change global records")
	}
	return nil
}

func tenantCaller(ctx context.Context) bool {
	sc, ok := access.ScopeFromContext(ctx)
	return ok && sc.Tenant()
}

// listScope narrows a list filter to the caller's own workshop.
func listScope(ctx context.Context, requested *uuid.UUID) (*uuid.UUID, error) {
	sc, ok := access.ScopeFromContext(ctx)
	if !ok || !sc.Tenant() {
		return requested, nil
	}
	if sc.WorkshopID == nil {
		return nil, ports.NewForbiddenError("caller is not linked to a workshop")
	}
	if requested != nil && *requested != *sc.WorkshopID {
		return nil, ports.NewForbiddenError("workshop %s is outside the caller's scope", *requested)
	}
	id := *sc.WorkshopID
	return &id, nil
}

// tenantGrantable rejects bundles only the operator side may hand out: internal
// profiles and anything carrying a platform permission.
func tenantGrantable(t profile.Type, granted permission.Set) error {
	if t == profile.TypeInternal {
		return ports.NewForbiddenError("internal profiles are managed by the platform")
	}
	if p := granted.Platform(); len(p) > 0 {
		return ports.NewForbiddenError("platform permissions %v cannot be granted within a workshop", p)
	}
	return nil
}
