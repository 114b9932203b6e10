package audit

import (
	"context"

	"github.com/google/uuid"
)

type ctxKey int

const (
	actorKey ctxKey = iota
	attributionKey
)

// Actor is the principal performing the current request.
type Actor struct {
	ID        uuid.UUID
	Email     string
	TenantID  *uuid.UUID
	IPAddress string
	UserAgent string
}

// Attribution ties writes made during an administrative session to the operator and tenant.
type Attribution struct {
	OperatorID uuid.UUID
	TenantID   uuid.UUID
	SessionID  uuid.UUID
}

// WithActor returns a child context carrying a.
func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, actorKey, a)
}

// ActorFromContext returns the actor set by WithActor.
func ActorFromContext(ctx context.Context) (Actor, bool) {
	a, ok := ctx.Value(actorKey).(Actor)
	return a, ok
}

// WithAttribution returns a child context carrying a.
func WithAttribution(ctx context.Context, a Attribution) context.Context {
	return context.WithValue(ctx, attributionKey, a)
}

// AttributionFromContext returns the attribution set by WithAttribution.
func AttributionFromContext(ctx context.Context) (Attribution, bool) {
	a, ok := ctx.Value(attributionKey).(Attribution)
	return a, ok
}
