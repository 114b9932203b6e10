package ports

import (
	"context"

	"github.com/workshopops/accesscontrol/internal/core/domain/audit"
)

// RecordRequest describes a standalone audit event written outside a compound operation.
type RecordRequest struct {
	Action     audit.Action     `json:"action"`
	EntityType audit.EntityType `json:"entity_type,omitempty"`
	EntityID   string           `json:"entity_id,omitempty"`
	Details    map[string]any   `json:"details,omitempty"`
}

// AuditService is the audit log business logic.
type AuditService interface {
	// Record stamps and appends one event through the service's own store.
	Record(ctx context.Context, req *RecordRequest) (*audit.Event, error)
	// AppendWith stamps e and appends it through repo, typically a unit-of-work repository.
	AppendWith(ctx context.Context, repo AuditRepository, e *audit.Event) error
	// Query returns events newest first plus the total matching count.
	Query(ctx context.Context, filter *audit.Filter) ([]*audit.Event, int, error)
	// Export renders the filtered result set as CSV.
	Export(ctx context.Context, filter *audit.Filter) ([]byte, error)
}
