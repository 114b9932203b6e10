package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/workshopops/accesscontrol/internal/core/domain/audit"
	"github.com/workshopops/accesscontrol/internal/core/ports"
	"github.com/workshopops/accesscontrol/internal/ids"
)

const (
	defaultAuditPageSize = 50
	maxAuditPageSize     = 500
	defaultExportLimit   = 10000
)

// AuditConfig tunes the audit service. Zero values fall back to defaults.
// With a UnitOfWork, standalone events are appended in their own transaction
// so the store serializes appenders of the same actor.
type AuditConfig struct {
	ExportLimit int
	Now         func() time.Time
	UnitOfWork  ports.UnitOfWork
}

type AuditService struct {
	repo        ports.AuditRepository
	uow         ports.UnitOfWork
	exportLimit int
	now         func() time.Time
	logger      *logrus.Logger

	// mu sequences appends that run without a unit of work.
	mu sync.Mutex
}

func NewAuditService(repo ports.AuditRepository, cfg *AuditConfig, logger *logrus.Logger) ports.AuditService {
	s := &AuditService{
		repo:        repo,
		exportLimit: defaultExportLimit,
		now:         time.Now,
		logger:      logger,
	}
	if cfg != nil {
		s.uow = cfg.UnitOfWork
		if cfg.ExportLimit > 0 {
			s.exportLimit = cfg.ExportLimit
		}
		if cfg.Now != nil {
			s.now = cfg.Now
		}
	}
	return s
}

func (s *AuditService) Record(ctx context.Context, req *ports.RecordRequest) (*audit.Event, error) {
	if req == nil {
		return nil, ports.NewValidationError("audit event is required")
	}
	e := &audit.Event{
		Action:     req.Action,
		EntityType: req.EntityType,
		EntityID:   req.EntityID,
		Details:    req.Details,
	}
	if s.uow != nil {
		err := s.uow.Do(ctx, func(ctx context.Context, repos ports.TxRepositories) error {
			return s.AppendWith(ctx, repos.Audit, e)
		})
		if err != nil {
			return nil, err
		}
		return e, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.AppendWith(ctx, s.repo, e); err != nil {
		return nil, err
	}
	return e, nil
}

// AppendWith fills id, timestamp, actor and attribution on e and appends it through repo.
func (s *AuditService) AppendWith(ctx context.Context, repo ports.AuditRepository, e *audit.Event) error {
	if !e.Action.IsValid() {
		return ports.NewValidationError("unknown audit action %q", e.Action)
	}
	applyActor(ctx, e)

	var actorKey uuid.UUID
	if e.ActorID != nil {
		actorKey = *e.ActorID
	}
	ts, err := s.nextTimestamp(ctx, repo, actorKey)
	if err != nil {
		return err
	}
	e.Timestamp = ts
	e.ID = ids.NewAt(ts)

	if err := repo.Append(ctx, e); err != nil {
		if s.logger != nil {
			s.logger.WithFields(logrus.Fields{"action": e.Action, "entity_type": e.EntityType, "entity_id": e.EntityID}).WithError(err).Error("failed to persist audit event")
		}
		return fmt.Errorf("failed to append audit event: %w", err)
	}
	if s.logger != nil {
		s.logger.WithFields(logrus.Fields{"event_id": e.ID, "action": e.Action, "entity_type": e.EntityType, "entity_id": e.EntityID}).Debug("audit event persisted")
	}
	return nil
}

func applyActor(ctx context.Context, e *audit.Event) {
	if actor, ok := audit.ActorFromContext(ctx); ok {
		if e.ActorID == nil && actor.ID != uuid.Nil {
			id := actor.ID
			e.ActorID = &id
		}
		if e.ActorEmail == "" {
			e.ActorEmail = actor.Email
		}
		if e.TenantID == nil && actor.TenantID != nil {
			id := *actor.TenantID
			e.TenantID = &id
		}
		if e.IPAddress == "" {
			e.IPAddress = actor.IPAddress
		}
		if e.UserAgent == "" {
			e.UserAgent = actor.UserAgent
		}
	}
	if attr, ok := audit.AttributionFromContext(ctx); ok {
		if e.ActorID == nil {
			id := attr.OperatorID
			e.ActorID = &id
		}
		tenantID, sessionID := attr.TenantID, attr.SessionID
		e.OnBehalfOfTenant = &tenantID
		e.AdminSessionID = &sessionID
	}
}

// nextTimestamp returns a microsecond timestamp strictly after the newest stored
// event of actor. The store is read on every append; callers sharing a store
// must append inside a transaction, where LatestTimestamp locks the actor.
func (s *AuditService) nextTimestamp(ctx context.Context, repo ports.AuditRepository, actor uuid.UUID) (time.Time, error) {
	ts := s.now().UTC().Truncate(time.Microsecond)
	if actor == uuid.Nil {
		return ts, nil
	}
	latest, err := repo.LatestTimestamp(ctx, actor)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to read latest audit timestamp: %w", err)
	}
	if !latest.IsZero() && !ts.After(latest) {
		ts = latest.Add(time.Microsecond)
	}
	return ts, nil
}

func (s *AuditService) Query(ctx context.Context, filter *audit.Filter) ([]*audit.Event, int, error) {
	f, err := normalizeFilter(filter)
	if err != nil {
		return nil, 0, err
	}
	events, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list audit events: %w", err)
	}
	total, err := s.repo.Count(ctx, f)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count audit events: %w", err)
	}
	return events, total, nil
}

func normalizeFilter(filter *audit.Filter) (*audit.Filter, error) {
	f := audit.Filter{}
	if filter != nil {
		f = *filter
	}
	if err := f.Validate(); err != nil {
		return nil, ports.NewValidationError("%s", err.Error())
	}
	if f.Limit == 0 {
		f.Limit = defaultAuditPageSize
	}
	if f.Limit > maxAuditPageSize {
		f.Limit = maxAuditPageSize
	}
	return &f, nil
}

var csvHeader = []string{
	"id", "timestamp", "actor_id", "actor_email", "action", "entity_type", "entity_id",
	"tenant_id", "on_behalf_of_tenant", "admin_session_id", "ip", "user_agent", "details",
}

// Export writes every event matching filter, ignoring paging, as CSV.
func (s *AuditService) Export(ctx context.Context, filter *audit.Filter) ([]byte, error) {
	f := audit.Filter{}
	if filter != nil {
		f = *filter
	}
	if err := f.Validate(); err != nil {
		return nil, ports.NewValidationError("%s", err.Error())
	}
	f.Limit, f.Offset = s.exportLimit, 0

	events, err := s.repo.List(ctx, &f)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit events for export: %w", err)
	}
	if len(events) == s.exportLimit && s.logger != nil {
		s.logger.WithFields(logrus.Fields{"limit": s.exportLimit}).Warn("audit export truncated at limit")
	}
	return exportCSV(events)
}

func exportCSV(events []*audit.Event) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(csvHeader); err != nil {
		return nil, fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, e := range events {
		row := []string{
			e.ID,
			e.Timestamp.UTC().Format(time.RFC3339Nano),
			uuidString(e.ActorID),
			e.ActorEmail,
			string(e.Action),
			string(e.EntityType),
			e.EntityID,
			uuidString(e.TenantID),
			uuidString(e.OnBehalfOfTenant),
			uuidString(e.AdminSessionID),
			e.IPAddress,
			e.UserAgent,
			e.DetailsText(),
		}
		if err := writer.Write(row); err != nil {
			return nil, fmt.Errorf("failed to write CSV row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush CSV writer: %w", err)
	}
	return buf.Bytes(), nil
}

func uuidString(id *uuid.UUID) string {
	if id == nil {
		return ""
	}
	return id.String()
}
