package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/workshopops/accesscontrol/internal/core/domain/adminsession"
	"github.com/workshopops/accesscontrol/internal/core/domain/audit"
	"github.com/workshopops/accesscontrol/internal/core/ports"
)

// AdminSessionConfig configures session durations and the clock used for expiry.
type AdminSessionConfig struct {
	AllowedDurations []int
	Now              func() time.Time
}

// AdminSessionService opens time-boxed operator sessions. Active state is derived from the
// clock on every call and never stored.
type AdminSessionService struct {
	uow      ports.UnitOfWork
	sessions ports.AdminSessionRepository
	users    ports.UserRepository
	tenants  ports.TenantRepository
	audit    ports.AuditService
	allowed  []int
	now      func() time.Time
	logger   *logrus.Logger
}

func NewAdminSessionService(uow ports.UnitOfWork, sessions ports.AdminSessionRepository, users ports.UserRepository, tenants ports.TenantRepository, auditSvc ports.AuditService, cfg *AdminSessionConfig, logger *logrus.Logger) ports.AdminSessionService {
	s := &AdminSessionService{
		uow:      uow,
		sessions: sessions,
		users:    users,
		tenants:  tenants,
		audit:    auditSvc,
		allowed:  slices.Clone(adminsession.DefaultAllowedDurations),
		now:      time.Now,
		logger:   logger,
	}
	if cfg != nil {
		if len(cfg.AllowedDurations) > 0 {
			s.allowed = slices.Clone(cfg.AllowedDurations)
		}
		if cfg.Now != nil {
			s.now = cfg.Now
		}
	}
	return s
}

// StartSession validates input before touching the store, then writes the session and its
// audit event together.
func (s *AdminSessionService) StartSession(ctx context.Context, operatorID, tenantID uuid.UUID, reason string, durationMinutes int) (*adminsession.Session, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, ports.NewValidationError("a justification is required to start an administrative session")
	}
	if !adminsession.IsAllowedDuration(s.allowed, durationMinutes) {
		return nil, ports.NewValidationError("duration %d minutes is not one of %v", durationMinutes, s.allowed)
	}
	if tenantID == uuid.Nil {
		return nil, ports.NewValidationError("tenant_id is required")
	}

	op, err := s.users.GetByID(ctx, operatorID)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return nil, ports.NewNotFoundError("operator %s not found", operatorID)
		}
		return nil, fmt.Errorf("failed to load operator: %w", err)
	}
	if !op.IsOperator() {
		return nil, ports.NewForbiddenError("identity %s is not a platform operator", operatorID)
	}
	if _, err := s.tenants.GetByID(ctx, tenantID); err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return nil, ports.NewNotFoundError("workshop %s not found", tenantID)
		}
		return nil, fmt.Errorf("failed to load workshop: %w", err)
	}

	sess := adminsession.New(op.ID, tenantID, reason, durationMinutes, s.now().UTC())
	sess.OperatorEmail = op.Email

	err = s.uow.Do(ctx, func(ctx context.Context, repos ports.TxRepositories) error {
		if err := repos.AdminSessions.Create(ctx, sess); err != nil {
			return fmt.Errorf("failed to create admin session: %w", err)
		}
		operator, tenant := op.ID, tenantID
		return s.audit.AppendWith(ctx, repos.Audit, &audit.Event{
			Action:           audit.ActionAdminSessionStarted,
			ActorID:          &operator,
			ActorEmail:       op.Email,
			EntityType:       audit.EntityAdminSession,
			EntityID:         sess.ID.String(),
			OnBehalfOfTenant: &tenant,
			AdminSessionID:   &sess.ID,
			Details: map[string]any{
				"operator_id":      op.ID.String(),
				"tenant_id":        tenantID.String(),
				"reason":           reason,
				"duration_minutes": durationMinutes,
				"expires_at":       sess.ExpiresAt.Format(time.RFC3339),
			},
		})
	})
	if err != nil {
		if s.logger != nil {
			s.logger.WithFields(logrus.Fields{"operator_id": operatorID, "tenant_id": tenantID}).WithError(err).Error("failed to start admin session")
		}
		return nil, err
	}
	adminSessionsStartedTotal.Inc()
	if s.logger != nil {
		s.logger.WithFields(logrus.Fields{"session_id": sess.ID, "operator_id": op.ID, "tenant_id": tenantID, "duration_minutes": durationMinutes}).Info("admin session started")
	}
	return sess, nil
}

func (s *AdminSessionService) GetSession(ctx context.Context, id uuid.UUID) (*adminsession.View, error) {
	sess, err := s.sessions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return nil, ports.NewNotFoundError("admin session %s not found", id)
		}
		return nil, fmt.Errorf("failed to load admin session: %w", err)
	}
	v := adminsession.ViewAt(sess, s.now())
	return &v, nil
}

func (s *AdminSessionService) ListSessions(ctx context.Context, operatorID *uuid.UUID, activeOnly bool) ([]adminsession.View, error) {
	list, err := s.sessions.List(ctx, operatorID)
	if err != nil {
		return nil, fmt.Errorf("failed to list admin sessions: %w", err)
	}
	now := s.now()
	out := make([]adminsession.View, 0, len(list))
	for _, sess := range list {
		if activeOnly && !sess.IsActive(now) {
			continue
		}
		out = append(out, adminsession.ViewAt(sess, now))
	}
	return out, nil
}

func (s *AdminSessionService) IsSessionActive(sess *adminsession.Session) bool {
	return sess != nil && sess.IsActive(s.now())
}

// Attribute re-reads the session so a request straddling expiry is rejected.
func (s *AdminSessionService) Attribute(ctx context.Context, sessionID, operatorID uuid.UUID) (context.Context, *adminsession.Session, error) {
	sess, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return ctx, nil, ports.NewNotFoundError("admin session %s not found", sessionID)
		}
		return ctx, nil, fmt.Errorf("failed to load admin session: %w", err)
	}
	if sess.OperatorID != operatorID {
		return ctx, nil, ports.NewForbiddenError("admin session %s belongs to another operator", sessionID)
	}
	if !sess.IsActive(s.now()) {
		return ctx, nil, ports.NewForbiddenError("admin session %s expired at %s", sessionID, sess.ExpiresAt.Format(time.RFC3339))
	}
	ctx = audit.WithAttribution(ctx, audit.Attribution{
		OperatorID: sess.OperatorID,
		TenantID:   sess.TenantID,
		SessionID:  sess.ID,
	})
	return ctx, sess, nil
}

func (s *AdminSessionService) AllowedDurations() []int {
	return slices.Clone(s.allowed)
}
