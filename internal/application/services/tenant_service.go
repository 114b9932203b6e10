package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/workshopops/accesscontrol/internal/core/domain/tenant"
	"github.com/workshopops/accesscontrol/internal/core/ports"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

type TenantService struct {
	repo   ports.TenantRepository
	logger *logrus.Logger
}

func NewTenantService(repo ports.TenantRepository, logger *logrus.Logger) ports.TenantService {
	return &TenantService{repo: repo, logger: logger}
}

func (s *TenantService) CreateTenant(ctx context.Context, name, slug string) (*tenant.Tenant, error) {
	name = strings.TrimSpace(name)
	slug = strings.ToLower(strings.TrimSpace(slug))
	if name == "" {
		return nil, ports.NewValidationError("workshop name is required")
	}
	if !slugPattern.MatchString(slug) {
		return nil, ports.NewValidationError("invalid workshop slug %q", slug)
	}

	// Validate slug uniqueness
	if existing, err := s.repo.GetBySlug(ctx, slug); err == nil && existing != nil {
		return nil, ports.NewStateConflictError("slug '%s' is already taken", slug)
	} else if err != nil && !errors.Is(err, ports.ErrNotFound) {
		return nil, fmt.Errorf("failed to check slug: %w", err)
	}

	now := time.Now().UTC()
	t := &tenant.Tenant{
		ID:        uuid.New(),
		Name:      name,
		Slug:      slug,
		Status:    tenant.TenantStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("failed to create tenant: %w", err)
	}
	if s.logger != nil {
		s.logger.WithFields(logrus.Fields{"tenant_id": t.ID, "slug": t.Slug}).Info("workshop created")
	}
	return t, nil
}

func (s *TenantService) GetTenant(ctx context.Context, id uuid.UUID) (*tenant.Tenant, error) {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return nil, ports.NewNotFoundError("workshop %s not found", id)
		}
		return nil, fmt.Errorf("failed to load tenant: %w", err)
	}
	return t, nil
}

func (s *TenantService) ListTenants(ctx context.Context, limit, offset int) ([]*tenant.Tenant, int, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	tenants, err := s.repo.List(ctx, limit, offset)
	if err != nil {
		return nil, 0, err
	}

	count, err := s.repo.Count(ctx)
	if err != nil {
		return nil, 0, err
	}

	return tenants, count, nil
}
