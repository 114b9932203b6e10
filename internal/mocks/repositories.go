package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/workshopops/accesscontrol/internal/core/domain/audit"
	"github.com/workshopops/accesscontrol/internal/core/domain/tenant"
	"github.com/workshopops/accesscontrol/internal/core/domain/user"
	"github.com/workshopops/accesscontrol/internal/core/ports"
)

// UserRepositoryMock mocks ports.UserRepository
type UserRepositoryMock struct {
	CreateFn     func(ctx context.Context, u *user.User) error
	GetByIDFn    func(ctx context.Context, id uuid.UUID) (*user.User, error)
	SetProfileFn func(ctx context.Context, id uuid.UUID, profileID *uuid.UUID) error
}

func (m *UserRepositoryMock) Create(ctx context.Context, u *user.User) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, u)
	}
	return nil
}
func (m *UserRepositoryMock) GetByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}
	return nil, ports.ErrNotFound
}
func (m *UserRepositoryMock) SetProfile(ctx context.Context, id uuid.UUID, profileID *uuid.UUID) error {
	if m.SetProfileFn != nil {
		return m.SetProfileFn(ctx, id, profileID)
	}
	return nil
}

// TenantRepositoryMock mocks ports.TenantRepository
type TenantRepositoryMock struct {
	CreateFn    func(ctx context.Context, t *tenant.Tenant) error
	GetByIDFn   func(ctx context.Context, id uuid.UUID) (*tenant.Tenant, error)
	GetBySlugFn func(ctx context.Context, slug string) (*tenant.Tenant, error)
	ListFn      func(ctx context.Context, limit, offset int) ([]*tenant.Tenant, error)
	CountFn     func(ctx context.Context) (int, error)
}

func (m *TenantRepositoryMock) Create(ctx context.Context, t *tenant.Tenant) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, t)
	}
	return nil
}
func (m *TenantRepositoryMock) GetByID(ctx context.Context, id uuid.UUID) (*tenant.Tenant, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}
	return nil, ports.ErrNotFound
}
func (m *TenantRepositoryMock) GetBySlug(ctx context.Context, slug string) (*tenant.Tenant, error) {
	if m.GetBySlugFn != nil {
		return m.GetBySlugFn(ctx, slug)
	}
	return nil, ports.ErrNotFound
}
func (m *TenantRepositoryMock) List(ctx context.Context, limit, offset int) ([]*tenant.Tenant, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx, limit, offset)
	}
	return []*tenant.Tenant{}, nil
}
func (m *TenantRepositoryMock) Count(ctx context.Context) (int, error) {
	if m.CountFn != nil {
		return m.CountFn(ctx)
	}
	return 0, nil
}

// AuditRepositoryMock mocks ports.AuditRepository
type AuditRepositoryMock struct {
	AppendFn          func(ctx context.Context, e *audit.Event) error
	ListFn            func(ctx context.Context, filter *audit.Filter) ([]*audit.Event, error)
	CountFn           func(ctx context.Context, filter *audit.Filter) (int, error)
	LatestTimestampFn func(ctx context.Context, actorID uuid.UUID) (time.Time, error)
}

func (m *AuditRepositoryMock) Append(ctx context.Context, e *audit.Event) error {
	if m.AppendFn != nil {
		return m.AppendFn(ctx, e)
	}
	return nil
}
func (m *AuditRepositoryMock) List(ctx context.Context, filter *audit.Filter) ([]*audit.Event, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx, filter)
	}
	return []*audit.Event{}, nil
}
func (m *AuditRepositoryMock) Count(ctx context.Context, filter *audit.Filter) (int, error) {
	if m.CountFn != nil {
		return m.CountFn(ctx, filter)
	}
	return 0, nil
}
func (m *AuditRepositoryMock) LatestTimestamp(ctx context.Context, actorID uuid.UUID) (time.Time, error) {
	if m.LatestTimestampFn != nil {
		return m.LatestTimestampFn(ctx, actorID)
	}
	return time.Time{}, nil
}

// TokenRevocationRepositoryMock mocks ports.TokenRevocationRepository
type TokenRevocationRepositoryMock struct {
	RevokeFn    func(ctx context.Context, tokenHash string, expiresAt time.Time) error
	IsRevokedFn func(ctx context.Context, tokenHash string) (bool, error)
}

func (m *TokenRevocationRepositoryMock) Revoke(ctx context.Context, tokenHash string, expiresAt time.Time) error {
	if m.RevokeFn != nil {
		return m.RevokeFn(ctx, tokenHash, expiresAt)
	}
	return nil
}
func (m *TokenRevocationRepositoryMock) IsRevoked(ctx context.Context, tokenHash string) (bool, error) {
	if m.IsRevokedFn != nil {
		return m.IsRevokedFn(ctx, tokenHash)
	}
	return false, nil
}

// RateLimitRepositoryMock mocks ports.RateLimitRepository
type RateLimitRepositoryMock struct {
	IncrementWindowFn func(ctx context.Context, principalID uuid.UUID, window time.Duration, keyPrefix string, ttl time.Duration) (int, time.Time, error)
}

func (m *RateLimitRepositoryMock) IncrementWindow(ctx context.Context, principalID uuid.UUID, window time.Duration, keyPrefix string, ttl time.Duration) (int, time.Time, error) {
	if m.IncrementWindowFn != nil {
		return m.IncrementWindowFn(ctx, principalID, window, keyPrefix, ttl)
	}
	return 1, time.Now().Truncate(window), nil
}

// HealthCheckerMock mocks ports.HealthChecker
type HealthCheckerMock struct {
	NameValue string
	CheckFn   func(ctx context.Context) error
}

func (m *HealthCheckerMock) Name() string { return m.NameValue }

func (m *HealthCheckerMock) Check(ctx context.Context) error {
	if m.CheckFn != nil {
		return m.CheckFn(ctx)
	}
	return nil
}
