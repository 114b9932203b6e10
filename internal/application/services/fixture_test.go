package services_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	impl "github.com/workshopops/accesscontrol/internal/application/services"
	"github.com/workshopops/accesscontrol/internal/core/domain/audit"
	"github.com/workshopops/accesscontrol/internal/core/domain/tenant"
	"github.com/workshopops/accesscontrol/internal/core/domain/user"
	"github.com/workshopops/accesscontrol/internal/core/ports"
	"github.com/workshopops/accesscontrol/internal/infrastructure/memory"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 6, 3, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fixture struct {
	store      *memory.Store
	clock      *fakeClock
	audit      ports.AuditService
	onboarding ports.OnboardingService
	profiles   ports.ProfileService
	resolution ports.ResolutionService
	sessions   ports.AdminSessionService
	tenants    ports.TenantService
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return l
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	clock := newFakeClock()
	logger := quietLogger()
	auditSvc := impl.NewAuditService(store.Audit(), &impl.AuditConfig{Now: clock.Now, UnitOfWork: store.UnitOfWork()}, logger)
	return &fixture{
		store:      store,
		clock:      clock,
		audit:      auditSvc,
		onboarding: impl.NewOnboardingService(store.UnitOfWork(), store.Employees(), auditSvc, logger),
		profiles:   impl.NewProfileService(store.UnitOfWork(), store.Profiles(), store.CustomRoles(), auditSvc, logger),
		resolution: impl.NewResolutionService(store.Users(), store.Employees(), store.Profiles(), store.CustomRoles(), nil, logger),
		sessions: impl.NewAdminSessionService(store.UnitOfWork(), store.AdminSessions(), store.Users(), store.Tenants(), auditSvc,
			&impl.AdminSessionConfig{Now: clock.Now}, logger),
		tenants: impl.NewTenantService(store.Tenants(), logger),
	}
}

func (f *fixture) workshop(t *testing.T) uuid.UUID {
	t.Helper()
	id := uuid.New()
	require.NoError(t, f.store.Tenants().Create(context.Background(), &tenant.Tenant{
		ID: id, Name: "Oficina " + id.String()[:8], Slug: "oficina-" + id.String()[:8], Status: tenant.TenantStatusActive,
	}))
	return id
}

func (f *fixture) identity(t *testing.T, mutate func(u *user.User)) *user.User {
	t.Helper()
	u := &user.User{ID: uuid.New(), Email: "pessoa@oficina.com.br", Role: user.RoleMember}
	if mutate != nil {
		mutate(u)
	}
	require.NoError(t, f.store.Users().Create(context.Background(), u))
	return u
}

func (f *fixture) operator(t *testing.T) *user.User {
	t.Helper()
	role := user.PlatformOperator
	return f.identity(t, func(u *user.User) {
		u.Email = "ops@plataforma.com"
		u.IsInternal = true
		u.PlatformRole = &role
	})
}

func (f *fixture) events(t *testing.T, action audit.Action) []*audit.Event {
	t.Helper()
	list, err := f.store.Audit().List(context.Background(), &audit.Filter{Action: &action})
	require.NoError(t, err)
	return list
}
