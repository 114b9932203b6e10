// Package memory is an in-process implementation of every repository port. It backs the
// memory store driver and the service tests.
package memory

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/workshopops/accesscontrol/internal/core/domain/adminsession"
	"github.com/workshopops/accesscontrol/internal/core/domain/audit"
	"github.com/workshopops/accesscontrol/internal/core/domain/employee"
	"github.com/workshopops/accesscontrol/internal/core/domain/profile"
	"github.com/workshopops/accesscontrol/internal/core/domain/tenant"
	"github.com/workshopops/accesscontrol/internal/core/domain/user"
	"github.com/workshopops/accesscontrol/internal/core/ports"
)

// Operation names accepted by FailOn.
const (
	OpUserCreate         = "users.create"
	OpUserSetProfile     = "users.set_profile"
	OpEmployeeTransition = "employees.transition"
	OpProfileCreate      = "profiles.create"
	OpProfileUpdate      = "profiles.update"
	OpCustomRoleCreate   = "custom_roles.create"
	OpSessionCreate      = "admin_sessions.create"
	OpAuditAppend        = "audit.append"
)

// state holds records by value semantics: stored pointers are never mutated, writes
// replace them, so a shallow copy of the maps is a consistent snapshot.
type state struct {
	users       map[uuid.UUID]*user.User
	employees   map[uuid.UUID]*employee.Employee
	profiles    map[uuid.UUID]*profile.Profile
	customRoles map[uuid.UUID]*profile.CustomRole
	tenants     map[uuid.UUID]*tenant.Tenant
	sessions    map[uuid.UUID]*adminsession.Session
	events      []*audit.Event
}

func newState() *state {
	return &state{
		users:       map[uuid.UUID]*user.User{},
		employees:   map[uuid.UUID]*employee.Employee{},
		profiles:    map[uuid.UUID]*profile.Profile{},
		customRoles: map[uuid.UUID]*profile.CustomRole{},
		tenants:     map[uuid.UUID]*tenant.Tenant{},
		sessions:    map[uuid.UUID]*adminsession.Session{},
	}
}

func (s *state) snapshot() *state {
	return &state{
		users:       maps.Clone(s.users),
		employees:   maps.Clone(s.employees),
		profiles:    maps.Clone(s.profiles),
		customRoles: maps.Clone(s.customRoles),
		tenants:     maps.Clone(s.tenants),
		sessions:    maps.Clone(s.sessions),
		events:      slices.Clone(s.events),
	}
}

// Store is safe for concurrent use.
type Store struct {
	mu sync.RWMutex
	st *state

	failMu   sync.Mutex
	failures map[string]error
}

func NewStore() *Store {
	return &Store{st: newState(), failures: map[string]error{}}
}

// FailOn makes every later op return err until cleared with a nil err.
func (s *Store) FailOn(op string, err error) {
	s.failMu.Lock()
	defer s.failMu.Unlock()
	if err == nil {
		delete(s.failures, op)
		return
	}
	s.failures[op] = err
}

func (s *Store) failure(op string) error {
	s.failMu.Lock()
	defer s.failMu.Unlock()
	if err, ok := s.failures[op]; ok {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// access abstracts locking: direct access locks the store, transactional access works on
// a snapshot already guarded by the unit of work.
type access interface {
	read(fn func(st *state) error) error
	write(fn func(st *state) error) error
	failure(op string) error
}

type direct struct{ s *Store }

func (d direct) read(fn func(st *state) error) error {
	d.s.mu.RLock()
	defer d.s.mu.RUnlock()
	return fn(d.s.st)
}

func (d direct) write(fn func(st *state) error) error {
	d.s.mu.Lock()
	defer d.s.mu.Unlock()
	return fn(d.s.st)
}

func (d direct) failure(op string) error { return d.s.failure(op) }

type txAccess struct {
	s  *Store
	st *state
}

func (t txAccess) read(fn func(st *state) error) error  { return fn(t.st) }
func (t txAccess) write(fn func(st *state) error) error { return fn(t.st) }
func (t txAccess) failure(op string) error              { return t.s.failure(op) }

func (s *Store) Users() ports.UserRepository                 { return &userRepo{a: direct{s}} }
func (s *Store) Employees() ports.EmployeeRepository         { return &employeeRepo{a: direct{s}} }
func (s *Store) Profiles() ports.ProfileRepository           { return &profileRepo{a: direct{s}} }
func (s *Store) CustomRoles() ports.CustomRoleRepository     { return &customRoleRepo{a: direct{s}} }
func (s *Store) Tenants() ports.TenantRepository             { return &tenantRepo{a: direct{s}} }
func (s *Store) AdminSessions() ports.AdminSessionRepository { return &sessionRepo{a: direct{s}} }
func (s *Store) Audit() ports.AuditRepository                { return &auditRepo{a: direct{s}} }
func (s *Store) UnitOfWork() ports.UnitOfWork                { return unitOfWork{s: s} }

type unitOfWork struct{ s *Store }

// Do serializes units of work. The snapshot replaces the live state only when fn succeeds.
func (u unitOfWork) Do(ctx context.Context, fn func(ctx context.Context, repos ports.TxRepositories) error) error {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()

	snap := u.s.st.snapshot()
	a := txAccess{s: u.s, st: snap}
	repos := ports.TxRepositories{
		Users:         &userRepo{a: a},
		Employees:     &employeeRepo{a: a},
		Profiles:      &profileRepo{a: a},
		CustomRoles:   &customRoleRepo{a: a},
		AdminSessions: &sessionRepo{a: a},
		Audit:         &auditRepo{a: a},
	}
	if err := fn(ctx, repos); err != nil {
		return err
	}
	u.s.st = snap
	return nil
}

// RevocationList is an in-process token revocation store used when Redis is disabled.
type RevocationList struct {
	mu      sync.Mutex
	now     func() time.Time
	entries map[string]time.Time
}

func NewRevocationList() *RevocationList {
	return &RevocationList{now: time.Now, entries: map[string]time.Time{}}
}

func (r *RevocationList) Revoke(_ context.Context, tokenHash string, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[tokenHash] = expiresAt
	return nil
}

func (r *RevocationList) IsRevoked(_ context.Context, tokenHash string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	exp, ok := r.entries[tokenHash]
	if !ok {
		return false, nil
	}
	if !r.now().Before(exp) {
		delete(r.entries, tokenHash)
		return false, nil
	}
	return true, nil
}

const maxWindows = 10000

// RateCounter is an in-process fixed-window counter used when Redis is disabled.
type RateCounter struct {
	mu      sync.Mutex
	now     func() time.Time
	windows map[string]int
}

func NewRateCounter() *RateCounter {
	return &RateCounter{now: time.Now, windows: map[string]int{}}
}

func (c *RateCounter) IncrementWindow(_ context.Context, principalID uuid.UUID, window time.Duration, keyPrefix string, _ time.Duration) (int, time.Time, error) {
	start := c.now().Truncate(window)
	key := fmt.Sprintf("%s:%s:%d", keyPrefix, principalID, start.Unix())
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.windows[key]; !ok && len(c.windows) >= maxWindows {
		clear(c.windows)
	}
	c.windows[key]++
	return c.windows[key], start, nil
}
