package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/workshopops/accesscontrol/internal/core/domain/audit"
	"github.com/workshopops/accesscontrol/internal/core/domain/employee"
	"github.com/workshopops/accesscontrol/internal/core/ports"
)

func seedEmployee(t *testing.T, s *Store, status employee.Status) *employee.Employee {
	t.Helper()
	e := &employee.Employee{ID: uuid.New(), WorkshopID: uuid.New(), Name: "Ana", Status: status, CreatedAt: time.Now()}
	require.NoError(t, s.Employees().Create(context.Background(), e))
	return e
}

func TestUnitOfWork_DiscardsWritesOnError(t *testing.T) {
	s := NewStore()
	e := seedEmployee(t, s, employee.StatusPending)
	boom := errors.New("boom")

	err := s.UnitOfWork().Do(context.Background(), func(ctx context.Context, repos ports.TxRepositories) error {
		require.NoError(t, repos.Employees.TransitionStatus(ctx, e.ID, employee.StatusPending, employee.StatusApproved, ports.StatusChange{}))
		require.NoError(t, repos.Audit.Append(ctx, &audit.Event{ID: "1", Action: audit.ActionUserApproved}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := s.Employees().GetByID(context.Background(), e.ID)
	require.NoError(t, err)
	require.Equal(t, employee.StatusPending, got.Status)
	n, err := s.Audit().Count(context.Background(), nil)
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestUnitOfWork_CommitsTogether(t *testing.T) {
	s := NewStore()
	e := seedEmployee(t, s, employee.StatusPending)

	require.NoError(t, s.UnitOfWork().Do(context.Background(), func(ctx context.Context, repos ports.TxRepositories) error {
		if err := repos.Employees.TransitionStatus(ctx, e.ID, employee.StatusPending, employee.StatusApproved, ports.StatusChange{}); err != nil {
			return err
		}
		return repos.Audit.Append(ctx, &audit.Event{ID: "1", Action: audit.ActionUserApproved})
	}))

	got, err := s.Employees().GetByID(context.Background(), e.ID)
	require.NoError(t, err)
	require.Equal(t, employee.StatusApproved, got.Status)
	n, err := s.Audit().Count(context.Background(), nil)
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func TestTransitionStatus_IsConditional(t *testing.T) {
	s := NewStore()
	e := seedEmployee(t, s, employee.StatusPending)
	ctx := context.Background()

	errs := make([]error, 8)
	var wg sync.WaitGroup
	for i := range errs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = s.Employees().TransitionStatus(ctx, e.ID, employee.StatusPending, employee.StatusApproved, ports.StatusChange{})
		}()
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
			continue
		}
		require.ErrorIs(t, err, ports.ErrStaleState)
	}
	require.Equal(t, 1, wins)
}

func TestTransitionStatus_RejectsSecondLinkOfIdentity(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	userID := uuid.New()
	first := seedEmployee(t, s, employee.StatusInvited)
	second := seedEmployee(t, s, employee.StatusInvited)

	require.NoError(t, s.Employees().TransitionStatus(ctx, first.ID, employee.StatusInvited, employee.StatusPending, ports.StatusChange{UserID: &userID}))
	err := s.Employees().TransitionStatus(ctx, second.ID, employee.StatusInvited, employee.StatusPending, ports.StatusChange{UserID: &userID})
	require.ErrorIs(t, err, errDuplicate)

	linked, err := s.Employees().GetByUserID(ctx, userID)
	require.NoError(t, err)
	require.Equal(t, first.ID, linked.ID)
}

func TestReadsReturnCopies(t *testing.T) {
	s := NewStore()
	e := seedEmployee(t, s, employee.StatusPending)

	got, err := s.Employees().GetByID(context.Background(), e.ID)
	require.NoError(t, err)
	got.Status = employee.StatusBlocked

	again, err := s.Employees().GetByID(context.Background(), e.ID)
	require.NoError(t, err)
	require.Equal(t, employee.StatusPending, again.Status)
}

func TestFailOn(t *testing.T) {
	s := NewStore()
	down := errors.New("store down")
	s.FailOn(OpAuditAppend, down)
	require.ErrorIs(t, s.Audit().Append(context.Background(), &audit.Event{ID: "1"}), down)

	s.FailOn(OpAuditAppend, nil)
	require.NoError(t, s.Audit().Append(context.Background(), &audit.Event{ID: "1"}))
}

func TestRevocationList_ForgetsExpiredTokens(t *testing.T) {
	now := time.Date(2024, 6, 3, 9, 0, 0, 0, time.UTC)
	r := NewRevocationList()
	r.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, r.Revoke(ctx, "h1", now.Add(time.Minute)))
	revoked, err := r.IsRevoked(ctx, "h1")
	require.NoError(t, err)
	require.True(t, revoked)

	now = now.Add(time.Minute)
	revoked, err = r.IsRevoked(ctx, "h1")
	require.NoError(t, err)
	require.False(t, revoked)
	require.Empty(t, r.entries)
}

func TestRateCounter_FixedWindows(t *testing.T) {
	now := time.Date(2024, 6, 3, 9, 0, 10, 0, time.UTC)
	c := NewRateCounter()
	c.now = func() time.Time { return now }
	ctx := context.Background()
	id := uuid.New()

	n, start, err := c.IncrementWindow(ctx, id, time.Minute, "rl", 0)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.Equal(t, time.Date(2024, 6, 3, 9, 0, 0, 0, time.UTC), start)

	n, _, _ = c.IncrementWindow(ctx, id, time.Minute, "rl", 0)
	require.Equal(t, 2, n)
	n, _, _ = c.IncrementWindow(ctx, uuid.New(), time.Minute, "rl", 0)
	require.Equal(t, 1, n)

	now = now.Add(time.Minute)
	n, _, _ = c.IncrementWindow(ctx, id, time.Minute, "rl", 0)
	require.Equal(t, 1, n)
}
