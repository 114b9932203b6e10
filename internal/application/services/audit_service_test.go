package services_test

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	impl "github.com/workshopops/accesscontrol/internal/application/services"
	"github.com/workshopops/accesscontrol/internal/core/domain/audit"
	"github.com/workshopops/accesscontrol/internal/core/ports"
	"github.com/workshopops/accesscontrol/internal/infrastructure/memory"
	"github.com/workshopops/accesscontrol/internal/mocks"
)

func TestRecord_TimestampsStrictlyIncreasePerActor(t *testing.T) {
	store := memory.NewStore()
	clock := newFakeClock()
	svc := impl.NewAuditService(store.Audit(), &impl.AuditConfig{Now: clock.Now}, quietLogger())
	actor := uuid.New()
	ctx := audit.WithActor(context.Background(), audit.Actor{ID: actor, Email: "a@b.com"})

	var prev time.Time
	for i := 0; i < 5; i++ {
		e, err := svc.Record(ctx, &ports.RecordRequest{Action: audit.ActionAdminAction})
		require.NoError(t, err)
		require.True(t, e.Timestamp.After(prev), "event %d", i)
		require.NotEmpty(t, e.ID)
		prev = e.Timestamp
	}
	require.Equal(t, clock.Now().Add(4*time.Microsecond), prev)
}

func TestRecord_ContinuesAfterStoredTimestamp(t *testing.T) {
	store := memory.NewStore()
	clock := newFakeClock()
	actor := uuid.New()
	future := clock.Now().Add(time.Hour)
	require.NoError(t, store.Audit().Append(context.Background(), &audit.Event{ID: "seed", Timestamp: future, ActorID: &actor, Action: audit.ActionLogin}))

	svc := impl.NewAuditService(store.Audit(), &impl.AuditConfig{Now: clock.Now}, quietLogger())
	ctx := audit.WithActor(context.Background(), audit.Actor{ID: actor})
	e, err := svc.Record(ctx, &ports.RecordRequest{Action: audit.ActionLogout})
	require.NoError(t, err)
	require.Equal(t, future.Add(time.Microsecond), e.Timestamp)
}

func TestRecord_InstancesSharingAStoreStayOrderedPerActor(t *testing.T) {
	store := memory.NewStore()
	actor := uuid.New()
	ctx := audit.WithActor(context.Background(), audit.Actor{ID: actor})

	ahead := newFakeClock()
	ahead.Advance(2 * time.Second)
	behind := newFakeClock()
	behind.Advance(time.Second)
	first := impl.NewAuditService(store.Audit(), &impl.AuditConfig{Now: ahead.Now, UnitOfWork: store.UnitOfWork()}, quietLogger())
	second := impl.NewAuditService(store.Audit(), &impl.AuditConfig{Now: behind.Now, UnitOfWork: store.UnitOfWork()}, quietLogger())

	login, err := first.Record(ctx, &ports.RecordRequest{Action: audit.ActionLogin})
	require.NoError(t, err)
	logout, err := second.Record(ctx, &ports.RecordRequest{Action: audit.ActionLogout})
	require.NoError(t, err)
	require.True(t, logout.Timestamp.After(login.Timestamp))
	require.Greater(t, logout.ID, login.ID)

	again, err := first.Record(ctx, &ports.RecordRequest{Action: audit.ActionAdminAction})
	require.NoError(t, err)
	require.True(t, again.Timestamp.After(logout.Timestamp))

	events, _, err := first.Query(context.Background(), &audit.Filter{ActorID: &actor})
	require.NoError(t, err)
	require.Equal(t, []audit.Action{audit.ActionAdminAction, audit.ActionLogout, audit.ActionLogin},
		[]audit.Action{events[0].Action, events[1].Action, events[2].Action})
}

func TestRecord_ReadsStoreOnEveryAppend(t *testing.T) {
	actor := uuid.New()
	clock := newFakeClock()
	var reads int
	repo := &mocks.AuditRepositoryMock{
		LatestTimestampFn: func(ctx context.Context, id uuid.UUID) (time.Time, error) {
			reads++
			return clock.Now().Add(time.Minute), nil
		},
	}
	svc := impl.NewAuditService(repo, &impl.AuditConfig{Now: clock.Now}, quietLogger())
	ctx := audit.WithActor(context.Background(), audit.Actor{ID: actor})

	for i := 0; i < 3; i++ {
		e, err := svc.Record(ctx, &ports.RecordRequest{Action: audit.ActionLogin})
		require.NoError(t, err)
		require.Equal(t, clock.Now().Add(time.Minute+time.Microsecond), e.Timestamp)
	}
	require.Equal(t, 3, reads)
}

func TestRecord_RejectsUnknownAction(t *testing.T) {
	svc := impl.NewAuditService(&mocks.AuditRepositoryMock{AppendFn: func(ctx context.Context, e *audit.Event) error {
		t.Fatal("should not be called for an unknown action")
		return nil
	}}, nil, nil)
	_, err := svc.Record(context.Background(), &ports.RecordRequest{Action: "dropped_table"})
	require.True(t, ports.HasCode(err, ports.ACCodeValidation))
	_, err = svc.Record(context.Background(), nil)
	require.True(t, ports.HasCode(err, ports.ACCodeValidation))
}

func TestRecord_StoreFailureIsReturned(t *testing.T) {
	svc := impl.NewAuditService(&mocks.AuditRepositoryMock{AppendFn: func(ctx context.Context, e *audit.Event) error {
		return errors.New("insert failed")
	}}, nil, quietLogger())
	_, err := svc.Record(context.Background(), &ports.RecordRequest{Action: audit.ActionLogin})
	require.Error(t, err)
	require.Equal(t, ports.ACCodeUnknown, ports.ErrorCode(err))
}

func TestQuery_NormalizesPaging(t *testing.T) {
	var seen *audit.Filter
	repo := &mocks.AuditRepositoryMock{
		ListFn: func(ctx context.Context, f *audit.Filter) ([]*audit.Event, error) {
			seen = f
			return []*audit.Event{{ID: "1"}}, nil
		},
		CountFn: func(ctx context.Context, f *audit.Filter) (int, error) { return 120, nil },
	}
	svc := impl.NewAuditService(repo, nil, nil)

	events, total, err := svc.Query(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, 120, total)
	require.Equal(t, 50, seen.Limit)

	_, _, err = svc.Query(context.Background(), &audit.Filter{Limit: 10000})
	require.NoError(t, err)
	require.Equal(t, 500, seen.Limit)

	bogus := audit.Action("nope")
	_, _, err = svc.Query(context.Background(), &audit.Filter{Action: &bogus})
	require.True(t, ports.HasCode(err, ports.ACCodeValidation))
}

func TestQuery_FiltersByTenantIncludingOnBehalf(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	op := f.operator(t)
	ws, other := f.workshop(t), f.workshop(t)
	_, err := f.sessions.StartSession(ctx, op.ID, ws, "ajuda", 15)
	require.NoError(t, err)
	_, err = f.sessions.StartSession(ctx, op.ID, other, "ajuda", 15)
	require.NoError(t, err)

	events, total, err := f.audit.Query(ctx, &audit.Filter{TenantID: &ws})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Equal(t, ws, *events[0].OnBehalfOfTenant)
}

func TestExport_WritesCSV(t *testing.T) {
	store := memory.NewStore()
	clock := newFakeClock()
	svc := impl.NewAuditService(store.Audit(), &impl.AuditConfig{Now: clock.Now, ExportLimit: 2}, quietLogger())
	ctx := audit.WithActor(context.Background(), audit.Actor{ID: uuid.New(), Email: "gerente@oficina.com"})
	for i := 0; i < 3; i++ {
		_, err := svc.Record(ctx, &ports.RecordRequest{Action: audit.ActionPasswordReset, EntityType: audit.EntityUser, EntityID: "u-1",
			Details: map[string]any{"note": "linha, com vírgula"}})
		require.NoError(t, err)
	}

	out, err := svc.Export(context.Background(), &audit.Filter{Limit: 1, Offset: 1})
	require.NoError(t, err)
	rows, err := csv.NewReader(bytes.NewReader(out)).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3, "header plus rows capped at the export limit")
	require.Equal(t, "id", rows[0][0])
	require.Equal(t, "details", rows[0][12])
	require.Equal(t, "gerente@oficina.com", rows[1][3])
	require.Equal(t, "password_reset", rows[1][4])
	require.Contains(t, rows[1][12], "linha, com vírgula")

	first, err := time.Parse(time.RFC3339Nano, rows[1][1])
	require.NoError(t, err)
	second, err := time.Parse(time.RFC3339Nano, rows[2][1])
	require.NoError(t, err)
	require.True(t, first.After(second), "newest first")
}
