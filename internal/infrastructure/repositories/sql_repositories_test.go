package repositories_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"github.com/workshopops/accesscontrol/internal/core/domain/audit"
	"github.com/workshopops/accesscontrol/internal/core/domain/employee"
	"github.com/workshopops/accesscontrol/internal/core/ports"
	"github.com/workshopops/accesscontrol/internal/infrastructure/db"
	"github.com/workshopops/accesscontrol/internal/infrastructure/repositories"
)

func newMockDB(t *testing.T) (*db.Database, sqlmock.Sqlmock) {
	t.Helper()
	raw, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = raw.Close() })
	return &db.Database{DB: sqlx.NewDb(raw, "postgres")}, mock
}

var employeeCols = []string{"id", "workshop_id", "user_id", "profile_id", "name", "email", "job_role",
	"is_internal", "tipo_vinculo", "user_status", "created_at", "updated_at"}

func TestEmployeeRepository_GetByIDMapsLegacyActive(t *testing.T) {
	database, mock := newMockDB(t)
	repo := repositories.NewEmployeeRepository(database, nil)
	id, workshopID, userID := uuid.New(), uuid.New(), uuid.New()
	now := time.Now()

	mock.ExpectQuery("SELECT (.+) FROM employees WHERE id = \\$1").
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows(employeeCols).
			AddRow(id.String(), workshopID.String(), userID.String(), nil, "Ana", "ana@oficina.com", "mecanico",
				false, "clt", "active", now, now))

	e, err := repo.GetByID(context.Background(), id)
	require.NoError(t, err)
	require.Equal(t, employee.StatusApproved, e.Status)
	require.NotNil(t, e.UserID)
	require.Equal(t, userID, *e.UserID)
	require.Nil(t, e.ProfileID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEmployeeRepository_GetByIDNotFound(t *testing.T) {
	database, mock := newMockDB(t)
	repo := repositories.NewEmployeeRepository(database, nil)

	mock.ExpectQuery("SELECT (.+) FROM employees").WillReturnRows(sqlmock.NewRows(employeeCols))

	_, err := repo.GetByID(context.Background(), uuid.New())
	require.ErrorIs(t, err, ports.ErrNotFound)
}

func TestEmployeeRepository_TransitionStatusStale(t *testing.T) {
	database, mock := newMockDB(t)
	repo := repositories.NewEmployeeRepository(database, nil)

	mock.ExpectExec("UPDATE employees").WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.TransitionStatus(context.Background(), uuid.New(), employee.StatusPending, employee.StatusApproved, ports.StatusChange{})
	require.ErrorIs(t, err, ports.ErrStaleState)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEmployeeRepository_TransitionStatusApplied(t *testing.T) {
	database, mock := newMockDB(t)
	repo := repositories.NewEmployeeRepository(database, nil)
	profileID := uuid.New()

	mock.ExpectExec("UPDATE employees").WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.TransitionStatus(context.Background(), uuid.New(), employee.StatusPending, employee.StatusApproved, ports.StatusChange{ProfileID: &profileID})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_SetProfileMissingUser(t *testing.T) {
	database, mock := newMockDB(t)
	repo := repositories.NewUserRepository(database, nil)

	mock.ExpectExec("UPDATE users SET profile_id").WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.SetProfile(context.Background(), uuid.New(), nil)
	require.ErrorIs(t, err, ports.ErrNotFound)
}

func TestAuditRepository_LatestTimestampEmpty(t *testing.T) {
	database, mock := newMockDB(t)
	repo := repositories.NewAuditRepository(database, nil)

	actor := uuid.New()
	mock.ExpectExec("SELECT pg_advisory_xact_lock\\(hashtext\\(\\$1\\)\\)").
		WithArgs(actor.String()).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT MAX\\(timestamp\\) FROM audit_events").
		WillReturnRows(sqlmock.NewRows([]string{"max"}).AddRow(nil))

	ts, err := repo.LatestTimestamp(context.Background(), actor)
	require.NoError(t, err)
	require.True(t, ts.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditRepository_LatestTimestampLocksInsideTransaction(t *testing.T) {
	database, mock := newMockDB(t)
	uow := repositories.NewSQLUnitOfWork(database, nil)
	actor := uuid.New()
	stored := time.Date(2026, 3, 1, 12, 0, 2, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectExec("SELECT pg_advisory_xact_lock").WithArgs(actor.String()).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT MAX\\(timestamp\\) FROM audit_events").WithArgs(actor).
		WillReturnRows(sqlmock.NewRows([]string{"max"}).AddRow(stored))
	mock.ExpectExec("INSERT INTO audit_events").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := uow.Do(context.Background(), func(ctx context.Context, repos ports.TxRepositories) error {
		ts, err := repos.Audit.LatestTimestamp(ctx, actor)
		if err != nil {
			return err
		}
		require.True(t, stored.Equal(ts))
		return repos.Audit.Append(ctx, &audit.Event{ID: "01J0000000000000000000001", Timestamp: ts.Add(time.Microsecond), ActorID: &actor, Action: audit.ActionLogout})
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditRepository_ListKeepsRowWithBadDetails(t *testing.T) {
	database, mock := newMockDB(t)
	logger, hook := logtest.NewNullLogger()
	repo := repositories.NewAuditRepository(database, logger)

	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT id, timestamp").WillReturnRows(sqlmock.NewRows([]string{"id", "timestamp", "actor_id", "actor_email",
		"action", "entity_type", "entity_id", "tenant_id", "on_behalf_of_tenant", "admin_session_id", "details", "ip_address", "user_agent"}).
		AddRow("01J0000000000000000000002", ts, nil, "a@b.com", "login", "session", "s-1", nil, nil, nil, "{truncated", "", ""))

	events, err := repo.List(context.Background(), &audit.Filter{Limit: 10})
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Nil(t, events[0].Details)
	require.NotNil(t, hook.LastEntry())
	require.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
	require.Equal(t, "01J0000000000000000000002", hook.LastEntry().Data["event_id"])
}

func TestUnitOfWork_CommitsOnSuccess(t *testing.T) {
	database, mock := newMockDB(t)
	uow := repositories.NewSQLUnitOfWork(database, nil)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO audit_events").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := uow.Do(context.Background(), func(ctx context.Context, repos ports.TxRepositories) error {
		return repos.Audit.Append(ctx, &audit.Event{ID: "01J0000000000000000000000", Timestamp: time.Now(), Action: audit.ActionLogin})
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUnitOfWork_RollsBackOnError(t *testing.T) {
	database, mock := newMockDB(t)
	uow := repositories.NewSQLUnitOfWork(database, nil)
	boom := errors.New("boom")

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE employees").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectRollback()

	err := uow.Do(context.Background(), func(ctx context.Context, repos ports.TxRepositories) error {
		if err := repos.Employees.TransitionStatus(ctx, uuid.New(), employee.StatusPending, employee.StatusApproved, ports.StatusChange{}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)
	require.NoError(t, mock.ExpectationsWereMet())
}
