package health_test

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	goredis "github.com/go-redis/redis/v8"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/workshopops/accesscontrol/internal/infrastructure/db"
	"github.com/workshopops/accesscontrol/internal/infrastructure/health"
)

func TestDBHealthChecker(t *testing.T) {
	raw, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer raw.Close()
	checker := health.NewDBHealthChecker(&db.Database{DB: sqlx.NewDb(raw, "postgres")})
	require.Equal(t, "database", checker.Name())

	mock.ExpectPing()
	require.NoError(t, checker.Check(context.Background()))

	mock.ExpectPing().WillReturnError(errors.New("connection refused"))
	require.Error(t, checker.Check(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisHealthChecker(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	checker := health.NewRedisHealthChecker(client)
	require.Equal(t, "redis", checker.Name())
	require.NoError(t, checker.Check(context.Background()))

	mr.Close()
	require.Error(t, checker.Check(context.Background()))
}
