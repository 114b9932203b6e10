package repositories

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/workshopops/accesscontrol/internal/core/domain/audit"
)

func TestBuildAuditQuery_NoFilter(t *testing.T) {
	q, args := buildAuditQuery(nil, false)
	require.NotContains(t, q, "WHERE")
	require.True(t, strings.HasSuffix(q, "ORDER BY timestamp DESC, id DESC"))
	require.Empty(t, args)
}

func TestBuildAuditQuery_TenantMatchesOnBehalf(t *testing.T) {
	tenantID := uuid.New()
	q, args := buildAuditQuery(&audit.Filter{TenantID: &tenantID}, true)
	require.Contains(t, q, "SELECT COUNT(*)")
	require.Contains(t, q, "(tenant_id = $1 OR on_behalf_of_tenant = $1)")
	require.NotContains(t, q, "ORDER BY")
	require.Equal(t, []interface{}{tenantID}, args)
}

func TestBuildAuditQuery_PlaceholdersInOrder(t *testing.T) {
	action := audit.ActionUserApproved
	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	f := &audit.Filter{Action: &action, DateFrom: &from, FreeText: " joao ", Limit: 10, Offset: 20}

	q, args := buildAuditQuery(f, false)

	require.Contains(t, q, "action = $1")
	require.Contains(t, q, "timestamp >= $2")
	require.Contains(t, q, "actor_email ILIKE $3")
	require.Contains(t, q, "LIMIT $4 OFFSET $5")
	require.Equal(t, []interface{}{"user_approved", from, "%joao%", 10, 20}, args)
}

func TestBuildAuditQuery_FreeTextIsLiteral(t *testing.T) {
	q, args := buildAuditQuery(&audit.Filter{FreeText: `100%_off\x`}, true)

	require.Contains(t, q, `actor_email ILIKE $1 ESCAPE '\'`)
	require.Contains(t, q, `COALESCE(details::text, '') ILIKE $1 ESCAPE '\'`)
	require.Equal(t, []interface{}{`%100\%\_off\\x%`}, args)
}
