package audit_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/workshopops/accesscontrol/internal/core/domain/audit"
)

func TestFilter_Matches(t *testing.T) {
	tenant := uuid.New()
	actor := uuid.New()
	ts := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	e := &audit.Event{
		ID: "01", Timestamp: ts, ActorID: &actor, ActorEmail: "Joao@oficina.com",
		Action: audit.ActionUserApproved, EntityType: audit.EntityEmployee, EntityID: "emp-1",
		OnBehalfOfTenant: &tenant, Details: map[string]any{"profile": "Técnico"},
	}
	action := audit.ActionUserApproved
	other := audit.ActionLogin
	before, after := ts.Add(-time.Hour), ts.Add(time.Hour)

	require.True(t, (*audit.Filter)(nil).Matches(e))
	require.True(t, (&audit.Filter{Action: &action, TenantID: &tenant, ActorID: &actor}).Matches(e))
	require.False(t, (&audit.Filter{Action: &other}).Matches(e))
	require.True(t, (&audit.Filter{DateFrom: &before, DateTo: &after}).Matches(e))
	require.False(t, (&audit.Filter{DateFrom: &after}).Matches(e))
	require.True(t, (&audit.Filter{FreeText: "joao"}).Matches(e))
	require.True(t, (&audit.Filter{FreeText: "técnico"}).Matches(e))
	require.False(t, (&audit.Filter{FreeText: "maria"}).Matches(e))
	missing := uuid.New()
	require.False(t, (&audit.Filter{TenantID: &missing}).Matches(e))
}

func TestFilter_Validate(t *testing.T) {
	bogus := audit.Action("deleted_everything")
	require.Error(t, (&audit.Filter{Action: &bogus}).Validate())

	from := time.Now()
	to := from.Add(-time.Minute)
	require.Error(t, (&audit.Filter{DateFrom: &from, DateTo: &to}).Validate())
	require.Error(t, (&audit.Filter{Limit: -1}).Validate())
	require.NoError(t, (&audit.Filter{}).Validate())
}

func TestSortNewestFirstAndPage(t *testing.T) {
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	events := []*audit.Event{
		{ID: "a", Timestamp: ts},
		{ID: "c", Timestamp: ts.Add(time.Second)},
		{ID: "b", Timestamp: ts},
	}
	audit.SortNewestFirst(events)
	require.Equal(t, []string{"c", "b", "a"}, []string{events[0].ID, events[1].ID, events[2].ID})

	require.Len(t, audit.Page(events, 2, 0), 2)
	require.Equal(t, "a", audit.Page(events, 2, 2)[0].ID)
	require.Empty(t, audit.Page(events, 2, 5))
	require.Len(t, audit.Page(events, 0, 1), 2)
}
