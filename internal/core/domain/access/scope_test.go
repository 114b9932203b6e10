package access_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/workshopops/accesscontrol/internal/core/domain/access"
	"github.com/workshopops/accesscontrol/internal/core/domain/employee"
	"github.com/workshopops/accesscontrol/internal/core/domain/permission"
	"github.com/workshopops/accesscontrol/internal/core/domain/profile"
	"github.com/workshopops/accesscontrol/internal/core/domain/user"
)

func TestScopeOf_TenantCallerIsConfinedToLinkedWorkshop(t *testing.T) {
	home, other := uuid.New(), uuid.New()
	u := &user.User{ID: uuid.New(), Role: user.RoleMember}
	p := &profile.Profile{ID: uuid.New(), Roles: []permission.Permission{permission.UsersApprove, permission.PlatformAudit}}
	e := approvedEmployee(u, p.ID)
	e.WorkshopID = home

	sc := access.ScopeOf(access.Resolve(access.Inputs{User: u, Employee: e, Profile: p}))
	require.True(t, sc.Tenant())
	require.True(t, sc.CanRead(home))
	require.False(t, sc.CanRead(other))
}

func TestScopeOf_NoEmployeeReadsNothing(t *testing.T) {
	u := &user.User{ID: uuid.New(), Role: user.RoleMember}
	sc := access.ScopeOf(access.Resolve(access.Inputs{User: u}))
	require.True(t, sc.Tenant())
	require.Nil(t, sc.WorkshopID)
	require.False(t, sc.CanRead(uuid.New()))
}

func TestScopeOf_OperatorSide(t *testing.T) {
	role := user.PlatformOperator
	operator := &user.User{ID: uuid.New(), Role: user.RoleAdmin, PlatformRole: &role}
	sc := access.ScopeOf(access.Resolve(access.Inputs{User: operator}))
	require.True(t, sc.Platform)
	require.False(t, sc.Unrestricted)
	require.True(t, sc.CanRead(uuid.New()))

	staff := &user.User{ID: uuid.New(), Role: user.RoleMember}
	linked := &employee.Employee{UserID: &staff.ID, WorkshopID: uuid.New(), TipoVinculo: employee.VinculoInterno, Status: employee.StatusPending}
	sc = access.ScopeOf(access.Resolve(access.Inputs{User: staff, Employee: linked}))
	require.True(t, sc.Platform, "internal by vinculo is operator side")
}

func TestScopeOf_AdminWithoutPlatformRoleIsUnrestricted(t *testing.T) {
	sc := access.ScopeOf(access.Resolve(access.Inputs{User: &user.User{ID: uuid.New(), Role: user.RoleAdmin}}))
	require.True(t, sc.Unrestricted)
	require.False(t, sc.Tenant())
}

func TestScopeContextRoundTrip(t *testing.T) {
	_, ok := access.ScopeFromContext(context.Background())
	require.False(t, ok)

	id := uuid.New()
	ctx := access.WithScope(context.Background(), access.Scope{UserID: id})
	sc, ok := access.ScopeFromContext(ctx)
	require.True(t, ok)
	require.Equal(t, id, sc.UserID)
}
