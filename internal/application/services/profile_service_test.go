package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/workshopops/accesscontrol/internal/core/domain/audit"
	"github.com/workshopops/accesscontrol/internal/core/domain/permission"
	"github.com/workshopops/accesscontrol/internal/core/domain/profile"
	"github.com/workshopops/accesscontrol/internal/core/domain/user"
	"github.com/workshopops/accesscontrol/internal/core/ports"
	"github.com/workshopops/accesscontrol/internal/infrastructure/memory"
)

func TestCreateProfile_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.profiles.CreateProfile(ctx, &profile.Profile{Name: ""})
	require.True(t, ports.HasCode(err, ports.ACCodeValidation))
	_, err = f.profiles.CreateProfile(ctx, &profile.Profile{Name: "x", Roles: []permission.Permission{"patio.fly"}})
	require.True(t, ports.HasCode(err, ports.ACCodeValidation))
	_, err = f.profiles.CreateProfile(ctx, &profile.Profile{Name: "x", CustomRoleIDs: []uuid.UUID{uuid.New()}})
	require.True(t, ports.HasCode(err, ports.ACCodeValidation))

	p, err := f.profiles.CreateProfile(ctx, &profile.Profile{Name: " Caixa "})
	require.NoError(t, err)
	require.Equal(t, "Caixa", p.Name)
	require.Equal(t, profile.TypeExternal, p.Type)
	require.Len(t, f.events(t, audit.ActionProfileCreated), 1)
}

func TestCreateFromJobRole_UnknownUsesCatchAll(t *testing.T) {
	f := newFixture(t)
	p, err := f.profiles.CreateFromJobRole(context.Background(), "inexistente_xyz", "", nil)
	require.NoError(t, err)
	require.Equal(t, "outros", p.Name)
	require.Equal(t, []permission.Permission{"dashboard.view"}, p.Roles)

	ev := f.events(t, audit.ActionProfileCreated)
	require.Len(t, ev, 1)
	require.Equal(t, "outros", ev[0].Details["job_role"])
	require.Equal(t, "visualizador", ev[0].Details["tier"])
}

func TestUpdatePermissions_VisibleOnNextResolution(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p, err := f.profiles.CreateFromJobRole(ctx, "lavador", "Lavador", nil)
	require.NoError(t, err)
	u := f.identity(t, func(u *user.User) { u.ProfileID = &p.ID })
	estoque := permission.PageID(permission.ModuleEstoque)

	allowed, err := f.resolution.CanAccess(ctx, u, estoque)
	require.NoError(t, err)
	require.False(t, allowed)

	roles := append([]permission.Permission{}, p.Roles...)
	roles = append(roles, "estoque.view")
	_, err = f.profiles.UpdatePermissions(ctx, p.ID, &ports.UpdatePermissionsRequest{Roles: roles, ModuleAccess: p.ModuleAccess})
	require.NoError(t, err)

	allowed, err = f.resolution.CanAccess(ctx, u, estoque)
	require.NoError(t, err)
	require.True(t, allowed)

	ev := f.events(t, audit.ActionPermissionChanged)
	require.Len(t, ev, 1)
	require.Equal(t, []string{"estoque.view"}, ev[0].Details["added"])
	require.Equal(t, []string{}, ev[0].Details["removed"])
}

func TestUpdatePermissions_CustomRolesJoinTheSet(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	role, err := f.profiles.CreateCustomRole(ctx, &profile.CustomRole{Name: "RH leitura", SystemRoles: []permission.Permission{"rh.view"}})
	require.NoError(t, err)
	p, err := f.profiles.CreateProfile(ctx, &profile.Profile{Name: "Assistente"})
	require.NoError(t, err)
	u := f.identity(t, func(u *user.User) { u.ProfileID = &p.ID })

	_, err = f.profiles.UpdatePermissions(ctx, p.ID, &ports.UpdatePermissionsRequest{CustomRoleIDs: []uuid.UUID{uuid.New()}})
	require.True(t, ports.HasCode(err, ports.ACCodeValidation))

	_, err = f.profiles.UpdatePermissions(ctx, p.ID, &ports.UpdatePermissionsRequest{CustomRoleIDs: []uuid.UUID{role.ID}})
	require.NoError(t, err)
	ps, err := f.resolution.ResolvePermissionSet(ctx, u)
	require.NoError(t, err)
	require.True(t, ps.Has("rh.view"))
	require.Len(t, f.events(t, audit.ActionCustomRoleCreated), 1)
}

func TestUpdatePermissions_FailuresLeaveProfileUnchanged(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p, err := f.profiles.CreateFromJobRole(ctx, "lavador", "", nil)
	require.NoError(t, err)

	_, err = f.profiles.UpdatePermissions(ctx, uuid.New(), &ports.UpdatePermissionsRequest{})
	require.True(t, ports.HasCode(err, ports.ACCodeNotFound))
	_, err = f.profiles.UpdatePermissions(ctx, p.ID, &ports.UpdatePermissionsRequest{
		ModuleAccess: permission.ModuleAccess{"garagem": permission.TierTotal},
	})
	require.True(t, ports.HasCode(err, ports.ACCodeValidation))

	f.store.FailOn(memory.OpAuditAppend, errors.New("unavailable"))
	_, err = f.profiles.UpdatePermissions(ctx, p.ID, &ports.UpdatePermissionsRequest{Roles: []permission.Permission{"rh.manage"}})
	require.Error(t, err)

	stored, err := f.profiles.GetProfile(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, p.Roles, stored.Roles)
	require.Empty(t, f.events(t, audit.ActionPermissionChanged))
}

func TestListProfiles_IncludesGlobal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ws, other := f.workshop(t), f.workshop(t)
	_, err := f.profiles.CreateProfile(ctx, &profile.Profile{Name: "Global"})
	require.NoError(t, err)
	_, err = f.profiles.CreateProfile(ctx, &profile.Profile{Name: "Local", WorkshopID: &ws})
	require.NoError(t, err)
	_, err = f.profiles.CreateProfile(ctx, &profile.Profile{Name: "Alheio", WorkshopID: &other})
	require.NoError(t, err)

	list, err := f.profiles.ListProfiles(ctx, &ws)
	require.NoError(t, err)
	names := []string{}
	for _, p := range list {
		names = append(names, p.Name)
	}
	require.ElementsMatch(t, []string{"Global", "Local"}, names)

	_, err = f.profiles.GetProfile(ctx, uuid.New())
	require.True(t, ports.HasCode(err, ports.ACCodeNotFound))
}

func TestJobRoleDefaults(t *testing.T) {
	f := newFixture(t)
	require.Equal(t, "outros", string(f.profiles.JobRoleDefaults("xyz").JobRole))
}
