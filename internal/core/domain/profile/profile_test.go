package profile_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/workshopops/accesscontrol/internal/core/domain/jobrole"
	"github.com/workshopops/accesscontrol/internal/core/domain/permission"
	"github.com/workshopops/accesscontrol/internal/core/domain/profile"
)

func TestDecodeModuleAccess_RejectsUnknownKeys(t *testing.T) {
	ma, err := profile.DecodeModuleAccess([]byte(`{"patio":"total","estoque":"view"}`))
	require.NoError(t, err)
	require.Equal(t, permission.TierTotal, ma.Tier(permission.ModulePatio))
	require.Equal(t, permission.TierBlocked, ma.Tier(permission.ModuleRH))

	_, err = profile.DecodeModuleAccess([]byte(`{"garagem":"view"}`))
	require.Error(t, err)

	_, err = profile.DecodeModuleAccess([]byte(`{"patio":"everything"}`))
	require.Error(t, err)

	ma, err = profile.DecodeModuleAccess(nil)
	require.NoError(t, err)
	require.Empty(t, ma)
}

func TestProfile_Validate(t *testing.T) {
	p := &profile.Profile{Name: "Caixa", Type: profile.TypeExternal, Roles: []permission.Permission{"financeiro.view"}}
	require.NoError(t, p.Validate())

	p.Roles = append(p.Roles, "financeiro.print")
	require.Error(t, p.Validate())

	require.Error(t, (&profile.Profile{Name: " ", Type: profile.TypeExternal}).Validate())
	require.Error(t, (&profile.Profile{Name: "x", Type: "partner"}).Validate())
}

func TestCustomRole_Validate(t *testing.T) {
	require.NoError(t, (&profile.CustomRole{Name: "r", SystemRoles: []permission.Permission{"rh.view"}}).Validate())
	require.Error(t, (&profile.CustomRole{Name: "r", SystemRoles: []permission.Permission{"rh.fire"}}).Validate())
	require.Error(t, (&profile.CustomRole{}).Validate())
}

func TestFromTemplate_Lavador(t *testing.T) {
	p := profile.FromTemplate("Lavador", jobrole.LookupDefaults("lavador"))
	require.NoError(t, p.Validate())
	require.ElementsMatch(t, []permission.Permission{"dashboard.view", "patio.view", "treinamentos.view"}, p.Roles)
	require.Equal(t, permission.TierView, p.ModuleAccess[permission.ModulePatio])
	require.Equal(t, permission.TierBlocked, p.ModuleAccess[permission.ModuleFinanceiro])
	require.Contains(t, p.SidebarAccess, "patio")
	require.NotContains(t, p.SidebarAccess, "financeiro")
}

func TestEffective_IgnoresUnreferencedRoles(t *testing.T) {
	ref := &profile.CustomRole{ID: uuid.New(), SystemRoles: []permission.Permission{"metas.edit"}}
	p := &profile.Profile{Roles: []permission.Permission{"metas.view"}, CustomRoleIDs: []uuid.UUID{ref.ID}}
	set := profile.Effective(p, []*profile.CustomRole{ref, nil, {ID: uuid.New(), SystemRoles: []permission.Permission{"rh.view"}}})
	require.Equal(t, []permission.Permission{"metas.edit", "metas.view"}, set.Sorted())
}
