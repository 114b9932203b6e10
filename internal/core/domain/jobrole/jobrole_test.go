package jobrole_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/workshopops/accesscontrol/internal/core/domain/jobrole"
	"github.com/workshopops/accesscontrol/internal/core/domain/permission"
)

func TestLookupDefaults_Tecnico(t *testing.T) {
	b := jobrole.LookupDefaults("tecnico")
	require.Equal(t, jobrole.Tecnico, b.JobRole)
	require.Equal(t, jobrole.TierPersonalizado, b.Tier)
	require.True(t, b.Module(permission.ModulePatio).View)
	require.True(t, b.Module(permission.ModulePatio).Edit)
	require.False(t, b.Module(permission.ModuleCadastros).View)
}

func TestLookupDefaults_UnknownFallsBackToOutros(t *testing.T) {
	b := jobrole.LookupDefaults("inexistente_xyz")
	require.Equal(t, jobrole.Outros, b.JobRole)
	require.Equal(t, jobrole.TierVisualizador, b.Tier)
	require.False(t, jobrole.IsKnown("inexistente_xyz"))
}

func TestLookupDefaults_NormalizesKey(t *testing.T) {
	require.Equal(t, jobrole.Gerente, jobrole.LookupDefaults("  GERENTE ").JobRole)
}

func TestLookupDefaults_ReturnsCopy(t *testing.T) {
	b := jobrole.LookupDefaults("lavador")
	b.Modules[permission.ModuleFinanceiro] = jobrole.Capabilities{View: true}

	again := jobrole.LookupDefaults("lavador")
	require.False(t, again.Module(permission.ModuleFinanceiro).View)
}

func TestListJobRoles_EveryKeyResolves(t *testing.T) {
	keys := jobrole.ListJobRoles()
	require.Len(t, keys, 16)
	for _, k := range keys {
		require.True(t, jobrole.IsKnown(string(k)), k)
		require.Equal(t, k, jobrole.LookupDefaults(string(k)).JobRole)
	}
}

func TestDiretorHasEverything(t *testing.T) {
	b := jobrole.LookupDefaults("diretor")
	for _, m := range permission.Modules() {
		require.Len(t, b.Module(m).Granted(), 6, m)
	}
}
