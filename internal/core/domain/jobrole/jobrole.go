package jobrole

import (
	"maps"
	"strings"

	"github.com/workshopops/accesscontrol/internal/core/domain/permission"
)

// Key is a job-role identifier used to seed default permissions at approval time.
type Key string

const (
	Diretor           Key = "diretor"
	Gerente           Key = "gerente"
	SupervisorOficina Key = "supervisor_oficina"
	ConsultorTecnico  Key = "consultor_tecnico"
	LiderTecnico      Key = "lider_tecnico"
	Tecnico           Key = "tecnico"
	Funileiro         Key = "funileiro"
	Pintor            Key = "pintor"
	Lavador           Key = "lavador"
	Estoquista        Key = "estoquista"
	Financeiro        Key = "financeiro"
	RH                Key = "rh"
	Recepcionista     Key = "recepcionista"
	Vendedor          Key = "vendedor"
	Administrativo    Key = "administrativo"
	Outros            Key = "outros"
)

// Tier is the coarse permission tier of a bundle.
type Tier string

const (
	TierAdmin         Tier = "admin"
	TierEditor        Tier = "editor"
	TierPersonalizado Tier = "personalizado"
	TierVisualizador  Tier = "visualizador"
)

// Capabilities is the per-module capability row of a bundle.
type Capabilities struct {
	View   bool `json:"view"`
	Edit   bool `json:"edit"`
	Delete bool `json:"delete,omitempty"`
	Create bool `json:"create,omitempty"`
	Upload bool `json:"upload,omitempty"`
	Manage bool `json:"manage,omitempty"`
}

// Granted lists the capabilities set to true.
func (c Capabilities) Granted() []permission.Capability {
	var out []permission.Capability
	flags := []struct {
		on  bool
		cap permission.Capability
	}{
		{c.View, permission.CapView},
		{c.Edit, permission.CapEdit},
		{c.Delete, permission.CapDelete},
		{c.Create, permission.CapCreate},
		{c.Upload, permission.CapUpload},
		{c.Manage, permission.CapManage},
	}
	for _, f := range flags {
		if f.on {
			out = append(out, f.cap)
		}
	}
	return out
}

// Bundle is the default permission set for a job role.
type Bundle struct {
	JobRole Key                                `json:"job_role"`
	Tier    Tier                               `json:"tier"`
	Modules map[permission.Module]Capabilities `json:"modules"`
}

// Module returns the capability row for m; zero value when absent.
func (b Bundle) Module(m permission.Module) Capabilities {
	return b.Modules[m]
}

var (
	view       = Capabilities{View: true}
	viewEdit   = Capabilities{View: true, Edit: true}
	authoring  = Capabilities{View: true, Edit: true, Create: true}
	editorial  = Capabilities{View: true, Edit: true, Create: true, Delete: true}
	withUpload = Capabilities{View: true, Edit: true, Create: true, Upload: true}
	full       = Capabilities{View: true, Edit: true, Delete: true, Create: true, Upload: true, Manage: true}
)

func allModules(c Capabilities) map[permission.Module]Capabilities {
	out := make(map[permission.Module]Capabilities)
	for _, m := range permission.Modules() {
		out[m] = c
	}
	return out
}

func gerenteModules() map[permission.Module]Capabilities {
	out := allModules(Capabilities{View: true, Edit: true, Delete: true, Create: true, Upload: true})
	out[permission.ModuleConfiguracoes] = view
	return out
}

var registry = map[Key]Bundle{
	Diretor: {Tier: TierAdmin, Modules: allModules(full)},
	Gerente: {Tier: TierAdmin, Modules: gerenteModules()},
	SupervisorOficina: {Tier: TierEditor, Modules: map[permission.Module]Capabilities{
		permission.ModuleDashboard:     view,
		permission.ModulePatio:         editorial,
		permission.ModuleAgenda:        authoring,
		permission.ModuleOrdensServico: editorial,
		permission.ModuleOrcamentos:    authoring,
		permission.ModuleEstoque:       view,
		permission.ModuleCadastros:     viewEdit,
		permission.ModuleQualidade:     viewEdit,
		permission.ModuleTreinamentos:  view,
		permission.ModuleMetas:         view,
		permission.ModuleRelatorios:    view,
		permission.ModuleDocumentos:    view,
	}},
	ConsultorTecnico: {Tier: TierEditor, Modules: map[permission.Module]Capabilities{
		permission.ModuleDashboard:     view,
		permission.ModulePatio:         viewEdit,
		permission.ModuleAgenda:        authoring,
		permission.ModuleOrdensServico: authoring,
		permission.ModuleOrcamentos:    authoring,
		permission.ModuleCadastros:     authoring,
		permission.ModuleTreinamentos:  view,
		permission.ModuleMetas:         view,
		permission.ModuleDocumentos:    view,
	}},
	LiderTecnico: {Tier: TierPersonalizado, Modules: map[permission.Module]Capabilities{
		permission.ModuleDashboard:     view,
		permission.ModulePatio:         viewEdit,
		permission.ModuleOrdensServico: viewEdit,
		permission.ModuleAgenda:        view,
		permission.ModuleQualidade:     viewEdit,
		permission.ModuleTreinamentos:  view,
		permission.ModuleMetas:         view,
	}},
	Tecnico: {Tier: TierPersonalizado, Modules: map[permission.Module]Capabilities{
		permission.ModuleDashboard:     view,
		permission.ModulePatio:         viewEdit,
		permission.ModuleOrdensServico: viewEdit,
		permission.ModuleAgenda:        view,
		permission.ModuleTreinamentos:  view,
		permission.ModuleMetas:         view,
	}},
	Funileiro: {Tier: TierPersonalizado, Modules: map[permission.Module]Capabilities{
		permission.ModuleDashboard:     view,
		permission.ModulePatio:         viewEdit,
		permission.ModuleOrdensServico: view,
		permission.ModuleTreinamentos:  view,
		permission.ModuleMetas:         view,
	}},
	Pintor: {Tier: TierPersonalizado, Modules: map[permission.Module]Capabilities{
		permission.ModuleDashboard:     view,
		permission.ModulePatio:         viewEdit,
		permission.ModuleOrdensServico: view,
		permission.ModuleTreinamentos:  view,
		permission.ModuleMetas:         view,
	}},
	Lavador: {Tier: TierVisualizador, Modules: map[permission.Module]Capabilities{
		permission.ModuleDashboard:    view,
		permission.ModulePatio:        view,
		permission.ModuleTreinamentos: view,
	}},
	Estoquista: {Tier: TierPersonalizado, Modules: map[permission.Module]Capabilities{
		permission.ModuleDashboard:     view,
		permission.ModuleEstoque:       withUpload,
		permission.ModuleCadastros:     view,
		permission.ModuleOrdensServico: view,
		permission.ModuleTreinamentos:  view,
		permission.ModuleMetas:         view,
	}},
	Financeiro: {Tier: TierEditor, Modules: map[permission.Module]Capabilities{
		permission.ModuleDashboard:    view,
		permission.ModuleFinanceiro:   {View: true, Edit: true, Delete: true, Create: true, Upload: true},
		permission.ModuleRelatorios:   view,
		permission.ModuleCadastros:    view,
		permission.ModuleOrcamentos:   view,
		permission.ModuleDocumentos:   {View: true, Upload: true},
		permission.ModuleTreinamentos: view,
		permission.ModuleMetas:        view,
	}},
	RH: {Tier: TierEditor, Modules: map[permission.Module]Capabilities{
		permission.ModuleDashboard:    view,
		permission.ModuleRH:           full,
		permission.ModuleTreinamentos: editorial,
		permission.ModuleDocumentos:   withUpload,
		permission.ModuleMetas:        viewEdit,
		permission.ModuleRelatorios:   view,
	}},
	Recepcionista: {Tier: TierPersonalizado, Modules: map[permission.Module]Capabilities{
		permission.ModuleDashboard:    view,
		permission.ModuleAgenda:       authoring,
		permission.ModulePatio:        view,
		permission.ModuleCadastros:    authoring,
		permission.ModuleOrcamentos:   view,
		permission.ModuleTreinamentos: view,
	}},
	Vendedor: {Tier: TierPersonalizado, Modules: map[permission.Module]Capabilities{
		permission.ModuleDashboard:    view,
		permission.ModuleOrcamentos:   authoring,
		permission.ModuleCadastros:    authoring,
		permission.ModuleAgenda:       viewEdit,
		permission.ModuleMetas:        view,
		permission.ModuleTreinamentos: view,
	}},
	Administrativo: {Tier: TierEditor, Modules: map[permission.Module]Capabilities{
		permission.ModuleDashboard:    view,
		permission.ModuleCadastros:    editorial,
		permission.ModuleDocumentos:   withUpload,
		permission.ModuleFinanceiro:   view,
		permission.ModuleRelatorios:   view,
		permission.ModuleAgenda:       view,
		permission.ModuleTreinamentos: view,
		permission.ModuleMetas:        view,
	}},
	Outros: {Tier: TierVisualizador, Modules: map[permission.Module]Capabilities{
		permission.ModuleDashboard: view,
	}},
}

var orderedKeys = []Key{
	Diretor, Gerente, SupervisorOficina, ConsultorTecnico, LiderTecnico, Tecnico,
	Funileiro, Pintor, Lavador, Estoquista, Financeiro, RH, Recepcionista, Vendedor,
	Administrativo, Outros,
}

// Normalize trims and lower-cases a raw job-role string.
func Normalize(raw string) Key {
	return Key(strings.ToLower(strings.TrimSpace(raw)))
}

// IsKnown reports whether raw names a registered job role.
func IsKnown(raw string) bool {
	_, ok := registry[Normalize(raw)]
	return ok
}

// LookupDefaults returns the default bundle for raw, falling back to Outros for unknown keys.
// The returned bundle is a copy; mutating it does not affect the registry.
func LookupDefaults(raw string) Bundle {
	key := Normalize(raw)
	b, ok := registry[key]
	if !ok {
		key = Outros
		b = registry[Outros]
	}
	return Bundle{JobRole: key, Tier: b.Tier, Modules: maps.Clone(b.Modules)}
}

// ListJobRoles returns the closed key set in stable order.
func ListJobRoles() []Key {
	out := make([]Key, len(orderedKeys))
	copy(out, orderedKeys)
	return out
}
