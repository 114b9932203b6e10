package permission

import (
	"fmt"
	"slices"
	"sort"
	"strings"
)

// Permission is a system-permission identifier such as "patio.view" or "platform.admin".
type Permission string

// Module identifies a functional area of the workshop product.
type Module string

const (
	ModuleDashboard     Module = "dashboard"
	ModulePatio         Module = "patio"
	ModuleAgenda        Module = "agenda"
	ModuleOrdensServico Module = "ordens_servico"
	ModuleOrcamentos    Module = "orcamentos"
	ModuleEstoque       Module = "estoque"
	ModuleCadastros     Module = "cadastros"
	ModuleFinanceiro    Module = "financeiro"
	ModuleRH            Module = "rh"
	ModuleTreinamentos  Module = "treinamentos"
	ModuleMetas         Module = "metas"
	ModuleDocumentos    Module = "documentos"
	ModuleRelatorios    Module = "relatorios"
	ModuleQualidade     Module = "qualidade"
	ModuleConfiguracoes Module = "configuracoes"
)

// Capability is an action applicable to a module.
type Capability string

const (
	CapView   Capability = "view"
	CapEdit   Capability = "edit"
	CapDelete Capability = "delete"
	CapCreate Capability = "create"
	CapUpload Capability = "upload"
	CapManage Capability = "manage"
)

// Platform and tenant-management permissions that are not tied to a module.
const (
	PlatformAdmin       Permission = "platform.admin"
	PlatformTenants     Permission = "platform.tenants"
	PlatformAudit       Permission = "platform.audit"
	PlatformDiagnostics Permission = "platform.diagnostics"
	PlatformSessions    Permission = "platform.sessions"
	UsersApprove        Permission = "users.approve"
	ProfilesManage      Permission = "profiles.manage"
)

var allModules = []Module{
	ModuleDashboard, ModulePatio, ModuleAgenda, ModuleOrdensServico, ModuleOrcamentos,
	ModuleEstoque, ModuleCadastros, ModuleFinanceiro, ModuleRH, ModuleTreinamentos,
	ModuleMetas, ModuleDocumentos, ModuleRelatorios, ModuleQualidade, ModuleConfiguracoes,
}

var allCapabilities = []Capability{CapView, CapEdit, CapDelete, CapCreate, CapUpload, CapManage}

var platformPermissions = []Permission{
	PlatformAdmin, PlatformTenants, PlatformAudit, PlatformDiagnostics, PlatformSessions,
	UsersApprove, ProfilesManage,
}

// universe is built once; callers get copies.
var universe = buildUniverse()

func buildUniverse() []Permission {
	out := make([]Permission, 0, len(allModules)*len(allCapabilities)+len(platformPermissions))
	for _, m := range allModules {
		for _, c := range allCapabilities {
			out = append(out, For(m, c))
		}
	}
	return append(out, platformPermissions...)
}

// For builds the permission identifier for a module capability.
func For(m Module, c Capability) Permission {
	return Permission(string(m) + "." + string(c))
}

func (p Permission) String() string {
	return string(p)
}

// IsValid reports whether p is a known system permission.
func (p Permission) IsValid() bool {
	return slices.Contains(universe, p)
}

// IsPlatform reports whether p belongs to the operator side of the product.
func (p Permission) IsPlatform() bool {
	return strings.HasPrefix(string(p), "platform.")
}

// Platform returns the members of s that belong to the operator side, sorted.
func (s Set) Platform() []Permission {
	var out []Permission
	for _, p := range s.Sorted() {
		if p.IsPlatform() {
			out = append(out, p)
		}
	}
	return out
}

// Modules returns the closed list of modules.
func Modules() []Module {
	return slices.Clone(allModules)
}

// IsValid reports whether m is a known module.
func (m Module) IsValid() bool {
	return slices.Contains(allModules, m)
}

// ParseModule validates a module identifier read from storage or a request.
func ParseModule(s string) (Module, error) {
	m := Module(strings.TrimSpace(s))
	if !m.IsValid() {
		return "", fmt.Errorf("unknown module %q", s)
	}
	return m, nil
}

// GetAllPermissions returns the full universe of known permission identifiers.
func GetAllPermissions() []Permission {
	return slices.Clone(universe)
}

// ValidatePermissions returns an error naming the first unknown identifier.
func ValidatePermissions(perms []Permission) error {
	for _, p := range perms {
		if !p.IsValid() {
			return fmt.Errorf("unknown permission %q", p)
		}
	}
	return nil
}

// Set is an unordered collection of permissions.
type Set map[Permission]struct{}

// NewSet builds a set from the given permissions.
func NewSet(perms ...Permission) Set {
	s := make(Set, len(perms))
	s.Add(perms...)
	return s
}

func (s Set) Add(perms ...Permission) {
	for _, p := range perms {
		s[p] = struct{}{}
	}
}

func (s Set) Has(p Permission) bool {
	_, ok := s[p]
	return ok
}

// Sorted returns the members in lexical order.
func (s Set) Sorted() []Permission {
	out := make([]Permission, 0, len(s))
	for p := range s {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
