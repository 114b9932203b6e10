package permission

import "sort"

// PageID identifies a routable page of the product.
type PageID string

const (
	PageHome            PageID = "home"
	PageMyProfile       PageID = "my_profile"
	PagePendingApproval PageID = "pending_approval"

	PageAdminPanel            PageID = "admin_panel"
	PageTenants               PageID = "tenants"
	PageAuditLog              PageID = "audit_log"
	PagePermissionDiagnostics PageID = "permission_diagnostics"
	PageAdminSessions         PageID = "admin_sessions"

	PageUserApprovals PageID = "user_approvals"
	PageProfiles      PageID = "profiles"
)

// PageRule is the entry of the page-permission map. A nil Required marks a public page.
type PageRule struct {
	Required     *Permission `json:"required"`
	InternalOnly bool        `json:"internal_only"`
}

// PageMap is the static page to permission table.
type PageMap map[PageID]PageRule

func required(p Permission) *Permission { return &p }

// DefaultPageMap returns a fresh copy of the product's page table.
func DefaultPageMap() PageMap {
	pm := PageMap{
		PageHome:            {},
		PageMyProfile:       {},
		PagePendingApproval: {},

		PageAdminPanel:            {Required: required(PlatformAdmin), InternalOnly: true},
		PageTenants:               {Required: required(PlatformTenants), InternalOnly: true},
		PageAuditLog:              {Required: required(PlatformAudit), InternalOnly: true},
		PagePermissionDiagnostics: {Required: required(PlatformDiagnostics), InternalOnly: true},
		PageAdminSessions:         {Required: required(PlatformSessions), InternalOnly: true},

		PageUserApprovals: {Required: required(UsersApprove)},
		PageProfiles:      {Required: required(ProfilesManage)},
	}
	for _, m := range allModules {
		pm[PageID(m)] = PageRule{Required: required(For(m, CapView))}
	}
	return pm
}

// Lookup returns the rule for page and whether the page is mapped.
func (pm PageMap) Lookup(page PageID) (PageRule, bool) {
	r, ok := pm[page]
	return r, ok
}

// Pages lists mapped pages in lexical order.
func (pm PageMap) Pages() []PageID {
	out := make([]PageID, 0, len(pm))
	for p := range pm {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Unmapped returns the pages from routes that have no entry in the map.
func (pm PageMap) Unmapped(routes []PageID) []PageID {
	var gaps []PageID
	seen := make(map[PageID]bool, len(routes))
	for _, p := range routes {
		if seen[p] {
			continue
		}
		seen[p] = true
		if _, ok := pm[p]; !ok {
			gaps = append(gaps, p)
		}
	}
	return gaps
}
