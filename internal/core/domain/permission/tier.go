package permission

import (
	"fmt"
	"strings"
)

// AccessTier is the coarse per-module access level stored on a profile.
type AccessTier string

const (
	TierBlocked AccessTier = "blocked"
	TierView    AccessTier = "view"
	TierTotal   AccessTier = "total"
)

func (t AccessTier) IsValid() bool {
	switch t {
	case TierBlocked, TierView, TierTotal:
		return true
	default:
		return false
	}
}

// UnmarshalText rejects unknown tiers so a stored typo surfaces as an error.
func (t *AccessTier) UnmarshalText(b []byte) error {
	v := AccessTier(strings.TrimSpace(string(b)))
	if !v.IsValid() {
		return fmt.Errorf("unknown access tier %q", string(b))
	}
	*t = v
	return nil
}

// UnmarshalText rejects unknown modules; used for JSON map keys.
func (m *Module) UnmarshalText(b []byte) error {
	v, err := ParseModule(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// ModuleAccess is the validated per-module tier map of a profile.
type ModuleAccess map[Module]AccessTier

// Validate checks every key and value against the closed enumerations.
func (ma ModuleAccess) Validate() error {
	for m, t := range ma {
		if !m.IsValid() {
			return fmt.Errorf("unknown module %q", m)
		}
		if !t.IsValid() {
			return fmt.Errorf("unknown access tier %q for module %q", t, m)
		}
	}
	return nil
}

// Tier returns the tier for m, blocked when absent.
func (ma ModuleAccess) Tier(m Module) AccessTier {
	if t, ok := ma[m]; ok {
		return t
	}
	return TierBlocked
}

// SidebarAccess is the view/edit/delete triple for one sidebar item.
type SidebarAccess struct {
	View   bool `json:"view"`
	Edit   bool `json:"edit"`
	Delete bool `json:"delete"`
}
