package access

import (
	"fmt"

	"github.com/workshopops/accesscontrol/internal/core/domain/permission"
)

// Reason names why a page decision came out the way it did.
type Reason string

const (
	ReasonAdmin             Reason = "admin"
	ReasonPublic            Reason = "public"
	ReasonGranted           Reason = "granted"
	ReasonMissingPermission Reason = "missing_permission"
	ReasonInternalOnly      Reason = "internal_only"
	ReasonUnmapped          Reason = "unmapped"
)

// Decision is the outcome of a page access check.
type Decision struct {
	Page         permission.PageID      `json:"page"`
	Allowed      bool                   `json:"allowed"`
	Reason       Reason                 `json:"reason"`
	Required     *permission.Permission `json:"required,omitempty"`
	InternalOnly bool                   `json:"internal_only"`
	// ConfigurationGap is set when the page has no entry in the page map.
	ConfigurationGap bool `json:"configuration_gap"`
}

// CanAccessPage evaluates page against ps using pm. Absence of access is a normal outcome.
func CanAccessPage(pm permission.PageMap, ps *PermissionSet, page permission.PageID) Decision {
	d := Decision{Page: page}
	rule, mapped := pm.Lookup(page)
	if !mapped {
		d.ConfigurationGap = true
		d.Reason = ReasonUnmapped
		if ps != nil && ps.IsAdmin {
			d.Allowed = true
			d.Reason = ReasonAdmin
		}
		return d
	}
	d.Required = rule.Required
	d.InternalOnly = rule.InternalOnly

	switch {
	case ps != nil && ps.IsAdmin:
		d.Allowed, d.Reason = true, ReasonAdmin
	case rule.Required == nil:
		d.Allowed, d.Reason = true, ReasonPublic
	case !ps.Has(*rule.Required):
		d.Reason = ReasonMissingPermission
	case rule.InternalOnly && !ps.IsInternal:
		d.Reason = ReasonInternalOnly
	default:
		d.Allowed, d.Reason = true, ReasonGranted
	}
	return d
}

// FindingCode classifies a diagnostic finding.
type FindingCode string

const (
	FindingPageUnmapped              FindingCode = "page_unmapped"
	FindingInternalOnlyMismatch      FindingCode = "internal_only_mismatch"
	FindingMissingPermissionInternal FindingCode = "missing_permission_for_internal"
	FindingNotProvisioned            FindingCode = "not_provisioned"
	FindingAwaitingApproval          FindingCode = "awaiting_approval"
	FindingNoProfile                 FindingCode = "no_profile"
	FindingAccountBlocked            FindingCode = "account_blocked"
)

// Finding is one inconsistency surfaced by Diagnose.
type Finding struct {
	Code    FindingCode `json:"code"`
	Message string      `json:"message"`
}

// Report is the diagnostic view of a principal against one page.
type Report struct {
	Decision    Decision       `json:"decision"`
	Permissions *PermissionSet `json:"permission_set"`
	Findings    []Finding      `json:"findings"`
}

// Diagnose explains the decision for page and lists every inconsistency it can detect.
func Diagnose(pm permission.PageMap, ps *PermissionSet, page permission.PageID) Report {
	d := CanAccessPage(pm, ps, page)
	r := Report{Decision: d, Permissions: ps, Findings: []Finding{}}

	if d.ConfigurationGap {
		r.add(FindingPageUnmapped, fmt.Sprintf("page %q has no entry in the page permission map", page))
	}

	if ps != nil && !ps.IsAdmin {
		switch ps.Provisioning {
		case ProvisioningNotProvisioned:
			r.add(FindingNotProvisioned, "identity is not linked to an employee record and has no profile")
		case ProvisioningPending:
			r.add(FindingAwaitingApproval, "employee registration is awaiting approval")
		case ProvisioningNoProfile:
			r.add(FindingNoProfile, "no profile is assigned or the referenced profile does not exist")
		case ProvisioningBlocked, ProvisioningInactive, ProvisioningRejected:
			r.add(FindingAccountBlocked, fmt.Sprintf("employee status is %s", ps.Provisioning))
		}
	}

	if d.Required != nil && ps != nil && !ps.IsAdmin {
		has := ps.Has(*d.Required)
		if has && d.InternalOnly && !ps.IsInternal {
			r.add(FindingInternalOnlyMismatch, fmt.Sprintf("permission %s is granted but page %q is internal-only and the principal is not internal", *d.Required, page))
		}
		if !has && ps.IsInternal {
			r.add(FindingMissingPermissionInternal, fmt.Sprintf("principal is internal but lacks %s required by page %q", *d.Required, page))
		}
	}
	return r
}

func (r *Report) add(code FindingCode, msg string) {
	r.Findings = append(r.Findings, Finding{Code: code, Message: msg})
}
