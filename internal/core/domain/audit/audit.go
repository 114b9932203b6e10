package audit

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Event is an immutable record of a security-relevant action.
type Event struct {
	ID               string         `json:"id" db:"id"`
	Timestamp        time.Time      `json:"timestamp" db:"timestamp"`
	ActorID          *uuid.UUID     `json:"actor_id,omitempty" db:"actor_id"`
	ActorEmail       string         `json:"actor_email" db:"actor_email"`
	Action           Action         `json:"action" db:"action"`
	EntityType       EntityType     `json:"entity_type,omitempty" db:"entity_type"`
	EntityID         string         `json:"entity_id,omitempty" db:"entity_id"`
	TenantID         *uuid.UUID     `json:"tenant_id,omitempty" db:"tenant_id"`
	OnBehalfOfTenant *uuid.UUID     `json:"on_behalf_of_tenant,omitempty" db:"on_behalf_of_tenant"`
	AdminSessionID   *uuid.UUID     `json:"admin_session_id,omitempty" db:"admin_session_id"`
	Details          map[string]any `json:"details,omitempty" db:"-"`
	IPAddress        string         `json:"ip_address,omitempty" db:"ip_address"`
	UserAgent        string         `json:"user_agent,omitempty" db:"user_agent"`
}

// Action is the closed set of audited actions.
type Action string

const (
	ActionLogin               Action = "login"
	ActionLogout              Action = "logout"
	ActionUserRegistered      Action = "user_registered"
	ActionUserApproved        Action = "user_approved"
	ActionUserRejected        Action = "user_rejected"
	ActionUserBlocked         Action = "user_blocked"
	ActionUserDeactivated     Action = "user_deactivated"
	ActionUserReactivated     Action = "user_reactivated"
	ActionPermissionChanged   Action = "permission_changed"
	ActionProfileCreated      Action = "profile_created"
	ActionCustomRoleCreated   Action = "custom_role_created"
	ActionPasswordReset       Action = "password_reset"
	ActionAdminSessionStarted Action = "admin_session_started"
	ActionAdminAction         Action = "admin_action"
)

var actions = []Action{
	ActionLogin, ActionLogout, ActionUserRegistered, ActionUserApproved, ActionUserRejected,
	ActionUserBlocked, ActionUserDeactivated, ActionUserReactivated, ActionPermissionChanged,
	ActionProfileCreated, ActionCustomRoleCreated, ActionPasswordReset,
	ActionAdminSessionStarted, ActionAdminAction,
}

func (a Action) IsValid() bool {
	for _, v := range actions {
		if v == a {
			return true
		}
	}
	return false
}

// Actions returns the closed action list.
func Actions() []Action {
	out := make([]Action, len(actions))
	copy(out, actions)
	return out
}

// EntityType names the kind of record an event refers to.
type EntityType string

const (
	EntityEmployee     EntityType = "employee"
	EntityProfile      EntityType = "profile"
	EntityCustomRole   EntityType = "custom_role"
	EntityAdminSession EntityType = "admin_session"
	EntityUser         EntityType = "user"
	EntityWorkshop     EntityType = "workshop"
)

// Filter selects events for query and export. Zero fields do not filter.
type Filter struct {
	Action     *Action     `json:"action,omitempty" query:"action"`
	EntityType *EntityType `json:"entity_type,omitempty" query:"entity_type"`
	ActorID    *uuid.UUID  `json:"actor_id,omitempty" query:"actor_id"`
	TenantID   *uuid.UUID  `json:"tenant_id,omitempty" query:"tenant_id"`
	DateFrom   *time.Time  `json:"date_from,omitempty" query:"date_from"`
	DateTo     *time.Time  `json:"date_to,omitempty" query:"date_to"`
	FreeText   string      `json:"q,omitempty" query:"q"`
	Limit      int         `json:"limit" query:"limit"`
	Offset     int         `json:"offset" query:"offset"`
}

// Validate rejects unknown actions and inverted date ranges.
func (f *Filter) Validate() error {
	if f == nil {
		return nil
	}
	if f.Action != nil && !f.Action.IsValid() {
		return fmt.Errorf("unknown audit action %q", *f.Action)
	}
	if f.DateFrom != nil && f.DateTo != nil && f.DateTo.Before(*f.DateFrom) {
		return fmt.Errorf("date_to is before date_from")
	}
	if f.Limit < 0 || f.Offset < 0 {
		return fmt.Errorf("limit and offset must not be negative")
	}
	return nil
}

// Matches applies every filter criterion except paging.
func (f *Filter) Matches(e *Event) bool {
	if f == nil {
		return true
	}
	if f.Action != nil && e.Action != *f.Action {
		return false
	}
	if f.EntityType != nil && e.EntityType != *f.EntityType {
		return false
	}
	if f.ActorID != nil && (e.ActorID == nil || *e.ActorID != *f.ActorID) {
		return false
	}
	if f.TenantID != nil && !sameTenant(e, *f.TenantID) {
		return false
	}
	if f.DateFrom != nil && e.Timestamp.Before(*f.DateFrom) {
		return false
	}
	if f.DateTo != nil && e.Timestamp.After(*f.DateTo) {
		return false
	}
	if q := strings.TrimSpace(f.FreeText); q != "" {
		return containsFold(e.ActorEmail, q) || containsFold(e.EntityID, q) || containsFold(e.DetailsText(), q)
	}
	return true
}

func sameTenant(e *Event, id uuid.UUID) bool {
	return (e.TenantID != nil && *e.TenantID == id) || (e.OnBehalfOfTenant != nil && *e.OnBehalfOfTenant == id)
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

// DetailsText renders Details as compact JSON, empty when there are none.
func (e *Event) DetailsText() string {
	if len(e.Details) == 0 {
		return ""
	}
	b, err := json.Marshal(e.Details)
	if err != nil {
		return ""
	}
	return string(b)
}

// SortNewestFirst orders events by timestamp desc, then id desc.
func SortNewestFirst(events []*Event) {
	sort.SliceStable(events, func(i, j int) bool {
		if !events[i].Timestamp.Equal(events[j].Timestamp) {
			return events[i].Timestamp.After(events[j].Timestamp)
		}
		return events[i].ID > events[j].ID
	})
}

// Page applies limit and offset to an already ordered slice.
func Page(events []*Event, limit, offset int) []*Event {
	if offset >= len(events) {
		return []*Event{}
	}
	end := len(events)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return events[offset:end]
}
