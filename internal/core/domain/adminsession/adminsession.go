package adminsession

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

// DefaultAllowedDurations are the session lengths an operator may pick, in minutes.
var DefaultAllowedDurations = []int{15, 30, 60, 120, 240}

// Session is a time-boxed, justified elevation of an operator into one workshop.
// It is never updated after creation; active state is derived from ExpiresAt.
type Session struct {
	ID              uuid.UUID `json:"id" db:"id"`
	OperatorID      uuid.UUID `json:"operator_id" db:"operator_id"`
	OperatorEmail   string    `json:"operator_email" db:"operator_email"`
	TenantID        uuid.UUID `json:"tenant_id" db:"tenant_id"`
	Reason          string    `json:"reason" db:"reason"`
	DurationMinutes int       `json:"duration_minutes" db:"duration_minutes"`
	StartedAt       time.Time `json:"started_at" db:"started_at"`
	ExpiresAt       time.Time `json:"expires_at" db:"expires_at"`
}

// State is the derived lifecycle state of a session.
type State string

const (
	StateActive  State = "active"
	StateExpired State = "expired"
)

// New builds a session starting at now.
func New(operatorID, tenantID uuid.UUID, reason string, durationMinutes int, now time.Time) *Session {
	return &Session{
		ID:              uuid.New(),
		OperatorID:      operatorID,
		TenantID:        tenantID,
		Reason:          reason,
		DurationMinutes: durationMinutes,
		StartedAt:       now,
		ExpiresAt:       now.Add(time.Duration(durationMinutes) * time.Minute),
	}
}

// IsActive is true strictly before ExpiresAt.
func (s *Session) IsActive(now time.Time) bool {
	return now.Before(s.ExpiresAt)
}

// StateAt derives the state at now.
func (s *Session) StateAt(now time.Time) State {
	if s.IsActive(now) {
		return StateActive
	}
	return StateExpired
}

// Remaining returns the time left, zero once expired.
func (s *Session) Remaining(now time.Time) time.Duration {
	if !s.IsActive(now) {
		return 0
	}
	return s.ExpiresAt.Sub(now)
}

// IsAllowedDuration reports whether minutes is in allowed.
func IsAllowedDuration(allowed []int, minutes int) bool {
	return slices.Contains(allowed, minutes)
}

// View is a session with its state computed at read time.
type View struct {
	*Session
	State            State `json:"state"`
	RemainingSeconds int64 `json:"remaining_seconds"`
}

// ViewAt renders s at now.
func ViewAt(s *Session, now time.Time) View {
	return View{Session: s, State: s.StateAt(now), RemainingSeconds: int64(s.Remaining(now) / time.Second)}
}
