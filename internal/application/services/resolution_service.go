package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/workshopops/accesscontrol/internal/core/domain/access"
	"github.com/workshopops/accesscontrol/internal/core/domain/employee"
	"github.com/workshopops/accesscontrol/internal/core/domain/permission"
	"github.com/workshopops/accesscontrol/internal/core/domain/profile"
	"github.com/workshopops/accesscontrol/internal/core/domain/user"
	"github.com/workshopops/accesscontrol/internal/core/ports"
)

// ResolutionService computes permission sets and page decisions from current store state.
// It keeps no per-identity state between calls.
type ResolutionService struct {
	users       ports.UserRepository
	employees   ports.EmployeeRepository
	profiles    ports.ProfileRepository
	customRoles ports.CustomRoleRepository
	pages       permission.PageMap
	gaps        *GapRegistry
	logger      *logrus.Logger
}

func NewResolutionService(users ports.UserRepository, employees ports.EmployeeRepository, profiles ports.ProfileRepository, customRoles ports.CustomRoleRepository, pages permission.PageMap, logger *logrus.Logger) ports.ResolutionService {
	if pages == nil {
		pages = permission.DefaultPageMap()
	}
	return &ResolutionService{
		users:       users,
		employees:   employees,
		profiles:    profiles,
		customRoles: customRoles,
		pages:       pages,
		gaps:        NewGapRegistry(time.Now),
		logger:      logger,
	}
}

// ResolvePermissionSet re-reads the identity and everything it references.
func (s *ResolutionService) ResolvePermissionSet(ctx context.Context, identity *user.User) (*access.PermissionSet, error) {
	in, err := s.load(ctx, identity)
	if err != nil {
		if s.logger != nil {
			s.logger.WithFields(logrus.Fields{"user_id": identityID(identity)}).WithError(err).Error("permission resolution failed; denying")
		}
		return nil, err
	}
	ps := access.Resolve(in)
	if s.logger != nil {
		s.logger.WithFields(logrus.Fields{"user_id": identityID(identity), "employee_status": employeeStatusOrNone(in.Employee), "provisioning": ps.Provisioning, "permissions": len(ps.Permissions)}).Debug("permission set resolved")
	}
	return ps, nil
}

func (s *ResolutionService) load(ctx context.Context, identity *user.User) (access.Inputs, error) {
	var in access.Inputs
	if identity == nil {
		return in, nil
	}

	u, err := s.users.GetByID(ctx, identity.ID)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return in, nil
		}
		return in, fmt.Errorf("failed to load identity: %w", err)
	}
	in.User = u

	e, err := s.employees.GetByUserID(ctx, u.ID)
	switch {
	case err == nil:
		in.Employee = e
	case !errors.Is(err, ports.ErrNotFound):
		return in, fmt.Errorf("failed to load employee: %w", err)
	}

	if !access.NeedsProfile(in.User, in.Employee) {
		return in, nil
	}
	ref := access.ProfileRef(in.User, in.Employee)
	p, err := s.profiles.GetByID(ctx, *ref)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			if s.logger != nil {
				s.logger.WithFields(logrus.Fields{"user_id": u.ID, "profile_id": *ref}).Warn("referenced profile does not exist")
			}
			return in, nil
		}
		return in, fmt.Errorf("failed to load profile: %w", err)
	}
	in.Profile = p

	if len(p.CustomRoleIDs) > 0 {
		roles, err := s.customRoles.GetByIDs(ctx, p.CustomRoleIDs)
		if err != nil {
			return in, fmt.Errorf("failed to load custom roles: %w", err)
		}
		if missing := missingRoles(p, roles); len(missing) > 0 && s.logger != nil {
			s.logger.WithFields(logrus.Fields{"profile_id": p.ID, "missing_custom_roles": missing}).Warn("profile references custom roles that do not exist")
		}
		in.CustomRoles = roles
	}
	return in, nil
}

func missingRoles(p *profile.Profile, roles []*profile.CustomRole) []string {
	found := make(map[string]bool, len(roles))
	for _, r := range roles {
		found[r.ID.String()] = true
	}
	var missing []string
	for _, id := range p.CustomRoleIDs {
		if !found[id.String()] {
			missing = append(missing, id.String())
		}
	}
	return missing
}

func (s *ResolutionService) CanAccess(ctx context.Context, identity *user.User, page permission.PageID) (bool, error) {
	d, err := s.CheckPage(ctx, identity, page)
	return d.Allowed, err
}

// CheckPage returns the full decision. On store failure the decision is a denial.
func (s *ResolutionService) CheckPage(ctx context.Context, identity *user.User, page permission.PageID) (access.Decision, error) {
	ps, err := s.ResolvePermissionSet(ctx, identity)
	if err != nil {
		accessDecisionsTotal.WithLabelValues("error").Inc()
		return access.Decision{Page: page}, err
	}
	return s.DecidePage(ps, page), nil
}

// DecidePage evaluates page against an already resolved set.
func (s *ResolutionService) DecidePage(ps *access.PermissionSet, page permission.PageID) access.Decision {
	d := access.CanAccessPage(s.pages, ps, page)
	s.observe(ps, d)
	return d
}

func (s *ResolutionService) Diagnose(ctx context.Context, identity *user.User, page permission.PageID) (*access.Report, error) {
	ps, err := s.ResolvePermissionSet(ctx, identity)
	if err != nil {
		return nil, err
	}
	r := access.Diagnose(s.pages, ps, page)
	if r.Decision.ConfigurationGap {
		s.recordGap(ps, page)
	}
	return &r, nil
}

func (s *ResolutionService) observe(ps *access.PermissionSet, d access.Decision) {
	accessDecisionsTotal.WithLabelValues(string(d.Reason)).Inc()
	if d.ConfigurationGap {
		s.recordGap(ps, d.Page)
	}
}

func (s *ResolutionService) recordGap(ps *access.PermissionSet, page permission.PageID) {
	s.gaps.Record(page)
	configurationGapsTotal.WithLabelValues(string(page)).Inc()
	if s.logger != nil {
		var userID string
		if ps != nil && ps.UserID != uuid.Nil {
			userID = ps.UserID.String()
		}
		s.logger.WithFields(logrus.Fields{"page": page, "user_id": userID}).Warn("page has no entry in the page permission map")
	}
}

func (s *ResolutionService) CheckCoverage(pages []permission.PageID) []error {
	var errs []error
	for _, p := range s.pages.Unmapped(pages) {
		errs = append(errs, ports.NewConfigurationGapError("page %q is routed but has no entry in the page permission map", p))
	}
	if len(errs) > 0 && s.logger != nil {
		s.logger.WithFields(logrus.Fields{"gaps": len(errs), "checked": len(pages)}).Warn("page permission map coverage gaps")
	}
	return errs
}

func (s *ResolutionService) Gaps() []ports.GapEntry {
	return s.gaps.Snapshot()
}

func identityID(u *user.User) string {
	if u == nil {
		return ""
	}
	return u.ID.String()
}

// GapRegistry counts hits on unmapped pages. Safe for concurrent use.
type GapRegistry struct {
	mu      sync.Mutex
	now     func() time.Time
	entries map[permission.PageID]*ports.GapEntry
}

func NewGapRegistry(now func() time.Time) *GapRegistry {
	return &GapRegistry{now: now, entries: make(map[permission.PageID]*ports.GapEntry)}
}

func (g *GapRegistry) Record(page permission.PageID) {
	g.mu.Lock()
	defer g.mu.Unlock()
	e, ok := g.entries[page]
	if !ok {
		e = &ports.GapEntry{Page: page}
		g.entries[page] = e
	}
	e.Hits++
	e.LastSeen = g.now()
}

// Snapshot returns copies ordered by page id.
func (g *GapRegistry) Snapshot() []ports.GapEntry {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]ports.GapEntry, 0, len(g.entries))
	for _, e := range g.entries {
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Page < out[j].Page })
	return out
}

func employeeStatusOrNone(e *employee.Employee) string {
	if e == nil {
		return "none"
	}
	return string(e.Status)
}
