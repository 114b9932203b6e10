package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/workshopops/accesscontrol/internal/core/domain/access"
	"github.com/workshopops/accesscontrol/internal/core/domain/audit"
	"github.com/workshopops/accesscontrol/internal/core/domain/employee"
	"github.com/workshopops/accesscontrol/internal/core/domain/jobrole"
	"github.com/workshopops/accesscontrol/internal/core/domain/profile"
	"github.com/workshopops/accesscontrol/internal/core/ports"
)

type OnboardingService struct {
	uow       ports.UnitOfWork
	employees ports.EmployeeRepository
	audit     ports.AuditService
	now       func() time.Time
	logger    *logrus.Logger
}

func NewOnboardingService(uow ports.UnitOfWork, employees ports.EmployeeRepository, auditSvc ports.AuditService, logger *logrus.Logger) ports.OnboardingService {
	return &OnboardingService{
		uow:       uow,
		employees: employees,
		audit:     auditSvc,
		now:       time.Now,
		logger:    logger,
	}
}

func (s *OnboardingService) Invite(ctx context.Context, req *ports.InviteRequest) (*employee.Employee, error) {
	if req == nil || req.WorkshopID == uuid.Nil {
		return nil, ports.NewValidationError("workshop_id is required")
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, ports.NewValidationError("name is required")
	}
	addr, err := mail.ParseAddress(strings.TrimSpace(req.Email))
	if err != nil {
		return nil, ports.NewValidationError("invalid email %q", req.Email)
	}
	if err := authorizeWrite(ctx, req.WorkshopID); err != nil {
		return nil, err
	}
	if tenantCaller(ctx) && (req.IsInternal || strings.EqualFold(strings.TrimSpace(req.TipoVinculo), employee.VinculoInterno)) {
		return nil, ports.NewForbiddenError("internal employees are invited by the platform")
	}

	now := s.now().UTC()
	e := &employee.Employee{
		ID:          uuid.New(),
		WorkshopID:  req.WorkshopID,
		Name:        name,
		Email:       strings.ToLower(addr.Address),
		JobRole:     string(jobrole.LookupDefaults(req.JobRole).JobRole),
		IsInternal:  req.IsInternal,
		TipoVinculo: strings.TrimSpace(req.TipoVinculo),
		Status:      employee.StatusInvited,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.employees.Create(ctx, e); err != nil {
		return nil, fmt.Errorf("failed to create employee: %w", err)
	}
	if s.logger != nil {
		s.logger.WithFields(logrus.Fields{"employee_id": e.ID, "workshop_id": e.WorkshopID, "job_role": e.JobRole}).Info("employee invited")
	}
	return e, nil
}

func (s *OnboardingService) GetEmployee(ctx context.Context, id uuid.UUID) (*employee.Employee, error) {
	e, err := s.employees.GetByID(ctx, id)
	if err != nil {
		return nil, employeeLookupError(id, err)
	}
	if err := authorizeRead(ctx, e.WorkshopID); err != nil {
		return nil, err
	}
	return e, nil
}

func employeeLookupError(id uuid.UUID, err error) error {
	if errors.Is(err, ports.ErrNotFound) {
		return ports.NewNotFoundError("employee %s not found", id)
	}
	return fmt.Errorf("failed to load employee: %w", err)
}

// step prepares the link fields and audit event of one transition. It runs inside the
// unit of work after the status rule passed and before the conditional update.
type step func(ctx context.Context, repos ports.TxRepositories, e *employee.Employee) (ports.StatusChange, *audit.Event, error)

// transition runs an administrative transition; the caller must be allowed to write
// into the employee's workshop.
func (s *OnboardingService) transition(ctx context.Context, id uuid.UUID, to employee.Status, from []employee.Status, prepare step) (*employee.Employee, error) {
	return s.apply(ctx, id, to, from, prepare, true)
}

// apply runs read, status check, conditional update and audit append atomically.
// from restricts the source states further than the status rules when non-empty.
func (s *OnboardingService) apply(ctx context.Context, id uuid.UUID, to employee.Status, from []employee.Status, prepare step, scoped bool) (*employee.Employee, error) {
	var out *employee.Employee
	err := s.uow.Do(ctx, func(ctx context.Context, repos ports.TxRepositories) error {
		e, err := repos.Employees.GetByID(ctx, id)
		if err != nil {
			return employeeLookupError(id, err)
		}
		if scoped {
			if err := authorizeWrite(ctx, e.WorkshopID); err != nil {
				return err
			}
		}
		if !e.CanTransitionTo(to) || (len(from) > 0 && !slices.Contains(from, e.Status)) {
			return ports.NewStateConflictError("employee %s is %s and cannot move to %s", id, e.Status, to)
		}

		change, ev, err := prepare(ctx, repos, e)
		if err != nil {
			return err
		}
		prev := e.Status
		if err := repos.Employees.TransitionStatus(ctx, id, prev, to, change); err != nil {
			if errors.Is(err, ports.ErrStaleState) {
				return ports.NewStateConflictError("employee %s changed concurrently; it is no longer %s", id, prev)
			}
			return fmt.Errorf("failed to update employee status: %w", err)
		}

		e.Status = to
		e.UpdatedAt = s.now().UTC()
		if change.UserID != nil {
			e.UserID = change.UserID
		}
		if change.ProfileID != nil {
			e.ProfileID = change.ProfileID
		}

		ev.EntityType = audit.EntityEmployee
		ev.EntityID = e.ID.String()
		if ev.TenantID == nil {
			ws := e.WorkshopID
			ev.TenantID = &ws
		}
		if ev.Details == nil {
			ev.Details = map[string]any{}
		}
		ev.Details["from_status"] = string(prev)
		ev.Details["to_status"] = string(to)
		if err := s.audit.AppendWith(ctx, repos.Audit, ev); err != nil {
			return err
		}
		out = e
		return nil
	})
	if err != nil {
		if s.logger != nil {
			s.logger.WithFields(logrus.Fields{"employee_id": id, "to_status": to}).WithError(err).Warn("employee transition failed")
		}
		return nil, err
	}
	if s.logger != nil {
		s.logger.WithFields(logrus.Fields{"employee_id": id, "workshop_id": out.WorkshopID, "status": out.Status}).Info("employee status changed")
	}
	return out, nil
}

func (s *OnboardingService) Register(ctx context.Context, employeeID, userID uuid.UUID) (*employee.Employee, error) {
	if userID == uuid.Nil {
		return nil, ports.NewValidationError("user_id is required")
	}
	// The invitee links themselves, so no workshop scope applies.
	return s.apply(ctx, employeeID, employee.StatusPending, nil, func(ctx context.Context, repos ports.TxRepositories, e *employee.Employee) (ports.StatusChange, *audit.Event, error) {
		if e.UserID != nil && *e.UserID != userID {
			return ports.StatusChange{}, nil, ports.NewStateConflictError("employee %s is linked to another identity", e.ID)
		}
		other, err := repos.Employees.GetByUserID(ctx, userID)
		switch {
		case err == nil && other.ID != e.ID:
			return ports.StatusChange{}, nil, ports.NewStateConflictError("identity %s is already linked to employee %s", userID, other.ID)
		case err != nil && !errors.Is(err, ports.ErrNotFound):
			return ports.StatusChange{}, nil, fmt.Errorf("failed to check identity link: %w", err)
		}
		ev := &audit.Event{Action: audit.ActionUserRegistered, Details: map[string]any{"user_id": userID.String()}}
		return ports.StatusChange{UserID: &userID}, ev, nil
	}, false)
}

// Approve is the only transition that grants permissions.
func (s *OnboardingService) Approve(ctx context.Context, employeeID, profileID uuid.UUID) (*employee.Employee, error) {
	if profileID == uuid.Nil {
		return nil, ports.NewValidationError("profile_id is required")
	}
	return s.transition(ctx, employeeID, employee.StatusApproved, []employee.Status{employee.StatusPending}, func(ctx context.Context, repos ports.TxRepositories, e *employee.Employee) (ports.StatusChange, *audit.Event, error) {
		p, err := repos.Profiles.GetByID(ctx, profileID)
		if err != nil {
			if errors.Is(err, ports.ErrNotFound) {
				return ports.StatusChange{}, nil, ports.NewNotFoundError("profile %s not found", profileID)
			}
			return ports.StatusChange{}, nil, fmt.Errorf("failed to load profile: %w", err)
		}
		if p.WorkshopID != nil && *p.WorkshopID != e.WorkshopID {
			return ports.StatusChange{}, nil, ports.NewValidationError("profile %s belongs to another workshop", profileID)
		}
		if err := s.checkAssignable(ctx, repos, e, p); err != nil {
			return ports.StatusChange{}, nil, err
		}
		if e.UserID != nil {
			if err := repos.Users.SetProfile(ctx, *e.UserID, &profileID); err != nil {
				if errors.Is(err, ports.ErrNotFound) {
					return ports.StatusChange{}, nil, ports.NewNotFoundError("identity %s not found", *e.UserID)
				}
				return ports.StatusChange{}, nil, fmt.Errorf("failed to assign profile to identity: %w", err)
			}
		}
		ev := &audit.Event{Action: audit.ActionUserApproved, Details: map[string]any{
			"profile_id":   profileID.String(),
			"profile_name": p.Name,
		}}
		return ports.StatusChange{ProfileID: &profileID}, ev, nil
	})
}

// checkAssignable keeps operator-side bundles away from workshop employees. Internal
// employees may only be approved by the operator side.
func (s *OnboardingService) checkAssignable(ctx context.Context, repos ports.TxRepositories, e *employee.Employee, p *profile.Profile) error {
	if access.IsInternal(nil, e) {
		if tenantCaller(ctx) {
			return ports.NewForbiddenError("employee %s is internal and is approved by the platform", e.ID)
		}
		return nil
	}
	if p.Type == profile.TypeInternal {
		return ports.NewValidationError("profile %s is internal and cannot be assigned to a workshop employee", p.ID)
	}
	var roles []*profile.CustomRole
	if len(p.CustomRoleIDs) > 0 {
		found, err := repos.CustomRoles.GetByIDs(ctx, p.CustomRoleIDs)
		if err != nil {
			return fmt.Errorf("failed to load custom roles: %w", err)
		}
		roles = found
	}
	if granted := profile.Effective(p, roles).Platform(); len(granted) > 0 {
		return ports.NewValidationError("profile %s grants platform permissions %v and cannot be assigned to a workshop employee", p.ID, granted)
	}
	return nil
}

func (s *OnboardingService) Reject(ctx context.Context, employeeID uuid.UUID, reason string) (*employee.Employee, error) {
	return s.transition(ctx, employeeID, employee.StatusRejected, nil, withReason(audit.ActionUserRejected, reason))
}

// Block is allowed from every state except blocked.
func (s *OnboardingService) Block(ctx context.Context, employeeID uuid.UUID, reason string) (*employee.Employee, error) {
	return s.transition(ctx, employeeID, employee.StatusBlocked, nil, withReason(audit.ActionUserBlocked, reason))
}

func (s *OnboardingService) Deactivate(ctx context.Context, employeeID uuid.UUID) (*employee.Employee, error) {
	return s.transition(ctx, employeeID, employee.StatusInactive, nil, withReason(audit.ActionUserDeactivated, ""))
}

// Reactivate restores a blocked or inactive employee that already holds a profile.
func (s *OnboardingService) Reactivate(ctx context.Context, employeeID uuid.UUID) (*employee.Employee, error) {
	from := []employee.Status{employee.StatusBlocked, employee.StatusInactive}
	return s.transition(ctx, employeeID, employee.StatusApproved, from, func(ctx context.Context, repos ports.TxRepositories, e *employee.Employee) (ports.StatusChange, *audit.Event, error) {
		if e.ProfileID == nil {
			return ports.StatusChange{}, nil, ports.NewValidationError("employee %s has no profile assigned", e.ID)
		}
		return ports.StatusChange{}, &audit.Event{Action: audit.ActionUserReactivated}, nil
	})
}

func withReason(action audit.Action, reason string) step {
	return func(ctx context.Context, repos ports.TxRepositories, e *employee.Employee) (ports.StatusChange, *audit.Event, error) {
		ev := &audit.Event{Action: action}
		if r := strings.TrimSpace(reason); r != "" {
			ev.Details = map[string]any{"reason": r}
		}
		return ports.StatusChange{}, ev, nil
	}
}

func (s *OnboardingService) ListPending(ctx context.Context, workshopID uuid.UUID) ([]*employee.Employee, error) {
	if workshopID == uuid.Nil {
		return nil, ports.NewValidationError("workshop_id is required")
	}
	if err := authorizeRead(ctx, workshopID); err != nil {
		return nil, err
	}
	list, err := s.employees.ListByStatus(ctx, workshopID, employee.StatusPending)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending employees: %w", err)
	}
	return list, nil
}
