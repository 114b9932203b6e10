package httpserver

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/workshopops/accesscontrol/internal/core/domain/employee"
	"github.com/workshopops/accesscontrol/internal/core/ports"
	"github.com/workshopops/accesscontrol/internal/infrastructure/httpserver/helpers"
)

func (s *Server) inviteEmployee(c echo.Context) error {
	var req ports.InviteRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	e, err := s.onboarding.Invite(c.Request().Context(), &req)
	if err != nil {
		return helpers.HTTPError(err)
	}
	return c.JSON(http.StatusCreated, e)
}

func (s *Server) listPendingEmployees(c echo.Context) error {
	workshopID, err := helpers.ParseOptionalUUIDQuery(c, "workshop_id")
	if err != nil {
		return err
	}
	if workshopID == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "workshop_id is required")
	}
	list, err := s.onboarding.ListPending(c.Request().Context(), *workshopID)
	if err != nil {
		return helpers.HTTPError(err)
	}
	return c.JSON(http.StatusOK, map[string]any{"employees": list})
}

// registerEmployee links the caller's identity to the invited employee record.
func (s *Server) registerEmployee(c echo.Context) error {
	u, err := helpers.GetCurrentUserFromContext(c)
	if err != nil {
		return err
	}
	return s.transitionEmployee(c, func(ctx context.Context, id uuid.UUID) (*employee.Employee, error) {
		return s.onboarding.Register(ctx, id, u.ID)
	})
}

type approveRequest struct {
	ProfileID uuid.UUID `json:"profile_id"`
}

func (s *Server) approveEmployee(c echo.Context) error {
	var req approveRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.ProfileID == uuid.Nil {
		return echo.NewHTTPError(http.StatusBadRequest, "profile_id is required")
	}
	return s.transitionEmployee(c, func(ctx context.Context, id uuid.UUID) (*employee.Employee, error) {
		return s.onboarding.Approve(ctx, id, req.ProfileID)
	})
}

type reasonRequest struct {
	Reason string `json:"reason"`
}

func (s *Server) rejectEmployee(c echo.Context) error {
	var req reasonRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	return s.transitionEmployee(c, func(ctx context.Context, id uuid.UUID) (*employee.Employee, error) {
		return s.onboarding.Reject(ctx, id, req.Reason)
	})
}

func (s *Server) blockEmployee(c echo.Context) error {
	var req reasonRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	return s.transitionEmployee(c, func(ctx context.Context, id uuid.UUID) (*employee.Employee, error) {
		return s.onboarding.Block(ctx, id, req.Reason)
	})
}

func (s *Server) deactivateEmployee(c echo.Context) error {
	return s.transitionEmployee(c, s.onboarding.Deactivate)
}

func (s *Server) reactivateEmployee(c echo.Context) error {
	return s.transitionEmployee(c, s.onboarding.Reactivate)
}

func (s *Server) transitionEmployee(c echo.Context, fn func(ctx context.Context, id uuid.UUID) (*employee.Employee, error)) error {
	id, err := helpers.ParseUUIDParam(c, "id")
	if err != nil {
		return err
	}
	e, err := fn(c.Request().Context(), id)
	if err != nil {
		return helpers.HTTPError(err)
	}
	return c.JSON(http.StatusOK, e)
}
