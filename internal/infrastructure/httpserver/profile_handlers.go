package httpserver

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/workshopops/accesscontrol/internal/core/domain/profile"
	"github.com/workshopops/accesscontrol/internal/core/ports"
	"github.com/workshopops/accesscontrol/internal/infrastructure/httpserver/helpers"
)

func (s *Server) listProfiles(c echo.Context) error {
	workshopID, err := helpers.ParseOptionalUUIDQuery(c, "workshop_id")
	if err != nil {
		return err
	}
	list, err := s.profiles.ListProfiles(c.Request().Context(), workshopID)
	if err != nil {
		return helpers.HTTPError(err)
	}
	return c.JSON(http.StatusOK, map[string]any{"profiles": list})
}

func (s *Server) createProfile(c echo.Context) error {
	var p profile.Profile
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	created, err := s.profiles.CreateProfile(c.Request().Context(), &p)
	if err != nil {
		return helpers.HTTPError(err)
	}
	return c.JSON(http.StatusCreated, created)
}

type fromJobRoleRequest struct {
	JobRole    string     `json:"job_role"`
	Name       string     `json:"name"`
	WorkshopID *uuid.UUID `json:"workshop_id,omitempty"`
}

func (s *Server) createProfileFromJobRole(c echo.Context) error {
	var req fromJobRoleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	created, err := s.profiles.CreateFromJobRole(c.Request().Context(), req.JobRole, req.Name, req.WorkshopID)
	if err != nil {
		return helpers.HTTPError(err)
	}
	return c.JSON(http.StatusCreated, created)
}

func (s *Server) getProfile(c echo.Context) error {
	id, err := helpers.ParseUUIDParam(c, "id")
	if err != nil {
		return err
	}
	p, err := s.profiles.GetProfile(c.Request().Context(), id)
	if err != nil {
		return helpers.HTTPError(err)
	}
	return c.JSON(http.StatusOK, p)
}

func (s *Server) updateProfilePermissions(c echo.Context) error {
	id, err := helpers.ParseUUIDParam(c, "id")
	if err != nil {
		return err
	}
	var req ports.UpdatePermissionsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	p, err := s.profiles.UpdatePermissions(c.Request().Context(), id, &req)
	if err != nil {
		return helpers.HTTPError(err)
	}
	return c.JSON(http.StatusOK, p)
}

func (s *Server) listCustomRoles(c echo.Context) error {
	workshopID, err := helpers.ParseOptionalUUIDQuery(c, "workshop_id")
	if err != nil {
		return err
	}
	list, err := s.profiles.ListCustomRoles(c.Request().Context(), workshopID)
	if err != nil {
		return helpers.HTTPError(err)
	}
	return c.JSON(http.StatusOK, map[string]any{"custom_roles": list})
}

func (s *Server) createCustomRole(c echo.Context) error {
	var r profile.CustomRole
	if err := c.Bind(&r); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	created, err := s.profiles.CreateCustomRole(c.Request().Context(), &r)
	if err != nil {
		return helpers.HTTPError(err)
	}
	return c.JSON(http.StatusCreated, created)
}
