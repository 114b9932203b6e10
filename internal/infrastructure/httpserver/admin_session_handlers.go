package httpserver

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/workshopops/accesscontrol/internal/infrastructure/httpserver/helpers"
)

type startAdminSessionRequest struct {
	TenantID        uuid.UUID `json:"tenant_id"`
	Reason          string    `json:"reason"`
	DurationMinutes int       `json:"duration_minutes"`
}

func (s *Server) startAdminSession(c echo.Context) error {
	operator, err := helpers.GetCurrentUserFromContext(c)
	if err != nil {
		return err
	}
	var req startAdminSessionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	ctx := c.Request().Context()
	sess, err := s.adminSessions.StartSession(ctx, operator.ID, req.TenantID, req.Reason, req.DurationMinutes)
	if err != nil {
		return helpers.HTTPError(err)
	}
	view, err := s.adminSessions.GetSession(ctx, sess.ID)
	if err != nil {
		return helpers.HTTPError(err)
	}
	return c.JSON(http.StatusCreated, view)
}

// listAdminSessions lists the caller's sessions unless operator_id or all=true is given.
func (s *Server) listAdminSessions(c echo.Context) error {
	operatorID, err := helpers.ParseOptionalUUIDQuery(c, "operator_id")
	if err != nil {
		return err
	}
	var activeOnly, all bool
	if err := echo.QueryParamsBinder(c).Bool("active", &activeOnly).Bool("all", &all).BindError(); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid query parameters")
	}
	if operatorID == nil && !all {
		u, err := helpers.GetCurrentUserFromContext(c)
		if err != nil {
			return err
		}
		operatorID = &u.ID
	}
	list, err := s.adminSessions.ListSessions(c.Request().Context(), operatorID, activeOnly)
	if err != nil {
		return helpers.HTTPError(err)
	}
	return c.JSON(http.StatusOK, map[string]any{"sessions": list, "allowed_durations": s.adminSessions.AllowedDurations()})
}

func (s *Server) getAdminSession(c echo.Context) error {
	id, err := helpers.ParseUUIDParam(c, "id")
	if err != nil {
		return err
	}
	view, err := s.adminSessions.GetSession(c.Request().Context(), id)
	if err != nil {
		return helpers.HTTPError(err)
	}
	return c.JSON(http.StatusOK, view)
}
