package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/workshopops/accesscontrol/internal/infrastructure/httpserver/helpers"
)

type createWorkshopRequest struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

func (s *Server) listWorkshops(c echo.Context) error {
	var limit, offset int
	if err := echo.QueryParamsBinder(c).Int("limit", &limit).Int("offset", &offset).BindError(); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid paging parameters")
	}
	list, total, err := s.tenantService.ListTenants(c.Request().Context(), limit, offset)
	if err != nil {
		return helpers.HTTPError(err)
	}
	return c.JSON(http.StatusOK, map[string]any{"workshops": list, "total": total})
}

func (s *Server) createWorkshop(c echo.Context) error {
	var req createWorkshopRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	t, err := s.tenantService.CreateTenant(c.Request().Context(), req.Name, req.Slug)
	if err != nil {
		return helpers.HTTPError(err)
	}
	return c.JSON(http.StatusCreated, t)
}

func (s *Server) getWorkshop(c echo.Context) error {
	id, err := helpers.ParseUUIDParam(c, "id")
	if err != nil {
		return err
	}
	t, err := s.tenantService.GetTenant(c.Request().Context(), id)
	if err != nil {
		return helpers.HTTPError(err)
	}
	return c.JSON(http.StatusOK, t)
}
