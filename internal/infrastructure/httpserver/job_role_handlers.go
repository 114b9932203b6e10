package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/workshopops/accesscontrol/internal/core/domain/jobrole"
)

func (s *Server) listJobRoles(c echo.Context) error {
	keys := jobrole.ListJobRoles()
	bundles := make([]jobrole.Bundle, 0, len(keys))
	for _, k := range keys {
		bundles = append(bundles, s.profiles.JobRoleDefaults(string(k)))
	}
	return c.JSON(http.StatusOK, map[string]any{"job_roles": bundles})
}

// getJobRole falls back to the catch-all bundle for unknown keys, like the registry does.
func (s *Server) getJobRole(c echo.Context) error {
	role := c.Param("role")
	return c.JSON(http.StatusOK, map[string]any{
		"known":    jobrole.IsKnown(role),
		"defaults": s.profiles.JobRoleDefaults(role),
	})
}
