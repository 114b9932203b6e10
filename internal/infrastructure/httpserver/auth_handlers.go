package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/workshopops/accesscontrol/internal/core/domain/audit"
	"github.com/workshopops/accesscontrol/internal/core/ports"
	"github.com/workshopops/accesscontrol/internal/infrastructure/httpserver/helpers"
)

// startSession records a login for the verified caller. The identity itself is created by
// the JWT middleware on first sight.
func (s *Server) startSession(c echo.Context) error {
	u, err := helpers.GetCurrentUserFromContext(c)
	if err != nil {
		return err
	}
	if _, err := s.auditSvc.Record(c.Request().Context(), &ports.RecordRequest{
		Action:     audit.ActionLogin,
		EntityType: audit.EntityUser,
		EntityID:   u.ID.String(),
		Details:    map[string]any{"method": "sso"},
	}); err != nil {
		return helpers.HTTPError(err)
	}
	return c.JSON(http.StatusOK, map[string]any{"user": u})
}

func (s *Server) logout(c echo.Context) error {
	token, err := helpers.GetJWTTokenFromContext(c)
	if err != nil {
		return err
	}
	claims, err := helpers.GetClaimsFromContext(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	if err := s.authSvc.Revoke(ctx, token, claims); err != nil {
		if s.logger != nil {
			s.logger.WithField("user_id", claims.UserID).WithError(err).Error("failed to revoke token")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to logout")
	}
	if _, err := s.auditSvc.Record(ctx, &ports.RecordRequest{
		Action:     audit.ActionLogout,
		EntityType: audit.EntityUser,
		EntityID:   claims.UserID.String(),
	}); err != nil {
		return helpers.HTTPError(err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "logged out"})
}
