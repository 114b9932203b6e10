package middleware

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/workshopops/accesscontrol/internal/core/ports"
	"github.com/workshopops/accesscontrol/internal/infrastructure/httpserver/helpers"
)

// AdminSessionMiddleware attributes requests carrying X-Admin-Session to that session.
type AdminSessionMiddleware struct {
	sessions ports.AdminSessionService
	logger   *logrus.Logger
}

func NewAdminSessionMiddleware(sessions ports.AdminSessionService, logger *logrus.Logger) *AdminSessionMiddleware {
	return &AdminSessionMiddleware{sessions: sessions, logger: logger}
}

// Attribute re-reads the session on every request; requests without the header pass through.
func (m *AdminSessionMiddleware) Attribute() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := strings.TrimSpace(c.Request().Header.Get(helpers.AdminSessionHeader))
			if raw == "" {
				return next(c)
			}
			sessionID, err := uuid.Parse(raw)
			if err != nil {
				return echo.NewHTTPError(http.StatusBadRequest, "invalid admin session id")
			}
			u, err := helpers.GetCurrentUserFromContext(c)
			if err != nil {
				return err
			}
			ctx, s, err := m.sessions.Attribute(c.Request().Context(), sessionID, u.ID)
			if err != nil {
				if m.logger != nil {
					m.logger.WithFields(logrus.Fields{"session_id": sessionID, "operator_id": u.ID}).WithError(err).Warn("admin session rejected")
				}
				if ports.HasCode(err, ports.ACCodeNotFound) {
					return echo.NewHTTPError(http.StatusForbidden, "admin session not found")
				}
				return helpers.HTTPError(err)
			}
			helpers.SetAdminSession(c, s)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}
