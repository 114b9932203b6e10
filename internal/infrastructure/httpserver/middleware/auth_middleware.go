package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/workshopops/accesscontrol/internal/core/domain/audit"
	"github.com/workshopops/accesscontrol/internal/core/ports"
	"github.com/workshopops/accesscontrol/internal/infrastructure/httpserver/helpers"
)

type JWTMiddleware struct {
	authService ports.AuthService
	userService ports.UserService
	logger      *logrus.Logger
}

func NewJWTMiddleware(authService ports.AuthService, userService ports.UserService, logger *logrus.Logger) *JWTMiddleware {
	return &JWTMiddleware{authService: authService, userService: userService, logger: logger}
}

// RequireJWT verifies the bearer token, loads the identity and puts the audit actor on
// the request context.
func (m *JWTMiddleware) RequireJWT() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tokenString, err := helpers.GetJWTTokenFromContext(c)
			if err != nil {
				return err
			}

			ctx := c.Request().Context()
			claims, err := m.authService.VerifyToken(ctx, tokenString)
			if err != nil {
				if m.logger != nil {
					m.logger.WithFields(logrus.Fields{"ip": c.RealIP(), "path": c.Request().URL.Path}).WithError(err).Warn("JWT validation failed")
				}
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			u, err := m.userService.EnsureUser(ctx, claims.UserID, claims.Email)
			if err != nil {
				if m.logger != nil {
					m.logger.WithFields(logrus.Fields{"user_id": claims.UserID}).WithError(err).Error("failed to load identity")
				}
				return echo.NewHTTPError(http.StatusInternalServerError, "failed to load identity")
			}

			helpers.SetClaims(c, claims)
			helpers.SetCurrentUser(c, u)

			actorCtx := audit.WithActor(ctx, audit.Actor{
				ID:        u.ID,
				Email:     u.Email,
				IPAddress: c.RealIP(),
				UserAgent: c.Request().UserAgent(),
			})
			c.SetRequest(c.Request().WithContext(actorCtx))

			if m.logger != nil {
				m.logger.WithFields(logrus.Fields{"user_id": u.ID, "role": u.Role}).Debug("jwt validated and user context set")
			}
			return next(c)
		}
	}
}
