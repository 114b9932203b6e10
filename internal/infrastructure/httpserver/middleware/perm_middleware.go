package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/workshopops/accesscontrol/internal/core/domain/access"
	"github.com/workshopops/accesscontrol/internal/core/domain/permission"
	"github.com/workshopops/accesscontrol/internal/core/ports"
	"github.com/workshopops/accesscontrol/internal/infrastructure/httpserver/helpers"
)

// PermMiddleware resolves the caller's permissions from current state on every request.
type PermMiddleware struct {
	resolution ports.ResolutionService
	logger     *logrus.Logger
}

func NewPermMiddleware(resolution ports.ResolutionService, logger *logrus.Logger) *PermMiddleware {
	return &PermMiddleware{resolution: resolution, logger: logger}
}

// Resolve returns the caller's set, resolving it at most once per request.
func (m *PermMiddleware) Resolve(c echo.Context) (*access.PermissionSet, error) {
	if ps, ok := helpers.GetPermissionSetRaw(c); ok && ps != nil {
		return ps, nil
	}
	u, err := helpers.GetCurrentUserFromContext(c)
	if err != nil {
		return nil, err
	}
	ps, err := m.resolution.ResolvePermissionSet(c.Request().Context(), u)
	if err != nil {
		if m.logger != nil {
			m.logger.WithFields(logrus.Fields{"user_id": u.ID}).WithError(err).Error("failed to resolve permissions")
		}
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "failed to resolve permissions")
	}
	helpers.SetPermissionSet(c, ps)
	return ps, nil
}

func (m *PermMiddleware) RequirePermission(p permission.Permission) echo.MiddlewareFunc {
	return m.RequireAnyPermission(p)
}

func (m *PermMiddleware) RequireAnyPermission(perms ...permission.Permission) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ps, err := m.Resolve(c)
			if err != nil {
				return err
			}
			if !ps.HasAny(perms...) {
				if m.logger != nil {
					m.logger.WithFields(logrus.Fields{"user_id": ps.UserID, "required": perms, "path": c.Path()}).Warn("permission denied")
				}
				return echo.NewHTTPError(http.StatusForbidden, "forbidden")
			}
			return next(c)
		}
	}
}

// RequirePage gates a route behind the page-permission map, so internal-only pages
// stay closed to tenant callers whatever their profile grants.
func (m *PermMiddleware) RequirePage(page permission.PageID) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ps, err := m.Resolve(c)
			if err != nil {
				return err
			}
			d := m.resolution.DecidePage(ps, page)
			if !d.Allowed {
				if m.logger != nil {
					m.logger.WithFields(logrus.Fields{"user_id": ps.UserID, "page": page, "reason": d.Reason, "path": c.Path()}).Warn("page access denied")
				}
				return echo.NewHTTPError(http.StatusForbidden, "forbidden")
			}
			return next(c)
		}
	}
}

// Scope stores the caller's workshop scope in the request context for the services.
func (m *PermMiddleware) Scope() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ps, err := m.Resolve(c)
			if err != nil {
				return err
			}
			ctx := access.WithScope(c.Request().Context(), access.ScopeOf(ps))
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}
