package helpers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/workshopops/accesscontrol/internal/core/domain/auth"
	"github.com/workshopops/accesscontrol/internal/core/domain/user"
	"github.com/workshopops/accesscontrol/internal/core/ports"
)

// AdminSessionHeader names the administrative session a request acts under.
const AdminSessionHeader = "X-Admin-Session"

func GetJWTTokenFromContext(c echo.Context) (string, error) {
	authHeader := c.Request().Header.Get("Authorization")
	if authHeader == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
	}
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header format")
	}
	token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	if token == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "empty token")
	}
	return token, nil
}

// GetCurrentUserFromContext returns the acting identity set by the JWT middleware.
func GetCurrentUserFromContext(c echo.Context) (*user.User, error) {
	u, ok := GetCurrentUserRaw(c)
	if !ok || u == nil {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "invalid user context")
	}
	return u, nil
}

func GetClaimsFromContext(c echo.Context) (*auth.Claims, error) {
	cl, ok := GetClaimsRaw(c)
	if !ok || cl == nil {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "invalid token context")
	}
	return cl, nil
}

// ParseUUIDParam reads a path parameter as a UUID.
func ParseUUIDParam(c echo.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return id, nil
}

// ParseOptionalUUIDQuery reads a query parameter as a UUID; empty means nil.
func ParseOptionalUUIDQuery(c echo.Context, name string) (*uuid.UUID, error) {
	raw := strings.TrimSpace(c.QueryParam(name))
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return &id, nil
}

// HTTPError maps a service error onto an echo error by its access-control code.
func HTTPError(err error) error {
	if err == nil {
		return nil
	}
	switch ports.ErrorCode(err) {
	case ports.ACCodeValidation:
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case ports.ACCodeForbidden:
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	case ports.ACCodeNotFound:
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case ports.ACCodeStateConflict:
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
}
