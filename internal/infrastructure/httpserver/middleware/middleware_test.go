package middleware_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/workshopops/accesscontrol/internal/core/domain/access"
	"github.com/workshopops/accesscontrol/internal/core/domain/adminsession"
	"github.com/workshopops/accesscontrol/internal/core/domain/audit"
	"github.com/workshopops/accesscontrol/internal/core/domain/auth"
	"github.com/workshopops/accesscontrol/internal/core/domain/permission"
	"github.com/workshopops/accesscontrol/internal/core/domain/profile"
	"github.com/workshopops/accesscontrol/internal/core/domain/user"
	"github.com/workshopops/accesscontrol/internal/core/ports"
	"github.com/workshopops/accesscontrol/internal/infrastructure/httpserver/helpers"
	"github.com/workshopops/accesscontrol/internal/infrastructure/httpserver/middleware"
	"github.com/workshopops/accesscontrol/internal/mocks"
)

func ok(c echo.Context) error { return c.NoContent(http.StatusOK) }

func newContext(method string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, "/", nil)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func requireHTTPCode(t *testing.T, err error, code int) {
	t.Helper()
	require.Error(t, err)
	he, isHTTP := err.(*echo.HTTPError)
	require.True(t, isHTTP, "expected *echo.HTTPError, got %T", err)
	require.Equal(t, code, he.Code)
}

func TestJWTMiddleware_MissingTokenReturns401(t *testing.T) {
	m := middleware.NewJWTMiddleware(&mocks.AuthServiceMock{}, &mocks.UserServiceMock{}, logrus.New())
	c, _ := newContext(http.MethodGet)
	requireHTTPCode(t, m.RequireJWT()(ok)(c), http.StatusUnauthorized)
}

func TestJWTMiddleware_InvalidTokenReturns401(t *testing.T) {
	authMock := &mocks.AuthServiceMock{VerifyTokenFn: func(ctx context.Context, token string) (*auth.Claims, error) {
		return nil, errors.New("bad signature")
	}}
	m := middleware.NewJWTMiddleware(authMock, &mocks.UserServiceMock{}, logrus.New())
	c, _ := newContext(http.MethodGet)
	c.Request().Header.Set("Authorization", "Bearer invalid")
	requireHTTPCode(t, m.RequireJWT()(ok)(c), http.StatusUnauthorized)
}

func TestJWTMiddleware_SetsIdentityAndActor(t *testing.T) {
	id := uuid.New()
	authMock := &mocks.AuthServiceMock{VerifyTokenFn: func(ctx context.Context, token string) (*auth.Claims, error) {
		require.Equal(t, "good", token)
		return &auth.Claims{UserID: id, Email: "a@o.com"}, nil
	}}
	m := middleware.NewJWTMiddleware(authMock, &mocks.UserServiceMock{}, nil)
	c, rec := newContext(http.MethodGet)
	c.Request().Header.Set("Authorization", "Bearer good")

	err := m.RequireJWT()(func(c echo.Context) error {
		u, err := helpers.GetCurrentUserFromContext(c)
		require.NoError(t, err)
		require.Equal(t, id, u.ID)
		claims, err := helpers.GetClaimsFromContext(c)
		require.NoError(t, err)
		require.Equal(t, "a@o.com", claims.Email)
		actor, found := audit.ActorFromContext(c.Request().Context())
		require.True(t, found)
		require.Equal(t, id, actor.ID)
		return c.NoContent(http.StatusNoContent)
	})(c)
	require.NoError(t, err)
	require.Equal(t, http.StatusNoContent, rec.Code)
}

func TestJWTMiddleware_IdentityStoreFailureReturns500(t *testing.T) {
	authMock := &mocks.AuthServiceMock{VerifyTokenFn: func(ctx context.Context, token string) (*auth.Claims, error) {
		return &auth.Claims{UserID: uuid.New()}, nil
	}}
	users := &mocks.UserServiceMock{EnsureUserFn: func(ctx context.Context, id uuid.UUID, email string) (*user.User, error) {
		return nil, errors.New("db down")
	}}
	m := middleware.NewJWTMiddleware(authMock, users, nil)
	c, _ := newContext(http.MethodGet)
	c.Request().Header.Set("Authorization", "Bearer x")
	requireHTTPCode(t, m.RequireJWT()(ok)(c), http.StatusInternalServerError)
}

func memberWith(perms ...permission.Permission) (*user.User, *access.PermissionSet) {
	p := &profile.Profile{ID: uuid.New(), Name: "p", Type: profile.TypeExternal, Roles: perms}
	u := &user.User{ID: uuid.New(), Role: user.RoleMember, ProfileID: &p.ID}
	return u, access.Resolve(access.Inputs{User: u, Profile: p})
}

func TestPermMiddleware_Returns401WithoutIdentity(t *testing.T) {
	m := middleware.NewPermMiddleware(&mocks.ResolutionServiceMock{}, nil)
	c, _ := newContext(http.MethodGet)
	requireHTTPCode(t, m.RequirePermission(permission.UsersApprove)(ok)(c), http.StatusUnauthorized)
}

func TestPermMiddleware_Returns403WhenMissingPermission(t *testing.T) {
	u, ps := memberWith("patio.view")
	m := middleware.NewPermMiddleware(&mocks.ResolutionServiceMock{ResolvePermissionSetFn: func(ctx context.Context, identity *user.User) (*access.PermissionSet, error) {
		return ps, nil
	}}, logrus.New())
	c, _ := newContext(http.MethodGet)
	helpers.SetCurrentUser(c, u)
	requireHTTPCode(t, m.RequirePermission(permission.UsersApprove)(ok)(c), http.StatusForbidden)
}

func TestPermMiddleware_AllowsAndResolvesOnce(t *testing.T) {
	u, ps := memberWith(permission.UsersApprove)
	calls := 0
	m := middleware.NewPermMiddleware(&mocks.ResolutionServiceMock{ResolvePermissionSetFn: func(ctx context.Context, identity *user.User) (*access.PermissionSet, error) {
		calls++
		return ps, nil
	}}, nil)
	c, rec := newContext(http.MethodGet)
	helpers.SetCurrentUser(c, u)

	chain := m.RequireAnyPermission(permission.ProfilesManage, permission.UsersApprove)(m.RequirePermission(permission.UsersApprove)(ok))
	require.NoError(t, chain(c))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 1, calls)
}

func TestPermMiddleware_ResolutionFailureReturns500(t *testing.T) {
	u, _ := memberWith()
	m := middleware.NewPermMiddleware(&mocks.ResolutionServiceMock{ResolvePermissionSetFn: func(ctx context.Context, identity *user.User) (*access.PermissionSet, error) {
		return nil, errors.New("timeout")
	}}, nil)
	c, _ := newContext(http.MethodGet)
	helpers.SetCurrentUser(c, u)
	requireHTTPCode(t, m.RequirePermission(permission.UsersApprove)(ok)(c), http.StatusInternalServerError)
}

func TestPermMiddleware_RequirePageClosesInternalOnlyToTenantCallers(t *testing.T) {
	u, ps := memberWith(permission.PlatformAudit)
	m := middleware.NewPermMiddleware(&mocks.ResolutionServiceMock{ResolvePermissionSetFn: func(ctx context.Context, identity *user.User) (*access.PermissionSet, error) {
		return ps, nil
	}}, logrus.New())

	c, _ := newContext(http.MethodGet)
	helpers.SetCurrentUser(c, u)
	require.NoError(t, m.RequirePermission(permission.PlatformAudit)(ok)(c), "the bare permission check would let it through")

	c, _ = newContext(http.MethodGet)
	helpers.SetCurrentUser(c, u)
	requireHTTPCode(t, m.RequirePage(permission.PageAuditLog)(ok)(c), http.StatusForbidden)

	ps.IsInternal = true
	c, rec := newContext(http.MethodGet)
	helpers.SetCurrentUser(c, u)
	require.NoError(t, m.RequirePage(permission.PageAuditLog)(ok)(c))
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestPermMiddleware_ScopeCarriesLinkedWorkshop(t *testing.T) {
	u, ps := memberWith(permission.UsersApprove)
	workshopID := uuid.New()
	ps.WorkshopID = &workshopID
	m := middleware.NewPermMiddleware(&mocks.ResolutionServiceMock{ResolvePermissionSetFn: func(ctx context.Context, identity *user.User) (*access.PermissionSet, error) {
		return ps, nil
	}}, nil)
	c, _ := newContext(http.MethodPost)
	helpers.SetCurrentUser(c, u)

	err := m.Scope()(func(c echo.Context) error {
		sc, found := access.ScopeFromContext(c.Request().Context())
		require.True(t, found)
		require.True(t, sc.Tenant())
		require.Equal(t, workshopID, *sc.WorkshopID)
		return nil
	})(c)
	require.NoError(t, err)
}

func TestAdminSessionMiddleware_PassesWithoutHeader(t *testing.T) {
	m := middleware.NewAdminSessionMiddleware(&mocks.AdminSessionServiceMock{AttributeFn: func(ctx context.Context, sid, oid uuid.UUID) (context.Context, *adminsession.Session, error) {
		t.Fatal("should not be called without the header")
		return ctx, nil, nil
	}}, nil)
	c, rec := newContext(http.MethodGet)
	require.NoError(t, m.Attribute()(ok)(c))
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestAdminSessionMiddleware_Rejections(t *testing.T) {
	cases := []struct {
		name   string
		header string
		err    error
		code   int
	}{
		{"malformed id", "not-a-uuid", nil, http.StatusBadRequest},
		{"unknown session", uuid.NewString(), ports.NewNotFoundError("admin session not found"), http.StatusForbidden},
		{"expired session", uuid.NewString(), ports.NewForbiddenError("admin session expired"), http.StatusForbidden},
		{"store failure", uuid.NewString(), errors.New("db down"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := middleware.NewAdminSessionMiddleware(&mocks.AdminSessionServiceMock{AttributeFn: func(ctx context.Context, sid, oid uuid.UUID) (context.Context, *adminsession.Session, error) {
				return ctx, nil, tc.err
			}}, logrus.New())
			c, _ := newContext(http.MethodPost)
			c.Request().Header.Set(helpers.AdminSessionHeader, tc.header)
			helpers.SetCurrentUser(c, &user.User{ID: uuid.New()})
			requireHTTPCode(t, m.Attribute()(ok)(c), tc.code)
		})
	}
}

func TestAdminSessionMiddleware_AttributesRequest(t *testing.T) {
	op := &user.User{ID: uuid.New()}
	sess := adminsession.New(op.ID, uuid.New(), "suporte", 15, time.Now())
	m := middleware.NewAdminSessionMiddleware(&mocks.AdminSessionServiceMock{AttributeFn: func(ctx context.Context, sid, oid uuid.UUID) (context.Context, *adminsession.Session, error) {
		require.Equal(t, sess.ID, sid)
		require.Equal(t, op.ID, oid)
		return audit.WithAttribution(ctx, audit.Attribution{OperatorID: oid, TenantID: sess.TenantID, SessionID: sid}), sess, nil
	}}, nil)
	c, _ := newContext(http.MethodPost)
	c.Request().Header.Set(helpers.AdminSessionHeader, sess.ID.String())
	helpers.SetCurrentUser(c, op)

	err := m.Attribute()(func(c echo.Context) error {
		attr, found := audit.AttributionFromContext(c.Request().Context())
		require.True(t, found)
		require.Equal(t, sess.TenantID, attr.TenantID)
		got, found := helpers.GetAdminSessionRaw(c)
		require.True(t, found)
		require.Equal(t, sess.ID, got.ID)
		return nil
	})(c)
	require.NoError(t, err)
}

func TestRateLimitMiddleware(t *testing.T) {
	calls := 0
	var routes []string
	limiter := &mocks.RateLimiterServiceMock{AllowFn: func(ctx context.Context, id uuid.UUID, route string) (bool, int, int, time.Time, error) {
		calls++
		routes = append(routes, route)
		return calls <= 1, 0, 1, time.Unix(1700000000, 0), nil
	}}
	m := middleware.NewRateLimitMiddleware(limiter, nil)
	u := &user.User{ID: uuid.New()}

	get, _ := newContext(http.MethodGet)
	helpers.SetCurrentUser(get, u)
	require.NoError(t, m.Handler()(ok)(get))
	require.Zero(t, calls, "reads are not limited")

	first, rec := newContext(http.MethodPost)
	first.SetPath("/api/v1/employees/:id/approve")
	helpers.SetCurrentUser(first, u)
	require.NoError(t, m.Handler()(ok)(first))
	require.Equal(t, "1", rec.Header().Get("X-RateLimit-Limit"))
	require.Equal(t, "1700000000", rec.Header().Get("X-RateLimit-Reset"))

	second, _ := newContext(http.MethodPost)
	second.SetPath("/api/v1/employees/:id/approve")
	helpers.SetCurrentUser(second, u)
	requireHTTPCode(t, m.Handler()(ok)(second), http.StatusTooManyRequests)
	require.Equal(t, []string{"POST /api/v1/employees/:id/approve", "POST /api/v1/employees/:id/approve"}, routes,
		"routes are keyed by pattern, not by concrete path")
}

func TestRateLimitMiddleware_FailsOpen(t *testing.T) {
	limiter := &mocks.RateLimiterServiceMock{AllowFn: func(ctx context.Context, id uuid.UUID, route string) (bool, int, int, time.Time, error) {
		return false, 0, 0, time.Time{}, errors.New("redis down")
	}}
	m := middleware.NewRateLimitMiddleware(limiter, nil)
	c, rec := newContext(http.MethodDelete)
	helpers.SetCurrentUser(c, &user.User{ID: uuid.New()})
	require.NoError(t, m.Handler()(ok)(c))
	require.Equal(t, http.StatusOK, rec.Code)
}
