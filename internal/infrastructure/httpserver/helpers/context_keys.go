package helpers

import (
	"github.com/labstack/echo/v4"

	"github.com/workshopops/accesscontrol/internal/core/domain/access"
	"github.com/workshopops/accesscontrol/internal/core/domain/adminsession"
	"github.com/workshopops/accesscontrol/internal/core/domain/auth"
	"github.com/workshopops/accesscontrol/internal/core/domain/user"
)

type ctxKey string

const (
	keyCurrentUser   ctxKey = "current_user"
	keyClaims        ctxKey = "claims"
	keyPermissionSet ctxKey = "permission_set"
	keyAdminSession  ctxKey = "admin_session"
)

func SetCurrentUser(c echo.Context, u *user.User) { c.Set(string(keyCurrentUser), u) }
func GetCurrentUserRaw(c echo.Context) (*user.User, bool) {
	u, ok := c.Get(string(keyCurrentUser)).(*user.User)
	return u, ok
}

func SetClaims(c echo.Context, claims *auth.Claims) { c.Set(string(keyClaims), claims) }
func GetClaimsRaw(c echo.Context) (*auth.Claims, bool) {
	cl, ok := c.Get(string(keyClaims)).(*auth.Claims)
	return cl, ok
}

// SetPermissionSet stores the set resolved for this request only.
func SetPermissionSet(c echo.Context, ps *access.PermissionSet) { c.Set(string(keyPermissionSet), ps) }
func GetPermissionSetRaw(c echo.Context) (*access.PermissionSet, bool) {
	ps, ok := c.Get(string(keyPermissionSet)).(*access.PermissionSet)
	return ps, ok
}

func SetAdminSession(c echo.Context, s *adminsession.Session) { c.Set(string(keyAdminSession), s) }
func GetAdminSessionRaw(c echo.Context) (*adminsession.Session, bool) {
	s, ok := c.Get(string(keyAdminSession)).(*adminsession.Session)
	return s, ok
}
