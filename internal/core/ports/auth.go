package ports

import (
	"context"

	"github.com/workshopops/accesscontrol/internal/core/domain/auth"
)

// AuthService verifies tokens issued by the hosted identity provider. It never issues tokens.
type AuthService interface {
	VerifyToken(ctx context.Context, token string) (*auth.Claims, error)
	// Revoke rejects the token on every later verification until it expires.
	Revoke(ctx context.Context, token string, claims *auth.Claims) error
	TokenHash(token string) string
}
