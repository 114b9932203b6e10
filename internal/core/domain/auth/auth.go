package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims are the fields this service reads from tokens issued by the hosted identity provider.
type Claims struct {
	UserID uuid.UUID `json:"user_id"`
	Email  string    `json:"email"`

	jwt.RegisteredClaims
}
