package services

import (
	"context"
	"crypto/sha256"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	config "github.com/workshopops/accesscontrol/configs"
	"github.com/workshopops/accesscontrol/internal/core/domain/auth"
	"github.com/workshopops/accesscontrol/internal/core/ports"
)

// AuthService verifies bearer tokens minted by the hosted identity provider and tracks
// logout revocations.
type AuthService struct {
	revocations ports.TokenRevocationRepository
	cfg         *config.AuthConfig
	logger      *logrus.Logger
}

func NewAuthService(revocations ports.TokenRevocationRepository, cfg *config.AuthConfig, logger *logrus.Logger) ports.AuthService {
	return &AuthService{revocations: revocations, cfg: cfg, logger: logger}
}

func (s *AuthService) TokenHash(token string) string {
	hasher := sha256.New()
	hasher.Write([]byte(token))
	return fmt.Sprintf("%x", hasher.Sum(nil))
}

func (s *AuthService) VerifyToken(ctx context.Context, tokenString string) (*auth.Claims, error) {
	opts := []jwt.ParserOption{jwt.WithLeeway(s.cfg.Leeway), jwt.WithExpirationRequired()}
	if s.cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.cfg.Issuer))
	}
	token, err := jwt.ParseWithClaims(tokenString, &auth.Claims{}, func(token *jwt.Token) (interface{}, error) {
		// Ensure the token's signing method is HMAC (prevent alg confusion)
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.cfg.JWTSecret), nil
	}, opts...)
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	claims, ok := token.Claims.(*auth.Claims)
	if !ok {
		return nil, fmt.Errorf("invalid token claims")
	}
	if claims.UserID == uuid.Nil {
		id, err := uuid.Parse(claims.Subject)
		if err != nil {
			return nil, fmt.Errorf("token has no identity")
		}
		claims.UserID = id
	}

	revoked, err := s.revocations.IsRevoked(ctx, s.TokenHash(tokenString))
	if err != nil {
		return nil, fmt.Errorf("failed to check token revocation: %w", err)
	}
	if revoked {
		return nil, fmt.Errorf("token has been revoked")
	}
	return claims, nil
}

// Revoke keeps the token hash until the token would have expired anyway.
func (s *AuthService) Revoke(ctx context.Context, token string, claims *auth.Claims) error {
	expiresAt := time.Now().Add(s.cfg.RevocationTTL)
	if claims != nil && claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Add(s.cfg.Leeway)
	}
	hash := s.TokenHash(token)
	if err := s.revocations.Revoke(ctx, hash, expiresAt); err != nil {
		if s.logger != nil {
			s.logger.WithFields(logrus.Fields{"token_hash": hash}).WithError(err).Error("failed to revoke token")
		}
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}
