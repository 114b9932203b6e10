package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/workshopops/accesscontrol/internal/core/domain/user"
	"github.com/workshopops/accesscontrol/internal/core/ports"
)

type UserService struct {
	repo   ports.UserRepository
	logger *logrus.Logger
}

func NewUserService(repo ports.UserRepository, logger *logrus.Logger) ports.UserService {
	return &UserService{repo: repo, logger: logger}
}

func (s *UserService) GetUser(ctx context.Context, id uuid.UUID) (*user.User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return nil, ports.NewNotFoundError("identity %s not found", id)
		}
		return nil, fmt.Errorf("failed to load identity: %w", err)
	}
	return u, nil
}

// EnsureUser creates a plain member identity the first time a verified token is seen.
// Roles, internal flags and profiles are assigned by administrative actions only.
func (s *UserService) EnsureUser(ctx context.Context, id uuid.UUID, email string) (*user.User, error) {
	if id == uuid.Nil {
		return nil, ports.NewValidationError("identity id is required")
	}
	u, err := s.repo.GetByID(ctx, id)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, ports.ErrNotFound) {
		return nil, fmt.Errorf("failed to load identity: %w", err)
	}

	now := time.Now().UTC()
	u = &user.User{
		ID:        id,
		Email:     strings.ToLower(strings.TrimSpace(email)),
		Role:      user.RoleMember,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		// a concurrent first request may have created it
		if existing, gerr := s.repo.GetByID(ctx, id); gerr == nil {
			return existing, nil
		}
		return nil, fmt.Errorf("failed to create identity: %w", err)
	}
	if s.logger != nil {
		s.logger.WithFields(logrus.Fields{"user_id": id}).Info("identity created on first authentication")
	}
	return u, nil
}
