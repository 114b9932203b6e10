package services

import (
	"context"
	"maps"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/workshopops/accesscontrol/internal/core/ports"
)

// RateLimiterService implements RateLimiter with a principal-wide policy plus optional
// per-route overrides for sensitive mutating endpoints.
type RateLimiterService struct {
	repo            ports.RateLimitRepository
	defaultLimit    int
	burstMultiplier float64
	routeLimits     map[string]int
	window          time.Duration
	keyPrefix       string
	logger          *logrus.Logger
}

// RateLimiterConfig groups configuration parameters for the rate limiter.
type RateLimiterConfig struct {
	DefaultRequestsPerMinute int
	BurstMultiplier          float64
	// RouteLimits maps "METHOD /path" to a hard per-window limit. Listed routes are
	// counted apart from the principal-wide window and get no burst allowance.
	RouteLimits map[string]int
	Window      time.Duration
	KeyPrefix   string
}

func NewRateLimiterService(repo ports.RateLimitRepository, cfg *RateLimiterConfig, logger *logrus.Logger) ports.RateLimiterService {
	// Apply defaults
	dl := 120
	bm := 2.0
	w := time.Minute
	kp := "ratelimit:principal"
	routes := map[string]int{}
	if cfg != nil {
		if cfg.DefaultRequestsPerMinute > 0 {
			dl = cfg.DefaultRequestsPerMinute
		}
		if cfg.BurstMultiplier > 0 {
			bm = cfg.BurstMultiplier
		}
		if cfg.Window > 0 {
			w = cfg.Window
		}
		if cfg.KeyPrefix != "" {
			kp = cfg.KeyPrefix
		}
		maps.Copy(routes, cfg.RouteLimits)
	}
	return &RateLimiterService{repo: repo, defaultLimit: dl, burstMultiplier: bm, routeLimits: routes, window: w, keyPrefix: kp, logger: logger}
}

// policy returns the counter prefix and the ceiling for route.
func (s *RateLimiterService) policy(route string) (prefix string, limit, ceiling int) {
	if n, ok := s.routeLimits[route]; ok && n > 0 {
		return s.keyPrefix + ":" + route, n, n
	}
	return s.keyPrefix, s.defaultLimit, int(float64(s.defaultLimit) * s.burstMultiplier)
}

func (s *RateLimiterService) Allow(ctx context.Context, principalID uuid.UUID, route string) (bool, int, int, time.Time, error) {
	prefix, limit, ceiling := s.policy(route)
	ttl := s.window * 2 // retain overlap window
	count, windowStart, err := s.repo.IncrementWindow(ctx, principalID, s.window, prefix, ttl)
	reset := windowStart.Add(s.window)
	fields := logrus.Fields{"principal_id": principalID, "route": route}
	if err != nil {
		if s.logger != nil {
			s.logger.WithFields(fields).WithError(err).Warn("rate limiter: failed to increment window; allowing request")
		}
		// fail open
		return true, ceiling, limit, reset, err
	}
	if s.logger != nil {
		fields["count"], fields["ceiling"], fields["limit"] = count, ceiling, limit
		s.logger.WithFields(fields).Debug("rate limiter window state")
	}
	if count > ceiling {
		return false, 0, limit, reset, nil
	}
	return true, ceiling - count, limit, reset, nil
}
