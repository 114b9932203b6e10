package middleware

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/workshopops/accesscontrol/internal/core/ports"
)

// MiddlewareCollection holds all middleware instances
type MiddlewareCollection struct {
	JWT          *JWTMiddleware
	Logging      *LoggingMiddleware
	Perm         *PermMiddleware
	AdminSession *AdminSessionMiddleware
	RateLimit    *RateLimitMiddleware
	Metrics      *MetricsMiddleware
}

// NewMiddlewareCollection creates a new collection of all middleware
func NewMiddlewareCollection(
	authService ports.AuthService,
	userService ports.UserService,
	resolution ports.ResolutionService,
	sessions ports.AdminSessionService,
	rateLimiterService ports.RateLimiterService,
	logger *logrus.Logger,
	requestsTotal *prometheus.CounterVec,
	requestDuration *prometheus.HistogramVec,
) *MiddlewareCollection {
	return &MiddlewareCollection{
		JWT:          NewJWTMiddleware(authService, userService, logger),
		Logging:      NewLoggingMiddleware(logger),
		Perm:         NewPermMiddleware(resolution, logger),
		AdminSession: NewAdminSessionMiddleware(sessions, logger),
		RateLimit:    NewRateLimitMiddleware(rateLimiterService, logger),
		Metrics:      NewMetricsMiddleware(requestsTotal, requestDuration),
	}
}
