package httpserver

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/workshopops/accesscontrol/internal/core/ports"
	customMiddleware "github.com/workshopops/accesscontrol/internal/infrastructure/httpserver/middleware"
)

type ServerConfig struct {
	Host           string
	Port           string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	TLSCertFile    string
	TLSKeyFile     string
	AllowedOrigins []string
	Environment    string
}

type ServerDeps struct {
	UserService         ports.UserService
	AuthService         ports.AuthService
	TenantService       ports.TenantService
	AuditService        ports.AuditService
	ResolutionService   ports.ResolutionService
	OnboardingService   ports.OnboardingService
	ProfileService      ports.ProfileService
	AdminSessionService ports.AdminSessionService
	RateLimiterService  ports.RateLimiterService
	HealthCheckers      []ports.HealthChecker
}

type Server struct {
	echo           *echo.Echo
	config         *ServerConfig
	logger         *logrus.Logger
	userService    ports.UserService
	authSvc        ports.AuthService
	tenantService  ports.TenantService
	auditSvc       ports.AuditService
	resolution     ports.ResolutionService
	onboarding     ports.OnboardingService
	profiles       ports.ProfileService
	adminSessions  ports.AdminSessionService
	middleware     *customMiddleware.MiddlewareCollection
	healthCheckers []ports.HealthChecker
}

func NewServer(serverConfig *ServerConfig, logger *logrus.Logger, deps ServerDeps) *Server {
	e := echo.New()
	e.HideBanner = true

	server := &Server{
		echo:           e,
		config:         serverConfig,
		logger:         logger,
		userService:    deps.UserService,
		authSvc:        deps.AuthService,
		tenantService:  deps.TenantService,
		auditSvc:       deps.AuditService,
		resolution:     deps.ResolutionService,
		onboarding:     deps.OnboardingService,
		profiles:       deps.ProfileService,
		adminSessions:  deps.AdminSessionService,
		healthCheckers: deps.HealthCheckers,
		middleware: customMiddleware.NewMiddlewareCollection(
			deps.AuthService,
			deps.UserService,
			deps.ResolutionService,
			deps.AdminSessionService,
			deps.RateLimiterService,
			logger,
			GetRequestsTotal(),
			GetRequestDuration(),
		),
	}

	server.setupMiddleware()
	server.setupRoutes()

	return server
}
