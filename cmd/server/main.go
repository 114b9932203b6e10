package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	config "github.com/workshopops/accesscontrol/configs"
	"github.com/workshopops/accesscontrol/internal/application/services"
	"github.com/workshopops/accesscontrol/internal/core/ports"
	"github.com/workshopops/accesscontrol/internal/infrastructure/db"
	"github.com/workshopops/accesscontrol/internal/infrastructure/health"
	"github.com/workshopops/accesscontrol/internal/infrastructure/httpserver"
	"github.com/workshopops/accesscontrol/internal/infrastructure/memory"
	"github.com/workshopops/accesscontrol/internal/infrastructure/redis"
	"github.com/workshopops/accesscontrol/internal/infrastructure/repositories"
)

// stores are the repositories chosen by STORE_DRIVER.
type stores struct {
	users         ports.UserRepository
	employees     ports.EmployeeRepository
	profiles      ports.ProfileRepository
	customRoles   ports.CustomRoleRepository
	tenants       ports.TenantRepository
	adminSessions ports.AdminSessionRepository
	audit         ports.AuditRepository
	uow           ports.UnitOfWork
	checkers      []ports.HealthChecker
	close         func()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	logger := newLogger(&cfg.Log)
	logger.WithFields(logrus.Fields{"store": cfg.Store.Driver, "redis": cfg.Redis.Enabled}).Info("Starting access control service...")

	st, err := openStores(cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to open stores")
	}
	defer st.close()

	revocations := ports.TokenRevocationRepository(memory.NewRevocationList())
	rateCounter := ports.RateLimitRepository(memory.NewRateCounter())
	tenantRepo := st.tenants
	if cfg.Redis.Enabled {
		redisClient, err := redis.NewRedisClient(&cfg.Redis)
		if err != nil {
			logger.WithError(err).Fatal("Failed to connect to Redis")
		}
		defer redisClient.Close()
		logger.Info("Connected to Redis successfully")

		revocations = repositories.NewTokenRevocationRedisRepository(redisClient, logger)
		rateCounter = repositories.NewRateLimitRedisRepository(redisClient)
		tenantRepo = repositories.NewCachingTenantRepository(st.tenants, redis.NewCache(redisClient, ""), cfg.Redis.CacheTTL)
		st.checkers = append(st.checkers, health.NewRedisHealthChecker(redisClient))
	}

	auditService := services.NewAuditService(st.audit, &services.AuditConfig{ExportLimit: cfg.Audit.ExportLimit, UnitOfWork: st.uow}, logger)
	userService := services.NewUserService(st.users, logger)
	authService := services.NewAuthService(revocations, &cfg.Auth, logger)
	tenantService := services.NewTenantService(tenantRepo, logger)
	resolutionService := services.NewResolutionService(st.users, st.employees, st.profiles, st.customRoles, nil, logger)
	onboardingService := services.NewOnboardingService(st.uow, st.employees, auditService, logger)
	profileService := services.NewProfileService(st.uow, st.profiles, st.customRoles, auditService, logger)
	adminSessionService := services.NewAdminSessionService(st.uow, st.adminSessions, st.users, tenantRepo, auditService,
		&services.AdminSessionConfig{AllowedDurations: cfg.AdminSession.AllowedDurations}, logger)
	rateLimiterService := services.NewRateLimiterService(rateCounter, &services.RateLimiterConfig{
		DefaultRequestsPerMinute: cfg.RateLimit.DefaultRequestsPerMinute,
		BurstMultiplier:          cfg.RateLimit.BurstMultiplier,
		Window:                   cfg.RateLimit.Window,
		KeyPrefix:                cfg.RateLimit.KeyPrefix,
		RouteLimits:              cfg.RateLimit.RouteLimits,
	}, logger)

	serverConfig := &httpserver.ServerConfig{
		Host:           cfg.Server.Host,
		Port:           cfg.Server.Port,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		TLSCertFile:    cfg.Server.TLSCertFile,
		TLSKeyFile:     cfg.Server.TLSKeyFile,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Environment:    cfg.Server.Environment,
	}

	server := httpserver.NewServer(serverConfig, logger, httpserver.ServerDeps{
		UserService:         userService,
		AuthService:         authService,
		TenantService:       tenantService,
		AuditService:        auditService,
		ResolutionService:   resolutionService,
		OnboardingService:   onboardingService,
		ProfileService:      profileService,
		AdminSessionService: adminSessionService,
		RateLimiterService:  rateLimiterService,
		HealthCheckers:      st.checkers,
	})

	go func() {
		if err := server.Start(); err != nil {
			logger.WithError(err).Fatal("Failed to start server")
		}
	}()

	logger.Infof("Server started on %s:%s", cfg.Server.Host, cfg.Server.Port)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
	}

	logger.Info("Server exited")
}

func newLogger(cfg *config.LogConfig) *logrus.Logger {
	logger := logrus.New()
	if cfg.Format == "text" {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		logger.SetLevel(logrus.InfoLevel)
	} else {
		logger.SetLevel(level)
	}
	return logger
}

func openStores(cfg *config.Config, logger *logrus.Logger) (*stores, error) {
	if cfg.Store.Driver == config.StoreMemory {
		logger.Warn("Using in-memory store; data is lost on restart")
		m := memory.NewStore()
		return &stores{
			users:         m.Users(),
			employees:     m.Employees(),
			profiles:      m.Profiles(),
			customRoles:   m.CustomRoles(),
			tenants:       m.Tenants(),
			adminSessions: m.AdminSessions(),
			audit:         m.Audit(),
			uow:           m.UnitOfWork(),
			close:         func() {},
		}, nil
	}

	database, err := db.NewDatabaseWithConfig(&cfg.Database)
	if err != nil {
		return nil, err
	}
	logger.Info("Connected to database successfully")

	if err := database.Migrate(cfg.Store.MigrationsPath); err != nil {
		_ = database.Close()
		return nil, err
	}

	return &stores{
		users:         repositories.NewUserRepository(database, logger),
		employees:     repositories.NewEmployeeRepository(database, logger),
		profiles:      repositories.NewProfileRepository(database, logger),
		customRoles:   repositories.NewCustomRoleRepository(database, logger),
		tenants:       repositories.NewTenantRepository(database, logger),
		adminSessions: repositories.NewAdminSessionRepository(database, logger),
		audit:         repositories.NewAuditRepository(database, logger),
		uow:           repositories.NewSQLUnitOfWork(database, logger),
		checkers:      []ports.HealthChecker{health.NewDBHealthChecker(database)},
		close:         func() { _ = database.Close() },
	}, nil
}
