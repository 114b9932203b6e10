package httpserver

import (
	"github.com/workshopops/accesscontrol/internal/core/domain/permission"
)

func (s *Server) setupRoutes() {
	s.echo.GET("/health", s.healthCheck)
	s.echo.GET("/metrics", s.metricsEndpoint)

	api := s.echo.Group("/api/v1")

	protected := api.Group("")
	protected.Use(s.middleware.JWT.RequireJWT())
	protected.Use(s.middleware.AdminSession.Attribute())
	protected.Use(s.middleware.Perm.Scope())
	protected.Use(s.middleware.RateLimit.Handler())

	perm := s.middleware.Perm

	auth := protected.Group("/auth")
	auth.POST("/session", s.startSession)
	auth.POST("/logout", s.logout)

	// Platform routes go through the page map so internal-only pages stay closed to
	// tenant callers whatever their profile grants.
	workshops := protected.Group("/workshops", perm.RequirePage(permission.PageTenants))
	workshops.GET("", s.listWorkshops)
	workshops.POST("", s.createWorkshop, perm.RequirePermission(permission.PlatformAdmin))
	workshops.GET("/:id", s.getWorkshop)

	acc := protected.Group("/access")
	acc.GET("/me", s.getOwnPermissions)
	acc.GET("/pages/:page", s.checkPage)
	diagnostics := perm.RequirePage(permission.PagePermissionDiagnostics)
	acc.GET("/diagnostics", s.diagnose, diagnostics)
	acc.POST("/coverage", s.checkCoverage, diagnostics)
	acc.GET("/gaps", s.listGaps, diagnostics)

	jobRoles := protected.Group("/job-roles")
	jobRoles.GET("", s.listJobRoles)
	jobRoles.GET("/:role", s.getJobRole)

	profiles := protected.Group("/profiles", perm.RequirePage(permission.PageProfiles))
	profiles.GET("", s.listProfiles)
	profiles.POST("", s.createProfile)
	profiles.POST("/from-job-role", s.createProfileFromJobRole)
	profiles.GET("/:id", s.getProfile)
	profiles.PUT("/:id/permissions", s.updateProfilePermissions)

	customRoles := protected.Group("/custom-roles", perm.RequirePage(permission.PageProfiles))
	customRoles.GET("", s.listCustomRoles)
	customRoles.POST("", s.createCustomRole)

	approve := perm.RequirePage(permission.PageUserApprovals)
	employees := protected.Group("/employees")
	employees.POST("", s.inviteEmployee, approve)
	employees.GET("/pending", s.listPendingEmployees, approve)
	employees.POST("/:id/register", s.registerEmployee)
	employees.POST("/:id/approve", s.approveEmployee, approve)
	employees.POST("/:id/reject", s.rejectEmployee, approve)
	employees.POST("/:id/block", s.blockEmployee, approve)
	employees.POST("/:id/deactivate", s.deactivateEmployee, approve)
	employees.POST("/:id/reactivate", s.reactivateEmployee, approve)

	sessions := protected.Group("/admin/sessions", perm.RequirePage(permission.PageAdminSessions))
	sessions.POST("", s.startAdminSession)
	sessions.GET("", s.listAdminSessions)
	sessions.GET("/:id", s.getAdminSession)

	auditGroup := protected.Group("/audit/events")
	auditLog := perm.RequirePage(permission.PageAuditLog)
	auditGroup.GET("", s.getAuditEvents, auditLog)
	auditGroup.GET("/export", s.exportAuditEvents, auditLog)
	auditGroup.POST("", s.recordAuditEvent)
}
