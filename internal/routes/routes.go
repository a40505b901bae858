// Package routes maps the HTTP surface onto handlers.
package routes

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/gridtrain/eval-api/internal/authz"
	"github.com/gridtrain/eval-api/internal/handler"
	"github.com/gridtrain/eval-api/internal/middleware"
	"github.com/gridtrain/eval-api/internal/models"
)

// Handlers bundles every HTTP handler the API exposes. Reports is nil when
// report exports are disabled.
type Handlers struct {
	Auth      *handler.AuthHandler
	Users     *handler.UserHandler
	Companies *handler.CompanyHandler
	Cycles    *handler.CycleHandler
	Events    *handler.EventHandler
	Scenarios *handler.ScenarioHandler
	Sessions  *handler.SessionHandler
	Dashboard *handler.DashboardHandler
	Reports   *handler.ReportHandler
	Metrics   *handler.MetricsHandler
}

// Deps are the cross-cutting collaborators of the route table.
type Deps struct {
	Tokens middleware.TokenValidator
	Audit  middleware.AuditWriter
	Logger *zap.Logger
}

// Register mounts operational endpoints at the root and the API under prefix.
func Register(r *gin.Engine, prefix string, h Handlers, deps Deps) {
	if prefix == "" {
		prefix = "/api"
	}

	r.GET("/health", h.Metrics.Health)
	r.GET("/ready", h.Metrics.Ready)
	r.GET("/metrics", h.Metrics.Prometheus)

	api := r.Group(prefix)
	api.Use(middleware.WithResponseMeta())

	// Public
	auth := api.Group("/auth")
	{
		auth.POST("/login", h.Auth.Login)
		auth.POST("/refresh", h.Auth.Refresh)
	}
	if h.Reports != nil {
		api.GET("/reports/download/:token",
			middleware.Audit(deps.Audit, deps.Logger, models.AuditActionDownload, string(authz.ResourceReport)),
			h.Reports.Download)
	}

	// Protected
	secured := api.Group("", middleware.JWT(deps.Tokens))
	{
		secured.GET("/auth/me", h.Auth.Me)
		secured.POST("/auth/logout", h.Auth.Logout)
		secured.POST("/auth/change-password", h.Auth.ChangePassword)

		companies := secured.Group("/companies")
		{
			companies.POST("", need(authz.ResourceCompany, authz.ActionCreate), h.Companies.Create)
			companies.GET("", need(authz.ResourceCompany, authz.ActionRead), h.Companies.List)
			companies.GET("/:id", need(authz.ResourceCompany, authz.ActionRead), h.Companies.Get)
			companies.PATCH("/:id", need(authz.ResourceCompany, authz.ActionUpdate), h.Companies.Update)
			companies.DELETE("/:id", need(authz.ResourceCompany, authz.ActionDelete), h.Companies.Delete)
		}

		users := secured.Group("/users")
		{
			users.POST("", need(authz.ResourceUser, authz.ActionCreate), h.Users.Create)
			users.GET("/company/:companyId", need(authz.ResourceUser, authz.ActionRead), h.Users.ListByCompany)
			users.GET("/:id", need(authz.ResourceUser, authz.ActionRead), h.Users.Get)
			users.PATCH("/:id", need(authz.ResourceUser, authz.ActionUpdate), h.Users.Update)
			users.DELETE("/:id", need(authz.ResourceUser, authz.ActionDelete), h.Users.Delete)
		}

		cycles := secured.Group("/cycles")
		{
			cycles.POST("", need(authz.ResourceCycle, authz.ActionCreate), h.Cycles.Create)
			cycles.GET("/company/:companyId", need(authz.ResourceCycle, authz.ActionRead), h.Cycles.ListByCompany)
			cycles.GET("/student/:studentId", need(authz.ResourceCycle, authz.ActionRead), h.Cycles.ListByStudent)
			cycles.GET("/:id", need(authz.ResourceCycle, authz.ActionRead), h.Cycles.Get)
			cycles.PATCH("/:id", need(authz.ResourceCycle, authz.ActionUpdate), h.Cycles.Update)
			cycles.DELETE("/:id", need(authz.ResourceCycle, authz.ActionDelete), h.Cycles.Delete)
		}

		events := secured.Group("/events")
		{
			events.POST("", need(authz.ResourceEvent, authz.ActionCreate), h.Events.Create)
			events.GET("/cycle/:cycleId", need(authz.ResourceEvent, authz.ActionRead), h.Events.ListByCycle)
			events.GET("/:id", need(authz.ResourceEvent, authz.ActionRead), h.Events.Get)
			events.PATCH("/:id", need(authz.ResourceEvent, authz.ActionUpdate), h.Events.Update)
			events.POST("/:id/grade", need(authz.ResourceEvent, authz.ActionUpdate), h.Events.Grade)
			events.DELETE("/:id", need(authz.ResourceEvent, authz.ActionDelete), h.Events.Delete)
		}

		scenarios := secured.Group("/scenarios")
		{
			scenarios.POST("", need(authz.ResourceScenario, authz.ActionCreate), h.Scenarios.Create)
			scenarios.GET("", need(authz.ResourceScenario, authz.ActionRead), h.Scenarios.List)
			scenarios.GET("/:id", need(authz.ResourceScenario, authz.ActionRead), h.Scenarios.Get)
			scenarios.PATCH("/:id", need(authz.ResourceScenario, authz.ActionUpdate), h.Scenarios.Update)
			scenarios.DELETE("/:id", need(authz.ResourceScenario, authz.ActionDelete), h.Scenarios.Delete)
		}

		steps := secured.Group("/steps")
		{
			steps.POST("", need(authz.ResourceStep, authz.ActionCreate), h.Scenarios.CreateStep)
			steps.GET("/scenario/:scenarioId", need(authz.ResourceStep, authz.ActionRead), h.Scenarios.ListSteps)
			steps.PATCH("/:id", need(authz.ResourceStep, authz.ActionUpdate), h.Scenarios.UpdateStep)
			steps.DELETE("/:id", need(authz.ResourceStep, authz.ActionDelete), h.Scenarios.DeleteStep)
		}

		sessions := secured.Group("/sessions")
		{
			sessions.POST("", need(authz.ResourceSession, authz.ActionCreate), h.Sessions.Create)
			sessions.GET("/company/:companyId", need(authz.ResourceSession, authz.ActionRead), h.Sessions.ListByCompany)
			sessions.GET("/student/:studentId", need(authz.ResourceSession, authz.ActionRead), h.Sessions.ListByStudent)
			sessions.GET("/:id", need(authz.ResourceSession, authz.ActionRead), h.Sessions.Get)
			sessions.GET("/:id/live", need(authz.ResourceSession, authz.ActionRead), h.Sessions.Live)
			sessions.POST("/:id/start", need(authz.ResourceSession, authz.ActionSubmit), h.Sessions.Start)
			sessions.POST("/:id/finish", need(authz.ResourceSession, authz.ActionSubmit), h.Sessions.Finish)
			sessions.POST("/:id/abandon", need(authz.ResourceSession, authz.ActionSubmit), h.Sessions.Abandon)
			sessions.PATCH("/:id", need(authz.ResourceSession, authz.ActionUpdate), h.Sessions.Update)
			sessions.DELETE("/:id", need(authz.ResourceSession, authz.ActionDelete), h.Sessions.Delete)
		}

		results := secured.Group("/step-results")
		{
			results.POST("", need(authz.ResourceStepResult, authz.ActionSubmit), h.Sessions.RecordResult)
			results.GET("/session/:sessionId", need(authz.ResourceStepResult, authz.ActionRead), h.Sessions.ListResults)
		}

		secured.GET("/dashboard", need(authz.ResourceDashboard, authz.ActionRead), h.Dashboard.Company)

		if h.Reports != nil {
			reports := secured.Group("/reports")
			{
				reports.POST("", need(authz.ResourceReport, authz.ActionCreate),
					middleware.Audit(deps.Audit, deps.Logger, models.AuditActionExport, string(authz.ResourceReport)),
					h.Reports.Generate)
				reports.GET("/:id", need(authz.ResourceReport, authz.ActionRead), h.Reports.Status)
			}
		}
	}
}

func need(resource authz.Resource, action authz.Action) gin.HandlerFunc {
	return middleware.Require(resource, action)
}
