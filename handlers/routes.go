package handlers

import (
	"backoffice_app_go/middleware"
	"backoffice_app_go/models"
	"backoffice_app_go/services"
	"backoffice_app_go/services/realtime"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

// App gathers what the routes need.
type App struct {
	DB            *gorm.DB
	Hub           *realtime.Hub
	Dispatcher    *services.Dispatcher
	Notifications *services.NotificationService
	Documents     *services.DocumentService
	Marches       *services.MarcheService
	Workforce     *services.WorkforceService
	LoginMonitor  *services.LoginMonitor
	SecureCookie  bool
}

// RegisterRoutes mounts the JSON API. Staff and salaries get parallel
// notification endpoints, each behind its own session type.
func RegisterRoutes(e *echo.Echo, app App) {
	staffAuth := &AuthHandler{DB: app.DB, Audience: models.AudienceUser, SecureCookie: app.SecureCookie, Monitor: app.LoginMonitor}
	salarieAuth := &AuthHandler{DB: app.DB, Audience: models.AudienceSalarie, SecureCookie: app.SecureCookie, Monitor: app.LoginMonitor}

	e.POST("/api/auth/login", staffAuth.Login, middleware.LoginRateLimiter.Middleware())
	e.POST("/api/salarie/auth/login", salarieAuth.Login, middleware.LoginRateLimiter.Middleware())

	// Staff
	staff := e.Group("/api")
	staff.Use(middleware.RequireActor(app.DB, models.AudienceUser))
	{
		staff.POST("/auth/logout", staffAuth.Logout)
		staff.GET("/me", Me)

		mountNotifications(staff.Group("/notifications"), NewNotificationHandler(app.Notifications, app.Hub, models.AudienceUser))
		staff.POST("/notifications", CreateNotificationHandler(app.Dispatcher), middleware.RequireRole(models.RoleAdmin))

		docs := &DocumentHandler{Service: app.Documents}
		staff.GET("/documents", docs.List)
		staff.POST("/documents", docs.Create)
		staff.GET("/documents/expirations", docs.Expirations)
		staff.GET("/documents/expirations.xlsx", docs.ExpirationReport)
		staff.GET("/documents/archive", docs.Archive)
		staff.GET("/documents/:id", docs.Get)
		staff.GET("/documents/:id/file", docs.File)
		staff.POST("/documents/:id/renew", docs.Renew)

		marches := &MarcheHandler{Service: app.Marches}
		staff.GET("/marches/:id", marches.Get)
		staff.POST("/marches/:id/decision", marches.RecordDecision, middleware.RequireRole(models.RoleAdmin))
		staff.POST("/marches/:id/request-validation", marches.RequestValidation)

		workforce := &WorkforceHandler{Service: app.Workforce}
		staff.POST("/salaries", workforce.CreateSalarie, middleware.RequireRole(models.RoleAdmin, models.RoleRessourcesHumaines))
		staff.POST("/salaries/:id/tasks", workforce.AssignTask)
		staff.POST("/salaries/:id/leave-decisions", workforce.LeaveDecision, middleware.RequireRole(models.RoleAdmin, models.RoleRessourcesHumaines))
		staff.POST("/profile-requests", workforce.SubmitProfileRequest)
	}

	// Salaries
	salarie := e.Group("/api/salarie")
	salarie.Use(middleware.RequireActor(app.DB, models.AudienceSalarie))
	{
		salarie.POST("/auth/logout", salarieAuth.Logout)
		salarie.GET("/me", Me)

		mountNotifications(salarie.Group("/notifications"), NewNotificationHandler(app.Notifications, app.Hub, models.AudienceSalarie))

		docs := &DocumentHandler{Service: app.Documents}
		salarie.GET("/documents", docs.ListOwn)
		salarie.GET("/documents/:id/file", docs.OwnFile)
	}
}

func mountNotifications(g *echo.Group, h *NotificationHandler) {
	g.GET("", h.List)
	g.GET("/unread", h.Unread)
	g.GET("/unread-count", h.UnreadCount)
	g.GET("/stream", h.Stream)
	g.POST("/mark-all-read", h.MarkAllRead)
	g.POST("/:id/read", h.MarkRead)
	g.DELETE("/:id", h.Delete)
}
