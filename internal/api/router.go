package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/mindmate/companion-api/docs"
	"github.com/mindmate/companion-api/internal/api/handler"
	"github.com/mindmate/companion-api/internal/api/middleware"
	"github.com/mindmate/companion-api/internal/core/domain"
	"github.com/mindmate/companion-api/internal/core/ports"
)

// Deps are the services behind the HTTP surface. Media and Checks are optional.
type Deps struct {
	Auth        ports.AuthService
	Profile     ports.ProfileService
	Interaction ports.InteractionService
	Ledger      ports.LedgerService
	Rewards     ports.RewardService
	Wellness    ports.WellnessService
	Media       ports.MediaReader
	Checks      map[string]handler.DependencyCheck
	JWTSecret   string
	BodyLimit   string
	Log         zerolog.Logger
	// Registerer receives the HTTP metrics; nil means the default registry.
	Registerer  prometheus.Registerer
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log)

	bodyLimit := deps.BodyLimit
	if bodyLimit == "" {
		bodyLimit = "12M"
	}

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(middleware.RequestLogger(deps.Log))
	e.Use(echomiddleware.BodyLimit(bodyLimit))
	registerer := deps.Registerer
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "companion",
		Registerer: registerer,
	}))

	// --- Ops routes (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(deps.Checks)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// --- Auth routes ---
	authHandler := handler.NewAuthHandler(deps.Auth)
	e.POST("/auth/register", authHandler.Register)
	e.POST("/auth/login", authHandler.Login)

	// --- Authenticated routes ---
	v1 := e.Group("/v1", middleware.Auth(deps.JWTSecret))

	profile := handler.NewProfileHandler(deps.Profile)
	v1.GET("/me", profile.Me)
	v1.PUT("/me/safety", profile.UpdateSafety)
	v1.PUT("/me/voice", profile.UpdateVoice)

	interactions := handler.NewInteractionHandler(deps.Interaction)
	v1.POST("/interactions", interactions.Create)
	v1.GET("/conversation", interactions.Conversation)

	if deps.Media != nil {
		media := handler.NewMediaHandler(deps.Media)
		v1.GET("/media/*", media.Get)
	}

	ledger := handler.NewLedgerHandler(deps.Ledger)
	v1.GET("/balance", ledger.Balance)
	v1.GET("/usage", ledger.TodayUsage)
	v1.POST("/usage", ledger.TrackUsage)

	rewards := handler.NewRewardHandler(deps.Rewards)
	v1.GET("/tasks", rewards.ListTasks)
	v1.POST("/tasks/:task_id/complete", rewards.Complete)

	reviews := v1.Group("/reviews", middleware.RBAC(domain.RoleReviewer, domain.RoleAdmin))
	reviews.GET("/pending", rewards.Pending)
	reviews.POST("/:user_id/:task_id/approve", rewards.Approve)

	wellness := handler.NewWellnessHandler(deps.Wellness)
	v1.POST("/journal", wellness.AddJournalEntry)
	v1.GET("/journal", wellness.Journal)
	v1.POST("/screenings", wellness.SubmitScreening)
	v1.GET("/screenings", wellness.Screenings)

	admin := handler.NewAdminHandler(deps.Ledger)
	adminGroup := v1.Group("/admin/users/:user_id", middleware.RBAC(domain.RoleAdmin))
	adminGroup.PUT("/balance", admin.SetBalance)
	adminGroup.POST("/balance/add", admin.AddBalance)
	adminGroup.POST("/usage/reset", admin.ResetUsage)
	adminGroup.POST("/usage/add", admin.AddUsage)

	return e
}
