package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	echoswagger "github.com/swaggo/echo-swagger"
	"go.mongodb.org/mongo-driver/mongo"

	_ "github.com/rewear-app/exchange-api/docs"
	"github.com/rewear-app/exchange-api/internal/api/handler"
	"github.com/rewear-app/exchange-api/internal/api/middleware"
	"github.com/rewear-app/exchange-api/internal/core/domain"
	"github.com/rewear-app/exchange-api/internal/core/service"
	"github.com/rewear-app/exchange-api/internal/infrastructure/config"
	mongodb "github.com/rewear-app/exchange-api/internal/infrastructure/db/mongo"
	redisdb "github.com/rewear-app/exchange-api/internal/infrastructure/db/redis"
	"github.com/rewear-app/exchange-api/internal/infrastructure/queue"
)

// Dependencies carries the infrastructure the router wires handlers onto.
type Dependencies struct {
	Config   *config.Config
	DB       *mongo.Database
	Redis    *goredis.Client
	Counters *queue.Dispatcher
	Logger   zerolog.Logger
}

// NewRouter builds the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Logger)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("rewear"))

	// --- Repositories ---
	userRepo := mongodb.NewUserRepository(deps.DB)
	itemRepo := mongodb.NewItemRepository(deps.DB)
	tradeRepo := mongodb.NewTradeRepository(deps.DB)
	tracker := redisdb.NewEngagementTracker(deps.Redis, deps.Config.ViewDedupTTL)

	// --- Services ---
	authService := service.NewAuthService(userRepo, deps.Config.JWTSecret, deps.Config.TokenTTL)
	exchangeService := service.NewExchangeService(userRepo, itemRepo, tradeRepo, deps.Logger)
	itemService := service.NewItemService(itemRepo, tracker, deps.Counters, deps.Logger)
	dashboardService := service.NewDashboardService(userRepo, itemRepo, tradeRepo)
	adminService := service.NewAdminService(userRepo, itemRepo)

	// --- Handlers ---
	authHandler := handler.NewAuthHandler(authService)
	exchangeHandler := handler.NewExchangeHandler(exchangeService)
	itemHandler := handler.NewItemHandler(itemService)
	dashboardHandler := handler.NewDashboardHandler(dashboardService)
	adminHandler := handler.NewAdminHandler(adminService)

	authRequired := middleware.Auth(deps.Config.JWTSecret)
	adminOnly := middleware.RBAC(domain.RoleAdmin)

	// --- Auth routes ---
	e.POST("/auth/register", authHandler.Register)
	e.POST("/auth/login", authHandler.Login)
	e.GET("/auth/user", authHandler.Me, authRequired)

	// --- Dashboard ---
	e.GET("/dashboard", dashboardHandler.View, authRequired)

	// --- Items ---
	items := e.Group("/items", authRequired)
	items.POST("", itemHandler.Create)
	items.GET("", itemHandler.List)
	items.GET("/:id", itemHandler.Get)
	items.POST("/:id/interest", itemHandler.MarkInterest)

	// --- Exchange ---
	exchange := e.Group("/exchange", authRequired)
	exchange.POST("/redeem", exchangeHandler.Redeem)
	exchange.POST("/swaps", exchangeHandler.ProposeSwap)
	exchange.POST("/swaps/:id/confirm", exchangeHandler.ConfirmSwap)

	// --- Admin ---
	admin := e.Group("/admin", authRequired, adminOnly)
	admin.GET("/users", adminHandler.ListUsers)
	admin.GET("/items", adminHandler.ListItems)

	// --- Health probes (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	readinessHandler := handler.NewReadinessHandler(deps.DB, deps.Redis)

	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", readinessHandler.Readiness)

	// --- Observability & docs ---
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoswagger.WrapHandler)

	return e
}
