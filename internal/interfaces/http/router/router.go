package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/supportdesk/backend/internal/infrastructure/config"
	"github.com/supportdesk/backend/internal/infrastructure/logger"
	"github.com/supportdesk/backend/internal/interfaces/http/handler"
	"github.com/supportdesk/backend/internal/interfaces/http/middleware"
)

// Handlers bundles the handler set wired into the router
type Handlers struct {
	Customer *handler.CustomerHandler
	Ticket   *handler.TicketHandler
	Quote    *handler.QuoteHandler
	Outbox   *handler.OutboxHandler
	System   *handler.SystemHandler
}

// New builds the gin engine with the full middleware chain and all routes
// registered
func New(cfg *config.Config, log *zap.Logger, handlers Handlers) *gin.Engine {
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		_ = engine.SetTrustedProxies(cfg.HTTP.TrustedProxies)
	}

	corsConfig := middleware.DefaultCORSConfig()
	if len(cfg.HTTP.CORSAllowOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	}
	if len(cfg.HTTP.CORSAllowMethods) > 0 {
		corsConfig.AllowMethods = cfg.HTTP.CORSAllowMethods
	}
	if len(cfg.HTTP.CORSAllowHeaders) > 0 {
		corsConfig.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	}

	engine.Use(
		logger.Recovery(log),
		middleware.RequestID(),
		logger.GinMiddleware(log),
		middleware.Secure(),
		middleware.CORSWithConfig(corsConfig),
		middleware.Metrics(),
		middleware.BodyLimit(cfg.HTTP.MaxBodySize),
	)

	// Probes stay outside the versioned API group
	engine.GET("/health", handlers.System.Health)
	engine.GET("/ready", handlers.System.Ready)

	api := engine.Group("/api/v1")
	{
		customers := api.Group("/customers")
		{
			customers.POST("/resolve", handlers.Customer.Resolve)
			customers.POST("/import", handlers.Customer.Import)
		}

		tickets := api.Group("/tickets")
		{
			tickets.POST("", handlers.Ticket.Create)
			tickets.GET("/:id", handlers.Ticket.Get)
		}

		quotes := api.Group("/quotes")
		{
			quotes.POST("", handlers.Quote.Submit)
			quotes.GET("/:id", handlers.Quote.Get)
		}

		system := api.Group("/system")
		{
			system.GET("/info", handlers.System.GetSystemInfo)
			system.GET("/outbox/stats", handlers.Outbox.GetStats)
			system.GET("/outbox/:id", handlers.Outbox.GetEntry)
			system.POST("/outbox/:id/retry", handlers.Outbox.RetryDeadEntry)
		}
	}

	return engine
}
