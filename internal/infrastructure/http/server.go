package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	handlers "github.com/cvtoletter/backend/internal/adapter/handler/http"
	"github.com/cvtoletter/backend/internal/config"
	"github.com/cvtoletter/backend/internal/middleware/auth"
	"github.com/cvtoletter/backend/pkg/logger"
)

// Handlers groups the route handlers mounted by the server.
type Handlers struct {
	Checkout   *handlers.CheckoutHandler
	Payment    *handlers.PaymentHandler
	Webhook    *handlers.WebhookHandler
	Credit     *handlers.CreditHandler
	Packages   *handlers.PackagesHandler
	Generation *handlers.GenerationHandler
	Admin      *handlers.AdminHandler
}

// HealthCheck reports whether the service can serve requests.
type HealthCheck func(ctx context.Context) error

type Server struct {
	config *config.Config
	logger *zap.Logger
	echo   *echo.Echo
}

func NewServer(cfg *config.Config, log *zap.Logger, h Handlers, health HealthCheck) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handlers.NewRequestValidator()
	logger.WithEchoLogger(e, log)

	// Middleware
	e.Use(middleware.RequestID())
	e.Use(middleware.Recover())
	e.Use(logger.NewEchoRequestLogger(log))
	if cfg.Server.HTTP.BodyLimit != "" {
		e.Use(middleware.BodyLimit(cfg.Server.HTTP.BodyLimit))
	}

	origins := cfg.Server.HTTP.AllowOrigins
	if len(origins) == 0 {
		origins = []string{cfg.Service.ClientURL}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: origins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderAuthorization, echo.HeaderContentType},
	}))

	s := &Server{
		config: cfg,
		logger: log,
		echo:   e,
	}
	s.setupRoutes(h, health)
	return s
}

// Echo exposes the router for tests.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

func (s *Server) Start() error {
	server := &http.Server{
		Addr:         s.config.Server.HTTP.Addr(),
		ReadTimeout:  s.config.Server.HTTP.ReadTimeout,
		WriteTimeout: s.config.Server.HTTP.WriteTimeout,
	}

	s.logger.Info("Starting HTTP server", zap.String("address", server.Addr))
	if err := s.echo.StartServer(server); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) setupRoutes(h Handlers, health HealthCheck) {
	// Health check
	s.echo.GET("/health", func(c echo.Context) error {
		if health != nil {
			if err := health(c.Request().Context()); err != nil {
				return c.JSON(http.StatusServiceUnavailable, map[string]string{
					"status":  "unhealthy",
					"service": s.config.Service.Name,
				})
			}
		}
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "healthy",
			"service": s.config.Service.Name,
		})
	})

	// Webhook route (outside API versioning, authenticated by signature)
	s.echo.POST("/webhooks/payment", h.Webhook.HandleWebhook)

	jwtConfig := auth.JWTConfig{
		Secret: s.config.Supabase.JWTSecret,
		Logger: s.logger,
	}

	v1 := s.echo.Group("/api/v1")

	// Public routes
	v1.GET("/packages", h.Packages.ListPackages)

	// Protected routes (require JWT authentication)
	protected := v1.Group("", auth.JWTMiddleware(jwtConfig))
	protected.POST("/checkout", h.Checkout.CreateCheckout)
	protected.GET("/payment/verify", h.Payment.VerifyPayment)
	protected.POST("/payment/verify", h.Payment.VerifyPayment)
	protected.GET("/account", h.Credit.GetAccount)
	protected.GET("/credits", h.Credit.GetUserCredits)
	protected.GET("/credits/transactions", h.Credit.GetTransactionHistory)
	protected.POST("/generations", h.Generation.Generate)

	admin := protected.Group("/admin", auth.RequireRole(s.config.Admin.Role, s.logger))
	admin.POST("/payments/:session_id/reprocess", h.Admin.ReprocessPayment)
	admin.GET("/payments/pending", h.Admin.ListPendingPayments)
	admin.POST("/webhooks/retry", h.Admin.RetryWebhooks)
}
