package server

import (
	"context"
	"log/slog"
	"net/http"
	"tafaseel/internal/apperr"
	"tafaseel/internal/auth"
	"tafaseel/internal/config"
	"tafaseel/internal/handler"
	appmiddleware "tafaseel/internal/middleware"
	"tafaseel/internal/service"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

type Services struct {
	Auth     service.AuthService
	Plan     service.PlanService
	Pages    service.PageService
	Products service.ProductService
	Prompts  service.PromptService
	Webhooks service.WebhookService
	Settings service.SettingsService
}

type Server struct {
	echo           *echo.Echo
	services       *Services
	cookies        *auth.CookieManager
	rateLimiter    *appmiddleware.RateLimiter
	authHandler    *handler.AuthHandler
	webhookHandler *handler.WebhookHandler
	pageHandler    *handler.PageHandler
	productHandler *handler.ProductHandler
	promptHandler  *handler.PromptHandler
}

func NewServer(cfg *config.Config, services *Services, cookies *auth.CookieManager, log *slog.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = NewValidator()
	e.HTTPErrorHandler = apperr.HTTPErrorHandler(log)

	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(requestLogger(log))
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{cfg.BaseURL},
		AllowCredentials: true,
	}))

	s := &Server{
		echo:           e,
		services:       services,
		cookies:        cookies,
		rateLimiter:    appmiddleware.NewRateLimiter(&cfg.RateLimit),
		authHandler:    handler.NewAuthHandler(services.Auth, cookies),
		webhookHandler: handler.NewWebhookHandler(services.Webhooks, services.Settings),
		pageHandler:    handler.NewPageHandler(services.Pages, services.Auth, services.Plan),
		productHandler: handler.NewProductHandler(services.Products, services.Plan),
		promptHandler:  handler.NewPromptHandler(services.Prompts),
	}

	s.setupRoutes()
	return s
}

func requestLogger(log *slog.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []any{
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
				"request_id", v.RequestID,
			}
			if v.Error != nil {
				attrs = append(attrs, "error", v.Error.Error())
			}
			log.InfoContext(c.Request().Context(), "request", attrs...)
			return nil
		},
	})
}

func (s *Server) setupRoutes() {
	s.echo.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	s.echo.GET("/", s.pageHandler.Index)
	s.echo.GET("/pages/:slug", s.pageHandler.Show)
	s.echo.GET("/pages/:slug/", s.pageHandler.Show)

	s.echo.GET("/dashboard", s.pageHandler.Dashboard,
		appmiddleware.Authenticate(s.cookies, s.services.Auth, true))

	s.echo.GET("/install", s.authHandler.Install)
	s.echo.GET("/oauth/callback", s.authHandler.Callback)
	s.echo.POST("/auth/login", s.authHandler.Login)
	s.echo.POST("/auth/logout", s.authHandler.Logout)
	s.echo.GET("/auth/logout", s.authHandler.Logout)

	// -------- salla webhooks --------
	webhooks := s.echo.Group("/webhooks/salla")
	webhooks.POST("", s.webhookHandler.Receive)
	webhooks.POST("/settings/validate", s.webhookHandler.ValidateSettings)

	// -------- merchant api --------
	api := s.echo.Group("/api", appmiddleware.Authenticate(s.cookies, s.services.Auth, false))
	api.GET("/me", s.productHandler.Me)
	api.GET("/home", s.productHandler.Home)
	api.GET("/products", s.productHandler.List)
	api.GET("/products/:id", s.productHandler.Get)
	api.PUT("/products/:id/description", s.productHandler.WriteDescription)
	api.GET("/plan/usage", s.productHandler.PlanUsage)
	api.GET("/salla/settings", s.productHandler.SallaSettings)

	prompts := api.Group("/prompts")
	prompts.GET("", s.promptHandler.History)
	prompts.POST("", s.promptHandler.Generate,
		s.rateLimiter.Middleware(),
		appmiddleware.PlanLimits(s.services.Plan),
	)
	prompts.POST("/:id/accept", s.promptHandler.Accept)
	prompts.POST("/:id/decline", s.promptHandler.Decline)
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

func (s *Server) Start(address string) error {
	return s.echo.Start(address)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
