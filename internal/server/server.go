package server

import (
	"context"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"portal-billing/internal/handler"
	"portal-billing/internal/middleware"
)

type Server struct {
	echo                *echo.Echo
	checkoutHandler     *handler.CheckoutHandler
	planHandler         *handler.PlanHandler
	profileHandler      *handler.ProfileHandler
	asaasHandler        *handler.AsaasHandler
	billingHandler      *handler.BillingHandler
	webhookHandler      *handler.WebhookHandler
	subscriptionHandler *handler.SubscriptionHandler
	jwtSecret           string
}

func NewServer(
	checkoutHandler *handler.CheckoutHandler,
	planHandler *handler.PlanHandler,
	profileHandler *handler.ProfileHandler,
	asaasHandler *handler.AsaasHandler,
	billingHandler *handler.BillingHandler,
	webhookHandler *handler.WebhookHandler,
	subscriptionHandler *handler.SubscriptionHandler,
	jwtSecret string,
) *Server {
	e := echo.New()
	e.HideBanner = true

	e.Use(echomw.Logger())
	e.Use(echomw.Recover())
	e.Use(echomw.CORS())

	s := &Server{
		echo:                e,
		checkoutHandler:     checkoutHandler,
		planHandler:         planHandler,
		profileHandler:      profileHandler,
		asaasHandler:        asaasHandler,
		billingHandler:      billingHandler,
		webhookHandler:      webhookHandler,
		subscriptionHandler: subscriptionHandler,
		jwtSecret:           jwtSecret,
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.echo.Group("/api")

	api.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{"status": "ok"})
	})

	auth := middleware.Auth(s.jwtSecret)
	proxyLimit := middleware.NewRateLimiter(5, 10).Middleware()

	// -------- checkout --------
	api.GET("/plans", s.planHandler.List)
	api.POST("/checkout", s.checkoutHandler.Start, auth)
	api.GET("/subscription", s.subscriptionHandler.Get, auth)
	api.GET("/profile", s.profileHandler.Get, auth)
	api.PUT("/profile", s.profileHandler.Put, auth)

	// -------- gateway proxies --------
	api.POST("/asaas", s.asaasHandler.Dispatch, proxyLimit)
	api.POST("/billing", s.billingHandler.Dispatch, auth, proxyLimit)

	// -------- gateway webhooks --------
	api.POST("/webhooks/asaas", s.webhookHandler.AsaasWebhook)
}

func (s *Server) Start(address string) error {
	return s.echo.Start(address)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
