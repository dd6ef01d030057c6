package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"portal-billing/internal/checkout"
	"portal-billing/internal/client"
	"portal-billing/internal/config"
	"portal-billing/internal/handler"
	"portal-billing/internal/logger"
	"portal-billing/internal/repository"
	"portal-billing/internal/server"
	"portal-billing/internal/service"
)

func main() {
	// load .env into os.Environ
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found (ok in prod)")
	}

	cfg := &config.Config{}
	if err := env.Parse(cfg); err != nil {
		fmt.Printf("Failed to parse config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	db := client.InitDB(cfg.DatabaseURL)
	asaasClient := client.NewAsaasClient(&cfg.Asaas)
	client.SetStripeKey(cfg.Stripe.SecretKey)
	stripeClient := client.NewStripeClient()

	planRepo := repository.NewPlanRepository(db)
	profileRepo := repository.NewProfileRepository(db)
	subRepo := repository.NewSubscriptionRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	webhookEventRepo := repository.NewWebhookEventRepository(db)

	if err := planRepo.Seed(context.Background()); err != nil {
		log.Fatal("seed plans", zap.Error(err))
	}

	checkoutService := service.NewCheckoutService(db, asaasClient, planRepo, profileRepo, subRepo, paymentRepo, log)
	billingService := service.NewBillingService(stripeClient, subRepo, log)
	webhookService := service.NewWebhookService(db, subRepo, paymentRepo, webhookEventRepo, log)

	manager := checkout.NewManager(
		checkout.Options{
			ThrottleWindow: time.Duration(cfg.Checkout.ThrottleWindowSec) * time.Second,
			MinInterval:    time.Duration(cfg.Checkout.MinIntervalSec) * time.Second,
			MaxAttempts:    cfg.Checkout.MaxAttempts,
			RecoveryWindow: time.Duration(cfg.Checkout.RecoveryWindowSec) * time.Second,
			RedirectDelay:  time.Duration(cfg.Checkout.RedirectDelayMs) * time.Millisecond,
		},
		func(sessionID string) checkout.Store {
			return repository.NewCheckoutStateStore(db, sessionID)
		},
		checkoutService,
		log,
	)

	checkoutHandler := handler.NewCheckoutHandler(manager)
	planHandler := handler.NewPlanHandler(planRepo)
	profileHandler := handler.NewProfileHandler(profileRepo)
	asaasHandler := handler.NewAsaasHandler(asaasClient)
	billingHandler := handler.NewBillingHandler(billingService)
	webhookHandler := handler.NewWebhookHandler(webhookService, cfg.Asaas.WebhookToken, log)
	subscriptionHandler := handler.NewSubscriptionHandler(checkoutService)

	srv := server.NewServer(checkoutHandler, planHandler, profileHandler, asaasHandler, billingHandler, webhookHandler, subscriptionHandler, cfg.Auth.JWTSecret)

	serverAddr := cfg.HTTP.Host + ":" + cfg.HTTP.Port
	log.Info("Starting HTTP server", zap.String("addr", serverAddr), zap.String("env", cfg.Environment.Name))
	go func() {
		if err := srv.Start(serverAddr); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	<-sigChan
	log.Info("Signal received, starting graceful shutdown...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("HTTP server shutdown error", zap.Error(err))
	}
}
