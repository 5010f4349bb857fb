package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/kweza/remit-backoffice-go/internal/config"
	"github.com/kweza/remit-backoffice-go/internal/domain"
	"github.com/kweza/remit-backoffice-go/internal/handler"
	"github.com/kweza/remit-backoffice-go/internal/infra/cache"
	"github.com/kweza/remit-backoffice-go/internal/infra/observability"
	"github.com/kweza/remit-backoffice-go/internal/infra/resilience"
	"github.com/kweza/remit-backoffice-go/internal/infra/supabase"
	"github.com/kweza/remit-backoffice-go/internal/service"
)

func main() {
	// --- Load .env file (for local development) ---
	_ = config.LoadDotEnv(".env")

	// --- Config ---
	cfg := config.Load()

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.Duration("http_timeout", cfg.HTTPTimeout),
		zap.Duration("customer_cache_ttl", cfg.CustomerCacheTTL),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.String("default_monthly_cap", cfg.DefaultMonthlyCap.String()),
		zap.String("bonus_min_amount", cfg.BonusMinAmount.String()),
		zap.Duration("bonus_cooldown", cfg.BonusCooldown),
		zap.Int("bonus_cycle_length", cfg.BonusCycleLength),
	)

	if cfg.SupabaseURL == "" {
		logger.Fatal("SUPABASE_URL is required")
	}

	// --- Tracing ---
	shutdown, err := observability.InitTracer(cfg.OTLPEndpoint, "remit-backoffice")
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdown(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Cache ---
	customerCache := cache.New[*domain.Customer](cfg.CustomerCacheTTL)

	// --- Resilience ---
	resilienceCfg := resilience.Config{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
		MaxConcurrency: cfg.MaxConcurrency,
	}
	cb := resilience.NewCircuitBreaker("supabase")

	// --- Stores ---
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	supabaseClient := supabase.NewClient(
		httpClient,
		cfg.SupabaseURL,
		cfg.SupabaseAnonKey,
		cfg.SupabaseServiceKey,
		cb,
		resilienceCfg,
		logger,
	)

	transferStore := supabase.NewTransferStore(supabaseClient)
	customerStore := supabase.NewCustomerStore(supabaseClient)
	beneficiaryStore := supabase.NewBeneficiaryStore(supabaseClient)
	bonusStore := supabase.NewBonusStore(supabaseClient)
	flagStore := supabase.NewFlagStore(supabaseClient)
	auditStore := supabase.NewAuditStore(supabaseClient)

	// --- Services ---
	capSvc := service.NewCapService(customerStore, transferStore, customerCache, metrics, logger, cfg)
	bonusSvc := service.NewBonusService(transferStore, beneficiaryStore, bonusStore, auditStore, metrics, logger, cfg)
	refIDGen := service.NewRefIDGenerator(transferStore, metrics, logger)
	transferSvc := service.NewTransferService(transferStore, customerStore, capSvc, bonusSvc, refIDGen, auditStore, metrics, logger, cfg)
	complianceSvc := service.NewComplianceService(flagStore, auditStore, metrics, logger, cfg)

	// --- Router ---
	router := handler.NewRouter(handler.Services{
		Transfers:  transferSvc,
		Caps:       capSvc,
		Bonus:      bonusSvc,
		Compliance: complianceSvc,
	}, metrics, logger, cfg.JWTSecret)

	// --- Server ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- Graceful shutdown ---
	go func() {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}
