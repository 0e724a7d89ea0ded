package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/mstgnz/thaipay/infra/config"
	"github.com/mstgnz/thaipay/infra/idgen"
	"github.com/mstgnz/thaipay/infra/lock"
	"github.com/mstgnz/thaipay/infra/logger"
	"github.com/mstgnz/thaipay/infra/middle"
	"github.com/mstgnz/thaipay/infra/opensearch"
	"github.com/mstgnz/thaipay/infra/response"
	"github.com/mstgnz/thaipay/infra/storage"
	"github.com/mstgnz/thaipay/payment"
	"github.com/mstgnz/thaipay/provider"
	"github.com/mstgnz/thaipay/router"
	"github.com/mstgnz/thaipay/signature"
	"github.com/mstgnz/thaipay/vault"

	// Import for side-effect registration
	_ "github.com/mstgnz/thaipay/provider/gbprimepay"
	_ "github.com/mstgnz/thaipay/provider/kbank"
	_ "github.com/mstgnz/thaipay/provider/omise"
	_ "github.com/mstgnz/thaipay/provider/promptpay"
	_ "github.com/mstgnz/thaipay/provider/scbeasy"
	_ "github.com/mstgnz/thaipay/provider/stripe"
	_ "github.com/mstgnz/thaipay/provider/truemoney"
	_ "github.com/mstgnz/thaipay/provider/twoc2p"
)

const version = "1.0.0"

func main() {
	// A missing .env is fine; the environment may be set by the orchestrator.
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Fatalf("Load Env Error: %v", err)
	}

	cfg, err := config.GetAppConfig()
	if err != nil {
		log.Fatalf("Config Error: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	osClient, err := opensearch.NewClient(cfg)
	if err != nil {
		log.Printf("Failed to initialize OpenSearch client: %v", err)
		log.Println("Continuing without OpenSearch logging...")
		osClient = nil
	}

	var sink logger.Sink
	if osClient != nil && osClient.IsEnabled() {
		sink = osClient
	}
	logger.InitGlobalLogger(sink, logger.SystemLoggerConfig{
		MinLevel:    logger.ParseLevel(cfg.LoggingLevel),
		Service:     "thaipay",
		Version:     version,
		Environment: cfg.Environment,
	})

	if sink != nil {
		setupCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		if err := osClient.Setup(setupCtx); err != nil {
			logger.Warn("OpenSearch index setup failed", logger.LogContext{Fields: map[string]any{"error": err.Error()}})
		}
		cancel()
	}

	store, err := storage.Open(cfg)
	if err != nil {
		logger.Fatal("Storage could not be opened", err, logger.LogContext{Fields: map[string]any{"driver": cfg.StorageDriver}})
	}
	defer store.Close()

	svc, adapters, err := buildService(ctx, cfg, store, osClient)
	if err != nil {
		logger.Fatal("Payment service could not be built", err)
	}

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID", "X-Merchant-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300, // Preflight cache time (second)
	}))
	r.Use(middleware.Timeout(60 * time.Second))

	router.Routes(r, router.Deps{
		Service:        svc,
		Storage:        store,
		Providers:      adapters,
		APIKey:         cfg.APIKey,
		WebhookLimiter: middle.NewRateLimiter(ctx, cfg.RateLimitPerMinute),
		Environment:    cfg.Environment,
		Version:        version,
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, http.StatusNotFound, "Not Found", nil)
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           r,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server failed", err)
		}
	}()

	logger.Info("API is running", logger.LogContext{Fields: map[string]any{
		"port":      cfg.Port,
		"storage":   cfg.StorageDriver,
		"providers": adapters.Types(),
	}})

	<-ctx.Done()
	logger.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed", err)
	}
}

func buildService(ctx context.Context, cfg *config.AppConfig, store storage.Store, osClient *opensearch.Client) (*payment.Service, *provider.Set, error) {
	v, err := vault.New(cfg.MasterKey)
	if err != nil {
		return nil, nil, err
	}

	ids, err := idgen.New(cfg.NodeID)
	if err != nil {
		return nil, nil, err
	}

	overrides, err := provider.ParseFeeOverrides(cfg.FeeOverrides)
	if err != nil {
		return nil, nil, err
	}
	fees := provider.NewFeeTable(overrides)

	adapters := provider.NewSet(nil, provider.Options{Timeout: cfg.ProviderTimeout})

	var locker payment.Locker = payment.NewLocalLocker()
	if cfg.RedisAddr != "" {
		client, err := lock.NewClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, nil, fmt.Errorf("redis: %w", err)
		}
		locker = lock.NewRedisLocker(client, 0, 0)
		logger.Info("Using Redis for callback locks", logger.LogContext{Fields: map[string]any{"addr": cfg.RedisAddr}})
	}

	var auditor payment.Auditor = payment.LogAuditor{}
	if osClient != nil && osClient.IsEnabled() {
		auditor = opensearch.NewAuditLogger(osClient)
	}

	if cfg.AllowUnsignedWebhooks && cfg.IsDevelopment() {
		logger.Warn("Unsigned webhooks are accepted")
	}

	svc, err := payment.New(payment.Deps{
		Methods:      store.Methods(),
		Transactions: store.Transactions(),
		Orders:       store.Orders(),
		Vault:        v,
		Adapters:     adapters,
		Verifier: signature.NewVerifier(signature.Config{
			Secrets:          cfg.WebhookSecrets,
			Development:      cfg.IsDevelopment(),
			AllowUnsigned:    cfg.AllowUnsignedWebhooks,
			RequireTimestamp: cfg.RequireWebhookTimestamp,
			MaxSkew:          cfg.WebhookSkew,
		}),
		Fees:    &fees,
		Locker:  locker,
		Auditor: auditor,
		IDs:     ids,
		Expiry:  cfg.PaymentExpiry,
	})
	if err != nil {
		return nil, nil, err
	}
	return svc, adapters, nil
}
