package main

import (
	"context"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/boddenberg/stock-admin-panel-go/internal/config"
	"github.com/boddenberg/stock-admin-panel-go/internal/credential"
	"github.com/boddenberg/stock-admin-panel-go/internal/domain"
	"github.com/boddenberg/stock-admin-panel-go/internal/handler"
	"github.com/boddenberg/stock-admin-panel-go/internal/infra/observability"
	"github.com/boddenberg/stock-admin-panel-go/internal/infra/resilience"
	"github.com/boddenberg/stock-admin-panel-go/internal/infra/stockapi"
	"github.com/boddenberg/stock-admin-panel-go/internal/navigation"
	"github.com/boddenberg/stock-admin-panel-go/internal/port"
	"github.com/boddenberg/stock-admin-panel-go/internal/service"
	"github.com/boddenberg/stock-admin-panel-go/internal/session"

	"go.uber.org/zap"
)

func main() {
	// --- Config ---
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.String("stock_api_url", cfg.StockAPIURL),
		zap.Duration("http_timeout", cfg.HTTPTimeout),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.Duration("initial_backoff", cfg.InitialBackoff),
		zap.String("session_file", cfg.SessionFile),
		zap.Bool("session_sealed", cfg.SessionKey != ""),
		zap.String("company_type", cfg.CompanyType),
		zap.Int("low_stock_threshold", cfg.LowStockThreshold),
	)

	// --- Tracing ---
	shutdown, err := observability.InitTracer(context.Background(), cfg.OTLPEndpoint, "stock-admin-panel")
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdown(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Session ---
	sessions, err := session.NewFileStore(cfg.SessionFile, cfg.SessionKey, logger)
	if err != nil {
		logger.Fatal("failed to open session store", zap.Error(err))
	}

	var credentials port.CredentialSource = credential.NewStaticSource(cfg.ServiceToken)
	if cfg.ServiceTokenFile != "" {
		credentials = credential.NewFileSource(cfg.ServiceTokenFile)
		logger.Info("service credential read from file", zap.String("path", cfg.ServiceTokenFile))
	} else if cfg.ServiceToken == "" {
		logger.Warn("service credential not configured, company and user creation will fail")
	}

	// --- Navigation ---
	initial := domain.RouteSignIn
	if _, ok := sessions.Token(); ok {
		initial = domain.RouteHome
	}
	history := navigation.NewHistory(initial)

	// --- Resilience ---
	resilienceCfg := resilience.Config{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
		MaxConcurrency: cfg.MaxConcurrency,
	}
	cb := resilience.NewCircuitBreaker("stock-api", stockapi.CountsAsSuccess)
	bulkhead := resilience.NewBulkhead(resilienceCfg.MaxConcurrency)

	// --- Client ---
	jar, err := cookiejar.New(nil)
	if err != nil {
		logger.Fatal("failed to create cookie jar", zap.Error(err))
	}
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout, Jar: jar}

	stockClient := stockapi.NewClient(
		httpClient,
		cfg.StockAPIURL,
		cb,
		bulkhead,
		sessions,
		credentials,
		cfg.ServiceTokenHeader,
		metrics,
		logger,
	)

	// --- Views ---
	deps := handler.Deps{
		SignIn:     service.NewSignInView(stockClient, sessions, history, metrics, logger),
		Register:   service.NewRegisterCompanyView(stockClient, history, cfg.CompanyType, metrics, logger),
		CreateUser: service.NewCreateUserView(stockClient, sessions, history, resilienceCfg, metrics, logger),
		Catalog: service.NewCatalogView(stockClient, service.CatalogConfig{
			LowStockThreshold: cfg.LowStockThreshold,
			PlaceholderImage:  cfg.PlaceholderImage,
			Currency:          cfg.Currency,
			Locale:            cfg.Locale,
		}, metrics, logger),
		Sessions: sessions,
		History:  history,
		Upstream: stockClient,
		Metrics:  metrics,
		Logger:   logger,
	}

	// --- Router ---
	router := handler.NewRouter(deps)

	// --- Server ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.HTTPTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- Graceful shutdown ---
	go func() {
		logger.Info("server starting", zap.Int("port", cfg.Port), zap.String("location", history.Current()))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("server shutting down...")
	deps.Catalog.Unmount()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}
