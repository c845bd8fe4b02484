package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/goloanme/backend/docs"
	"github.com/goloanme/backend/internal/audit"
	"github.com/goloanme/backend/internal/config"
	"github.com/goloanme/backend/internal/database"
	"github.com/goloanme/backend/internal/handlers"
	"github.com/goloanme/backend/internal/logger"
	mW "github.com/goloanme/backend/internal/middleware"
	"github.com/goloanme/backend/internal/services"
	"github.com/goloanme/backend/internal/store"
)

// @title GoLoanMe GLM Ledger API
// @version 1.0
// @description Wallet, pledge and repayment API over the GLM double-entry ledger
// @host localhost:8080
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	configFile := flag.String("config", "", "path to config.yaml")
	envPath := flag.String("env", "config/", "directory holding .env files")
	flag.Parse()

	cfg, err := config.LoadServerConfig(*configFile, *envPath)
	if err != nil {
		// logger is not up yet
		panic(err)
	}

	if err := logger.Initialize(logger.Config{
		Debug:       cfg.Debug,
		SentryDSN:   cfg.SentryDSN,
		Environment: cfg.Environment,
		Tags:        map[string]string{"service": "glm-server"},
	}); err != nil {
		panic(err)
	}
	defer logger.Flush(2 * time.Second)

	docs.SwaggerInfo.Host = cfg.Server.Addr()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.OpenPostgres(ctx, cfg.Database)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	st := store.NewPostgresStore(db)
	defer st.Close()

	if err := st.Migrate(ctx); err != nil {
		logger.Fatal("Failed to migrate database", zap.Error(err))
	}

	redisClient, err := database.OpenRedis(ctx, cfg.Redis)
	if err != nil {
		logger.Fatal("Failed to initialize redis", zap.Error(err))
	}
	defer redisClient.Close()

	ledger := services.NewLedgerService(st, audit.NewLogger(), services.LedgerOptions{
		MaxFundAmount:   cfg.Ledger.MaxFundAmount,
		DefaultPageSize: cfg.Ledger.DefaultPageSize,
		MaxPageSize:     cfg.Ledger.MaxPageSize,
	})
	pledges := services.NewPledgeService(st, ledger, cfg.Ledger.MaxPledgeAmount)

	router := handlers.NewRouter(handlers.RouterConfig{
		Ledger:          ledger,
		Pledges:         pledges,
		QR:              services.NewDonationQRService(redisClient, pledges, cfg.Ledger.QRCodeTTL),
		Idempotency:     services.NewIdempotencyService(redisClient, cfg.Ledger.IdempotencyTTL),
		Auth:            mW.NewAuthenticator(cfg.JWT),
		StartingBalance: cfg.Ledger.StartingBalance,
		AllowedOrigins:  cfg.Server.AllowedOrigins,
		RequestTimeout:  60 * time.Second,
		Health: func(ctx context.Context) error {
			if err := st.Ping(ctx); err != nil {
				return err
			}
			return redisClient.Ping(ctx).Err()
		},
	})

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Graceful shutdown
	go func() {
		logger.Info("Server starting", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(err, zap.String("addr", server.Addr))
			stop()
		}
	}()

	<-ctx.Done()

	logger.Info("Server shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error(err)
		os.Exit(1)
	}

	logger.Info("Server stopped")
}
