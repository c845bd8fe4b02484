package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/user"

	"github.com/goloanme/backend/internal/audit"
	"github.com/goloanme/backend/internal/config"
	"github.com/goloanme/backend/internal/database"
	"github.com/goloanme/backend/internal/logger"
	"github.com/goloanme/backend/internal/services"
	"github.com/goloanme/backend/internal/store"
)

// cliEnv lazily opens the store so that `help` works without a database.
type cliEnv struct {
	out     io.Writer
	connect func(ctx context.Context) (store.Store, services.LedgerOptions, error)

	store  store.Store
	ledger *services.LedgerService
}

func (e *cliEnv) open(ctx context.Context) (*services.LedgerService, store.Store, error) {
	if e.ledger != nil {
		return e.ledger, e.store, nil
	}
	st, opts, err := e.connect(ctx)
	if err != nil {
		return nil, nil, err
	}
	e.store = st
	e.ledger = services.NewLedgerService(st, audit.NewLogger(), opts)
	return e.ledger, e.store, nil
}

func (e *cliEnv) close() {
	if e.store != nil {
		_ = e.store.Close()
	}
	logger.Flush(0)
}

func connectPostgres(ctx context.Context) (store.Store, services.LedgerOptions, error) {
	cfg, err := config.LoadCLIConfig(*configFile, *envPath)
	if err != nil {
		return nil, services.LedgerOptions{}, err
	}
	if err := logger.Initialize(logger.Config{
		Debug:       cfg.Debug,
		SentryDSN:   cfg.SentryDSN,
		Environment: cfg.Environment,
		Tags:        map[string]string{"service": "glmctl"},
	}); err != nil {
		return nil, services.LedgerOptions{}, err
	}

	db, err := database.OpenPostgres(ctx, cfg.Database)
	if err != nil {
		return nil, services.LedgerOptions{}, err
	}
	return store.NewPostgresStore(db), services.LedgerOptions{
		MaxFundAmount:   cfg.Ledger.MaxFundAmount,
		DefaultPageSize: cfg.Ledger.DefaultPageSize,
		MaxPageSize:     cfg.Ledger.MaxPageSize,
	}, nil
}

// actor identifies the operator in audit events.
func actor() string {
	name := os.Getenv("USER")
	if u, err := user.Current(); err == nil && u.Username != "" {
		name = u.Username
	}
	if name == "" {
		name = "unknown"
	}
	return fmt.Sprintf("cli:%s", name)
}
