package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	mW "github.com/goloanme/backend/internal/middleware"
	"github.com/goloanme/backend/internal/services"
)

// RouterConfig carries everything the HTTP surface is built from.
type RouterConfig struct {
	Ledger          *services.LedgerService
	Pledges         *services.PledgeService
	QR              *services.DonationQRService
	Idempotency     mW.IdempotencyStore
	Auth            *mW.Authenticator
	StartingBalance int64
	AllowedOrigins  []string
	RequestTimeout  time.Duration
	// Health reports whether backing stores are reachable.
	Health func(ctx context.Context) error
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(mW.RequestID)
	r.Use(mW.SecurityHeaders)
	r.Use(mW.RequestLogger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	if cfg.RequestTimeout > 0 {
		r.Use(chimw.Timeout(cfg.RequestTimeout))
	}

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", mW.IdempotencyHeader, mW.RequestIDHeader},
		ExposedHeaders:   []string{mW.RequestIDHeader, mW.ReplayedHeader},
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if cfg.Health != nil {
			if err := cfg.Health(r.Context()); err != nil {
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy"})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	})

	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	wallet := NewWalletHandler(cfg.Ledger, cfg.StartingBalance)
	pledges := NewPledgeHandler(cfg.Pledges)
	qr := NewQRHandler(cfg.QR)
	idempotent := mW.Idempotency(cfg.Idempotency)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(cfg.Auth.Middleware)
		r.Use(mW.ProvisionWallet(cfg.Ledger, cfg.StartingBalance))

		r.Get("/wallet", wallet.GetWallet)
		r.Get("/wallet/transactions", wallet.ListTransactions)
		r.With(idempotent).Post("/wallet/fund", wallet.Fund)
		r.With(idempotent).Post("/wallet/repayments", wallet.CreateRepayment)

		r.Get("/posts/{postId}/pledges", pledges.ListPledges)
		r.With(idempotent).Post("/posts/{postId}/pledges", pledges.CreatePledge)
		r.Get("/posts/{postId}/stats", pledges.GetStats)

		r.Post("/posts/{postId}/qr", qr.GenerateQR)
		r.With(idempotent).Post("/qr/redeem", qr.RedeemQR)

		// Admin tools
		r.Group(func(r chi.Router) {
			r.Use(mW.RequireRole(mW.RoleAdmin))
			r.With(idempotent).Post("/wallet/transfer", wallet.Transfer)
			r.Get("/accounts/{accountId}/verify", wallet.VerifyAccount)
		})
	})

	return r
}
