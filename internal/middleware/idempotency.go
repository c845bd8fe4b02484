package middleware

import (
	"bytes"
	"context"
	"errors"
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/goloanme/backend/internal/logger"
	"github.com/goloanme/backend/internal/services"
)

const (
	IdempotencyHeader = "Idempotency-Key"
	ReplayedHeader    = "Idempotent-Replayed"
)

type IdempotencyStore interface {
	Begin(ctx context.Context, key string) (*services.StoredResponse, error)
	Complete(ctx context.Context, key string, resp services.StoredResponse) error
	Release(ctx context.Context, key string) error
}

// Idempotency deduplicates requests carrying an Idempotency-Key header per
// caller and endpoint. A completed request is replayed byte for byte; a
// duplicate that arrives while the first is still running gets 409. Server
// errors release the key so the client can retry.
func Idempotency(store IdempotencyStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientKey := r.Header.Get(IdempotencyHeader)
			if clientKey == "" {
				next.ServeHTTP(w, r)
				return
			}

			caller, _ := UserIDFromContext(r.Context())
			key := services.IdempotencyKey(r.Method+" "+r.URL.Path, caller, clientKey)

			stored, err := store.Begin(r.Context(), key)
			if err != nil {
				if !errors.Is(err, services.ErrIdempotencyConflict) {
					logger.ErrorCtx(r.Context(), err, zap.String("key", key))
				}
				services.SendLedgerError(w, err)
				return
			}
			if stored != nil {
				replay(w, stored)
				return
			}

			var body bytes.Buffer
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			ww.Tee(&body)

			completed := false
			defer func() {
				// a panicking handler must not leave the key pending
				if !completed {
					_ = store.Release(context.WithoutCancel(r.Context()), key)
				}
			}()

			next.ServeHTTP(ww, r)

			ctx := context.WithoutCancel(r.Context())
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			if status >= http.StatusInternalServerError {
				return
			}

			if err := store.Complete(ctx, key, services.StoredResponse{
				Status:      status,
				ContentType: ww.Header().Get("Content-Type"),
				Body:        body.Bytes(),
			}); err != nil {
				logger.ErrorCtx(ctx, err, zap.String("key", key))
				return
			}
			completed = true
		})
	}
}

func replay(w http.ResponseWriter, stored *services.StoredResponse) {
	if stored.ContentType != "" {
		w.Header().Set("Content-Type", stored.ContentType)
	}
	w.Header().Set(ReplayedHeader, "true")
	w.WriteHeader(stored.Status)
	_, _ = w.Write(stored.Body)
}
