package middleware

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/goloanme/backend/internal/logger"
	"github.com/goloanme/backend/internal/models"
	"github.com/goloanme/backend/internal/services"
)

type AccountProvisioner interface {
	GetOrCreateAccount(ctx context.Context, kind models.OwnerKind, ownerID string, initialBalance int64) (string, error)
}

// ProvisionWallet opens the caller's GLM account with startingBalance on
// their first authenticated request. Later requests find the existing account.
func ProvisionWallet(ledger AccountProvisioner, startingBalance int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := UserIDFromContext(r.Context())
			if !ok {
				services.SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
				return
			}

			if _, err := ledger.GetOrCreateAccount(r.Context(), models.OwnerUser, userID, startingBalance); err != nil {
				logger.ErrorCtx(r.Context(), err, zap.String("userId", userID))
				services.SendLedgerError(w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
