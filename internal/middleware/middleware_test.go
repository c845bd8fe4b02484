package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-redis/redismock/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goloanme/backend/internal/audit"
	"github.com/goloanme/backend/internal/models"
	"github.com/goloanme/backend/internal/services"
	"github.com/goloanme/backend/internal/store"
)

type fakeIdempotencyStore struct {
	mu       sync.Mutex
	pending  map[string]bool
	done     map[string]services.StoredResponse
	released []string
}

func newFakeIdempotencyStore() *fakeIdempotencyStore {
	return &fakeIdempotencyStore{pending: map[string]bool{}, done: map[string]services.StoredResponse{}}
}

func (f *fakeIdempotencyStore) Begin(_ context.Context, key string) (*services.StoredResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if resp, ok := f.done[key]; ok {
		return &resp, nil
	}
	if f.pending[key] {
		return nil, services.ErrIdempotencyConflict
	}
	f.pending[key] = true
	return nil, nil
}

func (f *fakeIdempotencyStore) Complete(_ context.Context, key string, resp services.StoredResponse) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.pending, key)
	f.done[key] = resp
	return nil
}

func (f *fakeIdempotencyStore) Release(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.pending, key)
	f.released = append(f.released, key)
	return nil
}

func idempotentRequest(key string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/wallet/fund", nil)
	req.Header.Set(IdempotencyHeader, key)
	return req.WithContext(WithUser(req.Context(), "u1", ""))
}

func TestIdempotency(t *testing.T) {
	t.Run("replays a completed response", func(t *testing.T) {
		calls := 0
		handler := Idempotency(newFakeIdempotencyStore())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"id":"e1"}`))
		}))

		first := httptest.NewRecorder()
		handler.ServeHTTP(first, idempotentRequest("k1"))
		second := httptest.NewRecorder()
		handler.ServeHTTP(second, idempotentRequest("k1"))

		assert.Equal(t, 1, calls)
		assert.Equal(t, http.StatusCreated, second.Code)
		assert.JSONEq(t, `{"id":"e1"}`, second.Body.String())
		assert.Equal(t, "true", second.Header().Get(ReplayedHeader))
		assert.Equal(t, "application/json", second.Header().Get("Content-Type"))
	})

	t.Run("in-flight duplicate conflicts", func(t *testing.T) {
		fake := newFakeIdempotencyStore()
		var rr *httptest.ResponseRecorder
		handler := Idempotency(fake)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rr = httptest.NewRecorder()
			Idempotency(fake)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
				t.Fatal("duplicate must not run")
			})).ServeHTTP(rr, idempotentRequest("k2"))
			w.WriteHeader(http.StatusOK)
		}))

		handler.ServeHTTP(httptest.NewRecorder(), idempotentRequest("k2"))
		require.NotNil(t, rr)
		assert.Equal(t, http.StatusConflict, rr.Code)
	})

	t.Run("server error releases the key", func(t *testing.T) {
		fake := newFakeIdempotencyStore()
		calls := 0
		handler := Idempotency(fake)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
			w.WriteHeader(http.StatusInternalServerError)
		}))

		handler.ServeHTTP(httptest.NewRecorder(), idempotentRequest("k3"))
		handler.ServeHTTP(httptest.NewRecorder(), idempotentRequest("k3"))

		assert.Equal(t, 2, calls)
		assert.Len(t, fake.released, 2)
	})

	t.Run("client error is stored", func(t *testing.T) {
		fake := newFakeIdempotencyStore()
		calls := 0
		handler := Idempotency(fake)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
			services.SendLedgerError(w, &services.InsufficientBalanceError{AccountID: "a1", Available: 5, Requested: 10})
		}))

		handler.ServeHTTP(httptest.NewRecorder(), idempotentRequest("k4"))
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, idempotentRequest("k4"))

		assert.Equal(t, 1, calls)
		assert.Equal(t, http.StatusConflict, rr.Code)
	})

	t.Run("no header passes through", func(t *testing.T) {
		calls := 0
		handler := Idempotency(newFakeIdempotencyStore())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
		}))
		for i := 0; i < 2; i++ {
			handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/v1/wallet/fund", nil))
		}
		assert.Equal(t, 2, calls)
	})
}

func TestIdempotency_Redis(t *testing.T) {
	redisClient, mock := redismock.NewClientMock()
	ttl := time.Hour
	idem := services.NewIdempotencyService(redisClient, ttl)
	key := services.IdempotencyKey("POST /api/v1/wallet/fund", "u1", "k5")

	stored, err := json.Marshal(services.StoredResponse{Status: 201, ContentType: "application/json", Body: []byte(`{"ok":true}`)})
	require.NoError(t, err)

	mock.ExpectSetNX(key, "pending", ttl).SetVal(false)
	mock.ExpectGet(key).SetVal(string(stored))

	handler := Idempotency(idem)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("replayed request must not run")
	}))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, idempotentRequest("k5"))

	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.JSONEq(t, `{"ok":true}`, rr.Body.String())

	mock.ExpectSetNX(key, "pending", ttl).SetErr(errors.New("connection refused"))
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, idempotentRequest("k5"))
	assert.Equal(t, http.StatusInternalServerError, rr.Code)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProvisionWallet(t *testing.T) {
	st := store.NewMemoryStore()
	ledger := services.NewLedgerService(st, audit.NewLogger(), services.DefaultLedgerOptions())
	handler := ProvisionWallet(ledger, 1000)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/wallet", nil)
		req = req.WithContext(WithUser(req.Context(), "u1", ""))
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		require.Equal(t, http.StatusNoContent, rr.Code)
	}

	balance, err := ledger.GetBalance(context.Background(), models.OwnerUser, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(1000), balance)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/wallet", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestRequestID(t *testing.T) {
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Len(t, rr.Header().Get(RequestIDHeader), 36)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, "abc")
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	assert.Equal(t, "abc", rr.Header().Get(RequestIDHeader))
}
