package app

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-books/internal/documents"
	"github.com/odyssey-erp/odyssey-books/internal/observability"
	"github.com/odyssey-erp/odyssey-books/internal/shared"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.AppAddr)
	assert.Equal(t, 10*time.Minute, cfg.MappingCacheTTL)
	assert.Equal(t, 120, cfg.RateLimitPerMinute)
	assert.Equal(t, "@every 1h", cfg.IntegrityCron)
	assert.False(t, cfg.IsProduction())
}

func TestLoadConfigRejectsBadValues(t *testing.T) {
	t.Setenv("RATE_LIMIT_PER_MINUTE", "0")
	_, err := LoadConfig()
	require.Error(t, err)

	t.Setenv("RATE_LIMIT_PER_MINUTE", "10")
	t.Setenv("LOG_FORMAT", "xml")
	_, err = LoadConfig()
	require.ErrorContains(t, err, "unknown log format")
}

func TestTestModeFlag(t *testing.T) {
	t.Setenv(testModeEnv, "1")
	RefreshTestMode()
	assert.True(t, InTestMode())

	t.Setenv(testModeEnv, "0")
	RefreshTestMode()
	assert.False(t, InTestMode())
}

func TestIdentityMiddleware(t *testing.T) {
	var got shared.Identity
	var present bool
	h := IdentityMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, present = shared.IdentityFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(shared.HeaderOrganizationID, "org-1")
	req.Header.Set(shared.HeaderUserID, "u-7")
	req.Header.Set(shared.HeaderUserName, "Dana")
	h.ServeHTTP(httptest.NewRecorder(), req)
	require.True(t, present)
	assert.Equal(t, shared.Identity{OrganizationID: "org-1", UserID: "u-7", UserName: "Dana"}, got)

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.False(t, present)
}

type memoryKeys struct {
	mu      sync.Mutex
	keys    map[string]bool
	deleted []string
}

func newMemoryKeys() *memoryKeys {
	return &memoryKeys{keys: map[string]bool{}}
}

func (m *memoryKeys) CheckAndInsert(_ context.Context, key, module string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.keys[module+"|"+key] {
		return shared.ErrIdempotencyConflict
	}
	m.keys[module+"|"+key] = true
	return nil
}

func (m *memoryKeys) Delete(_ context.Context, key, module string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.keys, module+"|"+key)
	m.deleted = append(m.deleted, key)
	return nil
}

func TestIdempotencyMiddlewareRejectsReplay(t *testing.T) {
	store := newMemoryKeys()
	calls := 0
	h := IdempotencyMiddleware(store, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusCreated)
	}))

	send := func() int {
		req := httptest.NewRequest(http.MethodPost, "/api/receipts", nil)
		req.Header.Set(HeaderIdempotencyKey, "k-1")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}
	assert.Equal(t, http.StatusCreated, send())
	assert.Equal(t, http.StatusConflict, send())
	assert.Equal(t, 1, calls)
}

func TestIdempotencyMiddlewareReleasesFailedKey(t *testing.T) {
	store := newMemoryKeys()
	status := http.StatusBadRequest
	h := IdempotencyMiddleware(store, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	}))

	send := func() int {
		req := httptest.NewRequest(http.MethodPost, "/api/sales-invoices", nil)
		req.Header.Set(HeaderIdempotencyKey, "k-2")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}
	assert.Equal(t, http.StatusBadRequest, send())
	assert.Equal(t, []string{"k-2"}, store.deleted)
	status = http.StatusCreated
	assert.Equal(t, http.StatusCreated, send())
}

func TestIdempotencyMiddlewareIgnoresReads(t *testing.T) {
	store := newMemoryKeys()
	h := IdempotencyMiddleware(store, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/receipts", nil)
		req.Header.Set(HeaderIdempotencyKey, "k-3")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	}
	assert.Empty(t, store.keys)
}

func testConfig() *Config {
	return &Config{AppEnv: "test", AppRequestTimeout: 5 * time.Second, RateLimitPerMinute: 1000, LogFormat: "json"}
}

func TestRouterHealthAndReadiness(t *testing.T) {
	failing := PingFunc(func(context.Context) error { return errors.New("down") })
	router := NewRouter(RouterParams{
		Config:    testConfig(),
		Metrics:   observability.NewMetrics(),
		Readiness: map[string]Pinger{"redis": failing},
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"dependency":"redis"`)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "odyssey_http_requests_total")
}

func TestRouterServesCalculate(t *testing.T) {
	router := NewRouter(RouterParams{
		Config:           testConfig(),
		DocumentsHandler: documents.NewHandler(nil),
	})

	req := httptest.NewRequest(http.MethodPost, "/api/calculate", strings.NewReader(`{}`))
	req.Header.Set(shared.HeaderOrganizationID, "org-1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/unknown", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
