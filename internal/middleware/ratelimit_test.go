package middleware_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/shortlink-go/internal/middleware"
	"github.com/serroba/shortlink-go/internal/ratelimit"
	"github.com/serroba/shortlink-go/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func zapNop() *zap.Logger { return zap.NewNop() }

type failingStore struct{}

func (failingStore) Record(context.Context, string, time.Duration) (int64, error) {
	return 0, errors.New("redis down")
}

func newRateLimitedAPI(t *testing.T, rlStore ratelimit.Store, policy *ratelimit.Policy) http.Handler {
	t.Helper()

	router, api := newAPI(t)
	limiter := ratelimit.NewPolicyLimiter(rlStore, policy)
	api.UseMiddleware(middleware.RateLimit(api, limiter, ratelimit.NewOperationScopeResolver(), zapNop()))

	huma.Get(api, "/read", echo)
	huma.Post(api, "/write", echo)
	huma.Register(api, huma.Operation{
		OperationID: "redirect",
		Method:      http.MethodGet,
		Path:        "/{shortCode}",
		Metadata: map[string]any{
			ratelimit.MetadataKey: ratelimit.EndpointConfig{Scope: ratelimit.ScopeRedirect},
		},
	}, func(ctx context.Context, _ *struct {
		ShortCode string `path:"shortCode"`
	}) (*testOutput, error) {
		return echo(ctx, nil)
	})
	huma.Register(api, huma.Operation{
		OperationID: "unlimited",
		Method:      http.MethodGet,
		Path:        "/unlimited",
		Metadata: map[string]any{
			ratelimit.MetadataKey: ratelimit.EndpointConfig{Disabled: true},
		},
	}, echo)
	huma.Register(api, huma.Operation{
		OperationID: "custom",
		Method:      http.MethodGet,
		Path:        "/custom/{id}",
		Metadata: map[string]any{
			ratelimit.MetadataKey: ratelimit.EndpointConfig{
				Limits: []ratelimit.LimitConfig{{Window: time.Minute, Max: 1}},
			},
		},
	}, func(ctx context.Context, _ *struct {
		ID string `path:"id"`
	}) (*testOutput, error) {
		return echo(ctx, nil)
	})

	return router
}

func hit(router http.Handler, method, path, ip string) int {
	req := httptest.NewRequest(method, path, nil)
	req.Header.Set("X-Forwarded-For", ip)

	return serve(router, req).Code
}

func TestRateLimit(t *testing.T) {
	t.Run("limits by method scope", func(t *testing.T) {
		policy := ratelimit.NewPolicyBuilder().
			AddLimit(ratelimit.ScopeRead, 2, time.Minute).
			AddLimit(ratelimit.ScopeWrite, 1, time.Minute).
			Build()
		router := newRateLimitedAPI(t, store.NewRateLimitMemoryStore(), policy)

		assert.Equal(t, http.StatusOK, hit(router, http.MethodGet, "/read", "10.0.0.1"))
		assert.Equal(t, http.StatusOK, hit(router, http.MethodGet, "/read", "10.0.0.1"))
		assert.Equal(t, http.StatusTooManyRequests, hit(router, http.MethodGet, "/read", "10.0.0.1"))

		assert.Equal(t, http.StatusOK, hit(router, http.MethodPost, "/write", "10.0.0.1"))
		assert.Equal(t, http.StatusTooManyRequests, hit(router, http.MethodPost, "/write", "10.0.0.1"))
	})

	t.Run("clients are counted separately", func(t *testing.T) {
		policy := ratelimit.NewPolicyBuilder().AddLimit(ratelimit.ScopeGlobal, 1, time.Minute).Build()
		router := newRateLimitedAPI(t, store.NewRateLimitMemoryStore(), policy)

		assert.Equal(t, http.StatusOK, hit(router, http.MethodGet, "/read", "10.0.0.1"))
		assert.Equal(t, http.StatusTooManyRequests, hit(router, http.MethodGet, "/read", "10.0.0.1"))
		assert.Equal(t, http.StatusOK, hit(router, http.MethodGet, "/read", "10.0.0.2"))
	})

	t.Run("redirect scope from metadata", func(t *testing.T) {
		policy := ratelimit.NewPolicyBuilder().
			AddLimit(ratelimit.ScopeRead, 1, time.Minute).
			AddLimit(ratelimit.ScopeRedirect, 3, time.Minute).
			Build()
		router := newRateLimitedAPI(t, store.NewRateLimitMemoryStore(), policy)

		for range 3 {
			assert.Equal(t, http.StatusOK, hit(router, http.MethodGet, "/abc12345", "10.0.0.1"))
		}

		assert.Equal(t, http.StatusTooManyRequests, hit(router, http.MethodGet, "/abc12345", "10.0.0.1"))
	})

	t.Run("disabled endpoints are never limited", func(t *testing.T) {
		policy := ratelimit.NewPolicyBuilder().AddLimit(ratelimit.ScopeGlobal, 1, time.Minute).Build()
		router := newRateLimitedAPI(t, failingStore{}, policy)

		for range 3 {
			assert.Equal(t, http.StatusOK, hit(router, http.MethodGet, "/unlimited", "10.0.0.1"))
		}
	})

	t.Run("route limits share the template counter", func(t *testing.T) {
		router := newRateLimitedAPI(t, store.NewRateLimitMemoryStore(), ratelimit.NewPolicyBuilder().Build())

		assert.Equal(t, http.StatusOK, hit(router, http.MethodGet, "/custom/1", "10.0.0.1"))
		assert.Equal(t, http.StatusTooManyRequests, hit(router, http.MethodGet, "/custom/2", "10.0.0.1"))
	})

	t.Run("store failure is a 500", func(t *testing.T) {
		policy := ratelimit.NewPolicyBuilder().AddLimit(ratelimit.ScopeGlobal, 1, time.Minute).Build()
		router := newRateLimitedAPI(t, failingStore{}, policy)

		assert.Equal(t, http.StatusInternalServerError, hit(router, http.MethodGet, "/read", "10.0.0.1"))
		assert.Equal(t, http.StatusInternalServerError, hit(router, http.MethodGet, "/custom/1", "10.0.0.1"))
	})

	t.Run("exceeded response names the scope", func(t *testing.T) {
		policy := ratelimit.NewPolicyBuilder().AddLimit(ratelimit.ScopeWrite, 1, time.Minute).Build()
		router := newRateLimitedAPI(t, store.NewRateLimitMemoryStore(), policy)

		hit(router, http.MethodPost, "/write", "10.0.0.9")

		req := httptest.NewRequest(http.MethodPost, "/write", nil)
		req.Header.Set("X-Forwarded-For", "10.0.0.9")
		w := serve(router, req)

		require.Equal(t, http.StatusTooManyRequests, w.Code)
		assert.Contains(t, w.Body.String(), "write scope, 2/1 requests")
	})
}
