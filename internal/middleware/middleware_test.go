package middleware_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/serroba/shortlink-go/internal/auth"
	"github.com/serroba/shortlink-go/internal/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testOutput struct {
	Body struct {
		Meta   middleware.Meta `json:"meta"`
		UserID int64           `json:"userId"`
	}
}

func newAPI(t *testing.T) (*chi.Mux, huma.API) {
	t.Helper()

	router := chi.NewMux()
	api := humachi.New(router, huma.DefaultConfig("Test", "1.0.0"))

	return router, api
}

// echo reports the request meta and user id the handler observed.
func echo(ctx context.Context, _ *struct{}) (*testOutput, error) {
	out := &testOutput{}
	out.Body.Meta = middleware.MetaFromContext(ctx)
	out.Body.UserID, _ = auth.UserIDFromContext(ctx)

	return out, nil
}

func serve(router http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) testOutput {
	t.Helper()

	var out testOutput
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out.Body))

	return out
}

func TestRequestMeta(t *testing.T) {
	router, api := newAPI(t)
	api.UseMiddleware(middleware.RequestMeta(func() string { return "generated-id" }))
	huma.Get(api, "/meta", echo)

	t.Run("captures client details and generates an id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/meta", nil)
		req.Header.Set("User-Agent", "TestAgent/1.0")
		req.Header.Set("Referer", "https://example.com")

		w := serve(router, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "generated-id", w.Header().Get(middleware.RequestIDHeader))

		meta := decode(t, w).Body.Meta
		assert.Equal(t, "generated-id", meta.RequestID)
		assert.Equal(t, "TestAgent/1.0", meta.UserAgent)
		assert.Equal(t, "https://example.com", meta.Referrer)
		assert.Equal(t, "192.0.2.1", meta.ClientIP)
	})

	t.Run("keeps an incoming request id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/meta", nil)
		req.Header.Set(middleware.RequestIDHeader, "upstream-id")

		w := serve(router, req)

		assert.Equal(t, "upstream-id", w.Header().Get(middleware.RequestIDHeader))
		assert.Equal(t, "upstream-id", decode(t, w).Body.Meta.RequestID)
	})

	t.Run("client ip from proxy headers", func(t *testing.T) {
		tests := []struct {
			name    string
			headers map[string]string
			want    string
		}{
			{"first forwarded-for entry", map[string]string{"X-Forwarded-For": "192.168.1.1, 10.0.0.1"}, "192.168.1.1"},
			{"single forwarded-for entry", map[string]string{"X-Forwarded-For": " 10.1.1.1 "}, "10.1.1.1"},
			{"real ip", map[string]string{"X-Real-IP": "172.16.0.5"}, "172.16.0.5"},
			{
				"forwarded-for wins over real ip",
				map[string]string{"X-Forwarded-For": "192.168.1.1", "X-Real-IP": "172.16.0.5"},
				"192.168.1.1",
			},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				req := httptest.NewRequest(http.MethodGet, "/meta", nil)
				for k, v := range tt.headers {
					req.Header.Set(k, v)
				}

				assert.Equal(t, tt.want, decode(t, serve(router, req)).Body.Meta.ClientIP)
			})
		}
	})

	t.Run("meta is empty outside a request", func(t *testing.T) {
		assert.Equal(t, middleware.Meta{}, middleware.MetaFromContext(context.Background()))
	})
}

func TestAuthenticate(t *testing.T) {
	issuer := auth.NewTokenIssuer([]byte("test-secret"), time.Minute, time.Hour)
	pair, err := issuer.Issue(42)
	require.NoError(t, err)

	router, api := newAPI(t)
	api.UseMiddleware(middleware.Authenticate(api, issuer, zapNop()))

	huma.Register(api, huma.Operation{
		OperationID: "private",
		Method:      http.MethodGet,
		Path:        "/private",
		Security:    []map[string][]string{{middleware.BearerScheme: {}}},
	}, echo)
	huma.Get(api, "/public", echo)

	request := func(path, authorization string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		if authorization != "" {
			req.Header.Set("Authorization", authorization)
		}

		return serve(router, req)
	}

	t.Run("valid access token sets the user", func(t *testing.T) {
		w := request("/private", "Bearer "+pair.AccessToken)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, int64(42), decode(t, w).Body.UserID)
	})

	t.Run("scheme is case insensitive", func(t *testing.T) {
		w := request("/private", "bearer "+pair.AccessToken)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("rejects", func(t *testing.T) {
		tests := []struct {
			name          string
			authorization string
		}{
			{"missing header", ""},
			{"wrong scheme", "Basic dXNlcjpwYXNz"},
			{"empty token", "Bearer "},
			{"garbage token", "Bearer not-a-jwt"},
			{"refresh token", "Bearer " + pair.RefreshToken},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				w := request("/private", tt.authorization)

				assert.Equal(t, http.StatusUnauthorized, w.Code)
				assert.Equal(t, "Bearer", w.Header().Get("WWW-Authenticate"))
			})
		}
	})

	t.Run("operations without security pass through", func(t *testing.T) {
		w := request("/public", "")

		require.Equal(t, http.StatusOK, w.Code)
		assert.Zero(t, decode(t, w).Body.UserID)
	})
}
