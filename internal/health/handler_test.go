package health_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/redis/go-redis/v9"
	"github.com/serroba/shortlink-go/internal/health"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockChecker struct {
	err error
}

func (m *mockChecker) Ping(_ context.Context) error {
	return m.err
}

func TestHandler_Check(t *testing.T) {
	down := &mockChecker{err: errors.New("connection refused")}
	up := &mockChecker{}

	tests := []struct {
		name            string
		redis, postgres health.Checker
		status          string
		redisState      string
		postgresState   string
	}{
		{"all healthy", up, up, health.StatusOK, health.Healthy, health.Healthy},
		{"redis down", down, up, health.StatusDegraded, health.Unhealthy, health.Healthy},
		{"postgres down", up, down, health.StatusDegraded, health.Healthy, health.Unhealthy},
		{"everything down", down, down, health.StatusDegraded, health.Unhealthy, health.Unhealthy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := health.NewHandler(tt.redis, tt.postgres, zap.NewNop())

			resp, err := handler.Check(context.Background(), nil)

			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.Body.Status)
			assert.Equal(t, tt.redisState, resp.Body.Redis)
			assert.Equal(t, tt.postgresState, resp.Body.Postgres)
		})
	}
}

func TestRegisterRoutes(t *testing.T) {
	_, api := humatest.New(t)
	health.RegisterRoutes(api, health.NewHandler(&mockChecker{}, &mockChecker{err: errors.New("down")}, zap.NewNop()))

	resp := api.Get("/health")

	require.Equal(t, http.StatusOK, resp.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.Equal(t, map[string]string{
		"status":   "degraded",
		"redis":    "healthy",
		"postgres": "unhealthy",
	}, body)
}

func TestRedisChecker(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = client.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	require.NoError(t, health.NewRedisChecker(client).Ping(ctx))
}
