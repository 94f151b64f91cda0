package health

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	StatusOK       = "ok"
	StatusDegraded = "degraded"
	Healthy        = "healthy"
	Unhealthy      = "unhealthy"
)

// checkTimeout bounds each dependency ping.
const checkTimeout = 2 * time.Second

// Checker defines the interface for checking service health.
type Checker interface {
	Ping(ctx context.Context) error
}

// RedisChecker adapts redis.Client to Checker interface.
type RedisChecker struct {
	client *redis.Client
}

// NewRedisChecker creates a new Redis health checker.
func NewRedisChecker(client *redis.Client) *RedisChecker {
	return &RedisChecker{client: client}
}

// Ping checks Redis connectivity.
func (r *RedisChecker) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Handler handles health check operations.
type Handler struct {
	redis    Checker
	postgres Checker
	logger   *zap.Logger
}

// NewHandler creates a new health handler. The postgres checker is any
// store exposing Ping.
func NewHandler(redis, postgres Checker, logger *zap.Logger) *Handler {
	return &Handler{redis: redis, postgres: postgres, logger: logger}
}

// Response is the response for health check endpoint.
type Response struct {
	Body struct {
		Status   string `json:"status" enum:"ok,degraded"`
		Redis    string `json:"redis" enum:"healthy,unhealthy"`
		Postgres string `json:"postgres" enum:"healthy,unhealthy"`
	}
}

// Check pings every dependency. A failing dependency degrades the status
// but never fails the request.
func (h *Handler) Check(ctx context.Context, _ *struct{}) (*Response, error) {
	resp := &Response{}
	resp.Body.Status = StatusOK
	resp.Body.Redis = h.ping(ctx, "redis", h.redis)
	resp.Body.Postgres = h.ping(ctx, "postgres", h.postgres)

	if resp.Body.Redis != Healthy || resp.Body.Postgres != Healthy {
		resp.Body.Status = StatusDegraded
	}

	return resp, nil
}

func (h *Handler) ping(ctx context.Context, name string, c Checker) string {
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	if err := c.Ping(ctx); err != nil {
		h.logger.Warn("dependency unhealthy", zap.String("dependency", name), zap.Error(err))

		return Unhealthy
	}

	return Healthy
}

// RegisterRoutes registers health check routes.
func RegisterRoutes(api huma.API, h *Handler) {
	huma.Register(api, huma.Operation{
		OperationID: "health-check",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Service health",
		Tags:        []string{"Health"},
	}, h.Check)
}
