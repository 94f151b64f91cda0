package middleware

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/shortlink-go/internal/ratelimit"
	"go.uber.org/zap"
)

// RateLimit applies the policy limiter to every request. Operations can
// override the resolved scopes through ratelimit.EndpointConfig metadata:
// Disabled skips limiting, Limits replaces the policy for that route.
func RateLimit(
	api huma.API,
	limiter *ratelimit.PolicyLimiter,
	resolver ratelimit.ScopeResolver,
	logger *zap.Logger,
) func(ctx huma.Context, next func(huma.Context)) {
	rl := &rateLimit{api: api, limiter: limiter, resolver: resolver, logger: logger}

	return rl.handle
}

type rateLimit struct {
	api      huma.API
	limiter  *ratelimit.PolicyLimiter
	resolver ratelimit.ScopeResolver
	logger   *zap.Logger
}

func (rl *rateLimit) handle(ctx huma.Context, next func(huma.Context)) {
	cfg := ratelimit.GetEndpointConfig(ctx)

	switch {
	case cfg != nil && cfg.Disabled:
		next(ctx)
	case cfg != nil && len(cfg.Limits) > 0:
		if rl.allowCustom(ctx, cfg.Limits) {
			next(ctx)
		}
	default:
		if rl.allowPolicy(ctx) {
			next(ctx)
		}
	}
}

func (rl *rateLimit) allowPolicy(ctx huma.Context) bool {
	allowed, exceeded, err := rl.limiter.Allow(ctx.Context(), clientKey(ctx), rl.resolver.Resolve(ctx))
	if err != nil {
		rl.fail(ctx, err)

		return false
	}

	if allowed {
		return true
	}

	msg := "rate limit exceeded"
	if exceeded != nil {
		msg = fmt.Sprintf("rate limit exceeded: %s scope, %d/%d requests in %s",
			exceeded.Scope, exceeded.Count, exceeded.Config.Max, exceeded.Config.Window)
		rl.logger.Warn("rate limit exceeded",
			zap.String("path", operationPath(ctx)),
			zap.String("scope", string(exceeded.Scope)),
			zap.Int64("count", exceeded.Count),
			zap.Int64("max", exceeded.Config.Max),
			zap.String("client_ip", clientIP(ctx)),
		)
	}

	_ = huma.WriteErr(rl.api, ctx, http.StatusTooManyRequests, msg)

	return false
}

func (rl *rateLimit) allowCustom(ctx huma.Context, limits []ratelimit.LimitConfig) bool {
	path := operationPath(ctx)

	allowed, exceeded, err := rl.limiter.AllowRoute(ctx.Context(), clientKey(ctx), path, limits)
	if err != nil {
		rl.fail(ctx, err)

		return false
	}

	if allowed {
		return true
	}

	rl.logger.Warn("route rate limit exceeded",
		zap.String("path", path),
		zap.Int64("count", exceeded.Count),
		zap.Int64("max", exceeded.Config.Max),
		zap.String("client_ip", clientIP(ctx)),
	)
	_ = huma.WriteErr(rl.api, ctx, http.StatusTooManyRequests,
		fmt.Sprintf("rate limit exceeded: %d/%d requests in %s", exceeded.Count, exceeded.Config.Max, exceeded.Config.Window))

	return false
}

func (rl *rateLimit) fail(ctx huma.Context, err error) {
	rl.logger.Error("rate limit check failed", zap.String("path", operationPath(ctx)), zap.Error(err))
	_ = huma.WriteErr(rl.api, ctx, http.StatusInternalServerError, "internal server error")
}

// clientKey identifies a client by IP and user agent without storing either.
func clientKey(ctx huma.Context) string {
	sum := sha256.Sum256([]byte(clientIP(ctx) + "|" + ctx.Header("User-Agent")))

	return hex.EncodeToString(sum[:])
}

func operationPath(ctx huma.Context) string {
	if op := ctx.Operation(); op != nil {
		return op.Path
	}

	return ctx.URL().Path
}
