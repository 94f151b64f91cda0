package middleware

import (
	"context"
	"net"
	"strings"

	"github.com/danielgtaylor/huma/v2"
)

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "X-Request-ID"

// Meta describes the client behind a request.
type Meta struct {
	RequestID string
	ClientIP  string
	UserAgent string
	Referrer  string
}

type metaKey struct{}

// ContextWithMeta returns a copy of ctx carrying meta.
func ContextWithMeta(ctx context.Context, meta Meta) context.Context {
	return context.WithValue(ctx, metaKey{}, meta)
}

// MetaFromContext returns the request meta, or the zero value outside a request.
func MetaFromContext(ctx context.Context) Meta {
	meta, _ := ctx.Value(metaKey{}).(Meta)

	return meta
}

// RequestMeta stores the client IP, user agent, referrer and a request id
// in the request context. An incoming X-Request-ID is kept; otherwise one
// is generated with newID. The id is echoed in the response.
func RequestMeta(newID func() string) func(ctx huma.Context, next func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		id := ctx.Header(RequestIDHeader)
		if id == "" {
			id = newID()
		}

		meta := Meta{
			RequestID: id,
			ClientIP:  clientIP(ctx),
			UserAgent: ctx.Header("User-Agent"),
			Referrer:  ctx.Header("Referer"),
		}

		ctx.SetHeader(RequestIDHeader, id)

		next(huma.WithContext(ctx, ContextWithMeta(ctx.Context(), meta)))
	}
}

// clientIP prefers proxy headers over the connection address.
func clientIP(ctx huma.Context) string {
	if xff := ctx.Header("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")

		return strings.TrimSpace(first)
	}

	if xri := ctx.Header("X-Real-IP"); xri != "" {
		return xri
	}

	addr := ctx.RemoteAddr()

	ip, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}

	return ip
}
