package middleware

import (
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/shortlink-go/internal/auth"
	"go.uber.org/zap"
)

// BearerScheme is the security scheme name operations declare to require a token.
const BearerScheme = "bearer"

// TokenVerifier validates access tokens.
type TokenVerifier interface {
	VerifyAccess(token string) (int64, error)
}

// Authenticate guards operations that declare the bearer security scheme.
// The verified user id is stored with auth.ContextWithUserID.
func Authenticate(api huma.API, verifier TokenVerifier, logger *zap.Logger) func(ctx huma.Context, next func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		if !requiresBearer(ctx.Operation()) {
			next(ctx)

			return
		}

		token, ok := bearerToken(ctx.Header("Authorization"))
		if !ok {
			unauthorized(api, ctx, "missing bearer token")

			return
		}

		userID, err := verifier.VerifyAccess(token)
		if err != nil {
			logger.Debug("rejected access token",
				zap.String("request_id", MetaFromContext(ctx.Context()).RequestID),
				zap.Error(err),
			)
			unauthorized(api, ctx, "invalid or expired token")

			return
		}

		next(huma.WithContext(ctx, auth.ContextWithUserID(ctx.Context(), userID)))
	}
}

func requiresBearer(op *huma.Operation) bool {
	if op == nil {
		return false
	}

	for _, requirement := range op.Security {
		if _, ok := requirement[BearerScheme]; ok {
			return true
		}
	}

	return false
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}

	token = strings.TrimSpace(token)

	return token, token != ""
}

func unauthorized(api huma.API, ctx huma.Context, msg string) {
	ctx.SetHeader("WWW-Authenticate", "Bearer")
	_ = huma.WriteErr(api, ctx, http.StatusUnauthorized, msg)
}
