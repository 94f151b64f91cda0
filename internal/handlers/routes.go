package handlers

import (
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/shortlink-go/internal/middleware"
	"github.com/serroba/shortlink-go/internal/ratelimit"
)

var bearer = []map[string][]string{{middleware.BearerScheme: {}}}

// APIConfig returns the huma config with the bearer security scheme declared.
func APIConfig(title, version string) huma.Config {
	config := huma.DefaultConfig(title, version)
	if config.Components.SecuritySchemes == nil {
		config.Components.SecuritySchemes = map[string]*huma.SecurityScheme{}
	}

	config.Components.SecuritySchemes[middleware.BearerScheme] = &huma.SecurityScheme{
		Type:         "http",
		Scheme:       "bearer",
		BearerFormat: "JWT",
	}

	return config
}

// RegisterRoutes registers every API operation. Link and QR code operations
// require a bearer token; the redirect and account operations are public.
func RegisterRoutes(api huma.API, links *LinkHandler, qrcodes *QRCodeHandler, users *UserHandler) {
	registerUserRoutes(api, users)
	registerLinkRoutes(api, links)
	registerQRCodeRoutes(api, qrcodes)

	huma.Register(api, huma.Operation{
		OperationID: "redirect",
		Method:      http.MethodGet,
		Path:        "/{shortCode}",
		Summary:     "Redirect to the long URL",
		Description: "Resolves the short code, cache first, and answers with a temporary redirect.",
		Tags:        []string{"Redirect"},
		Errors:      []int{http.StatusNotFound},
		Metadata: map[string]any{
			ratelimit.MetadataKey: ratelimit.EndpointConfig{Scope: ratelimit.ScopeRedirect},
		},
	}, links.Redirect)
}

func registerLinkRoutes(api huma.API, h *LinkHandler) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-link",
		Method:        http.MethodPost,
		Path:          "/urls",
		Summary:       "Create short link",
		Tags:          []string{"Links"},
		DefaultStatus: http.StatusCreated,
		Security:      bearer,
		Errors:        []int{http.StatusBadRequest, http.StatusUnauthorized},
		Metadata: map[string]any{
			ratelimit.MetadataKey: ratelimit.EndpointConfig{
				Limits: []ratelimit.LimitConfig{
					{Window: time.Minute, Max: 10},
					{Window: time.Hour, Max: 100},
					{Window: 24 * time.Hour, Max: 500},
				},
			},
		},
	}, h.Create)

	huma.Register(api, huma.Operation{
		OperationID: "list-links",
		Method:      http.MethodGet,
		Path:        "/urls",
		Summary:     "List your short links",
		Tags:        []string{"Links"},
		Security:    bearer,
	}, h.List)

	huma.Register(api, huma.Operation{
		OperationID: "get-link",
		Method:      http.MethodGet,
		Path:        "/urls/{shortCode}",
		Summary:     "Short link details",
		Tags:        []string{"Links"},
		Security:    bearer,
		Errors:      []int{http.StatusForbidden, http.StatusNotFound},
	}, h.Details)

	huma.Register(api, huma.Operation{
		OperationID: "update-link",
		Method:      http.MethodPut,
		Path:        "/urls/{shortCode}",
		Summary:     "Update short link",
		Description: "Changes the friendly name and/or long URL. The cached redirect is invalidated.",
		Tags:        []string{"Links"},
		Security:    bearer,
		Errors:      []int{http.StatusBadRequest, http.StatusForbidden, http.StatusNotFound},
	}, h.Update)

	huma.Register(api, huma.Operation{
		OperationID:   "delete-link",
		Method:        http.MethodDelete,
		Path:          "/urls/{shortCode}",
		Summary:       "Delete short link",
		Tags:          []string{"Links"},
		DefaultStatus: http.StatusNoContent,
		Security:      bearer,
		Errors:        []int{http.StatusForbidden, http.StatusNotFound},
	}, h.Delete)
}

func registerQRCodeRoutes(api huma.API, h *QRCodeHandler) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-qr-code",
		Method:        http.MethodPost,
		Path:          "/qr-codes",
		Summary:       "Create QR code",
		Description:   "Binds a QR code to an existing link or to a link created in the same transaction.",
		Tags:          []string{"QR codes"},
		DefaultStatus: http.StatusCreated,
		Security:      bearer,
		Errors:        []int{http.StatusBadRequest, http.StatusForbidden, http.StatusNotFound},
	}, h.Create)

	huma.Register(api, huma.Operation{
		OperationID: "list-qr-codes",
		Method:      http.MethodGet,
		Path:        "/qr-codes",
		Summary:     "List your QR codes",
		Tags:        []string{"QR codes"},
		Security:    bearer,
	}, h.List)

	huma.Register(api, huma.Operation{
		OperationID: "get-qr-code",
		Method:      http.MethodGet,
		Path:        "/qr-codes/{id}",
		Summary:     "QR code details",
		Tags:        []string{"QR codes"},
		Security:    bearer,
		Errors:      []int{http.StatusForbidden, http.StatusNotFound},
	}, h.Details)

	huma.Register(api, huma.Operation{
		OperationID: "update-qr-code",
		Method:      http.MethodPut,
		Path:        "/qr-codes/{id}",
		Summary:     "Update QR code",
		Tags:        []string{"QR codes"},
		Security:    bearer,
		Errors:      []int{http.StatusBadRequest, http.StatusForbidden, http.StatusNotFound},
	}, h.Update)

	huma.Register(api, huma.Operation{
		OperationID:   "delete-qr-code",
		Method:        http.MethodDelete,
		Path:          "/qr-codes/{id}",
		Summary:       "Delete QR code",
		Tags:          []string{"QR codes"},
		DefaultStatus: http.StatusNoContent,
		Security:      bearer,
		Errors:        []int{http.StatusForbidden, http.StatusNotFound},
	}, h.Delete)
}

func registerUserRoutes(api huma.API, h *UserHandler) {
	huma.Register(api, huma.Operation{
		OperationID:   "signup",
		Method:        http.MethodPost,
		Path:          "/users/signup",
		Summary:       "Create an account",
		Tags:          []string{"Users"},
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest},
	}, h.Signup)

	huma.Register(api, huma.Operation{
		OperationID: "user-details",
		Method:      http.MethodGet,
		Path:        "/users/details",
		Summary:     "Your profile",
		Tags:        []string{"Users"},
		Security:    bearer,
	}, h.Details)

	huma.Register(api, huma.Operation{
		OperationID: "update-user",
		Method:      http.MethodPut,
		Path:        "/users/update",
		Summary:     "Update your profile",
		Tags:        []string{"Users"},
		Security:    bearer,
		Errors:      []int{http.StatusBadRequest},
	}, h.Update)

	huma.Register(api, huma.Operation{
		OperationID: "change-email",
		Method:      http.MethodPut,
		Path:        "/users/change-email",
		Summary:     "Change your email",
		Tags:        []string{"Users"},
		Security:    bearer,
		Errors:      []int{http.StatusBadRequest},
	}, h.ChangeEmail)

	huma.Register(api, huma.Operation{
		OperationID:   "change-password",
		Method:        http.MethodPut,
		Path:          "/users/change-password",
		Summary:       "Change your password",
		Tags:          []string{"Users"},
		DefaultStatus: http.StatusNoContent,
		Security:      bearer,
		Errors:        []int{http.StatusBadRequest},
	}, h.ChangePassword)

	huma.Register(api, huma.Operation{
		OperationID: "token",
		Method:      http.MethodPost,
		Path:        "/auth/token",
		Summary:     "Log in",
		Tags:        []string{"Auth"},
		Errors:      []int{http.StatusBadRequest},
	}, h.Token)

	huma.Register(api, huma.Operation{
		OperationID: "refresh-token",
		Method:      http.MethodPost,
		Path:        "/auth/token/refresh",
		Summary:     "Exchange a refresh token",
		Tags:        []string{"Auth"},
		Errors:      []int{http.StatusUnauthorized},
	}, h.Refresh)
}
