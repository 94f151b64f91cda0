package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/serroba/shortlink-go/internal/analytics"
	"github.com/serroba/shortlink-go/internal/auth"
	"github.com/serroba/shortlink-go/internal/handlers"
	"github.com/serroba/shortlink-go/internal/middleware"
	"github.com/serroba/shortlink-go/internal/qrcode"
	"github.com/serroba/shortlink-go/internal/shortener"
	"github.com/serroba/shortlink-go/internal/store"
	"github.com/serroba/shortlink-go/internal/user"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const baseURL = "http://sho.rt"

type testEnv struct {
	router http.Handler
	db     *store.Memory
	cache  *store.MemoryCache
}

type failingPublisher struct{}

func (failingPublisher) Publish(string, ...*message.Message) error { return errors.New("broker down") }
func (failingPublisher) Close() error                              { return nil }

func newEventBus(t *testing.T) *gochannel.GoChannel {
	t.Helper()

	bus := gochannel.NewGoChannel(gochannel.Config{Persistent: true}, watermill.NopLogger{})
	t.Cleanup(func() { _ = bus.Close() })

	return bus
}

func newTestEnv(t *testing.T, publisher message.Publisher) *testEnv {
	t.Helper()

	logger := zap.NewNop()
	db := store.NewMemory()
	cache := store.NewMemoryCache()

	resolver := shortener.NewCodeResolver(db.Links(), shortener.NewGenerator(),
		shortener.DefaultCodeLength, shortener.DefaultMaxAttempts)
	links := shortener.NewService(db.Links(), db, resolver)
	issuer := auth.NewTokenIssuer([]byte("handler-test-secret"), time.Minute, time.Hour)

	retriever := shortener.NewRetriever(db.Links(), cache, shortener.DefaultCacheTTL, logger)
	linkHandler := handlers.NewLinkHandler(
		links,
		retriever,
		shortener.NewUpdater(db.Links(), db, retriever),
		shortener.NewDeleter(db.Links(), db, retriever),
		analytics.NewPublishers(publisher),
		baseURL,
		logger,
	)
	qrHandler := handlers.NewQRCodeHandler(qrcode.NewService(db.QRCodes(), links, db), baseURL, logger)
	userHandler := handlers.NewUserHandler(
		user.NewService(db.Users(), auth.NewBcryptHasher(bcrypt.MinCost)), issuer, logger)

	router := chi.NewMux()
	api := humachi.New(router, handlers.APIConfig("Test", "1.0.0"))
	api.UseMiddleware(
		middleware.RequestMeta(func() string { return "test-request" }),
		middleware.Authenticate(api, issuer, logger),
	)
	handlers.RegisterRoutes(api, linkHandler, qrHandler, userHandler)

	return &testEnv{router: router, db: db, cache: cache}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)

		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	return w
}

// login signs email up and returns its access token.
func (e *testEnv) login(t *testing.T, email string) string {
	t.Helper()

	w := e.do(t, http.MethodPost, "/users/signup", "", map[string]any{
		"email":      email,
		"first_name": "Test",
		"password1":  "correct-horse",
		"password2":  "correct-horse",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = e.do(t, http.MethodPost, "/auth/token", "", map[string]any{
		"email":    email,
		"password": "correct-horse",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	return decode[struct {
		AccessToken string `json:"access_token"`
	}](t, w).AccessToken
}

func (e *testEnv) cached(t *testing.T, code string) (string, bool) {
	t.Helper()

	v, found, err := e.cache.Get(context.Background(), shortener.CacheKey(shortener.Code(code)))
	require.NoError(t, err)

	return v, found
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()

	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())

	return out
}

type linkItem struct {
	Item handlers.LinkBody `json:"item"`
}
