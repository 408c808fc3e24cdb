package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/minigames-be/internal/auth"
	"github.com/hongminglow/minigames-be/internal/models"
	"github.com/hongminglow/minigames-be/internal/storage/memory"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type httpCall struct {
	method, route string
	status        int
}

type fakeRecorder struct {
	requests     []httpCall
	authFailures []string
}

func (f *fakeRecorder) RecordOutcome(string, string) {}
func (f *fakeRecorder) RecordHTTPRequest(method, route string, status int, _ time.Duration) {
	f.requests = append(f.requests, httpCall{method: method, route: route, status: status})
}
func (f *fakeRecorder) RecordAuthFailure(reason string) {
	f.authFailures = append(f.authFailures, reason)
}

func TestCORS(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })

	t.Run("wildcard", func(t *testing.T) {
		h := CORS([]string{"*"})(ok)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", "http://example.com")
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
		assert.Empty(t, rr.Header().Get("Access-Control-Allow-Credentials"))
	})

	t.Run("listed origin", func(t *testing.T) {
		h := CORS([]string{"http://Game.Local"})(ok)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", "http://game.local")
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		assert.Equal(t, "http://game.local", rr.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "true", rr.Header().Get("Access-Control-Allow-Credentials"))
	})

	t.Run("unlisted origin", func(t *testing.T) {
		h := CORS([]string{"http://game.local"})(ok)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", "http://evil.local")
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		assert.Empty(t, rr.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("preflight", func(t *testing.T) {
		called := false
		h := CORS([]string{"*"})(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true }))
		req := httptest.NewRequest(http.MethodOptions, "/outcomes", nil)
		req.Header.Set("Origin", "http://example.com")
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusNoContent, rr.Code)
		assert.False(t, called)
	})
}

func TestLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	rec := &fakeRecorder{}

	r := chi.NewRouter()
	r.Use(Logging(logger, rec))
	r.Get("/items/{id}", func(w http.ResponseWriter, r *http.Request) {
		noteUserID(r.Context(), "user-1")
		w.WriteHeader(http.StatusTeapot)
	})

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/items/42", nil))
	require.Equal(t, http.StatusTeapot, rr.Code)

	require.Len(t, rec.requests, 1)
	assert.Equal(t, httpCall{method: http.MethodGet, route: "/items/{id}", status: http.StatusTeapot}, rec.requests[0])

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "http_request", line["msg"])
	assert.Equal(t, "WARN", line["level"])
	assert.Equal(t, "/items/42", line["path"])
	assert.Equal(t, float64(http.StatusTeapot), line["status"])
	assert.Equal(t, "user-1", line["user_id"])
}

func TestLogging_DefaultStatus(t *testing.T) {
	rec := &fakeRecorder{}
	h := Logging(discardLogger(), rec)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/plain", nil))
	require.Len(t, rec.requests, 1)
	assert.Equal(t, http.StatusOK, rec.requests[0].status)
	assert.Equal(t, "/plain", rec.requests[0].route)
}

func TestRecovery(t *testing.T) {
	h := Recovery(discardLogger())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.JSONEq(t, `{"error":"internal server error"}`, rr.Body.String())
}

func TestRecovery_AbortHandlerRepanics(t *testing.T) {
	h := Recovery(discardLogger())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic(http.ErrAbortHandler)
	}))
	assert.PanicsWithValue(t, http.ErrAbortHandler, func() {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	})
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{Rate: 1, Burst: 2, CleanupInterval: time.Hour}, discardLogger())
	defer rl.Stop()

	h := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) }))
	do := func(addr string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = addr
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		return rr
	}

	assert.Equal(t, http.StatusOK, do("10.0.0.1:1000").Code)
	assert.Equal(t, http.StatusOK, do("10.0.0.1:1001").Code)

	limited := do("10.0.0.1:1002")
	assert.Equal(t, http.StatusTooManyRequests, limited.Code)
	assert.Equal(t, "1", limited.Header().Get("Retry-After"))
	assert.JSONEq(t, `{"error":"too many requests"}`, limited.Body.String())

	assert.Equal(t, http.StatusOK, do("10.0.0.2:1000").Code, "other clients are unaffected")
	assert.Equal(t, 2, rl.Len())
}

func TestRateLimiter_Cleanup(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{Rate: 1, Burst: 1, CleanupInterval: time.Minute}, discardLogger())
	defer rl.Stop()

	rl.limiter("10.0.0.1")
	require.Equal(t, 1, rl.Len())

	rl.cleanup(time.Now())
	assert.Equal(t, 1, rl.Len())

	rl.cleanup(time.Now().Add(3 * time.Minute))
	assert.Equal(t, 0, rl.Len())
}

func TestPerMinute(t *testing.T) {
	cfg := PerMinute(30)
	assert.InDelta(t, 0.5, float64(cfg.Rate), 1e-9)
	assert.Equal(t, 30, cfg.Burst)
}

type authFixture struct {
	gate   *auth.Gate
	tokens *auth.TokenManager
	user   models.User
}

func newAuthFixture(t *testing.T) authFixture {
	t.Helper()
	store := memory.NewStore()
	user, err := store.CreateUser(context.Background(), models.User{Name: "Ada", Email: "ada@example.com", PasswordHash: "x"})
	require.NoError(t, err)
	tokens := auth.NewTokenManager("secret", "minigames-test", time.Hour)
	return authFixture{gate: auth.NewGate(tokens, store), tokens: tokens, user: user}
}

func identityEcho(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		_, _ = w.Write([]byte("guest"))
		return
	}
	_, _ = w.Write([]byte(id.Email))
}

func TestRequireUser(t *testing.T) {
	fx := newAuthFixture(t)
	token, err := fx.tokens.Generate(fx.user)
	require.NoError(t, err)

	rec := &fakeRecorder{}
	h := RequireUser(fx.gate, discardLogger(), rec)(http.HandlerFunc(identityEcho))

	t.Run("valid token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/outcomes", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "ada@example.com", rr.Body.String())
	})

	for name, header := range map[string]string{
		"missing":   "",
		"no bearer": token,
		"garbage":   "Bearer not-a-token",
	} {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/outcomes", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)
			assert.Equal(t, http.StatusUnauthorized, rr.Code)
			assert.JSONEq(t, `{"error":"unauthenticated"}`, rr.Body.String())
		})
	}
	assert.Len(t, rec.authFailures, 3)
}

type brokenFinder struct{}

func (brokenFinder) FindUserByID(context.Context, string) (models.User, error) {
	return models.User{}, errors.New("connection refused")
}

func TestRequireUser_StoreFailure(t *testing.T) {
	fx := newAuthFixture(t)
	token, err := fx.tokens.Generate(fx.user)
	require.NoError(t, err)

	gate := auth.NewGate(fx.tokens, brokenFinder{})
	h := RequireUser(gate, discardLogger(), nil)(http.HandlerFunc(identityEcho))

	req := httptest.NewRequest(http.MethodGet, "/outcomes", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

func TestOptionalUser(t *testing.T) {
	fx := newAuthFixture(t)
	token, err := fx.tokens.Generate(fx.user)
	require.NoError(t, err)

	h := OptionalUser(fx.gate, discardLogger())(http.HandlerFunc(identityEcho))

	req := httptest.NewRequest(http.MethodGet, "/session", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, "ada@example.com", rr.Body.String())

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/session", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "guest", rr.Body.String())

	broken := OptionalUser(auth.NewGate(fx.tokens, brokenFinder{}), discardLogger())(http.HandlerFunc(identityEcho))
	req = httptest.NewRequest(http.MethodGet, "/session", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr = httptest.NewRecorder()
	broken.ServeHTTP(rr, req)
	assert.Equal(t, "guest", rr.Body.String())
}
