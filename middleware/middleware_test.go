package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	goSession "github.com/MrEthical07/goSession"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type memUsers struct {
	mu    sync.Mutex
	users map[string]*goSession.UserRecord
}

func (m *memUsers) FindByEmail(_ context.Context, email string) (*goSession.UserRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			out := *u
			return &out, nil
		}
	}
	return nil, nil
}

func (m *memUsers) FindByID(_ context.Context, id string) (*goSession.UserRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, goSession.ErrUserNotFound
	}
	out := *u
	return &out, nil
}

func (m *memUsers) CreateUser(_ context.Context, u *goSession.UserRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return goSession.ErrAccountExists
		}
	}
	stored := *u
	m.users[u.ID] = &stored
	return nil
}

func newEngine(t *testing.T) (*goSession.Engine, string) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = rdb.Close()
		mr.Close()
	})

	cfg := goSession.DefaultConfig()
	cfg.JWT.AccessSecret = []byte("middleware-access-secret")
	cfg.JWT.RefreshSecret = []byte("middleware-refresh-secret")
	cfg.Password.BcryptCost = 4

	engine, err := goSession.New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithCredentialStore(&memUsers{users: map[string]*goSession.UserRecord{}}).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	t.Cleanup(engine.Close)

	pair, err := engine.Issue(context.Background(), goSession.UserIdentity{ID: "u1", Email: "alice@example.com"})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	return engine, pair.AccessToken
}

func okHandler(t *testing.T, wantIdentity bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := IdentityFromContext(r.Context())
		if ok != wantIdentity {
			t.Errorf("identity present = %v, want %v", ok, wantIdentity)
		}
		if ok && id.ID != "u1" {
			t.Errorf("unexpected identity %+v", id)
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestGateRedirectsProtectedWithoutCookie(t *testing.T) {
	engine, _ := newEngine(t)
	h := Gate(engine)(okHandler(t, false))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/dashboard", nil))

	if w.Code != http.StatusTemporaryRedirect {
		t.Fatalf("expected 307, got %d", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "/login" {
		t.Fatalf("expected Location /login, got %q", loc)
	}
}

func TestGatePassesIdentityOnProtected(t *testing.T) {
	engine, token := newEngine(t)
	h := Gate(engine)(okHandler(t, true))

	r := httptest.NewRequest(http.MethodGet, "/settings/profile", nil)
	r.AddCookie(&http.Cookie{Name: "access_token", Value: token})
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestGateRedirectsAuthenticatedAwayFromLogin(t *testing.T) {
	engine, token := newEngine(t)
	h := Gate(engine)(okHandler(t, false))

	r := httptest.NewRequest(http.MethodGet, "/login", nil)
	r.AddCookie(&http.Cookie{Name: "access_token", Value: token})
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	if w.Code != http.StatusTemporaryRedirect || w.Header().Get("Location") != "/dashboard" {
		t.Fatalf("expected 307 to /dashboard, got %d %q", w.Code, w.Header().Get("Location"))
	}
}

func TestGatePublicContinues(t *testing.T) {
	engine, _ := newEngine(t)
	h := Gate(engine)(okHandler(t, false))

	r := httptest.NewRequest(http.MethodGet, "/public/terms", nil)
	r.AddCookie(&http.Cookie{Name: "access_token", Value: "garbage"})
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestGateNilEngineFailsClosed(t *testing.T) {
	h := Gate(nil)(okHandler(t, false))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/public", nil))

	if w.Code != http.StatusTemporaryRedirect || w.Header().Get("Location") != "/login" {
		t.Fatalf("expected redirect to /login, got %d %q", w.Code, w.Header().Get("Location"))
	}
}

func TestRequireIdentity(t *testing.T) {
	engine, token := newEngine(t)

	tests := []struct {
		name   string
		cookie string
		header string
		want   int
	}{
		{"no credentials", "", "", http.StatusUnauthorized},
		{"bad cookie", "garbage", "", http.StatusUnauthorized},
		{"cookie", token, "", http.StatusOK},
		{"bearer", "", "Bearer " + token, http.StatusOK},
		{"malformed bearer", "", "Token " + token, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := RequireIdentity(engine)(okHandler(t, tt.want == http.StatusOK))
			r := httptest.NewRequest(http.MethodGet, "/api/me", nil)
			if tt.cookie != "" {
				r.AddCookie(&http.Cookie{Name: "access_token", Value: tt.cookie})
			}
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			h.ServeHTTP(w, r)

			if w.Code != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, w.Code)
			}
		})
	}
}

func TestClientIP(t *testing.T) {
	var seen string
	h := ClientIP(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = goSession.ClientIPFromContext(r.Context())
	}))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "192.0.2.10:54321"
	h.ServeHTTP(httptest.NewRecorder(), r)

	if seen != "192.0.2.10" {
		t.Fatalf("expected host only, got %q", seen)
	}
}
