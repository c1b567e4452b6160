//go:build integration

package test

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/handlers"
	"github.com/MrEthical07/goSession/middleware"
	"github.com/MrEthical07/goSession/storage/sqlstore"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

const (
	testPassword = "Correct@Pass1"
)

func testConfig() goSession.Config {
	cfg := goSession.DefaultConfig()
	cfg.JWT.AccessSecret = []byte("integration-access-secret")
	cfg.JWT.RefreshSecret = []byte("integration-refresh-secret")
	cfg.Password.BcryptCost = 4
	return cfg
}

// harness is a full stack: SQLite users and activity, refresh records in
// Redis or SQL, the HTTP handlers behind the gate.
type harness struct {
	engine *goSession.Engine
	store  *sqlstore.Store
	mr     *miniredis.Miniredis
	rdb    *redis.Client
	server *httptest.Server
}

func newHarness(t *testing.T, backend string, mutate func(*goSession.Config)) *harness {
	t.Helper()
	ctx := context.Background()

	store, err := sqlstore.OpenAndMigrate(ctx, sqlstore.DialectSQLite, ":memory:")
	if err != nil {
		t.Fatalf("sqlstore: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	cfg := testConfig()
	if mutate != nil {
		mutate(&cfg)
	}

	b := goSession.New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithCredentialStore(store.Users).
		WithActivitySink(store.Activity)
	if backend == "sql" {
		b = b.WithSessionStore(store.RefreshTokens)
	}
	engine, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	t.Cleanup(engine.Close)

	mux := http.NewServeMux()
	handlers.NewAuth(engine, nil).Register(mux)
	srv := httptest.NewServer(middleware.ClientIP(middleware.Gate(engine)(mux)))
	t.Cleanup(srv.Close)

	return &harness{engine: engine, store: store, mr: mr, rdb: rdb, server: srv}
}

// client returns a browser-like client: it keeps cookies and does not follow
// redirects.
func (h *harness) client(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookiejar: %v", err)
	}
	return &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

type envelope struct {
	Success  bool            `json:"success"`
	Data     json.RawMessage `json:"data"`
	Redirect string          `json:"redirect"`
	Error    string          `json:"error"`
}

func (h *harness) postJSON(t *testing.T, c *http.Client, path string, body any) (*http.Response, envelope) {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	resp, err := c.Post(h.server.URL+path, "application/json", strings.NewReader(string(raw)))
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	return resp, decode(t, resp)
}

func (h *harness) get(t *testing.T, c *http.Client, path string) (*http.Response, envelope) {
	t.Helper()
	resp, err := c.Get(h.server.URL + path)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	return resp, decode(t, resp)
}

func decode(t *testing.T, resp *http.Response) envelope {
	t.Helper()
	defer resp.Body.Close()
	var env envelope
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
			t.Fatalf("decode: %v", err)
		}
	}
	return env
}

func (h *harness) cookie(c *http.Client, name string) string {
	u, _ := url.Parse(h.server.URL)
	for _, ck := range c.Jar.Cookies(u) {
		if ck.Name == name {
			return ck.Value
		}
	}
	return ""
}

func credentials(email string) map[string]string {
	return map[string]string{"email": email, "password": testPassword}
}

// cmdCounter is a go-redis hook counting single commands and pipeline
// round-trips separately.
type cmdCounter struct {
	commands  atomic.Int64
	pipelines atomic.Int64
}

func (h *cmdCounter) DialHook(next redis.DialHook) redis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		return next(ctx, network, addr)
	}
}

func (h *cmdCounter) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		h.commands.Add(1)
		return next(ctx, cmd)
	}
}

func (h *cmdCounter) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		h.pipelines.Add(1)
		return next(ctx, cmds)
	}
}

func (h *cmdCounter) Reset() {
	h.commands.Store(0)
	h.pipelines.Store(0)
}
