package goSession

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/MrEthical07/goSession/session"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

const (
	testEmail    = "alice@example.com"
	testPassword = "Correct@Pass1"
)

func newTestRedis(t testing.TB) (*miniredis.Miniredis, *redis.Client) {
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
	return mr, rdb
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.JWT.AccessSecret = []byte("access-secret-0123456789abcdef")
	cfg.JWT.RefreshSecret = []byte("refresh-secret-0123456789abcdef")
	cfg.Password.BcryptCost = 4
	return cfg
}

type memUsers struct {
	mu      sync.Mutex
	byID    map[string]*UserRecord
	byEmail map[string]string
	lookups int
	err     error
}

func newMemUsers() *memUsers {
	return &memUsers{
		byID:    map[string]*UserRecord{},
		byEmail: map[string]string{},
	}
}

func (m *memUsers) FindByEmail(_ context.Context, email string) (*UserRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lookups++
	if m.err != nil {
		return nil, m.err
	}
	id, ok := m.byEmail[email]
	if !ok {
		return nil, nil
	}
	u := *m.byID[id]
	return &u, nil
}

func (m *memUsers) FindByID(_ context.Context, id string) (*UserRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	u, ok := m.byID[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	out := *u
	return &out, nil
}

func (m *memUsers) CreateUser(_ context.Context, u *UserRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if _, ok := m.byEmail[u.Email]; ok {
		return ErrAccountExists
	}
	stored := *u
	m.byID[u.ID] = &stored
	m.byEmail[u.Email] = u.ID
	return nil
}

func (m *memUsers) remove(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.byID[id]; ok {
		delete(m.byEmail, u.Email)
		delete(m.byID, id)
	}
}

func (m *memUsers) fail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

type testEngine struct {
	*Engine
	mr    *miniredis.Miniredis
	rdb   *redis.Client
	users *memUsers
	user  UserIdentity
}

func newTestEngine(t *testing.T, mutate func(*Config), opts ...func(*Builder)) *testEngine {
	t.Helper()

	cfg := testConfig()
	if mutate != nil {
		mutate(&cfg)
	}

	mr, rdb := newTestRedis(t)
	users := newMemUsers()

	b := New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithCredentialStore(users)
	for _, opt := range opts {
		opt(b)
	}

	engine, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	t.Cleanup(engine.Close)

	user, err := engine.Signup(context.Background(), testEmail, testPassword)
	if err != nil {
		t.Fatalf("Signup: %v", err)
	}

	return &testEngine{Engine: engine, mr: mr, rdb: rdb, users: users, user: user}
}

func (te *testEngine) login(t *testing.T) (*RequestContext, *LoginResult) {
	t.Helper()

	rc := &RequestContext{Method: "POST", Path: "/login", Cookies: map[string]string{}}
	res, err := te.Login(context.Background(), rc, testEmail, testPassword)
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	return rc, res
}

// requestWith returns a RequestContext carrying the cookies set on from.
func requestWith(path string, from *RequestContext) *RequestContext {
	rc := &RequestContext{Method: "GET", Path: path, Cookies: map[string]string{}}
	if from != nil {
		for _, c := range from.SetCookies {
			if c.MaxAge < 0 {
				delete(rc.Cookies, c.Name)
				continue
			}
			rc.Cookies[c.Name] = c.Value
		}
	}
	return rc
}

// failingSessions wraps a real store and fails selected calls.
type failingSessions struct {
	SessionStore
	mu        sync.Mutex
	createErr error
	deleteErr error
	lookupErr error
}

func (f *failingSessions) Create(ctx context.Context, rec *session.Record) error {
	f.mu.Lock()
	err := f.createErr
	f.mu.Unlock()
	if err != nil {
		return err
	}
	return f.SessionStore.Create(ctx, rec)
}

func (f *failingSessions) Lookup(ctx context.Context, tokenID string) (*session.Record, error) {
	f.mu.Lock()
	err := f.lookupErr
	f.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return f.SessionStore.Lookup(ctx, tokenID)
}

func (f *failingSessions) DeleteAllByOwner(ctx context.Context, userID string) (int, error) {
	f.mu.Lock()
	err := f.deleteErr
	f.mu.Unlock()
	if err != nil {
		return 0, err
	}
	return f.SessionStore.DeleteAllByOwner(ctx, userID)
}

func (f *failingSessions) set(create, lookup, del error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createErr, f.lookupErr, f.deleteErr = create, lookup, del
}

var errBackendDown = errors.New("backend down")

type fixedClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFixedClock() *fixedClock {
	// Near wall time: the Redis store checks record expiry against time.Now.
	return &fixedClock{now: time.Now().Truncate(time.Second)}
}

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
