package goSession

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/MrEthical07/goSession/internal"
	"github.com/MrEthical07/goSession/internal/audit"
	"github.com/MrEthical07/goSession/internal/flows"
	"github.com/MrEthical07/goSession/internal/logging"
	"github.com/MrEthical07/goSession/internal/rate"
	"github.com/MrEthical07/goSession/jwt"
	"github.com/MrEthical07/goSession/password"
	"github.com/MrEthical07/goSession/session"
	"github.com/redis/go-redis/v9"
)

// Builder assembles an [Engine]. A Builder is single-use: Build may be
// called once.
type Builder struct {
	config Config
	redis  redis.UniversalClient

	sessions    SessionStore
	credentials CredentialStore
	activity    ActivitySink
	logger      *slog.Logger
	clock       func() time.Time

	built bool
}

// New returns a builder seeded with [DefaultConfig].
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

// WithConfig replaces the whole configuration. The config is copied.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis sets the Redis client backing the default session store and
// the login/refresh throttles.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithSessionStore overrides the refresh-token store. Without it, Build uses
// a [session.RedisStore] on the WithRedis client.
func (b *Builder) WithSessionStore(store SessionStore) *Builder {
	b.sessions = store
	return b
}

// WithCredentialStore sets the user store. Required.
func (b *Builder) WithCredentialStore(store CredentialStore) *Builder {
	b.credentials = store
	return b
}

// WithActivitySink sets where activity events go. Without it events are
// dropped even when Audit.Enabled is set.
func (b *Builder) WithActivitySink(sink ActivitySink) *Builder {
	b.activity = sink
	return b
}

// WithLogger sets the structured logger. slog.Default is used otherwise.
func (b *Builder) WithLogger(l *slog.Logger) *Builder {
	b.logger = l
	return b
}

// WithMetricsEnabled toggles in-process counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	if !enabled {
		b.config.Metrics.EnableLatencyHistograms = false
	}
	return b
}

// WithLatencyHistograms toggles the gate latency histogram.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// WithClock overrides the time source for token stamping, record expiry and
// activity timestamps.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.clock = now
	return b
}

// Build validates the configuration and wires the engine.
//
// Build returns an error wrapping [ErrConfig] for an invalid config, a
// missing secret, or a missing store. No engine is returned in that case.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, fmt.Errorf("%w: builder already used", ErrConfig)
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if b.credentials == nil {
		return nil, fmt.Errorf("%w: credential store is required", ErrConfig)
	}

	sessions := b.sessions
	if sessions == nil {
		if b.redis == nil {
			return nil, fmt.Errorf("%w: session store or redis client is required", ErrConfig)
		}
		sessions = session.NewRedisStore(b.redis, cfg.Store.RedisPrefix)
	}

	clock := b.clock
	if clock == nil {
		clock = time.Now
	}

	access, err := jwt.NewManager(jwt.Config{
		TTL:    cfg.JWT.AccessTTL,
		Secret: cfg.JWT.AccessSecret,
		Issuer: cfg.JWT.Issuer,
		Leeway: cfg.JWT.Leeway,
		Now:    clock,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: access token: %v", ErrConfig, err)
	}
	refresh, err := jwt.NewManager(jwt.Config{
		TTL:    cfg.JWT.RefreshTTL,
		Secret: cfg.JWT.RefreshSecret,
		Issuer: cfg.JWT.Issuer,
		Leeway: cfg.JWT.Leeway,
		Now:    clock,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: refresh token: %v", ErrConfig, err)
	}

	hasher, err := password.New(cfg.Password.Algorithm, cfg.Password.BcryptCost, cfg.Password.Argon2)
	if err != nil {
		return nil, fmt.Errorf("%w: password hasher: %v", ErrConfig, err)
	}
	dummyHash, err := newDummyHash(hasher)
	if err != nil {
		return nil, fmt.Errorf("%w: password hasher: %v", ErrConfig, err)
	}

	var logger logging.Logger = logging.NewSlogLogger(b.logger)
	logger = logger.With("component", "gosession")

	e := &Engine{
		config:      cfg,
		sessions:    sessions,
		credentials: b.credentials,
		hasher:      hasher,
		access:      access,
		refresh:     refresh,
		metrics:     NewMetrics(cfg.Metrics),
		logger:      logger,
		clock:       clock,
	}

	if b.redis != nil {
		e.limiter = rate.New(b.redis, rate.Config{
			KeyPrefix:               cfg.Security.RateLimitPrefix,
			EnableIPThrottle:        cfg.Security.EnableIPThrottle,
			MaxLoginAttempts:        cfg.Security.MaxLoginAttempts,
			LoginCooldownDuration:   cfg.Security.LoginCooldownDuration,
			MaxRefreshAttempts:      cfg.Security.MaxRefreshAttempts,
			RefreshCooldownDuration: cfg.Security.RefreshCooldownDuration,
		})
	}

	if b.activity != nil {
		e.audit = audit.NewDispatcher(audit.Config{
			Enabled:       cfg.Audit.Enabled,
			BufferSize:    cfg.Audit.BufferSize,
			DropIfFull:    cfg.Audit.DropIfFull,
			RecordTimeout: cfg.Store.Timeout,
		}, b.activity, e.onActivityError)
	}

	e.flows = flows.New(e.flowDeps(dummyHash))

	b.built = true
	return e, nil
}

func newDummyHash(h password.Hasher) (string, error) {
	seed, err := internal.NewTokenID()
	if err != nil {
		return "", err
	}
	hash, err := h.Hash(seed)
	if err != nil {
		return "", err
	}
	if hash == "" {
		return "", errors.New("empty dummy hash")
	}
	return hash, nil
}

func (e *Engine) flowDeps(dummyHash string) flows.Deps {
	rules := flows.InputRules{
		CheckEmailFormat:  e.config.Security.ValidateEmailFormat,
		MinPasswordLength: e.config.Security.MinLoginPasswordLength,
		MaxPasswordLength: e.config.Security.MaxLoginPasswordLength,
	}

	verify := flows.VerifyDeps{
		Rules:          rules,
		FindByEmail:    e.findUserByEmail,
		IsNotFound:     isUserNotFound,
		VerifyPassword: e.hasher.Verify,
		DummyHash:      dummyHash,
	}

	issue := flows.IssueDeps{
		Now:          e.clock,
		NewTokenID:   internal.NewTokenID,
		SignAccess:   e.access.SignAccess,
		SignRefresh:  e.refresh.SignRefresh,
		CreateRecord: e.createRecord,
	}

	login := flows.LoginDeps{
		Verify: verify,
		Issue:  issue,
		Warn: func(msg string, args ...any) {
			e.logger.Warn(context.Background(), msg, args...)
		},
	}
	if e.limiter.LoginEnabled() {
		login.CheckRate = e.checkLoginRate
		login.IncrementRate = e.incrementLoginRate
		login.ResetRate = e.resetLoginRate
		login.IsRateLimited = isRateLimited
	}

	refresh := flows.RefreshDeps{
		ParseRefresh:   e.refresh.ParseRefresh,
		ValidTokenID:   internal.ValidID,
		Lookup:         e.lookupRecord,
		IsNotFound:     isRecordNotFound,
		FindUserByID:   e.findUserByID,
		IsUserNotFound: isUserNotFound,
		SignAccess:     e.access.SignAccess,
		TokensEqual:    internal.EqualTokens,
	}
	if e.limiter.RefreshEnabled() {
		refresh.CheckRate = e.checkRefreshRate
		refresh.IsRateLimited = isRateLimited
	}

	return flows.Deps{
		Verify: verify,
		Issue:  issue,
		Login:  login,
		Signup: flows.SignupDeps{
			Now:          e.clock,
			CheckPolicy:  e.config.Password.Policy.Check,
			HashPassword: e.hasher.Hash,
			NewUserID:    internal.NewUserID,
			FindByEmail:  e.findUserByEmail,
			IsNotFound:   isUserNotFound,
			CreateUser:   e.createUser,
			IsDuplicate: func(err error) bool {
				return errors.Is(err, ErrAccountExists)
			},
		},
		Refresh: refresh,
		Logout: flows.LogoutDeps{
			ParseAccess:      e.access.ParseAccess,
			DeleteAllByOwner: e.deleteAllByOwner,
		},
		Gate: flows.GateDeps{
			AuthPrefixes:      e.config.Gate.AuthPrefixes,
			ProtectedPrefixes: e.config.Gate.ProtectedPrefixes,
			PublicPrefixes:    e.config.Gate.PublicPrefixes,
			LoginPath:         e.config.Gate.LoginPath,
			LandingPath:       e.config.Gate.LandingPath,
			ParseAccess:       e.access.ParseAccess,
		},
	}
}
