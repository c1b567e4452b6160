package goSession

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/MrEthical07/goSession/password"
)

// EnvProduction is the Environment value that turns on Secure cookies.
const EnvProduction = "production"

// Config is the complete, explicit engine configuration. Build validates it
// once and fails fast; there are no fallback secrets.
type Config struct {
	JWT         JWTConfig
	Cookie      CookieConfig
	Gate        GateConfig
	Store       StoreConfig
	Password    PasswordConfig
	Security    SecurityConfig
	Audit       AuditConfig
	Metrics     MetricsConfig
	Environment string
}

/*
====================================
JWT CONFIG
====================================
*/

// JWTConfig holds one secret per token type. Both are required and must
// differ.
type JWTConfig struct {
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	Issuer        string
	// Leeway tolerates clock skew on expiry. 0 by default, at most 2m.
	Leeway time.Duration
}

/*
====================================
COOKIE CONFIG
====================================
*/

// CookieConfig controls the attributes shared by set and clear. Secure is
// derived from Config.Environment unless AlwaysSecure is set.
type CookieConfig struct {
	AccessName   string
	RefreshName  string
	Path         string
	Domain       string
	SameSite     http.SameSite
	AlwaysSecure bool
}

/*
====================================
GATE CONFIG
====================================
*/

// GateConfig is the gate's path table. A path matches a prefix when it
// equals the prefix or continues it with "/".
type GateConfig struct {
	AuthPrefixes      []string
	ProtectedPrefixes []string
	PublicPrefixes    []string
	LoginPath         string
	LandingPath       string
	// RedirectStatus is used by the HTTP adapter. 307 by default.
	RedirectStatus int
}

/*
====================================
STORE CONFIG
====================================
*/

// StoreConfig bounds every credential and session store call.
type StoreConfig struct {
	Timeout     time.Duration
	RedisPrefix string
}

/*
====================================
PASSWORD CONFIG
====================================
*/

// PasswordConfig selects the hasher and the signup strength policy.
type PasswordConfig struct {
	Algorithm  string
	BcryptCost int
	Argon2     password.Argon2Config
	Policy     password.Policy
}

/*
====================================
SECURITY CONFIG
====================================
*/

// SecurityConfig holds login input rules and throttles. Throttles require a
// Redis client on the builder and are off when their max is 0.
type SecurityConfig struct {
	ValidateEmailFormat     bool
	MinLoginPasswordLength  int
	MaxLoginPasswordLength  int
	EnableIPThrottle        bool
	MaxLoginAttempts        int
	LoginCooldownDuration   time.Duration
	MaxRefreshAttempts      int
	RefreshCooldownDuration time.Duration
	RateLimitPrefix         string
}

// AuditConfig controls activity-event dispatch.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig controls in-process counters.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

/*
====================================
DEFAULT CONFIG
====================================
*/

// DefaultConfig returns a configuration with every default filled in except
// the two JWT secrets, which the caller must supply.
func DefaultConfig() Config {
	return Config{
		JWT: JWTConfig{
			AccessTTL:  15 * time.Minute,
			RefreshTTL: 7 * 24 * time.Hour,
		},
		Cookie: CookieConfig{
			AccessName:  "access_token",
			RefreshName: "refresh_token",
			Path:        "/",
			SameSite:    http.SameSiteStrictMode,
		},
		Gate: GateConfig{
			AuthPrefixes:      []string{"/login", "/signup"},
			ProtectedPrefixes: []string{"/dashboard", "/profile", "/settings"},
			PublicPrefixes:    []string{"/public"},
			LoginPath:         "/login",
			LandingPath:       "/dashboard",
			RedirectStatus:    http.StatusTemporaryRedirect,
		},
		Store: StoreConfig{
			Timeout:     5 * time.Second,
			RedisPrefix: "rt",
		},
		Password: PasswordConfig{
			Algorithm:  password.AlgorithmBcrypt,
			BcryptCost: password.DefaultBcryptCost,
			Argon2: password.Argon2Config{
				Memory:      64 * 1024,
				Time:        3,
				Parallelism: 2,
				SaltLength:  16,
				KeyLength:   32,
			},
			Policy: password.DefaultPolicy(),
		},
		Security: SecurityConfig{
			ValidateEmailFormat:     true,
			MinLoginPasswordLength:  8,
			MaxLoginPasswordLength:  100,
			EnableIPThrottle:        false,
			MaxLoginAttempts:        5,
			LoginCooldownDuration:   15 * time.Minute,
			MaxRefreshAttempts:      0,
			RefreshCooldownDuration: time.Minute,
			RateLimitPrefix:         "rl",
		},
		Audit: AuditConfig{
			Enabled:    true,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 true,
			EnableLatencyHistograms: true,
		},
		Environment: "development",
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.JWT.AccessSecret = cloneBytes(cfg.JWT.AccessSecret)
	out.JWT.RefreshSecret = cloneBytes(cfg.JWT.RefreshSecret)
	out.Gate.AuthPrefixes = cloneStrings(cfg.Gate.AuthPrefixes)
	out.Gate.ProtectedPrefixes = cloneStrings(cfg.Gate.ProtectedPrefixes)
	out.Gate.PublicPrefixes = cloneStrings(cfg.Gate.PublicPrefixes)
	return out
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s...)
}

// SecureCookies reports whether cookies carry the Secure attribute.
func (c *Config) SecureCookies() bool {
	return c.Cookie.AlwaysSecure || c.Environment == EnvProduction
}

/*
====================================
VALIDATION
====================================
*/

// Validate checks c and returns an error wrapping [ErrConfig] for the first
// problem found.
func (c *Config) Validate() error {
	if err := c.validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrConfig, err)
	}
	return nil
}

func (c *Config) validate() error {
	// JWT
	if len(c.JWT.AccessSecret) == 0 {
		return errors.New("JWT AccessSecret is required")
	}
	if len(c.JWT.RefreshSecret) == 0 {
		return errors.New("JWT RefreshSecret is required")
	}
	if bytes.Equal(c.JWT.AccessSecret, c.JWT.RefreshSecret) {
		return errors.New("JWT AccessSecret and RefreshSecret must differ")
	}
	if c.JWT.AccessTTL <= 0 {
		return errors.New("JWT AccessTTL must be > 0")
	}
	if c.JWT.RefreshTTL <= 0 {
		return errors.New("JWT RefreshTTL must be > 0")
	}
	if c.JWT.RefreshTTL < c.JWT.AccessTTL {
		return errors.New("JWT RefreshTTL must be >= AccessTTL")
	}
	if c.JWT.Leeway < 0 || c.JWT.Leeway > 2*time.Minute {
		return errors.New("JWT Leeway must be between 0 and 2m")
	}

	// Cookie
	if strings.TrimSpace(c.Cookie.AccessName) == "" || strings.TrimSpace(c.Cookie.RefreshName) == "" {
		return errors.New("Cookie names are required")
	}
	if c.Cookie.AccessName == c.Cookie.RefreshName {
		return errors.New("Cookie AccessName and RefreshName must differ")
	}
	if c.Cookie.Path == "" {
		return errors.New("Cookie Path is required")
	}
	if c.Cookie.SameSite == http.SameSiteNoneMode && !c.SecureCookies() {
		return errors.New("Cookie SameSite=None requires Secure cookies")
	}

	// Gate
	if !strings.HasPrefix(c.Gate.LoginPath, "/") || !strings.HasPrefix(c.Gate.LandingPath, "/") {
		return errors.New("Gate LoginPath and LandingPath must be absolute paths")
	}
	for _, group := range [][]string{c.Gate.AuthPrefixes, c.Gate.ProtectedPrefixes, c.Gate.PublicPrefixes} {
		for _, p := range group {
			if !strings.HasPrefix(p, "/") {
				return fmt.Errorf("Gate prefix %q must start with /", p)
			}
		}
	}
	switch c.Gate.RedirectStatus {
	case http.StatusFound, http.StatusSeeOther, http.StatusTemporaryRedirect:
	default:
		return errors.New("Gate RedirectStatus must be 302, 303 or 307")
	}

	// Store
	if c.Store.Timeout <= 0 {
		return errors.New("Store Timeout must be > 0")
	}

	// Password
	switch c.Password.Algorithm {
	case password.AlgorithmBcrypt, password.AlgorithmArgon2id:
	default:
		return errors.New("Password Algorithm must be bcrypt or argon2id")
	}
	if c.Password.Policy.MinLength < 0 || (c.Password.Policy.MaxLength > 0 && c.Password.Policy.MaxLength < c.Password.Policy.MinLength) {
		return errors.New("Password Policy length bounds are inconsistent")
	}
	if c.Password.Algorithm == password.AlgorithmBcrypt && c.Password.Policy.MaxLength > 72 {
		return errors.New("Password Policy MaxLength must be <= 72 with bcrypt")
	}

	// Security
	if c.Security.MinLoginPasswordLength < 0 || c.Security.MaxLoginPasswordLength < 0 {
		return errors.New("Security login password lengths must be >= 0")
	}
	if c.Security.MaxLoginPasswordLength > 0 && c.Security.MaxLoginPasswordLength < c.Security.MinLoginPasswordLength {
		return errors.New("Security MaxLoginPasswordLength must be >= MinLoginPasswordLength")
	}
	if c.Security.MaxLoginAttempts < 0 || c.Security.MaxRefreshAttempts < 0 {
		return errors.New("Security attempt limits must be >= 0")
	}
	if c.Security.MaxLoginAttempts > 0 && c.Security.LoginCooldownDuration <= 0 {
		return errors.New("Security LoginCooldownDuration must be > 0 when login throttling is on")
	}
	if c.Security.MaxRefreshAttempts > 0 && c.Security.RefreshCooldownDuration <= 0 {
		return errors.New("Security RefreshCooldownDuration must be > 0 when refresh throttling is on")
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when enabled")
	}

	// Metrics
	if c.Metrics.EnableLatencyHistograms && !c.Metrics.Enabled {
		return errors.New("Metrics EnableLatencyHistograms requires Metrics Enabled")
	}

	return nil
}
