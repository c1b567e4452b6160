package goSession

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/MrEthical07/goSession/password"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantValid bool
	}{
		{
			name:      "defaults with secrets",
			mutate:    func(*Config) {},
			wantValid: true,
		},
		{
			name: "missing access secret",
			mutate: func(c *Config) {
				c.JWT.AccessSecret = nil
			},
			wantValid: false,
		},
		{
			name: "missing refresh secret",
			mutate: func(c *Config) {
				c.JWT.RefreshSecret = nil
			},
			wantValid: false,
		},
		{
			name: "equal secrets",
			mutate: func(c *Config) {
				c.JWT.RefreshSecret = append([]byte(nil), c.JWT.AccessSecret...)
			},
			wantValid: false,
		},
		{
			name: "refresh ttl shorter than access",
			mutate: func(c *Config) {
				c.JWT.RefreshTTL = time.Minute
			},
			wantValid: false,
		},
		{
			name: "leeway valid",
			mutate: func(c *Config) {
				c.JWT.Leeway = 30 * time.Second
			},
			wantValid: true,
		},
		{
			name: "leeway too large",
			mutate: func(c *Config) {
				c.JWT.Leeway = 3 * time.Minute
			},
			wantValid: false,
		},
		{
			name: "same cookie names",
			mutate: func(c *Config) {
				c.Cookie.RefreshName = c.Cookie.AccessName
			},
			wantValid: false,
		},
		{
			name: "samesite none without secure",
			mutate: func(c *Config) {
				c.Cookie.SameSite = http.SameSiteNoneMode
			},
			wantValid: false,
		},
		{
			name: "samesite none in production",
			mutate: func(c *Config) {
				c.Cookie.SameSite = http.SameSiteNoneMode
				c.Environment = EnvProduction
			},
			wantValid: true,
		},
		{
			name: "relative login path",
			mutate: func(c *Config) {
				c.Gate.LoginPath = "login"
			},
			wantValid: false,
		},
		{
			name: "relative prefix",
			mutate: func(c *Config) {
				c.Gate.ProtectedPrefixes = []string{"dashboard"}
			},
			wantValid: false,
		},
		{
			name: "redirect 301 rejected",
			mutate: func(c *Config) {
				c.Gate.RedirectStatus = http.StatusMovedPermanently
			},
			wantValid: false,
		},
		{
			name: "redirect 303 accepted",
			mutate: func(c *Config) {
				c.Gate.RedirectStatus = http.StatusSeeOther
			},
			wantValid: true,
		},
		{
			name: "zero store timeout",
			mutate: func(c *Config) {
				c.Store.Timeout = 0
			},
			wantValid: false,
		},
		{
			name: "unknown algorithm",
			mutate: func(c *Config) {
				c.Password.Algorithm = "md5"
			},
			wantValid: false,
		},
		{
			name: "policy longer than bcrypt input",
			mutate: func(c *Config) {
				c.Password.Policy.MaxLength = 100
			},
			wantValid: false,
		},
		{
			name: "policy longer with argon2id",
			mutate: func(c *Config) {
				c.Password.Algorithm = password.AlgorithmArgon2id
				c.Password.Policy.MaxLength = 100
			},
			wantValid: true,
		},
		{
			name: "negative login attempts",
			mutate: func(c *Config) {
				c.Security.MaxLoginAttempts = -1
			},
			wantValid: false,
		},
		{
			name: "histograms need metrics",
			mutate: func(c *Config) {
				c.Metrics.Enabled = false
				c.Metrics.EnableLatencyHistograms = true
			},
			wantValid: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantValid && err != nil {
				t.Fatalf("expected valid config, got %v", err)
			}
			if !tt.wantValid {
				if err == nil {
					t.Fatal("expected validation error")
				}
				if !errors.Is(err, ErrConfig) {
					t.Fatalf("expected ErrConfig, got %v", err)
				}
				if Kind(err) != KindConfig {
					t.Fatalf("expected CONFIG_ERROR kind, got %v", Kind(err))
				}
			}
		})
	}
}

func TestDefaultConfigValues(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.JWT.AccessTTL != 15*time.Minute || cfg.JWT.RefreshTTL != 7*24*time.Hour {
		t.Fatalf("unexpected ttls: %v %v", cfg.JWT.AccessTTL, cfg.JWT.RefreshTTL)
	}
	if cfg.Password.BcryptCost != 10 {
		t.Fatalf("expected bcrypt cost 10, got %d", cfg.Password.BcryptCost)
	}
	if cfg.Gate.LoginPath != "/login" || cfg.Gate.LandingPath != "/dashboard" {
		t.Fatalf("unexpected gate paths: %q %q", cfg.Gate.LoginPath, cfg.Gate.LandingPath)
	}
	if cfg.Gate.RedirectStatus != http.StatusTemporaryRedirect {
		t.Fatalf("expected 307, got %d", cfg.Gate.RedirectStatus)
	}
	if cfg.Store.Timeout != 5*time.Second {
		t.Fatalf("expected 5s store timeout, got %v", cfg.Store.Timeout)
	}
	if len(cfg.JWT.AccessSecret) != 0 || len(cfg.JWT.RefreshSecret) != 0 {
		t.Fatal("default config must not carry secrets")
	}
	if err := cfg.Validate(); !errors.Is(err, ErrConfig) {
		t.Fatalf("expected defaults without secrets to fail, got %v", err)
	}
}

func TestSecureCookies(t *testing.T) {
	cfg := testConfig()
	if cfg.SecureCookies() {
		t.Fatal("development config must not set Secure")
	}
	cfg.Environment = EnvProduction
	if !cfg.SecureCookies() {
		t.Fatal("production config must set Secure")
	}
	cfg.Environment = "staging"
	cfg.Cookie.AlwaysSecure = true
	if !cfg.SecureCookies() {
		t.Fatal("AlwaysSecure must set Secure")
	}
}

func TestBuildConfigImmutableAgainstExternalMutation(t *testing.T) {
	cfg := testConfig()
	_, rdb := newTestRedis(t)

	engine, err := New().WithConfig(cfg).WithRedis(rdb).WithCredentialStore(newMemUsers()).Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer engine.Close()

	cfg.JWT.AccessSecret[0] = 'X'
	cfg.Gate.ProtectedPrefixes[0] = "/elsewhere"

	got := engine.Config()
	if got.JWT.AccessSecret[0] == 'X' {
		t.Fatal("engine secret changed after external mutation")
	}
	if got.Gate.ProtectedPrefixes[0] != "/dashboard" {
		t.Fatalf("engine gate table changed: %v", got.Gate.ProtectedPrefixes)
	}
}
