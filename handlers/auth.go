package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"time"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/internal/logging"
	"github.com/MrEthical07/goSession/middleware"
	"github.com/sethvargo/go-retry"
)

const (
	maxBodyBytes        = 1 << 20
	defaultRetryBackoff = 50 * time.Millisecond
)

// Auth serves the authentication endpoints.
type Auth struct {
	engine       *goSession.Engine
	logger       logging.Logger
	retryBackoff time.Duration
}

// NewAuth returns the handlers for engine. A nil logger wraps slog.Default.
func NewAuth(engine *goSession.Engine, logger logging.Logger) *Auth {
	if logger == nil {
		logger = logging.NewSlogLogger(nil)
	}
	return &Auth{
		engine:       engine,
		logger:       logger,
		retryBackoff: defaultRetryBackoff,
	}
}

// WithRetryBackoff sets the pause before the single store retry.
func (h *Auth) WithRetryBackoff(d time.Duration) *Auth {
	h.retryBackoff = d
	return h
}

// Register mounts every endpoint on mux. /api/me is wrapped in
// middleware.RequireIdentity; the page routes rely on middleware.Gate
// wrapping the whole mux.
func (h *Auth) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /login", h.Login)
	mux.HandleFunc("POST /logout", h.Logout)
	mux.HandleFunc("POST /signup", h.Signup)
	mux.HandleFunc("POST /api/refresh-token", h.Refresh)
	mux.Handle("GET /api/me", middleware.RequireIdentity(h.engine)(http.HandlerFunc(h.Me)))
	mux.HandleFunc("GET /healthz", h.Healthz)

	gate := h.engine.Config().Gate
	for _, prefix := range gate.ProtectedPrefixes {
		mux.HandleFunc("GET "+prefix, h.Page)
		mux.HandleFunc("GET "+prefix+"/", h.Page)
	}
	for _, prefix := range gate.AuthPrefixes {
		mux.HandleFunc("GET "+prefix, h.AuthPage)
	}
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// readCredentials accepts a JSON body or a URL-encoded form.
func readCredentials(w http.ResponseWriter, r *http.Request) (credentials, error) {
	var c credentials
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
			return c, err
		}
		return c, nil
	}

	if err := r.ParseForm(); err != nil {
		return c, err
	}
	c.Email = r.PostFormValue("email")
	c.Password = r.PostFormValue("password")
	return c, nil
}

// withRetry runs fn and, when it fails with a store outage, runs it once more.
func (h *Auth) withRetry(ctx context.Context, op string, fn func(context.Context) error) error {
	backoff := retry.WithMaxRetries(1, retry.NewConstant(h.retryBackoff))
	attempt := 0
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		err := fn(ctx)
		if errors.Is(err, goSession.ErrStoreUnavailable) {
			h.logger.Warn(ctx, "store unavailable", "op", op, "attempt", attempt, "error", err)
			return retry.RetryableError(err)
		}
		return err
	})
}

func (h *Auth) requestContext(r *http.Request) *goSession.RequestContext {
	rc := goSession.NewRequestContext(r)
	rc.ClientIP = goSession.ClientIPFromContext(r.Context())
	return rc
}

// Login handles POST /login.
func (h *Auth) Login(w http.ResponseWriter, r *http.Request) {
	creds, err := readCredentials(w, r)
	if err != nil {
		ErrorWithMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	rc := h.requestContext(r)
	var res *goSession.LoginResult
	err = h.withRetry(r.Context(), "login", func(ctx context.Context) error {
		var err error
		res, err = h.engine.Login(ctx, rc, creds.Email, creds.Password)
		return err
	})
	if err != nil {
		Error(w, err)
		return
	}

	rc.WriteCookies(w)
	writeJSON(w, http.StatusOK, APIResponse{
		Success:  true,
		Data:     res.Identity,
		Redirect: res.Redirect,
	})
}

// Logout handles POST /logout. Cookies are cleared even when revocation
// fails.
func (h *Auth) Logout(w http.ResponseWriter, r *http.Request) {
	rc := h.requestContext(r)
	res, err := h.engine.Logout(r.Context(), rc)
	rc.WriteCookies(w)
	if err != nil {
		Error(w, err)
		return
	}

	writeJSON(w, http.StatusOK, APIResponse{Success: true, Redirect: res.Redirect})
}

// Signup handles POST /signup.
func (h *Auth) Signup(w http.ResponseWriter, r *http.Request) {
	creds, err := readCredentials(w, r)
	if err != nil {
		ErrorWithMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	identity, err := h.engine.Signup(r.Context(), creds.Email, creds.Password)
	if err != nil {
		Error(w, err)
		return
	}

	JSON(w, http.StatusCreated, identity)
}

// Refresh handles POST /api/refresh-token.
func (h *Auth) Refresh(w http.ResponseWriter, r *http.Request) {
	rc := h.requestContext(r)
	var res *goSession.RefreshResult
	err := h.withRetry(r.Context(), "refresh", func(ctx context.Context) error {
		var err error
		res, err = h.engine.Refresh(ctx, rc)
		return err
	})
	if err != nil {
		Error(w, err)
		return
	}

	rc.WriteCookies(w)
	JSON(w, http.StatusOK, map[string]any{
		"user":              res.Identity,
		"access_expires_at": res.AccessExpiresAt.UTC(),
	})
}

// Me handles GET /api/me.
func (h *Auth) Me(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		ErrorWithMessage(w, http.StatusUnauthorized, "authentication required")
		return
	}
	JSON(w, http.StatusOK, id)
}

// Page serves a protected page. The gate has already verified the caller.
func (h *Auth) Page(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		http.Redirect(w, r, h.engine.Config().Gate.LoginPath, h.engine.Config().Gate.RedirectStatus)
		return
	}
	JSON(w, http.StatusOK, map[string]any{
		"page": r.URL.Path,
		"user": id,
	})
}

// AuthPage serves the login and signup pages to anonymous callers; the gate
// redirects authenticated ones before they get here.
func (h *Auth) AuthPage(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, map[string]string{"page": r.URL.Path})
}

// Healthz handles GET /healthz.
func (h *Auth) Healthz(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.Ping(r.Context()); err != nil {
		Error(w, err)
		return
	}
	JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
