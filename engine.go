package goSession

import (
	"context"
	"fmt"
	"time"

	"github.com/MrEthical07/goSession/internal/audit"
	"github.com/MrEthical07/goSession/internal/flows"
	"github.com/MrEthical07/goSession/internal/logging"
	"github.com/MrEthical07/goSession/internal/rate"
	"github.com/MrEthical07/goSession/jwt"
	"github.com/MrEthical07/goSession/password"
)

const defaultLoginPath = "/login"

// Engine is the session authentication core. It is built once by [Builder]
// and is safe for concurrent use.
type Engine struct {
	config      Config
	sessions    SessionStore
	credentials CredentialStore
	hasher      password.Hasher
	access      *jwt.Manager
	refresh     *jwt.Manager
	limiter     *rate.Limiter
	audit       *audit.Dispatcher
	metrics     *Metrics
	logger      logging.Logger
	clock       func() time.Time
	flows       flows.Service
}

func (e *Engine) ready() bool {
	return e != nil && e.flows.Initialized()
}

// Config returns a copy of the engine configuration.
func (e *Engine) Config() Config {
	if e == nil {
		return DefaultConfig()
	}
	return cloneConfig(e.config)
}

// Close flushes pending activity events and stops the dispatcher.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	e.audit.Close()
}

// AuditDropped returns how many activity events were dropped on a full buffer.
func (e *Engine) AuditDropped() uint64 {
	if e == nil {
		return 0
	}
	return e.audit.Dropped()
}

// AuditFailed returns how many activity events the sink rejected.
func (e *Engine) AuditFailed() uint64 {
	if e == nil {
		return 0
	}
	return e.audit.Failed()
}

// MetricsSnapshot returns a point-in-time copy of the counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

// Ping checks the session store.
func (e *Engine) Ping(ctx context.Context) error {
	if !e.ready() {
		return ErrEngineNotReady
	}
	ctx, cancel := e.storeContext(ctx)
	defer cancel()

	if err := e.sessions.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

/*
====================================
CREDENTIALS AND ISSUANCE
====================================
*/

// VerifyCredentials checks email and password against the credential store.
//
// Malformed input fails with [ErrValidation] before the store is consulted.
// An unknown email and a wrong password both fail with
// [ErrInvalidCredentials]; the internal cause ([ErrUserNotFound] or
// [ErrInvalidPassword]) stays reachable through errors.Is. A store failure
// wraps [ErrStoreUnavailable].
func (e *Engine) VerifyCredentials(ctx context.Context, email, password string) (UserIdentity, error) {
	if !e.ready() {
		return UserIdentity{}, ErrEngineNotReady
	}

	res := e.flows.VerifyCredentials(ctx, email, password)
	switch res.Failure {
	case flows.VerifyFailureNone:
		return UserIdentity{ID: res.Identity.ID, Email: res.Identity.Email}, nil
	case flows.VerifyFailureValidation:
		return UserIdentity{}, fmt.Errorf("%w: %v", ErrValidation, res.Err)
	case flows.VerifyFailureUserNotFound:
		return UserIdentity{}, fmt.Errorf("%w: %w", ErrInvalidCredentials, ErrUserNotFound)
	case flows.VerifyFailureInvalidPassword:
		return UserIdentity{}, fmt.Errorf("%w: %w", ErrInvalidCredentials, ErrInvalidPassword)
	case flows.VerifyFailureStore:
		return UserIdentity{}, res.Err
	default:
		// An unreadable stored hash never authenticates.
		e.logger.Error(ctx, "password hash verification failed", "error", res.Err)
		return UserIdentity{}, fmt.Errorf("%w: %w", ErrInvalidCredentials, ErrInvalidPassword)
	}
}

// Issue mints an access/refresh pair for identity and persists the refresh
// record before returning. If persistence fails no tokens are returned and
// the error wraps [ErrStoreUnavailable].
func (e *Engine) Issue(ctx context.Context, identity UserIdentity) (TokenPair, error) {
	if !e.ready() {
		return TokenPair{}, ErrEngineNotReady
	}

	res := e.flows.Issue(ctx, flows.Identity{ID: identity.ID, Email: identity.Email})
	if res.Failure != flows.IssueFailureNone {
		return TokenPair{}, e.issueErr(ctx, res)
	}
	e.metricInc(MetricTokensIssued)
	return tokenPair(res), nil
}

func (e *Engine) issueErr(ctx context.Context, res flows.IssueResult) error {
	if res.Failure == flows.IssueFailurePersist {
		return res.Err
	}
	e.logger.Error(ctx, "token issuance failed", "error", res.Err)
	return fmt.Errorf("goSession: issue tokens: %w", res.Err)
}

func tokenPair(res flows.IssueResult) TokenPair {
	return TokenPair{
		AccessToken:      res.AccessToken,
		RefreshToken:     res.RefreshToken,
		TokenID:          res.TokenID,
		AccessExpiresAt:  res.AccessExpiresAt,
		RefreshExpiresAt: res.RefreshExpiresAt,
	}
}

/*
====================================
LOGIN
====================================
*/

// Login verifies credentials, issues a token pair and, when rc is non-nil,
// appends the access and refresh cookies to rc.SetCookies. The client IP for
// throttling and activity is taken from rc or from [WithClientIP].
//
// Errors match [Engine.VerifyCredentials] and [Engine.Issue], plus
// [ErrLoginRateLimited] while the email or IP is throttled. A failed login
// sets no cookies.
func (e *Engine) Login(ctx context.Context, rc *RequestContext, email, password string) (*LoginResult, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}
	ctx = withRequestIP(ctx, rc)

	res := e.flows.Login(ctx, email, password, clientIPFromContext(ctx))
	if res.Failure != flows.LoginFailureNone {
		err := e.loginErr(ctx, res)
		e.emitActivity(ctx, EventLogin, false, res.Identity.ID, err, nil)
		return nil, err
	}

	e.metricInc(MetricLoginSuccess)
	e.metricInc(MetricTokensIssued)

	pair := tokenPair(res.Issue)
	if rc != nil {
		rc.SetCookie(e.AccessCookie(pair.AccessToken, e.config.JWT.AccessTTL))
		rc.SetCookie(e.RefreshCookie(pair.RefreshToken, e.config.JWT.RefreshTTL))
	}

	identity := UserIdentity{ID: res.Identity.ID, Email: res.Identity.Email}
	e.emitActivity(ctx, EventLogin, true, identity.ID, nil, map[string]string{"token_id": pair.TokenID})
	e.logger.Debug(ctx, "login succeeded", "user_id", identity.ID)

	return &LoginResult{
		Identity: identity,
		Tokens:   pair,
		Redirect: e.config.Gate.LandingPath,
	}, nil
}

func (e *Engine) loginErr(ctx context.Context, res flows.LoginResult) error {
	switch res.Failure {
	case flows.LoginFailureValidation:
		e.metricInc(MetricLoginFailure)
		return fmt.Errorf("%w: %v", ErrValidation, res.Err)
	case flows.LoginFailureRateLimited:
		e.metricInc(MetricLoginRateLimited)
		return ErrLoginRateLimited
	case flows.LoginFailureUserNotFound:
		e.metricInc(MetricLoginFailure)
		return fmt.Errorf("%w: %w", ErrInvalidCredentials, ErrUserNotFound)
	case flows.LoginFailureInvalidPassword:
		e.metricInc(MetricLoginFailure)
		return fmt.Errorf("%w: %w", ErrInvalidCredentials, ErrInvalidPassword)
	case flows.LoginFailureStore:
		e.metricInc(MetricLoginFailure)
		e.logger.Warn(ctx, "login store failure", "error", res.Err)
		return res.Err
	case flows.LoginFailureIssue:
		e.metricInc(MetricLoginFailure)
		if res.Issue.Failure == flows.IssueFailurePersist {
			e.logger.Warn(ctx, "refresh record not persisted", "user_id", res.Identity.ID, "error", res.Err)
		}
		return e.issueErr(ctx, res.Issue)
	default:
		e.metricInc(MetricLoginFailure)
		e.logger.Error(ctx, "password hash verification failed", "error", res.Err)
		return fmt.Errorf("%w: %w", ErrInvalidCredentials, ErrInvalidPassword)
	}
}

/*
====================================
SIGNUP
====================================
*/

// Signup creates a user after checking the email format and the password
// policy. It does not log the user in.
//
// Errors: [ErrValidation], [ErrPasswordPolicy], [ErrAccountExists], or a
// wrapped [ErrStoreUnavailable].
func (e *Engine) Signup(ctx context.Context, email, password string) (UserIdentity, error) {
	if !e.ready() {
		return UserIdentity{}, ErrEngineNotReady
	}

	res := e.flows.Signup(ctx, email, password)
	var err error
	switch res.Failure {
	case flows.SignupFailureNone:
		e.metricInc(MetricSignupSuccess)
		identity := UserIdentity{ID: res.Identity.ID, Email: res.Identity.Email}
		e.emitActivity(ctx, EventSignup, true, identity.ID, nil, nil)
		return identity, nil
	case flows.SignupFailureValidation:
		e.metricInc(MetricSignupRejected)
		err = fmt.Errorf("%w: %v", ErrValidation, res.Err)
	case flows.SignupFailurePolicy:
		e.metricInc(MetricSignupRejected)
		err = res.Err
	case flows.SignupFailureDuplicate:
		e.metricInc(MetricSignupDuplicate)
		err = ErrAccountExists
	case flows.SignupFailureStore:
		e.logger.Warn(ctx, "signup store failure", "error", res.Err)
		err = res.Err
	default:
		e.logger.Error(ctx, "signup failed", "error", res.Err)
		err = fmt.Errorf("goSession: signup: %w", res.Err)
	}

	e.emitActivity(ctx, EventSignup, false, "", err, nil)
	return UserIdentity{}, err
}

/*
====================================
REFRESH
====================================
*/

// Refresh reads the refresh cookie from rc and, when rc is non-nil, appends
// a new access cookie on success. The refresh token is not rotated.
func (e *Engine) Refresh(ctx context.Context, rc *RequestContext) (*RefreshResult, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}
	ctx = withRequestIP(ctx, rc)

	res, err := e.RefreshToken(ctx, rc.Cookie(e.config.Cookie.RefreshName))
	if err != nil {
		return nil, err
	}
	if rc != nil {
		rc.SetCookie(e.AccessCookie(res.AccessToken, e.config.JWT.AccessTTL))
	}
	return res, nil
}

// RefreshToken mints a new access token from a raw refresh token. A live
// record for the token id must exist and be owned by the token's subject.
//
// Errors: [ErrTokenInvalid] (wrapping the jwt cause), [ErrRefreshRevoked],
// [ErrRefreshRateLimited], or a wrapped [ErrStoreUnavailable].
func (e *Engine) RefreshToken(ctx context.Context, refreshToken string) (*RefreshResult, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}

	res := e.flows.Refresh(ctx, refreshToken)
	if res.Failure != flows.RefreshFailureNone {
		err := e.refreshErr(ctx, res)
		e.emitActivity(ctx, EventRefresh, false, res.UserID, err, nil)
		return nil, err
	}

	e.metricInc(MetricRefreshSuccess)
	e.emitActivity(ctx, EventRefresh, true, res.Identity.ID, nil, map[string]string{"token_id": res.TokenID})

	return &RefreshResult{
		Identity:        UserIdentity{ID: res.Identity.ID, Email: res.Identity.Email},
		AccessToken:     res.AccessToken,
		AccessExpiresAt: res.AccessExpiresAt,
	}, nil
}

func (e *Engine) refreshErr(ctx context.Context, res flows.RefreshResult) error {
	switch res.Failure {
	case flows.RefreshFailureToken:
		e.metricInc(MetricRefreshFailure)
		return fmt.Errorf("%w: %w", ErrTokenInvalid, res.Err)
	case flows.RefreshFailureRateLimited:
		e.metricInc(MetricRefreshRateLimited)
		return ErrRefreshRateLimited
	case flows.RefreshFailureRevoked, flows.RefreshFailureUserGone:
		e.metricInc(MetricRefreshRevoked)
		return ErrRefreshRevoked
	case flows.RefreshFailureMismatch:
		e.metricInc(MetricRefreshRevoked)
		e.logger.Warn(ctx, "refresh token does not match its record", "token_id", res.TokenID, "user_id", res.UserID)
		return ErrRefreshRevoked
	case flows.RefreshFailureStore:
		e.metricInc(MetricRefreshFailure)
		e.logger.Warn(ctx, "refresh store failure", "error", res.Err)
		return res.Err
	default:
		e.metricInc(MetricRefreshFailure)
		e.logger.Error(ctx, "access token signing failed", "error", res.Err)
		return fmt.Errorf("goSession: refresh: %w", res.Err)
	}
}

/*
====================================
LOGOUT
====================================
*/

// Logout revokes every refresh record of the user named by the access
// cookie and always appends the two clearing cookies to rc.
//
// The access token is verified before anything is revoked; an absent or
// unverifiable token makes logout an anonymous no-op. When revocation fails
// the cookies are still cleared and the error wraps [ErrStoreUnavailable].
func (e *Engine) Logout(ctx context.Context, rc *RequestContext) (*LogoutResult, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}
	ctx = withRequestIP(ctx, rc)

	res := e.flows.Logout(ctx, rc.Cookie(e.config.Cookie.AccessName))
	for _, c := range e.ClearCookies() {
		rc.SetCookie(c)
	}

	out := &LogoutResult{Redirect: e.config.Gate.LoginPath}
	if res.Identity == nil {
		e.metricInc(MetricLogoutAnonymous)
		return out, nil
	}
	out.Identity = &UserIdentity{ID: res.Identity.ID, Email: res.Identity.Email}

	if res.Failure != flows.LogoutFailureNone {
		e.logger.Warn(ctx, "logout revocation failed", "user_id", res.Identity.ID, "error", res.Err)
		e.emitActivity(ctx, EventLogout, false, res.Identity.ID, res.Err, nil)
		return out, res.Err
	}

	out.Revoked = res.Revoked
	e.metricInc(MetricLogout)
	for i := 0; i < res.Revoked; i++ {
		e.metricInc(MetricRecordsRevoked)
	}
	e.emitActivity(ctx, EventLogout, true, res.Identity.ID, nil, map[string]string{"revoked": fmt.Sprint(res.Revoked)})
	return out, nil
}

/*
====================================
TOKEN INSPECTION
====================================
*/

// VerifyAccess verifies an access token and returns its identity. Errors
// wrap [ErrTokenInvalid] and one of the jwt causes.
func (e *Engine) VerifyAccess(token string) (*UserIdentity, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}
	claims, err := e.access.ParseAccess(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}
	return &UserIdentity{ID: claims.ID, Email: claims.Email}, nil
}

// VerifyRefresh verifies a refresh token's signature and expiry. It does not
// consult the session store.
func (e *Engine) VerifyRefresh(token string) (*jwt.RefreshClaims, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}
	claims, err := e.refresh.ParseRefresh(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}
	return claims, nil
}

// DecodeAccess reads an access token's claims without checking its
// signature or expiry. The result must never authorize anything.
func (e *Engine) DecodeAccess(token string) (*UserIdentity, error) {
	claims, err := jwt.DecodeAccessUnverified(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}
	return &UserIdentity{ID: claims.ID, Email: claims.Email}, nil
}

/*
====================================
GATE
====================================
*/

// Gate decides whether the request in rc continues or redirects. It does no
// I/O. A nil or unbuilt engine redirects every request to the login path.
func (e *Engine) Gate(rc *RequestContext) GateDecision {
	if !e.ready() {
		return GateDecision{Action: GateRedirect, Location: defaultLoginPath, Reason: flows.GateReasonMisconfigured}
	}

	var start time.Time
	if e.metrics.LatencyEnabled() {
		start = time.Now()
	}

	path := ""
	if rc != nil {
		path = rc.Path
	}
	res := e.flows.Gate(path, rc.Cookie(e.config.Cookie.AccessName))

	decision := GateDecision{
		Location: res.Location,
		Class:    res.Class,
		Reason:   res.Reason,
	}
	if res.Identity != nil {
		decision.Identity = &UserIdentity{ID: res.Identity.ID, Email: res.Identity.Email}
	}
	switch res.Action {
	case flows.GateRedirect:
		decision.Action = GateRedirect
		e.metricInc(MetricGateRedirect)
	default:
		decision.Action = GateContinue
		e.metricInc(MetricGateContinue)
	}
	if res.Reason == flows.GateReasonMisconfigured {
		e.metricInc(MetricGateMisconfigured)
	}
	if res.TokenErr != nil {
		e.logger.Debug(context.Background(), "gate rejected access token", "path", path, "error", res.TokenErr)
	}

	if !start.IsZero() {
		e.metrics.Observe(MetricGateLatency, time.Since(start))
	}
	return decision
}

func withRequestIP(ctx context.Context, rc *RequestContext) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if rc != nil && rc.ClientIP != "" && clientIPFromContext(ctx) == "" {
		ctx = WithClientIP(ctx, rc.ClientIP)
	}
	return ctx
}
