package goSession

import (
	"errors"
	"net/http"

	"github.com/MrEthical07/goSession/jwt"
	"github.com/MrEthical07/goSession/password"
)

// ErrorKind is the coarse failure class of an error returned by the Engine.
type ErrorKind int

const (
	// KindUnknown is returned for errors that carry no goSession sentinel.
	KindUnknown ErrorKind = iota
	// KindValidation is malformed, user-correctable input.
	KindValidation
	// KindAuth is a rejected identity: unknown user, wrong password, invalid
	// or revoked token.
	KindAuth
	// KindConfig is a fatal misconfiguration. It is never retried.
	KindConfig
	// KindStoreUnavailable is a transient persistence failure.
	KindStoreUnavailable
	// KindToken is a token-level verification failure (expired, malformed,
	// bad signature).
	KindToken
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "VALIDATION_ERROR"
	case KindAuth:
		return "AUTH_ERROR"
	case KindConfig:
		return "CONFIG_ERROR"
	case KindStoreUnavailable:
		return "STORE_UNAVAILABLE"
	case KindToken:
		return "TOKEN_ERROR"
	default:
		return "UNKNOWN"
	}
}

var (
	// ErrValidation marks malformed input such as a missing email or password.
	ErrValidation = errors.New("invalid request")
	// ErrPasswordPolicy is returned by Signup for a password that fails the
	// strength policy. It is re-exported from the password package.
	ErrPasswordPolicy = password.ErrPolicy
	// ErrAccountExists is returned by Signup for an email that is already registered.
	ErrAccountExists = errors.New("account already exists")

	// ErrInvalidCredentials is the user-facing login failure. It wraps both
	// [ErrUserNotFound] and [ErrInvalidPassword].
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUserNotFound is the internal cause of a login against an unknown email.
	// CredentialStore implementations may also return it for a missing user.
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidPassword is the internal cause of a login with a wrong password.
	ErrInvalidPassword = errors.New("invalid password")
	// ErrTokenInvalid wraps any access or refresh token that failed verification.
	ErrTokenInvalid = errors.New("invalid token")
	// ErrRefreshRevoked is returned when no live record backs a refresh token.
	ErrRefreshRevoked = errors.New("refresh token revoked")
	// ErrLoginRateLimited is returned while an email or IP is throttled.
	ErrLoginRateLimited = errors.New("login rate limited")
	// ErrRefreshRateLimited is returned while a refresh token is throttled.
	ErrRefreshRateLimited = errors.New("refresh rate limited")

	// ErrConfig marks a fatal misconfiguration, including missing secrets.
	ErrConfig = errors.New("configuration error")
	// ErrEngineNotReady is returned by methods on a nil or unbuilt Engine.
	ErrEngineNotReady = errors.New("engine not initialized")

	// ErrStoreUnavailable wraps every credential or session store failure.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrTokenExpired is re-exported from the jwt package.
	ErrTokenExpired = jwt.ErrExpired
	// ErrTokenMalformed is re-exported from the jwt package.
	ErrTokenMalformed = jwt.ErrMalformed
	// ErrTokenBadSignature is re-exported from the jwt package.
	ErrTokenBadSignature = jwt.ErrBadSignature
)

// Kind classifies err. Store and config checks come first so a wrapped
// backend failure is never reported as an auth failure.
func Kind(err error) ErrorKind {
	switch {
	case err == nil:
		return KindUnknown
	case errors.Is(err, ErrConfig), errors.Is(err, ErrEngineNotReady), errors.Is(err, jwt.ErrMissingSecret):
		return KindConfig
	case errors.Is(err, ErrStoreUnavailable):
		return KindStoreUnavailable
	case errors.Is(err, ErrValidation), errors.Is(err, ErrPasswordPolicy), errors.Is(err, ErrAccountExists):
		return KindValidation
	case errors.Is(err, ErrTokenExpired), errors.Is(err, ErrTokenMalformed), errors.Is(err, ErrTokenBadSignature):
		if errors.Is(err, ErrRefreshRevoked) {
			return KindAuth
		}
		return KindToken
	case errors.Is(err, ErrInvalidCredentials),
		errors.Is(err, ErrUserNotFound),
		errors.Is(err, ErrInvalidPassword),
		errors.Is(err, ErrTokenInvalid),
		errors.Is(err, ErrRefreshRevoked),
		errors.Is(err, ErrLoginRateLimited),
		errors.Is(err, ErrRefreshRateLimited):
		return KindAuth
	default:
		return KindUnknown
	}
}

// HTTPStatus maps err to a response status.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrAccountExists):
		return http.StatusConflict
	case errors.Is(err, ErrLoginRateLimited), errors.Is(err, ErrRefreshRateLimited):
		return http.StatusTooManyRequests
	}

	switch Kind(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindAuth, KindToken:
		return http.StatusUnauthorized
	case KindStoreUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage returns a user-safe message for err. Unknown user and wrong
// password produce the same text.
func PublicMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidCredentials), errors.Is(err, ErrUserNotFound), errors.Is(err, ErrInvalidPassword):
		return "invalid email or password"
	case errors.Is(err, ErrLoginRateLimited), errors.Is(err, ErrRefreshRateLimited):
		return "too many attempts, try again later"
	case errors.Is(err, ErrAccountExists):
		return "an account with this email already exists"
	case errors.Is(err, ErrPasswordPolicy), errors.Is(err, ErrValidation):
		// Validation causes are built from fixed strings and never echo input.
		return err.Error()
	}

	switch Kind(err) {
	case KindAuth, KindToken:
		return "authentication required"
	case KindStoreUnavailable:
		return "service temporarily unavailable"
	default:
		return "internal server error"
	}
}
