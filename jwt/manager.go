package jwt

import (
	"errors"
	"fmt"
	"strings"
	"time"

	gjwt "github.com/golang-jwt/jwt/v5"
)

const maxLeeway = 2 * time.Minute

// Config configures one token type. Secret is copied by NewManager.
type Config struct {
	TTL    time.Duration
	Secret []byte
	Issuer string
	Leeway time.Duration
	// Now overrides the clock used for iat/exp stamping and expiry checks.
	Now func() time.Time
}

// Manager signs and verifies one token type with one secret. It is safe for
// concurrent use.
type Manager struct {
	config Config
}

// AccessClaims is the payload of an access token.
type AccessClaims struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	gjwt.RegisteredClaims
}

// Validate is invoked by the parser after the signature has verified.
func (c *AccessClaims) Validate() error {
	if strings.TrimSpace(c.ID) == "" {
		return fmt.Errorf("%w: id", errMissingClaim)
	}
	if strings.TrimSpace(c.Email) == "" {
		return fmt.Errorf("%w: email", errMissingClaim)
	}
	return nil
}

// RefreshClaims is the payload of a refresh token. TokenID is unique per issuance.
type RefreshClaims struct {
	ID      string `json:"id"`
	TokenID string `json:"tokenId"`
	gjwt.RegisteredClaims
}

// Validate is invoked by the parser after the signature has verified.
func (c *RefreshClaims) Validate() error {
	if strings.TrimSpace(c.ID) == "" {
		return fmt.Errorf("%w: id", errMissingClaim)
	}
	if strings.TrimSpace(c.TokenID) == "" {
		return fmt.Errorf("%w: tokenId", errMissingClaim)
	}
	return nil
}

// NewManager validates cfg. An empty secret returns [ErrMissingSecret]; there
// is no fallback secret.
func NewManager(cfg Config) (*Manager, error) {
	if len(cfg.Secret) == 0 {
		return nil, ErrMissingSecret
	}
	if cfg.TTL <= 0 {
		return nil, errors.New("invalid TTL configuration")
	}
	if cfg.Leeway < 0 || cfg.Leeway > maxLeeway {
		return nil, errors.New("invalid leeway configuration")
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	cfg.Secret = append([]byte(nil), cfg.Secret...)

	return &Manager{config: cfg}, nil
}

// TTL returns the lifetime stamped into tokens signed by this manager.
func (j *Manager) TTL() time.Duration {
	return j.config.TTL
}

// SignAccess returns an HS256 access token for the user and its expiry.
func (j *Manager) SignAccess(id, email string) (string, time.Time, error) {
	now := j.config.Now()
	claims := AccessClaims{
		ID:               id,
		Email:            email,
		RegisteredClaims: j.registered(now),
	}
	if err := claims.Validate(); err != nil {
		return "", time.Time{}, err
	}

	token, err := j.sign(&claims)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, claims.ExpiresAt.Time, nil
}

// SignRefresh returns an HS256 refresh token bound to tokenID and its expiry.
func (j *Manager) SignRefresh(id, tokenID string) (string, time.Time, error) {
	now := j.config.Now()
	claims := RefreshClaims{
		ID:               id,
		TokenID:          tokenID,
		RegisteredClaims: j.registered(now),
	}
	if err := claims.Validate(); err != nil {
		return "", time.Time{}, err
	}

	token, err := j.sign(&claims)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, claims.ExpiresAt.Time, nil
}

// ParseAccess verifies tokenStr with the manager's secret and returns its claims.
func (j *Manager) ParseAccess(tokenStr string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := parse(tokenStr, j.config.Secret, j.config.Leeway, j.config.Issuer, j.config.Now, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

// ParseRefresh verifies tokenStr with the manager's secret and returns its claims.
func (j *Manager) ParseRefresh(tokenStr string) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	if err := parse(tokenStr, j.config.Secret, j.config.Leeway, j.config.Issuer, j.config.Now, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

// VerifyAccess verifies an access token against secret using the wall clock
// and no leeway.
func VerifyAccess(tokenStr string, secret []byte) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := parse(tokenStr, secret, 0, "", time.Now, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

// VerifyRefresh verifies a refresh token against secret using the wall clock
// and no leeway.
func VerifyRefresh(tokenStr string, secret []byte) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	if err := parse(tokenStr, secret, 0, "", time.Now, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

// DecodeAccessUnverified reads the claims of an access token WITHOUT checking
// its signature or expiry. The result is untrusted.
func DecodeAccessUnverified(tokenStr string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if _, _, err := gjwt.NewParser().ParseUnverified(tokenStr, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if err := claims.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return claims, nil
}

func (j *Manager) registered(now time.Time) gjwt.RegisteredClaims {
	return gjwt.RegisteredClaims{
		Issuer:    j.config.Issuer,
		IssuedAt:  gjwt.NewNumericDate(now),
		ExpiresAt: gjwt.NewNumericDate(now.Add(j.config.TTL)),
	}
}

func (j *Manager) sign(claims gjwt.Claims) (string, error) {
	return gjwt.NewWithClaims(gjwt.SigningMethodHS256, claims).SignedString(j.config.Secret)
}

func parse(tokenStr string, secret []byte, leeway time.Duration, issuer string, now func() time.Time, claims gjwt.Claims) error {
	if len(secret) == 0 {
		return ErrMissingSecret
	}
	if strings.TrimSpace(tokenStr) == "" {
		return fmt.Errorf("%w: empty token", ErrMalformed)
	}

	options := []gjwt.ParserOption{
		gjwt.WithValidMethods([]string{gjwt.SigningMethodHS256.Alg()}),
		gjwt.WithExpirationRequired(),
		gjwt.WithTimeFunc(now),
	}
	if leeway > 0 {
		options = append(options, gjwt.WithLeeway(leeway))
	}
	if issuer != "" {
		options = append(options, gjwt.WithIssuer(issuer))
	}

	token, err := gjwt.NewParser(options...).ParseWithClaims(tokenStr, claims, func(t *gjwt.Token) (interface{}, error) {
		if t.Method.Alg() != gjwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("%w: unexpected signing algorithm %s", gjwt.ErrTokenSignatureInvalid, t.Method.Alg())
		}
		return secret, nil
	})
	if err != nil {
		return classify(err)
	}
	if !token.Valid {
		return fmt.Errorf("%w: token not valid", ErrMalformed)
	}
	return nil
}
