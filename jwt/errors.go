package jwt

import (
	"errors"
	"fmt"

	gjwt "github.com/golang-jwt/jwt/v5"
)

var (
	// ErrExpired is returned for a correctly signed token past its exp claim.
	ErrExpired = errors.New("token expired")
	// ErrMalformed is returned for tokens that cannot be parsed or that lack a required claim.
	ErrMalformed = errors.New("token malformed")
	// ErrBadSignature is returned when the signature does not verify or the algorithm is not HS256.
	ErrBadSignature = errors.New("token signature invalid")
	// ErrMissingSecret is returned by NewManager when no signing secret is configured.
	ErrMissingSecret = errors.New("signing secret not configured")

	errMissingClaim = errors.New("required claim missing")
)

// classify folds parser errors into the three verification failures. The
// signature check runs before claim validation inside the parser, so an
// expired token is only ever reported after its signature verified.
func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gjwt.ErrTokenSignatureInvalid), errors.Is(err, gjwt.ErrTokenUnverifiable):
		return fmt.Errorf("%w: %v", ErrBadSignature, err)
	case errors.Is(err, gjwt.ErrTokenExpired):
		return fmt.Errorf("%w: %v", ErrExpired, err)
	default:
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
}
