package password

import (
	"errors"
	"fmt"
	"strings"
)

// DefaultSpecials is the special-character set accepted by the default policy.
const DefaultSpecials = "@$!%*?&"

// ErrPolicy is wrapped by every policy violation.
var ErrPolicy = errors.New("password policy violation")

// Policy describes the strength rules applied at signup.
type Policy struct {
	MinLength      int
	MaxLength      int
	RequireUpper   bool
	RequireLower   bool
	RequireDigit   bool
	RequireSpecial bool
	// Specials lists the accepted special characters. When non-empty, any
	// character that is not a letter, a digit or one of Specials is rejected.
	Specials string
}

// DefaultPolicy requires 8..72 bytes with upper, lower, digit and one of
// [DefaultSpecials]. 72 is the bcrypt input limit.
func DefaultPolicy() Policy {
	return Policy{
		MinLength:      8,
		MaxLength:      72,
		RequireUpper:   true,
		RequireLower:   true,
		RequireDigit:   true,
		RequireSpecial: true,
		Specials:       DefaultSpecials,
	}
}

// Check returns nil when password satisfies p, otherwise an error wrapping
// [ErrPolicy] that names every failed rule.
func (p Policy) Check(password string) error {
	var failed []string

	if p.MinLength > 0 && len(password) < p.MinLength {
		failed = append(failed, fmt.Sprintf("at least %d characters", p.MinLength))
	}
	if p.MaxLength > 0 && len(password) > p.MaxLength {
		failed = append(failed, fmt.Sprintf("at most %d characters", p.MaxLength))
	}

	var upper, lower, digit, special, foreign bool
	for _, r := range password {
		switch {
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= '0' && r <= '9':
			digit = true
		case p.Specials == "" || strings.ContainsRune(p.Specials, r):
			special = true
		default:
			foreign = true
		}
	}

	if p.RequireUpper && !upper {
		failed = append(failed, "an uppercase letter")
	}
	if p.RequireLower && !lower {
		failed = append(failed, "a lowercase letter")
	}
	if p.RequireDigit && !digit {
		failed = append(failed, "a digit")
	}
	if p.RequireSpecial && !special {
		failed = append(failed, "a special character")
	}
	if foreign {
		failed = append(failed, "only letters, digits and "+p.Specials)
	}

	if len(failed) == 0 {
		return nil
	}
	return fmt.Errorf("%w: password must contain %s", ErrPolicy, strings.Join(failed, ", "))
}
