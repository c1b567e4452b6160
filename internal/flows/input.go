package flows

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"
)

var (
	errEmptyEmail    = errors.New("email is required")
	errEmptyPassword = errors.New("password is required")
	errEmailFormat   = errors.New("email is not a valid address")
)

// InputRules bounds login input before any store access. A zero value only
// rejects empty fields.
type InputRules struct {
	CheckEmailFormat  bool
	MinPasswordLength int
	MaxPasswordLength int
}

// CheckEmail reports whether email is a bare address ("a@b.c"), rejecting
// display-name forms such as "Bob <a@b.c>".
func CheckEmail(email string) error {
	if email == "" {
		return errEmptyEmail
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || !strings.Contains(email[strings.LastIndexByte(email, '@')+1:], ".") {
		return errEmailFormat
	}
	return nil
}

// CheckLoginInput applies rules to an already-normalized email and a raw
// password.
func CheckLoginInput(email, password string, rules InputRules) error {
	if email == "" {
		return errEmptyEmail
	}
	if password == "" {
		return errEmptyPassword
	}
	if rules.CheckEmailFormat {
		if err := CheckEmail(email); err != nil {
			return err
		}
	}
	if rules.MinPasswordLength > 0 && len(password) < rules.MinPasswordLength {
		return fmt.Errorf("password must be at least %d characters", rules.MinPasswordLength)
	}
	if rules.MaxPasswordLength > 0 && len(password) > rules.MaxPasswordLength {
		return fmt.Errorf("password must be at most %d characters", rules.MaxPasswordLength)
	}
	return nil
}
