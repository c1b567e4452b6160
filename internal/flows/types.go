package flows

import (
	"strings"
	"time"
)

// Identity is the flow-local user identity.
type Identity struct {
	ID    string
	Email string
}

// UserRecord is the flow-local credential-store row.
type UserRecord struct {
	ID           string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// NormalizeEmail trims and lower-cases an email address before lookup or
// storage.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
