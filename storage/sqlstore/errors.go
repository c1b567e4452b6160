package sqlstore

import "errors"

// ErrUnknownDialect is returned for a dialect other than sqlite or pgx.
var ErrUnknownDialect = errors.New("sqlstore: unknown dialect")
