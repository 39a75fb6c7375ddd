package turso

import "errors"

// ErrTransport marks request-level failures where no statement reached the
// database, as opposed to per-statement errors in an otherwise healthy
// pipeline response.
var ErrTransport = errors.New("pipeline transport failure")
