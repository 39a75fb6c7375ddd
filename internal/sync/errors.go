package sync

import "errors"

// Sentinel kinds for sync engine failures.
var (
	ErrUnknownTarget     = errors.New("unknown sync target")
	ErrNoCredentials     = errors.New("remote store credentials not configured")
	ErrResyncUnsupported = errors.New("target does not support resync by date")
)
