package service

import "errors"

// ErrNotConfigured marks missing wiring detected at startup or on use.
var ErrNotConfigured = errors.New("service not configured")
