package source

import "errors"

// Sentinel errors for source access failures.
var (
	ErrSheetNotFound = errors.New("sheet not found")
	ErrUnavailable   = errors.New("source unavailable")
	ErrUnknownSource = errors.New("unknown source")
)
