package normalize

import "errors"

// Sentinel kinds for row-level normalization outcomes.
var (
	ErrRowShape = errors.New("row has wrong column count")
	ErrBlankRow = errors.New("blank row")
)
