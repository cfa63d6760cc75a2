package errors

import "errors"

var (
	ErrCollectionNotFound    = errors.New("collection not found")
	ErrTsumegoNotFound       = errors.New("tsumego not found")
	ErrValueNotFound         = errors.New("position has no solved value")
	ErrPositionNotFound      = errors.New("position is not part of the solved graph")
	ErrTerminalNotScored     = errors.New("terminal result has no recorded score")
	ErrSessionNotInitialized = errors.New("analysis session is not initialized")
	ErrMalformedGraph        = errors.New("malformed solved graph")
	ErrMalformedPosition     = errors.New("malformed position")
	ErrMalformedCollection   = errors.New("malformed collection")
	ErrInternal              = errors.New("internal error")
)
