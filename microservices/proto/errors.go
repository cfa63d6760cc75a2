package proto

import (
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	ownErrors "tsumego_exe/internal/errors"
)

var statusErrors = []struct {
	code codes.Code
	err  error
}{
	{codes.NotFound, ownErrors.ErrCollectionNotFound},
	{codes.InvalidArgument, ownErrors.ErrMalformedPosition},
	{codes.FailedPrecondition, ownErrors.ErrValueNotFound},
	{codes.FailedPrecondition, ownErrors.ErrPositionNotFound},
	{codes.Internal, ownErrors.ErrTerminalNotScored},
	{codes.Unavailable, ownErrors.ErrSessionNotInitialized},
}

// ErrorToStatus converts an analysis error into a gRPC status the client can map back.
func ErrorToStatus(err error) error {
	if err == nil {
		return nil
	}
	for _, se := range statusErrors {
		if errors.Is(err, se.err) {
			return status.Error(se.code, err.Error())
		}
	}
	return status.Error(codes.Internal, err.Error())
}

// StatusToError restores the sentinel error behind a status returned by ErrorToStatus.
func StatusToError(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	switch st.Code() {
	case codes.NotFound:
		return wrapStatus(ownErrors.ErrCollectionNotFound, st)
	case codes.InvalidArgument:
		return wrapStatus(ownErrors.ErrMalformedPosition, st)
	case codes.FailedPrecondition:
		return wrapStatus(ownErrors.ErrValueNotFound, st)
	case codes.Unavailable:
		return wrapStatus(ownErrors.ErrSessionNotInitialized, st)
	}
	return wrapStatus(ownErrors.ErrInternal, st)
}

func wrapStatus(sentinel error, st *status.Status) error {
	return &remoteError{sentinel: sentinel, message: st.Message()}
}

type remoteError struct {
	sentinel error
	message  string
}

func (e *remoteError) Error() string {
	return "analysis service: " + e.message
}

func (e *remoteError) Unwrap() error {
	return e.sentinel
}
