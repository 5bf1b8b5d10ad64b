package errors

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrInvalid      = errors.New("invalid")
	ErrConflict     = errors.New("conflict")
	ErrTooMany      = errors.New("too many requests")
	ErrInternal     = errors.New("internal")

	// Share gating denials. Only surfaced after a successful token digest
	// lookup; an unknown token is always ErrNotFound, nothing richer.
	ErrShareRevoked   = errors.New("share revoked")
	ErrShareExpired   = errors.New("share expired")
	ErrFileExpired    = errors.New("file expired")
	ErrUsageExhausted = errors.New("usage exhausted")

	// ErrStorageUnavailable marks a transient blob store or database failure.
	// Callers may retry; gating denials above are terminal.
	ErrStorageUnavailable = errors.New("storage unavailable")
)

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}
