package services

import "errors"

var (
	// ErrActivationFailed covers malformed, unknown and already used
	// activation tokens alike.
	ErrActivationFailed = errors.New("activation failed")

	// ErrForbidden means the session's profile does not own the target.
	ErrForbidden = errors.New("not allowed")

	ErrProfileNotFound = errors.New("profile does not exist")

	// ErrResumeStorageDisabled is returned by resume uploads when no
	// object storage backend is configured.
	ErrResumeStorageDisabled = errors.New("resume storage is not configured")
)
