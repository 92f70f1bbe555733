// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import "errors"

// Common sentinels across repo/service layers.
var (
	// ErrNotFound indicates the requested entity does not exist for the owner.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates a unique constraint violation (e.g., folder name taken).
	ErrAlreadyExists = errors.New("already exists")

	// ErrNoIdentity indicates no authenticated owner could be resolved.
	ErrNoIdentity = errors.New("no authenticated identity")

	// ErrRemote wraps any failure reported by the remote store.
	ErrRemote = errors.New("remote store")

	// ErrUnsupportedFormat indicates an import file with an unknown extension.
	ErrUnsupportedFormat = errors.New("unsupported file format")

	// ErrMalformedFile indicates an import file that could not be parsed.
	ErrMalformedFile = errors.New("malformed file")

	// ErrValidation indicates rejected manual input.
	ErrValidation = errors.New("validation")

	// ErrFolderUnresolved indicates an import row whose folder was not returned by the upsert.
	ErrFolderUnresolved = errors.New("folder unresolved")
)
