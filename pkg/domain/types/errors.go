package types

import "github.com/m-mizutani/goerr/v2"

// Error tags classify failures so callers can decide between retry, skip and abort.
var (
	// ErrTagTransient marks network errors, timeouts, 5xx and 429 responses.
	ErrTagTransient = goerr.NewTag("transient")

	// ErrTagPermanent marks 4xx and malformed responses. Not retried.
	ErrTagPermanent = goerr.NewTag("permanent")

	// ErrTagIntegrity marks missing mandatory fields, unreadable files and
	// filename collisions.
	ErrTagIntegrity = goerr.NewTag("integrity")

	// ErrTagConfig marks missing credentials or invalid settings. Always fatal.
	ErrTagConfig = goerr.NewTag("config")

	// ErrTagNotFound marks lookups of files that do not exist.
	ErrTagNotFound = goerr.NewTag("not_found")
)
