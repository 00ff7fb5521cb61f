package core

import (
	"errors"
)

var (
	// ErrConfigurationMissing is returned by settings providers when no
	// row exists for a user/account. The engine substitutes defaults.
	ErrConfigurationMissing = errors.New("scoring configuration not found")

	// ErrEmbeddingUnavailable signals that no feature vector could be
	// produced for a text window. Scoring degrades to the rule path;
	// learning becomes a logged no-op.
	ErrEmbeddingUnavailable = errors.New("embedding unavailable")

	// ErrStateNotFound is returned by state stores for a user/label that
	// has never been corrected.
	ErrStateNotFound = errors.New("classifier state not found")

	// ErrStateCorrupt means persisted classifier state failed to
	// deserialize. It is surfaced, never silently reset: the surrounding
	// system must trigger an explicit reset.
	ErrStateCorrupt = errors.New("classifier state corrupt")

	// ErrLockTimeout means the per-(user, label) update lock could not be
	// acquired within the bounded wait. The correction is not lost; the
	// caller retries.
	ErrLockTimeout = errors.New("timed out waiting for classifier update lock")
)

// IsRetryable reports whether a Learn error is safe to retry as-is.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrLockTimeout)
}
