package attribution

import "errors"

var (
	// ErrNotFound means no attribution record exists for the requested key.
	ErrNotFound = errors.New("attribution not found")

	// ErrStoreCorrupt means persisted attribution data failed to decode or
	// violated an invariant.
	ErrStoreCorrupt = errors.New("attribution store corrupt")

	// ErrMergeConflict means a file's attribution could not be reconciled
	// against its final contents.
	ErrMergeConflict = errors.New("attribution merge conflict")

	// ErrSyncFailure means fetching or pushing authorship notes failed.
	ErrSyncFailure = errors.New("authorship notes sync failed")

	// ErrResolutionFailure means a blamed line's origin could not be mapped
	// to an authorship record.
	ErrResolutionFailure = errors.New("attribution resolution failed")
)
