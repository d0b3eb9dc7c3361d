package secondary

import "errors"

// Sentinel errors shared by secondary port implementations.
var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrConflict indicates an optimistic-concurrency version mismatch
	// on a streak write. Callers re-read and retry once.
	ErrConflict = errors.New("version conflict")

	// ErrNotAvailable indicates a generation strategy produced no
	// artifact. The fallback chain advances to the next strategy.
	ErrNotAvailable = errors.New("no artifact available")

	// ErrDuplicateDrop indicates a drop already exists for the agent's
	// local day. The drops table enforces this with a unique index.
	ErrDuplicateDrop = errors.New("drop already recorded for day")
)
