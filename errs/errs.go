// Package errs implements the error taxonomy of spec §7. Sentinel errors
// are wrapped with context via fmt.Errorf("...: %w", ...) so callers can
// still use errors.Is against the sentinels below.
package errs

import "errors"

// Sentinels. Each corresponds 1:1 to a taxonomy entry in spec §7.
var (
	// ErrCapacityExceeded: admitting object+metadata bytes would exceed
	// capacity. Policy-level: refuse to admit, caller logs a diagnostic.
	ErrCapacityExceeded = errors.New("edgecache: capacity exceeded")

	// ErrInvalidObjectSize: policy-specific rejection (e.g. object larger
	// than one SLRU segment, or larger than W-TinyLFU's window).
	ErrInvalidObjectSize = errors.New("edgecache: invalid object size for policy")

	// ErrDirectoryMissing: directory lookup returned "none" when a replica
	// was expected; caller falls through to origin.
	ErrDirectoryMissing = errors.New("edgecache: directory entry missing")

	// ErrTimeout: a network wait exceeded its configured deadline.
	ErrTimeout = errors.New("edgecache: operation timed out")

	// ErrWriteLockContended: AcquireWritelock returned Failure; the
	// requester has been enqueued and must wait for FinishBlock.
	ErrWriteLockContended = errors.New("edgecache: write lock contended")

	// ErrInvariantViolation: an internal consistency check failed
	// (e.g. a coarse-grained policy routed through a fine-grained evict
	// path, or a victim key missing from the validity map). Fatal: the
	// caller should treat this as a programming error, not a retryable
	// condition.
	ErrInvariantViolation = errors.New("edgecache: invariant violation")

	// ErrNoLoader mirrors the teacher's ErrNoLoader: returned when the
	// dispatcher's origin-fetch path has no configured origin.Store.
	ErrNoLoader = errors.New("edgecache: no origin store configured")
)

// Is reports whether err wraps target, a thin re-export of errors.Is kept
// here so callers only need to import one package for both the sentinels
// and the check.
func Is(err, target error) bool { return errors.Is(err, target) }
