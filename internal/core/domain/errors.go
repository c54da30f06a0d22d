package domain

import "go.trai.ch/zerr"

var (
	// ErrUnknownStep is returned when a step identifier does not resolve to a
	// registered step, either on lookup or while validating dependencies.
	ErrUnknownStep = zerr.New("unknown step")

	// ErrDuplicateStep is returned when registering a step whose identifier
	// is already taken.
	ErrDuplicateStep = zerr.New("duplicate step")

	// ErrCycle is returned when the dependency relation contains a cycle.
	// The error metadata carries the cycle's member identifiers.
	ErrCycle = zerr.New("dependency cycle detected")

	// ErrTimeout is returned when a step's action does not complete within
	// its configured timeout.
	ErrTimeout = zerr.New("step timed out")

	// ErrActionExecution is returned when a step's action fails: a non-zero
	// exit code, a fetch failure, or a spawn failure.
	ErrActionExecution = zerr.New("action execution failed")

	// ErrPersistence is returned when the state store cannot read or write
	// provisioning state. Always fatal for the run.
	ErrPersistence = zerr.New("state persistence failed")

	// ErrPrivilege is returned when a machine-scoped environment mutation is
	// attempted without sufficient rights. Surfaced before any write.
	ErrPrivilege = zerr.New("insufficient privilege for machine-scoped mutation")

	// ErrLockHeld is returned when another live run holds the state lock.
	ErrLockHeld = zerr.New("state is locked by another run")

	// ErrChecksumMismatch is returned when a fetched resource does not match
	// its declared checksum.
	ErrChecksumMismatch = zerr.New("checksum mismatch")

	// ErrRunFailed signals that a run halted on a failed step under the
	// stop-on-first-failure policy.
	ErrRunFailed = zerr.New("provisioning run failed")

	// ErrPartialFailure signals that a run finished under the
	// continue-independent policy with at least one failed step.
	ErrPartialFailure = zerr.New("provisioning completed with failures")
)
