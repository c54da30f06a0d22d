package ports

// Locker guards a state file against concurrent runs with an exclusive
// advisory lock.
//
//go:generate go run go.uber.org/mock/mockgen -source=locker.go -destination=mocks/mock_locker.go -package=mocks
type Locker interface {
	// Acquire takes the lock guarding the given state file. A lock left by
	// a crashed run (dead holder process) is broken and re-acquired; a lock
	// held by a live run yields domain.ErrLockHeld. The returned release
	// function must be called on every exit path.
	Acquire(statePath string) (release func() error, err error)
}
