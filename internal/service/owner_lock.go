package service

import "sync"

// ownerLocks hands out one mutex per workspace owner so writes to the same workspace are
// serialized while different owners proceed in parallel. Entries are dropped once unused.
type ownerLocks struct {
	mu    sync.Mutex
	locks map[string]*ownerLock
}

type ownerLock struct {
	mu   sync.Mutex
	refs int
}

func newOwnerLocks() *ownerLocks {
	return &ownerLocks{locks: make(map[string]*ownerLock)}
}

// Lock blocks until the owner's mutex is held and returns its release function.
func (l *ownerLocks) Lock(owner string) func() {
	l.mu.Lock()
	entry, ok := l.locks[owner]
	if !ok {
		entry = &ownerLock{}
		l.locks[owner] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()
	return func() {
		entry.mu.Unlock()
		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.locks, owner)
		}
		l.mu.Unlock()
	}
}

func (l *ownerLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
