package core

import "sync"

// keyLock serializes work per business key. Entries are reference counted
// and removed once no caller holds or waits on them, so the map only ever
// holds keys that are in flight.
type keyLock struct {
	mu    sync.Mutex
	locks map[Key]*keyEntry
}

type keyEntry struct {
	mu   sync.Mutex
	refs int
}

func newKeyLock() *keyLock {
	return &keyLock{locks: make(map[Key]*keyEntry)}
}

// Lock blocks until k is free and returns the function that releases it.
func (l *keyLock) Lock(k Key) (unlock func()) {
	l.mu.Lock()
	e, ok := l.locks[k]
	if !ok {
		e = &keyEntry{}
		l.locks[k] = e
	}
	e.refs++
	l.mu.Unlock()

	e.mu.Lock()

	return func() {
		e.mu.Unlock()

		l.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(l.locks, k)
		}
		l.mu.Unlock()
	}
}

// inFlight returns the number of keys currently tracked.
func (l *keyLock) inFlight() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
