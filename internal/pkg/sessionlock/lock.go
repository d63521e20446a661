// Package sessionlock serializes chat turns per session id. A turn holds its
// session's lock from the user append through the upstream call to the
// assistant append, so two turns on one session can never interleave writes.
package sessionlock

import "sync"

type entry struct {
	mu   sync.Mutex
	refs int
}

// KeyedMutex is a table of per-key mutexes. Entries are created on first use
// and removed once the last holder releases, so idle sessions cost nothing.
type KeyedMutex struct {
	mu      sync.Mutex
	entries map[string]*entry
}

func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{
		entries: make(map[string]*entry),
	}
}

// Lock acquires the mutex for key, blocking while another holder owns it.
// Locks on distinct keys never contend.
func (k *KeyedMutex) Lock(key string) {
	k.mu.Lock()
	e, ok := k.entries[key]
	if !ok {
		e = &entry{}
		k.entries[key] = e
	}
	e.refs++
	k.mu.Unlock()

	e.mu.Lock()
}

// Unlock releases the mutex for key.
func (k *KeyedMutex) Unlock(key string) {
	k.mu.Lock()
	e, ok := k.entries[key]
	if ok {
		e.refs--
		if e.refs == 0 {
			delete(k.entries, key)
		}
	}
	k.mu.Unlock()

	if ok {
		e.mu.Unlock()
	}
}
