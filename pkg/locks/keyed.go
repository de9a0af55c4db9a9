package locks

import "sync"

// Keyed hands out one mutex per key so a read-validate-write sequence for a
// SKU runs to completion before the next command touches the same row.
type Keyed struct {
	mu    sync.Mutex
	locks map[string]*entry
}

type entry struct {
	mu   sync.Mutex
	refs int
}

func NewKeyed() *Keyed {
	return &Keyed{locks: map[string]*entry{}}
}

// Lock blocks until the key is exclusively held and returns the unlock
// function. Entries are dropped once the last holder releases them, so the
// map does not grow with the catalog.
func (k *Keyed) Lock(key string) func() {
	k.mu.Lock()
	e, ok := k.locks[key]
	if !ok {
		e = &entry{}
		k.locks[key] = e
	}
	e.refs++
	k.mu.Unlock()

	e.mu.Lock()

	return func() {
		e.mu.Unlock()
		k.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
