package locks

import (
	"sync"
)

// Manager hands out one mutual-exclusion lock per resource id. Every stock
// ledger mutation acquires the product's lock before reading and holds it
// through the write. Locks are process-local: safety holds only within one
// instance, so horizontally scaled deployments need a lease-based
// implementation behind this interface.
type Manager interface {
	// Acquire blocks until the lock for id is held and returns the release
	// function. Locks are created lazily and retained for process lifetime.
	Acquire(id string) (release func())
}

// KeyedMutex is the process-local Manager backed by a plain map of mutexes.
type KeyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewKeyedMutex creates a new in-process lock manager
func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{
		locks: make(map[string]*sync.Mutex),
	}
}

// Acquire blocks until the per-id mutex is held and returns its unlock func
func (k *KeyedMutex) Acquire(id string) func() {
	k.mu.Lock()
	m, ok := k.locks[id]
	if !ok {
		m = &sync.Mutex{}
		k.locks[id] = m
	}
	k.mu.Unlock()

	m.Lock()
	return m.Unlock
}
