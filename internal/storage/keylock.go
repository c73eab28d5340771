package storage

import "sync"

// KeyedMutex hands out one RWMutex per key, so work on one pipeline never waits
// for work on another.
type KeyedMutex struct {
	mu    sync.RWMutex
	locks map[string]*sync.RWMutex
}

// NewKeyedMutex creates an empty KeyedMutex.
func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{locks: make(map[string]*sync.RWMutex)}
}

func (k *KeyedMutex) lockFor(key string) *sync.RWMutex {
	k.mu.RLock()
	if lock, ok := k.locks[key]; ok {
		k.mu.RUnlock()
		return lock
	}
	k.mu.RUnlock()

	k.mu.Lock()
	defer k.mu.Unlock()
	// double check, another caller may have created it in the meantime
	if lock, ok := k.locks[key]; ok {
		return lock
	}
	lock := &sync.RWMutex{}
	k.locks[key] = lock
	return lock
}

// RLock locks key for reading.
func (k *KeyedMutex) RLock(key string) { k.lockFor(key).RLock() }

// RUnlock undoes a single RLock of key.
func (k *KeyedMutex) RUnlock(key string) { k.lockFor(key).RUnlock() }

// Lock locks key for writing.
func (k *KeyedMutex) Lock(key string) { k.lockFor(key).Lock() }

// Unlock unlocks key for writing.
func (k *KeyedMutex) Unlock(key string) { k.lockFor(key).Unlock() }
