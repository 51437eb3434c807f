// Package lock provides per-key locking so concurrent poll cycles touching
// the same match serialize their read-diff-write sequence.
package lock

import "sync"

type keyMutex struct {
	mu sync.Mutex
}

// KeyedLock hands out one mutex per string key.
type KeyedLock struct {
	locks sync.Map // map[string]*keyMutex
}

func NewKeyedLock() *KeyedLock {
	return &KeyedLock{}
}

func (kl *KeyedLock) getLock(key string) *keyMutex {
	if v, ok := kl.locks.Load(key); ok {
		return v.(*keyMutex)
	}
	actual, _ := kl.locks.LoadOrStore(key, &keyMutex{})
	return actual.(*keyMutex)
}

// Lock acquires the lock for a key.
func (kl *KeyedLock) Lock(key string) {
	kl.getLock(key).mu.Lock()
}

// Unlock releases the lock for a key.
func (kl *KeyedLock) Unlock(key string) {
	if v, ok := kl.locks.Load(key); ok {
		v.(*keyMutex).mu.Unlock()
	}
}

// TryLock attempts to acquire the lock without blocking.
func (kl *KeyedLock) TryLock(key string) bool {
	return kl.getLock(key).mu.TryLock()
}

// WithLock executes fn while holding the key's lock.
func (kl *KeyedLock) WithLock(key string, fn func() error) error {
	kl.Lock(key)
	defer kl.Unlock(key)
	return fn()
}
