package service

import (
	"fmt"
	"sync"

	"nerdbot/models"
)

// keyedMutex hands out one mutex per key and forgets keys nobody holds
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*refLock
}

type refLock struct {
	sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*refLock)}
}

// Lock blocks until key is free and returns its unlock func
func (k *keyedMutex) Lock(key string) func() {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &refLock{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()
		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}

// size returns how many keys are currently tracked
func (k *keyedMutex) size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}

// ClaimableLocks serializes spawn and claim work per (guild, kind). The spawn
// and claim services must share one instance.
type ClaimableLocks struct {
	keys *keyedMutex
}

// NewClaimableLocks creates an empty lock set
func NewClaimableLocks() *ClaimableLocks {
	return &ClaimableLocks{keys: newKeyedMutex()}
}

func (l *ClaimableLocks) lock(guildID int64, kind models.ClaimableKind) func() {
	return l.keys.Lock(fmt.Sprintf("%d:%s", guildID, kind))
}
