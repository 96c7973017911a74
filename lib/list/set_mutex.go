package list

import (
	"context"
	"sync"
	"sync/atomic"

	"code.hybscloud.com/spin"
)

// nodeMutex guards a single set node.
// The version is the owner id of the current operation, the spin
// implementation records it so that only the owner can release it.
type nodeMutex interface {
	lock(version uint64)
	tryLock(version uint64) bool
	unlock(version uint64) bool
}

type mutexEnum uint8

const (
	goNativeMutex mutexEnum = iota
	spinVersionMutex
)

func (e mutexEnum) String() string {
	switch e {
	case goNativeMutex:
		return "go-native"
	case spinVersionMutex:
		return "spin"
	default:
	}
	return "unknown"
}

func mutexFactory(e mutexEnum) nodeMutex {
	switch e {
	case spinVersionMutex:
		return new(spinMutex)
	case goNativeMutex:
		fallthrough
	default:
		return new(goSyncMutex)
	}
}

const (
	unlocked = 0
)

type spinMutex uint64

func (lock *spinMutex) lock(version uint64) {
	sw := spin.Wait{}
	for !atomic.CompareAndSwapUint64((*uint64)(lock), unlocked, version) {
		sw.Once()
	}
}

func (lock *spinMutex) tryLock(version uint64) bool {
	return atomic.CompareAndSwapUint64((*uint64)(lock), unlocked, version)
}

func (lock *spinMutex) unlock(version uint64) bool {
	return atomic.CompareAndSwapUint64((*uint64)(lock), version, unlocked)
}

type goSyncMutex struct {
	mu sync.Mutex
}

func (m *goSyncMutex) lock(version uint64) {
	m.mu.Lock()
}

func (m *goSyncMutex) tryLock(version uint64) bool {
	return m.mu.TryLock()
}

func (m *goSyncMutex) unlock(version uint64) bool {
	m.mu.Unlock()
	return true
}

// acquire blocks like lock when ctx can never be done. Otherwise it
// polls tryLock until it wins or ctx ends.
func acquire(ctx context.Context, mu nodeMutex, version uint64) error {
	if ctx.Done() == nil {
		mu.lock(version)
		return nil
	}
	sw := spin.Wait{}
	for !mu.tryLock(version) {
		if err := ctx.Err(); err != nil {
			return err
		}
		sw.Once()
	}
	return nil
}
