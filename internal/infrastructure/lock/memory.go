// Package lock provides shared.Locker implementations that serialise
// mutations of one order across requests.
package lock

import (
	"context"
	"sync"

	"github.com/logistics/backend/internal/domain/shared"
)

// MemoryLocker is a keyed mutex for single-process deployments. Waiters
// honour context cancellation.
type MemoryLocker struct {
	mu    sync.Mutex
	locks map[string]*entry
}

type entry struct {
	ch   chan struct{}
	refs int
}

// NewMemoryLocker creates an empty keyed locker
func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{locks: make(map[string]*entry)}
}

// Lock blocks until key is free or ctx is done
func (l *MemoryLocker) Lock(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	e, ok := l.locks[key]
	if !ok {
		e = &entry{ch: make(chan struct{}, 1)}
		l.locks[key] = e
	}
	e.refs++
	l.mu.Unlock()

	select {
	case e.ch <- struct{}{}:
	case <-ctx.Done():
		l.unref(key, e)
		return nil, shared.NewDomainError(shared.CodeLockNotObtained, "Could not lock "+key+": "+ctx.Err().Error())
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-e.ch
			l.unref(key, e)
		})
	}, nil
}

func (l *MemoryLocker) unref(key string, e *entry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(l.locks, key)
	}
}

var _ shared.Locker = (*MemoryLocker)(nil)
