// Package locksvc serializes work keyed by an identifier, such as the deletions of a same user.
package locksvc

import (
	"context"
	"sync"

	"github.com/im7mortal/kmutex"
	"github.com/pkg/errors"
)

// LocalLocker locks keys within the process.
type LocalLocker struct {
	km *kmutex.Kmutex
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{km: kmutex.New()}
}

// Lock blocks until key is free or ctx is done. release must be called once the work is done.
func (l *LocalLocker) Lock(ctx context.Context, key string) (func(), error) {
	acquired := make(chan struct{})
	go func() {
		l.km.Lock(key)
		close(acquired)
	}()

	select {
	case <-acquired:
		var once sync.Once
		return func() { once.Do(func() { l.km.Unlock(key) }) }, nil
	case <-ctx.Done():
		// free the key as soon as the pending Lock gets it
		go func() {
			<-acquired
			l.km.Unlock(key)
		}()
		return nil, errors.Wrapf(ctx.Err(), "waiting for lock %q", key)
	}
}
