package storefront

import (
	"context"
	"sync"

	"github.com/xenking/kart-storefront/internal/domain/cart"
)

// keyLocks serializes work per line item. Waiting respects ctx.
type keyLocks struct {
	mu sync.Mutex
	m  map[cart.Key]*keyLock
}

type keyLock struct {
	ch   chan struct{}
	refs int
}

func newKeyLocks() *keyLocks {
	return &keyLocks{m: make(map[cart.Key]*keyLock)}
}

func (l *keyLocks) lock(ctx context.Context, k cart.Key) (unlock func(), err error) {
	l.mu.Lock()
	kl, ok := l.m[k]
	if !ok {
		kl = &keyLock{ch: make(chan struct{}, 1)}
		l.m[k] = kl
	}
	kl.refs++
	l.mu.Unlock()

	select {
	case kl.ch <- struct{}{}:
		return func() {
			<-kl.ch
			l.release(k, kl)
		}, nil
	case <-ctx.Done():
		l.release(k, kl)
		return nil, ctx.Err()
	}
}

func (l *keyLocks) release(k cart.Key, kl *keyLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	kl.refs--
	if kl.refs == 0 {
		delete(l.m, k)
	}
}
