package predictor

import (
	"context"
	"errors"
	"sync"
)

// Registry keeps each user's current bundle resident in memory on top of a Store.
// Loading and committing both hold the user's write lock, so a reader gets
// either the bundle before a retrain or the one after it. Users never contend
// with each other.
//
// Every Get compares the resident copy with the store's stamp, so bundles
// committed by another process (the retrain command, a second bot) are picked
// up on the next estimate.
type Registry struct {
	store Store

	mu    sync.Mutex
	users map[uint]*resident
}

type resident struct {
	mu     sync.RWMutex
	loaded bool
	stamp  string
	bundle *Bundle
}

func NewRegistry(store Store) *Registry {
	return &Registry{store: store, users: make(map[uint]*resident)}
}

func (r *Registry) slot(userID uint) *resident {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.users[userID]
	if !ok {
		s = &resident{}
		r.users[userID] = s
	}
	return s
}

// Get returns the user's bundle, reloading it when the store holds a
// different one than the resident copy. A missing bundle is remembered until
// the store's stamp changes.
func (r *Registry) Get(ctx context.Context, userID uint) (*Bundle, error) {
	if r.store == nil {
		return nil, ErrStoreUnconfigured
	}
	s := r.slot(userID)

	current, err := r.store.Stamp(ctx, userID)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	if s.loaded && s.stamp == current {
		b := s.bundle
		s.mu.RUnlock()
		return found(b)
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loaded && s.stamp == current {
		return found(s.bundle)
	}
	if current == "" {
		s.loaded, s.stamp, s.bundle = true, "", nil
		return nil, ErrBundleNotFound
	}
	b, err := r.store.Load(ctx, userID)
	switch {
	case errors.Is(err, ErrBundleNotFound):
		// removed between Stamp and Load; the next Get sees an empty stamp
		s.loaded, s.stamp, s.bundle = false, "", nil
		return nil, ErrBundleNotFound
	case err != nil:
		return nil, err
	}
	s.loaded, s.stamp, s.bundle = true, current, b
	return b, nil
}

// Commit persists b and makes it the user's resident bundle. On a store error
// the previous bundle stays in place.
func (r *Registry) Commit(ctx context.Context, userID uint, b *Bundle) error {
	if r.store == nil {
		return ErrStoreUnconfigured
	}
	s := r.slot(userID)
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := r.store.Save(ctx, userID, b); err != nil {
		return err
	}
	stamp, err := r.store.Stamp(ctx, userID)
	if err != nil {
		// saved, but unknown stamp: the next Get reloads from the store
		stamp = ""
	}
	s.loaded, s.stamp, s.bundle = true, stamp, b
	return nil
}

func found(b *Bundle) (*Bundle, error) {
	if b == nil {
		return nil, ErrBundleNotFound
	}
	return b, nil
}
