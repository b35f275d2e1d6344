package repository

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"
)

var ErrClosed = errors.New("document store is closed")

type MemoryDocumentStore struct {
	mu      sync.RWMutex
	docs    map[string][]byte
	updated map[string]time.Time
	closed  bool

	now func() time.Time
}

func NewMemoryDocumentStore() *MemoryDocumentStore {
	return &MemoryDocumentStore{
		docs:    make(map[string][]byte),
		updated: make(map[string]time.Time),
		now:     time.Now,
	}
}

func (r *MemoryDocumentStore) Load(ctx context.Context, key string) ([]byte, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return nil, false, ErrClosed
	}
	doc, ok := r.docs[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), doc...), true, nil
}

func (r *MemoryDocumentStore) Save(ctx context.Context, key string, doc []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrClosed
	}
	r.docs[key] = append([]byte(nil), doc...)
	r.updated[key] = r.now()
	return nil
}

func (r *MemoryDocumentStore) Delete(ctx context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrClosed
	}
	delete(r.docs, key)
	delete(r.updated, key)
	return nil
}

func (r *MemoryDocumentStore) PruneBefore(ctx context.Context, prefix string, cutoff time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return 0, ErrClosed
	}
	removed := 0
	for key, at := range r.updated {
		if strings.HasPrefix(key, prefix) && at.Before(cutoff) {
			delete(r.docs, key)
			delete(r.updated, key)
			removed++
		}
	}
	return removed, nil
}

func (r *MemoryDocumentStore) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}
