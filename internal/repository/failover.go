package repository

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"viona/internal/domain"
	"viona/internal/models"

	"github.com/rs/zerolog"
)

const recoveryInterval = time.Minute

// IsSessionKey reports whether key holds a flow session. Sessions are the
// only documents that may be lost without losing a booking.
func IsSessionKey(key string) bool {
	return strings.HasPrefix(key, models.FlowSessionKeyPrefix)
}

// FailoverDocumentStore serves volatile keys from primary until it fails,
// then from fallback, probing primary again once per recoveryInterval. Every
// other key always goes to primary and its errors reach the caller.
type FailoverDocumentStore struct {
	primary  domain.DocumentStore
	fallback domain.DocumentStore
	volatile func(key string) bool
	logger   *zerolog.Logger
	isDown   atomic.Bool

	mu        sync.Mutex
	lastCheck time.Time
}

// NewFailoverDocumentStore fails over only keys for which volatile returns
// true. A nil volatile fails over every key.
func NewFailoverDocumentStore(primary, fallback domain.DocumentStore, volatile func(key string) bool, logger *zerolog.Logger) *FailoverDocumentStore {
	if volatile == nil {
		volatile = func(string) bool { return true }
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &FailoverDocumentStore{
		primary:  primary,
		fallback: fallback,
		volatile: volatile,
		logger:   logger,
	}
}

func (r *FailoverDocumentStore) markDown(err error) {
	r.logger.Error().Err(err).Msg("Primary document store failed, falling back to memory")
	r.isDown.Store(true)
	r.mu.Lock()
	r.lastCheck = time.Now()
	r.mu.Unlock()
}

// shouldRetryPrimary reports whether a down primary is due for a recovery attempt.
func (r *FailoverDocumentStore) shouldRetryPrimary() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if time.Since(r.lastCheck) <= recoveryInterval {
		return false
	}
	r.lastCheck = time.Now()
	return true
}

func (r *FailoverDocumentStore) Load(ctx context.Context, key string) ([]byte, bool, error) {
	if !r.volatile(key) {
		return r.primary.Load(ctx, key)
	}
	if !r.isDown.Load() {
		doc, ok, err := r.primary.Load(ctx, key)
		if err == nil {
			return doc, ok, nil
		}
		r.markDown(err)
	} else if r.shouldRetryPrimary() {
		doc, ok, err := r.primary.Load(ctx, key)
		if err == nil {
			r.isDown.Store(false)
			r.logger.Info().Msg("Primary document store recovered")
			return doc, ok, nil
		}
	}

	return r.fallback.Load(ctx, key)
}

func (r *FailoverDocumentStore) Save(ctx context.Context, key string, doc []byte) error {
	if !r.volatile(key) {
		return r.primary.Save(ctx, key, doc)
	}
	if !r.isDown.Load() {
		err := r.primary.Save(ctx, key, doc)
		if err == nil {
			return nil
		}
		r.markDown(err)
	}

	return r.fallback.Save(ctx, key, doc)
}

func (r *FailoverDocumentStore) Delete(ctx context.Context, key string) error {
	if !r.volatile(key) {
		return r.primary.Delete(ctx, key)
	}
	if !r.isDown.Load() {
		err := r.primary.Delete(ctx, key)
		if err == nil {
			return nil
		}
		r.markDown(err)
	}

	return r.fallback.Delete(ctx, key)
}

// PruneBefore prunes whichever side keeps documents without expiry.
func (r *FailoverDocumentStore) PruneBefore(ctx context.Context, prefix string, cutoff time.Time) (int, error) {
	total := 0
	for _, store := range []domain.DocumentStore{r.primary, r.fallback} {
		pruner, ok := store.(domain.DocumentPruner)
		if !ok {
			continue
		}
		n, err := pruner.PruneBefore(ctx, prefix, cutoff)
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

func (r *FailoverDocumentStore) Close() error {
	errPrimary := r.primary.Close()
	errFallback := r.fallback.Close()
	if errPrimary != nil {
		return errPrimary
	}
	return errFallback
}
