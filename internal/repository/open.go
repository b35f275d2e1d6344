package repository

import (
	"context"
	"errors"
	"fmt"

	"viona/internal/config"
	"viona/internal/domain"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

var ErrUnknownDriver = errors.New("unknown storage driver")

// Storage is the document store selected by configuration plus the handles
// other components share with it.
type Storage struct {
	Docs domain.DocumentStore
	// Redis is set only for the redis driver.
	Redis *redis.Client
	// SQLite is set only for the sqlite driver.
	SQLite *SQLiteDocumentStore

	ping func(ctx context.Context) error
}

// Ping checks the primary backend.
func (s *Storage) Ping(ctx context.Context) error {
	if s.ping == nil {
		return nil
	}
	return s.ping(ctx)
}

func (s *Storage) Close() error {
	// the redis document store owns the client
	return s.Docs.Close()
}

// Open builds the document store for cfg.Driver. With cfg.Fallback a redis
// store that cannot be reached at startup still opens; flow sessions are then
// served from memory while bookings and site config report the outage.
func Open(ctx context.Context, cfg config.StorageConfig, logger *zerolog.Logger) (*Storage, error) {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	switch cfg.Driver {
	case config.DriverMemory:
		return &Storage{Docs: NewMemoryDocumentStore()}, nil

	case config.DriverSQLite:
		store, err := NewSQLiteDocumentStore(cfg.SQLite.Path, logger)
		if err != nil {
			return nil, err
		}
		return &Storage{Docs: store, SQLite: store, ping: store.PingContext}, nil

	case config.DriverRedis:
		client := NewRedisClient(cfg.Redis)
		ping := func(ctx context.Context) error { return Ping(ctx, client) }

		if err := ping(ctx); err != nil {
			if !cfg.Fallback {
				_ = client.Close()
				return nil, err
			}
			logger.Warn().Err(err).Str("addr", cfg.Redis.Address).Msg("redis unreachable, serving from memory until it recovers")
		} else {
			logger.Info().Str("addr", cfg.Redis.Address).Msg("redis connected")
		}

		var docs domain.DocumentStore = NewRedisDocumentStore(client, cfg.Redis.KeyPrefix, cfg.SessionTTL)
		if cfg.Fallback {
			docs = NewFailoverDocumentStore(docs, NewMemoryDocumentStore(), IsSessionKey, logger)
		}
		return &Storage{Docs: docs, Redis: client, ping: ping}, nil
	}

	return nil, fmt.Errorf("%w %q", ErrUnknownDriver, cfg.Driver)
}
