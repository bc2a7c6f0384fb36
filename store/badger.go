// SPDX-License-Identifier: MIT

// Package store persists cascade eigenbases in BadgerDB so that repeated
// runs on the same grid and cross-sections skip the eigendecomposition.
//
// Badger implements cascade.EigenStore:
//
//	db, err := store.Open(dir)
//	...
//	defer db.Close()
//	engine, err := cascade.NewEngine(grid, xs, path, cascade.WithStore(db))
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/dgraph-io/badger/v4"
	"github.com/katalvlaran/nufate/cascade"
)

var (
	// ErrNoPath is returned by Open for an empty directory without WithInMemory.
	ErrNoPath = errors.New("store: directory is required for a persistent store")

	// ErrCorrupt is returned by Load for a record that cannot be decoded.
	ErrCorrupt = errors.New("store: corrupt eigenbasis record")
)

// Option configures Open.
type Option func(*config)

type config struct {
	inMemory   bool
	syncWrites bool
	logger     *slog.Logger
}

// WithInMemory keeps the database in memory; dir is ignored.
func WithInMemory() Option { return func(c *config) { c.inMemory = true } }

// WithSyncWrites makes every Save durable before it returns.
func WithSyncWrites() Option { return func(c *config) { c.syncWrites = true } }

// WithLogger routes Badger's internal log output through l.
func WithLogger(l *slog.Logger) Option { return func(c *config) { c.logger = l } }

// badgerLogger adapts slog to badger.Logger.
type badgerLogger struct{ l *slog.Logger }

func (b badgerLogger) Errorf(format string, args ...any)   { b.l.Error(fmt.Sprintf(format, args...)) }
func (b badgerLogger) Warningf(format string, args ...any) { b.l.Warn(fmt.Sprintf(format, args...)) }
func (b badgerLogger) Infof(format string, args ...any)    { b.l.Info(fmt.Sprintf(format, args...)) }
func (b badgerLogger) Debugf(format string, args ...any)   { b.l.Debug(fmt.Sprintf(format, args...)) }

// Badger is a BadgerDB-backed cascade.EigenStore. It is safe for concurrent
// use.
type Badger struct {
	db *badger.DB
}

var _ cascade.EigenStore = (*Badger)(nil)

// Open opens (creating if needed) the store in dir.
func Open(dir string, opts ...Option) (*Badger, error) {
	var c config
	for _, opt := range opts {
		opt(&c)
	}

	var bo badger.Options
	switch {
	case c.inMemory:
		bo = badger.DefaultOptions("").WithInMemory(true)
	case dir == "":
		return nil, ErrNoPath
	default:
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("store: create %s: %w", dir, err)
		}
		bo = badger.DefaultOptions(dir)
	}
	bo = bo.WithSyncWrites(c.syncWrites).WithNumVersionsToKeep(1)
	if c.logger != nil {
		bo = bo.WithLogger(badgerLogger{c.logger})
	} else {
		bo = bo.WithLogger(nil)
	}

	db, err := badger.Open(bo)
	if err != nil {
		return nil, fmt.Errorf("store: open: %w", err)
	}

	return &Badger{db: db}, nil
}

// Load returns the eigenbasis stored under key; (nil, false, nil) on a miss.
func (s *Badger) Load(ctx context.Context, key string) (*cascade.Eigenbasis, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	var raw []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		raw, err = item.ValueCopy(nil)

		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("store: load %q: %w", key, err)
	}
	b, err := decode(raw)
	if err != nil {
		return nil, false, fmt.Errorf("store: load %q: %w", key, err)
	}

	return b, true, nil
}

// Save stores b under key, replacing any previous record.
func (s *Badger) Save(ctx context.Context, key string, b *cascade.Eigenbasis) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if b == nil {
		return fmt.Errorf("store: save %q: nil eigenbasis", key)
	}
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), encode(b))
	})
	if err != nil {
		return fmt.Errorf("store: save %q: %w", key, err)
	}

	return nil
}

// Keys returns every stored key with the given prefix.
func (s *Badger) Keys(ctx context.Context, prefix string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var keys []string
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.IteratorOptions{PrefetchValues: false, Prefix: []byte(prefix)})
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			keys = append(keys, string(it.Item().KeyCopy(nil)))
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("store: keys: %w", err)
	}

	return keys, nil
}

// Close flushes and closes the database.
func (s *Badger) Close() error { return s.db.Close() }
