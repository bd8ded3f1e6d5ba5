package kv

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	badger "github.com/dgraph-io/badger/v4"
)

// Badger is a Store backed by BadgerDB v4.
type Badger struct {
	db   *badger.DB
	opts *Options
}

var _ Store = (*Badger)(nil)

// BadgerOptions configures [NewBadger].
type BadgerOptions struct {
	// Options controls key encoding.
	Options *Options

	// Dir holds the BadgerDB files. Required unless InMemory is set.
	Dir string

	// InMemory runs BadgerDB without touching disk.
	InMemory bool

	// Logger receives badger warnings and errors. Nil uses slog.Default().
	Logger *slog.Logger
}

// NewBadger opens a BadgerDB-backed Store.
func NewBadger(bopts BadgerOptions) (*Badger, error) {
	if !bopts.InMemory && bopts.Dir == "" {
		return nil, errors.New("kv: BadgerOptions.Dir is required for on-disk mode")
	}
	dbOpts := badger.DefaultOptions(bopts.Dir)
	if bopts.InMemory {
		dbOpts = badger.DefaultOptions("").WithInMemory(true)
	}
	logger := bopts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	dbOpts = dbOpts.WithLogger(slogBadger{logger.With("component", "badger")})

	db, err := badger.Open(dbOpts)
	if err != nil {
		return nil, fmt.Errorf("kv: open badger: %w", err)
	}
	return &Badger{db: db, opts: bopts.Options}, nil
}

func (b *Badger) Get(_ context.Context, key Key) ([]byte, error) {
	k := b.opts.encode(key)
	var val []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(k)
		if err != nil {
			return err
		}
		val, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	return val, err
}

func (b *Badger) Set(_ context.Context, key Key, value []byte) error {
	k := b.opts.encode(key)
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(k, value)
	})
}

func (b *Badger) Delete(_ context.Context, key Key) error {
	k := b.opts.encode(key)
	err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(k)
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil
	}
	return err
}

func (b *Badger) Has(_ context.Context, key Key) (bool, error) {
	k := b.opts.encode(key)
	err := b.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(k)
		return err
	})
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, badger.ErrKeyNotFound):
		return false, nil
	default:
		return false, err
	}
}

func (b *Badger) Close() error {
	return b.db.Close()
}

// slogBadger adapts slog to badger.Logger. Info and debug output is dropped;
// badger is chatty at those levels.
type slogBadger struct {
	l *slog.Logger
}

func (s slogBadger) Errorf(f string, v ...interface{})   { s.l.Error(fmt.Sprintf(f, v...)) }
func (s slogBadger) Warningf(f string, v ...interface{}) { s.l.Warn(fmt.Sprintf(f, v...)) }
func (slogBadger) Infof(string, ...interface{})          {}
func (slogBadger) Debugf(string, ...interface{})         {}
