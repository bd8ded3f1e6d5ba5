package kv

import (
	"context"
	"sync"
)

// Memory is an in-memory Store. Values are copied on the way in and out.
//
// It is safe for concurrent use.
type Memory struct {
	mu   sync.RWMutex
	data map[string][]byte
	opts *Options
}

var _ Store = (*Memory)(nil)

// NewMemory creates an empty Memory store. Pass nil for default options.
func NewMemory(opts *Options) *Memory {
	return &Memory{
		data: make(map[string][]byte),
		opts: opts,
	}
}

func (m *Memory) Get(_ context.Context, key Key) ([]byte, error) {
	k := string(m.opts.encode(key))
	m.mu.RLock()
	v, ok := m.data[k]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return clone(v), nil
}

func (m *Memory) Set(_ context.Context, key Key, value []byte) error {
	k := string(m.opts.encode(key))
	cp := clone(value)
	m.mu.Lock()
	m.data[k] = cp
	m.mu.Unlock()
	return nil
}

func (m *Memory) Delete(_ context.Context, key Key) error {
	k := string(m.opts.encode(key))
	m.mu.Lock()
	delete(m.data, k)
	m.mu.Unlock()
	return nil
}

func (m *Memory) Has(_ context.Context, key Key) (bool, error) {
	k := string(m.opts.encode(key))
	m.mu.RLock()
	_, ok := m.data[k]
	m.mu.RUnlock()
	return ok, nil
}

// Len returns the number of stored keys.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}

func (m *Memory) Close() error {
	return nil
}

func clone(b []byte) []byte {
	cp := make([]byte, len(b))
	copy(cp, b)
	return cp
}
