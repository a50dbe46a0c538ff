package storage

import (
	"context"
	"sync"
)

// Memory is an in-process Backend. Contents are lost when the process exits.
type Memory struct {
	mu     sync.RWMutex
	data   map[string]Entry
	tombs  map[string]uint64
	closed bool
}

func NewMemory() *Memory {
	return &Memory{data: make(map[string]Entry), tombs: make(map[string]uint64)}
}

func (m *Memory) Get(ctx context.Context, key string) (Entry, error) {
	if err := ctx.Err(); err != nil {
		return Entry{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return Entry{}, ErrClosed
	}
	e, ok := m.data[key]
	if !ok {
		return Entry{}, ErrNotFound
	}
	return Entry{Value: append([]byte(nil), e.Value...), Revision: e.Revision}, nil
}

func (m *Memory) Put(ctx context.Context, key string, value []byte, expected uint64) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return 0, ErrClosed
	}
	current := m.data[key].Revision
	if current != expected {
		return current, ErrConflict
	}
	next := max(current, m.tombs[key]) + 1
	m.data[key] = Entry{Value: append([]byte(nil), value...), Revision: next}
	delete(m.tombs, key)
	return next, nil
}

func (m *Memory) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	if e, ok := m.data[key]; ok {
		m.tombs[key] = e.Revision
		delete(m.data, key)
	}
	return nil
}

func (m *Memory) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	return nil
}
