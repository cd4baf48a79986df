// Package cache holds the key-value media behind the booking record store.
package cache

import (
	"context"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// KV is get/set-by-key storage of opaque (JSON) values. Get returns nil,
// nil when the key is absent.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	// Update replaces the value at key with fn(current) atomically with
	// respect to every other writer of the same store. An error from fn
	// aborts the update and is returned unchanged.
	Update(ctx context.Context, key string, fn func(current []byte) ([]byte, error)) error
}

type MemoryKV struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemoryKV() *MemoryKV {
	return &MemoryKV{data: make(map[string][]byte)}
}

func (m *MemoryKV) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return nil, nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

func (m *MemoryKV) Set(_ context.Context, key string, value []byte) error {
	v := make([]byte, len(value))
	copy(v, value)
	m.mu.Lock()
	m.data[key] = v
	m.mu.Unlock()
	return nil
}

func (m *MemoryKV) Update(_ context.Context, key string, fn func([]byte) ([]byte, error)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	next, err := fn(m.data[key])
	if err != nil {
		return err
	}
	v := make([]byte, len(next))
	copy(v, next)
	m.data[key] = v
	return nil
}

// FallbackKV serves from primary until it fails once, then switches to an
// in-memory store for the rest of the process lifetime.
type FallbackKV struct {
	primary  KV
	memory   *MemoryKV
	log      *zap.Logger
	degraded atomic.Bool
}

func NewFallbackKV(primary KV, log *zap.Logger) *FallbackKV {
	if log == nil {
		log = zap.NewNop()
	}
	return &FallbackKV{primary: primary, memory: NewMemoryKV(), log: log}
}

// Degraded reports whether the primary store has been abandoned.
func (f *FallbackKV) Degraded() bool {
	return f.degraded.Load()
}

func (f *FallbackKV) Get(ctx context.Context, key string) ([]byte, error) {
	if !f.degraded.Load() {
		v, err := f.primary.Get(ctx, key)
		if err == nil {
			return v, nil
		}
		f.degrade(err)
	}
	return f.memory.Get(ctx, key)
}

func (f *FallbackKV) Set(ctx context.Context, key string, value []byte) error {
	if !f.degraded.Load() {
		err := f.primary.Set(ctx, key, value)
		if err == nil {
			return nil
		}
		f.degrade(err)
	}
	return f.memory.Set(ctx, key, value)
}

func (f *FallbackKV) Update(ctx context.Context, key string, fn func([]byte) ([]byte, error)) error {
	if !f.degraded.Load() {
		var fnErr error
		err := f.primary.Update(ctx, key, func(current []byte) ([]byte, error) {
			next, err := fn(current)
			fnErr = err
			return next, err
		})
		if err == nil || fnErr != nil {
			return err
		}
		f.degrade(err)
	}
	return f.memory.Update(ctx, key, fn)
}

func (f *FallbackKV) degrade(err error) {
	if f.degraded.CompareAndSwap(false, true) {
		f.log.Warn("record store unavailable, continuing in memory only", zap.Error(err))
	}
}

var (
	_ KV = (*MemoryKV)(nil)
	_ KV = (*FallbackKV)(nil)
)
