// Package store persists the event log and derived state through an
// abstract durable key-value store.
package store

import (
	"context"
	"sync"
)

// KV is the durable key-value contract the store is built on. Implementations
// must persist Set before returning; Get reports presence explicitly so an
// empty value is distinguishable from an absent key.
type KV interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
}

// MemKV is an in-memory KV for tests. Safe for concurrent use.
type MemKV struct {
	mu sync.RWMutex
	m  map[string]string
}

// NewMemKV creates an empty in-memory KV.
func NewMemKV() *MemKV {
	return &MemKV{m: make(map[string]string)}
}

// Get returns the value stored under key.
func (kv *MemKV) Get(ctx context.Context, key string) (string, bool, error) {
	kv.mu.RLock()
	defer kv.mu.RUnlock()
	v, ok := kv.m[key]
	return v, ok, nil
}

// Set stores value under key.
func (kv *MemKV) Set(ctx context.Context, key, value string) error {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	kv.m[key] = value
	return nil
}
