// Package storage is the durable key-value layer behind sessions and the
// domain store snapshots. Values are JSON documents addressed by
// "namespace:part:part" keys.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// KV is implemented by the memory, redis and postgres backends.
type KV interface {
	// Get decodes the value at key into dest. A missing key reports false
	// with a nil error.
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any) error
	Delete(ctx context.Context, key string) error
	// Keys lists keys starting with prefix, sorted.
	Keys(ctx context.Context, prefix string) ([]string, error)
	Ping(ctx context.Context) error
}

var ErrCorruptValue = errors.New("storage: corrupt value")

// Key joins a namespace and its parts with ':'.
func Key(namespace string, parts ...string) string {
	if len(parts) == 0 {
		return namespace
	}
	return namespace + ":" + strings.Join(parts, ":")
}

// Memory keeps JSON blobs in a bounded LRU. Used for development and tests;
// evicted keys are simply gone. Keys under a pinned prefix live outside the
// LRU and are never evicted, so sessions and sign-in accounts survive a
// full cache.
type Memory struct {
	cache  *lru.Cache[string, []byte]
	pinned []string

	mu   sync.RWMutex
	kept map[string][]byte
}

func NewMemory(size int, pinned ...string) (*Memory, error) {
	if size <= 0 {
		size = 10000
	}
	c, err := lru.New[string, []byte](size)
	if err != nil {
		return nil, fmt.Errorf("create lru: %w", err)
	}
	return &Memory{cache: c, pinned: pinned, kept: map[string][]byte{}}, nil
}

func (m *Memory) isPinned(key string) bool {
	for _, p := range m.pinned {
		if strings.HasPrefix(key, p) {
			return true
		}
	}
	return false
}

func (m *Memory) Get(ctx context.Context, key string, dest any) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	var (
		data []byte
		ok   bool
	)
	if m.isPinned(key) {
		m.mu.RLock()
		data, ok = m.kept[key]
		m.mu.RUnlock()
	} else {
		data, ok = m.cache.Get(key)
	}
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(data, dest); err != nil {
		m.remove(key)
		return false, fmt.Errorf("%w: %s: %v", ErrCorruptValue, key, err)
	}
	return true, nil
}

func (m *Memory) Set(ctx context.Context, key string, value any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	if m.isPinned(key) {
		m.mu.Lock()
		m.kept[key] = data
		m.mu.Unlock()
		return nil
	}
	m.cache.Add(key, data)
	return nil
}

func (m *Memory) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.remove(key)
	return nil
}

func (m *Memory) remove(key string) {
	if m.isPinned(key) {
		m.mu.Lock()
		delete(m.kept, key)
		m.mu.Unlock()
		return
	}
	m.cache.Remove(key)
}

func (m *Memory) Keys(ctx context.Context, prefix string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []string
	for _, k := range m.cache.Keys() {
		if strings.HasPrefix(k, prefix) {
			out = append(out, k)
		}
	}
	m.mu.RLock()
	for k := range m.kept {
		if strings.HasPrefix(k, prefix) {
			out = append(out, k)
		}
	}
	m.mu.RUnlock()
	sort.Strings(out)
	return out, nil
}

func (m *Memory) Ping(ctx context.Context) error {
	return ctx.Err()
}

// Prefixed scopes every key of an underlying KV under prefix, so several
// deployments can share one redis database.
type Prefixed struct {
	kv     KV
	prefix string
}

func WithPrefix(kv KV, prefix string) KV {
	if prefix == "" {
		return kv
	}
	return &Prefixed{kv: kv, prefix: prefix + ":"}
}

func (p *Prefixed) Get(ctx context.Context, key string, dest any) (bool, error) {
	return p.kv.Get(ctx, p.prefix+key, dest)
}

func (p *Prefixed) Set(ctx context.Context, key string, value any) error {
	return p.kv.Set(ctx, p.prefix+key, value)
}

func (p *Prefixed) Delete(ctx context.Context, key string) error {
	return p.kv.Delete(ctx, p.prefix+key)
}

func (p *Prefixed) Keys(ctx context.Context, prefix string) ([]string, error) {
	keys, err := p.kv.Keys(ctx, p.prefix+prefix)
	if err != nil {
		return nil, err
	}
	for i, k := range keys {
		keys[i] = strings.TrimPrefix(k, p.prefix)
	}
	return keys, nil
}

func (p *Prefixed) Ping(ctx context.Context) error {
	return p.kv.Ping(ctx)
}
