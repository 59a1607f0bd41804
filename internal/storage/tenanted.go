package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
)

// Tenanted caches one document per tenant under "<namespace>:<tenantID>"
// and writes it back after every successful update. Documents handed out
// by Read are shared and must be treated as read-only.
type Tenanted[T any] struct {
	kv        KV
	namespace string
	seed      func(tenantID string) T

	mu   sync.RWMutex
	docs map[string]T
}

// NewTenanted builds a collection. seed supplies the document for a tenant
// that has nothing persisted yet; nil means the zero value.
func NewTenanted[T any](kv KV, namespace string, seed func(tenantID string) T) *Tenanted[T] {
	if seed == nil {
		seed = func(string) T {
			var zero T
			return zero
		}
	}
	return &Tenanted[T]{
		kv:        kv,
		namespace: namespace,
		seed:      seed,
		docs:      make(map[string]T),
	}
}

func (t *Tenanted[T]) Namespace() string {
	return t.namespace
}

func (t *Tenanted[T]) Read(ctx context.Context, tenantID string) (T, error) {
	t.mu.RLock()
	doc, ok := t.docs[tenantID]
	t.mu.RUnlock()
	if ok {
		return doc, nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	return t.loadLocked(ctx, tenantID)
}

// Update applies fn to the tenant's document and persists the result. When
// fn or the write fails, the cached document is left untouched.
func (t *Tenanted[T]) Update(ctx context.Context, tenantID string, fn func(T) (T, error)) (T, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	var zero T
	cur, err := t.loadLocked(ctx, tenantID)
	if err != nil {
		return zero, err
	}
	next, err := fn(cur)
	if err != nil {
		return zero, err
	}
	if err := t.kv.Set(ctx, Key(t.namespace, tenantID), next); err != nil {
		return zero, fmt.Errorf("persist %s: %w", t.namespace, err)
	}
	t.docs[tenantID] = next
	return next, nil
}

// Persist writes the tenant's current document, seeding it first when
// nothing is stored yet.
func (t *Tenanted[T]) Persist(ctx context.Context, tenantID string) (T, error) {
	return t.Update(ctx, tenantID, func(doc T) (T, error) { return doc, nil })
}

// Tenants lists every tenant with a persisted document.
func (t *Tenanted[T]) Tenants(ctx context.Context) ([]string, error) {
	prefix := t.namespace + ":"
	keys, err := t.kv.Keys(ctx, prefix)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(keys))
	for _, k := range keys {
		ids = append(ids, strings.TrimPrefix(k, prefix))
	}
	return ids, nil
}

func (t *Tenanted[T]) loadLocked(ctx context.Context, tenantID string) (T, error) {
	if doc, ok := t.docs[tenantID]; ok {
		return doc, nil
	}
	var doc T
	found, err := t.kv.Get(ctx, Key(t.namespace, tenantID), &doc)
	if err != nil && !errors.Is(err, ErrCorruptValue) {
		var zero T
		return zero, fmt.Errorf("load %s: %w", t.namespace, err)
	}
	if !found {
		doc = t.seed(tenantID)
	}
	t.docs[tenantID] = doc
	return doc, nil
}
