package docstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// MemStore is the in-process implementation used by package tests. A single
// store-wide mutex is held for the whole transaction function, so execution is
// trivially serializable; writes are staged and applied only when the function
// returns nil. Documents are kept as encoded JSON so reads hand out copies,
// never aliases into the store.
type MemStore struct {
	mu   sync.Mutex
	docs map[string]json.RawMessage
}

func NewMemStore() *MemStore {
	return &MemStore{docs: make(map[string]json.RawMessage)}
}

func (s *MemStore) RunTransaction(ctx context.Context, fn func(tx Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &memTx{store: s, staged: make(map[string]json.RawMessage)}
	if err := fn(tx); err != nil {
		return err
	}
	for key, raw := range tx.staged {
		s.docs[key] = raw
	}
	return nil
}

func (s *MemStore) List(ctx context.Context, prefix string, visit func(key string, raw []byte) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	keys := make([]string, 0, len(s.docs))
	for key := range s.docs {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	snapshot := make(map[string]json.RawMessage, len(keys))
	for _, key := range keys {
		snapshot[key] = s.docs[key]
	}
	s.mu.Unlock()

	for _, key := range keys {
		if err := visit(key, snapshot[key]); err != nil {
			return err
		}
	}
	return nil
}

type memTx struct {
	store  *MemStore
	staged map[string]json.RawMessage
}

func (t *memTx) current(key string) (json.RawMessage, bool) {
	if raw, ok := t.staged[key]; ok {
		return raw, true
	}
	raw, ok := t.store.docs[key]
	return raw, ok
}

func (t *memTx) Get(key string, dest any) (bool, error) {
	raw, ok := t.current(key)
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

func (t *memTx) Set(key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	t.staged[key] = raw
	return nil
}

func (t *memTx) Update(key string, fields map[string]any) error {
	raw, ok := t.current(key)
	if !ok {
		return fmt.Errorf("update %s: document not found", key)
	}
	doc := make(map[string]any)
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	for field, value := range fields {
		doc[field] = value
	}
	merged, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	t.staged[key] = merged
	return nil
}
