package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
)

// Memory is the in-memory store. Values are kept JSON-encoded so loads hand
// out copies, never aliases into store state.
type Memory struct {
	data map[Kind]map[string][]byte
}

func NewMemory() *Memory {
	return &Memory{data: make(map[Kind]map[string][]byte)}
}

func (m *Memory) Get(ctx context.Context, kind Kind, id string, out any) (bool, error) {
	raw, ok := m.data[kind][id]
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, fmt.Errorf("decode %s/%s: %w", kind, id, err)
	}
	return true, nil
}

func (m *Memory) Put(ctx context.Context, kind Kind, id string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", kind, id, err)
	}
	bucket, ok := m.data[kind]
	if !ok {
		bucket = make(map[string][]byte)
		m.data[kind] = bucket
	}
	bucket[id] = raw
	return nil
}

func (m *Memory) Keys(ctx context.Context, kind Kind) ([]string, error) {
	keys := make([]string, 0, len(m.data[kind]))
	for id := range m.data[kind] {
		keys = append(keys, id)
	}
	sort.Strings(keys)
	return keys, nil
}

// Transact stages writes in an overlay and merges them only when fn succeeds.
func (m *Memory) Transact(ctx context.Context, fn func(Store) error) error {
	o := &memOverlay{base: m, staged: make(map[Kind]map[string][]byte)}
	if err := fn(o); err != nil {
		return err
	}
	for kind, bucket := range o.staged {
		base, ok := m.data[kind]
		if !ok {
			base = make(map[string][]byte)
			m.data[kind] = base
		}
		for id, raw := range bucket {
			base[id] = raw
		}
	}
	return nil
}

type memOverlay struct {
	base   *Memory
	staged map[Kind]map[string][]byte
}

func (o *memOverlay) Get(ctx context.Context, kind Kind, id string, out any) (bool, error) {
	if raw, ok := o.staged[kind][id]; ok {
		if err := json.Unmarshal(raw, out); err != nil {
			return false, fmt.Errorf("decode %s/%s: %w", kind, id, err)
		}
		return true, nil
	}
	return o.base.Get(ctx, kind, id, out)
}

func (o *memOverlay) Put(ctx context.Context, kind Kind, id string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", kind, id, err)
	}
	bucket, ok := o.staged[kind]
	if !ok {
		bucket = make(map[string][]byte)
		o.staged[kind] = bucket
	}
	bucket[id] = raw
	return nil
}

func (o *memOverlay) Keys(ctx context.Context, kind Kind) ([]string, error) {
	seen := make(map[string]struct{})
	for id := range o.base.data[kind] {
		seen[id] = struct{}{}
	}
	for id := range o.staged[kind] {
		seen[id] = struct{}{}
	}
	keys := make([]string, 0, len(seen))
	for id := range seen {
		keys = append(keys, id)
	}
	sort.Strings(keys)
	return keys, nil
}

// Transact on an overlay runs fn directly; the engine is a single sequential
// writer, so nested transactions never commit partially.
func (o *memOverlay) Transact(ctx context.Context, fn func(Store) error) error {
	return fn(o)
}
