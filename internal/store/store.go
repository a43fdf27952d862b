// Package store provides the keyed document store behind the aggregation
// engine. Entities are addressed by (kind, id); values are JSON documents.
// Two implementations share the interface: an in-memory store and a
// Postgres-backed store.
package store

import (
	"context"
)

// Kind names an entity collection.
type Kind string

const (
	KindBundle         Kind = "bundle"
	KindFactory        Kind = "factory"
	KindToken          Kind = "token"
	KindPool           Kind = "pool"
	KindTick           Kind = "tick"
	KindTransaction    Kind = "transaction"
	KindMint           Kind = "mint"
	KindBurn           Kind = "burn"
	KindSwap           Kind = "swap"
	KindUniswapDayData Kind = "uniswap_day_data"
	KindPoolDayData    Kind = "pool_day_data"
	KindPoolHourData   Kind = "pool_hour_data"
	KindTokenDayData   Kind = "token_day_data"
	KindTokenHourData  Kind = "token_hour_data"

	// KindCursor holds indexer bookkeeping, not subgraph entities.
	KindCursor Kind = "cursor"
)

// Store is the entity persistence surface. Writes within Transact become
// visible to reads through the same Store argument and are committed
// together, or discarded together when fn returns an error.
type Store interface {
	// Get unmarshals the entity into out and reports whether it exists.
	Get(ctx context.Context, kind Kind, id string, out any) (bool, error)
	// Put upserts the entity under (kind, id).
	Put(ctx context.Context, kind Kind, id string, v any) error
	// Keys lists all ids stored under kind, sorted.
	Keys(ctx context.Context, kind Kind) ([]string, error)
	// Transact runs fn with all-or-nothing write semantics.
	Transact(ctx context.Context, fn func(Store) error) error
}

// Load returns the stored entity, or nil when absent.
func Load[T any](ctx context.Context, s Store, kind Kind, id string) (*T, error) {
	out := new(T)
	ok, err := s.Get(ctx, kind, id, out)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return out, nil
}

// LoadOr returns the stored entity, or constructs, stores and returns the
// default. Construction happens in one place so every creation path starts
// from fully initialized accumulators.
func LoadOr[T any](ctx context.Context, s Store, kind Kind, id string, init func() *T) (*T, error) {
	v, err := Load[T](ctx, s, kind, id)
	if err != nil || v != nil {
		return v, err
	}
	v = init()
	if err := s.Put(ctx, kind, id, v); err != nil {
		return nil, err
	}
	return v, nil
}
