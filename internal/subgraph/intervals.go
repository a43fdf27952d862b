package subgraph

import (
	"context"
	"fmt"
	"math/big"

	"github.com/Meshram007/Blockchain-uniswapV3Mock-subgraph-backend/internal/entity"
	"github.com/Meshram007/Blockchain-uniswapV3Mock-subgraph-backend/internal/store"
)

const (
	daySeconds  = 86400
	hourSeconds = 3600
)

func dayID(timestamp int64) int64  { return timestamp / daySeconds }
func hourID(timestamp int64) int64 { return timestamp / hourSeconds }

// updateUniswapDayData rolls the protocol day bucket forward, creating it at
// the day boundary. Volume accumulation is the caller's job.
func (e *Engine) updateUniswapDayData(ctx context.Context, s store.Store, meta EventMeta) (*entity.UniswapDayData, error) {
	day := dayID(meta.Timestamp)
	id := fmt.Sprintf("%d", day)
	bucket, err := store.LoadOr(ctx, s, store.KindUniswapDayData, id, func() *entity.UniswapDayData {
		return entity.NewUniswapDayData(id, day*daySeconds)
	})
	if err != nil {
		return nil, err
	}
	if err := s.Put(ctx, store.KindUniswapDayData, id, bucket); err != nil {
		return nil, err
	}
	return bucket, nil
}

// updatePoolDayData refreshes the pool's day bucket from current pool state,
// maintaining the token0Price OHLC and the bucket tx counter. Returns nil
// when the pool is unknown.
func (e *Engine) updatePoolDayData(ctx context.Context, s store.Store, meta EventMeta) (*entity.PoolDayData, error) {
	pool, err := store.Load[entity.Pool](ctx, s, store.KindPool, meta.Address)
	if err != nil {
		return nil, err
	}
	if pool == nil {
		return nil, nil
	}

	day := dayID(meta.Timestamp)
	id := fmt.Sprintf("%s-%d", meta.Address, day)
	bucket, err := store.LoadOr(ctx, s, store.KindPoolDayData, id, func() *entity.PoolDayData {
		return entity.NewPoolDayData(id, pool.ID, day*daySeconds, pool.Token0Price)
	})
	if err != nil {
		return nil, err
	}

	if pool.Token0Price.GreaterThan(bucket.High) {
		bucket.High = pool.Token0Price
	}
	if pool.Token0Price.LessThan(bucket.Low) {
		bucket.Low = pool.Token0Price
	}

	bucket.Liquidity = pool.Liquidity
	bucket.SqrtPrice = pool.SqrtPrice
	bucket.Token0Price = pool.Token0Price
	bucket.Token1Price = pool.Token1Price
	bucket.FeeGrowthGlobal0X128 = pool.FeeGrowthGlobal0X128
	bucket.FeeGrowthGlobal1X128 = pool.FeeGrowthGlobal1X128
	bucket.Close = pool.Token0Price
	bucket.Tick = pool.Tick
	bucket.TxCount = new(big.Int).Add(bucket.TxCount, big.NewInt(1))

	if err := s.Put(ctx, store.KindPoolDayData, id, bucket); err != nil {
		return nil, err
	}
	return bucket, nil
}

// updatePoolHourData mirrors updatePoolDayData over hour windows.
func (e *Engine) updatePoolHourData(ctx context.Context, s store.Store, meta EventMeta) (*entity.PoolHourData, error) {
	pool, err := store.Load[entity.Pool](ctx, s, store.KindPool, meta.Address)
	if err != nil {
		return nil, err
	}
	if pool == nil {
		return nil, nil
	}

	hour := hourID(meta.Timestamp)
	id := fmt.Sprintf("%s-%d", meta.Address, hour)
	bucket, err := store.LoadOr(ctx, s, store.KindPoolHourData, id, func() *entity.PoolHourData {
		return entity.NewPoolHourData(id, pool.ID, hour*hourSeconds, pool.Token0Price)
	})
	if err != nil {
		return nil, err
	}

	if pool.Token0Price.GreaterThan(bucket.High) {
		bucket.High = pool.Token0Price
	}
	if pool.Token0Price.LessThan(bucket.Low) {
		bucket.Low = pool.Token0Price
	}

	bucket.Liquidity = pool.Liquidity
	bucket.SqrtPrice = pool.SqrtPrice
	bucket.Token0Price = pool.Token0Price
	bucket.Token1Price = pool.Token1Price
	bucket.FeeGrowthGlobal0X128 = pool.FeeGrowthGlobal0X128
	bucket.FeeGrowthGlobal1X128 = pool.FeeGrowthGlobal1X128
	bucket.Close = pool.Token0Price
	bucket.Tick = pool.Tick
	bucket.TxCount = new(big.Int).Add(bucket.TxCount, big.NewInt(1))

	if err := s.Put(ctx, store.KindPoolHourData, id, bucket); err != nil {
		return nil, err
	}
	return bucket, nil
}

// updateTokenDayData refreshes the token's day bucket and its USD price
// snapshot from the current bundle.
func (e *Engine) updateTokenDayData(ctx context.Context, s store.Store, token *entity.Token, meta EventMeta) (*entity.TokenDayData, error) {
	day := dayID(meta.Timestamp)
	id := fmt.Sprintf("%s-%d", token.ID, day)
	bucket, err := store.LoadOr(ctx, s, store.KindTokenDayData, id, func() *entity.TokenDayData {
		return entity.NewTokenDayData(id, token.ID, day*daySeconds)
	})
	if err != nil {
		return nil, err
	}

	bundle, err := store.Load[entity.Bundle](ctx, s, store.KindBundle, entity.BundleID)
	if err != nil {
		return nil, err
	}
	if bundle != nil {
		bucket.PriceUSD = token.DerivedETH.Mul(bundle.ETHPriceUSD)
	}

	if err := s.Put(ctx, store.KindTokenDayData, id, bucket); err != nil {
		return nil, err
	}
	return bucket, nil
}

// updateTokenHourData mirrors updateTokenDayData over hour windows.
func (e *Engine) updateTokenHourData(ctx context.Context, s store.Store, token *entity.Token, meta EventMeta) (*entity.TokenHourData, error) {
	hour := hourID(meta.Timestamp)
	id := fmt.Sprintf("%s-%d", token.ID, hour)
	bucket, err := store.LoadOr(ctx, s, store.KindTokenHourData, id, func() *entity.TokenHourData {
		return entity.NewTokenHourData(id, token.ID, hour*hourSeconds)
	})
	if err != nil {
		return nil, err
	}

	bundle, err := store.Load[entity.Bundle](ctx, s, store.KindBundle, entity.BundleID)
	if err != nil {
		return nil, err
	}
	if bundle != nil {
		bucket.PriceUSD = token.DerivedETH.Mul(bundle.ETHPriceUSD)
	}

	if err := s.Put(ctx, store.KindTokenHourData, id, bucket); err != nil {
		return nil, err
	}
	return bucket, nil
}
