package subgraph

import (
	"context"
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"

	"github.com/Meshram007/Blockchain-uniswapV3Mock-subgraph-backend/internal/dexmath"
	"github.com/Meshram007/Blockchain-uniswapV3Mock-subgraph-backend/internal/entity"
	"github.com/Meshram007/Blockchain-uniswapV3Mock-subgraph-backend/internal/store"
)

var (
	oneBI       = big.NewInt(1)
	tickBase    = decimal.RequireFromString("1.0001")
	feeDenom    = decimal.NewFromInt(1_000_000)
	negativeOne = decimal.NewFromInt(-1)
)

func (e *Engine) handlePoolCreated(ctx context.Context, s store.Store, ev PoolCreatedEvent) error {
	if _, ignored := e.params.ignoredPoolsCreated[ev.Pool]; ignored {
		return skip(skipIgnoredPool, "pool %s", ev.Pool)
	}

	existing, err := store.Load[entity.Pool](ctx, s, store.KindPool, ev.Pool)
	if err != nil {
		return err
	}
	if existing != nil {
		return skip(skipDuplicatePool, "pool %s already exists", ev.Pool)
	}

	factory, err := store.Load[entity.Factory](ctx, s, store.KindFactory, e.params.factoryAddress)
	if err != nil {
		return err
	}
	if factory == nil {
		factory = entity.NewFactory(e.params.factoryAddress)
		// first pool ever, seed the price bundle
		bundle := entity.NewBundle()
		if err := s.Put(ctx, store.KindBundle, bundle.ID, bundle); err != nil {
			return err
		}
	}
	factory.PoolCount = new(big.Int).Add(factory.PoolCount, oneBI)

	token0, err := e.loadOrCreateToken(ctx, s, ev.Token0)
	if err != nil {
		return err
	}
	token1, err := e.loadOrCreateToken(ctx, s, ev.Token1)
	if err != nil {
		return err
	}

	pool := entity.NewPool(ev.Pool, token0.ID, token1.ID, big.NewInt(ev.FeeTier), ev.Timestamp, ev.BlockNumber)

	// a pool against a whitelisted token becomes a pricing path for the
	// other side
	if e.params.isWhitelisted(token0.ID) {
		token1.WhitelistPools = append(token1.WhitelistPools, pool.ID)
	}
	if e.params.isWhitelisted(token1.ID) {
		token0.WhitelistPools = append(token0.WhitelistPools, pool.ID)
	}

	if err := s.Put(ctx, store.KindPool, pool.ID, pool); err != nil {
		return err
	}
	if err := s.Put(ctx, store.KindToken, token0.ID, token0); err != nil {
		return err
	}
	if err := s.Put(ctx, store.KindToken, token1.ID, token1); err != nil {
		return err
	}
	return s.Put(ctx, store.KindFactory, factory.ID, factory)
}

// loadOrCreateToken returns the stored token or builds one from on-chain
// metadata. A token whose decimals cannot be read is not indexable and the
// whole event is skipped.
func (e *Engine) loadOrCreateToken(ctx context.Context, s store.Store, address string) (*entity.Token, error) {
	token, err := store.Load[entity.Token](ctx, s, store.KindToken, address)
	if err != nil {
		return nil, err
	}
	if token != nil {
		return token, nil
	}

	meta, err := e.metadata.TokenMetadata(ctx, address)
	if err != nil {
		return nil, skip(skipTokenMetadata, "token %s: %v", address, err)
	}
	return entity.NewToken(address, meta.Symbol, meta.Name, meta.Decimals, meta.TotalSupply), nil
}

func (e *Engine) handleInitialize(ctx context.Context, s store.Store, ev InitializeEvent) error {
	pool, err := store.Load[entity.Pool](ctx, s, store.KindPool, ev.Address)
	if err != nil {
		return err
	}
	if pool == nil {
		return skip(skipUnknownPool, "pool %s", ev.Address)
	}

	pool.SqrtPrice = ev.SqrtPriceX96
	pool.Tick = big.NewInt(ev.Tick)
	if err := s.Put(ctx, store.KindPool, pool.ID, pool); err != nil {
		return err
	}

	token0, err := store.Load[entity.Token](ctx, s, store.KindToken, pool.Token0)
	if err != nil {
		return err
	}
	token1, err := store.Load[entity.Token](ctx, s, store.KindToken, pool.Token1)
	if err != nil {
		return err
	}

	bundle, err := store.Load[entity.Bundle](ctx, s, store.KindBundle, entity.BundleID)
	if err != nil {
		return err
	}
	if bundle != nil {
		bundle.ETHPriceUSD, err = e.ethPriceInUSD(ctx, s)
		if err != nil {
			return err
		}
		if err := s.Put(ctx, store.KindBundle, bundle.ID, bundle); err != nil {
			return err
		}
	}

	if _, err := e.updatePoolDayData(ctx, s, ev.EventMeta); err != nil {
		return err
	}
	if _, err := e.updatePoolHourData(ctx, s, ev.EventMeta); err != nil {
		return err
	}

	if token0 != nil && token1 != nil {
		token0.DerivedETH, err = e.findEthPerToken(ctx, s, token0)
		if err != nil {
			return err
		}
		token1.DerivedETH, err = e.findEthPerToken(ctx, s, token1)
		if err != nil {
			return err
		}
		if err := s.Put(ctx, store.KindToken, token0.ID, token0); err != nil {
			return err
		}
		if err := s.Put(ctx, store.KindToken, token1.ID, token1); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) handleMint(ctx context.Context, s store.Store, ev MintEvent) error {
	bundle, err := store.Load[entity.Bundle](ctx, s, store.KindBundle, entity.BundleID)
	if err != nil {
		return err
	}
	pool, err := store.Load[entity.Pool](ctx, s, store.KindPool, ev.Address)
	if err != nil {
		return err
	}
	if pool == nil || bundle == nil {
		return skip(skipUnknownPool, "pool %s", ev.Address)
	}

	token0, err := store.Load[entity.Token](ctx, s, store.KindToken, pool.Token0)
	if err != nil {
		return err
	}
	token1, err := store.Load[entity.Token](ctx, s, store.KindToken, pool.Token1)
	if err != nil {
		return err
	}
	if token0 == nil || token1 == nil {
		return skip(skipMissingEntity, "tokens for pool %s", pool.ID)
	}

	amount0 := dexmath.ConvertTokenToDecimal(ev.Amount0, token0.Decimals)
	amount1 := dexmath.ConvertTokenToDecimal(ev.Amount1, token1.Decimals)

	amountUSD := amount0.Mul(token0.DerivedETH.Mul(bundle.ETHPriceUSD)).
		Add(amount1.Mul(token1.DerivedETH.Mul(bundle.ETHPriceUSD)))

	pool.TxCount = new(big.Int).Add(pool.TxCount, oneBI)

	// liquidity only reflects positions straddling the current tick
	if tickStraddles(pool.Tick, ev.TickLower, ev.TickUpper) {
		pool.Liquidity = new(big.Int).Sub(pool.Liquidity, ev.Amount)
	}

	pool.TotalValueLockedToken0 = pool.TotalValueLockedToken0.Sub(amount0)
	pool.TotalValueLockedToken1 = pool.TotalValueLockedToken1.Sub(amount1)

	transaction, err := loadTransaction(ctx, s, ev.EventMeta)
	if err != nil {
		return err
	}

	mint := &entity.Mint{
		ID:          fmt.Sprintf("%s#%s", transaction.ID, pool.TxCount.String()),
		Transaction: transaction.ID,
		Timestamp:   transaction.Timestamp,
		Pool:        pool.ID,
		Token0:      pool.Token0,
		Token1:      pool.Token1,
		Owner:       ev.Owner,
		Amount:      ev.Amount,
		Amount0:     amount0,
		Amount1:     amount1,
		AmountUSD:   amountUSD,
		TickLower:   big.NewInt(ev.TickLower),
		TickUpper:   big.NewInt(ev.TickUpper),
	}

	lowerTick, err := loadOrCreateTick(ctx, s, pool.ID, ev.TickLower)
	if err != nil {
		return err
	}
	upperTick, err := loadOrCreateTick(ctx, s, pool.ID, ev.TickUpper)
	if err != nil {
		return err
	}

	lowerTick.LiquidityGross = new(big.Int).Add(lowerTick.LiquidityGross, ev.Amount)
	lowerTick.LiquidityNet = new(big.Int).Add(lowerTick.LiquidityNet, ev.Amount)
	upperTick.LiquidityGross = new(big.Int).Add(upperTick.LiquidityGross, ev.Amount)
	upperTick.LiquidityNet = new(big.Int).Sub(upperTick.LiquidityNet, ev.Amount)

	if err := s.Put(ctx, store.KindTick, lowerTick.ID, lowerTick); err != nil {
		return err
	}
	if err := s.Put(ctx, store.KindTick, upperTick.ID, upperTick); err != nil {
		return err
	}

	if err := e.updateAllIntervals(ctx, s, ev.EventMeta, token0, token1); err != nil {
		return err
	}

	if err := s.Put(ctx, store.KindToken, token0.ID, token0); err != nil {
		return err
	}
	if err := s.Put(ctx, store.KindToken, token1.ID, token1); err != nil {
		return err
	}
	if err := s.Put(ctx, store.KindPool, pool.ID, pool); err != nil {
		return err
	}
	return s.Put(ctx, store.KindMint, mint.ID, mint)
}

func (e *Engine) handleBurn(ctx context.Context, s store.Store, ev BurnEvent) error {
	bundle, err := store.Load[entity.Bundle](ctx, s, store.KindBundle, entity.BundleID)
	if err != nil {
		return err
	}
	pool, err := store.Load[entity.Pool](ctx, s, store.KindPool, ev.Address)
	if err != nil {
		return err
	}
	if pool == nil || bundle == nil {
		return skip(skipUnknownPool, "pool %s", ev.Address)
	}

	token0, err := store.Load[entity.Token](ctx, s, store.KindToken, pool.Token0)
	if err != nil {
		return err
	}
	token1, err := store.Load[entity.Token](ctx, s, store.KindToken, pool.Token1)
	if err != nil {
		return err
	}
	if token0 == nil || token1 == nil {
		return skip(skipMissingEntity, "tokens for pool %s", pool.ID)
	}

	amount0 := dexmath.ConvertTokenToDecimal(ev.Amount0, token0.Decimals)
	amount1 := dexmath.ConvertTokenToDecimal(ev.Amount1, token1.Decimals)

	amountUSD := amount0.Mul(token0.DerivedETH.Mul(bundle.ETHPriceUSD)).
		Add(amount1.Mul(token1.DerivedETH.Mul(bundle.ETHPriceUSD)))

	pool.TxCount = new(big.Int).Add(pool.TxCount, oneBI)

	if tickStraddles(pool.Tick, ev.TickLower, ev.TickUpper) {
		pool.Liquidity = new(big.Int).Sub(pool.Liquidity, ev.Amount)
	}

	pool.TotalValueLockedToken0 = pool.TotalValueLockedToken0.Sub(amount0)
	pool.TotalValueLockedToken1 = pool.TotalValueLockedToken1.Sub(amount1)

	transaction, err := loadTransaction(ctx, s, ev.EventMeta)
	if err != nil {
		return err
	}

	burn := &entity.Burn{
		ID:          fmt.Sprintf("%s#%s", transaction.ID, pool.TxCount.String()),
		Transaction: transaction.ID,
		Timestamp:   transaction.Timestamp,
		Pool:        pool.ID,
		Token0:      pool.Token0,
		Token1:      pool.Token1,
		Owner:       ev.Owner,
		Amount:      ev.Amount,
		Amount0:     amount0,
		Amount1:     amount1,
		AmountUSD:   amountUSD,
		TickLower:   big.NewInt(ev.TickLower),
		TickUpper:   big.NewInt(ev.TickUpper),
	}

	// burns only touch ticks that already exist
	lowerTick, err := store.Load[entity.Tick](ctx, s, store.KindTick, tickID(pool.ID, ev.TickLower))
	if err != nil {
		return err
	}
	upperTick, err := store.Load[entity.Tick](ctx, s, store.KindTick, tickID(pool.ID, ev.TickUpper))
	if err != nil {
		return err
	}
	if lowerTick != nil && upperTick != nil {
		lowerTick.LiquidityGross = new(big.Int).Sub(lowerTick.LiquidityGross, ev.Amount)
		lowerTick.LiquidityNet = new(big.Int).Sub(lowerTick.LiquidityNet, ev.Amount)
		upperTick.LiquidityGross = new(big.Int).Sub(upperTick.LiquidityGross, ev.Amount)
		upperTick.LiquidityNet = new(big.Int).Add(upperTick.LiquidityNet, ev.Amount)

		if err := s.Put(ctx, store.KindTick, lowerTick.ID, lowerTick); err != nil {
			return err
		}
		if err := s.Put(ctx, store.KindTick, upperTick.ID, upperTick); err != nil {
			return err
		}
	}

	if err := e.updateAllIntervals(ctx, s, ev.EventMeta, token0, token1); err != nil {
		return err
	}

	if err := s.Put(ctx, store.KindToken, token0.ID, token0); err != nil {
		return err
	}
	if err := s.Put(ctx, store.KindToken, token1.ID, token1); err != nil {
		return err
	}
	if err := s.Put(ctx, store.KindPool, pool.ID, pool); err != nil {
		return err
	}
	return s.Put(ctx, store.KindBurn, burn.ID, burn)
}

func (e *Engine) handleSwap(ctx context.Context, s store.Store, ev SwapEvent) error {
	bundle, err := store.Load[entity.Bundle](ctx, s, store.KindBundle, entity.BundleID)
	if err != nil {
		return err
	}
	factory, err := store.Load[entity.Factory](ctx, s, store.KindFactory, e.params.factoryAddress)
	if err != nil {
		return err
	}
	pool, err := store.Load[entity.Pool](ctx, s, store.KindPool, ev.Address)
	if err != nil {
		return err
	}
	if pool == nil || bundle == nil || factory == nil {
		return skip(skipUnknownPool, "pool %s", ev.Address)
	}

	if _, ignored := e.params.ignoredPoolsSwap[pool.ID]; ignored {
		return skip(skipIgnoredPool, "pool %s", pool.ID)
	}

	token0, err := store.Load[entity.Token](ctx, s, store.KindToken, pool.Token0)
	if err != nil {
		return err
	}
	token1, err := store.Load[entity.Token](ctx, s, store.KindToken, pool.Token1)
	if err != nil {
		return err
	}
	if token0 == nil || token1 == nil {
		return skip(skipMissingEntity, "tokens for pool %s", pool.ID)
	}

	amount0 := dexmath.ConvertTokenToDecimal(ev.Amount0, token0.Decimals)
	amount1 := dexmath.ConvertTokenToDecimal(ev.Amount1, token1.Decimals)

	amount0Abs := amount0
	if amount0.LessThan(dexmath.ZeroBD) {
		amount0Abs = amount0.Mul(negativeOne)
	}
	amount1Abs := amount1
	if amount1.LessThan(dexmath.ZeroBD) {
		amount1Abs = amount1.Mul(negativeOne)
	}

	// volumes are valued at the pre-swap prices
	amount0ETH := amount0Abs.Mul(token0.DerivedETH)
	amount1ETH := amount1Abs.Mul(token1.DerivedETH)
	amount0USD := amount0ETH.Mul(bundle.ETHPriceUSD)
	amount1USD := amount1ETH.Mul(bundle.ETHPriceUSD)

	// halved because both legs of one trade cannot both count as volume
	tracked, err := e.trackedAmountUSD(ctx, s, amount0Abs, token0, amount1Abs, token1)
	if err != nil {
		return err
	}
	amountTotalUSDTracked := tracked.Div(two)
	amountTotalETHTracked := dexmath.SafeDiv(amountTotalUSDTracked, bundle.ETHPriceUSD)
	amountTotalUSDUntracked := amount0USD.Add(amount1USD).Div(two)

	feeTier := decimal.NewFromBigInt(pool.FeeTier, 0)
	feesETH := amountTotalETHTracked.Mul(feeTier).Div(feeDenom)
	feesUSD := amountTotalUSDTracked.Mul(feeTier).Div(feeDenom)

	factory.TxCount = new(big.Int).Add(factory.TxCount, oneBI)
	factory.TotalVolumeETH = factory.TotalVolumeETH.Add(amountTotalETHTracked)
	factory.TotalVolumeUSD = factory.TotalVolumeUSD.Add(amountTotalUSDTracked)
	factory.UntrackedVolumeUSD = factory.UntrackedVolumeUSD.Add(amountTotalUSDUntracked)
	factory.TotalFeesETH = factory.TotalFeesETH.Add(feesETH)
	factory.TotalFeesUSD = factory.TotalFeesUSD.Add(feesUSD)

	pool.VolumeToken0 = pool.VolumeToken0.Add(amount0Abs)
	pool.VolumeToken1 = pool.VolumeToken1.Add(amount1Abs)
	pool.VolumeUSD = pool.VolumeUSD.Add(amountTotalUSDTracked)
	pool.UntrackedVolumeUSD = pool.UntrackedVolumeUSD.Add(amountTotalUSDUntracked)
	pool.FeesUSD = pool.FeesUSD.Add(feesUSD)
	pool.TxCount = new(big.Int).Add(pool.TxCount, oneBI)

	pool.Liquidity = ev.Liquidity
	pool.Tick = big.NewInt(ev.Tick)
	pool.SqrtPrice = ev.SqrtPriceX96
	if err := s.Put(ctx, store.KindPool, pool.ID, pool); err != nil {
		return err
	}

	token0.Volume = token0.Volume.Add(amount0Abs)
	token0.VolumeUSD = token0.VolumeUSD.Add(amountTotalUSDTracked)
	token0.UntrackedVolumeUSD = token0.UntrackedVolumeUSD.Add(amountTotalUSDUntracked)
	token0.FeesUSD = token0.FeesUSD.Add(feesUSD)
	token0.TxCount = new(big.Int).Add(token0.TxCount, oneBI)

	token1.Volume = token1.Volume.Add(amount1Abs)
	token1.VolumeUSD = token1.VolumeUSD.Add(amountTotalUSDTracked)
	token1.UntrackedVolumeUSD = token1.UntrackedVolumeUSD.Add(amountTotalUSDUntracked)
	token1.FeesUSD = token1.FeesUSD.Add(feesUSD)
	token1.TxCount = new(big.Int).Add(token1.TxCount, oneBI)

	pool.Token0Price, pool.Token1Price = SqrtPriceX96ToTokenPrices(pool.SqrtPrice, token0, token1)
	if err := s.Put(ctx, store.KindPool, pool.ID, pool); err != nil {
		return err
	}

	// reprice against the post-swap state
	bundle.ETHPriceUSD, err = e.ethPriceInUSD(ctx, s)
	if err != nil {
		return err
	}
	if err := s.Put(ctx, store.KindBundle, bundle.ID, bundle); err != nil {
		return err
	}
	token0.DerivedETH, err = e.findEthPerToken(ctx, s, token0)
	if err != nil {
		return err
	}
	token1.DerivedETH, err = e.findEthPerToken(ctx, s, token1)
	if err != nil {
		return err
	}

	transaction, err := loadTransaction(ctx, s, ev.EventMeta)
	if err != nil {
		return err
	}

	swap := &entity.Swap{
		ID:           fmt.Sprintf("%s#%s", transaction.ID, pool.TxCount.String()),
		Transaction:  transaction.ID,
		Timestamp:    transaction.Timestamp,
		Pool:         pool.ID,
		Token0:       pool.Token0,
		Token1:       pool.Token1,
		Sender:       ev.Sender,
		Recipient:    ev.Recipient,
		Amount0:      amount0,
		Amount1:      amount1,
		AmountUSD:    amountTotalUSDTracked,
		Tick:         big.NewInt(ev.Tick),
		SqrtPriceX96: ev.SqrtPriceX96,
	}

	uniswapDayData, err := e.updateUniswapDayData(ctx, s, ev.EventMeta)
	if err != nil {
		return err
	}
	poolDayData, err := e.updatePoolDayData(ctx, s, ev.EventMeta)
	if err != nil {
		return err
	}
	poolHourData, err := e.updatePoolHourData(ctx, s, ev.EventMeta)
	if err != nil {
		return err
	}
	token0DayData, err := e.updateTokenDayData(ctx, s, token0, ev.EventMeta)
	if err != nil {
		return err
	}
	token1DayData, err := e.updateTokenDayData(ctx, s, token1, ev.EventMeta)
	if err != nil {
		return err
	}
	token0HourData, err := e.updateTokenHourData(ctx, s, token0, ev.EventMeta)
	if err != nil {
		return err
	}
	token1HourData, err := e.updateTokenHourData(ctx, s, token1, ev.EventMeta)
	if err != nil {
		return err
	}

	uniswapDayData.VolumeETH = uniswapDayData.VolumeETH.Add(amountTotalETHTracked)
	uniswapDayData.VolumeUSD = uniswapDayData.VolumeUSD.Add(amountTotalUSDTracked)
	uniswapDayData.FeesUSD = uniswapDayData.FeesUSD.Add(feesUSD)
	if err := s.Put(ctx, store.KindUniswapDayData, uniswapDayData.ID, uniswapDayData); err != nil {
		return err
	}

	poolDayData.VolumeUSD = poolDayData.VolumeUSD.Add(amountTotalUSDTracked)
	poolDayData.VolumeToken0 = poolDayData.VolumeToken0.Add(amount0Abs)
	poolDayData.VolumeToken1 = poolDayData.VolumeToken1.Add(amount1Abs)
	poolDayData.FeesUSD = poolDayData.FeesUSD.Add(feesUSD)
	if err := s.Put(ctx, store.KindPoolDayData, poolDayData.ID, poolDayData); err != nil {
		return err
	}

	poolHourData.VolumeUSD = poolHourData.VolumeUSD.Add(amountTotalUSDTracked)
	poolHourData.VolumeToken0 = poolHourData.VolumeToken0.Add(amount0Abs)
	poolHourData.VolumeToken1 = poolHourData.VolumeToken1.Add(amount1Abs)
	poolHourData.FeesUSD = poolHourData.FeesUSD.Add(feesUSD)
	if err := s.Put(ctx, store.KindPoolHourData, poolHourData.ID, poolHourData); err != nil {
		return err
	}

	token0DayData.Volume = token0DayData.Volume.Add(amount0Abs)
	token0DayData.VolumeUSD = token0DayData.VolumeUSD.Add(amountTotalUSDTracked)
	token0DayData.UntrackedVolumeUSD = token0DayData.UntrackedVolumeUSD.Add(amountTotalUSDTracked)
	token0DayData.FeesUSD = token0DayData.FeesUSD.Add(feesUSD)
	if err := s.Put(ctx, store.KindTokenDayData, token0DayData.ID, token0DayData); err != nil {
		return err
	}

	token0HourData.Volume = token0HourData.Volume.Add(amount0Abs)
	token0HourData.VolumeUSD = token0HourData.VolumeUSD.Add(amountTotalUSDTracked)
	token0HourData.UntrackedVolumeUSD = token0HourData.UntrackedVolumeUSD.Add(amountTotalUSDTracked)
	token0HourData.FeesUSD = token0HourData.FeesUSD.Add(feesUSD)
	if err := s.Put(ctx, store.KindTokenHourData, token0HourData.ID, token0HourData); err != nil {
		return err
	}

	token1DayData.Volume = token1DayData.Volume.Add(amount1Abs)
	token1DayData.VolumeUSD = token1DayData.VolumeUSD.Add(amountTotalUSDTracked)
	token1DayData.UntrackedVolumeUSD = token1DayData.UntrackedVolumeUSD.Add(amountTotalUSDTracked)
	token1DayData.FeesUSD = token1DayData.FeesUSD.Add(feesUSD)
	if err := s.Put(ctx, store.KindTokenDayData, token1DayData.ID, token1DayData); err != nil {
		return err
	}

	token1HourData.Volume = token1HourData.Volume.Add(amount1Abs)
	token1HourData.VolumeUSD = token1HourData.VolumeUSD.Add(amountTotalUSDTracked)
	token1HourData.UntrackedVolumeUSD = token1HourData.UntrackedVolumeUSD.Add(amountTotalUSDTracked)
	token1HourData.FeesUSD = token1HourData.FeesUSD.Add(feesUSD)
	if err := s.Put(ctx, store.KindTokenHourData, token1HourData.ID, token1HourData); err != nil {
		return err
	}

	if err := s.Put(ctx, store.KindSwap, swap.ID, swap); err != nil {
		return err
	}
	if err := s.Put(ctx, store.KindFactory, factory.ID, factory); err != nil {
		return err
	}
	if err := s.Put(ctx, store.KindPool, pool.ID, pool); err != nil {
		return err
	}
	if err := s.Put(ctx, store.KindToken, token0.ID, token0); err != nil {
		return err
	}
	return s.Put(ctx, store.KindToken, token1.ID, token1)
}

func (e *Engine) handleFlash(ctx context.Context, s store.Store, ev FlashEvent) error {
	pool, err := store.Load[entity.Pool](ctx, s, store.KindPool, ev.Address)
	if err != nil {
		return err
	}
	if pool == nil {
		return skip(skipUnknownPool, "pool %s", ev.Address)
	}
	if e.poolState == nil {
		return skip(skipNoStateReader, "pool %s", ev.Address)
	}

	fee0, fee1, err := e.poolState.FeeGrowthGlobals(ctx, pool.ID)
	if err != nil {
		return skip(skipStateReadFailed, "pool %s: %v", pool.ID, err)
	}

	pool.FeeGrowthGlobal0X128 = fee0
	pool.FeeGrowthGlobal1X128 = fee1
	return s.Put(ctx, store.KindPool, pool.ID, pool)
}

// updateAllIntervals refreshes the full rollup fan-out for a liquidity
// event. Volume accumulation stays with the swap handler.
func (e *Engine) updateAllIntervals(ctx context.Context, s store.Store, meta EventMeta, token0, token1 *entity.Token) error {
	if _, err := e.updateUniswapDayData(ctx, s, meta); err != nil {
		return err
	}
	if _, err := e.updatePoolDayData(ctx, s, meta); err != nil {
		return err
	}
	if _, err := e.updatePoolHourData(ctx, s, meta); err != nil {
		return err
	}
	if _, err := e.updateTokenDayData(ctx, s, token0, meta); err != nil {
		return err
	}
	if _, err := e.updateTokenDayData(ctx, s, token1, meta); err != nil {
		return err
	}
	if _, err := e.updateTokenHourData(ctx, s, token0, meta); err != nil {
		return err
	}
	_, err := e.updateTokenHourData(ctx, s, token1, meta)
	return err
}

// tickStraddles reports whether tickLower <= current < tickUpper.
func tickStraddles(current *big.Int, tickLower, tickUpper int64) bool {
	if current == nil {
		return false
	}
	return big.NewInt(tickLower).Cmp(current) <= 0 && big.NewInt(tickUpper).Cmp(current) > 0
}

func tickID(pool string, idx int64) string {
	return fmt.Sprintf("%s#%d", pool, idx)
}

func loadOrCreateTick(ctx context.Context, s store.Store, pool string, idx int64) (*entity.Tick, error) {
	id := tickID(pool, idx)
	tick, err := store.Load[entity.Tick](ctx, s, store.KindTick, id)
	if err != nil {
		return nil, err
	}
	if tick != nil {
		return tick, nil
	}
	return createTick(id, pool, idx), nil
}

// createTick builds a fresh tick row with its fixed boundary prices,
// 1.0001^idx being token1 per token0 at that boundary.
func createTick(id, pool string, idx int64) *entity.Tick {
	price0 := dexmath.BigDecimalExponated(tickBase, idx)
	return &entity.Tick{
		ID:             id,
		Pool:           pool,
		TickIdx:        big.NewInt(idx),
		LiquidityGross: new(big.Int),
		LiquidityNet:   new(big.Int),
		Price0:         price0,
		Price1:         dexmath.SafeDiv(dexmath.OneBD, price0),
	}
}

// loadTransaction upserts the transaction anchor for an event. Re-saving
// for every event in the same transaction is deliberate.
func loadTransaction(ctx context.Context, s store.Store, meta EventMeta) (*entity.Transaction, error) {
	transaction, err := store.Load[entity.Transaction](ctx, s, store.KindTransaction, meta.TxHash)
	if err != nil {
		return nil, err
	}
	if transaction == nil {
		transaction = &entity.Transaction{ID: meta.TxHash}
	}
	transaction.BlockNumber = meta.BlockNumber
	transaction.Timestamp = meta.Timestamp
	if err := s.Put(ctx, store.KindTransaction, transaction.ID, transaction); err != nil {
		return nil, err
	}
	return transaction, nil
}
