package subgraph

import (
	"context"
	"math/big"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Meshram007/Blockchain-uniswapV3Mock-subgraph-backend/internal/dexmath"
	"github.com/Meshram007/Blockchain-uniswapV3Mock-subgraph-backend/internal/entity"
	"github.com/Meshram007/Blockchain-uniswapV3Mock-subgraph-backend/internal/store"
)

func TestPoolCreatedBootstrapsFactoryAndBundle(t *testing.T) {
	engine, m := newTestEngine(t)
	createDAIWETHPool(t, engine, 1620000000)

	factory := loadFactory(t, m, engine)
	require.NotNil(t, factory)
	assert.Equal(t, int64(1), factory.PoolCount.Int64())
	assert.Equal(t, int64(0), factory.TxCount.Int64())

	bundle := loadBundle(t, m)
	require.NotNil(t, bundle)
	assert.True(t, bundle.ETHPriceUSD.IsZero())

	pool := loadPool(t, m, poolAddr)
	require.NotNil(t, pool)
	assert.Equal(t, daiAddr, pool.Token0)
	assert.Equal(t, wethAddr, pool.Token1)
	assert.Equal(t, int64(3000), pool.FeeTier.Int64())
	assert.True(t, pool.VolumeUSD.IsZero())
	assert.Equal(t, int64(1620000000), pool.CreatedAtTimestamp)
	assert.Equal(t, uint64(100), pool.CreatedAtBlockNumber)

	dai := loadToken(t, m, daiAddr)
	require.NotNil(t, dai)
	assert.Equal(t, "DAI", dai.Symbol)
	assert.Equal(t, "Dai Stablecoin", dai.Name)
	assert.Equal(t, int32(18), dai.Decimals)

	// both sides are whitelisted, so each token gains a pricing pool
	weth := loadToken(t, m, wethAddr)
	require.NotNil(t, weth)
	assert.Equal(t, []string{poolAddr}, dai.WhitelistPools)
	assert.Equal(t, []string{poolAddr}, weth.WhitelistPools)
}

func TestPoolCreatedDuplicateIsSkipped(t *testing.T) {
	engine, m := newTestEngine(t)
	createDAIWETHPool(t, engine, 1620000000)

	err := engine.ProcessEvent(context.Background(), PoolCreatedEvent{
		EventMeta: meta(engine.params.factoryAddress, 101, 1620000010, "0xaaa2"),
		Token0:    daiAddr,
		Token1:    wethAddr,
		FeeTier:   500,
		Pool:      poolAddr,
	})
	require.NoError(t, err)

	factory := loadFactory(t, m, engine)
	assert.Equal(t, int64(1), factory.PoolCount.Int64())

	pool := loadPool(t, m, poolAddr)
	assert.Equal(t, int64(3000), pool.FeeTier.Int64(), "original pool must survive a duplicate create")
}

func TestPoolCreatedIgnoredPoolLeavesNoWrites(t *testing.T) {
	engine, m := newTestEngine(t)

	err := engine.ProcessEvent(context.Background(), PoolCreatedEvent{
		EventMeta: meta(engine.params.factoryAddress, 100, 1620000000, "0xaaa1"),
		Token0:    daiAddr,
		Token1:    wethAddr,
		FeeTier:   3000,
		Pool:      "0x8fe8d9bb8eeba3ed688069c3d6b556c9ca258248",
	})
	require.NoError(t, err)

	assert.Nil(t, loadFactory(t, m, engine))
	assert.Nil(t, loadBundle(t, m))
}

func TestPoolCreatedMetadataFailureLeavesNoWrites(t *testing.T) {
	engine, m := newTestEngine(t)

	unknownToken := "0x9999999999999999999999999999999999999999"
	err := engine.ProcessEvent(context.Background(), PoolCreatedEvent{
		EventMeta: meta(engine.params.factoryAddress, 100, 1620000000, "0xaaa1"),
		Token0:    unknownToken,
		Token1:    wethAddr,
		FeeTier:   3000,
		Pool:      poolAddr,
	})
	require.NoError(t, err, "an unreadable token skips the event, it does not fail the feed")

	assert.Nil(t, loadFactory(t, m, engine), "skip must roll back the factory bootstrap")
	assert.Nil(t, loadPool(t, m, poolAddr))
	assert.Nil(t, loadToken(t, m, wethAddr))
}

func TestInitializeSetsPriceState(t *testing.T) {
	engine, m := newTestEngine(t)
	createDAIWETHPool(t, engine, 1620000000)

	sqrtPrice := new(big.Int).Lsh(big.NewInt(1), 96)
	err := engine.ProcessEvent(context.Background(), InitializeEvent{
		EventMeta:    meta(poolAddr, 101, 1620000100, "0xbbb1"),
		SqrtPriceX96: sqrtPrice,
		Tick:         0,
	})
	require.NoError(t, err)

	pool := loadPool(t, m, poolAddr)
	assert.Equal(t, sqrtPrice, pool.SqrtPrice)
	assert.Equal(t, int64(0), pool.Tick.Int64())

	// no anchor pool yet, so the reference price stays at zero
	bundle := loadBundle(t, m)
	assert.True(t, bundle.ETHPriceUSD.IsZero())

	day, err := store.Load[entity.PoolDayData](context.Background(), m, store.KindPoolDayData, poolAddr+"-18750")
	require.NoError(t, err)
	require.NotNil(t, day)
	assert.Equal(t, int64(1), day.TxCount.Int64())

	hour, err := store.Load[entity.PoolHourData](context.Background(), m, store.KindPoolHourData, poolAddr+"-450000")
	require.NoError(t, err)
	require.NotNil(t, hour)
}

func TestInitializeUnknownPoolIsSkipped(t *testing.T) {
	engine, m := newTestEngine(t)

	err := engine.ProcessEvent(context.Background(), InitializeEvent{
		EventMeta:    meta(poolAddr, 101, 1620000100, "0xbbb1"),
		SqrtPriceX96: big.NewInt(1),
		Tick:         5,
	})
	require.NoError(t, err)
	assert.Nil(t, loadPool(t, m, poolAddr))
}

func initializePool(t *testing.T, engine *Engine, timestamp int64) {
	t.Helper()
	err := engine.ProcessEvent(context.Background(), InitializeEvent{
		EventMeta:    meta(poolAddr, 101, timestamp, "0xbbb1"),
		SqrtPriceX96: new(big.Int).Lsh(big.NewInt(1), 96),
		Tick:         0,
	})
	require.NoError(t, err)
}

func TestMintUpdatesPoolAndTicks(t *testing.T) {
	engine, m := newTestEngine(t)
	createDAIWETHPool(t, engine, 1620000000)
	initializePool(t, engine, 1620000100)
	ctx := context.Background()

	amount := big.NewInt(5000)
	err := engine.ProcessEvent(ctx, MintEvent{
		EventMeta: meta(poolAddr, 102, 1620000200, "0xccc1"),
		Owner:     "0x3333333333333333333333333333333333333333",
		TickLower: -60,
		TickUpper: 60,
		Amount:    amount,
		Amount0:   big.NewInt(1e18),
		Amount1:   big.NewInt(2e18),
	})
	require.NoError(t, err)

	pool := loadPool(t, m, poolAddr)
	assert.Equal(t, int64(1), pool.TxCount.Int64())

	// the position straddles tick zero, so active liquidity moves by the
	// minted amount (downward, matching the reference accounting)
	assert.Equal(t, int64(-5000), pool.Liquidity.Int64())
	requireDecimalEqual(t, "-1", pool.TotalValueLockedToken0)
	requireDecimalEqual(t, "-2", pool.TotalValueLockedToken1)

	mint, err := store.Load[entity.Mint](ctx, m, store.KindMint, "0xccc1#1")
	require.NoError(t, err)
	require.NotNil(t, mint)
	assert.Equal(t, "0x3333333333333333333333333333333333333333", mint.Owner)
	requireDecimalEqual(t, "1", mint.Amount0)
	requireDecimalEqual(t, "2", mint.Amount1)
	assert.Equal(t, int64(-60), mint.TickLower.Int64())

	lower, err := store.Load[entity.Tick](ctx, m, store.KindTick, poolAddr+"#-60")
	require.NoError(t, err)
	require.NotNil(t, lower, "mint must persist the boundary ticks")
	assert.Equal(t, int64(5000), lower.LiquidityGross.Int64())
	assert.Equal(t, int64(5000), lower.LiquidityNet.Int64())

	upper, err := store.Load[entity.Tick](ctx, m, store.KindTick, poolAddr+"#60")
	require.NoError(t, err)
	require.NotNil(t, upper)
	assert.Equal(t, int64(5000), upper.LiquidityGross.Int64())
	assert.Equal(t, int64(-5000), upper.LiquidityNet.Int64())

	tx, err := store.Load[entity.Transaction](ctx, m, store.KindTransaction, "0xccc1")
	require.NoError(t, err)
	require.NotNil(t, tx)
	assert.Equal(t, uint64(102), tx.BlockNumber)
}

func TestMintOutsideCurrentTickKeepsLiquidity(t *testing.T) {
	engine, m := newTestEngine(t)
	createDAIWETHPool(t, engine, 1620000000)
	initializePool(t, engine, 1620000100)

	err := engine.ProcessEvent(context.Background(), MintEvent{
		EventMeta: meta(poolAddr, 102, 1620000200, "0xccc1"),
		Owner:     "0x3333333333333333333333333333333333333333",
		TickLower: 100,
		TickUpper: 200,
		Amount:    big.NewInt(5000),
		Amount0:   big.NewInt(1e18),
		Amount1:   big.NewInt(0),
	})
	require.NoError(t, err)

	pool := loadPool(t, m, poolAddr)
	assert.Equal(t, int64(0), pool.Liquidity.Int64())
}

func TestBurnReversesTickLiquidity(t *testing.T) {
	engine, m := newTestEngine(t)
	createDAIWETHPool(t, engine, 1620000000)
	initializePool(t, engine, 1620000100)
	ctx := context.Background()

	mint := MintEvent{
		EventMeta: meta(poolAddr, 102, 1620000200, "0xccc1"),
		Owner:     "0x3333333333333333333333333333333333333333",
		TickLower: -60,
		TickUpper: 60,
		Amount:    big.NewInt(5000),
		Amount0:   big.NewInt(1e18),
		Amount1:   big.NewInt(2e18),
	}
	require.NoError(t, engine.ProcessEvent(ctx, mint))

	err := engine.ProcessEvent(ctx, BurnEvent{
		EventMeta: meta(poolAddr, 103, 1620000300, "0xddd1"),
		Owner:     mint.Owner,
		TickLower: -60,
		TickUpper: 60,
		Amount:    big.NewInt(5000),
		Amount0:   big.NewInt(1e18),
		Amount1:   big.NewInt(2e18),
	})
	require.NoError(t, err)

	pool := loadPool(t, m, poolAddr)
	assert.Equal(t, int64(2), pool.TxCount.Int64())

	lower, err := store.Load[entity.Tick](ctx, m, store.KindTick, poolAddr+"#-60")
	require.NoError(t, err)
	require.NotNil(t, lower)
	assert.Equal(t, int64(0), lower.LiquidityGross.Int64())
	assert.Equal(t, int64(0), lower.LiquidityNet.Int64())

	burn, err := store.Load[entity.Burn](ctx, m, store.KindBurn, "0xddd1#2")
	require.NoError(t, err)
	require.NotNil(t, burn)
}

func TestBurnUnknownTicksAreNotCreated(t *testing.T) {
	engine, m := newTestEngine(t)
	createDAIWETHPool(t, engine, 1620000000)
	ctx := context.Background()

	err := engine.ProcessEvent(ctx, BurnEvent{
		EventMeta: meta(poolAddr, 103, 1620000300, "0xddd1"),
		Owner:     "0x3333333333333333333333333333333333333333",
		TickLower: -120,
		TickUpper: 120,
		Amount:    big.NewInt(5000),
		Amount0:   big.NewInt(1e18),
		Amount1:   big.NewInt(0),
	})
	require.NoError(t, err)

	tick, err := store.Load[entity.Tick](ctx, m, store.KindTick, poolAddr+"#-120")
	require.NoError(t, err)
	assert.Nil(t, tick)
}

func TestSwapValuationBothWhitelisted(t *testing.T) {
	engine, m := newTestEngine(t)
	createDAIWETHPool(t, engine, 1620000000)
	ctx := context.Background()

	// seed prices: 1 ETH = 2000 USD, DAI at 1/2000 ETH, WETH at 1 ETH
	bundle := loadBundle(t, m)
	bundle.ETHPriceUSD = decimal.NewFromInt(2000)
	require.NoError(t, m.Put(ctx, store.KindBundle, bundle.ID, bundle))

	dai := loadToken(t, m, daiAddr)
	dai.DerivedETH = decimal.RequireFromString("0.0005")
	require.NoError(t, m.Put(ctx, store.KindToken, dai.ID, dai))

	weth := loadToken(t, m, wethAddr)
	weth.DerivedETH = decimal.NewFromInt(1)
	require.NoError(t, m.Put(ctx, store.KindToken, weth.ID, weth))

	sqrtPrice := new(big.Int).Lsh(big.NewInt(1), 96)
	halfOut := new(big.Int).Neg(big.NewInt(5e17))
	err := engine.ProcessEvent(ctx, SwapEvent{
		EventMeta:    meta(poolAddr, 110, 1620001000, "0xeee1"),
		Sender:       "0x4444444444444444444444444444444444444444",
		Recipient:    "0x5555555555555555555555555555555555555555",
		Amount0:      big.NewInt(1e18),
		Amount1:      halfOut,
		SqrtPriceX96: sqrtPrice,
		Liquidity:    big.NewInt(7777),
		Tick:         0,
	})
	require.NoError(t, err)

	// tracked = (1*1 + 0.5*2000) / 2 = 500.5; fees at 0.3% of that
	pool := loadPool(t, m, poolAddr)
	requireDecimalEqual(t, "500.5", pool.VolumeUSD)
	requireDecimalEqual(t, "500.5", pool.UntrackedVolumeUSD)
	requireDecimalEqual(t, "1.5015", pool.FeesUSD)
	requireDecimalEqual(t, "1", pool.VolumeToken0)
	requireDecimalEqual(t, "0.5", pool.VolumeToken1)
	assert.Equal(t, int64(1), pool.TxCount.Int64())
	assert.Equal(t, int64(7777), pool.Liquidity.Int64())
	requireDecimalEqual(t, "1", pool.Token0Price)
	requireDecimalEqual(t, "1", pool.Token1Price)

	factory := loadFactory(t, m, engine)
	requireDecimalEqual(t, "500.5", factory.TotalVolumeUSD)
	requireDecimalEqual(t, "0.25025", factory.TotalVolumeETH)
	requireDecimalEqual(t, "1.5015", factory.TotalFeesUSD)
	requireDecimalEqual(t, "0.00075075", factory.TotalFeesETH)
	assert.Equal(t, int64(1), factory.TxCount.Int64())

	token0 := loadToken(t, m, daiAddr)
	requireDecimalEqual(t, "1", token0.Volume)
	requireDecimalEqual(t, "500.5", token0.VolumeUSD)
	assert.Equal(t, int64(1), token0.TxCount.Int64())

	swap, err := store.Load[entity.Swap](ctx, m, store.KindSwap, "0xeee1#1")
	require.NoError(t, err)
	require.NotNil(t, swap)
	requireDecimalEqual(t, "500.5", swap.AmountUSD)
	requireDecimalEqual(t, "1", swap.Amount0)
	requireDecimalEqual(t, "-0.5", swap.Amount1)

	// no anchor pool, so repricing after the swap zeroes the reference
	bundleAfter := loadBundle(t, m)
	assert.True(t, bundleAfter.ETHPriceUSD.IsZero())
}

func TestSwapNoWhitelistedLegHasZeroTrackedVolume(t *testing.T) {
	engine, m := newTestEngine(t)
	ctx := context.Background()

	exotic2 := "0x6666666666666666666666666666666666666666"
	em := engine.metadata.(*fakeMetadata)
	em.tokens[exotic2] = &TokenMetadata{Name: "Exotic2", Symbol: "EXO2", Decimals: 18, TotalSupply: big.NewInt(0)}

	err := engine.ProcessEvent(ctx, PoolCreatedEvent{
		EventMeta: meta(engine.params.factoryAddress, 100, 1620000000, "0xaaa1"),
		Token0:    exoticAddr,
		Token1:    exotic2,
		FeeTier:   3000,
		Pool:      poolAddr,
	})
	require.NoError(t, err)

	bundle := loadBundle(t, m)
	bundle.ETHPriceUSD = decimal.NewFromInt(2000)
	require.NoError(t, m.Put(ctx, store.KindBundle, bundle.ID, bundle))

	err = engine.ProcessEvent(ctx, SwapEvent{
		EventMeta:    meta(poolAddr, 110, 1620001000, "0xeee1"),
		Amount0:      big.NewInt(1e18),
		Amount1:      new(big.Int).Neg(big.NewInt(1e18)),
		SqrtPriceX96: new(big.Int).Lsh(big.NewInt(1), 96),
		Liquidity:    big.NewInt(1),
		Tick:         0,
	})
	require.NoError(t, err)

	pool := loadPool(t, m, poolAddr)
	assert.True(t, pool.VolumeUSD.IsZero())
	assert.True(t, pool.FeesUSD.IsZero())
	requireDecimalEqual(t, "1", pool.VolumeToken0)
}

func TestSwapIgnoredPoolIsSkipped(t *testing.T) {
	engine, m := newTestEngine(t)
	ctx := context.Background()

	badPool := "0x9663f2ca0454accad3e094448ea6f77443880454"
	require.NoError(t, m.Put(ctx, store.KindBundle, entity.BundleID, entity.NewBundle()))
	require.NoError(t, m.Put(ctx, store.KindFactory, engine.params.factoryAddress, entity.NewFactory(engine.params.factoryAddress)))
	require.NoError(t, m.Put(ctx, store.KindPool, badPool,
		entity.NewPool(badPool, daiAddr, wethAddr, big.NewInt(3000), 1620000000, 100)))

	err := engine.ProcessEvent(ctx, SwapEvent{
		EventMeta:    meta(badPool, 110, 1620001000, "0xeee1"),
		Amount0:      big.NewInt(1e18),
		Amount1:      new(big.Int).Neg(big.NewInt(1e18)),
		SqrtPriceX96: new(big.Int).Lsh(big.NewInt(1), 96),
		Liquidity:    big.NewInt(1),
		Tick:         0,
	})
	require.NoError(t, err)

	pool := loadPool(t, m, badPool)
	assert.Equal(t, int64(0), pool.TxCount.Int64())

	factory := loadFactory(t, m, engine)
	assert.Equal(t, int64(0), factory.TxCount.Int64())
}

func TestSwapIgnoredPoolStillTracksCreationAndLiquidity(t *testing.T) {
	engine, m := newTestEngine(t)
	ctx := context.Background()

	// ignored for swaps only: creation and liquidity events index normally
	badPool := "0x9663f2ca0454accad3e094448ea6f77443880454"
	err := engine.ProcessEvent(ctx, PoolCreatedEvent{
		EventMeta: meta(engine.params.factoryAddress, 100, 1620000000, "0xaaa1"),
		Token0:    daiAddr,
		Token1:    wethAddr,
		FeeTier:   3000,
		Pool:      badPool,
	})
	require.NoError(t, err)

	pool := loadPool(t, m, badPool)
	require.NotNil(t, pool, "creation must not be dropped for a swap-ignored pool")

	factory := loadFactory(t, m, engine)
	assert.Equal(t, int64(1), factory.PoolCount.Int64())

	err = engine.ProcessEvent(ctx, MintEvent{
		EventMeta: meta(badPool, 101, 1620000100, "0xbbb1"),
		Owner:     "0x3333333333333333333333333333333333333333",
		TickLower: -60,
		TickUpper: 60,
		Amount:    big.NewInt(5000),
		Amount0:   big.NewInt(1e18),
		Amount1:   big.NewInt(0),
	})
	require.NoError(t, err)

	pool = loadPool(t, m, badPool)
	assert.Equal(t, int64(1), pool.TxCount.Int64())

	tick, err := store.Load[entity.Tick](ctx, m, store.KindTick, badPool+"#-60")
	require.NoError(t, err)
	require.NotNil(t, tick)

	err = engine.ProcessEvent(ctx, SwapEvent{
		EventMeta:    meta(badPool, 102, 1620000200, "0xccc1"),
		Amount0:      big.NewInt(1e18),
		Amount1:      new(big.Int).Neg(big.NewInt(1e18)),
		SqrtPriceX96: new(big.Int).Lsh(big.NewInt(1), 96),
		Liquidity:    big.NewInt(1),
		Tick:         0,
	})
	require.NoError(t, err)

	pool = loadPool(t, m, badPool)
	assert.Equal(t, int64(1), pool.TxCount.Int64(), "swaps through this pool are dropped")
	assert.True(t, pool.VolumeUSD.IsZero())
}

func TestCreatedIgnoredPoolSwapIsNotDropped(t *testing.T) {
	engine, m := newTestEngine(t)
	ctx := context.Background()

	// ignored at creation only: a manually seeded pool still swaps
	badPool := "0x8fe8d9bb8eeba3ed688069c3d6b556c9ca258248"
	require.NoError(t, m.Put(ctx, store.KindBundle, entity.BundleID, entity.NewBundle()))
	require.NoError(t, m.Put(ctx, store.KindFactory, engine.params.factoryAddress, entity.NewFactory(engine.params.factoryAddress)))
	require.NoError(t, m.Put(ctx, store.KindPool, badPool,
		entity.NewPool(badPool, daiAddr, wethAddr, big.NewInt(3000), 1620000000, 100)))
	require.NoError(t, m.Put(ctx, store.KindToken, daiAddr,
		entity.NewToken(daiAddr, "DAI", "Dai Stablecoin", 18, big.NewInt(0))))
	require.NoError(t, m.Put(ctx, store.KindToken, wethAddr,
		entity.NewToken(wethAddr, "WETH", "Wrapped Ether", 18, big.NewInt(0))))

	err := engine.ProcessEvent(ctx, SwapEvent{
		EventMeta:    meta(badPool, 110, 1620001000, "0xeee1"),
		Amount0:      big.NewInt(1e18),
		Amount1:      new(big.Int).Neg(big.NewInt(1e18)),
		SqrtPriceX96: new(big.Int).Lsh(big.NewInt(1), 96),
		Liquidity:    big.NewInt(1),
		Tick:         0,
	})
	require.NoError(t, err)

	pool := loadPool(t, m, badPool)
	assert.Equal(t, int64(1), pool.TxCount.Int64())
}

func TestSwapUnknownPoolIsSkipped(t *testing.T) {
	engine, m := newTestEngine(t)

	err := engine.ProcessEvent(context.Background(), SwapEvent{
		EventMeta:    meta(poolAddr, 110, 1620001000, "0xeee1"),
		Amount0:      big.NewInt(1),
		Amount1:      big.NewInt(-1),
		SqrtPriceX96: big.NewInt(1),
		Liquidity:    big.NewInt(1),
		Tick:         0,
	})
	require.NoError(t, err)

	keys, err := m.Keys(context.Background(), store.KindSwap)
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestFlashUpdatesFeeGrowth(t *testing.T) {
	engine, m := newTestEngine(t)
	createDAIWETHPool(t, engine, 1620000000)

	engine.SetPoolStateReader(&fakePoolState{fee0: big.NewInt(111), fee1: big.NewInt(222)})

	err := engine.ProcessEvent(context.Background(), FlashEvent{
		EventMeta: meta(poolAddr, 120, 1620002000, "0xfff1"),
		Amount0:   big.NewInt(100),
		Amount1:   big.NewInt(0),
		Paid0:     big.NewInt(101),
		Paid1:     big.NewInt(0),
	})
	require.NoError(t, err)

	pool := loadPool(t, m, poolAddr)
	assert.Equal(t, int64(111), pool.FeeGrowthGlobal0X128.Int64())
	assert.Equal(t, int64(222), pool.FeeGrowthGlobal1X128.Int64())
}

func TestFlashStateReadFailureIsSkipped(t *testing.T) {
	engine, m := newTestEngine(t)
	createDAIWETHPool(t, engine, 1620000000)

	engine.SetPoolStateReader(&fakePoolState{err: context.DeadlineExceeded})

	err := engine.ProcessEvent(context.Background(), FlashEvent{
		EventMeta: meta(poolAddr, 120, 1620002000, "0xfff1"),
	})
	require.NoError(t, err)

	pool := loadPool(t, m, poolAddr)
	assert.Equal(t, int64(0), pool.FeeGrowthGlobal0X128.Int64())
}

func TestFlashWithoutStateReaderIsSkipped(t *testing.T) {
	engine, m := newTestEngine(t)
	createDAIWETHPool(t, engine, 1620000000)

	err := engine.ProcessEvent(context.Background(), FlashEvent{
		EventMeta: meta(poolAddr, 120, 1620002000, "0xfff1"),
	})
	require.NoError(t, err)

	pool := loadPool(t, m, poolAddr)
	assert.Equal(t, int64(0), pool.FeeGrowthGlobal0X128.Int64())
}

func TestCreateTickBoundaryPrices(t *testing.T) {
	zero := createTick(tickID(poolAddr, 0), poolAddr, 0)
	requireDecimalEqual(t, "1", zero.Price0)
	requireDecimalEqual(t, "1", zero.Price1)

	positive := createTick(tickID(poolAddr, 60), poolAddr, 60)
	negative := createTick(tickID(poolAddr, -60), poolAddr, -60)

	assert.True(t, positive.Price0.GreaterThan(dexmath.OneBD))
	assert.True(t, negative.Price0.LessThan(dexmath.OneBD))

	// mirrored indices swap the two prices; the reciprocal side picks up
	// division rounding, so it is compared within tolerance below
	requireDecimalEqual(t, positive.Price1.String(), negative.Price0)
	mirror := positive.Price0.Sub(negative.Price1).Abs()
	assert.True(t, mirror.LessThan(decimal.New(1, -30)),
		"mirrored price1 drifted by %s", mirror.String())

	for _, tick := range []*entity.Tick{positive, negative} {
		drift := tick.Price0.Mul(tick.Price1).Sub(dexmath.OneBD).Abs()
		assert.True(t, drift.LessThan(decimal.New(1, -30)),
			"price0*price1 for %s drifted by %s", tick.ID, drift.String())
	}
}

func TestTransactionReSavedAcrossEvents(t *testing.T) {
	engine, m := newTestEngine(t)
	createDAIWETHPool(t, engine, 1620000000)
	initializePool(t, engine, 1620000100)
	ctx := context.Background()

	mint := MintEvent{
		EventMeta: meta(poolAddr, 102, 1620000200, "0xshared"),
		Owner:     "0x3333333333333333333333333333333333333333",
		TickLower: -60,
		TickUpper: 60,
		Amount:    big.NewInt(5000),
		Amount0:   big.NewInt(1e18),
		Amount1:   big.NewInt(0),
	}
	require.NoError(t, engine.ProcessEvent(ctx, mint))

	burn := BurnEvent{
		EventMeta: meta(poolAddr, 102, 1620000200, "0xshared"),
		Owner:     mint.Owner,
		TickLower: -60,
		TickUpper: 60,
		Amount:    big.NewInt(5000),
		Amount0:   big.NewInt(1e18),
		Amount1:   big.NewInt(0),
	}
	require.NoError(t, engine.ProcessEvent(ctx, burn))

	tx, err := store.Load[entity.Transaction](ctx, m, store.KindTransaction, "0xshared")
	require.NoError(t, err)
	require.NotNil(t, tx)

	// both rows hang off the same transaction with distinct sequence ids
	mintRow, err := store.Load[entity.Mint](ctx, m, store.KindMint, "0xshared#1")
	require.NoError(t, err)
	require.NotNil(t, mintRow)
	burnRow, err := store.Load[entity.Burn](ctx, m, store.KindBurn, "0xshared#2")
	require.NoError(t, err)
	require.NotNil(t, burnRow)
}
