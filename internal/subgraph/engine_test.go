package subgraph

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/Meshram007/Blockchain-uniswapV3Mock-subgraph-backend/internal/config"
	"github.com/Meshram007/Blockchain-uniswapV3Mock-subgraph-backend/internal/entity"
	"github.com/Meshram007/Blockchain-uniswapV3Mock-subgraph-backend/internal/store"
)

const (
	wethAddr   = "0xc02aaa39b223fe8d0a0e5c4f27ead9083c756cc2"
	daiAddr    = "0x6b175474e89094c44da98b954eedeac495271d0f"
	usdcAddr   = "0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48"
	exoticAddr = "0x2222222222222222222222222222222222222222"
	poolAddr   = "0x1111111111111111111111111111111111111111"
)

type fakeMetadata struct {
	tokens map[string]*TokenMetadata
}

func (f *fakeMetadata) TokenMetadata(ctx context.Context, address string) (*TokenMetadata, error) {
	if meta, ok := f.tokens[address]; ok {
		return meta, nil
	}
	return nil, errors.New("decimals call reverted")
}

type fakePoolState struct {
	fee0, fee1 *big.Int
	err        error
}

func (f *fakePoolState) FeeGrowthGlobals(ctx context.Context, pool string) (*big.Int, *big.Int, error) {
	if f.err != nil {
		return nil, nil, f.err
	}
	return f.fee0, f.fee1, nil
}

func defaultMetadata() *fakeMetadata {
	return &fakeMetadata{tokens: map[string]*TokenMetadata{
		wethAddr: {
			Name:        "Wrapped Ether",
			Symbol:      "WETH",
			Decimals:    18,
			TotalSupply: big.NewInt(1_000_000),
		},
		daiAddr: {
			Name:        "Dai Stablecoin",
			Symbol:      "DAI",
			Decimals:    18,
			TotalSupply: big.NewInt(2_000_000),
		},
		usdcAddr: {
			Name:        "USD Coin",
			Symbol:      "USDC",
			Decimals:    6,
			TotalSupply: big.NewInt(3_000_000),
		},
		exoticAddr: {
			Name:        "Exotic",
			Symbol:      "EXO",
			Decimals:    18,
			TotalSupply: big.NewInt(0),
		},
	}}
}

func newTestEngine(t *testing.T) (*Engine, *store.Memory) {
	t.Helper()
	m := store.NewMemory()
	engine, err := New(m, config.DefaultChain(), defaultMetadata(), zerolog.Nop())
	require.NoError(t, err)
	return engine, m
}

func meta(address string, block uint64, timestamp int64, tx string) EventMeta {
	return EventMeta{Address: address, BlockNumber: block, Timestamp: timestamp, TxHash: tx}
}

func createDAIWETHPool(t *testing.T, engine *Engine, timestamp int64) {
	t.Helper()
	err := engine.ProcessEvent(context.Background(), PoolCreatedEvent{
		EventMeta: meta(engine.params.factoryAddress, 100, timestamp, "0xaaa1"),
		Token0:    daiAddr,
		Token1:    wethAddr,
		FeeTier:   3000,
		Pool:      poolAddr,
	})
	require.NoError(t, err)
}

func loadPool(t *testing.T, s store.Store, id string) *entity.Pool {
	t.Helper()
	pool, err := store.Load[entity.Pool](context.Background(), s, store.KindPool, id)
	require.NoError(t, err)
	return pool
}

func loadToken(t *testing.T, s store.Store, id string) *entity.Token {
	t.Helper()
	token, err := store.Load[entity.Token](context.Background(), s, store.KindToken, id)
	require.NoError(t, err)
	return token
}

func loadBundle(t *testing.T, s store.Store) *entity.Bundle {
	t.Helper()
	bundle, err := store.Load[entity.Bundle](context.Background(), s, store.KindBundle, entity.BundleID)
	require.NoError(t, err)
	return bundle
}

func loadFactory(t *testing.T, s store.Store, engine *Engine) *entity.Factory {
	t.Helper()
	factory, err := store.Load[entity.Factory](context.Background(), s, store.KindFactory, engine.params.factoryAddress)
	require.NoError(t, err)
	return factory
}

func requireDecimalEqual(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	require.True(t, decimal.RequireFromString(want).Equal(got),
		"expected %s, got %s", want, got.String())
}
