package scheduler

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Meshram007/Blockchain-uniswapV3Mock-subgraph-backend/internal/entity"
	"github.com/Meshram007/Blockchain-uniswapV3Mock-subgraph-backend/internal/store"
)

type fakeSupplyReader struct {
	supplies map[string]*big.Int
}

func (f *fakeSupplyReader) TotalSupply(ctx context.Context, address string) (*big.Int, error) {
	if supply, ok := f.supplies[address]; ok {
		return supply, nil
	}
	return nil, errors.New("execution reverted")
}

// putCountingStore records token writes so tests can tell a refresh that
// rewrote a row from one that skipped it.
type putCountingStore struct {
	store.Store
	tokenPuts int
}

func (c *putCountingStore) Put(ctx context.Context, kind store.Kind, id string, v any) error {
	if kind == store.KindToken {
		c.tokenPuts++
	}
	return c.Store.Put(ctx, kind, id, v)
}

func TestRefreshAllSuppliesSkipsUnchangedTokens(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()

	stale := "0x1111111111111111111111111111111111111111"
	fresh := "0x2222222222222222222222222222222222222222"
	unreadable := "0x3333333333333333333333333333333333333333"

	require.NoError(t, m.Put(ctx, store.KindToken, stale,
		entity.NewToken(stale, "AAA", "Token A", 18, big.NewInt(100))))
	require.NoError(t, m.Put(ctx, store.KindToken, fresh,
		entity.NewToken(fresh, "BBB", "Token B", 18, big.NewInt(200))))
	require.NoError(t, m.Put(ctx, store.KindToken, unreadable,
		entity.NewToken(unreadable, "CCC", "Token C", 18, big.NewInt(300))))

	counting := &putCountingStore{Store: m}
	reader := &fakeSupplyReader{supplies: map[string]*big.Int{
		stale: big.NewInt(250),
		fresh: big.NewInt(200),
	}}

	sched, err := NewTokenSupplyScheduler(counting, reader, zerolog.Nop())
	require.NoError(t, err)

	sched.refreshAllSupplies(ctx)

	token, err := store.Load[entity.Token](ctx, m, store.KindToken, stale)
	require.NoError(t, err)
	require.NotNil(t, token)
	assert.Equal(t, int64(250), token.TotalSupply.Int64())

	token, err = store.Load[entity.Token](ctx, m, store.KindToken, fresh)
	require.NoError(t, err)
	assert.Equal(t, int64(200), token.TotalSupply.Int64())

	token, err = store.Load[entity.Token](ctx, m, store.KindToken, unreadable)
	require.NoError(t, err)
	assert.Equal(t, int64(300), token.TotalSupply.Int64(), "a failed read must leave the row alone")

	assert.Equal(t, 1, counting.tokenPuts, "only the drifted token gets rewritten")
}
