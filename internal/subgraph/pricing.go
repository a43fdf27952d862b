package subgraph

import (
	"context"
	"math/big"

	"github.com/shopspring/decimal"

	"github.com/Meshram007/Blockchain-uniswapV3Mock-subgraph-backend/internal/dexmath"
	"github.com/Meshram007/Blockchain-uniswapV3Mock-subgraph-backend/internal/entity"
	"github.com/Meshram007/Blockchain-uniswapV3Mock-subgraph-backend/internal/store"
)

// q192 is 2^192, the denominator of the squared Q64.96 fixed point price.
var q192 = decimal.RequireFromString("6277101735386680763835789423207666416102355444464034512896")

var two = decimal.NewFromInt(2)

// SqrtPriceX96ToTokenPrices converts a pool's sqrt price into the two
// decimal-adjusted exchange rates. price1 is token1 per token0.
func SqrtPriceX96ToTokenPrices(sqrtPriceX96 *big.Int, token0, token1 *entity.Token) (price0, price1 decimal.Decimal) {
	num := decimal.NewFromBigInt(new(big.Int).Mul(sqrtPriceX96, sqrtPriceX96), 0)
	price1 = num.
		Div(q192).
		Mul(dexmath.ExponentToBigDecimal(token0.Decimals)).
		Div(dexmath.ExponentToBigDecimal(token1.Decimals))
	price0 = dexmath.SafeDiv(dexmath.OneBD, price1)
	return price0, price1
}

// ethPriceInUSD returns the anchor stablecoin pool's token0Price, or zero
// when that pool does not exist yet.
func (e *Engine) ethPriceInUSD(ctx context.Context, s store.Store) (decimal.Decimal, error) {
	pool, err := store.Load[entity.Pool](ctx, s, store.KindPool, e.params.usdcWETHPool)
	if err != nil {
		return decimal.Decimal{}, err
	}
	if pool == nil {
		return dexmath.ZeroBD, nil
	}
	return pool.Token0Price, nil
}

// findEthPerToken derives a token's ETH price by scanning its whitelist
// pools for the counterparty pool with the most ETH locked. Stablecoins are
// pinned to the inverse of the ETH price instead.
func (e *Engine) findEthPerToken(ctx context.Context, s store.Store, token *entity.Token) (decimal.Decimal, error) {
	if token.ID == e.params.wethAddress {
		return dexmath.OneBD, nil
	}

	largestLiquidityETH := dexmath.ZeroBD
	priceSoFar := dexmath.ZeroBD

	bundle, err := store.Load[entity.Bundle](ctx, s, store.KindBundle, entity.BundleID)
	if err != nil {
		return decimal.Decimal{}, err
	}

	if _, stable := e.params.stablecoins[token.ID]; stable {
		if bundle != nil {
			priceSoFar = dexmath.SafeDiv(dexmath.OneBD, bundle.ETHPriceUSD)
		}
		return priceSoFar, nil
	}

	for _, poolAddress := range token.WhitelistPools {
		pool, err := store.Load[entity.Pool](ctx, s, store.KindPool, poolAddress)
		if err != nil {
			return decimal.Decimal{}, err
		}
		if pool == nil || pool.Liquidity.Sign() <= 0 {
			continue
		}
		if pool.Token0 == token.ID {
			other, err := store.Load[entity.Token](ctx, s, store.KindToken, pool.Token1)
			if err != nil {
				return decimal.Decimal{}, err
			}
			if other != nil {
				ethLocked := pool.TotalValueLockedToken1.Mul(other.DerivedETH)
				if ethLocked.GreaterThan(largestLiquidityETH) && ethLocked.GreaterThan(e.params.minimumETHLocked) {
					largestLiquidityETH = ethLocked
					priceSoFar = pool.Token1Price.Mul(other.DerivedETH)
				}
			}
		}
		if pool.Token1 == token.ID {
			other, err := store.Load[entity.Token](ctx, s, store.KindToken, pool.Token0)
			if err != nil {
				return decimal.Decimal{}, err
			}
			if other != nil {
				ethLocked := pool.TotalValueLockedToken0.Mul(other.DerivedETH)
				if ethLocked.GreaterThan(largestLiquidityETH) && ethLocked.GreaterThan(e.params.minimumETHLocked) {
					largestLiquidityETH = ethLocked
					priceSoFar = pool.Token0Price.Mul(other.DerivedETH)
				}
			}
		}
	}
	return priceSoFar, nil
}

// trackedAmountUSD values a pair of leg amounts using the whitelist policy:
// both legs whitelisted sums both, a single whitelisted leg counts double,
// no whitelisted leg counts zero.
func (e *Engine) trackedAmountUSD(ctx context.Context, s store.Store, amount0 decimal.Decimal, token0 *entity.Token, amount1 decimal.Decimal, token1 *entity.Token) (decimal.Decimal, error) {
	bundle, err := store.Load[entity.Bundle](ctx, s, store.KindBundle, entity.BundleID)
	if err != nil {
		return decimal.Decimal{}, err
	}
	if bundle == nil {
		return dexmath.ZeroBD, nil
	}

	price0USD := token0.DerivedETH.Mul(bundle.ETHPriceUSD)
	price1USD := token1.DerivedETH.Mul(bundle.ETHPriceUSD)

	wl0 := e.params.isWhitelisted(token0.ID)
	wl1 := e.params.isWhitelisted(token1.ID)

	switch {
	case wl0 && wl1:
		return amount0.Mul(price0USD).Add(amount1.Mul(price1USD)), nil
	case wl0:
		return amount0.Mul(price0USD).Mul(two), nil
	case wl1:
		return amount1.Mul(price1USD).Mul(two), nil
	default:
		return dexmath.ZeroBD, nil
	}
}
