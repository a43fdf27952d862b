// Package entity defines the persisted entities maintained by the
// aggregation engine. Every entity is addressed by a string id; raw on-chain
// quantities are big integers, monetary amounts are arbitrary-precision
// decimals. Entities are never hard-deleted.
package entity

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// BundleID is the id of the singleton Bundle row.
const BundleID = "1"

// Bundle tracks the reference currency's USD price. Created once at first
// pool creation, mutated on every price-affecting event.
type Bundle struct {
	ID          string          `json:"id"`
	ETHPriceUSD decimal.Decimal `json:"ethPriceUSD"`
}

func NewBundle() *Bundle {
	return &Bundle{ID: BundleID}
}

// Factory holds protocol-wide running totals.
type Factory struct {
	ID                 string          `json:"id"`
	PoolCount          *big.Int        `json:"poolCount"`
	TotalVolumeETH     decimal.Decimal `json:"totalVolumeETH"`
	TotalVolumeUSD     decimal.Decimal `json:"totalVolumeUSD"`
	UntrackedVolumeUSD decimal.Decimal `json:"untrackedVolumeUSD"`
	TotalFeesUSD       decimal.Decimal `json:"totalFeesUSD"`
	TotalFeesETH       decimal.Decimal `json:"totalFeesETH"`
	TxCount            *big.Int        `json:"txCount"`
}

func NewFactory(id string) *Factory {
	return &Factory{
		ID:        id,
		PoolCount: new(big.Int),
		TxCount:   new(big.Int),
	}
}

// Token is created on first appearance as a pool leg. WhitelistPools is an
// ordered slice: the price oracle scans it in insertion order and the
// tie-break depends on that order.
type Token struct {
	ID                 string          `json:"id"`
	Symbol             string          `json:"symbol"`
	Name               string          `json:"name"`
	Decimals           int32           `json:"decimals"`
	TotalSupply        *big.Int        `json:"totalSupply"`
	DerivedETH         decimal.Decimal `json:"derivedETH"`
	Volume             decimal.Decimal `json:"volume"`
	VolumeUSD          decimal.Decimal `json:"volumeUSD"`
	UntrackedVolumeUSD decimal.Decimal `json:"untrackedVolumeUSD"`
	FeesUSD            decimal.Decimal `json:"feesUSD"`
	TxCount            *big.Int        `json:"txCount"`
	PoolCount          *big.Int        `json:"poolCount"`
	WhitelistPools     []string        `json:"whitelistPools"`
}

func NewToken(id, symbol, name string, decimals int32, totalSupply *big.Int) *Token {
	if totalSupply == nil {
		totalSupply = new(big.Int)
	}
	return &Token{
		ID:             id,
		Symbol:         symbol,
		Name:           name,
		Decimals:       decimals,
		TotalSupply:    totalSupply,
		TxCount:        new(big.Int),
		PoolCount:      new(big.Int),
		WhitelistPools: []string{},
	}
}

// Pool accumulators start at zero on creation and only ever grow, except the
// live state fields (liquidity, price, tick) which are overwritten per event.
type Pool struct {
	ID                     string          `json:"id"`
	Token0                 string          `json:"token0"`
	Token1                 string          `json:"token1"`
	FeeTier                *big.Int        `json:"feeTier"`
	Liquidity              *big.Int        `json:"liquidity"`
	SqrtPrice              *big.Int        `json:"sqrtPrice"`
	Tick                   *big.Int        `json:"tick"`
	FeeGrowthGlobal0X128   *big.Int        `json:"feeGrowthGlobal0X128"`
	FeeGrowthGlobal1X128   *big.Int        `json:"feeGrowthGlobal1X128"`
	Token0Price            decimal.Decimal `json:"token0Price"`
	Token1Price            decimal.Decimal `json:"token1Price"`
	TotalValueLockedToken0 decimal.Decimal `json:"totalValueLockedToken0"`
	TotalValueLockedToken1 decimal.Decimal `json:"totalValueLockedToken1"`
	VolumeToken0           decimal.Decimal `json:"volumeToken0"`
	VolumeToken1           decimal.Decimal `json:"volumeToken1"`
	VolumeUSD              decimal.Decimal `json:"volumeUSD"`
	UntrackedVolumeUSD     decimal.Decimal `json:"untrackedVolumeUSD"`
	FeesUSD                decimal.Decimal `json:"feesUSD"`
	TxCount                *big.Int        `json:"txCount"`
	CreatedAtTimestamp     int64           `json:"createdAtTimestamp"`
	CreatedAtBlockNumber   uint64          `json:"createdAtBlockNumber"`
}

func NewPool(id, token0, token1 string, feeTier *big.Int, createdAt int64, createdAtBlock uint64) *Pool {
	if feeTier == nil {
		feeTier = new(big.Int)
	}
	return &Pool{
		ID:                   id,
		Token0:               token0,
		Token1:               token1,
		FeeTier:              feeTier,
		Liquidity:            new(big.Int),
		SqrtPrice:            new(big.Int),
		Tick:                 new(big.Int),
		FeeGrowthGlobal0X128: new(big.Int),
		FeeGrowthGlobal1X128: new(big.Int),
		TxCount:              new(big.Int),
		CreatedAtTimestamp:   createdAt,
		CreatedAtBlockNumber: createdAtBlock,
	}
}

// Tick is a price boundary row, keyed "<poolAddress>#<tickIdx>". Created
// lazily on the first Mint/Burn touching that boundary.
type Tick struct {
	ID             string          `json:"id"`
	Pool           string          `json:"pool"`
	TickIdx        *big.Int        `json:"tickIdx"`
	LiquidityGross *big.Int        `json:"liquidityGross"`
	LiquidityNet   *big.Int        `json:"liquidityNet"`
	Price0         decimal.Decimal `json:"price0"`
	Price1         decimal.Decimal `json:"price1"`
}

// Transaction is an immutable log anchor, re-saved idempotently when several
// events share one transaction.
type Transaction struct {
	ID          string `json:"id"`
	BlockNumber uint64 `json:"blockNumber"`
	Timestamp   int64  `json:"timestamp"`
}

// Mint is an append-only log entry, keyed "<transactionId>#<pool.txCount>".
type Mint struct {
	ID          string          `json:"id"`
	Transaction string          `json:"transaction"`
	Timestamp   int64           `json:"timestamp"`
	Pool        string          `json:"pool"`
	Token0      string          `json:"token0"`
	Token1      string          `json:"token1"`
	Owner       string          `json:"owner"`
	Amount      *big.Int        `json:"amount"`
	Amount0     decimal.Decimal `json:"amount0"`
	Amount1     decimal.Decimal `json:"amount1"`
	AmountUSD   decimal.Decimal `json:"amountUSD"`
	TickLower   *big.Int        `json:"tickLower"`
	TickUpper   *big.Int        `json:"tickUpper"`
}

// Burn mirrors Mint.
type Burn struct {
	ID          string          `json:"id"`
	Transaction string          `json:"transaction"`
	Timestamp   int64           `json:"timestamp"`
	Pool        string          `json:"pool"`
	Token0      string          `json:"token0"`
	Token1      string          `json:"token1"`
	Owner       string          `json:"owner"`
	Amount      *big.Int        `json:"amount"`
	Amount0     decimal.Decimal `json:"amount0"`
	Amount1     decimal.Decimal `json:"amount1"`
	AmountUSD   decimal.Decimal `json:"amountUSD"`
	TickLower   *big.Int        `json:"tickLower"`
	TickUpper   *big.Int        `json:"tickUpper"`
}

// Swap records signed leg deltas and the post-swap price state.
type Swap struct {
	ID           string          `json:"id"`
	Transaction  string          `json:"transaction"`
	Timestamp    int64           `json:"timestamp"`
	Pool         string          `json:"pool"`
	Token0       string          `json:"token0"`
	Token1       string          `json:"token1"`
	Sender       string          `json:"sender"`
	Recipient    string          `json:"recipient"`
	Amount0      decimal.Decimal `json:"amount0"`
	Amount1      decimal.Decimal `json:"amount1"`
	AmountUSD    decimal.Decimal `json:"amountUSD"`
	Tick         *big.Int        `json:"tick"`
	SqrtPriceX96 *big.Int        `json:"sqrtPriceX96"`
}

// UniswapDayData is the protocol-wide daily rollup, keyed by day index.
type UniswapDayData struct {
	ID                 string          `json:"id"`
	Date               int64           `json:"date"`
	VolumeETH          decimal.Decimal `json:"volumeETH"`
	VolumeUSD          decimal.Decimal `json:"volumeUSD"`
	VolumeUSDUntracked decimal.Decimal `json:"volumeUSDUntracked"`
	FeesUSD            decimal.Decimal `json:"feesUSD"`
}

func NewUniswapDayData(id string, date int64) *UniswapDayData {
	return &UniswapDayData{ID: id, Date: date}
}

// PoolDayData keeps OHLC of token0Price plus cumulative volume per pool per
// day, keyed "<poolAddress>-<dayIndex>". Open is fixed at creation.
type PoolDayData struct {
	ID                   string          `json:"id"`
	Date                 int64           `json:"date"`
	Pool                 string          `json:"pool"`
	Liquidity            *big.Int        `json:"liquidity"`
	SqrtPrice            *big.Int        `json:"sqrtPrice"`
	Token0Price          decimal.Decimal `json:"token0Price"`
	Token1Price          decimal.Decimal `json:"token1Price"`
	Tick                 *big.Int        `json:"tick"`
	FeeGrowthGlobal0X128 *big.Int        `json:"feeGrowthGlobal0X128"`
	FeeGrowthGlobal1X128 *big.Int        `json:"feeGrowthGlobal1X128"`
	VolumeToken0         decimal.Decimal `json:"volumeToken0"`
	VolumeToken1         decimal.Decimal `json:"volumeToken1"`
	VolumeUSD            decimal.Decimal `json:"volumeUSD"`
	FeesUSD              decimal.Decimal `json:"feesUSD"`
	TxCount              *big.Int        `json:"txCount"`
	Open                 decimal.Decimal `json:"open"`
	High                 decimal.Decimal `json:"high"`
	Low                  decimal.Decimal `json:"low"`
	Close                decimal.Decimal `json:"close"`
}

func NewPoolDayData(id, pool string, date int64, price decimal.Decimal) *PoolDayData {
	return &PoolDayData{
		ID:                   id,
		Date:                 date,
		Pool:                 pool,
		Liquidity:            new(big.Int),
		SqrtPrice:            new(big.Int),
		Tick:                 new(big.Int),
		FeeGrowthGlobal0X128: new(big.Int),
		FeeGrowthGlobal1X128: new(big.Int),
		TxCount:              new(big.Int),
		Open:                 price,
		High:                 price,
		Low:                  price,
		Close:                price,
	}
}

// PoolHourData mirrors PoolDayData over hour windows.
type PoolHourData struct {
	ID                   string          `json:"id"`
	PeriodStartUnix      int64           `json:"periodStartUnix"`
	Pool                 string          `json:"pool"`
	Liquidity            *big.Int        `json:"liquidity"`
	SqrtPrice            *big.Int        `json:"sqrtPrice"`
	Token0Price          decimal.Decimal `json:"token0Price"`
	Token1Price          decimal.Decimal `json:"token1Price"`
	Tick                 *big.Int        `json:"tick"`
	FeeGrowthGlobal0X128 *big.Int        `json:"feeGrowthGlobal0X128"`
	FeeGrowthGlobal1X128 *big.Int        `json:"feeGrowthGlobal1X128"`
	VolumeToken0         decimal.Decimal `json:"volumeToken0"`
	VolumeToken1         decimal.Decimal `json:"volumeToken1"`
	VolumeUSD            decimal.Decimal `json:"volumeUSD"`
	FeesUSD              decimal.Decimal `json:"feesUSD"`
	TxCount              *big.Int        `json:"txCount"`
	Open                 decimal.Decimal `json:"open"`
	High                 decimal.Decimal `json:"high"`
	Low                  decimal.Decimal `json:"low"`
	Close                decimal.Decimal `json:"close"`
}

func NewPoolHourData(id, pool string, periodStart int64, price decimal.Decimal) *PoolHourData {
	return &PoolHourData{
		ID:                   id,
		PeriodStartUnix:      periodStart,
		Pool:                 pool,
		Liquidity:            new(big.Int),
		SqrtPrice:            new(big.Int),
		Tick:                 new(big.Int),
		FeeGrowthGlobal0X128: new(big.Int),
		FeeGrowthGlobal1X128: new(big.Int),
		TxCount:              new(big.Int),
		Open:                 price,
		High:                 price,
		Low:                  price,
		Close:                price,
	}
}

// TokenDayData is the per-token daily rollup, keyed "<tokenAddress>-<dayIndex>".
type TokenDayData struct {
	ID                 string          `json:"id"`
	Date               int64           `json:"date"`
	Token              string          `json:"token"`
	Volume             decimal.Decimal `json:"volume"`
	VolumeUSD          decimal.Decimal `json:"volumeUSD"`
	UntrackedVolumeUSD decimal.Decimal `json:"untrackedVolumeUSD"`
	FeesUSD            decimal.Decimal `json:"feesUSD"`
	PriceUSD           decimal.Decimal `json:"priceUSD"`
}

func NewTokenDayData(id, token string, date int64) *TokenDayData {
	return &TokenDayData{ID: id, Date: date, Token: token}
}

// TokenHourData mirrors TokenDayData over hour windows.
type TokenHourData struct {
	ID                 string          `json:"id"`
	PeriodStartUnix    int64           `json:"periodStartUnix"`
	Token              string          `json:"token"`
	Volume             decimal.Decimal `json:"volume"`
	VolumeUSD          decimal.Decimal `json:"volumeUSD"`
	UntrackedVolumeUSD decimal.Decimal `json:"untrackedVolumeUSD"`
	FeesUSD            decimal.Decimal `json:"feesUSD"`
	PriceUSD           decimal.Decimal `json:"priceUSD"`
}

func NewTokenHourData(id, token string, periodStart int64) *TokenHourData {
	return &TokenHourData{ID: id, PeriodStartUnix: periodStart, Token: token}
}
