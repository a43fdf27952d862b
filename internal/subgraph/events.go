package subgraph

import "math/big"

// EventMeta carries the chain coordinates shared by every decoded event.
// Addresses and hashes are lowercase hex strings.
type EventMeta struct {
	Address     string
	BlockNumber uint64
	Timestamp   int64
	TxHash      string
}

// Event is a decoded protocol event ready for processing.
type Event interface {
	Meta() EventMeta
	Name() string
}

// PoolCreatedEvent is emitted by the factory when a new pool is deployed.
type PoolCreatedEvent struct {
	EventMeta
	Token0  string
	Token1  string
	FeeTier int64
	Pool    string
}

func (e PoolCreatedEvent) Meta() EventMeta { return e.EventMeta }
func (e PoolCreatedEvent) Name() string    { return "PoolCreated" }

// InitializeEvent sets a pool's first price and tick.
type InitializeEvent struct {
	EventMeta
	SqrtPriceX96 *big.Int
	Tick         int64
}

func (e InitializeEvent) Meta() EventMeta { return e.EventMeta }
func (e InitializeEvent) Name() string    { return "Initialize" }

// MintEvent adds liquidity to a position range.
type MintEvent struct {
	EventMeta
	Owner     string
	TickLower int64
	TickUpper int64
	Amount    *big.Int
	Amount0   *big.Int
	Amount1   *big.Int
}

func (e MintEvent) Meta() EventMeta { return e.EventMeta }
func (e MintEvent) Name() string    { return "Mint" }

// BurnEvent removes liquidity from a position range.
type BurnEvent struct {
	EventMeta
	Owner     string
	TickLower int64
	TickUpper int64
	Amount    *big.Int
	Amount0   *big.Int
	Amount1   *big.Int
}

func (e BurnEvent) Meta() EventMeta { return e.EventMeta }
func (e BurnEvent) Name() string    { return "Burn" }

// SwapEvent trades token0 against token1. Amounts are signed deltas from
// the pool's perspective.
type SwapEvent struct {
	EventMeta
	Sender       string
	Recipient    string
	Amount0      *big.Int
	Amount1      *big.Int
	SqrtPriceX96 *big.Int
	Liquidity    *big.Int
	Tick         int64
}

func (e SwapEvent) Meta() EventMeta { return e.EventMeta }
func (e SwapEvent) Name() string    { return "Swap" }

// FlashEvent is a flash loan repayment carrying protocol fees.
type FlashEvent struct {
	EventMeta
	Sender    string
	Recipient string
	Amount0   *big.Int
	Amount1   *big.Int
	Paid0     *big.Int
	Paid1     *big.Int
}

func (e FlashEvent) Meta() EventMeta { return e.EventMeta }
func (e FlashEvent) Name() string    { return "Flash" }
