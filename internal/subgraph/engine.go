// Package subgraph implements the event aggregation engine: it folds decoded
// pool and factory events into persisted entities and their time-bucket
// rollups, mirroring the accounting of the exchange's reference subgraph.
package subgraph

import (
	"context"
	"fmt"
	"math/big"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/Meshram007/Blockchain-uniswapV3Mock-subgraph-backend/internal/config"
	"github.com/Meshram007/Blockchain-uniswapV3Mock-subgraph-backend/internal/store"
)

// TokenMetadata is the on-chain ERC-20 surface the engine needs when it
// first sees a token.
type TokenMetadata struct {
	Name        string
	Symbol      string
	Decimals    int32
	TotalSupply *big.Int
}

// TokenMetadataSource resolves ERC-20 metadata for a token address.
// Implementations may cache; the engine calls it once per new token.
type TokenMetadataSource interface {
	TokenMetadata(ctx context.Context, address string) (*TokenMetadata, error)
}

// PoolStateReader reads live pool contract state not carried by events.
type PoolStateReader interface {
	FeeGrowthGlobals(ctx context.Context, pool string) (fee0, fee1 *big.Int, err error)
}

// Notifier is told which pools changed after an event commits.
type Notifier interface {
	PoolChanged(pool string)
}

type chainParams struct {
	factoryAddress      string
	wethAddress         string
	usdcWETHPool        string
	whitelistTokens     []string
	stablecoins         map[string]struct{}
	ignoredPoolsCreated map[string]struct{}
	ignoredPoolsSwap    map[string]struct{}
	minimumETHLocked    decimal.Decimal
}

func newChainParams(chain *config.Chain) (*chainParams, error) {
	minLocked, err := decimal.NewFromString(chain.MinimumETHLocked)
	if err != nil {
		return nil, fmt.Errorf("invalid minimum_eth_locked %q: %w", chain.MinimumETHLocked, err)
	}

	stables := make(map[string]struct{}, len(chain.Stablecoins))
	for _, addr := range chain.Stablecoins {
		stables[addr] = struct{}{}
	}
	ignoredCreated := make(map[string]struct{}, len(chain.IgnoredPoolsCreated))
	for _, addr := range chain.IgnoredPoolsCreated {
		ignoredCreated[addr] = struct{}{}
	}
	ignoredSwap := make(map[string]struct{}, len(chain.IgnoredPoolsSwap))
	for _, addr := range chain.IgnoredPoolsSwap {
		ignoredSwap[addr] = struct{}{}
	}

	return &chainParams{
		factoryAddress:      chain.FactoryAddress,
		wethAddress:         chain.WETHAddress,
		usdcWETHPool:        chain.USDCWETHPool,
		whitelistTokens:     chain.WhitelistTokens,
		stablecoins:         stables,
		ignoredPoolsCreated: ignoredCreated,
		ignoredPoolsSwap:    ignoredSwap,
		minimumETHLocked:    minLocked,
	}, nil
}

func (p *chainParams) isWhitelisted(token string) bool {
	for _, addr := range p.whitelistTokens {
		if addr == token {
			return true
		}
	}
	return false
}

// Engine folds events into entity state. Events must be fed in chain order;
// the engine itself is single-threaded over its store.
type Engine struct {
	store     store.Store
	params    *chainParams
	metadata  TokenMetadataSource
	poolState PoolStateReader
	notifier  Notifier
	logger    zerolog.Logger
}

func New(s store.Store, chain *config.Chain, metadata TokenMetadataSource, logger zerolog.Logger) (*Engine, error) {
	params, err := newChainParams(chain)
	if err != nil {
		return nil, err
	}
	return &Engine{
		store:    s,
		params:   params,
		metadata: metadata,
		logger:   logger.With().Str("component", "subgraph").Logger(),
	}, nil
}

// SetPoolStateReader enables fee growth reads for flash events. Without it
// flash events are skipped.
func (e *Engine) SetPoolStateReader(r PoolStateReader) { e.poolState = r }

// SetNotifier enables pool change notifications after commits.
func (e *Engine) SetNotifier(n Notifier) { e.notifier = n }

// skipReason marks an event that was deliberately not applied. Skipped
// events leave no writes behind.
type skipReason string

const (
	skipIgnoredPool     skipReason = "ignored_pool"
	skipDuplicatePool   skipReason = "duplicate_pool"
	skipUnknownPool     skipReason = "unknown_pool"
	skipTokenMetadata   skipReason = "token_metadata"
	skipMissingEntity   skipReason = "missing_entity"
	skipNoStateReader   skipReason = "no_state_reader"
	skipStateReadFailed skipReason = "state_read_failed"
)

type skipError struct {
	reason skipReason
	detail string
}

func (s *skipError) Error() string {
	return fmt.Sprintf("skipped: %s (%s)", s.reason, s.detail)
}

func skip(reason skipReason, format string, args ...any) error {
	return &skipError{reason: reason, detail: fmt.Sprintf(format, args...)}
}

// ProcessEvent applies one event atomically. A skipped event is not an
// error: the store is left untouched and processing continues.
func (e *Engine) ProcessEvent(ctx context.Context, event Event) error {
	err := e.store.Transact(ctx, func(s store.Store) error {
		switch ev := event.(type) {
		case PoolCreatedEvent:
			return e.handlePoolCreated(ctx, s, ev)
		case InitializeEvent:
			return e.handleInitialize(ctx, s, ev)
		case MintEvent:
			return e.handleMint(ctx, s, ev)
		case BurnEvent:
			return e.handleBurn(ctx, s, ev)
		case SwapEvent:
			return e.handleSwap(ctx, s, ev)
		case FlashEvent:
			return e.handleFlash(ctx, s, ev)
		default:
			return fmt.Errorf("unhandled event type %T", event)
		}
	})
	if err != nil {
		if se, ok := err.(*skipError); ok {
			e.logger.Debug().
				Str("event", event.Name()).
				Str("reason", string(se.reason)).
				Str("detail", se.detail).
				Uint64("block", event.Meta().BlockNumber).
				Msg("Skipped event")
			return nil
		}
		return fmt.Errorf("process %s at block %d: %w", event.Name(), event.Meta().BlockNumber, err)
	}

	if e.notifier != nil {
		if pool := changedPool(event); pool != "" {
			e.notifier.PoolChanged(pool)
		}
	}
	return nil
}

func changedPool(event Event) string {
	if ev, ok := event.(PoolCreatedEvent); ok {
		return ev.Pool
	}
	return event.Meta().Address
}
