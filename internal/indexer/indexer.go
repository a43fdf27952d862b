// Package indexer wires the RPC feed, decoder, engine and sidecars into a
// single sequential pipeline: fetch logs in block ranges, decode, apply in
// order, advance the cursor.
package indexer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/rs/zerolog"

	"github.com/Meshram007/Blockchain-uniswapV3Mock-subgraph-backend/internal/cache"
	"github.com/Meshram007/Blockchain-uniswapV3Mock-subgraph-backend/internal/config"
	"github.com/Meshram007/Blockchain-uniswapV3Mock-subgraph-backend/internal/decoder"
	"github.com/Meshram007/Blockchain-uniswapV3Mock-subgraph-backend/internal/ethrpc"
	"github.com/Meshram007/Blockchain-uniswapV3Mock-subgraph-backend/internal/realtime"
	"github.com/Meshram007/Blockchain-uniswapV3Mock-subgraph-backend/internal/scheduler"
	"github.com/Meshram007/Blockchain-uniswapV3Mock-subgraph-backend/internal/store"
	"github.com/Meshram007/Blockchain-uniswapV3Mock-subgraph-backend/internal/subgraph"
)

const (
	cursorID       = "head"
	maxRangeBlocks = 1000
)

type cursor struct {
	ID          string `json:"id"`
	BlockNumber uint64 `json:"blockNumber"`
}

type Indexer struct {
	cfg       *config.Config
	chain     *config.Chain
	store     store.Store
	client    *ethrpc.Client
	decoder   *decoder.Decoder
	engine    *subgraph.Engine
	publisher *realtime.Publisher
	scheduler *scheduler.TokenSupplyScheduler
	metaCache *cache.TokenMetadataCache
	pg        *store.Postgres
	logger    zerolog.Logger
}

func NewIndexer(cfg *config.Config, logger zerolog.Logger) (*Indexer, error) {
	ctx := context.Background()

	chain, err := config.LoadChain(cfg.Chain.ManifestPath)
	if err != nil {
		return nil, err
	}

	idx := &Indexer{
		cfg:    cfg,
		chain:  chain,
		logger: logger.With().Str("component", "indexer").Logger(),
	}

	switch cfg.Storage.Backend {
	case "memory":
		idx.store = store.NewMemory()
	case "postgres", "":
		if err := store.Migrate(ctx, &cfg.Database, logger); err != nil {
			return nil, err
		}
		pg, err := store.NewPostgres(ctx, &cfg.Database, logger)
		if err != nil {
			return nil, err
		}
		idx.pg = pg
		idx.store = pg
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}

	client, err := ethrpc.New(ctx, cfg.Chain.RPCEndpoint, logger)
	if err != nil {
		return nil, err
	}
	idx.client = client

	dec, err := decoder.New()
	if err != nil {
		return nil, err
	}
	idx.decoder = dec

	var metadata subgraph.TokenMetadataSource = client
	if cfg.Redis.Addr != "" {
		idx.metaCache = cache.NewTokenMetadataCache(&cfg.Redis, client, logger)
		metadata = idx.metaCache
	}

	engine, err := subgraph.New(idx.store, chain, metadata, logger)
	if err != nil {
		return nil, err
	}
	engine.SetPoolStateReader(client)
	idx.engine = engine

	if cfg.Realtime.Enabled {
		idx.publisher = realtime.NewPublisher(&cfg.Realtime, idx.store, logger)
		engine.SetNotifier(idx.publisher)
	}

	sched, err := scheduler.NewTokenSupplyScheduler(idx.store, client, logger)
	if err != nil {
		return nil, err
	}
	idx.scheduler = sched

	return idx, nil
}

// Start runs the feed loop until a shutdown signal arrives.
func (i *Indexer) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		i.logger.Info().Str("signal", sig.String()).Msg("Shutting down")
		cancel()
	}()

	if err := i.scheduler.Start(ctx); err != nil {
		return err
	}
	defer i.close()

	return i.run(ctx)
}

func (i *Indexer) close() {
	i.scheduler.Stop()
	if i.publisher != nil {
		i.publisher.Flush()
		_ = i.publisher.Close()
	}
	if i.metaCache != nil {
		_ = i.metaCache.Close()
	}
	i.client.Close()
	if i.pg != nil {
		i.pg.Close()
	}
}

func (i *Indexer) run(ctx context.Context) error {
	from, err := i.loadCursor(ctx)
	if err != nil {
		return err
	}
	i.logger.Info().Uint64("from", from).Msg("Starting feed loop")

	pollInterval := i.cfg.Chain.BlockTime
	if pollInterval <= 0 {
		pollInterval = 12 * time.Second
	}

	for {
		if ctx.Err() != nil {
			return nil
		}

		head, err := i.client.BlockNumber(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			i.logger.Error().Err(err).Msg("Failed to fetch chain head")
			if !sleepCtx(ctx, pollInterval) {
				return nil
			}
			continue
		}

		if from > head {
			if !sleepCtx(ctx, pollInterval) {
				return nil
			}
			continue
		}

		to := from + maxRangeBlocks - 1
		if to > head {
			to = head
		}

		if err := i.processRange(ctx, from, to); err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			i.logger.Error().Err(err).Uint64("from", from).Uint64("to", to).Msg("Range processing failed, retrying")
			if !sleepCtx(ctx, pollInterval) {
				return nil
			}
			continue
		}

		if err := i.saveCursor(ctx, to); err != nil {
			return err
		}
		from = to + 1
	}
}

// processRange applies every matching log in [from, to] in chain order.
func (i *Indexer) processRange(ctx context.Context, from, to uint64) error {
	logs, err := i.client.FilterLogs(ctx, from, to, i.decoder.Topics())
	if err != nil {
		return err
	}

	sort.SliceStable(logs, func(a, b int) bool {
		if logs[a].BlockNumber != logs[b].BlockNumber {
			return logs[a].BlockNumber < logs[b].BlockNumber
		}
		if logs[a].TxIndex != logs[b].TxIndex {
			return logs[a].TxIndex < logs[b].TxIndex
		}
		return logs[a].Index < logs[b].Index
	})

	timestamps := make(map[uint64]int64)
	for idx := range logs {
		log := &logs[idx]
		if log.Removed {
			continue
		}

		timestamp, ok := timestamps[log.BlockNumber]
		if !ok {
			timestamp, err = i.client.BlockTimestamp(ctx, log.BlockNumber)
			if err != nil {
				return err
			}
			timestamps[log.BlockNumber] = timestamp
		}

		if err := i.processLog(ctx, log, timestamp); err != nil {
			return err
		}

		if i.publisher != nil {
			i.publisher.SetCurrentBlock(log.BlockNumber)
		}
	}

	if len(logs) > 0 {
		i.logger.Info().
			Uint64("from", from).
			Uint64("to", to).
			Int("logs", len(logs)).
			Msg("Processed block range")
	}
	return nil
}

func (i *Indexer) processLog(ctx context.Context, log *types.Log, timestamp int64) error {
	event, err := i.decoder.Decode(log, timestamp)
	if err != nil {
		var unknown decoder.ErrUnknownEvent
		if errors.As(err, &unknown) {
			i.logger.Debug().Str("topic", unknown.Topic).Msg("Ignoring unknown event")
			return nil
		}
		i.logger.Error().Err(err).
			Uint64("block", log.BlockNumber).
			Str("address", log.Address.Hex()).
			Msg("Failed to decode event, skipping")
		return nil
	}

	// factory events must come from the factory
	if _, ok := event.(subgraph.PoolCreatedEvent); ok {
		if event.Meta().Address != i.chain.FactoryAddress {
			return nil
		}
	}

	return i.engine.ProcessEvent(ctx, event)
}

func (i *Indexer) loadCursor(ctx context.Context) (uint64, error) {
	cur, err := store.Load[cursor](ctx, i.store, store.KindCursor, cursorID)
	if err != nil {
		return 0, err
	}
	if cur == nil {
		return i.cfg.Chain.StartBlock, nil
	}
	return cur.BlockNumber + 1, nil
}

func (i *Indexer) saveCursor(ctx context.Context, block uint64) error {
	return i.store.Put(ctx, store.KindCursor, cursorID, &cursor{ID: cursorID, BlockNumber: block})
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}
