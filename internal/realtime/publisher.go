package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/centrifugal/gocent/v3"
	"github.com/rs/zerolog"

	"github.com/Meshram007/Blockchain-uniswapV3Mock-subgraph-backend/internal/config"
	"github.com/Meshram007/Blockchain-uniswapV3Mock-subgraph-backend/internal/entity"
	"github.com/Meshram007/Blockchain-uniswapV3Mock-subgraph-backend/internal/store"
)

// Publisher pushes pool snapshots to Centrifugo after events commit.
// Changed pools are coalesced and flushed on an interval so a busy pool
// produces one update per flush, not one per swap.
type Publisher struct {
	gc           *gocent.Client
	store        store.Store
	logger       zerolog.Logger
	mu           sync.Mutex
	pending      map[string]struct{}
	flushCh      chan struct{}
	ctx          context.Context
	cancel       context.CancelFunc
	wg           sync.WaitGroup
	currentBlock uint64
}

func NewPublisher(cfg *config.RealtimeConfig, s store.Store, logger zerolog.Logger) *Publisher {
	ctx, cancel := context.WithCancel(context.Background())

	p := &Publisher{
		gc: gocent.New(gocent.Config{
			Addr: cfg.APIURL,
			Key:  cfg.APIKey,
		}),
		store:   s,
		logger:  logger.With().Str("component", "realtime-publisher").Logger(),
		pending: make(map[string]struct{}),
		flushCh: make(chan struct{}, 1),
		ctx:     ctx,
		cancel:  cancel,
	}

	interval := cfg.FlushInterval
	if interval <= 0 {
		interval = time.Second
	}
	p.startFlusher(interval)
	return p
}

func (p *Publisher) startFlusher(interval time.Duration) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-p.ctx.Done():
				p.logger.Info().Msg("Stopping publisher flusher")
				return
			case <-ticker.C:
				p.flush(p.ctx)
			case <-p.flushCh:
				p.flush(p.ctx)
			}
		}
	}()
}

// PoolChanged queues a pool for the next flush.
func (p *Publisher) PoolChanged(address string) {
	addr := strings.ToLower(address)
	p.mu.Lock()
	p.pending[addr] = struct{}{}
	p.mu.Unlock()

	select {
	case p.flushCh <- struct{}{}:
	default:
	}
}

func (p *Publisher) SetCurrentBlock(blockNumber uint64) {
	p.mu.Lock()
	p.currentBlock = blockNumber
	p.mu.Unlock()
}

func (p *Publisher) Flush() {
	p.flush(p.ctx)
}

func (p *Publisher) flush(ctx context.Context) {
	p.mu.Lock()
	if len(p.pending) == 0 {
		p.mu.Unlock()
		return
	}

	addrs := make([]string, 0, len(p.pending))
	for addr := range p.pending {
		addrs = append(addrs, addr)
	}
	currentBlock := p.currentBlock
	p.pending = make(map[string]struct{})
	p.mu.Unlock()

	p.logger.Debug().
		Int("count", len(addrs)).
		Uint64("block", currentBlock).
		Msg("Flushing pool updates")

	timestamp := time.Now().UTC().Unix()
	items := make([]any, 0, len(addrs))

	for _, addr := range addrs {
		pool, err := store.Load[entity.Pool](ctx, p.store, store.KindPool, addr)
		if err != nil {
			p.logger.Error().Err(err).Str("pool", addr).Msg("Failed to load pool for publish")
			continue
		}
		if pool == nil {
			continue
		}

		payload := map[string]any{
			"type":         "pool.update",
			"block_number": currentBlock,
			"ts":           timestamp,
			"pool":         pool,
		}
		payloadBytes, err := json.Marshal(payload)
		if err != nil {
			p.logger.Warn().Err(err).Msg("Failed to marshal pool payload")
			continue
		}

		channel := fmt.Sprintf("dex.pool.%s", addr)
		if _, err := p.gc.Publish(ctx, channel, payloadBytes); err != nil {
			if p.ctx.Err() != nil {
				return
			}
			p.logger.Warn().
				Err(err).
				Str("pool", addr).
				Str("channel", channel).
				Msg("Failed to publish pool update")
			continue
		}
		items = append(items, pool)
	}

	if len(items) == 0 {
		return
	}

	batchPayload := map[string]any{
		"type":         "pool.batch",
		"block_number": currentBlock,
		"ts":           timestamp,
		"items":        items,
	}
	batchPayloadBytes, err := json.Marshal(batchPayload)
	if err != nil {
		p.logger.Warn().Err(err).Msg("Failed to marshal batch payload")
		return
	}

	if _, err := p.gc.Publish(ctx, "dex.pools", batchPayloadBytes); err != nil {
		p.logger.Warn().Err(err).Msg("Failed to publish batch update")
	} else {
		p.logger.Debug().
			Int("count", len(items)).
			Uint64("block", currentBlock).
			Msg("Published batch update")
	}
}

func (p *Publisher) Close() error {
	p.logger.Info().Msg("Closing publisher")
	p.cancel()
	p.wg.Wait()
	return nil
}
