package scheduler

import (
	"context"
	"math/big"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog"

	"github.com/Meshram007/Blockchain-uniswapV3Mock-subgraph-backend/internal/entity"
	"github.com/Meshram007/Blockchain-uniswapV3Mock-subgraph-backend/internal/store"
)

// SupplyReader reads a token's current total supply from the chain.
type SupplyReader interface {
	TotalSupply(ctx context.Context, address string) (*big.Int, error)
}

// TokenSupplyScheduler periodically refreshes stored token total supplies,
// which drift as tokens mint and burn outside pool events.
type TokenSupplyScheduler struct {
	store     store.Store
	reader    SupplyReader
	scheduler gocron.Scheduler
	logger    zerolog.Logger
}

func NewTokenSupplyScheduler(s store.Store, reader SupplyReader, logger zerolog.Logger) (*TokenSupplyScheduler, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	return &TokenSupplyScheduler{
		store:     s,
		reader:    reader,
		scheduler: sched,
		logger:    logger.With().Str("component", "token-supply-scheduler").Logger(),
	}, nil
}

func (s *TokenSupplyScheduler) Start(ctx context.Context) error {
	_, err := s.scheduler.NewJob(
		gocron.DurationJob(30*time.Minute),
		gocron.NewTask(s.refreshAllSupplies, ctx),
		gocron.WithName("refresh-token-supplies"),
	)
	if err != nil {
		return err
	}

	s.logger.Info().Msg("Token supply scheduler started (runs every 30 minutes)")
	s.scheduler.Start()
	return nil
}

func (s *TokenSupplyScheduler) Stop() {
	s.logger.Info().Msg("Stopping token supply scheduler")
	if err := s.scheduler.Shutdown(); err != nil {
		s.logger.Error().Err(err).Msg("Error shutting down scheduler")
	}
}

func (s *TokenSupplyScheduler) refreshAllSupplies(ctx context.Context) {
	s.logger.Info().Msg("Starting token supply refresh")
	start := time.Now()

	tokens, err := s.store.Keys(ctx, store.KindToken)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to list tokens")
		return
	}

	updated := 0
	unchanged := 0
	for _, addr := range tokens {
		supply, err := s.reader.TotalSupply(ctx, addr)
		if err != nil {
			s.logger.Debug().Err(err).Str("token", addr).Msg("Failed to read total supply")
			continue
		}

		token, err := store.Load[entity.Token](ctx, s.store, store.KindToken, addr)
		if err != nil || token == nil {
			continue
		}
		if token.TotalSupply != nil && token.TotalSupply.Cmp(supply) == 0 {
			unchanged++
			continue
		}
		token.TotalSupply = supply
		if err := s.store.Put(ctx, store.KindToken, addr, token); err != nil {
			s.logger.Error().Err(err).Str("token", addr).Msg("Failed to save token supply")
			continue
		}
		updated++
	}

	s.logger.Info().
		Int("total", len(tokens)).
		Int("updated", updated).
		Int("unchanged", unchanged).
		Dur("duration", time.Since(start)).
		Msg("Token supply refresh complete")
}
