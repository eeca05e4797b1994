package service

import (
	"context"
	"errors"
	"time"

	"coinflip_arena/internal/domain"
	"coinflip_arena/internal/game"
	"coinflip_arena/internal/logger"
	"coinflip_arena/internal/oracle"
	"coinflip_arena/internal/repository"
)

// ErrGameNotFound signals a lookup miss on the deployed-game registry.
var ErrGameNotFound = errors.New("game not found")

// ErrManagerNotFound signals a lookup miss on the deployed managers.
var ErrManagerNotFound = errors.New("manager not found")

// ArenaService orchestrates the factory, the coordinator sim and persistence.
// Core state transitions live in the game/vrf packages; this layer records
// them and keeps the HTTP surface thin. Persistence is best-effort: a write
// failure is logged, never rolled back into the in-memory arena.
type ArenaService struct {
	factory     *game.Factory
	coordinator *oracle.SimCoordinator
	games       *repository.GameRepository
	requests    *repository.RequestRepository
}

// NewArenaService wires the arena.
func NewArenaService(factory *game.Factory, coordinator *oracle.SimCoordinator,
	games *repository.GameRepository, requests *repository.RequestRepository) *ArenaService {
	return &ArenaService{
		factory:     factory,
		coordinator: coordinator,
		games:       games,
		requests:    requests,
	}
}

// Factory exposes the underlying factory for read paths and admin gates.
func (s *ArenaService) Factory() *game.Factory { return s.factory }

// CreateGame deploys a game for the caller and records it.
func (s *ArenaService) CreateGame(ctx context.Context, caller domain.Address, side domain.CoinSide,
	maxStaleness time.Duration, salt domain.Salt) (domain.GameRecord, error) {

	gameAddr, _, err := s.factory.CreateGame(caller, side, maxStaleness, salt)
	if err != nil {
		return domain.GameRecord{}, err
	}
	GamesCreated.Inc()

	g, _ := s.factory.Game(gameAddr)
	rec, err := g.Record()
	if err != nil {
		return domain.GameRecord{}, err
	}

	if s.games != nil {
		if err := s.games.Create(ctx, rec, salt); err != nil {
			logger.Error("persist deployed game", "game", gameAddr.Hex(), "error", err)
		}
	}
	return rec, nil
}

// Join adds the caller as player2 and records the randomness request.
func (s *ArenaService) Join(ctx context.Context, gameAddr, caller domain.Address) (domain.GameRecord, error) {
	g, ok := s.factory.Game(gameAddr)
	if !ok {
		return domain.GameRecord{}, ErrGameNotFound
	}
	if err := g.Join(caller); err != nil {
		return domain.GameRecord{}, err
	}
	GamesJoined.Inc()
	RandomnessRequests.Inc()

	rec, err := g.Record()
	if err != nil {
		return domain.GameRecord{}, err
	}

	if s.games != nil && rec.JoinedAt != nil {
		if err := s.games.MarkJoined(ctx, gameAddr, caller, rec.RequestID, *rec.JoinedAt); err != nil {
			logger.Error("persist join", "game", gameAddr.Hex(), "error", err)
		}
	}
	if s.requests != nil {
		if err := s.requests.Create(ctx, rec.RequestID, rec.Manager, gameAddr); err != nil {
			logger.Error("persist randomness request", "request_id", rec.RequestID, "error", err)
		}
	}
	return rec, nil
}

// Resolve settles the game for the caller and records the outcome.
func (s *ArenaService) Resolve(ctx context.Context, gameAddr, caller domain.Address) (domain.GameRecord, error) {
	g, ok := s.factory.Game(gameAddr)
	if !ok {
		return domain.GameRecord{}, ErrGameNotFound
	}
	if err := g.Resolve(caller); err != nil {
		return domain.GameRecord{}, err
	}
	GamesResolved.Inc()

	rec, err := g.Record()
	if err != nil {
		return domain.GameRecord{}, err
	}

	if s.games != nil && rec.Winner != nil && rec.Outcome != nil {
		if err := s.games.MarkResolved(ctx, gameAddr, *rec.Winner, *rec.Outcome); err != nil {
			logger.Error("persist outcome", "game", gameAddr.Hex(), "error", err)
		}
	}
	return rec, nil
}

// Fulfill delivers oracle words for a pending request.
func (s *ArenaService) Fulfill(ctx context.Context, requestID uint64, words []uint64) error {
	if err := s.coordinator.Fulfill(requestID, words); err != nil {
		return err
	}
	RandomnessFulfillments.Inc()

	if s.requests != nil {
		if err := s.requests.MarkFulfilled(ctx, requestID, words); err != nil {
			logger.Error("persist fulfillment", "request_id", requestID, "error", err)
		}
	}
	return nil
}

// GetGame returns a snapshot of one deployed game.
func (s *ArenaService) GetGame(gameAddr domain.Address) (domain.GameRecord, error) {
	g, ok := s.factory.Game(gameAddr)
	if !ok {
		return domain.GameRecord{}, ErrGameNotFound
	}
	return g.Record()
}

// ListGames pages the deployed registry in creation order.
func (s *ArenaService) ListGames(offset, limit int) ([]domain.GameRecord, int, error) {
	count := s.factory.DeployedGameCount()
	if limit <= 0 || limit > 100 {
		limit = 100
	}
	var out []domain.GameRecord
	for i := offset; i < count && len(out) < limit; i++ {
		addr, err := s.factory.DeployedGameAt(i)
		if err != nil {
			return nil, 0, err
		}
		g, ok := s.factory.Game(addr)
		if !ok {
			continue
		}
		rec, err := g.Record()
		if err != nil {
			return nil, 0, err
		}
		out = append(out, rec)
	}
	return out, count, nil
}

// FundManager moves funding tokens from the caller into the manager's
// subscription (or credits native balance when native is set).
func (s *ArenaService) FundManager(caller, managerAddr domain.Address, amount uint64, native bool) error {
	m, ok := s.factory.Manager(managerAddr)
	if !ok {
		return ErrManagerNotFound
	}
	if native {
		return m.FundSubscriptionNative(caller, amount)
	}
	return m.FundSubscription(caller, amount)
}
