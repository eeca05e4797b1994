package repository

import (
	"context"
	"errors"
	"time"

	"coinflip_arena/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// GameRepository persists the deployed-game registry and outcomes.
type GameRepository struct {
	db *pgxpool.Pool
}

func NewGameRepository(db *pgxpool.Pool) *GameRepository {
	return &GameRepository{db: db}
}

// GameRow mirrors one row of the games table.
type GameRow struct {
	Address             string     `json:"address"`
	Salt                string     `json:"salt"`
	Player1             string     `json:"player1"`
	Player1Side         string     `json:"player1_side"`
	Player2             *string    `json:"player2,omitempty"`
	Manager             string     `json:"manager"`
	RequestID           *int64     `json:"request_id,omitempty"`
	Winner              *string    `json:"winner,omitempty"`
	Outcome             *string    `json:"outcome,omitempty"`
	Completed           bool       `json:"completed"`
	MaxStalenessSeconds int64      `json:"max_staleness_seconds"`
	CreatedAt           time.Time  `json:"created_at"`
	JoinedAt            *time.Time `json:"joined_at,omitempty"`
	ResolvedAt          *time.Time `json:"resolved_at,omitempty"`
}

// Create records a freshly deployed game.
func (r *GameRepository) Create(ctx context.Context, rec domain.GameRecord, salt domain.Salt) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO games
			(address, salt, player1, player1_side, manager, completed, max_staleness_seconds, created_at)
		 VALUES ($1, $2, $3, $4, $5, false, $6, $7)`,
		rec.Address.Hex(),
		salt.Hex(),
		rec.Player1.Player.Hex(),
		string(rec.Player1.Side),
		rec.Manager.Hex(),
		int64(rec.MaxStaleness/time.Second),
		rec.CreatedAt,
	)
	return err
}

// MarkJoined stores player2 and the outstanding request id.
func (r *GameRepository) MarkJoined(ctx context.Context, game, player2 domain.Address, requestID uint64, joinedAt time.Time) error {
	_, err := r.db.Exec(ctx,
		`UPDATE games SET player2 = $2, request_id = $3, joined_at = $4 WHERE address = $1`,
		game.Hex(), player2.Hex(), int64(requestID), joinedAt,
	)
	return err
}

// MarkResolved stores the winner and outcome.
func (r *GameRepository) MarkResolved(ctx context.Context, game, winner domain.Address, outcome domain.CoinSide) error {
	_, err := r.db.Exec(ctx,
		`UPDATE games
		 SET winner = $2, outcome = $3, completed = true, resolved_at = now()
		 WHERE address = $1`,
		game.Hex(), winner.Hex(), string(outcome),
	)
	return err
}

// GetByAddress returns one game row, nil when absent.
func (r *GameRepository) GetByAddress(ctx context.Context, game domain.Address) (*GameRow, error) {
	row := r.db.QueryRow(ctx,
		`SELECT address, salt, player1, player1_side, player2, manager, request_id,
				winner, outcome, completed, max_staleness_seconds, created_at, joined_at, resolved_at
		 FROM games WHERE address = $1`,
		game.Hex(),
	)
	var gr GameRow
	err := row.Scan(&gr.Address, &gr.Salt, &gr.Player1, &gr.Player1Side, &gr.Player2,
		&gr.Manager, &gr.RequestID, &gr.Winner, &gr.Outcome, &gr.Completed,
		&gr.MaxStalenessSeconds, &gr.CreatedAt, &gr.JoinedAt, &gr.ResolvedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &gr, nil
}

// ListRecent returns the newest games first.
func (r *GameRepository) ListRecent(ctx context.Context, limit int) ([]*GameRow, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.db.Query(ctx,
		`SELECT address, salt, player1, player1_side, player2, manager, request_id,
				winner, outcome, completed, max_staleness_seconds, created_at, joined_at, resolved_at
		 FROM games
		 ORDER BY created_at DESC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*GameRow
	for rows.Next() {
		var gr GameRow
		if err := rows.Scan(&gr.Address, &gr.Salt, &gr.Player1, &gr.Player1Side, &gr.Player2,
			&gr.Manager, &gr.RequestID, &gr.Winner, &gr.Outcome, &gr.Completed,
			&gr.MaxStalenessSeconds, &gr.CreatedAt, &gr.JoinedAt, &gr.ResolvedAt); err != nil {
			return nil, err
		}
		result = append(result, &gr)
	}
	return result, rows.Err()
}

// PlayerStats aggregates wins/losses for a participant.
type PlayerStats struct {
	Player   string `json:"player"`
	Games    int    `json:"games"`
	Wins     int    `json:"wins"`
	Resolved int    `json:"resolved"`
}

// GetPlayerStats returns aggregate counters for a player since a point in time.
func (r *GameRepository) GetPlayerStats(ctx context.Context, player domain.Address, since time.Time) (*PlayerStats, error) {
	stats := &PlayerStats{Player: player.Hex()}
	err := r.db.QueryRow(ctx,
		`SELECT
			COUNT(*) AS games,
			COUNT(*) FILTER (WHERE winner = $1) AS wins,
			COUNT(*) FILTER (WHERE completed) AS resolved
		 FROM games
		 WHERE (player1 = $1 OR player2 = $1) AND created_at >= $2`,
		player.Hex(), since,
	).Scan(&stats.Games, &stats.Wins, &stats.Resolved)
	if err != nil {
		return nil, err
	}
	return stats, nil
}
