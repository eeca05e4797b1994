package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"coinflip_arena/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RequestRepository persists the randomness request log.
type RequestRepository struct {
	db *pgxpool.Pool
}

func NewRequestRepository(db *pgxpool.Pool) *RequestRepository {
	return &RequestRepository{db: db}
}

// RequestRow mirrors one row of the randomness_requests table.
type RequestRow struct {
	RequestID   int64      `json:"request_id"`
	Manager     string     `json:"manager"`
	Game        string     `json:"game"`
	Fulfilled   bool       `json:"fulfilled"`
	Words       []uint64   `json:"words,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	FulfilledAt *time.Time `json:"fulfilled_at,omitempty"`
}

// Create records a submitted request.
func (r *RequestRepository) Create(ctx context.Context, requestID uint64, manager, game domain.Address) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO randomness_requests (request_id, manager, game, fulfilled)
		 VALUES ($1, $2, $3, false)`,
		int64(requestID), manager.Hex(), game.Hex(),
	)
	return err
}

// MarkFulfilled stores the delivered words.
func (r *RequestRepository) MarkFulfilled(ctx context.Context, requestID uint64, words []uint64) error {
	wordsJSON, err := json.Marshal(words)
	if err != nil {
		wordsJSON = []byte("[]")
	}
	_, err = r.db.Exec(ctx,
		`UPDATE randomness_requests
		 SET fulfilled = true, words = $2, fulfilled_at = now()
		 WHERE request_id = $1`,
		int64(requestID), wordsJSON,
	)
	return err
}

// GetByID returns one request row, nil when absent.
func (r *RequestRepository) GetByID(ctx context.Context, requestID uint64) (*RequestRow, error) {
	row := r.db.QueryRow(ctx,
		`SELECT request_id, manager, game, fulfilled, words, created_at, fulfilled_at
		 FROM randomness_requests WHERE request_id = $1`,
		int64(requestID),
	)
	var (
		rr        RequestRow
		wordsJSON []byte
	)
	err := row.Scan(&rr.RequestID, &rr.Manager, &rr.Game, &rr.Fulfilled, &wordsJSON, &rr.CreatedAt, &rr.FulfilledAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if len(wordsJSON) > 0 {
		_ = json.Unmarshal(wordsJSON, &rr.Words)
	}
	return &rr, nil
}
