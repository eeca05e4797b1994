package integration

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"coinflip_arena/internal/domain"
	"coinflip_arena/internal/repository"

	"github.com/jackc/pgx/v5/pgxpool"
)

func applyMigrations(t *testing.T, db *pgxpool.Pool) {
	t.Helper()
	migDir := filepath.Join("..", "..", "internal", "migrations")
	files, err := os.ReadDir(migDir)
	if err != nil {
		t.Fatalf("read migrations: %v", err)
	}
	for _, f := range files {
		b, err := os.ReadFile(filepath.Join(migDir, f.Name()))
		if err != nil {
			t.Fatalf("read file: %v", err)
		}
		if _, err := db.Exec(context.Background(), string(b)); err != nil {
			t.Fatalf("apply migration %s: %v", f.Name(), err)
		}
	}
}

func connect(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set")
	}
	db, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	t.Cleanup(db.Close)
	applyMigrations(t, db)
	return db
}

func seedRecord(salt string) (domain.GameRecord, domain.Salt) {
	s := domain.SaltFromString(salt)
	return domain.GameRecord{
		Address: domain.AddressFromSeed("game-" + salt),
		Status:  domain.StatusAwaitingPlayer2,
		Player1: domain.PlayerDetails{
			Player: domain.AddressFromSeed("p1-" + salt),
			Side:   domain.SideHeads,
		},
		Manager:      domain.AddressFromSeed("manager-" + salt),
		CreatedAt:    time.Now().UTC(),
		MaxStaleness: time.Hour,
	}, s
}

func TestGameRepositoryLifecycle(t *testing.T) {
	db := connect(t)
	ctx := context.Background()
	repo := repository.NewGameRepository(db)

	// Unique per run so repeated test invocations do not collide on the PK.
	seed := fmt.Sprintf("lifecycle-%d", time.Now().UnixNano())
	rec, salt := seedRecord(seed)
	if err := repo.Create(ctx, rec, salt); err != nil {
		t.Fatalf("create: %v", err)
	}

	row, err := repo.GetByAddress(ctx, rec.Address)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if row == nil {
		t.Fatal("created game not found")
	}
	if row.Player1 != rec.Player1.Player.Hex() || row.Player1Side != "heads" {
		t.Fatalf("row = %+v", row)
	}
	if row.Completed || row.Player2 != nil || row.Winner != nil {
		t.Fatal("fresh game must be open")
	}
	if row.MaxStalenessSeconds != 3600 {
		t.Fatalf("max staleness = %d, want 3600", row.MaxStalenessSeconds)
	}

	player2 := domain.AddressFromSeed("p2-" + seed)
	joinedAt := time.Now().UTC()
	if err := repo.MarkJoined(ctx, rec.Address, player2, 42, joinedAt); err != nil {
		t.Fatalf("mark joined: %v", err)
	}
	row, _ = repo.GetByAddress(ctx, rec.Address)
	if row.Player2 == nil || *row.Player2 != player2.Hex() {
		t.Fatal("player2 not stored")
	}
	if row.RequestID == nil || *row.RequestID != 42 {
		t.Fatal("request id not stored")
	}

	if err := repo.MarkResolved(ctx, rec.Address, player2, domain.SideTails); err != nil {
		t.Fatalf("mark resolved: %v", err)
	}
	row, _ = repo.GetByAddress(ctx, rec.Address)
	if !row.Completed || row.Winner == nil || *row.Winner != player2.Hex() {
		t.Fatal("outcome not stored")
	}
	if row.Outcome == nil || *row.Outcome != "tails" {
		t.Fatalf("outcome = %v", row.Outcome)
	}
	if row.ResolvedAt == nil {
		t.Fatal("resolved_at not stamped")
	}

	missing, err := repo.GetByAddress(ctx, domain.AddressFromSeed("nope"))
	if err != nil || missing != nil {
		t.Fatalf("missing game: %v, %v", missing, err)
	}

	recent, err := repo.ListRecent(ctx, 10)
	if err != nil {
		t.Fatalf("list recent: %v", err)
	}
	found := false
	for _, r := range recent {
		if r.Address == rec.Address.Hex() {
			found = true
		}
	}
	if !found {
		t.Fatal("resolved game missing from recent listing")
	}

	stats, err := repo.GetPlayerStats(ctx, player2, time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Games < 1 || stats.Wins < 1 || stats.Resolved < 1 {
		t.Fatalf("stats = %+v", stats)
	}
}

func TestRequestRepositoryLifecycle(t *testing.T) {
	db := connect(t)
	ctx := context.Background()
	repo := repository.NewRequestRepository(db)

	manager := domain.AddressFromSeed("req-manager")
	gameAddr := domain.AddressFromSeed("req-game")
	requestID := uint64(time.Now().UnixNano()) // avoid collisions across runs

	if err := repo.Create(ctx, requestID, manager, gameAddr); err != nil {
		t.Fatalf("create: %v", err)
	}

	row, err := repo.GetByID(ctx, requestID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if row == nil || row.Fulfilled || len(row.Words) != 0 {
		t.Fatalf("fresh request row = %+v", row)
	}

	if err := repo.MarkFulfilled(ctx, requestID, []uint64{7, 9}); err != nil {
		t.Fatalf("mark fulfilled: %v", err)
	}
	row, _ = repo.GetByID(ctx, requestID)
	if !row.Fulfilled || row.FulfilledAt == nil {
		t.Fatal("fulfillment not stored")
	}
	if len(row.Words) != 2 || row.Words[0] != 7 || row.Words[1] != 9 {
		t.Fatalf("words = %v", row.Words)
	}

	missing, err := repo.GetByID(ctx, requestID+1)
	if err != nil || missing != nil {
		t.Fatalf("missing request: %v, %v", missing, err)
	}
}
