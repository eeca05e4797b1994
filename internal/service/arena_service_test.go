package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"coinflip_arena/internal/access"
	"coinflip_arena/internal/domain"
	"coinflip_arena/internal/game"
	"coinflip_arena/internal/oracle"
)

var (
	admin = domain.AddressFromSeed("admin")
	alice = domain.AddressFromSeed("alice")
	bob   = domain.AddressFromSeed("bob")
)

func newTestArena(t *testing.T) (*ArenaService, *access.Registry, *oracle.SimCoordinator) {
	t.Helper()
	acl := access.NewRegistry()
	coordinator := oracle.NewSimCoordinator(domain.AddressFromSeed("coordinator"))
	token := oracle.NewSimToken(domain.AddressFromSeed("token"))

	factory := game.NewFactory(domain.AddressFromSeed("factory"), acl, nil)
	err := factory.Initialize(coordinator, token, domain.SaltFromString("lane"),
		domain.AddressFromSeed("game-tpl"), domain.AddressFromSeed("manager-tpl"),
		time.Hour, admin)
	if err != nil {
		t.Fatalf("factory init: %v", err)
	}

	// Persistence is optional; the arena runs fully in memory without repos.
	return NewArenaService(factory, coordinator, nil, nil), acl, coordinator
}

func TestCreateAndGetGame(t *testing.T) {
	arena, _, _ := newTestArena(t)
	ctx := context.Background()

	rec, err := arena.CreateGame(ctx, alice, domain.SideHeads, 0, domain.SaltFromString("g1"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if rec.Status != domain.StatusAwaitingPlayer2 {
		t.Fatalf("status = %s", rec.Status)
	}
	if rec.Player1.Player != alice || rec.Player1.Side != domain.SideHeads {
		t.Fatal("player1 not recorded")
	}
	if rec.MaxStaleness != time.Hour {
		t.Fatalf("max staleness = %s, want default 1h", rec.MaxStaleness)
	}

	got, err := arena.GetGame(rec.Address)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Address != rec.Address {
		t.Fatal("lookup returned a different game")
	}

	if _, err := arena.GetGame(domain.AddressFromSeed("missing")); !errors.Is(err, ErrGameNotFound) {
		t.Fatalf("missing game: got %v", err)
	}
}

func TestJoinGatesThroughService(t *testing.T) {
	arena, _, _ := newTestArena(t)
	ctx := context.Background()

	rec, err := arena.CreateGame(ctx, alice, domain.SideHeads, 0, domain.SaltFromString("g1"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// The minimum wait applies immediately after deployment.
	if _, err := arena.Join(ctx, rec.Address, bob); !errors.Is(err, domain.ErrTooFresh) {
		t.Fatalf("immediate join: got %v", err)
	}
	if _, err := arena.Join(ctx, domain.AddressFromSeed("missing"), bob); !errors.Is(err, ErrGameNotFound) {
		t.Fatalf("join missing game: got %v", err)
	}
	if _, err := arena.Resolve(ctx, rec.Address, alice); !errors.Is(err, domain.ErrNotJoined) {
		t.Fatalf("resolve unjoined: got %v", err)
	}
}

func TestListGamesPaging(t *testing.T) {
	arena, _, _ := newTestArena(t)
	ctx := context.Background()

	var addrs []domain.Address
	for _, salt := range []string{"p1", "p2", "p3"} {
		rec, err := arena.CreateGame(ctx, alice, domain.SideHeads, 0, domain.SaltFromString(salt))
		if err != nil {
			t.Fatalf("create %s: %v", salt, err)
		}
		addrs = append(addrs, rec.Address)
	}

	games, count, err := arena.ListGames(0, 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if count != 3 || len(games) != 2 {
		t.Fatalf("count=%d len=%d, want 3/2", count, len(games))
	}
	if games[0].Address != addrs[0] || games[1].Address != addrs[1] {
		t.Fatal("listing must follow creation order")
	}

	games, _, err = arena.ListGames(2, 2)
	if err != nil {
		t.Fatalf("list offset: %v", err)
	}
	if len(games) != 1 || games[0].Address != addrs[2] {
		t.Fatal("offset paging wrong")
	}

	games, _, err = arena.ListGames(10, 2)
	if err != nil || len(games) != 0 {
		t.Fatalf("past-the-end page: %v, %d games", err, len(games))
	}
}

func TestFulfillRoutesToManager(t *testing.T) {
	arena, acl, _ := newTestArena(t)
	ctx := context.Background()

	rec, err := arena.CreateGame(ctx, alice, domain.SideHeads, 0, domain.SaltFromString("f1"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	m, ok := arena.Factory().Manager(rec.Manager)
	if !ok {
		t.Fatal("manager not deployed")
	}

	// Stand in for a game holding the agent grant.
	probe := domain.AddressFromSeed("probe")
	acl.Grant(probe, access.AgentScope(rec.Manager))
	reqID, err := m.RequestRandomWords(probe, 1)
	if err != nil {
		t.Fatalf("request: %v", err)
	}

	if err := arena.Fulfill(ctx, reqID, []uint64{77}); err != nil {
		t.Fatalf("fulfill: %v", err)
	}
	if !m.IsRequestFulfilled(reqID) {
		t.Fatal("fulfillment did not reach the manager")
	}
	if err := arena.Fulfill(ctx, reqID, []uint64{77}); !errors.Is(err, domain.ErrUnknownRequest) {
		t.Fatalf("double fulfill: got %v", err)
	}
}

func TestFundManager(t *testing.T) {
	arena, _, _ := newTestArena(t)
	ctx := context.Background()

	if err := arena.FundManager(admin, domain.AddressFromSeed("missing"), 10, false); !errors.Is(err, ErrManagerNotFound) {
		t.Fatalf("fund missing manager: got %v", err)
	}

	rec, err := arena.CreateGame(ctx, alice, domain.SideHeads, 0, domain.SaltFromString("fund"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	// Native funding needs no token balance.
	if err := arena.FundManager(admin, rec.Manager, 10, true); err != nil {
		t.Fatalf("fund native: %v", err)
	}
	// Token funding without balance surfaces the transfer failure.
	if err := arena.FundManager(admin, rec.Manager, 10, false); !errors.Is(err, domain.ErrTransferFailed) {
		t.Fatalf("fund without balance: got %v", err)
	}
	// Non-admin callers are rejected by the manager.
	if err := arena.FundManager(bob, rec.Manager, 10, true); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("fund by non-admin: got %v", err)
	}
}
