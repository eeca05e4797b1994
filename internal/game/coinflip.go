package game

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"math"
	"strings"
	"sync"
	"time"

	"coinflip_arena/internal/domain"
)

// Staleness window bounds. A join/resolve is premature below the minimum and
// expired past the per-instance maximum; both bounds are inclusive.
const (
	MinStaleness = time.Minute
	MaxStaleness = 24 * time.Hour
)

// RandomnessSource is what a game needs from its bound manager.
type RandomnessSource interface {
	Address() domain.Address
	TypeAndVersion() string
	RequestRandomWords(caller domain.Address, count uint32) (uint64, error)
	GetRandomWords(caller domain.Address, requestID uint64) ([]uint64, error)
	IsRequestFulfilled(requestID uint64) bool
}

// entropyBeacon stands in for a chain randomness beacon: one process-lifetime
// seed folded into every resolve mix.
var entropyBeacon [32]byte

func init() {
	if _, err := rand.Read(entropyBeacon[:]); err != nil {
		panic("entropy beacon: " + err.Error())
	}
}

// CoinFlipGame is a two-player coin toss with a randomness-gated resolution.
// Lifecycle: Uninitialized -> AwaitingPlayer2 -> AwaitingRandomness -> Resolved,
// with no transition out of Resolved. All mutations are single-flight behind
// one mutex.
type CoinFlipGame struct {
	addr domain.Address

	mu           sync.Mutex
	initialized  bool
	player1      domain.PlayerDetails
	player2      *domain.PlayerDetails
	manager      RandomnessSource
	requestID    uint64
	winner       *domain.Address
	completed    bool
	outcome      domain.CoinSide
	createdAt    time.Time
	joinedAt     time.Time
	maxStaleness time.Duration

	now  func() time.Time
	emit func(domain.Event)
}

// NewCoinFlipGame allocates a blank game at addr. It is unusable until
// Initialize.
func NewCoinFlipGame(addr domain.Address) *CoinFlipGame {
	return &CoinFlipGame{
		addr: addr,
		now:  time.Now,
		emit: func(domain.Event) {},
	}
}

// Address returns the game's deployment address.
func (g *CoinFlipGame) Address() domain.Address { return g.addr }

// Initialize records player1 with their chosen side and binds the game to a
// randomness manager. Single-shot; a rejected second call leaves state intact.
func (g *CoinFlipGame) Initialize(side domain.CoinSide, manager RandomnessSource, maxStaleness time.Duration, player1 domain.Address) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.initialized {
		return domain.ErrAlreadyInitialized
	}
	if manager == nil || player1.IsZero() {
		return domain.ErrInvalidConfig
	}
	if !side.Valid() {
		return domain.ErrInvalidArgument
	}
	if maxStaleness < MinStaleness || maxStaleness > MaxStaleness {
		return domain.ErrInvalidStaleness
	}
	if !strings.HasPrefix(manager.TypeAndVersion(), "RandomnessManager") {
		return domain.ErrInvalidConfig
	}

	g.player1 = domain.PlayerDetails{Player: player1, Side: side}
	g.manager = manager
	g.maxStaleness = maxStaleness
	g.createdAt = g.now()
	g.initialized = true
	return nil
}

// Join assigns the caller as player2 with the complementary side and requests
// one random word from the bound manager.
func (g *CoinFlipGame) Join(caller domain.Address) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.completed {
		return domain.ErrAlreadyCompleted
	}
	if !g.initialized {
		return domain.ErrNotInitialized
	}
	if g.player2 != nil {
		return domain.ErrAlreadyJoined
	}
	if caller.IsZero() {
		return domain.ErrInvalidArgument
	}
	if caller == g.player1.Player {
		return domain.ErrSelfJoin
	}
	if err := g.checkWindow(g.createdAt); err != nil {
		return err
	}

	requestID, err := g.manager.RequestRandomWords(g.addr, 1)
	if err != nil {
		return err
	}
	if g.completed {
		return domain.ErrAlreadyCompleted
	}

	g.player2 = &domain.PlayerDetails{Player: caller, Side: g.player1.Side.Opposite()}
	g.requestID = requestID
	g.joinedAt = g.now()

	g.emit(domain.Event{Type: domain.EventJoinedGame, Payload: domain.JoinedGameEvent{
		Game:    g.addr,
		Player1: g.player1.Player,
		Player2: caller,
	}})
	return nil
}

// Resolve reads the fulfilled word, mixes it with ambient entropy and settles
// the winner. Only a participant may resolve, and only inside the staleness
// window measured from the join. A degenerate word (zero or max) fails with
// ErrInvalidRandomness and, since the single request is never reissued, leaves
// the game stuck in AwaitingRandomness until the window expires.
func (g *CoinFlipGame) Resolve(caller domain.Address) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.completed {
		return domain.ErrAlreadyCompleted
	}
	if !g.initialized {
		return domain.ErrNotInitialized
	}
	if g.player2 == nil {
		return domain.ErrNotJoined
	}
	if caller != g.player1.Player && caller != g.player2.Player {
		return domain.ErrUnauthorized
	}
	if g.requestID == 0 {
		return domain.ErrRandomnessNotRequested
	}
	if !g.manager.IsRequestFulfilled(g.requestID) {
		return domain.ErrRandomnessNotReady
	}
	if err := g.checkWindow(g.joinedAt); err != nil {
		return err
	}

	words, err := g.manager.GetRandomWords(g.addr, g.requestID)
	if err != nil {
		return err
	}
	if g.completed {
		return domain.ErrAlreadyCompleted
	}
	if len(words) == 0 {
		return domain.ErrRandomnessNotReady
	}

	primary := words[0]
	if primary == 0 || primary == math.MaxUint64 {
		return domain.ErrInvalidRandomness
	}

	mixed := mixEntropy(primary, g.now(), caller, g.requestID)
	outcome := domain.SideTails
	if mixed[len(mixed)-1]&1 == 0 {
		outcome = domain.SideHeads
	}

	winner := g.player1.Player
	if g.player2.Side == outcome {
		winner = g.player2.Player
	}

	g.outcome = outcome
	g.winner = &winner
	g.completed = true

	g.emit(domain.Event{Type: domain.EventGameOutcome, Payload: domain.GameOutcomeEvent{
		Game:    g.addr,
		Winner:  winner,
		Outcome: outcome,
	}})
	return nil
}

// checkWindow enforces the inclusive [MinStaleness, maxStaleness] window after
// the reference timestamp. Assumes g.mu is held.
func (g *CoinFlipGame) checkWindow(since time.Time) error {
	elapsed := g.now().Sub(since)
	if elapsed < MinStaleness {
		return domain.ErrTooFresh
	}
	if elapsed > g.maxStaleness {
		return domain.ErrTooStale
	}
	return nil
}

// mixEntropy derives the outcome value with two hashing stages so no single
// weak input controls the result alone.
func mixEntropy(primary uint64, now time.Time, caller domain.Address, requestID uint64) [32]byte {
	inner := sha256.New()
	var ts [8]byte
	binary.BigEndian.PutUint64(ts[:], uint64(now.UnixNano()))
	inner.Write(ts[:])
	inner.Write(entropyBeacon[:])
	inner.Write(caller[:])
	var rid [8]byte
	binary.BigEndian.PutUint64(rid[:], requestID)
	inner.Write(rid[:])

	outer := sha256.New()
	var word [8]byte
	binary.BigEndian.PutUint64(word[:], primary)
	outer.Write(word[:])
	outer.Write(inner.Sum(nil))

	var out [32]byte
	copy(out[:], outer.Sum(nil))
	return out
}

// Status returns the lifecycle phase.
func (g *CoinFlipGame) Status() domain.GameStatus {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.statusLocked()
}

func (g *CoinFlipGame) statusLocked() domain.GameStatus {
	switch {
	case !g.initialized:
		return domain.StatusUninitialized
	case g.completed:
		return domain.StatusResolved
	case g.player2 != nil:
		return domain.StatusAwaitingRandomness
	default:
		return domain.StatusAwaitingPlayer2
	}
}

// Record returns a snapshot of the full game state.
func (g *CoinFlipGame) Record() (domain.GameRecord, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.initialized {
		return domain.GameRecord{}, domain.ErrNotInitialized
	}

	rec := domain.GameRecord{
		Address:      g.addr,
		Status:       g.statusLocked(),
		Player1:      g.player1,
		Manager:      g.manager.Address(),
		RequestID:    g.requestID,
		Completed:    g.completed,
		CreatedAt:    g.createdAt,
		MaxStaleness: g.maxStaleness,
	}
	if g.player2 != nil {
		p2 := *g.player2
		rec.Player2 = &p2
	}
	if !g.joinedAt.IsZero() {
		t := g.joinedAt
		rec.JoinedAt = &t
	}
	if g.winner != nil {
		w := *g.winner
		rec.Winner = &w
		outcome := g.outcome
		rec.Outcome = &outcome
	}
	return rec, nil
}

// PlayerDetails returns the record of one participant.
func (g *CoinFlipGame) PlayerDetails(player domain.Address) (domain.PlayerDetails, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.initialized {
		return domain.PlayerDetails{}, domain.ErrNotInitialized
	}
	if player == g.player1.Player {
		return g.player1, nil
	}
	if g.player2 != nil && player == g.player2.Player {
		return *g.player2, nil
	}
	return domain.PlayerDetails{}, domain.ErrInvalidArgument
}
