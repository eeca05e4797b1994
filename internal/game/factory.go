package game

import (
	"crypto/sha256"
	"encoding/binary"
	"sync"
	"time"

	"coinflip_arena/internal/access"
	"coinflip_arena/internal/domain"
	"coinflip_arena/internal/oracle"
	"coinflip_arena/internal/vrf"
)

// factoryStateVersion tags the layout of factoryState so the state value can
// be swapped independently of the logic operating on it.
const factoryStateVersion = 1

// factoryState is the versioned state region of the factory. The factory
// logic never touches it except through Factory methods, so the value can be
// replaced wholesale across upgrades without layout collisions.
type factoryState struct {
	version int

	coordinator oracle.Coordinator
	token       oracle.FundingToken
	keyLane     domain.Hash
	admin       domain.Address

	defaultMaxStaleness time.Duration
	gameTemplate        domain.Address
	managerTemplate     domain.Address

	games          []domain.Address // creation order, append-only
	gameSet        map[domain.Address]*CoinFlipGame
	managersBySalt map[domain.Salt]domain.Address
	managers       map[domain.Address]*vrf.Manager
}

// Factory deploys CoinFlip games at deterministic addresses and binds each to
// a salt-shared randomness manager.
type Factory struct {
	addr domain.Address
	acl  *access.Registry
	emit func(domain.Event)

	mu          sync.Mutex
	initialized bool
	st          *factoryState

	now func() time.Time
}

// NewFactory allocates a blank factory at addr. emit may be nil.
func NewFactory(addr domain.Address, acl *access.Registry, emit func(domain.Event)) *Factory {
	if emit == nil {
		emit = func(domain.Event) {}
	}
	return &Factory{
		addr: addr,
		acl:  acl,
		emit: emit,
		now:  time.Now,
	}
}

// Address returns the factory's own address.
func (f *Factory) Address() domain.Address { return f.addr }

// StateVersion returns the layout version of the factory state region.
func (f *Factory) StateVersion() int { return factoryStateVersion }

// Initialize validates the global configuration and grants the admin the
// full-admin, factory-admin and config-updater scopes. Single-shot.
func (f *Factory) Initialize(coordinator oracle.Coordinator, token oracle.FundingToken, keyLane domain.Hash,
	gameTemplate, managerTemplate domain.Address, defaultMaxStaleness time.Duration, admin domain.Address) error {

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.initialized {
		return domain.ErrAlreadyInitialized
	}
	if coordinator == nil || coordinator.Address().IsZero() {
		return domain.ErrInvalidCoordinator
	}
	if token == nil || token.Address().IsZero() {
		return domain.ErrInvalidToken
	}
	if keyLane.IsZero() {
		return domain.ErrInvalidKeyHash
	}
	if admin.IsZero() {
		return domain.ErrInvalidAdmin
	}
	if gameTemplate.IsZero() || managerTemplate.IsZero() {
		return domain.ErrInvalidConfig
	}
	if defaultMaxStaleness < MinStaleness || defaultMaxStaleness > MaxStaleness {
		return domain.ErrInvalidStaleness
	}

	f.st = &factoryState{
		version:             factoryStateVersion,
		coordinator:         coordinator,
		token:               token,
		keyLane:             keyLane,
		admin:               admin,
		defaultMaxStaleness: defaultMaxStaleness,
		gameTemplate:        gameTemplate,
		managerTemplate:     managerTemplate,
		gameSet:             make(map[domain.Address]*CoinFlipGame),
		managersBySalt:      make(map[domain.Salt]domain.Address),
		managers:            make(map[domain.Address]*vrf.Manager),
	}
	f.initialized = true

	f.acl.Grant(admin, access.ScopeAdmin)
	f.acl.Grant(admin, access.ScopeFactoryAdmin)
	f.acl.Grant(admin, access.ScopeConfigUpdater)
	return nil
}

// CreateGame deploys a new game for the caller. A zero maxStaleness selects
// the factory default. The manager for salt is reused when one exists,
// otherwise deployed at its derived address; either way the new game receives
// an exclusive agent grant on it. Returns (game address, manager address).
func (f *Factory) CreateGame(caller domain.Address, side domain.CoinSide, maxStaleness time.Duration, salt domain.Salt) (domain.Address, domain.Address, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.initialized {
		return domain.ZeroAddress, domain.ZeroAddress, domain.ErrNotInitialized
	}
	if caller.IsZero() {
		return domain.ZeroAddress, domain.ZeroAddress, domain.ErrInvalidArgument
	}
	if !side.Valid() {
		return domain.ZeroAddress, domain.ZeroAddress, domain.ErrInvalidArgument
	}
	effective, err := f.effectiveStaleness(maxStaleness)
	if err != nil {
		return domain.ZeroAddress, domain.ZeroAddress, err
	}

	managerAddr, manager, deployedManager, err := f.managerForSalt(salt)
	if err != nil {
		return domain.ZeroAddress, domain.ZeroAddress, err
	}

	gameAddr := deriveGameAddress(f.addr, f.st.gameTemplate, salt, encodeGameInit(side, effective, managerAddr, caller))
	if _, exists := f.st.gameSet[gameAddr]; exists {
		return domain.ZeroAddress, domain.ZeroAddress, domain.ErrAlreadyInitialized
	}

	g := NewCoinFlipGame(gameAddr)
	g.now = f.now
	g.emit = f.emit
	if err := g.Initialize(side, manager, effective, caller); err != nil {
		return domain.ZeroAddress, domain.ZeroAddress, err
	}

	f.acl.Grant(gameAddr, access.AgentScope(managerAddr))

	if deployedManager {
		f.st.managersBySalt[salt] = managerAddr
		f.st.managers[managerAddr] = manager
	}
	f.st.games = append(f.st.games, gameAddr)
	f.st.gameSet[gameAddr] = g

	f.emit(domain.Event{Type: domain.EventGameDeployed, Payload: domain.GameDeployedEvent{
		Game:                gameAddr,
		Player1:             caller,
		Side:                side,
		Manager:             managerAddr,
		MaxStalenessSeconds: int64(effective / time.Second),
		Salt:                salt,
	}})
	return gameAddr, managerAddr, nil
}

// PredictGameAddressForSender computes the address CreateGame would produce
// for sender with identical arguments. Byte-identical to the actual
// deployment address.
func (f *Factory) PredictGameAddressForSender(side domain.CoinSide, maxStaleness time.Duration, salt domain.Salt, sender domain.Address) (domain.Address, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.initialized {
		return domain.ZeroAddress, domain.ErrNotInitialized
	}
	if sender.IsZero() || !side.Valid() {
		return domain.ZeroAddress, domain.ErrInvalidArgument
	}
	effective, err := f.effectiveStaleness(maxStaleness)
	if err != nil {
		return domain.ZeroAddress, err
	}

	managerAddr, ok := f.st.managersBySalt[salt]
	if !ok {
		managerAddr = deriveManagerAddress(f.addr, f.st.managerTemplate, salt)
	}
	return deriveGameAddress(f.addr, f.st.gameTemplate, salt, encodeGameInit(side, effective, managerAddr, sender)), nil
}

// effectiveStaleness resolves the per-game window against the template bounds.
// Assumes f.mu is held.
func (f *Factory) effectiveStaleness(requested time.Duration) (time.Duration, error) {
	if requested == 0 {
		requested = f.st.defaultMaxStaleness
	}
	if requested < MinStaleness {
		return 0, domain.ErrStalenessTooLow
	}
	if requested > MaxStaleness {
		return 0, domain.ErrStalenessTooHigh
	}
	return requested, nil
}

// managerForSalt returns the manager bound to salt, deploying one at its
// derived address on first use. Assumes f.mu is held.
func (f *Factory) managerForSalt(salt domain.Salt) (domain.Address, *vrf.Manager, bool, error) {
	if addr, ok := f.st.managersBySalt[salt]; ok {
		return addr, f.st.managers[addr], false, nil
	}
	addr := deriveManagerAddress(f.addr, f.st.managerTemplate, salt)
	m := vrf.New(addr, f.acl)
	if err := m.Initialize(f.st.coordinator, f.st.token, f.st.keyLane, f.st.admin); err != nil {
		return domain.ZeroAddress, nil, false, err
	}
	return addr, m, true, nil
}

// UpdateVRFConfiguration replaces the oracle configuration used by future
// manager deployments. Config-updater scope.
func (f *Factory) UpdateVRFConfiguration(caller domain.Address, coordinator oracle.Coordinator, token oracle.FundingToken, keyLane domain.Hash) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.initialized {
		return domain.ErrNotInitialized
	}
	if !f.acl.HasPermission(caller, access.ScopeConfigUpdater) {
		return domain.ErrUnauthorized
	}
	if coordinator == nil || coordinator.Address().IsZero() {
		return domain.ErrInvalidCoordinator
	}
	if token == nil || token.Address().IsZero() {
		return domain.ErrInvalidToken
	}
	if keyLane.IsZero() {
		return domain.ErrInvalidKeyHash
	}

	f.st.coordinator = coordinator
	f.st.token = token
	f.st.keyLane = keyLane

	f.emit(domain.Event{Type: domain.EventVRFConfigurationUpdated, Payload: domain.VRFConfigurationUpdatedEvent{
		Coordinator: coordinator.Address(),
		Token:       token.Address(),
		KeyLane:     keyLane,
	}})
	return nil
}

// UpdateDefaultMaxStaleness retunes the default window, revalidated against
// the template bounds. Config-updater scope.
func (f *Factory) UpdateDefaultMaxStaleness(caller domain.Address, d time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.initialized {
		return domain.ErrNotInitialized
	}
	if !f.acl.HasPermission(caller, access.ScopeConfigUpdater) {
		return domain.ErrUnauthorized
	}
	if d < MinStaleness || d > MaxStaleness {
		return domain.ErrInvalidStaleness
	}

	old := f.st.defaultMaxStaleness
	f.st.defaultMaxStaleness = d

	f.emit(domain.Event{Type: domain.EventDefaultMaxStalenessUpdated, Payload: domain.DefaultMaxStalenessUpdatedEvent{
		OldSeconds: int64(old / time.Second),
		NewSeconds: int64(d / time.Second),
	}})
	return nil
}

// UpdateGameImplementation swaps the game template handle used for future
// deployments. Factory-admin scope.
func (f *Factory) UpdateGameImplementation(caller, template domain.Address) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.initialized {
		return domain.ErrNotInitialized
	}
	if !f.acl.HasPermission(caller, access.ScopeFactoryAdmin) {
		return domain.ErrUnauthorized
	}
	if template.IsZero() {
		return domain.ErrInvalidConfig
	}

	old := f.st.gameTemplate
	f.st.gameTemplate = template
	f.emit(domain.Event{Type: domain.EventImplementationUpdated, Payload: domain.ImplementationUpdatedEvent{
		Kind: "game", Old: old, New: template,
	}})
	return nil
}

// UpdateManagerImplementation swaps the manager template handle used for
// future deployments. Factory-admin scope.
func (f *Factory) UpdateManagerImplementation(caller, template domain.Address) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.initialized {
		return domain.ErrNotInitialized
	}
	if !f.acl.HasPermission(caller, access.ScopeFactoryAdmin) {
		return domain.ErrUnauthorized
	}
	if template.IsZero() {
		return domain.ErrInvalidConfig
	}

	old := f.st.managerTemplate
	f.st.managerTemplate = template
	f.emit(domain.Event{Type: domain.EventImplementationUpdated, Payload: domain.ImplementationUpdatedEvent{
		Kind: "manager", Old: old, New: template,
	}})
	return nil
}

// AuthorizeUpgrade gates in-place upgrades of the factory logic.
// Factory-admin scope.
func (f *Factory) AuthorizeUpgrade(caller domain.Address) error {
	if !f.acl.HasPermission(caller, access.ScopeFactoryAdmin) {
		return domain.ErrUnauthorized
	}
	return nil
}

// Configuration returns the oracle configuration tuple.
func (f *Factory) Configuration() (coordinator, token domain.Address, keyLane domain.Hash) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.initialized {
		return domain.ZeroAddress, domain.ZeroAddress, domain.ZeroHash
	}
	return f.st.coordinator.Address(), f.st.token.Address(), f.st.keyLane
}

// DefaultMaxStaleness returns the current default window.
func (f *Factory) DefaultMaxStaleness() time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.initialized {
		return 0
	}
	return f.st.defaultMaxStaleness
}

// Templates returns the current implementation handles.
func (f *Factory) Templates() (gameTemplate, managerTemplate domain.Address) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.initialized {
		return domain.ZeroAddress, domain.ZeroAddress
	}
	return f.st.gameTemplate, f.st.managerTemplate
}

// IsDeployedGame reports membership in the deployed set.
func (f *Factory) IsDeployedGame(addr domain.Address) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.initialized {
		return false
	}
	_, ok := f.st.gameSet[addr]
	return ok
}

// DeployedGameCount returns how many games were deployed.
func (f *Factory) DeployedGameCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.initialized {
		return 0
	}
	return len(f.st.games)
}

// DeployedGameAt returns the creation-order address at index.
func (f *Factory) DeployedGameAt(index int) (domain.Address, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.initialized {
		return domain.ZeroAddress, domain.ErrNotInitialized
	}
	if index < 0 || index >= len(f.st.games) {
		return domain.ZeroAddress, domain.ErrIndexOutOfBounds
	}
	return f.st.games[index], nil
}

// ManagerForSalt returns the manager bound to salt, zero when none exists.
func (f *Factory) ManagerForSalt(salt domain.Salt) domain.Address {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.initialized {
		return domain.ZeroAddress
	}
	return f.st.managersBySalt[salt]
}

// Game returns a deployed game instance.
func (f *Factory) Game(addr domain.Address) (*CoinFlipGame, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.initialized {
		return nil, false
	}
	g, ok := f.st.gameSet[addr]
	return g, ok
}

// Manager returns a deployed manager instance.
func (f *Factory) Manager(addr domain.Address) (*vrf.Manager, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.initialized {
		return nil, false
	}
	m, ok := f.st.managers[addr]
	return m, ok
}

// deriveManagerAddress computes the deterministic manager address for a salt.
func deriveManagerAddress(factory, template domain.Address, salt domain.Salt) domain.Address {
	h := sha256.New()
	h.Write(factory[:])
	h.Write([]byte("RandomnessManager"))
	h.Write(template[:])
	h.Write(salt[:])
	var sum [32]byte
	copy(sum[:], h.Sum(nil))
	return domain.AddressFromHash(sum)
}

// deriveGameAddress computes the deterministic game address from the salt and
// the encoded initialization arguments (which include the sender).
func deriveGameAddress(factory, template domain.Address, salt domain.Salt, initData []byte) domain.Address {
	h := sha256.New()
	h.Write(factory[:])
	h.Write([]byte("CoinFlipGame"))
	h.Write(template[:])
	h.Write(salt[:])
	h.Write(initData)
	var sum [32]byte
	copy(sum[:], h.Sum(nil))
	return domain.AddressFromHash(sum)
}

// encodeGameInit produces the canonical byte encoding of the initialization
// arguments hashed into the game address.
func encodeGameInit(side domain.CoinSide, maxStaleness time.Duration, manager, player1 domain.Address) []byte {
	buf := make([]byte, 0, 1+8+20+20)
	if side == domain.SideHeads {
		buf = append(buf, 0)
	} else {
		buf = append(buf, 1)
	}
	var d [8]byte
	binary.BigEndian.PutUint64(d[:], uint64(maxStaleness))
	buf = append(buf, d[:]...)
	buf = append(buf, manager[:]...)
	buf = append(buf, player1[:]...)
	return buf
}
