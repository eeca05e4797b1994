package vrf

import (
	"fmt"
	"sync"

	"coinflip_arena/internal/access"
	"coinflip_arena/internal/domain"
	"coinflip_arena/internal/oracle"
)

const (
	// TypeAndVersionValue is the capability string probed by consumers
	// before they bind to a manager.
	TypeAndVersionValue = "RandomnessManager 1.0.0"

	defaultCallbackGasLimit = 250_000
	defaultConfirmations    = 3
)

// Manager owns one oracle subscription and serializes randomness requests for
// its authorized agents. Fulfillments are accepted only from the registered
// coordinator; fulfilled words are readable only by agents.
type Manager struct {
	addr domain.Address
	acl  *access.Registry

	mu               sync.Mutex
	initialized      bool
	coordinator      oracle.Coordinator
	token            oracle.FundingToken
	keyLane          domain.Hash
	callbackGasLimit uint32
	confirmations    uint16
	nativePayment    bool
	subscriptionID   uint64
	requests         map[uint64]*domain.RandomnessRequestRecord
}

// New allocates a blank manager at addr. It is unusable until Initialize.
func New(addr domain.Address, acl *access.Registry) *Manager {
	return &Manager{
		addr:             addr,
		acl:              acl,
		callbackGasLimit: defaultCallbackGasLimit,
		confirmations:    defaultConfirmations,
		requests:         make(map[uint64]*domain.RandomnessRequestRecord),
	}
}

// Address returns the manager's deployment address.
func (m *Manager) Address() domain.Address { return m.addr }

// TypeAndVersion advertises the manager capability to consumers.
func (m *Manager) TypeAndVersion() string { return TypeAndVersionValue }

// Initialize establishes a fresh subscription with the coordinator, registers
// the manager as its consumer and grants admin the manager-admin scope.
// Single-shot.
func (m *Manager) Initialize(coordinator oracle.Coordinator, token oracle.FundingToken, keyLane domain.Hash, admin domain.Address) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.initialized {
		return domain.ErrAlreadyInitialized
	}
	if coordinator == nil || token == nil || keyLane.IsZero() || admin.IsZero() {
		return domain.ErrInvalidConfig
	}

	subID, err := coordinator.CreateSubscription(m.addr)
	if err != nil {
		return fmt.Errorf("create subscription: %w", err)
	}
	if err := coordinator.AddConsumer(subID, m); err != nil {
		return fmt.Errorf("register consumer: %w", err)
	}

	m.coordinator = coordinator
	m.token = token
	m.keyLane = keyLane
	m.subscriptionID = subID
	m.initialized = true
	m.acl.Grant(admin, access.ManagerAdminScope(m.addr))
	return nil
}

// RequestRandomWords submits a request for count words. Agent-only.
func (m *Manager) RequestRandomWords(caller domain.Address, count uint32) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.acl.HasPermission(caller, access.AgentScope(m.addr)) {
		return 0, domain.ErrUnauthorized
	}
	if count == 0 {
		return 0, domain.ErrInvalidArgument
	}
	if !m.initialized || m.subscriptionID == 0 {
		return 0, domain.ErrSubscriptionNotSet
	}

	requestID, err := m.coordinator.RequestRandomWords(m.addr, oracle.RandomRequest{
		KeyLane:          m.keyLane,
		SubscriptionID:   m.subscriptionID,
		Confirmations:    m.confirmations,
		CallbackGasLimit: m.callbackGasLimit,
		NumWords:         count,
		NativePayment:    m.nativePayment,
	})
	if err != nil {
		return 0, fmt.Errorf("submit request: %w", err)
	}

	m.requests[requestID] = &domain.RandomnessRequestRecord{
		RequestID: requestID,
		Exists:    true,
	}
	return requestID, nil
}

// RawFulfillRandomWords accepts a fulfillment. Only the registered coordinator
// may deliver; a record fulfills at most once and its words never change after.
func (m *Manager) RawFulfillRandomWords(caller domain.Address, requestID uint64, words []uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.coordinator == nil || caller != m.coordinator.Address() {
		return domain.ErrUnauthorized
	}
	rec, ok := m.requests[requestID]
	if !ok {
		return domain.ErrUnknownRequest
	}
	if rec.Fulfilled {
		return domain.ErrAlreadyFulfilled
	}
	rec.Words = append([]uint64(nil), words...)
	rec.Fulfilled = true
	return nil
}

// GetRandomWords returns the fulfilled words of a request. Agent-only.
func (m *Manager) GetRandomWords(caller domain.Address, requestID uint64) ([]uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.acl.HasPermission(caller, access.AgentScope(m.addr)) {
		return nil, domain.ErrUnauthorized
	}
	rec, ok := m.requests[requestID]
	if !ok {
		return nil, domain.ErrUnknownRequest
	}
	if !rec.Fulfilled {
		return nil, domain.ErrRandomnessNotReady
	}
	return append([]uint64(nil), rec.Words...), nil
}

// IsRequestFulfilled is a public read; unknown requests report false.
func (m *Manager) IsRequestFulfilled(requestID uint64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.requests[requestID]
	return ok && rec.Fulfilled
}

// SubscriptionID returns the active subscription id, zero when cancelled.
func (m *Manager) SubscriptionID() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.subscriptionID
}

func (m *Manager) requireAdmin(caller domain.Address) error {
	if !m.acl.HasPermission(caller, access.ManagerAdminScope(m.addr)) {
		return domain.ErrUnauthorized
	}
	return nil
}

// FundSubscription moves amount of the funding token from the caller to the
// coordinator and credits the subscription.
func (m *Manager) FundSubscription(caller domain.Address, amount uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.requireAdmin(caller); err != nil {
		return err
	}
	if amount == 0 {
		return domain.ErrInvalidArgument
	}
	if m.subscriptionID == 0 {
		return domain.ErrSubscriptionNotSet
	}
	if err := m.token.Transfer(caller, m.coordinator.Address(), amount); err != nil {
		return domain.ErrTransferFailed
	}
	return m.coordinator.FundSubscription(m.subscriptionID, amount)
}

// FundSubscriptionNative credits the subscription with native currency.
func (m *Manager) FundSubscriptionNative(caller domain.Address, amount uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.requireAdmin(caller); err != nil {
		return err
	}
	if amount == 0 {
		return domain.ErrInvalidArgument
	}
	if m.subscriptionID == 0 {
		return domain.ErrSubscriptionNotSet
	}
	return m.coordinator.FundSubscriptionNative(m.subscriptionID, amount)
}

// AddConsumer registers an extra consumer on the subscription.
func (m *Manager) AddConsumer(caller domain.Address, consumer oracle.Consumer) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.requireAdmin(caller); err != nil {
		return err
	}
	if m.subscriptionID == 0 {
		return domain.ErrSubscriptionNotSet
	}
	return m.coordinator.AddConsumer(m.subscriptionID, consumer)
}

// RemoveConsumer drops a consumer from the subscription.
func (m *Manager) RemoveConsumer(caller domain.Address, consumer domain.Address) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.requireAdmin(caller); err != nil {
		return err
	}
	if m.subscriptionID == 0 {
		return domain.ErrSubscriptionNotSet
	}
	return m.coordinator.RemoveConsumer(m.subscriptionID, consumer)
}

// CreateSubscription opens a new subscription after a cancellation.
func (m *Manager) CreateSubscription(caller domain.Address) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.requireAdmin(caller); err != nil {
		return 0, err
	}
	if m.subscriptionID != 0 {
		return 0, domain.ErrSubscriptionAlreadyExists
	}
	subID, err := m.coordinator.CreateSubscription(m.addr)
	if err != nil {
		return 0, fmt.Errorf("create subscription: %w", err)
	}
	if err := m.coordinator.AddConsumer(subID, m); err != nil {
		return 0, fmt.Errorf("register consumer: %w", err)
	}
	m.subscriptionID = subID
	return subID, nil
}

// CancelSubscription closes the subscription and zeroes the reference.
func (m *Manager) CancelSubscription(caller domain.Address) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.requireAdmin(caller); err != nil {
		return err
	}
	if m.subscriptionID == 0 {
		return domain.ErrSubscriptionNotSet
	}
	if err := m.coordinator.CancelSubscription(m.subscriptionID); err != nil {
		return err
	}
	m.subscriptionID = 0
	return nil
}

// SetKeyLane updates the gas lane used for future requests.
func (m *Manager) SetKeyLane(caller domain.Address, keyLane domain.Hash) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.requireAdmin(caller); err != nil {
		return err
	}
	if keyLane.IsZero() {
		return domain.ErrInvalidConfig
	}
	m.keyLane = keyLane
	return nil
}

// SetCallbackGasLimit updates the fulfillment gas budget.
func (m *Manager) SetCallbackGasLimit(caller domain.Address, limit uint32) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.requireAdmin(caller); err != nil {
		return err
	}
	if limit == 0 {
		return domain.ErrInvalidArgument
	}
	m.callbackGasLimit = limit
	return nil
}

// SetRequestConfirmations updates the confirmation count for future requests.
func (m *Manager) SetRequestConfirmations(caller domain.Address, confirmations uint16) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.requireAdmin(caller); err != nil {
		return err
	}
	if confirmations == 0 {
		return domain.ErrInvalidArgument
	}
	m.confirmations = confirmations
	return nil
}

// SetNativePayment toggles the payment mode for future requests.
func (m *Manager) SetNativePayment(caller domain.Address, native bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.requireAdmin(caller); err != nil {
		return err
	}
	m.nativePayment = native
	return nil
}

// SetFundingToken swaps the token used for subscription funding.
func (m *Manager) SetFundingToken(caller domain.Address, token oracle.FundingToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.requireAdmin(caller); err != nil {
		return err
	}
	if token == nil {
		return domain.ErrInvalidConfig
	}
	m.token = token
	return nil
}

// Withdraw sends funding tokens held by the manager to the recipient.
func (m *Manager) Withdraw(caller, to domain.Address, amount uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.requireAdmin(caller); err != nil {
		return err
	}
	if amount == 0 || to.IsZero() {
		return domain.ErrInvalidArgument
	}
	if err := m.token.Transfer(m.addr, to, amount); err != nil {
		return domain.ErrTransferFailed
	}
	return nil
}
