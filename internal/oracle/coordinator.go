package oracle

import (
	"errors"
	"sync"

	"coinflip_arena/internal/domain"
)

// RandomRequest carries the parameters of one randomness submission.
type RandomRequest struct {
	KeyLane          domain.Hash
	SubscriptionID   uint64
	Confirmations    uint16
	CallbackGasLimit uint32
	NumWords         uint32
	NativePayment    bool
}

// Subscription is the coordinator-side view of a funded subscription.
type Subscription struct {
	ID            uint64
	Owner         domain.Address
	Balance       uint64
	NativeBalance uint64
	Consumers     []domain.Address
}

// Consumer receives fulfillments from the coordinator.
type Consumer interface {
	Address() domain.Address
	RawFulfillRandomWords(caller domain.Address, requestID uint64, words []uint64) error
}

// Coordinator is the contract with the external randomness oracle network:
// subscription management plus submit-request/observe-fulfillment.
type Coordinator interface {
	Address() domain.Address
	CreateSubscription(owner domain.Address) (uint64, error)
	AddConsumer(subID uint64, consumer Consumer) error
	RemoveConsumer(subID uint64, consumer domain.Address) error
	FundSubscription(subID uint64, amount uint64) error
	FundSubscriptionNative(subID uint64, amount uint64) error
	CancelSubscription(subID uint64) error
	RequestRandomWords(consumer domain.Address, req RandomRequest) (uint64, error)
	GetSubscription(subID uint64) (Subscription, error)
}

var errUnknownSubscription = errors.New("unknown subscription")

type pendingRequest struct {
	consumer Consumer
	numWords uint32
}

// SimCoordinator is an in-process coordinator. Request ids are monotonic,
// fulfillments are pushed by Fulfill (driven by the oracle webhook in the
// service, or directly in tests).
type SimCoordinator struct {
	addr domain.Address

	mu        sync.Mutex
	subSeq    uint64
	reqSeq    uint64
	subs      map[uint64]*Subscription
	consumers map[uint64]map[domain.Address]Consumer
	pending   map[uint64]pendingRequest
}

// NewSimCoordinator creates an empty coordinator identified by addr.
func NewSimCoordinator(addr domain.Address) *SimCoordinator {
	return &SimCoordinator{
		addr:      addr,
		subs:      make(map[uint64]*Subscription),
		consumers: make(map[uint64]map[domain.Address]Consumer),
		pending:   make(map[uint64]pendingRequest),
	}
}

func (c *SimCoordinator) Address() domain.Address { return c.addr }

func (c *SimCoordinator) CreateSubscription(owner domain.Address) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subSeq++
	id := c.subSeq
	c.subs[id] = &Subscription{ID: id, Owner: owner}
	c.consumers[id] = make(map[domain.Address]Consumer)
	return id, nil
}

func (c *SimCoordinator) AddConsumer(subID uint64, consumer Consumer) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	sub, ok := c.subs[subID]
	if !ok {
		return errUnknownSubscription
	}
	addr := consumer.Address()
	if _, exists := c.consumers[subID][addr]; exists {
		return nil
	}
	c.consumers[subID][addr] = consumer
	sub.Consumers = append(sub.Consumers, addr)
	return nil
}

func (c *SimCoordinator) RemoveConsumer(subID uint64, consumer domain.Address) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	sub, ok := c.subs[subID]
	if !ok {
		return errUnknownSubscription
	}
	delete(c.consumers[subID], consumer)
	for i, a := range sub.Consumers {
		if a == consumer {
			sub.Consumers = append(sub.Consumers[:i], sub.Consumers[i+1:]...)
			break
		}
	}
	return nil
}

func (c *SimCoordinator) FundSubscription(subID uint64, amount uint64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	sub, ok := c.subs[subID]
	if !ok {
		return errUnknownSubscription
	}
	sub.Balance += amount
	return nil
}

func (c *SimCoordinator) FundSubscriptionNative(subID uint64, amount uint64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	sub, ok := c.subs[subID]
	if !ok {
		return errUnknownSubscription
	}
	sub.NativeBalance += amount
	return nil
}

func (c *SimCoordinator) CancelSubscription(subID uint64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.subs[subID]; !ok {
		return errUnknownSubscription
	}
	delete(c.subs, subID)
	delete(c.consumers, subID)
	return nil
}

// RequestRandomWords records a pending request for a registered consumer and
// returns its id. Delivery happens later via Fulfill.
func (c *SimCoordinator) RequestRandomWords(consumer domain.Address, req RandomRequest) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	registered, ok := c.consumers[req.SubscriptionID]
	if !ok {
		return 0, errUnknownSubscription
	}
	target, ok := registered[consumer]
	if !ok {
		return 0, errors.New("consumer not registered for subscription")
	}
	if req.NumWords == 0 {
		return 0, domain.ErrInvalidArgument
	}
	c.reqSeq++
	id := c.reqSeq
	c.pending[id] = pendingRequest{consumer: target, numWords: req.NumWords}
	return id, nil
}

func (c *SimCoordinator) GetSubscription(subID uint64) (Subscription, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	sub, ok := c.subs[subID]
	if !ok {
		return Subscription{}, errUnknownSubscription
	}
	out := *sub
	out.Consumers = append([]domain.Address(nil), sub.Consumers...)
	return out, nil
}

// Fulfill delivers words for a pending request to its consumer. The consumer
// sees the coordinator address as the caller, which is its trust anchor.
func (c *SimCoordinator) Fulfill(requestID uint64, words []uint64) error {
	c.mu.Lock()
	p, ok := c.pending[requestID]
	if !ok {
		c.mu.Unlock()
		return domain.ErrUnknownRequest
	}
	if uint32(len(words)) != p.numWords {
		c.mu.Unlock()
		return domain.ErrInvalidArgument
	}
	delete(c.pending, requestID)
	c.mu.Unlock()

	return p.consumer.RawFulfillRandomWords(c.addr, requestID, words)
}

// PendingCount reports undelivered requests. Used by readiness reporting.
func (c *SimCoordinator) PendingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}
