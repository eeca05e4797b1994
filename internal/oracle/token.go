package oracle

import (
	"sync"

	"coinflip_arena/internal/domain"
)

// FundingToken is the narrow contract the randomness manager needs from the
// token used to pay oracle fees.
type FundingToken interface {
	Address() domain.Address
	BalanceOf(owner domain.Address) uint64
	Transfer(from, to domain.Address, amount uint64) error
	Approve(owner, spender domain.Address, amount uint64) error
	TransferFrom(spender, from, to domain.Address, amount uint64) error
}

// SimToken is an in-memory ledger implementing FundingToken.
type SimToken struct {
	addr domain.Address

	mu         sync.Mutex
	balances   map[domain.Address]uint64
	allowances map[domain.Address]map[domain.Address]uint64 // owner -> spender -> amount
}

// NewSimToken creates an empty ledger identified by addr.
func NewSimToken(addr domain.Address) *SimToken {
	return &SimToken{
		addr:       addr,
		balances:   make(map[domain.Address]uint64),
		allowances: make(map[domain.Address]map[domain.Address]uint64),
	}
}

func (t *SimToken) Address() domain.Address { return t.addr }

// Mint credits owner with amount. Test/bootstrap helper.
func (t *SimToken) Mint(owner domain.Address, amount uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.balances[owner] += amount
}

func (t *SimToken) BalanceOf(owner domain.Address) uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.balances[owner]
}

func (t *SimToken) Transfer(from, to domain.Address, amount uint64) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.move(from, to, amount)
}

func (t *SimToken) Approve(owner, spender domain.Address, amount uint64) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	spenders, ok := t.allowances[owner]
	if !ok {
		spenders = make(map[domain.Address]uint64)
		t.allowances[owner] = spenders
	}
	spenders[spender] = amount
	return nil
}

func (t *SimToken) TransferFrom(spender, from, to domain.Address, amount uint64) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	allowed := t.allowances[from][spender]
	if allowed < amount {
		return domain.ErrTransferFailed
	}
	if err := t.move(from, to, amount); err != nil {
		return err
	}
	t.allowances[from][spender] = allowed - amount
	return nil
}

// move assumes t.mu is held.
func (t *SimToken) move(from, to domain.Address, amount uint64) error {
	if t.balances[from] < amount {
		return domain.ErrTransferFailed
	}
	t.balances[from] -= amount
	t.balances[to] += amount
	return nil
}
