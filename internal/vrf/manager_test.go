package vrf

import (
	"errors"
	"testing"

	"coinflip_arena/internal/access"
	"coinflip_arena/internal/domain"
	"coinflip_arena/internal/oracle"
)

var (
	mgrAddr = domain.AddressFromSeed("manager")
	admin   = domain.AddressFromSeed("admin")
	agent   = domain.AddressFromSeed("agent")
	rando   = domain.AddressFromSeed("rando")
	lane    = domain.SaltFromString("lane")
)

type fixture struct {
	m           *Manager
	acl         *access.Registry
	coordinator *oracle.SimCoordinator
	token       *oracle.SimToken
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	acl := access.NewRegistry()
	coordinator := oracle.NewSimCoordinator(domain.AddressFromSeed("coordinator"))
	token := oracle.NewSimToken(domain.AddressFromSeed("token"))

	m := New(mgrAddr, acl)
	if err := m.Initialize(coordinator, token, lane, admin); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	acl.Grant(agent, access.AgentScope(mgrAddr))
	return &fixture{m: m, acl: acl, coordinator: coordinator, token: token}
}

func TestInitialize(t *testing.T) {
	fx := newFixture(t)

	if fx.m.SubscriptionID() == 0 {
		t.Fatal("initialize must open a subscription")
	}
	sub, err := fx.coordinator.GetSubscription(fx.m.SubscriptionID())
	if err != nil {
		t.Fatalf("get subscription: %v", err)
	}
	found := false
	for _, c := range sub.Consumers {
		if c == mgrAddr {
			found = true
		}
	}
	if !found {
		t.Fatal("manager must register itself as a consumer")
	}
	if !fx.acl.HasPermission(admin, access.ManagerAdminScope(mgrAddr)) {
		t.Fatal("initialize must grant the admin scope")
	}

	if err := fx.m.Initialize(fx.coordinator, fx.token, lane, admin); !errors.Is(err, domain.ErrAlreadyInitialized) {
		t.Fatalf("second initialize: got %v", err)
	}

	bad := New(domain.AddressFromSeed("bad"), access.NewRegistry())
	if err := bad.Initialize(nil, fx.token, lane, admin); !errors.Is(err, domain.ErrInvalidConfig) {
		t.Fatalf("nil coordinator: got %v", err)
	}
	if err := bad.Initialize(fx.coordinator, fx.token, domain.Hash{}, admin); !errors.Is(err, domain.ErrInvalidConfig) {
		t.Fatalf("zero lane: got %v", err)
	}
}

func TestRequestRandomWords(t *testing.T) {
	fx := newFixture(t)

	if _, err := fx.m.RequestRandomWords(rando, 1); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("non-agent request: got %v", err)
	}
	if _, err := fx.m.RequestRandomWords(agent, 0); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("zero count: got %v", err)
	}

	id, err := fx.m.RequestRandomWords(agent, 2)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if id == 0 {
		t.Fatal("request id must be nonzero")
	}
	if fx.m.IsRequestFulfilled(id) {
		t.Fatal("fresh request must not report fulfilled")
	}
	if _, err := fx.m.GetRandomWords(agent, id); !errors.Is(err, domain.ErrRandomnessNotReady) {
		t.Fatalf("read before fulfill: got %v", err)
	}
}

func TestFulfillment(t *testing.T) {
	fx := newFixture(t)

	id, err := fx.m.RequestRandomWords(agent, 1)
	if err != nil {
		t.Fatalf("request: %v", err)
	}

	if err := fx.m.RawFulfillRandomWords(rando, id, []uint64{9}); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("fulfill from non-coordinator: got %v", err)
	}

	if err := fx.coordinator.Fulfill(id, []uint64{7}); err != nil {
		t.Fatalf("fulfill: %v", err)
	}
	if !fx.m.IsRequestFulfilled(id) {
		t.Fatal("request must report fulfilled")
	}

	words, err := fx.m.GetRandomWords(agent, id)
	if err != nil {
		t.Fatalf("read words: %v", err)
	}
	if len(words) != 1 || words[0] != 7 {
		t.Fatalf("words = %v, want [7]", words)
	}
	if _, err := fx.m.GetRandomWords(rando, id); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("non-agent read: got %v", err)
	}

	// At-most-once: a replay is rejected and the stored words stay intact.
	if err := fx.m.RawFulfillRandomWords(fx.coordinator.Address(), id, []uint64{99}); !errors.Is(err, domain.ErrAlreadyFulfilled) {
		t.Fatalf("replay fulfill: got %v", err)
	}
	words, err = fx.m.GetRandomWords(agent, id)
	if err != nil || words[0] != 7 {
		t.Fatalf("words after replay = %v, %v; want [7]", words, err)
	}

	if err := fx.m.RawFulfillRandomWords(fx.coordinator.Address(), 999, []uint64{1}); !errors.Is(err, domain.ErrUnknownRequest) {
		t.Fatalf("unknown request: got %v", err)
	}
	if _, err := fx.m.GetRandomWords(agent, 999); !errors.Is(err, domain.ErrUnknownRequest) {
		t.Fatalf("read unknown request: got %v", err)
	}
	if fx.m.IsRequestFulfilled(999) {
		t.Fatal("unknown request must report unfulfilled")
	}
}

func TestAdminGates(t *testing.T) {
	fx := newFixture(t)

	checks := []struct {
		name string
		op   func(caller domain.Address) error
	}{
		{"SetKeyLane", func(c domain.Address) error { return fx.m.SetKeyLane(c, domain.SaltFromString("x")) }},
		{"SetCallbackGasLimit", func(c domain.Address) error { return fx.m.SetCallbackGasLimit(c, 100_000) }},
		{"SetRequestConfirmations", func(c domain.Address) error { return fx.m.SetRequestConfirmations(c, 5) }},
		{"SetNativePayment", func(c domain.Address) error { return fx.m.SetNativePayment(c, true) }},
		{"SetFundingToken", func(c domain.Address) error { return fx.m.SetFundingToken(c, fx.token) }},
		{"FundSubscription", func(c domain.Address) error { return fx.m.FundSubscription(c, 10) }},
		{"FundSubscriptionNative", func(c domain.Address) error { return fx.m.FundSubscriptionNative(c, 10) }},
		{"AddConsumer", func(c domain.Address) error { return fx.m.AddConsumer(c, fx.m) }},
		{"RemoveConsumer", func(c domain.Address) error { return fx.m.RemoveConsumer(c, mgrAddr) }},
		{"CancelSubscription", func(c domain.Address) error { return fx.m.CancelSubscription(c) }},
		{"Withdraw", func(c domain.Address) error { return fx.m.Withdraw(c, rando, 1) }},
	}

	for _, check := range checks {
		if err := check.op(rando); !errors.Is(err, domain.ErrUnauthorized) {
			t.Errorf("%s by non-admin: got %v, want ErrUnauthorized", check.name, err)
		}
	}
	// The agent scope does not imply admin.
	if err := fx.m.SetKeyLane(agent, domain.SaltFromString("x")); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("SetKeyLane by agent: got %v", err)
	}
}

func TestSetterValidation(t *testing.T) {
	fx := newFixture(t)

	if err := fx.m.SetKeyLane(admin, domain.Hash{}); !errors.Is(err, domain.ErrInvalidConfig) {
		t.Fatalf("zero lane: got %v", err)
	}
	if err := fx.m.SetCallbackGasLimit(admin, 0); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("zero gas limit: got %v", err)
	}
	if err := fx.m.SetRequestConfirmations(admin, 0); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("zero confirmations: got %v", err)
	}
	if err := fx.m.SetFundingToken(admin, nil); !errors.Is(err, domain.ErrInvalidConfig) {
		t.Fatalf("nil token: got %v", err)
	}

	if err := fx.m.SetKeyLane(admin, domain.SaltFromString("lane-2")); err != nil {
		t.Fatalf("set lane: %v", err)
	}
	if err := fx.m.SetCallbackGasLimit(admin, 500_000); err != nil {
		t.Fatalf("set gas limit: %v", err)
	}
	if err := fx.m.SetRequestConfirmations(admin, 5); err != nil {
		t.Fatalf("set confirmations: %v", err)
	}
	if err := fx.m.SetNativePayment(admin, true); err != nil {
		t.Fatalf("set native payment: %v", err)
	}
}

func TestFundSubscription(t *testing.T) {
	fx := newFixture(t)

	if err := fx.m.FundSubscription(admin, 0); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("zero amount: got %v", err)
	}
	if err := fx.m.FundSubscription(admin, 100); !errors.Is(err, domain.ErrTransferFailed) {
		t.Fatalf("fund without balance: got %v", err)
	}

	fx.token.Mint(admin, 1000)
	if err := fx.m.FundSubscription(admin, 100); err != nil {
		t.Fatalf("fund: %v", err)
	}
	sub, err := fx.coordinator.GetSubscription(fx.m.SubscriptionID())
	if err != nil {
		t.Fatalf("get subscription: %v", err)
	}
	if sub.Balance != 100 {
		t.Fatalf("balance = %d, want 100", sub.Balance)
	}
	if got := fx.token.BalanceOf(fx.coordinator.Address()); got != 100 {
		t.Fatalf("coordinator token balance = %d, want 100", got)
	}

	if err := fx.m.FundSubscriptionNative(admin, 50); err != nil {
		t.Fatalf("fund native: %v", err)
	}
	sub, _ = fx.coordinator.GetSubscription(fx.m.SubscriptionID())
	if sub.NativeBalance != 50 {
		t.Fatalf("native balance = %d, want 50", sub.NativeBalance)
	}
}

func TestSubscriptionLifecycle(t *testing.T) {
	fx := newFixture(t)

	if _, err := fx.m.CreateSubscription(admin); !errors.Is(err, domain.ErrSubscriptionAlreadyExists) {
		t.Fatalf("create while active: got %v", err)
	}

	if err := fx.m.CancelSubscription(admin); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if fx.m.SubscriptionID() != 0 {
		t.Fatal("cancel must zero the subscription")
	}
	if err := fx.m.CancelSubscription(admin); !errors.Is(err, domain.ErrSubscriptionNotSet) {
		t.Fatalf("second cancel: got %v", err)
	}
	if _, err := fx.m.RequestRandomWords(agent, 1); !errors.Is(err, domain.ErrSubscriptionNotSet) {
		t.Fatalf("request without subscription: got %v", err)
	}
	if err := fx.m.FundSubscription(admin, 1); !errors.Is(err, domain.ErrSubscriptionNotSet) {
		t.Fatalf("fund without subscription: got %v", err)
	}

	subID, err := fx.m.CreateSubscription(admin)
	if err != nil {
		t.Fatalf("recreate: %v", err)
	}
	if subID == 0 || fx.m.SubscriptionID() != subID {
		t.Fatal("recreate must install the new subscription")
	}
	if _, err := fx.m.RequestRandomWords(agent, 1); err != nil {
		t.Fatalf("request after recreate: %v", err)
	}
}

func TestWithdraw(t *testing.T) {
	fx := newFixture(t)

	if err := fx.m.Withdraw(admin, rando, 0); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("zero amount: got %v", err)
	}
	if err := fx.m.Withdraw(admin, domain.ZeroAddress, 10); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("zero recipient: got %v", err)
	}
	if err := fx.m.Withdraw(admin, rando, 10); !errors.Is(err, domain.ErrTransferFailed) {
		t.Fatalf("withdraw without balance: got %v", err)
	}

	fx.token.Mint(mgrAddr, 25)
	if err := fx.m.Withdraw(admin, rando, 10); err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	if got := fx.token.BalanceOf(rando); got != 10 {
		t.Fatalf("recipient balance = %d, want 10", got)
	}
	if got := fx.token.BalanceOf(mgrAddr); got != 15 {
		t.Fatalf("manager balance = %d, want 15", got)
	}
}
