package access

import (
	"testing"

	"coinflip_arena/internal/domain"
)

func TestGrantRevoke(t *testing.T) {
	r := NewRegistry()
	a := domain.AddressFromSeed("a")
	b := domain.AddressFromSeed("b")

	if r.HasPermission(a, ScopeAdmin) {
		t.Fatal("empty registry must deny")
	}

	r.Grant(a, ScopeAdmin)
	r.Grant(a, ScopeAdmin) // idempotent
	if !r.HasPermission(a, ScopeAdmin) {
		t.Fatal("granted scope must be held")
	}
	if r.HasPermission(b, ScopeAdmin) {
		t.Fatal("grant must not leak to other identities")
	}
	if r.HasPermission(a, ScopeFactoryAdmin) {
		t.Fatal("grant must not leak to other scopes")
	}

	r.Revoke(a, ScopeAdmin)
	if r.HasPermission(a, ScopeAdmin) {
		t.Fatal("revoked scope must be denied")
	}
	r.Revoke(a, ScopeAdmin) // revoking an absent grant is a no-op
}

func TestInstanceBoundScopes(t *testing.T) {
	r := NewRegistry()
	game := domain.AddressFromSeed("game")
	m1 := domain.AddressFromSeed("manager-1")
	m2 := domain.AddressFromSeed("manager-2")

	if AgentScope(m1) == AgentScope(m2) {
		t.Fatal("agent scopes must be distinct per manager")
	}
	if AgentScope(m1) == ManagerAdminScope(m1) {
		t.Fatal("agent and admin scopes must be distinct")
	}

	r.Grant(game, AgentScope(m1))
	if !r.HasPermission(game, AgentScope(m1)) {
		t.Fatal("agent grant must be held")
	}
	if r.HasPermission(game, AgentScope(m2)) {
		t.Fatal("agent grant must not cover another manager")
	}
	if r.HasPermission(game, ManagerAdminScope(m1)) {
		t.Fatal("agent grant must not imply admin")
	}
}
