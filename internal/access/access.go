package access

import (
	"sync"

	"coinflip_arena/internal/domain"
)

// Permission scopes. Instance-bound scopes (agent, manager admin) embed the
// target address so one registry can serve every deployed instance.
const (
	ScopeAdmin         = "admin"
	ScopeFactoryAdmin  = "factory_admin"
	ScopeConfigUpdater = "config_updater"
)

// AgentScope authorizes requesting/reading randomness on one manager.
func AgentScope(manager domain.Address) string {
	return "agent:" + manager.Hex()
}

// ManagerAdminScope authorizes administrative operations on one manager.
func ManagerAdminScope(manager domain.Address) string {
	return "manager_admin:" + manager.Hex()
}

// Checker is the capability-check contract consumed by gated operations.
// Grant/revoke bookkeeping stays behind the concrete registry.
type Checker interface {
	HasPermission(identity domain.Address, scope string) bool
}

// Registry is an in-process role registry shared by the factory, games and
// randomness managers.
type Registry struct {
	mu    sync.RWMutex
	roles map[string]map[domain.Address]struct{}
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{roles: make(map[string]map[domain.Address]struct{})}
}

// HasPermission reports whether identity holds scope.
func (r *Registry) HasPermission(identity domain.Address, scope string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	members, ok := r.roles[scope]
	if !ok {
		return false
	}
	_, ok = members[identity]
	return ok
}

// Grant adds identity to scope. Granting twice is a no-op.
func (r *Registry) Grant(identity domain.Address, scope string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	members, ok := r.roles[scope]
	if !ok {
		members = make(map[domain.Address]struct{})
		r.roles[scope] = members
	}
	members[identity] = struct{}{}
}

// Revoke removes identity from scope. Revoking an absent grant is a no-op.
func (r *Registry) Revoke(identity domain.Address, scope string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if members, ok := r.roles[scope]; ok {
		delete(members, identity)
	}
}
