package join

import (
	"fmt"
	"sync"
)

// Registry keeps a keyed collection of independently activated
// JoinDefinitions so a host process can run several side by side — one
// per tenant, one per subsystem — and look them up by name.
type Registry struct {
	mu          sync.RWMutex
	definitions map[string]*JoinDefinition
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{definitions: make(map[string]*JoinDefinition)}
}

// Register stores jd under name. Returns an error if name is already in
// use.
func (reg *Registry) Register(name string, jd *JoinDefinition) error {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	if _, exists := reg.definitions[name]; exists {
		return fmt.Errorf("join definition %q already registered", name)
	}
	reg.definitions[name] = jd
	return nil
}

// Get retrieves a join definition by name.
func (reg *Registry) Get(name string) (*JoinDefinition, bool) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	jd, ok := reg.definitions[name]
	return jd, ok
}

// Unregister removes a join definition from the registry. It does not
// shut down the definition's executor — the caller owns that lifecycle,
// since a single executor may be shared across several definitions.
func (reg *Registry) Unregister(name string) error {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	if _, exists := reg.definitions[name]; !exists {
		return fmt.Errorf("join definition %q not found", name)
	}
	delete(reg.definitions, name)
	return nil
}

// Names lists every registered join definition's name.
func (reg *Registry) Names() []string {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	out := make([]string, 0, len(reg.definitions))
	for name := range reg.definitions {
		out = append(out, name)
	}
	return out
}
