package bot

import (
	"fmt"
	"sync"
)

// Registry holds registered modules in registration order.
type Registry struct {
	mu      sync.RWMutex
	modules []Module
	byName  map[string]Module
}

// NewRegistry creates a new module registry.
func NewRegistry() *Registry {
	return &Registry{
		byName: make(map[string]Module),
	}
}

// Register adds a module to the registry.
// It panics if a module with the same name is already registered.
func (r *Registry) Register(m Module) {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := m.Name()
	if _, dup := r.byName[name]; dup {
		panic(fmt.Sprintf("bot: module %q registered twice", name))
	}
	r.byName[name] = m
	r.modules = append(r.modules, m)
}

// Lookup returns the module registered under name.
func (r *Registry) Lookup(name string) (Module, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.byName[name]
	return m, ok
}

// Modules returns a snapshot of all registered modules.
func (r *Registry) Modules() []Module {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Module, len(r.modules))
	copy(result, r.modules)
	return result
}

// Modules self-register here from init().
var globalRegistry = NewRegistry()

// Register adds a module to the global registry.
func Register(m Module) {
	globalRegistry.Register(m)
}

// Modules returns all modules from the global registry.
func Modules() []Module {
	return globalRegistry.Modules()
}

// ResetGlobalRegistry resets the global registry. Tests only.
func ResetGlobalRegistry() {
	globalRegistry = NewRegistry()
}
