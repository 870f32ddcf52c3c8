package mcp

import (
	"context"
	"fmt"
	"sync"

	mcpgo "github.com/mark3labs/mcp-go/mcp"
)

// Handler executes a tool with already-decoded arguments and returns a
// JSON-serializable payload. Typed auth/API errors are converted by the
// dispatcher into application-level error payloads; any other error becomes a
// JSON-RPC internal error.
type Handler func(ctx context.Context, args map[string]any) (any, error)

// Tool pairs a descriptor with its handler.
type Tool struct {
	Def     mcpgo.Tool
	Handler Handler
}

// Registry holds the set of callable tools. It is dependency-injected into
// the dispatcher and the stdio server, so both transports advertise exactly
// the set of tools that is dispatchable. Registration order is preserved in
// listings.
type Registry struct {
	mu    sync.RWMutex
	order []string
	tools map[string]Tool
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]Tool),
	}
}

// Register adds a tool. Registering a duplicate name is a programming error
// and panics at startup rather than silently shadowing a tool.
func (r *Registry) Register(def mcpgo.Tool, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[def.Name]; exists {
		panic(fmt.Sprintf("duplicate tool registration: %s", def.Name))
	}
	r.order = append(r.order, def.Name)
	r.tools[def.Name] = Tool{Def: def, Handler: h}
}

// Get returns the tool registered under name.
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.tools[name]
	return t, ok
}

// List returns all tool descriptors in registration order.
func (r *Registry) List() []mcpgo.Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	defs := make([]mcpgo.Tool, 0, len(r.order))
	for _, name := range r.order {
		defs = append(defs, r.tools[name].Def)
	}
	return defs
}

// Names returns all registered tool names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}
