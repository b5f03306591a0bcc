// Package guide wires the specialist agents into the registry the
// conversation engine dispatches through.
package guide

import (
	"fmt"
	"sort"
	"strings"

	"github.com/adalundhe/llcguide/core/conversation"
)

// =============================================================================
// Registry Implementation
// =============================================================================

// Registration binds an agent to its registry name and optional aliases
type Registration struct {
	Name    string
	Aliases []string
	Agent   conversation.Agent
}

// Registry is an immutable name to agent mapping. It is built once at startup
// and is safe for concurrent use without locking.
type Registry struct {
	// Agents by canonical name
	agents map[string]conversation.Agent

	// Lowercased name/alias to canonical name
	nameIndex map[string]string
}

// NewRegistry builds a registry from registrations. Names and aliases are
// matched case-insensitively and must be unique.
func NewRegistry(registrations ...Registration) (*Registry, error) {
	r := &Registry{
		agents:    make(map[string]conversation.Agent, len(registrations)),
		nameIndex: make(map[string]string, len(registrations)),
	}

	for _, reg := range registrations {
		if reg.Name == "" {
			return nil, fmt.Errorf("agent registry: empty name")
		}
		if reg.Agent == nil {
			return nil, fmt.Errorf("agent registry: %s has no agent", reg.Name)
		}
		if _, exists := r.agents[reg.Name]; exists {
			return nil, fmt.Errorf("agent registry: duplicate agent %s", reg.Name)
		}
		r.agents[reg.Name] = reg.Agent

		for _, key := range append([]string{reg.Name}, reg.Aliases...) {
			lower := strings.ToLower(key)
			if owner, taken := r.nameIndex[lower]; taken {
				return nil, fmt.Errorf("agent registry: %q already names %s", key, owner)
			}
			r.nameIndex[lower] = reg.Name
		}
	}

	return r, nil
}

// Get retrieves an agent by name or alias
func (r *Registry) Get(name string) (conversation.Agent, bool) {
	canonical, ok := r.nameIndex[strings.ToLower(name)]
	if !ok {
		return nil, false
	}
	agent, ok := r.agents[canonical]
	return agent, ok
}

// Names returns the canonical agent names in sorted order
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.agents))
	for name := range r.agents {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered agents
func (r *Registry) Len() int {
	return len(r.agents)
}
