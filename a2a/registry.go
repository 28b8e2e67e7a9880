package a2a

import "sort"

// Registry is the immutable set of discovered agent endpoints. It is built
// once at startup by discovery and safe to share without locking; there is no
// hot-reload.
type Registry struct {
	cards map[string]AgentCard
}

// NewRegistry builds a registry from discovered cards. On duplicate names the
// last card wins.
func NewRegistry(cards ...AgentCard) *Registry {
	m := make(map[string]AgentCard, len(cards))
	for _, c := range cards {
		m[c.Name] = c
	}
	return &Registry{cards: m}
}

// Get returns the card registered under name.
func (r *Registry) Get(name string) (AgentCard, bool) {
	c, ok := r.cards[name]
	return c, ok
}

// Known reports whether an agent with the given name was discovered.
func (r *Registry) Known(name string) bool {
	_, ok := r.cards[name]
	return ok
}

// Names returns the sorted agent names.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.cards))
	for name := range r.cards {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered agents.
func (r *Registry) Len() int { return len(r.cards) }
