package a2a

// AgentCapabilities advertises optional protocol features of an agent.
type AgentCapabilities struct {
	Streaming bool `json:"streaming"`
}

// AgentSkill describes one capability advertised on an agent card.
type AgentSkill struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Examples    []string `json:"examples,omitempty"`
}

// AgentCard is the read-only capability descriptor served by every agent at
// the well-known discovery path.
type AgentCard struct {
	Name         string            `json:"name"`
	Description  string            `json:"description,omitempty"`
	URL          string            `json:"url"`
	Version      string            `json:"version"`
	Capabilities AgentCapabilities `json:"capabilities"`
	Skills       []AgentSkill      `json:"skills,omitempty"`
}

// WellKnownPath is the discovery path agents serve their card on.
const WellKnownPath = "/.well-known/agent.json"
