package httpx

import (
	"math/rand/v2"
)

// DefaultUserAgents is the pool requests rotate through.
var DefaultUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36",
	"Mozilla/5.0 (iPhone; CPU iPhone OS 14_6 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/14.0 Mobile/15E148 Safari/604.1",
	"Mozilla/5.0 (Linux; Android 10; SM-A505FN) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.120 Mobile Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/103.0.0.0 Safari/537.36",
}

// AgentPool hands out user agents. Pick must be safe for concurrent use.
type AgentPool struct {
	agents []string
	pick   func(n int) int
}

// NewAgentPool returns a pool over agents (DefaultUserAgents when empty).
// pick returns an index in [0, n); nil means math/rand/v2.IntN.
func NewAgentPool(agents []string, pick func(n int) int) *AgentPool {
	if len(agents) == 0 {
		agents = DefaultUserAgents
	}
	if pick == nil {
		pick = rand.IntN
	}
	return &AgentPool{agents: append([]string(nil), agents...), pick: pick}
}

func (p *AgentPool) Pick() string {
	return p.agents[p.pick(len(p.agents))]
}

// First is the pool's first agent, used where rotation doesn't matter.
func (p *AgentPool) First() string {
	return p.agents[0]
}
