package probe

import "context"

// Result holds the outcome of a single probe. Probes never surface errors:
// every timeout, refusal, or transport failure collapses to Success=false
// with a human-readable reason in Message.
type Result struct {
	Name      string  `json:"name"`
	Success   bool    `json:"success"`
	Message   string  `json:"message"`
	LatencyMS float64 `json:"latency_ms,omitempty"`
}

// Checker performs a single reachability check against a host address.
type Checker interface {
	Check(ctx context.Context, host string) Result
}
