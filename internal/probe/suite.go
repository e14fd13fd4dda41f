package probe

import (
	"context"
	"sync"
)

// Suite runs the full set of reachability probes for one host. The probes
// are independent and order-insensitive, so they run concurrently; one
// probe's failure never skips the others.
type Suite struct {
	Ping    Checker
	SSH     Checker
	Service Checker
}

func NewSuite(ping, ssh, service Checker) *Suite {
	return &Suite{Ping: ping, SSH: ssh, Service: service}
}

// Verdict is the combined outcome of one suite run against one host.
type Verdict struct {
	Ping    Result
	SSH     Result
	Service Result
}

func (s *Suite) Run(ctx context.Context, host string) Verdict {
	var v Verdict
	var wg sync.WaitGroup
	wg.Add(3)
	go func() { defer wg.Done(); v.Ping = s.Ping.Check(ctx, host) }()
	go func() { defer wg.Done(); v.SSH = s.SSH.Check(ctx, host) }()
	go func() { defer wg.Done(); v.Service = s.Service.Check(ctx, host) }()
	wg.Wait()
	return v
}

// Issues lists a human-readable description for every failing probe, in
// fixed order. Empty means the host is fully healthy.
func (v Verdict) Issues() []string {
	var issues []string
	if !v.Ping.Success {
		issues = append(issues, "Ping Unreachable")
	}
	if !v.SSH.Success {
		issues = append(issues, "SSH Port 22 Closed")
	}
	if !v.Service.Success {
		issues = append(issues, "Service API Unreachable")
	}
	return issues
}
