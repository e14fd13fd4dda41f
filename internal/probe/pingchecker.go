package probe

import (
	"context"
	"time"

	probing "github.com/prometheus-community/pro-bing"
)

// PingChecker issues a single ICMP echo request with a strict timeout.
type PingChecker struct {
	Timeout    time.Duration
	Privileged bool // raw ICMP sockets; false uses unprivileged UDP ping
}

func NewPingChecker(timeout time.Duration, privileged bool) *PingChecker {
	if timeout <= 0 {
		timeout = time.Second
	}
	return &PingChecker{Timeout: timeout, Privileged: privileged}
}

func (p *PingChecker) Check(ctx context.Context, host string) Result {
	start := time.Now()

	pinger, err := probing.NewPinger(host)
	if err != nil {
		return Result{Name: "ping", Success: false, Message: err.Error()}
	}
	pinger.Count = 1
	pinger.Timeout = p.Timeout
	pinger.SetPrivileged(p.Privileged)

	if err := pinger.RunWithContext(ctx); err != nil {
		lat := time.Since(start).Seconds() * 1000
		return Result{Name: "ping", Success: false, Message: err.Error(), LatencyMS: lat}
	}

	stats := pinger.Statistics()
	lat := time.Since(start).Seconds() * 1000
	if stats.PacketsRecv == 0 {
		return Result{Name: "ping", Success: false, Message: "no reply", LatencyMS: lat}
	}
	return Result{
		Name:      "ping",
		Success:   true,
		Message:   "reply received",
		LatencyMS: stats.AvgRtt.Seconds() * 1000,
	}
}
