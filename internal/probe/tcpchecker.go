package probe

import (
	"context"
	"net"
	"strconv"
	"time"
)

// TCPChecker attempts a plain TCP connect; success iff the handshake
// completes within the timeout.
type TCPChecker struct {
	Port    int
	Timeout time.Duration
}

func NewTCPChecker(port int, timeout time.Duration) *TCPChecker {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &TCPChecker{Port: port, Timeout: timeout}
}

func (t *TCPChecker) Check(ctx context.Context, host string) Result {
	start := time.Now()
	d := net.Dialer{Timeout: t.Timeout}

	// JoinHostPort so IPv6 literals get bracketed.
	addr := net.JoinHostPort(host, strconv.Itoa(t.Port))
	conn, err := d.DialContext(ctx, "tcp", addr)
	lat := time.Since(start).Seconds() * 1000
	if err != nil {
		return Result{Name: "tcp", Success: false, Message: err.Error(), LatencyMS: lat}
	}
	_ = conn.Close()
	return Result{Name: "tcp", Success: true, Message: "connected", LatencyMS: lat}
}
