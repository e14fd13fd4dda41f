package probe

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"
)

// ServiceAPIPath is the well-known status path exposed by the on-device agent.
const ServiceAPIPath = "/device/traffic/browsing/profile/get"

// ServiceChecker probes the client's agent API. The agent answers 200 on its
// status path iff it is up; any other status or transport error is a failure.
type ServiceChecker struct {
	Port   int
	Client *http.Client
}

func NewServiceChecker(port int, timeout time.Duration) *ServiceChecker {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &ServiceChecker{
		Port:   port,
		Client: &http.Client{Timeout: timeout},
	}
}

func (s *ServiceChecker) Check(ctx context.Context, host string) Result {
	start := time.Now()
	url := fmt.Sprintf("http://%s%s", net.JoinHostPort(host, strconv.Itoa(s.Port)), ServiceAPIPath)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Result{Name: "service", Success: false, Message: err.Error()}
	}

	resp, err := s.Client.Do(req)
	lat := time.Since(start).Seconds() * 1000
	if err != nil {
		return Result{Name: "service", Success: false, Message: err.Error(), LatencyMS: lat}
	}
	defer resp.Body.Close()

	// Exactly 200 counts as reachable; redirects and other 2xx do not.
	if resp.StatusCode != http.StatusOK {
		return Result{Name: "service", Success: false, Message: resp.Status, LatencyMS: lat}
	}
	return Result{Name: "service", Success: true, Message: resp.Status, LatencyMS: lat}
}
