package domain

import "time"

// Status is the reachability verdict for a single probe channel.
type Status string

const (
	StatusPending Status = "Pending" // no probe cycle has completed yet
	StatusOnline  Status = "Online"
	StatusOffline Status = "Offline"
)

// FromReachable maps a probe verdict to a status.
func FromReachable(up bool) Status {
	if up {
		return StatusOnline
	}
	return StatusOffline
}

// TrackedClient is one monitored (host, alert email) pair. The same host may
// be tracked under several emails; each row is probed and alerted on its own.
type TrackedClient struct {
	ID            int64      `json:"id"`
	Host          string     `json:"host"`
	Email         string     `json:"email"`
	PingStatus    Status     `json:"ping"`
	SSHStatus     Status     `json:"ssh"`
	ServiceStatus Status     `json:"service"`
	LastUpdated   time.Time  `json:"last_updated"`
	LastAlertSent *time.Time `json:"last_alert_sent,omitempty"`
}

// Healthy reports whether all three channels were Online on the last cycle.
func (c *TrackedClient) Healthy() bool {
	return c.PingStatus == StatusOnline &&
		c.SSHStatus == StatusOnline &&
		c.ServiceStatus == StatusOnline
}

// AlertActive reports whether the last alert is still inside the cooldown
// window. Computed at query time so a stale row expires without a new cycle.
func (c *TrackedClient) AlertActive(now time.Time, cooldown time.Duration) bool {
	if c.LastAlertSent == nil {
		return false
	}
	return now.Sub(*c.LastAlertSent) < cooldown
}
