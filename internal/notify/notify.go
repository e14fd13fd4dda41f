package notify

import "context"

// Alert describes one degraded client: the host, who to tell, and the
// ordered list of failing channels.
type Alert struct {
	Host      string
	Recipient string
	Issues    []string
}

type Notifier interface {
	Notify(ctx context.Context, a Alert) error
}

type Multi []Notifier

func (m Multi) Notify(ctx context.Context, a Alert) error {
	var firstErr error
	for _, n := range m {
		if n == nil {
			continue
		}
		if err := n.Notify(ctx, a); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
