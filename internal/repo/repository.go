package repo

import (
	"context"
	"errors"
	"time"

	"github.com/siddharthpatel001/client-health-monitor/internal/domain"
)

var (
	// ErrDuplicate is returned when the (host, email) pair is already tracked.
	ErrDuplicate = errors.New("client already tracked")
	// ErrNotFound is returned when no client has the given id.
	ErrNotFound = errors.New("client not found")
)

// CycleUpdate carries one row's mutations out of a monitor cycle. A nil
// LastAlertSent clears the stamp.
type CycleUpdate struct {
	ID            int64
	Ping          domain.Status
	SSH           domain.Status
	Service       domain.Status
	LastUpdated   time.Time
	LastAlertSent *time.Time
}

// ClientStore is the port the monitor loop and the HTTP surface share.
// Add/Delete belong to the HTTP surface, ApplyCycle to the loop; neither
// writes the other's fields.
type ClientStore interface {
	Add(ctx context.Context, host, email string) (*domain.TrackedClient, error)
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context) ([]*domain.TrackedClient, error)

	// ApplyCycle persists a batch of per-cycle updates atomically:
	// either every row's mutation commits or none do.
	ApplyCycle(ctx context.Context, updates []CycleUpdate) error

	Count(ctx context.Context) (int, error)
	PingDB(ctx context.Context) error
}
