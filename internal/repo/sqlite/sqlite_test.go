package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/siddharthpatel001/client-health-monitor/internal/domain"
	"github.com/siddharthpatel001/client-health-monitor/internal/repo"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(context.Background(), filepath.Join(t.TempDir(), "clients.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestAdd_List_Delete(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	c, err := s.Add(ctx, "10.0.0.5", "a@b.com")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if c.ID == 0 || c.PingStatus != domain.StatusPending {
		t.Fatalf("unexpected new row: %+v", c)
	}

	if _, err := s.Add(ctx, "10.0.0.5", "a@b.com"); !errors.Is(err, repo.ErrDuplicate) {
		t.Fatalf("duplicate pair: want ErrDuplicate, got %v", err)
	}
	if _, err := s.Add(ctx, "10.0.0.5", "c@d.com"); err != nil {
		t.Fatalf("same host under new email must be allowed: %v", err)
	}

	all, err := s.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("want 2 rows, got %d", len(all))
	}

	if err := s.Delete(ctx, c.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.Delete(ctx, c.ID); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("second delete: want ErrNotFound, got %v", err)
	}
	if n, _ := s.Count(ctx); n != 1 {
		t.Fatalf("want 1 remaining row, got %d", n)
	}
}

func TestApplyCycle_RoundTripsAlertStamp(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	c, _ := s.Add(ctx, "192.168.1.7", "ops@example.com")

	now := time.Now().UTC().Truncate(time.Microsecond)
	sent := now
	err := s.ApplyCycle(ctx, []repo.CycleUpdate{{
		ID:            c.ID,
		Ping:          domain.StatusOffline,
		SSH:           domain.StatusOffline,
		Service:       domain.StatusOnline,
		LastUpdated:   now,
		LastAlertSent: &sent,
	}})
	if err != nil {
		t.Fatalf("ApplyCycle: %v", err)
	}

	all, _ := s.List(ctx)
	got := all[0]
	if got.PingStatus != domain.StatusOffline || got.ServiceStatus != domain.StatusOnline {
		t.Fatalf("statuses not persisted: %+v", got)
	}
	if got.LastAlertSent == nil || !got.LastAlertSent.Equal(sent) {
		t.Fatalf("alert stamp not persisted: got %v want %v", got.LastAlertSent, sent)
	}

	// Healthy cycle clears the stamp back to NULL.
	err = s.ApplyCycle(ctx, []repo.CycleUpdate{{
		ID:          c.ID,
		Ping:        domain.StatusOnline,
		SSH:         domain.StatusOnline,
		Service:     domain.StatusOnline,
		LastUpdated: now.Add(30 * time.Second),
	}})
	if err != nil {
		t.Fatalf("ApplyCycle healthy: %v", err)
	}
	all, _ = s.List(ctx)
	if all[0].LastAlertSent != nil {
		t.Fatalf("healthy cycle must clear last_alert_sent, got %v", all[0].LastAlertSent)
	}
}

func TestApplyCycle_EmptyBatchIsNoOp(t *testing.T) {
	s := newTestStore(t)
	if err := s.ApplyCycle(context.Background(), nil); err != nil {
		t.Fatalf("empty batch: %v", err)
	}
}

func TestPingDB(t *testing.T) {
	s := newTestStore(t)
	if err := s.PingDB(context.Background()); err != nil {
		t.Fatalf("ping: %v", err)
	}
}
