package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/siddharthpatel001/client-health-monitor/internal/domain"
	"github.com/siddharthpatel001/client-health-monitor/internal/repo"
	"github.com/siddharthpatel001/client-health-monitor/internal/repo/memory"
)

// ---- test helpers ----

type stubScheduler struct{ running bool }

func (s *stubScheduler) Running() bool { return s.running }

func setup(t *testing.T) (*memory.Store, *httptest.Server) {
	t.Helper()
	store := memory.New()
	srv := NewServer(zap.NewNop(), store, &stubScheduler{running: true}, time.Hour, 10_000, 10_000)
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return store, ts
}

func postClient(t *testing.T, base, host, email string) *http.Response {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"host": host, "email": email})
	resp, err := http.Post(base+"/api/clients", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("POST error: %v", err)
	}
	return resp
}

// ---- tests ----

func TestAddClient_OK_Duplicate_Invalid(t *testing.T) {
	_, ts := setup(t)

	// 1) Add OK
	resp := postClient(t, ts.URL, "10.0.0.5", "a@b.com")
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("want 201, got %d", resp.StatusCode)
	}
	var created domain.TrackedClient
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decode created: %v", err)
	}
	if created.ID == 0 || created.PingStatus != domain.StatusPending {
		t.Fatalf("unexpected created row: %+v", created)
	}

	// 2) Same pair again -> 409
	resp2 := postClient(t, ts.URL, "10.0.0.5", "a@b.com")
	resp2.Body.Close()
	if resp2.StatusCode != http.StatusConflict {
		t.Fatalf("want 409 on duplicate, got %d", resp2.StatusCode)
	}

	// 3) Same host, different email -> allowed
	resp3 := postClient(t, ts.URL, "10.0.0.5", "c@d.com")
	resp3.Body.Close()
	if resp3.StatusCode != http.StatusCreated {
		t.Fatalf("want 201 for same host under new email, got %d", resp3.StatusCode)
	}

	// 4) Invalid host -> 400
	resp4 := postClient(t, ts.URL, "999.1.1.1", "a@b.com")
	resp4.Body.Close()
	if resp4.StatusCode != http.StatusBadRequest {
		t.Fatalf("want 400 on bad host, got %d", resp4.StatusCode)
	}

	// 5) Invalid email -> 400
	resp5 := postClient(t, ts.URL, "10.0.0.6", "not-an-email")
	resp5.Body.Close()
	if resp5.StatusCode != http.StatusBadRequest {
		t.Fatalf("want 400 on bad email, got %d", resp5.StatusCode)
	}

	// 6) Hostnames are rejected; only literal addresses are tracked.
	resp6 := postClient(t, ts.URL, "example.com", "a@b.com")
	resp6.Body.Close()
	if resp6.StatusCode != http.StatusBadRequest {
		t.Fatalf("want 400 on hostname, got %d", resp6.StatusCode)
	}

	// 7) IPv6 literal is fine.
	resp7 := postClient(t, ts.URL, "2001:db8::1", "v6@b.com")
	resp7.Body.Close()
	if resp7.StatusCode != http.StatusCreated {
		t.Fatalf("want 201 for IPv6 literal, got %d", resp7.StatusCode)
	}
}

func TestDeleteClient(t *testing.T) {
	store, ts := setup(t)
	c, _ := store.Add(context.Background(), "10.0.0.5", "a@b.com")

	req, _ := http.NewRequest(http.MethodDelete, ts.URL+"/api/clients/99999", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("DELETE error: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("want 404 for unknown id, got %d", resp.StatusCode)
	}

	req2, _ := http.NewRequest(http.MethodDelete, ts.URL+"/api/clients/"+itoa(c.ID), nil)
	resp2, err := http.DefaultClient.Do(req2)
	if err != nil {
		t.Fatalf("DELETE error: %v", err)
	}
	resp2.Body.Close()
	if resp2.StatusCode != http.StatusNoContent {
		t.Fatalf("want 204, got %d", resp2.StatusCode)
	}
}

func TestListClients_AlertActiveRecomputedAtQueryTime(t *testing.T) {
	store, ts := setup(t)
	c, _ := store.Add(context.Background(), "10.0.0.5", "a@b.com")

	// Simulate a cycle that alerted 30 minutes ago (inside the 1h cooldown).
	sent := time.Now().UTC().Add(-30 * time.Minute)
	_ = store.ApplyCycle(context.Background(), []repo.CycleUpdate{{
		ID:            c.ID,
		Ping:          domain.StatusOffline,
		SSH:           domain.StatusOnline,
		Service:       domain.StatusOnline,
		LastUpdated:   time.Now().UTC(),
		LastAlertSent: &sent,
	}})

	rows := listRows(t, ts.URL)
	if len(rows) != 1 {
		t.Fatalf("want 1 row, got %d", len(rows))
	}
	if !rows[0].AlertActive {
		t.Fatalf("alert inside cooldown must report active")
	}
	if rows[0].Ping != "Offline" || rows[0].SSH != "Online" {
		t.Fatalf("statuses wrong: %+v", rows[0])
	}
	if len(rows[0].LastUpdated) != len("15:04:05") {
		t.Fatalf("last_updated must be HH:MM:SS, got %q", rows[0].LastUpdated)
	}

	// Age the stamp past the cooldown; a fresh list call must flip the flag
	// without a new probe cycle.
	old := time.Now().UTC().Add(-2 * time.Hour)
	_ = store.ApplyCycle(context.Background(), []repo.CycleUpdate{{
		ID:            c.ID,
		Ping:          domain.StatusOffline,
		SSH:           domain.StatusOnline,
		Service:       domain.StatusOnline,
		LastUpdated:   time.Now().UTC(),
		LastAlertSent: &old,
	}})
	rows = listRows(t, ts.URL)
	if rows[0].AlertActive {
		t.Fatalf("expired cooldown must report inactive without a new cycle")
	}
}

func TestHealthz(t *testing.T) {
	_, ts := setup(t)

	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET error: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("want 200, got %d", resp.StatusCode)
	}

	var payload struct {
		Status string `json:"status"`
		Checks struct {
			Database struct {
				Status      string `json:"status"`
				ClientCount int    `json:"client_count"`
			} `json:"database"`
			Scheduler struct {
				Status string `json:"status"`
			} `json:"scheduler"`
		} `json:"checks"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode health: %v", err)
	}
	if payload.Status != "healthy" || payload.Checks.Database.Status != "up" {
		t.Fatalf("unexpected health payload: %+v", payload)
	}
	if payload.Checks.Scheduler.Status != "running" {
		t.Fatalf("scheduler should report running: %+v", payload)
	}
}

func listRows(t *testing.T, base string) []clientRow {
	t.Helper()
	resp, err := http.Get(base + "/api/clients")
	if err != nil {
		t.Fatalf("GET list error: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("want 200 list, got %d", resp.StatusCode)
	}
	var rows []clientRow
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	return rows
}

func itoa(n int64) string { return strconv.FormatInt(n, 10) }
