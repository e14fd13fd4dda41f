package memory

import (
	"context"
	"sync"
	"time"

	"github.com/siddharthpatel001/client-health-monitor/internal/domain"
	"github.com/siddharthpatel001/client-health-monitor/internal/repo"
)

type Store struct {
	mu      sync.RWMutex
	nextID  int64
	clients map[int64]*domain.TrackedClient
}

func New() *Store {
	return &Store{
		nextID:  1,
		clients: make(map[int64]*domain.TrackedClient),
	}
}

func (m *Store) Add(ctx context.Context, host, email string) (*domain.TrackedClient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.clients {
		if c.Host == host && c.Email == email {
			return nil, repo.ErrDuplicate
		}
	}
	c := &domain.TrackedClient{
		ID:            m.nextID,
		Host:          host,
		Email:         email,
		PingStatus:    domain.StatusPending,
		SSHStatus:     domain.StatusPending,
		ServiceStatus: domain.StatusPending,
		LastUpdated:   time.Now().UTC(),
	}
	m.nextID++
	m.clients[c.ID] = c
	return cloned(c), nil
}

func (m *Store) Delete(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.clients[id]; !ok {
		return repo.ErrNotFound
	}
	delete(m.clients, id)
	return nil
}

func (m *Store) List(ctx context.Context) ([]*domain.TrackedClient, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*domain.TrackedClient, 0, len(m.clients))
	for _, c := range m.clients {
		out = append(out, cloned(c))
	}
	return out, nil
}

func (m *Store) ApplyCycle(ctx context.Context, updates []repo.CycleUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range updates {
		c, ok := m.clients[u.ID]
		if !ok {
			continue // deleted mid-cycle; nothing to update
		}
		c.PingStatus = u.Ping
		c.SSHStatus = u.SSH
		c.ServiceStatus = u.Service
		c.LastUpdated = u.LastUpdated
		if u.LastAlertSent != nil {
			ts := *u.LastAlertSent
			c.LastAlertSent = &ts
		} else {
			c.LastAlertSent = nil
		}
	}
	return nil
}

func (m *Store) Count(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.clients), nil
}

func (m *Store) PingDB(ctx context.Context) error { return nil }

// cloned hands callers a copy so the loop and the API never share a row.
func cloned(c *domain.TrackedClient) *domain.TrackedClient {
	cp := *c
	if c.LastAlertSent != nil {
		ts := *c.LastAlertSent
		cp.LastAlertSent = &ts
	}
	return &cp
}

var _ repo.ClientStore = (*Store)(nil)
