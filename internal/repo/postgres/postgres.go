package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/siddharthpatel001/client-health-monitor/internal/domain"
	"github.com/siddharthpatel001/client-health-monitor/internal/repo"
)

var _ repo.ClientStore = (*Store)(nil)

type Store struct {
	pool *pgxpool.Pool
	log  *zap.Logger
}

func New(ctx context.Context, dsn string, log *zap.Logger) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}
	ctxPing, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctxPing); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	s := &Store{pool: pool, log: log}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func (s *Store) migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS clients (
	id              BIGSERIAL PRIMARY KEY,
	host            TEXT NOT NULL,
	email           TEXT NOT NULL,
	ping_status     TEXT NOT NULL DEFAULT 'Pending',
	ssh_status      TEXT NOT NULL DEFAULT 'Pending',
	service_status  TEXT NOT NULL DEFAULT 'Pending',
	last_updated    TIMESTAMPTZ NOT NULL DEFAULT now(),
	last_alert_sent TIMESTAMPTZ NULL,
	UNIQUE (host, email)
);
CREATE INDEX IF NOT EXISTS idx_clients_host ON clients (host);
`)
	return err
}

func (s *Store) Add(ctx context.Context, host, email string) (*domain.TrackedClient, error) {
	now := time.Now().UTC()
	var id int64
	err := s.pool.QueryRow(ctx, `
INSERT INTO clients (host, email, ping_status, ssh_status, service_status, last_updated)
VALUES ($1, $2, $3, $3, $3, $4)
ON CONFLICT (host, email) DO NOTHING
RETURNING id`,
		host, email, string(domain.StatusPending), now,
	).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repo.ErrDuplicate
		}
		return nil, fmt.Errorf("insert client: %w", err)
	}
	return &domain.TrackedClient{
		ID:            id,
		Host:          host,
		Email:         email,
		PingStatus:    domain.StatusPending,
		SSHStatus:     domain.StatusPending,
		ServiceStatus: domain.StatusPending,
		LastUpdated:   now,
	}, nil
}

func (s *Store) Delete(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM clients WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete client: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (s *Store) List(ctx context.Context) ([]*domain.TrackedClient, error) {
	rows, err := s.pool.Query(ctx, `
SELECT id, host, email, ping_status, ssh_status, service_status, last_updated, last_alert_sent
  FROM clients
 ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	defer rows.Close()

	var out []*domain.TrackedClient
	for rows.Next() {
		var (
			c         domain.TrackedClient
			ping      string
			ssh       string
			service   string
			lastAlert *time.Time
		)
		if err := rows.Scan(&c.ID, &c.Host, &c.Email, &ping, &ssh, &service, &c.LastUpdated, &lastAlert); err != nil {
			return nil, fmt.Errorf("scan client: %w", err)
		}
		c.PingStatus = domain.Status(ping)
		c.SSHStatus = domain.Status(ssh)
		c.ServiceStatus = domain.Status(service)
		c.LastAlertSent = lastAlert
		out = append(out, &c)
	}
	return out, rows.Err()
}

func (s *Store) ApplyCycle(ctx context.Context, updates []repo.CycleUpdate) error {
	if len(updates) == 0 {
		return nil
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin cycle transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, u := range updates {
		_, err := tx.Exec(ctx, `
UPDATE clients
   SET ping_status = $1, ssh_status = $2, service_status = $3,
       last_updated = $4, last_alert_sent = $5
 WHERE id = $6`,
			string(u.Ping), string(u.SSH), string(u.Service),
			u.LastUpdated, u.LastAlertSent, u.ID,
		)
		if err != nil {
			return fmt.Errorf("apply update for client %d: %w", u.ID, err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit cycle: %w", err)
	}
	return nil
}

func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM clients`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count clients: %w", err)
	}
	return n, nil
}

func (s *Store) PingDB(ctx context.Context) error { return s.pool.Ping(ctx) }
