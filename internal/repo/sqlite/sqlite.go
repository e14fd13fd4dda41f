package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/siddharthpatel001/client-health-monitor/internal/domain"
	"github.com/siddharthpatel001/client-health-monitor/internal/repo"
)

// Store implements repo.ClientStore on a local SQLite file. This is the
// default backend; the whole registry is a single small table.
type Store struct {
	db *sql.DB
}

func New(ctx context.Context, dataSourceName string) (*Store, error) {
	db, err := sql.Open("sqlite", fmt.Sprintf("%s?_journal_mode=WAL", dataSourceName))
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate(ctx context.Context) error {
	schema := `
CREATE TABLE IF NOT EXISTS clients (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	host            TEXT NOT NULL,
	email           TEXT NOT NULL,
	ping_status     TEXT NOT NULL DEFAULT 'Pending',
	ssh_status      TEXT NOT NULL DEFAULT 'Pending',
	service_status  TEXT NOT NULL DEFAULT 'Pending',
	last_updated    TEXT NOT NULL,
	last_alert_sent TEXT,
	UNIQUE (host, email)
);
CREATE INDEX IF NOT EXISTS idx_clients_host ON clients (host);
`
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

func (s *Store) Add(ctx context.Context, host, email string) (*domain.TrackedClient, error) {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
INSERT INTO clients (host, email, ping_status, ssh_status, service_status, last_updated)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(host, email) DO NOTHING`,
		host, email,
		string(domain.StatusPending), string(domain.StatusPending), string(domain.StatusPending),
		now.Format(time.RFC3339Nano),
	)
	if err != nil {
		return nil, fmt.Errorf("insert client: %w", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return nil, repo.ErrDuplicate
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
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
	res, err := s.db.ExecContext(ctx, `DELETE FROM clients WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete client: %w", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (s *Store) List(ctx context.Context) ([]*domain.TrackedClient, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, host, email, ping_status, ssh_status, service_status, last_updated, last_alert_sent
  FROM clients
 ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	defer rows.Close()

	var out []*domain.TrackedClient
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func scanClient(rows *sql.Rows) (*domain.TrackedClient, error) {
	var (
		c            domain.TrackedClient
		ping         string
		ssh          string
		service      string
		lastUpdated  string
		lastAlertRaw sql.NullString
	)
	if err := rows.Scan(&c.ID, &c.Host, &c.Email, &ping, &ssh, &service, &lastUpdated, &lastAlertRaw); err != nil {
		return nil, fmt.Errorf("scan client row: %w", err)
	}
	c.PingStatus = domain.Status(ping)
	c.SSHStatus = domain.Status(ssh)
	c.ServiceStatus = domain.Status(service)
	c.LastUpdated, _ = time.Parse(time.RFC3339Nano, lastUpdated)
	if lastAlertRaw.Valid {
		if ts, err := time.Parse(time.RFC3339Nano, lastAlertRaw.String); err == nil {
			c.LastAlertSent = &ts
		}
	}
	return &c, nil
}

// ApplyCycle writes every row's mutations in one transaction; a failure on
// any row rolls the whole cycle back.
func (s *Store) ApplyCycle(ctx context.Context, updates []repo.CycleUpdate) error {
	if len(updates) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin cycle transaction: %w", err)
	}
	defer tx.Rollback()

	for _, u := range updates {
		var lastAlert interface{}
		if u.LastAlertSent != nil {
			lastAlert = u.LastAlertSent.UTC().Format(time.RFC3339Nano)
		}
		_, err := tx.ExecContext(ctx, `
UPDATE clients
   SET ping_status = ?, ssh_status = ?, service_status = ?,
       last_updated = ?, last_alert_sent = ?
 WHERE id = ?`,
			string(u.Ping), string(u.SSH), string(u.Service),
			u.LastUpdated.UTC().Format(time.RFC3339Nano), lastAlert, u.ID,
		)
		if err != nil {
			return fmt.Errorf("apply update for client %d: %w", u.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit cycle: %w", err)
	}
	return nil
}

func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM clients`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count clients: %w", err)
	}
	return n, nil
}

func (s *Store) PingDB(ctx context.Context) error { return s.db.PingContext(ctx) }

var _ repo.ClientStore = (*Store)(nil)
