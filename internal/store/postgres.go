package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/serroba/throttle-demo-go/internal/ratelimit"
)

// PostgresStore is a PostgreSQL implementation of ratelimit.Store over
// a throttle_records table. Postgres has no native TTL, so expiry is
// carried by the expires_at column: readers apply lazy expiry and the
// janitor sweeps dead rows.
//
// Schema:
//
//	CREATE TABLE throttle_records (
//	    key        TEXT PRIMARY KEY,
//	    hits       BIGINT NOT NULL,
//	    expires_at TIMESTAMPTZ NOT NULL
//	);
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL-backed rate limit store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (p *PostgresStore) Get(ctx context.Context, key string) (*ratelimit.Record, error) {
	query := `
		SELECT hits, expires_at
		FROM throttle_records
		WHERE key = $1
	`

	var record ratelimit.Record

	err := p.pool.QueryRow(ctx, query, key).Scan(&record.Hits, &record.ExpiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}

		return nil, err
	}

	return &record, nil
}

func (p *PostgresStore) Set(ctx context.Context, key string, record *ratelimit.Record, _ time.Duration) error {
	query := `
		INSERT INTO throttle_records (key, hits, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE
		SET hits = EXCLUDED.hits, expires_at = EXCLUDED.expires_at
	`

	_, err := p.pool.Exec(ctx, query, key, record.Hits, record.ExpiresAt)

	return err
}

func (p *PostgresStore) Delete(ctx context.Context, key string) (bool, error) {
	tag, err := p.pool.Exec(ctx, `DELETE FROM throttle_records WHERE key = $1`, key)
	if err != nil {
		return false, err
	}

	return tag.RowsAffected() > 0, nil
}

// Incr implements ratelimit.Incrementer as a single upsert: a stale row
// restarts the window at 1, a live row counts up, and either way the
// window is re-armed. The statement is atomic on the row, so concurrent
// hits never lose updates.
func (p *PostgresStore) Incr(ctx context.Context, key string, window time.Duration) (*ratelimit.Record, error) {
	now := time.Now()
	expiresAt := now.Add(window)

	query := `
		INSERT INTO throttle_records (key, hits, expires_at)
		VALUES ($1, 1, $2)
		ON CONFLICT (key) DO UPDATE
		SET hits = CASE
		        WHEN throttle_records.expires_at < $3 THEN 1
		        ELSE throttle_records.hits + 1
		    END,
		    expires_at = $2
		RETURNING hits, expires_at
	`

	var record ratelimit.Record

	err := p.pool.QueryRow(ctx, query, key, expiresAt, now).Scan(&record.Hits, &record.ExpiresAt)
	if err != nil {
		return nil, err
	}

	return &record, nil
}

// PruneExpired deletes rows whose window has passed, returning how many
// were removed.
func (p *PostgresStore) PruneExpired(ctx context.Context) (int64, error) {
	tag, err := p.pool.Exec(ctx, `DELETE FROM throttle_records WHERE expires_at < now()`)
	if err != nil {
		return 0, err
	}

	return tag.RowsAffected(), nil
}

// Compile-time checks.
var (
	_ ratelimit.Store       = (*PostgresStore)(nil)
	_ ratelimit.Incrementer = (*PostgresStore)(nil)
)
