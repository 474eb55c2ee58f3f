// Package records is the client for the external canonical record store: one
// authoritative row per uploaded document, written by the upstream upload
// pipeline. The engine reads id and file_name, and writes only the duplicate
// linkage (is_duplicate, document_id).
package records

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Record is the slice of a canonical row the engine reads.
type Record struct {
	ID       int64
	FileName string
}

// Client wraps a Postgres connection pool with the queries the engine uses.
type Client struct {
	pool *pgxpool.Pool
}

// Connect opens a pool against connString and verifies connectivity with
// exponential-backoff retry (initial 500ms, max 10s, elapsed cap 30s).
func Connect(ctx context.Context, connString string) (*Client, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	c := &Client{pool: pool}
	if err := c.pingWithRetry(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%w: %v", ErrStoreUnreachable, err)
	}
	return c, nil
}

func (c *Client) pingWithRetry(ctx context.Context) error {
	exponentialBackoff := backoff.NewExponentialBackOff()
	exponentialBackoff.InitialInterval = 500 * time.Millisecond
	exponentialBackoff.MaxInterval = 10 * time.Second
	exponentialBackoff.MaxElapsedTime = 30 * time.Second

	operation := func() error {
		return c.pool.Ping(ctx)
	}
	return backoff.Retry(operation, backoff.WithContext(exponentialBackoff, ctx))
}

// Ping verifies the store is reachable.
func (c *Client) Ping(ctx context.Context) error {
	return c.pool.Ping(ctx)
}

// MaxID returns the current maximum record id, or 0 when the table is empty.
func (c *Client) MaxID(ctx context.Context) (int64, error) {
	var max int64
	err := c.pool.QueryRow(ctx,
		`SELECT COALESCE(MAX(id), 0) FROM documents`).Scan(&max)
	if err != nil {
		return 0, fmt.Errorf("query max id: %w", err)
	}
	return max, nil
}

// ListAfter returns all records with id greater than afterID, ascending.
func (c *Client) ListAfter(ctx context.Context, afterID int64) ([]Record, error) {
	rows, err := c.pool.Query(ctx,
		`SELECT id, file_name FROM documents WHERE id > $1 ORDER BY id ASC`, afterID)
	if err != nil {
		return nil, fmt.Errorf("list records after %d: %w", afterID, err)
	}
	defer rows.Close()

	var recs []Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.ID, &r.FileName); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		recs = append(recs, r)
	}
	return recs, rows.Err()
}

// FindIDByFileName resolves a file name to its canonical record id.
// When several rows share the name, the lowest id is authoritative.
// Returns ErrRecordNotFound when no row exists.
func (c *Client) FindIDByFileName(ctx context.Context, name string) (int64, error) {
	var id int64
	err := c.pool.QueryRow(ctx,
		`SELECT id FROM documents WHERE file_name = $1 ORDER BY id ASC LIMIT 1`, name).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrRecordNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("find record by file name: %w", err)
	}
	return id, nil
}

// MarkDuplicate flags the record as a duplicate pointing at originalID.
func (c *Client) MarkDuplicate(ctx context.Context, id, originalID int64) error {
	_, err := c.pool.Exec(ctx,
		`UPDATE documents SET is_duplicate = TRUE, document_id = $2 WHERE id = $1`, id, originalID)
	if err != nil {
		return fmt.Errorf("mark record %d duplicate of %d: %w", id, originalID, err)
	}
	return nil
}

// MarkOriginal flags the record as an original with no duplicate linkage.
func (c *Client) MarkOriginal(ctx context.Context, id int64) error {
	_, err := c.pool.Exec(ctx,
		`UPDATE documents SET is_duplicate = FALSE, document_id = NULL WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("mark record %d original: %w", id, err)
	}
	return nil
}

// Close releases the connection pool.
func (c *Client) Close() {
	c.pool.Close()
}
