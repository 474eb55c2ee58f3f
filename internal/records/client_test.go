//go:build integration

package records

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestClient connects to the Postgres instance named by
// DOCSTREAM_TEST_DATABASE_URL and prepares an empty documents table.
// Skips the test when no database is configured.
func setupTestClient(t *testing.T) *Client {
	t.Helper()

	url := os.Getenv("DOCSTREAM_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("DOCSTREAM_TEST_DATABASE_URL not set, skipping integration test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	c, err := Connect(ctx, url)
	require.NoError(t, err)
	t.Cleanup(c.Close)

	_, err = c.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS documents (
			id BIGSERIAL PRIMARY KEY,
			file_name TEXT NOT NULL,
			is_duplicate BOOLEAN NOT NULL DEFAULT FALSE,
			document_id BIGINT
		)`)
	require.NoError(t, err)
	_, err = c.pool.Exec(ctx, `TRUNCATE documents RESTART IDENTITY`)
	require.NoError(t, err)

	return c
}

func insertRecord(t *testing.T, c *Client, name string) int64 {
	t.Helper()
	var id int64
	err := c.pool.QueryRow(context.Background(),
		`INSERT INTO documents (file_name) VALUES ($1) RETURNING id`, name).Scan(&id)
	require.NoError(t, err)
	return id
}

func TestMaxIDAndListAfter(t *testing.T) {
	c := setupTestClient(t)
	ctx := context.Background()

	max, err := c.MaxID(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), max, "empty table reports 0")

	var ids []int64
	for i := range 3 {
		ids = append(ids, insertRecord(t, c, fmt.Sprintf("doc-%d.pdf", i)))
	}

	max, err = c.MaxID(ctx)
	require.NoError(t, err)
	assert.Equal(t, ids[2], max)

	recs, err := c.ListAfter(ctx, ids[0])
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, ids[1], recs[0].ID, "ascending order")
	assert.Equal(t, "doc-1.pdf", recs[0].FileName)
	assert.Equal(t, ids[2], recs[1].ID)
}

func TestFindIDByFileName(t *testing.T) {
	c := setupTestClient(t)
	ctx := context.Background()

	first := insertRecord(t, c, "shared-name.pdf")
	insertRecord(t, c, "shared-name.pdf")

	id, err := c.FindIDByFileName(ctx, "shared-name.pdf")
	require.NoError(t, err)
	assert.Equal(t, first, id, "lowest id wins on name collision")

	_, err = c.FindIDByFileName(ctx, "missing.pdf")
	assert.ErrorIs(t, err, ErrRecordNotFound)
}

func TestDuplicateLinkage(t *testing.T) {
	c := setupTestClient(t)
	ctx := context.Background()

	original := insertRecord(t, c, "v1.pdf")
	dup := insertRecord(t, c, "v2.pdf")

	require.NoError(t, c.MarkDuplicate(ctx, dup, original))

	var isDup bool
	var docID *int64
	err := c.pool.QueryRow(ctx,
		`SELECT is_duplicate, document_id FROM documents WHERE id = $1`, dup).Scan(&isDup, &docID)
	require.NoError(t, err)
	assert.True(t, isDup)
	require.NotNil(t, docID)
	assert.Equal(t, original, *docID)

	require.NoError(t, c.MarkOriginal(ctx, dup))
	err = c.pool.QueryRow(ctx,
		`SELECT is_duplicate, document_id FROM documents WHERE id = $1`, dup).Scan(&isDup, &docID)
	require.NoError(t, err)
	assert.False(t, isDup)
	assert.Nil(t, docID)
}
