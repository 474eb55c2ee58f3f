// Package index implements the local full-text search index backed by a
// SQLite FTS5 virtual table. The index holds one row per distinct content
// hash and maps it to the canonical record that owns the content.
package index

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

// schema holds one row per unique content hash. file_name, content and
// embedded_code are full-text searchable; original_id and content_hash are
// stored but not indexed.
const schema = `
CREATE VIRTUAL TABLE IF NOT EXISTS document_data USING fts5(
	file_name, content, embedded_code,
	original_id UNINDEXED, content_hash UNINDEXED
);
`

// Entry is one indexed document content.
type Entry struct {
	OriginalID   sql.NullInt64 // canonical record id; invalid marks a corrupted row
	FileName     string
	Content      string
	EmbeddedCode string
	ContentHash  string
}

// Match is a search hit: the owning canonical record and its file name.
type Match struct {
	OriginalID int64  `json:"id"`
	FileName   string `json:"file_name"`
}

// Index is the SQLite-backed search index.
type Index struct {
	db *sql.DB
}

// Open opens or creates the index database at path.
func Open(path string) (*Index, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create index directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open index database: %w", err)
	}
	// SQLite allows one writer at a time; a single connection avoids
	// SQLITE_BUSY under concurrent ingestion.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create index schema: %w", err)
	}
	return &Index{db: db}, nil
}

// Upsert inserts the entry, or replaces the existing row carrying the same
// content hash. The per-hash uniqueness invariant is preserved either way.
func (ix *Index) Upsert(ctx context.Context, e *Entry) error {
	res, err := ix.db.ExecContext(ctx,
		`UPDATE document_data SET file_name = ?, content = ?, embedded_code = ?, original_id = ?
		 WHERE content_hash = ?`,
		e.FileName, e.Content, e.EmbeddedCode, nullableID(e.OriginalID), e.ContentHash,
	)
	if err != nil {
		return fmt.Errorf("update index entry: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		return nil
	}

	_, err = ix.db.ExecContext(ctx,
		`INSERT INTO document_data (file_name, content, embedded_code, original_id, content_hash)
		 VALUES (?, ?, ?, ?, ?)`,
		e.FileName, e.Content, e.EmbeddedCode, nullableID(e.OriginalID), e.ContentHash,
	)
	if err != nil {
		return fmt.Errorf("insert index entry: %w", err)
	}
	return nil
}

// FindByHash returns the entry for the given content hash.
// Returns ErrEntryNotFound when no content with this hash has been indexed.
func (ix *Index) FindByHash(ctx context.Context, hash string) (*Entry, error) {
	row := ix.db.QueryRowContext(ctx,
		`SELECT file_name, content, embedded_code, original_id
		 FROM document_data WHERE content_hash = ?`, hash,
	)

	e := &Entry{ContentHash: hash}
	err := row.Scan(&e.FileName, &e.Content, &e.EmbeddedCode, &e.OriginalID)
	if err == sql.ErrNoRows {
		return nil, ErrEntryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find by hash: %w", err)
	}
	return e, nil
}

// SetOriginalID re-points the entry for hash at a new canonical record.
// Used both for the lowest-id-wins re-point and for repairing rows whose
// original_id was lost.
func (ix *Index) SetOriginalID(ctx context.Context, hash string, id int64) error {
	res, err := ix.db.ExecContext(ctx,
		`UPDATE document_data SET original_id = ? WHERE content_hash = ?`, id, hash,
	)
	if err != nil {
		return fmt.Errorf("set original id: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrEntryNotFound
	}
	return nil
}

// Search runs an exact-phrase full-text match; when it returns no rows it
// falls back to a case-insensitive substring match. An optional idFilter
// restricts results to the given canonical ids.
func (ix *Index) Search(ctx context.Context, query string, idFilter []int64) ([]Match, error) {
	matches, err := ix.searchPhrase(ctx, query, idFilter)
	if err != nil {
		return nil, err
	}
	if len(matches) > 0 {
		return matches, nil
	}
	return ix.searchSubstring(ctx, query, idFilter)
}

func (ix *Index) searchPhrase(ctx context.Context, query string, idFilter []int64) ([]Match, error) {
	// Quote the query so punctuation is treated literally as a phrase.
	phrase := `"` + strings.ReplaceAll(query, `"`, `""`) + `"`

	sqlText := `SELECT DISTINCT original_id, file_name FROM document_data WHERE document_data MATCH ?`
	args := []any{phrase}
	sqlText, args = appendIDFilter(sqlText, args, idFilter)

	return ix.collectMatches(ctx, sqlText, args)
}

func (ix *Index) searchSubstring(ctx context.Context, query string, idFilter []int64) ([]Match, error) {
	pattern := "%" + strings.ToLower(query) + "%"

	sqlText := `SELECT DISTINCT original_id, file_name FROM document_data
		WHERE (lower(content) LIKE ? OR lower(embedded_code) LIKE ? OR lower(file_name) LIKE ?)`
	args := []any{pattern, pattern, pattern}
	sqlText, args = appendIDFilter(sqlText, args, idFilter)

	return ix.collectMatches(ctx, sqlText, args)
}

func appendIDFilter(sqlText string, args []any, idFilter []int64) (string, []any) {
	if len(idFilter) == 0 {
		return sqlText, args
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(idFilter)), ",")
	sqlText += " AND original_id IN (" + placeholders + ")"
	for _, id := range idFilter {
		args = append(args, id)
	}
	return sqlText, args
}

func (ix *Index) collectMatches(ctx context.Context, sqlText string, args []any) ([]Match, error) {
	rows, err := ix.db.QueryContext(ctx, sqlText, args...)
	if err != nil {
		return nil, fmt.Errorf("search index: %w", err)
	}
	defer rows.Close()

	var matches []Match
	for rows.Next() {
		var m Match
		var id sql.NullInt64
		if err := rows.Scan(&id, &m.FileName); err != nil {
			return nil, fmt.Errorf("scan search result: %w", err)
		}
		m.OriginalID = id.Int64
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

// Files lists every indexed document as (canonical id, file name), ordered
// by file name for stable output.
func (ix *Index) Files(ctx context.Context) ([]Match, error) {
	return ix.collectMatches(ctx,
		`SELECT original_id, file_name FROM document_data ORDER BY file_name`, nil)
}

// DeleteAll resets the index. Entries are never deleted individually.
func (ix *Index) DeleteAll(ctx context.Context) error {
	if _, err := ix.db.ExecContext(ctx, `DELETE FROM document_data`); err != nil {
		return fmt.Errorf("reset index: %w", err)
	}
	return nil
}

// Health verifies the database is reachable.
func (ix *Index) Health(ctx context.Context) error {
	return ix.db.PingContext(ctx)
}

// Close closes the underlying database.
func (ix *Index) Close() error {
	return ix.db.Close()
}

func nullableID(id sql.NullInt64) any {
	if !id.Valid {
		return nil
	}
	return id.Int64
}
