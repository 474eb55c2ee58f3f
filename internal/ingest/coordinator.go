package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/arigen-tech/docstream/internal/crypto"
	"github.com/arigen-tech/docstream/internal/extract"
	"github.com/arigen-tech/docstream/internal/fingerprint"
	"github.com/arigen-tech/docstream/internal/index"
	"github.com/arigen-tech/docstream/internal/records"
)

// Outcome describes what ProcessDocument did with a file.
type Outcome int

const (
	// OutcomeSkipped means the file was left alone: unsupported type,
	// no canonical record, or already indexed under the same record.
	OutcomeSkipped Outcome = iota
	// OutcomeFailed means extraction produced no usable text and the file
	// was written to the failed-file log.
	OutcomeFailed
	// OutcomeOriginalInserted means a new index entry was created with this
	// file as the original.
	OutcomeOriginalInserted
	// OutcomeMarkedDuplicate means the file matched an existing entry and
	// its record was marked as a duplicate of that entry's original.
	OutcomeMarkedDuplicate
	// OutcomeMarkedOriginal means the file matched an existing entry but has
	// the lower record id, so it took over as the entry's original.
	OutcomeMarkedOriginal
)

// String implements fmt.Stringer for log output.
func (o Outcome) String() string {
	switch o {
	case OutcomeSkipped:
		return "skipped"
	case OutcomeFailed:
		return "failed"
	case OutcomeOriginalInserted:
		return "original_inserted"
	case OutcomeMarkedDuplicate:
		return "marked_duplicate"
	case OutcomeMarkedOriginal:
		return "marked_original"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// RecordStore is the slice of the canonical record store the coordinator
// needs. *records.Client satisfies it.
type RecordStore interface {
	FindIDByFileName(ctx context.Context, fileName string) (int64, error)
	MarkDuplicate(ctx context.Context, id, originalID int64) error
	MarkOriginal(ctx context.Context, id int64) error
}

// Extractor dispatches extraction by file extension. *extract.Registry
// satisfies it.
type Extractor interface {
	Supported(ext string) bool
	Extract(ctx context.Context, path string) (*extract.Result, error)
}

// Coordinator runs the full ingestion pipeline for a single file: decrypt if
// needed, extract, fingerprint, and reconcile against the search index and
// the canonical record store.
type Coordinator struct {
	store     RecordStore
	index     *index.Index
	extractor Extractor
	cipher    *crypto.Cipher // nil when ingestion runs without encryption
	failLog   *FailLog
	logger    *slog.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewCoordinator wires the pipeline. cipher may be nil; logger falls back to
// slog.Default().
func NewCoordinator(store RecordStore, idx *index.Index, extractor Extractor, cipher *crypto.Cipher, failLog *FailLog, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{
		store:     store,
		index:     idx,
		extractor: extractor,
		cipher:    cipher,
		failLog:   failLog,
		logger:    logger,
		locks:     make(map[string]*sync.Mutex),
	}
}

// ProcessDocument ingests one file. The returned error reports store or
// index failures; extraction failures are logged to the failed-file log and
// reported through OutcomeFailed instead.
func (c *Coordinator) ProcessDocument(ctx context.Context, path string) (Outcome, error) {
	fileName := filepath.Base(path)

	if !c.extractor.Supported(filepath.Ext(path)) {
		c.logger.Debug("unsupported file type", "file", fileName)
		return OutcomeSkipped, nil
	}

	id, err := c.store.FindIDByFileName(ctx, fileName)
	if errors.Is(err, records.ErrRecordNotFound) {
		c.logger.Debug("no canonical record for file", "file", fileName)
		return OutcomeSkipped, nil
	}
	if err != nil {
		return OutcomeSkipped, fmt.Errorf("look up record for %s: %w", fileName, err)
	}

	result, err := c.extractText(ctx, path)
	if err != nil {
		c.logger.Warn("extraction failed", "file", fileName, "error", err)
		return c.recordFailure(fileName)
	}
	if strings.TrimSpace(result.Text) == "" && result.EmbeddedCode == "" {
		c.logger.Warn("extraction produced no text", "file", fileName)
		return c.recordFailure(fileName)
	}

	hash := fingerprint.Fingerprint(result.Text, result.EmbeddedCode)

	// The dedup decision must be atomic per hash, but the lock is scoped to
	// the index/store reconciliation only. Extraction above runs unlocked.
	unlock := c.lockHash(hash)
	defer unlock()

	return c.reconcile(ctx, id, fileName, hash, result)
}

func (c *Coordinator) reconcile(ctx context.Context, id int64, fileName, hash string, result *extract.Result) (Outcome, error) {
	entry, err := c.index.FindByHash(ctx, hash)
	if errors.Is(err, index.ErrEntryNotFound) {
		newEntry := &index.Entry{
			FileName:     fileName,
			Content:      result.Text,
			EmbeddedCode: result.EmbeddedCode,
			ContentHash:  hash,
		}
		newEntry.OriginalID.Int64 = id
		newEntry.OriginalID.Valid = true
		if err := c.index.Upsert(ctx, newEntry); err != nil {
			return OutcomeSkipped, fmt.Errorf("insert entry for %s: %w", fileName, err)
		}
		if err := c.store.MarkOriginal(ctx, id); err != nil {
			return OutcomeSkipped, fmt.Errorf("mark %d original: %w", id, err)
		}
		c.logger.Info("indexed original", "file", fileName, "id", id)
		return OutcomeOriginalInserted, nil
	}
	if err != nil {
		return OutcomeSkipped, fmt.Errorf("index lookup for %s: %w", fileName, err)
	}

	if !entry.OriginalID.Valid {
		// An entry without an original is repaired by adopting this record.
		if err := c.index.SetOriginalID(ctx, hash, id); err != nil {
			return OutcomeSkipped, fmt.Errorf("repair entry for %s: %w", fileName, err)
		}
		if err := c.store.MarkOriginal(ctx, id); err != nil {
			return OutcomeSkipped, fmt.Errorf("mark %d original: %w", id, err)
		}
		c.logger.Info("adopted orphaned entry", "file", fileName, "id", id)
		return OutcomeMarkedOriginal, nil
	}

	currentID := entry.OriginalID.Int64
	switch {
	case id == currentID:
		c.logger.Debug("file already indexed", "file", fileName, "id", id)
		return OutcomeSkipped, nil
	case id < currentID:
		// The lower record id wins as original; the previous original is
		// repointed as a duplicate of this record.
		if err := c.index.SetOriginalID(ctx, hash, id); err != nil {
			return OutcomeSkipped, fmt.Errorf("repoint entry for %s: %w", fileName, err)
		}
		if err := c.store.MarkDuplicate(ctx, currentID, id); err != nil {
			return OutcomeSkipped, fmt.Errorf("mark %d duplicate of %d: %w", currentID, id, err)
		}
		if err := c.store.MarkOriginal(ctx, id); err != nil {
			return OutcomeSkipped, fmt.Errorf("mark %d original: %w", id, err)
		}
		c.logger.Info("took over as original", "file", fileName, "id", id, "previous", currentID)
		return OutcomeMarkedOriginal, nil
	default:
		if err := c.store.MarkDuplicate(ctx, id, currentID); err != nil {
			return OutcomeSkipped, fmt.Errorf("mark %d duplicate of %d: %w", id, currentID, err)
		}
		c.logger.Info("marked duplicate", "file", fileName, "id", id, "original", currentID)
		return OutcomeMarkedDuplicate, nil
	}
}

// extractText decrypts the file if a cipher is configured and the payload is
// encrypted, then runs the extension-matched extractor. Plaintext files pass
// through untouched.
func (c *Coordinator) extractText(ctx context.Context, path string) (*extract.Result, error) {
	if c.cipher == nil {
		return c.extractor.Extract(ctx, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	plaintext, err := c.cipher.Decrypt(data)
	if errors.Is(err, crypto.ErrNotEncrypted) || errors.Is(err, crypto.ErrDecryptFailed) {
		c.logger.Debug("treating file as plaintext", "file", filepath.Base(path), "reason", err)
		return c.extractor.Extract(ctx, path)
	}
	if err != nil {
		return nil, fmt.Errorf("decrypt: %w", err)
	}

	// Extractors dispatch on extension and some shell out by path, so the
	// decrypted payload goes through a temp file with the original extension.
	tmp := filepath.Join(os.TempDir(), uuid.NewString()+filepath.Ext(path))
	if err := os.WriteFile(tmp, plaintext, 0o600); err != nil {
		return nil, fmt.Errorf("write decrypted temp file: %w", err)
	}
	defer os.Remove(tmp)

	return c.extractor.Extract(ctx, tmp)
}

func (c *Coordinator) recordFailure(fileName string) (Outcome, error) {
	if err := c.failLog.Add(fileName); err != nil {
		return OutcomeFailed, fmt.Errorf("record failed file %s: %w", fileName, err)
	}
	return OutcomeFailed, nil
}

// lockHash serializes reconciliation for a single content hash. Two files
// with identical content processed concurrently must not both insert.
func (c *Coordinator) lockHash(hash string) func() {
	c.mu.Lock()
	l, ok := c.locks[hash]
	if !ok {
		l = &sync.Mutex{}
		c.locks[hash] = l
	}
	c.mu.Unlock()

	l.Lock()
	return l.Unlock
}

// ScanResult aggregates the outcomes of a directory sweep.
type ScanResult struct {
	Processed  int
	Originals  int
	Duplicates int
	Skipped    int
	Failed     int
}

// ScanAll walks every root and processes each regular file. Per-file errors
// are logged and counted, never fatal for the sweep.
func (c *Coordinator) ScanAll(ctx context.Context, roots []string) (*ScanResult, error) {
	res := &ScanResult{}

	for _, root := range roots {
		err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				c.logger.Warn("walk error", "path", path, "error", err)
				return nil
			}
			if d.IsDir() {
				return nil
			}
			if err := ctx.Err(); err != nil {
				return err
			}

			outcome, err := c.ProcessDocument(ctx, path)
			if err != nil {
				c.logger.Warn("processing failed", "file", filepath.Base(path), "error", err)
			}
			res.Processed++
			switch outcome {
			case OutcomeOriginalInserted, OutcomeMarkedOriginal:
				res.Originals++
			case OutcomeMarkedDuplicate:
				res.Duplicates++
			case OutcomeFailed:
				res.Failed++
			default:
				res.Skipped++
			}
			return nil
		})
		if err != nil {
			return res, fmt.Errorf("scan %s: %w", root, err)
		}
	}

	c.logger.Info("scan complete",
		"processed", res.Processed,
		"originals", res.Originals,
		"duplicates", res.Duplicates,
		"skipped", res.Skipped,
		"failed", res.Failed)
	return res, nil
}
