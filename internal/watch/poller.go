package watch

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/arigen-tech/docstream/internal/ingest"
	"github.com/arigen-tech/docstream/internal/records"
)

// RecordSource is the slice of the canonical record store the poller needs.
// *records.Client satisfies it.
type RecordSource interface {
	MaxID(ctx context.Context) (int64, error)
	ListAfter(ctx context.Context, afterID int64) ([]records.Record, error)
}

// Processor ingests a single file. *ingest.Coordinator satisfies it.
type Processor interface {
	ProcessDocument(ctx context.Context, path string) (ingest.Outcome, error)
}

// FailSink records files that never materialized. *ingest.FailLog satisfies it.
type FailSink interface {
	Add(name string) error
}

// Poller tails the canonical record store for newly uploaded documents and
// processes each once its file appears under one of the roots. Records whose
// file never shows up within abandonAfter are written to the fail sink.
type Poller struct {
	source       RecordSource
	processor    Processor
	failSink     FailSink
	roots        []string
	pollInterval time.Duration
	abandonAfter time.Duration
	logger       *slog.Logger

	mu        sync.Mutex
	maxSeenID int64
	pending   map[string]pendingRecord // file name -> record
}

type pendingRecord struct {
	id        int64
	firstSeen time.Time
}

// NewPoller wires the record tail. pollInterval and abandonAfter must be
// positive.
func NewPoller(source RecordSource, processor Processor, failSink FailSink, roots []string, pollInterval, abandonAfter time.Duration, logger *slog.Logger) *Poller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Poller{
		source:       source,
		processor:    processor,
		failSink:     failSink,
		roots:        roots,
		pollInterval: pollInterval,
		abandonAfter: abandonAfter,
		logger:       logger,
		pending:      make(map[string]pendingRecord),
	}
}

// Run polls until ctx is cancelled. The high-water mark is seeded from the
// store at startup so pre-existing records are left to the initial scan.
func (p *Poller) Run(ctx context.Context) error {
	maxID, err := p.source.MaxID(ctx)
	if err != nil {
		return fmt.Errorf("seed poller high-water mark: %w", err)
	}
	p.mu.Lock()
	p.maxSeenID = maxID
	p.mu.Unlock()
	p.logger.Info("polling record store", "after_id", maxID, "interval", p.pollInterval)

	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := p.cycle(ctx); err != nil {
				p.logger.Warn("poll cycle failed", "error", err)
			}
		}
	}
}

// cycle fetches records past the high-water mark and sweeps the pending set.
func (p *Poller) cycle(ctx context.Context) error {
	p.mu.Lock()
	afterID := p.maxSeenID
	p.mu.Unlock()

	recs, err := p.source.ListAfter(ctx, afterID)
	if err != nil {
		return fmt.Errorf("list records after %d: %w", afterID, err)
	}

	now := time.Now()
	p.mu.Lock()
	for _, rec := range recs {
		if rec.ID > p.maxSeenID {
			p.maxSeenID = rec.ID
		}
		if _, ok := p.pending[rec.FileName]; !ok {
			p.pending[rec.FileName] = pendingRecord{id: rec.ID, firstSeen: now}
		}
	}
	p.mu.Unlock()

	p.sweep(ctx, now)
	return nil
}

// sweep tries to locate and process every pending record's file.
func (p *Poller) sweep(ctx context.Context, now time.Time) {
	for fileName, rec := range p.snapshotPending() {
		if err := ctx.Err(); err != nil {
			return
		}

		path, found := p.locate(fileName)
		if found {
			outcome, err := p.processor.ProcessDocument(ctx, path)
			if err != nil {
				p.logger.Warn("processing failed", "file", fileName, "error", err)
				continue
			}
			p.logger.Info("processed pending record", "file", fileName, "id", rec.id, "outcome", outcome)
			p.removePending(fileName)
			continue
		}

		if now.Sub(rec.firstSeen) >= p.abandonAfter {
			p.logger.Warn("abandoning record, file never appeared", "file", fileName, "id", rec.id)
			if err := p.failSink.Add(fileName); err != nil {
				p.logger.Warn("record abandoned file", "file", fileName, "error", err)
			}
			p.removePending(fileName)
		}
	}
}

// locate searches the roots for a file with the exact base name.
func (p *Poller) locate(fileName string) (string, bool) {
	for _, root := range p.roots {
		var match string
		filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil
			}
			if !d.IsDir() && filepath.Base(path) == fileName {
				match = path
				return filepath.SkipAll
			}
			return nil
		})
		if match != "" {
			return match, true
		}
	}
	return "", false
}

func (p *Poller) snapshotPending() map[string]pendingRecord {
	p.mu.Lock()
	defer p.mu.Unlock()
	snapshot := make(map[string]pendingRecord, len(p.pending))
	for name, rec := range p.pending {
		snapshot[name] = rec
	}
	return snapshot
}

func (p *Poller) removePending(fileName string) {
	p.mu.Lock()
	delete(p.pending, fileName)
	p.mu.Unlock()
}
