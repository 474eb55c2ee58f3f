package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arigen-tech/docstream/internal/ingest"
	"github.com/arigen-tech/docstream/internal/records"
)

type fakeSource struct {
	mu    sync.Mutex
	maxID int64
	recs  []records.Record
}

func (s *fakeSource) MaxID(context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.maxID, nil
}

func (s *fakeSource) ListAfter(_ context.Context, afterID int64) ([]records.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []records.Record
	for _, rec := range s.recs {
		if rec.ID > afterID {
			out = append(out, rec)
		}
	}
	return out, nil
}

type fakeProcessor struct {
	mu        sync.Mutex
	processed []string
}

func (p *fakeProcessor) ProcessDocument(_ context.Context, path string) (ingest.Outcome, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.processed = append(p.processed, filepath.Base(path))
	return ingest.OutcomeOriginalInserted, nil
}

func (p *fakeProcessor) files() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.processed...)
}

type fakeSink struct {
	mu    sync.Mutex
	names []string
}

func (s *fakeSink) Add(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.names = append(s.names, name)
	return nil
}

func newTestPoller(source *fakeSource, root string, abandonAfter time.Duration) (*Poller, *fakeProcessor, *fakeSink) {
	processor := &fakeProcessor{}
	sink := &fakeSink{}
	p := NewPoller(source, processor, sink, []string{root}, time.Second, abandonAfter, nil)
	return p, processor, sink
}

func TestPollerProcessesNewRecord(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "invoice.pdf"), []byte("x"), 0o644))

	source := &fakeSource{recs: []records.Record{{ID: 3, FileName: "invoice.pdf"}}}
	p, processor, sink := newTestPoller(source, root, time.Minute)

	require.NoError(t, p.cycle(context.Background()))

	assert.Equal(t, []string{"invoice.pdf"}, processor.files())
	assert.Empty(t, sink.names)
	assert.Equal(t, int64(3), p.maxSeenID)
	assert.Empty(t, p.pending)
}

func TestPollerWaitsForFileToAppear(t *testing.T) {
	root := t.TempDir()
	source := &fakeSource{recs: []records.Record{{ID: 8, FileName: "late.pdf"}}}
	p, processor, _ := newTestPoller(source, root, time.Minute)

	require.NoError(t, p.cycle(context.Background()))
	assert.Empty(t, processor.files())
	assert.Contains(t, p.pending, "late.pdf")

	// File arrives in a subdirectory; the next cycle finds it by base name.
	sub := filepath.Join(root, "2026", "08")
	require.NoError(t, os.MkdirAll(sub, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(sub, "late.pdf"), []byte("x"), 0o644))

	require.NoError(t, p.cycle(context.Background()))
	assert.Equal(t, []string{"late.pdf"}, processor.files())
	assert.Empty(t, p.pending)
}

func TestPollerAbandonsMissingFile(t *testing.T) {
	root := t.TempDir()
	source := &fakeSource{recs: []records.Record{{ID: 4, FileName: "ghost.pdf"}}}
	p, processor, sink := newTestPoller(source, root, 0)

	require.NoError(t, p.cycle(context.Background()))

	assert.Empty(t, processor.files())
	assert.Equal(t, []string{"ghost.pdf"}, sink.names)
	assert.Empty(t, p.pending)
}

func TestPollerIgnoresRecordsBeforeHighWaterMark(t *testing.T) {
	root := t.TempDir()
	source := &fakeSource{
		maxID: 10,
		recs:  []records.Record{{ID: 9, FileName: "old.pdf"}, {ID: 11, FileName: "new.pdf"}},
	}
	p, _, _ := newTestPoller(source, root, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := p.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int64(10), p.maxSeenID, "high-water mark is seeded at startup")

	require.NoError(t, p.cycle(context.Background()))
	assert.NotContains(t, p.pending, "old.pdf")
	assert.Contains(t, p.pending, "new.pdf")
}
