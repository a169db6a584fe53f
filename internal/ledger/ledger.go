// Package ledger tracks which corpus files have been ingested and with what
// outcome. The batch orchestrator is its only writer; persisted state lives in
// a small key-value store so the on-disk format can change without touching
// orchestration logic.
package ledger

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/stefjnl/localai-knowledge/internal/kvstore"
	"github.com/stefjnl/localai-knowledge/internal/model"
)

const (
	keyProcessedFiles = "processed_files"
	keyMetadata       = "processing_metadata"
	keyLastRun        = "last_processing_run"
	keyPointCounter   = "point_id_counter"
)

type Ledger struct {
	store kvstore.Store

	mu          sync.RWMutex
	processed   map[string]struct{}
	metadata    map[string]model.ProcessingMetadata
	nextPointID uint64
}

// Open loads ledger state from the store. Missing or corrupt entries start
// empty; that is a deliberate availability-over-audit trade-off.
func Open(ctx context.Context, store kvstore.Store) (*Ledger, error) {
	l := &Ledger{
		store:     store,
		processed: make(map[string]struct{}),
		metadata:  make(map[string]model.ProcessingMetadata),
	}

	var files []string
	if ok, err := store.Get(ctx, keyProcessedFiles, &files); err != nil {
		return nil, err
	} else if ok {
		for _, name := range files {
			l.processed[name] = struct{}{}
		}
	}

	var entries []model.ProcessingMetadata
	if ok, err := store.Get(ctx, keyMetadata, &entries); err != nil {
		return nil, err
	} else if ok {
		for _, md := range entries {
			l.metadata[md.FileName] = md
		}
	}

	var counter uint64
	if ok, err := store.Get(ctx, keyPointCounter, &counter); err != nil {
		return nil, err
	} else if ok {
		l.nextPointID = counter
	}

	logutil.GetLogger(ctx).Info("ledger loaded",
		zap.Int("processed_files", len(l.processed)),
		zap.Int("metadata_entries", len(l.metadata)))
	return l, nil
}

func (l *Ledger) IsProcessed(fileName string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.processed[fileName]
	return ok
}

// MarkProcessed records the file in the dedup set in memory only; the set is
// persisted once per batch run via Persist, not per file.
func (l *Ledger) MarkProcessed(fileName string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.processed[fileName] = struct{}{}
}

// RecordFileMetadata upserts the per-file audit record (replace semantics).
func (l *Ledger) RecordFileMetadata(md model.ProcessingMetadata) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.metadata[md.FileName] = md
}

// Forget removes a file from both the processed set and the metadata records
// and persists immediately, so operators can re-trigger processing of a file
// that previously failed.
func (l *Ledger) Forget(ctx context.Context, fileName string) error {
	l.mu.Lock()
	delete(l.processed, fileName)
	delete(l.metadata, fileName)
	l.mu.Unlock()
	return l.Persist(ctx)
}

// AllocatePointIDs reserves n sequential vector-store point IDs and returns
// the first. The counter is persisted with the rest of the ledger so IDs are
// never reused across runs.
func (l *Ledger) AllocatePointIDs(n int) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	base := l.nextPointID
	l.nextPointID += uint64(n)
	return base
}

// Persist writes the processed set, metadata records and point-ID counter.
func (l *Ledger) Persist(ctx context.Context) error {
	l.mu.RLock()
	files := make([]string, 0, len(l.processed))
	for name := range l.processed {
		files = append(files, name)
	}
	sort.Strings(files)
	entries := make([]model.ProcessingMetadata, 0, len(l.metadata))
	for _, md := range l.metadata {
		entries = append(entries, md)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].FileName < entries[j].FileName })
	counter := l.nextPointID
	l.mu.RUnlock()

	if err := l.store.Put(ctx, keyProcessedFiles, files); err != nil {
		return err
	}
	if err := l.store.Put(ctx, keyMetadata, entries); err != nil {
		return err
	}
	return l.store.Put(ctx, keyPointCounter, counter)
}

// RecordRunSnapshot overwrites the last-run snapshot with the files touched in
// this invocation.
func (l *Ledger) RecordRunSnapshot(ctx context.Context, files []model.ProcessingMetadata, totalDuration time.Duration) error {
	totalChunks := 0
	for _, md := range files {
		totalChunks += md.ChunksProcessed
	}
	run := model.ProcessingRun{
		RunAt:       time.Now().UTC(),
		DurationMs:  totalDuration.Milliseconds(),
		TotalChunks: totalChunks,
		Files:       files,
	}
	return l.store.Put(ctx, keyLastRun, run)
}

// Summary aggregates all stored metadata plus the last-run snapshot.
func (l *Ledger) Summary(ctx context.Context) (model.LedgerSummary, error) {
	l.mu.RLock()
	summary := model.LedgerSummary{TotalDocuments: len(l.metadata)}
	for _, md := range l.metadata {
		summary.TotalChunks += md.ChunksProcessed
		if md.Success {
			summary.SuccessCount++
		} else {
			summary.FailureCount++
		}
	}
	l.mu.RUnlock()

	var run model.ProcessingRun
	if ok, err := l.store.Get(ctx, keyLastRun, &run); err != nil {
		return summary, err
	} else if ok {
		summary.LastRun = &run
	}
	return summary, nil
}

// ProcessedCount reports the size of the dedup set.
func (l *Ledger) ProcessedCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.processed)
}
