package ledger_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stefjnl/localai-knowledge/internal/kvstore"
	"github.com/stefjnl/localai-knowledge/internal/ledger"
	"github.com/stefjnl/localai-knowledge/internal/model"
)

func openLedger(t *testing.T, dir string) *ledger.Ledger {
	t.Helper()
	store, err := kvstore.NewJSONFileStore(context.Background(), dir)
	require.NoError(t, err)
	l, err := ledger.Open(context.Background(), store)
	require.NoError(t, err)
	return l
}

func TestLedgerProcessedSetSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	l := openLedger(t, dir)

	assert.False(t, l.IsProcessed("a.txt"))
	l.MarkProcessed("a.txt")
	l.MarkProcessed("b.pdf")
	assert.True(t, l.IsProcessed("a.txt"))
	require.NoError(t, l.Persist(context.Background()))

	reopened := openLedger(t, dir)
	assert.True(t, reopened.IsProcessed("a.txt"))
	assert.True(t, reopened.IsProcessed("b.pdf"))
	assert.Equal(t, 2, reopened.ProcessedCount())
}

func TestLedgerUnpersistedMarksAreLost(t *testing.T) {
	dir := t.TempDir()
	l := openLedger(t, dir)
	l.MarkProcessed("a.txt")
	// No Persist: a crash mid-run reprocesses files from that run.
	reopened := openLedger(t, dir)
	assert.False(t, reopened.IsProcessed("a.txt"))
}

func TestLedgerMetadataUpsert(t *testing.T) {
	dir := t.TempDir()
	l := openLedger(t, dir)

	l.RecordFileMetadata(model.ProcessingMetadata{
		FileName: "a.txt", DocumentType: model.DocTypeTranscript,
		ChunksProcessed: 3, Success: true, ProcessedAt: time.Now(),
	})
	l.RecordFileMetadata(model.ProcessingMetadata{
		FileName: "a.txt", DocumentType: model.DocTypeTranscript,
		ChunksProcessed: 5, Success: true, ProcessedAt: time.Now(),
	})
	require.NoError(t, l.Persist(context.Background()))

	summary, err := l.Summary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.TotalDocuments)
	assert.Equal(t, 5, summary.TotalChunks)
	assert.Equal(t, 1, summary.SuccessCount)
	assert.Equal(t, 0, summary.FailureCount)
}

func TestLedgerSummaryCountsFailures(t *testing.T) {
	l := openLedger(t, t.TempDir())
	l.RecordFileMetadata(model.ProcessingMetadata{FileName: "good.txt", Success: true, ChunksProcessed: 2})
	l.RecordFileMetadata(model.ProcessingMetadata{FileName: "bad.pdf", Success: false, ErrorMessage: "unreadable"})

	summary, err := l.Summary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, summary.TotalDocuments)
	assert.Equal(t, 1, summary.SuccessCount)
	assert.Equal(t, 1, summary.FailureCount)
}

func TestLedgerForget(t *testing.T) {
	dir := t.TempDir()
	l := openLedger(t, dir)
	l.MarkProcessed("bad.pdf")
	l.RecordFileMetadata(model.ProcessingMetadata{FileName: "bad.pdf", Success: false})
	require.NoError(t, l.Persist(context.Background()))

	require.NoError(t, l.Forget(context.Background(), "bad.pdf"))

	reopened := openLedger(t, dir)
	assert.False(t, reopened.IsProcessed("bad.pdf"))
	summary, err := reopened.Summary(context.Background())
	require.NoError(t, err)
	assert.Zero(t, summary.TotalDocuments)
}

func TestLedgerRunSnapshotOverwrites(t *testing.T) {
	dir := t.TempDir()
	l := openLedger(t, dir)

	first := []model.ProcessingMetadata{{FileName: "a.txt", ChunksProcessed: 4, Success: true}}
	require.NoError(t, l.RecordRunSnapshot(context.Background(), first, 2*time.Second))
	second := []model.ProcessingMetadata{{FileName: "b.txt", ChunksProcessed: 1, Success: true}}
	require.NoError(t, l.RecordRunSnapshot(context.Background(), second, time.Second))

	summary, err := l.Summary(context.Background())
	require.NoError(t, err)
	require.NotNil(t, summary.LastRun)
	require.Len(t, summary.LastRun.Files, 1)
	assert.Equal(t, "b.txt", summary.LastRun.Files[0].FileName)
	assert.Equal(t, 1, summary.LastRun.TotalChunks)
	assert.Equal(t, int64(1000), summary.LastRun.DurationMs)
}

func TestLedgerPointIDAllocationMonotonic(t *testing.T) {
	dir := t.TempDir()
	l := openLedger(t, dir)

	base := l.AllocatePointIDs(10)
	next := l.AllocatePointIDs(5)
	assert.Equal(t, base+10, next)
	require.NoError(t, l.Persist(context.Background()))

	reopened := openLedger(t, dir)
	assert.Equal(t, next+5, reopened.AllocatePointIDs(1))
}
