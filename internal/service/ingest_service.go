package service

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"sync/atomic"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/stefjnl/localai-knowledge/internal/ai"
	"github.com/stefjnl/localai-knowledge/internal/chunker"
	"github.com/stefjnl/localai-knowledge/internal/extract"
	"github.com/stefjnl/localai-knowledge/internal/ledger"
	"github.com/stefjnl/localai-knowledge/internal/model"
	"github.com/stefjnl/localai-knowledge/internal/pkg/errs"
	"github.com/stefjnl/localai-knowledge/internal/source"
	"github.com/stefjnl/localai-knowledge/internal/vectorstore"
)

// ErrIngestInProgress is returned when a batch run is requested while another
// one is still running. Concurrent runs against the same ledger are not
// supported; callers must serialize.
var ErrIngestInProgress = errors.New("an ingestion run is already in progress")

// RunReport summarises one batch invocation.
type RunReport struct {
	FilesProcessed int           `json:"files_processed"`
	FilesSkipped   int           `json:"files_skipped"`
	FilesFailed    int           `json:"files_failed"`
	TotalChunks    int           `json:"total_chunks"`
	Duration       time.Duration `json:"-"`
	DurationMs     int64         `json:"duration_ms"`
}

// IngestService is the batch orchestrator: it walks the configured sources,
// extracts and chunks each new file, embeds the chunks and writes them to the
// vector store, recording every attempt in the ledger.
type IngestService struct {
	embedder     ai.IEmbedder
	store        vectorstore.Store
	ledger       *ledger.Ledger
	sources      []source.Source
	vectorDim    int
	embedTimeout time.Duration
	running      atomic.Bool
}

func NewIngestService(embedder ai.IEmbedder, store vectorstore.Store, lg *ledger.Ledger,
	sources []source.Source, vectorDim int, embedTimeout time.Duration) *IngestService {
	if embedTimeout <= 0 {
		embedTimeout = 60 * time.Second
	}
	return &IngestService{
		embedder:     embedder,
		store:        store,
		ledger:       lg,
		sources:      sources,
		vectorDim:    vectorDim,
		embedTimeout: embedTimeout,
	}
}

// Running reports whether a batch run is currently executing.
func (s *IngestService) Running() bool {
	return s.running.Load()
}

// ProcessAll runs one full batch pass over every configured source. Per-file
// failures are recorded and skipped over; infrastructure failures (vector
// store unreachable, collection creation failing) abort the run.
func (s *IngestService) ProcessAll(ctx context.Context) (*RunReport, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, ErrIngestInProgress
	}
	defer s.running.Store(false)

	logger := logutil.GetLogger(ctx)
	start := time.Now()

	if err := s.store.EnsureCollection(ctx, s.vectorDim); err != nil {
		return nil, fmt.Errorf("ensure collection: %w", err)
	}

	report := &RunReport{}
	var touched []model.ProcessingMetadata
	for _, src := range s.sources {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		names, err := src.List(ctx)
		if err != nil {
			// A missing or unreachable source is a per-source problem, not a
			// reason to abandon the others.
			logger.Error("failed to list source", zap.String("source", src.Label()), zap.Error(err))
			continue
		}
		for _, name := range names {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			docType, ok := typeForName(name)
			if !ok {
				continue
			}
			if s.ledger.IsProcessed(name) {
				report.FilesSkipped++
				continue
			}
			md, err := s.processFile(ctx, src, name, docType)
			if err != nil {
				// Only infrastructure errors propagate this far.
				return nil, err
			}
			s.ledger.RecordFileMetadata(md)
			s.ledger.MarkProcessed(name)
			touched = append(touched, md)
			if md.Success {
				report.FilesProcessed++
				report.TotalChunks += md.ChunksProcessed
			} else {
				report.FilesFailed++
			}
		}
	}

	if err := s.ledger.Persist(ctx); err != nil {
		return nil, fmt.Errorf("persist ledger: %w", err)
	}
	report.Duration = time.Since(start)
	report.DurationMs = report.Duration.Milliseconds()
	if err := s.ledger.RecordRunSnapshot(ctx, touched, report.Duration); err != nil {
		return nil, fmt.Errorf("record run snapshot: %w", err)
	}

	logger.Info("ingestion run finished",
		zap.Int("processed", report.FilesProcessed),
		zap.Int("skipped", report.FilesSkipped),
		zap.Int("failed", report.FilesFailed),
		zap.Int("chunks", report.TotalChunks),
		zap.Duration("duration", report.Duration))
	return report, nil
}

// processFile handles one file end to end. Extraction and embedding errors are
// captured in the returned metadata; a non-nil error means the vector store
// failed and the whole run must stop.
func (s *IngestService) processFile(ctx context.Context, src source.Source, name string, docType model.DocumentType) (model.ProcessingMetadata, error) {
	logger := logutil.GetLogger(ctx).With(
		zap.String("file", name),
		zap.String("type", string(docType)),
		zap.String("source", src.Label()))
	start := time.Now()
	md := model.ProcessingMetadata{
		FileName:     name,
		DocumentType: docType,
	}
	fail := func(err error) model.ProcessingMetadata {
		logger.Error("file processing failed", zap.Error(err))
		md.ProcessingDurationMs = time.Since(start).Milliseconds()
		md.ProcessedAt = time.Now().UTC()
		md.Success = false
		md.ErrorMessage = err.Error()
		return md
	}

	localPath, cleanup, err := src.Fetch(ctx, name)
	if err != nil {
		return fail(err), nil
	}
	defer cleanup()

	extractor, err := extract.ForType(docType)
	if err != nil {
		return fail(err), nil
	}
	result, err := extractor.Extract(ctx, localPath)
	if err != nil {
		return fail(err), nil
	}

	maxChars := chunker.DefaultMaxChunkChars
	if docType != model.DocTypeTranscript {
		maxChars = chunker.RichMaxChunkChars
	}
	texts := chunker.NewPacker(maxChars, 0).Pack(result.Text)
	if len(texts) == 0 {
		return fail(fmt.Errorf("no text chunks produced from %s", name)), nil
	}

	stem := sourceStem(name)
	points := make([]vectorstore.Point, 0, len(texts))
	for i, text := range texts {
		embedding, err := s.embedChunk(ctx, text)
		if err != nil {
			return fail(fmt.Errorf("embed chunk %d: %w", i, err)), nil
		}
		pageInfo := ""
		if docType == model.DocTypePDF {
			pageInfo = chunker.AttributePage(result.PageBreaks, text, result.Text, i, len(texts))
		}
		chunk := model.DocumentChunk{
			Text:      text,
			Embedding: embedding,
			Source:    stem,
			Type:      docType,
			PageInfo:  pageInfo,
		}
		points = append(points, vectorstore.Point{
			Vector: chunk.Embedding,
			Payload: vectorstore.Payload{
				Text:     chunk.Text,
				Source:   chunk.Source,
				Type:     string(chunk.Type),
				PageInfo: chunk.PageInfo,
			},
		})
	}
	base := s.ledger.AllocatePointIDs(len(points))
	for i := range points {
		points[i].ID = base + uint64(i)
	}
	if err := s.store.Upsert(ctx, points); err != nil {
		return md, fmt.Errorf("upsert chunks for %s: %w", name, err)
	}

	md.ChunksProcessed = len(points)
	md.ProcessingDurationMs = time.Since(start).Milliseconds()
	md.ProcessedAt = time.Now().UTC()
	md.Success = true
	logger.Info("file processed",
		zap.Int("chunks", md.ChunksProcessed),
		zap.Int64("duration_ms", md.ProcessingDurationMs))
	return md, nil
}

// embedChunk requests a storage-mode embedding with a per-request timeout so a
// hung provider cannot stall the whole batch.
func (s *IngestService) embedChunk(ctx context.Context, text string) ([]float32, error) {
	embedCtx, cancel := context.WithTimeout(ctx, s.embedTimeout)
	defer cancel()
	embedding, err := s.embedder.Embed(embedCtx, text, ai.TaskRetrievalDocument)
	if err != nil {
		return nil, err
	}
	if s.vectorDim > 0 && len(embedding) != s.vectorDim {
		return nil, fmt.Errorf("embedding dimension %d does not match collection dimension %d", len(embedding), s.vectorDim)
	}
	return embedding, nil
}

// Forget removes a file from the ledger and deletes its chunks from the
// vector store, so the next run reprocesses it from scratch.
func (s *IngestService) Forget(ctx context.Context, fileName string) error {
	if strings.TrimSpace(fileName) == "" {
		return fmt.Errorf("file name is required: %w", errs.ErrInvalid)
	}
	if !s.ledger.IsProcessed(fileName) {
		return fmt.Errorf("file %s: %w", fileName, errs.ErrNotFound)
	}
	if err := s.store.DeleteBySource(ctx, sourceStem(fileName)); err != nil {
		return err
	}
	return s.ledger.Forget(ctx, fileName)
}

// Status returns the aggregated ledger view.
func (s *IngestService) Status(ctx context.Context) (model.LedgerSummary, error) {
	return s.ledger.Summary(ctx)
}

// typeForName maps a file name to its document type via the extension filter.
func typeForName(name string) (model.DocumentType, bool) {
	ext := strings.ToLower(path.Ext(name))
	if ext == "" {
		return "", false
	}
	for _, t := range []model.DocumentType{
		model.DocTypeTranscript, model.DocTypePDF, model.DocTypeMarkdown,
		model.DocTypeImage, model.DocTypeEmail, model.DocTypeWebpage, model.DocTypeEPUB,
	} {
		for _, e := range extract.Extensions(t) {
			if e == ext {
				return t, true
			}
		}
	}
	return "", false
}

// sourceStem is the logical document identifier: the base file name without
// its extension.
func sourceStem(name string) string {
	base := path.Base(name)
	return strings.TrimSuffix(base, path.Ext(base))
}
