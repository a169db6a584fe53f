package model

import "time"

// ProcessingMetadata is the audit record for one file-processing attempt.
// At most one entry per file name is retained; reprocessing replaces it.
type ProcessingMetadata struct {
	FileName             string       `json:"file_name"`
	DocumentType         DocumentType `json:"document_type"`
	ChunksProcessed      int          `json:"chunks_processed"`
	ProcessingDurationMs int64        `json:"processing_duration_ms"`
	ProcessedAt          time.Time    `json:"processed_at"`
	Success              bool         `json:"success"`
	ErrorMessage         string       `json:"error_message,omitempty"`
}

// ProcessingRun is a snapshot of the most recent batch invocation. It is
// overwritten wholesale on every run, covering only files touched in that run.
type ProcessingRun struct {
	RunAt       time.Time            `json:"run_at"`
	DurationMs  int64                `json:"duration_ms"`
	TotalChunks int                  `json:"total_chunks"`
	Files       []ProcessingMetadata `json:"files"`
}

// LedgerSummary aggregates all stored processing metadata.
type LedgerSummary struct {
	TotalDocuments int            `json:"total_documents"`
	TotalChunks    int            `json:"total_chunks"`
	SuccessCount   int            `json:"success_count"`
	FailureCount   int            `json:"failure_count"`
	LastRun        *ProcessingRun `json:"last_run,omitempty"`
}
