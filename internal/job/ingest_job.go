package job

import (
	"context"
	"errors"

	"github.com/stefjnl/localai-knowledge/internal/service"
)

// IngestJob triggers a full batch pass on schedule. A pass already running
// (e.g. kicked off via the API) is not an error; the tick is simply dropped.
type IngestJob struct {
	ingest *service.IngestService
}

func NewIngestJob(ingest *service.IngestService) *IngestJob {
	return &IngestJob{ingest: ingest}
}

func (j *IngestJob) Name() string {
	return "ingest"
}

func (j *IngestJob) Run(ctx context.Context) error {
	if j.ingest == nil {
		return nil
	}
	_, err := j.ingest.ProcessAll(ctx)
	if errors.Is(err, service.ErrIngestInProgress) {
		return nil
	}
	return err
}
