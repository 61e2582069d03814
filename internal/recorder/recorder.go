package recorder

import (
	"context"

	"github.com/google/uuid"

	"MarketPulse/internal/model"
)

// Recorder keeps a history of analysis runs for later reporting. Signals
// recorded here are a log; the pipeline never reads them back.
type Recorder interface {
	RecordAnalysis(ctx context.Context, runID string, a *model.Analysis) error
	RecordVolume(ctx context.Context, runID string, s *model.VolumeSummary) error
	Close() error
}

// NewRunID returns a fresh identifier grouping the records of one job run.
func NewRunID() string {
	return uuid.NewString()
}
