package recorder

import (
	"context"

	"MarketPulse/internal/model"
)

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordAnalysis(context.Context, string, *model.Analysis) error    { return nil }
func (n *NoopRecorder) RecordVolume(context.Context, string, *model.VolumeSummary) error { return nil }
func (n *NoopRecorder) Close() error                                                     { return nil }
