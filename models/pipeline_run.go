package models

import (
	"time"

	"github.com/google/uuid"
)

// PipelineRun records one invocation of the analysis pipeline.
type PipelineRun struct {
	ID           uuid.UUID         `json:"id"`
	Ticker       string            `json:"ticker"`
	Kind         PipelineRunKind   `json:"kind"`
	Status       PipelineRunStatus `json:"status"`
	FailedStage  Stage             `json:"failed_stage,omitempty"`
	ErrorClass   string            `json:"error_class,omitempty"`
	ErrorMessage string            `json:"error_message,omitempty"`
	Rating       string            `json:"rating,omitempty"`
	ArtifactPath string            `json:"artifact_path,omitempty"`
	MemoPath     string            `json:"memo_path,omitempty"`
	DurationMs   int               `json:"duration_ms"`
	StartedAt    time.Time         `json:"started_at"`
	CompletedAt  *time.Time        `json:"completed_at,omitempty"`
}

type PipelineRunKind string

const (
	PipelineRunKindAnalyze PipelineRunKind = "analyze"
	PipelineRunKindMemo    PipelineRunKind = "memo"
)

type PipelineRunStatus string

const (
	PipelineRunStatusRunning   PipelineRunStatus = "running"
	PipelineRunStatusCompleted PipelineRunStatus = "completed"
	PipelineRunStatusFailed    PipelineRunStatus = "failed"
)

func NewPipelineRun(kind PipelineRunKind, ticker string) *PipelineRun {
	return &PipelineRun{
		ID:        uuid.New(),
		Ticker:    ticker,
		Kind:      kind,
		Status:    PipelineRunStatusRunning,
		StartedAt: time.Now(),
	}
}

func (r *PipelineRun) Complete(rating RecommendationAction) {
	now := time.Now()
	r.CompletedAt = &now
	r.Status = PipelineRunStatusCompleted
	r.Rating = string(rating)
	r.DurationMs = int(now.Sub(r.StartedAt).Milliseconds())
}

func (r *PipelineRun) Fail(err error) {
	now := time.Now()
	r.CompletedAt = &now
	r.Status = PipelineRunStatusFailed
	r.ErrorMessage = err.Error()
	r.ErrorClass = ErrorClass(err)
	if stage, ok := FailedStage(err); ok {
		r.FailedStage = stage
	}
	r.DurationMs = int(now.Sub(r.StartedAt).Milliseconds())
}
