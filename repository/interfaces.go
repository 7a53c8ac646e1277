package repository

import (
	"context"

	"fundamental-analyst/models"

	"github.com/google/uuid"
)

// RunStore persists pipeline run records
type RunStore interface {
	CreateRun(ctx context.Context, run *models.PipelineRun) error
	UpdateRun(ctx context.Context, run *models.PipelineRun) error
	GetRun(ctx context.Context, id uuid.UUID) (*models.PipelineRun, error)
	ListRuns(ctx context.Context, ticker string, limit int) ([]models.PipelineRun, error)
}

// ArtifactStore persists analysis artifacts and memos
type ArtifactStore interface {
	SaveArtifact(artifact *models.AnalysisArtifact) (string, error)
	LoadArtifact(ticker string) (*models.AnalysisArtifact, error)
	SaveMemo(memo *models.InvestmentMemo) (string, error)
	RemoveMemo(ticker string) error
	ArtifactPath(ticker string) string
	MemoPath(ticker string) string
}

// SnapshotStore writes raw provider data for inspection
type SnapshotStore interface {
	WriteStatements(set *models.FinancialStatementSet) (map[string]string, error)
	WritePrices(series *models.PriceSeries) (string, error)
	WriteProfile(profile *models.CompanyProfile) (string, error)
}

// Compile-time interface verification
var (
	_ RunStore      = (*Repository)(nil)
	_ ArtifactStore = (*FileStore)(nil)
	_ SnapshotStore = (*FileStore)(nil)
)
