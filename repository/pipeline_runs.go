package repository

import (
	"context"
	"errors"
	"fmt"

	"fundamental-analyst/models"
	"fundamental-analyst/observability"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const (
	defaultRunsLimit = 50
	maxRunsLimit     = 500
)

const selectRunColumns = `
	SELECT id, ticker, kind, status, failed_stage, error_class, error_message,
		   rating, artifact_path, memo_path, duration_ms, started_at, completed_at
	FROM pipeline_runs`

// CreateRun inserts a new pipeline run record
func (r *Repository) CreateRun(ctx context.Context, run *models.PipelineRun) error {
	if err := r.checkDB(); err != nil {
		return err
	}
	metrics := observability.GetMetrics()
	timer := metrics.NewTimer()
	defer timer.ObserveDB("insert", "pipeline_runs")

	_, err := r.db.Exec(ctx, `
		INSERT INTO pipeline_runs (id, ticker, kind, status, started_at)
		VALUES ($1, $2, $3, $4, $5)
	`, run.ID, run.Ticker, run.Kind, run.Status, run.StartedAt)
	if err != nil {
		metrics.RecordDBError("insert", "pipeline_runs")
		return fmt.Errorf("failed to create pipeline run: %w", err)
	}

	return nil
}

// UpdateRun stores the outcome of a finished pipeline run
func (r *Repository) UpdateRun(ctx context.Context, run *models.PipelineRun) error {
	if err := r.checkDB(); err != nil {
		return err
	}
	metrics := observability.GetMetrics()
	timer := metrics.NewTimer()
	defer timer.ObserveDB("update", "pipeline_runs")

	tag, err := r.db.Exec(ctx, `
		UPDATE pipeline_runs
		SET status = $2, failed_stage = $3, error_class = $4, error_message = $5,
			rating = $6, artifact_path = $7, memo_path = $8, duration_ms = $9, completed_at = $10
		WHERE id = $1
	`, run.ID, run.Status, nullString(string(run.FailedStage)), nullString(run.ErrorClass),
		nullString(run.ErrorMessage), nullString(run.Rating), nullString(run.ArtifactPath),
		nullString(run.MemoPath), run.DurationMs, run.CompletedAt)
	if err != nil {
		metrics.RecordDBError("update", "pipeline_runs")
		return fmt.Errorf("failed to update pipeline run: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("pipeline run %s not found", run.ID)
	}

	return nil
}

// GetRun returns a single pipeline run by ID, or nil when it does not exist
func (r *Repository) GetRun(ctx context.Context, id uuid.UUID) (*models.PipelineRun, error) {
	if err := r.checkDB(); err != nil {
		return nil, err
	}
	metrics := observability.GetMetrics()
	timer := metrics.NewTimer()
	defer timer.ObserveDB("select", "pipeline_runs")

	run, err := scanRun(r.db.QueryRow(ctx, selectRunColumns+` WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		metrics.RecordDBError("select", "pipeline_runs")
		return nil, fmt.Errorf("failed to query pipeline run: %w", err)
	}

	return run, nil
}

// ListRuns returns the most recent runs, newest first, optionally filtered
// by ticker.
func (r *Repository) ListRuns(ctx context.Context, ticker string, limit int) ([]models.PipelineRun, error) {
	if err := r.checkDB(); err != nil {
		return nil, err
	}
	metrics := observability.GetMetrics()
	timer := metrics.NewTimer()
	defer timer.ObserveDB("select", "pipeline_runs")

	if limit <= 0 {
		limit = defaultRunsLimit
	}
	if limit > maxRunsLimit {
		limit = maxRunsLimit
	}

	var rows pgx.Rows
	var err error

	if ticker == "" {
		rows, err = r.db.Query(ctx, selectRunColumns+`
			ORDER BY started_at DESC
			LIMIT $1
		`, limit)
	} else {
		rows, err = r.db.Query(ctx, selectRunColumns+`
			WHERE ticker = $1
			ORDER BY started_at DESC
			LIMIT $2
		`, ticker, limit)
	}
	if err != nil {
		metrics.RecordDBError("select", "pipeline_runs")
		return nil, fmt.Errorf("failed to query pipeline runs: %w", err)
	}
	defer rows.Close()

	runs := make([]models.PipelineRun, 0)
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			metrics.RecordDBError("select", "pipeline_runs")
			return nil, fmt.Errorf("failed to scan pipeline run: %w", err)
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		metrics.RecordDBError("select", "pipeline_runs")
		return nil, fmt.Errorf("failed to iterate pipeline runs: %w", err)
	}

	return runs, nil
}

func scanRun(row pgx.Row) (*models.PipelineRun, error) {
	var run models.PipelineRun
	var failedStage, errorClass, errorMessage, rating, artifactPath, memoPath *string
	var durationMs *int

	err := row.Scan(&run.ID, &run.Ticker, &run.Kind, &run.Status, &failedStage, &errorClass,
		&errorMessage, &rating, &artifactPath, &memoPath, &durationMs, &run.StartedAt, &run.CompletedAt)
	if err != nil {
		return nil, err
	}

	if failedStage != nil {
		run.FailedStage = models.Stage(*failedStage)
	}
	run.ErrorClass = deref(errorClass)
	run.ErrorMessage = deref(errorMessage)
	run.Rating = deref(rating)
	run.ArtifactPath = deref(artifactPath)
	run.MemoPath = deref(memoPath)
	if durationMs != nil {
		run.DurationMs = *durationMs
	}

	return &run, nil
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
