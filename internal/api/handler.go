package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"fundamental-analyst/analysis"
	"fundamental-analyst/models"
	"fundamental-analyst/observability"
	"fundamental-analyst/pipeline"
	"fundamental-analyst/services"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// maxRequestBody caps the analyze request body.
const maxRequestBody = 1 << 16

// Analyzer runs the analysis pipeline.
type Analyzer interface {
	RunWithAssumptions(ctx context.Context, ticker string, a analysis.Assumptions) (*pipeline.Result, error)
	RegenerateMemo(ctx context.Context, ticker string) (*pipeline.Result, error)
	Assumptions() analysis.Assumptions
}

// ArtifactReader loads persisted analysis artifacts.
type ArtifactReader interface {
	LoadArtifact(ticker string) (*models.AnalysisArtifact, error)
}

// RunLog lists recorded pipeline runs.
type RunLog interface {
	GetRun(ctx context.Context, id uuid.UUID) (*models.PipelineRun, error)
	ListRuns(ctx context.Context, ticker string, limit int) ([]models.PipelineRun, error)
	Health(ctx context.Context) error
}

// Handler handles HTTP API requests
type Handler struct {
	analyzer  Analyzer
	artifacts ArtifactReader
	runs      RunLog
	validate  *validator.Validate
}

// NewHandler creates a new Handler. runs may be nil when no database is
// configured.
func NewHandler(analyzer Analyzer, artifacts ArtifactReader, runs RunLog) *Handler {
	return &Handler{
		analyzer:  analyzer,
		artifacts: artifacts,
		runs:      runs,
		validate:  validator.New(),
	}
}

// AnalyzeRequest overrides the default valuation assumptions for one run.
// Every field is optional.
type AnalyzeRequest struct {
	GrowthRate         *float64 `json:"growth_rate" validate:"omitempty,gt=-1,lt=10"`
	DiscountRate       *float64 `json:"discount_rate" validate:"omitempty,gt=-1,lt=10"`
	TerminalGrowthRate *float64 `json:"terminal_growth_rate" validate:"omitempty,gt=-1,lt=10"`
	ProjectionYears    *int     `json:"projection_years" validate:"omitempty,min=1,max=50"`
}

// Apply returns base with the request's overrides applied.
func (req AnalyzeRequest) Apply(base analysis.Assumptions) analysis.Assumptions {
	a := base
	if req.GrowthRate != nil {
		a.GrowthRate = *req.GrowthRate
	}
	if req.DiscountRate != nil {
		a.DiscountRate = *req.DiscountRate
	}
	if req.TerminalGrowthRate != nil {
		tg := *req.TerminalGrowthRate
		a.TerminalGrowthRate = &tg
	}
	if req.ProjectionYears != nil {
		a.ProjectionYears = *req.ProjectionYears
	}
	return a
}

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Error      string `json:"error"`
	Stage      string `json:"stage,omitempty"`
	ErrorClass string `json:"error_class,omitempty"`
}

// HandleHealth returns the health status of the application
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	database := "not_configured"
	if h.runs != nil {
		if err := h.runs.Health(r.Context()); err == nil {
			database = "connected"
		} else {
			database = "disconnected"
			status = "degraded"
		}
	}

	cbStatus := services.GetGlobalRegistry().Status()
	for _, cb := range cbStatus {
		if cb.State == "open" {
			status = "degraded"
			break
		}
	}

	h.jsonResponse(w, http.StatusOK, map[string]any{
		"status":           status,
		"services":         map[string]string{"database": database},
		"circuit_breakers": cbStatus,
	})
}

// HandleAnalyze runs the full pipeline for the ticker in the path.
func (h *Handler) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	ticker, ok := h.tickerParam(w, r)
	if !ok {
		return
	}

	var req AnalyzeRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody)).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		h.jsonError(w, http.StatusBadRequest, ErrorResponse{Error: "invalid JSON request: " + err.Error()})
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.jsonError(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	result, err := h.analyzer.RunWithAssumptions(r.Context(), ticker, req.Apply(h.analyzer.Assumptions()))
	if err != nil {
		h.pipelineError(w, r, err)
		return
	}
	h.jsonResponse(w, http.StatusOK, result)
}

// HandleRegenerateMemo rewrites the memo from the persisted artifact.
func (h *Handler) HandleRegenerateMemo(w http.ResponseWriter, r *http.Request) {
	ticker, ok := h.tickerParam(w, r)
	if !ok {
		return
	}

	result, err := h.analyzer.RegenerateMemo(r.Context(), ticker)
	if err != nil {
		h.pipelineError(w, r, err)
		return
	}
	h.jsonResponse(w, http.StatusOK, result)
}

// HandleGetAnalysis returns the persisted artifact for a ticker.
func (h *Handler) HandleGetAnalysis(w http.ResponseWriter, r *http.Request) {
	ticker, ok := h.tickerParam(w, r)
	if !ok {
		return
	}

	artifact, err := h.artifacts.LoadArtifact(ticker)
	if err != nil {
		h.pipelineError(w, r, err)
		return
	}
	h.jsonResponse(w, http.StatusOK, artifact)
}

// HandleGetRuns returns recent pipeline runs, newest first.
func (h *Handler) HandleGetRuns(w http.ResponseWriter, r *http.Request) {
	if h.runs == nil {
		h.jsonError(w, http.StatusServiceUnavailable, ErrorResponse{Error: "run log not configured"})
		return
	}

	ticker := r.URL.Query().Get("ticker")
	if ticker != "" {
		normalized, err := models.NormalizeTicker(ticker)
		if err != nil {
			h.jsonError(w, http.StatusBadRequest, ErrorResponse{Error: err.Error(), ErrorClass: models.ErrorClass(err)})
			return
		}
		ticker = normalized
	}

	runs, err := h.runs.ListRuns(r.Context(), ticker, ParseLimitParam(r, 50))
	if err != nil {
		h.jsonError(w, http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}
	if runs == nil {
		runs = []models.PipelineRun{}
	}
	h.jsonResponse(w, http.StatusOK, runs)
}

// HandleGetRun returns a single pipeline run by ID.
func (h *Handler) HandleGetRun(w http.ResponseWriter, r *http.Request) {
	if h.runs == nil {
		h.jsonError(w, http.StatusServiceUnavailable, ErrorResponse{Error: "run log not configured"})
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.jsonError(w, http.StatusBadRequest, ErrorResponse{Error: "invalid run id"})
		return
	}

	run, err := h.runs.GetRun(r.Context(), id)
	if err != nil {
		h.jsonError(w, http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}
	if run == nil {
		h.jsonError(w, http.StatusNotFound, ErrorResponse{Error: "run not found"})
		return
	}
	h.jsonResponse(w, http.StatusOK, run)
}

func (h *Handler) tickerParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	ticker, err := models.NormalizeTicker(chi.URLParam(r, "ticker"))
	if err != nil {
		h.jsonError(w, http.StatusBadRequest, ErrorResponse{Error: err.Error(), ErrorClass: models.ErrorClass(err)})
		return "", false
	}
	return ticker, true
}

// StatusForError maps the error taxonomy to an HTTP status code.
func StatusForError(err error) int {
	switch {
	case errors.Is(err, models.ErrInvalidTicker):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrArtifactNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrInvalidValuationAssumptions):
		return http.StatusUnprocessableEntity
	case errors.Is(err, models.ErrDataUnavailable), errors.Is(err, models.ErrMemoGenerationFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) pipelineError(w http.ResponseWriter, r *http.Request, err error) {
	resp := ErrorResponse{Error: err.Error(), ErrorClass: models.ErrorClass(err)}
	if stage, ok := models.FailedStage(err); ok {
		resp.Stage = string(stage)
	}
	status := StatusForError(err)
	if status >= http.StatusInternalServerError {
		observability.WithContext(r.Context()).Error("request failed",
			"path", r.URL.Path, "status", status, "error", err)
	}
	h.jsonError(w, status, resp)
}

// ParseLimitParam parses the limit query parameter
func ParseLimitParam(r *http.Request, defaultLimit int) int {
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			return l
		}
	}
	return defaultLimit
}

func (h *Handler) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		observability.Warn("failed to encode response", "error", err)
	}
}

func (h *Handler) jsonError(w http.ResponseWriter, status int, resp ErrorResponse) {
	h.jsonResponse(w, status, resp)
}
