// Package e2e provides end-to-end testing infrastructure for the analyst:
// the real pipeline and HTTP API wired against mock data and model servers.
package e2e

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"fundamental-analyst/config"
	"fundamental-analyst/e2e/mocks"
	"fundamental-analyst/internal/api"
	"fundamental-analyst/internal/app"
)

// TestHarness provides the infrastructure for running E2E tests.
type TestHarness struct {
	t          *testing.T
	ctx        context.Context
	cancel     context.CancelFunc
	mockServer *mocks.MockServer
	app        *app.App
	router     http.Handler
	config     *config.Config
}

// NewTestHarness starts the mock servers and wires the application against
// them. Outputs go to a per-test temporary directory. The run log is used
// only when E2E_DATABASE_URL is set.
func NewTestHarness(t *testing.T) *TestHarness {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	h := &TestHarness{t: t, ctx: ctx, cancel: cancel}
	t.Cleanup(h.Teardown)

	h.mockServer = mocks.NewMockServer()
	h.config = h.createTestConfig()

	a, err := app.New(ctx, h.config)
	if err != nil {
		t.Fatalf("failed to build app: %v", err)
	}
	h.app = a

	var runs api.RunLog
	if repo := a.Repo(); repo != nil {
		runs = repo
	}
	h.router = api.NewRouter(api.NewHandler(a.Orchestrator(), a.Store(), runs), h.config)
	return h
}

// Teardown releases every resource the harness started.
func (h *TestHarness) Teardown() {
	if h.app != nil {
		h.app.Shutdown()
	}
	if h.mockServer != nil {
		h.mockServer.Close()
	}
	h.cancel()
}

// Context returns the harness context.
func (h *TestHarness) Context() context.Context {
	return h.ctx
}

// MockServer returns the mock data and model server.
func (h *TestHarness) MockServer() *mocks.MockServer {
	return h.mockServer
}

// App returns the wired application.
func (h *TestHarness) App() *app.App {
	return h.app
}

// Config returns the test configuration.
func (h *TestHarness) Config() *config.Config {
	return h.config
}

// DoRequest sends a request through the API router.
func (h *TestHarness) DoRequest(method, path string, body string) *httptest.ResponseRecorder {
	h.t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	req = req.WithContext(h.ctx)

	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	return w
}

// OutputFile returns the path of name inside the output directory.
func (h *TestHarness) OutputFile(name string) string {
	return filepath.Join(h.config.Storage.OutputDir, name)
}

// Exists reports whether path exists.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func (h *TestHarness) createTestConfig() *config.Config {
	dir := h.t.TempDir()

	cfg := config.NewTestConfig()
	cfg.FMP.APIKey = "e2e-key"
	cfg.FMP.UsingDemoKey = false
	cfg.FMP.BaseURL = h.mockServer.FMPBaseURL()
	cfg.OpenAI.BaseURL = h.mockServer.OpenAIBaseURL()
	cfg.LLM.TimeoutSeconds = 30
	cfg.Storage.OutputDir = filepath.Join(dir, "outputs")
	cfg.Storage.RawDataDir = filepath.Join(dir, "raw")
	cfg.Database.URL = os.Getenv("E2E_DATABASE_URL")
	return cfg
}

// SkipIfNoDatabase skips tests that need the run log.
func SkipIfNoDatabase(t *testing.T) {
	t.Helper()
	if os.Getenv("E2E_DATABASE_URL") == "" {
		t.Skip("E2E_DATABASE_URL not set, skipping run log test")
	}
}
