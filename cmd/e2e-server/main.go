// Package main serves the mock Financial Modeling Prep and OpenAI endpoints
// on a fixed port so the analyst binary can be exercised without network
// access or API keys.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"fundamental-analyst/e2e/mocks"
	"fundamental-analyst/observability"
)

func main() {
	observability.Configure("text", "debug")

	port := os.Getenv("E2E_SERVER_PORT")
	if port == "" {
		port = "9090"
	}

	handler := mocks.NewMockHandler()
	for _, ticker := range strings.Split(os.Getenv("E2E_TICKERS"), ",") {
		if ticker = strings.TrimSpace(strings.ToUpper(ticker)); ticker != "" {
			handler.SetCompany(ticker, mocks.DefaultCompany(ticker))
		}
	}

	server := &http.Server{
		Addr:              ":" + port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	base := "http://localhost:" + port
	observability.Info("mock providers listening",
		"port", port,
		"FMP_BASE_URL", base+mocks.FMPPrefix,
		"OPENAI_BASE_URL", base+mocks.OpenAIPrefix+"/")

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			observability.Error("mock server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		observability.Error("shutdown failed", "error", err)
	}
	observability.Info("mock server stopped")
}
