package services

import (
	"context"
	"strings"

	"fundamental-analyst/observability"
)

// instrumented runs fn behind the named circuit breaker and records request,
// latency, and error metrics under the same service name.
func instrumented[T any](ctx context.Context, service, operation string, fn func() (T, error)) (T, error) {
	metrics := observability.GetMetrics()
	metrics.RecordExternalAPIRequest(service, operation)
	timer := metrics.NewTimer()

	result, err := WithCircuitBreaker(ctx, service, fn)

	timer.ObserveExternalAPI(service, operation)
	if err != nil {
		metrics.RecordExternalAPIError(service, operation, categorizeAPIError(err))
	}
	return result, err
}

// categorizeAPIError categorizes an error for metrics purposes
func categorizeAPIError(err error) string {
	if err == nil {
		return "none"
	}
	errStr := strings.ToLower(err.Error())
	switch {
	case contains(errStr, "timeout", "deadline"):
		return "timeout"
	case contains(errStr, "rate limit", "429", "throttl"):
		return "rate_limit"
	case contains(errStr, "unauthorized", "401", "403"):
		return "auth_error"
	case contains(errStr, "circuit breaker"):
		return "circuit_open"
	case contains(errStr, "connection", "network"):
		return "connection_error"
	case IsClientError(err):
		return "client_error"
	default:
		return "unknown"
	}
}

// contains checks if the string contains any of the substrings
func contains(s string, substrs ...string) bool {
	for _, sub := range substrs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
