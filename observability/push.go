package observability

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// PushJob is the Pushgateway job name used for CLI runs.
const PushJob = "fundamental_analyst"

// PushMetrics sends the metrics gathered by g to a Prometheus Pushgateway.
// CLI runs exit before they can be scraped, so they push instead.
func PushMetrics(ctx context.Context, url string, g prometheus.Gatherer, grouping map[string]string) error {
	if g == nil {
		g = prometheus.DefaultGatherer
	}
	pusher := push.New(url, PushJob).Gatherer(g)
	for k, v := range grouping {
		pusher = pusher.Grouping(k, v)
	}
	if err := pusher.PushContext(ctx); err != nil {
		return fmt.Errorf("push metrics to %s: %w", url, err)
	}
	return nil
}
