package metrics

import (
	"github.com/penglongli/gin-metrics/ginmetrics"
	"go.uber.org/zap"
)

const authRejectionsMetric = "auth_rejections_total"

// GetMonitor configures the shared gin-metrics monitor and registers the
// application counters.
func GetMonitor(path string) *ginmetrics.Monitor {
	m := ginmetrics.GetMonitor()
	m.SetMetricPath(path)
	m.SetSlowTime(1)
	// used to p95, p99
	m.SetDuration([]float64{0.05, 0.1, 0.2, 0.3, 0.5, 1, 2, 5})

	if m.GetMetric(authRejectionsMetric).Name == "" {
		err := m.AddMetric(&ginmetrics.Metric{
			Type:        ginmetrics.Counter,
			Name:        authRejectionsMetric,
			Description: "requests rejected by the authenticate or authorize stage",
			Labels:      []string{"reason"},
		})
		if err != nil {
			zap.L().Warn("Failed to register metric", zap.String("metric", authRejectionsMetric), zap.Error(err))
		}
	}
	return m
}

// RecordAuthRejection counts one rejected request. It is a no-op until
// GetMonitor registered the counter.
func RecordAuthRejection(reason string) {
	_ = ginmetrics.GetMonitor().GetMetric(authRejectionsMetric).Inc([]string{reason})
}
