package metrics

import (
	"net/http"
	"os"
	"strconv"

	"github.com/VictoriaMetrics/metrics"
)

var enabled = loadEnabled()

func loadEnabled() bool {
	raw := os.Getenv("METRICS_ENABLED")
	if raw == "" {
		return true
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return true
	}
	return v
}

func IsEnabled() bool {
	return enabled
}

// RecordStatusCallback counts recognized carrier callbacks by status.
func RecordStatusCallback(status string) {
	if !enabled {
		return
	}
	metrics.GetOrCreateCounter(`smstrack_status_callbacks_total{status="` + status + `"}`).Inc()
}

// RecordDroppedEvent counts status events dropped by the reconciler.
func RecordDroppedEvent(reason string) {
	if !enabled {
		return
	}
	metrics.GetOrCreateCounter(`smstrack_dropped_events_total{reason="` + reason + `"}`).Inc()
}

// RecordSend counts outbound send submissions by outcome.
func RecordSend(success bool) {
	if !enabled {
		return
	}
	metrics.GetOrCreateCounter(`smstrack_sends_total{success="` + strconv.FormatBool(success) + `"}`).Inc()
}

// Handler serves the Prometheus text exposition.
func Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		metrics.WritePrometheus(w, true)
	}
}
