package calendarsvc

import "github.com/prometheus/client_golang/prometheus"

var (
	// fetchesTotal counts completed fetches by kind (countries, holidays) and result (success, stale, failure)
	fetchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "calendar_fetches_total",
			Help: "Total number of completed holiday source fetches",
		},
		[]string{"kind", "result"},
	)

	fetchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "calendar_fetch_duration_seconds",
			Help:    "Duration of holiday source fetches in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 15},
		},
		[]string{"kind"},
	)
)

func init() {
	prometheus.MustRegister(fetchesTotal)
	prometheus.MustRegister(fetchDuration)
}

//recordFetchMetrics counts outcome and observes its duration
func recordFetchMetrics(outcome FetchOutcome) {
	fetchesTotal.WithLabelValues(outcome.Kind, outcome.result()).Inc()
	fetchDuration.WithLabelValues(outcome.Kind).Observe(outcome.Duration.Seconds())
}
