package utils

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Database Metrics
var DBQueryDurationSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "db_query_duration_seconds",
	Help:    "Duration of database queries in seconds.",
	Buckets: prometheus.DefBuckets,
}, []string{"query_type", "repository", "status"})

var DBQueryErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "db_query_errors_total",
	Help: "Total number of failed database queries.",
}, []string{"query_type", "repository"})

// ObserveQuery records the duration and outcome of one repository call. Call
// it with defer and a pointer to the call's error.
//
//	defer utils.ObserveQuery("create", "user", time.Now(), &err)
func ObserveQuery(queryType, repository string, start time.Time, err *error) {
	status := "success"
	if err != nil && *err != nil {
		status = "error"
		DBQueryErrorsTotal.WithLabelValues(queryType, repository).Inc()
	}
	DBQueryDurationSeconds.WithLabelValues(queryType, repository, status).Observe(time.Since(start).Seconds())
}
