package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/aidanlsb/ifcq/internal/index"
)

var (
	mQueries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ifcq_queries_total",
		Help: "Number of queries served, by outcome.",
	}, []string{"outcome"})
	mQuerySeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name: "ifcq_query_seconds",
		Help: "Time to parse and evaluate a query.",
	})
	mQueryMatches = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "ifcq_query_matches",
		Help:    "Number of elements matched by a query.",
		Buckets: prometheus.ExponentialBuckets(1, 4, 8),
	})

	mPublishes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ifcq_index_publish_total",
		Help: "Number of index snapshots published per model.",
	}, []string{"model"})
	mIndexTriples = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "ifcq_index_triples",
		Help: "Triples in the current index of a model.",
	}, []string{"model"})
	mIndexElements = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "ifcq_index_elements",
		Help: "Elements in the current index of a model.",
	}, []string{"model"})
	mIndexSkipped = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "ifcq_index_skipped_elements",
		Help: "Elements skipped by the last extraction of a model.",
	}, []string{"model"})
)

const (
	outcomeOK        = "ok"
	outcomeMalformed = "malformed"
	outcomeError     = "error"
)

func observeSnapshot(s *index.Snapshot) {
	mPublishes.WithLabelValues(s.ModelID).Inc()
	mIndexTriples.WithLabelValues(s.ModelID).Set(float64(len(s.Triples)))
	mIndexElements.WithLabelValues(s.ModelID).Set(float64(s.ElementCount()))
	mIndexSkipped.WithLabelValues(s.ModelID).Set(float64(s.Stats.Skipped))
}
