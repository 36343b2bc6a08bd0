package board

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/gosuda/kanban/internal/domain"
)

var (
	// mutationsTotal counts board commands by kind and outcome.
	mutationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kanban_board_mutations_total",
		Help: "Total board mutations by command kind and outcome",
	}, []string{"kind", "outcome"})

	mutationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "kanban_board_mutation_duration_seconds",
		Help:    "Board mutation latency including persistence",
		Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
	}, []string{"kind"})

	storesLoaded = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "kanban_board_stores_loaded",
		Help: "Number of boards held in memory",
	})
)

const (
	outcomeOK         = "ok"
	outcomeReplayed   = "replayed"
	outcomeValidation = "validation"
	outcomeNotFound   = "not_found"
	outcomeError      = "error"
)

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return outcomeOK
	case errors.Is(err, domain.ErrValidation):
		return outcomeValidation
	case errors.Is(err, domain.ErrNotFound):
		return outcomeNotFound
	default:
		return outcomeError
	}
}
