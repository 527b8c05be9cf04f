package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the inventory module.
type Metrics struct {
	CopiesRegistered    prometheus.Counter
	TransitionConflicts prometheus.Counter
	CopiesWrittenOff    prometheus.Counter
}

// New creates a Metrics instance with all inventory metrics registered.
func New() *Metrics {
	return &Metrics{
		CopiesRegistered: promauto.NewCounter(prometheus.CounterOpts{
			Name: "folio_copies_registered_total",
			Help: "Total number of physical copies registered",
		}),
		TransitionConflicts: promauto.NewCounter(prometheus.CounterOpts{
			Name: "folio_copy_transition_conflicts_total",
			Help: "Status transitions rejected because another caller won the race",
		}),
		CopiesWrittenOff: promauto.NewCounter(prometheus.CounterOpts{
			Name: "folio_copies_written_off_total",
			Help: "Copies marked lost or damaged",
		}),
	}
}
