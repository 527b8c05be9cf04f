package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the loan module.
type Metrics struct {
	LoansIssued       prometheus.Counter
	LoansExtended     prometheus.Counter
	LoansReturned     prometheus.Counter
	IssueConflicts    prometheus.Counter
	RestrictedDenials prometheus.Counter
	PenaltiesAssessed prometheus.Counter
	PenaltyAmounts    prometheus.Histogram
}

// New creates a Metrics instance with all loan metrics registered.
func New() *Metrics {
	return &Metrics{
		LoansIssued: promauto.NewCounter(prometheus.CounterOpts{
			Name: "folio_loans_issued_total",
			Help: "Total number of loans issued",
		}),
		LoansExtended: promauto.NewCounter(prometheus.CounterOpts{
			Name: "folio_loans_extended_total",
			Help: "Total number of loan due date extensions",
		}),
		LoansReturned: promauto.NewCounter(prometheus.CounterOpts{
			Name: "folio_loans_returned_total",
			Help: "Total number of loans returned",
		}),
		IssueConflicts: promauto.NewCounter(prometheus.CounterOpts{
			Name: "folio_loan_issue_conflicts_total",
			Help: "Issue attempts that lost the race for a copy",
		}),
		RestrictedDenials: promauto.NewCounter(prometheus.CounterOpts{
			Name: "folio_loan_restricted_denials_total",
			Help: "Issue attempts vetoed by the restriction policy",
		}),
		PenaltiesAssessed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "folio_penalties_assessed_total",
			Help: "Returns that were charged a late penalty",
		}),
		PenaltyAmounts: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "folio_penalty_amount_cents",
			Help:    "Assessed penalty amounts in cents",
			Buckets: []float64{100, 250, 500, 1000, 2500, 5000, 10000},
		}),
	}
}
