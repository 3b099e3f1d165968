package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics owned by the case feature.
type Metrics struct {
	CasesCreated prometheus.Counter
	CasesDeleted prometheus.Counter
	TeamEdits    prometheus.Counter
	CascadeSize  prometheus.Histogram
}

// New creates and registers the case metrics.
func New() *Metrics {
	return &Metrics{
		CasesCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "odonto_cases_created_total",
			Help: "Total cases created.",
		}),
		CasesDeleted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "odonto_cases_deleted_total",
			Help: "Total cases deleted (cascades included).",
		}),
		TeamEdits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "odonto_case_team_edits_total",
			Help: "Total team membership additions and removals.",
		}),
		CascadeSize: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "odonto_case_cascade_deleted_records",
			Help:    "Victim, odontogram and evidence records removed per case deletion.",
			Buckets: []float64{0, 1, 2, 5, 10, 25, 50, 100},
		}),
	}
}

func (m *Metrics) IncrementCasesCreated() {
	if m != nil {
		m.CasesCreated.Inc()
	}
}

func (m *Metrics) IncrementCasesDeleted() {
	if m != nil {
		m.CasesDeleted.Inc()
	}
}

func (m *Metrics) IncrementTeamEdits() {
	if m != nil {
		m.TeamEdits.Inc()
	}
}

func (m *Metrics) ObserveCascade(records int) {
	if m != nil {
		m.CascadeSize.Observe(float64(records))
	}
}
