package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "docregistry"

// Metrics holds the Prometheus counters for the relationship store.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	DocumentsCreated    prometheus.Counter
	PeopleCreated       prometheus.Counter
	DocumentsAssigned   prometheus.Counter
	AssignmentConflicts prometheus.Counter
}

// New creates the counters and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		DocumentsCreated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_created_total",
			Help:      "Total number of documents created.",
		}),
		PeopleCreated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "people_created_total",
			Help:      "Total number of people created.",
		}),
		DocumentsAssigned: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_assigned_total",
			Help:      "Total number of documents linked to a person.",
		}),
		AssignmentConflicts: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "assignment_conflicts_total",
			Help:      "Writes rejected by a person/document constraint.",
		}),
	}
}

func (m *Metrics) IncDocumentsCreated() {
	if m != nil {
		m.DocumentsCreated.Inc()
	}
}

func (m *Metrics) IncPeopleCreated() {
	if m != nil {
		m.PeopleCreated.Inc()
	}
}

func (m *Metrics) IncDocumentsAssigned() {
	if m != nil {
		m.DocumentsAssigned.Inc()
	}
}

func (m *Metrics) IncAssignmentConflicts() {
	if m != nil {
		m.AssignmentConflicts.Inc()
	}
}
