package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the party registry.
type Metrics struct {
	PartiesCreated     prometheus.Counter
	PartiesApproved    prometheus.Counter
	MemberJoins        prometheus.Counter
	MemberLeaves       prometheus.Counter
	LeadershipChanges  prometheus.Counter
	RejectedOperations *prometheus.CounterVec
	EventsDropped      prometheus.Counter
}

// New registers all registry metrics on the default registerer.
func New() *Metrics {
	return &Metrics{
		PartiesCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "partyreg_parties_created_total",
			Help: "Total number of parties created",
		}),
		PartiesApproved: promauto.NewCounter(prometheus.CounterOpts{
			Name: "partyreg_parties_approved_total",
			Help: "Total number of parties approved",
		}),
		MemberJoins: promauto.NewCounter(prometheus.CounterOpts{
			Name: "partyreg_member_joins_total",
			Help: "Total number of successful joins across all parties",
		}),
		MemberLeaves: promauto.NewCounter(prometheus.CounterOpts{
			Name: "partyreg_member_leaves_total",
			Help: "Total number of leaves, removals and ban-removals",
		}),
		LeadershipChanges: promauto.NewCounter(prometheus.CounterOpts{
			Name: "partyreg_leadership_changes_total",
			Help: "Total number of leadership transfers, forced included",
		}),
		RejectedOperations: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "partyreg_rejected_operations_total",
			Help: "Precondition rejections by error code",
		}, []string{"code"}),
		EventsDropped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "partyreg_events_dropped_total",
			Help: "Domain events dropped because the worker inbox was full",
		}),
	}
}
