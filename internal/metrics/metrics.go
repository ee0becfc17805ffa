package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "rsvpd"

// Registry holds every rsvpd collector and backs the /metrics endpoint.
var Registry = prometheus.NewRegistry()

// MembershipOperations counts join and leave calls by outcome.
var MembershipOperations = promauto.With(Registry).NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "membership_operations_total",
		Help:      "Total number of membership operations by result",
	},
	[]string{"op", "outcome"}, // op: join|leave, outcome: ok|not_found|already_member|capacity_exceeded|conflict|unauthorized|error
)

// MembershipRetries counts version conflicts that forced a join or update to
// re-read the event.
var MembershipRetries = promauto.With(Registry).NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "version_conflict_retries_total",
		Help:      "Total number of optimistic concurrency retries",
	},
	[]string{"op"},
)

// EnhanceFallbacks counts enhancement requests answered with the original text.
var EnhanceFallbacks = promauto.With(Registry).NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "enhance_fallbacks_total",
		Help:      "Total number of text enhancements that fell back to the original description",
	},
)

// Init registers the Go runtime and process collectors.
func Init() {
	Registry.MustRegister(collectors.NewGoCollector())
	Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
}
