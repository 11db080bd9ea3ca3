package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// Latency of a full plan generation run
	PlanGenerateDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "plan_generate_duration_seconds",
		Help:    "Latency of allocation plan generation",
		Buckets: prometheus.DefBuckets,
	})

	// Shipment events placed by the generator
	PlanEventsGenerated = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "plan_events_generated_total",
		Help: "Total shipment events placed into draft plans",
	})

	// Demand units the generator could not place inside their month
	PlanEventsDeferred = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "plan_events_deferred_total",
		Help: "Total demand units reported as unplaceable",
	})

	PlanMergeTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "plan_merge_total",
		Help: "Plan merges committed, by strategy",
	}, []string{"strategy"})

	ReassignPreviewTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "reassign_preview_total",
		Help: "Bulk reassignment previews served",
	})

	ReassignExecuteTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "reassign_execute_total",
		Help: "Bulk reassignment executions committed",
	})

	ReassignRowsUpdated = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "reassign_rows_updated_total",
		Help: "Plan detail rows re-pointed by bulk reassignment",
	})
)

func Init() {
	prometheus.MustRegister(
		PlanGenerateDuration,
		PlanEventsGenerated,
		PlanEventsDeferred,
		PlanMergeTotal,
		ReassignPreviewTotal,
		ReassignExecuteTotal,
		ReassignRowsUpdated,
	)
}
