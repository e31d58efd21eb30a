package relations

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricRelationsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "quill",
		Subsystem: "relations",
		Name:      "edges_created_total",
		Help:      "Content relations created, by relation type.",
	}, []string{"relation_type"})

	metricRelationsDeleted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "quill",
		Subsystem: "relations",
		Name:      "edges_deleted_total",
		Help:      "Content relations deleted by direct requests.",
	})

	metricConstraintViolations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "quill",
		Subsystem: "relations",
		Name:      "constraint_violations_total",
		Help:      "Edge mutations rejected by cardinality rules, by rule name.",
	}, []string{"rule"})

	metricCascadeEdgesDeleted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "quill",
		Subsystem: "relations",
		Name:      "cascade_edges_deleted_total",
		Help:      "Edges removed while applying cascade behavior on entry deletion.",
	}, []string{"behavior"})

	metricTraversalDepthClamped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "quill",
		Subsystem: "relations",
		Name:      "traversal_depth_clamped_total",
		Help:      "Traversal requests whose max_depth exceeded the server ceiling.",
	})
)
