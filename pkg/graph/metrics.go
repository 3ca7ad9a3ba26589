package graph

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// nodesAdded counts nodes inserted into any graph in this process
	nodesAdded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "schedgraph_graph_nodes_total",
			Help: "Total number of nodes inserted, by kind",
		},
		[]string{"kind"},
	)

	// edgesAdded counts hyperedges inserted into any graph in this process
	edgesAdded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "schedgraph_graph_edges_total",
			Help: "Total number of hyperedges inserted, by type",
		},
		[]string{"type"},
	)

	// insertRejections counts mutations refused by validation
	insertRejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "schedgraph_graph_rejections_total",
			Help: "Total number of rejected graph mutations, by operation",
		},
		[]string{"operation"},
	)

	graphFrozen = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "schedgraph_graph_frozen",
			Help: "1 once a graph in this process has been frozen",
		},
	)
)

func init() {
	prometheus.MustRegister(nodesAdded)
	prometheus.MustRegister(edgesAdded)
	prometheus.MustRegister(insertRejections)
	prometheus.MustRegister(graphFrozen)
}

// countRejection is deferred by mutating operations with their named error.
func countRejection(operation string, err *error) {
	if *err != nil {
		insertRejections.WithLabelValues(operation).Inc()
	}
}
