// SPDX-License-Identifier: MIT

package cascade

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// TracerName is the instrumentation scope of cascade spans.
const TracerName = "nufate.cascade"

var (
	eigenDecompositions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nufate_eigen_decompositions_total",
			Help: "Eigendecompositions of cascade generators by kind (single, mixing).",
		},
		[]string{"kind"},
	)

	eigenCacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nufate_eigen_cache_hits_total",
			Help: "Eigenbasis lookups served without decomposing, by source (memory, store).",
		},
		[]string{"source"},
	)

	eigenSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "nufate_eigen_decomposition_seconds",
			Help:    "Wall time of one eigendecomposition including the LU factorization.",
			Buckets: prometheus.ExponentialBuckets(1e-4, 4, 10),
		},
	)

	propagations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nufate_propagations_total",
			Help: "Propagation requests by operation.",
		},
		[]string{"op"},
	)
)

func kindOf(mixing bool) string {
	if mixing {
		return "mixing"
	}

	return "single"
}
