package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kubelearn/kubesim/pkg/types"
)

var (
	// Cluster state metrics
	PodsTotal = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "kubesim_pods_total",
			Help: "Total number of pods by phase",
		},
		[]string{"phase"},
	)

	ObjectsTotal = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "kubesim_objects_total",
			Help: "Total number of objects by kind",
		},
		[]string{"kind"},
	)

	ServiceEndpoints = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "kubesim_service_endpoints",
			Help: "Number of endpoints per service",
		},
		[]string{"service"},
	)

	// Engine metrics
	ReconcileTicksTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "kubesim_reconcile_ticks_total",
			Help: "Total number of reconcile ticks executed",
		},
	)

	EventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kubesim_events_total",
			Help: "Total number of simulation events emitted by type",
		},
		[]string{"type"},
	)

	PodRestartsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "kubesim_pod_restarts_total",
			Help: "Total number of simulated container restarts",
		},
	)
)

func init() {
	prometheus.MustRegister(PodsTotal)
	prometheus.MustRegister(ObjectsTotal)
	prometheus.MustRegister(ServiceEndpoints)
	prometheus.MustRegister(ReconcileTicksTotal)
	prometheus.MustRegister(EventsTotal)
	prometheus.MustRegister(PodRestartsTotal)
}

// Observe refreshes all state gauges from a cluster snapshot. Called by the
// engine at the end of every tick.
func Observe(state *types.ClusterState) {
	PodsTotal.Reset()
	for _, p := range state.Pods {
		PodsTotal.WithLabelValues(string(p.Status.Phase)).Inc()
	}

	ObjectsTotal.WithLabelValues(string(types.KindPod)).Set(float64(len(state.Pods)))
	ObjectsTotal.WithLabelValues(string(types.KindReplicaSet)).Set(float64(len(state.ReplicaSets)))
	ObjectsTotal.WithLabelValues(string(types.KindDeployment)).Set(float64(len(state.Deployments)))
	ObjectsTotal.WithLabelValues(string(types.KindStatefulSet)).Set(float64(len(state.StatefulSets)))
	ObjectsTotal.WithLabelValues(string(types.KindService)).Set(float64(len(state.Services)))
	ObjectsTotal.WithLabelValues(string(types.KindNode)).Set(float64(len(state.Nodes)))
	ObjectsTotal.WithLabelValues(string(types.KindPersistentVolumeClaim)).Set(float64(len(state.VolumeClaims)))

	for _, svc := range state.Services {
		ServiceEndpoints.WithLabelValues(svc.Meta.Name).Set(float64(len(svc.Status.Endpoints)))
	}
}

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}
