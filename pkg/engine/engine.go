package engine

import (
	"fmt"
	"sort"

	"github.com/kubelearn/kubesim/pkg/controller"
	"github.com/kubelearn/kubesim/pkg/events"
	"github.com/kubelearn/kubesim/pkg/log"
	"github.com/kubelearn/kubesim/pkg/metrics"
	"github.com/kubelearn/kubesim/pkg/types"
	"github.com/kubelearn/kubesim/pkg/uid"
)

// Engine runs the control loop over cluster snapshots. One Reconcile call is
// one discrete tick: the prior snapshot is copied, every controller runs in
// the fixed dependency order, emitted events are flushed into the audit log
// and engine invariants are asserted. Reconcile is deterministic and total;
// it never fails for well-formed input.
type Engine struct {
	controllers []controller.Controller
	uids        uid.Generator
	failures    types.FailureMap
}

// New creates an engine with the standard controller chain. The failure map
// is shared with the session, so injections made between ticks are visible
// to the next tick without rebuilding the engine.
func New(uids uid.Generator, failures types.FailureMap) *Engine {
	return &Engine{
		controllers: []controller.Controller{
			controller.NewDeploymentController(),
			controller.NewReplicaSetController(),
			controller.NewStatefulSetController(),
			controller.NewPodPhaseController(),
			controller.NewEndpointsController(),
			controller.NewStatusController(),
		},
		uids:     uids,
		failures: failures,
	}
}

// Reconcile advances the simulation by one tick and returns the new
// snapshot. The prior snapshot is never mutated, so no partial state is
// visible externally mid-tick.
func (e *Engine) Reconcile(prior *types.ClusterState) *types.ClusterState {
	next := prior.DeepCopy()
	next.Tick++

	logger := log.WithComponent("engine")
	rec := events.NewRecorder(next.Tick)
	rctx := &controller.Context{
		UIDs:     e.uids,
		Failures: e.failures,
		Recorder: rec,
		Log:      logger,
	}

	for _, c := range e.controllers {
		rctx.Log = log.WithController(c.Name())
		c.Reconcile(next, rctx)
	}

	for _, ev := range rec.Events() {
		metrics.EventsTotal.WithLabelValues(string(ev.Type)).Inc()
	}
	rec.FlushTo(next)

	e.assertInvariants(next)

	metrics.ReconcileTicksTotal.Inc()
	metrics.Observe(next)

	logger.Debug().
		Int("tick", next.Tick).
		Int("pods", len(next.Pods)).
		Msg("reconcile tick complete")
	return next
}

// assertInvariants verifies structural properties that must hold at the end
// of every tick. A violation is a programming bug, not a simulated failure,
// and panics rather than being silently tolerated: downstream goal checks
// depend on these properties.
func (e *Engine) assertInvariants(state *types.ClusterState) {
	e.assertOrdinalContiguity(state)
	e.assertOwnersResolvable(state)
}

// assertOrdinalContiguity checks that every stateful set's existing pod
// ordinals, terminating pods included, form a contiguous prefix [0, k).
func (e *Engine) assertOrdinalContiguity(state *types.ClusterState) {
	for _, sts := range state.StatefulSets {
		var ords []int
		for _, pod := range state.PodsOwnedBy(sts.Meta.UID) {
			if ord, ok := controller.OrdinalOf(sts.Meta.Name, pod.Meta.Name); ok {
				ords = append(ords, ord)
			}
		}
		sort.Ints(ords)
		for i, ord := range ords {
			if ord != i {
				panic(fmt.Sprintf("engine invariant violated: statefulset %s has non-contiguous ordinals %v",
					sts.Meta.Name, ords))
			}
		}
	}
}

// assertOwnersResolvable checks that no owner reference dangles: every owned
// object's owner must still exist, since owners are only removed after their
// children are gone.
func (e *Engine) assertOwnersResolvable(state *types.ClusterState) {
	owners := make(map[string]bool)
	for _, d := range state.Deployments {
		owners[d.Meta.UID] = true
	}
	for _, rs := range state.ReplicaSets {
		owners[rs.Meta.UID] = true
	}
	for _, sts := range state.StatefulSets {
		owners[sts.Meta.UID] = true
	}

	for _, rs := range state.ReplicaSets {
		if ref := rs.Meta.OwnerReference; ref != nil && !owners[ref.UID] {
			panic(fmt.Sprintf("engine invariant violated: replicaset %s references missing owner %s/%s",
				rs.Meta.Name, ref.Kind, ref.Name))
		}
	}
	for _, pod := range state.Pods {
		if ref := pod.Meta.OwnerReference; ref != nil && !owners[ref.UID] {
			panic(fmt.Sprintf("engine invariant violated: pod %s references missing owner %s/%s",
				pod.Meta.Name, ref.Kind, ref.Name))
		}
	}
}
