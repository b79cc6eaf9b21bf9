package controller

import (
	"github.com/kubelearn/kubesim/pkg/events"
	"github.com/kubelearn/kubesim/pkg/metrics"
	"github.com/kubelearn/kubesim/pkg/types"
)

// PodPhaseController advances each pod's lifecycle one step per tick.
// Healthy pods move Pending to Running on the tick after creation; injected
// failure modes divert them into ImagePullError, CrashLoopBackOff oscillation
// or OOM kills. Deletion-marked pods become Terminating and are physically
// removed once their grace period elapses, except stateful-set pods whose
// removal belongs to their owner. Placement consults the node capacity
// ledger; pods that fit nowhere stay Pending as unschedulable.
type PodPhaseController struct {
	gracePeriod int
}

// NewPodPhaseController creates a new pod phase controller.
func NewPodPhaseController() *PodPhaseController {
	return &PodPhaseController{gracePeriod: PodGracePeriodTicks}
}

// Name returns the controller name.
func (c *PodPhaseController) Name() string {
	return "podphase"
}

// Reconcile runs one phase-transition pass over every pod.
func (c *PodPhaseController) Reconcile(state *types.ClusterState, rctx *Context) {
	alloc := c.allocations(state)

	pods := append([]*types.Pod(nil), state.Pods...)
	for _, pod := range pods {
		if pod.Meta.Terminating() {
			c.terminate(pod, state, rctx)
			continue
		}
		if pod.Meta.CreationTick >= state.Tick {
			// Created this tick; first transition happens next tick.
			continue
		}

		switch pod.Status.Phase {
		case types.PodPending:
			c.syncPending(pod, state, alloc, rctx)
		case types.PodRunning:
			c.syncRunning(pod, rctx)
		case types.PodCrashLoopBackOff:
			// Restart attempt: back to Running until the next crash.
			pod.Status.Phase = types.PodRunning
			rctx.Recorder.Normalf(types.KindPod, pod.Meta.Name, events.ReasonStarted,
				"restarted container (restart count %d)", pod.Status.RestartCount)
		case types.PodSucceeded, types.PodFailed:
			// Terminal.
		}
	}

	c.updateNodeLedger(state)
}

// terminate moves a deletion-marked pod to Terminating and reaps it after
// the grace period. Stateful-set pods are reaped by their own controller so
// ordinal identity can be preserved in the same step.
func (c *PodPhaseController) terminate(pod *types.Pod, state *types.ClusterState, rctx *Context) {
	if pod.Status.Phase != types.PodTerminating {
		pod.Status.Phase = types.PodTerminating
		rctx.Recorder.Normalf(types.KindPod, pod.Meta.Name, events.ReasonKilling,
			"stopping container")
		return
	}
	if state.Tick-*pod.Meta.DeletionTick < c.gracePeriod {
		return
	}
	if ref := pod.Meta.OwnerReference; ref != nil && ref.Kind == types.KindStatefulSet {
		return
	}
	state.RemovePod(pod.Meta.UID)
	rctx.Log.Debug().Str("pod", pod.Meta.Name).Msg("reaped terminated pod")
}

// syncPending pulls the image and schedules the pod onto a node, or records
// why it cannot.
func (c *PodPhaseController) syncPending(pod *types.Pod, state *types.ClusterState, alloc map[string]int, rctx *Context) {
	if pod.Spec.FailureMode == types.FailureImagePull {
		// Never consumes a node slot and never self-resolves.
		if pod.Status.Reason != events.ReasonImagePullError {
			pod.Status.Reason = events.ReasonImagePullError
			pod.Status.Message = "failed to pull image " + pod.Spec.Image
			rctx.Recorder.Warningf(types.KindPod, pod.Meta.Name, events.ReasonImagePullError,
				"failed to pull image %q", pod.Spec.Image)
		}
		return
	}

	if len(state.Nodes) > 0 && pod.Spec.NodeName == "" {
		node := c.selectNode(state.Nodes, alloc)
		if node == nil {
			if pod.Status.Reason != events.ReasonUnschedulable {
				pod.Status.Reason = events.ReasonUnschedulable
				pod.Status.Message = "no node with free pod capacity"
				rctx.Recorder.Warningf(types.KindPod, pod.Meta.Name, events.ReasonUnschedulable,
					"0/%d nodes have free pod capacity", len(state.Nodes))
			}
			return
		}
		pod.Spec.NodeName = node.Meta.Name
		alloc[node.Meta.Name]++
		rctx.Recorder.Normalf(types.KindPod, pod.Meta.Name, events.ReasonScheduled,
			"assigned to node %s", node.Meta.Name)
	}

	pod.Status.Phase = types.PodRunning
	pod.Status.Reason = ""
	pod.Status.Message = ""
	pod.Status.TickStarted = state.Tick
	rctx.Recorder.Normalf(types.KindPod, pod.Meta.Name, events.ReasonStarted,
		"started container with image %s", pod.Spec.Image)
}

// syncRunning applies the pod's injected failure mode, if any.
func (c *PodPhaseController) syncRunning(pod *types.Pod, rctx *Context) {
	switch pod.Spec.FailureMode {
	case types.FailureCrashLoop:
		pod.Status.Phase = types.PodCrashLoopBackOff
		pod.Status.Reason = events.ReasonBackOff
		pod.Status.Message = "back-off restarting failed container"
		pod.Status.RestartCount++
		metrics.PodRestartsTotal.Inc()
		rctx.Recorder.Warningf(types.KindPod, pod.Meta.Name, events.ReasonBackOff,
			"back-off restarting failed container (restart count %d)", pod.Status.RestartCount)

	case types.FailureOOMKilled:
		if pod.Meta.OwnerReference != nil {
			// Owned pods imply restartPolicy Always: same loop as CrashLoop,
			// attributed to the OOM kill.
			pod.Status.Phase = types.PodCrashLoopBackOff
			pod.Status.Reason = events.ReasonOOMKilled
			pod.Status.Message = "container killed: memory limit exceeded"
			pod.Status.RestartCount++
			metrics.PodRestartsTotal.Inc()
			rctx.Recorder.Warningf(types.KindPod, pod.Meta.Name, events.ReasonOOMKilled,
				"container killed for exceeding its memory limit (restart count %d)", pod.Status.RestartCount)
			return
		}
		// Standalone pods fail terminally.
		pod.Status.Phase = types.PodFailed
		pod.Status.Reason = events.ReasonOOMKilled
		pod.Status.Message = "container killed: memory limit exceeded"
		rctx.Recorder.Warningf(types.KindPod, pod.Meta.Name, events.ReasonOOMKilled,
			"container killed for exceeding its memory limit")
	}
}

// selectNode picks the node with the fewest allocated pods that still has
// free capacity. Ties resolve to insertion order.
func (c *PodPhaseController) selectNode(nodes []*types.Node, alloc map[string]int) *types.Node {
	var selected *types.Node
	best := int(^uint(0) >> 1)
	for _, node := range nodes {
		count := alloc[node.Meta.Name]
		if count >= node.Spec.PodCapacity {
			continue
		}
		if count < best {
			best = count
			selected = node
		}
	}
	return selected
}

// allocations counts the pods currently holding a slot on each node.
func (c *PodPhaseController) allocations(state *types.ClusterState) map[string]int {
	alloc := make(map[string]int)
	for _, pod := range state.Pods {
		if pod.Spec.NodeName == "" {
			continue
		}
		switch pod.Status.Phase {
		case types.PodSucceeded, types.PodFailed:
			// Slot already released.
		default:
			alloc[pod.Spec.NodeName]++
		}
	}
	return alloc
}

// updateNodeLedger refreshes each node's allocation count from scratch.
func (c *PodPhaseController) updateNodeLedger(state *types.ClusterState) {
	alloc := c.allocations(state)
	for _, node := range state.Nodes {
		node.Status.AllocatedPods = alloc[node.Meta.Name]
	}
}
