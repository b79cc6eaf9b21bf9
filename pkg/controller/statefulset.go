package controller

import (
	"fmt"
	"sort"

	"github.com/kubelearn/kubesim/pkg/events"
	"github.com/kubelearn/kubesim/pkg/types"
)

// StatefulSetController manages pods with stable, ordinal-based identities.
// It advances one lifecycle step per set per tick: scale up creates the next
// ordinal only once all lower ordinals are Running, scale down removes the
// highest ordinal first, and a pod lost at an ordinal below the replica count
// is recreated under the same name in the same step its old object is
// reaped, so existing ordinals always form a contiguous prefix. Volume
// claims are provisioned per ordinal and retained by name across recreation.
type StatefulSetController struct {
	gracePeriod int
}

// NewStatefulSetController creates a new stateful set controller.
func NewStatefulSetController() *StatefulSetController {
	return &StatefulSetController{gracePeriod: PodGracePeriodTicks}
}

// Name returns the controller name.
func (c *StatefulSetController) Name() string {
	return "statefulset"
}

// Reconcile runs one stateful set reconcile pass over the working snapshot.
func (c *StatefulSetController) Reconcile(state *types.ClusterState, rctx *Context) {
	sets := append([]*types.StatefulSet(nil), state.StatefulSets...)
	for _, sts := range sets {
		if sts.Meta.Terminating() {
			c.teardown(sts, state, rctx)
			continue
		}
		c.sync(sts, state, rctx)
	}
}

// sync advances one stateful set by at most one lifecycle action.
func (c *StatefulSetController) sync(sts *types.StatefulSet, state *types.ClusterState, rctx *Context) {
	pods := c.ordinalPods(sts, state)

	switch {
	case c.reapExpired(sts, pods, state, rctx, true):
		// Reaped (and possibly recreated) one expired terminating pod.
	case c.scaleDown(sts, pods, state, rctx):
	default:
		c.scaleUp(sts, pods, state, rctx)
	}
}

// reapExpired removes the lowest-ordinal terminating pod whose grace period
// has elapsed. When recreate is set and the ordinal is still wanted by the
// spec, a replacement with the same name (and a fresh uid) is created in the
// same step, reusing the ordinal's retained volume claim.
func (c *StatefulSetController) reapExpired(sts *types.StatefulSet, pods map[int]*types.Pod, state *types.ClusterState, rctx *Context, recreate bool) bool {
	for _, ord := range sortedOrdinals(pods) {
		pod := pods[ord]
		if !pod.Meta.Terminating() || state.Tick-*pod.Meta.DeletionTick < c.gracePeriod {
			continue
		}
		state.RemovePod(pod.Meta.UID)
		rctx.Log.Debug().
			Str("statefulset", sts.Meta.Name).
			Int("ordinal", ord).
			Msg("reaped terminated pod")

		if recreate && ord < sts.Spec.Replicas {
			c.createOrdinal(sts, ord, state, rctx)
		}
		return true
	}
	return false
}

// scaleDown marks the highest non-terminating ordinal for deletion while the
// set holds more pods than the spec wants. Lower ordinals are only marked
// once the higher one has reached Terminating.
func (c *StatefulSetController) scaleDown(sts *types.StatefulSet, pods map[int]*types.Pod, state *types.ClusterState, rctx *Context) bool {
	active := 0
	highest := -1
	for ord, pod := range pods {
		if pod.Meta.Terminating() {
			continue
		}
		active++
		if ord > highest {
			highest = ord
		}
	}
	if active <= sts.Spec.Replicas || highest < 0 {
		return false
	}

	pod := pods[highest]
	markDeleted(&pod.Meta, state.Tick)
	rctx.Recorder.Normalf(types.KindStatefulSet, sts.Meta.Name, events.ReasonDeleted,
		"deleted pod %s", pod.Meta.Name)
	return true
}

// scaleUp creates ordinal k only when ordinals [0, k) all exist and are
// Running. One ordinal per tick, strictly sequential.
func (c *StatefulSetController) scaleUp(sts *types.StatefulSet, pods map[int]*types.Pod, state *types.ClusterState, rctx *Context) {
	k := len(pods)
	if k >= sts.Spec.Replicas {
		return
	}
	for ord := 0; ord < k; ord++ {
		pod, ok := pods[ord]
		if !ok || pod.Status.Phase != types.PodRunning || pod.Meta.Terminating() {
			return
		}
	}
	c.createOrdinal(sts, k, state, rctx)
}

// createOrdinal materializes the pod for one ordinal slot together with its
// retained-by-name volume claim.
func (c *StatefulSetController) createOrdinal(sts *types.StatefulSet, ord int, state *types.ClusterState, rctx *Context) {
	name := fmt.Sprintf("%s-%d", sts.Meta.Name, ord)
	pod := newPodFromTemplate(
		name,
		types.OwnerReference{Kind: types.KindStatefulSet, Name: sts.Meta.Name, UID: sts.Meta.UID},
		sts.Spec.Template,
		state.Tick,
		rctx,
	)
	state.Pods = append(state.Pods, pod)
	rctx.Recorder.Normalf(types.KindStatefulSet, sts.Meta.Name, events.ReasonCreated,
		"created pod %s", name)

	claimName := fmt.Sprintf("data-%s-%d", sts.Meta.Name, ord)
	if claim := state.FindVolumeClaim(claimName); claim != nil {
		rctx.Recorder.Normalf(types.KindPersistentVolumeClaim, claimName, events.ReasonClaimRetained,
			"pod %s reattached to retained volume claim", name)
		return
	}
	state.VolumeClaims = append(state.VolumeClaims, &types.PersistentVolumeClaim{
		Meta: types.ObjectMeta{
			Name:         claimName,
			UID:          rctx.UIDs.NewUID(),
			CreationTick: state.Tick,
		},
		StatefulSetName: sts.Meta.Name,
		Ordinal:         ord,
	})
	rctx.Recorder.Normalf(types.KindPersistentVolumeClaim, claimName, events.ReasonClaimProvisioned,
		"provisioned volume claim for pod %s", name)
}

// teardown deletes pods highest-ordinal-first, one per tick, then removes
// the set itself. Volume claims are retained.
func (c *StatefulSetController) teardown(sts *types.StatefulSet, state *types.ClusterState, rctx *Context) {
	pods := c.ordinalPods(sts, state)
	if len(pods) == 0 {
		state.RemoveStatefulSet(sts.Meta.UID)
		return
	}

	c.reapExpired(sts, pods, state, rctx, false)

	pods = c.ordinalPods(sts, state)
	highest := -1
	for ord, pod := range pods {
		if !pod.Meta.Terminating() && ord > highest {
			highest = ord
		}
	}
	if highest >= 0 {
		pod := pods[highest]
		markDeleted(&pod.Meta, state.Tick)
		rctx.Recorder.Normalf(types.KindStatefulSet, sts.Meta.Name, events.ReasonDeleted,
			"deleted pod %s", pod.Meta.Name)
	}
}

// ordinalPods maps existing owned pods by their ordinal.
func (c *StatefulSetController) ordinalPods(sts *types.StatefulSet, state *types.ClusterState) map[int]*types.Pod {
	pods := make(map[int]*types.Pod)
	for _, pod := range state.PodsOwnedBy(sts.Meta.UID) {
		if ord, ok := OrdinalOf(sts.Meta.Name, pod.Meta.Name); ok {
			pods[ord] = pod
		}
	}
	return pods
}

func sortedOrdinals(pods map[int]*types.Pod) []int {
	ords := make([]int, 0, len(pods))
	for ord := range pods {
		ords = append(ords, ord)
	}
	sort.Ints(ords)
	return ords
}
