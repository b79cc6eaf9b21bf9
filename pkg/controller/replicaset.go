package controller

import (
	"fmt"
	"sort"

	"github.com/kubelearn/kubesim/pkg/events"
	"github.com/kubelearn/kubesim/pkg/types"
)

// ReplicaSetController diffs each replica set's desired pod count against the
// pods it currently owns and creates or deletes exactly the difference.
// Excess pods are deleted newest-creation-first with a stable tie-break so
// the outcome is deterministic.
type ReplicaSetController struct{}

// NewReplicaSetController creates a new replica set controller.
func NewReplicaSetController() *ReplicaSetController {
	return &ReplicaSetController{}
}

// Name returns the controller name.
func (c *ReplicaSetController) Name() string {
	return "replicaset"
}

// Reconcile runs one replica set reconcile pass over the working snapshot.
func (c *ReplicaSetController) Reconcile(state *types.ClusterState, rctx *Context) {
	sets := append([]*types.ReplicaSet(nil), state.ReplicaSets...)
	for _, rs := range sets {
		if rs.Meta.Terminating() {
			c.finalize(rs, state, rctx)
			continue
		}
		c.sync(rs, state, rctx)
	}
}

// sync drives one replica set toward its desired count.
func (c *ReplicaSetController) sync(rs *types.ReplicaSet, state *types.ClusterState, rctx *Context) {
	matching := c.matchingPods(rs, state)
	diff := rs.Spec.Replicas - len(matching)

	if diff != 0 {
		rctx.Log.Debug().
			Str("replicaset", rs.Meta.Name).
			Int("desired", rs.Spec.Replicas).
			Int("current", len(matching)).
			Msg("replica count diff")
	}

	switch {
	case diff > 0:
		for i := 0; i < diff; i++ {
			pod := newPodFromTemplate(
				fmt.Sprintf("%s-%s", rs.Meta.Name, podNameSuffix(rctx.UIDs.NewUID())),
				types.OwnerReference{Kind: types.KindReplicaSet, Name: rs.Meta.Name, UID: rs.Meta.UID},
				rs.Spec.Template,
				state.Tick,
				rctx,
			)
			state.Pods = append(state.Pods, pod)
			rctx.Recorder.Normalf(types.KindReplicaSet, rs.Meta.Name, events.ReasonCreated,
				"created pod %s", pod.Meta.Name)
		}
	case diff < 0:
		for _, pod := range newestFirst(matching)[:(-diff)] {
			markDeleted(&pod.Meta, state.Tick)
			rctx.Recorder.Normalf(types.KindReplicaSet, rs.Meta.Name, events.ReasonDeleted,
				"deleted pod %s", pod.Meta.Name)
		}
	}
}

// finalize cascades deletion to owned pods, then removes the replica set
// once every owned pod is physically gone.
func (c *ReplicaSetController) finalize(rs *types.ReplicaSet, state *types.ClusterState, rctx *Context) {
	owned := state.PodsOwnedBy(rs.Meta.UID)
	if len(owned) == 0 {
		state.RemoveReplicaSet(rs.Meta.UID)
		return
	}
	for _, pod := range owned {
		if markDeleted(&pod.Meta, state.Tick) {
			rctx.Recorder.Normalf(types.KindReplicaSet, rs.Meta.Name, events.ReasonDeleted,
				"deleted pod %s", pod.Meta.Name)
		}
	}
}

// matchingPods returns the pods this replica set counts as its own: owned by
// uid, labels matching the selector, and not marked for deletion.
func (c *ReplicaSetController) matchingPods(rs *types.ReplicaSet, state *types.ClusterState) []*types.Pod {
	var matching []*types.Pod
	for _, pod := range state.Pods {
		if !pod.Meta.OwnedBy(rs.Meta.UID) {
			continue
		}
		if !types.SelectorMatches(pod.Meta.Labels, rs.Spec.Selector) {
			continue
		}
		if pod.Meta.Terminating() {
			continue
		}
		matching = append(matching, pod)
	}
	return matching
}

// newestFirst orders pods by descending creation tick. The sort is stable so
// equal timestamps fall back to insertion order.
func newestFirst(pods []*types.Pod) []*types.Pod {
	out := append([]*types.Pod(nil), pods...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Meta.CreationTick > out[j].Meta.CreationTick
	})
	return out
}
