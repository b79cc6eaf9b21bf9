package controller

import (
	"github.com/kubelearn/kubesim/pkg/types"
)

// StatusController recomputes every workload's observed status from the pods
// present at the end of the tick. It runs after the pod-phase controller so
// readyReplicas reflects the phase transitions of the same tick; the snapshot
// a caller inspects between ticks is never stale.
type StatusController struct{}

// NewStatusController creates a new status controller.
func NewStatusController() *StatusController {
	return &StatusController{}
}

// Name returns the controller name.
func (c *StatusController) Name() string {
	return "status"
}

// Reconcile refreshes replica set, deployment and stateful set statuses.
func (c *StatusController) Reconcile(state *types.ClusterState, rctx *Context) {
	for _, rs := range state.ReplicaSets {
		pods := activePods(state.PodsOwnedBy(rs.Meta.UID))
		rs.Status.Replicas = len(pods)
		rs.Status.ReadyReplicas = readyCount(pods)
	}
	for _, sts := range state.StatefulSets {
		pods := activePods(state.PodsOwnedBy(sts.Meta.UID))
		sts.Status.Replicas = len(pods)
		sts.Status.ReadyReplicas = readyCount(pods)
	}
	for _, d := range state.Deployments {
		c.refreshDeployment(d, state)
	}
}

// refreshDeployment recomputes one deployment's replica counts and conditions.
func (c *StatusController) refreshDeployment(d *types.Deployment, state *types.ClusterState) {
	hash := types.HashPodTemplate(d.Spec.Template)

	var current *types.ReplicaSet
	var olds []*types.ReplicaSet
	for _, rs := range state.ReplicaSetsOwnedBy(d.Meta.UID) {
		if rs.Meta.Terminating() {
			continue
		}
		if rs.Meta.Labels[types.TemplateHashLabel] == hash {
			current = rs
		} else {
			olds = append(olds, rs)
		}
	}

	total, ready, updated := 0, 0, 0
	if current != nil {
		pods := activePods(state.PodsOwnedBy(current.Meta.UID))
		updated = len(pods)
		total += len(pods)
		ready += readyCount(pods)
	}
	for _, rs := range olds {
		pods := activePods(state.PodsOwnedBy(rs.Meta.UID))
		total += len(pods)
		ready += readyCount(pods)
	}

	d.Status.Replicas = total
	d.Status.UpdatedReplicas = updated
	d.Status.ReadyReplicas = ready
	d.Status.AvailableReplicas = ready

	unavailable := d.Spec.Strategy.MaxUnavailable
	if d.Spec.Strategy.MaxSurge == 0 && unavailable == 0 {
		unavailable = DefaultMaxUnavailable
	}
	available := ready >= d.Spec.Replicas-unavailable
	progressing := current == nil || updated < d.Spec.Replicas || len(olds) > 0

	d.Status.Conditions = []types.DeploymentCondition{
		{
			Type:     types.DeploymentAvailable,
			Status:   available,
			Reason:   "MinimumReplicasAvailable",
			LastTick: state.Tick,
		},
		{
			Type:     types.DeploymentProgressing,
			Status:   progressing,
			Reason:   "ReplicaSetUpdated",
			LastTick: state.Tick,
		},
	}
}
