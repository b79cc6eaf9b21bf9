package controller

import (
	"fmt"
	"strconv"

	"github.com/kubelearn/kubesim/pkg/events"
	"github.com/kubelearn/kubesim/pkg/types"
)

// RevisionLabel ties a replica set to the deployment revision that created it.
const RevisionLabel = "deployment-revision"

// DeploymentController owns replica sets and orchestrates rollouts between
// template revisions. A template change never mutates an existing replica
// set: it creates a new one under a new template-hash label and shifts
// replicas between old and new at the pace the strategy allows, never letting
// ready pods drop below replicas - maxUnavailable. A rollout that cannot make
// progress stalls in place and resumes once the blocking condition is fixed.
type DeploymentController struct{}

// NewDeploymentController creates a new deployment controller.
func NewDeploymentController() *DeploymentController {
	return &DeploymentController{}
}

// Name returns the controller name.
func (c *DeploymentController) Name() string {
	return "deployment"
}

// Reconcile runs one deployment reconcile pass over the working snapshot.
func (c *DeploymentController) Reconcile(state *types.ClusterState, rctx *Context) {
	deps := append([]*types.Deployment(nil), state.Deployments...)
	for _, d := range deps {
		if d.Meta.Terminating() {
			c.finalize(d, state, rctx)
			continue
		}
		c.sync(d, state, rctx)
	}
}

// finalize cascades deletion to owned replica sets, then removes the
// deployment once every owned replica set is physically gone.
func (c *DeploymentController) finalize(d *types.Deployment, state *types.ClusterState, rctx *Context) {
	owned := state.ReplicaSetsOwnedBy(d.Meta.UID)
	if len(owned) == 0 {
		state.RemoveDeployment(d.Meta.UID)
		return
	}
	for _, rs := range owned {
		if markDeleted(&rs.Meta, state.Tick) {
			rctx.Recorder.Normalf(types.KindDeployment, d.Meta.Name, events.ReasonDeleted,
				"deleted replica set %s", rs.Meta.Name)
		}
	}
}

// sync drives one deployment toward its desired template and replica count.
func (c *DeploymentController) sync(d *types.Deployment, state *types.ClusterState, rctx *Context) {
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

	strategy := d.Spec.Strategy
	if strategy.Type == "" {
		strategy.Type = types.StrategyRollingUpdate
	}

	switch strategy.Type {
	case types.StrategyRecreate:
		c.syncRecreate(d, current, olds, hash, state, rctx)
	default:
		c.syncRolling(d, current, olds, hash, state, rctx)
	}
}

// syncRolling performs surge-bounded rolling transitions between the current
// replica set and any older revisions still holding replicas.
func (c *DeploymentController) syncRolling(d *types.Deployment, current *types.ReplicaSet, olds []*types.ReplicaSet, hash string, state *types.ClusterState, rctx *Context) {
	n := d.Spec.Replicas
	surge := d.Spec.Strategy.MaxSurge
	unavailable := d.Spec.Strategy.MaxUnavailable
	if surge == 0 && unavailable == 0 {
		surge, unavailable = DefaultMaxSurge, DefaultMaxUnavailable
	}

	// An old revision with no ready pods holds no availability; scaling it to
	// zero frees surge headroom without touching the floor.
	for _, rs := range olds {
		if rs.Spec.Replicas > 0 && readyCount(c.ownedPods(rs, state)) == 0 {
			c.scaleReplicaSet(d, rs, 0, state, rctx)
		}
	}

	oldDesired := 0
	oldReady := 0
	for _, rs := range olds {
		oldDesired += rs.Spec.Replicas
		oldReady += readyCount(c.ownedPods(rs, state))
	}

	if current == nil {
		initial := n
		if len(olds) > 0 {
			// Mid-rollout: start at the surge-bounded initial size.
			initial = min(n, max(surge, 0), n+surge-oldDesired)
			if initial < 0 {
				initial = 0
			}
		}
		current = c.createReplicaSet(d, hash, initial, state, rctx)
	}

	curReady := readyCount(c.ownedPods(current, state))

	if len(olds) == 0 {
		// No transition in progress: plain scaling tracks the spec directly.
		c.scaleReplicaSet(d, current, n, state, rctx)
		return
	}

	// Scale the new revision up, bounded by surge headroom.
	target := min(n, n+surge-oldDesired)
	if target > current.Spec.Replicas {
		c.scaleReplicaSet(d, current, target, state, rctx)
	}

	// Scale old revisions down by however much ready capacity exceeds the
	// availability floor. The budget is the surplus, not maxUnavailable per
	// tick: with maxUnavailable=0 the surplus comes entirely from surge pods
	// and the rollout still drains the old revisions.
	floor := n - unavailable
	budget := min(curReady+oldReady-floor, oldDesired)
	for _, rs := range olds {
		if budget <= 0 {
			break
		}
		step := min(budget, rs.Spec.Replicas)
		if step > 0 {
			c.scaleReplicaSet(d, rs, rs.Spec.Replicas-step, state, rctx)
			budget -= step
		}
	}

	// Transition completes when the new revision is fully ready and the old
	// revisions hold no pods at all; then the old revisions are deleted.
	if curReady >= n && oldDesired == 0 && c.oldsDrained(olds, state) {
		for _, rs := range olds {
			if markDeleted(&rs.Meta, state.Tick) {
				rctx.Recorder.Normalf(types.KindDeployment, d.Meta.Name, events.ReasonDeleted,
					"deleted replica set %s", rs.Meta.Name)
			}
		}
		rctx.Recorder.Normalf(types.KindDeployment, d.Meta.Name, events.ReasonRolloutComplete,
			"rollout to revision %d complete", d.Status.Revision)
	}
}

// syncRecreate drains every old revision to zero pods before the new
// revision is created or scaled: full-downtime semantics, no surge overlap.
func (c *DeploymentController) syncRecreate(d *types.Deployment, current *types.ReplicaSet, olds []*types.ReplicaSet, hash string, state *types.ClusterState, rctx *Context) {
	n := d.Spec.Replicas

	for _, rs := range olds {
		if rs.Spec.Replicas > 0 {
			c.scaleReplicaSet(d, rs, 0, state, rctx)
		}
	}
	if !c.oldsDrained(olds, state) {
		return
	}

	if current == nil {
		current = c.createReplicaSet(d, hash, n, state, rctx)
	} else if current.Spec.Replicas != n {
		c.scaleReplicaSet(d, current, n, state, rctx)
	}

	if len(olds) > 0 && readyCount(c.ownedPods(current, state)) >= n {
		for _, rs := range olds {
			if markDeleted(&rs.Meta, state.Tick) {
				rctx.Recorder.Normalf(types.KindDeployment, d.Meta.Name, events.ReasonDeleted,
					"deleted replica set %s", rs.Meta.Name)
			}
		}
		rctx.Recorder.Normalf(types.KindDeployment, d.Meta.Name, events.ReasonRolloutComplete,
			"rollout to revision %d complete", d.Status.Revision)
	}
}

// createReplicaSet materializes a new revision of the deployment's template.
func (c *DeploymentController) createReplicaSet(d *types.Deployment, hash string, replicas int, state *types.ClusterState, rctx *Context) *types.ReplicaSet {
	d.Status.Revision++

	tmpl := types.PodTemplate{
		Labels: types.MergeLabels(d.Spec.Template.Labels, map[string]string{types.TemplateHashLabel: hash}),
		Spec:   d.Spec.Template.Spec,
	}

	rs := &types.ReplicaSet{
		Meta: types.ObjectMeta{
			Name: fmt.Sprintf("%s-%s", d.Meta.Name, hash),
			UID:  rctx.UIDs.NewUID(),
			Labels: types.MergeLabels(d.Spec.Selector, map[string]string{
				types.TemplateHashLabel: hash,
				RevisionLabel:           strconv.Itoa(d.Status.Revision),
			}),
			OwnerReference: &types.OwnerReference{Kind: types.KindDeployment, Name: d.Meta.Name, UID: d.Meta.UID},
			CreationTick:   state.Tick,
		},
		Spec: types.ReplicaSetSpec{
			Replicas: replicas,
			Selector: types.MergeLabels(d.Spec.Selector, map[string]string{types.TemplateHashLabel: hash}),
			Template: tmpl,
		},
	}
	state.ReplicaSets = append(state.ReplicaSets, rs)

	rctx.Recorder.Normalf(types.KindDeployment, d.Meta.Name, events.ReasonNewRS,
		"created replica set %s (revision %d, replicas %d)", rs.Meta.Name, d.Status.Revision, replicas)
	rctx.Log.Info().
		Str("deployment", d.Meta.Name).
		Str("replicaset", rs.Meta.Name).
		Int("revision", d.Status.Revision).
		Msg("new template revision")
	return rs
}

// scaleReplicaSet adjusts a replica set's desired count, emitting an event
// when the count actually changes.
func (c *DeploymentController) scaleReplicaSet(d *types.Deployment, rs *types.ReplicaSet, replicas int, state *types.ClusterState, rctx *Context) {
	if rs.Spec.Replicas == replicas {
		return
	}
	rctx.Recorder.Normalf(types.KindDeployment, d.Meta.Name, events.ReasonScalingRS,
		"scaled replica set %s from %d to %d", rs.Meta.Name, rs.Spec.Replicas, replicas)
	rs.Spec.Replicas = replicas
}

// oldsDrained reports whether no old revision still owns any pod, counting
// terminating pods until they are physically removed.
func (c *DeploymentController) oldsDrained(olds []*types.ReplicaSet, state *types.ClusterState) bool {
	for _, rs := range olds {
		if rs.Spec.Replicas > 0 || len(state.PodsOwnedBy(rs.Meta.UID)) > 0 {
			return false
		}
	}
	return true
}

// ownedPods returns the pods a replica set currently owns, for live
// readiness accounting independent of stale status fields.
func (c *DeploymentController) ownedPods(rs *types.ReplicaSet, state *types.ClusterState) []*types.Pod {
	return state.PodsOwnedBy(rs.Meta.UID)
}

