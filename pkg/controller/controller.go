package controller

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/kubelearn/kubesim/pkg/events"
	"github.com/kubelearn/kubesim/pkg/types"
	"github.com/kubelearn/kubesim/pkg/uid"
)

// PodGracePeriodTicks is how many ticks a pod stays Terminating before it is
// physically removed from the cluster state.
const PodGracePeriodTicks = 2

// Default rollout bounds applied when a deployment strategy leaves them unset.
const (
	DefaultMaxSurge       = 1
	DefaultMaxUnavailable = 1
)

// Context carries the per-tick collaborators a controller needs: the UID
// generator, the session's failure-injection table and the event recorder.
type Context struct {
	UIDs     uid.Generator
	Failures types.FailureMap
	Recorder *events.Recorder
	Log      zerolog.Logger
}

// Controller is one reconcile participant. Controllers run in a fixed order
// within a tick and mutate the working snapshot in place; the engine owns
// snapshot isolation and invariant checking.
type Controller interface {
	Name() string
	Reconcile(state *types.ClusterState, rctx *Context)
}

// newPodFromTemplate builds a pod owned by the given controller object.
// The failure mode is resolved from the injection table once, here: existing
// pods never pick up later table changes, only replacements do.
func newPodFromTemplate(name string, owner types.OwnerReference, tmpl types.PodTemplate, tick int, rctx *Context) *types.Pod {
	spec := tmpl.Spec
	if spec.FailureMode == types.FailureNone {
		spec.FailureMode = rctx.Failures.FailureFor(spec.Image)
	}
	ref := owner
	return &types.Pod{
		Meta: types.ObjectMeta{
			Name:           name,
			UID:            rctx.UIDs.NewUID(),
			Labels:         types.MergeLabels(tmpl.Labels, nil),
			OwnerReference: &ref,
			CreationTick:   tick,
		},
		Spec:   spec,
		Status: types.PodStatus{Phase: types.PodPending},
	}
}

// podNameSuffix derives a short, stable pod-name suffix from a generated UID.
func podNameSuffix(id string) string {
	if rest, ok := strings.CutPrefix(id, "uid-"); ok {
		return rest
	}
	if len(id) > 5 {
		return id[:5]
	}
	return id
}

// markDeleted stamps the deletion tick on an object if not already set.
func markDeleted(meta *types.ObjectMeta, tick int) bool {
	if meta.DeletionTick != nil {
		return false
	}
	t := tick
	meta.DeletionTick = &t
	return true
}

// readyCount returns how many of the given pods are Running and ready.
func readyCount(pods []*types.Pod) int {
	n := 0
	for _, p := range pods {
		if p.Ready() {
			n++
		}
	}
	return n
}

// activePods filters out pods already marked for deletion.
func activePods(pods []*types.Pod) []*types.Pod {
	var out []*types.Pod
	for _, p := range pods {
		if !p.Meta.Terminating() {
			out = append(out, p)
		}
	}
	return out
}

// OrdinalOf parses the ordinal from a stateful-set pod name <set>-<ordinal>.
func OrdinalOf(setName, podName string) (int, bool) {
	rest, ok := strings.CutPrefix(podName, setName+"-")
	if !ok {
		return 0, false
	}
	var ord int
	if _, err := fmt.Sscanf(rest, "%d", &ord); err != nil || fmt.Sprintf("%d", ord) != rest {
		return 0, false
	}
	return ord, true
}
