package controller

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kubelearn/kubesim/pkg/types"
)

func TestReplicaSetScaleUp(t *testing.T) {
	labels := map[string]string{"app": "web"}
	rs := testReplicaSet("web", 3, labels)
	state := types.NewClusterState()
	state.Tick = 1
	state.ReplicaSets = append(state.ReplicaSets, rs)

	rctx := testCtx(state.Tick)
	NewReplicaSetController().Reconcile(state, rctx)
	NewStatusController().Reconcile(state, rctx)

	require.Len(t, state.Pods, 3)
	for _, pod := range state.Pods {
		assert.True(t, strings.HasPrefix(pod.Meta.Name, "web-"), "pod name %q", pod.Meta.Name)
		assert.Equal(t, types.PodPending, pod.Status.Phase)
		assert.Equal(t, labels, pod.Meta.Labels)
		require.NotNil(t, pod.Meta.OwnerReference)
		assert.Equal(t, rs.Meta.UID, pod.Meta.OwnerReference.UID)
		assert.Equal(t, 1, pod.Meta.CreationTick)
	}
	assert.Equal(t, 3, rs.Status.Replicas)
	assert.Equal(t, 0, rs.Status.ReadyReplicas)

	// A second pass with the count satisfied must be a no-op.
	NewReplicaSetController().Reconcile(state, rctx)
	assert.Len(t, state.Pods, 3)
}

func TestReplicaSetScaleDownNewestFirst(t *testing.T) {
	labels := map[string]string{"app": "web"}
	rs := testReplicaSet("web", 2, labels)
	state := types.NewClusterState()
	state.Tick = 9
	state.ReplicaSets = append(state.ReplicaSets, rs)

	// Five pods created at different ticks; two share the newest tick so the
	// stable tie-break (insertion order) decides between them.
	for _, p := range []struct {
		name string
		tick int
	}{
		{"web-a", 1}, {"web-b", 3}, {"web-c", 5}, {"web-d", 5}, {"web-e", 2},
	} {
		state.Pods = append(state.Pods, testPod(p.name, rs.Meta.UID, labels, types.PodRunning, p.tick))
	}

	rctx := testCtx(state.Tick)
	NewReplicaSetController().Reconcile(state, rctx)
	NewStatusController().Reconcile(state, rctx)

	terminating := map[string]bool{}
	for _, pod := range state.Pods {
		if pod.Meta.Terminating() {
			terminating[pod.Meta.Name] = true
		}
	}
	// Newest first: web-c and web-d (tick 5, insertion order), then web-b (3).
	assert.Equal(t, map[string]bool{"web-c": true, "web-d": true, "web-b": true}, terminating)
	assert.Equal(t, 2, rs.Status.Replicas)
}

func TestReplicaSetScaleDownIsDeterministic(t *testing.T) {
	labels := map[string]string{"app": "web"}

	run := func() []string {
		rs := testReplicaSet("web", 1, labels)
		state := types.NewClusterState()
		state.Tick = 5
		state.ReplicaSets = append(state.ReplicaSets, rs)
		for _, name := range []string{"web-a", "web-b", "web-c"} {
			state.Pods = append(state.Pods, testPod(name, rs.Meta.UID, labels, types.PodRunning, 2))
		}
		NewReplicaSetController().Reconcile(state, testCtx(state.Tick))

		var gone []string
		for _, pod := range state.Pods {
			if pod.Meta.Terminating() {
				gone = append(gone, pod.Meta.Name)
			}
		}
		return gone
	}

	first := run()
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, run())
	}
}

func TestReplicaSetReplacesTerminatingPods(t *testing.T) {
	labels := map[string]string{"app": "web"}
	rs := testReplicaSet("web", 2, labels)
	state := types.NewClusterState()
	state.Tick = 4
	state.ReplicaSets = append(state.ReplicaSets, rs)

	healthy := testPod("web-a", rs.Meta.UID, labels, types.PodRunning, 1)
	doomed := testPod("web-b", rs.Meta.UID, labels, types.PodRunning, 1)
	dt := 3
	doomed.Meta.DeletionTick = &dt
	state.Pods = append(state.Pods, healthy, doomed)

	rctx := testCtx(state.Tick)
	NewReplicaSetController().Reconcile(state, rctx)
	NewStatusController().Reconcile(state, rctx)

	// The terminating pod no longer counts, so a replacement is created.
	require.Len(t, state.Pods, 3)
	assert.Equal(t, 2, rs.Status.Replicas)
}

func TestReplicaSetIgnoresNonMatchingPods(t *testing.T) {
	labels := map[string]string{"app": "web"}
	rs := testReplicaSet("web", 1, labels)
	state := types.NewClusterState()
	state.Tick = 2
	state.ReplicaSets = append(state.ReplicaSets, rs)

	// Owned by uid but labels drifted away from the selector.
	stray := testPod("web-x", rs.Meta.UID, map[string]string{"app": "other"}, types.PodRunning, 1)
	state.Pods = append(state.Pods, stray)

	NewReplicaSetController().Reconcile(state, testCtx(state.Tick))

	assert.Len(t, state.Pods, 2, "a matching replacement should be created")
	assert.False(t, stray.Meta.Terminating(), "the stray pod is not this controller's to delete")
}

func TestReplicaSetFinalize(t *testing.T) {
	labels := map[string]string{"app": "web"}
	rs := testReplicaSet("web", 2, labels)
	dt := 3
	rs.Meta.DeletionTick = &dt
	state := types.NewClusterState()
	state.Tick = 3
	state.ReplicaSets = append(state.ReplicaSets, rs)
	state.Pods = append(state.Pods,
		testPod("web-a", rs.Meta.UID, labels, types.PodRunning, 1),
		testPod("web-b", rs.Meta.UID, labels, types.PodRunning, 1),
	)

	rctx := testCtx(state.Tick)
	NewReplicaSetController().Reconcile(state, rctx)

	// First pass cascades the deletion mark to owned pods.
	require.Len(t, state.ReplicaSets, 1)
	for _, pod := range state.Pods {
		assert.True(t, pod.Meta.Terminating())
	}

	// Once the pods are physically gone, the set itself is removed.
	state.Pods = nil
	NewReplicaSetController().Reconcile(state, rctx)
	assert.Empty(t, state.ReplicaSets)
}
