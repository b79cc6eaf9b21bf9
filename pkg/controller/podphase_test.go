package controller

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kubelearn/kubesim/pkg/events"
	"github.com/kubelearn/kubesim/pkg/types"
)

func TestPodPendingToRunning(t *testing.T) {
	state := types.NewClusterState()
	state.Tick = 1
	pod := testPod("solo", "", nil, types.PodPending, 0)
	state.Pods = append(state.Pods, pod)

	NewPodPhaseController().Reconcile(state, testCtx(state.Tick))

	assert.Equal(t, types.PodRunning, pod.Status.Phase)
	assert.Equal(t, 1, pod.Status.TickStarted)
	assert.Empty(t, pod.Spec.NodeName, "no nodes in the cluster, pod runs unassigned")
}

func TestPodCreatedThisTickWaits(t *testing.T) {
	state := types.NewClusterState()
	state.Tick = 3
	pod := testPod("solo", "", nil, types.PodPending, 3)
	state.Pods = append(state.Pods, pod)

	NewPodPhaseController().Reconcile(state, testCtx(state.Tick))

	assert.Equal(t, types.PodPending, pod.Status.Phase,
		"the first transition happens the tick after creation")
}

func TestPodImagePullError(t *testing.T) {
	state := types.NewClusterState()
	state.Tick = 1
	state.Nodes = append(state.Nodes, &types.Node{
		Meta: types.ObjectMeta{Name: "node-a", UID: "n-a"},
		Spec: types.NodeSpec{PodCapacity: 10},
	})
	pod := testPod("broken", "", nil, types.PodPending, 0)
	pod.Spec.FailureMode = types.FailureImagePull
	state.Pods = append(state.Pods, pod)

	rctx := testCtx(state.Tick)
	c := NewPodPhaseController()
	advanceN(3, state, rctx, c)

	assert.Equal(t, types.PodPending, pod.Status.Phase, "never self-resolves")
	assert.Equal(t, events.ReasonImagePullError, pod.Status.Reason)
	assert.Empty(t, pod.Spec.NodeName, "a pod that cannot pull never takes a node slot")
	assert.Equal(t, 0, state.Nodes[0].Status.AllocatedPods)
}

func TestPodCrashLoopOscillation(t *testing.T) {
	state := types.NewClusterState()
	state.Tick = 1
	pod := testPod("crashy", "rs-1", map[string]string{"app": "crashy"}, types.PodPending, 0)
	pod.Spec.FailureMode = types.FailureCrashLoop
	state.Pods = append(state.Pods, pod)

	rctx := testCtx(state.Tick)
	c := NewPodPhaseController()

	c.Reconcile(state, rctx)
	require.Equal(t, types.PodRunning, pod.Status.Phase)

	advance(state, rctx, c)
	assert.Equal(t, types.PodCrashLoopBackOff, pod.Status.Phase)
	assert.Equal(t, 1, pod.Status.RestartCount)

	advance(state, rctx, c)
	assert.Equal(t, types.PodRunning, pod.Status.Phase)

	advance(state, rctx, c)
	assert.Equal(t, types.PodCrashLoopBackOff, pod.Status.Phase)
	assert.Equal(t, 2, pod.Status.RestartCount)
}

func TestPodOOMKilled(t *testing.T) {
	tests := []struct {
		name      string
		owned     bool
		wantPhase types.PodPhase
	}{
		{"owned pod restarts", true, types.PodCrashLoopBackOff},
		{"standalone pod fails terminally", false, types.PodFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := types.NewClusterState()
			state.Tick = 1
			owner := ""
			if tt.owned {
				owner = "rs-1"
			}
			pod := testPod("oomy", owner, nil, types.PodRunning, 0)
			pod.Spec.FailureMode = types.FailureOOMKilled
			state.Pods = append(state.Pods, pod)

			rctx := testCtx(state.Tick)
			c := NewPodPhaseController()
			c.Reconcile(state, rctx)

			assert.Equal(t, tt.wantPhase, pod.Status.Phase)
			assert.Equal(t, events.ReasonOOMKilled, pod.Status.Reason)

			// A terminal pod never comes back.
			if !tt.owned {
				advanceN(3, state, rctx, c)
				assert.Equal(t, types.PodFailed, pod.Status.Phase)
			}
		})
	}
}

func TestPodTerminationGracePeriod(t *testing.T) {
	state := types.NewClusterState()
	state.Tick = 1
	pod := testPod("doomed", "rs-1", nil, types.PodRunning, 0)
	dt := 1
	pod.Meta.DeletionTick = &dt
	state.Pods = append(state.Pods, pod)

	rctx := testCtx(state.Tick)
	c := NewPodPhaseController()

	c.Reconcile(state, rctx)
	assert.Equal(t, types.PodTerminating, pod.Status.Phase)
	assert.Len(t, state.Pods, 1)

	advance(state, rctx, c) // tick 2: one tick elapsed, still within grace
	assert.Len(t, state.Pods, 1)

	advance(state, rctx, c) // tick 3: grace period over
	assert.Empty(t, state.Pods)
}

func TestPodStatefulSetReapingIsDeferred(t *testing.T) {
	state := types.NewClusterState()
	state.Tick = 1
	pod := testPod("web-0", "", nil, types.PodRunning, 0)
	pod.Meta.OwnerReference = &types.OwnerReference{Kind: types.KindStatefulSet, Name: "web", UID: "sts-web"}
	dt := 1
	pod.Meta.DeletionTick = &dt
	state.Pods = append(state.Pods, pod)

	rctx := testCtx(state.Tick)
	c := NewPodPhaseController()
	advanceN(5, state, rctx, c)

	assert.Len(t, state.Pods, 1,
		"stateful set pods are reaped by their own controller, not here")
	assert.Equal(t, types.PodTerminating, pod.Status.Phase)
}

func TestPodSchedulingSpreadsByLoad(t *testing.T) {
	state := types.NewClusterState()
	state.Tick = 1
	state.Nodes = append(state.Nodes,
		&types.Node{Meta: types.ObjectMeta{Name: "node-a", UID: "n-a"}, Spec: types.NodeSpec{PodCapacity: 5}},
		&types.Node{Meta: types.ObjectMeta{Name: "node-b", UID: "n-b"}, Spec: types.NodeSpec{PodCapacity: 5}},
	)
	for _, name := range []string{"p1", "p2", "p3"} {
		state.Pods = append(state.Pods, testPod(name, "", nil, types.PodPending, 0))
	}

	NewPodPhaseController().Reconcile(state, testCtx(state.Tick))

	var assigned []string
	for _, pod := range state.Pods {
		require.Equal(t, types.PodRunning, pod.Status.Phase)
		assigned = append(assigned, pod.Spec.NodeName)
	}
	// Fewest-pods placement with insertion-order tie-break.
	assert.Equal(t, []string{"node-a", "node-b", "node-a"}, assigned)
	assert.Equal(t, 2, state.Nodes[0].Status.AllocatedPods)
	assert.Equal(t, 1, state.Nodes[1].Status.AllocatedPods)
}

func TestPodUnschedulableWhenNodesFull(t *testing.T) {
	state := types.NewClusterState()
	state.Tick = 1
	state.Nodes = append(state.Nodes, &types.Node{
		Meta: types.ObjectMeta{Name: "node-a", UID: "n-a"},
		Spec: types.NodeSpec{PodCapacity: 1},
	})
	first := testPod("p1", "", nil, types.PodPending, 0)
	second := testPod("p2", "", nil, types.PodPending, 0)
	state.Pods = append(state.Pods, first, second)

	rctx := testCtx(state.Tick)
	NewPodPhaseController().Reconcile(state, rctx)

	assert.Equal(t, types.PodRunning, first.Status.Phase)
	assert.Equal(t, types.PodPending, second.Status.Phase)
	assert.Equal(t, events.ReasonUnschedulable, second.Status.Reason)

	var warned bool
	for _, ev := range rctx.Recorder.Events() {
		if ev.Reason == events.ReasonUnschedulable && ev.ObjectName == "p2" {
			warned = true
			assert.Equal(t, types.EventWarning, ev.Type)
		}
	}
	assert.True(t, warned, "expected a FailedScheduling warning event")
}

func TestPodFreedSlotIsReused(t *testing.T) {
	state := types.NewClusterState()
	state.Tick = 1
	state.Nodes = append(state.Nodes, &types.Node{
		Meta: types.ObjectMeta{Name: "node-a", UID: "n-a"},
		Spec: types.NodeSpec{PodCapacity: 1},
	})
	done := testPod("finished", "", nil, types.PodFailed, 0)
	done.Spec.NodeName = "node-a"
	waiting := testPod("waiting", "", nil, types.PodPending, 0)
	state.Pods = append(state.Pods, done, waiting)

	NewPodPhaseController().Reconcile(state, testCtx(state.Tick))

	assert.Equal(t, types.PodRunning, waiting.Status.Phase)
	assert.Equal(t, "node-a", waiting.Spec.NodeName,
		"failed pods do not hold their node slot")
}
