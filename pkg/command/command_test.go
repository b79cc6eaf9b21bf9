package command

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kubelearn/kubesim/pkg/types"
	"github.com/kubelearn/kubesim/pkg/uid"
)

func intp(v int) *int { return &v }

func newTestApplier() *Applier {
	return NewApplier(uid.NewSequence(), types.FailureMap{})
}

func seedDeployment(t *testing.T, a *Applier, state *types.ClusterState, name string) *types.ClusterState {
	t.Helper()
	next, err := a.Create(state, types.KindDeployment, name, Fields{Image: "app:v1", Replicas: intp(2)})
	require.NoError(t, err)
	return next
}

func TestApplyValidation(t *testing.T) {
	a := newTestApplier()
	state := types.NewClusterState()

	tests := []struct {
		name    string
		cmd     Command
		wantErr error
	}{
		{"missing name", Command{Verb: VerbCreate, Kind: types.KindPod}, ErrInvalid},
		{"scale without replicas", Command{Verb: VerbScale, Kind: types.KindDeployment, Name: "web"}, ErrInvalid},
		{"unknown verb", Command{Verb: "explode", Kind: types.KindPod, Name: "x"}, ErrInvalid},
		{"create unknown kind", Command{Verb: VerbCreate, Kind: "Gadget", Name: "x"}, ErrInvalid},
		{"scale missing object", Command{Verb: VerbScale, Kind: types.KindDeployment, Name: "ghost", Fields: Fields{Replicas: intp(1)}}, ErrNotFound},
		{"delete missing object", Command{Verb: VerbDelete, Kind: types.KindPod, Name: "ghost"}, ErrNotFound},
		{"negative replicas", Command{Verb: VerbScale, Kind: types.KindDeployment, Name: "web", Fields: Fields{Replicas: intp(-1)}}, ErrInvalid},
		{"set-image empty image", Command{Verb: VerbSetImage, Kind: types.KindDeployment, Name: "web"}, ErrInvalid},
		{"pod without image", Command{Verb: VerbCreate, Kind: types.KindPod, Name: "x"}, ErrInvalid},
		{"service without selector", Command{Verb: VerbCreate, Kind: types.KindService, Name: "x"}, ErrInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := a.Apply(state, tt.cmd)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestCreateDuplicateName(t *testing.T) {
	a := newTestApplier()
	state := seedDeployment(t, a, types.NewClusterState(), "web")

	_, err := a.Create(state, types.KindDeployment, "web", Fields{Image: "app:v2"})
	assert.ErrorIs(t, err, ErrAlreadyExists)
}

func TestApplyIsCopyOnWrite(t *testing.T) {
	a := newTestApplier()
	state := seedDeployment(t, a, types.NewClusterState(), "web")
	before, err := json.Marshal(state)
	require.NoError(t, err)

	// A successful command returns a new snapshot and leaves the input alone.
	next, err := a.Scale(state, types.KindDeployment, "web", 5)
	require.NoError(t, err)
	assert.Equal(t, 5, next.FindDeployment("web").Spec.Replicas)
	assert.Equal(t, 2, state.FindDeployment("web").Spec.Replicas)

	// A failed command leaves it alone too.
	_, err = a.Scale(state, types.KindDeployment, "ghost", 5)
	require.Error(t, err)

	after, err := json.Marshal(state)
	require.NoError(t, err)
	assert.JSONEq(t, string(before), string(after))
}

func TestWorkloadDefaults(t *testing.T) {
	a := newTestApplier()
	state, err := a.Create(types.NewClusterState(), types.KindDeployment, "web", Fields{Image: "app:v1"})
	require.NoError(t, err)

	d := state.FindDeployment("web")
	require.NotNil(t, d)
	assert.Equal(t, 1, d.Spec.Replicas)
	assert.Equal(t, map[string]string{"app": "web"}, d.Spec.Template.Labels)
	assert.Equal(t, map[string]string{"app": "web"}, d.Spec.Selector)

	state, err = a.Create(state, types.KindStatefulSet, "db", Fields{Image: "pg:16"})
	require.NoError(t, err)
	assert.Equal(t, "db", state.FindStatefulSet("db").Spec.ServiceName)
}

func TestCreateStrategyValidation(t *testing.T) {
	a := newTestApplier()

	_, err := a.Create(types.NewClusterState(), types.KindDeployment, "web",
		Fields{Image: "app:v1", Strategy: "BigBang"})
	assert.ErrorIs(t, err, ErrInvalid)

	state, err := a.Create(types.NewClusterState(), types.KindDeployment, "web",
		Fields{Image: "app:v1", Strategy: string(types.StrategyRecreate), MaxUnavailable: intp(2)})
	require.NoError(t, err)
	d := state.FindDeployment("web")
	assert.Equal(t, types.StrategyRecreate, d.Spec.Strategy.Type)
	assert.Equal(t, 2, d.Spec.Strategy.MaxUnavailable)
}

func TestCreatePodStampsInjectedFailure(t *testing.T) {
	failures := types.FailureMap{"bad:1.0": types.FailureImagePull}
	a := NewApplier(uid.NewSequence(), failures)

	state, err := a.Create(types.NewClusterState(), types.KindPod, "bad", Fields{Image: "bad:1.0"})
	require.NoError(t, err)
	assert.Equal(t, types.FailureImagePull, state.FindPod("bad").Spec.FailureMode)

	// The mode is resolved at creation; clearing the table later must not
	// affect the existing pod.
	delete(failures, "bad:1.0")
	assert.Equal(t, types.FailureImagePull, state.FindPod("bad").Spec.FailureMode)
}

func TestSetImageTouchesOnlyTheTemplate(t *testing.T) {
	a := newTestApplier()
	state := seedDeployment(t, a, types.NewClusterState(), "web")

	// Simulate a pod the controllers materialized earlier.
	state.Pods = append(state.Pods, &types.Pod{
		Meta: types.ObjectMeta{Name: "web-1", UID: "p1"},
		Spec: types.PodSpec{Image: "app:v1"},
	})

	next, err := a.SetImage(state, types.KindDeployment, "web", "app:v2")
	require.NoError(t, err)
	assert.Equal(t, "app:v2", next.FindDeployment("web").Spec.Template.Spec.Image)
	assert.Equal(t, "app:v1", next.FindPod("web-1").Spec.Image,
		"existing pods are never mutated in place")
}

func TestDeleteTwoPhaseVsImmediate(t *testing.T) {
	a := newTestApplier()
	state := types.NewClusterState()
	state.Tick = 7

	var err error
	state, err = a.Create(state, types.KindPod, "solo", Fields{Image: "app:v1"})
	require.NoError(t, err)
	state, err = a.Create(state, types.KindService, "web", Fields{Selector: map[string]string{"app": "web"}})
	require.NoError(t, err)

	// Workload kinds get a deletion mark and stay visible until reaped.
	state, err = a.Delete(state, types.KindPod, "solo")
	require.NoError(t, err)
	pod := state.FindPod("solo")
	require.NotNil(t, pod)
	require.NotNil(t, pod.Meta.DeletionTick)
	assert.Equal(t, 7, *pod.Meta.DeletionTick)

	// Simple kinds disappear immediately.
	state, err = a.Delete(state, types.KindService, "web")
	require.NoError(t, err)
	assert.Nil(t, state.FindService("web"))
}

func TestDeleteNodeRefusedWhileHostingPods(t *testing.T) {
	a := newTestApplier()
	state := types.NewClusterState()

	var err error
	state, err = a.Create(state, types.KindNode, "node-a", Fields{PodCapacity: intp(5)})
	require.NoError(t, err)
	state, err = a.Create(state, types.KindPod, "tenant", Fields{Image: "app:v1"})
	require.NoError(t, err)
	state.FindPod("tenant").Spec.NodeName = "node-a"

	_, err = a.Delete(state, types.KindNode, "node-a")
	assert.ErrorIs(t, err, ErrInvalid)

	// Once the pod is gone the node can go too.
	state.Pods = nil
	state, err = a.Delete(state, types.KindNode, "node-a")
	require.NoError(t, err)
	assert.Nil(t, state.FindNode("node-a"))
}

func TestPatchMergesFields(t *testing.T) {
	a := newTestApplier()
	state := seedDeployment(t, a, types.NewClusterState(), "web")

	next, err := a.Patch(state, types.KindDeployment, "web", Fields{
		Replicas: intp(4),
		Labels:   map[string]string{"tier": "frontend"},
	})
	require.NoError(t, err)

	d := next.FindDeployment("web")
	assert.Equal(t, 4, d.Spec.Replicas)
	assert.Equal(t, "frontend", d.Spec.Template.Labels["tier"])
	assert.Equal(t, "web", d.Spec.Template.Labels["app"], "patching merges, it does not replace")
	assert.Equal(t, "app:v1", d.Spec.Template.Spec.Image, "unset fields stay unchanged")
}
