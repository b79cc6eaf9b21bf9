package controller

import (
	"io"
	"os"
	"testing"

	"github.com/rs/zerolog"

	"github.com/kubelearn/kubesim/pkg/events"
	"github.com/kubelearn/kubesim/pkg/log"
	"github.com/kubelearn/kubesim/pkg/types"
	"github.com/kubelearn/kubesim/pkg/uid"
)

func TestMain(m *testing.M) {
	log.Init(log.Config{Level: log.ErrorLevel, Output: io.Discard})
	os.Exit(m.Run())
}

// testCtx builds a reconcile context for one tick.
func testCtx(tick int) *Context {
	return &Context{
		UIDs:     uid.NewSequence(),
		Failures: types.FailureMap{},
		Recorder: events.NewRecorder(tick),
		Log:      zerolog.Nop(),
	}
}

// advance simulates one engine tick over the given controllers, ending with
// the status pass the engine always runs last.
func advance(state *types.ClusterState, rctx *Context, ctrls ...Controller) {
	state.Tick++
	rctx.Recorder = events.NewRecorder(state.Tick)
	for _, c := range ctrls {
		c.Reconcile(state, rctx)
	}
	NewStatusController().Reconcile(state, rctx)
}

// advanceN simulates n engine ticks.
func advanceN(n int, state *types.ClusterState, rctx *Context, ctrls ...Controller) {
	for i := 0; i < n; i++ {
		advance(state, rctx, ctrls...)
	}
}

func testReplicaSet(name string, replicas int, labels map[string]string) *types.ReplicaSet {
	return &types.ReplicaSet{
		Meta: types.ObjectMeta{Name: name, UID: "rs-" + name, Labels: labels},
		Spec: types.ReplicaSetSpec{
			Replicas: replicas,
			Selector: labels,
			Template: types.PodTemplate{
				Labels: labels,
				Spec:   types.PodSpec{Image: "app:v1"},
			},
		},
	}
}

func testPod(name, ownerUID string, labels map[string]string, phase types.PodPhase, creationTick int) *types.Pod {
	pod := &types.Pod{
		Meta: types.ObjectMeta{
			Name:         name,
			UID:          "pod-" + name,
			Labels:       labels,
			CreationTick: creationTick,
		},
		Spec:   types.PodSpec{Image: "app:v1"},
		Status: types.PodStatus{Phase: phase},
	}
	if ownerUID != "" {
		pod.Meta.OwnerReference = &types.OwnerReference{Kind: types.KindReplicaSet, Name: "owner", UID: ownerUID}
	}
	return pod
}

func TestOrdinalOf(t *testing.T) {
	tests := []struct {
		name    string
		set     string
		pod     string
		wantOrd int
		wantOK  bool
	}{
		{"first ordinal", "web", "web-0", 0, true},
		{"double digits", "web", "web-12", 12, true},
		{"wrong prefix", "web", "db-0", 0, false},
		{"no ordinal", "web", "web-", 0, false},
		{"non-numeric suffix", "web", "web-abc", 0, false},
		{"leading zero is not canonical", "web", "web-01", 0, false},
		{"set name containing dash", "web-frontend", "web-frontend-3", 3, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ord, ok := OrdinalOf(tt.set, tt.pod)
			if ok != tt.wantOK {
				t.Fatalf("OrdinalOf(%q, %q) ok = %v, want %v", tt.set, tt.pod, ok, tt.wantOK)
			}
			if ok && ord != tt.wantOrd {
				t.Fatalf("OrdinalOf(%q, %q) = %d, want %d", tt.set, tt.pod, ord, tt.wantOrd)
			}
		})
	}
}
