package events

import (
	"testing"

	"github.com/kubelearn/kubesim/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorderStampsTickAndOrder(t *testing.T) {
	rec := NewRecorder(7)
	rec.Normalf(types.KindPod, "web-1", ReasonStarted, "started container with image %s", "nginx:1.0")
	rec.Warningf(types.KindPod, "web-2", ReasonBackOff, "back-off restarting failed container")

	evs := rec.Events()
	require.Len(t, evs, 2)

	assert.Equal(t, 7, evs[0].Tick)
	assert.Equal(t, types.EventNormal, evs[0].Type)
	assert.Equal(t, ReasonStarted, evs[0].Reason)
	assert.Equal(t, "started container with image nginx:1.0", evs[0].Message)

	assert.Equal(t, types.EventWarning, evs[1].Type)
	assert.Equal(t, "web-2", evs[1].ObjectName)
}

func TestRecorderFlushAppendsAndResets(t *testing.T) {
	state := types.NewClusterState()
	state.Record(types.SimEvent{Tick: 1, Reason: ReasonCreated})

	rec := NewRecorder(2)
	rec.Normalf(types.KindReplicaSet, "web-abc", ReasonCreated, "created pod web-abc-1")
	rec.FlushTo(state)

	require.Len(t, state.Events, 2)
	assert.Equal(t, 2, state.Events[1].Tick)
	assert.Empty(t, rec.Events())
}
