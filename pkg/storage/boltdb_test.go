package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kubelearn/kubesim/pkg/types"
)

func newTestStore(t *testing.T) *BoltStore {
	t.Helper()
	store, err := NewBoltStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSessionRoundTrip(t *testing.T) {
	store := newTestStore(t)

	state := types.NewClusterState()
	state.Tick = 9
	state.Pods = append(state.Pods, &types.Pod{
		Meta:   types.ObjectMeta{Name: "web-1", UID: "uid-3", Labels: map[string]string{"app": "web"}},
		Spec:   types.PodSpec{Image: "nginx:1.0"},
		Status: types.PodStatus{Phase: types.PodRunning},
	})

	rec := &SessionRecord{
		Name:     "default",
		LessonID: "/lessons/first.yaml",
		State:    state,
		Failures: types.FailureMap{"bad:1.0": types.FailureCrashLoop},
		NextUID:  4,
	}
	require.NoError(t, store.SaveSession(rec))
	assert.False(t, rec.UpdatedAt.IsZero(), "save stamps the record")

	got, err := store.GetSession("default")
	require.NoError(t, err)
	assert.Equal(t, "default", got.Name)
	assert.Equal(t, "/lessons/first.yaml", got.LessonID)
	assert.Equal(t, uint64(4), got.NextUID)
	assert.Equal(t, 9, got.State.Tick)
	require.Len(t, got.State.Pods, 1)
	assert.Equal(t, types.PodRunning, got.State.Pods[0].Status.Phase)
	assert.Equal(t, types.FailureCrashLoop, got.Failures.FailureFor("bad:1.0"))
}

func TestGetSessionNotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.GetSession("ghost")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSaveSessionOverwrites(t *testing.T) {
	store := newTestStore(t)

	state := types.NewClusterState()
	require.NoError(t, store.SaveSession(&SessionRecord{Name: "s", State: state, NextUID: 1}))

	state.Tick = 5
	require.NoError(t, store.SaveSession(&SessionRecord{Name: "s", State: state, NextUID: 7}))

	got, err := store.GetSession("s")
	require.NoError(t, err)
	assert.Equal(t, 5, got.State.Tick)
	assert.Equal(t, uint64(7), got.NextUID)

	recs, err := store.ListSessions()
	require.NoError(t, err)
	assert.Len(t, recs, 1)
}

func TestListAndDeleteSessions(t *testing.T) {
	store := newTestStore(t)

	for _, name := range []string{"a", "b", "c"} {
		require.NoError(t, store.SaveSession(&SessionRecord{Name: name, State: types.NewClusterState()}))
	}

	recs, err := store.ListSessions()
	require.NoError(t, err)
	assert.Len(t, recs, 3)

	require.NoError(t, store.DeleteSession("b"))
	recs, err = store.ListSessions()
	require.NoError(t, err)
	assert.Len(t, recs, 2)

	_, err = store.GetSession("b")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	// Deleting a missing session is a no-op, matching bbolt semantics.
	assert.NoError(t, store.DeleteSession("ghost"))
}
