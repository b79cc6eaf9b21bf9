package events

import (
	"fmt"

	"github.com/kubelearn/kubesim/pkg/types"
)

// Well-known event reasons, mirroring the vocabulary a learner would see in
// a real events feed.
const (
	ReasonScheduled        = "Scheduled"
	ReasonStarted          = "Started"
	ReasonKilling          = "Killing"
	ReasonBackOff          = "BackOff"
	ReasonOOMKilled        = "OOMKilled"
	ReasonImagePullError   = "ErrImagePull"
	ReasonUnschedulable    = "FailedScheduling"
	ReasonCreated          = "SuccessfulCreate"
	ReasonDeleted          = "SuccessfulDelete"
	ReasonScalingRS        = "ScalingReplicaSet"
	ReasonNewRS            = "NewReplicaSetCreated"
	ReasonRolloutComplete  = "RolloutComplete"
	ReasonClaimRetained    = "VolumeClaimRetained"
	ReasonClaimProvisioned = "VolumeClaimProvisioned"
)

// Recorder collects the events emitted during a single reconcile tick.
// Controllers emit through it; the engine flushes the buffer into the
// cluster state's append-only audit log at the end of the tick.
type Recorder struct {
	tick   int
	buffer []types.SimEvent
}

// NewRecorder creates a recorder for the given tick.
func NewRecorder(tick int) *Recorder {
	return &Recorder{tick: tick}
}

// Normalf records an expected state transition.
func (r *Recorder) Normalf(kind types.Kind, name, reason, format string, args ...interface{}) {
	r.append(types.EventNormal, kind, name, reason, format, args...)
}

// Warningf records a failure-mode entry.
func (r *Recorder) Warningf(kind types.Kind, name, reason, format string, args ...interface{}) {
	r.append(types.EventWarning, kind, name, reason, format, args...)
}

func (r *Recorder) append(t types.EventType, kind types.Kind, name, reason, format string, args ...interface{}) {
	r.buffer = append(r.buffer, types.SimEvent{
		Tick:       r.tick,
		Type:       t,
		Reason:     reason,
		ObjectKind: kind,
		ObjectName: name,
		Message:    fmt.Sprintf(format, args...),
	})
}

// Events returns the events recorded so far, in emission order.
func (r *Recorder) Events() []types.SimEvent {
	return r.buffer
}

// FlushTo appends the recorded events to the given state's audit log and
// resets the buffer.
func (r *Recorder) FlushTo(state *types.ClusterState) {
	for _, ev := range r.buffer {
		state.Record(ev)
	}
	r.buffer = nil
}
