package storage

import (
	"time"

	"github.com/kubelearn/kubesim/pkg/types"
)

// SessionRecord is the checkpoint of one simulation session: the cluster
// snapshot, the failure table and the UID counter, enough to resume the
// session in a later CLI invocation. The engine itself never touches disk;
// persistence exists only so a learner can work across invocations.
type SessionRecord struct {
	Name      string
	LessonID  string
	State     *types.ClusterState
	Failures  types.FailureMap
	NextUID   uint64
	UpdatedAt time.Time
}

// Store defines the interface for session checkpoint storage
type Store interface {
	SaveSession(rec *SessionRecord) error
	GetSession(name string) (*SessionRecord, error)
	ListSessions() ([]*SessionRecord, error)
	DeleteSession(name string) error

	Close() error
}
