package sim

import (
	"github.com/rs/zerolog"

	"github.com/kubelearn/kubesim/pkg/command"
	"github.com/kubelearn/kubesim/pkg/engine"
	"github.com/kubelearn/kubesim/pkg/log"
	"github.com/kubelearn/kubesim/pkg/types"
	"github.com/kubelearn/kubesim/pkg/uid"
)

// Session is the explicit process-wide context of one simulation: the
// current cluster snapshot, the UID generator, the failure-injection table
// and the engine wired to both. It is constructed once per simulation and
// passed around explicitly; nothing in the simulator holds global state.
type Session struct {
	name     string
	state    *types.ClusterState
	uids     uid.Generator
	failures types.FailureMap
	engine   *engine.Engine
	applier  *command.Applier
	logger   zerolog.Logger
}

// Option customizes a session at construction time.
type Option func(*Session)

// WithUIDGenerator replaces the default counter-based UID generator.
func WithUIDGenerator(g uid.Generator) Option {
	return func(s *Session) { s.uids = g }
}

// WithState seeds the session with an existing snapshot, e.g. a lesson's
// initial cluster or a checkpoint loaded from disk.
func WithState(state *types.ClusterState) Option {
	return func(s *Session) { s.state = state }
}

// WithFailures seeds the failure-injection table.
func WithFailures(failures types.FailureMap) Option {
	return func(s *Session) {
		for image, mode := range failures {
			s.failures[image] = mode
		}
	}
}

// New creates a simulation session.
func New(name string, opts ...Option) *Session {
	s := &Session{
		name:     name,
		state:    types.NewClusterState(),
		uids:     uid.NewSequence(),
		failures: types.FailureMap{},
		logger:   log.WithSession(name),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.engine = engine.New(s.uids, s.failures)
	s.applier = command.NewApplier(s.uids, s.failures)
	return s
}

// Name returns the session name.
func (s *Session) Name() string {
	return s.name
}

// State returns the current cluster snapshot. Callers must treat it as
// read-only; mutations go through Apply and Reconcile.
func (s *Session) State() *types.ClusterState {
	return s.state
}

// Generator returns the session's UID generator, for checkpointing.
func (s *Session) Generator() uid.Generator {
	return s.uids
}

// Failures returns the failure-injection table, for checkpointing.
func (s *Session) Failures() types.FailureMap {
	return s.failures
}

// Apply runs one structured command against the current snapshot. The
// mutation is applied eagerly; on error the snapshot is left untouched.
func (s *Session) Apply(cmd command.Command) error {
	next, err := s.applier.Apply(s.state, cmd)
	if err != nil {
		return err
	}
	s.state = next
	s.logger.Info().
		Str("verb", string(cmd.Verb)).
		Str("kind", string(cmd.Kind)).
		Str("name", cmd.Name).
		Msg("command applied")
	return nil
}

// Reconcile advances the simulation by n ticks and returns the events
// emitted across them.
func (s *Session) Reconcile(n int) []types.SimEvent {
	before := len(s.state.Events)
	for i := 0; i < n; i++ {
		s.state = s.engine.Reconcile(s.state)
	}
	return s.state.Events[before:]
}

// InjectFailure maps an image to a failure mode. Pods created from that
// image after this call carry the mode; existing pods are not touched.
func (s *Session) InjectFailure(image string, mode types.FailureMode) {
	s.failures[image] = mode
	s.logger.Info().Str("image", image).Str("mode", string(mode)).Msg("failure injected")
}

// ClearFailure removes an image's failure injection, simulating the external
// fix of a broken image. Replacement pods created afterwards run normally.
func (s *Session) ClearFailure(image string) {
	delete(s.failures, image)
	s.logger.Info().Str("image", image).Msg("failure cleared")
}
