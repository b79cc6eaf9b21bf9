package lesson

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kubelearn/kubesim/pkg/command"
	"github.com/kubelearn/kubesim/pkg/types"
)

// Predicate is a pure, read-only check over a cluster snapshot. Lessons
// supply predicates; the evaluator never mutates state.
type Predicate interface {
	Check(state *types.ClusterState) bool
}

// PredicateFunc adapts a function to the Predicate interface.
type PredicateFunc func(state *types.ClusterState) bool

// Check calls the wrapped function.
func (f PredicateFunc) Check(state *types.ClusterState) bool {
	return f(state)
}

// Condition is one declarative check compiled from a lesson file. All set
// fields must hold at once.
type Condition struct {
	Kind     types.Kind        `yaml:"kind"`
	Name     string            `yaml:"name,omitempty"`
	Selector map[string]string `yaml:"selector,omitempty"`
	Phase    string            `yaml:"phase,omitempty"`
	Image    string            `yaml:"image,omitempty"`
	Count    *int              `yaml:"count,omitempty"`
	MinCount *int              `yaml:"minCount,omitempty"`
	// Endpoints asserts the endpoint count of a named service
	Endpoints *int `yaml:"endpoints,omitempty"`
	// Absent asserts that no matching object exists
	Absent bool `yaml:"absent,omitempty"`
}

// Check evaluates the condition against a snapshot.
func (c Condition) Check(state *types.ClusterState) bool {
	switch c.Kind {
	case types.KindService:
		svc := state.FindService(c.Name)
		if svc == nil {
			return c.Absent
		}
		if c.Absent {
			return false
		}
		if c.Endpoints != nil && len(svc.Status.Endpoints) != *c.Endpoints {
			return false
		}
		return true

	case types.KindDeployment:
		d := state.FindDeployment(c.Name)
		if d == nil {
			return c.Absent
		}
		if c.Absent {
			return false
		}
		if c.MinCount != nil && d.Status.ReadyReplicas < *c.MinCount {
			return false
		}
		if c.Count != nil && d.Status.ReadyReplicas != *c.Count {
			return false
		}
		if c.Image != "" && d.Spec.Template.Spec.Image != c.Image {
			return false
		}
		return true

	case types.KindStatefulSet:
		sts := state.FindStatefulSet(c.Name)
		if sts == nil {
			return c.Absent
		}
		if c.Absent {
			return false
		}
		if c.MinCount != nil && sts.Status.ReadyReplicas < *c.MinCount {
			return false
		}
		if c.Count != nil && sts.Status.ReadyReplicas != *c.Count {
			return false
		}
		return true

	default: // Pod conditions
		matched := 0
		for _, pod := range state.Pods {
			if c.Name != "" && pod.Meta.Name != c.Name {
				continue
			}
			if len(c.Selector) > 0 && !types.SelectorMatches(pod.Meta.Labels, c.Selector) {
				continue
			}
			if c.Phase != "" && string(pod.Status.Phase) != c.Phase {
				continue
			}
			if c.Image != "" && pod.Spec.Image != c.Image {
				continue
			}
			if pod.Meta.Terminating() {
				continue
			}
			matched++
		}
		if c.Absent {
			return matched == 0
		}
		if c.Count != nil {
			return matched == *c.Count
		}
		if c.MinCount != nil {
			return matched >= *c.MinCount
		}
		return matched > 0
	}
}

// Goal is one objective of a lesson: a description plus the conditions that
// must all hold for it to be done.
type Goal struct {
	ID          string      `yaml:"id"`
	Description string      `yaml:"description"`
	All         []Condition `yaml:"all"`
}

// Done reports whether every condition of the goal holds.
func (g Goal) Done(state *types.ClusterState) bool {
	for _, c := range g.All {
		if !c.Check(state) {
			return false
		}
	}
	return true
}

// SetupStep is one command a lesson runs to seed its initial cluster.
type SetupStep struct {
	Verb        string            `yaml:"verb"`
	Kind        types.Kind        `yaml:"kind"`
	Name        string            `yaml:"name"`
	Image       string            `yaml:"image,omitempty"`
	Replicas    *int              `yaml:"replicas,omitempty"`
	Labels      map[string]string `yaml:"labels,omitempty"`
	Selector    map[string]string `yaml:"selector,omitempty"`
	Port        int               `yaml:"port,omitempty"`
	Headless    bool              `yaml:"headless,omitempty"`
	ServiceName string            `yaml:"serviceName,omitempty"`
	PodCapacity *int              `yaml:"podCapacity,omitempty"`
	Strategy    string            `yaml:"strategy,omitempty"`
}

// ToCommand converts the step to a structured command.
func (s SetupStep) ToCommand() command.Command {
	verb := command.Verb(s.Verb)
	if verb == "" {
		verb = command.VerbCreate
	}
	return command.Command{
		Verb: verb,
		Kind: s.Kind,
		Name: s.Name,
		Fields: command.Fields{
			Image:       s.Image,
			Replicas:    s.Replicas,
			Labels:      s.Labels,
			Selector:    s.Selector,
			Port:        s.Port,
			Headless:    s.Headless,
			ServiceName: s.ServiceName,
			PodCapacity: s.PodCapacity,
			Strategy:    s.Strategy,
		},
	}
}

// Lesson is one exercise: a seeded cluster, injected failures and the goals
// the learner must reach.
type Lesson struct {
	ID       string           `yaml:"id"`
	Title    string           `yaml:"title"`
	Failures types.FailureMap `yaml:"failures,omitempty"`
	Setup    []SetupStep      `yaml:"setup,omitempty"`
	Goals    []Goal           `yaml:"goals"`
}

// Complete reports whether every goal is done.
func (l *Lesson) Complete(state *types.ClusterState) bool {
	for _, g := range l.Goals {
		if !g.Done(state) {
			return false
		}
	}
	return true
}

// GoalStatus pairs a goal with its evaluation result.
type GoalStatus struct {
	Goal Goal
	Done bool
}

// Evaluate checks every goal against a snapshot.
func (l *Lesson) Evaluate(state *types.ClusterState) []GoalStatus {
	out := make([]GoalStatus, len(l.Goals))
	for i, g := range l.Goals {
		out[i] = GoalStatus{Goal: g, Done: g.Done(state)}
	}
	return out
}

// Parse decodes a lesson definition from YAML.
func Parse(data []byte) (*Lesson, error) {
	var l Lesson
	if err := yaml.Unmarshal(data, &l); err != nil {
		return nil, fmt.Errorf("failed to parse lesson: %w", err)
	}
	if l.ID == "" {
		return nil, fmt.Errorf("lesson is missing an id")
	}
	if len(l.Goals) == 0 {
		return nil, fmt.Errorf("lesson %q has no goals", l.ID)
	}
	return &l, nil
}

// Load reads and parses a lesson file.
func Load(path string) (*Lesson, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read lesson file: %w", err)
	}
	return Parse(data)
}
