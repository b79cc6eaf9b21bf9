package command

import (
	"errors"
	"fmt"

	"github.com/kubelearn/kubesim/pkg/types"
	"github.com/kubelearn/kubesim/pkg/uid"
)

// User command errors. These are recoverable and surfaced to the caller as
// typed results so the CLI can render a message without crashing the
// simulation.
var (
	ErrAlreadyExists = errors.New("already exists")
	ErrNotFound      = errors.New("not found")
	ErrInvalid       = errors.New("invalid command")
)

// Verb is the imperative action a command performs
type Verb string

const (
	VerbCreate   Verb = "create"
	VerbScale    Verb = "scale"
	VerbPatch    Verb = "patch"
	VerbDelete   Verb = "delete"
	VerbSetImage Verb = "set-image"
)

// Fields carries the optional parameters of a command. Which fields apply
// depends on the verb and kind; unset pointers mean "leave unchanged".
type Fields struct {
	Image          string
	Replicas       *int
	Labels         map[string]string
	Selector       map[string]string
	Port           int
	Headless       bool
	ServiceName    string
	PodCapacity    *int
	Data           map[string]string
	Strategy       string
	MaxSurge       *int
	MaxUnavailable *int
}

// Command is the structured form of one user action, as handed over by the
// CLI collaborator. The core never parses command strings.
type Command struct {
	Verb   Verb
	Kind   types.Kind
	Name   string
	Fields Fields
}

// Applier translates commands into desired-state mutations. Every method is
// copy-on-write: it returns a new snapshot and never touches the input, so a
// failed command leaves the cluster state exactly as it was.
type Applier struct {
	uids     uid.Generator
	failures types.FailureMap
}

// NewApplier creates an applier using the given UID generator and failure
// injection table.
func NewApplier(uids uid.Generator, failures types.FailureMap) *Applier {
	return &Applier{uids: uids, failures: failures}
}

// Apply dispatches a command to the matching verb operation.
func (a *Applier) Apply(state *types.ClusterState, cmd Command) (*types.ClusterState, error) {
	if cmd.Name == "" {
		return nil, fmt.Errorf("object name is required: %w", ErrInvalid)
	}
	switch cmd.Verb {
	case VerbCreate:
		return a.Create(state, cmd.Kind, cmd.Name, cmd.Fields)
	case VerbScale:
		if cmd.Fields.Replicas == nil {
			return nil, fmt.Errorf("scale requires a replica count: %w", ErrInvalid)
		}
		return a.Scale(state, cmd.Kind, cmd.Name, *cmd.Fields.Replicas)
	case VerbPatch:
		return a.Patch(state, cmd.Kind, cmd.Name, cmd.Fields)
	case VerbDelete:
		return a.Delete(state, cmd.Kind, cmd.Name)
	case VerbSetImage:
		return a.SetImage(state, cmd.Kind, cmd.Name, cmd.Fields.Image)
	default:
		return nil, fmt.Errorf("unknown verb %q: %w", cmd.Verb, ErrInvalid)
	}
}

// Create adds a new standalone object to the desired state.
func (a *Applier) Create(state *types.ClusterState, kind types.Kind, name string, f Fields) (*types.ClusterState, error) {
	next := state.DeepCopy()

	meta := types.ObjectMeta{
		Name:         name,
		UID:          a.uids.NewUID(),
		Labels:       f.Labels,
		CreationTick: next.Tick,
	}

	switch kind {
	case types.KindDeployment:
		if next.FindDeployment(name) != nil {
			return nil, fmt.Errorf("deployment %q: %w", name, ErrAlreadyExists)
		}
		spec, err := workloadSpec(name, f)
		if err != nil {
			return nil, err
		}
		strategy, err := strategyFrom(f)
		if err != nil {
			return nil, err
		}
		next.Deployments = append(next.Deployments, &types.Deployment{
			Meta: meta,
			Spec: types.DeploymentSpec{
				Replicas: spec.replicas,
				Selector: spec.selector,
				Template: spec.template,
				Strategy: strategy,
			},
		})

	case types.KindStatefulSet:
		if next.FindStatefulSet(name) != nil {
			return nil, fmt.Errorf("statefulset %q: %w", name, ErrAlreadyExists)
		}
		spec, err := workloadSpec(name, f)
		if err != nil {
			return nil, err
		}
		serviceName := f.ServiceName
		if serviceName == "" {
			serviceName = name
		}
		next.StatefulSets = append(next.StatefulSets, &types.StatefulSet{
			Meta: meta,
			Spec: types.StatefulSetSpec{
				Replicas:    spec.replicas,
				Selector:    spec.selector,
				Template:    spec.template,
				ServiceName: serviceName,
			},
		})

	case types.KindPod:
		if next.FindPod(name) != nil {
			return nil, fmt.Errorf("pod %q: %w", name, ErrAlreadyExists)
		}
		if f.Image == "" {
			return nil, fmt.Errorf("pod %q requires an image: %w", name, ErrInvalid)
		}
		next.Pods = append(next.Pods, &types.Pod{
			Meta: meta,
			Spec: types.PodSpec{
				Image:       f.Image,
				FailureMode: a.failures.FailureFor(f.Image),
			},
			Status: types.PodStatus{Phase: types.PodPending},
		})

	case types.KindService:
		if next.FindService(name) != nil {
			return nil, fmt.Errorf("service %q: %w", name, ErrAlreadyExists)
		}
		if len(f.Selector) == 0 {
			return nil, fmt.Errorf("service %q requires a selector: %w", name, ErrInvalid)
		}
		port := f.Port
		if port == 0 {
			port = 80
		}
		next.Services = append(next.Services, &types.Service{
			Meta: meta,
			Spec: types.ServiceSpec{Selector: f.Selector, Port: port, Headless: f.Headless},
			Status: types.ServiceStatus{
				Endpoints: []string{},
			},
		})

	case types.KindNode:
		if next.FindNode(name) != nil {
			return nil, fmt.Errorf("node %q: %w", name, ErrAlreadyExists)
		}
		capacity := 10
		if f.PodCapacity != nil {
			capacity = *f.PodCapacity
		}
		if capacity < 0 {
			return nil, fmt.Errorf("node %q capacity must not be negative: %w", name, ErrInvalid)
		}
		next.Nodes = append(next.Nodes, &types.Node{
			Meta: meta,
			Spec: types.NodeSpec{PodCapacity: capacity},
		})

	case types.KindSecret:
		for _, s := range next.Secrets {
			if s.Meta.Name == name {
				return nil, fmt.Errorf("secret %q: %w", name, ErrAlreadyExists)
			}
		}
		next.Secrets = append(next.Secrets, &types.Secret{Meta: meta, Data: f.Data})

	case types.KindConfigMap:
		for _, cm := range next.ConfigMaps {
			if cm.Meta.Name == name {
				return nil, fmt.Errorf("configmap %q: %w", name, ErrAlreadyExists)
			}
		}
		next.ConfigMaps = append(next.ConfigMaps, &types.ConfigMap{Meta: meta, Data: f.Data})

	default:
		return nil, fmt.Errorf("cannot create kind %q: %w", kind, ErrInvalid)
	}

	return next, nil
}

// Scale sets the desired replica count on a workload object.
func (a *Applier) Scale(state *types.ClusterState, kind types.Kind, name string, replicas int) (*types.ClusterState, error) {
	if replicas < 0 {
		return nil, fmt.Errorf("replicas must not be negative: %w", ErrInvalid)
	}
	next := state.DeepCopy()

	switch kind {
	case types.KindDeployment:
		d := next.FindDeployment(name)
		if d == nil {
			return nil, fmt.Errorf("deployment %q: %w", name, ErrNotFound)
		}
		d.Spec.Replicas = replicas
	case types.KindReplicaSet:
		rs := next.FindReplicaSet(name)
		if rs == nil {
			return nil, fmt.Errorf("replicaset %q: %w", name, ErrNotFound)
		}
		rs.Spec.Replicas = replicas
	case types.KindStatefulSet:
		sts := next.FindStatefulSet(name)
		if sts == nil {
			return nil, fmt.Errorf("statefulset %q: %w", name, ErrNotFound)
		}
		sts.Spec.Replicas = replicas
	default:
		return nil, fmt.Errorf("cannot scale kind %q: %w", kind, ErrInvalid)
	}

	return next, nil
}

// SetImage changes the pod template image of a deployment or stateful set.
// It never mutates existing pods or replica sets; controllers roll the
// change out by creating replacements.
func (a *Applier) SetImage(state *types.ClusterState, kind types.Kind, name, image string) (*types.ClusterState, error) {
	if image == "" {
		return nil, fmt.Errorf("image must not be empty: %w", ErrInvalid)
	}
	next := state.DeepCopy()

	switch kind {
	case types.KindDeployment:
		d := next.FindDeployment(name)
		if d == nil {
			return nil, fmt.Errorf("deployment %q: %w", name, ErrNotFound)
		}
		d.Spec.Template.Spec.Image = image
	case types.KindStatefulSet:
		sts := next.FindStatefulSet(name)
		if sts == nil {
			return nil, fmt.Errorf("statefulset %q: %w", name, ErrNotFound)
		}
		sts.Spec.Template.Spec.Image = image
	default:
		return nil, fmt.Errorf("cannot set image on kind %q: %w", kind, ErrInvalid)
	}

	return next, nil
}

// Patch merges the provided fields into an existing object's desired state.
func (a *Applier) Patch(state *types.ClusterState, kind types.Kind, name string, f Fields) (*types.ClusterState, error) {
	next := state.DeepCopy()

	switch kind {
	case types.KindDeployment:
		d := next.FindDeployment(name)
		if d == nil {
			return nil, fmt.Errorf("deployment %q: %w", name, ErrNotFound)
		}
		if f.Replicas != nil {
			d.Spec.Replicas = *f.Replicas
		}
		if f.Image != "" {
			d.Spec.Template.Spec.Image = f.Image
		}
		if f.Labels != nil {
			d.Spec.Template.Labels = types.MergeLabels(d.Spec.Template.Labels, f.Labels)
		}
	case types.KindStatefulSet:
		sts := next.FindStatefulSet(name)
		if sts == nil {
			return nil, fmt.Errorf("statefulset %q: %w", name, ErrNotFound)
		}
		if f.Replicas != nil {
			sts.Spec.Replicas = *f.Replicas
		}
		if f.Image != "" {
			sts.Spec.Template.Spec.Image = f.Image
		}
	case types.KindService:
		svc := next.FindService(name)
		if svc == nil {
			return nil, fmt.Errorf("service %q: %w", name, ErrNotFound)
		}
		if f.Selector != nil {
			svc.Spec.Selector = f.Selector
		}
		if f.Port != 0 {
			svc.Spec.Port = f.Port
		}
	case types.KindPod:
		pod := next.FindPod(name)
		if pod == nil {
			return nil, fmt.Errorf("pod %q: %w", name, ErrNotFound)
		}
		if f.Labels != nil {
			pod.Meta.Labels = types.MergeLabels(pod.Meta.Labels, f.Labels)
		}
	default:
		return nil, fmt.Errorf("cannot patch kind %q: %w", kind, ErrInvalid)
	}

	return next, nil
}

// Delete removes an object. Workload kinds are deleted in two phases (the
// deletion tick is set now, controllers cascade and reap over the following
// ticks); simple kinds are removed immediately.
func (a *Applier) Delete(state *types.ClusterState, kind types.Kind, name string) (*types.ClusterState, error) {
	next := state.DeepCopy()

	switch kind {
	case types.KindPod:
		pod := next.FindPod(name)
		if pod == nil {
			return nil, fmt.Errorf("pod %q: %w", name, ErrNotFound)
		}
		setDeletionTick(&pod.Meta, next.Tick)
	case types.KindReplicaSet:
		rs := next.FindReplicaSet(name)
		if rs == nil {
			return nil, fmt.Errorf("replicaset %q: %w", name, ErrNotFound)
		}
		setDeletionTick(&rs.Meta, next.Tick)
	case types.KindDeployment:
		d := next.FindDeployment(name)
		if d == nil {
			return nil, fmt.Errorf("deployment %q: %w", name, ErrNotFound)
		}
		setDeletionTick(&d.Meta, next.Tick)
	case types.KindStatefulSet:
		sts := next.FindStatefulSet(name)
		if sts == nil {
			return nil, fmt.Errorf("statefulset %q: %w", name, ErrNotFound)
		}
		setDeletionTick(&sts.Meta, next.Tick)
	case types.KindService:
		svc := next.FindService(name)
		if svc == nil {
			return nil, fmt.Errorf("service %q: %w", name, ErrNotFound)
		}
		for i, s := range next.Services {
			if s.Meta.UID == svc.Meta.UID {
				next.Services = append(next.Services[:i], next.Services[i+1:]...)
				break
			}
		}
	case types.KindNode:
		node := next.FindNode(name)
		if node == nil {
			return nil, fmt.Errorf("node %q: %w", name, ErrNotFound)
		}
		for _, pod := range next.Pods {
			if pod.Spec.NodeName == name {
				return nil, fmt.Errorf("node %q still hosts pod %q: %w", name, pod.Meta.Name, ErrInvalid)
			}
		}
		for i, n := range next.Nodes {
			if n.Meta.UID == node.Meta.UID {
				next.Nodes = append(next.Nodes[:i], next.Nodes[i+1:]...)
				break
			}
		}
	case types.KindSecret:
		for i, s := range next.Secrets {
			if s.Meta.Name == name {
				next.Secrets = append(next.Secrets[:i], next.Secrets[i+1:]...)
				return next, nil
			}
		}
		return nil, fmt.Errorf("secret %q: %w", name, ErrNotFound)
	case types.KindConfigMap:
		for i, cm := range next.ConfigMaps {
			if cm.Meta.Name == name {
				next.ConfigMaps = append(next.ConfigMaps[:i], next.ConfigMaps[i+1:]...)
				return next, nil
			}
		}
		return nil, fmt.Errorf("configmap %q: %w", name, ErrNotFound)
	case types.KindPersistentVolumeClaim:
		for i, c := range next.VolumeClaims {
			if c.Meta.Name == name {
				next.VolumeClaims = append(next.VolumeClaims[:i], next.VolumeClaims[i+1:]...)
				return next, nil
			}
		}
		return nil, fmt.Errorf("volume claim %q: %w", name, ErrNotFound)
	default:
		return nil, fmt.Errorf("cannot delete kind %q: %w", kind, ErrInvalid)
	}

	return next, nil
}

// workloadSpec derives the shared replicas/selector/template trio for
// deployments and stateful sets.
type workload struct {
	replicas int
	selector map[string]string
	template types.PodTemplate
}

func workloadSpec(name string, f Fields) (workload, error) {
	if f.Image == "" {
		return workload{}, fmt.Errorf("%q requires an image: %w", name, ErrInvalid)
	}
	replicas := 1
	if f.Replicas != nil {
		replicas = *f.Replicas
	}
	if replicas < 0 {
		return workload{}, fmt.Errorf("replicas must not be negative: %w", ErrInvalid)
	}

	labels := f.Labels
	if len(labels) == 0 {
		labels = map[string]string{"app": name}
	}
	selector := f.Selector
	if len(selector) == 0 {
		selector = labels
	}

	return workload{
		replicas: replicas,
		selector: selector,
		template: types.PodTemplate{
			Labels: labels,
			Spec:   types.PodSpec{Image: f.Image},
		},
	}, nil
}

func strategyFrom(f Fields) (types.DeploymentStrategy, error) {
	strategy := types.DeploymentStrategy{Type: types.StrategyRollingUpdate}
	switch f.Strategy {
	case "", string(types.StrategyRollingUpdate):
	case string(types.StrategyRecreate):
		strategy.Type = types.StrategyRecreate
	default:
		return strategy, fmt.Errorf("unknown strategy %q: %w", f.Strategy, ErrInvalid)
	}
	if f.MaxSurge != nil {
		if *f.MaxSurge < 0 {
			return strategy, fmt.Errorf("maxSurge must not be negative: %w", ErrInvalid)
		}
		strategy.MaxSurge = *f.MaxSurge
	}
	if f.MaxUnavailable != nil {
		if *f.MaxUnavailable < 0 {
			return strategy, fmt.Errorf("maxUnavailable must not be negative: %w", ErrInvalid)
		}
		strategy.MaxUnavailable = *f.MaxUnavailable
	}
	return strategy, nil
}

func setDeletionTick(meta *types.ObjectMeta, tick int) {
	if meta.DeletionTick == nil {
		t := tick
		meta.DeletionTick = &t
	}
}
