package types

// Kind identifies an object's type within the cluster state
type Kind string

const (
	KindPod                   Kind = "Pod"
	KindReplicaSet            Kind = "ReplicaSet"
	KindDeployment            Kind = "Deployment"
	KindStatefulSet           Kind = "StatefulSet"
	KindService               Kind = "Service"
	KindNode                  Kind = "Node"
	KindSecret                Kind = "Secret"
	KindConfigMap             Kind = "ConfigMap"
	KindPersistentVolumeClaim Kind = "PersistentVolumeClaim"
)

// OwnerReference points a child object back to the controller object
// that created it. Used for cascade deletion and self-healing attribution.
type OwnerReference struct {
	Kind Kind
	Name string
	UID  string
}

// ObjectMeta is the metadata shared by every object kind. Names are unique
// within a kind; UIDs are unique across the whole cluster state and stable
// for the object's lifetime. Timestamps are reconcile ticks, not wall time.
type ObjectMeta struct {
	Name           string
	UID            string
	Labels         map[string]string
	OwnerReference *OwnerReference
	CreationTick   int
	// DeletionTick marks the object as terminating when non-nil. The object
	// still exists in the collection until its controller confirms cleanup.
	DeletionTick *int
}

// Terminating reports whether the object has been marked for deletion.
func (m *ObjectMeta) Terminating() bool {
	return m.DeletionTick != nil
}

// OwnedBy reports whether the object's owner reference points at the given UID.
func (m *ObjectMeta) OwnedBy(uid string) bool {
	return m.OwnerReference != nil && m.OwnerReference.UID == uid
}

// PodPhase represents the lifecycle phase of a pod
type PodPhase string

const (
	PodPending          PodPhase = "Pending"
	PodRunning          PodPhase = "Running"
	PodSucceeded        PodPhase = "Succeeded"
	PodFailed           PodPhase = "Failed"
	PodCrashLoopBackOff PodPhase = "CrashLoopBackOff"
	PodTerminating      PodPhase = "Terminating"
)

// FailureMode is a simulated infrastructure failure attached to a pod at
// creation time, resolved from the session's image failure table. Existing
// pods are never mutated when the table changes; only replacement pods pick
// up the new mode.
type FailureMode string

const (
	FailureNone      FailureMode = ""
	FailureImagePull FailureMode = "ImagePullError"
	FailureCrashLoop FailureMode = "CrashLoop"
	FailureOOMKilled FailureMode = "OOMKilled"
)

// FailureMap maps an image string to the failure mode injected for pods
// created from that image. Supplied by lesson setup.
type FailureMap map[string]FailureMode

// FailureFor returns the failure mode injected for the given image.
func (f FailureMap) FailureFor(image string) FailureMode {
	if f == nil {
		return FailureNone
	}
	return f[image]
}

// PodSpec is the desired state of a pod
type PodSpec struct {
	Image    string
	NodeName string
	// NotReady marks the pod as excluded from service endpoints even while Running
	NotReady bool
	// FailureMode is stamped from the session failure table at creation
	FailureMode FailureMode
}

// PodStatus is the observed state of a pod
type PodStatus struct {
	Phase        PodPhase
	Reason       string
	Message      string
	RestartCount int
	TickStarted  int
}

// Pod is the smallest schedulable unit in the simulation
type Pod struct {
	Meta   ObjectMeta
	Spec   PodSpec
	Status PodStatus
}

// Ready reports whether the pod is eligible to receive service traffic and
// counts toward availability. A pod with an injected failure mode is never
// ready, even on the Running half of a crash-loop oscillation: it will crash
// again, and counting it would let rollouts scale down healthy pods.
func (p *Pod) Ready() bool {
	return p.Status.Phase == PodRunning &&
		!p.Spec.NotReady &&
		!p.Meta.Terminating() &&
		p.Spec.FailureMode == FailureNone
}

// PodTemplate describes the pods a controller creates
type PodTemplate struct {
	Labels map[string]string
	Spec   PodSpec
}

// ReplicaSetSpec is the desired state of a replica set
type ReplicaSetSpec struct {
	Replicas int
	Selector map[string]string
	Template PodTemplate
}

// ReplicaSetStatus is the observed state of a replica set
type ReplicaSetStatus struct {
	Replicas      int
	ReadyReplicas int
}

// ReplicaSet maintains a fixed count of identical pods. It is the sole
// source of truth for its desired pod count; it never inspects its owner.
type ReplicaSet struct {
	Meta   ObjectMeta
	Spec   ReplicaSetSpec
	Status ReplicaSetStatus
}

// DeploymentStrategyType selects how a deployment replaces pods on update
type DeploymentStrategyType string

const (
	StrategyRollingUpdate DeploymentStrategyType = "RollingUpdate"
	StrategyRecreate      DeploymentStrategyType = "Recreate"
)

// DeploymentStrategy controls the rollout behavior of a deployment
type DeploymentStrategy struct {
	Type DeploymentStrategyType
	// MaxSurge is the number of pods allowed above spec.Replicas during a rollout
	MaxSurge int
	// MaxUnavailable is the number of pods allowed below spec.Replicas during a rollout
	MaxUnavailable int
}

// DeploymentConditionType identifies a deployment condition
type DeploymentConditionType string

const (
	DeploymentAvailable   DeploymentConditionType = "Available"
	DeploymentProgressing DeploymentConditionType = "Progressing"
)

// DeploymentCondition records one aspect of a deployment's observed state
type DeploymentCondition struct {
	Type     DeploymentConditionType
	Status   bool
	Reason   string
	Message  string
	LastTick int
}

// DeploymentSpec is the desired state of a deployment
type DeploymentSpec struct {
	Replicas int
	Selector map[string]string
	Template PodTemplate
	Strategy DeploymentStrategy
}

// DeploymentStatus is the observed state of a deployment
type DeploymentStatus struct {
	Replicas          int
	UpdatedReplicas   int
	ReadyReplicas     int
	AvailableReplicas int
	Revision          int
	Conditions        []DeploymentCondition
}

// Deployment owns one or more replica sets and orchestrates rolling updates
// between them. Changing the pod template never mutates an existing replica
// set; it always produces a new one with a new template-hash label.
type Deployment struct {
	Meta   ObjectMeta
	Spec   DeploymentSpec
	Status DeploymentStatus
}

// StatefulSetSpec is the desired state of a stateful set
type StatefulSetSpec struct {
	Replicas    int
	Selector    map[string]string
	Template    PodTemplate
	ServiceName string
}

// StatefulSetStatus is the observed state of a stateful set
type StatefulSetStatus struct {
	Replicas      int
	ReadyReplicas int
}

// StatefulSet owns pods with deterministic names <name>-<ordinal> for
// ordinals in [0, replicas). Existing ordinals always form a contiguous
// prefix, enforced by strictly sequential create and delete.
type StatefulSet struct {
	Meta   ObjectMeta
	Spec   StatefulSetSpec
	Status StatefulSetStatus
}

// ServiceSpec is the desired state of a service
type ServiceSpec struct {
	Selector map[string]string
	Port     int
	// Headless selects DNS-identity endpoints instead of plain pod names
	Headless bool
}

// ServiceStatus is the observed state of a service. Endpoints are recomputed
// from scratch each reconcile and never go stale.
type ServiceStatus struct {
	Endpoints []string
}

// Service routes traffic to the Running, ready pods matching its selector
type Service struct {
	Meta   ObjectMeta
	Spec   ServiceSpec
	Status ServiceStatus
}

// NodeSpec is the declared capacity of a node
type NodeSpec struct {
	PodCapacity int
}

// NodeStatus tracks a node's current allocation
type NodeStatus struct {
	AllocatedPods int
}

// Node is a passive capacity ledger consulted by pod placement. Nodes are
// not themselves reconciled.
type Node struct {
	Meta   ObjectMeta
	Spec   NodeSpec
	Status NodeStatus
}

// Secret holds opaque configuration data
type Secret struct {
	Meta ObjectMeta
	Data map[string]string
}

// ConfigMap holds plain configuration data
type ConfigMap struct {
	Meta ObjectMeta
	Data map[string]string
}

// PersistentVolumeClaim simulates stateful-set storage. Claims are retained
// by name across pod recreation and removed only by an explicit delete.
type PersistentVolumeClaim struct {
	Meta ObjectMeta
	// StatefulSetName and Ordinal identify the slot the claim belongs to
	StatefulSetName string
	Ordinal         int
}

// EventType classifies a simulation event
type EventType string

const (
	EventNormal  EventType = "Normal"
	EventWarning EventType = "Warning"
)

// SimEvent is an immutable audit record emitted by controllers whenever they
// change cluster-visible state. Events are append-only.
type SimEvent struct {
	Tick       int
	Type       EventType
	Reason     string
	ObjectKind Kind
	ObjectName string
	Message    string
}
