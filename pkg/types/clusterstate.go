package types

// ClusterState is the aggregate root: a snapshot of every object collection
// plus the current tick. Every collection is always present (possibly empty)
// so the engine's contract stays uniform regardless of which kinds a lesson
// uses. The engine owns the snapshot; collaborators read it or request
// mutations through the command layer, never splice the slices directly.
type ClusterState struct {
	Tick         int
	Pods         []*Pod
	ReplicaSets  []*ReplicaSet
	Deployments  []*Deployment
	StatefulSets []*StatefulSet
	Services     []*Service
	Nodes        []*Node
	Secrets      []*Secret
	ConfigMaps   []*ConfigMap
	VolumeClaims []*PersistentVolumeClaim
	Events       []SimEvent
}

// NewClusterState returns an empty snapshot at tick zero.
func NewClusterState() *ClusterState {
	return &ClusterState{
		Pods:         []*Pod{},
		ReplicaSets:  []*ReplicaSet{},
		Deployments:  []*Deployment{},
		StatefulSets: []*StatefulSet{},
		Services:     []*Service{},
		Nodes:        []*Node{},
		Secrets:      []*Secret{},
		ConfigMaps:   []*ConfigMap{},
		VolumeClaims: []*PersistentVolumeClaim{},
		Events:       []SimEvent{},
	}
}

// FindPod returns the pod with the given name, or nil.
func (s *ClusterState) FindPod(name string) *Pod {
	for _, p := range s.Pods {
		if p.Meta.Name == name {
			return p
		}
	}
	return nil
}

// FindReplicaSet returns the replica set with the given name, or nil.
func (s *ClusterState) FindReplicaSet(name string) *ReplicaSet {
	for _, rs := range s.ReplicaSets {
		if rs.Meta.Name == name {
			return rs
		}
	}
	return nil
}

// FindDeployment returns the deployment with the given name, or nil.
func (s *ClusterState) FindDeployment(name string) *Deployment {
	for _, d := range s.Deployments {
		if d.Meta.Name == name {
			return d
		}
	}
	return nil
}

// FindStatefulSet returns the stateful set with the given name, or nil.
func (s *ClusterState) FindStatefulSet(name string) *StatefulSet {
	for _, ss := range s.StatefulSets {
		if ss.Meta.Name == name {
			return ss
		}
	}
	return nil
}

// FindService returns the service with the given name, or nil.
func (s *ClusterState) FindService(name string) *Service {
	for _, svc := range s.Services {
		if svc.Meta.Name == name {
			return svc
		}
	}
	return nil
}

// FindNode returns the node with the given name, or nil.
func (s *ClusterState) FindNode(name string) *Node {
	for _, n := range s.Nodes {
		if n.Meta.Name == name {
			return n
		}
	}
	return nil
}

// FindVolumeClaim returns the volume claim with the given name, or nil.
func (s *ClusterState) FindVolumeClaim(name string) *PersistentVolumeClaim {
	for _, c := range s.VolumeClaims {
		if c.Meta.Name == name {
			return c
		}
	}
	return nil
}

// PodsOwnedBy returns all pods whose owner reference points at the given UID,
// in insertion order.
func (s *ClusterState) PodsOwnedBy(uid string) []*Pod {
	var owned []*Pod
	for _, p := range s.Pods {
		if p.Meta.OwnedBy(uid) {
			owned = append(owned, p)
		}
	}
	return owned
}

// ReplicaSetsOwnedBy returns all replica sets owned by the given UID,
// in insertion order.
func (s *ClusterState) ReplicaSetsOwnedBy(uid string) []*ReplicaSet {
	var owned []*ReplicaSet
	for _, rs := range s.ReplicaSets {
		if rs.Meta.OwnedBy(uid) {
			owned = append(owned, rs)
		}
	}
	return owned
}

// RemovePod removes the pod with the given UID from the collection.
func (s *ClusterState) RemovePod(uid string) {
	for i, p := range s.Pods {
		if p.Meta.UID == uid {
			s.Pods = append(s.Pods[:i], s.Pods[i+1:]...)
			return
		}
	}
}

// RemoveReplicaSet removes the replica set with the given UID from the collection.
func (s *ClusterState) RemoveReplicaSet(uid string) {
	for i, rs := range s.ReplicaSets {
		if rs.Meta.UID == uid {
			s.ReplicaSets = append(s.ReplicaSets[:i], s.ReplicaSets[i+1:]...)
			return
		}
	}
}

// RemoveDeployment removes the deployment with the given UID from the collection.
func (s *ClusterState) RemoveDeployment(uid string) {
	for i, d := range s.Deployments {
		if d.Meta.UID == uid {
			s.Deployments = append(s.Deployments[:i], s.Deployments[i+1:]...)
			return
		}
	}
}

// RemoveStatefulSet removes the stateful set with the given UID from the collection.
func (s *ClusterState) RemoveStatefulSet(uid string) {
	for i, ss := range s.StatefulSets {
		if ss.Meta.UID == uid {
			s.StatefulSets = append(s.StatefulSets[:i], s.StatefulSets[i+1:]...)
			return
		}
	}
}

// Record appends an event to the audit log.
func (s *ClusterState) Record(ev SimEvent) {
	s.Events = append(s.Events, ev)
}

// DeepCopy returns a full copy of the snapshot. The engine copies the prior
// state before each tick so no partial mutation is ever visible externally.
func (s *ClusterState) DeepCopy() *ClusterState {
	out := &ClusterState{
		Tick:         s.Tick,
		Pods:         make([]*Pod, len(s.Pods)),
		ReplicaSets:  make([]*ReplicaSet, len(s.ReplicaSets)),
		Deployments:  make([]*Deployment, len(s.Deployments)),
		StatefulSets: make([]*StatefulSet, len(s.StatefulSets)),
		Services:     make([]*Service, len(s.Services)),
		Nodes:        make([]*Node, len(s.Nodes)),
		Secrets:      make([]*Secret, len(s.Secrets)),
		ConfigMaps:   make([]*ConfigMap, len(s.ConfigMaps)),
		VolumeClaims: make([]*PersistentVolumeClaim, len(s.VolumeClaims)),
		Events:       make([]SimEvent, len(s.Events)),
	}
	for i, p := range s.Pods {
		out.Pods[i] = p.DeepCopy()
	}
	for i, rs := range s.ReplicaSets {
		out.ReplicaSets[i] = rs.DeepCopy()
	}
	for i, d := range s.Deployments {
		out.Deployments[i] = d.DeepCopy()
	}
	for i, ss := range s.StatefulSets {
		out.StatefulSets[i] = ss.DeepCopy()
	}
	for i, svc := range s.Services {
		out.Services[i] = svc.DeepCopy()
	}
	for i, n := range s.Nodes {
		out.Nodes[i] = n.DeepCopy()
	}
	for i, sec := range s.Secrets {
		out.Secrets[i] = &Secret{Meta: sec.Meta.deepCopy(), Data: copyStringMap(sec.Data)}
	}
	for i, cm := range s.ConfigMaps {
		out.ConfigMaps[i] = &ConfigMap{Meta: cm.Meta.deepCopy(), Data: copyStringMap(cm.Data)}
	}
	for i, c := range s.VolumeClaims {
		cc := *c
		cc.Meta = c.Meta.deepCopy()
		out.VolumeClaims[i] = &cc
	}
	copy(out.Events, s.Events)
	return out
}

// DeepCopy returns a copy of the pod.
func (p *Pod) DeepCopy() *Pod {
	out := *p
	out.Meta = p.Meta.deepCopy()
	return &out
}

// DeepCopy returns a copy of the replica set.
func (rs *ReplicaSet) DeepCopy() *ReplicaSet {
	out := *rs
	out.Meta = rs.Meta.deepCopy()
	out.Spec.Selector = copyStringMap(rs.Spec.Selector)
	out.Spec.Template = rs.Spec.Template.deepCopy()
	return &out
}

// DeepCopy returns a copy of the deployment.
func (d *Deployment) DeepCopy() *Deployment {
	out := *d
	out.Meta = d.Meta.deepCopy()
	out.Spec.Selector = copyStringMap(d.Spec.Selector)
	out.Spec.Template = d.Spec.Template.deepCopy()
	out.Status.Conditions = make([]DeploymentCondition, len(d.Status.Conditions))
	copy(out.Status.Conditions, d.Status.Conditions)
	return &out
}

// DeepCopy returns a copy of the stateful set.
func (ss *StatefulSet) DeepCopy() *StatefulSet {
	out := *ss
	out.Meta = ss.Meta.deepCopy()
	out.Spec.Selector = copyStringMap(ss.Spec.Selector)
	out.Spec.Template = ss.Spec.Template.deepCopy()
	return &out
}

// DeepCopy returns a copy of the service.
func (svc *Service) DeepCopy() *Service {
	out := *svc
	out.Meta = svc.Meta.deepCopy()
	out.Spec.Selector = copyStringMap(svc.Spec.Selector)
	out.Status.Endpoints = append([]string(nil), svc.Status.Endpoints...)
	return &out
}

// DeepCopy returns a copy of the node.
func (n *Node) DeepCopy() *Node {
	out := *n
	out.Meta = n.Meta.deepCopy()
	return &out
}

func (m ObjectMeta) deepCopy() ObjectMeta {
	out := m
	out.Labels = copyStringMap(m.Labels)
	if m.OwnerReference != nil {
		ref := *m.OwnerReference
		out.OwnerReference = &ref
	}
	if m.DeletionTick != nil {
		t := *m.DeletionTick
		out.DeletionTick = &t
	}
	return out
}

func (t PodTemplate) deepCopy() PodTemplate {
	return PodTemplate{Labels: copyStringMap(t.Labels), Spec: t.Spec}
}

func copyStringMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
