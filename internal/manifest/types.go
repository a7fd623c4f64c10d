package manifest

// MappingStatus is the transient runtime state of a ServiceMapping during
// a deployment. It is never persisted as part of the manifest document.
type MappingStatus int

const (
	StatusUnknown MappingStatus = iota
	StatusActivated
	StatusDeactivated
	StatusInError
)

func (s MappingStatus) String() string {
	switch s {
	case StatusActivated:
		return "Activated"
	case StatusDeactivated:
		return "Deactivated"
	case StatusInError:
		return "InError"
	default:
		return "Unknown"
	}
}

// DependencyRef names another mapping, resolved relative to the
// referring service. An empty Target means "same target as the
// referrer" (§3's implicit-target rule).
type DependencyRef struct {
	Service   string
	Container string
	Target    string
}

// Service is a deployable unit, opaque to the coordinator beyond its
// Type, which names the Dysnomia module responsible for its lifecycle.
type Service struct {
	Name       string
	Package    string
	Type       string
	DependsOn  []DependencyRef
	ConnectsOn []DependencyRef
}

// Target is a machine reachable via ClientInterface, with a concurrency
// budget (NumOfCores/AvailableCores) and a set of named Containers, each
// carrying a string-keyed property map.
type Target struct {
	Name            string
	Properties      map[string]string
	Containers      map[string]map[string]string
	ClientInterface string
	TargetProperty  string
	NumOfCores      int
	AvailableCores  int
}

// Address returns the target's network address: the value of
// Properties[TargetProperty].
func (t Target) Address() string {
	return t.Properties[t.TargetProperty]
}

// MappingKey is the (service, container, target) triple that uniquely
// identifies a ServiceMapping or a SnapshotMapping's service component.
type MappingKey struct {
	Service   string
	Container string
	Target    string
}

// ServiceMapping is the unit of deployment: a service placed in a
// container on a target, together with its transient activation status.
type ServiceMapping struct {
	Service   string
	Container string
	Target    string
	Status    MappingStatus
}

// Key returns the mapping's identifying triple.
func (m *ServiceMapping) Key() MappingKey {
	return MappingKey{Service: m.Service, Container: m.Container, Target: m.Target}
}

// SnapshotMapping identifies mutable state, scoped to a Component within
// a service mapping, that must follow the service when it moves.
type SnapshotMapping struct {
	Service     string
	Container   string
	Target      string
	Component   string
	Transferred bool
}

// Key returns the (service, container, target) triple the snapshot
// mapping rides on.
func (s *SnapshotMapping) Key() MappingKey {
	return MappingKey{Service: s.Service, Container: s.Container, Target: s.Target}
}

// Interface pairs a target address with the client-interface executable
// used to reach it; the simpler parallel of Target used by the
// distributed-build variant.
type Interface struct {
	TargetAddress   string
	ClientInterface string
}

// Manifest is the full declarative description of a deployment: the
// services that should run, the targets they run on, the mappings
// between them, and the per-target currently-deployed profile markers.
type Manifest struct {
	Services          map[string]Service
	ServiceMappings   *MappingSet
	SnapshotMappings  []*SnapshotMapping
	Targets           map[string]Target
	ProfileMappings   map[string]string
}

// New returns an empty, ready-to-populate Manifest.
func New() *Manifest {
	return &Manifest{
		Services:        make(map[string]Service),
		ServiceMappings: NewMappingSet(),
		Targets:         make(map[string]Target),
		ProfileMappings: make(map[string]string),
	}
}

// Resolve applies the implicit-target rule: a DependencyRef with no
// Target resolves to the target of the referring mapping, keeping its
// own Service and Container.
func (r DependencyRef) Resolve(referrer MappingKey) MappingKey {
	target := r.Target
	if target == "" {
		target = referrer.Target
	}
	return MappingKey{Service: r.Service, Container: r.Container, Target: target}
}
