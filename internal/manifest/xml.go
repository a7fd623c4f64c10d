package manifest

import (
	"encoding/xml"
	"fmt"
	"io"
)

// xmlDocument mirrors the verbose element-per-attribute manifest form
// described in §6. encoding/xml decodes repeated child elements into a
// slice in document order, which is what preserves the insertion-order
// tie-break that §4.5's traversal relies on — no hand-rolled token loop
// is needed to get that guarantee.
type xmlDocument struct {
	XMLName          xml.Name          `xml:"manifest"`
	Services         []xmlService      `xml:"services>service"`
	Infrastructure   []xmlTarget       `xml:"infrastructure>target"`
	ServiceMappings  []xmlMapping      `xml:"serviceMappings>mapping"`
	SnapshotMappings []xmlSnapshotMap  `xml:"snapshotMappings>mapping"`
	ProfileMappings  []xmlProfileEntry `xml:"profileMappings>mapping"`
}

type xmlDependency struct {
	Service   string `xml:"service,attr"`
	Container string `xml:"container,attr"`
	Target    string `xml:"target,attr,omitempty"`
}

type xmlService struct {
	Name       string          `xml:"name,attr"`
	Package    string          `xml:"package,attr"`
	Type       string          `xml:"type,attr"`
	DependsOn  []xmlDependency `xml:"dependsOn>dependency"`
	ConnectsOn []xmlDependency `xml:"connectsOn>dependency"`
}

type xmlProperty struct {
	Name  string `xml:"name,attr"`
	Value string `xml:",chardata"`
}

type xmlContainer struct {
	Name       string        `xml:"name,attr"`
	Properties []xmlProperty `xml:"property"`
}

type xmlTarget struct {
	Name            string         `xml:"name,attr"`
	Properties      []xmlProperty  `xml:"properties>property"`
	Containers      []xmlContainer `xml:"containers>container"`
	ClientInterface string         `xml:"clientInterface"`
	TargetProperty  string         `xml:"targetProperty"`
	NumOfCores      int            `xml:"numOfCores"`
}

type xmlMapping struct {
	Service   string `xml:"service,attr"`
	Container string `xml:"container,attr"`
	Target    string `xml:"target,attr"`
}

type xmlSnapshotMap struct {
	Service   string `xml:"service,attr"`
	Container string `xml:"container,attr"`
	Target    string `xml:"target,attr"`
	Component string `xml:"component,attr"`
}

type xmlProfileEntry struct {
	Target  string `xml:"target,attr"`
	Profile string `xml:"profile,attr"`
}

// Load parses an XML manifest document, builds its in-memory
// representation, and validates every invariant in §3. Duplicate
// (service, container, target) triples are rejected as
// ErrDuplicateMapping per the Open Question resolution in §9.
func Load(r io.Reader) (*Manifest, error) {
	var doc xmlDocument
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrMalformedInput, err)
	}

	m := New()

	for _, s := range doc.Services {
		m.Services[s.Name] = Service{
			Name:       s.Name,
			Package:    s.Package,
			Type:       s.Type,
			DependsOn:  toDependencyRefs(s.DependsOn),
			ConnectsOn: toDependencyRefs(s.ConnectsOn),
		}
	}

	for _, t := range doc.Infrastructure {
		target := Target{
			Name:            t.Name,
			Properties:      make(map[string]string, len(t.Properties)),
			Containers:      make(map[string]map[string]string, len(t.Containers)),
			ClientInterface: t.ClientInterface,
			TargetProperty:  t.TargetProperty,
			NumOfCores:      t.NumOfCores,
			AvailableCores:  t.NumOfCores,
		}
		for _, p := range t.Properties {
			target.Properties[p.Name] = p.Value
		}
		for _, c := range t.Containers {
			props := make(map[string]string, len(c.Properties))
			for _, p := range c.Properties {
				props[p.Name] = p.Value
			}
			target.Containers[c.Name] = props
		}
		m.Targets[t.Name] = target
	}

	for _, entry := range doc.ServiceMappings {
		mapping := &ServiceMapping{
			Service:   entry.Service,
			Container: entry.Container,
			Target:    entry.Target,
			Status:    StatusUnknown,
		}
		if !m.ServiceMappings.Add(mapping) {
			return nil, fmt.Errorf("%w: %s/%s@%s appears more than once",
				ErrDuplicateMapping, entry.Service, entry.Container, entry.Target)
		}
	}

	for _, entry := range doc.SnapshotMappings {
		m.SnapshotMappings = append(m.SnapshotMappings, &SnapshotMapping{
			Service:   entry.Service,
			Container: entry.Container,
			Target:    entry.Target,
			Component: entry.Component,
		})
	}

	for _, entry := range doc.ProfileMappings {
		m.ProfileMappings[entry.Target] = entry.Profile
	}

	if errs := m.Validate(); errs.HasErrors() {
		return nil, errs
	}

	return m, nil
}

func toDependencyRefs(deps []xmlDependency) []DependencyRef {
	out := make([]DependencyRef, 0, len(deps))
	for _, d := range deps {
		out = append(out, DependencyRef{Service: d.Service, Container: d.Container, Target: d.Target})
	}
	return out
}

// Marshal serializes m back to the XML manifest form. Parsing the
// result with Load must reproduce structurally equal services,
// mappings, and targets (§8 property 6).
func Marshal(m *Manifest) ([]byte, error) {
	doc := xmlDocument{}

	for _, s := range m.Services {
		doc.Services = append(doc.Services, xmlService{
			Name:       s.Name,
			Package:    s.Package,
			Type:       s.Type,
			DependsOn:  fromDependencyRefs(s.DependsOn),
			ConnectsOn: fromDependencyRefs(s.ConnectsOn),
		})
	}

	for _, t := range m.Targets {
		xt := xmlTarget{
			Name:            t.Name,
			ClientInterface: t.ClientInterface,
			TargetProperty:  t.TargetProperty,
			NumOfCores:      t.NumOfCores,
		}
		for name, value := range t.Properties {
			xt.Properties = append(xt.Properties, xmlProperty{Name: name, Value: value})
		}
		for name, props := range t.Containers {
			xc := xmlContainer{Name: name}
			for pname, pval := range props {
				xc.Properties = append(xc.Properties, xmlProperty{Name: pname, Value: pval})
			}
			xt.Containers = append(xt.Containers, xc)
		}
		doc.Infrastructure = append(doc.Infrastructure, xt)
	}

	for _, mapping := range m.ServiceMappings.All() {
		doc.ServiceMappings = append(doc.ServiceMappings, xmlMapping{
			Service: mapping.Service, Container: mapping.Container, Target: mapping.Target,
		})
	}

	for _, snap := range m.SnapshotMappings {
		doc.SnapshotMappings = append(doc.SnapshotMappings, xmlSnapshotMap{
			Service: snap.Service, Container: snap.Container, Target: snap.Target, Component: snap.Component,
		})
	}

	for target, profile := range m.ProfileMappings {
		doc.ProfileMappings = append(doc.ProfileMappings, xmlProfileEntry{Target: target, Profile: profile})
	}

	return xml.MarshalIndent(doc, "", "  ")
}

func fromDependencyRefs(refs []DependencyRef) []xmlDependency {
	out := make([]xmlDependency, 0, len(refs))
	for _, r := range refs {
		out = append(out, xmlDependency{Service: r.Service, Container: r.Container, Target: r.Target})
	}
	return out
}
