package migration

import "garrison/internal/manifest"

// Move describes a service's mutable state following it from an old
// (container, target) placement to a new one, per §4.7. Type and
// Package identify the Dysnomia module the snapshot/restore verbs run
// against, carried alongside the placement so the pipeline can build a
// complete invoke.Mapping without a second manifest lookup.
type Move struct {
	Service      string
	Component    string
	Type         string
	Package      string
	OldContainer string
	OldTarget    string
	NewContainer string
	NewTarget    string
}

// DetectMoves pairs up old and new snapshot mappings by (service,
// component) and reports every pair whose (container, target) changed.
// A snapshot mapping present in new with no (service, component) match
// in old is a fresh deployment, not a move, and is not reported here.
func DetectMoves(old, new *manifest.Manifest) []Move {
	oldByKey := make(map[[2]string]*manifest.SnapshotMapping, len(old.SnapshotMappings))
	for _, sm := range old.SnapshotMappings {
		oldByKey[[2]string{sm.Service, sm.Component}] = sm
	}

	var moves []Move
	for _, sm := range new.SnapshotMappings {
		prev, ok := oldByKey[[2]string{sm.Service, sm.Component}]
		if !ok {
			continue
		}
		if prev.Container == sm.Container && prev.Target == sm.Target {
			continue
		}
		svc := new.Services[sm.Service]
		moves = append(moves, Move{
			Service:      sm.Service,
			Component:    sm.Component,
			Type:         svc.Type,
			Package:      svc.Package,
			OldContainer: prev.Container,
			OldTarget:    prev.Target,
			NewContainer: sm.Container,
			NewTarget:    sm.Target,
		})
	}
	return moves
}

// Dropped returns the snapshot mappings present in old whose (service,
// component) has no counterpart anywhere in new — the set eligible for
// delete-state cleanup in step 5 once restore completes elsewhere.
func Dropped(old, new *manifest.Manifest) []*manifest.SnapshotMapping {
	newKeys := make(map[[2]string]bool, len(new.SnapshotMappings))
	for _, sm := range new.SnapshotMappings {
		newKeys[[2]string{sm.Service, sm.Component}] = true
	}

	var dropped []*manifest.SnapshotMapping
	for _, sm := range old.SnapshotMappings {
		if !newKeys[[2]string{sm.Service, sm.Component}] {
			dropped = append(dropped, sm)
		}
	}
	return dropped
}
