// Package view translates the entity store's contents into the visual
// primitives the frontend draws: markers, polylines, clusters and popup
// payloads. The package owns no navigation state; it renders whatever
// the store currently holds.
package view

import (
	"bytes"
	"encoding/json"

	"github.com/mesh-visualizer/backend/internal/models"
	"github.com/mesh-visualizer/backend/internal/store"
)

// NavStatus is the controller-side context a snapshot is rendered
// under.
type NavStatus struct {
	Generation  uint64
	State       models.NavState
	Site        string
	Experiment  string
	Experiments []string
}

// Presenter builds view snapshots and popup payloads.
type Presenter struct {
	store       *store.EntityStore
	cellDegrees float64
}

// New creates a presenter over the given store. cellDegrees is the
// clustering grid cell size in decimal degrees.
func New(s *store.EntityStore, cellDegrees float64) *Presenter {
	return &Presenter{store: s, cellDegrees: cellDegrees}
}

// Snapshot assembles one consistent picture of the current view.
func (p *Presenter) Snapshot(status NavStatus) models.ViewSnapshot {
	markers := p.store.Markers()
	return models.ViewSnapshot{
		Generation:  status.Generation,
		State:       status.State,
		Site:        status.Site,
		Experiment:  status.Experiment,
		Experiments: status.Experiments,
		Sites:       p.store.Sites(),
		Markers:     markers,
		Lines:       p.store.Lines(),
		Clusters:    clusterMarkers(markers, p.cellDegrees),
	}
}

// MarkerPopup returns the marker's raw metadata serialized for human
// inspection, or false when the marker is unknown.
func (p *Presenter) MarkerPopup(site, mac string) ([]byte, bool) {
	m, ok := p.store.FindMarker(site, mac)
	if !ok {
		return nil, false
	}
	if len(m.Meta) == 0 {
		return []byte("{}"), true
	}
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, m.Meta, "", "  "); err != nil {
		// Metadata came straight off the wire; serve it as-is if it
		// somehow resists re-indentation.
		return m.Meta, true
	}
	return pretty.Bytes(), true
}

// LinePopup returns the rendered path's original payload byte-for-byte,
// or false when the line is unknown.
func (p *Presenter) LinePopup(id string) ([]byte, bool) {
	l, ok := p.store.FindLine(id)
	if !ok {
		return nil, false
	}
	return l.Raw, true
}
