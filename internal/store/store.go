// Package store holds the in-memory entity registries: discovered
// sites, placed markers and drawn lines. State lives for the process
// only and is rebuilt from scratch on restart.
package store

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/mesh-visualizer/backend/internal/models"
)

// zOffsetActive is the z-order boost applied to markers that are an
// endpoint of a rendered path.
const zOffsetActive = 1000

// EntityStore registers and looks up sites, markers and lines. Mutation
// originates from the navigation controller and the startup discovery
// fan-out, so all access is mutex-guarded.
type EntityStore struct {
	mu          sync.RWMutex
	sites       map[string]*models.Site
	siteOrder   []string
	markers     []*models.Marker
	markerIndex map[string]*models.Marker // keyed site+"\x00"+mac
	lines       []*models.Line
	lineIndex   map[string]*models.Line
}

// New creates an empty store.
func New() *EntityStore {
	return &EntityStore{
		sites:       make(map[string]*models.Site),
		markerIndex: make(map[string]*models.Marker),
		lineIndex:   make(map[string]*models.Line),
	}
}

func markerKey(site, mac string) string {
	return site + "\x00" + mac
}

// RegisterSite records a discovered site. Registering the same name
// twice keeps the first entry; sites are immutable once created.
func (s *EntityStore) RegisterSite(site models.Site) *models.Site {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.sites[site.Name]; ok {
		return existing
	}
	stored := site
	s.sites[site.Name] = &stored
	s.siteOrder = append(s.siteOrder, site.Name)
	return &stored
}

// Site returns a registered site by name.
func (s *EntityStore) Site(name string) (*models.Site, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	site, ok := s.sites[name]
	return site, ok
}

// Sites returns all registered sites in registration order.
func (s *EntityStore) Sites() []models.Site {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Site, 0, len(s.siteOrder))
	for _, name := range s.siteOrder {
		out = append(out, *s.sites[name])
	}
	return out
}

// RegisterMarker places a marker and returns it for later state
// mutation. Node markers must be unambiguous per (site, mac).
func (s *EntityStore) RegisterMarker(m models.Marker) (*models.Marker, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if m.Kind == models.MarkerKindNode {
		if m.MAC == "" {
			return nil, fmt.Errorf("node marker at site %q has no link-layer address", m.Site)
		}
		if _, exists := s.markerIndex[markerKey(m.Site, m.MAC)]; exists {
			return nil, fmt.Errorf("duplicate marker %s at site %s", m.MAC, m.Site)
		}
	}

	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	stored := m
	s.markers = append(s.markers, &stored)
	if m.Kind == models.MarkerKindNode {
		s.markerIndex[markerKey(m.Site, m.MAC)] = &stored
	}
	return &stored, nil
}

// FindMarker looks a node marker up by site and link-layer address.
func (s *EntityStore) FindMarker(site, mac string) (*models.Marker, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.markerIndex[markerKey(site, mac)]
	return m, ok
}

// Markers returns a snapshot copy of all markers.
func (s *EntityStore) Markers() []models.Marker {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Marker, 0, len(s.markers))
	for _, m := range s.markers {
		out = append(out, *m)
	}
	return out
}

// MarkerCount returns the number of placed markers.
func (s *EntityStore) MarkerCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.markers)
}

// ActivateMarker flags a marker as a rendered-path endpoint and raises
// its z-order so it draws above idle markers.
func (s *EntityStore) ActivateMarker(m *models.Marker) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m.Active = true
	m.ZOffset = zOffsetActive
}

// ResetMarkers returns every marker to its default icon state.
func (s *EntityStore) ResetMarkers() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.markers {
		m.Active = false
		m.ZOffset = 0
	}
}

// RegisterLine records a rendered path line.
func (s *EntityStore) RegisterLine(l models.Line) *models.Line {
	s.mu.Lock()
	defer s.mu.Unlock()

	if l.ID == "" {
		l.ID = uuid.New().String()
	}
	stored := l
	s.lines = append(s.lines, &stored)
	s.lineIndex[stored.ID] = &stored
	return &stored
}

// FindLine looks a line up by ID.
func (s *EntityStore) FindLine(id string) (*models.Line, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.lineIndex[id]
	return l, ok
}

// Lines returns a snapshot copy of all lines.
func (s *EntityStore) Lines() []models.Line {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Line, 0, len(s.lines))
	for _, l := range s.lines {
		out = append(out, *l)
	}
	return out
}

// LineCount returns the number of registered lines.
func (s *EntityStore) LineCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.lines)
}

// ClearLines drops every line. Called before each experiment render so
// the registry only ever holds one experiment's paths.
func (s *EntityStore) ClearLines() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lines = nil
	s.lineIndex = make(map[string]*models.Line)
}
