package view

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-visualizer/backend/internal/models"
	"github.com/mesh-visualizer/backend/internal/store"
)

func marker(site, mac string, lat, lng float64) models.Marker {
	return models.Marker{
		Kind:     models.MarkerKindNode,
		Site:     site,
		MAC:      mac,
		Position: models.Coordinate{Lat: lat, Lng: lng},
	}
}

func TestClusterMarkersSingleSite(t *testing.T) {
	markers := []models.Marker{
		marker("grenoble", "11:11", 45.1885, 5.7245),
		marker("grenoble", "22:22", 45.1886, 5.7246),
	}

	clusters := clusterMarkers(markers, 0.05)
	require.Len(t, clusters, 1)

	c := clusters[0]
	assert.Equal(t, 2, c.Count)
	assert.Equal(t, []string{"grenoble"}, c.Sites)
	assert.True(t, c.Selectable)
	assert.InDelta(t, 45.18855, c.Position.Lat, 1e-9)
}

func TestClusterMarkersSeparatesDistantSites(t *testing.T) {
	markers := []models.Marker{
		marker("grenoble", "11:11", 45.1885, 5.7245),
		marker("lille", "aa:aa", 50.6292, 3.0573),
	}

	clusters := clusterMarkers(markers, 0.05)
	require.Len(t, clusters, 2)
	assert.True(t, clusters[0].Selectable)
	assert.True(t, clusters[1].Selectable)
}

func TestClusterMarkersMixedCellNotSelectable(t *testing.T) {
	// Two sites landing in the same cell: the cluster is ambiguous and
	// must not dispatch a site selection.
	markers := []models.Marker{
		marker("a", "11:11", 45.1001, 5.1001),
		marker("b", "22:22", 45.1002, 5.1002),
	}

	clusters := clusterMarkers(markers, 0.05)
	require.Len(t, clusters, 1)
	assert.False(t, clusters[0].Selectable)
	assert.Equal(t, []string{"a", "b"}, clusters[0].Sites)
}

func TestClusterMarkersEmpty(t *testing.T) {
	assert.Empty(t, clusterMarkers(nil, 0.05))
}

func TestSnapshot(t *testing.T) {
	s := store.New()
	s.RegisterSite(models.Site{Name: "grenoble", Position: models.Coordinate{Lat: 45.1885, Lng: 5.7245}})
	_, err := s.RegisterMarker(marker("grenoble", "11:11", 45.1885, 5.7245))
	require.NoError(t, err)
	s.RegisterLine(models.Line{Site: "grenoble", Experiment: "exp1"})

	p := New(s, 0.05)
	snap := p.Snapshot(NavStatus{
		Generation:  3,
		State:       models.StateExperimentRendered,
		Site:        "grenoble",
		Experiment:  "exp1",
		Experiments: []string{"exp1"},
	})

	assert.Equal(t, uint64(3), snap.Generation)
	assert.Equal(t, models.StateExperimentRendered, snap.State)
	assert.Len(t, snap.Sites, 1)
	assert.Len(t, snap.Markers, 1)
	assert.Len(t, snap.Lines, 1)
	assert.Len(t, snap.Clusters, 1)
}

func TestMarkerPopupPrettyPrintsMetadata(t *testing.T) {
	s := store.New()
	m := marker("grenoble", "11:11", 45, 5)
	m.Meta = json.RawMessage(`{"archi":"wsn430","mac":"11:11"}`)
	_, err := s.RegisterMarker(m)
	require.NoError(t, err)

	p := New(s, 0.05)
	payload, ok := p.MarkerPopup("grenoble", "11:11")
	require.True(t, ok)
	assert.Contains(t, string(payload), "\n")

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(payload, &decoded))
	assert.Equal(t, "wsn430", decoded["archi"])

	_, ok = p.MarkerPopup("grenoble", "99:99")
	assert.False(t, ok)
}

func TestLinePopupReturnsRawPayload(t *testing.T) {
	s := store.New()
	raw := json.RawMessage(`[{"src":"11:11","dst":"22:22","PDR":{"average":90}}]`)
	l := s.RegisterLine(models.Line{Site: "grenoble", Raw: raw})

	p := New(s, 0.05)
	payload, ok := p.LinePopup(l.ID)
	require.True(t, ok)
	assert.Equal(t, []byte(raw), payload)

	_, ok = p.LinePopup("missing")
	assert.False(t, ok)
}
