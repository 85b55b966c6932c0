package store

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-visualizer/backend/internal/models"
)

func nodeMarker(site, mac string) models.Marker {
	return models.Marker{
		Kind: models.MarkerKindNode,
		Site: site,
		MAC:  mac,
	}
}

func TestRegisterSiteIdempotent(t *testing.T) {
	s := New()

	first := s.RegisterSite(models.Site{Name: "grenoble", Position: models.Coordinate{Lat: 45, Lng: 5}})
	second := s.RegisterSite(models.Site{Name: "grenoble", Position: models.Coordinate{Lat: 1, Lng: 1}})

	// Sites are immutable after creation; re-registration keeps the
	// original.
	assert.Same(t, first, second)
	assert.Equal(t, 45.0, second.Position.Lat)
	assert.Len(t, s.Sites(), 1)
}

func TestSitesKeepRegistrationOrder(t *testing.T) {
	s := New()
	s.RegisterSite(models.Site{Name: "b"})
	s.RegisterSite(models.Site{Name: "a"})
	s.RegisterSite(models.Site{Name: "c"})

	names := make([]string, 0, 3)
	for _, site := range s.Sites() {
		names = append(names, site.Name)
	}
	assert.Equal(t, []string{"b", "a", "c"}, names)
}

func TestRegisterAndFindMarker(t *testing.T) {
	s := New()

	m, err := s.RegisterMarker(nodeMarker("grenoble", "11:11"))
	require.NoError(t, err)
	assert.NotEmpty(t, m.ID)

	found, ok := s.FindMarker("grenoble", "11:11")
	require.True(t, ok)
	assert.Same(t, m, found)

	_, ok = s.FindMarker("grenoble", "99:99")
	assert.False(t, ok)

	// Same mac at a different site is a different marker.
	_, ok = s.FindMarker("lille", "11:11")
	assert.False(t, ok)
}

func TestRegisterMarkerRejectsDuplicates(t *testing.T) {
	s := New()

	_, err := s.RegisterMarker(nodeMarker("grenoble", "11:11"))
	require.NoError(t, err)

	_, err = s.RegisterMarker(nodeMarker("grenoble", "11:11"))
	require.Error(t, err)

	_, err = s.RegisterMarker(nodeMarker("lille", "11:11"))
	assert.NoError(t, err)
}

func TestRegisterMarkerRejectsEmptyAddress(t *testing.T) {
	s := New()
	_, err := s.RegisterMarker(nodeMarker("grenoble", ""))
	require.Error(t, err)
}

func TestSiteAnchorsSkipAddressIndex(t *testing.T) {
	s := New()

	_, err := s.RegisterMarker(models.Marker{Kind: models.MarkerKindSite, Site: "grenoble"})
	require.NoError(t, err)
	_, err = s.RegisterMarker(models.Marker{Kind: models.MarkerKindSite, Site: "grenoble"})
	require.NoError(t, err)

	assert.Equal(t, 2, s.MarkerCount())
}

func TestActivateAndResetMarkers(t *testing.T) {
	s := New()
	a, err := s.RegisterMarker(nodeMarker("grenoble", "11:11"))
	require.NoError(t, err)
	b, err := s.RegisterMarker(nodeMarker("grenoble", "22:22"))
	require.NoError(t, err)

	s.ActivateMarker(a)
	assert.True(t, a.Active)
	assert.NotZero(t, a.ZOffset)
	assert.False(t, b.Active)

	s.ResetMarkers()
	assert.False(t, a.Active)
	assert.Zero(t, a.ZOffset)
}

func TestLinesRegisterFindClear(t *testing.T) {
	s := New()

	l := s.RegisterLine(models.Line{Site: "grenoble", Experiment: "exp1", SrcMAC: "11:11", DstMAC: "22:22"})
	require.NotEmpty(t, l.ID)

	found, ok := s.FindLine(l.ID)
	require.True(t, ok)
	assert.Same(t, l, found)
	assert.Equal(t, 1, s.LineCount())

	s.ClearLines()
	assert.Zero(t, s.LineCount())
	_, ok = s.FindLine(l.ID)
	assert.False(t, ok)
}

func TestConcurrentRegistration(t *testing.T) {
	s := New()

	// Startup discovery registers per-site data from independent
	// goroutines; arrival order is not guaranteed.
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			site := fmt.Sprintf("site-%d", i)
			s.RegisterSite(models.Site{Name: site})
			for j := 0; j < 10; j++ {
				_, err := s.RegisterMarker(nodeMarker(site, fmt.Sprintf("%02d:%02d", i, j)))
				assert.NoError(t, err)
			}
		}(i)
	}
	wg.Wait()

	assert.Len(t, s.Sites(), 8)
	assert.Equal(t, 80, s.MarkerCount())
}
