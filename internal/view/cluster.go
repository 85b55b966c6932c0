package view

import (
	"math"

	"github.com/mesh-visualizer/backend/internal/models"
)

// clusterMarkers groups markers into grid cells of cellDegrees per
// side. Clusters appear in first-marker order so the output is stable
// for a given registration order. A cluster whose markers all belong to
// one site is selectable: clicking it selects that site. Clicking a
// cluster spanning several sites only pans/zooms client-side.
func clusterMarkers(markers []models.Marker, cellDegrees float64) []models.Cluster {
	if cellDegrees <= 0 {
		cellDegrees = 0.05
	}

	type cell struct {
		sumLat, sumLng float64
		count          int
		sites          []string
		seen           map[string]bool
	}

	cells := make(map[[2]int]*cell)
	var order [][2]int

	for _, m := range markers {
		key := [2]int{
			int(math.Floor(m.Position.Lat / cellDegrees)),
			int(math.Floor(m.Position.Lng / cellDegrees)),
		}
		c, ok := cells[key]
		if !ok {
			c = &cell{seen: make(map[string]bool)}
			cells[key] = c
			order = append(order, key)
		}
		c.sumLat += m.Position.Lat
		c.sumLng += m.Position.Lng
		c.count++
		if !c.seen[m.Site] {
			c.seen[m.Site] = true
			c.sites = append(c.sites, m.Site)
		}
	}

	clusters := make([]models.Cluster, 0, len(order))
	for _, key := range order {
		c := cells[key]
		clusters = append(clusters, models.Cluster{
			Position: models.Coordinate{
				Lat: c.sumLat / float64(c.count),
				Lng: c.sumLng / float64(c.count),
			},
			Count:      c.count,
			Sites:      c.sites,
			Selectable: len(c.sites) == 1,
		})
	}
	return clusters
}
