// Package nav orchestrates dataset navigation: startup site discovery,
// site selection, experiment selection and rendering. It owns the
// navigation state machine (idle -> site selected -> experiment
// rendered) and is the only writer of visualization state.
package nav

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/mesh-visualizer/backend/internal/config"
	"github.com/mesh-visualizer/backend/internal/gateway"
	"github.com/mesh-visualizer/backend/internal/metrics"
	"github.com/mesh-visualizer/backend/internal/models"
	"github.com/mesh-visualizer/backend/internal/quality"
	"github.com/mesh-visualizer/backend/internal/store"
	"github.com/mesh-visualizer/backend/internal/view"
)

// Event types pushed to connected frontends.
const (
	EventSiteLoaded  = "site:loaded"
	EventViewUpdate  = "view:update"
	EventRenderError = "render:error"
)

// Event is a navigation notification for the frontend.
type Event struct {
	Type       string `json:"type"`
	Site       string `json:"site,omitempty"`
	Experiment string `json:"experiment,omitempty"`
	Generation uint64 `json:"generation,omitempty"`
	Error      string `json:"error,omitempty"`
}

// Controller drives the navigation state machine.
type Controller struct {
	gw         gateway.Gateway
	store      *store.EntityStore
	classifier *quality.Classifier
	log        zerolog.Logger
	metrics    *metrics.Metrics

	archi     string
	nodeDelta float64

	mu          sync.Mutex
	state       models.NavState
	site        string
	experiment  string
	experiments []string
	siteNames   []string
	generation  uint64

	notify func(Event)
}

// New creates a controller in the idle state.
func New(gw gateway.Gateway, st *store.EntityStore, classifier *quality.Classifier,
	dataset config.DatasetConfig, log zerolog.Logger, m *metrics.Metrics) *Controller {
	return &Controller{
		gw:         gw,
		store:      st,
		classifier: classifier,
		log:        log.With().Str("component", "nav").Logger(),
		metrics:    m,
		archi:      dataset.Archi,
		nodeDelta:  dataset.NodeDelta,
		state:      models.StateIdle,
		notify:     func(Event) {},
	}
}

// SetNotifier installs the event sink (the WebSocket hub). Must be
// called before the controller starts emitting, i.e. before discovery.
func (c *Controller) SetNotifier(fn func(Event)) {
	if fn != nil {
		c.notify = fn
	}
}

// DiscoverSites enumerates all published sites and loads their metadata
// concurrently. One site failing, or having no coordinate yet, never
// blocks the others. Returns an error only when the listing itself
// fails.
func (c *Controller) DiscoverSites(ctx context.Context) error {
	start := time.Now()
	sites, err := c.gw.ListSites(ctx)
	if err != nil {
		c.metrics.ObserveFetch("list_sites", "error", time.Since(start))
		return fmt.Errorf("listing sites: %w", err)
	}
	c.metrics.ObserveFetch("list_sites", "ok", time.Since(start))
	c.metrics.SetSitesDiscovered(len(sites))

	c.mu.Lock()
	c.siteNames = append([]string(nil), sites...)
	c.mu.Unlock()

	c.log.Info().Int("sites", len(sites)).Msg("discovered sites")

	var wg sync.WaitGroup
	for _, site := range sites {
		wg.Add(1)
		go func(site string) {
			defer wg.Done()
			c.loadSite(ctx, site)
		}(site)
	}
	wg.Wait()
	return nil
}

// loadSite fetches one site's metadata and places its markers. Failures
// are isolated: logged and counted, never propagated.
func (c *Controller) loadSite(ctx context.Context, site string) {
	start := time.Now()
	meta, err := c.gw.FetchSiteMetadata(ctx, site)
	if err != nil {
		c.metrics.ObserveFetch("site_metadata", "error", time.Since(start))
		c.log.Warn().Err(err).Str("site", site).Msg("site metadata fetch failed, skipping")
		return
	}
	if meta == nil {
		c.metrics.ObserveFetch("site_metadata", "not_present", time.Since(start))
		c.log.Info().Str("site", site).Msg("site not geolocated yet, listed but not plotted")
		return
	}
	c.metrics.ObserveFetch("site_metadata", "ok", time.Since(start))

	position := models.Coordinate{Lat: meta.Latitude.Value, Lng: meta.Longitude.Value}
	placed := 0
	for _, node := range meta.Nodes {
		if node.Archi != c.archi {
			continue
		}
		if !node.X.Valid || !node.Y.Valid {
			c.log.Warn().Str("site", site).Str("mac", node.MAC).Msg("node grid coordinates unparseable, skipping")
			continue
		}
		_, err := c.store.RegisterMarker(models.Marker{
			Kind: models.MarkerKindNode,
			Site: site,
			MAC:  node.MAC,
			Position: models.Coordinate{
				Lat: position.Lat + c.nodeDelta*node.Y.Value,
				Lng: position.Lng + c.nodeDelta*node.X.Value,
			},
			Meta: node.Raw,
		})
		if err != nil {
			c.log.Warn().Err(err).Str("site", site).Msg("marker registration rejected")
			continue
		}
		placed++
	}

	c.store.RegisterSite(models.Site{Name: site, Position: position, Nodes: placed})

	// Cluster anchor standing in for "select this site".
	anchorMeta := fmt.Appendf(nil, `{"site":%q,"nodes":%d}`, site, placed)
	if _, err := c.store.RegisterMarker(models.Marker{
		Kind:     models.MarkerKindSite,
		Site:     site,
		Position: position,
		Meta:     anchorMeta,
	}); err != nil {
		c.log.Warn().Err(err).Str("site", site).Msg("site anchor registration rejected")
	}

	c.metrics.AddMarkersRegistered(placed)
	c.log.Info().Str("site", site).Int("markers", placed).Msg("site loaded")
	c.notify(Event{Type: EventSiteLoaded, Site: site})
}

// SelectSite handles a qualifying cluster click: lists the site's
// experiments, auto-selects the most recent one and proceeds to render
// it.
func (c *Controller) SelectSite(ctx context.Context, site string) error {
	if _, ok := c.store.Site(site); !ok {
		return fmt.Errorf("unknown site %q", site)
	}

	start := time.Now()
	experiments, err := c.gw.ListExperiments(ctx, site)
	if err != nil {
		c.metrics.ObserveFetch("list_experiments", "error", time.Since(start))
		return fmt.Errorf("listing experiments for %s: %w", site, err)
	}
	c.metrics.ObserveFetch("list_experiments", "ok", time.Since(start))

	if len(experiments) == 0 {
		return fmt.Errorf("site %s has no experiments", site)
	}

	c.mu.Lock()
	c.state = models.StateSiteSelected
	c.site = site
	c.experiment = ""
	c.experiments = append([]string(nil), experiments...)
	c.mu.Unlock()

	// The most recently listed experiment is the default selection.
	return c.SelectExperiment(ctx, experiments[len(experiments)-1])
}

// SelectExperiment fetches an experiment's paths and redraws the view.
// The fetch happens outside the state lock; a render generation counter
// discards results that a newer selection has superseded. A failed
// fetch leaves the previous render untouched.
func (c *Controller) SelectExperiment(ctx context.Context, experiment string) error {
	c.mu.Lock()
	if c.state == models.StateIdle {
		c.mu.Unlock()
		return fmt.Errorf("no site selected")
	}
	site := c.site
	if !contains(c.experiments, experiment) {
		c.mu.Unlock()
		return fmt.Errorf("experiment %q not listed for site %s", experiment, site)
	}
	c.generation++
	generation := c.generation
	c.mu.Unlock()

	start := time.Now()
	detail, err := c.gw.FetchExperimentDetail(ctx, site, experiment)
	if err != nil {
		c.metrics.ObserveFetch("experiment_detail", "error", time.Since(start))
		c.metrics.RenderFailed()
		c.notify(Event{Type: EventRenderError, Site: site, Experiment: experiment, Error: err.Error()})
		return fmt.Errorf("fetching experiment %s/%s: %w", site, experiment, err)
	}
	c.metrics.ObserveFetch("experiment_detail", "ok", time.Since(start))

	c.mu.Lock()
	if generation != c.generation {
		c.mu.Unlock()
		c.metrics.RenderDiscardedStale()
		c.log.Info().
			Str("site", site).
			Str("experiment", experiment).
			Uint64("generation", generation).
			Msg("discarding stale render")
		return nil
	}

	drawn := c.render(site, experiment, detail)
	c.state = models.StateExperimentRendered
	c.experiment = experiment
	c.mu.Unlock()

	c.metrics.RenderCompleted()
	c.log.Info().
		Str("site", site).
		Str("experiment", experiment).
		Int("paths", len(detail.Paths)).
		Int("drawn", drawn).
		Msg("experiment rendered")
	c.notify(Event{Type: EventViewUpdate, Site: site, Experiment: experiment, Generation: generation})
	return nil
}

// render redraws from a blank slate: clear lines, reset markers, then
// draw every path whose endpoints resolve. Paths referencing nodes
// outside the materialized set are skipped; sparse coverage is normal.
// Caller holds c.mu.
func (c *Controller) render(site, experiment string, detail *models.ExperimentDetail) int {
	c.store.ClearLines()
	c.store.ResetMarkers()

	drawn := 0
	for _, path := range detail.Paths {
		src, dst, ok := path.Endpoints()
		if !ok {
			continue
		}
		srcMarker, ok := c.store.FindMarker(site, src)
		if !ok {
			continue
		}
		dstMarker, ok := c.store.FindMarker(site, dst)
		if !ok {
			continue
		}

		c.store.ActivateMarker(srcMarker)
		c.store.ActivateMarker(dstMarker)

		avg := path.AveragePDR()
		tier := c.classifier.Classify(avg)
		c.store.RegisterLine(models.Line{
			Site:       site,
			Experiment: experiment,
			SrcMAC:     src,
			DstMAC:     dst,
			From:       srcMarker.Position,
			To:         dstMarker.Position,
			AvgPDR:     avg,
			Tier:       string(tier),
			Color:      quality.ColorFor(tier),
			Raw:        path.Raw,
		})
		drawn++
	}
	return drawn
}

// Status returns the current navigation status for snapshot assembly.
func (c *Controller) Status() view.NavStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return view.NavStatus{
		Generation:  c.generation,
		State:       c.state,
		Site:        c.site,
		Experiment:  c.experiment,
		Experiments: append([]string(nil), c.experiments...),
	}
}

// SiteNames returns every listed site name, plotted or not.
func (c *Controller) SiteNames() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.siteNames...)
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
