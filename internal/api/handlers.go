// handlers.go - HTTP handlers for dataset navigation and view state.
package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/mesh-visualizer/backend/internal/gateway"
	"github.com/mesh-visualizer/backend/internal/models"
	"github.com/mesh-visualizer/backend/internal/nav"
	"github.com/mesh-visualizer/backend/internal/store"
	"github.com/mesh-visualizer/backend/internal/view"
)

const msgpackContentType = "application/x-msgpack"

// Handler serves the navigation and view API.
type Handler struct {
	ctrl      *nav.Controller
	presenter *view.Presenter
	store     *store.EntityStore
	gw        gateway.Gateway
	log       zerolog.Logger
	version   string
}

// NewHandler creates the API handler.
func NewHandler(ctrl *nav.Controller, presenter *view.Presenter, st *store.EntityStore,
	gw gateway.Gateway, log zerolog.Logger, version string) *Handler {
	return &Handler{
		ctrl:      ctrl,
		presenter: presenter,
		store:     st,
		gw:        gw,
		log:       log.With().Str("component", "api").Logger(),
		version:   version,
	}
}

// HandleHealth reports liveness and the current navigation state.
func (h *Handler) HandleHealth(c echo.Context) error {
	status := h.ctrl.Status()
	return c.JSON(http.StatusOK, map[string]any{
		"status":  "ok",
		"version": h.version,
		"state":   status.State,
	})
}

// siteEntry is one row of the site listing: every listed site, with
// placement data for the geolocated ones.
type siteEntry struct {
	Name     string             `json:"name"`
	Plotted  bool               `json:"plotted"`
	Position *models.Coordinate `json:"position,omitempty"`
	Nodes    int                `json:"nodes,omitempty"`
}

// HandleListSites returns every discovered site. Sites without a
// coordinate are listed with plotted=false.
func (h *Handler) HandleListSites(c echo.Context) error {
	entries := make([]siteEntry, 0)
	for _, name := range h.ctrl.SiteNames() {
		entry := siteEntry{Name: name}
		if site, ok := h.store.Site(name); ok {
			pos := site.Position
			entry.Plotted = true
			entry.Position = &pos
			entry.Nodes = site.Nodes
		}
		entries = append(entries, entry)
	}
	return c.JSON(http.StatusOK, entries)
}

// HandleListExperiments lists a site's experiments in storage order;
// the last entry is the most recent.
func (h *Handler) HandleListExperiments(c echo.Context) error {
	site := c.Param("site")
	if site == "" {
		return NewValidationError("site")
	}

	experiments, err := h.gw.ListExperiments(c.Request().Context(), site)
	if err != nil {
		return NewUpstreamError(err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"site":        site,
		"experiments": experiments,
	})
}

type selectSiteRequest struct {
	Site string `json:"site"`
}

// HandleSelectSite handles a qualifying cluster click: selects the
// site, auto-selects its most recent experiment and renders it.
func (h *Handler) HandleSelectSite(c echo.Context) error {
	var req selectSiteRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid request body", err)
	}
	if req.Site == "" {
		return NewValidationError("site")
	}

	if err := h.ctrl.SelectSite(c.Request().Context(), req.Site); err != nil {
		return selectionError(err)
	}
	return h.HandleGetView(c)
}

type selectExperimentRequest struct {
	Experiment string `json:"experiment"`
}

// HandleSelectExperiment switches the rendered experiment for the
// currently selected site.
func (h *Handler) HandleSelectExperiment(c echo.Context) error {
	var req selectExperimentRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid request body", err)
	}
	if req.Experiment == "" {
		return NewValidationError("experiment")
	}

	if err := h.ctrl.SelectExperiment(c.Request().Context(), req.Experiment); err != nil {
		return selectionError(err)
	}
	return h.HandleGetView(c)
}

// selectionError distinguishes upstream failures from invalid
// selections.
func selectionError(err error) *APIError {
	var transport *gateway.TransportError
	var malformed *gateway.MalformedDocumentError
	switch {
	case gateway.IsNotFound(err), errors.As(err, &transport), errors.As(err, &malformed):
		return NewUpstreamError(err)
	default:
		return NewBadRequestError("selection rejected", err)
	}
}

// HandleGetView returns the full view snapshot as JSON.
func (h *Handler) HandleGetView(c echo.Context) error {
	snap := h.presenter.Snapshot(h.ctrl.Status())
	return c.JSON(http.StatusOK, snap)
}

// HandleGetViewMsgpack returns the view snapshot msgpack-encoded, for
// frontends pulling large datasets.
func (h *Handler) HandleGetViewMsgpack(c echo.Context) error {
	snap := h.presenter.Snapshot(h.ctrl.Status())
	payload, err := msgpack.Marshal(snap)
	if err != nil {
		return NewInternalError("encoding snapshot", err)
	}
	return c.Blob(http.StatusOK, msgpackContentType, payload)
}

// HandleGetState exposes the navigation state machine for the
// experiment selector UI.
func (h *Handler) HandleGetState(c echo.Context) error {
	status := h.ctrl.Status()
	return c.JSON(http.StatusOK, map[string]any{
		"state":       status.State,
		"site":        status.Site,
		"experiment":  status.Experiment,
		"experiments": status.Experiments,
		"generation":  status.Generation,
	})
}

// HandleMarkerPopup serves a marker's raw metadata for inspection.
func (h *Handler) HandleMarkerPopup(c echo.Context) error {
	site, mac := c.Param("site"), c.Param("mac")
	if site == "" {
		return NewValidationError("site")
	}
	if mac == "" {
		return NewValidationError("mac")
	}

	payload, ok := h.presenter.MarkerPopup(site, mac)
	if !ok {
		return NewNotFoundError("marker", site+"/"+mac)
	}
	return c.JSONBlob(http.StatusOK, payload)
}

// HandleLinePopup serves a rendered path's original payload
// byte-for-byte.
func (h *Handler) HandleLinePopup(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return NewValidationError("id")
	}

	payload, ok := h.presenter.LinePopup(id)
	if !ok {
		return NewNotFoundError("line", id)
	}
	return c.JSONBlob(http.StatusOK, payload)
}
