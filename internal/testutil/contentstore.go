// Package testutil provides a fake content store for tests: an
// httptest server speaking the listing API and the raw document
// endpoint over a canned in-memory dataset.
package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	"github.com/mesh-visualizer/backend/internal/config"
)

// SiteFixture is one site of a canned dataset.
type SiteFixture struct {
	// Metadata is the raw site metadata JSON. Empty means the
	// document does not exist (404).
	Metadata string
	// Experiments maps experiment name to its raw detail JSON.
	Experiments map[string]string
	// ExperimentOrder fixes the listing order; the last entry is the
	// most recent experiment.
	ExperimentOrder []string
}

// ContentStore is a fake dataset store backed by httptest.
type ContentStore struct {
	Server *httptest.Server

	mu        sync.Mutex
	siteOrder []string
	sites     map[string]*SiteFixture
	requests  []string
	broken    bool
}

// SetBroken makes the store answer every request with a 500.
func (cs *ContentStore) SetBroken(broken bool) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.broken = broken
}

// NewContentStore starts a fake store serving the given sites in the
// given listing order.
func NewContentStore(siteOrder []string, sites map[string]*SiteFixture) *ContentStore {
	cs := &ContentStore{siteOrder: siteOrder, sites: sites}
	cs.Server = httptest.NewServer(http.HandlerFunc(cs.handle))
	return cs
}

// Close shuts the fake store down.
func (cs *ContentStore) Close() { cs.Server.Close() }

// Config returns a content-store configuration pointing at the fake.
func (cs *ContentStore) Config() config.ContentStoreConfig {
	return config.ContentStoreConfig{
		APIRoot:        cs.Server.URL + "/api",
		RawRoot:        cs.Server.URL + "/raw",
		Branch:         "master",
		TimeoutSeconds: 5,
	}
}

// Requests returns the paths served so far.
func (cs *ContentStore) Requests() []string {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return append([]string(nil), cs.requests...)
}

func (cs *ContentStore) handle(w http.ResponseWriter, r *http.Request) {
	cs.mu.Lock()
	cs.requests = append(cs.requests, r.URL.Path)
	broken := cs.broken
	cs.mu.Unlock()

	if broken {
		http.Error(w, "store unavailable", http.StatusInternalServerError)
		return
	}

	switch {
	case strings.HasPrefix(r.URL.Path, "/api"):
		cs.handleListing(w, strings.Trim(strings.TrimPrefix(r.URL.Path, "/api"), "/"))
	case strings.HasPrefix(r.URL.Path, "/raw/"):
		cs.handleRaw(w, strings.TrimPrefix(r.URL.Path, "/raw/"))
	default:
		http.NotFound(w, nil)
	}
}

type listingEntry struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

func (cs *ContentStore) handleListing(w http.ResponseWriter, path string) {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	if path == "" {
		entries := make([]listingEntry, 0, len(cs.siteOrder))
		for _, name := range cs.siteOrder {
			entries = append(entries, listingEntry{Name: name, Type: "dir"})
		}
		writeJSON(w, entries)
		return
	}

	site, ok := cs.sites[path]
	if !ok {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	entries := make([]listingEntry, 0, len(site.ExperimentOrder)+1)
	if site.Metadata != "" {
		entries = append(entries, listingEntry{Name: "metadata.json", Type: "file"})
	}
	for _, name := range site.ExperimentOrder {
		entries = append(entries, listingEntry{Name: name, Type: "dir"})
	}
	writeJSON(w, entries)
}

func (cs *ContentStore) handleRaw(w http.ResponseWriter, path string) {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	// raw path form: <branch>/<site>/... after trimming the /raw/ prefix
	parts := strings.Split(path, "/")
	if len(parts) < 3 {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	site, ok := cs.sites[parts[1]]
	if !ok {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	switch {
	case len(parts) == 3 && parts[2] == "metadata.json":
		if site.Metadata == "" {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(site.Metadata))
	case len(parts) == 4 && parts[3] == "paths.json":
		detail, ok := site.Experiments[parts[2]]
		if !ok {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(detail))
	default:
		http.Error(w, "not found", http.StatusNotFound)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
