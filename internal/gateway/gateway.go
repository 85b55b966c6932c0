// Package gateway fetches the published measurement dataset from the
// remote content store: directory listings through the store's API and
// JSON documents through its raw endpoint. All parsing and validation
// happens here; callers only ever see typed documents or a typed error.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/mesh-visualizer/backend/internal/config"
	"github.com/mesh-visualizer/backend/internal/models"
)

// Gateway lists sites and experiments and fetches their documents. All
// operations are independent, idempotent reads; fetches for different
// sites may run concurrently.
type Gateway interface {
	ListSites(ctx context.Context) ([]string, error)
	ListExperiments(ctx context.Context, site string) ([]string, error)
	// FetchSiteMetadata returns (nil, nil) when the site exists but has
	// no coordinate yet; such sites are listed but never plotted.
	FetchSiteMetadata(ctx context.Context, site string) (*models.SiteMetadata, error)
	FetchExperimentDetail(ctx context.Context, site, experiment string) (*models.ExperimentDetail, error)
}

// Client is the HTTP implementation of Gateway.
type Client struct {
	apiRoot      string
	rawRoot      string
	branch       string
	root         string
	metadataFile string
	detailFile   string
	http         *http.Client
	log          zerolog.Logger
}

// NewClient creates a gateway client from configuration.
func NewClient(store config.ContentStoreConfig, dataset config.DatasetConfig, log zerolog.Logger) *Client {
	return &Client{
		apiRoot:      strings.TrimRight(store.APIRoot, "/"),
		rawRoot:      strings.TrimRight(store.RawRoot, "/"),
		branch:       store.Branch,
		root:         strings.Trim(store.Root, "/"),
		metadataFile: dataset.MetadataFile,
		detailFile:   dataset.DetailFile,
		http: &http.Client{
			Timeout: time.Duration(store.TimeoutSeconds) * time.Second,
		},
		log: log.With().Str("component", "gateway").Logger(),
	}
}

// ListSites lists the top-level directory of published sites, in
// storage order.
func (c *Client) ListSites(ctx context.Context) ([]string, error) {
	entries, err := c.list(ctx, "list sites", "")
	if err != nil {
		return nil, err
	}
	return dirNames(entries), nil
}

// ListExperiments lists the experiment directories under a site, in
// storage order. The caller treats the last element as most recent.
func (c *Client) ListExperiments(ctx context.Context, site string) ([]string, error) {
	entries, err := c.list(ctx, "list experiments", site)
	if err != nil {
		return nil, err
	}
	return dirNames(entries), nil
}

// FetchSiteMetadata fetches the per-site metadata document. A document
// without a coordinate signals "not present" rather than an error.
func (c *Client) FetchSiteMetadata(ctx context.Context, site string) (*models.SiteMetadata, error) {
	const op = "fetch site metadata"
	u := c.rawURL(site, c.metadataFile)

	body, err := c.get(ctx, op, u)
	if err != nil {
		return nil, err
	}

	var meta models.SiteMetadata
	if err := json.Unmarshal(body, &meta); err != nil {
		return nil, &MalformedDocumentError{Op: op, URL: u, Reason: "invalid JSON", Err: err}
	}

	if !meta.Located() {
		c.log.Debug().Str("site", site).Msg("site has no coordinate, skipping placement")
		return nil, nil
	}
	return &meta, nil
}

// FetchExperimentDetail fetches the per-experiment paths document.
func (c *Client) FetchExperimentDetail(ctx context.Context, site, experiment string) (*models.ExperimentDetail, error) {
	const op = "fetch experiment detail"
	u := c.rawURL(site, experiment, c.detailFile)

	body, err := c.get(ctx, op, u)
	if err != nil {
		return nil, err
	}

	// Probe with a pointer slice so a missing paths field is
	// distinguishable from an empty one.
	var probe struct {
		Global json.RawMessage `json:"global"`
		Paths  *[]models.Path  `json:"paths"`
	}
	if err := json.Unmarshal(body, &probe); err != nil {
		return nil, &MalformedDocumentError{Op: op, URL: u, Reason: "invalid JSON", Err: err}
	}
	if probe.Paths == nil {
		return nil, &MalformedDocumentError{Op: op, URL: u, Reason: "missing paths field"}
	}

	return &models.ExperimentDetail{Global: probe.Global, Paths: *probe.Paths}, nil
}

// list performs a directory listing through the store API.
func (c *Client) list(ctx context.Context, op, sub string) ([]models.ListingEntry, error) {
	u := c.apiRoot
	if p := joinPath(c.root, sub); p != "" {
		u += "/" + p
	}
	u += "?ref=" + url.QueryEscape(c.branch)

	body, err := c.get(ctx, op, u)
	if err != nil {
		return nil, err
	}

	var entries []models.ListingEntry
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, &MalformedDocumentError{Op: op, URL: u, Reason: "invalid listing JSON", Err: err}
	}
	return entries, nil
}

// get issues one GET and maps failures onto the gateway error taxonomy.
func (c *Client) get(ctx context.Context, op, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, &TransportError{Op: op, URL: u, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	res, err := c.http.Do(req)
	if err != nil {
		return nil, &TransportError{Op: op, URL: u, Err: err}
	}
	defer res.Body.Close()

	c.log.Debug().
		Str("url", u).
		Int("status", res.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg(op)

	switch {
	case res.StatusCode == http.StatusNotFound:
		return nil, &NotFoundError{Op: op, URL: u}
	case res.StatusCode < 200 || res.StatusCode >= 300:
		return nil, &TransportError{Op: op, URL: u, Err: fmt.Errorf("unexpected status %s", res.Status)}
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, &TransportError{Op: op, URL: u, Err: err}
	}
	return body, nil
}

func (c *Client) rawURL(parts ...string) string {
	p := joinPath(append([]string{c.root}, parts...)...)
	return c.rawRoot + "/" + c.branch + "/" + p
}

func joinPath(parts ...string) string {
	var kept []string
	for _, p := range parts {
		p = strings.Trim(p, "/")
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, "/")
}

// dirNames keeps directory entries in listing order. Entries without a
// type are kept too; not every store reports one.
func dirNames(entries []models.ListingEntry) []string {
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Type != "" && e.Type != "dir" {
			continue
		}
		names = append(names, e.Name)
	}
	return names
}
