// handlers_test.go - Tests for the navigation/view API handlers.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/mesh-visualizer/backend/internal/config"
	"github.com/mesh-visualizer/backend/internal/gateway"
	"github.com/mesh-visualizer/backend/internal/metrics"
	"github.com/mesh-visualizer/backend/internal/models"
	"github.com/mesh-visualizer/backend/internal/nav"
	"github.com/mesh-visualizer/backend/internal/quality"
	"github.com/mesh-visualizer/backend/internal/store"
	"github.com/mesh-visualizer/backend/internal/testutil"
	"github.com/mesh-visualizer/backend/internal/view"
)

type testEnv struct {
	cs      *testutil.ContentStore
	handler *Handler
	ctrl    *nav.Controller
	store   *store.EntityStore
	echo    *echo.Echo
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	cs := testutil.NewDefaultStore()
	t.Cleanup(cs.Close)

	dataset := config.DatasetConfig{
		MetadataFile: "metadata.json",
		DetailFile:   "paths.json",
		Archi:        "wsn430",
		NodeDelta:    0.0001,
	}
	st := store.New()
	gw := gateway.NewClient(cs.Config(), dataset, zerolog.Nop())
	ctrl := nav.New(gw, st, quality.NewDefault(), dataset, zerolog.Nop(), metrics.New())
	presenter := view.New(st, 0.05)
	handler := NewHandler(ctrl, presenter, st, gw, zerolog.Nop(), "test")

	require.NoError(t, ctrl.DiscoverSites(context.Background()))

	return &testEnv{cs: cs, handler: handler, ctrl: ctrl, store: st, echo: echo.New()}
}

func (env *testEnv) get(t *testing.T, target string, params ...string) (*httptest.ResponseRecorder, echo.Context) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	c := env.echo.NewContext(req, rec)
	var names, values []string
	for i := 0; i+1 < len(params); i += 2 {
		names = append(names, params[i])
		values = append(values, params[i+1])
	}
	if len(names) > 0 {
		c.SetParamNames(names...)
		c.SetParamValues(values...)
	}
	return rec, c
}

func (env *testEnv) post(t *testing.T, target string, body any) (*httptest.ResponseRecorder, echo.Context) {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, target, bytes.NewReader(payload))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return rec, env.echo.NewContext(req, rec)
}

func requireAPIError(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	apiErr, ok := err.(*APIError)
	require.True(t, ok, "expected APIError, got %T", err)
	assert.Equal(t, code, apiErr.Code)
}

func TestHandleHealth(t *testing.T) {
	env := newTestEnv(t)
	rec, c := env.get(t, "/api/health")

	require.NoError(t, env.handler.HandleHealth(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "test", body["version"])
	assert.Equal(t, string(models.StateIdle), body["state"])
}

func TestHandleListSites(t *testing.T) {
	env := newTestEnv(t)
	rec, c := env.get(t, "/api/sites")

	require.NoError(t, env.handler.HandleListSites(c))

	var entries []struct {
		Name    string `json:"name"`
		Plotted bool   `json:"plotted"`
		Nodes   int    `json:"nodes"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	require.Len(t, entries, 2)
	assert.Equal(t, "grenoble", entries[0].Name)
	assert.True(t, entries[0].Plotted)
	assert.Equal(t, 2, entries[0].Nodes)
	assert.Equal(t, "lille", entries[1].Name)
	assert.False(t, entries[1].Plotted)
}

func TestHandleListExperiments(t *testing.T) {
	env := newTestEnv(t)
	rec, c := env.get(t, "/api/sites/grenoble/experiments", "site", "grenoble")

	require.NoError(t, env.handler.HandleListExperiments(c))

	var body struct {
		Site        string   `json:"site"`
		Experiments []string `json:"experiments"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, []string{"exp1", "exp2", "exp3"}, body.Experiments)
}

func TestHandleListExperimentsUnknownSite(t *testing.T) {
	env := newTestEnv(t)
	_, c := env.get(t, "/api/sites/nowhere/experiments", "site", "nowhere")

	err := env.handler.HandleListExperiments(c)
	requireAPIError(t, err, "UPSTREAM_NOT_FOUND")
}

func TestHandleSelectSite(t *testing.T) {
	tests := []struct {
		name    string
		body    any
		wantErr string
	}{
		{"valid site", selectSiteRequest{Site: "grenoble"}, ""},
		{"missing site field", selectSiteRequest{}, "VALIDATION_ERROR"},
		{"unknown site", selectSiteRequest{Site: "atlantis"}, "BAD_REQUEST"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			rec, c := env.post(t, "/api/select/site", tt.body)

			err := env.handler.HandleSelectSite(c)
			if tt.wantErr != "" {
				requireAPIError(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, http.StatusOK, rec.Code)

			var snap models.ViewSnapshot
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
			assert.Equal(t, models.StateExperimentRendered, snap.State)
			assert.Equal(t, "exp3", snap.Experiment)
			assert.Len(t, snap.Lines, 1)
		})
	}
}

func TestHandleSelectExperiment(t *testing.T) {
	env := newTestEnv(t)

	// Selecting an experiment with no site selected is rejected.
	_, c := env.post(t, "/api/select/experiment", selectExperimentRequest{Experiment: "exp1"})
	requireAPIError(t, env.handler.HandleSelectExperiment(c), "BAD_REQUEST")

	_, c = env.post(t, "/api/select/site", selectSiteRequest{Site: "grenoble"})
	require.NoError(t, env.handler.HandleSelectSite(c))

	rec, c := env.post(t, "/api/select/experiment", selectExperimentRequest{Experiment: "exp2"})
	require.NoError(t, env.handler.HandleSelectExperiment(c))

	var snap models.ViewSnapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.Equal(t, "exp2", snap.Experiment)
	require.Len(t, snap.Lines, 1)
	assert.Equal(t, string(quality.TierBad), snap.Lines[0].Tier)
}

func TestHandleGetViewMsgpackRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	_, c := env.post(t, "/api/select/site", selectSiteRequest{Site: "grenoble"})
	require.NoError(t, env.handler.HandleSelectSite(c))

	rec, c := env.get(t, "/api/view/msgpack")
	require.NoError(t, env.handler.HandleGetViewMsgpack(c))
	assert.Equal(t, msgpackContentType, rec.Header().Get(echo.HeaderContentType))

	var snap models.ViewSnapshot
	require.NoError(t, msgpack.Unmarshal(rec.Body.Bytes(), &snap))
	assert.Equal(t, "exp3", snap.Experiment)
	assert.Len(t, snap.Lines, 1)
	assert.NotEmpty(t, snap.Clusters)
}

func TestHandleGetState(t *testing.T) {
	env := newTestEnv(t)
	_, c := env.post(t, "/api/select/site", selectSiteRequest{Site: "grenoble"})
	require.NoError(t, env.handler.HandleSelectSite(c))

	rec, c := env.get(t, "/api/state")
	require.NoError(t, env.handler.HandleGetState(c))

	var body struct {
		State       string   `json:"state"`
		Site        string   `json:"site"`
		Experiment  string   `json:"experiment"`
		Experiments []string `json:"experiments"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, string(models.StateExperimentRendered), body.State)
	assert.Equal(t, "grenoble", body.Site)
	assert.Equal(t, "exp3", body.Experiment)
	assert.Len(t, body.Experiments, 3)
}

func TestHandleMarkerPopup(t *testing.T) {
	env := newTestEnv(t)

	rec, c := env.get(t, "/api/markers/grenoble/11:11/popup", "site", "grenoble", "mac", "11:11")
	require.NoError(t, env.handler.HandleMarkerPopup(c))

	var meta map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &meta))
	assert.Equal(t, "wsn430", meta["archi"])
	assert.Equal(t, "a101", meta["uid"])

	_, c = env.get(t, "/api/markers/grenoble/99:99/popup", "site", "grenoble", "mac", "99:99")
	requireAPIError(t, env.handler.HandleMarkerPopup(c), "NOT_FOUND")
}

func TestHandleLinePopupRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	_, c := env.post(t, "/api/select/site", selectSiteRequest{Site: "grenoble"})
	require.NoError(t, env.handler.HandleSelectSite(c))

	lines := env.store.Lines()
	require.Len(t, lines, 1)

	rec, c := env.get(t, "/api/lines/"+lines[0].ID+"/popup", "id", lines[0].ID)
	require.NoError(t, env.handler.HandleLinePopup(c))

	// The popup payload is byte-for-byte the path entry from the
	// experiment document.
	var detail struct {
		Paths []json.RawMessage `json:"paths"`
	}
	require.NoError(t, json.Unmarshal([]byte(testutil.Exp1Detail), &detail))
	require.Len(t, detail.Paths, 1)
	assert.JSONEq(t, string(detail.Paths[0]), rec.Body.String())
	assert.Equal(t, []byte(lines[0].Raw), rec.Body.Bytes())

	_, c = env.get(t, "/api/lines/missing/popup", "id", "missing")
	requireAPIError(t, env.handler.HandleLinePopup(c), "NOT_FOUND")
}
