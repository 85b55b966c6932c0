package models

// NavState names the controller states exposed through the API.
type NavState string

const (
	StateIdle               NavState = "idle"
	StateSiteSelected       NavState = "site_selected"
	StateExperimentRendered NavState = "experiment_rendered"
)

// Cluster is a visual grouping of nearby markers at low zoom. A cluster
// whose markers all belong to one site is selectable: clicking it is
// interpreted as "select this site".
type Cluster struct {
	Position   Coordinate `json:"position" msgpack:"position"`
	Count      int        `json:"count" msgpack:"count"`
	Sites      []string   `json:"sites" msgpack:"sites"`
	Selectable bool       `json:"selectable" msgpack:"selectable"`
}

// ViewSnapshot is the full visual state pushed to the frontend: one
// consistent picture of markers, lines and clusters plus where the
// navigation currently stands.
type ViewSnapshot struct {
	Generation  uint64    `json:"generation" msgpack:"generation"`
	State       NavState  `json:"state" msgpack:"state"`
	Site        string    `json:"site,omitempty" msgpack:"site"`
	Experiment  string    `json:"experiment,omitempty" msgpack:"experiment"`
	Experiments []string  `json:"experiments,omitempty" msgpack:"experiments"`
	Sites       []Site    `json:"sites" msgpack:"sites"`
	Markers     []Marker  `json:"markers" msgpack:"markers"`
	Lines       []Line    `json:"lines" msgpack:"lines"`
	Clusters    []Cluster `json:"clusters" msgpack:"clusters"`
}
