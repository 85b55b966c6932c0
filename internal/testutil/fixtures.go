package testutil

// GrenobleMetadata is a two-node site document with matching radio
// architecture and a stringly-typed coordinate, as published data
// sometimes has.
const GrenobleMetadata = `{
  "latitude": "45.1885",
  "longitude": 5.7245,
  "nodes": [
    {"archi": "wsn430", "x": 1, "y": 2, "mac": "11:11", "uid": "a101"},
    {"archi": "wsn430", "x": 3, "y": 4, "mac": "22:22", "uid": "a102"},
    {"archi": "m3", "x": 5, "y": 6, "mac": "33:33", "uid": "a103"}
  ]
}`

// LilleMetadata is an ungeolocated site: listed, never plotted.
const LilleMetadata = `{
  "latitude": null,
  "longitude": null,
  "nodes": [
    {"archi": "wsn430", "x": 1, "y": 1, "mac": "aa:aa"}
  ]
}`

// Exp1Detail is one bidirectional path between the two grenoble nodes:
// 90 one way, 70 the other, so the averaged PDR is exactly 80.
const Exp1Detail = `{
  "global": {"channel": 17},
  "paths": [
    [
      {"src": "11:11", "dst": "22:22", "PDR": {"average": 90}},
      {"src": "22:22", "dst": "11:11", "PDR": {"average": 70}}
    ]
  ]
}`

// Exp2Detail mixes a resolvable single-direction path with one whose
// endpoint is outside the materialized node set.
const Exp2Detail = `{
  "global": {},
  "paths": [
    [
      {"src": "11:11", "dst": "22:22", "PDR": {"average": 42}}
    ],
    [
      {"src": "11:11", "dst": "99:99", "PDR": {"average": 95}}
    ]
  ]
}`

// NewDefaultStore builds the canonical test dataset: a plotted site
// with three experiments and an ungeolocated one.
func NewDefaultStore() *ContentStore {
	return NewContentStore(
		[]string{"grenoble", "lille"},
		map[string]*SiteFixture{
			"grenoble": {
				Metadata: GrenobleMetadata,
				Experiments: map[string]string{
					"exp1": Exp1Detail,
					"exp2": Exp2Detail,
					"exp3": Exp1Detail,
				},
				ExperimentOrder: []string{"exp1", "exp2", "exp3"},
			},
			"lille": {
				Metadata:        LilleMetadata,
				Experiments:     map[string]string{},
				ExperimentOrder: []string{},
			},
		},
	)
}
