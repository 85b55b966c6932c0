package models

import "encoding/json"

// Site is a physical deployment location hosting a cluster of radio
// nodes. Immutable once registered.
type Site struct {
	Name     string     `json:"name" msgpack:"name"`
	Position Coordinate `json:"position" msgpack:"position"`
	Nodes    int        `json:"nodes" msgpack:"nodes"`
}

// Marker kinds. A site anchor stands in for "select this site"; node
// markers carry per-node metadata.
const (
	MarkerKindNode = "node"
	MarkerKindSite = "site"
)

// Marker is the visual counterpart of a node (or a site anchor) on the
// map. Active and ZOffset are mutated when an experiment render touches
// the marker; everything else is fixed at registration.
type Marker struct {
	ID       string          `json:"id" msgpack:"id"`
	Kind     string          `json:"kind" msgpack:"kind"`
	Site     string          `json:"site" msgpack:"site"`
	MAC      string          `json:"mac,omitempty" msgpack:"mac"`
	Position Coordinate      `json:"position" msgpack:"position"`
	Active   bool            `json:"active" msgpack:"active"`
	ZOffset  int             `json:"zOffset" msgpack:"zOffset"`
	Meta     json.RawMessage `json:"-" msgpack:"-"`
}

// Line is the visual counterpart of one rendered path. It keeps the raw
// path payload so the popup can show exactly what the dataset contains.
type Line struct {
	ID         string          `json:"id" msgpack:"id"`
	Site       string          `json:"site" msgpack:"site"`
	Experiment string          `json:"experiment" msgpack:"experiment"`
	SrcMAC     string          `json:"srcMac" msgpack:"srcMac"`
	DstMAC     string          `json:"dstMac" msgpack:"dstMac"`
	From       Coordinate      `json:"from" msgpack:"from"`
	To         Coordinate      `json:"to" msgpack:"to"`
	AvgPDR     float64         `json:"avgPdr" msgpack:"avgPdr"`
	Tier       string          `json:"tier" msgpack:"tier"`
	Color      string          `json:"color" msgpack:"color"`
	Raw        json.RawMessage `json:"-" msgpack:"-"`
}
