// documents.go - Wire shapes of the content-store JSON documents.
// Parsing is tolerant where the published data is known to be sloppy
// (stringly-typed coordinates) and strict where the renderer depends on
// structure (the paths list).
package models

import (
	"encoding/json"
)

// ListingEntry is one element of a content-store directory listing
// (GET <api_root>/<path>?ref=<branch>).
type ListingEntry struct {
	Name string `json:"name"`
	Path string `json:"path,omitempty"`
	Type string `json:"type,omitempty"` // "dir" or "file"
}

// SiteMetadata is the per-site document: the site coordinate plus the
// node inventory deployed there.
type SiteMetadata struct {
	Latitude  FlexFloat  `json:"latitude"`
	Longitude FlexFloat  `json:"longitude"`
	Nodes     []NodeMeta `json:"nodes"`
}

// Located reports whether the site has been geolocated. Sites without a
// coordinate are listed but never plotted.
func (m *SiteMetadata) Located() bool {
	return m.Latitude.Valid && m.Longitude.Valid
}

// NodeMeta is one node entry of a site metadata document. Raw keeps the
// full original object for the marker popup.
type NodeMeta struct {
	Archi string          `json:"archi"`
	MAC   string          `json:"mac"`
	X     FlexFloat       `json:"x"`
	Y     FlexFloat       `json:"y"`
	Raw   json.RawMessage `json:"-"`
}

// UnmarshalJSON keeps the raw object alongside the typed fields.
func (n *NodeMeta) UnmarshalJSON(data []byte) error {
	type alias NodeMeta
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*n = NodeMeta(a)
	n.Raw = append(json.RawMessage(nil), data...)
	return nil
}

// ExperimentDetail is the per-experiment document: global run metadata
// and the list of measured paths.
type ExperimentDetail struct {
	Global json.RawMessage `json:"global"`
	Paths  []Path          `json:"paths"`
}

// Path is one measured link: one or two directional records between a
// pair of nodes. Raw keeps the original pair byte-for-byte for the line
// popup.
type Path struct {
	Records []DirectionalRecord
	Raw     json.RawMessage
}

// UnmarshalJSON decodes the wire form, a JSON array of directional
// records, keeping the raw bytes.
func (p *Path) UnmarshalJSON(data []byte) error {
	var records []DirectionalRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return err
	}
	p.Records = records
	p.Raw = append(json.RawMessage(nil), data...)
	return nil
}

// MarshalJSON emits the original payload unchanged.
func (p Path) MarshalJSON() ([]byte, error) {
	if p.Raw != nil {
		return p.Raw, nil
	}
	return json.Marshal(p.Records)
}

// Endpoints returns the source and destination link-layer addresses of
// the path, taken from its first directional record.
func (p *Path) Endpoints() (src, dst string, ok bool) {
	if len(p.Records) == 0 {
		return "", "", false
	}
	return p.Records[0].Src, p.Records[0].Dst, true
}

// AveragePDR averages the packet-delivery ratios of the path's
// directional records. A path measured in both directions contributes
// both values.
func (p *Path) AveragePDR() float64 {
	if len(p.Records) == 0 {
		return 0
	}
	var sum float64
	for _, r := range p.Records {
		sum += r.PDR.Average
	}
	return sum / float64(len(p.Records))
}

// DirectionalRecord is one direction of a measured path.
type DirectionalRecord struct {
	Src string    `json:"src"`
	Dst string    `json:"dst"`
	PDR PDRRecord `json:"PDR"`
}

// PDRRecord carries the packet-delivery-ratio statistics for one
// direction. Only the average is used for classification.
type PDRRecord struct {
	Average float64 `json:"average"`
}
