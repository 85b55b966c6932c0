// Package quality classifies link quality for display. A link's
// packet-delivery ratio (0-100) maps to one of three tiers used to
// color the rendered line.
package quality

// Tier is a link-quality severity bucket.
type Tier string

const (
	TierGood   Tier = "good"
	TierMedium Tier = "medium"
	TierBad    Tier = "bad"
)

// Default thresholds, in PDR percent. A value at the low threshold is
// BAD, not MEDIUM: the medium band is open on both ends.
const (
	DefaultGoodThreshold = 80.0
	DefaultBadThreshold  = 50.0
)

// Display colors per tier.
var tierColors = map[Tier]string{
	TierGood:   "#2ecc40",
	TierMedium: "#ff851b",
	TierBad:    "#ff4136",
}

// Classifier maps PDR values to tiers.
type Classifier struct {
	goodThreshold float64
	badThreshold  float64
}

// New creates a classifier with the given thresholds. Values <= bad are
// BAD, values >= good are GOOD, everything strictly between is MEDIUM.
func New(good, bad float64) *Classifier {
	return &Classifier{goodThreshold: good, badThreshold: bad}
}

// NewDefault creates a classifier with the standard 80/50 thresholds.
func NewDefault() *Classifier {
	return New(DefaultGoodThreshold, DefaultBadThreshold)
}

// Classify returns the tier for a PDR value. Total over all float
// inputs: out-of-range values fall into GOOD or BAD by the same
// comparisons.
func (c *Classifier) Classify(pdr float64) Tier {
	switch {
	case pdr >= c.goodThreshold:
		return TierGood
	case pdr <= c.badThreshold:
		return TierBad
	default:
		return TierMedium
	}
}

// Color returns the display color for a PDR value.
func (c *Classifier) Color(pdr float64) string {
	return ColorFor(c.Classify(pdr))
}

// ColorFor returns the display color of a tier.
func ColorFor(t Tier) string {
	if color, ok := tierColors[t]; ok {
		return color
	}
	return tierColors[TierBad]
}
