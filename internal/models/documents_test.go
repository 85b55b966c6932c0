package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlexFloatUnmarshal(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantValue float64
		wantValid bool
		wantErr   bool
	}{
		{"number", `45.1885`, 45.1885, true, false},
		{"integer", `45`, 45, true, false},
		{"numeric string", `"45.1885"`, 45.1885, true, false},
		{"padded string", `" 5.72 "`, 5.72, true, false},
		{"null", `null`, 0, false, false},
		{"empty string", `""`, 0, false, false},
		{"garbage string", `"north"`, 0, false, true},
		{"object", `{}`, 0, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var f FlexFloat
			err := json.Unmarshal([]byte(tt.input), &f)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantValid, f.Valid)
			if tt.wantValid {
				assert.InDelta(t, tt.wantValue, f.Value, 1e-9)
			}
		})
	}
}

func TestFlexFloatMarshal(t *testing.T) {
	out, err := json.Marshal(FlexFloat{Value: 45.5, Valid: true})
	require.NoError(t, err)
	assert.Equal(t, `45.5`, string(out))

	out, err = json.Marshal(FlexFloat{})
	require.NoError(t, err)
	assert.Equal(t, `null`, string(out))
}

func TestSiteMetadataLocated(t *testing.T) {
	var meta SiteMetadata
	require.NoError(t, json.Unmarshal([]byte(`{"latitude":"45.1","longitude":5.7,"nodes":[]}`), &meta))
	assert.True(t, meta.Located())

	require.NoError(t, json.Unmarshal([]byte(`{"latitude":null,"longitude":5.7}`), &meta))
	assert.False(t, meta.Located())

	// Absent latitude signals not-present too.
	require.NoError(t, json.Unmarshal([]byte(`{"longitude":5.7}`), &meta))
	assert.False(t, meta.Located())
}

func TestNodeMetaKeepsRawObject(t *testing.T) {
	doc := `{"archi":"wsn430","x":1,"y":2,"mac":"11:11","uid":"a101","extra":{"k":"v"}}`

	var node NodeMeta
	require.NoError(t, json.Unmarshal([]byte(doc), &node))
	assert.Equal(t, "wsn430", node.Archi)
	assert.Equal(t, "11:11", node.MAC)
	assert.JSONEq(t, doc, string(node.Raw))
}

func TestPathParsing(t *testing.T) {
	doc := `[
    {"src": "11:11", "dst": "22:22", "PDR": {"average": 90}, "rssi": -60},
    {"src": "22:22", "dst": "11:11", "PDR": {"average": 70}}
  ]`

	var p Path
	require.NoError(t, json.Unmarshal([]byte(doc), &p))
	require.Len(t, p.Records, 2)

	src, dst, ok := p.Endpoints()
	require.True(t, ok)
	assert.Equal(t, "11:11", src)
	assert.Equal(t, "22:22", dst)
	assert.InDelta(t, 80.0, p.AveragePDR(), 1e-9)

	// The raw payload is the wire bytes, extra fields included.
	assert.Equal(t, doc, string(p.Raw))

	// Marshalling emits the original payload unchanged.
	out, err := json.Marshal(p)
	require.NoError(t, err)
	assert.Equal(t, doc, string(out))
}

func TestPathSingleDirection(t *testing.T) {
	var p Path
	require.NoError(t, json.Unmarshal([]byte(`[{"src":"a","dst":"b","PDR":{"average":42}}]`), &p))
	assert.InDelta(t, 42.0, p.AveragePDR(), 1e-9)
}

func TestPathEmpty(t *testing.T) {
	var p Path
	require.NoError(t, json.Unmarshal([]byte(`[]`), &p))
	_, _, ok := p.Endpoints()
	assert.False(t, ok)
	assert.Zero(t, p.AveragePDR())
}

func TestExperimentDetailParsing(t *testing.T) {
	doc := `{"global":{"channel":17},"paths":[[{"src":"a","dst":"b","PDR":{"average":50}}]]}`

	var detail ExperimentDetail
	require.NoError(t, json.Unmarshal([]byte(doc), &detail))
	assert.JSONEq(t, `{"channel":17}`, string(detail.Global))
	require.Len(t, detail.Paths, 1)
}
