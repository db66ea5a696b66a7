// Epimapa - District Epidemiological Incidence API
// Copyright 2026 Epimapa contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/epimapa/epimapa

package dataset

import (
	"bytes"
	"fmt"
	"io"

	"github.com/goccy/go-json"
)

// utf8BOM is stripped before parsing; exports from desktop GIS tools
// regularly carry it.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Feature is one district boundary. The geometry is kept as raw JSON: the
// service never inspects coordinates, it only annotates properties and
// serves the document back out.
type Feature struct {
	Type       string         `json:"type"`
	Geometry   json.RawMessage `json:"geometry"`
	Properties map[string]any `json:"properties"`
}

// FeatureCollection is the parsed boundary document. Top-level metadata
// (name, crs) is preserved so the served document round-trips.
type FeatureCollection struct {
	Type     string          `json:"type"`
	Name     string          `json:"name,omitempty"`
	CRS      json.RawMessage `json:"crs,omitempty"`
	Features []Feature       `json:"features"`
}

// ParseFeatureCollection reads and parses a boundary document, tolerating a
// UTF-8 byte order mark.
func ParseFeatureCollection(r io.Reader) (*FeatureCollection, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read geojson: %w", err)
	}
	data = bytes.TrimPrefix(data, utf8BOM)

	fc := &FeatureCollection{}
	if err := json.Unmarshal(data, fc); err != nil {
		return nil, fmt.Errorf("parse geojson: %w", err)
	}
	return fc, nil
}

// Clone returns a structurally independent deep copy of the document.
// Mutating the copy (or its feature properties) never affects the original.
func (fc *FeatureCollection) Clone() *FeatureCollection {
	out := &FeatureCollection{
		Type: fc.Type,
		Name: fc.Name,
	}
	if fc.CRS != nil {
		out.CRS = append(json.RawMessage(nil), fc.CRS...)
	}
	out.Features = make([]Feature, len(fc.Features))
	for i, f := range fc.Features {
		cf := Feature{Type: f.Type}
		if f.Geometry != nil {
			cf.Geometry = append(json.RawMessage(nil), f.Geometry...)
		}
		if f.Properties != nil {
			cf.Properties = deepCopyMap(f.Properties)
		}
		out.Features[i] = cf
	}
	return out
}

// Ubigeo extracts the feature's district code, zero-padded to 6 characters.
// Returns the empty string when the property is absent or empty.
func (f *Feature) Ubigeo() string {
	raw, ok := f.Properties["UBIGEO"]
	if !ok {
		return ""
	}
	s := propString(raw)
	if s == "" {
		return ""
	}
	return PadUbigeo(s)
}

// DistrictName extracts the feature's NOMBDIST property as a string.
func (f *Feature) DistrictName() string {
	return propString(f.Properties["NOMBDIST"])
}

// propString renders a property value as a string. District codes arrive as
// either strings or JSON numbers depending on how the document was exported.
func propString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		// JSON numbers decode to float64; codes are whole numbers.
		return fmt.Sprintf("%.0f", t)
	case json.Number:
		return t.String()
	default:
		return fmt.Sprintf("%v", t)
	}
}

// deepCopyMap copies a property map, recursing into nested maps and slices.
func deepCopyMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = deepCopyValue(v)
	}
	return out
}

func deepCopyValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return deepCopyMap(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = deepCopyValue(e)
		}
		return out
	default:
		// Scalars (string, float64, bool, nil) are immutable.
		return v
	}
}
