package extract

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"go.uber.org/zap"

	"chatdoc/internal/domain"
	"chatdoc/internal/logger"
	"chatdoc/internal/session"
)

const jsonIndent = "  "

// extractJSON handles both .json and .geojson uploads. A payload with
// "type" and "features" keys is treated as GeoJSON whatever its extension.
func extractJSON(ctx context.Context, sess *session.Session, data []byte, source string) ([]domain.Document, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if !json.Valid(data) {
		var v any
		err := json.Unmarshal(data, &v)
		return nil, malformed("json", err)
	}

	keys, fields, isObject := objectFields(data)
	if isObject && hasKey(keys, "type") && hasKey(keys, "features") {
		return extractGeoJSON(ctx, sess, data, fields["features"], source)
	}

	var out bytes.Buffer
	if err := json.Indent(&out, data, "", jsonIndent); err != nil {
		return nil, malformed("json", err)
	}
	if frame, ok := frameFromArray(data); ok && sess != nil {
		sess.PutDataFrame(source, frame)
	}
	return []domain.Document{domain.NewDocument(out.String(), source)}, nil
}

// extractGeoJSON keeps the feature properties as document text and parks
// the full payload, with its bounds, for map rendering.
func extractGeoJSON(ctx context.Context, sess *session.Session, data []byte, features json.RawMessage, source string) ([]domain.Document, error) {
	var rawFeatures []json.RawMessage
	if err := json.Unmarshal(features, &rawFeatures); err != nil {
		return nil, malformed("geojson", fmt.Errorf("features: %w", err))
	}

	props := make([]json.RawMessage, 0, len(rawFeatures))
	geometries := make([]json.RawMessage, 0, len(rawFeatures))
	for i, f := range rawFeatures {
		_, fields, ok := objectFields(f)
		if !ok {
			return nil, malformed("geojson", fmt.Errorf("feature %d is not an object", i))
		}
		p := fields["properties"]
		if len(p) == 0 || string(p) == "null" {
			p = json.RawMessage("{}")
		}
		props = append(props, p)
		geometries = append(geometries, fields["geometry"])
	}
	content, err := json.MarshalIndent(props, "", jsonIndent)
	if err != nil {
		return nil, malformed("geojson", err)
	}

	bounds := geoBounds(ctx, geometries)
	if sess != nil {
		sess.SetGeoJSON(&session.GeoPayload{Raw: string(data), Bounds: bounds})
		sess.PutDataFrame(source, frameFromObjects(props))
	}
	logger.From(ctx).Debug("geojson parsed", zap.Int("features", len(props)), zap.Float64s("bounds", bounds[:]))
	return []domain.Document{domain.NewDocument(string(content), source)}, nil
}

// geoBounds returns [minx, miny, maxx, maxy] over every feature geometry.
// Missing or unparsable geometries are skipped.
func geoBounds(ctx context.Context, geometries []json.RawMessage) [4]float64 {
	var bound orb.Bound
	seen := false
	for i, raw := range geometries {
		if len(raw) == 0 || string(raw) == "null" {
			continue
		}
		g, err := geojson.UnmarshalGeometry(raw)
		if err != nil || g == nil || (g.Coordinates == nil && len(g.Geometries) == 0) {
			logger.From(ctx).Debug("skipping feature geometry", zap.Int("feature", i), zap.Error(err))
			continue
		}
		b := g.Geometry().Bound()
		if !seen {
			bound, seen = b, true
			continue
		}
		bound = bound.Union(b)
	}
	if !seen {
		return [4]float64{}
	}
	return [4]float64{bound.Min[0], bound.Min[1], bound.Max[0], bound.Max[1]}
}

// extractCSV parses the table, renders it as text and parks the frame.
func extractCSV(_ context.Context, sess *session.Session, data []byte, source string) ([]domain.Document, error) {
	r := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, utf8BOM)))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return []domain.Document{domain.NewDocument("", source)}, nil
	}
	if err != nil {
		return nil, malformed("csv", err)
	}
	frame := &session.Frame{Columns: header}
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, malformed("csv", err)
		}
		frame.Rows = append(frame.Rows, rec)
	}
	if sess != nil {
		sess.PutDataFrame(source, frame)
	}
	return []domain.Document{domain.NewDocument(frame.String(), source)}, nil
}

// objectFields decodes a JSON object keeping key order.
func objectFields(data []byte) ([]string, map[string]json.RawMessage, bool) {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, nil, false
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, nil, false
	}
	var keys []string
	fields := make(map[string]json.RawMessage)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, nil, false
		}
		key, ok := tok.(string)
		if !ok {
			return nil, nil, false
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, nil, false
		}
		if _, dup := fields[key]; !dup {
			keys = append(keys, key)
		}
		fields[key] = raw
	}
	return keys, fields, true
}

func hasKey(keys []string, k string) bool {
	for _, key := range keys {
		if key == k {
			return true
		}
	}
	return false
}

// frameFromArray builds a frame from a JSON array of objects.
func frameFromArray(data []byte) (*session.Frame, bool) {
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil || len(items) == 0 {
		return nil, false
	}
	for _, it := range items {
		if _, _, ok := objectFields(it); !ok {
			return nil, false
		}
	}
	return frameFromObjects(items), true
}

// frameFromObjects uses the union of keys, in first-seen order, as columns.
func frameFromObjects(items []json.RawMessage) *session.Frame {
	frame := &session.Frame{}
	index := make(map[string]int)
	rows := make([]map[string]json.RawMessage, 0, len(items))
	for _, it := range items {
		keys, fields, ok := objectFields(it)
		if !ok {
			fields = nil
		}
		for _, k := range keys {
			if _, seen := index[k]; !seen {
				index[k] = len(frame.Columns)
				frame.Columns = append(frame.Columns, k)
			}
		}
		rows = append(rows, fields)
	}
	for _, fields := range rows {
		row := make([]string, len(frame.Columns))
		for k, v := range fields {
			row[index[k]] = cellText(v)
		}
		frame.Rows = append(frame.Rows, row)
	}
	return frame
}

func cellText(v json.RawMessage) string {
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		return s
	}
	var compact bytes.Buffer
	if err := json.Compact(&compact, v); err != nil {
		return strings.TrimSpace(string(v))
	}
	return compact.String()
}
