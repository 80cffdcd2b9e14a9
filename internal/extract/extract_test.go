package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"unicode/utf16"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatdoc/internal/domain"
	"chatdoc/internal/session"
)

func TestEveryKindHasExtractor(t *testing.T) {
	for _, f := range SupportedFormats {
		_, ok := extractors[f.Kind]
		assert.True(t, ok, "no extractor for %s", f.Kind)
	}
}

func TestKindFromFilename(t *testing.T) {
	cases := map[string]FormatKind{
		"notes.TXT":       KindText,
		"paper.pdf":       KindPDF,
		"letter.docx":     KindWord,
		"old.DOC":         KindWord,
		"data.json":       KindJSON,
		"map.GeoJSON":     KindGeoJSON,
		"table.csv":       KindCSV,
		"README.md":       KindMarkdown,
		"dir.v2/file.txt": KindText,
	}
	for name, want := range cases {
		got, err := KindFromFilename(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}

	_, err := KindFromFilename("image.png")
	require.ErrorIs(t, err, domain.ErrUnsupportedFormat)
	_, err = KindFromFilename("noext")
	require.ErrorIs(t, err, domain.ErrUnsupportedFormat)
}

func TestExtractMinimalSamples(t *testing.T) {
	samples := map[string][]byte{
		"a.txt":     []byte("plain text body"),
		"a.md":      []byte("# Title\n\nsome markdown"),
		"a.json":    []byte(`{"name":"chatdoc","tags":["a","b"]}`),
		"a.geojson": []byte(twoFeatureGeoJSON),
		"a.csv":     []byte("city,pop\nParis,2100000\n"),
		"a.docx":    buildDocx(t, "First paragraph", "Second paragraph"),
		"a.doc":     legacyDoc("Legacy word text"),
		"a.pdf":     buildPDF("Hello PDF"),
	}
	for name, data := range samples {
		t.Run(name, func(t *testing.T) {
			docs, _, err := Extract(context.Background(), session.New(), data, name)
			require.NoError(t, err)
			require.NotEmpty(t, docs)
			assert.NotEmpty(t, strings.TrimSpace(docs[0].Content))
			assert.Equal(t, name, docs[0].Source())
		})
	}
}

func TestExtractUnsupported(t *testing.T) {
	_, _, err := Extract(context.Background(), session.New(), []byte("x"), "photo.jpg")
	require.ErrorIs(t, err, domain.ErrUnsupportedFormat)
}

func TestExtractEmpty(t *testing.T) {
	_, _, err := Extract(context.Background(), session.New(), []byte("   \n\t"), "blank.txt")
	require.ErrorIs(t, err, domain.ErrEmptyDocument)
	assert.NotErrorIs(t, err, domain.ErrMalformedContent)

	_, _, err = Extract(context.Background(), session.New(), nil, "blank.csv")
	require.ErrorIs(t, err, domain.ErrEmptyDocument)
}

func TestExtractMalformedJSON(t *testing.T) {
	_, _, err := Extract(context.Background(), session.New(), []byte(`{"type": "FeatureCollection", `), "bad.geojson")
	require.ErrorIs(t, err, domain.ErrMalformedContent)

	_, _, err = Extract(context.Background(), session.New(), []byte(`[1, 2`), "bad.json")
	require.ErrorIs(t, err, domain.ErrMalformedContent)

	_, _, err = Extract(context.Background(), session.New(), []byte(`{"type":"FeatureCollection","features":{"a":1}}`), "bad.json")
	require.ErrorIs(t, err, domain.ErrMalformedContent)
}

const twoFeatureGeoJSON = `{
  "type": "FeatureCollection",
  "features": [
    {"type": "Feature", "properties": {"name": "A", "pop": 10},
     "geometry": {"type": "Point", "coordinates": [1.5, 2.5]}},
    {"type": "Feature", "properties": {"name": "B", "pop": 20},
     "geometry": {"type": "Point", "coordinates": [-3.0, 4.0]}}
  ]
}`

func TestExtractGeoJSONTwoFeatures(t *testing.T) {
	sess := session.New()
	docs, kind, err := Extract(context.Background(), sess, []byte(twoFeatureGeoJSON), "places.geojson")
	require.NoError(t, err)
	assert.Equal(t, KindGeoJSON, kind)
	require.Len(t, docs, 1)

	var props []map[string]any
	require.NoError(t, json.Unmarshal([]byte(docs[0].Content), &props))
	require.Len(t, props, 2)
	assert.Equal(t, "A", props[0]["name"])
	assert.Equal(t, "B", props[1]["name"])

	geo, ok := sess.GeoJSON()
	require.True(t, ok)
	assert.Equal(t, twoFeatureGeoJSON, geo.Raw)
	assert.Equal(t, [4]float64{-3.0, 2.5, 1.5, 4.0}, geo.Bounds)

	var raw struct {
		Features []struct {
			Geometry json.RawMessage `json:"geometry"`
		} `json:"features"`
	}
	require.NoError(t, json.Unmarshal([]byte(geo.Raw), &raw))
	require.Len(t, raw.Features, 2)
	assert.Contains(t, string(raw.Features[0].Geometry), "Point")

	frame, ok := sess.DataFrame("places.geojson")
	require.True(t, ok)
	assert.Equal(t, []string{"name", "pop"}, frame.Columns)
	assert.Equal(t, [][]string{{"A", "10"}, {"B", "20"}}, frame.Rows)
}

func TestExtractJSONWithGeoShapeUsesGeoPath(t *testing.T) {
	sess := session.New()
	docs, kind, err := Extract(context.Background(), sess, []byte(twoFeatureGeoJSON), "places.json")
	require.NoError(t, err)
	assert.Equal(t, KindJSON, kind)
	assert.True(t, strings.HasPrefix(strings.TrimSpace(docs[0].Content), "["))
	_, ok := sess.GeoJSON()
	assert.True(t, ok)
}

func TestExtractFeatureListWithoutGeometry(t *testing.T) {
	sess := session.New()
	payload := `{"type":"Topology","features":[{"properties":{"a":1}},` +
		`{"properties":{"a":2},"geometry":{"type":"Point","coordinates":[3,4]}},` +
		`{"properties":{"a":3},"geometry":{"type":"Blob"}}]}`
	docs, _, err := Extract(context.Background(), sess, []byte(payload), "x.json")
	require.NoError(t, err)
	require.Len(t, docs, 1)

	var props []map[string]any
	require.NoError(t, json.Unmarshal([]byte(docs[0].Content), &props))
	assert.Len(t, props, 3)

	geo, ok := sess.GeoJSON()
	require.True(t, ok)
	assert.Equal(t, [4]float64{3, 4, 3, 4}, geo.Bounds)
}

func TestExtractJSONArrayParksFrame(t *testing.T) {
	sess := session.New()
	docs, _, err := Extract(context.Background(), sess, []byte(`[{"id":1,"name":"x"},{"id":2,"extra":true}]`), "rows.json")
	require.NoError(t, err)
	assert.Contains(t, docs[0].Content, "\n  {")

	frame, ok := sess.DataFrame("rows.json")
	require.True(t, ok)
	assert.Equal(t, []string{"id", "name", "extra"}, frame.Columns)
	assert.Equal(t, [][]string{{"1", "x", ""}, {"2", "", "true"}}, frame.Rows)
}

func TestExtractCSVParksFrame(t *testing.T) {
	sess := session.New()
	docs, kind, err := Extract(context.Background(), sess, []byte("city,pop\nParis,2100000\nLyon,500000\n"), "cities.csv")
	require.NoError(t, err)
	assert.Equal(t, KindCSV, kind)
	assert.False(t, NeedsChunking(kind))

	frame, ok := sess.DataFrame("cities.csv")
	require.True(t, ok)
	assert.Equal(t, []string{"city", "pop"}, frame.Columns)
	assert.Len(t, frame.Rows, 2)
	assert.Equal(t, frame.String(), docs[0].Content)
}

func TestExtractWordFallback(t *testing.T) {
	docs, _, err := Extract(context.Background(), session.New(), legacyDoc("Quarterly report"), "report.doc")
	require.NoError(t, err)
	assert.Contains(t, docs[0].Content, "Quarterly report")

	_, _, err = Extract(context.Background(), session.New(), []byte{0, 1, 2, 0, 3}, "broken.docx")
	require.ErrorIs(t, err, domain.ErrMalformedContent)
}

func TestExtractDocxParagraphs(t *testing.T) {
	docs, _, err := Extract(context.Background(), session.New(), buildDocx(t, "One", "Two"), "x.docx")
	require.NoError(t, err)
	assert.Equal(t, "One\nTwo", docs[0].Content)
}

func TestExtractPDFPages(t *testing.T) {
	docs, _, err := Extract(context.Background(), session.New(), buildPDF("Hello PDF"), "x.pdf")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Contains(t, docs[0].Content, "Hello PDF")
	assert.Equal(t, 0, docs[0].Metadata[MetaPage])

	_, _, err = Extract(context.Background(), session.New(), []byte("not a pdf"), "x.pdf")
	require.ErrorIs(t, err, domain.ErrMalformedContent)
}

func buildDocx(t *testing.T, paragraphs ...string) []byte {
	t.Helper()
	var body strings.Builder
	for _, p := range paragraphs {
		fmt.Fprintf(&body, `<w:p><w:r><w:t>%s</w:t></w:r></w:p>`, p)
	}
	xmlDoc := `<?xml version="1.0" encoding="UTF-8"?>` +
		`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
		body.String() + `</w:body></w:document>`

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(xmlDoc))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func legacyDoc(text string) []byte {
	out := []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1, 0, 0, 0, 0}
	for _, u := range utf16.Encode([]rune(text)) {
		out = binary.LittleEndian.AppendUint16(out, u)
	}
	return append(out, 0, 0, 0xFF, 0x01)
}

// buildPDF writes a one-page PDF with a valid cross-reference table.
func buildPDF(text string) []byte {
	stream := fmt.Sprintf("BT /F1 24 Tf 72 720 Td (%s) Tj ET", text)
	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 5 0 R >> >> /Contents 4 0 R >>",
		fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(stream), stream),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>",
	}
	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buf.Bytes()
}
