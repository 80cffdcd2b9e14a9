package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"chatdoc/internal/pkg/errcode"
	"chatdoc/internal/pkg/response"
	"chatdoc/internal/session"
)

// DataHandler serves the tabular and geographic side payloads of uploads.
type DataHandler struct {
	session *session.Session
}

type FrameResponse struct {
	Source  string     `json:"source"`
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
	Text    string     `json:"text"`
}

type GeoJSONResponse struct {
	GeoJSON json.RawMessage `json:"geojson"`
	Bounds  [4]float64      `json:"bounds"`
}

func NewDataHandler(sess *session.Session) *DataHandler {
	return &DataHandler{session: sess}
}

func (h *DataHandler) DataFrames(c *gin.Context) {
	response.Success(c, h.session.DataFrameSources())
}

func (h *DataHandler) DataFrame(c *gin.Context) {
	source := c.Param("source")
	f, ok := h.session.DataFrame(source)
	if !ok {
		response.Error(c, http.StatusNotFound, errcode.ErrNotFound, "no tabular data available for this document")
		return
	}
	response.Success(c, FrameResponse{Source: source, Columns: f.Columns, Rows: f.Rows, Text: f.String()})
}

func (h *DataHandler) GeoJSON(c *gin.Context) {
	g, ok := h.session.GeoJSON()
	if !ok {
		response.Error(c, http.StatusNotFound, errcode.ErrNotFound, "no geographic data found in the document")
		return
	}
	response.Success(c, GeoJSONResponse{GeoJSON: json.RawMessage(g.Raw), Bounds: g.Bounds})
}
