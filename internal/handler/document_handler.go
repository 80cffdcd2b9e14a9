package handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"chatdoc/internal/chunker"
	"chatdoc/internal/extract"
	"chatdoc/internal/pkg/errcode"
	"chatdoc/internal/pkg/response"
	"chatdoc/internal/service"
)

type DocumentHandler struct {
	service *service.ChatService
}

type FormatResponse struct {
	Extension   string `json:"extension"`
	Kind        string `json:"kind"`
	Description string `json:"description"`
}

type StrategyResponse struct {
	Name  string `json:"name"`
	Label string `json:"label"`
}

type ChunkingResponse struct {
	Strategies []StrategyResponse `json:"strategies"`
	Defaults   chunker.Config     `json:"defaults"`
}

type DocumentListResponse struct {
	Documents []DocumentResponse `json:"documents"`
	Stats     chunker.Stats      `json:"stats"`
}

type DocumentResponse struct {
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata"`
}

func NewDocumentHandler(svc *service.ChatService) *DocumentHandler {
	return &DocumentHandler{service: svc}
}

func (h *DocumentHandler) Formats(c *gin.Context) {
	out := make([]FormatResponse, 0, len(extract.SupportedFormats))
	for _, f := range extract.SupportedFormats {
		out = append(out, FormatResponse{Extension: f.Extension, Kind: f.Kind.String(), Description: f.Description})
	}
	response.Success(c, out)
}

func (h *DocumentHandler) Chunking(c *gin.Context) {
	strategies := []chunker.Strategy{chunker.StrategyRecursive, chunker.StrategyToken, chunker.StrategyMarkdown}
	out := ChunkingResponse{Defaults: h.service.ChunkingDefaults()}
	for _, s := range strategies {
		out.Strategies = append(out.Strategies, StrategyResponse{Name: string(s), Label: chunker.Labels[s]})
	}
	response.Success(c, out)
}

// Upload accepts a multipart "file" plus optional strategy, chunk_size and
// chunk_overlap form fields.
func (h *DocumentHandler) Upload(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			handleError(c, err)
			return
		}
		response.Error(c, http.StatusBadRequest, errcode.ErrInvalid, "file is required")
		return
	}
	cfg, err := chunkingFromForm(c, h.service.ChunkingDefaults())
	if err != nil {
		response.Error(c, http.StatusBadRequest, errcode.ErrInvalid, err.Error())
		return
	}
	opened, err := file.Open()
	if err != nil {
		response.Error(c, http.StatusBadRequest, errcode.ErrInvalid, "failed to open file")
		return
	}
	defer opened.Close()
	data, err := io.ReadAll(opened)
	if err != nil {
		response.Error(c, http.StatusBadRequest, errcode.ErrInvalid, "failed to read file")
		return
	}

	res, err := h.service.Upload(c.Request.Context(), data, file.Filename, &cfg)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, res)
}

func (h *DocumentHandler) List(c *gin.Context) {
	docs := h.service.Documents()
	out := DocumentListResponse{Documents: make([]DocumentResponse, 0, len(docs)), Stats: chunker.Summarize(docs)}
	for _, d := range docs {
		out.Documents = append(out.Documents, DocumentResponse{Content: d.Content, Metadata: d.Metadata})
	}
	response.Success(c, out)
}

func (h *DocumentHandler) Delete(c *gin.Context) {
	if err := h.service.Reset(c.Request.Context()); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, nil)
}

func chunkingFromForm(c *gin.Context, defaults chunker.Config) (chunker.Config, error) {
	cfg := defaults
	if s := strings.TrimSpace(c.PostForm("strategy")); s != "" {
		cfg.Strategy = chunker.Strategy(s)
	}
	for field, dst := range map[string]*int{"chunk_size": &cfg.ChunkSize, "chunk_overlap": &cfg.ChunkOverlap} {
		v := strings.TrimSpace(c.PostForm(field))
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return cfg, &formError{field: field, value: v}
		}
		*dst = n
	}
	return cfg, nil
}

type formError struct{ field, value string }

func (e *formError) Error() string { return "invalid " + e.field + ": " + e.value }
