package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"chatdoc/internal/pkg/errcode"
	"chatdoc/internal/pkg/response"
	"chatdoc/internal/service"
)

type ChatHandler struct {
	service *service.ChatService
}

type AskRequest struct {
	Question string `json:"question"`
}

type AskResponse struct {
	Answer string `json:"answer"`
	Model  string `json:"model"`
}

type SelectModelRequest struct {
	Model string `json:"model"`
}

type ModelsResponse struct {
	Models   []string `json:"models"`
	Selected string   `json:"selected"`
}

func NewChatHandler(svc *service.ChatService) *ChatHandler {
	return &ChatHandler{service: svc}
}

func (h *ChatHandler) Ask(c *gin.Context) {
	var req AskRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Question) == "" {
		response.Error(c, http.StatusBadRequest, errcode.ErrInvalid, "question is required")
		return
	}
	answer, err := h.service.Ask(c.Request.Context(), req.Question)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, AskResponse{Answer: answer, Model: h.service.SelectedModel()})
}

func (h *ChatHandler) Messages(c *gin.Context) {
	response.Success(c, h.service.Messages())
}

// Models answers with the selected model alone when the backend is down,
// mirroring the service fallback.
func (h *ChatHandler) Models(c *gin.Context) {
	names, _ := h.service.Models(c.Request.Context())
	response.Success(c, ModelsResponse{Models: names, Selected: h.service.SelectedModel()})
}

func (h *ChatHandler) SelectModel(c *gin.Context) {
	var req SelectModelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, errcode.ErrInvalid, "invalid request")
		return
	}
	h.service.SelectModel(strings.TrimSpace(req.Model))
	response.Success(c, ModelsResponse{Selected: h.service.SelectedModel()})
}
