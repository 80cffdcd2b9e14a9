package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"chatdoc/internal/domain"
	"chatdoc/internal/logger"
	"chatdoc/internal/pkg/errcode"
	"chatdoc/internal/pkg/response"
)

func handleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	logger.From(c.Request.Context()).Warn("request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.Error(err))

	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		response.Error(c, http.StatusRequestEntityTooLarge, errcode.ErrUploadTooLarge, "upload exceeds "+formatUploadLimit(tooLarge.Limit))
	case errors.Is(err, domain.ErrUnsupportedFormat):
		response.Error(c, http.StatusUnsupportedMediaType, errcode.ErrUnsupportedFormat, err.Error())
	case errors.Is(err, domain.ErrMalformedContent):
		response.Error(c, http.StatusUnprocessableEntity, errcode.ErrMalformedContent, err.Error())
	case errors.Is(err, domain.ErrEmptyDocument):
		response.Error(c, http.StatusUnprocessableEntity, errcode.ErrEmptyDocument, err.Error())
	case errors.Is(err, domain.ErrInvalidChunking):
		response.Error(c, http.StatusBadRequest, errcode.ErrInvalidChunking, err.Error())
	case errors.Is(err, domain.ErrEmbeddingBackend):
		response.Error(c, http.StatusBadGateway, errcode.ErrEmbeddingBackend, err.Error())
	case errors.Is(err, domain.ErrGeneration):
		response.Error(c, http.StatusBadGateway, errcode.ErrGeneration, err.Error())
	default:
		response.Error(c, http.StatusInternalServerError, errcode.ErrInternal, "internal error")
	}
}
