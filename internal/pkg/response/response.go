package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Envelope is the body of every API response. Code 0 means success.
type Envelope struct {
	Code uint32 `json:"code"`
	Msg  string `json:"msg"`
	Data any    `json:"data,omitempty"`
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Envelope{Code: 0, Msg: "ok", Data: data})
}

func Error(c *gin.Context, status int, code int, message string) {
	c.AbortWithStatusJSON(status, Envelope{Code: uint32(code), Msg: message})
}
