package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/swiftloan/backend/internal/format"
)

type MetaHandler struct {
	env     string
	version string
}

func NewMetaHandler(env, version string) *MetaHandler {
	return &MetaHandler{env: env, version: version}
}

func (h *MetaHandler) GetMeta(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"name":     "SwiftLoan Backend",
		"version":  h.version,
		"env":      h.env,
		"currency": "INR",
		"timezone": format.IST.String(),
	})
}
