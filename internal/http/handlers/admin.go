package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/swiftloan/backend/internal/domain/application"
)

const AdminActorHeader = "X-Admin-Actor"

type StatusUpdater interface {
	UpdateApplicationStatus(ctx context.Context, actor, id, status string) (*application.Application, error)
}

type AdminHandler struct {
	updater StatusUpdater
}

func NewAdminHandler(updater StatusUpdater) *AdminHandler {
	return &AdminHandler{updater: updater}
}

func (h *AdminHandler) UpdateStatus(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	var req struct {
		Status string `json:"status"`
	}
	if id == "" || c.ShouldBindJSON(&req) != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	updated, err := h.updater.UpdateApplicationStatus(c.Request.Context(), c.GetHeader(AdminActorHeader), id, req.Status)
	switch {
	case errors.Is(err, application.ErrInvalidStatus):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_status"})
		return
	case errors.Is(err, application.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "application_not_found"})
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "status_update_failed"})
		return
	}
	c.JSON(http.StatusOK, updated)
}
