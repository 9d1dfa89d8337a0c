package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/swiftloan/backend/internal/domain/application"
	"github.com/swiftloan/backend/internal/export"
	"github.com/swiftloan/backend/internal/observability"
	"github.com/swiftloan/backend/internal/tracking"
)

type ApplicationService interface {
	Submit(ctx context.Context, in application.SubmitInput) (*application.Application, error)
	Lookup(ctx context.Context, applicationNumber string) (*application.Application, error)
}

type ApplicationHandler struct {
	service ApplicationService
	now     func() time.Time
}

func NewApplicationHandler(service ApplicationService) *ApplicationHandler {
	return &ApplicationHandler{service: service, now: time.Now}
}

func (h *ApplicationHandler) Submit(c *gin.Context) {
	var req application.SubmitInput
	if err := c.ShouldBindJSON(&req); err != nil {
		observability.ApplicationsSubmitted.WithLabelValues("invalid").Inc()
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	created, err := h.service.Submit(c.Request.Context(), req)
	var verr *application.ValidationError
	if errors.As(err, &verr) {
		observability.ApplicationsSubmitted.WithLabelValues("invalid").Inc()
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation_failed", "fields": verr.Fields})
		return
	}
	if err != nil {
		observability.ApplicationsSubmitted.WithLabelValues("error").Inc()
		c.JSON(http.StatusInternalServerError, gin.H{"error": "submit_failed"})
		return
	}
	observability.ApplicationsSubmitted.WithLabelValues("created").Inc()
	c.JSON(http.StatusCreated, gin.H{
		"id":                 created.ID,
		"application_number": created.ApplicationNumber,
		"status":             created.Status,
	})
}

func (h *ApplicationHandler) Get(c *gin.Context) {
	app, ok := h.lookup(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, tracking.ViewOf(app))
}

func (h *ApplicationHandler) DownloadSummary(c *gin.Context) {
	app, ok := h.lookup(c)
	if !ok {
		return
	}
	now := h.now()
	body := export.Summary(*app, tracking.DeriveStages(app), now)
	c.Header("Content-Disposition", `attachment; filename="`+export.Filename(app.ApplicationNumber, now)+`"`)
	c.Data(http.StatusOK, export.ContentType, []byte(body))
}

func (h *ApplicationHandler) lookup(c *gin.Context) (*application.Application, bool) {
	number := strings.TrimSpace(c.Param("applicationNumber"))
	if number == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing_application_number"})
		return nil, false
	}
	app, err := h.service.Lookup(c.Request.Context(), number)
	if errors.Is(err, application.ErrNotFound) {
		observability.TrackingLookups.WithLabelValues("not_found").Inc()
		c.JSON(http.StatusNotFound, gin.H{"error": "application_not_found"})
		return nil, false
	}
	if err != nil {
		observability.TrackingLookups.WithLabelValues("error").Inc()
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup_failed"})
		return nil, false
	}
	observability.TrackingLookups.WithLabelValues("found").Inc()
	return app, true
}
