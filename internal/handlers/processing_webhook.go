package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"genmedia-backend/internal/models"
	"genmedia-backend/internal/services"
)

type ProcessingCallbackService interface {
	Handle(ctx context.Context, cb services.ProcessingCallback) (*services.ProcessingOutcome, error)
}

type ProcessingWebhookHandler struct {
	service ProcessingCallbackService
	logger  *zap.Logger
}

func NewProcessingWebhookHandler(service ProcessingCallbackService, logger *zap.Logger) *ProcessingWebhookHandler {
	return &ProcessingWebhookHandler{
		service: service,
		logger:  logger.Named("processing_handler"),
	}
}

// Info godoc
// @Summary     Processing webhook status
// @Description Describes the processing callback endpoint for browser visits
// @Tags        webhooks
// @Produce     json
// @Success     200 {object} map[string]string
// @Router      /api/v1/webhooks/processing [get]
func (h *ProcessingWebhookHandler) Info(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message":   "Processing Webhook Endpoint",
		"status":    "active",
		"method":    "POST only",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// HandleCallback godoc
// @Summary     Media processing callback
// @Description Receives thumbnail, watermark and resize results from the media processing service
// @Tags        webhooks
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body services.ProcessingCallback true "Processing result"
// @Success     200 {object} models.ProcessingWebhookResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     401 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /api/v1/webhooks/processing [post]
func (h *ProcessingWebhookHandler) HandleCallback(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "failed to read request body",
			Message: err.Error(),
		})
		return
	}

	var cb services.ProcessingCallback
	if err := json.Unmarshal(body, &cb); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "Invalid JSON",
			Message: err.Error(),
		})
		return
	}

	outcome, err := h.service.Handle(c.Request.Context(), cb)
	if err != nil {
		status, message := errorStatus(err)
		if status >= http.StatusInternalServerError {
			h.logger.Error("processing callback failed", zap.String("generation_id", cb.GenerationID), zap.Error(err))
		}
		c.JSON(status, models.ErrorResponse{Error: message})
		return
	}

	c.JSON(http.StatusOK, models.ProcessingWebhookResponse{
		Success:        true,
		GenerationID:   outcome.GenerationID.String(),
		ProcessingID:   cb.ProcessingID,
		ProcessingType: outcome.ProcessingType,
		Status:         outcome.Status,
		Message:        fmt.Sprintf("%s processing %s", outcome.ProcessingType, outcome.Status),
		URLsReceived:   cb.URLsReceived(),
	})
}
