package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"genmedia-backend/internal/fal"
	"genmedia-backend/internal/models"
	"genmedia-backend/internal/services"
)

// maxWebhookBody bounds provider deliveries. Payloads carry URLs, not media.
const maxWebhookBody = 10 << 20

type FalWebhookService interface {
	Handle(ctx context.Context, headers fal.WebhookHeaders, body []byte) (*services.WebhookResult, error)
}

type WebhookHandler struct {
	service FalWebhookService
	logger  *zap.Logger
}

func NewWebhookHandler(service FalWebhookService, logger *zap.Logger) *WebhookHandler {
	return &WebhookHandler{
		service: service,
		logger:  logger.Named("webhook_handler"),
	}
}

// HandleFalWebhook godoc
// @Summary     fal.ai webhook endpoint
// @Description Receives generation results from fal.ai. Deliveries are verified with the provider's Ed25519 signature headers.
// @Tags        webhooks
// @Accept      json
// @Produce     json
// @Param       X-Fal-Webhook-Request-Id header string true "Provider request id"
// @Param       X-Fal-Webhook-User-Id    header string true "Provider user id"
// @Param       X-Fal-Webhook-Timestamp  header string true "Unix seconds"
// @Param       X-Fal-Webhook-Signature  header string true "Hex Ed25519 signature"
// @Success     200 {object} models.WebhookResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     403 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /api/v1/webhooks/fal [post]
func (h *WebhookHandler) HandleFalWebhook(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "failed to read request body",
			Message: err.Error(),
		})
		return
	}

	result, err := h.service.Handle(c.Request.Context(), fal.HeadersFrom(c.Request.Header), body)
	if err != nil {
		status, message := errorStatus(err)
		if status >= http.StatusInternalServerError {
			h.logger.Error("webhook processing failed", zap.Error(err))
		}
		c.JSON(status, models.ErrorResponse{Error: message})
		return
	}

	c.JSON(http.StatusOK, models.WebhookResponse{
		Success:      true,
		Message:      result.Message,
		GenerationID: result.GenerationID,
		Status:       result.Status,
		ErrorType:    result.ErrorType,
		ErrorCode:    result.ErrorCode,
	})
}

// Preflight answers bare OPTIONS requests that reach the route without an
// Origin header.
func Preflight(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

// errorStatus maps a pipeline error to its HTTP status and client message.
func errorStatus(err error) (int, string) {
	var werr *services.WebhookError
	if !errors.As(err, &werr) {
		return http.StatusInternalServerError, err.Error()
	}
	switch werr.Kind {
	case services.KindInvalidRequest, services.KindNoOutputURL:
		return http.StatusBadRequest, werr.Message
	case services.KindSignatureInvalid:
		return http.StatusForbidden, werr.Message
	case services.KindRecordNotFound:
		return http.StatusNotFound, werr.Message
	}
	if werr.Err != nil {
		return http.StatusInternalServerError, werr.Err.Error()
	}
	return http.StatusInternalServerError, werr.Message
}
