package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"genmedia-backend/internal/events"
	"genmedia-backend/internal/metrics"
	"genmedia-backend/internal/models"
)

const (
	ProcessingThumbnail = "thumbnail"
	ProcessingWatermark = "watermark"
	ProcessingResize    = "resize"
	ProcessingUnknown   = "unknown"
)

type ProcessingResult struct {
	OriginalURL string      `json:"original_url,omitempty"`
	NewSize     interface{} `json:"new_size,omitempty"`
	Dimensions  interface{} `json:"dimensions,omitempty"`
}

// ProcessingCallback is the body the media-processing service posts when a
// task changes state.
type ProcessingCallback struct {
	GenerationID   string            `json:"generation_id"`
	ProcessingID   string            `json:"processing_id"`
	Status         string            `json:"status"`
	ThumbnailURL   string            `json:"thumbnail_url,omitempty"`
	WatermarkedURL string            `json:"watermarked_url,omitempty"`
	ResizedURL     string            `json:"resized_url,omitempty"`
	ResultURL      string            `json:"result_url,omitempty"`
	Result         *ProcessingResult `json:"result,omitempty"`
	Error          string            `json:"error,omitempty"`
	ProcessingTime interface{}       `json:"processing_time,omitempty"`
	Message        string            `json:"message,omitempty"`
}

// Type infers the processing task from the result URL the callback carries.
func (c *ProcessingCallback) Type() string {
	switch {
	case c.ThumbnailURL != "":
		return ProcessingThumbnail
	case c.WatermarkedURL != "":
		return ProcessingWatermark
	case c.ResizedURL != "":
		return ProcessingResize
	}
	return ProcessingUnknown
}

func (c *ProcessingCallback) URLsReceived() map[string]bool {
	return map[string]bool{
		"result_url":      c.ResultURL != "",
		"thumbnail_url":   c.ThumbnailURL != "",
		"watermarked_url": c.WatermarkedURL != "",
		"resized_url":     c.ResizedURL != "",
	}
}

type ProcessingOutcome struct {
	GenerationID   uuid.UUID
	ProcessingType string
	Status         string
	ThumbnailSet   bool
	OutputReplaced bool
}

type ProcessingService struct {
	store     GenerationStore
	publisher events.Publisher
	logger    *zap.Logger
	now       func() time.Time
}

func NewProcessingService(store GenerationStore, publisher events.Publisher, logger *zap.Logger) *ProcessingService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &ProcessingService{
		store:     store,
		publisher: publisher,
		logger:    logger.Named("processing"),
		now:       time.Now,
	}
}

func (s *ProcessingService) WithClock(now func() time.Time) *ProcessingService {
	s.now = now
	return s
}

// Handle folds a processing callback into the generation record. Metadata is
// merged so earlier task entries survive.
func (s *ProcessingService) Handle(ctx context.Context, cb ProcessingCallback) (*ProcessingOutcome, error) {
	if cb.GenerationID == "" {
		return nil, newWebhookError(KindInvalidRequest, "Generation ID is required", nil)
	}
	id, err := uuid.Parse(cb.GenerationID)
	if err != nil {
		return nil, newWebhookError(KindInvalidRequest, "Invalid generation ID", err)
	}

	processingType := cb.Type()
	log := s.logger.With(
		zap.String("generation_id", id.String()),
		zap.String("processing_id", cb.ProcessingID),
		zap.String("processing_type", processingType),
		zap.String("status", cb.Status),
	)

	gen, err := s.store.GetByID(ctx, id)
	if errors.Is(err, models.ErrGenerationNotFound) {
		return nil, newWebhookError(KindRecordNotFound, "Generation not found", err)
	}
	if err != nil {
		log.Error("failed to fetch generation", zap.Error(err))
		return nil, newWebhookError(KindUnexpected, "failed to fetch generation", err)
	}

	update := s.buildUpdate(cb, processingType, gen)
	outcome := &ProcessingOutcome{
		GenerationID:   id,
		ProcessingType: processingType,
		Status:         cb.Status,
		ThumbnailSet:   update.ThumbnailURL != "",
		OutputReplaced: update.OutputFileURL != "",
	}

	if update.Metadata != nil || outcome.ThumbnailSet || outcome.OutputReplaced {
		if err := s.store.ApplyProcessingResult(ctx, id, update); err != nil {
			if errors.Is(err, models.ErrGenerationNotFound) {
				return nil, newWebhookError(KindRecordNotFound, "Generation not found", err)
			}
			log.Error("failed to update generation", zap.Error(err))
			return nil, newWebhookError(KindUnexpected, fmt.Sprintf("Database update failed: %v", err), err)
		}
	}

	metrics.ProcessingCallback(processingType, cb.Status)
	log.Info("processing callback applied",
		zap.Bool("thumbnail_updated", outcome.ThumbnailSet),
		zap.Bool("output_updated", outcome.OutputReplaced),
	)

	if err := s.publisher.Publish(ctx, events.Processed(id, processingType, cb.Status)); err != nil {
		log.Warn("failed to publish processing event", zap.Error(err))
	}
	return outcome, nil
}

func (s *ProcessingService) buildUpdate(cb ProcessingCallback, processingType string, gen *models.Generation) models.ProcessingUpdate {
	now := s.now().UTC().Format(time.RFC3339)
	var update models.ProcessingUpdate

	originalURL := gen.OutputFileURL.String
	if cb.Result != nil && cb.Result.OriginalURL != "" {
		originalURL = cb.Result.OriginalURL
	}

	switch cb.Status {
	case "completed":
		switch {
		case processingType == ProcessingThumbnail:
			update.ThumbnailURL = cb.ThumbnailURL
			update.Metadata = map[string]interface{}{
				"thumbnail_processing": map[string]interface{}{
					"status":          "completed",
					"thumbnail_url":   cb.ThumbnailURL,
					"completed_at":    now,
					"processing_time": cb.ProcessingTime,
					"processing_id":   cb.ProcessingID,
				},
			}
		case processingType == ProcessingWatermark:
			update.OutputFileURL = cb.WatermarkedURL
			update.Metadata = map[string]interface{}{
				"watermark_processing": map[string]interface{}{
					"status":          "completed",
					"watermarked_url": cb.WatermarkedURL,
					"original_url":    originalURL,
					"completed_at":    now,
					"processing_time": cb.ProcessingTime,
					"processing_id":   cb.ProcessingID,
					"watermarked":     true,
				},
			}
		case processingType == ProcessingResize:
			entry := map[string]interface{}{
				"status":          "completed",
				"resized_url":     cb.ResizedURL,
				"original_url":    originalURL,
				"completed_at":    now,
				"processing_time": cb.ProcessingTime,
				"processing_id":   cb.ProcessingID,
			}
			if cb.Result != nil {
				entry["new_size"] = cb.Result.NewSize
				entry["dimensions"] = cb.Result.Dimensions
			}
			update.OutputFileURL = cb.ResizedURL
			update.Metadata = map[string]interface{}{"resize_processing": entry}
		case cb.ResultURL != "":
			update.Metadata = map[string]interface{}{
				"ffmpeg_processing": map[string]interface{}{
					"status":          "completed",
					"result_url":      cb.ResultURL,
					"completed_at":    now,
					"processing_time": cb.ProcessingTime,
					"processing_id":   cb.ProcessingID,
					"processing_type": processingType,
				},
			}
		}
	case "failed":
		update.Metadata = map[string]interface{}{
			processingType + "_processing": map[string]interface{}{
				"status":        "failed",
				"error_message": cb.Error,
				"failed_at":     now,
				"processing_id": cb.ProcessingID,
			},
		}
	case "processing":
		message := cb.Message
		if message == "" {
			message = "Processing in progress..."
		}
		update.Metadata = map[string]interface{}{
			processingType + "_processing": map[string]interface{}{
				"status":        "processing",
				"started_at":    now,
				"processing_id": cb.ProcessingID,
				"message":       message,
			},
		}
	}
	return update
}
