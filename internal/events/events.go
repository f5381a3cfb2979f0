package events

import (
	"context"
	"time"

	"github.com/google/uuid"

	"genmedia-backend/internal/models"
)

const (
	TypeGenerationCompleted = "generation.completed"
	TypeGenerationFailed    = "generation.failed"
	TypeGenerationProcessed = "generation.processed"
)

// GenerationEvent announces a generation lifecycle change to other services.
type GenerationEvent struct {
	Type         string    `json:"type"`
	GenerationID string    `json:"generation_id"`
	UserID       string    `json:"user_id"`
	ToolType     string    `json:"tool_type,omitempty"`
	Status       string    `json:"status"`
	OutputURL    string    `json:"output_url,omitempty"`
	ThumbnailURL string    `json:"thumbnail_url,omitempty"`
	ErrorType    string    `json:"error_type,omitempty"`
	ErrorMessage string    `json:"error_message,omitempty"`
	OccurredAt   time.Time `json:"occurred_at"`
}

type Publisher interface {
	Publish(ctx context.Context, ev GenerationEvent) error
	Close() error
}

func Completed(gen *models.Generation, outputURL, thumbnailURL string) GenerationEvent {
	return GenerationEvent{
		Type:         TypeGenerationCompleted,
		GenerationID: gen.ID.String(),
		UserID:       gen.UserID.String(),
		ToolType:     gen.ToolType,
		Status:       models.StatusCompleted,
		OutputURL:    outputURL,
		ThumbnailURL: thumbnailURL,
		OccurredAt:   time.Now().UTC(),
	}
}

func Failed(gen *models.Generation, errorType, message string) GenerationEvent {
	return GenerationEvent{
		Type:         TypeGenerationFailed,
		GenerationID: gen.ID.String(),
		UserID:       gen.UserID.String(),
		ToolType:     gen.ToolType,
		Status:       models.StatusFailed,
		ErrorType:    errorType,
		ErrorMessage: message,
		OccurredAt:   time.Now().UTC(),
	}
}

// Processed reports a processing-service result for a generation.
func Processed(generationID uuid.UUID, processingType, status string) GenerationEvent {
	return GenerationEvent{
		Type:         TypeGenerationProcessed,
		GenerationID: generationID.String(),
		ToolType:     processingType,
		Status:       status,
		OccurredAt:   time.Now().UTC(),
	}
}

// NopPublisher drops every event. It is used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, GenerationEvent) error { return nil }
func (NopPublisher) Close() error                                   { return nil }
