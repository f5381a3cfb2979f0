package services

import (
	"context"

	"github.com/google/uuid"

	"genmedia-backend/internal/fal"
	"genmedia-backend/internal/ffmpeg"
	"genmedia-backend/internal/models"
)

// GenerationStore is the persisted job record the pipelines transition.
type GenerationStore interface {
	FindProcessingByRequestID(ctx context.Context, requestID string) (*models.Generation, error)
	FindModelByRequestID(ctx context.Context, requestID string) (string, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Generation, error)
	CompleteGeneration(ctx context.Context, id uuid.UUID, update models.CompletionUpdate) error
	FailGeneration(ctx context.Context, id uuid.UUID, update models.FailureUpdate) error
	MergeMetadata(ctx context.Context, id uuid.UUID, metadata map[string]interface{}) error
	ApplyProcessingResult(ctx context.Context, id uuid.UUID, update models.ProcessingUpdate) error
}

type ProfileStore interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (*models.Profile, error)
}

type Downloader interface {
	Download(ctx context.Context, url string) ([]byte, error)
}

type Uploader interface {
	Upload(ctx context.Context, path string, data []byte, contentType string) (string, error)
}

type SignatureVerifier interface {
	Verify(ctx context.Context, h fal.WebhookHeaders, body []byte) error
}

type ProcessingClient interface {
	ExtractThumbnail(ctx context.Context, in ffmpeg.ThumbnailRequest) (*ffmpeg.TaskResponse, error)
	AddWatermark(ctx context.Context, in ffmpeg.WatermarkRequest) (*ffmpeg.TaskResponse, error)
}
