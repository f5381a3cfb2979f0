package models

import (
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Generation statuses. Providers may report other transient statuses; those
// are recorded in metadata only.
const (
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// Generation is a row of ai_generations.
type Generation struct {
	ID            uuid.UUID
	UserID        uuid.UUID
	ToolType      string
	Status        string
	Metadata      json.RawMessage
	OutputFileURL sql.NullString
	ThumbnailURL  sql.NullString
	ErrorMessage  sql.NullString
	CompletedAt   sql.NullTime
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// MetadataMap decodes the metadata bag. A null or malformed value yields an
// empty map.
func (g *Generation) MetadataMap() map[string]interface{} {
	out := map[string]interface{}{}
	if len(g.Metadata) == 0 {
		return out
	}
	if err := json.Unmarshal(g.Metadata, &out); err != nil || out == nil {
		return map[string]interface{}{}
	}
	return out
}

// MetadataString returns metadata[key] when it is a non-empty string.
func (g *Generation) MetadataString(key string) string {
	if v, ok := g.MetadataMap()[key].(string); ok {
		return v
	}
	return ""
}

// CompletionUpdate is applied when a generation reaches completed.
type CompletionUpdate struct {
	OutputFileURL string
	ThumbnailURL  string
	Metadata      map[string]interface{}
	CompletedAt   time.Time
}

// FailureUpdate is applied when a generation reaches failed.
type FailureUpdate struct {
	ErrorMessage string
	Metadata     map[string]interface{}
	CompletedAt  time.Time
}

// ProcessingUpdate folds a processing-service result into a generation that
// has already completed. Empty URL fields leave the columns untouched.
type ProcessingUpdate struct {
	OutputFileURL string
	ThumbnailURL  string
	Metadata      map[string]interface{}
}

// Profile carries the subscription fields of a user profile.
type Profile struct {
	ID                 string  `json:"id"`
	SubscriptionTier   *string `json:"subscription_tier"`
	SubscriptionStatus *string `json:"subscription_status"`
}

// ErrGenerationNotFound is returned when no generation matches a lookup, or
// a guarded update changed no rows.
var ErrGenerationNotFound = errors.New("generation not found")
