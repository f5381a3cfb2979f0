package supabase

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"genmedia-backend/internal/database"
	"genmedia-backend/internal/models"
)

// GenerationStore reads and transitions ai_generations rows.
type GenerationStore struct {
	db *sql.DB
}

func NewGenerationStore(connectionString string) (*GenerationStore, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &GenerationStore{db: db}, nil
}

// NewGenerationStoreFromDB wraps an existing pool.
func NewGenerationStoreFromDB(db *sql.DB) *GenerationStore {
	return &GenerationStore{db: db}
}

func (s *GenerationStore) DB() *sql.DB {
	return s.db
}

// FindProcessingByRequestID returns the generation still in processing for
// a provider request id.
func (s *GenerationStore) FindProcessingByRequestID(ctx context.Context, requestID string) (*models.Generation, error) {
	gen, err := scanGeneration(s.db.QueryRowContext(ctx, database.SelectProcessingByRequestID, requestID))
	if err != nil {
		return nil, fmt.Errorf("failed to get generation: %w", err)
	}
	return gen, nil
}

func (s *GenerationStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Generation, error) {
	gen, err := scanGeneration(s.db.QueryRowContext(ctx, database.SelectGenerationByID, id))
	if err != nil {
		return nil, fmt.Errorf("failed to get generation: %w", err)
	}
	return gen, nil
}

// FindModelByRequestID returns metadata.model of the newest generation for a
// request id, whatever its status.
func (s *GenerationStore) FindModelByRequestID(ctx context.Context, requestID string) (string, error) {
	var model string
	err := s.db.QueryRowContext(ctx, database.SelectModelByRequestID, requestID).Scan(&model)
	if errors.Is(err, sql.ErrNoRows) {
		return "", models.ErrGenerationNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to get generation model: %w", err)
	}
	return model, nil
}

func (s *GenerationStore) CompleteGeneration(ctx context.Context, id uuid.UUID, update models.CompletionUpdate) error {
	metadata, err := json.Marshal(update.Metadata)
	if err != nil {
		return fmt.Errorf("failed to encode metadata: %w", err)
	}
	res, err := s.db.ExecContext(ctx, database.CompleteGeneration,
		id, update.OutputFileURL, update.ThumbnailURL, string(metadata), completedAt(update.CompletedAt))
	if err != nil {
		return fmt.Errorf("failed to complete generation: %w", err)
	}
	return requireRow(res)
}

func (s *GenerationStore) FailGeneration(ctx context.Context, id uuid.UUID, update models.FailureUpdate) error {
	metadata, err := json.Marshal(update.Metadata)
	if err != nil {
		return fmt.Errorf("failed to encode metadata: %w", err)
	}
	res, err := s.db.ExecContext(ctx, database.FailGeneration,
		id, update.ErrorMessage, string(metadata), completedAt(update.CompletedAt))
	if err != nil {
		return fmt.Errorf("failed to fail generation: %w", err)
	}
	return requireRow(res)
}

// MergeMetadata adds keys to the metadata bag without touching status.
func (s *GenerationStore) MergeMetadata(ctx context.Context, id uuid.UUID, metadata map[string]interface{}) error {
	raw, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("failed to encode metadata: %w", err)
	}
	res, err := s.db.ExecContext(ctx, database.MergeGenerationMetadata, id, string(raw))
	if err != nil {
		return fmt.Errorf("failed to update metadata: %w", err)
	}
	return requireRow(res)
}

func (s *GenerationStore) ApplyProcessingResult(ctx context.Context, id uuid.UUID, update models.ProcessingUpdate) error {
	metadata, err := json.Marshal(update.Metadata)
	if err != nil {
		return fmt.Errorf("failed to encode metadata: %w", err)
	}
	res, err := s.db.ExecContext(ctx, database.ApplyProcessingResult,
		id, update.OutputFileURL, update.ThumbnailURL, string(metadata))
	if err != nil {
		return fmt.Errorf("failed to apply processing result: %w", err)
	}
	return requireRow(res)
}

func (s *GenerationStore) Close() error {
	return s.db.Close()
}

func scanGeneration(row *sql.Row) (*models.Generation, error) {
	var gen models.Generation
	err := row.Scan(
		&gen.ID, &gen.UserID, &gen.ToolType, &gen.Status, &gen.Metadata,
		&gen.OutputFileURL, &gen.ThumbnailURL, &gen.ErrorMessage, &gen.CompletedAt,
		&gen.CreatedAt, &gen.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrGenerationNotFound
	}
	if err != nil {
		return nil, err
	}
	return &gen, nil
}

// requireRow maps a guarded update that matched nothing to not found.
func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return models.ErrGenerationNotFound
	}
	return nil
}

func completedAt(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t
}
