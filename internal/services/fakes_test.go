package services_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"sync"

	"github.com/google/uuid"

	"genmedia-backend/internal/events"
	"genmedia-backend/internal/fal"
	"genmedia-backend/internal/ffmpeg"
	"genmedia-backend/internal/models"
)

type fakeStore struct {
	mu        sync.Mutex
	byRequest map[string]uuid.UUID
	models    map[string]string
	gens      map[uuid.UUID]*models.Generation
	findErr   error

	completions []models.CompletionUpdate
	failures    []models.FailureUpdate
	merges      []map[string]interface{}
	processing  []models.ProcessingUpdate
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		byRequest: map[string]uuid.UUID{},
		models:    map[string]string{},
		gens:      map[uuid.UUID]*models.Generation{},
	}
}

func (s *fakeStore) add(requestID, toolType string, metadata map[string]interface{}) *models.Generation {
	raw, _ := json.Marshal(metadata)
	gen := &models.Generation{
		ID:       uuid.New(),
		UserID:   uuid.New(),
		ToolType: toolType,
		Status:   models.StatusProcessing,
		Metadata: raw,
	}
	s.byRequest[requestID] = gen.ID
	s.gens[gen.ID] = gen
	if model, ok := metadata["model"].(string); ok {
		s.models[requestID] = model
	}
	return gen
}

func (s *fakeStore) FindProcessingByRequestID(_ context.Context, requestID string) (*models.Generation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.findErr != nil {
		return nil, s.findErr
	}
	id, ok := s.byRequest[requestID]
	if !ok || s.gens[id].Status != models.StatusProcessing {
		return nil, models.ErrGenerationNotFound
	}
	cp := *s.gens[id]
	return &cp, nil
}

func (s *fakeStore) FindModelByRequestID(_ context.Context, requestID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	model, ok := s.models[requestID]
	if !ok {
		return "", models.ErrGenerationNotFound
	}
	return model, nil
}

func (s *fakeStore) GetByID(_ context.Context, id uuid.UUID) (*models.Generation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	gen, ok := s.gens[id]
	if !ok {
		return nil, models.ErrGenerationNotFound
	}
	cp := *gen
	return &cp, nil
}

func (s *fakeStore) CompleteGeneration(_ context.Context, id uuid.UUID, u models.CompletionUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	gen, ok := s.gens[id]
	if !ok || gen.Status != models.StatusProcessing {
		return models.ErrGenerationNotFound
	}
	gen.Status = models.StatusCompleted
	gen.OutputFileURL = sql.NullString{String: u.OutputFileURL, Valid: true}
	if u.ThumbnailURL != "" {
		gen.ThumbnailURL = sql.NullString{String: u.ThumbnailURL, Valid: true}
	}
	s.completions = append(s.completions, u)
	return nil
}

func (s *fakeStore) FailGeneration(_ context.Context, id uuid.UUID, u models.FailureUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	gen, ok := s.gens[id]
	if !ok || gen.Status != models.StatusProcessing {
		return models.ErrGenerationNotFound
	}
	gen.Status = models.StatusFailed
	gen.ErrorMessage = sql.NullString{String: u.ErrorMessage, Valid: true}
	s.failures = append(s.failures, u)
	return nil
}

func (s *fakeStore) MergeMetadata(_ context.Context, id uuid.UUID, metadata map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.gens[id]; !ok {
		return models.ErrGenerationNotFound
	}
	s.merges = append(s.merges, metadata)
	return nil
}

func (s *fakeStore) ApplyProcessingResult(_ context.Context, id uuid.UUID, u models.ProcessingUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	gen, ok := s.gens[id]
	if !ok {
		return models.ErrGenerationNotFound
	}
	if u.OutputFileURL != "" {
		gen.OutputFileURL = sql.NullString{String: u.OutputFileURL, Valid: true}
	}
	if u.ThumbnailURL != "" {
		gen.ThumbnailURL = sql.NullString{String: u.ThumbnailURL, Valid: true}
	}
	s.processing = append(s.processing, u)
	return nil
}

type fakeProfiles struct {
	profiles map[uuid.UUID]*models.Profile
	err      error
}

func (p *fakeProfiles) GetProfile(_ context.Context, id uuid.UUID) (*models.Profile, error) {
	if p.err != nil {
		return nil, p.err
	}
	profile, ok := p.profiles[id]
	if !ok {
		return nil, errors.New("profile not found")
	}
	return profile, nil
}

type fakeDownloader struct {
	files map[string][]byte
}

func (d *fakeDownloader) Download(_ context.Context, url string) ([]byte, error) {
	data, ok := d.files[url]
	if !ok {
		return nil, errors.New("download failed with status: 404")
	}
	return data, nil
}

type fakeUploader struct {
	mu      sync.Mutex
	err     error
	uploads map[string]string
}

func (u *fakeUploader) Upload(_ context.Context, path string, _ []byte, contentType string) (string, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.err != nil {
		return "", u.err
	}
	if u.uploads == nil {
		u.uploads = map[string]string{}
	}
	u.uploads[path] = contentType
	return "https://storage.test/" + path, nil
}

type fakeVerifier struct {
	err   error
	calls int
}

func (v *fakeVerifier) Verify(context.Context, fal.WebhookHeaders, []byte) error {
	v.calls++
	return v.err
}

type fakeProcessingClient struct {
	mu           sync.Mutex
	thumbnails   []ffmpeg.ThumbnailRequest
	watermarks   []ffmpeg.WatermarkRequest
	thumbnailErr error
	watermarkErr error
}

func (c *fakeProcessingClient) ExtractThumbnail(_ context.Context, in ffmpeg.ThumbnailRequest) (*ffmpeg.TaskResponse, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.thumbnails = append(c.thumbnails, in)
	if c.thumbnailErr != nil {
		return nil, c.thumbnailErr
	}
	return &ffmpeg.TaskResponse{ProcessingID: "thumb-1", Status: "queued"}, nil
}

func (c *fakeProcessingClient) AddWatermark(_ context.Context, in ffmpeg.WatermarkRequest) (*ffmpeg.TaskResponse, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.watermarks = append(c.watermarks, in)
	if c.watermarkErr != nil {
		return nil, c.watermarkErr
	}
	return &ffmpeg.TaskResponse{ProcessingID: "wm-1", Status: "queued"}, nil
}

type fakePublisher struct {
	mu     sync.Mutex
	events []events.GenerationEvent
}

func (p *fakePublisher) Publish(_ context.Context, ev events.GenerationEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *fakePublisher) Close() error { return nil }

func strPtr(s string) *string { return &s }
