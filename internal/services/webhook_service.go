package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"

	"genmedia-backend/internal/dedup"
	"genmedia-backend/internal/events"
	"genmedia-backend/internal/fal"
	"genmedia-backend/internal/media"
	"genmedia-backend/internal/metrics"
	"genmedia-backend/internal/models"
)

// Webhook outcomes that end in a 200 response.
const (
	OutcomeCompleted        = "completed"
	OutcomeFailureProcessed = "failure_processed"
	OutcomeDuplicate        = "duplicate"
	OutcomeStatusUpdate     = "status_update"
)

const (
	msgNotAWebhook      = "Not a valid webhook"
	msgInvalidSignature = "Invalid signature"
	msgInvalidJSON      = "Invalid JSON body"
	msgMissingRequestID = "Missing request_id"
	msgNotFound         = "Generation not found or already processed"
	msgNoOutputURL      = "No output URL in webhook"
)

type WebhookResult struct {
	Outcome      string
	Message      string
	GenerationID string
	Status       string
	OutputURL    string
	ErrorType    string
	ErrorCode    *int
	Dispatch     DispatchResult
}

// WebhookService runs a provider delivery through verification, dedup,
// record lookup and the completion or failure transition.
type WebhookService struct {
	verifier     SignatureVerifier
	dedup        dedup.Deduplicator
	store        GenerationStore
	materializer *Materializer
	dispatcher   *Dispatcher
	publisher    events.Publisher
	logger       *zap.Logger
	now          func() time.Time
}

func NewWebhookService(
	verifier SignatureVerifier,
	deduplicator dedup.Deduplicator,
	store GenerationStore,
	materializer *Materializer,
	dispatcher *Dispatcher,
	publisher events.Publisher,
	logger *zap.Logger,
) *WebhookService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &WebhookService{
		verifier:     verifier,
		dedup:        deduplicator,
		store:        store,
		materializer: materializer,
		dispatcher:   dispatcher,
		publisher:    publisher,
		logger:       logger.Named("webhook"),
		now:          time.Now,
	}
}

// WithClock replaces the time source; used in tests.
func (s *WebhookService) WithClock(now func() time.Time) *WebhookService {
	s.now = now
	return s
}

func (s *WebhookService) Handle(ctx context.Context, headers fal.WebhookHeaders, body []byte) (result *WebhookResult, err error) {
	start := s.now()
	defer func() {
		outcome := "error"
		if result != nil {
			outcome = result.Outcome
		}
		var werr *WebhookError
		if errors.As(err, &werr) {
			outcome = werr.Kind
		}
		metrics.WebhookHandled(outcome, s.now().Sub(start))
	}()

	if !headers.Complete() {
		return nil, newWebhookError(KindInvalidRequest, msgNotAWebhook, nil)
	}

	if err := s.verify(ctx, headers, body); err != nil {
		return nil, err
	}

	ev, err := fal.ParseEvent(body)
	if err != nil {
		return nil, newWebhookError(KindInvalidRequest, msgInvalidJSON, err)
	}
	jobID := ev.CorrelationID()
	if jobID == "" {
		return nil, newWebhookError(KindInvalidRequest, msgMissingRequestID, nil)
	}
	log := s.logger.With(zap.String("request_id", jobID), zap.String("status", ev.Status))

	first, err := s.dedup.ShouldProcess(ctx, jobID, ev.Status)
	if err != nil {
		log.Warn("dedup check failed, processing delivery", zap.Error(err))
		first = true
	}
	if !first {
		log.Info("duplicate webhook ignored")
		return &WebhookResult{Outcome: OutcomeDuplicate, Message: "Duplicate webhook ignored", Status: ev.Status}, nil
	}

	// A provider retry must not be suppressed when this attempt failed
	// before anything durable happened.
	defer func() {
		var werr *WebhookError
		if errors.As(err, &werr) && werr.Kind == KindUnexpected {
			if rerr := s.dedup.Release(context.WithoutCancel(ctx), jobID, ev.Status); rerr != nil {
				log.Warn("failed to release dedup entry", zap.Error(rerr))
			}
		}
	}()

	gen, err := s.store.FindProcessingByRequestID(ctx, jobID)
	if err != nil {
		return nil, s.storeError(log, err, "failed to look up generation")
	}
	log = log.With(zap.String("generation_id", gen.ID.String()), zap.String("tool_type", gen.ToolType))

	switch {
	case ev.IsSuccess():
		return s.complete(ctx, log, ev, gen)
	case ev.IsFailure():
		return s.fail(ctx, log, ev, gen)
	default:
		return s.statusUpdate(ctx, log, ev, gen)
	}
}

func (s *WebhookService) verify(ctx context.Context, headers fal.WebhookHeaders, body []byte) error {
	if requestID := fal.PeekRequestID(body); requestID != "" {
		model, err := s.store.FindModelByRequestID(ctx, requestID)
		if err == nil && fal.SignatureExempt(model) {
			metrics.SignatureChecked("bypassed")
			s.logger.Warn("signature verification bypassed for exempt model",
				zap.String("request_id", requestID),
				zap.String("model", model),
			)
			return nil
		}
	}

	if err := s.verifier.Verify(ctx, headers, body); err != nil {
		metrics.SignatureChecked("invalid")
		s.logger.Warn("webhook signature rejected",
			zap.String("fal_request_id", headers.RequestID),
			zap.Error(err),
		)
		return newWebhookError(KindSignatureInvalid, msgInvalidSignature, err)
	}
	metrics.SignatureChecked("valid")
	return nil
}

func (s *WebhookService) complete(ctx context.Context, log *zap.Logger, ev *fal.Event, gen *models.Generation) (*WebhookResult, error) {
	out := fal.ExtractOutput(ev.Payload)
	if out == nil {
		log.Warn("no output URL in webhook")
		err := s.store.FailGeneration(ctx, gen.ID, models.FailureUpdate{
			ErrorMessage: msgNoOutputURL,
			Metadata: map[string]interface{}{
				"webhook_received": true,
				"webhook_status":   ev.Status,
			},
			CompletedAt: s.now().UTC(),
		})
		if err != nil {
			return nil, s.storeError(log, err, "failed to mark generation failed")
		}
		return nil, newWebhookError(KindNoOutputURL, msgNoOutputURL, nil)
	}

	folder := OutputFolder(gen.ToolType, gen.MetadataString("tool_type"))
	outputFormat := gen.MetadataString("output_format")
	ts := s.now().UnixMilli()

	var fileType media.FileType
	var files []MaterializedFile
	if out.Multi() {
		fileType = media.ImageFileType(outputFormat)
		artifacts := make([]Artifact, len(out.URLs))
		for i, u := range out.URLs {
			artifacts[i] = Artifact{
				Kind:        ArtifactOutput,
				SourceURL:   u,
				Path:        IndexedOutputPath(gen.UserID, folder, ts, i, fileType.Ext),
				ContentType: fileType.ContentType,
			}
		}
		files = s.materializer.MaterializeAll(ctx, artifacts)
	} else {
		fileType = media.InferFileType(gen.ToolType, media.Hints{
			Video:            out.HasVideo,
			Image:            out.HasImage,
			Audio:            out.HasAudio,
			VideoContentType: out.VideoContentType,
			AudioContentType: out.AudioContentType,
		}, outputFormat)
		files = []MaterializedFile{s.materializer.Materialize(ctx, Artifact{
			Kind:        ArtifactOutput,
			SourceURL:   out.Primary(),
			Path:        OutputPath(gen.UserID, folder, ts, fileType.Ext),
			ContentType: fileType.ContentType,
		})}
	}

	finalURLs := make([]string, len(files))
	for i, f := range files {
		finalURLs[i] = f.URL
	}
	primary := files[0]

	outputFileURL := primary.URL
	if len(finalURLs) > 1 {
		raw, err := json.Marshal(finalURLs)
		if err != nil {
			return nil, newWebhookError(KindUnexpected, "failed to encode output urls", err)
		}
		outputFileURL = string(raw)
	}

	var thumbnailURL string
	if out.ThumbnailURL != "" {
		thumb := s.materializer.Materialize(ctx, Artifact{
			Kind:        ArtifactThumbnail,
			SourceURL:   out.ThumbnailURL,
			Path:        ThumbnailPath(gen.UserID, folder, ts),
			ContentType: "image/jpeg",
		})
		thumbnailURL = thumb.URL
	}

	metadata := map[string]interface{}{
		"webhook_received":      true,
		"completed_via_webhook": true,
		"content_type":          fileType.ContentType,
		"original_fal_url":      out.Primary(),
		"permanent_storage_url": nil,
	}
	if primary.Stored {
		metadata["permanent_storage_url"] = primary.URL
	}
	if out.FileSize != nil {
		metadata["file_size"] = out.FileSize
	}
	if out.Seed != nil {
		metadata["seed"] = out.Seed
	}
	if len(finalURLs) > 1 {
		metadata["all_urls"] = finalURLs
	}
	if thumbnailURL != "" {
		metadata["thumbnail_url"] = thumbnailURL
		metadata["original_thumbnail_url"] = out.ThumbnailURL
	}

	err := s.store.CompleteGeneration(ctx, gen.ID, models.CompletionUpdate{
		OutputFileURL: outputFileURL,
		ThumbnailURL:  thumbnailURL,
		Metadata:      metadata,
		CompletedAt:   s.now().UTC(),
	})
	if err != nil {
		return nil, s.storeError(log, err, "failed to complete generation")
	}
	log.Info("generation completed",
		zap.String("output_url", primary.URL),
		zap.Bool("stored", primary.Stored),
		zap.Int("outputs", len(files)),
	)

	s.publish(ctx, log, events.Completed(gen, primary.URL, thumbnailURL))

	var dispatch DispatchResult
	if s.dispatcher != nil {
		dispatch = s.dispatcher.Dispatch(ctx, PostProcessRequest{
			Generation:     gen,
			OutputURL:      primary.URL,
			FileKind:       fileType.Kind,
			KnownThumbnail: thumbnailURL,
		})
	}

	return &WebhookResult{
		Outcome:      OutcomeCompleted,
		Message:      "Generation completed",
		GenerationID: gen.ID.String(),
		Status:       models.StatusCompleted,
		OutputURL:    outputFileURL,
		Dispatch:     dispatch,
	}, nil
}

func (s *WebhookService) fail(ctx context.Context, log *zap.Logger, ev *fal.Event, gen *models.Generation) (*WebhookResult, error) {
	f := fal.ClassifyFailure(ev)
	now := s.now().UTC()

	var errorCode interface{}
	if f.ErrorCode != nil {
		errorCode = *f.ErrorCode
	}
	var docURL interface{}
	if f.DocumentationURL != "" {
		docURL = f.DocumentationURL
	}

	metadata := map[string]interface{}{
		"webhook_received": true,
		"webhook_status":   ev.Status,
		"webhook_error":    ev.Raw["error"],
		"error_analysis": map[string]interface{}{
			"error_code":        errorCode,
			"error_type":        f.ErrorType,
			"content_violation": f.ContentViolation,
			"server_error":      f.ServerError,
			"bad_request":       f.BadRequest,
			"retryable":         f.Retryable,
			"raw_error":         f.RawMessage,
			"error_details":     f.Details,
			"documentation_url": docURL,
			"full_event":        ev.Raw,
			"analyzed_at":       now.Format(time.RFC3339),
		},
	}

	err := s.store.FailGeneration(ctx, gen.ID, models.FailureUpdate{
		ErrorMessage: f.UserMessage,
		Metadata:     metadata,
		CompletedAt:  now,
	})
	if err != nil {
		return nil, s.storeError(log, err, "failed to mark generation failed")
	}
	log.Info("generation failure recorded",
		zap.String("error_type", f.ErrorType),
		zap.Bool("retryable", f.Retryable),
	)

	s.publish(ctx, log, events.Failed(gen, f.ErrorType, f.UserMessage))

	return &WebhookResult{
		Outcome:      OutcomeFailureProcessed,
		Message:      "Failure processed",
		GenerationID: gen.ID.String(),
		Status:       models.StatusFailed,
		ErrorType:    f.ErrorType,
		ErrorCode:    f.ErrorCode,
	}, nil
}

// statusUpdate records a non-terminal provider status. The status column is
// left alone so the terminal delivery still finds the record.
func (s *WebhookService) statusUpdate(ctx context.Context, log *zap.Logger, ev *fal.Event, gen *models.Generation) (*WebhookResult, error) {
	err := s.store.MergeMetadata(ctx, gen.ID, map[string]interface{}{
		"last_webhook_status": ev.Status,
		"last_webhook_update": s.now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return nil, s.storeError(log, err, "failed to record status")
	}
	log.Info("intermediate status recorded")

	return &WebhookResult{
		Outcome:      OutcomeStatusUpdate,
		Message:      "Status updated",
		GenerationID: gen.ID.String(),
		Status:       ev.Status,
	}, nil
}

func (s *WebhookService) publish(ctx context.Context, log *zap.Logger, ev events.GenerationEvent) {
	if err := s.publisher.Publish(ctx, ev); err != nil {
		log.Warn("failed to publish generation event", zap.String("type", ev.Type), zap.Error(err))
	}
}

func (s *WebhookService) storeError(log *zap.Logger, err error, message string) error {
	if errors.Is(err, models.ErrGenerationNotFound) {
		log.Info("no processing generation for webhook")
		return newWebhookError(KindRecordNotFound, msgNotFound, err)
	}
	log.Error(message, zap.Error(err))
	return newWebhookError(KindUnexpected, message, err)
}
