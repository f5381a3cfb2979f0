package services

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"genmedia-backend/internal/ffmpeg"
	"genmedia-backend/internal/media"
	"genmedia-backend/internal/metrics"
	"genmedia-backend/internal/models"
)

const (
	TaskThumbnail = "thumbnail"
	TaskWatermark = "watermark"

	TierFree = "free"
)

// Thumbnail and watermark parameters sent to the processing service.
const (
	thumbnailTimestamp = 2.0
	thumbnailWidth     = 1280
	thumbnailHeight    = 720

	watermarkPosition = "bottom-center"
	watermarkOpacity  = 0.95
	watermarkScale    = 1.2
)

// ResolveTier is the single place subscription tier is derived. userTier is
// the label recorded in metadata; free decides watermarking. Only a present
// subscription_tier other than free or trial counts as paid.
func ResolveTier(profile *models.Profile) (userTier string, free bool) {
	userTier = TierFree
	free = true
	if profile == nil {
		return userTier, free
	}

	tier := ""
	if profile.SubscriptionTier != nil {
		tier = strings.TrimSpace(*profile.SubscriptionTier)
	}
	status := ""
	if profile.SubscriptionStatus != nil {
		status = strings.TrimSpace(*profile.SubscriptionStatus)
	}

	switch {
	case tier != "":
		userTier = tier
	case status != "":
		userTier = status
	}

	switch strings.ToLower(tier) {
	case "", "free", "trial":
		free = true
	default:
		free = false
	}
	return userTier, free
}

type DispatcherConfig struct {
	Enabled    bool
	WebhookURL string
	Timeout    time.Duration
}

// PostProcessRequest describes a freshly completed generation.
type PostProcessRequest struct {
	Generation     *models.Generation
	OutputURL      string
	FileKind       media.Kind
	KnownThumbnail string
}

type TaskResult struct {
	Task         string
	ProcessingID string
	Err          error
}

func (t TaskResult) OK() bool { return t.Err == nil }

// DispatchResult reports what the dispatcher did. It is informational; the
// dispatcher never fails the caller.
type DispatchResult struct {
	Engaged    bool
	SkipReason string
	UserTier   string
	FreeTier   bool
	Tasks      []TaskResult
}

func (r DispatchResult) Dispatched() int {
	n := 0
	for _, t := range r.Tasks {
		if t.OK() {
			n++
		}
	}
	return n
}

// Dispatcher hands video outputs to the processing service for thumbnail
// extraction and free-tier watermarking.
type Dispatcher struct {
	client   ProcessingClient
	profiles ProfileStore
	store    GenerationStore
	cfg      DispatcherConfig
	logger   *zap.Logger
}

func NewDispatcher(client ProcessingClient, profiles ProfileStore, store GenerationStore, cfg DispatcherConfig, logger *zap.Logger) *Dispatcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &Dispatcher{
		client:   client,
		profiles: profiles,
		store:    store,
		cfg:      cfg,
		logger:   logger.Named("dispatcher"),
	}
}

func (d *Dispatcher) Dispatch(ctx context.Context, req PostProcessRequest) DispatchResult {
	gen := req.Generation
	log := d.logger.With(zap.String("generation_id", gen.ID.String()), zap.String("tool_type", gen.ToolType))

	if !d.cfg.Enabled || d.client == nil {
		return DispatchResult{SkipReason: "disabled"}
	}
	// Image and audio are settled by payload hints first; everything else
	// must look like video by tool name or file extension.
	notVideoByKind := req.FileKind == media.KindImage || req.FileKind == media.KindAudio
	if notVideoByKind || !media.IsVideoOutput(gen.ToolType, req.OutputURL) {
		log.Debug("skipping post-processing for non-video output", zap.String("kind", string(req.FileKind)))
		return DispatchResult{SkipReason: "not_video"}
	}

	profile, err := d.profiles.GetProfile(ctx, gen.UserID)
	if err != nil {
		log.Info("profile lookup failed, treating as free tier", zap.Error(err))
		profile = nil
	}
	userTier, free := ResolveTier(profile)
	result := DispatchResult{Engaged: true, UserTier: userTier, FreeTier: free}

	var calls []func(context.Context) TaskResult
	if !hasThumbnail(gen, req.KnownThumbnail) {
		calls = append(calls, func(ctx context.Context) TaskResult {
			resp, err := d.client.ExtractThumbnail(ctx, ffmpeg.ThumbnailRequest{
				GenerationID: gen.ID.String(),
				VideoURL:     req.OutputURL,
				UserID:       gen.UserID.String(),
				Timestamp:    thumbnailTimestamp,
				Width:        thumbnailWidth,
				Height:       thumbnailHeight,
				WebhookURL:   d.cfg.WebhookURL,
			})
			return taskResult(TaskThumbnail, resp, err)
		})
	}
	if free {
		calls = append(calls, func(ctx context.Context) TaskResult {
			resp, err := d.client.AddWatermark(ctx, ffmpeg.WatermarkRequest{
				GenerationID: gen.ID.String(),
				VideoURL:     req.OutputURL,
				UserID:       gen.UserID.String(),
				Position:     watermarkPosition,
				Opacity:      watermarkOpacity,
				Scale:        watermarkScale,
				WebhookURL:   d.cfg.WebhookURL,
			})
			return taskResult(TaskWatermark, resp, err)
		})
	}

	if len(calls) == 0 {
		log.Info("no post-processing tasks needed")
		return result
	}

	result.Tasks = d.settle(ctx, calls)
	for _, t := range result.Tasks {
		metrics.Dispatched(t.Task, t.OK())
		if !t.OK() {
			log.Error("post-processing dispatch failed", zap.String("task", t.Task), zap.Error(t.Err))
		}
	}

	if err := d.store.MergeMetadata(ctx, gen.ID, map[string]interface{}{
		"ffmpeg_processing_initiated": true,
		"ffmpeg_tasks_count":          len(result.Tasks),
		"ffmpeg_tasks_dispatched":     result.Dispatched(),
		"watermark_required":          free,
		"user_tier":                   userTier,
		"media_type":                  string(media.KindVideo),
	}); err != nil {
		log.Error("failed to record post-processing metadata", zap.Error(err))
	}

	log.Info("post-processing dispatched",
		zap.Int("tasks", len(result.Tasks)),
		zap.Int("dispatched", result.Dispatched()),
		zap.Bool("free_tier", free),
		zap.String("user_tier", userTier),
	)
	return result
}

// settle runs every call to completion under the dispatch timeout and
// collects all results, failures included.
func (d *Dispatcher) settle(ctx context.Context, calls []func(context.Context) TaskResult) []TaskResult {
	ctx, cancel := context.WithTimeout(ctx, d.cfg.Timeout)
	defer cancel()

	results := make([]TaskResult, len(calls))
	var wg sync.WaitGroup
	for i, call := range calls {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = call(ctx)
		}()
	}
	wg.Wait()
	return results
}

func taskResult(task string, resp *ffmpeg.TaskResponse, err error) TaskResult {
	r := TaskResult{Task: task, Err: err}
	if resp != nil {
		r.ProcessingID = resp.ProcessingID
	}
	return r
}

func hasThumbnail(gen *models.Generation, known string) bool {
	if known != "" {
		return true
	}
	meta := gen.MetadataMap()
	for _, key := range []string{"thumbnail_url", "original_thumbnail_url"} {
		if s, ok := meta[key].(string); ok && s != "" {
			return true
		}
	}
	return gen.ThumbnailURL.Valid && gen.ThumbnailURL.String != ""
}
