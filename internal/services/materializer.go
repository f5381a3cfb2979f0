package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"genmedia-backend/internal/metrics"
)

const (
	ArtifactOutput    = "output"
	ArtifactThumbnail = "thumbnail"
)

// Artifact is one provider-hosted file to copy into permanent storage.
type Artifact struct {
	Kind        string
	SourceURL   string
	Path        string
	ContentType string
}

// MaterializedFile is the outcome for one artifact. When Stored is false,
// URL is the original provider URL and Err says why.
type MaterializedFile struct {
	SourceURL string
	URL       string
	Path      string
	Stored    bool
	Size      int
	Err       error
}

// Materializer copies ephemeral provider files to permanent storage. It never
// fails; a file that cannot be copied keeps its original URL.
type Materializer struct {
	downloader  Downloader
	uploader    Uploader
	concurrency int
	logger      *zap.Logger
}

func NewMaterializer(downloader Downloader, uploader Uploader, concurrency int, logger *zap.Logger) *Materializer {
	if concurrency <= 0 {
		concurrency = 4
	}
	return &Materializer{
		downloader:  downloader,
		uploader:    uploader,
		concurrency: concurrency,
		logger:      logger.Named("materializer"),
	}
}

func (m *Materializer) Materialize(ctx context.Context, a Artifact) MaterializedFile {
	file := MaterializedFile{SourceURL: a.SourceURL, URL: a.SourceURL, Path: a.Path}

	data, err := m.downloader.Download(ctx, a.SourceURL)
	if err == nil {
		file.Size = len(data)
		var url string
		url, err = m.uploader.Upload(ctx, a.Path, data, a.ContentType)
		if err == nil {
			file.URL = url
			file.Stored = true
		}
	}

	metrics.Materialized(a.Kind, file.Stored)
	if err != nil {
		file.Err = err
		m.logger.Warn("storage failed, using original URL",
			zap.String("artifact", a.Kind),
			zap.String("source_url", a.SourceURL),
			zap.String("path", a.Path),
			zap.Error(err),
		)
	}
	return file
}

// MaterializeAll copies artifacts concurrently. Results keep input order.
func (m *Materializer) MaterializeAll(ctx context.Context, artifacts []Artifact) []MaterializedFile {
	files := make([]MaterializedFile, len(artifacts))

	var g errgroup.Group
	g.SetLimit(m.concurrency)
	for i, a := range artifacts {
		g.Go(func() error {
			files[i] = m.Materialize(ctx, a)
			return nil
		})
	}
	_ = g.Wait()

	return files
}

// OutputFolder is the storage folder for a generation's files.
func OutputFolder(toolType, metadataToolType string) string {
	switch {
	case toolType != "":
		return toolType
	case metadataToolType != "":
		return metadataToolType
	}
	return "fal-generation"
}

func OutputPath(userID uuid.UUID, folder string, ts int64, ext string) string {
	return fmt.Sprintf("%s/%s/%d.%s", userID, folder, ts, ext)
}

func IndexedOutputPath(userID uuid.UUID, folder string, ts int64, index int, ext string) string {
	return fmt.Sprintf("%s/%s/%d_%d.%s", userID, folder, ts, index, ext)
}

func ThumbnailPath(userID uuid.UUID, folder string, ts int64) string {
	return fmt.Sprintf("%s/%s/%d_thumbnail.jpg", userID, folder, ts)
}
