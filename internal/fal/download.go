package fal

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// maxArtifactSize bounds a single downloaded artifact.
const maxArtifactSize = 1 << 30

// Downloader fetches provider-hosted artifacts.
type Downloader struct {
	httpClient *http.Client
}

func NewDownloader(timeout time.Duration) *Downloader {
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &Downloader{
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (d *Downloader) Download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download file: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxArtifactSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if len(data) > maxArtifactSize {
		return nil, fmt.Errorf("failed to download file: larger than %d bytes", maxArtifactSize)
	}

	return data, nil
}
