package ffmpeg

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	ExtractThumbnailPath = "/api/v1/extract-thumbnail"
	AddWatermarkPath     = "/api/v1/add-watermark"
)

// Client talks to the media processing service. Results are delivered
// asynchronously to the webhook_url given in each request.
type Client struct {
	baseURL       string
	apiKey        string
	edgeEndpoints bool
	httpClient    *http.Client
}

// ThumbnailRequest is the body of an extract-thumbnail call.
type ThumbnailRequest struct {
	GenerationID string  `json:"generation_id"`
	VideoURL     string  `json:"video_url"`
	UserID       string  `json:"user_id"`
	Timestamp    float64 `json:"timestamp"`
	Width        int     `json:"width"`
	Height       int     `json:"height"`
	WebhookURL   string  `json:"webhook_url"`
}

// WatermarkRequest is the body of an add-watermark call.
type WatermarkRequest struct {
	GenerationID string  `json:"generation_id"`
	VideoURL     string  `json:"video_url"`
	UserID       string  `json:"user_id"`
	Position     string  `json:"position"`
	Opacity      float64 `json:"opacity"`
	Scale        float64 `json:"scale"`
	WebhookURL   string  `json:"webhook_url"`
}

// TaskResponse acknowledges a queued processing task.
type TaskResponse struct {
	ProcessingID string `json:"processing_id,omitempty"`
	Status       string `json:"status,omitempty"`
	Message      string `json:"message,omitempty"`
}

// NewClient builds a client. With edgeEndpoints set the /api/v1 prefix is
// dropped, matching the edge function deployment of the service.
func NewClient(baseURL, apiKey string, edgeEndpoints bool) *Client {
	return &Client{
		baseURL:       strings.TrimSuffix(baseURL, "/"),
		apiKey:        apiKey,
		edgeEndpoints: edgeEndpoints,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Endpoint resolves a service path against the base URL.
func (c *Client) Endpoint(path string) string {
	if c.edgeEndpoints {
		path = strings.Replace(path, "/api/v1/", "/", 1)
	}
	return c.baseURL + path
}

// ExtractThumbnail queues a thumbnail extraction.
func (c *Client) ExtractThumbnail(ctx context.Context, in ThumbnailRequest) (*TaskResponse, error) {
	return c.post(ctx, ExtractThumbnailPath, in)
}

// AddWatermark queues a watermark render.
func (c *Client) AddWatermark(ctx context.Context, in WatermarkRequest) (*TaskResponse, error) {
	return c.post(ctx, AddWatermarkPath, in)
}

func (c *Client) post(ctx context.Context, path string, payload interface{}) (*TaskResponse, error) {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint(path), bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("processing service error: status %d, body: %s", resp.StatusCode, string(body))
	}

	var result TaskResponse
	if len(bytes.TrimSpace(body)) == 0 {
		return &result, nil
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w, body: %s", err, string(body))
	}

	return &result, nil
}
