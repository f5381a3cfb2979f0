package models

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

type HealthResponse struct {
	Status string `json:"status"`
}

// WebhookResponse is returned for every webhook outcome the pipeline
// recognizes, duplicates and intermediate statuses included.
type WebhookResponse struct {
	Success      bool   `json:"success"`
	Message      string `json:"message"`
	GenerationID string `json:"generation_id,omitempty"`
	Status       string `json:"status,omitempty"`
	ErrorType    string `json:"error_type,omitempty"`
	ErrorCode    *int   `json:"error_code,omitempty"`
}

type ProcessingWebhookResponse struct {
	Success        bool            `json:"success"`
	GenerationID   string          `json:"generation_id"`
	ProcessingID   string          `json:"processing_id,omitempty"`
	ProcessingType string          `json:"processing_type"`
	Status         string          `json:"status"`
	Message        string          `json:"message"`
	URLsReceived   map[string]bool `json:"urls_received"`
}
