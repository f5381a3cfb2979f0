package services

import "fmt"

// Webhook error kinds. The handlers map each kind to an HTTP status.
const (
	KindInvalidRequest   = "invalid_request"
	KindSignatureInvalid = "signature_invalid"
	KindRecordNotFound   = "record_not_found"
	KindNoOutputURL      = "no_output_url"
	KindUnexpected       = "unexpected_exception"
)

type WebhookError struct {
	Kind    string
	Message string
	Err     error
}

func (e *WebhookError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *WebhookError) Unwrap() error {
	return e.Err
}

func newWebhookError(kind, message string, err error) *WebhookError {
	return &WebhookError{Kind: kind, Message: message, Err: err}
}
