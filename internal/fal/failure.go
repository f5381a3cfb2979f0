package fal

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

// Provider error types.
const (
	ErrorContentPolicyViolation       = "content_policy_violation"
	ErrorImageTooLarge                = "image_too_large"
	ErrorImageTooSmall                = "image_too_small"
	ErrorImageLoadError               = "image_load_error"
	ErrorInternalServerError          = "internal_server_error"
	ErrorGenerationTimeout            = "generation_timeout"
	ErrorDownstreamServiceError       = "downstream_service_error"
	ErrorDownstreamServiceUnavailable = "downstream_service_unavailable"
	ErrorUnknown                      = "unknown_error"
)

const defaultFailureMessage = "Generation failed"

// ErrorDetail is one entry of a provider "detail" array.
type ErrorDetail struct {
	Loc   []interface{}          `json:"loc,omitempty"`
	Msg   string                 `json:"msg"`
	Type  string                 `json:"type"`
	URL   string                 `json:"url,omitempty"`
	Ctx   map[string]interface{} `json:"ctx,omitempty"`
	Input interface{}            `json:"input,omitempty"`
}

// Failure is the structured interpretation of a provider failure.
type Failure struct {
	ErrorType        string
	UserMessage      string
	RawMessage       string
	ErrorCode        *int
	Retryable        bool
	Details          []ErrorDetail
	DocumentationURL string

	ContentViolation bool
	ServerError      bool
	BadRequest       bool
}

var violationKeywords = []string{
	"policy", "violation", "inappropriate", "nsfw", "unsafe", "prohibited", "not allowed",
}

// ClassifyFailure inspects the known error locations of a failed event and
// maps the first one found onto the error taxonomy.
func ClassifyFailure(ev *Event) Failure {
	f := Failure{RawMessage: defaultFailureMessage}
	var source map[string]interface{}

	for _, candidate := range errorSources(ev) {
		if candidate == nil {
			continue
		}
		switch v := candidate.(type) {
		case string:
			if v == "" {
				continue
			}
			f.RawMessage = v
		case map[string]interface{}:
			source = v
			readErrorObject(v, &f)
		case []interface{}:
			f.Details = decodeDetails(v)
		default:
			continue
		}
		break
	}

	if f.ErrorCode == nil {
		for _, key := range []string{"status_code", "http_status"} {
			if n, ok := intOf(ev.Raw[key]); ok {
				f.ErrorCode = &n
				break
			}
		}
	}

	f.Retryable = retryableFlag(source, ev)

	if len(f.Details) > 0 {
		first := f.Details[0]
		f.ErrorType = first.Type
		if first.Msg != "" {
			f.RawMessage = first.Msg
		}
		f.DocumentationURL = first.URL
	}

	if f.ErrorType == "" && f.ErrorCode != nil {
		f.ErrorType = typeForCode(*f.ErrorCode)
	}
	if f.ErrorType == "" && containsViolationKeyword(f.RawMessage) {
		f.ErrorType = ErrorContentPolicyViolation
	}
	if f.ErrorType == "" {
		f.ErrorType = ErrorUnknown
	}

	switch f.ErrorType {
	case ErrorContentPolicyViolation:
		f.ContentViolation = true
	case ErrorInternalServerError, ErrorGenerationTimeout, ErrorDownstreamServiceUnavailable:
		f.ServerError = true
	case ErrorDownstreamServiceError, ErrorImageTooLarge, ErrorImageTooSmall, ErrorImageLoadError:
		f.BadRequest = true
	}

	var ctx map[string]interface{}
	if len(f.Details) > 0 {
		ctx = f.Details[0].Ctx
	}
	f.UserMessage = userMessage(f.ErrorType, f.RawMessage, ctx)
	return f
}

func errorSources(ev *Event) []interface{} {
	var sources []interface{}
	sources = append(sources, ev.Raw["error"])
	if ev.Payload != nil {
		sources = append(sources, ev.Payload["error"])
		if ev.Payload["detail"] != nil {
			sources = append(sources, ev.Payload)
		}
	}
	sources = append(sources,
		objectAt(ev.Raw, "response")["error"],
		objectAt(ev.Raw, "data")["error"],
	)
	if d := ev.Raw["detail"]; d != nil {
		sources = append(sources, map[string]interface{}{"detail": d})
	}
	return sources
}

func readErrorObject(src map[string]interface{}, f *Failure) {
	switch d := src["detail"].(type) {
	case []interface{}:
		f.Details = decodeDetails(d)
	case string:
		if d != "" {
			f.RawMessage = d
		}
	case map[string]interface{}:
		f.Details = decodeDetails([]interface{}{d})
	}

	if msg := stringAt(src, "message"); msg != "" {
		f.RawMessage = msg
	} else if msg := stringAt(src, "error"); msg != "" {
		f.RawMessage = msg
	}

	for _, key := range []string{"status_code", "code", "status"} {
		if n, ok := intOf(src[key]); ok {
			f.ErrorCode = &n
			break
		}
	}
}

func decodeDetails(items []interface{}) []ErrorDetail {
	raw, err := json.Marshal(items)
	if err != nil {
		return nil
	}
	var details []ErrorDetail
	if err := json.Unmarshal(raw, &details); err != nil {
		return nil
	}
	out := details[:0]
	for _, d := range details {
		if d.Type != "" || d.Msg != "" {
			out = append(out, d)
		}
	}
	return out
}

func retryableFlag(source map[string]interface{}, ev *Event) bool {
	for _, m := range []map[string]interface{}{source, ev.Payload, ev.Raw} {
		if m == nil {
			continue
		}
		if b, ok := m["retryable"].(bool); ok {
			return b
		}
	}
	return false
}

func typeForCode(code int) string {
	switch code {
	case 422:
		return ErrorContentPolicyViolation
	case 500:
		return ErrorInternalServerError
	case 504:
		return ErrorGenerationTimeout
	case 400:
		return ErrorDownstreamServiceError
	}
	return ""
}

func containsViolationKeyword(msg string) bool {
	lower := strings.ToLower(msg)
	for _, k := range violationKeywords {
		if strings.Contains(lower, k) {
			return true
		}
	}
	return false
}

func userMessage(errorType, raw string, ctx map[string]interface{}) string {
	switch errorType {
	case ErrorContentPolicyViolation:
		return "Content Policy Violation: Your input was flagged by our content safety system. Please ensure your prompts and images comply with our content policy."
	case ErrorImageTooLarge:
		if dims := dimensions(ctx, "max_width", "max_height"); dims != "" {
			return fmt.Sprintf("Image Too Large: The input image exceeds the maximum allowed size of %s pixels. Please resize it and try again.", dims)
		}
		return "Image Too Large: The input image exceeds the maximum allowed size. Please resize it and try again."
	case ErrorImageTooSmall:
		if dims := dimensions(ctx, "min_width", "min_height"); dims != "" {
			return fmt.Sprintf("Image Too Small: The input image must be at least %s pixels. Please use a larger image.", dims)
		}
		return "Image Too Small: The input image is below the minimum allowed size. Please use a larger image."
	case ErrorImageLoadError:
		return "Image Load Error: The input image could not be loaded. Please check that the file is a valid, accessible image."
	case ErrorInternalServerError:
		return "Server Error: The AI service is temporarily experiencing issues. Please try again in a few minutes."
	case ErrorGenerationTimeout:
		return "Generation Timeout: The generation took too long to complete. Please try again."
	case ErrorDownstreamServiceError:
		return "Invalid Request: There was an issue with your input. Please check your image and prompt, then try again."
	case ErrorDownstreamServiceUnavailable:
		return "Service Unavailable: The AI model is temporarily unavailable. Please try again later."
	}
	if raw == "" {
		return defaultFailureMessage
	}
	return raw
}

func dimensions(ctx map[string]interface{}, wKey, hKey string) string {
	if ctx == nil {
		return ""
	}
	w, okW := number(ctx[wKey])
	h, okH := number(ctx[hKey])
	if !okW || !okH {
		return ""
	}
	return w + "x" + h
}

func number(v interface{}) (string, bool) {
	switch t := v.(type) {
	case float64:
		if t == math.Trunc(t) {
			return fmt.Sprintf("%d", int64(t)), true
		}
		return fmt.Sprintf("%g", t), true
	case string:
		if t != "" {
			return t, true
		}
	}
	return "", false
}
