package fal

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Event is a decoded provider webhook body. The payload shape differs per
// tool family so it is kept as a generic map.
type Event struct {
	RequestID        string
	GatewayRequestID string
	Status           string
	Payload          map[string]interface{}
	Raw              map[string]interface{}
}

func ParseEvent(body []byte) (*Event, error) {
	var raw map[string]interface{}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse event: %w", err)
	}
	if raw == nil {
		return nil, fmt.Errorf("failed to parse event: empty body")
	}

	return &Event{
		RequestID:        stringAt(raw, "request_id"),
		GatewayRequestID: stringAt(raw, "gateway_request_id"),
		Status:           stringAt(raw, "status"),
		Payload:          objectAt(raw, "payload"),
		Raw:              raw,
	}, nil
}

// PeekRequestID extracts the correlation id without full validation. It is
// used before the signature has been checked.
func PeekRequestID(body []byte) string {
	var ids struct {
		RequestID        string `json:"request_id"`
		GatewayRequestID string `json:"gateway_request_id"`
	}
	if err := json.Unmarshal(body, &ids); err != nil {
		return ""
	}
	if ids.RequestID != "" {
		return ids.RequestID
	}
	return ids.GatewayRequestID
}

// CorrelationID is request_id, or gateway_request_id when request_id is absent.
func (e *Event) CorrelationID() string {
	if e.RequestID != "" {
		return e.RequestID
	}
	return e.GatewayRequestID
}

func (e *Event) IsSuccess() bool {
	switch strings.ToUpper(e.Status) {
	case "OK", "COMPLETED", "SUCCESS":
		return true
	}
	return false
}

func (e *Event) IsFailure() bool {
	switch strings.ToUpper(e.Status) {
	case "FAILED", "ERROR", "CANCELLED":
		return true
	}
	return false
}

func objectAt(m map[string]interface{}, key string) map[string]interface{} {
	if m == nil {
		return nil
	}
	obj, _ := m[key].(map[string]interface{})
	return obj
}

func stringAt(m map[string]interface{}, key string) string {
	if m == nil {
		return ""
	}
	s, _ := m[key].(string)
	return s
}

// urlOf accepts either a bare URL string or an object with a "url" member.
func urlOf(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case map[string]interface{}:
		return stringAt(t, "url")
	}
	return ""
}

// nestedURL follows path through nested objects and returns the url found
// at the end of it.
func nestedURL(m map[string]interface{}, path ...string) string {
	cur := m
	for _, key := range path[:len(path)-1] {
		cur = objectAt(cur, key)
		if cur == nil {
			return ""
		}
	}
	return urlOf(cur[path[len(path)-1]])
}

// intOf accepts JSON numbers and numeric strings.
func intOf(v interface{}) (int, bool) {
	switch t := v.(type) {
	case float64:
		return int(t), true
	case int:
		return t, true
	case json.Number:
		n, err := t.Int64()
		return int(n), err == nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(t))
		return n, err == nil
	}
	return 0, false
}
