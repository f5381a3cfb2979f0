package fal

import (
	"context"
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	HeaderRequestID = "X-Fal-Webhook-Request-Id"
	HeaderUserID    = "X-Fal-Webhook-User-Id"
	HeaderTimestamp = "X-Fal-Webhook-Timestamp"
	HeaderSignature = "X-Fal-Webhook-Signature"
)

var ErrSignatureInvalid = errors.New("invalid webhook signature")

// WebhookHeaders are the four provider headers that accompany every delivery.
type WebhookHeaders struct {
	RequestID string
	UserID    string
	Timestamp string
	Signature string
}

func HeadersFrom(h http.Header) WebhookHeaders {
	return WebhookHeaders{
		RequestID: h.Get(HeaderRequestID),
		UserID:    h.Get(HeaderUserID),
		Timestamp: h.Get(HeaderTimestamp),
		Signature: h.Get(HeaderSignature),
	}
}

// Complete reports whether all four headers are present.
func (h WebhookHeaders) Complete() bool {
	return h.RequestID != "" && h.UserID != "" && h.Timestamp != "" && h.Signature != ""
}

// Verifier checks provider signatures: Ed25519 over
// "requestId\nuserId\ntimestamp\nhex(sha256(body))".
type Verifier struct {
	keys      KeySource
	tolerance time.Duration
	now       func() time.Time
}

func NewVerifier(keys KeySource, tolerance time.Duration) *Verifier {
	if tolerance <= 0 {
		tolerance = 300 * time.Second
	}
	return &Verifier{
		keys:      keys,
		tolerance: tolerance,
		now:       time.Now,
	}
}

// WithClock replaces the time source; used in tests.
func (v *Verifier) WithClock(now func() time.Time) *Verifier {
	v.now = now
	return v
}

// Verify fails closed: every parse, decode or key fetch problem is reported
// as ErrSignatureInvalid.
func (v *Verifier) Verify(ctx context.Context, h WebhookHeaders, body []byte) error {
	if !h.Complete() {
		return ErrSignatureInvalid
	}

	ts, err := strconv.ParseInt(strings.TrimSpace(h.Timestamp), 10, 64)
	if err != nil {
		return ErrSignatureInvalid
	}
	// Bounds are compared in whole seconds so extreme timestamps cannot
	// overflow the drift arithmetic.
	now, tol := v.now().Unix(), int64(v.tolerance/time.Second)
	if ts < now-tol || ts > now+tol {
		return ErrSignatureInvalid
	}

	signature, err := hex.DecodeString(h.Signature)
	if err != nil || len(signature) != ed25519.SignatureSize {
		return ErrSignatureInvalid
	}

	keys, err := v.keys.Keys(ctx)
	if err != nil {
		return ErrSignatureInvalid
	}

	message := SignedMessage(h, body)
	for _, key := range keys {
		if len(key) == ed25519.PublicKeySize && ed25519.Verify(key, message, signature) {
			return nil
		}
	}
	return ErrSignatureInvalid
}

// SignedMessage builds the byte string the provider signs.
func SignedMessage(h WebhookHeaders, body []byte) []byte {
	sum := sha256.Sum256(body)
	return []byte(strings.Join([]string{
		h.RequestID,
		h.UserID,
		h.Timestamp,
		hex.EncodeToString(sum[:]),
	}, "\n"))
}
