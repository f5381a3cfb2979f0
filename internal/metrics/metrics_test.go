package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCounters(t *testing.T) {
	before := testutil.ToFloat64(materializationsTotal.WithLabelValues("output", "fallback"))
	Materialized("output", false)
	assert.Equal(t, before+1, testutil.ToFloat64(materializationsTotal.WithLabelValues("output", "fallback")))

	before = testutil.ToFloat64(webhookDeliveriesTotal.WithLabelValues("duplicate"))
	WebhookHandled("duplicate", 10*time.Millisecond)
	assert.Equal(t, before+1, testutil.ToFloat64(webhookDeliveriesTotal.WithLabelValues("duplicate")))

	before = testutil.ToFloat64(dispatchTotal.WithLabelValues("watermark", "error"))
	Dispatched("watermark", false)
	assert.Equal(t, before+1, testutil.ToFloat64(dispatchTotal.WithLabelValues("watermark", "error")))
}
