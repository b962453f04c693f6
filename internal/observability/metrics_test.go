package observability

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestMetricsHandlerExposesCollectors(t *testing.T) {
	t.Parallel()

	m := NewMetrics()
	m.IncCapsuleDelivered()
	m.IncCapsuleFailed("retry_exhausted")
	m.IncCapsuleFailed("")
	m.IncDeliveryAttempt()
	m.IncRetryScheduled()
	m.IncReminderSent()
	m.IncBatchSkipped("busy")
	m.ObserveBatchDuration(1500 * time.Millisecond)
	m.ObserveSendDuration("delivery", 20*time.Millisecond)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	body := rec.Body.String()
	wanted := []string{
		`capsule_engine_capsules_delivered_total 1`,
		`capsule_engine_capsules_failed_total{reason="retry_exhausted"} 1`,
		`capsule_engine_capsules_failed_total{reason="unknown"} 1`,
		`capsule_engine_delivery_attempts_total 1`,
		`capsule_engine_retries_scheduled_total 1`,
		`capsule_engine_reminders_sent_total 1`,
		`capsule_engine_batch_skipped_total{reason="busy"} 1`,
	}
	for _, want := range wanted {
		if !strings.Contains(body, want) {
			t.Fatalf("metrics output missing %q", want)
		}
	}
}

func TestMetricsNilReceiverIsSafe(t *testing.T) {
	t.Parallel()

	var m *Metrics
	m.IncCapsuleDelivered()
	m.IncCapsuleFailed("x")
	m.IncDeliveryAttempt()
	m.IncRetryScheduled()
	m.IncReminderSent()
	m.IncBatchSkipped("busy")
	m.ObserveBatchDuration(time.Second)
	m.ObserveSendDuration("reminder", time.Second)

	if m.Handler() == nil {
		t.Fatal("nil metrics should still return a handler")
	}
}
