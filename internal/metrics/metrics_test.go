package metrics

import (
	"math"
	"net/http/httptest"
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"
)

func TestRecorderObserveQuota(t *testing.T) {
	rec := NewRecorder(nil)
	rec.ObserveQuota("free", "allowed")
	rec.ObserveQuota("free", "allowed")
	rec.ObserveQuota("free", "rejected")

	families := gather(t, rec, "poam_quota_decisions_total")

	allowed := findMetric(t, families["poam_quota_decisions_total"], map[string]string{"tier": "free", "outcome": "allowed"})
	if got := allowed.GetCounter().GetValue(); got != 2 {
		t.Fatalf("expected allowed counter 2, got %v", got)
	}
	rejected := findMetric(t, families["poam_quota_decisions_total"], map[string]string{"tier": "free", "outcome": "rejected"})
	if got := rejected.GetCounter().GetValue(); got != 1 {
		t.Fatalf("expected rejected counter 1, got %v", got)
	}
}

func TestRecorderObserveCache(t *testing.T) {
	rec := NewRecorder(nil)
	rec.ObserveCache("lookup", "hit")
	rec.ObserveCache("store", "")

	families := gather(t, rec, "poam_cache_operations_total")

	findMetric(t, families["poam_cache_operations_total"], map[string]string{"operation": "lookup", "result": "hit"})
	findMetric(t, families["poam_cache_operations_total"], map[string]string{"operation": "store", "result": "unknown"})
}

func TestRecorderObserveHTTP(t *testing.T) {
	rec := NewRecorder(nil)
	rec.ObserveHTTP("GET", "/api/poam-items/:id", 429, 250*time.Millisecond)

	families := gather(t, rec, "poam_http_requests_total", "poam_http_request_duration_seconds")

	counter := findMetric(t, families["poam_http_requests_total"], map[string]string{
		"method":      "GET",
		"route":       "/api/poam-items/:id",
		"status_code": "429",
	})
	if got := counter.GetCounter().GetValue(); got != 1 {
		t.Fatalf("expected counter value 1, got %v", got)
	}

	hist := findMetric(t, families["poam_http_request_duration_seconds"], map[string]string{
		"method": "GET",
		"route":  "/api/poam-items/:id",
	}).GetHistogram()
	if hist.GetSampleCount() != 1 {
		t.Fatalf("expected histogram count 1, got %d", hist.GetSampleCount())
	}
	if diff := math.Abs(hist.GetSampleSum() - 0.25); diff > 0.001 {
		t.Fatalf("expected histogram sum near 0.25, got %v", hist.GetSampleSum())
	}
}

func TestNilRecorderIsSafe(t *testing.T) {
	var rec *Recorder
	rec.ObserveQuota("free", "allowed")
	rec.ObserveCache("lookup", "miss")
	rec.ObserveHTTP("GET", "/", 200, time.Millisecond)

	rr := httptest.NewRecorder()
	rec.Handler().ServeHTTP(rr, httptest.NewRequest("GET", "/metrics", nil))
	if rr.Code != 503 {
		t.Fatalf("expected 503 from nil recorder, got %d", rr.Code)
	}
}

func TestRecorderHandler(t *testing.T) {
	rec := NewRecorder(nil)
	rr := httptest.NewRecorder()

	rec.Handler().ServeHTTP(rr, httptest.NewRequest("GET", "/metrics", nil))

	if rr.Code != 200 {
		t.Fatalf("expected 200 response, got %d", rr.Code)
	}
	if rr.Body.Len() == 0 {
		t.Fatalf("expected response body")
	}
}

func gather(t *testing.T, rec *Recorder, names ...string) map[string][]*dto.Metric {
	t.Helper()
	wanted := make(map[string]bool, len(names))
	for _, name := range names {
		wanted[name] = true
	}
	families, err := rec.Gatherer().Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	collected := make(map[string][]*dto.Metric, len(names))
	for _, mf := range families {
		if !wanted[mf.GetName()] {
			continue
		}
		collected[mf.GetName()] = append(collected[mf.GetName()], mf.GetMetric()...)
	}
	for _, name := range names {
		if len(collected[name]) == 0 {
			t.Fatalf("metric %q not collected", name)
		}
	}
	return collected
}

func findMetric(t *testing.T, metrics []*dto.Metric, labels map[string]string) *dto.Metric {
	t.Helper()
	for _, metric := range metrics {
		if matchLabels(metric, labels) {
			return metric
		}
	}
	t.Fatalf("metric with labels %v not found", labels)
	return nil
}

func matchLabels(metric *dto.Metric, labels map[string]string) bool {
	for key, expected := range labels {
		found := false
		for _, label := range metric.GetLabel() {
			if label.GetName() == key && label.GetValue() == expected {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
