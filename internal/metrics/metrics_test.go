package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveIngest(t *testing.T) {
	m := New()

	m.ObserveIngest(OutcomeCreated, 10, 1, 0.02)
	m.ObserveIngest(OutcomeMissingColumns, 0, 0, 0.001)

	if got := testutil.ToFloat64(m.ingests.WithLabelValues(OutcomeCreated)); got != 1 {
		t.Fatalf("expected 1 created ingest, got %f", got)
	}
	if got := testutil.ToFloat64(m.rowsIngested); got != 10 {
		t.Fatalf("expected 10 rows, got %f", got)
	}
	if got := testutil.ToFloat64(m.evictions); got != 1 {
		t.Fatalf("expected 1 eviction, got %f", got)
	}
	if samples := testutil.CollectAndCount(m.ingestDuration); samples != 1 {
		t.Fatalf("expected duration histogram to be collected once, got %d", samples)
	}
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New()
	m.ObserveReport("xlsx")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	if rec.Code != 200 {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `chemviz_reports_rendered_total{format="xlsx"} 1`) {
		t.Fatalf("report counter missing from exposition:\n%s", rec.Body.String())
	}
}
