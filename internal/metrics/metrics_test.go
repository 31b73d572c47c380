package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCollectorsRecord(t *testing.T) {
	before := testutil.ToFloat64(documentsTotal.WithLabelValues("list", "ok"))
	CaptureDocument("list", "ok", 3, 1)
	if got := testutil.ToFloat64(documentsTotal.WithLabelValues("list", "ok")); got != before+1 {
		t.Fatalf("documents_total = %v, want %v", got, before+1)
	}

	okBefore := testutil.ToFloat64(ocrPages.WithLabelValues("ok"))
	CaptureOCR(2, 1, 75)
	if got := testutil.ToFloat64(ocrPages.WithLabelValues("ok")); got != okBefore+2 {
		t.Fatalf("ocr ok pages = %v, want %v", got, okBefore+2)
	}

	IncrementJobsInQueue()
	IncrementJobsInQueue()
	DecrementJobsInQueue()
	if got := testutil.ToFloat64(jobsInQueue); got != 1 {
		t.Fatalf("jobs in queue = %v, want 1", got)
	}
	DecrementJobsInQueue()
}

func TestHandlerExposesMetrics(t *testing.T) {
	ObserveStage("classify", 10*time.Millisecond)
	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	if !strings.Contains(rec.Body.String(), "budget_stage_duration_seconds") {
		t.Fatalf("metrics output missing stage histogram")
	}
}
