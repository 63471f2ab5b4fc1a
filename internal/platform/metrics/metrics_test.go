package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	kit "arguxai/internal/platform/testkit"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveHTTP(t *testing.T) {
	before := testutil.ToFloat64(HTTPRequests.WithLabelValues("GET", "/api/v1/issues", "200"))
	ObserveHTTP("GET", "/api/v1/issues", 200, 15*time.Millisecond)
	after := testutil.ToFloat64(HTTPRequests.WithLabelValues("GET", "/api/v1/issues", "200"))
	if after-before != 1 {
		t.Fatalf("requests delta = %v", after-before)
	}

	ObserveHTTP("GET", "", 404, time.Millisecond)
	if got := testutil.ToFloat64(HTTPRequests.WithLabelValues("GET", "unmatched", "404")); got < 1 {
		t.Fatalf("unmatched route not recorded")
	}
}

func TestHandlerExposesDomainCollectors(t *testing.T) {
	StepOutcomes.WithLabelValues("login_form", "skipped", "insufficient_data").Inc()
	Sigma.WithLabelValues("login_form").Set(3.2)
	Since(DiagnosisDuration, time.Now().Add(-time.Second))

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)

	out := string(body)
	kit.MustContain(t, out, `arguxai_detect_step_outcomes_total{funnel_step="login_form",reason="insufficient_data",status="skipped"}`)
	kit.MustContain(t, out, `arguxai_detect_sigma{funnel_step="login_form"} 3.2`)
	kit.MustContain(t, out, "arguxai_diagnosis_duration_seconds_count")
	kit.MustContain(t, out, "go_goroutines")
}
