package observability_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/frahmantamala/practice-gateway/internal/observability"
)

func TestObservability(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Observability Suite")
}

var _ = Describe("Metrics", func() {
	var (
		registry *prometheus.Registry
		metrics  *observability.Metrics
	)

	BeforeEach(func() {
		registry = prometheus.NewRegistry()
		metrics = observability.NewMetrics(registry)
	})

	It("counts guard decisions by outcome", func() {
		metrics.RecordGuardDecision("authorized")
		metrics.RecordGuardDecision("authorized")
		metrics.RecordGuardDecision("denied")

		Expect(testutil.ToFloat64(metrics.GuardDecisionsTotal.WithLabelValues("authorized"))).To(Equal(2.0))
		Expect(testutil.ToFloat64(metrics.GuardDecisionsTotal.WithLabelValues("denied"))).To(Equal(1.0))
	})

	It("labels upstream failures without a response as errors", func() {
		metrics.RecordUpstream("process", 200, 10*time.Millisecond)
		metrics.RecordUpstream("process", 0, time.Second)

		Expect(testutil.ToFloat64(metrics.UpstreamRequestsTotal.WithLabelValues("process", "200"))).To(Equal(1.0))
		Expect(testutil.ToFloat64(metrics.UpstreamRequestsTotal.WithLabelValues("process", "error"))).To(Equal(1.0))
	})

	It("counts forced logouts and usage activity", func() {
		metrics.RecordForcedLogout()
		metrics.RecordUsageIncrement("aiSummaries")
		metrics.RecordUsageReset("daily")

		Expect(testutil.ToFloat64(metrics.ForcedLogoutsTotal)).To(Equal(1.0))
		Expect(testutil.ToFloat64(metrics.UsageIncrementsTotal.WithLabelValues("aiSummaries"))).To(Equal(1.0))
		Expect(testutil.ToFloat64(metrics.UsageResetsTotal.WithLabelValues("daily"))).To(Equal(1.0))
	})

	It("records requests by route pattern and serves the exposition", func() {
		r := chi.NewRouter()
		r.Use(observability.HTTPMetricsMiddleware(metrics))
		r.Get("/processes/{id}", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		})
		r.Handle("/metrics", observability.Handler(registry))

		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/processes/42", nil))
		Expect(rec.Code).To(Equal(http.StatusNotFound))
		Expect(testutil.ToFloat64(metrics.HTTPRequestsTotal.WithLabelValues("GET", "/processes/{id}", "404"))).To(Equal(1.0))

		rec = httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		body, _ := io.ReadAll(rec.Body)
		Expect(string(body)).To(ContainSubstring("practice_gateway_http_requests_total"))
	})
})
