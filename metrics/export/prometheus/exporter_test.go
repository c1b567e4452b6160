package prometheus

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	goSession "github.com/MrEthical07/goSession"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type fakeSource struct {
	snapshot goSession.MetricsSnapshot
	dropped  uint64
}

func (f fakeSource) MetricsSnapshot() goSession.MetricsSnapshot { return f.snapshot }
func (f fakeSource) AuditDropped() uint64                       { return f.dropped }

func TestRenderEmptyWhenDisabled(t *testing.T) {
	exp := NewExporter(fakeSource{
		snapshot: goSession.MetricsSnapshot{
			Counters:   map[goSession.MetricID]uint64{},
			Histograms: map[goSession.MetricID][]uint64{},
		},
	})
	if got := exp.Render(); got != "" {
		t.Fatalf("expected empty output, got:\n%s", got)
	}
	if got := (*Exporter)(nil).Render(); got != "" {
		t.Fatalf("nil exporter rendered %q", got)
	}
}

func TestRenderCountersAndHistogram(t *testing.T) {
	exp := NewExporter(fakeSource{
		snapshot: goSession.MetricsSnapshot{
			Counters: map[goSession.MetricID]uint64{
				goSession.MetricLoginSuccess:     7,
				goSession.MetricStoreUnavailable: 1,
			},
			Histograms: map[goSession.MetricID][]uint64{
				goSession.MetricGateLatency: {1, 2, 3, 4, 5, 6, 7, 8},
			},
		},
		dropped: 2,
	})

	out := exp.Render()
	for _, want := range []string{
		"# TYPE gosession_login_success_total counter",
		"gosession_login_success_total 7",
		"gosession_store_unavailable_total 1",
		"gosession_refresh_success_total 0",
		`gosession_gate_latency_seconds_bucket{le="0.00005"} 1`,
		`gosession_gate_latency_seconds_bucket{le="0.001"} 15`,
		`gosession_gate_latency_seconds_bucket{le="+Inf"} 36`,
		"gosession_gate_latency_seconds_count 36",
		"gosession_activity_dropped_total 2",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
}

func TestRenderSkipsHistogramWhenLatencyOff(t *testing.T) {
	exp := NewExporter(fakeSource{
		snapshot: goSession.MetricsSnapshot{
			Counters:   map[goSession.MetricID]uint64{goSession.MetricLogout: 1},
			Histograms: map[goSession.MetricID][]uint64{},
		},
	})
	if out := exp.Render(); strings.Contains(out, "gate_latency") {
		t.Fatalf("unexpected histogram:\n%s", out)
	}
}

func TestHandlerServesEngineMetrics(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	cfg := goSession.DefaultConfig()
	cfg.JWT.AccessSecret = []byte("access-secret-0123456789abcdef")
	cfg.JWT.RefreshSecret = []byte("refresh-secret-0123456789abcdef")
	cfg.Password.BcryptCost = 4

	engine, err := goSession.New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithCredentialStore(noUsers{}).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer engine.Close()

	engine.Gate(&goSession.RequestContext{Method: "GET", Path: "/dashboard", Cookies: map[string]string{}})

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	NewExporter(engine).Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); !strings.HasPrefix(got, "text/plain") {
		t.Fatalf("unexpected content type %q", got)
	}
	if body := rec.Body.String(); !strings.Contains(body, "gosession_gate_redirect_total 1") {
		t.Fatalf("expected one gate redirect, got:\n%s", body)
	}
}

type noUsers struct{}

func (noUsers) FindByEmail(context.Context, string) (*goSession.UserRecord, error) { return nil, nil }
func (noUsers) FindByID(context.Context, string) (*goSession.UserRecord, error)    { return nil, nil }
func (noUsers) CreateUser(context.Context, *goSession.UserRecord) error            { return nil }

func BenchmarkRender(b *testing.B) {
	exp := NewExporter(fakeSource{
		snapshot: goSession.MetricsSnapshot{
			Counters: map[goSession.MetricID]uint64{
				goSession.MetricLoginSuccess:   1000,
				goSession.MetricLoginFailure:   40,
				goSession.MetricRefreshSuccess: 800,
				goSession.MetricGateContinue:   90000,
			},
			Histograms: map[goSession.MetricID][]uint64{
				goSession.MetricGateLatency: {10, 20, 30, 40, 50, 60, 70, 80},
			},
		},
	})

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = exp.Render()
	}
}
