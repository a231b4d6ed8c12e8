package metrics

import (
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/webdex/pkg/health"
)

func TestNew_IndependentRegistries(t *testing.T) {
	a, b := New(), New()
	a.PagesWritten.Add(3)
	assert.Equal(t, float64(3), testutil.ToFloat64(a.PagesWritten))
	assert.Zero(t, testutil.ToFloat64(b.PagesWritten))
}

func TestObservePhase(t *testing.T) {
	m := New()
	m.ObservePhase("index", 120*time.Millisecond)
	m.ObservePhase("index", 30*time.Millisecond)
	assert.Equal(t, 1, testutil.CollectAndCount(m.PhaseDuration))

	n, err := testutil.GatherAndCount(m.Registry(), "webdex_phase_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestHandler(t *testing.T) {
	m := New()
	m.SinkPublishes.WithLabelValues("redis", "success").Inc()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	assert.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), `webdex_sink_publishes_total{sink="redis",status="success"} 1`)
}

func TestWriteTextfile(t *testing.T) {
	m := New()
	m.SpecsLoaded.Add(42)
	m.TermsIndexed.Set(7)

	path := filepath.Join(t.TempDir(), "webdex.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "webdex_specs_loaded_total 42")
	assert.Contains(t, string(data), "webdex_terms 7")
}

func TestNewMux(t *testing.T) {
	m := New()
	checker := health.NewChecker()
	mux := NewMux(m, checker)

	for path, code := range map[string]int{"/metrics": 200, "/health/live": 200, "/health/ready": 200, "/": 200} {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest("GET", path, nil))
		assert.Equal(t, code, rec.Code, path)
	}

	rec := httptest.NewRecorder()
	NewMux(m, nil).ServeHTTP(rec, httptest.NewRequest("GET", "/health/ready", nil))
	assert.Contains(t, rec.Body.String(), "WebDex Build Metrics")
}
