package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"heartbeat/internal/synth"
)

var _ synth.Observer = (*Metrics)(nil)

func TestFrameAndBeat(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.Frame(2*time.Millisecond, 12.5)
	m.Frame(time.Millisecond, 3)
	m.Beat()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Frames))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Beats))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.KineticEnergy))
	assert.Equal(t, 1, testutil.CollectAndCount(m.StepSeconds))
}

func TestGrainCounters(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.GrainsScheduled(40)
	m.GrainsDropped(3)
	m.GrainsDisposed(25)

	assert.Equal(t, 40.0, testutil.ToFloat64(m.Scheduled))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.Dropped))
	assert.Equal(t, 25.0, testutil.ToFloat64(m.Disposed))
	assert.Equal(t, 15.0, testutil.ToFloat64(m.InFlight))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.Frame(time.Millisecond, 1)
		m.Beat()
		m.GrainsScheduled(1)
		m.GrainsDropped(1)
		m.GrainsDisposed(1)
	})
}

func TestRegistryIsolation(t *testing.T) {
	a := New(prometheus.NewRegistry())
	b := New(prometheus.NewRegistry())
	a.Beat()
	assert.Equal(t, 0.0, testutil.ToFloat64(b.Beats))
}

func TestHandlerExposesCollectors(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.Beat()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "heartbeat_beats_total 1")
	assert.Contains(t, string(body), "heartbeat_grains_in_flight 0")
}
