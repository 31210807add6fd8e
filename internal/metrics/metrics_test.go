package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector(t *testing.T) {
	t.Run("Counters increase", func(t *testing.T) {
		// Given: a fresh collector
		reg := prometheus.NewRegistry()
		c := NewCollector(reg)

		// When: events are recorded
		c.RecordConnect()
		c.RecordConnect()
		c.RecordDisconnect()
		c.RecordGameStarted()
		c.RecordMoveApplied()
		c.RecordMoveRejected("cell_occupied")
		c.RecordMoveRejected("cell_occupied")
		c.RecordGameFinished("drawn")
		c.SetOnlineUsers(3)

		// Then: every metric reflects them
		assert.InDelta(t, 2, testutil.ToFloat64(c.connections), 0)
		assert.InDelta(t, 1, testutil.ToFloat64(c.disconnections), 0)
		assert.InDelta(t, 1, testutil.ToFloat64(c.gamesStarted), 0)
		assert.InDelta(t, 1, testutil.ToFloat64(c.movesApplied), 0)
		assert.InDelta(t, 2, testutil.ToFloat64(c.movesRejected.WithLabelValues("cell_occupied")), 0)
		assert.InDelta(t, 1, testutil.ToFloat64(c.gamesFinished.WithLabelValues("drawn")), 0)
		assert.InDelta(t, 3, testutil.ToFloat64(c.onlineUsers), 0)
	})

	t.Run("Session duration is observed in seconds", func(t *testing.T) {
		reg := prometheus.NewRegistry()
		c := NewCollector(reg)

		c.ObserveSessionDuration(90 * time.Second)

		families, err := reg.Gather()
		require.NoError(t, err)

		for _, family := range families {
			if family.GetName() != "tictactoe_session_duration_seconds" {
				continue
			}
			histogram := family.GetMetric()[0].GetHistogram()
			assert.Equal(t, uint64(1), histogram.GetSampleCount())
			assert.InDelta(t, 90, histogram.GetSampleSum(), 0.001)
			return
		}
		t.Fatal("session duration histogram not found")
	})
}

func TestHandler(t *testing.T) {
	// Given: a collector with one connection recorded
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.RecordConnect()

	// When: the scrape endpoint is requested
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	Handler(reg).ServeHTTP(w, req)

	// Then: the exposition contains the counter
	resp := w.Result()
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "tictactoe_connections_total 1")
}
