package metrics

import (
	"bytes"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// lockedBuffer keeps the race detector happy: the serve goroutine logs
// concurrently with the test's reads.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestHandlerExposesCollectorMetrics(t *testing.T) {
	c := NewCollector(22.5, 2.0, 500*time.Millisecond)
	c.SetRoute(1234, 3000, 270000)
	c.TicksSimulated.Add(600)
	c.PathIndex.Set(41)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "racesim_ticks_simulated_total 600")
	assert.Contains(t, body, "racesim_path_index 41")
	assert.Contains(t, body, "racesim_route_vertices 1234")
	assert.Contains(t, body, "racesim_lap_length_meters 3000")
	assert.Contains(t, body, "racesim_speed_mps 22.5")
	assert.Contains(t, body, "racesim_speed_multiplier 2")
	assert.Contains(t, body, "racesim_tick_seconds 0.5")
}

func TestServeFailedBindDoesNotClaimListening(t *testing.T) {
	buf := &lockedBuffer{}
	prev := log.Writer()
	log.SetOutput(buf)
	defer log.SetOutput(prev)

	c := NewCollector(20, 1.0, time.Second)
	srv := c.Serve("not a listen address")
	defer srv.Close()

	// Bind failure surfaces asynchronously from the serve goroutine.
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if strings.Contains(buf.String(), "metrics server error") {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	out := buf.String()
	assert.Contains(t, out, "metrics server error")
	assert.NotContains(t, out, "listening")
}
