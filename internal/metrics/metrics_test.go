package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector_RecordOutcome(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordOutcome("tic-tac-toe", "win")
	c.RecordOutcome("tic-tac-toe", "win")
	c.RecordOutcome("reaction-time", "completed")

	assert.Equal(t, 2.0, testutil.ToFloat64(c.outcomes.WithLabelValues("tic-tac-toe", "win")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.outcomes.WithLabelValues("reaction-time", "completed")))
}

func TestCollector_RecordHTTPRequest(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordHTTPRequest("POST", "/outcomes", 201, 15*time.Millisecond)
	c.RecordHTTPRequest("POST", "/outcomes", 401, time.Millisecond)
	c.RecordAuthFailure("invalid_credentials")

	assert.Equal(t, 1.0, testutil.ToFloat64(c.httpRequests.WithLabelValues("POST", "/outcomes", "201")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.httpRequests.WithLabelValues("POST", "/outcomes", "401")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.authFailures.WithLabelValues("invalid_credentials")))
}

func TestHandler_ExposesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.RecordOutcome("number-guessing", "win")

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), `minigames_outcomes_recorded_total{game_type="number-guessing",result="win"} 1`))
}
