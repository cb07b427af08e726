package observability

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	before := testutil.ToFloat64(answers.WithLabelValues("correct", "ORDERING"))
	Answer(true, "ORDERING")
	assert.Equal(t, before+1, testutil.ToFloat64(answers.WithLabelValues("correct", "ORDERING")))

	before = testutil.ToFloat64(archiveEvictions)
	ArchiveEvicted(2)
	assert.Equal(t, before+2, testutil.ToFloat64(archiveEvictions))

	SetLiveSessions(3)
	assert.Equal(t, float64(3), testutil.ToFloat64(liveSessions))
}

func TestHandlerExposesMetrics(t *testing.T) {
	SessionStarted("local")
	GenerationObserved(2 * time.Second)

	rr := httptest.NewRecorder()
	Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.True(t, strings.Contains(body, `time_agent_sessions_started_total{mode="local"}`))
	assert.True(t, strings.Contains(body, "time_agent_generation_duration_seconds_bucket"))
}
