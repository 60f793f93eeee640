package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector_Records(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordOperation("sign_in", "")
	c.RecordOperation("sign_in", "credentials")
	c.RecordSessionEvent("SIGNED_IN")
	c.RecordProfileFetchAttempt()
	c.RecordProfileFetchAttempt()
	c.RecordProfileProvisioned(true)
	c.RecordSafetyTimeout()

	assert.Equal(t, 1.0, testutil.ToFloat64(c.operations.WithLabelValues("sign_in", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.operations.WithLabelValues("sign_in", "credentials")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.sessionEvents.WithLabelValues("SIGNED_IN")))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.profileAttempts))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.profileProvisions.WithLabelValues("true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.safetyTimeouts))
}

func TestHandler_ServesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.RecordSafetyTimeout()

	w := httptest.NewRecorder()
	Handler(reg).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	resp := w.Result()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "qubras_auth_safety_timeouts_total 1")
}
