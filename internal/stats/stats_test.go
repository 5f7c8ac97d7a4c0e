package stats

import (
	"expvar"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/npezzotti/go-geochat/internal/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNewStatsUpdater(t *testing.T) {
	mux := http.NewServeMux()
	su := NewStatsUpdater(testutil.TestLogger(t), mux)
	assert.NotNil(t, su, "expected StatsUpdater to be non-nil")
	assert.NotNil(t, su.deltas, "expected delta channel to be initialized")

	handler, pattern := mux.Handler(&http.Request{URL: &url.URL{Path: "/debug/vars"}, Method: http.MethodGet})
	assert.NotNil(t, handler, "expected handler for /debug/vars to be set")
	assert.Equal(t, "GET /debug/vars", pattern, "expected handler to be registered for GET method on /debug/vars")

	t.Run("reconstructing reuses the published map", func(t *testing.T) {
		su.RegisterMetric("Stale")
		su2 := NewStatsUpdater(testutil.TestLogger(t), http.NewServeMux())
		assert.NotNil(t, su2)
		assert.Nil(t, su2.vars.Get("Stale"), "a fresh updater starts from an empty map")
	})
}

func TestStatsUpdater_IncrDecr(t *testing.T) {
	su := NewStatsUpdater(testutil.TestLogger(t), http.NewServeMux())
	su.RegisterMetric("ConnectedUsers")
	su.Run()
	defer su.Stop()

	su.Incr("ConnectedUsers")
	su.Incr("ConnectedUsers")
	su.Decr("ConnectedUsers")

	// an unregistered name is logged and dropped, never applied
	su.Incr("NoSuchMetric")

	assert.Eventually(t, func() bool {
		metric, ok := su.vars.Get("ConnectedUsers").(*expvar.Int)
		return ok && metric.Value() == 1
	}, time.Second, 10*time.Millisecond, "expected ConnectedUsers to settle at 1")
	assert.Nil(t, su.vars.Get("NoSuchMetric"))
}
