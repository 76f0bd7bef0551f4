package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"

	"fellowmatch/domain/matching"
	"fellowmatch/service"
)

type writer interface {
	Write(*dto.Metric) error
}

func value(t *testing.T, c writer) float64 {
	t.Helper()
	var pb dto.Metric
	require.NoError(t, c.Write(&pb))
	if pb.Counter != nil {
		return pb.GetCounter().GetValue()
	}
	return pb.GetGauge().GetValue()
}

func TestObservesRuns(t *testing.T) {
	m := New()

	m.RunCompleted(service.Run{
		Duration: 3 * time.Millisecond,
		Students: 4,
		Result: matching.Result{
			Rosters: map[matching.FellowshipID][]matching.StudentID{"100": {"stu102"}},
			Stats:   matching.Stats{Proposals: 5, Rejections: 2, Evictions: 1},
		},
	})
	m.RunFailed(service.ErrRunInProgress)
	m.RunFailed(errors.New("disk full"))

	require.Equal(t, 1.0, value(t, m.runs.WithLabelValues("ok")))
	require.Equal(t, 1.0, value(t, m.runs.WithLabelValues("busy")))
	require.Equal(t, 1.0, value(t, m.runs.WithLabelValues("error")))
	require.Equal(t, 1.0, value(t, m.matched))
	require.Equal(t, 4.0, value(t, m.students))
	require.Equal(t, 5.0, value(t, m.proposals))
	require.Equal(t, 1.0, value(t, m.evictions))
}

func TestHandlerExposesDeliveries(t *testing.T) {
	m := New()
	m.Delivered(true)
	m.Delivered(false)
	m.Delivered(true)
	m.Backlog(3)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body := rec.Body.String()
	require.True(t, strings.Contains(body, `fellowmatch_event_deliveries_total{outcome="acked"} 2`), body)
	require.True(t, strings.Contains(body, `fellowmatch_event_deliveries_total{outcome="failed"} 1`), body)
	require.True(t, strings.Contains(body, "fellowmatch_outbox_backlog 3"), body)
}
