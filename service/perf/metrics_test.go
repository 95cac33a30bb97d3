// Copyright (c) 2022-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.

package perf

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestMetrics(t *testing.T) {
	m := NewMetrics("callgrid", nil)
	require.NotNil(t, m)

	t.Run("gauges", func(t *testing.T) {
		m.IncCalls()
		m.IncCalls()
		m.DecCalls()
		require.Equal(t, float64(1), testutil.ToFloat64(m.Calls))

		m.IncParticipants()
		require.Equal(t, float64(1), testutil.ToFloat64(m.Participants))
		m.DecParticipants()
		require.Zero(t, testutil.ToFloat64(m.Participants))

		m.IncWSConnections()
		require.Equal(t, float64(1), testutil.ToFloat64(m.WSConnections))
		m.DecWSConnections()
		require.Zero(t, testutil.ToFloat64(m.WSConnections))
	})

	t.Run("counters", func(t *testing.T) {
		m.IncSpeakerChanges()
		require.Equal(t, float64(1), testutil.ToFloat64(m.SpeakerChangeCounter))

		m.IncGridRenders(3)
		m.IncGridRenders(0)
		require.Equal(t, float64(2), testutil.ToFloat64(m.GridRenderCounter))
		require.Equal(t, float64(3), testutil.ToFloat64(m.GridEmptyCellsCounter))

		m.IncWSMessages("grid", "out")
		m.IncWSMessages("grid", "out")
		m.IncWSMessages("display", "in")
		require.Equal(t, float64(2), testutil.ToFloat64(m.WSMessageCounters.WithLabelValues("grid", "out")))
		require.Equal(t, float64(1), testutil.ToFloat64(m.WSMessageCounters.WithLabelValues("display", "in")))
	})

	t.Run("handler", func(t *testing.T) {
		w := httptest.NewRecorder()
		m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		require.Equal(t, http.StatusOK, w.Code)
		body, err := io.ReadAll(w.Body)
		require.NoError(t, err)
		require.Contains(t, string(body), "callgrid_call_calls_total 1")
		require.Contains(t, string(body), "callgrid_grid_empty_cells_total 3")
		require.Contains(t, string(body), "callgrid_process_")
	})
}

func TestMetricsCustomRegistry(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewMetrics("callgrid", registry)
	m.IncCalls()

	families, err := registry.Gather()
	require.NoError(t, err)
	var names []string
	for _, f := range families {
		names = append(names, f.GetName())
	}
	require.Contains(t, names, "callgrid_call_calls_total")
	require.NotContains(t, names, "go_goroutines")
}
