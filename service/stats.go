// Copyright (c) 2022-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.

package service

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	model "github.com/prometheus/client_model/go"
)

type Stats struct {
	Calls         float64 `json:"calls"`
	Participants  float64 `json:"participants"`
	WSConnections float64 `json:"ws_connections"`
}

func gaugeValue(g prometheus.Gauge) (float64, error) {
	var m model.Metric
	if err := g.Write(&m); err != nil {
		return 0, fmt.Errorf("failed to read metric: %w", err)
	}
	return m.GetGauge().GetValue(), nil
}

func (s *Service) getStats(w http.ResponseWriter, _ *http.Request) {
	var stats Stats
	for _, v := range []struct {
		gauge prometheus.Gauge
		dst   *float64
	}{
		{s.metrics.Calls, &stats.Calls},
		{s.metrics.Participants, &stats.Participants},
		{s.metrics.WSConnections, &stats.WSConnections},
	} {
		value, err := gaugeValue(v.gauge)
		if err != nil {
			s.writeError(w, err)
			return
		}
		*v.dst = value
	}

	s.writeJSON(w, http.StatusOK, stats)
}
