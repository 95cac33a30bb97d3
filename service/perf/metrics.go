// Copyright (c) 2022-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.

package perf

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	metricsSubSystemCall = "call"
	metricsSubSystemGrid = "grid"
	metricsSubSystemWS   = "ws"
)

type Metrics struct {
	registry *prometheus.Registry

	Calls                 prometheus.Gauge
	Participants          prometheus.Gauge
	SpeakerChangeCounter  prometheus.Counter
	GridRenderCounter     prometheus.Counter
	GridEmptyCellsCounter prometheus.Counter

	WSConnections     prometheus.Gauge
	WSMessageCounters *prometheus.CounterVec
}

func NewMetrics(namespace string, registry *prometheus.Registry) *Metrics {
	var m Metrics

	if registry != nil {
		m.registry = registry
	} else {
		m.registry = prometheus.NewRegistry()
		m.registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{
			Namespace: namespace,
		}))
		m.registry.MustRegister(collectors.NewGoCollector())
	}

	m.Calls = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: metricsSubSystemCall,
			Name:      "calls_total",
			Help:      "Total number of active calls",
		},
	)
	m.registry.MustRegister(m.Calls)

	m.Participants = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: metricsSubSystemCall,
			Name:      "participants_total",
			Help:      "Total number of joined remote participants",
		},
	)
	m.registry.MustRegister(m.Participants)

	m.SpeakerChangeCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: metricsSubSystemCall,
			Name:      "speaker_changes_total",
			Help:      "Total number of speaker rank changes",
		},
	)
	m.registry.MustRegister(m.SpeakerChangeCounter)

	m.GridRenderCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: metricsSubSystemGrid,
			Name:      "renders_total",
			Help:      "Total number of rendered grid frames",
		},
	)
	m.registry.MustRegister(m.GridRenderCounter)

	m.GridEmptyCellsCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: metricsSubSystemGrid,
			Name:      "empty_cells_total",
			Help:      "Total number of empty cells in rendered grid frames",
		},
	)
	m.registry.MustRegister(m.GridEmptyCellsCounter)

	m.WSConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: metricsSubSystemWS,
			Name:      "connections_total",
			Help:      "Total number of active WebSocket connections",
		},
	)
	m.registry.MustRegister(m.WSConnections)

	m.WSMessageCounters = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: metricsSubSystemWS,
			Name:      "messages_total",
			Help:      "Total number of sent/received WebSocket messages",
		},
		[]string{"type", "direction"},
	)
	m.registry.MustRegister(m.WSMessageCounters)

	return &m
}

func (m *Metrics) IncCalls() {
	m.Calls.Inc()
}

func (m *Metrics) DecCalls() {
	m.Calls.Dec()
}

func (m *Metrics) IncParticipants() {
	m.Participants.Inc()
}

func (m *Metrics) DecParticipants() {
	m.Participants.Dec()
}

func (m *Metrics) IncSpeakerChanges() {
	m.SpeakerChangeCounter.Inc()
}

func (m *Metrics) IncGridRenders(emptyCells int) {
	m.GridRenderCounter.Inc()
	m.GridEmptyCellsCounter.Add(float64(emptyCells))
}

func (m *Metrics) IncWSConnections() {
	m.WSConnections.Inc()
}

func (m *Metrics) DecWSConnections() {
	m.WSConnections.Dec()
}

func (m *Metrics) IncWSMessages(msgType, direction string) {
	m.WSMessageCounters.With(prometheus.Labels{"type": msgType, "direction": direction}).Inc()
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
