// Copyright (c) 2026 SiChat and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package transport

import (
	"github.com/prometheus/client_golang/prometheus"
)

type metrics struct {
	openConnections prometheus.Gauge
	acceptedTotal   prometheus.Counter
}

// newMetrics registers connection metrics on r. A nil registerer
// leaves the collectors live but unregistered, which keeps tests from
// fighting over the default registry.
func newMetrics(r prometheus.Registerer) *metrics {
	m := &metrics{
		openConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "sichat_http_open_connections",
			Help: "Number of currently open client connections.",
		}),
		acceptedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sichat_http_connections_accepted_total",
			Help: "Total number of client connections accepted.",
		}),
	}
	if r != nil {
		r.MustRegister(m.openConnections, m.acceptedTotal)
	}
	return m
}

func (m *metrics) connAccepted() {
	m.openConnections.Inc()
	m.acceptedTotal.Inc()
}

func (m *metrics) connClosed() {
	m.openConnections.Dec()
}
