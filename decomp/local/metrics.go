// Copyright 2025 go-highway Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package local

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the prometheus collectors updated by every collective.
type Metrics struct {
	calls   *prometheus.CounterVec
	bytes   *prometheus.CounterVec
	seconds *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them with reg when reg is
// not nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pencil_collective_calls_total",
			Help: "Collective transposes completed, per rank call.",
		}, []string{"op"}),
		bytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pencil_collective_bytes_total",
			Help: "Bytes sent by collective transposes, including self copies.",
		}, []string{"op"}),
		seconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pencil_collective_seconds",
			Help:    "Wall time of one rank's part of a collective transpose.",
			Buckets: prometheus.ExponentialBuckets(1e-5, 4, 10),
		}, []string{"op"}),
	}
	if reg != nil {
		reg.MustRegister(m.calls, m.bytes, m.seconds)
	}
	return m
}

func (m *Metrics) observe(op string, bytes int, d time.Duration) {
	if m == nil {
		return
	}
	m.calls.WithLabelValues(op).Inc()
	m.bytes.WithLabelValues(op).Add(float64(bytes))
	m.seconds.WithLabelValues(op).Observe(d.Seconds())
}
