// Copyright 2024 go-dataspace
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package edc

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	connectorCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "run_console_connector_calls_total",
			Help: "Tracks the number of management API calls per operation and outcome.",
		}, []string{"operation", "outcome"},
	)
	connectorCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "run_console_connector_call_duration_seconds",
			Help:    "Tracks the latencies of management API calls.",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 8),
		},
		[]string{"operation"},
	)
)

func observe(operation string, start time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = string(KindOf(err))
	}
	connectorCallsTotal.WithLabelValues(operation, outcome).Inc()
	connectorCallDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}
