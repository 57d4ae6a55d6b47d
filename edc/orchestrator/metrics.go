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

package orchestrator

import (
	"github.com/go-dataspace/run-console/edc"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	pollsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "run_console_polls_total",
			Help: "Tracks the number of status polls per entity kind and outcome.",
		}, []string{"kind", "outcome"},
	)
	operationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "run_console_operations_total",
			Help: "Tracks negotiations and transfers driven to an outcome.",
		}, []string{"kind", "outcome"},
	)
)

func countOutcome(kind string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = string(edc.KindOf(err))
	}
	operationsTotal.WithLabelValues(kind, outcome).Inc()
}
