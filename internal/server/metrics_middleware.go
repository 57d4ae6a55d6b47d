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

package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/urfave/negroni"
)

var buckets = prometheus.ExponentialBuckets(0.01, 2, 8)

var (
	labels = []string{"method", "code", "path"}

	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "run_console_http_requests_total",
			Help: "Tracks the number of HTTP requests.",
		}, labels,
	)
	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "run_console_http_request_duration_seconds",
			Help:    "Tracks the latencies for HTTP requests.",
			Buckets: buckets,
		}, labels,
	)
	responseSize = promauto.NewSummaryVec(
		prometheus.SummaryOpts{
			Name: "run_console_http_response_size_bytes",
			Help: "Tracks the size of HTTP responses.",
		}, labels,
	)
)

// WrapHandlerWithMetrics records request metrics under the route name path.
func WrapHandlerWithMetrics(path string, handler http.Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := negroni.NewResponseWriter(w)
		handler.ServeHTTP(lrw, r)
		elapsed := time.Since(start)
		labelValues := []string{r.Method, strconv.Itoa(lrw.Status()), path}
		requestsTotal.WithLabelValues(labelValues...).Inc()
		requestDuration.WithLabelValues(labelValues...).Observe(elapsed.Seconds())
		responseSize.WithLabelValues(labelValues...).Observe(float64(lrw.Size()))
	}
}
