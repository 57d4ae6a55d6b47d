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
	"context"
	"net/http"

	"github.com/go-dataspace/run-console/edc/session"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Workflows is the session manager as seen by the API.
type Workflows interface {
	Start(ctx context.Context, req session.WorkflowRequest) (session.Snapshot, error)
	Snapshot(ctx context.Context, id string) (session.Snapshot, error)
	Current() (session.Snapshot, error)
	Cancel(id string) error
	Resume(ctx context.Context, id string) (session.Snapshot, error)
}

// HealthChecker checks the connector.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// GetRoutes gets all the routes of the presentation API.
func GetRoutes(workflows Workflows, health HealthChecker) http.Handler {
	mux := http.NewServeMux()
	handle := func(pattern, name string, h func(http.ResponseWriter, *http.Request) error) {
		handler := jsonHeaderMiddleware(WrapHandlerWithError(h))
		mux.Handle(pattern, otelhttp.WithRouteTag(pattern, WrapHandlerWithMetrics(name, handler)))
	}

	wh := workflowHandlers{workflows: workflows}
	handle("POST /api/v1/workflows", "workflows_start", wh.start)
	handle("GET /api/v1/workflows/current", "workflows_current", wh.current)
	handle("GET /api/v1/workflows/{id}", "workflows_get", wh.get)
	handle("POST /api/v1/workflows/{id}/cancel", "workflows_cancel", wh.cancel)
	handle("POST /api/v1/workflows/{id}/resume", "workflows_resume", wh.resume)

	handle("GET /healthz", "healthz", healthHandler(health))
	mux.Handle("GET /metrics", promhttp.Handler())
	return mux
}
