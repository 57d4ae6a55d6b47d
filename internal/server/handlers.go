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
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/go-dataspace/run-console/edc"
	"github.com/go-dataspace/run-console/edc/session"
	"github.com/go-dataspace/run-console/logging"
)

const maxBodySize = 1 << 20

type workflowHandlers struct {
	workflows Workflows
}

func (wh workflowHandlers) start(w http.ResponseWriter, r *http.Request) error {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		return fmt.Errorf("%w: could not read request body: %w", edc.ErrValidation, err)
	}
	var req session.WorkflowRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return fmt.Errorf("%w: invalid workflow request: %w", edc.ErrValidation, err)
	}
	snap, err := wh.workflows.Start(r.Context(), req)
	if err != nil {
		return err
	}
	w.Header().Set("Location", "/api/v1/workflows/"+snap.ID)
	writeJSON(w, r, http.StatusAccepted, snap)
	return nil
}

func (wh workflowHandlers) current(w http.ResponseWriter, r *http.Request) error {
	snap, err := wh.workflows.Current()
	if err != nil {
		return err
	}
	writeJSON(w, r, http.StatusOK, snap)
	return nil
}

func (wh workflowHandlers) get(w http.ResponseWriter, r *http.Request) error {
	snap, err := wh.workflows.Snapshot(r.Context(), r.PathValue("id"))
	if err != nil {
		return err
	}
	writeJSON(w, r, http.StatusOK, snap)
	return nil
}

func (wh workflowHandlers) cancel(w http.ResponseWriter, r *http.Request) error {
	id := r.PathValue("id")
	if err := wh.workflows.Cancel(id); err != nil {
		return err
	}
	logging.Extract(r.Context()).Info("Cancellation requested", "session_id", id)
	writeJSON(w, r, http.StatusAccepted, struct {
		ID string `json:"id"`
	}{ID: id})
	return nil
}

func (wh workflowHandlers) resume(w http.ResponseWriter, r *http.Request) error {
	snap, err := wh.workflows.Resume(r.Context(), r.PathValue("id"))
	if err != nil {
		return err
	}
	writeJSON(w, r, http.StatusAccepted, snap)
	return nil
}

type healthResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

func healthHandler(health HealthChecker) func(http.ResponseWriter, *http.Request) error {
	return func(w http.ResponseWriter, r *http.Request) error {
		if err := health.Health(r.Context()); err != nil {
			logging.Extract(r.Context()).Warn("Connector is unhealthy", "err", err)
			writeJSON(w, r, http.StatusServiceUnavailable, healthResponse{Status: "unhealthy", Error: err.Error()})
			return nil
		}
		writeJSON(w, r, http.StatusOK, healthResponse{Status: "ok"})
		return nil
	}
}
