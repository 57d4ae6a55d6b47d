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
	"errors"
	"net/http"

	"github.com/go-dataspace/run-console/edc"
	"github.com/go-dataspace/run-console/edc/session"
	"github.com/go-dataspace/run-console/logging"
)

// APIError is the body of every error response.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// WrapHandlerWithError wraps a http handler that returns an error into a more generic http.Handler.
// Errors of a known kind are mapped to their status code, anything else is a 500 with a generic
// message.
func WrapHandlerWithError(h func(w http.ResponseWriter, r *http.Request) error) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		err := h(w, r)
		if err == nil {
			return
		}
		logger := logging.Extract(r.Context())
		status, body := errorResponse(err)
		if status >= http.StatusInternalServerError {
			logger.Error("HTTP handler returned error", "err", err)
		} else {
			logger.Info("HTTP handler rejected request", "status", status, "err", err)
		}
		writeJSON(w, r, status, body)
	})
}

func errorResponse(err error) (int, APIError) {
	switch {
	case errors.Is(err, session.ErrNotFound):
		return http.StatusNotFound, APIError{Code: "NOT_FOUND", Message: err.Error()}
	case errors.Is(err, session.ErrNotPolling), errors.Is(err, session.ErrNotSuspended):
		return http.StatusConflict, APIError{Code: "INVALID_STATE", Message: err.Error()}
	}
	kind := edc.KindOf(err)
	var status int
	switch kind {
	case edc.KindValidation:
		status = http.StatusBadRequest
	case edc.KindConflict:
		status = http.StatusConflict
	case edc.KindReference:
		status = http.StatusUnprocessableEntity
	case edc.KindNotFound:
		status = http.StatusNotFound
	case edc.KindUnreachable, edc.KindProtocolViolation:
		status = http.StatusBadGateway
	case edc.KindTimeout:
		status = http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError, APIError{Code: "INTERNAL", Message: "Internal Server Error"}
	}
	return status, APIError{Code: string(kind), Message: err.Error()}
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Extract(r.Context()).Error("Error while encoding response", "err", err)
	}
}
