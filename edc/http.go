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
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"

	"github.com/go-dataspace/run-console/logging"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

var (
	propagator = otel.GetTextMapPropagator()
	tracer     = otel.Tracer("github.com/go-dataspace/run-console/edc")
)

// Requester sends one HTTP request to the management API and returns the response body.
type Requester interface {
	SendHTTPRequest(ctx context.Context, method string, url *url.URL, reqBody []byte) ([]byte, error)
}

// HTTPRequester is the default requester, it sends JSON requests authenticated with an API key.
type HTTPRequester struct {
	Client *http.Client
	APIKey string
}

func (hr *HTTPRequester) client() *http.Client {
	if hr.Client == nil {
		return http.DefaultClient
	}
	return hr.Client
}

// SendHTTPRequest sends a JSON request. Any non-2xx response is returned as a *ConnectorError.
func (hr *HTTPRequester) SendHTTPRequest(
	ctx context.Context, method string, url *url.URL, reqBody []byte,
) ([]byte, error) {
	header := http.Header{}
	header.Set("Content-Type", "application/json")
	header.Set("Accept", "application/json")
	if hr.APIKey != "" {
		header.Set("X-API-Key", hr.APIKey)
	}
	body, _, err := hr.do(ctx, method, url, reqBody, header)
	return body, err
}

func (hr *HTTPRequester) do(
	ctx context.Context, method string, url *url.URL, reqBody []byte, header http.Header,
) ([]byte, http.Header, error) {
	logger := logging.Extract(ctx).With("method", method, "target_url", url.String())
	ctx, span := tracer.Start(ctx, "SendHTTPRequest")
	defer span.End()

	cerr := &ConnectorError{Method: method, URL: url.String()}

	logger.Debug("Doing HTTP request")
	var payload io.Reader
	if reqBody != nil {
		payload = bytes.NewReader(reqBody)
	}
	req, err := http.NewRequestWithContext(ctx, method, url.String(), payload)
	if err != nil {
		logger.Error("Failed to create request", "err", err)
		cerr.Kind, cerr.Err = ErrValidation, err
		return nil, nil, cerr
	}
	for k, v := range header {
		req.Header[k] = v
	}

	// Inject the trace context into the HTTP headers
	propagator.Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := hr.client().Do(req)
	if err != nil {
		logger.Warn("Failed to send request", "err", err)
		cerr.Kind, cerr.Err = ErrUnreachable, err
		if errors.Is(err, context.Canceled) {
			cerr.Kind = ErrCancelled
		}
		return nil, nil, cerr
	}
	defer func() { _ = resp.Body.Close() }()
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		logger.Warn("Failed to read body", "err", err)
		cerr.Kind, cerr.Err, cerr.StatusCode = ErrUnreachable, err, resp.StatusCode
		return nil, nil, cerr
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		logger.Warn("Received non-2xx status code", "status_code", resp.StatusCode, "body", string(respBody))
		cerr.Kind = classify(resp.StatusCode, string(respBody))
		cerr.StatusCode = resp.StatusCode
		cerr.Body = string(respBody)
		return nil, resp.Header, cerr
	}

	return respBody, resp.Header, nil
}
