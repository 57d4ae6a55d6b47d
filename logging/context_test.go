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

package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-dataspace/run-console/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractFallsBackToDefault(t *testing.T) {
	t.Parallel()
	assert.Equal(t, slog.Default(), logging.Extract(context.Background()))
}

func TestInjectLabels(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	ctx := logging.Inject(context.Background(), logging.New(&buf, "debug", false))
	ctx, logger := logging.InjectLabels(ctx, "session", "s-1")
	logger.Info("first")
	logging.Extract(ctx).Info("second")

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)
	for _, line := range lines {
		var entry map[string]any
		require.NoError(t, json.Unmarshal(line, &entry))
		assert.Equal(t, "s-1", entry["session"])
	}
}

func TestParseLevelPanicsOnUnknown(t *testing.T) {
	t.Parallel()
	assert.Equal(t, slog.LevelWarn, logging.ParseLevel("warn"))
	assert.Panics(t, func() { logging.ParseLevel("verbose") })
}

func TestMiddlewareInjectsLogger(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	h := logging.NewMiddleware(logging.New(&buf, "info", false))(
		http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
			logging.Extract(r.Context()).Info("handled")
		}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/workflows/current", nil))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "/api/v1/workflows/current", entry["path"])
	assert.NotEmpty(t, entry["request_id"])
}
