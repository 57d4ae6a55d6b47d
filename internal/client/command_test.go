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

package client_test

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-dataspace/run-console/edc"
	"github.com/go-dataspace/run-console/edc/edctest"
	"github.com/go-dataspace/run-console/internal/cfg"
	"github.com/go-dataspace/run-console/internal/cli"
	"github.com/go-dataspace/run-console/internal/client"
	"github.com/go-dataspace/run-console/internal/ui"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The commands share global flags and viper, so the steps run in sequence.
func TestCommands(t *testing.T) {
	conn := edctest.New()
	t.Cleanup(conn.Close)

	viper.Set(cfg.ConnectorURL, conn.ManagementURL())
	viper.Set(cfg.APIKey, edctest.APIKey)
	viper.Set(cfg.ProviderEndpoint, conn.ProtocolURL())
	viper.Set(cfg.PollInterval, 10*time.Millisecond)
	viper.Set(cfg.PollTimeout, 2*time.Second)
	viper.Set(cfg.PollRetries, 1)
	viper.Set(cfg.PollRetryDelay, time.Millisecond)
	cli.Store(cli.GenParams(context.Background(), "error", false))

	var out bytes.Buffer
	prevOut := ui.Out
	ui.Out = &out
	t.Cleanup(func() { ui.Out = prevOut })

	run := func(args ...string) error {
		out.Reset()
		client.Command.SetArgs(append([]string{"--no-colour"}, args...))
		return client.Command.Execute()
	}

	require.NoError(t, run("assets", "create", "--id", "asset-1", "--name", "Sample Asset",
		"--base-url", "http://data-api:8000/files/list", "-p", "owner=console"))
	require.Error(t, run("assets", "create", "--id", "asset-2", "-p", "no-separator"))
	require.NoError(t, run("assets", "list"))
	assert.Contains(t, out.String(), "Sample Asset")

	require.NoError(t, run("policies", "create", "--id", "policy-1"))
	require.NoError(t, run("contractdefinitions", "create", "--id", "cd-1",
		"--access-policy", "policy-1", "--asset", "asset-1"))
	err := run("contractdefinitions", "create", "--id", "cd-2", "--access-policy", "policy-x")
	require.ErrorIs(t, err, edc.ErrReference)

	require.NoError(t, run("getcatalog", "--json"))
	var evs []edc.Evaluation
	require.NoError(t, json.Unmarshal(out.Bytes(), &evs))
	require.Len(t, evs, 1)
	assert.True(t, evs[0].Allowed)
	offerID := evs[0].OfferID
	assert.Equal(t, edctest.OfferID("cd-1", "asset-1"), offerID)

	require.ErrorIs(t, run("negotiate", "unknown-offer"), edc.ErrNotFound)
	require.NoError(t, run("negotiate", offerID, "--json"))
	var neg edc.NegotiationState
	require.NoError(t, json.Unmarshal(out.Bytes(), &neg))
	assert.Equal(t, edctest.AgreementID, neg.AgreementID)

	require.NoError(t, run("transfer", neg.ID, "--asset", "asset-1", "--json"))
	var tr edc.TransferState
	require.NoError(t, json.Unmarshal(out.Bytes(), &tr))
	assert.Equal(t, edctest.TransferID, tr.ID)
	require.NotNil(t, tr.Resource)

	file := filepath.Join(t.TempDir(), "data.json")
	require.NoError(t, run("download", tr.ID, "-o", file))
	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.JSONEq(t, `{"hello":"world"}`, string(data))
}
