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

package cfg_test

import (
	"testing"
	"time"

	"github.com/go-dataspace/run-console/edc/orchestrator"
	"github.com/go-dataspace/run-console/internal/cfg"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckURL(t *testing.T) {
	t.Parallel()
	for _, tc := range []struct {
		in    string
		valid bool
	}{
		{"http://localhost:19193/management", true},
		{"https://connector.example.com", true},
		{"localhost:19193", false},
		{"ftp://connector.example.com", false},
		{"http://", false},
		{"::", false},
	} {
		err := cfg.CheckURL(tc.in)
		if tc.valid {
			assert.NoError(t, err, tc.in)
		} else {
			assert.Error(t, err, tc.in)
		}
	}
}

func TestAddPersistentFlag(t *testing.T) {
	t.Parallel()
	cmd := &cobra.Command{Use: "test"}
	cfg.AddPersistentFlag(cmd, "test.flagDuration", "flag-duration", "", 5*time.Second)
	cfg.AddPersistentFlag(cmd, "test.flagInt", "flag-int", "", 7)

	assert.Equal(t, 5*time.Second, viper.GetDuration("test.flagDuration"))
	require.NoError(t, cmd.PersistentFlags().Set("flag-int", "9"))
	assert.Equal(t, 9, viper.GetInt("test.flagInt"))

	assert.Panics(t, func() {
		cfg.AddPersistentFlag(cmd, "test.flagFloat", "flag-float", "", 1.5)
	})
}

// The connector flags are registered on a single command, these tests share the global viper.
func TestConnectorDefaults(t *testing.T) {
	cmd := &cobra.Command{Use: "test"}
	cfg.AddConnectorFlags(cmd)

	require.NoError(t, cfg.CheckConnectorConfig())
	assert.Equal(t, orchestrator.Options{
		Interval:   orchestrator.DefaultInterval,
		Timeout:    orchestrator.DefaultTimeout,
		Retries:    orchestrator.DefaultRetries,
		RetryDelay: orchestrator.DefaultRetryDelay,
	}, cfg.PollOptions())
	assert.False(t, cfg.Session().SettleOnStarted)

	c := cfg.Connector()
	assert.Equal(t, "http://localhost:19193/management", c.BaseURL)
	require.NotNil(t, c.HTTPClient)
	assert.Equal(t, 30*time.Second, c.HTTPClient.Timeout)

	require.NoError(t, cmd.PersistentFlags().Set("poll-timeout", "1s"))
	assert.Error(t, cfg.CheckConnectorConfig())
	require.NoError(t, cmd.PersistentFlags().Set("poll-timeout", "2m"))

	require.NoError(t, cmd.PersistentFlags().Set("connector-url", "connector:19193"))
	assert.Error(t, cfg.CheckConnectorConfig())
	require.NoError(t, cmd.PersistentFlags().Set("connector-url", "http://localhost:19193/management"))
}
