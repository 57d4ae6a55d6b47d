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

package cfg

import (
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/go-dataspace/run-console/edc"
	"github.com/go-dataspace/run-console/edc/orchestrator"
	"github.com/go-dataspace/run-console/edc/session"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Viper keys of the connector and polling configuration.
const (
	ConnectorURL     = "connector.url"
	APIKey           = "connector.apiKey"
	ParticipantID    = "connector.participantId"
	ProviderEndpoint = "connector.providerEndpoint"
	RequestTimeout   = "connector.requestTimeout"

	PollInterval    = "poll.interval"
	PollTimeout     = "poll.timeout"
	PollRetries     = "poll.retries"
	PollRetryDelay  = "poll.retryDelay"
	SettleOnStarted = "poll.settleOnStarted"
)

// AddConnectorFlags adds the flags that configure the connector and polling to cmd.
func AddConnectorFlags(cmd *cobra.Command) {
	AddPersistentFlag(cmd, ConnectorURL, "connector-url",
		"URL of the management API of the connector.", "http://localhost:19193/management")
	AddPersistentFlag(cmd, APIKey, "api-key", "API key of the management API.", "")
	AddPersistentFlag(cmd, ParticipantID, "participant-id", "Participant id of the connector.", "")
	AddPersistentFlag(cmd, ProviderEndpoint, "provider-endpoint",
		"Dataspace protocol endpoint of the default provider.", "http://localhost:19194/protocol")
	AddPersistentFlag(cmd, RequestTimeout, "request-timeout",
		"Timeout of a single management API request.", 30*time.Second)
	AddPersistentFlag(cmd, PollInterval, "poll-interval",
		"Interval between two status requests.", orchestrator.DefaultInterval)
	AddPersistentFlag(cmd, PollTimeout, "poll-timeout",
		"Time after which polling a negotiation or transfer gives up.", orchestrator.DefaultTimeout)
	AddPersistentFlag(cmd, PollRetries, "poll-retries",
		"Attempts of a status request when the connector is unreachable.", orchestrator.DefaultRetries)
	AddPersistentFlag(cmd, PollRetryDelay, "retry-delay",
		"Initial delay between two attempts of a status request.", orchestrator.DefaultRetryDelay)
	AddPersistentFlag(cmd, SettleOnStarted, "settle-on-started",
		"Consider a transfer done once it is started.", false)
}

// CheckConnectorConfig checks the connector configuration set in viper.
func CheckConnectorConfig() error {
	if err := CheckURL(viper.GetString(ConnectorURL)); err != nil {
		return fmt.Errorf("invalid connector URL: %w", err)
	}
	if p := viper.GetString(ProviderEndpoint); p != "" {
		if err := CheckURL(p); err != nil {
			return fmt.Errorf("invalid provider endpoint: %w", err)
		}
	}
	if viper.GetDuration(PollInterval) <= 0 {
		return fmt.Errorf("poll interval must be positive")
	}
	if viper.GetDuration(PollTimeout) < viper.GetDuration(PollInterval) {
		return fmt.Errorf("poll timeout must not be shorter than the poll interval")
	}
	return nil
}

// CheckURL checks that s is an absolute http(s) URL.
func CheckURL(s string) error {
	u, err := url.Parse(s)
	if err != nil {
		return fmt.Errorf("could not parse %q: %w", s, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%q is not an http(s) URL", s)
	}
	if u.Host == "" {
		return fmt.Errorf("%q has no host", s)
	}
	return nil
}

// Connector returns the connector configuration set in viper.
func Connector() edc.Config {
	c := edc.Config{
		BaseURL:       viper.GetString(ConnectorURL),
		APIKey:        viper.GetString(APIKey),
		ParticipantID: viper.GetString(ParticipantID),
	}
	if t := viper.GetDuration(RequestTimeout); t > 0 {
		c.HTTPClient = &http.Client{Timeout: t}
	}
	return c
}

// PollOptions returns the polling configuration set in viper.
func PollOptions() orchestrator.Options {
	return orchestrator.Options{
		Interval:   viper.GetDuration(PollInterval),
		Timeout:    viper.GetDuration(PollTimeout),
		Retries:    viper.GetInt(PollRetries),
		RetryDelay: viper.GetDuration(PollRetryDelay),
	}
}

// Session returns the session configuration set in viper.
func Session() session.Config {
	return session.Config{
		Options:         PollOptions(),
		SettleOnStarted: viper.GetBool(SettleOnStarted),
	}
}
