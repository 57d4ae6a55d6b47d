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

// Package shared contains what the client subcommands have in common.
package shared

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-dataspace/run-console/edc"
	"github.com/go-dataspace/run-console/edc/statemachine"
	"github.com/go-dataspace/run-console/internal/cfg"
	"github.com/go-dataspace/run-console/internal/cli"
	"github.com/go-dataspace/run-console/internal/ui"
	"github.com/spf13/viper"
)

// GetClient returns the context of the command and a management API client configured from
// viper.
func GetClient() (context.Context, *edc.Client, error) {
	p, err := cli.Load()
	if err != nil {
		return nil, nil, err
	}
	client, err := edc.New(cfg.Connector())
	if err != nil {
		return nil, nil, fmt.Errorf("couldn't initialise connector client: %w", err)
	}
	return p.Context(), client, nil
}

// Provider returns the provider endpoint given as argument, or the configured one.
func Provider(args []string) (string, error) {
	provider := viper.GetString(cfg.ProviderEndpoint)
	if len(args) > 0 {
		provider = args[0]
	}
	if err := cfg.CheckURL(provider); err != nil {
		return "", fmt.Errorf("invalid provider endpoint: %w", err)
	}
	return provider, nil
}

// Interruptible returns a context that is cancelled on SIGINT or SIGTERM, so polling stops at
// its next poll boundary.
func Interruptible(ctx context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
}

// ObserveNegotiation returns a function reporting every status change of a negotiation.
func ObserveNegotiation() func(edc.NegotiationState) {
	var last statemachine.NegotiationStatus
	return func(n edc.NegotiationState) {
		if n.Status != last {
			last = n.Status
			ui.Info(fmt.Sprintf("Negotiation %s is %s", n.ID, n.Status))
		}
	}
}

// ObserveTransfer returns a function reporting every status change of a transfer.
func ObserveTransfer() func(edc.TransferState) {
	var last statemachine.TransferStatus
	return func(t edc.TransferState) {
		if t.Status != last {
			last = t.Status
			ui.Info(fmt.Sprintf("Transfer %s is %s", t.ID, t.Status))
		}
	}
}
