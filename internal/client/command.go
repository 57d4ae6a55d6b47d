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

// Package client contains the client subcommands, which talk to the management API of the
// connector directly.
package client

import (
	"github.com/fatih/color"
	"github.com/go-dataspace/run-console/internal/cfg"
	"github.com/go-dataspace/run-console/internal/client/assets"
	"github.com/go-dataspace/run-console/internal/client/contractdefinitions"
	"github.com/go-dataspace/run-console/internal/client/download"
	"github.com/go-dataspace/run-console/internal/client/getcatalog"
	"github.com/go-dataspace/run-console/internal/client/negotiate"
	"github.com/go-dataspace/run-console/internal/client/policies"
	"github.com/go-dataspace/run-console/internal/client/transfer"
	"github.com/go-dataspace/run-console/internal/client/workflow"
	"github.com/spf13/cobra"
)

var (
	noColour bool
	Command  = &cobra.Command{
		Use:   "client",
		Short: "Run a RUN-CONSOLE client command.",
		Long:  `Run a RUN-CONSOLE client command against the management API of the connector.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.CheckConnectorConfig(); err != nil {
				return err
			}
			if noColour {
				color.NoColor = true
			}
			return nil
		},
	}
)

func init() {
	Command.PersistentFlags().BoolVar(&noColour, "no-colour", false, "Disable colour in output.")
	Command.AddCommand(assets.Command)
	Command.AddCommand(policies.Command)
	Command.AddCommand(contractdefinitions.Command)
	Command.AddCommand(getcatalog.Command)
	Command.AddCommand(negotiate.Command)
	Command.AddCommand(transfer.Command)
	Command.AddCommand(download.Command)
	Command.AddCommand(workflow.Command)
}
