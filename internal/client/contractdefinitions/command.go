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

// Package contractdefinitions offers commands to create and list contract definitions.
package contractdefinitions

import (
	"fmt"

	"github.com/go-dataspace/run-console/edc"
	"github.com/go-dataspace/run-console/internal/client/shared"
	"github.com/go-dataspace/run-console/internal/ui"
	"github.com/spf13/cobra"
)

var (
	id             string
	accessPolicy   string
	contractPolicy string
	assetID        string

	offset    int
	limit     int
	printJSON bool
)

func init() {
	createCmd.Flags().StringVar(&id, "id", "", "id of the contract definition")
	createCmd.Flags().StringVar(&accessPolicy, "access-policy", "", "id of the access policy")
	createCmd.Flags().StringVar(&contractPolicy, "contract-policy", "",
		"id of the contract policy, defaults to the access policy")
	createCmd.Flags().StringVar(&assetID, "asset", "", "id of the asset offered, all assets when empty")
	_ = createCmd.MarkFlagRequired("id")
	_ = createCmd.MarkFlagRequired("access-policy")

	listCmd.Flags().IntVar(&offset, "offset", 0, "offset of the first contract definition")
	listCmd.Flags().IntVar(&limit, "limit", 50, "maximum number of contract definitions")
	listCmd.Flags().BoolVarP(&printJSON, "json", "j", false, "output contract definitions in JSON format")

	Command.AddCommand(createCmd, listCmd)
}

// Command groups the contract definition commands.
var Command = &cobra.Command{
	Use:   "contractdefinitions",
	Short: "Manage the contract definitions of the connector.",
}

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a contract definition.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, client, err := shared.GetClient()
		if err != nil {
			return err
		}
		def := edc.ContractDefinition{
			ID:               id,
			AccessPolicyID:   accessPolicy,
			ContractPolicyID: contractPolicy,
		}
		if def.ContractPolicyID == "" {
			def.ContractPolicyID = accessPolicy
		}
		if assetID != "" {
			def.AssetsSelector = edc.SelectAsset(assetID)
		}
		created, err := client.CreateContractDefinition(ctx, def)
		if err != nil {
			return fmt.Errorf("could not create contract definition %s: %w", id, err)
		}
		ui.Info(fmt.Sprintf("Contract definition %s created", created))
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the contract definitions of the connector.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, client, err := shared.GetClient()
		if err != nil {
			return err
		}
		defs, err := client.ListContractDefinitions(ctx, edc.QuerySpec{Offset: offset, Limit: limit})
		if err != nil {
			return fmt.Errorf("could not list contract definitions: %w", err)
		}
		return shared.PrintContractDefinitions(defs, printJSON)
	},
}
