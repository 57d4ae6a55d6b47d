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

// Package policies offers commands to create and list policy definitions.
package policies

import (
	"fmt"

	"github.com/go-dataspace/run-console/edc"
	"github.com/go-dataspace/run-console/internal/client/shared"
	"github.com/go-dataspace/run-console/internal/ui"
	"github.com/go-dataspace/run-console/odrl"
	"github.com/spf13/cobra"
)

var (
	id          string
	participant string

	offset    int
	limit     int
	printJSON bool
)

func init() {
	createCmd.Flags().StringVar(&id, "id", "", "id of the policy definition")
	createCmd.Flags().StringVar(&participant, "participant", "",
		"only admit this participant, everyone is admitted when empty")
	_ = createCmd.MarkFlagRequired("id")

	listCmd.Flags().IntVar(&offset, "offset", 0, "offset of the first policy")
	listCmd.Flags().IntVar(&limit, "limit", 50, "maximum number of policies")
	listCmd.Flags().BoolVarP(&printJSON, "json", "j", false, "output policies in JSON format")

	Command.AddCommand(createCmd, listCmd)
}

// Command groups the policy commands.
var Command = &cobra.Command{
	Use:   "policies",
	Short: "Manage the policy definitions of the connector.",
}

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a policy definition.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, client, err := shared.GetClient()
		if err != nil {
			return err
		}
		set := odrl.AllowAll()
		if participant != "" {
			set = odrl.RestrictToParticipant(participant)
		}
		doc, err := set.Document()
		if err != nil {
			return err
		}
		created, err := client.CreatePolicy(ctx, edc.PolicyDefinition{ID: id, Policy: doc})
		if err != nil {
			return fmt.Errorf("could not create policy %s: %w", id, err)
		}
		ui.Info(fmt.Sprintf("Policy %s created", created))
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the policy definitions of the connector.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, client, err := shared.GetClient()
		if err != nil {
			return err
		}
		policies, err := client.ListPolicies(ctx, edc.QuerySpec{Offset: offset, Limit: limit})
		if err != nil {
			return fmt.Errorf("could not list policies: %w", err)
		}
		return shared.PrintPolicies(policies, printJSON)
	},
}
