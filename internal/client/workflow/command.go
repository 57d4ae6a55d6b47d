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

// Package workflow offers a command that runs the whole workflow, from creating an asset to
// transferring its data, with a progress list.
package workflow

import (
	"fmt"

	"github.com/go-dataspace/run-console/edc"
	"github.com/go-dataspace/run-console/edc/session"
	"github.com/go-dataspace/run-console/internal/cfg"
	"github.com/go-dataspace/run-console/internal/client/shared"
	"github.com/go-dataspace/run-console/internal/ui"
	"github.com/go-dataspace/run-console/odrl"
	"github.com/spf13/cobra"
)

func init() {
	f := Command.Flags()
	f.StringVar(&assetID, "asset-id", "", "id of the asset to create")
	f.StringVar(&assetName, "asset-name", "", "name of the asset")
	f.StringVar(&baseURL, "base-url", "", "base URL of the data of the asset")
	f.StringVar(&policyID, "policy-id", "", "id of the policy to create, defaults to <asset-id>-policy")
	f.StringVar(&participant, "participant", "", "only admit this participant, everyone is admitted when empty")
	f.StringVar(&definitionID, "contract-definition-id", "",
		"id of the contract definition to create, defaults to <asset-id>-definition")
	f.StringVar(&transferType, "transfer-type", edc.DefaultTransferType, "transfer type")
	f.BoolVarP(&printJSON, "json", "j", false, "output the final snapshot in JSON format")
	_ = Command.MarkFlagRequired("asset-id")
	_ = Command.MarkFlagRequired("base-url")
}

var (
	assetID      string
	assetName    string
	baseURL      string
	policyID     string
	participant  string
	definitionID string
	transferType string
	printJSON    bool
	Command      = &cobra.Command{
		Use:   "workflow [provider_endpoint]",
		Short: "Run the whole workflow against the connector.",
		Long: `Creates an asset, a policy and a contract definition, looks the offer up in the provider
catalog, negotiates it and transfers the data. The configured provider endpoint is used when none
is given.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, client, err := shared.GetClient()
			if err != nil {
				return err
			}
			provider, err := shared.Provider(args)
			if err != nil {
				return err
			}
			req, err := request(provider)
			if err != nil {
				return err
			}
			if err := req.Validate(ctx); err != nil {
				return err
			}
			ctx, cancel := shared.Interruptible(ctx)
			defer cancel()

			s := session.New(client, cfg.Session(), req, progress())
			runErr := s.Run(ctx)
			snap := s.Snapshot()
			if snap.State == session.StateSuspended {
				if st, ok := snap.Failed(); ok {
					ui.Warn(fmt.Sprintf("Workflow suspended at step %s, polling %s can be resumed with the %s command",
						st.Name, st.Ref, st.Name))
				}
			}
			if printJSON {
				if err := ui.JSON(snap); err != nil {
					return err
				}
			}
			if runErr != nil {
				return fmt.Errorf("workflow %s: %w", snap.State, runErr)
			}
			ui.Info("Workflow succeeded")
			if snap.Transfer != nil && snap.Transfer.Resource != nil {
				ui.Info(fmt.Sprintf("Download the data with: download %s", snap.Transfer.ID))
			}
			return nil
		},
	}
)

func request(provider string) (session.WorkflowRequest, error) {
	set := odrl.AllowAll()
	if participant != "" {
		set = odrl.RestrictToParticipant(participant)
	}
	doc, err := set.Document()
	if err != nil {
		return session.WorkflowRequest{}, err
	}
	pid, did := policyID, definitionID
	if pid == "" {
		pid = assetID + "-policy"
	}
	if did == "" {
		did = assetID + "-definition"
	}
	props := map[string]any{}
	if assetName != "" {
		props["name"] = assetName
	}
	return session.WorkflowRequest{
		Asset: edc.Asset{
			ID:          assetID,
			Properties:  props,
			DataAddress: edc.DataAddress{Type: "HttpData", BaseURL: baseURL},
		},
		Policy:             edc.PolicyDefinition{ID: pid, Policy: doc},
		ContractDefinition: edc.ContractDefinition{ID: did},
		ProviderEndpoint:   provider,
		TransferType:       transferType,
	}, nil
}

// progress prints a step whenever its status changes.
func progress() func(session.Snapshot) {
	seen := map[session.StepName]session.StepStatus{}
	return func(snap session.Snapshot) {
		for _, st := range snap.Steps {
			if seen[st.Name] == st.Status {
				continue
			}
			seen[st.Name] = st.Status
			if st.Status == session.StepPending {
				continue
			}
			detail := st.Ref
			if st.Error != "" {
				detail = string(st.ErrorKind) + ": " + st.Error
			}
			ui.Step(string(st.Status), string(st.Name), detail)
		}
	}
}
