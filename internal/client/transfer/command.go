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

// Package transfer offers a command to transfer the data of a finalized negotiation.
package transfer

import (
	"fmt"

	"github.com/go-dataspace/run-console/edc"
	"github.com/go-dataspace/run-console/edc/orchestrator"
	"github.com/go-dataspace/run-console/internal/cfg"
	"github.com/go-dataspace/run-console/internal/client/shared"
	"github.com/go-dataspace/run-console/internal/ui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	Command.Flags().StringVar(&assetID, "asset", "", "id of the asset to transfer")
	Command.Flags().StringVar(&transferType, "type", edc.DefaultTransferType, "transfer type")
	Command.Flags().BoolVar(&resume, "resume", false, "resume polling the transfer with the given id")
	Command.Flags().BoolVarP(&printJSON, "json", "j", false, "output the transfer in JSON format")
}

var (
	assetID      string
	transferType string
	resume       bool
	printJSON    bool
	Command      = &cobra.Command{
		Use:   "transfer <negotiation_id>",
		Short: "Transfer the data of a finalized negotiation.",
		Long: `Starts a transfer process for the agreement of a finalized negotiation and polls it until
it completes or terminates. With --resume the argument is the id of an existing transfer.`,
		Args: cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if !resume && assetID == "" {
				return fmt.Errorf("--asset is required to start a transfer")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, client, err := shared.GetClient()
			if err != nil {
				return err
			}
			ctx, cancel := shared.Interruptible(ctx)
			defer cancel()
			t := orchestrator.NewTransferer(client, cfg.PollOptions(), shared.ObserveTransfer())
			t.SettleOnStarted = viper.GetBool(cfg.SettleOnStarted)

			var state edc.TransferState
			if resume {
				ui.Info(fmt.Sprintf("Resuming transfer %s", args[0]))
				state, err = t.Resume(ctx, args[0], "")
			} else {
				var negotiation edc.NegotiationState
				negotiation, err = client.FetchNegotiationStatus(ctx, args[0])
				if err != nil {
					return fmt.Errorf("could not get negotiation %s: %w", args[0], err)
				}
				counterParty := negotiation.CounterPartyAddress
				if counterParty == "" {
					counterParty = viper.GetString(cfg.ProviderEndpoint)
				}
				ui.Info(fmt.Sprintf("Transferring asset %s of agreement %s", assetID, negotiation.AgreementID))
				state, err = t.Run(ctx, negotiation, edc.TransferDestination{
					CounterPartyAddress: counterParty,
					AssetID:             assetID,
					TransferType:        transferType,
				})
			}
			if err != nil {
				if edc.Resumable(err) && state.ID != "" {
					ui.Warn(fmt.Sprintf("Polling stopped, resume with: transfer --resume %s", state.ID))
				}
				return fmt.Errorf("transfer failed: %w", err)
			}
			return shared.PrintTransfer(state, printJSON)
		},
	}
)
