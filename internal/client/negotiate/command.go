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

// Package negotiate offers a command to negotiate a contract for an offer.
package negotiate

import (
	"context"
	"fmt"

	"github.com/go-dataspace/run-console/edc"
	"github.com/go-dataspace/run-console/edc/orchestrator"
	"github.com/go-dataspace/run-console/internal/cfg"
	"github.com/go-dataspace/run-console/internal/client/shared"
	"github.com/go-dataspace/run-console/internal/ui"
	"github.com/spf13/cobra"
)

func init() {
	Command.Flags().StringVar(&provider, "provider", "", "protocol endpoint of the provider, defaults to the configured one")
	Command.Flags().StringVar(&providerID, "provider-id", "",
		"participant id of the provider, skips the catalog lookup of the offer")
	Command.Flags().BoolVar(&resume, "resume", false, "resume polling the negotiation with the given id")
	Command.Flags().BoolVarP(&printJSON, "json", "j", false, "output the negotiation in JSON format")
}

var (
	provider   string
	providerID string
	resume     bool
	printJSON  bool
	Command    = &cobra.Command{
		Use:   "negotiate <offer_id>",
		Short: "Negotiate a contract for an offer.",
		Long: `Starts a contract negotiation for an offer of the provider catalog and polls it until it
is finalized or terminated. With --resume the argument is the id of an existing negotiation.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, client, err := shared.GetClient()
			if err != nil {
				return err
			}
			ctx, cancel := shared.Interruptible(ctx)
			defer cancel()
			n := orchestrator.NewNegotiator(client, cfg.PollOptions(), shared.ObserveNegotiation())

			var state edc.NegotiationState
			if resume {
				ui.Info(fmt.Sprintf("Resuming negotiation %s", args[0]))
				state, err = n.Resume(ctx, args[0], "")
			} else {
				var entry edc.CatalogEntry
				entry, err = findOffer(ctx, client, args[0])
				if err != nil {
					return err
				}
				ui.Info(fmt.Sprintf("Negotiating offer %s with %s", entry.OfferID, entry.ProviderEndpoint))
				state, err = n.Run(ctx, entry)
			}
			if err != nil {
				if edc.Resumable(err) && state.ID != "" {
					ui.Warn(fmt.Sprintf("Polling stopped, resume with: negotiate --resume %s", state.ID))
				}
				return fmt.Errorf("negotiation failed: %w", err)
			}
			return shared.PrintNegotiation(state, printJSON)
		},
	}
)

func findOffer(ctx context.Context, client *edc.Client, offerID string) (edc.CatalogEntry, error) {
	var args []string
	if provider != "" {
		args = []string{provider}
	}
	endpoint, err := shared.Provider(args)
	if err != nil {
		return edc.CatalogEntry{}, err
	}
	if providerID != "" {
		return edc.EntryFromOfferID(offerID, endpoint, providerID)
	}
	entries, err := client.QueryCatalog(ctx, endpoint)
	if err != nil {
		return edc.CatalogEntry{}, fmt.Errorf("could not get catalogue from %s: %w", endpoint, err)
	}
	for _, e := range entries {
		if e.OfferID == offerID {
			return e, nil
		}
	}
	return edc.CatalogEntry{}, fmt.Errorf("%w: offer %s is not in the catalogue of %s", edc.ErrNotFound, offerID, endpoint)
}
