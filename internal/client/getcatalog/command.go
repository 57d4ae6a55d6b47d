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

// Package getcatalog gets a catalog from the requested dataspace provider.
package getcatalog

import (
	"fmt"

	"github.com/go-dataspace/run-console/edc"
	"github.com/go-dataspace/run-console/internal/client/shared"
	"github.com/go-dataspace/run-console/internal/ui"
	"github.com/spf13/cobra"
)

func init() {
	Command.Flags().BoolVarP(&printJSON, "json", "j", false, "output catalog in JSON format")
	Command.Flags().StringVar(&participant, "participant", "",
		"evaluate the offers for this participant instead of the configured one")
	Command.Flags().BoolVar(&accessibleOnly, "accessible", false, "only show offers the participant is admitted to")
}

var (
	printJSON      bool
	participant    string
	accessibleOnly bool
	Command        = &cobra.Command{
		Use:   "getcatalog [provider_endpoint]",
		Short: "Get catalog from dataspace provider.",
		Long: `Requests the catalog of a dataspace provider through the connector, and shows which
offers the participant is admitted to. The configured provider endpoint is used when none is given.`,
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
			if participant == "" {
				participant = client.ParticipantID()
			}

			ui.Info(fmt.Sprintf("Fetching catalogue from %s", provider))
			entries, err := client.QueryCatalog(ctx, provider)
			if err != nil {
				return fmt.Errorf("could not get catalogue from %s: %w", provider, err)
			}
			ui.Info(fmt.Sprintf("Catalogue received, %d offers", len(entries)))
			evs := edc.Evaluate(entries, participant)
			if accessibleOnly {
				allowed := evs[:0]
				for _, ev := range evs {
					if ev.Allowed {
						allowed = append(allowed, ev)
					}
				}
				evs = allowed
			}
			return shared.PrintCatalog(evs, printJSON)
		},
	}
)
