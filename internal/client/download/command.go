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

// Package download offers a command to download the data of a transfer.
package download

import (
	"fmt"
	"os"

	"github.com/go-dataspace/run-console/internal/client/shared"
	"github.com/go-dataspace/run-console/internal/ui"
	"github.com/spf13/cobra"
)

func init() {
	Command.Flags().StringVarP(&output, "output", "o", "", "file to write the data to, stdout when empty")
}

var (
	output  string
	Command = &cobra.Command{
		Use:   "download <transfer_id>",
		Short: "Download the data of a transfer.",
		Long: `Fetches the data address of a started or completed pull transfer, and downloads the data
it points to.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, client, err := shared.GetClient()
			if err != nil {
				return err
			}
			ref, err := client.FetchDataAddress(ctx, args[0])
			if err != nil {
				return fmt.Errorf("could not get data address of transfer %s: %w", args[0], err)
			}
			ui.Info(fmt.Sprintf("Downloading %s", ref.Endpoint))
			data, contentType, err := client.FetchData(ctx, ref)
			if err != nil {
				return fmt.Errorf("could not download data of transfer %s: %w", args[0], err)
			}
			if output == "" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			if err := os.WriteFile(output, data, 0o600); err != nil {
				return fmt.Errorf("could not write %s: %w", output, err)
			}
			ui.Info(fmt.Sprintf("%d bytes of %s written to %s", len(data), contentType, output))
			return nil
		},
	}
)
