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

// Package assets offers commands to create and list assets.
package assets

import (
	"fmt"
	"strings"

	"github.com/go-dataspace/run-console/edc"
	"github.com/go-dataspace/run-console/internal/client/shared"
	"github.com/go-dataspace/run-console/internal/ui"
	"github.com/spf13/cobra"
)

var (
	id          string
	name        string
	description string
	addrType    string
	baseURL     string
	properties  []string

	offset    int
	limit     int
	printJSON bool
)

func init() {
	createCmd.Flags().StringVar(&id, "id", "", "id of the asset")
	createCmd.Flags().StringVar(&name, "name", "", "name of the asset")
	createCmd.Flags().StringVar(&description, "description", "", "description of the asset")
	createCmd.Flags().StringVar(&addrType, "type", "HttpData", "type of the data address")
	createCmd.Flags().StringVar(&baseURL, "base-url", "", "base URL of the data address")
	createCmd.Flags().StringArrayVarP(&properties, "property", "p", nil, "extra property as key=value")
	_ = createCmd.MarkFlagRequired("id")

	listCmd.Flags().IntVar(&offset, "offset", 0, "offset of the first asset")
	listCmd.Flags().IntVar(&limit, "limit", 50, "maximum number of assets")
	listCmd.Flags().BoolVarP(&printJSON, "json", "j", false, "output assets in JSON format")

	Command.AddCommand(createCmd, listCmd)
}

// Command groups the asset commands.
var Command = &cobra.Command{
	Use:   "assets",
	Short: "Manage the assets of the connector.",
}

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an asset.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, client, err := shared.GetClient()
		if err != nil {
			return err
		}
		asset, err := buildAsset()
		if err != nil {
			return err
		}
		created, err := client.CreateAsset(ctx, asset)
		if err != nil {
			return fmt.Errorf("could not create asset %s: %w", id, err)
		}
		ui.Info(fmt.Sprintf("Asset %s created", created))
		return nil
	},
}

func buildAsset() (edc.Asset, error) {
	props := map[string]any{}
	if name != "" {
		props["name"] = name
	}
	if description != "" {
		props["description"] = description
	}
	for _, p := range properties {
		k, v, ok := strings.Cut(p, "=")
		if !ok || k == "" {
			return edc.Asset{}, fmt.Errorf("property %q is not of the form key=value", p)
		}
		props[k] = v
	}
	return edc.Asset{
		ID:          id,
		Properties:  props,
		DataAddress: edc.DataAddress{Type: addrType, BaseURL: baseURL},
	}, nil
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the assets of the connector.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, client, err := shared.GetClient()
		if err != nil {
			return err
		}
		assets, err := client.ListAssets(ctx, edc.QuerySpec{Offset: offset, Limit: limit})
		if err != nil {
			return fmt.Errorf("could not list assets: %w", err)
		}
		return shared.PrintAssets(assets, printJSON)
	},
}
