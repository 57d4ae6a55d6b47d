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

package shared

import (
	"fmt"
	"strings"

	"github.com/go-dataspace/run-console/edc"
	"github.com/go-dataspace/run-console/internal/ui"
)

// PrintCatalog prints the offers of a catalog, either as a table or as JSON.
func PrintCatalog(entries []edc.Evaluation, printJSON bool) error {
	if printJSON {
		return ui.JSON(entries)
	}
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		access := "allowed"
		if !e.Allowed {
			access = "denied: " + e.Reason
		}
		rows = append(rows, []string{e.DatasetID, e.Title, e.OfferID, access})
	}
	ui.Table([]string{"DATASET", "TITLE", "OFFER", "ACCESS"}, rows)
	return nil
}

// PrintAssets prints assets, either as a table or as JSON.
func PrintAssets(assets []edc.Asset, printJSON bool) error {
	if printJSON {
		return ui.JSON(assets)
	}
	rows := make([][]string, 0, len(assets))
	for _, a := range assets {
		rows = append(rows, []string{a.ID, a.Name(), a.DataAddress.Type, a.DataAddress.BaseURL})
	}
	ui.Table([]string{"ID", "NAME", "TYPE", "BASE URL"}, rows)
	return nil
}

// PrintPolicies prints policy definitions, the policies themselves are only printed as JSON.
func PrintPolicies(policies []edc.PolicyDefinition, printJSON bool) error {
	if printJSON {
		return ui.JSON(policies)
	}
	rows := make([][]string, 0, len(policies))
	for _, p := range policies {
		rows = append(rows, []string{p.ID})
	}
	ui.Table([]string{"ID"}, rows)
	return nil
}

// PrintContractDefinitions prints contract definitions, either as a table or as JSON.
func PrintContractDefinitions(defs []edc.ContractDefinition, printJSON bool) error {
	if printJSON {
		return ui.JSON(defs)
	}
	rows := make([][]string, 0, len(defs))
	for _, d := range defs {
		selectors := make([]string, 0, len(d.AssetsSelector))
		for _, c := range d.AssetsSelector {
			selectors = append(selectors, fmt.Sprintf("%s %s %v", c.OperandLeft, c.Operator, c.OperandRight))
		}
		rows = append(rows, []string{d.ID, d.AccessPolicyID, d.ContractPolicyID, strings.Join(selectors, ", ")})
	}
	ui.Table([]string{"ID", "ACCESS POLICY", "CONTRACT POLICY", "ASSETS"}, rows)
	return nil
}

// PrintNegotiation prints the state of a negotiation.
func PrintNegotiation(n edc.NegotiationState, printJSON bool) error {
	if printJSON {
		return ui.JSON(n)
	}
	ui.Fields(
		"Negotiation", n.ID,
		"State", string(n.Status),
		"Agreement", n.AgreementID,
		"Error", n.ErrorDetail,
	)
	return nil
}

// PrintTransfer prints the state of a transfer.
func PrintTransfer(t edc.TransferState, printJSON bool) error {
	if printJSON {
		return ui.JSON(t)
	}
	pairs := []string{
		"Transfer", t.ID,
		"State", string(t.Status),
		"Agreement", t.AgreementID,
		"Asset", t.AssetID,
		"Error", t.ErrorDetail,
	}
	if r := t.Resource; r != nil {
		pairs = append(pairs, "Endpoint", r.Endpoint, "Endpoint type", r.EndpointType)
	}
	ui.Fields(pairs...)
	return nil
}
