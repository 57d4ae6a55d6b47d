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

package edc

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-dataspace/run-console/jsonld"
)

type queryRequest struct {
	Context jsonld.Context `json:"@context"`
	Type    string         `json:"@type"`
	QuerySpec
}

// ListAssets returns the assets registered with the connector.
func (c *Client) ListAssets(ctx context.Context, q QuerySpec) ([]Asset, error) {
	return list[Asset](ctx, c, "list_assets", q, "assets")
}

// ListPolicies returns the policy definitions registered with the connector.
func (c *Client) ListPolicies(ctx context.Context, q QuerySpec) ([]PolicyDefinition, error) {
	return list[PolicyDefinition](ctx, c, "list_policies", q, "policydefinitions")
}

// ListContractDefinitions returns the contract definitions registered with the connector.
func (c *Client) ListContractDefinitions(ctx context.Context, q QuerySpec) ([]ContractDefinition, error) {
	return list[ContractDefinition](ctx, c, "list_contract_definitions", q, "contractdefinitions")
}

func list[T any](ctx context.Context, c *Client, op string, q QuerySpec, resource string) ([]T, error) {
	body, err := ValidateAndMarshal(ctx, queryRequest{
		Context:   jsonld.EDCContext(),
		Type:      "QuerySpec",
		QuerySpec: q,
	})
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", resource, err)
	}
	resp, err := c.call(ctx, op, http.MethodPost, c.endpoint(resource, "request"), body)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", resource, err)
	}
	var raw []json.RawMessage
	if err := json.Unmarshal(resp, &raw); err != nil {
		return nil, fmt.Errorf("list %s: %w: %w", resource, ErrProtocolViolation, err)
	}
	items := make([]T, 0, len(raw))
	for _, r := range raw {
		item, err := UnmarshalAndValidate(ctx, r, *new(T))
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", resource, err)
		}
		items = append(items, item)
	}
	return items, nil
}
