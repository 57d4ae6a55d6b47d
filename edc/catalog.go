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
	"maps"
	"net/http"

	"github.com/go-dataspace/run-console/jsonld"
	"github.com/go-dataspace/run-console/logging"
	"github.com/go-dataspace/run-console/odrl"
	"github.com/go-dataspace/run-console/offerid"
)

type querySpecDocument struct {
	Type string `json:"@type"`
	QuerySpec
}

type catalogRequest struct {
	Context             jsonld.Context    `json:"@context"`
	Type                string            `json:"@type"`
	CounterPartyAddress string            `json:"counterPartyAddress" validate:"required,url"`
	Protocol            string            `json:"protocol" validate:"required"`
	QuerySpec           querySpecDocument `json:"querySpec"`
}

// QueryCatalog requests the catalog of a provider and returns its offers, in catalog order.
// An empty catalog is not an error.
func (c *Client) QueryCatalog(ctx context.Context, providerEndpoint string) ([]CatalogEntry, error) {
	body, err := ValidateAndMarshal(ctx, catalogRequest{
		Context:             jsonld.EDCContext(),
		Type:                "CatalogRequest",
		CounterPartyAddress: providerEndpoint,
		Protocol:            Protocol,
		QuerySpec:           querySpecDocument{Type: "QuerySpec"},
	})
	if err != nil {
		return nil, fmt.Errorf("query catalog: %w", err)
	}
	resp, err := c.call(ctx, "query_catalog", http.MethodPost, c.endpoint("catalog", "request"), body)
	if err != nil {
		return nil, fmt.Errorf("query catalog of %s: %w", providerEndpoint, err)
	}
	entries, err := parseCatalog(ctx, resp, providerEndpoint)
	if err != nil {
		return nil, fmt.Errorf("query catalog of %s: %w", providerEndpoint, err)
	}
	return entries, nil
}

// QueryCatalogFor is QueryCatalog, but only returns the offers the participant would be admitted
// to. An empty participant id means the participant id of the client.
func (c *Client) QueryCatalogFor(
	ctx context.Context, providerEndpoint, participantID string,
) ([]CatalogEntry, error) {
	entries, err := c.QueryCatalog(ctx, providerEndpoint)
	if err != nil {
		return nil, err
	}
	if participantID == "" {
		participantID = c.participantID
	}
	accessible := make([]CatalogEntry, 0, len(entries))
	for _, ev := range Evaluate(entries, participantID) {
		if ev.Allowed {
			accessible = append(accessible, ev.CatalogEntry)
		}
	}
	return accessible, nil
}

// Evaluation is a catalog entry with the decision if a participant is admitted to it.
type Evaluation struct {
	CatalogEntry
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason"`
}

// Evaluate evaluates the offer policy of every entry for a participant.
func Evaluate(entries []CatalogEntry, participantID string) []Evaluation {
	evs := make([]Evaluation, len(entries))
	for i, e := range entries {
		allowed, reason := odrl.EvaluateParticipant(e.Offer, participantID)
		evs[i] = Evaluation{CatalogEntry: e, Allowed: allowed, Reason: reason}
	}
	return evs
}

func parseCatalog(ctx context.Context, body []byte, providerEndpoint string) ([]CatalogEntry, error) {
	logger := logging.Extract(ctx)
	var catalog map[string]any
	if err := json.Unmarshal(body, &catalog); err != nil {
		return nil, fmt.Errorf("%w: couldn't unmarshal catalog: %w", ErrProtocolViolation, err)
	}
	if catalog == nil {
		return nil, fmt.Errorf("%w: catalog is not an object", ErrProtocolViolation)
	}
	providerID := stringValue(odrl.Lookup(catalog, "participantId"))

	entries := make([]CatalogEntry, 0)
	for _, d := range odrl.List(odrl.Lookup(catalog, "dataset")) {
		dataset, ok := d.(map[string]any)
		if !ok {
			logger.Warn("Skipping malformed dataset", "dataset", d)
			continue
		}
		datasetID := stringValue(dataset["@id"])
		title := stringValue(odrl.Lookup(dataset, "title"))
		if title == "" {
			title = stringValue(odrl.Lookup(dataset, "name"))
		}
		for _, o := range odrl.List(odrl.Lookup(dataset, "hasPolicy")) {
			offer, ok := o.(map[string]any)
			if !ok || stringValue(offer["@id"]) == "" {
				logger.Warn("Skipping offer without id", "dataset_id", datasetID)
				continue
			}
			entry := CatalogEntry{
				DatasetID:        datasetID,
				Title:            title,
				OfferID:          stringValue(offer["@id"]),
				ProviderID:       providerID,
				ProviderEndpoint: providerEndpoint,
				Offer:            offer,
			}
			if id, err := offerid.Parse(entry.OfferID); err == nil {
				entry.ContractDefinitionID = id.DefinitionID
				if entry.DatasetID == "" {
					entry.DatasetID = id.AssetID
				}
			} else {
				logger.Debug("Offer id is not an EDC offer id", "offer_id", entry.OfferID, "err", err)
			}
			entries = append(entries, entry)
		}
	}
	return entries, nil
}

// EntryFromOfferID builds a catalog entry from nothing but an offer id and the provider. The
// dataset id is taken from the offer id.
func EntryFromOfferID(offerID, providerEndpoint, providerID string) (CatalogEntry, error) {
	id, err := offerid.Parse(offerID)
	if err != nil {
		return CatalogEntry{}, fmt.Errorf("%w: %w", ErrValidation, err)
	}
	return CatalogEntry{
		DatasetID:            id.AssetID,
		OfferID:              offerID,
		ContractDefinitionID: id.DefinitionID,
		ProviderID:           providerID,
		ProviderEndpoint:     providerEndpoint,
	}, nil
}

// offerPolicy returns the policy to send in a contract request. Offers without a policy get the
// default use permission, and every policy gets an assigner and target if it lacks them.
func offerPolicy(e CatalogEntry) map[string]any {
	policy := make(map[string]any, len(e.Offer)+2)
	if len(e.Offer) == 0 {
		policy["@id"] = e.OfferID
		policy["@type"] = "odrl:Offer"
		policy["odrl:permission"] = []any{map[string]any{"odrl:action": map[string]any{"@id": "USE"}}}
		policy["odrl:prohibition"] = []any{}
		policy["odrl:obligation"] = []any{}
	} else {
		maps.Copy(policy, e.Offer)
	}
	if odrl.Lookup(policy, "assigner") == nil && e.ProviderID != "" {
		policy["odrl:assigner"] = map[string]any{"@id": e.ProviderID}
	}
	if odrl.Lookup(policy, "target") == nil && e.DatasetID != "" {
		policy["odrl:target"] = map[string]any{"@id": e.DatasetID}
	}
	return policy
}

func stringValue(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case map[string]any:
		if s, ok := t["@id"].(string); ok {
			return s
		}
		if s, ok := t["@value"].(string); ok {
			return s
		}
	}
	return ""
}
