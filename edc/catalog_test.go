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

package edc_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/go-dataspace/run-console/edc"
	"github.com/go-dataspace/run-console/edc/edctest"
	"github.com/go-dataspace/run-console/odrl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedOffer(t *testing.T, client *edc.Client, assetID, defID string) {
	t.Helper()
	ctx := context.Background()
	_, err := client.CreateAsset(ctx, testAsset(assetID))
	require.NoError(t, err)
	_, err = client.CreatePolicy(ctx, allowAll(t, "policy-"+assetID))
	require.NoError(t, err)
	_, err = client.CreateContractDefinition(ctx, edc.ContractDefinition{
		ID:               defID,
		AccessPolicyID:   "policy-" + assetID,
		ContractPolicyID: "policy-" + assetID,
		AssetsSelector:   edc.SelectAsset(assetID),
	})
	require.NoError(t, err)
}

func TestQueryCatalogEmpty(t *testing.T) {
	t.Parallel()
	client, conn := newClient(t)

	entries, err := client.QueryCatalog(context.Background(), conn.ProtocolURL())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestQueryCatalog(t *testing.T) {
	t.Parallel()
	client, conn := newClient(t)
	seedOffer(t, client, "asset-1", "cd-1")
	seedOffer(t, client, "asset-2", "cd-2")

	entries, err := client.QueryCatalog(context.Background(), conn.ProtocolURL())
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "asset-1", entries[0].DatasetID)
	assert.Equal(t, edctest.OfferID("cd-1", "asset-1"), entries[0].OfferID)
	assert.Equal(t, "cd-1", entries[0].ContractDefinitionID)
	assert.Equal(t, edctest.ProviderID, entries[0].ProviderID)
	assert.Equal(t, conn.ProtocolURL(), entries[0].ProviderEndpoint)
	assert.Equal(t, "cd-2", entries[1].ContractDefinitionID)
}

func TestQueryCatalogUnreachableProvider(t *testing.T) {
	t.Parallel()
	client, _ := newClient(t)

	_, err := client.QueryCatalog(context.Background(), "http://nowhere:19194/other")
	assert.ErrorIs(t, err, edc.ErrUnreachable)
}

func TestQueryCatalogArrayOfPolicies(t *testing.T) {
	t.Parallel()
	client, conn := newClient(t)
	restricted, err := odrl.RestrictToParticipant("someone-else").Document()
	require.NoError(t, err)
	var restrictedOffer map[string]any
	require.NoError(t, json.Unmarshal(restricted, &restrictedOffer))
	restrictedOffer["@id"] = "offer-b"

	conn.AddOffer(map[string]any{
		"@id":       "dataset-x",
		"dct:title": "Dataset X",
		"odrl:hasPolicy": []any{
			map[string]any{"@id": "offer-a", "@type": "odrl:Offer"},
			restrictedOffer,
		},
	})

	entries, err := client.QueryCatalog(context.Background(), conn.ProtocolURL())
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "Dataset X", entries[0].Title)
	assert.Equal(t, "offer-a", entries[0].OfferID)
	assert.Empty(t, entries[0].ContractDefinitionID)

	accessible, err := client.QueryCatalogFor(context.Background(), conn.ProtocolURL(), "")
	require.NoError(t, err)
	require.Len(t, accessible, 1)
	assert.Equal(t, "offer-a", accessible[0].OfferID)

	evs := edc.Evaluate(entries, "someone-else")
	assert.True(t, evs[0].Allowed)
	assert.True(t, evs[1].Allowed)
}

func TestInitiateNegotiationEnrichesOffer(t *testing.T) {
	t.Parallel()
	client, conn := newClient(t)
	seedOffer(t, client, "asset-1", "cd-1")
	entries, err := client.QueryCatalog(context.Background(), conn.ProtocolURL())
	require.NoError(t, err)
	require.Len(t, entries, 1)

	id, err := client.InitiateNegotiation(context.Background(), entries[0])
	require.NoError(t, err)
	assert.Equal(t, edctest.NegotiationID, id)

	req := conn.LastContractRequest()
	assert.Equal(t, "ContractRequest", req["@type"])
	assert.Equal(t, conn.ProtocolURL(), req["counterPartyAddress"])
	policy, ok := req["policy"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, entries[0].OfferID, policy["@id"])
	assert.Equal(t, map[string]any{"@id": edctest.ProviderID}, policy["odrl:assigner"])
	assert.Equal(t, map[string]any{"@id": "asset-1"}, policy["odrl:target"])

	// The catalog entry itself is left untouched.
	assert.NotContains(t, entries[0].Offer, "odrl:assigner")
}

func TestEntryFromOfferID(t *testing.T) {
	t.Parallel()
	entry, err := edc.EntryFromOfferID(edctest.OfferID("cd-1", "asset-1"), "http://provider/protocol", "provider")
	require.NoError(t, err)
	assert.Equal(t, "asset-1", entry.DatasetID)
	assert.Equal(t, "cd-1", entry.ContractDefinitionID)

	_, err = edc.EntryFromOfferID("plain", "http://provider/protocol", "provider")
	assert.ErrorIs(t, err, edc.ErrValidation)
}
