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
	"net/http"
	"net/url"
	"testing"

	"github.com/go-dataspace/run-console/edc"
	"github.com/go-dataspace/run-console/edc/edctest"
	"github.com/go-dataspace/run-console/edc/statemachine"
	"github.com/go-dataspace/run-console/odrl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(t *testing.T) (*edc.Client, *edctest.Connector) {
	t.Helper()
	conn := edctest.New()
	t.Cleanup(conn.Close)
	client, err := edc.New(edc.Config{
		BaseURL:       conn.ManagementURL(),
		APIKey:        edctest.APIKey,
		ParticipantID: "consumer",
	})
	require.NoError(t, err)
	return client, conn
}

func testAsset(id string) edc.Asset {
	return edc.Asset{
		ID:          id,
		Properties:  map[string]any{"name": "Sample Asset", "description": "Sample description"},
		DataAddress: edc.DataAddress{Type: "HttpData", BaseURL: "http://data-api:8000/files/list"},
	}
}

func allowAll(t *testing.T, id string) edc.PolicyDefinition {
	t.Helper()
	doc, err := odrl.AllowAll().Document()
	require.NoError(t, err)
	return edc.PolicyDefinition{ID: id, Policy: doc}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	t.Parallel()
	_, err := edc.New(edc.Config{BaseURL: "not a url"})
	assert.ErrorIs(t, err, edc.ErrValidation)
}

func TestCreateAsset(t *testing.T) {
	t.Parallel()
	client, conn := newClient(t)
	ctx := context.Background()

	id, err := client.CreateAsset(ctx, testAsset("asset-1"))
	require.NoError(t, err)
	assert.Equal(t, "asset-1", id)

	_, err = client.CreateAsset(ctx, testAsset("asset-1"))
	require.ErrorIs(t, err, edc.ErrConflict)
	assert.Equal(t, edc.KindConflict, edc.KindOf(err))
	var ce *edc.ConnectorError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, http.StatusConflict, ce.StatusCode)
	assert.Contains(t, ce.Body, "already exists")

	_, err = client.CreateAsset(ctx, edc.Asset{ID: "asset-2"})
	require.ErrorIs(t, err, edc.ErrValidation)
	assert.Equal(t, 2, conn.Calls("POST /management/v3/assets"))
}

func TestValidationIssuesNoRequest(t *testing.T) {
	t.Parallel()
	client, conn := newClient(t)
	ctx := context.Background()

	_, err := client.CreateAsset(ctx, edc.Asset{DataAddress: edc.DataAddress{Type: "HttpData"}})
	require.ErrorIs(t, err, edc.ErrValidation)
	_, err = client.CreatePolicy(ctx, edc.PolicyDefinition{ID: "p", Policy: json.RawMessage(`[]`)})
	require.ErrorIs(t, err, edc.ErrValidation)
	_, err = client.InitiateTransfer(ctx, "", edc.TransferDestination{
		CounterPartyAddress: conn.ProtocolURL(),
		AssetID:             "asset-1",
	})
	require.ErrorIs(t, err, edc.ErrValidation)
	_, err = client.QueryCatalog(ctx, "::")
	require.ErrorIs(t, err, edc.ErrValidation)

	assert.Zero(t, conn.Calls("POST /management/v3/assets"))
	assert.Zero(t, conn.Calls("POST /management/v3/policydefinitions"))
	assert.Zero(t, conn.Calls("POST /management/v3/transferprocesses"))
	assert.Zero(t, conn.Calls("POST /management/v3/catalog/request"))
}

func TestCreateContractDefinitionUnknownPolicy(t *testing.T) {
	t.Parallel()
	client, _ := newClient(t)
	ctx := context.Background()

	_, err := client.CreateContractDefinition(ctx, edc.ContractDefinition{
		ID:               "cd-1",
		AccessPolicyID:   "missing",
		ContractPolicyID: "missing",
		AssetsSelector:   edc.SelectAsset("asset-1"),
	})
	require.ErrorIs(t, err, edc.ErrReference)
	assert.Equal(t, edc.KindReference, edc.KindOf(err))
	assert.NotErrorIs(t, err, edc.ErrValidation)
}

func TestErrorMapping(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"bad request", http.StatusBadRequest, "invalid", edc.ErrValidation},
		{"unauthorized", http.StatusUnauthorized, "", edc.ErrValidation},
		{"not found", http.StatusNotFound, "", edc.ErrNotFound},
		{"conflict", http.StatusConflict, "", edc.ErrConflict},
		{"already exists in body", http.StatusBadRequest, "Object already exists", edc.ErrConflict},
		{"server error", http.StatusInternalServerError, "", edc.ErrUnreachable},
		{"bad gateway", http.StatusBadGateway, "", edc.ErrUnreachable},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			client, conn := newClient(t)
			conn.Intercept(func(r *http.Request) (int, string, bool) {
				return test.status, test.body, true
			})
			_, err := client.FetchNegotiationStatus(context.Background(), "neg-1")
			assert.ErrorIs(t, err, test.want)
		})
	}
}

func TestUnreachableConnector(t *testing.T) {
	t.Parallel()
	conn := edctest.New()
	base := conn.ManagementURL()
	conn.Close()

	client, err := edc.New(edc.Config{BaseURL: base, APIKey: edctest.APIKey})
	require.NoError(t, err)
	_, err = client.FetchTransferStatus(context.Background(), "tp-1")
	assert.ErrorIs(t, err, edc.ErrUnreachable)
	assert.ErrorIs(t, client.Health(context.Background()), edc.ErrUnreachable)
}

func TestUnreadableResponse(t *testing.T) {
	t.Parallel()
	client, conn := newClient(t)
	conn.Intercept(func(r *http.Request) (int, string, bool) {
		return http.StatusOK, "<html>", true
	})
	_, err := client.FetchNegotiationStatus(context.Background(), "neg-1")
	assert.ErrorIs(t, err, edc.ErrProtocolViolation)
}

func TestFetchNegotiationStatus(t *testing.T) {
	t.Parallel()
	client, conn := newClient(t)
	ctx := context.Background()
	conn.ScriptNegotiation(
		edctest.Observation{State: "AGREEING"},
		edctest.Observation{State: "FINALIZED", AgreementID: "agr-1"},
		edctest.Observation{State: "BOGUS"},
	)

	state, err := client.FetchNegotiationStatus(ctx, "neg-1")
	require.NoError(t, err)
	assert.Equal(t, statemachine.NegotiationStatuses.ACCEPTED, state.Status)
	assert.False(t, state.SeenAt.IsZero())

	state, err = client.FetchNegotiationStatus(ctx, "neg-1")
	require.NoError(t, err)
	assert.Equal(t, statemachine.NegotiationStatuses.FINALIZED, state.Status)
	assert.Equal(t, "agr-1", state.AgreementID)
	assert.True(t, state.Finalized())

	_, err = client.FetchNegotiationStatus(ctx, "neg-1")
	assert.ErrorIs(t, err, edc.ErrProtocolViolation)
}

func TestFetchTransferStatus(t *testing.T) {
	t.Parallel()
	client, conn := newClient(t)
	ctx := context.Background()
	conn.ScriptTransfer(
		edctest.Observation{State: "STARTED"},
		edctest.Observation{State: "DEPROVISIONED", ErrorDetail: "boom"},
	)

	state, err := client.FetchTransferStatus(ctx, "tp-1")
	require.NoError(t, err)
	assert.Equal(t, statemachine.TransferStatuses.STARTED, state.Status)
	assert.Equal(t, edctest.AgreementID, state.AgreementID)
	assert.Equal(t, "HttpProxy", state.DataDestination["type"])

	state, err = client.FetchTransferStatus(ctx, "tp-1")
	require.NoError(t, err)
	assert.Equal(t, statemachine.TransferStatuses.TERMINATED, state.Status)
	assert.Equal(t, "boom", state.ErrorDetail)
}

func TestInitiateTransferDefaults(t *testing.T) {
	t.Parallel()
	client, conn := newClient(t)

	id, err := client.InitiateTransfer(context.Background(), "agr-1", edc.TransferDestination{
		CounterPartyAddress: conn.ProtocolURL(),
		AssetID:             "asset-1",
	})
	require.NoError(t, err)
	assert.Equal(t, edctest.TransferID, id)

	req := conn.LastTransferRequest()
	assert.Equal(t, "TransferRequest", req["@type"])
	assert.Equal(t, "agr-1", req["contractId"])
	assert.Equal(t, edc.DefaultTransferType, req["transferType"])
	assert.Equal(t, edc.Protocol, req["protocol"])
	dest, ok := req["dataDestination"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "HttpProxy", dest["type"])
}

func TestFetchDataAddressAndData(t *testing.T) {
	t.Parallel()
	client, conn := newClient(t)
	ctx := context.Background()

	ref, err := client.FetchDataAddress(ctx, "tp-1")
	require.NoError(t, err)
	assert.Equal(t, conn.Server.URL+"/public", ref.Endpoint)
	assert.Equal(t, "token-1", ref.Authorization)
	assert.Equal(t, "tp-1", ref.TransferID)

	data, contentType, err := client.FetchData(ctx, ref)
	require.NoError(t, err)
	assert.JSONEq(t, `{"hello":"world"}`, string(data))
	assert.Equal(t, "application/json", contentType)

	ref.Authorization = "wrong"
	_, _, err = client.FetchData(ctx, ref)
	assert.ErrorIs(t, err, edc.ErrValidation)

	conn.SetDataAddress(nil)
	_, err = client.FetchDataAddress(ctx, "tp-1")
	assert.ErrorIs(t, err, edc.ErrNotFound)
}

func TestResolvePlaceholders(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   string
		want string
	}{
		{"${EDC_DATAPLANE_PUBLIC_URL:http://provider:19291/public}", "http://provider:19291/public"},
		{"${EDC_DATAPLANE_PUBLIC_URL:http://provider/public}/data", "http://provider/public/data"},
		{"http://plain/public", "http://plain/public"},
		{"${EMPTY:}", ""},
	}
	for _, test := range tests {
		assert.Equal(t, test.want, edc.ResolvePlaceholders(test.in))
	}
}

func TestListings(t *testing.T) {
	t.Parallel()
	client, _ := newClient(t)
	ctx := context.Background()

	for _, id := range []string{"asset-1", "asset-2"} {
		_, err := client.CreateAsset(ctx, testAsset(id))
		require.NoError(t, err)
	}
	_, err := client.CreatePolicy(ctx, allowAll(t, "policy-1"))
	require.NoError(t, err)
	_, err = client.CreateContractDefinition(ctx, edc.ContractDefinition{
		ID:               "cd-1",
		AccessPolicyID:   "policy-1",
		ContractPolicyID: "policy-1",
		AssetsSelector:   edc.SelectAsset("asset-1"),
	})
	require.NoError(t, err)

	assets, err := client.ListAssets(ctx, edc.QuerySpec{})
	require.NoError(t, err)
	require.Len(t, assets, 2)
	assert.Equal(t, "asset-1", assets[0].ID)
	assert.Equal(t, "Sample Asset", assets[0].Name())
	assert.Equal(t, "HttpData", assets[0].DataAddress.Type)

	policies, err := client.ListPolicies(ctx, edc.QuerySpec{})
	require.NoError(t, err)
	require.Len(t, policies, 1)
	assert.Equal(t, "policy-1", policies[0].ID)

	defs, err := client.ListContractDefinitions(ctx, edc.QuerySpec{})
	require.NoError(t, err)
	require.Len(t, defs, 1)
	assert.Equal(t, "policy-1", defs[0].AccessPolicyID)
	require.Len(t, defs[0].AssetsSelector, 1)
	assert.Equal(t, "asset-1", defs[0].AssetsSelector[0].OperandRight)
}

func TestHealth(t *testing.T) {
	t.Parallel()
	client, conn := newClient(t)
	require.NoError(t, client.Health(context.Background()))

	conn.Intercept(func(r *http.Request) (int, string, bool) {
		return http.StatusMethodNotAllowed, "", true
	})
	require.NoError(t, client.Health(context.Background()))
}

type countingRequester struct {
	calls int
	body  []byte
}

func (c *countingRequester) SendHTTPRequest(_ context.Context, _ string, _ *url.URL, _ []byte) ([]byte, error) {
	c.calls++
	return c.body, nil
}

func TestEveryOperationIsOneExchange(t *testing.T) {
	t.Parallel()
	req := &countingRequester{body: []byte(`{"@id":"neg-1","state":"REQUESTED"}`)}
	client, err := edc.New(edc.Config{BaseURL: "http://connector/management", Requester: req})
	require.NoError(t, err)

	_, err = client.FetchNegotiationStatus(context.Background(), "neg-1")
	require.NoError(t, err)
	assert.Equal(t, 1, req.calls)
}
