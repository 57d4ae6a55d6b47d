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

// Package edc is a client for the management API of an EDC connector.
//
// Every operation performs exactly one HTTP exchange, and translates failures into errors that
// wrap one of the error kinds of this package. The client holds no state besides its
// configuration, so it can be shared freely.
package edc

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/go-dataspace/run-console/jsonld"
	"github.com/go-dataspace/run-console/logging"
)

// Config configures a Client. BaseURL is the root of the management API, e.g.
// `http://connector:19193/management`.
type Config struct {
	BaseURL       string `validate:"required,url"`
	APIKey        string
	ParticipantID string
	HTTPClient    *http.Client
	// Requester overrides the requester built from HTTPClient and APIKey.
	Requester Requester
}

// Client is a management API client.
type Client struct {
	base          *url.URL
	participantID string
	httpClient    *http.Client
	requester     Requester
}

// New returns a client for the given configuration.
func New(cfg Config) (*Client, error) {
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("%w: invalid connector configuration: %w", ErrValidation, err)
	}
	base, err := url.Parse(strings.TrimSuffix(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("%w: invalid connector URL: %w", ErrValidation, err)
	}
	c := &Client{
		base:          base,
		participantID: cfg.ParticipantID,
		httpClient:    cfg.HTTPClient,
		requester:     cfg.Requester,
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if c.requester == nil {
		c.requester = &HTTPRequester{Client: c.httpClient, APIKey: cfg.APIKey}
	}
	return c, nil
}

// ParticipantID returns the participant id of the connector this client talks to.
func (c *Client) ParticipantID() string {
	return c.participantID
}

func (c *Client) endpoint(elems ...string) *url.URL {
	return c.base.JoinPath(append([]string{"v3"}, elems...)...)
}

func (c *Client) call(ctx context.Context, op, method string, u *url.URL, body []byte) ([]byte, error) {
	start := time.Now()
	ctx, logger := logging.InjectLabels(ctx, "operation", op)
	resp, err := c.requester.SendHTTPRequest(ctx, method, u, body)
	observe(op, start, err)
	if err != nil {
		logger.Debug("Connector call failed", "kind", KindOf(err), "err", err)
		return nil, err
	}
	return resp, nil
}

type idResponse struct {
	ID string `json:"@id" validate:"required"`
}

func (c *Client) create(ctx context.Context, op string, u *url.URL, doc any) (string, error) {
	body, err := ValidateAndMarshal(ctx, doc)
	if err != nil {
		return "", err
	}
	resp, err := c.call(ctx, op, http.MethodPost, u, body)
	if err != nil {
		return "", err
	}
	created, err := UnmarshalAndValidate(ctx, resp, idResponse{})
	if err != nil {
		return "", err
	}
	return created.ID, nil
}

type assetRequest struct {
	Context jsonld.Context `json:"@context"`
	Type    string         `json:"@type"`
	Asset
}

// CreateAsset registers an asset and returns its id.
func (c *Client) CreateAsset(ctx context.Context, asset Asset) (string, error) {
	id, err := c.create(ctx, "create_asset", c.endpoint("assets"), assetRequest{
		Context: jsonld.EDCContext(),
		Type:    "Asset",
		Asset:   asset,
	})
	if err != nil {
		return "", fmt.Errorf("create asset %q: %w", asset.ID, err)
	}
	return id, nil
}

type policyRequest struct {
	Context jsonld.Context `json:"@context"`
	Type    string         `json:"@type"`
	PolicyDefinition
}

// CreatePolicy registers a policy definition and returns its id.
func (c *Client) CreatePolicy(ctx context.Context, policy PolicyDefinition) (string, error) {
	id, err := c.create(ctx, "create_policy", c.endpoint("policydefinitions"), policyRequest{
		Context:          jsonld.EDCPolicyContext(),
		Type:             "PolicyDefinition",
		PolicyDefinition: policy,
	})
	if err != nil {
		return "", fmt.Errorf("create policy %q: %w", policy.ID, err)
	}
	return id, nil
}

type contractDefinitionRequest struct {
	Context jsonld.Context `json:"@context"`
	Type    string         `json:"@type"`
	ContractDefinition
}

// CreateContractDefinition registers a contract definition and returns its id. Unknown policy
// ids are reported as ErrReference.
func (c *Client) CreateContractDefinition(ctx context.Context, def ContractDefinition) (string, error) {
	if def.AssetsSelector == nil {
		def.AssetsSelector = Criteria{}
	}
	id, err := c.create(ctx, "create_contract_definition", c.endpoint("contractdefinitions"), contractDefinitionRequest{
		Context:            jsonld.EDCContext(),
		Type:               "ContractDefinition",
		ContractDefinition: def,
	})
	if err != nil {
		err = rekind(err, ErrReference, func(ce *ConnectorError) bool {
			return ce.StatusCode == http.StatusNotFound ||
				(ce.StatusCode == http.StatusBadRequest && strings.Contains(strings.ToLower(ce.Body), "not found"))
		})
		return "", fmt.Errorf("create contract definition %q: %w", def.ID, err)
	}
	return id, nil
}

type contractRequest struct {
	Context             jsonld.Context `json:"@context"`
	Type                string         `json:"@type"`
	CounterPartyAddress string         `json:"counterPartyAddress" validate:"required,url"`
	Protocol            string         `json:"protocol" validate:"required"`
	Policy              map[string]any `json:"policy" validate:"required"`
}

// InitiateNegotiation starts a contract negotiation for a catalog offer and returns the
// negotiation id.
func (c *Client) InitiateNegotiation(ctx context.Context, entry CatalogEntry) (string, error) {
	if err := Validate(ctx, entry); err != nil {
		return "", fmt.Errorf("initiate negotiation: %w", err)
	}
	id, err := c.create(ctx, "initiate_negotiation", c.endpoint("contractnegotiations"), contractRequest{
		Context:             jsonld.EDCNegotiationContext(),
		Type:                "ContractRequest",
		CounterPartyAddress: entry.ProviderEndpoint,
		Protocol:            Protocol,
		Policy:              offerPolicy(entry),
	})
	if err != nil {
		return "", fmt.Errorf("initiate negotiation for offer %q: %w", entry.OfferID, err)
	}
	return id, nil
}

type negotiationDocument struct {
	ID                  string `json:"@id" validate:"required"`
	State               string `json:"state" validate:"required,negotiation_state"`
	ContractAgreementID string `json:"contractAgreementId"`
	CounterPartyAddress string `json:"counterPartyAddress"`
	ErrorDetail         string `json:"errorDetail"`
}

// FetchNegotiationStatus returns the current state of a negotiation.
func (c *Client) FetchNegotiationStatus(ctx context.Context, id string) (NegotiationState, error) {
	if err := validate.Var(id, "required"); err != nil {
		return NegotiationState{}, fmt.Errorf("%w: negotiation id is required", ErrValidation)
	}
	resp, err := c.call(ctx, "fetch_negotiation", http.MethodGet, c.endpoint("contractnegotiations", id), nil)
	if err != nil {
		return NegotiationState{}, fmt.Errorf("fetch negotiation %q: %w", id, err)
	}
	doc, err := UnmarshalAndValidate(ctx, resp, negotiationDocument{})
	if err != nil {
		return NegotiationState{}, fmt.Errorf("fetch negotiation %q: %w", id, err)
	}
	status, err := NormaliseNegotiationStatus(doc.State)
	if err != nil {
		return NegotiationState{}, fmt.Errorf("fetch negotiation %q: %w", id, err)
	}
	return NegotiationState{
		ID:                  doc.ID,
		Status:              status,
		AgreementID:         doc.ContractAgreementID,
		CounterPartyAddress: doc.CounterPartyAddress,
		ErrorDetail:         doc.ErrorDetail,
		SeenAt:              time.Now().UTC(),
	}, nil
}

type transferRequest struct {
	Context    jsonld.Context `json:"@context"`
	Type       string         `json:"@type"`
	Protocol   string         `json:"protocol" validate:"required"`
	ContractID string         `json:"contractId" validate:"required"`
	TransferDestination
}

// InitiateTransfer starts a transfer process for an agreement and returns the transfer id.
func (c *Client) InitiateTransfer(ctx context.Context, agreementID string, dest TransferDestination) (string, error) {
	id, err := c.create(ctx, "initiate_transfer", c.endpoint("transferprocesses"), transferRequest{
		Context:             jsonld.EDCContext(),
		Type:                "TransferRequest",
		Protocol:            Protocol,
		ContractID:          agreementID,
		TransferDestination: dest.withDefaults(),
	})
	if err != nil {
		return "", fmt.Errorf("initiate transfer for agreement %q: %w", agreementID, err)
	}
	return id, nil
}

type transferDocument struct {
	ID              string         `json:"@id" validate:"required"`
	State           string         `json:"state" validate:"required,transfer_state"`
	ContractID      string         `json:"contractId"`
	AssetID         string         `json:"assetId"`
	ErrorDetail     string         `json:"errorDetail"`
	DataDestination map[string]any `json:"dataDestination"`
}

// FetchTransferStatus returns the current state of a transfer process.
func (c *Client) FetchTransferStatus(ctx context.Context, id string) (TransferState, error) {
	if err := validate.Var(id, "required"); err != nil {
		return TransferState{}, fmt.Errorf("%w: transfer id is required", ErrValidation)
	}
	resp, err := c.call(ctx, "fetch_transfer", http.MethodGet, c.endpoint("transferprocesses", id), nil)
	if err != nil {
		return TransferState{}, fmt.Errorf("fetch transfer %q: %w", id, err)
	}
	doc, err := UnmarshalAndValidate(ctx, resp, transferDocument{})
	if err != nil {
		return TransferState{}, fmt.Errorf("fetch transfer %q: %w", id, err)
	}
	status, err := NormaliseTransferStatus(doc.State, doc.ErrorDetail)
	if err != nil {
		return TransferState{}, fmt.Errorf("fetch transfer %q: %w", id, err)
	}
	return TransferState{
		ID:              doc.ID,
		Status:          status,
		AgreementID:     doc.ContractID,
		AssetID:         doc.AssetID,
		ErrorDetail:     doc.ErrorDetail,
		DataDestination: doc.DataDestination,
		SeenAt:          time.Now().UTC(),
	}, nil
}

type dataAddressDocument struct {
	Endpoint      string `json:"endpoint" validate:"required"`
	Authorization string `json:"authorization"`
	EndpointType  string `json:"endpointType"`
}

var placeholder = regexp.MustCompile(`\$\{[A-Za-z0-9_]+:([^}]*)\}`)

// ResolvePlaceholders replaces `${NAME:default}` placeholders with their default value.
func ResolvePlaceholders(s string) string {
	return placeholder.ReplaceAllString(s, "$1")
}

// FetchDataAddress returns the endpoint data reference of a transfer.
func (c *Client) FetchDataAddress(ctx context.Context, transferID string) (ResourceReference, error) {
	if err := validate.Var(transferID, "required"); err != nil {
		return ResourceReference{}, fmt.Errorf("%w: transfer id is required", ErrValidation)
	}
	resp, err := c.call(ctx, "fetch_data_address", http.MethodGet, c.endpoint("edrs", transferID, "dataaddress"), nil)
	if err != nil {
		return ResourceReference{}, fmt.Errorf("fetch data address of %q: %w", transferID, err)
	}
	doc, err := UnmarshalAndValidate(ctx, resp, dataAddressDocument{})
	if err != nil {
		return ResourceReference{}, fmt.Errorf("fetch data address of %q: %w", transferID, err)
	}
	ref := ResourceReference{
		TransferID:    transferID,
		Endpoint:      ResolvePlaceholders(doc.Endpoint),
		Authorization: doc.Authorization,
		EndpointType:  doc.EndpointType,
	}
	if err := validate.Struct(ref); err != nil {
		return ResourceReference{}, fmt.Errorf(
			"%w: data address of %q has an invalid endpoint %q", ErrProtocolViolation, transferID, ref.Endpoint)
	}
	return ref, nil
}

// FetchData retrieves the data a resource reference points to, and returns it with its content
// type.
func (c *Client) FetchData(ctx context.Context, ref ResourceReference) ([]byte, string, error) {
	if err := Validate(ctx, ref); err != nil {
		return nil, "", fmt.Errorf("fetch data: %w", err)
	}
	u, err := url.Parse(ref.Endpoint)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %w", ErrValidation, err)
	}
	header := http.Header{}
	if ref.Authorization != "" {
		header.Set("Authorization", ref.Authorization)
	}
	start := time.Now()
	hr := &HTTPRequester{Client: c.httpClient}
	body, respHeader, err := hr.do(ctx, http.MethodGet, u, nil, header)
	observe("fetch_data", start, err)
	if err != nil {
		return nil, "", fmt.Errorf("fetch data of transfer %q: %w", ref.TransferID, err)
	}
	return body, respHeader.Get("Content-Type"), nil
}

// Health checks that the management API answers.
func (c *Client) Health(ctx context.Context) error {
	_, err := c.call(ctx, "health", http.MethodGet, c.endpoint("assets"), nil)
	var ce *ConnectorError
	if errors.As(err, &ce) && ce.StatusCode == http.StatusMethodNotAllowed {
		return nil
	}
	return err
}
