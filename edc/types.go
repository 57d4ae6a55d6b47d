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
	"encoding/json"
	"time"

	"github.com/go-dataspace/run-console/edc/statemachine"
	"github.com/go-dataspace/run-console/jsonld"
)

const (
	// Protocol is the dataspace protocol the connector speaks to its counterparties.
	Protocol = "dataspace-protocol-http"
	// AssetIDProperty is the asset property the default asset selector matches on.
	AssetIDProperty = "https://w3id.org/edc/v0.0.1/ns/id"
	// DefaultTransferType is the transfer type used when none is given.
	DefaultTransferType = "HttpData-PULL"
)

// DataAddress describes where the data of an asset lives. Properties holds any additional
// connector specific fields and is flattened into the document.
type DataAddress struct {
	Type       string         `json:"type" validate:"required"`
	BaseURL    string         `json:"baseUrl,omitempty" validate:"omitempty,url"`
	Properties map[string]any `json:"-"`
}

func (d DataAddress) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(d.Properties)+3)
	for k, v := range d.Properties {
		m[k] = v
	}
	m["@type"] = "DataAddress"
	m["type"] = d.Type
	if d.BaseURL != "" {
		m["baseUrl"] = d.BaseURL
	}
	return json.Marshal(m)
}

func (d *DataAddress) UnmarshalJSON(data []byte) error {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	*d = DataAddress{}
	for k, v := range m {
		switch jsonld.Compact(k) {
		case "@type":
		case "type":
			d.Type, _ = v.(string)
		case "baseUrl":
			d.BaseURL, _ = v.(string)
		default:
			if d.Properties == nil {
				d.Properties = make(map[string]any)
			}
			d.Properties[k] = v
		}
	}
	return nil
}

// Asset is a data asset registered with the connector.
type Asset struct {
	ID          string         `json:"@id" validate:"required"`
	Properties  map[string]any `json:"properties,omitempty"`
	DataAddress DataAddress    `json:"dataAddress"`
}

// Name returns the name property of the asset, if any.
func (a Asset) Name() string {
	s, _ := a.Properties["name"].(string)
	return s
}

// PolicyDefinition is an identifier plus an ODRL rule set. The rule set is passed to the
// connector as is.
type PolicyDefinition struct {
	ID     string          `json:"@id" validate:"required"`
	Policy json.RawMessage `json:"policy" validate:"required,json_object"`
}

// Criterion is one asset selector criterion.
type Criterion struct {
	OperandLeft  string `json:"operandLeft" validate:"required"`
	Operator     string `json:"operator" validate:"required"`
	OperandRight any    `json:"operandRight" validate:"required"`
}

func (c Criterion) MarshalJSON() ([]byte, error) {
	type plain Criterion
	return json.Marshal(struct {
		Type string `json:"@type"`
		plain
	}{"Criterion", plain(c)})
}

// Criteria is an asset selector. The connector sends a single criterion as an object.
type Criteria []Criterion

func (c *Criteria) UnmarshalJSON(data []byte) error {
	var list []Criterion
	if err := json.Unmarshal(data, &list); err == nil {
		*c = list
		return nil
	}
	var single Criterion
	if err := json.Unmarshal(data, &single); err != nil {
		return err
	}
	*c = Criteria{single}
	return nil
}

// SelectAsset returns the selector matching exactly one asset.
func SelectAsset(assetID string) Criteria {
	return Criteria{{OperandLeft: AssetIDProperty, Operator: "=", OperandRight: assetID}}
}

// ContractDefinition binds an access policy and a contract policy to a set of assets.
type ContractDefinition struct {
	ID               string   `json:"@id" validate:"required"`
	AccessPolicyID   string   `json:"accessPolicyId" validate:"required"`
	ContractPolicyID string   `json:"contractPolicyId" validate:"required"`
	AssetsSelector   Criteria `json:"assetsSelector" validate:"dive"`
}

// CatalogEntry is one offer of a provider catalog.
type CatalogEntry struct {
	DatasetID            string         `json:"datasetId"`
	Title                string         `json:"title,omitempty"`
	OfferID              string         `json:"offerId" validate:"required"`
	ContractDefinitionID string         `json:"contractDefinitionId,omitempty"`
	ProviderID           string         `json:"providerId,omitempty"`
	ProviderEndpoint     string         `json:"providerEndpoint" validate:"required,url"`
	Offer                map[string]any `json:"offer,omitempty"`
}

// NegotiationState is the observed state of a contract negotiation.
type NegotiationState struct {
	ID                  string                         `json:"id"`
	Status              statemachine.NegotiationStatus `json:"status"`
	AgreementID         string                         `json:"agreementId,omitempty"`
	CounterPartyAddress string                         `json:"counterPartyAddress,omitempty"`
	ErrorDetail         string                         `json:"errorDetail,omitempty"`
	SeenAt              time.Time                      `json:"seenAt"`
}

// Finalized reports if the negotiation produced an agreement that can be used for a transfer.
func (n NegotiationState) Finalized() bool {
	return n.Status == statemachine.NegotiationStatuses.FINALIZED && n.AgreementID != ""
}

// TransferState is the observed state of a transfer process.
type TransferState struct {
	ID              string                      `json:"id"`
	Status          statemachine.TransferStatus `json:"status"`
	AgreementID     string                      `json:"agreementId,omitempty"`
	AssetID         string                      `json:"assetId,omitempty"`
	ErrorDetail     string                      `json:"errorDetail,omitempty"`
	DataDestination map[string]any              `json:"dataDestination,omitempty"`
	SeenAt          time.Time                   `json:"seenAt"`
	Resource        *ResourceReference          `json:"resource,omitempty"`
}

// ResourceReference is the location of the data a transfer made available.
type ResourceReference struct {
	TransferID    string `json:"transferId"`
	Endpoint      string `json:"endpoint" validate:"required,url"`
	Authorization string `json:"authorization,omitempty"`
	EndpointType  string `json:"endpointType,omitempty"`
}

// TransferDestination describes what to transfer from whom, and where to.
type TransferDestination struct {
	CounterPartyAddress string      `json:"counterPartyAddress" validate:"required,url"`
	AssetID             string      `json:"assetId" validate:"required"`
	TransferType        string      `json:"transferType,omitempty"`
	DataDestination     DataAddress `json:"dataDestination"`
}

func (d TransferDestination) withDefaults() TransferDestination {
	if d.TransferType == "" {
		d.TransferType = DefaultTransferType
	}
	if d.DataDestination.Type == "" {
		d.DataDestination.Type = "HttpProxy"
	}
	return d
}

// QuerySpec limits and orders list requests. The zero value lets the connector decide.
type QuerySpec struct {
	Offset    int    `json:"offset,omitempty" validate:"gte=0"`
	Limit     int    `json:"limit,omitempty" validate:"gte=0"`
	SortOrder string `json:"sortOrder,omitempty" validate:"omitempty,oneof=ASC DESC"`
	SortField string `json:"sortField,omitempty"`
}
