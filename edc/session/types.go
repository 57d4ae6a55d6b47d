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

package session

import (
	"context"
	"time"

	"github.com/go-dataspace/run-console/edc"
)

// StepName names a step of the workflow.
type StepName string

const (
	StepCreateAsset              StepName = "create_asset"
	StepCreatePolicy             StepName = "create_policy"
	StepCreateContractDefinition StepName = "create_contract_definition"
	StepQueryCatalog             StepName = "query_catalog"
	StepNegotiate                StepName = "negotiate"
	StepTransfer                 StepName = "transfer"
)

// Steps lists the steps of the workflow in order.
var Steps = []StepName{
	StepCreateAsset,
	StepCreatePolicy,
	StepCreateContractDefinition,
	StepQueryCatalog,
	StepNegotiate,
	StepTransfer,
}

// StepStatus is the status of one step.
type StepStatus string

const (
	StepPending   StepStatus = "pending"
	StepRunning   StepStatus = "running"
	StepSucceeded StepStatus = "succeeded"
	StepFailed    StepStatus = "failed"
	// StepSuspended means polling stopped on a timeout or cancellation and can be resumed.
	StepSuspended StepStatus = "suspended"
)

// State is the state of a whole session.
type State string

const (
	StatePending   State = "pending"
	StateRunning   State = "running"
	StateSuspended State = "suspended"
	StateSucceeded State = "succeeded"
	StateFailed    State = "failed"
)

// Step is the outcome of one step. Ref is the identifier the step produced.
type Step struct {
	Name       StepName   `json:"name"`
	Status     StepStatus `json:"status"`
	ErrorKind  edc.Kind   `json:"errorKind,omitempty"`
	Error      string     `json:"error,omitempty"`
	Ref        string     `json:"ref,omitempty"`
	StartedAt  time.Time  `json:"startedAt,omitzero"`
	FinishedAt time.Time  `json:"finishedAt,omitzero"`
}

// Snapshot is a copy of the progress of a session.
type Snapshot struct {
	ID          string                `json:"id"`
	State       State                 `json:"state"`
	Steps       []Step                `json:"steps"`
	Offer       *edc.CatalogEntry     `json:"offer,omitempty"`
	Negotiation *edc.NegotiationState `json:"negotiation,omitempty"`
	Transfer    *edc.TransferState    `json:"transfer,omitempty"`
	StartedAt   time.Time             `json:"startedAt"`
	UpdatedAt   time.Time             `json:"updatedAt"`
}

// Step returns the step with the given name.
func (s Snapshot) Step(name StepName) (Step, bool) {
	for _, st := range s.Steps {
		if st.Name == name {
			return st, true
		}
	}
	return Step{}, false
}

// Failed returns the first failed or suspended step, if any.
func (s Snapshot) Failed() (Step, bool) {
	for _, st := range s.Steps {
		if st.Status == StepFailed || st.Status == StepSuspended {
			return st, true
		}
	}
	return Step{}, false
}

func (s Snapshot) clone() Snapshot {
	c := s
	c.Steps = append([]Step(nil), s.Steps...)
	if s.Offer != nil {
		o := *s.Offer
		c.Offer = &o
	}
	if s.Negotiation != nil {
		n := *s.Negotiation
		c.Negotiation = &n
	}
	if s.Transfer != nil {
		t := *s.Transfer
		if t.Resource != nil {
			r := *t.Resource
			t.Resource = &r
		}
		c.Transfer = &t
	}
	return c
}

// WorkflowRequest describes the asset, policy and contract definition to create, and the
// provider to negotiate with. Empty contract definition fields default to the policy and asset of
// the request.
type WorkflowRequest struct {
	Asset              edc.Asset              `json:"asset"`
	Policy             edc.PolicyDefinition   `json:"policy"`
	ContractDefinition edc.ContractDefinition `json:"contractDefinition"`
	ProviderEndpoint   string                 `json:"providerEndpoint" validate:"required,url"`
	TransferType       string                 `json:"transferType,omitempty"`
	DataDestination    *edc.DataAddress       `json:"dataDestination,omitempty"`
}

// Validate checks the request after defaults are applied.
func (r WorkflowRequest) Validate(ctx context.Context) error {
	return edc.Validate(ctx, r.withDefaults())
}

func (r WorkflowRequest) withDefaults() WorkflowRequest {
	cd := &r.ContractDefinition
	if cd.AccessPolicyID == "" {
		cd.AccessPolicyID = r.Policy.ID
	}
	if cd.ContractPolicyID == "" {
		cd.ContractPolicyID = r.Policy.ID
	}
	if len(cd.AssetsSelector) == 0 && r.Asset.ID != "" {
		cd.AssetsSelector = edc.SelectAsset(r.Asset.ID)
	}
	return r
}
