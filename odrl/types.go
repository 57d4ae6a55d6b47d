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

// Package odrl contains the ODRL policy documents the console creates, and the evaluation of
// policies found in provider catalogs.
package odrl

import (
	"encoding/json"

	"github.com/go-dataspace/run-console/jsonld"
)

const (
	// SetType is the ODRL policy type EDC policy definitions use.
	SetType = "http://www.w3.org/ns/odrl/2/Set"
	// ParticipantIDOperand is the left operand EDC evaluates against the counterparty id.
	ParticipantIDOperand = "https://w3id.org/edc/v0.0.1/ns/participantId"
)

// Set is an ODRL policy set as accepted by the management API.
type Set struct {
	Context     string       `json:"@context,omitempty"`
	Type        string       `json:"@type" validate:"required"`
	Permission  []Permission `json:"odrl:permission" validate:"dive"`
	Prohibition []Permission `json:"odrl:prohibition" validate:"dive"`
	Obligation  []Duty       `json:"odrl:obligation" validate:"dive"`
}

// Permission is a permission entry.
type Permission struct {
	Action     string      `json:"odrl:action" validate:"required,odrl_action"`
	Constraint *Constraint `json:"odrl:constraint,omitempty" validate:"omitempty"`
}

// Duty is an ODRL duty.
type Duty struct {
	Action     string      `json:"odrl:action" validate:"required,odrl_action"`
	Constraint *Constraint `json:"odrl:constraint,omitempty" validate:"omitempty"`
}

// Constraint is an ODRL atomic constraint.
type Constraint struct {
	Type         string    `json:"@type"`
	LeftOperand  string    `json:"odrl:leftOperand" validate:"odrl_leftoperand"`
	Operator     Reference `json:"odrl:operator"`
	RightOperand string    `json:"odrl:rightOperand" validate:"required"`
}

// Reference is a reference.
type Reference struct {
	ID string `json:"@id" validate:"required,odrl_operator"`
}

// AllowAll returns a policy that permits use without constraints.
func AllowAll() Set {
	return Set{
		Context:     jsonld.ODRLContextURL,
		Type:        SetType,
		Permission:  []Permission{{Action: "USE"}},
		Prohibition: []Permission{},
		Obligation:  []Duty{},
	}
}

// RestrictToParticipant returns a policy that only permits use by the given participant.
func RestrictToParticipant(participantID string) Set {
	s := AllowAll()
	s.Permission[0].Constraint = &Constraint{
		Type:         "AtomicConstraint",
		LeftOperand:  ParticipantIDOperand,
		Operator:     Reference{ID: "odrl:eq"},
		RightOperand: participantID,
	}
	return s
}

// Document returns the policy as a raw JSON document.
func (s Set) Document() (json.RawMessage, error) {
	return json.Marshal(s)
}
