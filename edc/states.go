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
	"fmt"
	"strings"

	"github.com/go-dataspace/run-console/edc/statemachine"
	"github.com/go-dataspace/run-console/jsonld"
)

var (
	ns = statemachine.NegotiationStatuses
	ts = statemachine.TransferStatuses
)

// The connector reports in-flight states that are not part of the canonical vocabulary.
var negotiationVocabulary = map[string]statemachine.NegotiationStatus{
	"REQUESTING":  ns.INITIAL,
	"OFFERING":    ns.REQUESTED,
	"ACCEPTING":   ns.OFFERED,
	"AGREEING":    ns.ACCEPTED,
	"VERIFYING":   ns.AGREED,
	"FINALIZING":  ns.VERIFIED,
	"TERMINATING": ns.TERMINATED,
}

var transferVocabulary = map[string]statemachine.TransferStatus{
	"PROVISIONING":           ts.INITIAL,
	"PROVISIONED":            ts.INITIAL,
	"PROVISIONING_REQUESTED": ts.INITIAL,
	"REQUESTING":             ts.INITIAL,
	"STARTING":               ts.REQUESTED,
	"SUSPENDING":             ts.STARTED,
	"RESUMING":               ts.SUSPENDED,
	"COMPLETING":             ts.STARTED,
	"TERMINATING":            ts.TERMINATED,
}

func bareStatus(s string) string {
	return strings.ToUpper(strings.TrimSpace(jsonld.Compact(s)))
}

// NormaliseNegotiationStatus maps a state reported by the connector onto the canonical
// negotiation vocabulary.
func NormaliseNegotiationStatus(s string) (statemachine.NegotiationStatus, error) {
	b := bareStatus(s)
	if st, ok := negotiationVocabulary[b]; ok {
		return st, nil
	}
	st, err := statemachine.ParseNegotiationStatus(b)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrProtocolViolation, err)
	}
	return st, nil
}

// NormaliseTransferStatus maps a state reported by the connector onto the canonical transfer
// vocabulary. A deprovisioned process is terminated when it carries an error, completed otherwise.
func NormaliseTransferStatus(s, errorDetail string) (statemachine.TransferStatus, error) {
	b := bareStatus(s)
	if b == "DEPROVISIONING" || b == "DEPROVISIONED" || b == "DEPROVISIONING_REQUESTED" {
		if errorDetail != "" {
			return ts.TERMINATED, nil
		}
		return ts.COMPLETED, nil
	}
	if st, ok := transferVocabulary[b]; ok {
		return st, nil
	}
	st, err := statemachine.ParseTransferStatus(b)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrProtocolViolation, err)
	}
	return st, nil
}
