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

package statemachine

import (
	"fmt"
	"strings"
)

// NegotiationStatus is the status of a contract negotiation.
type NegotiationStatus string

func (s NegotiationStatus) String() string { return string(s) }

// NegotiationStatuses enumerates all negotiation statuses.
var NegotiationStatuses = struct {
	INITIAL    NegotiationStatus
	REQUESTED  NegotiationStatus
	OFFERED    NegotiationStatus
	ACCEPTED   NegotiationStatus
	AGREED     NegotiationStatus
	VERIFIED   NegotiationStatus
	FINALIZED  NegotiationStatus
	TERMINATED NegotiationStatus
}{
	INITIAL:    "INITIAL",
	REQUESTED:  "REQUESTED",
	OFFERED:    "OFFERED",
	ACCEPTED:   "ACCEPTED",
	AGREED:     "AGREED",
	VERIFIED:   "VERIFIED",
	FINALIZED:  "FINALIZED",
	TERMINATED: "TERMINATED",
}

// NegotiationGraph is the transition graph of a contract negotiation as seen by the consumer.
var NegotiationGraph = NewGraph(
	NegotiationStatuses.INITIAL,
	map[NegotiationStatus][]NegotiationStatus{
		NegotiationStatuses.INITIAL: {
			NegotiationStatuses.REQUESTED,
			NegotiationStatuses.OFFERED,
			NegotiationStatuses.TERMINATED,
		},
		NegotiationStatuses.REQUESTED: {
			NegotiationStatuses.OFFERED,
			NegotiationStatuses.AGREED,
			NegotiationStatuses.TERMINATED,
		},
		NegotiationStatuses.OFFERED: {
			NegotiationStatuses.REQUESTED,
			NegotiationStatuses.ACCEPTED,
			NegotiationStatuses.TERMINATED,
		},
		NegotiationStatuses.ACCEPTED: {
			NegotiationStatuses.AGREED,
			NegotiationStatuses.TERMINATED,
		},
		NegotiationStatuses.AGREED: {
			NegotiationStatuses.VERIFIED,
			NegotiationStatuses.TERMINATED,
		},
		NegotiationStatuses.VERIFIED: {
			NegotiationStatuses.FINALIZED,
			NegotiationStatuses.TERMINATED,
		},
	},
	NegotiationStatuses.FINALIZED,
	NegotiationStatuses.TERMINATED,
)

// ParseNegotiationStatus parses a canonical negotiation status, with or without a `dspace:` prefix.
func ParseNegotiationStatus(s string) (NegotiationStatus, error) {
	ns := NegotiationStatus(strings.ToUpper(strings.TrimPrefix(s, "dspace:")))
	if !NegotiationGraph.Known(ns) {
		return "", fmt.Errorf("%w: negotiation status %q", ErrUnknownStatus, s)
	}
	return ns, nil
}
