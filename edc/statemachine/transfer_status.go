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

// TransferStatus is the status of a transfer process.
type TransferStatus string

func (s TransferStatus) String() string { return string(s) }

// TransferStatuses enumerates all transfer statuses.
var TransferStatuses = struct {
	INITIAL    TransferStatus
	REQUESTED  TransferStatus
	STARTED    TransferStatus
	SUSPENDED  TransferStatus
	COMPLETED  TransferStatus
	TERMINATED TransferStatus
}{
	INITIAL:    "INITIAL",
	REQUESTED:  "REQUESTED",
	STARTED:    "STARTED",
	SUSPENDED:  "SUSPENDED",
	COMPLETED:  "COMPLETED",
	TERMINATED: "TERMINATED",
}

// TransferGraph is the transition graph of a transfer process.
var TransferGraph = NewGraph(
	TransferStatuses.INITIAL,
	map[TransferStatus][]TransferStatus{
		TransferStatuses.INITIAL: {
			TransferStatuses.REQUESTED,
			TransferStatuses.TERMINATED,
		},
		TransferStatuses.REQUESTED: {
			TransferStatuses.STARTED,
			TransferStatuses.TERMINATED,
		},
		TransferStatuses.STARTED: {
			TransferStatuses.SUSPENDED,
			TransferStatuses.COMPLETED,
			TransferStatuses.TERMINATED,
		},
		TransferStatuses.SUSPENDED: {
			TransferStatuses.STARTED,
			TransferStatuses.TERMINATED,
		},
	},
	TransferStatuses.COMPLETED,
	TransferStatuses.TERMINATED,
)

// ParseTransferStatus parses a canonical transfer status, with or without a `dspace:` prefix.
func ParseTransferStatus(s string) (TransferStatus, error) {
	ts := TransferStatus(strings.ToUpper(strings.TrimPrefix(s, "dspace:")))
	if !TransferGraph.Known(ts) {
		return "", fmt.Errorf("%w: transfer status %q", ErrUnknownStatus, s)
	}
	return ts, nil
}
