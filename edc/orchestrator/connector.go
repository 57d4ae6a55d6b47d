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

package orchestrator

import (
	"context"

	"github.com/go-dataspace/run-console/edc"
)

// Connector is the part of the management API the orchestrators use.
type Connector interface {
	InitiateNegotiation(ctx context.Context, entry edc.CatalogEntry) (string, error)
	FetchNegotiationStatus(ctx context.Context, id string) (edc.NegotiationState, error)
	InitiateTransfer(ctx context.Context, agreementID string, dest edc.TransferDestination) (string, error)
	FetchTransferStatus(ctx context.Context, id string) (edc.TransferState, error)
	FetchDataAddress(ctx context.Context, transferID string) (edc.ResourceReference, error)
}

var _ Connector = (*edc.Client)(nil)
