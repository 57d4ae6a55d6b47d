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
	"errors"
	"fmt"

	"github.com/go-dataspace/run-console/edc"
	"github.com/go-dataspace/run-console/edc/statemachine"
	"github.com/go-dataspace/run-console/logging"
)

// Transferer drives transfer processes to a terminal state.
type Transferer struct {
	conn    Connector
	opts    Options
	observe func(edc.TransferState)

	// SettleOnStarted treats STARTED as settled. The connector keeps pull transfers STARTED for
	// as long as their data address is valid.
	SettleOnStarted bool
}

// NewTransferer returns a transferer. observe, if not nil, is called with every accepted state.
func NewTransferer(conn Connector, opts Options, observe func(edc.TransferState)) *Transferer {
	return &Transferer{conn: conn, opts: opts, observe: observe}
}

// Run starts a transfer for a finalized negotiation and polls it until it completes or
// terminates. Anything but a finalized negotiation with an agreement is rejected before the
// connector is called.
func (t *Transferer) Run(
	ctx context.Context, negotiation edc.NegotiationState, dest edc.TransferDestination,
) (edc.TransferState, error) {
	if !negotiation.Finalized() {
		err := fmt.Errorf(
			"%w: negotiation %q is %s, a transfer needs a finalized negotiation with an agreement",
			edc.ErrValidation, negotiation.ID, negotiation.Status)
		countOutcome("transfer", err)
		return edc.TransferState{}, err
	}
	ctx, logger := logging.InjectLabels(ctx, "agreement_id", negotiation.AgreementID)
	if ctx.Err() != nil {
		err := fmt.Errorf("%w: transfer for agreement %s not initiated", edc.ErrCancelled, negotiation.AgreementID)
		countOutcome("transfer", err)
		return edc.TransferState{}, err
	}
	// Not cancelled with ctx, the transfer exists once the request is sent.
	id, err := t.conn.InitiateTransfer(context.WithoutCancel(ctx), negotiation.AgreementID, dest)
	if err != nil {
		countOutcome("transfer", err)
		return edc.TransferState{}, err
	}
	logger.Info("Transfer initiated", "transfer_id", id)
	state := edc.TransferState{
		ID:          id,
		Status:      statemachine.TransferStatuses.INITIAL,
		AgreementID: negotiation.AgreementID,
		AssetID:     dest.AssetID,
	}
	if t.observe != nil {
		t.observe(state)
	}
	if ctx.Err() != nil {
		err := fmt.Errorf("%w: transfer %s initiated but not polled", edc.ErrCancelled, id)
		countOutcome("transfer", err)
		return state, err
	}
	return t.Resume(ctx, id, statemachine.TransferStatuses.INITIAL)
}

// Resume polls an existing transfer, last is the last status seen for it. A completed transfer
// carries the resource reference of its data.
func (t *Transferer) Resume(
	ctx context.Context, id string, last statemachine.TransferStatus,
) (edc.TransferState, error) {
	if last == "" {
		last = statemachine.TransferStatuses.INITIAL
	}
	p := &Poller[statemachine.TransferStatus, edc.TransferState]{
		Kind:     "transfer",
		Graph:    statemachine.TransferGraph,
		Fetch:    t.conn.FetchTransferStatus,
		StatusOf: func(s edc.TransferState) statemachine.TransferStatus { return s.Status },
		Settled:  t.settled,
		Observe:  t.observe,
		Options:  t.opts,
	}
	out, err := p.Poll(ctx, id, last)
	state := out.Last
	if state.ID == "" {
		state.ID, state.Status = id, out.Status
	}
	if err == nil {
		state, err = t.settle(ctx, state)
	}
	countOutcome("transfer", err)
	return state, err
}

func (t *Transferer) settled(s statemachine.TransferStatus) bool {
	if t.SettleOnStarted && s == statemachine.TransferStatuses.STARTED {
		return true
	}
	return statemachine.TransferGraph.Terminal(s)
}

func (t *Transferer) settle(ctx context.Context, state edc.TransferState) (edc.TransferState, error) {
	switch state.Status {
	case statemachine.TransferStatuses.TERMINATED:
		reason := state.ErrorDetail
		if reason == "" {
			reason = "no reason given"
		}
		return state, fmt.Errorf("%w: transfer %s terminated: %s", edc.ErrTransferFailed, state.ID, reason)
	case statemachine.TransferStatuses.COMPLETED, statemachine.TransferStatuses.STARTED:
		ref, err := t.resource(ctx, state)
		if err != nil {
			return state, err
		}
		state.Resource = &ref
		if t.observe != nil {
			t.observe(state)
		}
		return state, nil
	default:
		return state, fmt.Errorf("%w: transfer %s settled in %s", edc.ErrProtocolViolation, state.ID, state.Status)
	}
}

// resource fetches the data address of a transfer. A transfer without one falls back to its data
// destination.
func (t *Transferer) resource(ctx context.Context, state edc.TransferState) (edc.ResourceReference, error) {
	var ref edc.ResourceReference
	err := withRetry(ctx, t.opts.withDefaults(), func(reqCtx context.Context) error {
		var err error
		ref, err = t.conn.FetchDataAddress(reqCtx, state.ID)
		return err
	})
	if err == nil {
		return ref, nil
	}
	if !errors.Is(err, edc.ErrNotFound) {
		return ref, err
	}
	logging.Extract(ctx).Info("No data address for transfer, using its data destination", "transfer_id", state.ID)
	endpoint := destinationEndpoint(state.DataDestination)
	if endpoint == "" {
		return ref, fmt.Errorf("transfer %s has no data address nor a destination endpoint: %w", state.ID, err)
	}
	typ, _ := state.DataDestination["type"].(string)
	return edc.ResourceReference{TransferID: state.ID, Endpoint: endpoint, EndpointType: typ}, nil
}

func destinationEndpoint(dest map[string]any) string {
	for _, key := range []string{"endpoint", "baseUrl"} {
		if s, ok := dest[key].(string); ok && s != "" {
			return edc.ResolvePlaceholders(s)
		}
	}
	return ""
}
