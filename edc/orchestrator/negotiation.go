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
	"fmt"

	"github.com/go-dataspace/run-console/edc"
	"github.com/go-dataspace/run-console/edc/statemachine"
	"github.com/go-dataspace/run-console/logging"
)

// Negotiator drives contract negotiations to a terminal state.
type Negotiator struct {
	conn    Connector
	opts    Options
	observe func(edc.NegotiationState)
}

// NewNegotiator returns a negotiator. observe, if not nil, is called with every accepted state.
func NewNegotiator(conn Connector, opts Options, observe func(edc.NegotiationState)) *Negotiator {
	return &Negotiator{conn: conn, opts: opts, observe: observe}
}

// Run initiates a negotiation for the offer and polls it until it is finalized or terminated.
// When an error is returned after the negotiation was initiated, the returned state carries the
// negotiation id and last seen status, so polling can be resumed.
//
// The initiate request is not cancelled with ctx: once sent, the negotiation exists on the
// connector and its id must be kept.
func (n *Negotiator) Run(ctx context.Context, entry edc.CatalogEntry) (edc.NegotiationState, error) {
	ctx, logger := logging.InjectLabels(ctx, "offer_id", entry.OfferID)
	if ctx.Err() != nil {
		err := fmt.Errorf("%w: negotiation for offer %s not initiated", edc.ErrCancelled, entry.OfferID)
		countOutcome("negotiation", err)
		return edc.NegotiationState{}, err
	}
	id, err := n.conn.InitiateNegotiation(context.WithoutCancel(ctx), entry)
	if err != nil {
		countOutcome("negotiation", err)
		return edc.NegotiationState{}, err
	}
	logger.Info("Negotiation initiated", "negotiation_id", id)
	state := edc.NegotiationState{ID: id, Status: statemachine.NegotiationStatuses.INITIAL}
	if n.observe != nil {
		n.observe(state)
	}
	if ctx.Err() != nil {
		err := fmt.Errorf("%w: negotiation %s initiated but not polled", edc.ErrCancelled, id)
		countOutcome("negotiation", err)
		return state, err
	}
	return n.Resume(ctx, id, statemachine.NegotiationStatuses.INITIAL)
}

// Resume polls an existing negotiation, last is the last status seen for it.
func (n *Negotiator) Resume(
	ctx context.Context, id string, last statemachine.NegotiationStatus,
) (edc.NegotiationState, error) {
	if last == "" {
		last = statemachine.NegotiationStatuses.INITIAL
	}
	p := &Poller[statemachine.NegotiationStatus, edc.NegotiationState]{
		Kind:     "negotiation",
		Graph:    statemachine.NegotiationGraph,
		Fetch:    n.conn.FetchNegotiationStatus,
		StatusOf: func(s edc.NegotiationState) statemachine.NegotiationStatus { return s.Status },
		Observe:  n.observe,
		Options:  n.opts,
	}
	out, err := p.Poll(ctx, id, last)
	state := out.Last
	if state.ID == "" {
		state.ID, state.Status = id, out.Status
	}
	err = n.settle(state, err)
	countOutcome("negotiation", err)
	return state, err
}

func (n *Negotiator) settle(state edc.NegotiationState, err error) error {
	if err != nil {
		return err
	}
	switch state.Status {
	case statemachine.NegotiationStatuses.FINALIZED:
		if state.AgreementID == "" {
			return fmt.Errorf("%w: negotiation %s finalized without an agreement id", edc.ErrProtocolViolation, state.ID)
		}
		return nil
	case statemachine.NegotiationStatuses.TERMINATED:
		reason := state.ErrorDetail
		if reason == "" {
			reason = "no reason given"
		}
		return fmt.Errorf("%w: negotiation %s terminated: %s", edc.ErrNegotiationFailed, state.ID, reason)
	default:
		return fmt.Errorf("%w: negotiation %s settled in %s", edc.ErrProtocolViolation, state.ID, state.Status)
	}
}
