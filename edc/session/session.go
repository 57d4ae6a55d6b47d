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

// Package session runs the end to end workflow of the console: create an asset, a policy and a
// contract definition, find the resulting offer in the provider catalog, negotiate it and
// transfer the data. Progress is available as a snapshot at any time.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-dataspace/run-console/edc"
	"github.com/go-dataspace/run-console/edc/orchestrator"
	"github.com/go-dataspace/run-console/logging"
	"github.com/google/uuid"
)

var (
	ErrNotFound     = errors.New("session not found")
	ErrNotPolling   = errors.New("session is not polling")
	ErrNotSuspended = errors.New("session is not suspended")
)

// Connector is the part of the management API a session uses.
type Connector interface {
	orchestrator.Connector
	CreateAsset(ctx context.Context, asset edc.Asset) (string, error)
	CreatePolicy(ctx context.Context, policy edc.PolicyDefinition) (string, error)
	CreateContractDefinition(ctx context.Context, def edc.ContractDefinition) (string, error)
	QueryCatalog(ctx context.Context, providerEndpoint string) ([]edc.CatalogEntry, error)
}

// Config configures the polling steps of a session.
type Config struct {
	Options         orchestrator.Options
	SettleOnStarted bool
}

type step struct {
	name   StepName
	run    func(ctx context.Context) (string, error)
	resume func(ctx context.Context) (string, error)
}

// Session is a single workflow. Run and Resume must not be called concurrently, Snapshot can be
// called from any goroutine.
type Session struct {
	conn     Connector
	cfg      Config
	req      WorkflowRequest
	onChange func(Snapshot)
	steps    []step

	mu   sync.RWMutex
	snap Snapshot
	// current is the index of the step being executed, -1 if none is.
	current int
}

// New returns a session for the request. onChange, if not nil, is called with a snapshot after
// every change; it must not call back into the session.
func New(conn Connector, cfg Config, req WorkflowRequest, onChange func(Snapshot)) *Session {
	s := &Session{
		conn:     conn,
		cfg:      cfg,
		req:      req.withDefaults(),
		onChange: onChange,
		current:  -1,
	}
	s.steps = []step{
		{name: StepCreateAsset, run: s.createAsset},
		{name: StepCreatePolicy, run: s.createPolicy},
		{name: StepCreateContractDefinition, run: s.createContractDefinition},
		{name: StepQueryCatalog, run: s.queryCatalog},
		{name: StepNegotiate, run: s.negotiate, resume: s.resumeNegotiation},
		{name: StepTransfer, run: s.transfer, resume: s.resumeTransfer},
	}
	now := time.Now().UTC()
	s.snap = Snapshot{
		ID:        uuid.NewString(),
		State:     StatePending,
		Steps:     make([]Step, len(s.steps)),
		StartedAt: now,
		UpdatedAt: now,
	}
	for i, st := range s.steps {
		s.snap.Steps[i] = Step{Name: st.name, Status: StepPending}
	}
	return s
}

// ID returns the id of the session.
func (s *Session) ID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.ID
}

// Snapshot returns a copy of the progress of the session.
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.clone()
}

// Polling reports if the session is polling a negotiation or transfer.
func (s *Session) Polling() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current < 0 {
		return false
	}
	name := s.steps[s.current].name
	return name == StepNegotiate || name == StepTransfer
}

func (s *Session) update(f func(*Snapshot)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f(&s.snap)
	s.snap.UpdatedAt = time.Now().UTC()
	if s.onChange != nil {
		s.onChange(s.snap.clone())
	}
}

// Run executes the workflow from the first step. It stops at the first failing step; timeouts
// and cancellations leave the session suspended.
func (s *Session) Run(ctx context.Context) error {
	s.mu.RLock()
	state := s.snap.State
	s.mu.RUnlock()
	if state != StatePending {
		return fmt.Errorf("session %s is %s, it can only run once", s.ID(), state)
	}
	return s.execute(ctx, 0, false)
}

// Resume continues a suspended session from the step that was suspended.
func (s *Session) Resume(ctx context.Context) error {
	s.mu.RLock()
	state := s.snap.State
	from := -1
	for i, st := range s.snap.Steps {
		if st.Status == StepSuspended {
			from = i
			break
		}
	}
	s.mu.RUnlock()
	if state != StateSuspended || from < 0 {
		return fmt.Errorf("%w: session %s is %s", ErrNotSuspended, s.ID(), state)
	}
	return s.execute(ctx, from, true)
}

func (s *Session) execute(ctx context.Context, from int, resume bool) error {
	ctx, logger := logging.InjectLabels(ctx, "session_id", s.ID())
	s.update(func(snap *Snapshot) { snap.State = StateRunning })
	for i := from; i < len(s.steps); i++ {
		st := s.steps[i]
		run := st.run
		if resume && i == from && st.resume != nil {
			run = st.resume
		}
		if err := s.runStep(ctx, i, run); err != nil {
			logger.Warn("Workflow stopped", "step", st.name, "kind", edc.KindOf(err), "err", err)
			return err
		}
	}
	s.update(func(snap *Snapshot) { snap.State = StateSucceeded })
	logger.Info("Workflow finished")
	return nil
}

func (s *Session) runStep(ctx context.Context, i int, run func(context.Context) (string, error)) error {
	name := s.steps[i].name
	ctx, logger := logging.InjectLabels(ctx, "step", name)
	logger.Info("Step started")
	s.update(func(snap *Snapshot) {
		s.current = i
		snap.Steps[i] = Step{Name: name, Status: StepRunning, StartedAt: time.Now().UTC()}
	})

	ref, err := run(ctx)

	s.update(func(snap *Snapshot) {
		s.current = -1
		st := &snap.Steps[i]
		st.FinishedAt = time.Now().UTC()
		st.Ref = ref
		switch {
		case err == nil:
			st.Status = StepSucceeded
		case edc.Resumable(err):
			st.Status = StepSuspended
			st.ErrorKind, st.Error = edc.KindOf(err), err.Error()
			snap.State = StateSuspended
		default:
			st.Status = StepFailed
			st.ErrorKind, st.Error = edc.KindOf(err), err.Error()
			snap.State = StateFailed
		}
	})
	if err != nil {
		return fmt.Errorf("step %s: %w", name, err)
	}
	logger.Info("Step succeeded", "ref", ref)
	return nil
}

func (s *Session) createAsset(ctx context.Context) (string, error) {
	return s.conn.CreateAsset(ctx, s.req.Asset)
}

func (s *Session) createPolicy(ctx context.Context) (string, error) {
	return s.conn.CreatePolicy(ctx, s.req.Policy)
}

func (s *Session) createContractDefinition(ctx context.Context) (string, error) {
	return s.conn.CreateContractDefinition(ctx, s.req.ContractDefinition)
}

// queryCatalog looks for the offer made for the contract definition created by this session.
func (s *Session) queryCatalog(ctx context.Context) (string, error) {
	entries, err := s.conn.QueryCatalog(ctx, s.req.ProviderEndpoint)
	if err != nil {
		return "", err
	}
	for _, e := range entries {
		if e.ContractDefinitionID == s.req.ContractDefinition.ID {
			s.update(func(snap *Snapshot) { snap.Offer = &e })
			return e.OfferID, nil
		}
	}
	return "", fmt.Errorf(
		"%w: no offer for contract definition %q in the catalog of %s",
		edc.ErrNotFound, s.req.ContractDefinition.ID, s.req.ProviderEndpoint)
}

func (s *Session) observeNegotiation(n edc.NegotiationState) {
	s.update(func(snap *Snapshot) { snap.Negotiation = &n })
}

func (s *Session) observeTransfer(t edc.TransferState) {
	s.update(func(snap *Snapshot) { snap.Transfer = &t })
}

func (s *Session) negotiator() *orchestrator.Negotiator {
	return orchestrator.NewNegotiator(s.conn, s.cfg.Options, s.observeNegotiation)
}

func (s *Session) transferer() *orchestrator.Transferer {
	t := orchestrator.NewTransferer(s.conn, s.cfg.Options, s.observeTransfer)
	t.SettleOnStarted = s.cfg.SettleOnStarted
	return t
}

func (s *Session) negotiate(ctx context.Context) (string, error) {
	offer := s.Snapshot().Offer
	if offer == nil {
		return "", fmt.Errorf("%w: no offer to negotiate", edc.ErrValidation)
	}
	state, err := s.negotiator().Run(ctx, *offer)
	return state.ID, err
}

func (s *Session) resumeNegotiation(ctx context.Context) (string, error) {
	neg := s.Snapshot().Negotiation
	if neg == nil || neg.ID == "" {
		return s.negotiate(ctx)
	}
	state, err := s.negotiator().Resume(ctx, neg.ID, neg.Status)
	return state.ID, err
}

func (s *Session) transfer(ctx context.Context) (string, error) {
	snap := s.Snapshot()
	if snap.Negotiation == nil || snap.Offer == nil {
		return "", fmt.Errorf("%w: no finalized negotiation to transfer for", edc.ErrValidation)
	}
	dest := edc.TransferDestination{
		CounterPartyAddress: snap.Offer.ProviderEndpoint,
		AssetID:             snap.Offer.DatasetID,
		TransferType:        s.req.TransferType,
	}
	if s.req.DataDestination != nil {
		dest.DataDestination = *s.req.DataDestination
	}
	state, err := s.transferer().Run(ctx, *snap.Negotiation, dest)
	return state.ID, err
}

func (s *Session) resumeTransfer(ctx context.Context) (string, error) {
	tr := s.Snapshot().Transfer
	if tr == nil || tr.ID == "" {
		return s.transfer(ctx)
	}
	state, err := s.transferer().Resume(ctx, tr.ID, tr.Status)
	return state.ID, err
}
