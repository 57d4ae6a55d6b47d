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

package orchestrator_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/go-dataspace/run-console/edc"
	"github.com/go-dataspace/run-console/edc/orchestrator"
	"github.com/go-dataspace/run-console/edc/statemachine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ns = statemachine.NegotiationStatuses

const interval = 20 * time.Millisecond

func fastOptions() orchestrator.Options {
	return orchestrator.Options{
		Interval:   interval,
		Timeout:    time.Second,
		Retries:    3,
		RetryDelay: time.Millisecond,
	}
}

// scripted answers fetches with the given results in order, the last one repeating.
type scripted struct {
	sync.Mutex
	results []result
	calls   int
}

type result struct {
	status statemachine.NegotiationStatus
	err    error
}

func (s *scripted) fetch(_ context.Context, id string) (edc.NegotiationState, error) {
	s.Lock()
	defer s.Unlock()
	r := s.results[min(s.calls, len(s.results)-1)]
	s.calls++
	if r.err != nil {
		return edc.NegotiationState{}, r.err
	}
	return edc.NegotiationState{ID: id, Status: r.status, AgreementID: "agr-1"}, nil
}

func (s *scripted) count() int {
	s.Lock()
	defer s.Unlock()
	return s.calls
}

func newPoller(s *scripted, opts orchestrator.Options) *orchestrator.Poller[statemachine.NegotiationStatus, edc.NegotiationState] {
	return &orchestrator.Poller[statemachine.NegotiationStatus, edc.NegotiationState]{
		Kind:     "negotiation",
		Graph:    statemachine.NegotiationGraph,
		Fetch:    s.fetch,
		StatusOf: func(s edc.NegotiationState) statemachine.NegotiationStatus { return s.Status },
		Options:  opts,
	}
}

func TestPollUntilTerminal(t *testing.T) {
	t.Parallel()
	s := &scripted{results: []result{
		{status: ns.REQUESTED},
		{status: ns.REQUESTED},
		{status: ns.AGREED},
		{status: ns.FINALIZED},
	}}

	out, err := newPoller(s, fastOptions()).Poll(context.Background(), "neg-1", ns.INITIAL)
	require.NoError(t, err)
	assert.Equal(t, ns.FINALIZED, out.Status)
	assert.Equal(t, 4, out.Polls)
	require.Len(t, out.Trail, 3)
	assert.Equal(t, ns.REQUESTED, out.Trail[0].Status)
	assert.Equal(t, ns.FINALIZED, out.Trail[2].Status)
}

func TestPollTimeout(t *testing.T) {
	t.Parallel()
	s := &scripted{results: []result{{status: ns.REQUESTED}}}
	opts := fastOptions()
	opts.Timeout = 3 * interval

	start := time.Now()
	out, err := newPoller(s, opts).Poll(context.Background(), "neg-1", ns.INITIAL)
	require.ErrorIs(t, err, edc.ErrTimeout)
	assert.Equal(t, edc.KindTimeout, edc.KindOf(err))
	assert.LessOrEqual(t, out.Polls, 3)
	assert.Equal(t, ns.REQUESTED, out.Status)
	assert.Less(t, time.Since(start), time.Second)
}

func TestPollCancellation(t *testing.T) {
	t.Parallel()
	s := &scripted{results: []result{{status: ns.REQUESTED}}}
	opts := fastOptions()
	opts.Interval = time.Hour
	opts.Timeout = 2 * time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() {
		_, err := newPoller(s, opts).Poll(ctx, "neg-1", ns.INITIAL)
		done <- err
	}()

	require.Eventually(t, func() bool { return s.count() == 1 }, time.Second, time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, edc.ErrCancelled)
	case <-time.After(time.Second):
		t.Fatal("poll loop did not stop")
	}
	assert.Equal(t, 1, s.count())
}

func TestPollCancelledBeforeStart(t *testing.T) {
	t.Parallel()
	s := &scripted{results: []result{{status: ns.REQUESTED}}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newPoller(s, fastOptions()).Poll(ctx, "neg-1", ns.INITIAL)
	assert.ErrorIs(t, err, edc.ErrCancelled)
	assert.Zero(t, s.count())
}

func TestPollRegression(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		results []result
	}{
		{"requested after agreed", []result{{status: ns.AGREED}, {status: ns.REQUESTED}}},
		{"offered after verified", []result{{status: ns.VERIFIED}, {status: ns.OFFERED}}},
		{"unknown status", []result{{status: "BOGUS"}}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			s := &scripted{results: test.results}
			out, err := newPoller(s, fastOptions()).Poll(context.Background(), "neg-1", ns.INITIAL)
			require.ErrorIs(t, err, edc.ErrProtocolViolation)
			assert.Equal(t, len(test.results), out.Polls)
		})
	}
}

func TestPollSkipsIntermediateStates(t *testing.T) {
	t.Parallel()
	s := &scripted{results: []result{{status: ns.REQUESTED}, {status: ns.FINALIZED}}}
	_, err := newPoller(s, fastOptions()).Poll(context.Background(), "neg-1", ns.INITIAL)
	require.NoError(t, err)
}

func TestPollRetriesTransientFailures(t *testing.T) {
	t.Parallel()
	unreachable := fmt.Errorf("fetch: %w", edc.ErrUnreachable)
	s := &scripted{results: []result{
		{status: ns.REQUESTED},
		{err: unreachable},
		{status: ns.FINALIZED},
	}}

	out, err := newPoller(s, fastOptions()).Poll(context.Background(), "neg-1", ns.INITIAL)
	require.NoError(t, err)
	assert.Equal(t, ns.FINALIZED, out.Status)
	assert.Equal(t, 3, s.count())
	assert.Equal(t, 2, out.Polls)
}

func TestPollEscalatesPersistentFailures(t *testing.T) {
	t.Parallel()
	s := &scripted{results: []result{{err: fmt.Errorf("fetch: %w", edc.ErrUnreachable)}}}

	_, err := newPoller(s, fastOptions()).Poll(context.Background(), "neg-1", ns.INITIAL)
	require.ErrorIs(t, err, edc.ErrUnreachable)
	assert.Equal(t, 4, s.count())
}

func TestPollDoesNotRetryHardFailures(t *testing.T) {
	t.Parallel()
	s := &scripted{results: []result{{err: fmt.Errorf("fetch: %w", edc.ErrNotFound)}}}

	_, err := newPoller(s, fastOptions()).Poll(context.Background(), "neg-1", ns.INITIAL)
	require.ErrorIs(t, err, edc.ErrNotFound)
	assert.Equal(t, 1, s.count())
}

func TestPollTrailIsBounded(t *testing.T) {
	t.Parallel()
	results := []result{}
	for range 5 {
		results = append(results, result{status: ns.REQUESTED}, result{status: ns.OFFERED})
	}
	results = append(results, result{status: ns.TERMINATED})
	s := &scripted{results: results}
	opts := fastOptions()
	opts.Interval = time.Millisecond
	opts.TrailSize = 4

	out, err := newPoller(s, opts).Poll(context.Background(), "neg-1", ns.INITIAL)
	require.NoError(t, err)
	require.Len(t, out.Trail, 4)
	assert.Equal(t, ns.TERMINATED, out.Trail[3].Status)
}
