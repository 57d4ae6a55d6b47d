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

package statemachine_test

import (
	"testing"

	"github.com/go-dataspace/run-console/edc/statemachine"
	"github.com/stretchr/testify/assert"
)

func TestNegotiationSequences(t *testing.T) {
	t.Parallel()
	ns := statemachine.NegotiationStatuses
	tests := []struct {
		name     string
		observed []statemachine.NegotiationStatus
		legal    bool
	}{
		{
			name:     "Happy path skipping states.",
			observed: []statemachine.NegotiationStatus{ns.REQUESTED, ns.AGREED, ns.VERIFIED, ns.FINALIZED},
			legal:    true,
		},
		{
			name:     "Repeated observations.",
			observed: []statemachine.NegotiationStatus{ns.REQUESTED, ns.REQUESTED, ns.AGREED, ns.AGREED},
			legal:    true,
		},
		{
			name:     "Counter offer.",
			observed: []statemachine.NegotiationStatus{ns.REQUESTED, ns.OFFERED, ns.REQUESTED, ns.AGREED},
			legal:    true,
		},
		{
			name:     "Jump straight to finalized.",
			observed: []statemachine.NegotiationStatus{ns.FINALIZED},
			legal:    true,
		},
		{
			name:     "Regression after agreement.",
			observed: []statemachine.NegotiationStatus{ns.REQUESTED, ns.AGREED, ns.REQUESTED},
			legal:    false,
		},
		{
			name:     "Leaving a terminal state.",
			observed: []statemachine.NegotiationStatus{ns.TERMINATED, ns.REQUESTED},
			legal:    false,
		},
		{
			name:     "Back to initial.",
			observed: []statemachine.NegotiationStatus{ns.REQUESTED, ns.INITIAL},
			legal:    false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			prev := statemachine.NegotiationGraph.Initial()
			var err error
			for _, s := range tt.observed {
				if err = statemachine.NegotiationGraph.Check(prev, s); err != nil {
					break
				}
				prev = s
			}
			if tt.legal {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, statemachine.ErrIllegalTransition)
			}
		})
	}
}

func TestTransferReachability(t *testing.T) {
	t.Parallel()
	ts := statemachine.TransferStatuses
	g := statemachine.TransferGraph
	assert.True(t, g.Reachable(ts.REQUESTED, ts.COMPLETED))
	assert.True(t, g.Reachable(ts.SUSPENDED, ts.STARTED))
	assert.True(t, g.Reachable(ts.STARTED, ts.SUSPENDED))
	assert.False(t, g.Reachable(ts.STARTED, ts.REQUESTED))
	assert.False(t, g.Reachable(ts.COMPLETED, ts.STARTED))
	assert.True(t, g.Terminal(ts.COMPLETED))
	assert.True(t, g.Terminal(ts.TERMINATED))
	assert.False(t, g.Terminal(ts.SUSPENDED))
}

func TestCheckUnknownState(t *testing.T) {
	t.Parallel()
	err := statemachine.TransferGraph.Check(
		statemachine.TransferStatuses.STARTED, statemachine.TransferStatus("EXPLODED"))
	assert.ErrorIs(t, err, statemachine.ErrUnknownStatus)
}

func TestParseStates(t *testing.T) {
	t.Parallel()
	got, err := statemachine.ParseNegotiationStatus("dspace:FINALIZED")
	assert.NoError(t, err)
	assert.Equal(t, statemachine.NegotiationStatuses.FINALIZED, got)

	got, err = statemachine.ParseNegotiationStatus("agreed")
	assert.NoError(t, err)
	assert.Equal(t, statemachine.NegotiationStatuses.AGREED, got)

	_, err = statemachine.ParseNegotiationStatus("PONDERING")
	assert.ErrorIs(t, err, statemachine.ErrUnknownStatus)

	tr, err := statemachine.ParseTransferStatus("STARTED")
	assert.NoError(t, err)
	assert.Equal(t, statemachine.TransferStatuses.STARTED, tr)

	_, err = statemachine.ParseTransferStatus("")
	assert.ErrorIs(t, err, statemachine.ErrUnknownStatus)
}
