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

package edc_test

import (
	"testing"

	"github.com/go-dataspace/run-console/edc"
	"github.com/go-dataspace/run-console/edc/statemachine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormaliseNegotiationStatus(t *testing.T) {
	t.Parallel()
	n := statemachine.NegotiationStatuses
	tests := []struct {
		in   string
		want statemachine.NegotiationStatus
	}{
		{"INITIAL", n.INITIAL},
		{"REQUESTING", n.INITIAL},
		{"REQUESTED", n.REQUESTED},
		{"OFFERING", n.REQUESTED},
		{"dspace:OFFERED", n.OFFERED},
		{"ACCEPTING", n.OFFERED},
		{"AGREEING", n.ACCEPTED},
		{"edc:AGREED", n.AGREED},
		{"VERIFYING", n.AGREED},
		{"finalizing", n.VERIFIED},
		{"FINALIZED", n.FINALIZED},
		{"TERMINATING", n.TERMINATED},
		{"https://w3id.org/dspace/v0.8/TERMINATED", n.TERMINATED},
	}
	for _, test := range tests {
		got, err := edc.NormaliseNegotiationStatus(test.in)
		require.NoError(t, err, test.in)
		assert.Equal(t, test.want, got, test.in)
	}

	_, err := edc.NormaliseNegotiationStatus("STARTED")
	assert.ErrorIs(t, err, edc.ErrProtocolViolation)
}

func TestNormaliseTransferStatus(t *testing.T) {
	t.Parallel()
	s := statemachine.TransferStatuses
	tests := []struct {
		in          string
		errorDetail string
		want        statemachine.TransferStatus
	}{
		{"INITIAL", "", s.INITIAL},
		{"PROVISIONING", "", s.INITIAL},
		{"PROVISIONED", "", s.INITIAL},
		{"REQUESTING", "", s.INITIAL},
		{"REQUESTED", "", s.REQUESTED},
		{"STARTING", "", s.REQUESTED},
		{"STARTED", "", s.STARTED},
		{"SUSPENDING", "", s.STARTED},
		{"SUSPENDED", "", s.SUSPENDED},
		{"RESUMING", "", s.SUSPENDED},
		{"COMPLETING", "", s.STARTED},
		{"COMPLETED", "", s.COMPLETED},
		{"TERMINATING", "", s.TERMINATED},
		{"DEPROVISIONED", "", s.COMPLETED},
		{"DEPROVISIONING", "", s.COMPLETED},
		{"DEPROVISIONED", "data plane failed", s.TERMINATED},
	}
	for _, test := range tests {
		got, err := edc.NormaliseTransferStatus(test.in, test.errorDetail)
		require.NoError(t, err, test.in)
		assert.Equal(t, test.want, got, test.in)
	}

	_, err := edc.NormaliseTransferStatus("AGREED", "")
	assert.ErrorIs(t, err, edc.ErrProtocolViolation)
}

func TestKindOf(t *testing.T) {
	t.Parallel()
	assert.Equal(t, edc.Kind(""), edc.KindOf(nil))
	assert.Equal(t, edc.KindTimeout, edc.KindOf(edc.ErrTimeout))
	assert.Equal(t, edc.KindUnknown, edc.KindOf(assert.AnError))
	ce := &edc.ConnectorError{Kind: edc.ErrNotFound, Method: "GET", URL: "http://x", StatusCode: 404}
	assert.Equal(t, edc.KindNotFound, edc.KindOf(ce))
	assert.Contains(t, ce.Error(), "status 404")
	assert.True(t, edc.Resumable(edc.ErrCancelled))
	assert.False(t, edc.Resumable(edc.ErrNegotiationFailed))
}
