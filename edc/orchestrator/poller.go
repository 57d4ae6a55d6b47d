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

// Package orchestrator drives contract negotiations and transfer processes to a terminal state
// by polling the connector.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/avast/retry-go/v5"
	"github.com/gammazero/deque"
	"github.com/go-dataspace/run-console/edc"
	"github.com/go-dataspace/run-console/edc/statemachine"
	"github.com/go-dataspace/run-console/logging"
)

// Defaults for Options.
const (
	DefaultInterval   = 2 * time.Second
	DefaultTimeout    = 120 * time.Second
	DefaultRetries    = 3
	DefaultRetryDelay = 250 * time.Millisecond
	DefaultTrailSize  = 32
)

// Options bound the polling of a single operation.
type Options struct {
	// Interval is the wait between two polls.
	Interval time.Duration
	// Timeout bounds the total time spent polling before ErrTimeout is returned.
	Timeout time.Duration
	// Retries is the number of extra attempts for a poll that failed with ErrUnreachable.
	Retries int
	// RetryDelay is the base of the exponential backoff between those attempts.
	RetryDelay time.Duration
	// TrailSize is the number of status changes kept in an Outcome.
	TrailSize int
}

// DefaultOptions returns the default polling options.
func DefaultOptions() Options {
	return Options{
		Interval:   DefaultInterval,
		Timeout:    DefaultTimeout,
		Retries:    DefaultRetries,
		RetryDelay: DefaultRetryDelay,
		TrailSize:  DefaultTrailSize,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Interval <= 0 {
		o.Interval = d.Interval
	}
	if o.Timeout <= 0 {
		o.Timeout = d.Timeout
	}
	if o.Retries < 0 {
		o.Retries = 0
	}
	if o.RetryDelay <= 0 {
		o.RetryDelay = d.RetryDelay
	}
	if o.TrailSize <= 0 {
		o.TrailSize = d.TrailSize
	}
	return o
}

// Observation is a status change seen while polling.
type Observation[S comparable] struct {
	Status S         `json:"status"`
	SeenAt time.Time `json:"seenAt"`
}

// Outcome is the result of polling: the last value fetched, the status changes seen, and the
// number of polls made.
type Outcome[S comparable, T any] struct {
	Last   T
	Status S
	Trail  []Observation[S]
	Polls  int
}

// Poller polls a remote entity until its status settles. It is parameterised by the status type
// S and the fetched value T.
type Poller[S comparable, T any] struct {
	// Kind names the polled entity in logs, metrics and errors.
	Kind     string
	Graph    *statemachine.Graph[S]
	Fetch    func(ctx context.Context, id string) (T, error)
	StatusOf func(T) S
	// Settled decides when to stop polling, it defaults to the terminal states of the graph.
	Settled func(S) bool
	// Observe is called with every accepted value.
	Observe func(T)
	Options Options
}

// Poll polls the entity with the given id, starting from the last known status. The first poll
// happens immediately. Cancelling ctx stops polling at the next poll boundary: a request in
// flight is allowed to finish, its result is discarded and ErrCancelled is returned.
//
// Errors wrap edc.ErrTimeout when the timeout would be exceeded by waiting another interval,
// edc.ErrProtocolViolation when the status moves against the graph, and the error of the fetch
// otherwise. The outcome holds the last accepted value in every case.
func (p *Poller[S, T]) Poll(ctx context.Context, id string, from S) (Outcome[S, T], error) {
	opts := p.Options.withDefaults()
	settled := p.Settled
	if settled == nil {
		settled = p.Graph.Terminal
	}
	ctx, logger := logging.InjectLabels(ctx, "kind", p.Kind, "id", id)

	trail := &deque.Deque[Observation[S]]{}
	out := Outcome[S, T]{Status: from}
	prev := from
	start := time.Now()
	defer func() {
		out.Trail = make([]Observation[S], trail.Len())
		for i := range trail.Len() {
			out.Trail[i] = trail.At(i)
		}
	}()

	for {
		if ctx.Err() != nil {
			pollsTotal.WithLabelValues(p.Kind, string(edc.KindCancelled)).Inc()
			return out, fmt.Errorf("%w: stopped polling %s %s", edc.ErrCancelled, p.Kind, id)
		}

		v, err := p.fetch(ctx, id, opts)
		out.Polls++
		if ctx.Err() != nil {
			logger.Debug("Discarding poll result after cancellation")
			pollsTotal.WithLabelValues(p.Kind, string(edc.KindCancelled)).Inc()
			return out, fmt.Errorf("%w: stopped polling %s %s", edc.ErrCancelled, p.Kind, id)
		}
		if err != nil {
			pollsTotal.WithLabelValues(p.Kind, string(edc.KindOf(err))).Inc()
			return out, fmt.Errorf("poll %s %s: %w", p.Kind, id, err)
		}

		status := p.StatusOf(v)
		if err := p.Graph.Check(prev, status); err != nil {
			logger.Error("Connector reported an illegal status", "from", prev, "to", status)
			pollsTotal.WithLabelValues(p.Kind, string(edc.KindProtocolViolation)).Inc()
			return out, fmt.Errorf("%w: %s %s: %w", edc.ErrProtocolViolation, p.Kind, id, err)
		}
		pollsTotal.WithLabelValues(p.Kind, "ok").Inc()

		if status != prev || trail.Len() == 0 {
			logger.Info("Status observed", "status", status)
			if trail.Len() == opts.TrailSize {
				trail.PopFront()
			}
			trail.PushBack(Observation[S]{Status: status, SeenAt: time.Now().UTC()})
		}
		out.Last, out.Status, prev = v, status, status
		if p.Observe != nil {
			p.Observe(v)
		}

		if settled(status) {
			return out, nil
		}

		if time.Since(start)+opts.Interval > opts.Timeout {
			logger.Warn("Polling timed out", "status", status, "polls", out.Polls)
			return out, fmt.Errorf("%w: %s %s still %v after %s", edc.ErrTimeout, p.Kind, id, status, opts.Timeout)
		}

		timer := time.NewTimer(opts.Interval)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
		}
	}
}

// fetch fetches the entity, retrying transient failures. The request itself is not cancelled
// with ctx, only the waits between attempts are.
func (p *Poller[S, T]) fetch(ctx context.Context, id string, opts Options) (T, error) {
	var v T
	err := withRetry(ctx, opts, func(reqCtx context.Context) error {
		var err error
		v, err = p.Fetch(reqCtx, id)
		return err
	})
	return v, err
}

func withRetry(ctx context.Context, opts Options, f func(context.Context) error) error {
	logger := logging.Extract(ctx)
	reqCtx := context.WithoutCancel(ctx)
	err := retry.New(
		retry.Context(ctx),
		retry.Attempts(uint(opts.Retries)+1),
		retry.Delay(opts.RetryDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return errors.Is(err, edc.ErrUnreachable)
		}),
	).Do(func() error {
		err := f(reqCtx)
		if errors.Is(err, edc.ErrUnreachable) {
			logger.Warn("Connector unreachable, retrying", "err", err)
		}
		return err
	})
	if err != nil && ctx.Err() != nil {
		return fmt.Errorf("%w: gave up retrying: %v", edc.ErrCancelled, err)
	}
	return err
}
