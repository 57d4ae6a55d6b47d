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

package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-dataspace/run-console/logging"
)

// Store keeps session snapshots for the lifetime of the process.
type Store interface {
	Put(ctx context.Context, snap Snapshot) error
	// Get returns ErrNotFound for unknown ids.
	Get(ctx context.Context, id string) (Snapshot, error)
	Delete(ctx context.Context, id string) error
}

type run struct {
	session *Session
	cancel  context.CancelFunc
	done    chan struct{}

	// mu orders persisting snapshots against discarding the run.
	mu        sync.Mutex
	discarded bool
}

// Manager runs one session at a time on a background goroutine. Starting a new session
// discards the previous one.
type Manager struct {
	ctx   context.Context
	conn  Connector
	cfg   Config
	store Store

	mu      sync.Mutex
	current *run
}

// NewManager returns a manager. Sessions run with a context derived from ctx, so cancelling it
// stops every poll loop.
func NewManager(ctx context.Context, conn Connector, cfg Config, store Store) *Manager {
	return &Manager{ctx: ctx, conn: conn, cfg: cfg, store: store}
}

// Start starts a workflow on a new session and returns its first snapshot. A previous session
// is cancelled, and Start waits for its run to stop before the new one is launched.
func (m *Manager) Start(ctx context.Context, req WorkflowRequest) (Snapshot, error) {
	if err := req.Validate(ctx); err != nil {
		return Snapshot{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if prev := m.current; prev != nil {
		prev.mu.Lock()
		prev.discarded = true
		prev.mu.Unlock()
		prev.cancel()
		m.current = nil
		if err := m.store.Delete(ctx, prev.session.ID()); err != nil {
			logging.Extract(ctx).Warn("Could not delete previous session", "session_id", prev.session.ID(), "err", err)
		}
		// The run never takes m.mu, so waiting here cannot deadlock.
		select {
		case <-prev.done:
		case <-ctx.Done():
			return Snapshot{}, fmt.Errorf("waiting for session %s to stop: %w", prev.session.ID(), ctx.Err())
		}
	}

	r := &run{}
	r.session = New(m.conn, m.cfg, req, func(snap Snapshot) { m.persist(r, snap) })
	if err := m.store.Put(ctx, r.session.Snapshot()); err != nil {
		return Snapshot{}, fmt.Errorf("could not store session: %w", err)
	}
	m.current = r
	m.launch(r, r.session.Run)
	logging.Extract(ctx).Info("Workflow started", "session_id", r.session.ID())
	return r.session.Snapshot(), nil
}

// launch runs f on a goroutine, m.mu must be held.
func (m *Manager) launch(r *run, f func(context.Context) error) {
	ctx, cancel := context.WithCancel(m.ctx)
	r.cancel = cancel
	r.done = make(chan struct{})
	go func() {
		defer close(r.done)
		defer cancel()
		_ = f(ctx)
	}()
}

// persist writes a snapshot through to the store, unless its session was discarded. It runs
// with the session locked, so it must not take m.mu.
func (m *Manager) persist(r *run, snap Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.discarded {
		return
	}
	if err := m.store.Put(m.ctx, snap); err != nil {
		logging.Extract(m.ctx).Error("Could not store session snapshot", "session_id", snap.ID, "err", err)
	}
}

func (m *Manager) lookup(id string) (*run, error) {
	if m.current == nil || m.current.session.ID() != id {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return m.current, nil
}

// Snapshot returns the latest stored snapshot of a session.
func (m *Manager) Snapshot(ctx context.Context, id string) (Snapshot, error) {
	return m.store.Get(ctx, id)
}

// Current returns the snapshot of the current session.
func (m *Manager) Current() (Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return Snapshot{}, fmt.Errorf("%w: no workflow was started", ErrNotFound)
	}
	return m.current.session.Snapshot(), nil
}

// Cancel stops the poll loop of a session at its next poll boundary. The remote negotiation or
// transfer is left alone.
func (m *Manager) Cancel(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, err := m.lookup(id)
	if err != nil {
		return err
	}
	if !r.session.Polling() {
		return fmt.Errorf("%w: %s", ErrNotPolling, id)
	}
	r.cancel()
	return nil
}

// Resume resumes polling of a suspended session in the background.
func (m *Manager) Resume(ctx context.Context, id string) (Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, err := m.lookup(id)
	if err != nil {
		return Snapshot{}, err
	}
	select {
	case <-r.done:
	default:
		return Snapshot{}, fmt.Errorf("%w: %s is still running", ErrNotSuspended, id)
	}
	if snap := r.session.Snapshot(); snap.State != StateSuspended {
		return Snapshot{}, fmt.Errorf("%w: %s is %s", ErrNotSuspended, id, snap.State)
	}
	m.launch(r, r.session.Resume)
	logging.Extract(ctx).Info("Workflow resumed", "session_id", id)
	return r.session.Snapshot(), nil
}

// Wait blocks until the current run of a session ends, and returns its snapshot.
func (m *Manager) Wait(ctx context.Context, id string) (Snapshot, error) {
	m.mu.Lock()
	r, err := m.lookup(id)
	var done chan struct{}
	if err == nil {
		done = r.done
	}
	m.mu.Unlock()
	if err != nil {
		return Snapshot{}, err
	}
	select {
	case <-done:
		return r.session.Snapshot(), nil
	case <-ctx.Done():
		return r.session.Snapshot(), ctx.Err()
	}
}

// Close cancels the current session and waits for it to stop.
func (m *Manager) Close() {
	m.mu.Lock()
	r := m.current
	if r == nil {
		m.mu.Unlock()
		return
	}
	cancel, done := r.cancel, r.done
	m.mu.Unlock()
	cancel()
	<-done
}
