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

package badger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/go-dataspace/run-console/edc/session"
	"github.com/go-dataspace/run-console/logging"
)

var _ session.Store = (*StorageProvider)(nil)

func sessionKey(id string) []byte {
	return []byte("session-" + id)
}

// Put saves a session snapshot, replacing an earlier one.
func (sp *StorageProvider) Put(ctx context.Context, snap session.Snapshot) error {
	b, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("could not encode session %s: %w", snap.ID, err)
	}
	logging.Extract(ctx).Debug("Writing to store", "key", string(sessionKey(snap.ID)))
	return put(sp.db, sessionKey(snap.ID), b)
}

// Get returns the snapshot of a session, or session.ErrNotFound.
func (sp *StorageProvider) Get(ctx context.Context, id string) (session.Snapshot, error) {
	b, err := get(sp.db, sessionKey(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return session.Snapshot{}, fmt.Errorf("%w: %s", session.ErrNotFound, id)
	}
	if err != nil {
		logging.Extract(ctx).Error("Could not get session", "session_id", id, "err", err)
		return session.Snapshot{}, fmt.Errorf("could not get session %s: %w", id, err)
	}
	var snap session.Snapshot
	if err := json.Unmarshal(b, &snap); err != nil {
		return session.Snapshot{}, fmt.Errorf("could not decode session %s: %w", id, err)
	}
	return snap, nil
}

// Delete removes a session.
func (sp *StorageProvider) Delete(_ context.Context, id string) error {
	return del(sp.db, sessionKey(id))
}
