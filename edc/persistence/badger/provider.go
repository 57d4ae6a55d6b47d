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
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/go-dataspace/run-console/logging"
)

const (
	gcInterval = 5 * time.Minute
)

// StorageProvider keeps console state in an in-memory badger database.
type StorageProvider struct {
	ctx context.Context
	db  *badger.DB
}

// New returns a new in-memory badger storage provider. The database is closed when ctx is done.
func New(ctx context.Context) (*StorageProvider, error) {
	opt := badger.DefaultOptions("").WithInMemory(true)
	opt = opt.WithLogger(logAdaptor{logging.Extract(ctx)})

	ctx, _ = logging.InjectLabels(ctx,
		"module", "badger",
		"db_type", "memory",
	)
	db, err := badger.Open(opt)
	if err != nil {
		return nil, fmt.Errorf("could not open badger: %w", err)
	}
	sp := &StorageProvider{
		ctx: ctx,
		db:  db,
	}
	go sp.maintenance()
	return sp, nil
}

// maintenance is a goroutine that runs the badger garbage collection every gcInterval.
func (sp *StorageProvider) maintenance() {
	logger := logging.Extract(sp.ctx)
	logger.Info("Starting database maintenance loop")
	ticker := time.NewTicker(gcInterval)
	for {
		select {
		case <-ticker.C:
			logger.Debug("Garbage collection starting")
			err := sp.db.RunValueLogGC(0.7)
			if err != nil && !errors.Is(err, badger.ErrNoRewrite) && !errors.Is(err, badger.ErrGCInMemoryMode) {
				logger.Error("GC not completed cleanly", "err", err)
			}
		case <-sp.ctx.Done():
			ticker.Stop()
			if err := sp.db.Close(); err != nil {
				logger.Error("Could not close database", "err", err)
			}
			return
		}
	}
}

// get gets the bytes stored under key.
func get(db *badger.DB, key []byte) ([]byte, error) {
	var b []byte
	err := db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			b = append([]byte{}, val...)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return b, nil
}

func put(db *badger.DB, key []byte, value []byte) error {
	return db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, value)
	})
}

func del(db *badger.DB, key []byte) error {
	return db.Update(func(txn *badger.Txn) error {
		return txn.Delete(key)
	})
}

// logAdaptor makes badger log through slog.
type logAdaptor struct {
	logger *slog.Logger
}

func (la logAdaptor) Errorf(format string, args ...any) {
	la.logger.Error(fmt.Sprintf(format, args...))
}

func (la logAdaptor) Warningf(format string, args ...any) {
	la.logger.Warn(fmt.Sprintf(format, args...))
}

func (la logAdaptor) Infof(format string, args ...any) {
	la.logger.Debug(fmt.Sprintf(format, args...))
}

func (la logAdaptor) Debugf(format string, args ...any) {
	la.logger.Debug(fmt.Sprintf(format, args...))
}
