// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package ledger

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	badger "github.com/dgraph-io/badger/v4"
)

// actionKeyPrefix namespaces ledger records inside the BadgerDB keyspace.
const actionKeyPrefix = "action/"

// BadgerArchive persists ledger records in an embedded BadgerDB.
//
// Keys are the prefix plus the big-endian Seq, so Badger's lexicographic
// iteration order equals append order and Replay needs no sorting.
type BadgerArchive struct {
	db *badger.DB
}

// badgerLogger adapts slog to BadgerDB's Logger interface.
type badgerLogger struct{ logger *slog.Logger }

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}
func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}
func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}
func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

// OpenArchive opens (or creates) a persistent archive at path.
//
// Inputs:
//
//	path - Directory for BadgerDB files. Created with 0750 if missing.
//
// Outputs:
//
//	*BadgerArchive - The archive. Caller must Close() when done.
//	error - Non-nil if the directory or database cannot be opened.
func OpenArchive(path string) (*BadgerArchive, error) {
	if path == "" {
		return nil, fmt.Errorf("archive path must not be empty")
	}
	if err := os.MkdirAll(path, 0750); err != nil {
		return nil, fmt.Errorf("create archive directory %s: %w", path, err)
	}

	opts := badger.DefaultOptions(path).
		WithSyncWrites(true).
		WithNumVersionsToKeep(1).
		WithLogger(&badgerLogger{logger: slog.Default()})

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger archive: %w", err)
	}
	return &BadgerArchive{db: db}, nil
}

// OpenInMemoryArchive opens an archive that lives only in memory.
// Data is lost on Close. Used by tests.
func OpenInMemoryArchive() (*BadgerArchive, error) {
	opts := badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open in-memory archive: %w", err)
	}
	return &BadgerArchive{db: db}, nil
}

func archiveKey(seq uint64) []byte {
	key := make([]byte, len(actionKeyPrefix)+8)
	copy(key, actionKeyPrefix)
	binary.BigEndian.PutUint64(key[len(actionKeyPrefix):], seq)
	return key
}

// Append writes one record in a single transaction.
func (a *BadgerArchive) Append(ctx context.Context, rec ActionRecord) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context cancelled: %w", err)
	}

	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record %d: %w", rec.Seq, err)
	}
	err = a.db.Update(func(txn *badger.Txn) error {
		return txn.Set(archiveKey(rec.Seq), payload)
	})
	if err != nil {
		return fmt.Errorf("write record %d: %w", rec.Seq, err)
	}
	return nil
}

// Replay returns all archived records in ascending Seq order.
func (a *BadgerArchive) Replay(ctx context.Context) ([]ActionRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context cancelled: %w", err)
	}

	var records []ActionRecord
	err := a.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(actionKeyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var rec ActionRecord
				if err := json.Unmarshal(val, &rec); err != nil {
					return fmt.Errorf("decode record at %x: %w", it.Item().Key(), err)
				}
				records = append(records, rec)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// Close closes the underlying database.
func (a *BadgerArchive) Close() error {
	return a.db.Close()
}
