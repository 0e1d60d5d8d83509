// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package ledger implements the append-only action ledger.
//
// The ledger is the source of truth for everything the agent has done.
// One writer (the cycle orchestrator) appends fully constructed records;
// the dashboard reads bounded suffixes concurrently. Reads return copies,
// so a reader can never observe a partially constructed record. There is
// no delete operation.
//
// An optional Archive (BadgerDB) tees every append to disk and replays
// history at startup, mirroring how the original tool survived restarts.
package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Stage is one of the seven fixed pipeline steps of a marketing cycle.
type Stage string

const (
	StageTrendScan     Stage = "trend_scan"
	StageContentCreate Stage = "content_create"
	StageEngage        Stage = "engage"
	StagePublish       Stage = "publish"
	StageOutreach      Stage = "outreach"
	StageSEO           Stage = "seo"
	StageAnalyze       Stage = "analyze"
)

// Stages returns the seven stages in fixed cycle order.
func Stages() []Stage {
	return []Stage{
		StageTrendScan,
		StageContentCreate,
		StageEngage,
		StagePublish,
		StageOutreach,
		StageSEO,
		StageAnalyze,
	}
}

// Valid reports whether s is one of the seven pipeline stages.
func (s Stage) Valid() bool {
	switch s {
	case StageTrendScan, StageContentCreate, StageEngage, StagePublish,
		StageOutreach, StageSEO, StageAnalyze:
		return true
	}
	return false
}

// ActionRecord is one logged, justified unit of work.
//
// Records are immutable once appended. Ordering equals creation order;
// (Timestamp, Seq) is unique, with Seq breaking ties within a second.
// Justification is a data contract with the dashboard: non-empty and
// stage-appropriate for every non-failure record.
type ActionRecord struct {
	ID            string            `json:"id"`
	Seq           uint64            `json:"seq"`
	Timestamp     time.Time         `json:"timestamp"`
	Stage         Stage             `json:"stage"`
	Summary       string            `json:"summary"`
	Justification string            `json:"justification"`
	Result        string            `json:"result,omitempty"`
	Platform      string            `json:"platform,omitempty"`
	Mode          string            `json:"mode"`
	Failed        bool              `json:"failed"`
	Details       map[string]string `json:"details,omitempty"`
}

// Archive persists records beyond process lifetime.
//
// Implementations must write records atomically and return them from
// Replay in ascending Seq order.
type Archive interface {
	Append(ctx context.Context, rec ActionRecord) error
	Replay(ctx context.Context) ([]ActionRecord, error)
	Close() error
}

// Ledger is the in-memory append-only record store.
//
// Thread Safety: safe for one writer and many readers. Readers always
// get copies of fully constructed records.
type Ledger struct {
	mu      sync.RWMutex
	records []ActionRecord
	seq     uint64
	archive Archive
}

// New creates an empty ledger with no archive.
func New() *Ledger {
	return &Ledger{}
}

// NewWithArchive creates a ledger backed by an archive.
//
// Description:
//
//	Replays archived records into memory so the dashboard shows history
//	from before the restart, then resumes the sequence counter after
//	the highest replayed Seq.
//
// Inputs:
//
//	ctx - Context for the replay read.
//	archive - The persistence backend. Must not be nil.
//
// Outputs:
//
//	*Ledger - Ready ledger with replayed history.
//	error - Non-nil if replay fails.
func NewWithArchive(ctx context.Context, archive Archive) (*Ledger, error) {
	records, err := archive.Replay(ctx)
	if err != nil {
		return nil, fmt.Errorf("replay archive: %w", err)
	}

	l := &Ledger{records: records, archive: archive}
	if n := len(records); n > 0 {
		l.seq = records[n-1].Seq
	}
	slog.Info("Ledger restored from archive", "records", len(records))
	return l, nil
}

// Append adds a record to the ledger.
//
// Description:
//
//	Assigns Seq, ID, and Timestamp (when unset), then makes the record
//	visible to readers in one step. Archive failures are logged and do
//	not fail the append: a degraded archive must not stop the agent.
//
// Inputs:
//
//	ctx - Context passed to the archive write.
//	rec - The record. Stage must be valid; Summary must be non-empty.
//
// Outputs:
//
//	ActionRecord - The record as stored (with Seq/ID/Timestamp set).
//	error - Non-nil only for malformed records.
func (l *Ledger) Append(ctx context.Context, rec ActionRecord) (ActionRecord, error) {
	if !rec.Stage.Valid() {
		return ActionRecord{}, fmt.Errorf("invalid stage %q", rec.Stage)
	}
	if rec.Summary == "" {
		return ActionRecord{}, fmt.Errorf("record summary must not be empty")
	}
	if !rec.Failed && rec.Justification == "" {
		return ActionRecord{}, fmt.Errorf("non-failure record requires a justification")
	}

	l.mu.Lock()
	l.seq++
	rec.Seq = l.seq
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}
	l.records = append(l.records, rec)
	l.mu.Unlock()

	if l.archive != nil {
		if err := l.archive.Append(ctx, rec); err != nil {
			slog.Warn("Ledger archive write failed", "seq", rec.Seq, "error", err)
		}
	}
	return rec, nil
}

// Recent returns up to n records, most recent first.
func (l *Ledger) Recent(n int) []ActionRecord {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if n < 0 {
		n = 0
	}
	if n > len(l.records) {
		n = len(l.records)
	}
	out := make([]ActionRecord, n)
	for i := 0; i < n; i++ {
		out[i] = l.records[len(l.records)-1-i]
	}
	return out
}

// All returns every record in creation order.
func (l *Ledger) All() []ActionRecord {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]ActionRecord, len(l.records))
	copy(out, l.records)
	return out
}

// Len returns the number of records.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.records)
}

// Close closes the archive, if any.
func (l *Ledger) Close() error {
	if l.archive == nil {
		return nil
	}
	return l.archive.Close()
}
