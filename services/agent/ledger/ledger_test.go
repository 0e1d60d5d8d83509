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
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRecord(stage Stage, summary string) ActionRecord {
	return ActionRecord{
		Stage:         stage,
		Summary:       summary,
		Justification: "keeps the campaign riding existing momentum",
		Mode:          "demo",
	}
}

func TestStagesFixedOrder(t *testing.T) {
	want := []Stage{
		StageTrendScan, StageContentCreate, StageEngage, StagePublish,
		StageOutreach, StageSEO, StageAnalyze,
	}
	assert.Equal(t, want, Stages())

	for _, s := range Stages() {
		assert.True(t, s.Valid(), "stage %q", s)
	}
	assert.False(t, Stage("bogus").Valid())
	assert.False(t, Stage("").Valid())
}

func TestAppendAssignsIdentity(t *testing.T) {
	l := New()

	rec, err := l.Append(context.Background(), testRecord(StageTrendScan, "scanned trends"))
	require.NoError(t, err)

	assert.Equal(t, uint64(1), rec.Seq)
	assert.NotEmpty(t, rec.ID)
	assert.False(t, rec.Timestamp.IsZero())

	rec2, err := l.Append(context.Background(), testRecord(StagePublish, "published"))
	require.NoError(t, err)
	assert.Equal(t, uint64(2), rec2.Seq)
	assert.NotEqual(t, rec.ID, rec2.ID)
}

func TestAppendValidation(t *testing.T) {
	tests := []struct {
		name string
		rec  ActionRecord
	}{
		{"invalid stage", ActionRecord{Stage: "bogus", Summary: "s", Justification: "j"}},
		{"empty summary", ActionRecord{Stage: StageEngage, Justification: "j"}},
		{"missing justification", ActionRecord{Stage: StageEngage, Summary: "s"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := New()
			_, err := l.Append(context.Background(), tt.rec)
			assert.Error(t, err)
			assert.Zero(t, l.Len(), "failed append must not add a record")
		})
	}
}

func TestFailureRecordNeedsNoJustification(t *testing.T) {
	l := New()
	rec, err := l.Append(context.Background(), ActionRecord{
		Stage:   StagePublish,
		Summary: "Stage failed: rate limited",
		Failed:  true,
	})
	require.NoError(t, err)
	assert.True(t, rec.Failed)
	assert.Empty(t, rec.Justification)
}

func TestRecentMostRecentFirst(t *testing.T) {
	l := New()
	for i := 0; i < 5; i++ {
		_, err := l.Append(context.Background(), testRecord(StageEngage, fmt.Sprintf("action %d", i)))
		require.NoError(t, err)
	}

	recent := l.Recent(3)
	require.Len(t, recent, 3)
	assert.Equal(t, "action 4", recent[0].Summary)
	assert.Equal(t, "action 3", recent[1].Summary)
	assert.Equal(t, "action 2", recent[2].Summary)

	// Asking for more than exists returns everything.
	assert.Len(t, l.Recent(100), 5)
	assert.Empty(t, l.Recent(0))
	assert.Empty(t, l.Recent(-1))
}

func TestAllCreationOrderAndCopy(t *testing.T) {
	l := New()
	for i := 0; i < 3; i++ {
		_, err := l.Append(context.Background(), testRecord(StageSEO, fmt.Sprintf("asset %d", i)))
		require.NoError(t, err)
	}

	all := l.All()
	require.Len(t, all, 3)
	for i, rec := range all {
		assert.Equal(t, uint64(i+1), rec.Seq)
	}

	// Mutating the returned slice must not affect the ledger.
	all[0].Summary = "tampered"
	assert.Equal(t, "asset 0", l.All()[0].Summary)
}

func TestConcurrentReadersSingleWriter(t *testing.T) {
	l := New()
	const total = 200

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < total; i++ {
			_, err := l.Append(context.Background(), testRecord(StageAnalyze, fmt.Sprintf("pass %d", i)))
			assert.NoError(t, err)
		}
	}()

	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				for _, rec := range l.Recent(10) {
					assert.NotEmpty(t, rec.Summary)
					assert.NotZero(t, rec.Seq)
				}
				_ = l.Len()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, total, l.Len())
}
