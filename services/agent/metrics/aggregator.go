// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package metrics owns the agent's aggregate counters.
//
// All counters live behind one Aggregator. Snapshot returns an immutable
// copy, so the dashboard never reads a half-updated cycle and needs no
// coordination with the single writer (the orchestrator).
//
// StageIncrements is the single source of truth for what each stage
// accomplishes. Keeping the mapping in one table rather than scattered
// through stage code makes it auditable and directly testable.
package metrics

import (
	"fmt"
	"sync"

	"github.com/AleutianAI/GuerrillaFOSS/services/agent/ledger"
)

// Name identifies one aggregate counter.
type Name string

// The fixed metric set. Counters only; all monotonically non-decreasing.
const (
	ActionsTotal       Name = "actions_total"
	TrendsIdentified   Name = "trends_identified"
	OpportunitiesFound Name = "opportunities_found"
	ContentCreated     Name = "content_created"
	Engagements        Name = "engagements"
	PostsPublished     Name = "posts_published"
	InfluencerContacts Name = "influencer_contacts"
	SEOAssets          Name = "seo_assets"
	AnalysesRun        Name = "analyses_run"
	EstimatedReach     Name = "estimated_reach"
)

// Names returns every metric in the fixed set.
func Names() []Name {
	return []Name{
		ActionsTotal,
		TrendsIdentified,
		OpportunitiesFound,
		ContentCreated,
		Engagements,
		PostsPublished,
		InfluencerContacts,
		SEOAssets,
		AnalysesRun,
		EstimatedReach,
	}
}

// Increment is one fixed delta applied when a stage succeeds.
type Increment struct {
	Metric Name
	By     int64
}

// StageIncrements maps every pipeline stage to the fixed counter deltas
// applied after the stage's success record is appended.
//
// One deliberate exception: EstimatedReach grows by the adapter-reported
// reach of a successful publish or engagement, not by a fixed delta, so
// it is applied by the orchestrator via IncrementBy and is absent here.
var StageIncrements = map[ledger.Stage][]Increment{
	ledger.StageTrendScan: {
		{ActionsTotal, 1}, {TrendsIdentified, 1}, {OpportunitiesFound, 1},
	},
	ledger.StageContentCreate: {
		{ActionsTotal, 1}, {ContentCreated, 1},
	},
	ledger.StageEngage: {
		{ActionsTotal, 1}, {Engagements, 1},
	},
	ledger.StagePublish: {
		{ActionsTotal, 1}, {PostsPublished, 1},
	},
	ledger.StageOutreach: {
		{ActionsTotal, 1}, {InfluencerContacts, 1},
	},
	ledger.StageSEO: {
		{ActionsTotal, 1}, {SEOAssets, 1},
	},
	ledger.StageAnalyze: {
		{ActionsTotal, 1}, {AnalysesRun, 1},
	},
}

// Snapshot is an immutable copy of all counters at a point in time.
type Snapshot map[Name]int64

// Aggregator owns the process-wide counters.
//
// Thread Safety: one writer, many snapshot readers.
type Aggregator struct {
	mu       sync.RWMutex
	counters map[Name]int64
	exporter *Exporter
}

// NewAggregator creates an aggregator with every metric at zero.
// exporter may be nil to disable Prometheus mirroring.
func NewAggregator(exporter *Exporter) *Aggregator {
	counters := make(map[Name]int64, len(Names()))
	for _, name := range Names() {
		counters[name] = 0
	}
	return &Aggregator{counters: counters, exporter: exporter}
}

// IncrementBy adds by to the named counter.
//
// Outputs:
//
//	error - Non-nil for unknown metrics or negative deltas. Counters
//	        never decrease for the process lifetime.
func (a *Aggregator) IncrementBy(name Name, by int64) error {
	if by < 0 {
		return fmt.Errorf("metric %s: negative increment %d", name, by)
	}

	a.mu.Lock()
	if _, ok := a.counters[name]; !ok {
		a.mu.Unlock()
		return fmt.Errorf("unknown metric %s", name)
	}
	a.counters[name] += by
	a.mu.Unlock()

	if a.exporter != nil {
		a.exporter.Add(name, by)
	}
	return nil
}

// Increment adds one to the named counter.
func (a *Aggregator) Increment(name Name) error {
	return a.IncrementBy(name, 1)
}

// ApplyStage applies the StageIncrements row for stage.
//
// Called exactly once per successful stage, immediately after the
// success record is appended. Failure records apply nothing.
func (a *Aggregator) ApplyStage(stage ledger.Stage) error {
	incs, ok := StageIncrements[stage]
	if !ok {
		return fmt.Errorf("no increment rule for stage %q", stage)
	}
	for _, inc := range incs {
		if err := a.IncrementBy(inc.Metric, inc.By); err != nil {
			return err
		}
	}
	return nil
}

// Snapshot returns an immutable copy of all counters.
//
// Two snapshots with no intervening increments are structurally equal.
func (a *Aggregator) Snapshot() Snapshot {
	a.mu.RLock()
	defer a.mu.RUnlock()

	out := make(Snapshot, len(a.counters))
	for name, v := range a.counters {
		out[name] = v
	}
	return out
}

// Get returns one counter value. Unknown names read as zero.
func (a *Aggregator) Get(name Name) int64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.counters[name]
}
