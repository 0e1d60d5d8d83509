// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/GuerrillaFOSS/services/agent/capability"
	"github.com/AleutianAI/GuerrillaFOSS/services/agent/ledger"
	"github.com/AleutianAI/GuerrillaFOSS/services/agent/metrics"
)

func demoSet(t *testing.T, seed int64) *capability.Set {
	t.Helper()
	set, err := capability.BuildSet(capability.Credentials{}, capability.Options{
		DemoOverride: true,
		Seed:         seed,
	})
	require.NoError(t, err)
	return set
}

func newTestOrchestrator(t *testing.T, cfg Config, set *capability.Set) (*Orchestrator, *ledger.Ledger, *metrics.Aggregator, *metrics.Exporter) {
	t.Helper()
	led := ledger.New()
	exporter := metrics.NewExporter()
	agg := metrics.NewAggregator(exporter)

	orch, err := New(cfg, set, led, agg, exporter)
	require.NoError(t, err)
	return orch, led, agg, exporter
}

func TestNewRequiresDependencies(t *testing.T) {
	set := demoSet(t, 1)
	led := ledger.New()
	agg := metrics.NewAggregator(nil)

	_, err := New(Config{}, nil, led, agg, nil)
	assert.Error(t, err)
	_, err = New(Config{}, set, nil, agg, nil)
	assert.Error(t, err)
	_, err = New(Config{}, set, led, nil, nil)
	assert.Error(t, err)

	orch, err := New(Config{}, set, led, agg, nil)
	require.NoError(t, err)
	assert.Equal(t, "demo", orch.State().Mode)
	assert.False(t, orch.State().Running)
}

func TestThreeDemoCycles(t *testing.T) {
	orch, led, agg, exporter := newTestOrchestrator(t,
		Config{Interval: 0, MaxCycles: 3, Seed: 7}, demoSet(t, 42))

	require.NoError(t, orch.Run(context.Background()))

	state := orch.State()
	assert.Equal(t, 3, state.CycleCount)
	assert.False(t, state.Running)
	assert.False(t, state.LastRun.IsZero())

	// Seven actions per cycle, every one of them justified.
	records := led.All()
	require.Len(t, records, 21)
	stages := ledger.Stages()
	for i, rec := range records {
		assert.Equal(t, stages[i%len(stages)], rec.Stage, "record %d out of stage order", i)
		assert.False(t, rec.Failed)
		assert.NotEmpty(t, rec.Summary)
		assert.NotEmpty(t, rec.Justification, "record %d (%s) missing justification", i, rec.Stage)
		assert.Equal(t, "demo", rec.Mode)
	}

	assert.Equal(t, int64(21), agg.Get(metrics.ActionsTotal))
	assert.Equal(t, int64(3), agg.Get(metrics.TrendsIdentified))
	assert.Equal(t, int64(3), agg.Get(metrics.PostsPublished))
	assert.Equal(t, int64(3), agg.Get(metrics.AnalysesRun))
	// Publish and engage both report reach in demo mode.
	assert.Positive(t, agg.Get(metrics.EstimatedReach))

	assert.Equal(t, 3.0, testutil.ToFloat64(exporter.CyclesTotal))
}

func TestDemoCyclesDeterministicForSeed(t *testing.T) {
	run := func() []ledger.ActionRecord {
		orch, led, _, _ := newTestOrchestrator(t,
			Config{Interval: 0, MaxCycles: 2, Seed: 9}, demoSet(t, 99))
		require.NoError(t, orch.Run(context.Background()))
		return led.All()
	}

	first := run()
	second := run()
	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].Summary, second[i].Summary, "record %d", i)
		assert.Equal(t, first[i].Justification, second[i].Justification, "record %d", i)
		assert.Equal(t, first[i].Details, second[i].Details, "record %d", i)
	}
}

// failingPoster simulates a provider that rejects every publish while
// engagement still works.
type failingPoster struct {
	inner capability.SocialPoster
}

func (f *failingPoster) Publish(ctx context.Context, content capability.Content) (capability.PublishResult, error) {
	return capability.PublishResult{}, capability.NewAdapterError(
		"social", capability.FailureRateLimit, errors.New("provider returned 429"))
}

func (f *failingPoster) Engage(ctx context.Context, platform string) (capability.EngagementResult, error) {
	return f.inner.Engage(ctx, platform)
}

func TestFailingPublishDegradesStageOnly(t *testing.T) {
	set := demoSet(t, 42)
	set.Social = &failingPoster{inner: capability.NewDemoSocialPoster(43)}

	orch, led, agg, exporter := newTestOrchestrator(t,
		Config{Interval: 0, MaxCycles: 2, Seed: 7}, set)
	require.NoError(t, orch.Run(context.Background()))

	// Both cycles completed despite the failure.
	assert.Equal(t, 2, orch.State().CycleCount)

	records := led.All()
	require.Len(t, records, 14, "failed stages still leave a record")

	var failures []ledger.ActionRecord
	for _, rec := range records {
		if rec.Failed {
			failures = append(failures, rec)
		}
	}
	require.Len(t, failures, 2)
	for _, rec := range failures {
		assert.Equal(t, ledger.StagePublish, rec.Stage)
		assert.Contains(t, rec.Summary, "Stage failed")
		assert.Equal(t, "rate_limit", rec.Details["failure_kind"])
	}

	// Six successful stages per cycle; the failed publish counts nothing.
	assert.Equal(t, int64(12), agg.Get(metrics.ActionsTotal))
	assert.Zero(t, agg.Get(metrics.PostsPublished))
	assert.Equal(t, int64(2), agg.Get(metrics.Engagements))

	assert.Equal(t, 2.0, testutil.ToFloat64(
		exporter.StageFailures.WithLabelValues("publish", "rate_limit")))
}

func TestRunHonorsPriorCancellation(t *testing.T) {
	orch, led, agg, _ := newTestOrchestrator(t,
		Config{Interval: 0, MaxCycles: 5, Seed: 1}, demoSet(t, 1))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, orch.Run(ctx))
	assert.Zero(t, orch.State().CycleCount)
	assert.Zero(t, led.Len())
	assert.Zero(t, agg.Get(metrics.ActionsTotal))
}

func TestCancelDuringIntervalWait(t *testing.T) {
	orch, led, _, _ := newTestOrchestrator(t,
		Config{Interval: time.Hour, Seed: 1}, demoSet(t, 1))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- orch.Run(ctx) }()

	require.Eventually(t, func() bool {
		return orch.State().CycleCount == 1
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}

	// Exactly one complete pass; the cancelled wait added nothing.
	assert.Equal(t, 1, orch.State().CycleCount)
	assert.Equal(t, 7, led.Len())
}

func TestOverallModeMixed(t *testing.T) {
	set := demoSet(t, 1)
	set.Modes["content"] = capability.ModeLive

	orch, err := New(Config{}, set, ledger.New(), metrics.NewAggregator(nil), nil)
	require.NoError(t, err)
	assert.Equal(t, "mixed", orch.State().Mode)
}

func TestIntervalSecondsExposedInState(t *testing.T) {
	orch, _, _, _ := newTestOrchestrator(t,
		Config{Interval: 600 * time.Second, Seed: 1}, demoSet(t, 1))
	assert.Equal(t, 600, orch.State().IntervalSeconds)
}
