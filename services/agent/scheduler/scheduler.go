// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package scheduler drives the recurring marketing cycle.
//
// One Orchestrator owns the loop: every cycle runs the seven stages in
// fixed order (trend scan, content creation, engagement, publishing,
// outreach, SEO, analysis), appends a justified ledger record per stage,
// and applies the stage's metric increments. A failing adapter degrades
// that stage only; the cycle always continues.
//
// Scheduling is anchored to cycle start: the next cycle begins interval
// after the previous one started, or immediately when a cycle overruns.
// Cancellation is honored between stages and between cycles, never in
// the middle of a stage's side effects.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/AleutianAI/GuerrillaFOSS/services/agent/capability"
	"github.com/AleutianAI/GuerrillaFOSS/services/agent/ledger"
	"github.com/AleutianAI/GuerrillaFOSS/services/agent/metrics"
)

const tracerName = "github.com/AleutianAI/GuerrillaFOSS/services/agent/scheduler"

// DefaultInterval matches the original ten-minute cadence.
const DefaultInterval = 10 * time.Minute

// Config configures the orchestrator.
type Config struct {
	// Interval is the time between cycle starts. Zero or negative means
	// back-to-back cycles (used by tests). Callers wanting the original
	// cadence pass DefaultInterval.
	Interval time.Duration

	// MaxCycles bounds the run for deterministic testing.
	// Zero means run until the context is cancelled.
	MaxCycles int

	// Seed seeds the internal strategy synthesizer (SEO and analysis
	// stages, which have no external adapter). Zero means wall clock.
	Seed int64
}

// CycleState is the orchestrator's public progress snapshot.
type CycleState struct {
	CycleCount      int       `json:"cycle_count"`
	LastRun         time.Time `json:"last_run"`
	Mode            string    `json:"mode"`
	IntervalSeconds int       `json:"interval_seconds"`
	Running         bool      `json:"running"`
}

// Orchestrator runs marketing cycles against a fixed capability set.
//
// Thread Safety: Run must be called at most once; State may be read
// concurrently with a running loop.
type Orchestrator struct {
	cfg      Config
	caps     *capability.Set
	ledger   *ledger.Ledger
	agg      *metrics.Aggregator
	exporter *metrics.Exporter
	tracer   trace.Tracer

	// strategist synthesizes the SEO and analysis stages, which the
	// original tool generated internally rather than calling out for.
	strategist *rand.Rand
	stratMu    sync.Mutex

	mu    sync.RWMutex
	state CycleState
}

// New creates an orchestrator.
//
// Inputs:
//
//	cfg - Loop configuration.
//	caps - The fixed capability set from capability.BuildSet.
//	led - Destination ledger. Must not be nil.
//	agg - Metrics aggregator. Must not be nil.
//	exporter - Prometheus exporter for stage metrics. May be nil.
//
// Outputs:
//
//	*Orchestrator - Ready to Run.
//	error - Non-nil if a required dependency is missing.
func New(cfg Config, caps *capability.Set, led *ledger.Ledger, agg *metrics.Aggregator, exporter *metrics.Exporter) (*Orchestrator, error) {
	if caps == nil {
		return nil, errors.New("capability set must not be nil")
	}
	if led == nil {
		return nil, errors.New("ledger must not be nil")
	}
	if agg == nil {
		return nil, errors.New("aggregator must not be nil")
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	return &Orchestrator{
		cfg:        cfg,
		caps:       caps,
		ledger:     led,
		agg:        agg,
		exporter:   exporter,
		tracer:     otel.Tracer(tracerName),
		strategist: rand.New(rand.NewSource(seed)),
		state: CycleState{
			Mode:            overallMode(caps),
			IntervalSeconds: int(cfg.Interval / time.Second),
		},
	}, nil
}

// overallMode collapses per-capability modes into one label for the
// status endpoint: "demo", "live", or "mixed".
func overallMode(caps *capability.Set) string {
	demo, live := 0, 0
	for _, m := range caps.Modes {
		if m == capability.ModeLive {
			live++
		} else {
			demo++
		}
	}
	switch {
	case live == 0:
		return string(capability.ModeDemo)
	case demo == 0:
		return string(capability.ModeLive)
	default:
		return "mixed"
	}
}

// State returns a copy of the current cycle state.
func (o *Orchestrator) State() CycleState {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.state
}

// Run executes cycles until the context is cancelled or MaxCycles is
// reached. Always returns nil on a clean shutdown.
func (o *Orchestrator) Run(ctx context.Context) error {
	o.setRunning(true)
	defer o.setRunning(false)

	slog.Info("Orchestrator starting",
		"interval", o.cfg.Interval,
		"max_cycles", o.cfg.MaxCycles,
		"mode", o.State().Mode,
	)

	for {
		if ctx.Err() != nil {
			return nil
		}

		start := time.Now()
		if !o.runCycle(ctx) {
			// Cancelled between stages; the partial pass does not count.
			return nil
		}
		o.completeCycle(start)

		if o.cfg.MaxCycles > 0 && o.State().CycleCount >= o.cfg.MaxCycles {
			slog.Info("Orchestrator reached cycle bound", "cycles", o.cfg.MaxCycles)
			return nil
		}

		// Sleep until interval has elapsed since the cycle began. A slow
		// cycle starts the next one immediately; cycles are never skipped.
		wait := time.Until(start.Add(o.cfg.Interval))
		if wait > 0 {
			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil
			case <-timer.C:
			}
		}
	}
}

func (o *Orchestrator) setRunning(running bool) {
	o.mu.Lock()
	o.state.Running = running
	o.mu.Unlock()
}

func (o *Orchestrator) completeCycle(start time.Time) {
	o.mu.Lock()
	o.state.CycleCount++
	o.state.LastRun = start
	count := o.state.CycleCount
	o.mu.Unlock()

	if o.exporter != nil {
		o.exporter.CyclesTotal.Inc()
	}
	slog.Info("Cycle complete", "cycle", count, "took", time.Since(start))
}

// stageOutcome is a fully constructed stage result, built in memory
// before anything is published to the ledger or the aggregator.
type stageOutcome struct {
	summary       string
	justification string
	result        string
	platform      string
	details       map[string]string
	reach         int64
}

// cyclePipe carries intermediate results between stages of one cycle.
type cyclePipe struct {
	opportunity capability.Opportunity
	content     capability.Content
}

// fallbackOpportunity keeps downstream stages meaningful when the trend
// scan failed earlier in the same cycle.
var fallbackOpportunity = capability.Opportunity{
	Topic:    "brand storytelling",
	Platform: "Twitter",
	Score:    0.5,
}

// runCycle executes the seven stages in order. Returns false when the
// context was cancelled between stages (the pass is incomplete).
func (o *Orchestrator) runCycle(ctx context.Context) bool {
	cycleCtx, cycleSpan := o.tracer.Start(ctx, "marketing.cycle")
	defer cycleSpan.End()

	pipe := &cyclePipe{opportunity: fallbackOpportunity}

	for _, stage := range ledger.Stages() {
		if ctx.Err() != nil {
			cycleSpan.SetStatus(codes.Error, "cancelled")
			return false
		}
		o.runStage(cycleCtx, stage, pipe)
	}
	return true
}

// runStage invokes one stage's adapter and records the outcome. Adapter
// failures become failure records; they never escape the cycle.
func (o *Orchestrator) runStage(ctx context.Context, stage ledger.Stage, pipe *cyclePipe) {
	stageCtx, span := o.tracer.Start(ctx, "marketing.stage",
		trace.WithAttributes(attribute.String("stage", string(stage))))
	defer span.End()

	start := time.Now()
	outcome, err := o.executeStage(stageCtx, stage, pipe)
	if o.exporter != nil {
		o.exporter.StageDurationSeconds.WithLabelValues(string(stage)).Observe(time.Since(start).Seconds())
	}

	if err != nil {
		o.recordFailure(stageCtx, stage, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "stage failed")
		return
	}
	o.recordSuccess(stageCtx, stage, outcome)
}

// executeStage dispatches to the stage's adapter (or the internal
// strategist for SEO and analysis) and assembles the full outcome.
func (o *Orchestrator) executeStage(ctx context.Context, stage ledger.Stage, pipe *cyclePipe) (stageOutcome, error) {
	switch stage {
	case ledger.StageTrendScan:
		return o.stageTrendScan(ctx, pipe)
	case ledger.StageContentCreate:
		return o.stageContentCreate(ctx, pipe)
	case ledger.StageEngage:
		return o.stageEngage(ctx)
	case ledger.StagePublish:
		return o.stagePublish(ctx, pipe)
	case ledger.StageOutreach:
		return o.stageOutreach(ctx)
	case ledger.StageSEO:
		return o.stageSEO()
	case ledger.StageAnalyze:
		return o.stageAnalyze()
	}
	return stageOutcome{}, fmt.Errorf("unknown stage %q", stage)
}

func (o *Orchestrator) stageTrendScan(ctx context.Context, pipe *cyclePipe) (stageOutcome, error) {
	opps, err := o.caps.Trends.Scan(ctx)
	if err != nil {
		return stageOutcome{}, err
	}
	selected, err := capability.SelectOpportunity(opps)
	if err != nil {
		return stageOutcome{}, capability.NewAdapterError("trends", capability.FailureProvider, err)
	}
	pipe.opportunity = selected

	return stageOutcome{
		summary: fmt.Sprintf("Scanned trends across platforms, found %d opportunities", len(opps)),
		result: fmt.Sprintf("Top trend: %q on %s (score %.2f)",
			selected.Topic, selected.Platform, selected.Score),
		platform:      "All Platforms",
		justification: justifyTrendScan(selected, len(opps)),
		details: map[string]string{
			"topics_found": fmt.Sprintf("%d", len(opps)),
			"top_topic":    selected.Topic,
			"top_score":    fmt.Sprintf("%.2f", selected.Score),
		},
	}, nil
}

func (o *Orchestrator) stageContentCreate(ctx context.Context, pipe *cyclePipe) (stageOutcome, error) {
	content, err := o.caps.Content.Create(ctx, pipe.opportunity)
	if err != nil {
		return stageOutcome{}, err
	}
	pipe.content = content

	return stageOutcome{
		summary:       fmt.Sprintf("Generated content for %s targeting %q", content.Platform, pipe.opportunity.Topic),
		result:        truncate(content.Text, 140),
		platform:      content.Platform,
		justification: justifyContent(pipe.opportunity, content),
		details: map[string]string{
			"chars": fmt.Sprintf("%d", len(content.Text)),
		},
	}, nil
}

func (o *Orchestrator) stageEngage(ctx context.Context) (stageOutcome, error) {
	res, err := o.caps.Social.Engage(ctx, "")
	if err != nil {
		return stageOutcome{}, err
	}

	return stageOutcome{
		summary:       fmt.Sprintf("Engaged with %d community posts on %s", res.PostsEngaged, res.Platform),
		result:        fmt.Sprintf("%d high-value interactions", res.PostsEngaged),
		platform:      res.Platform,
		justification: justifyEngagement(res),
		reach:         int64(res.ReachEstimate),
		details: map[string]string{
			"posts_engaged":   fmt.Sprintf("%d", res.PostsEngaged),
			"estimated_reach": fmt.Sprintf("%d", res.ReachEstimate),
		},
	}, nil
}

func (o *Orchestrator) stagePublish(ctx context.Context, pipe *cyclePipe) (stageOutcome, error) {
	res, err := o.caps.Social.Publish(ctx, pipe.content)
	if err != nil {
		return stageOutcome{}, err
	}

	platform := pipe.content.Platform
	if platform == "" {
		platform = pipe.opportunity.Platform
	}
	return stageOutcome{
		summary:       fmt.Sprintf("Published content to %s", platform),
		result:        fmt.Sprintf("Estimated reach %d", res.ReachEstimate),
		platform:      platform,
		justification: justifyPublish(platform, res),
		reach:         int64(res.ReachEstimate),
		details: map[string]string{
			"reach_estimate": fmt.Sprintf("%d", res.ReachEstimate),
		},
	}, nil
}

func (o *Orchestrator) stageOutreach(ctx context.Context) (stageOutcome, error) {
	target, err := o.caps.Outreach.SuggestTarget(ctx)
	if err != nil {
		return stageOutcome{}, err
	}
	res, err := o.caps.Outreach.Contact(ctx, target)
	if err != nil {
		return stageOutcome{}, err
	}

	return stageOutcome{
		summary:       fmt.Sprintf("Initiated outreach to %s on %s", res.Handle, target.Platform),
		result:        "Collaboration offer sent",
		platform:      target.Platform,
		justification: justifyOutreach(target),
		details: map[string]string{
			"handle": res.Handle,
		},
	}, nil
}

func (o *Orchestrator) stageSEO() (stageOutcome, error) {
	o.stratMu.Lock()
	asset := capability.SEOAsset{
		Keywords:  8 + o.strategist.Intn(8),
		Backlinks: 10 + o.strategist.Intn(9),
	}
	o.stratMu.Unlock()

	return stageOutcome{
		summary:       fmt.Sprintf("Created SEO asset targeting %d keywords", asset.Keywords),
		result:        fmt.Sprintf("Identified %d backlink opportunities", asset.Backlinks),
		platform:      "Website/Blog",
		justification: justifySEO(asset),
		details: map[string]string{
			"keywords_targeted":      fmt.Sprintf("%d", asset.Keywords),
			"backlink_opportunities": fmt.Sprintf("%d", asset.Backlinks),
		},
	}, nil
}

func (o *Orchestrator) stageAnalyze() (stageOutcome, error) {
	snapshot := o.agg.Snapshot()

	o.stratMu.Lock()
	analysis := capability.AnalysisResult{
		Opportunities: 4 + o.strategist.Intn(4),
		ImprovementPc: 25 + o.strategist.Intn(21),
		TopTrigger:    demoTrigger(o.strategist),
	}
	o.stratMu.Unlock()

	return stageOutcome{
		summary: fmt.Sprintf("Analyzed %d actions to date, found %d optimization opportunities",
			snapshot[metrics.ActionsTotal], analysis.Opportunities),
		result:        fmt.Sprintf("+%d%% improvement potential", analysis.ImprovementPc),
		platform:      "Analytics Dashboard",
		justification: justifyAnalysis(analysis),
		details: map[string]string{
			"opportunities":  fmt.Sprintf("%d", analysis.Opportunities),
			"improvement_pc": fmt.Sprintf("%d", analysis.ImprovementPc),
			"top_trigger":    analysis.TopTrigger,
		},
	}, nil
}

func demoTrigger(rng *rand.Rand) string {
	triggers := []string{"Controversy", "Behind-Scenes", "Data Stories"}
	return triggers[rng.Intn(len(triggers))]
}

// recordSuccess appends the success record and applies the stage's
// metric increments exactly once, plus the variable reach delta.
func (o *Orchestrator) recordSuccess(ctx context.Context, stage ledger.Stage, outcome stageOutcome) {
	rec := ledger.ActionRecord{
		Stage:         stage,
		Summary:       outcome.summary,
		Justification: outcome.justification,
		Result:        outcome.result,
		Platform:      outcome.platform,
		Mode:          string(o.stageMode(stage)),
		Details:       outcome.details,
	}
	if _, err := o.ledger.Append(ctx, rec); err != nil {
		slog.Error("Ledger append failed", "stage", stage, "error", err)
		return
	}

	if err := o.agg.ApplyStage(stage); err != nil {
		slog.Error("Metric increment failed", "stage", stage, "error", err)
	}
	if outcome.reach > 0 {
		if err := o.agg.IncrementBy(metrics.EstimatedReach, outcome.reach); err != nil {
			slog.Error("Reach increment failed", "stage", stage, "error", err)
		}
	}
}

// recordFailure appends a failure record. No metric increments occur.
func (o *Orchestrator) recordFailure(ctx context.Context, stage ledger.Stage, stageErr error) {
	kind := capability.FailureProvider
	var adapterErr *capability.AdapterError
	if errors.As(stageErr, &adapterErr) {
		kind = adapterErr.Kind
	}

	slog.Warn("Stage failed, continuing cycle",
		"stage", stage, "kind", kind, "error", stageErr)

	if o.exporter != nil {
		o.exporter.StageFailures.WithLabelValues(string(stage), string(kind)).Inc()
	}

	rec := ledger.ActionRecord{
		Stage:   stage,
		Summary: fmt.Sprintf("Stage failed: %v", stageErr),
		Mode:    string(o.stageMode(stage)),
		Failed:  true,
		Details: map[string]string{"failure_kind": string(kind)},
	}
	if _, err := o.ledger.Append(ctx, rec); err != nil {
		slog.Error("Ledger append failed for failure record", "stage", stage, "error", err)
	}
}

// stageMode maps a stage to the mode of the capability behind it. The
// SEO and analysis stages are synthesized internally and report demo.
func (o *Orchestrator) stageMode(stage ledger.Stage) capability.Mode {
	switch stage {
	case ledger.StageTrendScan:
		return o.caps.Mode("trends")
	case ledger.StageContentCreate:
		return o.caps.Mode("content")
	case ledger.StageEngage, ledger.StagePublish:
		return o.caps.Mode("social")
	case ledger.StageOutreach:
		return o.caps.Mode("outreach")
	}
	return capability.ModeDemo
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}
