// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package capability defines the marketing capability adapters.
//
// Each capability (trend scanning, content generation, publishing, outreach)
// is an interface with two implementations selected once at startup:
//
//   - Live: calls the real external provider (OpenAI, Twitter/X, Reddit).
//     May fail with a typed AdapterError.
//   - Demo: synthesizes plausible output from a local PRNG. Never fails,
//     so the agent runs with zero configuration.
//
// The selection happens in BuildSet; stages never re-check configuration.
package capability

import (
	"context"
	"errors"
	"fmt"
	"sort"
)

// Mode identifies which variant of an adapter is in use.
type Mode string

const (
	ModeDemo Mode = "demo"
	ModeLive Mode = "live"
)

// =============================================================================
// Result Types
// =============================================================================

// Opportunity is a single trend the agent could act on.
//
// Score is normalized to [0,1]; higher means more promising.
type Opportunity struct {
	Topic    string  `json:"topic"`
	Platform string  `json:"platform"`
	Score    float64 `json:"score"`
}

// Content is a generated piece ready for publishing.
//
// Justification explains why this content serves the strategy. It is part
// of the data contract with the dashboard and must be non-empty.
type Content struct {
	Text          string `json:"text"`
	Platform      string `json:"platform"`
	Justification string `json:"justification"`
}

// PublishResult reports the outcome of a publish call.
type PublishResult struct {
	Success       bool `json:"success"`
	ReachEstimate int  `json:"reach_estimate"`
}

// OutreachTarget identifies an influencer to contact.
type OutreachTarget struct {
	Handle   string `json:"handle"`
	Platform string `json:"platform"`
}

// OutreachResult reports the outcome of an outreach attempt.
type OutreachResult struct {
	Success bool   `json:"success"`
	Handle  string `json:"handle"`
}

// EngagementResult reports community engagement activity.
type EngagementResult struct {
	Platform      string `json:"platform"`
	PostsEngaged  int    `json:"posts_engaged"`
	ReachEstimate int    `json:"reach_estimate"`
}

// SEOAsset describes a linkable asset created for organic search.
type SEOAsset struct {
	Keywords  int `json:"keywords"`
	Backlinks int `json:"backlinks"`
}

// AnalysisResult summarizes a performance analysis pass.
type AnalysisResult struct {
	Opportunities int    `json:"opportunities"`
	ImprovementPc int    `json:"improvement_pc"`
	TopTrigger    string `json:"top_trigger"`
}

// =============================================================================
// Adapter Interfaces
// =============================================================================

// TrendSource discovers trending opportunities across platforms.
type TrendSource interface {
	// Scan returns at least one opportunity, ordered as discovered.
	// Live implementations may fail with *AdapterError.
	Scan(ctx context.Context) ([]Opportunity, error)
}

// ContentGenerator turns an opportunity into publishable content.
type ContentGenerator interface {
	Create(ctx context.Context, opp Opportunity) (Content, error)
}

// SocialPoster publishes content and engages with communities.
type SocialPoster interface {
	Publish(ctx context.Context, content Content) (PublishResult, error)
	Engage(ctx context.Context, platform string) (EngagementResult, error)
}

// OutreachEngine contacts influencers for collaboration.
type OutreachEngine interface {
	Contact(ctx context.Context, target OutreachTarget) (OutreachResult, error)
	// SuggestTarget proposes the next influencer worth contacting.
	SuggestTarget(ctx context.Context) (OutreachTarget, error)
}

// =============================================================================
// Errors
// =============================================================================

// FailureKind classifies adapter failures for the ledger and metrics.
type FailureKind string

const (
	FailureAuth      FailureKind = "auth"
	FailureRateLimit FailureKind = "rate_limit"
	FailureNetwork   FailureKind = "network"
	FailureProvider  FailureKind = "provider"
)

// ErrNoOpportunities is returned when a trend scan yields an empty result.
var ErrNoOpportunities = errors.New("trend scan returned no opportunities")

// AdapterError is the typed failure returned by live adapters.
//
// The orchestrator catches it at the stage boundary, records a failure
// entry in the ledger, and continues with the next stage. It never
// escapes a cycle.
type AdapterError struct {
	Kind       FailureKind
	Capability string
	Err        error
}

func (e *AdapterError) Error() string {
	return fmt.Sprintf("%s adapter failed (%s): %v", e.Capability, e.Kind, e.Err)
}

func (e *AdapterError) Unwrap() error { return e.Err }

// NewAdapterError wraps a cause with failure classification.
func NewAdapterError(capability string, kind FailureKind, err error) *AdapterError {
	return &AdapterError{Kind: kind, Capability: capability, Err: err}
}

// =============================================================================
// Opportunity Selection
// =============================================================================

// SelectOpportunity picks the highest-scoring opportunity.
// Ties are broken by platform name (ascending) so selection is deterministic.
//
// Outputs:
//
//	Opportunity - The winner.
//	error - ErrNoOpportunities if opps is empty.
func SelectOpportunity(opps []Opportunity) (Opportunity, error) {
	if len(opps) == 0 {
		return Opportunity{}, ErrNoOpportunities
	}
	sorted := make([]Opportunity, len(opps))
	copy(sorted, opps)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Score != sorted[j].Score {
			return sorted[i].Score > sorted[j].Score
		}
		return sorted[i].Platform < sorted[j].Platform
	})
	return sorted[0], nil
}

// =============================================================================
// Capability Set
// =============================================================================

// Set is the fixed collection of adapters the orchestrator runs with.
//
// Built once at startup by BuildSet; immutable afterwards. Modes records
// which variant was chosen per capability for the status endpoint.
type Set struct {
	Trends   TrendSource
	Content  ContentGenerator
	Social   SocialPoster
	Outreach OutreachEngine

	// Modes maps capability name ("trends", "content", "social",
	// "outreach") to the variant selected at startup.
	Modes map[string]Mode
}

// Mode returns the variant chosen for the named capability,
// defaulting to demo for unknown names.
func (s *Set) Mode(capability string) Mode {
	if m, ok := s.Modes[capability]; ok {
		return m
	}
	return ModeDemo
}
