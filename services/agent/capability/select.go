// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package capability

import (
	"errors"
	"log/slog"
	"time"
)

// Credentials holds the provider secrets that switch capabilities to live.
// An empty field means the corresponding capability stays in demo mode.
type Credentials struct {
	OpenAIAPIKey string
	OpenAIModel  string

	// SocialAPIBaseURL and SocialBearerToken drive the trend, publish,
	// and outreach capabilities (one provider API).
	SocialAPIBaseURL  string
	SocialBearerToken string
}

// Options configures capability selection.
type Options struct {
	// DemoOverride forces every capability into demo mode regardless
	// of credentials. Mirrors the DEMO_MODE environment flag.
	DemoOverride bool

	// RequireLive rejects an all-demo selection. Set when the operator
	// explicitly disabled demo mode; running a "live" agent with zero
	// credentials is a configuration error, not a silent fallback.
	RequireLive bool

	// Seed seeds the demo PRNGs. Zero means wall clock.
	Seed int64

	// HTTPClient overrides the HTTP client used by live social
	// adapters. Nil means a default client. Used by tests.
	HTTPClient HTTPClient
}

// ErrNoLiveCredentials is returned when RequireLive is set but no
// capability has credentials to go live with.
var ErrNoLiveCredentials = errors.New("live mode requested but no capability credentials are configured")

// BuildSet selects the adapter variant for every capability exactly once.
//
// Description:
//
//	Each capability goes live when its credentials are present, demo
//	otherwise. DemoOverride wins over credentials. The returned Set is
//	fixed for the process lifetime; stages never re-evaluate modes.
//
// Inputs:
//
//	creds - Provider credentials. Zero value selects all-demo.
//	opts - Selection options.
//
// Outputs:
//
//	*Set - The fixed capability set.
//	error - ErrNoLiveCredentials under RequireLive with no credentials,
//	        or a live constructor failure.
func BuildSet(creds Credentials, opts Options) (*Set, error) {
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	set := &Set{Modes: make(map[string]Mode, 4)}

	socialLive := !opts.DemoOverride && creds.SocialAPIBaseURL != "" && creds.SocialBearerToken != ""
	contentLive := !opts.DemoOverride && creds.OpenAIAPIKey != ""

	if opts.RequireLive && !socialLive && !contentLive {
		return nil, ErrNoLiveCredentials
	}

	if socialLive {
		set.Trends = NewLiveTrendSource(creds.SocialAPIBaseURL, creds.SocialBearerToken, opts.HTTPClient)
		set.Social = NewLiveSocialPoster(creds.SocialAPIBaseURL, creds.SocialBearerToken, opts.HTTPClient)
		set.Outreach = NewLiveOutreachEngine(creds.SocialAPIBaseURL, creds.SocialBearerToken, opts.HTTPClient)
		set.Modes["trends"] = ModeLive
		set.Modes["social"] = ModeLive
		set.Modes["outreach"] = ModeLive
	} else {
		// Distinct seeds keep the adapters from mirroring each other.
		set.Trends = NewDemoTrendSource(seed)
		set.Social = NewDemoSocialPoster(seed + 1)
		set.Outreach = NewDemoOutreachEngine(seed + 2)
		set.Modes["trends"] = ModeDemo
		set.Modes["social"] = ModeDemo
		set.Modes["outreach"] = ModeDemo
	}

	if contentLive {
		gen, err := NewLiveContentGenerator(creds.OpenAIAPIKey, creds.OpenAIModel)
		if err != nil {
			return nil, err
		}
		set.Content = gen
		set.Modes["content"] = ModeLive
	} else {
		set.Content = NewDemoContentGenerator(seed + 3)
		set.Modes["content"] = ModeDemo
	}

	slog.Info("Capability set selected",
		"trends", set.Modes["trends"],
		"content", set.Modes["content"],
		"social", set.Modes["social"],
		"outreach", set.Modes["outreach"],
	)
	return set, nil
}
