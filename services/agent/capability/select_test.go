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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildSetAllDemoByDefault(t *testing.T) {
	set, err := BuildSet(Credentials{}, Options{Seed: 1})
	require.NoError(t, err)

	assert.IsType(t, &DemoTrendSource{}, set.Trends)
	assert.IsType(t, &DemoContentGenerator{}, set.Content)
	assert.IsType(t, &DemoSocialPoster{}, set.Social)
	assert.IsType(t, &DemoOutreachEngine{}, set.Outreach)

	for _, name := range []string{"trends", "content", "social", "outreach"} {
		assert.Equal(t, ModeDemo, set.Mode(name), "capability %s", name)
	}
}

func TestBuildSetDemoOverrideBeatsCredentials(t *testing.T) {
	creds := Credentials{
		OpenAIAPIKey:      "sk-test",
		SocialAPIBaseURL:  "https://api.example.com",
		SocialBearerToken: "token",
	}
	set, err := BuildSet(creds, Options{DemoOverride: true, Seed: 1})
	require.NoError(t, err)

	for _, name := range []string{"trends", "content", "social", "outreach"} {
		assert.Equal(t, ModeDemo, set.Mode(name), "capability %s", name)
	}
}

func TestBuildSetSocialCredentialsGoLive(t *testing.T) {
	creds := Credentials{
		SocialAPIBaseURL:  "https://api.example.com",
		SocialBearerToken: "token",
	}
	set, err := BuildSet(creds, Options{Seed: 1})
	require.NoError(t, err)

	assert.IsType(t, &LiveTrendSource{}, set.Trends)
	assert.IsType(t, &LiveSocialPoster{}, set.Social)
	assert.IsType(t, &LiveOutreachEngine{}, set.Outreach)
	assert.IsType(t, &DemoContentGenerator{}, set.Content)

	assert.Equal(t, ModeLive, set.Mode("trends"))
	assert.Equal(t, ModeLive, set.Mode("social"))
	assert.Equal(t, ModeLive, set.Mode("outreach"))
	assert.Equal(t, ModeDemo, set.Mode("content"))
}

func TestBuildSetOpenAIKeyGoesLive(t *testing.T) {
	set, err := BuildSet(Credentials{OpenAIAPIKey: "sk-test"}, Options{Seed: 1})
	require.NoError(t, err)

	assert.IsType(t, &LiveContentGenerator{}, set.Content)
	assert.IsType(t, &DemoTrendSource{}, set.Trends)
	assert.Equal(t, ModeLive, set.Mode("content"))
	assert.Equal(t, ModeDemo, set.Mode("social"))
}

func TestBuildSetPartialSocialCredentialsStayDemo(t *testing.T) {
	// Base URL without a token is not enough to go live.
	set, err := BuildSet(Credentials{SocialAPIBaseURL: "https://api.example.com"}, Options{Seed: 1})
	require.NoError(t, err)
	assert.Equal(t, ModeDemo, set.Mode("social"))
}

func TestBuildSetRequireLiveWithoutCredentials(t *testing.T) {
	_, err := BuildSet(Credentials{}, Options{RequireLive: true})
	assert.ErrorIs(t, err, ErrNoLiveCredentials)
}

func TestBuildSetRequireLiveWithCredentials(t *testing.T) {
	set, err := BuildSet(Credentials{OpenAIAPIKey: "sk-test"}, Options{RequireLive: true, Seed: 1})
	require.NoError(t, err)
	assert.Equal(t, ModeLive, set.Mode("content"))
}
