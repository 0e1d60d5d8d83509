// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatePlatform(t *testing.T) {
	tests := []struct {
		name     string
		platform string
		wantErr  bool
	}{
		{"simple", "Twitter", false},
		{"with space", "All Platforms", false},
		{"with slash", "Website/Blog", false},
		{"with hyphen", "Twitter-X", false},
		{"subreddit style", "Reddit r/entrepreneur", false},
		{"empty", "", true},
		{"leading digit", "4chan", true},
		{"query injection", "Twitter&admin=true", true},
		{"path traversal", "../etc", true},
		{"too long", strings.Repeat("a", 33), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePlatform(tt.platform)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSanitizePlatform(t *testing.T) {
	got, err := SanitizePlatform("  LinkedIn  ")
	require.NoError(t, err)
	assert.Equal(t, "LinkedIn", got)

	_, err = SanitizePlatform("   ")
	assert.Error(t, err)
}

func TestValidateHandle(t *testing.T) {
	tests := []struct {
		name    string
		handle  string
		wantErr bool
	}{
		{"with at", "@growthhacker_jo", false},
		{"without at", "b2bsaasmaven", false},
		{"with dots", "@the.content.lab", false},
		{"empty", "", true},
		{"just at", "@", true},
		{"spaces", "@growth hacker", true},
		{"injection", "@jo\"; drop--", true},
		{"too long", "@" + strings.Repeat("x", 41), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateHandle(tt.handle)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSanitizeHandle(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		want  string
		isErr bool
	}{
		{"adds at", "growthhacker_jo", "@growthhacker_jo", false},
		{"keeps single at", "@growthhacker_jo", "@growthhacker_jo", false},
		{"trims", "  @b2bsaasmaven ", "@b2bsaasmaven", false},
		{"rejects empty", "  ", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SanitizeHandle(tt.in)
			if tt.isErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
