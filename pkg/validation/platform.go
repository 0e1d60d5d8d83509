// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package validation provides input validation utilities for security-critical operations.
//
// This package contains validators for values that end up in outbound
// provider requests (URL paths, query strings) or in ledger records the
// dashboard renders. Using these validators prevents query-string
// injection and keeps provider-supplied identifiers well-formed.
package validation

import (
	"fmt"
	"regexp"
	"strings"
)

// platformPattern matches social platform names the agent targets.
// Allows: letters, digits, spaces, slashes (Website/Blog), hyphens.
// Max length: 32 characters.
var platformPattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9 /\-]{0,31}$`)

// handlePattern matches social account handles.
// Allows an optional leading @, then letters, digits, underscores,
// dots, and hyphens. Max length: 40 characters after the @.
var handlePattern = regexp.MustCompile(`^@?[A-Za-z0-9_][A-Za-z0-9_.\-]{0,39}$`)

// ValidatePlatform validates a platform name before it is placed in a
// provider query string or a ledger record.
//
// Valid platforms:
//   - 1-32 characters
//   - Start with a letter
//   - Letters, digits, spaces, slashes, hyphens
//
// Example:
//
//	if err := validation.ValidatePlatform(platform); err != nil {
//	    return fmt.Errorf("invalid platform: %w", err)
//	}
//	// Safe to use in a query parameter
func ValidatePlatform(platform string) error {
	if platform == "" {
		return fmt.Errorf("platform cannot be empty")
	}
	if !platformPattern.MatchString(platform) {
		return fmt.Errorf("invalid platform format: %q (must be 1-32 chars: letters, digits, spaces, slashes, hyphens)", platform)
	}
	return nil
}

// SanitizePlatform trims and validates a platform name.
// Returns the trimmed platform if valid.
func SanitizePlatform(platform string) (string, error) {
	trimmed := strings.TrimSpace(platform)
	if err := ValidatePlatform(trimmed); err != nil {
		return "", err
	}
	return trimmed, nil
}

// ValidateHandle validates a social account handle returned by a
// provider before it is used in an outbound message request.
func ValidateHandle(handle string) error {
	if handle == "" {
		return fmt.Errorf("handle cannot be empty")
	}
	if !handlePattern.MatchString(handle) {
		return fmt.Errorf("invalid handle format: %q", handle)
	}
	return nil
}

// SanitizeHandle trims a handle and guarantees a single leading @.
// Returns an error if the result is not a valid handle.
func SanitizeHandle(handle string) (string, error) {
	trimmed := strings.TrimSpace(handle)
	trimmed = "@" + strings.TrimPrefix(trimmed, "@")
	if err := ValidateHandle(trimmed); err != nil {
		return "", err
	}
	return trimmed, nil
}
