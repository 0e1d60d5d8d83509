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
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/AleutianAI/GuerrillaFOSS/pkg/validation"
)

// HTTPClient allows injecting mock HTTP clients for testing.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// socialAPIClient is the shared bearer-token HTTP client behind the live
// trend, posting, and outreach adapters. All calls go through a token
// bucket so a fast cycle cannot trip provider rate limits on its own.
type socialAPIClient struct {
	base    string
	token   string
	http    HTTPClient
	limiter *rate.Limiter
}

func newSocialAPIClient(baseURL, token string, client HTTPClient) *socialAPIClient {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &socialAPIClient{
		base:  baseURL,
		token: token,
		http:  client,
		// 1 req/s, burst 5. Generous for a cycle of seven stages.
		limiter: rate.NewLimiter(rate.Every(time.Second), 5),
	}
}

// doJSON performs one rate-limited request and decodes the response body
// into out (skipped when out is nil). Non-2xx statuses and transport
// failures come back as *AdapterError for the named capability.
func (c *socialAPIClient) doJSON(ctx context.Context, capability, method, path string, body, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return NewAdapterError(capability, FailureNetwork, err)
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return NewAdapterError(capability, FailureProvider, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reader)
	if err != nil {
		return NewAdapterError(capability, FailureProvider, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		var urlErr *url.Error
		if errors.As(err, &urlErr) && urlErr.Timeout() {
			return NewAdapterError(capability, FailureNetwork, err)
		}
		return NewAdapterError(capability, FailureNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return NewAdapterError(capability, classifyHTTPStatus(resp.StatusCode),
			fmt.Errorf("%s %s returned %d", method, path, resp.StatusCode))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return NewAdapterError(capability, FailureProvider, fmt.Errorf("decode response: %w", err))
	}
	return nil
}

// classifyHTTPStatus maps provider status codes onto the failure taxonomy.
func classifyHTTPStatus(status int) FailureKind {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return FailureAuth
	case status == http.StatusTooManyRequests:
		return FailureRateLimit
	case status >= 500:
		return FailureProvider
	default:
		return FailureProvider
	}
}

// =============================================================================
// Live Trend Source
// =============================================================================

// trendsResponse mirrors the Twitter/X trends payload shape.
type trendsResponse struct {
	Trends []struct {
		Name        string `json:"name"`
		TweetVolume int    `json:"tweet_volume"`
	} `json:"trends"`
}

// LiveTrendSource reads trending topics from the social provider.
type LiveTrendSource struct {
	api *socialAPIClient
}

// NewLiveTrendSource creates a trend source against the provider API.
// client may be nil, in which case a default http.Client is used.
func NewLiveTrendSource(baseURL, token string, client HTTPClient) *LiveTrendSource {
	return &LiveTrendSource{api: newSocialAPIClient(baseURL, token, client)}
}

// Scan fetches current trends and normalizes tweet volume into a [0,1]
// score relative to the largest trend in the batch.
func (t *LiveTrendSource) Scan(ctx context.Context) ([]Opportunity, error) {
	var payload trendsResponse
	if err := t.api.doJSON(ctx, "trends", http.MethodGet, "/trends", nil, &payload); err != nil {
		return nil, err
	}
	if len(payload.Trends) == 0 {
		return nil, NewAdapterError("trends", FailureProvider, ErrNoOpportunities)
	}

	maxVolume := 1
	for _, tr := range payload.Trends {
		if tr.TweetVolume > maxVolume {
			maxVolume = tr.TweetVolume
		}
	}

	opps := make([]Opportunity, 0, len(payload.Trends))
	for _, tr := range payload.Trends {
		opps = append(opps, Opportunity{
			Topic:    tr.Name,
			Platform: "Twitter",
			Score:    float64(tr.TweetVolume) / float64(maxVolume),
		})
	}
	return opps, nil
}

// =============================================================================
// Live Social Poster
// =============================================================================

// LiveSocialPoster publishes and engages through the provider API.
type LiveSocialPoster struct {
	api *socialAPIClient
}

func NewLiveSocialPoster(baseURL, token string, client HTTPClient) *LiveSocialPoster {
	return &LiveSocialPoster{api: newSocialAPIClient(baseURL, token, client)}
}

type postRequest struct {
	Text string `json:"text"`
}

type postResponse struct {
	ID            string `json:"id"`
	ReachEstimate int    `json:"reach_estimate"`
}

// Publish posts the content text. The provider's reach estimate is passed
// through; zero when the provider does not report one.
func (p *LiveSocialPoster) Publish(ctx context.Context, content Content) (PublishResult, error) {
	var resp postResponse
	err := p.api.doJSON(ctx, "social", http.MethodPost, "/posts", postRequest{Text: content.Text}, &resp)
	if err != nil {
		return PublishResult{}, err
	}
	return PublishResult{Success: true, ReachEstimate: resp.ReachEstimate}, nil
}

type engageResponse struct {
	PostsEngaged  int `json:"posts_engaged"`
	ReachEstimate int `json:"reach_estimate"`
}

// Engage asks the provider to surface and interact with community posts.
func (p *LiveSocialPoster) Engage(ctx context.Context, platform string) (EngagementResult, error) {
	var resp engageResponse
	path := "/engage"
	if platform != "" {
		clean, err := validation.SanitizePlatform(platform)
		if err != nil {
			return EngagementResult{}, NewAdapterError("social", FailureProvider, err)
		}
		platform = clean
		path += "?platform=" + url.QueryEscape(platform)
	}
	if err := p.api.doJSON(ctx, "social", http.MethodPost, path, nil, &resp); err != nil {
		return EngagementResult{}, err
	}
	return EngagementResult{
		Platform:      platform,
		PostsEngaged:  resp.PostsEngaged,
		ReachEstimate: resp.ReachEstimate,
	}, nil
}

// =============================================================================
// Live Outreach Engine
// =============================================================================

// LiveOutreachEngine contacts influencers via the provider DM API.
type LiveOutreachEngine struct {
	api *socialAPIClient
}

func NewLiveOutreachEngine(baseURL, token string, client HTTPClient) *LiveOutreachEngine {
	return &LiveOutreachEngine{api: newSocialAPIClient(baseURL, token, client)}
}

type suggestionResponse struct {
	Handle   string `json:"handle"`
	Platform string `json:"platform"`
}

func (o *LiveOutreachEngine) SuggestTarget(ctx context.Context) (OutreachTarget, error) {
	var resp suggestionResponse
	if err := o.api.doJSON(ctx, "outreach", http.MethodGet, "/outreach/suggestions", nil, &resp); err != nil {
		return OutreachTarget{}, err
	}
	// Provider data goes straight into the contact request below;
	// reject malformed handles at the boundary.
	handle, err := validation.SanitizeHandle(resp.Handle)
	if err != nil {
		return OutreachTarget{}, NewAdapterError("outreach", FailureProvider, err)
	}
	return OutreachTarget{Handle: handle, Platform: resp.Platform}, nil
}

type contactRequest struct {
	Handle  string `json:"handle"`
	Message string `json:"message"`
}

func (o *LiveOutreachEngine) Contact(ctx context.Context, target OutreachTarget) (OutreachResult, error) {
	req := contactRequest{
		Handle: target.Handle,
		Message: fmt.Sprintf(
			"Hi %s - big fan of your work. We publish data-heavy marketing breakdowns and would love to collaborate.",
			target.Handle),
	}
	if err := o.api.doJSON(ctx, "outreach", http.MethodPost, "/outreach/messages", req, nil); err != nil {
		return OutreachResult{}, err
	}
	return OutreachResult{Success: true, Handle: target.Handle}, nil
}
