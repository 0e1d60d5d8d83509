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
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

const defaultOpenAIModel = "gpt-4o-mini"

// contentSystemPrompt anchors the model to short, platform-native copy.
const contentSystemPrompt = "You are a guerrilla marketing copywriter. " +
	"Write one short, platform-native post for the given topic. " +
	"No hashtags unless the platform is Twitter. No preamble, return the post text only."

// openAIChat is the slice of the OpenAI client the generator needs.
// Narrowed for test injection.
type openAIChat interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// LiveContentGenerator creates content through the OpenAI chat API.
type LiveContentGenerator struct {
	client openAIChat
	model  string
}

// NewLiveContentGenerator builds a generator backed by OpenAI.
//
// Inputs:
//
//	apiKey - OpenAI API key. Must be non-empty.
//	model - Model name. Empty string falls back to gpt-4o-mini.
//
// Outputs:
//
//	*LiveContentGenerator - Ready to use.
//	error - Non-nil if apiKey is empty.
func NewLiveContentGenerator(apiKey, model string) (*LiveContentGenerator, error) {
	if apiKey == "" {
		return nil, errors.New("OPENAI_API_KEY is required for live content generation")
	}
	if model == "" {
		model = defaultOpenAIModel
		slog.Warn("OPENAI_MODEL not set, defaulting to gpt-4o-mini")
	}
	return &LiveContentGenerator{client: openai.NewClient(apiKey), model: model}, nil
}

// Create asks the model for one post about the opportunity topic.
//
// Failures are classified: API auth errors map to FailureAuth, 429s to
// FailureRateLimit, transport errors to FailureNetwork, everything else
// (including empty completions) to FailureProvider.
func (g *LiveContentGenerator) Create(ctx context.Context, opp Opportunity) (Content, error) {
	slog.Debug("Generating content via OpenAI", "model", g.model, "topic", opp.Topic)

	req := openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: contentSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: fmt.Sprintf(
				"Topic: %s\nPlatform: %s\nTrend score: %.2f", opp.Topic, opp.Platform, opp.Score)},
		},
	}

	resp, err := g.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return Content{}, NewAdapterError("content", classifyOpenAIError(err), err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return Content{}, NewAdapterError("content", FailureProvider,
			errors.New("OpenAI returned no usable completion"))
	}

	return Content{
		Text:     strings.TrimSpace(resp.Choices[0].Message.Content),
		Platform: opp.Platform,
		Justification: fmt.Sprintf(
			"Model-written post targeting the trending topic %q on %s (score %.2f); riding existing momentum outperforms cold content on organic reach.",
			opp.Topic, opp.Platform, opp.Score),
	}, nil
}

// classifyOpenAIError maps go-openai errors onto the failure taxonomy.
func classifyOpenAIError(err error) FailureKind {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case 401, 403:
			return FailureAuth
		case 429:
			return FailureRateLimit
		}
		return FailureProvider
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return FailureNetwork
	}
	return FailureProvider
}
