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
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockChat returns a canned completion or error.
type mockChat struct {
	resp openai.ChatCompletionResponse
	err  error
	got  openai.ChatCompletionRequest
}

func (m *mockChat) CreateChatCompletion(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	m.got = req
	return m.resp, m.err
}

func completionWith(text string) openai.ChatCompletionResponse {
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: text}},
		},
	}
}

func TestNewLiveContentGenerator(t *testing.T) {
	_, err := NewLiveContentGenerator("", "gpt-4o-mini")
	assert.Error(t, err)

	gen, err := NewLiveContentGenerator("sk-test", "")
	require.NoError(t, err)
	assert.Equal(t, defaultOpenAIModel, gen.model)

	gen, err = NewLiveContentGenerator("sk-test", "gpt-4o")
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o", gen.model)
}

func TestLiveContentGeneratorCreate(t *testing.T) {
	chat := &mockChat{resp: completionWith("  The uncomfortable truth about AI disruption.  ")}
	gen := &LiveContentGenerator{client: chat, model: "gpt-4o-mini"}

	opp := Opportunity{Topic: "AI disruption", Platform: "LinkedIn", Score: 0.91}
	content, err := gen.Create(context.Background(), opp)
	require.NoError(t, err)

	assert.Equal(t, "The uncomfortable truth about AI disruption.", content.Text)
	assert.Equal(t, "LinkedIn", content.Platform)
	assert.NotEmpty(t, content.Justification)

	require.Len(t, chat.got.Messages, 2)
	assert.Equal(t, openai.ChatMessageRoleSystem, chat.got.Messages[0].Role)
	assert.Contains(t, chat.got.Messages[1].Content, "AI disruption")
	assert.Contains(t, chat.got.Messages[1].Content, "LinkedIn")
}

func TestLiveContentGeneratorEmptyCompletion(t *testing.T) {
	tests := []struct {
		name string
		resp openai.ChatCompletionResponse
	}{
		{"no choices", openai.ChatCompletionResponse{}},
		{"blank text", completionWith("   ")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &LiveContentGenerator{client: &mockChat{resp: tt.resp}, model: "m"}
			_, err := gen.Create(context.Background(), Opportunity{Topic: "x"})

			var adapterErr *AdapterError
			require.ErrorAs(t, err, &adapterErr)
			assert.Equal(t, FailureProvider, adapterErr.Kind)
		})
	}
}

func TestClassifyOpenAIError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want FailureKind
	}{
		{"unauthorized", &openai.APIError{HTTPStatusCode: 401}, FailureAuth},
		{"forbidden", &openai.APIError{HTTPStatusCode: 403}, FailureAuth},
		{"rate limited", &openai.APIError{HTTPStatusCode: 429}, FailureRateLimit},
		{"server error", &openai.APIError{HTTPStatusCode: 500}, FailureProvider},
		{"plain error", errors.New("boom"), FailureProvider},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classifyOpenAIError(tt.err))
		})
	}
}

func TestLiveContentGeneratorWrapsAPIErrors(t *testing.T) {
	chat := &mockChat{err: &openai.APIError{HTTPStatusCode: 429, Message: "slow down"}}
	gen := &LiveContentGenerator{client: chat, model: "m"}

	_, err := gen.Create(context.Background(), Opportunity{Topic: "x"})
	var adapterErr *AdapterError
	require.ErrorAs(t, err, &adapterErr)
	assert.Equal(t, FailureRateLimit, adapterErr.Kind)
	assert.Equal(t, "content", adapterErr.Capability)
}
