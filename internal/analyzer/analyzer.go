// Package analyzer asks a chat-completion API to analyze document text.
//
// Exactly one request is made per call: there is no retry and no client-side
// timeout, so the caller waits for as long as the remote API takes unless
// the context is canceled. Every failure is returned to the caller.
package analyzer

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-resty/resty/v2"
)

// SystemPrompt precedes the document content in every request.
const SystemPrompt = "Analyze the following document:"

// ErrNoChoices is returned when the API answers 2xx without any choice.
var ErrNoChoices = errors.New("completion response has no choices")

// ErrUnexpectedStatus is returned for non-2xx API responses.
var ErrUnexpectedStatus = errors.New("completion API returned an unexpected status")

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

type Analyzer struct {
	client *resty.Client
	model  string
}

// New returns an Analyzer talking to the chat-completions endpoint under
// baseURL, e.g. https://api.openai.com/v1.
func New(baseURL, apiKey, model string) *Analyzer {
	client := resty.New().
		SetBaseURL(baseURL).
		SetHeader("Content-Type", "application/json")
	if apiKey != "" {
		client.SetAuthToken(apiKey)
	}

	return &Analyzer{
		client: client,
		model:  model,
	}
}

// AnalyzeDocument returns the text of the first completion choice.
func (a *Analyzer) AnalyzeDocument(ctx context.Context, content string) (string, error) {
	var result chatCompletionResponse

	resp, err := a.client.R().
		SetContext(ctx).
		SetBody(chatCompletionRequest{
			Model: a.model,
			Messages: []chatMessage{
				{Role: "system", Content: SystemPrompt},
				{Role: "user", Content: content},
			},
		}).
		SetResult(&result).
		Post("/chat/completions")
	if err != nil {
		return "", fmt.Errorf("in internal/analyzer/analyzer.go/AnalyzeDocument(): error while calling the completion API: %w", err)
	}

	if resp.IsError() {
		return "", fmt.Errorf("%w: %s: %s", ErrUnexpectedStatus, resp.Status(), resp.String())
	}

	if len(result.Choices) == 0 {
		return "", ErrNoChoices
	}

	return result.Choices[0].Message.Content, nil
}
