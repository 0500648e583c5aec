// Package ai implements the decision client against an OpenAI-compatible
// chat completions endpoint.
//
// The client owns the full decide pipeline for one step:
//   - Prompt: system instruction plus goal and serialized history window
//   - Transport: plain HTTP with bearer auth and a JSON response format hint
//   - Validation: HTTP status, choices, message content, in that order
//   - Extraction: fenced block, whole body, balanced-object scan
//   - Retry: three attempts with capped exponential backoff around all of it
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/doeshing/goalrun/internal/domain"
	"github.com/doeshing/goalrun/internal/pkg/logger"
	"github.com/doeshing/goalrun/internal/pkg/retry"
	"github.com/doeshing/goalrun/internal/ports"
)

const defaultBaseURL = "https://api.openai.com/v1"

// defaultRetryPolicy bounds every decide call: three attempts, pauses of 4s
// then 8s, capped at 10s.
var defaultRetryPolicy = retry.Policy{
	Attempts: 3,
	Base:     4 * time.Second,
	Factor:   2,
	Max:      10 * time.Second,
}

// ClientOptions configures a Client.
type ClientOptions struct {
	BaseURL      string
	APIKey       string
	Model        string
	SystemPrompt string
	HTTPClient   *http.Client
	Logger       ports.Logger
	Transcript   *logger.Transcript
	// Policy overrides the retry policy; zero means the default.
	Policy retry.Policy
}

// Client implements ports.DecisionClient.
type Client struct {
	baseURL      string
	apiKey       string
	model        string
	systemPrompt string
	httpClient   *http.Client
	log          ports.Logger
	transcript   *logger.Transcript
	policy       retry.Policy
}

// NewClient builds a decision client.
func NewClient(opts ClientOptions) *Client {
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: domain.DefaultHTTPClientTimeout}
	}
	systemPrompt := opts.SystemPrompt
	if systemPrompt == "" {
		systemPrompt = domain.DefaultSystemPrompt
	}
	policy := opts.Policy
	if policy.Attempts == 0 {
		policy = defaultRetryPolicy
	}
	return &Client{
		baseURL:      baseURL,
		apiKey:       opts.APIKey,
		model:        opts.Model,
		systemPrompt: systemPrompt,
		httpClient:   httpClient,
		log:          opts.Logger,
		transcript:   opts.Transcript,
		policy:       policy,
	}
}

// NextDecision implements ports.DecisionClient. Transport failures, empty
// replies, and unparseable payloads share the retry budget; the last cause
// comes back wrapped in a DecisionError.
func (c *Client) NextDecision(ctx context.Context, goal string, window []domain.HistoryEntry) (domain.Decision, error) {
	userMessage, err := buildUserMessage(goal, window)
	if err != nil {
		return domain.Decision{}, &DecisionError{Err: err}
	}

	decision, err := retry.Do(ctx, c.policy, func(ctx context.Context) (domain.Decision, error) {
		return c.decideOnce(ctx, userMessage)
	})
	if err != nil {
		c.logError("model decision failed", err, map[string]interface{}{"model": c.model})
		return domain.Decision{}, &DecisionError{Err: err}
	}
	return decision, nil
}

// decideOnce performs one call plus validation plus parsing.
func (c *Client) decideOnce(ctx context.Context, userMessage string) (domain.Decision, error) {
	payload := chatCompletionRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: c.systemPrompt},
			{Role: "user", Content: userMessage},
		},
		ResponseFormat: &responseFormat{Type: "json_object"},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return domain.Decision{}, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return domain.Decision{}, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	c.transcript.Request(c.model, c.systemPrompt, userMessage)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return domain.Decision{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return domain.Decision{}, fmt.Errorf("chat completions: %s", resp.Status)
	}

	var decoded chatCompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return domain.Decision{}, err
	}
	if len(decoded.Choices) == 0 {
		return domain.Decision{}, errors.New("response has no choices")
	}
	content := decoded.FirstMessage()
	if content == "" {
		return domain.Decision{}, errors.New("response message is empty")
	}

	c.transcript.Response(c.model, content)

	return parseDecision(content)
}

func (c *Client) logError(msg string, err error, fields map[string]interface{}) {
	if c.log != nil {
		c.log.Error(msg, err, fields)
	}
}

var _ ports.DecisionClient = (*Client)(nil)
