package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pavelanni/florafauna/internal/llm/prompts"
	"github.com/pavelanni/florafauna/internal/quiz"

	openai "github.com/sashabaranov/go-openai"
)

const (
	DefaultBaseURL   = "https://api.groq.com/openai/v1"
	DefaultModel     = "moonshotai/kimi-k2-instruct-0905"
	DefaultMaxTokens = 200
)

// ErrNotConfigured is returned by a client built without an API key.
var ErrNotConfigured = errors.New("llm: API key not configured")

// Client wraps an OpenAI-compatible API client.
type Client struct {
	api   *openai.Client
	model string
}

// New creates a new LLM client. Empty baseURL and modelName select the
// defaults. An empty apiKey yields a client whose calls fail with
// ErrNotConfigured.
func New(baseURL, apiKey, modelName string) *Client {
	if modelName == "" {
		modelName = DefaultModel
	}
	c := &Client{model: modelName}
	if apiKey == "" {
		return c
	}
	config := openai.DefaultConfig(apiKey)
	config.BaseURL = DefaultBaseURL
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	c.api = openai.NewClientWithConfig(config)
	return c
}

// Configured reports whether the client can make API calls.
func (c *Client) Configured() bool {
	return c != nil && c.api != nil
}

// CompletionRequest is one chat completion call.
type CompletionRequest struct {
	Chat           []openai.ChatCompletionMessage
	MaxTokens      int
	Model          string
	ResponseFormat *openai.ChatCompletionResponseFormat
	Tools          []openai.Tool
	ToolChoice     any
}

// Completion is the first choice of a completion response.
type Completion struct {
	Content          string
	ReasoningContent string
	ToolCalls        []openai.ToolCall
}

// isReasoningModel reports whether the model takes max_completion_tokens
// instead of max_tokens.
func isReasoningModel(name string) bool {
	name = strings.ToLower(name)
	return strings.Contains(name, "o1") || strings.Contains(name, "o3") || strings.Contains(name, "reasoning")
}

func (c *Client) buildRequest(req CompletionRequest) openai.ChatCompletionRequest {
	modelName := req.Model
	if modelName == "" {
		modelName = c.model
	}
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	format := req.ResponseFormat
	if format == nil {
		format = &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeText}
	}

	out := openai.ChatCompletionRequest{
		Model:          modelName,
		Messages:       req.Chat,
		ResponseFormat: format,
		Tools:          req.Tools,
		ToolChoice:     req.ToolChoice,
	}
	if isReasoningModel(modelName) {
		out.MaxCompletionTokens = maxTokens
	} else {
		out.MaxTokens = maxTokens
	}
	return out
}

// Complete sends a chat completion request and returns the first choice.
func (c *Client) Complete(ctx context.Context, req CompletionRequest) (Completion, error) {
	if !c.Configured() {
		return Completion{}, ErrNotConfigured
	}
	if len(req.Chat) == 0 {
		return Completion{}, errors.New("llm: empty chat")
	}

	resp, err := c.api.CreateChatCompletion(ctx, c.buildRequest(req))
	if err != nil {
		return Completion{}, fmt.Errorf("LLM API call: %w", err)
	}
	if len(resp.Choices) == 0 {
		return Completion{}, fmt.Errorf("LLM returned no choices")
	}

	msg := resp.Choices[0].Message
	if msg.Content == "" && len(msg.ToolCalls) == 0 {
		return Completion{}, fmt.Errorf("LLM returned no content")
	}
	slog.Debug("llm completion", "model", resp.Model, "tokens", resp.Usage.TotalTokens)
	return Completion{
		Content:          msg.Content,
		ReasoningContent: msg.ReasoningContent,
		ToolCalls:        msg.ToolCalls,
	}, nil
}

// ExplainAnswer asks the model why the correct choice of q is right, given
// the learner's selected choice index.
func (c *Client) ExplainAnswer(ctx context.Context, q quiz.Question, selected int, lang string) (string, error) {
	if !c.Configured() {
		return "", ErrNotConfigured
	}
	if q.CorrectIndex < 0 || q.CorrectIndex >= len(q.Choices) {
		return "", fmt.Errorf("correct index %d out of range", q.CorrectIndex)
	}
	if selected < 0 || selected >= len(q.Choices) {
		return "", fmt.Errorf("selected index %d out of range", selected)
	}

	prompt, err := prompts.BuildExplainPrompt(prompts.ExplainData{
		Question: q.Prompt,
		Choices:  q.Choices,
		Correct:  q.Choices[q.CorrectIndex],
		Selected: q.Choices[selected],
		Lang:     lang,
	})
	if err != nil {
		return "", fmt.Errorf("build explain prompt: %w", err)
	}

	out, err := c.Complete(ctx, CompletionRequest{
		Chat: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: prompt},
			{Role: openai.ChatMessageRoleUser, Content: "Explain the answer."},
		},
		MaxTokens: 300,
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out.Content), nil
}
