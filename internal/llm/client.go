// Package llm generates review critiques through the OpenAI chat API with
// request spacing and retry handling.
package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"golang.org/x/time/rate"

	"github.com/margin-review/margin/internal/logger"
)

const systemPrompt = "You are an expert thesis panelist with years of experience reviewing academic research. Provide constructive, specific, and actionable feedback."

const (
	critiqueTemperature = 0.7
	critiqueMaxTokens   = 2000
)

// ErrorKind classifies completion failures for user-facing messages.
type ErrorKind string

const (
	ErrorKindAuth        ErrorKind = "auth"
	ErrorKindRateLimited ErrorKind = "rate_limited"
	ErrorKindGeneric     ErrorKind = "generic"
)

// CompletionError wraps an API failure with a classification the tool layer
// can turn into a friendly message.
type CompletionError struct {
	Kind ErrorKind
	Err  error
}

func (e *CompletionError) Error() string {
	return fmt.Sprintf("completion failed (%s): %v", e.Kind, e.Err)
}

func (e *CompletionError) Unwrap() error { return e.Err }

// Message returns the user-facing description for the error kind.
func (e *CompletionError) Message() string {
	switch e.Kind {
	case ErrorKindAuth:
		return "Invalid API key. Please check your key."
	case ErrorKindRateLimited:
		return "Rate limit reached. Please try again in a moment."
	default:
		return fmt.Sprintf("Connection error: %v", e.Err)
	}
}

func classifyError(err error) *CompletionError {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "401") || strings.Contains(msg, "unauthorized") || strings.Contains(msg, "invalid api key"):
		return &CompletionError{Kind: ErrorKindAuth, Err: err}
	case strings.Contains(msg, "rate") || strings.Contains(msg, "limit") || strings.Contains(msg, "429"):
		return &CompletionError{Kind: ErrorKindRateLimited, Err: err}
	default:
		return &CompletionError{Kind: ErrorKindGeneric, Err: err}
	}
}

// Client talks to the chat completion API. All critique requests made
// through one Client share its spacing limiter, so back-to-back reviews
// keep a minimum interval between API calls.
type Client struct {
	client  openai.Client
	model   string
	limiter *rate.Limiter
	log     logger.Logger
}

// NewClient creates a critique client. minInterval is the minimum spacing
// between consecutive generation requests; zero or negative disables
// spacing.
func NewClient(apiKey, model string, minInterval time.Duration, log logger.Logger) *Client {
	var limiter *rate.Limiter
	if minInterval > 0 {
		limiter = rate.NewLimiter(rate.Every(minInterval), 1)
	}
	return &Client{
		client:  openai.NewClient(option.WithAPIKey(apiKey)),
		model:   model,
		limiter: limiter,
		log:     log,
	}
}

// GenerateCritique streams a critique for the given prompt. Each text
// fragment is passed to onFragment as it arrives (nil is allowed), and the
// complete accumulated text is returned once the stream finishes. If the
// stream fails partway, the partial text is discarded and an error is
// returned.
func (c *Client) GenerateCritique(ctx context.Context, prompt string, onFragment func(string)) (string, error) {
	text, err := RateLimitedCall(ctx, c.limiter, c.log, func(ctx context.Context) (string, error) {
		return c.streamCompletion(ctx, prompt, onFragment)
	})
	if err != nil {
		if _, ok := err.(*CompletionError); ok {
			return "", err
		}
		return "", classifyError(err)
	}
	return text, nil
}

func (c *Client) streamCompletion(ctx context.Context, prompt string, onFragment func(string)) (string, error) {
	stream := c.client.Chat.Completions.NewStreaming(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(prompt),
		},
		Temperature:         openai.Float(critiqueTemperature),
		MaxCompletionTokens: openai.Int(critiqueMaxTokens),
	})

	var critique strings.Builder
	for stream.Next() {
		chunk := stream.Current()
		if len(chunk.Choices) == 0 {
			continue
		}
		fragment := chunk.Choices[0].Delta.Content
		if fragment == "" {
			continue
		}
		critique.WriteString(fragment)
		if onFragment != nil {
			onFragment(fragment)
		}
	}
	if err := stream.Err(); err != nil {
		return "", fmt.Errorf("critique stream: %w", err)
	}

	c.log.Debug("Generated critique of %d characters", critique.Len())
	return critique.String(), nil
}

// CheckConnection makes a minimal completion call to verify the API key.
// It returns a user-facing status message either way.
func (c *Client) CheckConnection(ctx context.Context) (string, error) {
	_, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage("Hello"),
		},
		MaxCompletionTokens: openai.Int(10),
	})
	if err != nil {
		classified := classifyError(err)
		return classified.Message(), classified
	}
	return "API key is valid!", nil
}
