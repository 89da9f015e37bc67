package ai

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/myrjola/interrogation/internal/errors"
	"github.com/myrjola/interrogation/internal/models"
	"github.com/sashabaranov/go-openai"
)

const (
	MaxTokens = 256
	// DefaultTimeout bounds a completion request when no timeout is configured.
	DefaultTimeout = 20 * time.Second
)

var ErrEmptyCompletion = errors.NewSentinel("completion has no choices")

// Client answers through the OpenAI chat completion API and falls back to another Responder when that fails.
type Client struct {
	client   *openai.Client
	model    string
	timeout  time.Duration
	fallback Responder
	logger   *slog.Logger
}

// NewClient creates a client for the API key. Use NewClientWithConfig to point it elsewhere.
//
// Each completion request is abandoned after timeout, after which fallback answers instead.
func NewClient(
	apiKey string,
	model string,
	timeout time.Duration,
	fallback Responder,
	logger *slog.Logger,
) *Client {
	return NewClientWithConfig(openai.DefaultConfig(apiKey), model, timeout, fallback, logger)
}

func NewClientWithConfig(
	cfg openai.ClientConfig,
	model string,
	timeout time.Duration,
	fallback Responder,
	logger *slog.Logger,
) *Client {
	if model == "" {
		model = openai.GPT3Dot5Turbo
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		client:   openai.NewClientWithConfig(cfg),
		model:    model,
		timeout:  timeout,
		fallback: fallback,
		logger:   logger.With(slog.String("source", "ai.Client")),
	}
}

func (c *Client) Respond(ctx context.Context, suspect models.Suspect, question string) (string, error) {
	completionCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	answer, err := c.SyncCompletion(completionCtx, messages(suspect, question))
	if err == nil {
		return answer, nil
	}
	c.logger.LogAttrs(ctx, slog.LevelWarn, "falling back to scripted response",
		slog.Int64("person_id", suspect.ID), errors.SlogError(err))
	if c.fallback == nil {
		return "", err
	}
	return c.fallback.Respond(ctx, suspect, question)
}

func (c *Client) SyncCompletion(ctx context.Context, messages []openai.ChatCompletionMessage) (string, error) {
	completion, err := c.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{ //nolint:exhaustruct // this is better for readability
			Model:     c.model,
			MaxTokens: MaxTokens,
			Messages:  messages,
		},
	)
	if err != nil {
		return "", errors.Wrap(err, "create chat completion")
	}
	if len(completion.Choices) == 0 || completion.Choices[0].Message.Content == "" {
		return "", errors.Wrap(ErrEmptyCompletion, "create chat completion", slog.String("id", completion.ID))
	}
	return completion.Choices[0].Message.Content, nil
}

func messages(suspect models.Suspect, question string) []openai.ChatCompletionMessage {
	system := fmt.Sprintf(`You are %s, a suspect being interrogated. You are %s.
Stay in character and answer in at most two sentences. Never reveal which sensors could expose you.`,
		suspect.Name, Temperament(suspect.Rank))
	return []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: system}, //nolint:exhaustruct // this is better for readability
		{Role: openai.ChatMessageRoleUser, Content: question}, //nolint:exhaustruct // this is better for readability
	}
}
