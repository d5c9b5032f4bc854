// Package assistant answers free-form questions with an OpenAI-compatible chat model
// that looks data up through Materials Project tools.
package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/matproj/internal/domain"
	"github.com/kailas-cloud/matproj/internal/metrics"
)

// DefaultMaxTurns bounds the number of chat completions per question.
const DefaultMaxTurns = 5

const systemPrompt = "You answer questions about materials using the Materials Project database. " +
	"Use the tools to look data up, cite material ids, and say so when the data does not answer the question."

var (
	// ErrTooManyTurns is returned when the model keeps calling tools past the turn limit.
	ErrTooManyTurns = errors.New("assistant did not answer within the turn limit")
	// ErrProvider marks failures of the chat completion endpoint.
	ErrProvider = errors.New("chat provider error")
)

// TokenBudget gates completions on the tokens already spent.
type TokenBudget interface {
	Check(ctx context.Context) error
	Record(tokens int64)
}

// Config holds the chat endpoint settings.
type Config struct {
	APIKey   string
	BaseURL  string
	Model    string
	MaxTurns int
	Logger   *zap.Logger
	Metrics  *metrics.Assistant
	Budget   TokenBudget // optional
}

// ToolCall is one tool invocation made while answering.
type ToolCall struct {
	Name      string
	Arguments string
	Err       error
}

// Answer is the model's final reply.
type Answer struct {
	Text      string
	ToolCalls []ToolCall
	Turns     int
}

// Assistant runs the tool-calling loop.
type Assistant struct {
	client   *openai.Client
	model    string
	maxTurns int
	data     Materials
	logger   *zap.Logger
	metrics  *metrics.Assistant
	budget   TokenBudget
}

// New creates an assistant backed by data.
func New(cfg *Config, data Materials) (*Assistant, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: assistant API key is required", domain.ErrConfig)
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("%w: assistant model is required", domain.ErrConfig)
	}
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	maxTurns := cfg.MaxTurns
	if maxTurns <= 0 {
		maxTurns = DefaultMaxTurns
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Assistant{
		client:   openai.NewClientWithConfig(clientCfg),
		model:    cfg.Model,
		maxTurns: maxTurns,
		data:     data,
		logger:   logger,
		metrics:  cfg.Metrics,
		budget:   cfg.Budget,
	}, nil
}

// Ask answers question, calling tools as the model requests them.
// Tool failures are reported back to the model rather than aborting the loop.
func (a *Assistant) Ask(ctx context.Context, question string) (Answer, error) {
	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
		{Role: openai.ChatMessageRoleUser, Content: question},
	}
	tools := toolDefinitions()

	var ans Answer
	for ans.Turns < a.maxTurns {
		if a.budget != nil {
			if err := a.budget.Check(ctx); err != nil {
				return ans, fmt.Errorf("ask: %w", err)
			}
		}
		ans.Turns++
		resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:    a.model,
			Messages: messages,
			Tools:    tools,
		})
		a.metrics.ObserveCompletion(a.model, err, resp.Usage.PromptTokens, resp.Usage.CompletionTokens)
		if a.budget != nil {
			a.budget.Record(int64(resp.Usage.TotalTokens))
		}
		if err != nil {
			return ans, parseAPIError(err)
		}
		if len(resp.Choices) == 0 {
			return ans, fmt.Errorf("empty chat completion response: %w", ErrProvider)
		}

		msg := resp.Choices[0].Message
		if len(msg.ToolCalls) == 0 {
			ans.Text = msg.Content
			return ans, nil
		}

		messages = append(messages, msg)
		for _, tc := range msg.ToolCalls {
			content, err := runTool(ctx, a.data, tc.Function.Name, tc.Function.Arguments)
			a.metrics.ObserveToolCall(tc.Function.Name, err)
			ans.ToolCalls = append(ans.ToolCalls, ToolCall{
				Name:      tc.Function.Name,
				Arguments: tc.Function.Arguments,
				Err:       err,
			})
			if err != nil {
				a.logger.Warn("tool call failed",
					zap.String("tool", tc.Function.Name),
					zap.Error(err),
				)
				content = toolError(err)
			}
			messages = append(messages, openai.ChatCompletionMessage{
				Role:       openai.ChatMessageRoleTool,
				Content:    content,
				Name:       tc.Function.Name,
				ToolCallID: tc.ID,
			})
		}
	}
	return ans, fmt.Errorf("ask: %w (%d turns)", ErrTooManyTurns, a.maxTurns)
}

func toolError(err error) string {
	out, _ := json.Marshal(map[string]string{"error": err.Error()})
	return string(out)
}

// parseAPIError extracts a human-readable error from the API response.
func parseAPIError(err error) error {
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		if detail := extractDetail(reqErr.Body); detail != "" {
			return fmt.Errorf("chat API error %d: %s: %w", reqErr.HTTPStatusCode, detail, ErrProvider)
		}
		return fmt.Errorf("chat API error %d: %s: %w", reqErr.HTTPStatusCode, string(reqErr.Body), ErrProvider)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("chat API error %d: %s: %w", apiErr.HTTPStatusCode, apiErr.Message, ErrProvider)
	}

	return fmt.Errorf("chat request failed: %v: %w", err, ErrProvider)
}

// extractDetail extracts the "detail" field from a JSON error body.
func extractDetail(body []byte) string {
	var parsed struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(body, &parsed) == nil && parsed.Detail != "" {
		return parsed.Detail
	}
	return ""
}
