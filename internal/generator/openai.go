package generator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/sashabaranov/go-openai"

	"github.com/ashureev/time-agent/internal/domain"
)

const defaultModel = "gpt-4o-mini"

const systemPrompt = `You write historical escape-room puzzles for high-school students preparing for their history matriculation exam.
Every puzzle opens with a dramatic scene that teaches real exam material, told through the eyes of a time agent recovering lost records from the darkest archives.
Reply with a single JSON object and nothing else.`

const userPromptTemplate = `Create exactly %d puzzles on the topic: %q.

JSON shape:
{
  "topic": string,
  "narrative": string,
  "puzzles": [{
    "id": string,
    "type": "MULTIPLE_CHOICE" | "CODE_ENTRY" | "ORDERING" | "MATCHING",
    "title": string,
    "description": string,
    "clue": string,
    "question": string,
    "explanation": string,
    "options": [string],          // MULTIPLE_CHOICE only
    "correctAnswer": integer,     // MULTIPLE_CHOICE only, index into options
    "correctCode": string,        // CODE_ENTRY only
    "itemsToOrder": [string],     // ORDERING only
    "correctSequence": [integer], // ORDERING only, original indices in correct order
    "matchingPairs": [{"left": string, "right": string}] // MATCHING only
  }]
}
Use a mix of all four types.`

// chatClient is the subset of the OpenAI client the provider uses.
type chatClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAIProvider generates puzzle sets through the chat completions API.
type OpenAIProvider struct {
	client chatClient
	model  string
}

// NewOpenAIProvider creates a provider. baseURL may be empty to use the
// public endpoint.
func NewOpenAIProvider(apiKey, model, baseURL string) (*OpenAIProvider, error) {
	if apiKey == "" {
		return nil, ErrProviderUnavailable
	}
	if model == "" {
		model = defaultModel
		slog.Warn("OPENAI_MODEL not set, defaulting", "model", model)
	}
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	slog.Info("Initializing OpenAI provider", "model", model)
	return &OpenAIProvider{client: openai.NewClientWithConfig(cfg), model: model}, nil
}

// Generate asks the model for count puzzles about topic.
func (o *OpenAIProvider) Generate(ctx context.Context, topic string, count int) (*domain.PuzzleSet, error) {
	slog.Debug("Generating puzzles via OpenAI", "model", o.model, "topic", topic, "count", count)
	req := openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: fmt.Sprintf(userPromptTemplate, count, topic)},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	}

	resp, err := o.client.CreateChatCompletion(ctx, req)
	if err != nil {
		slog.Error("OpenAI API call failed", "error", err)
		return nil, classify(err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("model returned no choices: %w", domain.ErrProvider)
	}
	slog.Debug("Received response from OpenAI", "finish_reason", resp.Choices[0].FinishReason)

	return decodeSet(resp.Choices[0].Message.Content, topic)
}

// decodeSet parses a model reply into a session-ready set.
func decodeSet(content, topic string) (*domain.PuzzleSet, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")

	var set domain.PuzzleSet
	if err := json.Unmarshal([]byte(content), &set); err != nil {
		return nil, fmt.Errorf("decode model reply: %v: %w", err, domain.ErrProvider)
	}
	if len(set.Puzzles) == 0 {
		return nil, fmt.Errorf("model produced no puzzles for %q: %w", topic, domain.ErrProvider)
	}

	if strings.TrimSpace(set.Topic) == "" {
		set.Topic = topic
	}
	if strings.TrimSpace(set.Narrative) == "" {
		set.Narrative = DefaultNarrative
	}
	for i := range set.Puzzles {
		if set.Puzzles[i].ID == "" {
			set.Puzzles[i].ID = uuid.NewString()
		}
	}
	set.TotalRooms = len(set.Puzzles)
	set.Sources = []domain.Source{}
	return &set, nil
}

// classify maps transport errors onto the provider error kinds.
func classify(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("generation cancelled: %w", errors.Join(domain.ErrProvider, err))
	}

	status := 0
	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		status = reqErr.HTTPStatusCode
	}

	msg := strings.ToLower(err.Error())
	switch {
	case status == http.StatusUnauthorized || strings.Contains(msg, "api key"):
		return fmt.Errorf("%w: %v", ErrInvalidCredential, err)
	case status == http.StatusTooManyRequests || strings.Contains(msg, "quota"):
		return fmt.Errorf("%w: %v", ErrQuotaExceeded, err)
	}
	return fmt.Errorf("%v: %w", err, domain.ErrProvider)
}
