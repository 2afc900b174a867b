package adapter

import (
	"context"
	"strings"
	"sync"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
	"mindmesh/backend/pkg/errors"
	"mindmesh/backend/pkg/logger"
)

// TextGenerator is the text-generation capability consumed by the pipeline
// stages and the insights service. Implementations may fail with a
// CapabilityError; the core never retries (that policy belongs to the
// collaborator boundary).
type TextGenerator interface {
	// GenerateText returns a plain-text completion
	GenerateText(ctx context.Context, systemPrompt, userMsg string) (string, error)
	// GenerateJSON returns a completion constrained to a single JSON object.
	// The raw bytes are returned untrusted; callers parse defensively.
	GenerateJSON(ctx context.Context, systemPrompt, userMsg string) ([]byte, error)
}

// LLMAdapter talks to an OpenAI-compatible endpoint (LiteLLM in deployment)
type LLMAdapter struct {
	client *openai.Client
	model  string
	mu     sync.RWMutex // Protects model field for concurrent access
	logger *zap.Logger
}

// NewLLMAdapter creates a new LLM adapter
func NewLLMAdapter(baseURL, apiKey, modelID string) *LLMAdapter {
	// For LiteLLM, we can use a dummy API key if not provided
	if apiKey == "" {
		apiKey = "dummy-key"
	}

	config := openai.DefaultConfig(apiKey)
	config.BaseURL = strings.TrimSuffix(baseURL, "/") + "/v1"

	return &LLMAdapter{
		client: openai.NewClientWithConfig(config),
		model:  modelID,
		logger: logger.Get(),
	}
}

// SetModel updates the model used by this adapter
func (a *LLMAdapter) SetModel(model string) {
	if model != "" {
		a.mu.Lock()
		a.model = model
		a.mu.Unlock()
		a.logger.Debug("LLM adapter model updated", zap.String("model", model))
	}
}

// GetModel returns the current model
func (a *LLMAdapter) GetModel() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.model
}

// GenerateText sends a completion request and returns the raw text response
func (a *LLMAdapter) GenerateText(ctx context.Context, systemPrompt, userMsg string) (string, error) {
	resp, err := a.complete(ctx, systemPrompt, userMsg, nil)
	if err != nil {
		return "", err
	}
	return resp, nil
}

// GenerateJSON sends a completion request constrained to JSON object output
func (a *LLMAdapter) GenerateJSON(ctx context.Context, systemPrompt, userMsg string) ([]byte, error) {
	resp, err := a.complete(ctx, systemPrompt, userMsg, &openai.ChatCompletionResponseFormat{
		Type: openai.ChatCompletionResponseFormatTypeJSONObject,
	})
	if err != nil {
		return nil, err
	}
	return []byte(stripCodeFence(resp)), nil
}

func (a *LLMAdapter) complete(ctx context.Context, systemPrompt, userMsg string, format *openai.ChatCompletionResponseFormat) (string, error) {
	a.mu.RLock()
	currentModel := a.model
	a.mu.RUnlock()

	req := openai.ChatCompletionRequest{
		Model: currentModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userMsg},
		},
		Temperature:    0.3,
		ResponseFormat: format,
	}

	resp, err := a.client.CreateChatCompletion(ctx, req)
	if err != nil {
		a.logger.Error("LLM request failed",
			zap.Error(err),
			zap.String("model", currentModel),
		)
		return "", errors.NewCapability("text-generation", err)
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", errors.NewCapability("text-generation", nil)
	}

	a.logger.Debug("LLM response generated",
		zap.String("model", currentModel),
		zap.Int("chars", len(resp.Choices[0].Message.Content)),
	)

	return resp.Choices[0].Message.Content, nil
}

// stripCodeFence removes a ```json ... ``` wrapper some models insist on
// emitting even in JSON mode.
func stripCodeFence(s string) string {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}
