package llm

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/ternarybob/arbor"
	"google.golang.org/genai"

	"github.com/ternarybob/marketpulse/internal/common"
	"github.com/ternarybob/marketpulse/internal/interfaces"
)

// ProviderType represents the AI provider type
type ProviderType string

const (
	// ProviderGemini uses Google Gemini API with Google Search grounding
	ProviderGemini ProviderType = "gemini"
	// ProviderClaude uses Anthropic Claude API with the web search tool
	ProviderClaude ProviderType = "claude"
)

// ProviderFactory creates provider clients lazily and routes grounded requests
// to the configured default provider
type ProviderFactory struct {
	geminiConfig *common.GeminiConfig
	claudeConfig *common.ClaudeConfig
	llmConfig    *common.LLMConfig
	apiKey       string
	logger       arbor.ILogger

	mu           sync.Mutex
	geminiClient *genai.Client
	claudeClient *anthropic.Client
}

var _ interfaces.GroundedProvider = (*ProviderFactory)(nil)

// NewProviderFactory creates a new provider factory. apiKey is the resolved credential
// of the default provider; when empty, client creation fails.
func NewProviderFactory(config *common.Config, apiKey string, logger arbor.ILogger) *ProviderFactory {
	return &ProviderFactory{
		geminiConfig: &config.Gemini,
		claudeConfig: &config.Claude,
		llmConfig:    &config.LLM,
		apiKey:       apiKey,
		logger:       logger,
	}
}

// GetProviderType returns the configured default provider
func (f *ProviderFactory) GetProviderType() string {
	return string(f.llmConfig.DefaultProvider)
}

// GetDefaultModel returns the default model for a provider
func (f *ProviderFactory) GetDefaultModel(provider ProviderType) string {
	if provider == ProviderClaude {
		return f.claudeConfig.Model
	}
	return f.geminiConfig.Model
}

// NormalizeModel removes provider prefix from model name if present
func NormalizeModel(model string) string {
	prefixes := []string{"claude/", "anthropic/", "gemini/", "google/"}
	for _, prefix := range prefixes {
		if strings.HasPrefix(strings.ToLower(model), prefix) {
			return model[len(prefix):]
		}
	}
	return model
}

// GenerateGrounded sends one grounded request to the default provider. No retry is attempted.
func (f *ProviderFactory) GenerateGrounded(ctx context.Context, request *interfaces.GroundedRequest) (*interfaces.GroundedResponse, error) {
	provider := ProviderType(f.llmConfig.DefaultProvider)

	model := NormalizeModel(request.Model)
	if model == "" {
		model = f.GetDefaultModel(provider)
	}

	f.logger.Debug().
		Str("provider", string(provider)).
		Str("model", model).
		Int("prompt_length", len(request.Prompt)).
		Msg("Generating grounded content")

	switch provider {
	case ProviderClaude:
		return f.generateWithClaude(ctx, request.Prompt, model)
	default:
		return f.generateWithGemini(ctx, request.Prompt, model)
	}
}

// GetGeminiClient returns a Gemini client, creating one if necessary
func (f *ProviderFactory) GetGeminiClient(ctx context.Context) (*genai.Client, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.geminiClient != nil {
		return f.geminiClient, nil
	}

	if f.apiKey == "" {
		return nil, fmt.Errorf("failed to create Gemini client: API key not configured")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  f.apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	f.geminiClient = client
	return client, nil
}

// GetClaudeClient returns a Claude client, creating one if necessary
func (f *ProviderFactory) GetClaudeClient() (*anthropic.Client, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.claudeClient != nil {
		return f.claudeClient, nil
	}

	if f.apiKey == "" {
		return nil, fmt.Errorf("failed to create Claude client: API key not configured")
	}

	client := anthropic.NewClient(
		option.WithAPIKey(f.apiKey),
	)

	f.claudeClient = &client
	return f.claudeClient, nil
}

// Close closes all provider clients
func (f *ProviderFactory) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.geminiClient = nil
	f.claudeClient = nil
	return nil
}
