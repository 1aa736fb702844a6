package llm

import (
	"fmt"
	"strings"
)

// Provider represents the LLM provider type
type Provider string

const (
	ProviderMistral Provider = "mistral"
	ProviderOpenAI  Provider = "openai"
	ProviderClaude  Provider = "claude"
)

// Factory creates LLM instances based on provider
type Factory struct{}

// NewFactory creates a new LLM factory
func NewFactory() *Factory {
	return &Factory{}
}

// CreateLLM creates an LLM instance based on provider and configuration.
// Recognized config keys: api_key (required), model, base_url.
func (f *Factory) CreateLLM(provider Provider, config map[string]string) (LLM, error) {
	apiKey := config["api_key"]
	model := config["model"]
	baseURL := config["base_url"]

	switch Provider(strings.ToLower(string(provider))) {
	case ProviderMistral, "":
		if apiKey == "" {
			return nil, fmt.Errorf("Mistral API key is required")
		}
		if model != "" {
			return NewMistralWithModel(apiKey, model).WithBaseURL(baseURL), nil
		}
		return NewMistral(apiKey).WithBaseURL(baseURL), nil

	case ProviderOpenAI:
		if apiKey == "" {
			return nil, fmt.Errorf("OpenAI API key is required")
		}
		if model != "" {
			return NewOpenAIWithModel(apiKey, model).WithBaseURL(baseURL), nil
		}
		return NewOpenAI(apiKey).WithBaseURL(baseURL), nil

	case ProviderClaude:
		if apiKey == "" {
			return nil, fmt.Errorf("Claude API key is required")
		}
		if model != "" {
			return NewClaudeWithModel(apiKey, model).WithBaseURL(baseURL), nil
		}
		return NewClaude(apiKey).WithBaseURL(baseURL), nil

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", provider)
	}
}

// GetAvailableProviders returns a list of available LLM providers
func (f *Factory) GetAvailableProviders() []Provider {
	return []Provider{ProviderMistral, ProviderOpenAI, ProviderClaude}
}
