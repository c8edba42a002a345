package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/ternarybob/arbor"
	"google.golang.org/genai"

	"github.com/ternarybob/suadeo/internal/common"
)

// provider is the raw single-call surface behind the completion service.
// Concurrency bounds, rate limiting, and retries live in Service, not here.
type provider interface {
	generate(ctx context.Context, prompt string) (string, error)
	name() string
	close() error
}

// DetectProvider infers the provider from a model name prefix. Unknown
// prefixes fall through to the configured default.
func DetectProvider(model, fallback string) string {
	switch {
	case strings.HasPrefix(model, "claude-"):
		return "claude"
	case strings.HasPrefix(model, "gemini-"):
		return "gemini"
	default:
		return fallback
	}
}

// newProvider constructs the provider selected by the configuration. The
// configured model name wins over the default provider when its prefix
// identifies a family.
func newProvider(config *common.Config, logger arbor.ILogger) (provider, error) {
	model := config.Claude.Model
	if config.LLM.DefaultProvider == "gemini" {
		model = config.Gemini.Model
	}
	switch name := DetectProvider(model, config.LLM.DefaultProvider); name {
	case "claude":
		return newClaudeProvider(&config.Claude, logger)
	case "gemini":
		return newGeminiProvider(&config.Gemini, logger)
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", name)
	}
}

type claudeProvider struct {
	config *common.ClaudeConfig
	client anthropic.Client
	logger arbor.ILogger
}

func newClaudeProvider(config *common.ClaudeConfig, logger arbor.ILogger) (*claudeProvider, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("Anthropic API key is required (set ANTHROPIC_API_KEY or claude.api_key)")
	}
	client := anthropic.NewClient(
		option.WithAPIKey(config.APIKey),
	)
	logger.Debug().
		Str("model", config.Model).
		Int("max_tokens", config.MaxTokens).
		Msg("Claude provider initialized")
	return &claudeProvider{config: config, client: client, logger: logger}, nil
}

func (p *claudeProvider) name() string { return "claude" }

func (p *claudeProvider) generate(ctx context.Context, prompt string) (string, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(p.config.Model),
		MaxTokens: int64(p.config.MaxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}
	if p.config.Temperature > 0 {
		params.Temperature = anthropic.Float(float64(p.config.Temperature))
	}

	resp, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("Claude API call failed: %w", err)
	}

	var response strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			response.WriteString(block.Text)
		}
	}
	if response.Len() == 0 {
		return "", fmt.Errorf("no response generated from Claude API")
	}
	return response.String(), nil
}

func (p *claudeProvider) close() error { return nil }

type geminiProvider struct {
	config *common.GeminiConfig
	client *genai.Client
	logger arbor.ILogger
}

func newGeminiProvider(config *common.GeminiConfig, logger arbor.ILogger) (*geminiProvider, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("Gemini API key is required (set GEMINI_API_KEY or gemini.api_key)")
	}
	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	logger.Debug().
		Str("model", config.Model).
		Msg("Gemini provider initialized")
	return &geminiProvider{config: config, client: client, logger: logger}, nil
}

func (p *geminiProvider) name() string { return "gemini" }

func (p *geminiProvider) generate(ctx context.Context, prompt string) (string, error) {
	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(p.config.Temperature),
	}
	resp, err := p.client.Models.GenerateContent(ctx, p.config.Model, []*genai.Content{
		genai.NewContentFromText(prompt, genai.RoleUser),
	}, config)
	if err != nil {
		return "", fmt.Errorf("Gemini API call failed: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("no response generated from Gemini API")
	}
	return text, nil
}

func (p *geminiProvider) close() error {
	// genai.Client holds no resources requiring explicit release.
	p.client = nil
	return nil
}
