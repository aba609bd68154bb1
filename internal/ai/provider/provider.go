package provider

import (
	"context"
	"errors"
	"fmt"
)

// Errors returned by providers.
var (
	// ErrNoAPIKey indicates a provider was configured without a key.
	ErrNoAPIKey = errors.New("provider has no api key")

	// ErrEmptyResponse indicates the model returned no content.
	ErrEmptyResponse = errors.New("model returned no content")
)

// Request is one generation request.
type Request struct {
	// System is the system prompt.
	System string

	// Prompt is the user prompt.
	Prompt string

	// Structured asks the model for the JSON block payload instead of
	// prose. Only non-streaming generation honors it.
	Structured bool

	// MaxTokens bounds the response length; 0 uses the provider default.
	MaxTokens int
}

// Response is a completed generation.
type Response struct {
	// Text is the generated prose.
	Text string

	// Structured holds the raw JSON payload when the request asked for
	// structured output.
	Structured string
}

// Provider generates text from a model.
type Provider interface {
	// Name identifies the provider ("openai", "anthropic", "mock").
	Name() string

	// Generate performs a blocking generation.
	Generate(ctx context.Context, req Request) (*Response, error)

	// GenerateStream starts a streaming generation. The caller drains
	// Stream.Chunks and then checks Stream.Wait.
	GenerateStream(ctx context.Context, req Request) (*Stream, error)
}

// Config selects and configures a provider.
type Config struct {
	Name      string
	APIKey    string
	Model     string
	MaxTokens int
}

// New builds the provider named in the config.
func New(cfg Config) (Provider, error) {
	switch cfg.Name {
	case "openai":
		return NewOpenAI(cfg)
	case "anthropic":
		return NewAnthropic(cfg)
	case "mock", "":
		return &Mock{}, nil
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Name)
	}
}
