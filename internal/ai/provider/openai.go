package provider

import (
	"context"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const defaultOpenAIModel = openai.ChatModelGPT4o

// OpenAI generates text through the OpenAI chat completions API.
type OpenAI struct {
	client    openai.Client
	model     string
	maxTokens int
}

// NewOpenAI creates an OpenAI provider from the config.
func NewOpenAI(cfg Config) (*OpenAI, error) {
	if cfg.APIKey == "" {
		return nil, ErrNoAPIKey
	}
	model := cfg.Model
	if model == "" {
		model = defaultOpenAIModel
	}
	return &OpenAI{
		client:    openai.NewClient(option.WithAPIKey(cfg.APIKey)),
		model:     model,
		maxTokens: cfg.MaxTokens,
	}, nil
}

// Name implements Provider.
func (p *OpenAI) Name() string { return "openai" }

// Generate implements Provider.
func (p *OpenAI) Generate(ctx context.Context, req Request) (*Response, error) {
	params := p.params(req)
	if req.Structured {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &openai.ResponseFormatJSONObjectParam{},
		}
	}
	completion, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, err
	}
	if len(completion.Choices) == 0 {
		return nil, ErrEmptyResponse
	}
	content := completion.Choices[0].Message.Content
	resp := &Response{Text: content}
	if req.Structured {
		resp.Structured = content
	}
	return resp, nil
}

// GenerateStream implements Provider.
func (p *OpenAI) GenerateStream(ctx context.Context, req Request) (*Stream, error) {
	stream := p.client.Chat.Completions.NewStreaming(ctx, p.params(req))
	return NewStream(ctx, func(emit func(string) bool) error {
		defer stream.Close()
		for stream.Next() {
			chunk := stream.Current()
			if len(chunk.Choices) == 0 {
				continue
			}
			if delta := chunk.Choices[0].Delta.Content; delta != "" {
				if !emit(delta) {
					return ctx.Err()
				}
			}
		}
		return stream.Err()
	}), nil
}

func (p *OpenAI) params(req Request) openai.ChatCompletionNewParams {
	params := openai.ChatCompletionNewParams{
		Model: p.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(req.System),
			openai.UserMessage(req.Prompt),
		},
	}
	if max := req.MaxTokens; max > 0 {
		params.MaxTokens = openai.Int(int64(max))
	} else if p.maxTokens > 0 {
		params.MaxTokens = openai.Int(int64(p.maxTokens))
	}
	return params
}
